package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.RPC.Timeout.Std())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "plugin.yaml", `
plugin:
  name: pingpong
rpc:
  timeout: 2s
  retries: 3
  rate_limit: 20
server:
  workers: 4
  handler_timeout: 500ms
log:
  level: debug
store:
  backend: etcd
  endpoints: ["127.0.0.1:2379"]
  ttl: 1h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pingpong", cfg.Plugin.Name)
	assert.Equal(t, 2*time.Second, cfg.RPC.Timeout.Std())
	assert.Equal(t, 3, cfg.RPC.Retries)
	assert.Equal(t, 1, cfg.RPC.RateBurst)
	assert.Equal(t, 100*time.Millisecond, cfg.RPC.RetryBackoff.Std())
	assert.Equal(t, 4, cfg.Server.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.HandlerTimeout.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, BackendEtcd, cfg.Store.Backend)
	assert.Equal(t, []string{"127.0.0.1:2379"}, cfg.Store.Endpoints)
	assert.Equal(t, time.Hour, cfg.Store.TTL.Std())
	assert.Equal(t, 16<<20, cfg.RPC.MaxLineSize)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "plugin.toml", `
[plugin]
name = "commands"

[rpc]
timeout = "30s"

[store]
backend = "memory"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "commands", cfg.Plugin.Name)
	assert.Equal(t, 30*time.Second, cfg.RPC.Timeout.Std())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 1, cfg.Server.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		name    string
		content string
	}{
		"bad duration":      {"a.yaml", "rpc:\n  timeout: soon\n"},
		"unknown extension": {"a.json", "{}"},
		"unknown backend":   {"a.yaml", "store:\n  backend: redis\n"},
		"etcd no endpoints": {"a.toml", "[store]\nbackend = \"etcd\"\n"},
		"negative retries":  {"a.yaml", "rpc:\n  retries: -1\n"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.name, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDurationText(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(text))

	var back Duration
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, d, back)
}
