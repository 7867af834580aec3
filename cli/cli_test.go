package cli

import (
	"context"
	"omegga-rpc/plugin"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags(t *testing.T) {
	cmd := NewCommand("omegga-test", "test plugin", func(ctx context.Context, p *plugin.Plugin) error {
		return nil
	})

	require.NoError(t, cmd.ParseFlags([]string{"--config", "plugin.yaml", "--log-level", "debug"}))
	cfg, err := cmd.Flags().GetString("config")
	require.NoError(t, err)
	assert.Equal(t, "plugin.yaml", cfg)

	level, err := cmd.Flags().GetString("log-level")
	require.NoError(t, err)
	assert.Equal(t, "debug", level)
}

func TestRunPassesConfiguredPlugin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugin:\n  name: flagged\nstore:\n  backend: memory\n"), 0o644))

	var name, level string
	cmd := NewCommand("omegga-test", "test plugin", func(ctx context.Context, p *plugin.Plugin) error {
		name = p.Config.Plugin.Name
		level = p.Config.Log.Level
		return p.Close()
	})
	cmd.SetArgs([]string{"-c", path, "--log-level", "warn"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "flagged", name)
	assert.Equal(t, "warn", level)
}

func TestRunRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: nowhere\n"), 0o644))

	cmd := NewCommand("omegga-test", "test plugin", func(ctx context.Context, p *plugin.Plugin) error {
		t.Fatal("run must not be called")
		return nil
	})
	cmd.SetArgs([]string{"--config", path})
	assert.Error(t, cmd.Execute())
}
