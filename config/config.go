// Package config loads plugin settings from a YAML or TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendHost   = "host"
	BackendEtcd   = "etcd"
	BackendMemory = "memory"
)

// Duration is a time.Duration written as text ("15s", "250ms") in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Plugin PluginConfig `yaml:"plugin" toml:"plugin"`
	RPC    RPCConfig    `yaml:"rpc" toml:"rpc"`
	Server ServerConfig `yaml:"server" toml:"server"`
	Log    LogConfig    `yaml:"log" toml:"log"`
	Store  StoreConfig  `yaml:"store" toml:"store"`
}

type PluginConfig struct {
	Name string `yaml:"name" toml:"name"`
}

// RPCConfig tunes requests the plugin sends to the host.
type RPCConfig struct {
	Timeout      Duration `yaml:"timeout" toml:"timeout"`
	MaxLineSize  int      `yaml:"max_line_size" toml:"max_line_size"`
	RateLimit    float64  `yaml:"rate_limit" toml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst    int      `yaml:"rate_burst" toml:"rate_burst"`
	Retries      int      `yaml:"retries" toml:"retries"` // retries after ErrTimeout, 0 = never
	RetryBackoff Duration `yaml:"retry_backoff" toml:"retry_backoff"`
}

// ServerConfig tunes handling of messages the host sends.
type ServerConfig struct {
	Workers         int      `yaml:"workers" toml:"workers"`
	HandlerTimeout  Duration `yaml:"handler_timeout" toml:"handler_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	RateLimit       float64  `yaml:"rate_limit" toml:"rate_limit"` // 0 = unlimited
	RateBurst       int      `yaml:"rate_burst" toml:"rate_burst"`
}

type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

type StoreConfig struct {
	Backend     string   `yaml:"backend" toml:"backend"`
	Endpoints   []string `yaml:"endpoints" toml:"endpoints"`
	DialTimeout Duration `yaml:"dial_timeout" toml:"dial_timeout"`
	TTL         Duration `yaml:"ttl" toml:"ttl"` // 0 = keys never expire
}

// Default returns the settings used for anything a file leaves out.
func Default() *Config {
	return &Config{
		Plugin: PluginConfig{Name: "omegga-plugin"},
		RPC: RPCConfig{
			Timeout:      Duration(15 * time.Second),
			MaxLineSize:  16 << 20,
			RetryBackoff: Duration(100 * time.Millisecond),
		},
		Server: ServerConfig{
			Workers:         1,
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Log: LogConfig{Level: "info"},
		Store: StoreConfig{
			Backend:     BackendHost,
			DialTimeout: Duration(5 * time.Second),
		},
	}
}

// Load reads path as YAML (.yaml, .yml) or TOML (.toml). An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// applyDefaults fills zero values from Default.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Plugin.Name == "" {
		c.Plugin.Name = def.Plugin.Name
	}
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = def.RPC.Timeout
	}
	if c.RPC.MaxLineSize == 0 {
		c.RPC.MaxLineSize = def.RPC.MaxLineSize
	}
	if c.RPC.RetryBackoff == 0 {
		c.RPC.RetryBackoff = def.RPC.RetryBackoff
	}
	if c.RPC.RateLimit > 0 && c.RPC.RateBurst == 0 {
		c.RPC.RateBurst = 1
	}
	if c.Server.Workers == 0 {
		c.Server.Workers = def.Server.Workers
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst == 0 {
		c.Server.RateBurst = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Store.Backend == "" {
		c.Store.Backend = def.Store.Backend
	}
	if c.Store.DialTimeout == 0 {
		c.Store.DialTimeout = def.Store.DialTimeout
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendHost, BackendMemory:
	case BackendEtcd:
		if len(c.Store.Endpoints) == 0 {
			return fmt.Errorf("config: store backend %q needs endpoints", c.Store.Backend)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.RPC.Retries < 0 {
		return fmt.Errorf("config: rpc.retries must not be negative")
	}
	if c.Server.Workers < 0 {
		return fmt.Errorf("config: server.workers must not be negative")
	}
	return nil
}
