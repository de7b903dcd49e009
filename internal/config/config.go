// Package config loads and validates the daemon's TOML configuration
// and watches the file for changes.
package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/procman/internal/logging"
)

const (
	defaultListen        = "127.0.0.1:8710"
	defaultWaitTimeoutMs = 30000
)

// Config is the full daemon configuration.
type Config struct {
	Logging   logging.Config  `toml:"logging"`
	Server    ServerConfig    `toml:"server"`
	Processes []ProcessConfig `toml:"process"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// ProcessConfig describes one supervised process.
type ProcessConfig struct {
	Name                  string            `toml:"name"`
	Executable            string            `toml:"executable"`
	Args                  []string          `toml:"args"`
	Dir                   string            `toml:"dir"`
	Env                   map[string]string `toml:"env"`
	ConsoleBufferMaxLines int               `toml:"console_buffer_max_lines"`
	WaitFor               string            `toml:"wait_for"`
	WaitTimeoutMs         int64             `toml:"wait_timeout_ms"`
	DestroyOnShutdown     bool              `toml:"destroy_on_shutdown"`
	SuccessExitValues     []int             `toml:"success_exit_values"`
}

// IsSuccessExit reports whether the exit code counts as a clean exit for
// this process. An empty SuccessExitValues list means only zero does.
func (p ProcessConfig) IsSuccessExit(code int) bool {
	if len(p.SuccessExitValues) == 0 {
		return code == 0
	}
	return slices.Contains(p.SuccessExitValues, code)
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	for i := range c.Processes {
		if c.Processes[i].WaitFor != "" && c.Processes[i].WaitTimeoutMs <= 0 {
			c.Processes[i].WaitTimeoutMs = defaultWaitTimeoutMs
		}
	}
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Processes))
	for i, p := range c.Processes {
		if p.Name == "" {
			return fmt.Errorf("process %d: name is required", i)
		}
		if p.Executable == "" {
			return fmt.Errorf("process %q: executable is required", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("process %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
		if p.ConsoleBufferMaxLines < 0 {
			return fmt.Errorf("process %q: console_buffer_max_lines must not be negative", p.Name)
		}
	}
	return nil
}

// Process looks up one process entry by name.
func (c *Config) Process(name string) (ProcessConfig, bool) {
	for _, p := range c.Processes {
		if p.Name == name {
			return p, true
		}
	}
	return ProcessConfig{}, false
}
