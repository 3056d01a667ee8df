package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".tracelens.yaml"

// Config holds all tracelens configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Execution  ExecutionConfig  `yaml:"execution"`
	Logging    LoggingConfig    `yaml:"logging"`
	Web        WebConfig        `yaml:"web"`
	Update     UpdateConfig     `yaml:"update"`
}

// SimulationConfig bounds the simulator.
type SimulationConfig struct {
	IterationCap int `yaml:"iteration_cap"`
	MaxCallDepth int `yaml:"max_call_depth"`
}

// Execution modes.
const (
	ExecOff    = "off"
	ExecRemote = "remote"
	ExecLocal  = "local"
)

// ExecutionConfig selects how programs are run for real.
type ExecutionConfig struct {
	Mode      string `yaml:"mode"` // off, remote, local
	RemoteURL string `yaml:"remote_url"`
	Timeout   string `yaml:"timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// WebConfig configures the web server.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// UpdateConfig names the repository checked for new releases.
type UpdateConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			IterationCap: 1000,
			MaxCallDepth: 8,
		},
		Execution: ExecutionConfig{
			Mode:    ExecOff,
			Timeout: "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Web: WebConfig{
			Addr: ":8080",
		},
		Update: UpdateConfig{
			Owner: "tracelens",
			Repo:  "tracelens",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("TRACELENS_REMOTE_URL"); url != "" {
		c.Execution.RemoteURL = url
		if c.Execution.Mode == ExecOff {
			c.Execution.Mode = ExecRemote
		}
	}
	if mode := os.Getenv("TRACELENS_EXEC_MODE"); mode != "" {
		c.Execution.Mode = mode
	}
	if level := os.Getenv("TRACELENS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("TRACELENS_WEB_ADDR"); addr != "" {
		c.Web.Addr = addr
	}
	if v := os.Getenv("TRACELENS_ITERATION_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Simulation.IterationCap = n
		}
	}
}

// GetExecutionTimeout returns the real-execution timeout as a duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidModes lists the accepted execution modes.
var ValidModes = []string{ExecOff, ExecRemote, ExecLocal}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if c.Simulation.IterationCap <= 0 {
		return fmt.Errorf("simulation.iteration_cap must be positive, got %d", c.Simulation.IterationCap)
	}
	if c.Simulation.MaxCallDepth < 0 {
		return fmt.Errorf("simulation.max_call_depth must not be negative, got %d", c.Simulation.MaxCallDepth)
	}
	if !contains(ValidModes, c.Execution.Mode) {
		return fmt.Errorf("invalid execution mode: %s (valid: %v)", c.Execution.Mode, ValidModes)
	}
	if c.Execution.Mode == ExecRemote && c.Execution.RemoteURL == "" {
		return fmt.Errorf("execution mode %q requires execution.remote_url", ExecRemote)
	}
	if _, err := time.ParseDuration(c.Execution.Timeout); err != nil {
		return fmt.Errorf("invalid execution.timeout %q: %w", c.Execution.Timeout, err)
	}
	if !contains(ValidLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	return nil
}

// ValidateWeb checks the settings that only matter when serving the web
// API. Local execution runs submitted code on this host, so it is only
// allowed when the server listens on a loopback address.
func (c *Config) ValidateWeb() error {
	if c.Execution.Mode != ExecLocal {
		return nil
	}
	if !IsLoopback(c.Web.Addr) {
		return fmt.Errorf("execution mode %q with web.addr %q would let any client run code on this host; bind web.addr to 127.0.0.1 or localhost", ExecLocal, c.Web.Addr)
	}
	return nil
}

// IsLoopback reports whether a listen address only accepts local
// connections. An empty host listens on every interface.
func IsLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
