package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TRACELENS_REMOTE_URL", "TRACELENS_EXEC_MODE", "TRACELENS_LOG_LEVEL", "TRACELENS_WEB_ADDR", "TRACELENS_ITERATION_CAP"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.Simulation.IterationCap)
	assert.Equal(t, 8, cfg.Simulation.MaxCallDepth)
	assert.Equal(t, ExecOff, cfg.Execution.Mode)
	assert.Equal(t, ":8080", cfg.Web.Addr)
	assert.Equal(t, 10*time.Second, cfg.GetExecutionTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "tracelens.yaml")

	cfg := DefaultConfig()
	cfg.Simulation.IterationCap = 50
	cfg.Execution.Mode = ExecLocal
	cfg.Logging.JSON = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("execution:\n  timeout: 3s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.GetExecutionTimeout())
	assert.Equal(t, 1000, cfg.Simulation.IterationCap)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [1, 2"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("remote url switches mode on", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRACELENS_REMOTE_URL", "http://runner:9000/run")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://runner:9000/run", cfg.Execution.RemoteURL)
		assert.Equal(t, ExecRemote, cfg.Execution.Mode)
	})

	t.Run("explicit mode wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRACELENS_REMOTE_URL", "http://runner")
		t.Setenv("TRACELENS_EXEC_MODE", ExecLocal)

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, ExecLocal, cfg.Execution.Mode)
	})

	t.Run("scalars", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRACELENS_LOG_LEVEL", "debug")
		t.Setenv("TRACELENS_WEB_ADDR", "127.0.0.1:9999")
		t.Setenv("TRACELENS_ITERATION_CAP", "42")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "127.0.0.1:9999", cfg.Web.Addr)
		assert.Equal(t, 42, cfg.Simulation.IterationCap)
	})

	t.Run("bad cap is ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRACELENS_ITERATION_CAP", "lots")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 1000, cfg.Simulation.IterationCap)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cap", func(c *Config) { c.Simulation.IterationCap = 0 }},
		{"negative depth", func(c *Config) { c.Simulation.MaxCallDepth = -1 }},
		{"unknown mode", func(c *Config) { c.Execution.Mode = "docker" }},
		{"remote without url", func(c *Config) { c.Execution.Mode = ExecRemote }},
		{"bad timeout", func(c *Config) { c.Execution.Timeout = "soon" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateWeb(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		addr    string
		wantErr bool
	}{
		{"simulate only on all interfaces", ExecOff, ":8080", false},
		{"remote on all interfaces", ExecRemote, "0.0.0.0:8080", false},
		{"local on all interfaces", ExecLocal, ":8080", true},
		{"local on public address", ExecLocal, "192.168.1.4:8080", true},
		{"local on loopback", ExecLocal, "127.0.0.1:8080", false},
		{"local on localhost", ExecLocal, "localhost:9000", false},
		{"local on ipv6 loopback", ExecLocal, "[::1]:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Execution.Mode = tt.mode
			cfg.Web.Addr = tt.addr
			if tt.wantErr {
				assert.Error(t, cfg.ValidateWeb())
			} else {
				assert.NoError(t, cfg.ValidateWeb())
			}
		})
	}
}
