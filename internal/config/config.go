package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type RunnerConfig struct {
	Python           string        `mapstructure:"python"`
	DefaultTimeout   int           `mapstructure:"default_timeout"`
	TempDir          string        `mapstructure:"temp_dir"`
	WorkspacePrefix  string        `mapstructure:"workspace_prefix"`
	ArtifactPatterns []string      `mapstructure:"artifact_patterns"`
	KillGrace        time.Duration `mapstructure:"kill_grace"`
	Env              []string      `mapstructure:"env"` // KEY=VALUE, case preserved
}

type PlotConfig struct {
	Backend string `mapstructure:"backend"`
	Prefix  string `mapstructure:"prefix"`
	Format  string `mapstructure:"format"`
	DPI     int    `mapstructure:"dpi"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Transport string       `mapstructure:"transport"`
	Server    ServerConfig `mapstructure:"server"`
	Runner    RunnerConfig `mapstructure:"runner"`
	Plot      PlotConfig   `mapstructure:"plot"`
	Log       LogConfig    `mapstructure:"log"`
}

// Load reads pyplot-mcp.yaml from the given path, or from . and
// $HOME/.pyplot-mcp when path is empty. A missing config file is fine; the
// defaults and environment are enough to run.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pyplot-mcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pyplot-mcp")
	}

	policy := sandbox.DefaultPolicy()
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("runner.python", policy.Python)
	v.SetDefault("runner.default_timeout", sandbox.DefaultTimeoutSeconds)
	v.SetDefault("runner.temp_dir", "")
	v.SetDefault("runner.workspace_prefix", policy.WorkspacePrefix)
	v.SetDefault("runner.artifact_patterns", policy.ArtifactPatterns)
	v.SetDefault("runner.kill_grace", policy.KillGrace)
	v.SetDefault("plot.backend", policy.Plot.Backend)
	v.SetDefault("plot.prefix", policy.Plot.Prefix)
	v.SetDefault("plot.format", policy.Plot.Format)
	v.SetDefault("plot.dpi", policy.Plot.DPI)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// PYPLOT_RUNNER_PYTHON etc. for every key, plus the bare PORT that
	// PaaS platforms set.
	v.SetEnvPrefix("PYPLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "PYPLOT_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if strings.EqualFold(os.Getenv("HTTP_SERVER"), "true") {
		cfg.Transport = TransportHTTP
	}

	return &cfg, nil
}

// UseHTTP returns true if the default entry point should serve HTTP.
func (c *Config) UseHTTP() bool {
	return strings.EqualFold(c.Transport, TransportHTTP)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Policy builds the sandbox policy from the runner and plot sections.
func (c *Config) Policy() sandbox.Policy {
	p := sandbox.DefaultPolicy()
	if c.Runner.Python != "" {
		p.Python = c.Runner.Python
	}
	p.TempDir = c.Runner.TempDir
	if c.Runner.WorkspacePrefix != "" {
		p.WorkspacePrefix = c.Runner.WorkspacePrefix
	}
	if len(c.Runner.ArtifactPatterns) > 0 {
		p.ArtifactPatterns = c.Runner.ArtifactPatterns
	}
	if c.Runner.KillGrace > 0 {
		p.KillGrace = c.Runner.KillGrace
	}
	p.Env = parseEnv(c.Runner.Env)
	if c.Plot.Backend != "" {
		p.Plot.Backend = c.Plot.Backend
	}
	if c.Plot.Prefix != "" {
		p.Plot.Prefix = c.Plot.Prefix
	}
	if c.Plot.Format != "" {
		p.Plot.Format = c.Plot.Format
	}
	if c.Plot.DPI > 0 {
		p.Plot.DPI = c.Plot.DPI
	}
	return p
}

// parseEnv splits KEY=VALUE entries on the first '='. Entries without a key
// are skipped.
func parseEnv(entries []string) map[string]string {
	if len(entries) == 0 {
		return nil
	}
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, _ := strings.Cut(e, "=")
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// DefaultTimeout returns the timeout applied when a call omits timeout_s.
func (c *Config) DefaultTimeout() int {
	if c.Runner.DefaultTimeout > 0 {
		return c.Runner.DefaultTimeout
	}
	return sandbox.DefaultTimeoutSeconds
}

// Logger builds the process logger. It always writes to stderr because
// stdout carries the stdio transport.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(c.Log.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}
