package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	gocalculus "github.com/njchilds90/gocalculus"
)

// Config holds all calculus service configuration.
type Config struct {
	// HTTP service
	Server ServerConfig `yaml:"server"`

	// Numeric tolerances and iteration caps
	Engine EngineConfig `yaml:"engine"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	ReadTimeout       string `yaml:"read_timeout"`
	WriteTimeout      string `yaml:"write_timeout"`
	IdleTimeout       string `yaml:"idle_timeout"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
}

// EngineConfig mirrors gocalculus.Options. Zero values fall back to the
// engine defaults.
type EngineConfig struct {
	SamplePoints int     `yaml:"sample_points"`
	DefaultStart float64 `yaml:"default_start"`
	DefaultEnd   float64 `yaml:"default_end"`

	MaxDiffOrder int `yaml:"max_diff_order"`
	MaxDiffNodes int `yaml:"max_diff_nodes"`

	IntegrationTolerance float64 `yaml:"integration_tolerance"`
	MaxDepth             int     `yaml:"max_depth"`
	MaxIntervals         int     `yaml:"max_intervals"`

	RootGrid          int     `yaml:"root_grid"`
	RootTolerance     float64 `yaml:"root_tolerance"`
	RootMaxIterations int     `yaml:"root_max_iterations"`
	RootResidual      float64 `yaml:"root_residual"`
	TangentTolerance  float64 `yaml:"tangent_tolerance"`
	RootMergeDistance float64 `yaml:"root_merge_distance"`
	ClassifyTolerance float64 `yaml:"classify_tolerance"`

	LimitSteps          int     `yaml:"limit_steps"`
	LimitTolerance      float64 `yaml:"limit_tolerance"`
	DivergenceThreshold float64 `yaml:"divergence_threshold"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder instead of JSON
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	o := gocalculus.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Host:              "",
			Port:              8000,
			ReadHeaderTimeout: "5s",
			ReadTimeout:       "15s",
			WriteTimeout:      "30s",
			IdleTimeout:       "60s",
			ShutdownTimeout:   "10s",
			MaxBodyBytes:      1 << 20,
		},
		Engine: EngineConfig{
			SamplePoints:         o.SamplePoints,
			DefaultStart:         o.DefaultStart,
			DefaultEnd:           o.DefaultEnd,
			MaxDiffOrder:         o.MaxDiffOrder,
			MaxDiffNodes:         o.MaxDiffNodes,
			IntegrationTolerance: o.IntegrationTolerance,
			MaxDepth:             o.MaxDepth,
			MaxIntervals:         o.MaxIntervals,
			RootGrid:             o.RootGrid,
			RootTolerance:        o.RootTolerance,
			RootMaxIterations:    o.RootMaxIterations,
			RootResidual:         o.RootResidual,
			TangentTolerance:     o.TangentTolerance,
			RootMergeDistance:    o.RootMergeDistance,
			ClassifyTolerance:    o.ClassifyTolerance,
			LimitSteps:           o.LimitSteps,
			LimitTolerance:       o.LimitTolerance,
			DivergenceThreshold:  o.DivergenceThreshold,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
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

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("CALCULUS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("CALCULUS_HOST"); host != "" {
		c.Server.Host = host
	}
	if level := os.Getenv("CALCULUS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetReadHeaderTimeout returns the read header timeout as a duration.
func (c *Config) GetReadHeaderTimeout() time.Duration {
	return duration(c.Server.ReadHeaderTimeout, 5*time.Second)
}

// GetReadTimeout returns the read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return duration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return duration(c.Server.WriteTimeout, 30*time.Second)
}

// GetIdleTimeout returns the idle timeout as a duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return duration(c.Server.IdleTimeout, 60*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown budget as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return duration(c.Server.ShutdownTimeout, 10*time.Second)
}

// EngineOptions converts the engine section to gocalculus.Options.
func (c *Config) EngineOptions() gocalculus.Options {
	e := c.Engine
	return gocalculus.Options{
		SamplePoints:         e.SamplePoints,
		DefaultStart:         e.DefaultStart,
		DefaultEnd:           e.DefaultEnd,
		MaxDiffOrder:         e.MaxDiffOrder,
		MaxDiffNodes:         e.MaxDiffNodes,
		IntegrationTolerance: e.IntegrationTolerance,
		MaxDepth:             e.MaxDepth,
		MaxIntervals:         e.MaxIntervals,
		RootGrid:             e.RootGrid,
		RootTolerance:        e.RootTolerance,
		RootMaxIterations:    e.RootMaxIterations,
		RootResidual:         e.RootResidual,
		TangentTolerance:     e.TangentTolerance,
		RootMergeDistance:    e.RootMergeDistance,
		ClassifyTolerance:    e.ClassifyTolerance,
		LimitSteps:           e.LimitSteps,
		LimitTolerance:       e.LimitTolerance,
		DivergenceThreshold:  e.DivergenceThreshold,
	}
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("invalid max_body_bytes: %d", c.Server.MaxBodyBytes)
	}
	for name, s := range map[string]string{
		"read_header_timeout": c.Server.ReadHeaderTimeout,
		"read_timeout":        c.Server.ReadTimeout,
		"write_timeout":       c.Server.WriteTimeout,
		"idle_timeout":        c.Server.IdleTimeout,
		"shutdown_timeout":    c.Server.ShutdownTimeout,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("invalid server.%s %q: %w", name, s, err)
		}
	}

	if c.Engine.DefaultStart > c.Engine.DefaultEnd {
		return fmt.Errorf("engine.default_start (%g) exceeds engine.default_end (%g)", c.Engine.DefaultStart, c.Engine.DefaultEnd)
	}
	if c.Engine.SamplePoints < 0 || c.Engine.RootGrid < 0 || c.Engine.MaxDepth < 0 ||
		c.Engine.MaxIntervals < 0 || c.Engine.RootMaxIterations < 0 || c.Engine.LimitSteps < 0 ||
		c.Engine.MaxDiffOrder < 0 || c.Engine.MaxDiffNodes < 0 {
		return fmt.Errorf("engine counts must not be negative")
	}
	if c.Engine.IntegrationTolerance < 0 || c.Engine.RootTolerance < 0 || c.Engine.ClassifyTolerance < 0 ||
		c.Engine.RootResidual < 0 || c.Engine.TangentTolerance < 0 || c.Engine.RootMergeDistance < 0 ||
		c.Engine.LimitTolerance < 0 || c.Engine.DivergenceThreshold < 0 {
		return fmt.Errorf("engine tolerances must not be negative")
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	return nil
}
