package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/sirupsen/logrus"
	"github.com/volcengine/apminsight-profiling-demo/dataset"
)

const (
	DefaultListen          = ":3000"
	DefaultShutdownTimeout = "5s"
	DefaultOutputDir       = "."
	DefaultFilePrefix      = "cpu-profile"
	DefaultMonitorInterval = "10s"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultMetricsPrefix   = "profdemo"
)

var ErrInvalidConfig = errors.New("invalid config")

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Listen:          DefaultListen,
		DatasetSize:     dataset.DefaultSize,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	applyDefaults(cfg)
	return cfg
}

// Load decodes the HCL file at path on top of the defaults. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	// top-level attributes absent from the file keep these values
	cfg := &Config{
		Listen:          DefaultListen,
		DatasetSize:     dataset.DefaultSize,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("error decoding HCL file %s: %w", path, err)
	}
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills blocks and block fields the file left out.
func applyDefaults(cfg *Config) {
	if cfg.Profile == nil {
		cfg.Profile = &Profile{}
	}
	if cfg.Profile.OutputDir == "" {
		cfg.Profile.OutputDir = DefaultOutputDir
	}
	if cfg.Profile.FilePrefix == "" {
		cfg.Profile.FilePrefix = DefaultFilePrefix
	}
	if cfg.Profile.MonitorInterval == "" {
		cfg.Profile.MonitorInterval = DefaultMonitorInterval
	}

	if cfg.Log == nil {
		cfg.Log = &Log{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &Metrics{}
	}
	if cfg.Metrics.Prefix == "" {
		cfg.Metrics.Prefix = DefaultMetricsPrefix
	}
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func Validate(cfg *Config) error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if cfg.Listen == "" {
		return invalid("listen must not be empty")
	}
	if cfg.DatasetSize < 0 {
		return invalid("dataset_size must not be negative, got %d", cfg.DatasetSize)
	}
	if d, err := time.ParseDuration(cfg.ShutdownTimeout); err != nil || d <= 0 {
		return invalid("shutdown_timeout %q is not a positive duration", cfg.ShutdownTimeout)
	}
	if d, err := time.ParseDuration(cfg.Profile.MonitorInterval); err != nil || d < 0 {
		return invalid("profile.monitor_interval %q is not a duration", cfg.Profile.MonitorInterval)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	if cfg.Log.AccessPerSecond < 0 {
		return invalid("log.access_per_second must not be negative")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}
