package config

import (
	"time"
)

// Config is the resolved server configuration. Blocks are always non-nil after Load.
type Config struct {
	Listen          string   `hcl:"listen,optional"`
	DatasetSize     int      `hcl:"dataset_size,optional"`
	ShutdownTimeout string   `hcl:"shutdown_timeout,optional"` // e.g. "5s"
	Profile         *Profile `hcl:"profile,block"`
	Log             *Log     `hcl:"log,block"`
	Metrics         *Metrics `hcl:"metrics,block"`
}

// Profile configures the CPU profiling session
type Profile struct {
	OutputDir       string `hcl:"output_dir,optional"`
	FilePrefix      string `hcl:"file_prefix,optional"`
	MonitorInterval string `hcl:"monitor_interval,optional"` // "0s" disables resource sampling
}

type Log struct {
	Level  string `hcl:"level,optional"`  // logrus level name
	Format string `hcl:"format,optional"` // "text" or "json"

	// AccessPerSecond caps access log lines per second, 0 logs every request
	AccessPerSecond float64 `hcl:"access_per_second,optional"`
}

// Metrics is disabled while Address is empty
type Metrics struct {
	Address string `hcl:"address,optional"`
	Prefix  string `hcl:"prefix,optional"`
}

// ShutdownTimeoutDuration is only meaningful after Validate succeeded.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

func (p *Profile) MonitorIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(p.MonitorInterval)
	return d
}
