// Package profiler runs one CPU profiling session per process and writes its result to disk
// when the session stops.
package profiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/volcengine/apminsight-profiling-demo/logger"
	"github.com/volcengine/apminsight-profiling-demo/p_runtime"
	"github.com/volcengine/apminsight-profiling-demo/res_monitor"
)

const (
	defaultOutputDir       = "."
	defaultFilePrefix      = "cpu-profile"
	defaultMonitorInterval = 10 * time.Second

	fileExt = ".cpuprofile"
)

var (
	ErrSessionStarted    = errors.New("profiling session already started")
	ErrSessionNotStarted = errors.New("profiling session not started")
	ErrSessionStopped    = errors.New("profiling session already stopped")
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type Config struct {
	OutputDir  string
	FilePrefix string
	Clock      func() time.Time

	// MonitorInterval is how often process resources are sampled while running. 0 disables.
	MonitorInterval time.Duration

	Logger logger.Logger
}

type Option func(*Config)

func newDefaultConfig() *Config {
	return &Config{
		OutputDir:       defaultOutputDir,
		FilePrefix:      defaultFilePrefix,
		Clock:           time.Now,
		MonitorInterval: defaultMonitorInterval,
	}
}

// WithLogger set logger used in session
func WithLogger(l logger.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// WithOutputDir set directory the profile file is written to
func WithOutputDir(dir string) Option {
	return func(cfg *Config) {
		if dir != "" {
			cfg.OutputDir = dir
		}
	}
}

func WithFilePrefix(prefix string) Option {
	return func(cfg *Config) {
		if prefix != "" {
			cfg.FilePrefix = prefix
		}
	}
}

// WithClock set the time source used to name the profile file
func WithClock(clock func() time.Time) Option {
	return func(cfg *Config) {
		if clock != nil {
			cfg.Clock = clock
		}
	}
}

// WithResourceMonitor set the resource sampling interval. interval <= 0 disables sampling.
func WithResourceMonitor(interval time.Duration) Option {
	return func(cfg *Config) {
		cfg.MonitorInterval = interval
	}
}

// Session moves idle -> running -> stopped exactly once.
type Session struct {
	cfg    *Config
	logger logger.Logger

	mu        sync.Mutex
	state     State
	id        string
	collector *CPUCollector
	monitor   *res_monitor.Monitor
}

func NewSession(opts ...Option) *Session {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.Logger = logger.OrNoop(cfg.Logger)

	return &Session{
		cfg:       cfg,
		logger:    cfg.Logger,
		collector: &CPUCollector{},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID is empty until the session has started.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Start begins CPU sampling. On error the session stays idle.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrSessionStarted
	}
	if err := s.collector.Start(); err != nil {
		return fmt.Errorf("start cpu profile: %w", err)
	}
	if s.cfg.MonitorInterval > 0 {
		s.monitor = res_monitor.NewMonitor(s.cfg.MonitorInterval)
		s.monitor.Start()
	}
	s.id = newRandID()
	s.state = StateRunning

	s.logger.Debug("[Session.Start] runtime info %s", p_runtime.GetRuntimeInfo())
	s.logger.Info("started CPU profiling... session=%s", s.id)
	return nil
}

// Stop ends sampling and writes the profile file, returning its path. The session is
// stopped afterwards even when writing fails.
func (s *Session) Stop() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
		return "", ErrSessionNotStarted
	case StateStopped:
		return "", ErrSessionStopped
	}

	s.logger.Info("Stopping CPU profiling...")
	data := s.collector.Stop()
	s.state = StateStopped
	if s.monitor != nil {
		s.monitor.Stop()
	}

	stats, err := Inspect(data.Data)
	if err != nil {
		return "", fmt.Errorf("read captured profile: %w", err)
	}

	profileFile := filepath.Join(s.cfg.OutputDir, s.fileName())
	if err := writeOnce(profileFile, data.Data); err != nil {
		return "", fmt.Errorf("write profile %s: %w", profileFile, err)
	}

	s.logger.Info("CPU profile saved as %s", profileFile)
	s.logger.Info("[Session.Stop] session=%s samples=%d duration=%s bytes=%d",
		s.id, stats.Samples, data.EndTime.Sub(data.StartTime).Round(time.Millisecond), len(data.Data))
	if s.monitor != nil {
		sum := s.monitor.Summary()
		s.logger.Info("[Session.Stop] resources cpu_ratio=%.4f mem_ratio=%.4f max_rss=%d goroutines=%d cpu_limit=%.2f",
			sum.CPURatio, sum.MemRatio, sum.MaxRssBytes, sum.GoroutineNum, sum.CPULimit)
	}
	return profileFile, nil
}

func (s *Session) fileName() string {
	return fmt.Sprintf("%s-%d%s", s.cfg.FilePrefix, s.cfg.Clock().UnixNano()/int64(time.Millisecond), fileExt)
}

// writeOnce refuses to replace an existing file.
func writeOnce(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
