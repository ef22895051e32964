// Package shutdown turns the first termination signal into an ordered, awaited shutdown
// followed by process exit.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/volcengine/apminsight-profiling-demo/logger"
)

const defaultTimeout = 10 * time.Second

// DefaultSignals are the termination signals a Coordinator listens for.
var DefaultSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

type Config struct {
	Signals []os.Signal
	Timeout time.Duration
	Exit    func(code int)
	Logger  logger.Logger
}

type Option func(*Config)

func WithSignals(sigs ...os.Signal) Option {
	return func(cfg *Config) {
		cfg.Signals = sigs
	}
}

// WithTimeout bounds the context handed to hooks. Hooks are awaited either way.
func WithTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.Timeout = d
		}
	}
}

// WithExit replaces os.Exit
func WithExit(exit func(code int)) Option {
	return func(cfg *Config) {
		cfg.Exit = exit
	}
}

func WithLogger(l logger.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

type Coordinator struct {
	cfg    *Config
	logger logger.Logger

	mu    sync.Mutex
	hooks []hook

	once     sync.Once
	sigChan  chan os.Signal
	stopChan chan struct{}
	done     chan struct{}
	exited   chan struct{}
	code     int
}

func New(opts ...Option) *Coordinator {
	cfg := &Config{
		Signals: DefaultSignals,
		Timeout: defaultTimeout,
		Exit:    os.Exit,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Coordinator{
		cfg:      cfg,
		logger:   logger.OrNoop(cfg.Logger),
		sigChan:  make(chan os.Signal, len(cfg.Signals)),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// OnShutdown registers fn to run during shutdown. Hooks run in registration order.
func (c *Coordinator) OnShutdown(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook{name: name, fn: fn})
}

// Listen subscribes to the configured signals and shuts down on the first one.
func (c *Coordinator) Listen() {
	signal.Notify(c.sigChan, c.cfg.Signals...)
	go func() {
		for {
			select {
			case sig := <-c.sigChan:
				go c.Shutdown(sig.String())
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Shutdown runs the hooks and exits. Only the first call does anything; later calls wait
// for it to finish.
func (c *Coordinator) Shutdown(reason string) {
	first := false
	c.once.Do(func() {
		first = true
		c.run(reason)
	})
	if !first {
		c.logger.Debug("[Coordinator.Shutdown] already shutting down, ignoring %s", reason)
		<-c.done
	}
}

func (c *Coordinator) run(reason string) {
	c.logger.Info("Received %s. Initiating shutdown...", reason)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	c.mu.Lock()
	hooks := append([]hook(nil), c.hooks...)
	c.mu.Unlock()

	for _, h := range hooks {
		if err := h.fn(ctx); err != nil {
			c.logger.Error("[Coordinator.run] hook %s failed: %v", h.name, err)
			c.code = 1
			continue
		}
		c.logger.Debug("[Coordinator.run] hook %s done", h.name)
	}

	signal.Stop(c.sigChan)
	close(c.stopChan)
	close(c.done)
	c.logger.Info("shutdown complete, exit code %d", c.code)
	c.cfg.Exit(c.code)
	close(c.exited)
}

// Done is closed after the hooks have run, just before Exit is called.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until shutdown has run and Exit has returned. With os.Exit it never returns.
func (c *Coordinator) Wait() {
	<-c.exited
}
