// Package server exposes the active-users query over HTTP.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/volcengine/apminsight-profiling-demo/dataset"
	"github.com/volcengine/apminsight-profiling-demo/log_sampler"
	"github.com/volcengine/apminsight-profiling-demo/logger"
	"github.com/volcengine/apminsight-profiling-demo/metrics"
	"github.com/volcengine/apminsight-profiling-demo/query"
)

const (
	PathIssue   = "/issue"
	PathNoIssue = "/no-issue"

	notFoundBody      = "Not Found"
	internalErrorBody = "Internal Server Error"

	strategyKey = "strategy"
)

type routerConfig struct {
	logger     logger.Logger
	sampler    log_sampler.Sampler
	metrics    *metrics.Client
	strategies map[string]query.Strategy
}

type Option func(*routerConfig)

func WithLogger(l logger.Logger) Option {
	return func(cfg *routerConfig) {
		cfg.logger = l
	}
}

// WithAccessLogSampler limits access log volume. All requests are logged by default.
func WithAccessLogSampler(s log_sampler.Sampler) Option {
	return func(cfg *routerConfig) {
		cfg.sampler = s
	}
}

// WithMetrics emits a request counter and latency timer per request through c
func WithMetrics(c *metrics.Client) Option {
	return func(cfg *routerConfig) {
		cfg.metrics = c
	}
}

// WithStrategy binds path to s instead of its registered strategy.
func WithStrategy(path string, s query.Strategy) Option {
	return func(cfg *routerConfig) {
		cfg.strategies[path] = s
	}
}

func mustLookup(name string) query.Strategy {
	s, err := query.Lookup(name)
	if err != nil {
		panic(fmt.Sprintf("strategy %s: %v", name, err))
	}
	return s
}

// NewRouter serves /issue with the full-copy strategy and /no-issue with the streamlined one.
// Routes answer every method; anything else is a plain-text 404.
func NewRouter(ds *dataset.Dataset, opts ...Option) *gin.Engine {
	cfg := &routerConfig{
		strategies: map[string]query.Strategy{
			PathIssue:   mustLookup(query.NameFullCopy),
			PathNoIssue: mustLookup(query.NameStreamlined),
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	l := logger.OrNoop(cfg.logger)

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(gin.Recovery(), NewAccessLogMiddleware(l, cfg.sampler))
	if cfg.metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.metrics, l))
	}

	for _, path := range []string{PathIssue, PathNoIssue} {
		r.Any(path, activeUsersHandler(ds, cfg.strategies[path], l))
	}
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, notFoundBody)
	})
	return r
}

func activeUsersHandler(ds *dataset.Dataset, s query.Strategy, l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(strategyKey, s.Name())
		users, err := s.ActiveUsers(ds)
		if err != nil {
			l.Error("[activeUsersHandler] strategy=%s err=%v", s.Name(), err)
			c.String(http.StatusInternalServerError, internalErrorBody)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}
