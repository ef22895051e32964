package main

import (
	"context"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/volcengine/apminsight-profiling-demo/config"
	"github.com/volcengine/apminsight-profiling-demo/dataset"
	"github.com/volcengine/apminsight-profiling-demo/log_sampler"
	"github.com/volcengine/apminsight-profiling-demo/logger"
	"github.com/volcengine/apminsight-profiling-demo/metrics"
	"github.com/volcengine/apminsight-profiling-demo/profiler"
	"github.com/volcengine/apminsight-profiling-demo/server"
	"github.com/volcengine/apminsight-profiling-demo/shutdown"
	"golang.org/x/sync/errgroup"
)

// serve blocks until a termination signal has been handled; the process exits from the
// shutdown coordinator. Flags set in flags keep precedence over reloaded config files.
func serve(cfg *config.Config, flags *pflag.FlagSet) error {
	log := logrus.New()
	if err := logger.Configure(log, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	appLogger := logger.NewLogrus(log)
	gin.SetMode(gin.ReleaseMode)

	ds := dataset.Generate(cfg.DatasetSize)
	appLogger.Info("generated dataset of %d users", ds.Len())

	session := profiler.NewSession(
		profiler.WithLogger(appLogger.WithField("component", "profiler")),
		profiler.WithOutputDir(cfg.Profile.OutputDir),
		profiler.WithFilePrefix(cfg.Profile.FilePrefix),
		profiler.WithResourceMonitor(cfg.Profile.MonitorIntervalDuration()),
	)
	if err := session.Start(); err != nil {
		log.Fatalf("could not start CPU profiling: %v", err)
	}

	routerOpts := []server.Option{
		server.WithLogger(appLogger.WithField("component", "http")),
		server.WithAccessLogSampler(log_sampler.New(cfg.Log.AccessPerSecond)),
	}
	var metricsClient *metrics.Client
	if cfg.Metrics.Address != "" {
		metricsClient = metrics.NewClient(
			metrics.WithAddress(cfg.Metrics.Address),
			metrics.WithPrefix(cfg.Metrics.Prefix),
			metrics.WithLogger(appLogger.WithField("component", "metrics")),
		)
		metricsClient.Start()
		routerOpts = append(routerOpts, server.WithMetrics(metricsClient))
	}
	srv := server.New(cfg.Listen, server.NewRouter(ds, routerOpts...), appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serveFailed int32
	coordinator := shutdown.New(
		shutdown.WithLogger(appLogger),
		shutdown.WithTimeout(cfg.ShutdownTimeoutDuration()),
		shutdown.WithExit(func(code int) {
			if code == 0 && atomic.LoadInt32(&serveFailed) == 1 {
				code = 1
			}
			exit(code)
		}),
	)
	coordinator.OnShutdown("profiler", func(context.Context) error {
		_, err := session.Stop()
		return err
	})
	coordinator.OnShutdown("http", srv.Shutdown)
	if metricsClient != nil {
		coordinator.OnShutdown("metrics", func(context.Context) error {
			metricsClient.Close()
			return nil
		})
	}
	coordinator.OnShutdown("background", func(context.Context) error {
		cancel()
		return nil
	})
	coordinator.Listen()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	if configPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, configPath, func(next *config.Config) {
				if flags != nil {
					applyFlags(flags, next)
				}
				if err := logger.Configure(log, next.Log.Level, next.Log.Format); err != nil {
					appLogger.Error("apply reloaded log settings: %v", err)
				}
			}, appLogger)
			if err != nil {
				// live reload is optional, keep serving
				appLogger.Error("config watch disabled: %v", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		appLogger.Error("server stopped: %v", err)
		atomic.StoreInt32(&serveFailed, 1)
		coordinator.Shutdown("server error")
	}
	coordinator.Wait()
	return nil
}
