package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/volcengine/apminsight-profiling-demo/log_sampler"
	"github.com/volcengine/apminsight-profiling-demo/logger"
	"github.com/volcengine/apminsight-profiling-demo/metrics"
)

const (
	metricRequest = "route.request"
	metricLatency = "route.latency_us"
)

func routeName(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unknown"
}

// NewAccessLogMiddleware writes a line for each request the sampler keeps. weight is the
// number of requests the line stands for.
func NewAccessLogMiddleware(l logger.Logger, sampler log_sampler.Sampler) gin.HandlerFunc {
	if sampler == nil {
		sampler = log_sampler.New(0)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ok, weight := sampler.Sample()
		if !ok {
			return
		}
		strategy := c.GetString(strategyKey)
		if strategy == "" {
			strategy = "-"
		}
		l.Info("%s %s status=%d latency=%s strategy=%s bytes=%d weight=%d",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), strategy, c.Writer.Size(), weight)
	}
}

// NewMetricsMiddleware emits per-route metrics. Emit failures, such as requests finishing
// after the client closed, are logged at debug.
func NewMetricsMiddleware(client *metrics.Client, l logger.Logger) gin.HandlerFunc {
	if client == nil {
		panic("metrics client is nil")
	}
	l = logger.OrNoop(l)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		tags := map[string]string{
			"route":  routeName(c),
			"status": strconv.Itoa(c.Writer.Status()),
		}
		if err := client.EmitCounter(metricRequest, 1, tags); err != nil {
			l.Debug("[metricsMiddleware] emit %s err %v", metricRequest, err)
		}
		if err := client.EmitTimer(metricLatency, float64(time.Since(start).Microseconds()), tags); err != nil {
			l.Debug("[metricsMiddleware] emit %s err %v", metricLatency, err)
		}
	}
}
