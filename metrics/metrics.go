// Package metrics batches counters, timers and gauges and ships them as datagrams to a
// local agent over a unix socket.
package metrics

import (
	"time"

	"github.com/volcengine/apminsight-profiling-demo/logger"
)

const (
	batchSize        = 64
	asyncChannelSize = 256
	maxPacketSize    = 4096
	flushInterval    = time.Second
)

type Config struct {
	prefix        string
	address       string
	flushInterval time.Duration
	logger        logger.Logger
}

type ClientOption func(config *Config)

// WithPrefix prepends "<prefix>." to every metric name
func WithPrefix(prefix string) ClientOption {
	return func(config *Config) {
		config.prefix = prefix
	}
}

// WithAddress set the unixgram socket metrics are written to
func WithAddress(address string) ClientOption {
	return func(config *Config) {
		config.address = address
	}
}

func WithFlushInterval(d time.Duration) ClientOption {
	return func(config *Config) {
		if d > 0 {
			config.flushInterval = d
		}
	}
}

func WithLogger(l logger.Logger) ClientOption {
	return func(config *Config) {
		config.logger = l
	}
}

type tag struct {
	key   string
	value string
}

type metricItem struct {
	mt    uint8
	name  string
	value float64
	tags  []tag
}
