// Package log_sampler decides which requests get an access log line.
package log_sampler

import (
	"sync"
	"time"
)

// maxInterval bounds the gap between kept lines for tiny rates.
const maxInterval = time.Hour

type Sampler interface {
	// Sample reports whether to log, and how many requests the logged one stands for.
	Sample() (bool, int)
}

// New returns a sampler keeping at most perSecond lines per second. perSecond <= 0 keeps all.
func New(perSecond float64) Sampler {
	if perSecond <= 0 {
		return &allSampler{}
	}
	interval := maxInterval
	if ns := float64(time.Second) / perSecond; ns < float64(maxInterval) {
		interval = time.Duration(ns)
	}
	return &ratelimitSampler{
		interval: interval,
		now:      time.Now,
	}
}

type allSampler struct{}

func (s *allSampler) Sample() (bool, int) {
	return true, 1
}

type ratelimitSampler struct {
	interval time.Duration
	now      func() time.Time

	mutex sync.Mutex

	last      time.Time
	noSampled int
}

func (s *ratelimitSampler) Sample() (bool, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	if now.Sub(s.last) < s.interval {
		s.noSampled++
		return false, 0
	}
	weight := s.noSampled + 1
	s.last = now
	s.noSampled = 0
	return true, weight
}
