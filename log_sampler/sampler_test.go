package log_sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllSampler(t *testing.T) {
	s := New(0)
	for i := 0; i < 10; i++ {
		ok, weight := s.Sample()
		assert.True(t, ok)
		assert.Equal(t, 1, weight)
	}
}

func TestRatelimitSampler(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := New(10).(*ratelimitSampler)
	s.now = func() time.Time { return now }
	assert.Equal(t, 100*time.Millisecond, s.interval)

	ok, weight := s.Sample()
	assert.True(t, ok)
	assert.Equal(t, 1, weight)

	for i := 0; i < 4; i++ {
		now = now.Add(10 * time.Millisecond)
		ok, _ = s.Sample()
		assert.False(t, ok)
	}

	now = now.Add(100 * time.Millisecond)
	ok, weight = s.Sample()
	assert.True(t, ok)
	assert.Equal(t, 5, weight)
}

func TestRatelimitSamplerTinyRate(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := New(1e-10).(*ratelimitSampler)
	s.now = func() time.Time { return now }
	assert.Equal(t, maxInterval, s.interval)

	ok, _ := s.Sample()
	assert.True(t, ok)
	now = now.Add(time.Minute)
	ok, _ = s.Sample()
	assert.False(t, ok)
	now = now.Add(maxInterval)
	ok, weight := s.Sample()
	assert.True(t, ok)
	assert.Equal(t, 2, weight)
}
