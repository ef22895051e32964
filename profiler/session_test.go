package profiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type l struct {
	t *testing.T
}

func (l *l) Debug(format string, args ...interface{}) {
	l.t.Logf("[Debug]"+format, args...)
}
func (l *l) Info(format string, args ...interface{}) {
	l.t.Logf("[Info]"+format, args...)
}
func (l *l) Error(format string, args ...interface{}) {
	l.t.Logf("[Error]"+format, args...)
}

func fixedClock() time.Time {
	return time.Unix(1700000000, 123000000)
}

func newTestSession(t *testing.T, dir string, opts ...Option) *Session {
	base := []Option{
		WithLogger(&l{t: t}),
		WithOutputDir(dir),
		WithClock(fixedClock),
		WithResourceMonitor(10 * time.Millisecond),
	}
	return NewSession(append(base, opts...)...)
}

func cpuIntensiveWorkload(d time.Duration) {
	st := time.Now()
	var acc []string
	for time.Since(st) < d {
		acc = append(acc[:0], strings.ToUpper(fmt.Sprint(len(acc))))
	}
}

func TestSessionLifecycle(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.ID())

	require.NoError(t, s.Start())
	assert.Equal(t, StateRunning, s.State())
	assert.Len(t, s.ID(), 32)

	cpuIntensiveWorkload(200 * time.Millisecond)

	path, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, filepath.Join(dir, "cpu-profile-1700000000123.cpuprofile"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	p, err := profile.ParseData(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, p.SampleType)
}

func TestStopWithoutStart(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)

	_, err := s.Stop()
	assert.ErrorIs(t, err, ErrSessionNotStarted)
	assert.Equal(t, StateIdle, s.State())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSessionNotRestartable(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrSessionStarted)

	_, err := s.Stop()
	require.NoError(t, err)

	_, err = s.Stop()
	assert.ErrorIs(t, err, ErrSessionStopped)
	assert.ErrorIs(t, s.Start(), ErrSessionStarted)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConcurrentSessionRejected(t *testing.T) {
	first := newTestSession(t, t.TempDir())
	require.NoError(t, first.Start())
	defer func() {
		_, err := first.Stop()
		assert.NoError(t, err)
	}()

	second := newTestSession(t, t.TempDir())
	assert.Error(t, second.Start())
	assert.Equal(t, StateIdle, second.State())
}

func TestStopWriteFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")
	s := newTestSession(t, missing, WithResourceMonitor(0))

	require.NoError(t, s.Start())
	_, err := s.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write profile")
	assert.Equal(t, StateStopped, s.State())
}

func TestStopDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "cpu-profile-1700000000123.cpuprofile")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o644))

	s := newTestSession(t, dir)
	require.NoError(t, s.Start())
	_, err := s.Stop()
	assert.Error(t, err)

	raw, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(raw))
}

func TestFilePrefix(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir, WithFilePrefix("demo"))
	require.NoError(t, s.Start())
	path, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, "demo-1700000000123.cpuprofile", filepath.Base(path))
}

func TestInspect(t *testing.T) {
	_, err := Inspect(nil)
	assert.ErrorIs(t, err, ErrEmptyProfile)

	_, err = Inspect([]byte("not a profile"))
	assert.Error(t, err)

	c := &CPUCollector{}
	require.NoError(t, c.Start())
	cpuIntensiveWorkload(100 * time.Millisecond)
	data := c.Stop()

	stats, err := Inspect(data.Data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Samples, 0)
	assert.Greater(t, stats.PeriodNanos, int64(0))
	assert.False(t, data.EndTime.Before(data.StartTime))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}
