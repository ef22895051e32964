package profiler

import (
	"bytes"
	"errors"
	"runtime/pprof"
	"time"

	"github.com/google/pprof/profile"
)

var ErrEmptyProfile = errors.New("empty profile")

// ProfileData is a captured profile in the runtime's pprof encoding.
type ProfileData struct {
	Data      []byte
	StartTime time.Time
	EndTime   time.Time
}

// Stats is what the capture contained, read back with google/pprof.
type Stats struct {
	Samples       int
	DurationNanos int64
	PeriodNanos   int64
}

// CPUCollector captures a CPU profile into memory between Start and Stop.
type CPUCollector struct {
	buf   *bytes.Buffer
	start time.Time
}

func (c *CPUCollector) Name() string {
	return "cpu"
}

func (c *CPUCollector) Start() error {
	buf := bytes.NewBuffer(nil)
	if err := pprof.StartCPUProfile(buf); err != nil {
		return err
	}
	c.buf = buf
	c.start = time.Now()
	return nil
}

// Stop ends sampling. The runtime flushes all pending samples before StopCPUProfile returns.
func (c *CPUCollector) Stop() *ProfileData {
	pprof.StopCPUProfile()
	data := &ProfileData{
		Data:      c.buf.Bytes(),
		StartTime: c.start,
		EndTime:   time.Now(),
	}
	c.buf = nil
	return data
}

// Inspect parses data and reports its content. It rejects empty or undecodable captures.
func Inspect(data []byte) (Stats, error) {
	if len(data) == 0 {
		return Stats{}, ErrEmptyProfile
	}
	p, err := profile.ParseData(data)
	if err != nil {
		return Stats{}, err
	}
	if err := p.CheckValid(); err != nil {
		return Stats{}, err
	}
	return Stats{
		Samples:       len(p.Sample),
		DurationNanos: p.DurationNanos,
		PeriodNanos:   p.Period,
	}, nil
}
