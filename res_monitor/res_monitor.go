package res_monitor

import (
	"math"
	"sync"
	"time"
)

const (
	reserveCount         = 12
	defaultCheckInterval = 10 * time.Second
)

// Summary is what a profiling session reports about the process when it stops.
type Summary struct {
	Samples      int
	CPURatio     float64 // avg over retained samples, decimal not percent
	MemRatio     float64 // avg over retained samples, decimal not percent
	MaxRssBytes  int64
	GoroutineNum int64 // latest sample
	CPULimit     float64
}

type Monitor struct {
	cpuMonitor       *CPUMonitor
	memMonitor       *MemMonitor
	goRoutineMonitor *GoRoutineMonitor

	interval time.Duration

	// ring of the latest reserveCount samples, index 0 is the newest
	previousCPURatio [reserveCount]float64
	previousMemRatio [reserveCount]float64
	goroutineNum     int64
	maxRss           int64
	cnt              int

	l sync.RWMutex

	closeChan chan struct{}
	wg        sync.WaitGroup
}

func NewMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &Monitor{
		cpuMonitor:       NewCPUMonitor(),
		memMonitor:       NewMemMonitor(),
		goRoutineMonitor: NewGoRoutineMonitor(),
		interval:         interval,
		closeChan:        make(chan struct{}),
	}
}

func (r *Monitor) Start() {
	r.update()
	tc := time.NewTicker(r.interval)
	r.wg.Add(1)
	go func() {
		defer func() {
			tc.Stop()
			r.wg.Done()
		}()
		for {
			select {
			case <-tc.C:
				r.update()
			case <-r.closeChan:
				return
			}
		}
	}()
}

// Stop takes a final sample and waits for the sampling goroutine to exit.
func (r *Monitor) Stop() {
	close(r.closeChan)
	r.wg.Wait()
	r.update()
}

func (r *Monitor) update() {
	cpuRatio := r.cpuMonitor.GetCPURatio()
	memRatio := r.memMonitor.GetMemRatio()
	rss := r.memMonitor.Rss()
	goroutineNum := r.goRoutineMonitor.GetGoRoutineNum()

	r.l.Lock()
	defer r.l.Unlock()
	for idx := reserveCount - 1; idx >= 1; idx-- {
		r.previousCPURatio[idx] = r.previousCPURatio[idx-1]
		r.previousMemRatio[idx] = r.previousMemRatio[idx-1]
	}
	r.previousCPURatio[0] = cpuRatio
	r.previousMemRatio[0] = memRatio
	r.goroutineNum = goroutineNum
	if rss > r.maxRss {
		r.maxRss = rss
	}
	r.cnt++
}

func (r *Monitor) Summary() Summary {
	r.l.RLock()
	defer r.l.RUnlock()
	n := r.cnt
	if n > reserveCount {
		n = reserveCount
	}
	return Summary{
		Samples:      r.cnt,
		CPURatio:     avg(r.previousCPURatio[:n]),
		MemRatio:     avg(r.previousMemRatio[:n]),
		MaxRssBytes:  r.maxRss,
		GoroutineNum: r.goroutineNum,
		CPULimit:     r.cpuMonitor.cpuLimit,
	}
}

func avg(fs []float64) float64 {
	if len(fs) == 0 {
		return 0
	}
	sum := float64(0)
	for _, f := range fs {
		sum += f
	}
	return math.Round(sum/float64(len(fs))*1e4) / 1e4
}
