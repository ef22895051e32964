package res_monitor

import "runtime"

type GoRoutineMonitor struct {
	goRoutineNum int64
}

func NewGoRoutineMonitor() *GoRoutineMonitor {
	return &GoRoutineMonitor{}
}

// GetGoRoutineNum gets the current goroutine number. Not cached.
func (m *GoRoutineMonitor) GetGoRoutineNum() int64 {
	m.goRoutineNum = int64(runtime.NumGoroutine())
	return m.goRoutineNum
}
