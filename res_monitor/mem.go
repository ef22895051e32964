package res_monitor

import (
	"bytes"
	"math"
	"os"
	"strconv"
)

var pageSize = os.Getpagesize()

const (
	procSelfStatm = "/proc/self/statm"
	hostMeminfo   = "/proc/meminfo"

	cgroupV2MemMax  = "/sys/fs/cgroup/memory.max"
	cgroupV1MemLimt = "/sys/fs/cgroup/memory/memory.limit_in_bytes"
)

type MemMonitor struct {
	memLimit int64
	memRss   int64
}

func NewMemMonitor() *MemMonitor {
	return &MemMonitor{
		memLimit: getMemLimit(),
	}
}

// GetMemRatio gets the current rssRatio. Not cached.
func (m *MemMonitor) GetMemRatio() float64 {
	m.memRss = getRss()

	if m.memLimit <= 0 || m.memRss <= 0 {
		return 0
	}
	return math.Min(float64(m.memRss)/float64(m.memLimit), 1)
}

// Rss is the value read by the last GetMemRatio call.
func (m *MemMonitor) Rss() int64 {
	return m.memRss
}

func getRss() int64 {
	data, err := os.ReadFile(procSelfStatm)
	if err != nil {
		return 0
	}
	s := bytes.Fields(data)
	if len(s) < 2 {
		return 0
	}
	res, err := strconv.ParseInt(string(s[1]), 10, 64)
	if err != nil {
		return 0
	}
	return res * int64(pageSize)
}

// getMemLimit prefers a cgroup limit and falls back to host memory. Unit is byte.
func getMemLimit() int64 {
	hostMem := getLimitFromMeminfo()
	for _, path := range []string{cgroupV2MemMax, cgroupV1MemLimt} {
		limit, err := strconv.ParseInt(readFirstLine(path), 10, 64)
		if err != nil || limit <= 0 {
			continue
		}
		if hostMem > 0 && limit > hostMem { // v1 reports a huge number when unlimited
			return hostMem
		}
		return limit
	}
	return hostMem
}

func getLimitFromMeminfo() int64 {
	data, err := os.ReadFile(hostMeminfo)
	if err != nil || len(data) == 0 {
		return 0
	}
	idx := bytes.Index(data, []byte("MemTotal"))
	if idx < 0 {
		return 0
	}
	fields := bytes.Fields(data[idx:])
	if len(fields) < 2 {
		return 0
	}
	res, _ := strconv.ParseInt(string(fields[1]), 10, 64) // kB
	return res * 1024
}
