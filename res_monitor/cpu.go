package res_monitor

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHz = 100

	procSelfStat = "/proc/self/stat"

	cgroupV2CPUMax     = "/sys/fs/cgroup/cpu.max"
	cgroupV1CFSPeriod  = "/sys/fs/cgroup/cpu,cpuacct/cpu.cfs_period_us"
	cgroupV1CFSQuotaUs = "/sys/fs/cgroup/cpu,cpuacct/cpu.cfs_quota_us"
)

type CPUMonitor struct {
	cpuLimit float64
	hz       float64 // ticks per second
	time     time.Time
	tick     int64
}

func NewCPUMonitor() *CPUMonitor {
	tick, t := getTicks()
	return &CPUMonitor{
		cpuLimit: GetCPULimit(),
		hz:       float64(getHz()),
		tick:     tick,
		time:     t,
	}
}

// GetCPURatio gets the cpuRatio between current and last invoking. Not cached.
func (m *CPUMonitor) GetCPURatio() float64 {
	newTick, newTime := getTicks()

	et := float64(newTime.Sub(m.time).Milliseconds())
	ticks := newTick - m.tick

	m.tick = newTick
	m.time = newTime

	if ticks <= 0 || et <= 0 || m.cpuLimit <= 0 {
		return 0
	}
	ticksAllCPUCore := m.cpuLimit * m.hz * et / 1000

	return math.Min(float64(ticks)/ticksAllCPUCore, 1)
}

// getTicks returns utime+stime+cutime+cstime of this process. Zero when /proc is absent.
func getTicks() (int64, time.Time) {
	now := time.Now()
	data, err := os.ReadFile(procSelfStat)
	if err != nil {
		return 0, now
	}
	// comm may contain spaces, fields are counted after its closing paren
	if idx := bytes.LastIndexByte(data, ')'); idx >= 0 {
		data = data[idx+1:]
	}
	s := bytes.Fields(data)
	if len(s) < 15 {
		return 0, now
	}
	var total int64
	for _, f := range s[11:15] {
		v, _ := strconv.ParseInt(string(f), 10, 64)
		total += v
	}
	return total, now
}

// GetCPULimit returns cpu cores that process can use
func GetCPULimit() (cpuLimit float64) {
	defer func() {
		cpuLimit = math.Min(cpuLimit, float64(runtime.GOMAXPROCS(0)))
	}()

	cpuLimit = float64(runtime.NumCPU())
	if quota, period, ok := readCgroupV2CPUMax(); ok {
		cpuLimit = quota / period
		return
	}
	periodUs, err := strconv.ParseInt(readFirstLine(cgroupV1CFSPeriod), 10, 64)
	if err != nil || periodUs <= 0 {
		return
	}
	quotaUs, err := strconv.ParseInt(readFirstLine(cgroupV1CFSQuotaUs), 10, 64)
	if err != nil || quotaUs <= 0 {
		return
	}
	cpuLimit = float64(quotaUs) / float64(periodUs)
	return
}

// readCgroupV2CPUMax parses "<quota> <period>"; quota "max" means unlimited.
func readCgroupV2CPUMax() (float64, float64, bool) {
	fields := strings.Fields(readFirstLine(cgroupV2CPUMax))
	if len(fields) != 2 || fields[0] == "max" {
		return 0, 0, false
	}
	quota, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || quota <= 0 {
		return 0, 0, false
	}
	period, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || period <= 0 {
		return 0, 0, false
	}
	return quota, period, true
}

func readFirstLine(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func getHz() (hz int64) {
	clkTck, err := exec.Command("getconf", "CLK_TCK").Output()
	if err != nil {
		return defaultHz
	}
	if hz, err := strconv.ParseInt(strings.TrimSpace(string(clkTck)), 10, 64); err == nil && hz != 0 {
		return hz
	}
	return defaultHz
}
