package p_runtime

import (
	"encoding/json"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/volcengine/apminsight-profiling-demo/res_monitor"
)

var (
	runtimeInfoStr string
	once           sync.Once
)

// GetRuntimeInfo describes the process once and caches the result as a JSON object.
func GetRuntimeInfo() string {
	once.Do(func() {
		host, _ := os.Hostname()
		m := map[string]string{
			"runtime_type": "go",
			"go_os":        runtime.GOOS,
			"go_arch":      runtime.GOARCH,
			"go_version":   runtime.Version(),
			"compiler":     runtime.Compiler,
			"cpu_num":      strconv.Itoa(runtime.NumCPU()),
			"cpu_limit":    strconv.FormatFloat(res_monitor.GetCPULimit(), 'f', -1, 64),
			"host":         host,
			"pid":          strconv.Itoa(os.Getpid()),
		}
		b, err := json.Marshal(m)
		if err != nil {
			return
		}
		runtimeInfoStr = string(b)
	})
	return runtimeInfoStr
}
