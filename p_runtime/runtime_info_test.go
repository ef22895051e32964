package p_runtime

import (
	"encoding/json"
	"os"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRuntimeInfo(t *testing.T) {
	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(GetRuntimeInfo()), &m))

	assert.Equal(t, "go", m["runtime_type"])
	assert.Equal(t, runtime.Version(), m["go_version"])
	assert.Equal(t, strconv.Itoa(os.Getpid()), m["pid"])
	assert.Equal(t, GetRuntimeInfo(), GetRuntimeInfo())
}
