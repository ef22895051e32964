package main

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volcengine/apminsight-profiling-demo/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func get(addr, path string) (int, string, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s%s", addr, path))
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), err
}

func TestServeWritesProfileOnSignal(t *testing.T) {
	var (
		mu    sync.Mutex
		codes []int
	)
	exit = func(code int) {
		mu.Lock()
		defer mu.Unlock()
		codes = append(codes, code)
	}
	defer func() { exit = os.Exit }()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Listen = freeAddr(t)
	cfg.DatasetSize = 4
	cfg.Profile.OutputDir = dir
	cfg.Profile.MonitorInterval = "50ms"
	cfg.Log.Level = "error"

	done := make(chan error, 1)
	go func() {
		done <- serve(cfg, nil)
	}()

	want := `[{"id":0,"name":"USER 0","isActive":true},{"id":2,"name":"USER 2","isActive":true}]`
	require.Eventually(t, func() bool {
		status, body, err := get(cfg.Listen, "/issue")
		return err == nil && status == http.StatusOK && body == want
	}, 5*time.Second, 20*time.Millisecond)

	status, body, err := get(cfg.Listen, "/no-issue")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, want, body)

	status, body, err = get(cfg.Listen, "/foo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after SIGTERM")
	}

	mu.Lock()
	assert.Equal(t, []int{0}, codes)
	mu.Unlock()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "cpu-profile-"), name)
	assert.True(t, strings.HasSuffix(name, ".cpuprofile"), name)

	raw, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	_, err = profile.ParseData(raw)
	assert.NoError(t, err)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profdemo.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
listen       = ":4000"
dataset_size = 100
log {
  level = "warn"
}
`), 0o644))

	cmd := rootCmd
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--dataset-size", "8", "--profile-dir", dir}))
	defer func() {
		configPath = ""
		for _, name := range []string{"dataset-size", "profile-dir"} {
			f := cmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}()

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Listen)
	assert.Equal(t, 8, cfg.DatasetSize)
	assert.Equal(t, dir, cfg.Profile.OutputDir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyFlagsOnReload(t *testing.T) {
	cmd := rootCmd
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "debug"}))
	defer func() {
		f := cmd.Flags().Lookup("log-level")
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}()

	next := config.Default()
	next.Log.Level = "warn"
	next.DatasetSize = 100
	applyFlags(cmd.Flags(), next)

	assert.Equal(t, "debug", next.Log.Level)
	assert.Equal(t, 100, next.DatasetSize)
}

func TestQueryCommand(t *testing.T) {
	for _, strategy := range []string{"full-copy", "streamlined"} {
		out := &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetArgs([]string{"query", "--strategy", strategy, "--size", "4"})
		require.NoError(t, rootCmd.Execute(), strategy)
		assert.Equal(t, `[{"id":0,"name":"USER 0","isActive":true},{"id":2,"name":"USER 2","isActive":true}]`+"\n", out.String(), strategy)
	}

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"query", "--strategy", "lodash"})
	assert.Error(t, rootCmd.Execute())
	rootCmd.SetArgs(nil)
}
