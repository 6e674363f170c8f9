package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/output"
)

// recordingServer counts requests per path and remembers their order.
type recordingServer struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func newRecordingServer(t *testing.T) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.paths = append(rs.paths, r.URL.Path)
		rs.mu.Unlock()

		switch r.URL.Path {
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		case "/echo":
			assert.Equal(t, "thunderbench", r.Header.Get("User-Agent"))
			w.WriteHeader(http.StatusCreated)
		default:
			w.Write([]byte("ok"))
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) count(path string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	n := 0
	for _, p := range rs.paths {
		if p == path {
			n++
		}
	}
	return n
}

func (rs *recordingServer) ordered() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.paths...)
}

func newTestEngine() (*Engine, *bytes.Buffer) {
	var out bytes.Buffer
	e := New(zerolog.Nop(), output.NewConsole(&out, &out))
	e.durationUnit = 100 * time.Millisecond
	e.tick = 20 * time.Millisecond
	return e, &out
}

func testGroup(baseURL string) config.TestGroup {
	return config.TestGroup{
		Name:          "basic",
		HTTP:          config.HTTPSettings{BaseURL: baseURL, Headers: map[string]string{"User-Agent": "thunderbench"}},
		Threads:       2,
		Connections:   4,
		Duration:      2,
		Timeout:       10,
		Latency:       true,
		ExecutionMode: config.ModeParallel,
		Tests: []config.WeightedTest{
			{Name: "root", Request: config.RequestSpec{Method: "GET", URL: "/"}, Weight: 70},
			{Name: "echo", Request: config.RequestSpec{Method: "POST", URL: "/echo", Body: map[string]interface{}{"a": 1}}, Weight: 30},
			{Name: "never", Request: config.RequestSpec{Method: "GET", URL: "/never"}, Weight: 0},
		},
	}
}

func TestEngine_Run(t *testing.T) {
	server := newRecordingServer(t)
	e, out := newTestEngine()
	dir := t.TempDir()

	second := testGroup(server.URL)
	second.Name = ""
	second.ExecutionMode = config.ModeSerial
	second.Threads = 1
	second.Connections = 1

	cfg := &config.BenchmarkConfig{
		Name:        "Engine Test",
		Description: "two groups",
		Groups:      []config.TestGroup{testGroup(server.URL), second},
	}

	result, err := e.Run(context.Background(), cfg, Options{OutputDir: dir, WriteReport: true, ShowProgress: true})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "basic", result.Groups[0].Name)
	assert.Equal(t, "group-2", result.Groups[1].Name)

	first := result.Groups[0]
	assert.Greater(t, first.Metrics.TotalRequests, int64(0))
	assert.Equal(t, int64(0), first.Metrics.FailedRequests)
	require.Len(t, first.Tests, 3)
	assert.Equal(t, int64(0), first.Tests[2].Requests)
	assert.InDelta(t, 0.7, first.Tests[0].Share, 0.0001)
	assert.Equal(t, 0, server.count("/never"))
	assert.Greater(t, server.count("/echo"), 0)

	// Plans are kept without cleanup
	require.Len(t, result.PlanFiles, 2)
	for _, path := range result.PlanFiles {
		assert.FileExists(t, path)
		assert.True(t, strings.HasPrefix(filepath.Base(path), result.RunID))
	}

	require.Len(t, result.ReportFiles, 2)
	assert.True(t, strings.HasSuffix(result.ReportFiles[0], ".json"))
	assert.True(t, strings.HasSuffix(result.ReportFiles[1], ".md"))
	assert.Contains(t, filepath.Base(result.ReportFiles[0]), "engine-test-")

	data, err := os.ReadFile(result.ReportFiles[0])
	require.NoError(t, err)
	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.RunID, decoded.RunID)

	markdown, err := os.ReadFile(result.ReportFiles[1])
	require.NoError(t, err)
	assert.Contains(t, string(markdown), "# Engine Test")
	assert.Contains(t, string(markdown), "## Group: basic")
	assert.Contains(t, string(markdown), "| never | GET /never | 0 |")

	assert.Contains(t, out.String(), "Running group basic")
	assert.Contains(t, out.String(), "Requests/sec:")
}

func TestEngine_Run_CleanupScripts(t *testing.T) {
	server := newRecordingServer(t)
	e, _ := newTestEngine()
	dir := t.TempDir()

	group := testGroup(server.URL)
	group.Duration = 1
	cfg := &config.BenchmarkConfig{Name: "Cleanup", Description: "d", Groups: []config.TestGroup{group}}

	result, err := e.Run(context.Background(), cfg, Options{OutputDir: dir, CleanupScripts: true})
	require.NoError(t, err)

	assert.Empty(t, result.PlanFiles)
	assert.Empty(t, result.ReportFiles)
	assert.NoDirExists(t, filepath.Join(dir, "scripts"))
}

func TestEngine_RunGroup_SerialOrder(t *testing.T) {
	server := newRecordingServer(t)
	e, _ := newTestEngine()

	group := config.TestGroup{
		HTTP:          config.HTTPSettings{BaseURL: server.URL},
		Threads:       1,
		Connections:   1,
		Duration:      1,
		Timeout:       10,
		ExecutionMode: config.ModeSerial,
		Tests: []config.WeightedTest{
			{Name: "a", Request: config.RequestSpec{Method: "GET", URL: "/a"}, Weight: 2},
			{Name: "b", Request: config.RequestSpec{Method: "GET", URL: "/b"}, Weight: 1},
		},
	}

	_, err := e.RunGroup(context.Background(), "serial", group, Options{})
	require.NoError(t, err)

	paths := server.ordered()
	require.GreaterOrEqual(t, len(paths), 6)
	assert.Equal(t, []string{"/a", "/b", "/a", "/a", "/b", "/a"}, paths[:6])
}

func TestEngine_RunGroup_ErrorsCounted(t *testing.T) {
	server := newRecordingServer(t)
	e, _ := newTestEngine()

	group := testGroup(server.URL)
	group.Duration = 1
	group.Tests = []config.WeightedTest{
		{Name: "error", Request: config.RequestSpec{Method: "GET", URL: "/error"}, Weight: 1},
	}

	result, err := e.RunGroup(context.Background(), "errors", group, Options{Verbose: true})
	require.NoError(t, err)

	m := result.Metrics
	assert.Greater(t, m.TotalRequests, int64(0))
	assert.Equal(t, m.TotalRequests, m.FailedRequests)
	assert.Equal(t, 1.0, m.ErrorRate)
	assert.Equal(t, m.TotalRequests, m.StatusCodes[500])
}

func TestEngine_RunGroup_ThreadsClamped(t *testing.T) {
	server := newRecordingServer(t)
	e, _ := newTestEngine()

	group := testGroup(server.URL)
	group.Duration = 1
	group.Threads = 8
	group.Connections = 3

	result, err := e.RunGroup(context.Background(), "clamp", group, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Threads)
	assert.Equal(t, 3, result.Connections)
}

func TestEngine_Run_Cancelled(t *testing.T) {
	server := newRecordingServer(t)
	e, _ := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.BenchmarkConfig{Name: "x", Description: "y", Groups: []config.TestGroup{testGroup(server.URL)}}
	_, err := e.Run(ctx, cfg, Options{OutputDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Run_Errors(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.Run(context.Background(), nil, Options{})
	assert.Error(t, err)

	_, err = e.Run(context.Background(), &config.BenchmarkConfig{Name: "x"}, Options{OutputDir: t.TempDir()})
	assert.Error(t, err)

	bad := testGroup("not a url")
	_, err = e.Run(context.Background(), &config.BenchmarkConfig{Name: "x", Groups: []config.TestGroup{bad}}, Options{OutputDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `group "basic"`)

	zero := testGroup("http://localhost:1")
	for i := range zero.Tests {
		zero.Tests[i].Weight = 0
	}
	_, err = e.RunGroup(context.Background(), "zero", zero, Options{})
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, RequestTimeout(config.TestGroup{Timeout: 5}))
	assert.Equal(t, 1500*time.Millisecond, RequestTimeout(config.TestGroup{Timeout: 5, HTTP: config.HTTPSettings{Timeout: 1500}}))
	assert.Equal(t, 30*time.Second, RequestTimeout(config.TestGroup{}))
}

func TestNewPlan(t *testing.T) {
	group := testGroup("http://localhost:3000")
	group.HTTP.Timeout = 2000

	plan := NewPlan("run-1", "basic", &group)
	assert.Equal(t, "run-1", plan.RunID)
	assert.Equal(t, int64(2000), plan.TimeoutMs)
	require.Len(t, plan.Tests, 3)
	assert.Equal(t, "POST", plan.Tests[1].Method)
	assert.InDelta(t, 0.3, plan.Tests[1].Share, 0.0001)
	assert.Equal(t, 0.0, plan.Tests[2].Share)
	assert.NotNil(t, plan.Tests[1].Body)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "api-load-test", Slug("API Load Test"))
	assert.Equal(t, "group-1", Slug("group-1"))
	assert.Equal(t, "run", Slug("!!!"))
	assert.Equal(t, "a-b", Slug("  a / b  "))
}
