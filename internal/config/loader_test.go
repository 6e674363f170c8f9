package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchmarkYAML = `
name: "Sample"
description: "A sample plan"
groups:
  - name: "basic"
    http:
      baseUrl: "http://localhost:3002"
      headers:
        User-Agent: "thunderbench/1.0"
    threads: 2
    connections: 50
    duration: 10
    timeout: 5
    latency: true
    executionMode: parallel
    tests:
      - name: "get"
        request:
          method: GET
          url: /api/test
        weight: 100
      - name: "create"
        request:
          method: POST
          url: /api/users
          body:
            name: "Test User"
        weight: 0
`

const comparisonJSON = `{
  "servers": [
    {"name": "a", "command": "bun", "args": ["run", "a.ts"], "port": 3001,
     "healthCheckPath": "/health", "startupTimeout": 10000, "warmupRequests": 100},
    {"name": "b", "command": "bun", "args": ["run", "b.ts"], "port": 3002,
     "healthCheckPath": "/health", "startupTimeout": 10000, "warmupRequests": 100}
  ],
  "testConfig": {
    "name": "Frameworks", "description": "compare", "threads": 4,
    "connections": 100, "duration": 30,
    "scenarios": [
      {"name": "hello", "method": "GET", "path": "/", "weight": 40},
      {"name": "users", "method": "GET", "path": "/api/users", "weight": 30},
      {"name": "create", "method": "POST", "path": "/api/users", "weight": 30,
       "headers": {"Content-Type": "application/json"}, "body": {"name": "x"}}
    ]
  }
}`

const benchmarkTOML = `
name = "Sample"
description = "TOML plan"

[[groups]]
threads = 1
connections = 10
duration = 5
timeout = 2
latency = false
executionMode = "serial"

[groups.http]
baseUrl = "http://localhost:8080"

[[groups.tests]]
name = "root"
weight = 1

[groups.tests.request]
method = "GET"
url = "/"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_BenchmarkYAML(t *testing.T) {
	path := writeFile(t, "plan.yaml", benchmarkYAML)

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, KindBenchmark, doc.Kind)
	assert.Equal(t, path, doc.Path)
	require.NotNil(t, doc.Benchmark)
	assert.Nil(t, doc.Comparison)

	cfg := doc.Benchmark
	assert.Equal(t, "Sample", cfg.Name)
	require.Len(t, cfg.Groups, 1)

	group := cfg.Groups[0]
	assert.Equal(t, "http://localhost:3002", group.HTTP.BaseURL)
	assert.Equal(t, "thunderbench/1.0", group.HTTP.Headers["User-Agent"])
	assert.Equal(t, 2, group.Threads)
	assert.Equal(t, 50, group.Connections)
	assert.Equal(t, ModeParallel, group.ExecutionMode)
	require.Len(t, group.Tests, 2)
	assert.Equal(t, float64(100), group.Tests[0].Weight)
	assert.Equal(t, float64(0), group.Tests[1].Weight)
	assert.Equal(t, map[string]interface{}{"name": "Test User"}, group.Tests[1].Request.Body)
}

func TestLoad_ComparisonJSON(t *testing.T) {
	path := writeFile(t, "compare.json", comparisonJSON)

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, KindComparison, doc.Kind)
	require.NotNil(t, doc.Comparison)
	assert.Len(t, doc.Comparison.Servers, 2)
	assert.Equal(t, []string{"run", "a.ts"}, doc.Comparison.Servers[0].Args)
	assert.Len(t, doc.Comparison.TestConfig.Scenarios, 3)
	assert.Equal(t, "application/json", doc.Comparison.TestConfig.Scenarios[2].Headers["Content-Type"])
}

func TestLoad_BenchmarkTOML(t *testing.T) {
	path := writeFile(t, "plan.toml", benchmarkTOML)

	doc, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, KindBenchmark, doc.Kind)
	group := doc.Benchmark.Groups[0]
	assert.Equal(t, ModeSerial, group.ExecutionMode)
	assert.Equal(t, "http://localhost:8080", group.HTTP.BaseURL)
	require.Len(t, group.Tests, 1)
	assert.Equal(t, "/", group.Tests[0].Request.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfigFile))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "malformed yaml",
			file:    "bad.yaml",
			content: "name: [unterminated",
		},
		{
			name:    "malformed json",
			file:    "bad.json",
			content: `{"name": `,
		},
		{
			name:    "empty file",
			file:    "empty.yaml",
			content: "",
		},
		{
			name:    "top level is a list",
			file:    "list.yaml",
			content: "- a\n- b\n",
		},
		{
			name:    "wrong field type",
			file:    "types.yaml",
			content: "name: x\ndescription: y\ngroups:\n  - threads: \"four\"\n",
		},
		{
			name:    "unknown field",
			file:    "unknown.yaml",
			content: "name: x\ndescription: y\ngroups: []\nextra: true\n",
		},
		{
			name:    "unsupported version",
			file:    "version.yaml",
			content: "version: 2\nname: x\ndescription: y\ngroups: []\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigLoad), "expected ErrConfigLoad, got %v", err)
		})
	}
}

func TestParse_Discrimination(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Kind
	}{
		{
			name:     "groups only",
			content:  `{"name": "x", "description": "y", "groups": []}`,
			expected: KindBenchmark,
		},
		{
			name:     "servers and testConfig",
			content:  `{"servers": [], "testConfig": {}}`,
			expected: KindComparison,
		},
		{
			name:     "servers without testConfig",
			content:  `{"servers": []}`,
			expected: KindUnknown,
		},
		{
			name:     "neither",
			content:  `{"name": "x"}`,
			expected: KindUnknown,
		},
		{
			name:     "both shapes",
			content:  `{"groups": [], "servers": [], "testConfig": {}}`,
			expected: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.content), "json")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, doc.Kind)
			if tt.expected == KindUnknown {
				assert.Nil(t, doc.Benchmark)
				assert.Nil(t, doc.Comparison)
			}
		})
	}
}

func TestLoad_Script(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "gen.sh")
	content := "#!/bin/sh\ncat <<'EOF'\n" + comparisonJSON + "\nEOF\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0755))

	doc, err := Load(ScriptPrefix + script)
	require.NoError(t, err)
	assert.Equal(t, KindComparison, doc.Kind)
	assert.Len(t, doc.Comparison.Servers, 2)
}

func TestLoad_ScriptFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0755))

	_, err := Load(ScriptPrefix + script)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigLoad))
	assert.Contains(t, err.Error(), "boom")
}

func TestResolvePath(t *testing.T) {
	abs, err := ResolvePath("plan.yaml")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	script, err := ResolvePath("exec:gen-config prod")
	require.NoError(t, err)
	assert.Equal(t, "exec:gen-config prod", script)

	local, err := ResolvePath("exec:" + filepath.Join(".", "scripts", "gen.sh") + " prod")
	require.NoError(t, err)
	assert.True(t, IsScript(local))
	assert.Contains(t, local, string(filepath.Separator)+filepath.Join("scripts", "gen.sh")+" prod")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "benchmark", KindBenchmark.String())
	assert.Equal(t, "comparison", KindComparison.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
