// Package config provides the configuration model, loading, overrides and
// validation for benchmark and comparison runs.
package config

import "strconv"

// SchemaVersion is the only configuration schema version this build accepts.
const SchemaVersion = 1

// Execution modes for a TestGroup.
const (
	ModeParallel = "parallel"
	ModeSerial   = "serial"
)

// MaxThreads is the engine-imposed ceiling on threads per group.
const MaxThreads = 12

// BenchmarkConfig is the root of a single-target test plan.
//
// Example YAML:
//
//	name: "API Load Test"
//	description: "Checks the public API"
//	groups:
//	  - name: "basic"
//	    http:
//	      baseUrl: "http://localhost:3000"
//	    threads: 4
//	    connections: 100
//	    duration: 30
//	    timeout: 5
//	    latency: true
//	    executionMode: parallel
//	    tests:
//	      - name: "health"
//	        request:
//	          method: GET
//	          url: /health
//	        weight: 30
type BenchmarkConfig struct {
	// Version of the configuration schema (optional, defaults to 1)
	Version int `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`

	// Name of the plan (for reporting)
	Name string `json:"name" yaml:"name" toml:"name"`

	// Description of the plan
	Description string `json:"description" yaml:"description" toml:"description"`

	// Groups run in declaration order
	Groups []TestGroup `json:"groups" yaml:"groups" toml:"groups"`
}

// TestGroup is one load-generation unit sharing connection and timing settings.
type TestGroup struct {
	// Name is an optional label for reporting
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`

	// HTTP holds the base URL and headers applied to every request
	HTTP HTTPSettings `json:"http" yaml:"http" toml:"http"`

	// Threads is the number of worker goroutines driving the connections
	Threads int `json:"threads" yaml:"threads" toml:"threads"`

	// Connections is the number of concurrent virtual users
	Connections int `json:"connections" yaml:"connections" toml:"connections"`

	// Duration of the group in seconds
	Duration int `json:"duration" yaml:"duration" toml:"duration"`

	// Timeout per request in seconds
	Timeout int `json:"timeout" yaml:"timeout" toml:"timeout"`

	// Latency enables percentile latency reporting
	Latency bool `json:"latency" yaml:"latency" toml:"latency"`

	// ExecutionMode is "parallel" or "serial"
	ExecutionMode string `json:"executionMode" yaml:"executionMode" toml:"executionMode"`

	// Tests is the weighted request mix
	Tests []WeightedTest `json:"tests" yaml:"tests" toml:"tests"`
}

// HTTPSettings contains the per-group HTTP defaults.
type HTTPSettings struct {
	// BaseURL is prepended to every test URL
	BaseURL string `json:"baseUrl" yaml:"baseUrl" toml:"baseUrl"`

	// Headers are default headers applied to all requests
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`

	// Timeout in milliseconds. Set by the global timeout override; when
	// zero the group's Timeout (seconds) applies.
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// WeightedTest is one request template with a relative selection weight.
type WeightedTest struct {
	// Name for this test (used in metrics)
	Name string `json:"name" yaml:"name" toml:"name"`

	// Request to issue, relative to the group's base URL
	Request RequestSpec `json:"request" yaml:"request" toml:"request"`

	// Weight is the relative selection probability among siblings
	Weight float64 `json:"weight" yaml:"weight" toml:"weight"`
}

// RequestSpec describes a single HTTP request.
type RequestSpec struct {
	Method  string            `json:"method" yaml:"method" toml:"method"`
	URL     string            `json:"url" yaml:"url" toml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`

	// Body is sent verbatim when it is a string and as JSON otherwise
	Body interface{} `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
}

// ComparisonConfig is the root of a multi-server comparison run.
type ComparisonConfig struct {
	Version    int                  `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Servers    []ServerConfig       `json:"servers" yaml:"servers" toml:"servers"`
	TestConfig ComparisonTestConfig `json:"testConfig" yaml:"testConfig" toml:"testConfig"`
}

// ServerConfig describes one competing server process.
type ServerConfig struct {
	// Name is the report label, unique within a comparison
	Name string `json:"name" yaml:"name" toml:"name"`

	// Command and Args launch the process
	Command string   `json:"command" yaml:"command" toml:"command"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`

	// Env holds extra environment variables for the process
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`

	// Port the server listens on (also exported as PORT)
	Port int `json:"port" yaml:"port" toml:"port"`

	// HealthCheckPath is polled until it answers 2xx
	HealthCheckPath string `json:"healthCheckPath" yaml:"healthCheckPath" toml:"healthCheckPath"`

	// StartupTimeout in milliseconds
	StartupTimeout int `json:"startupTimeout" yaml:"startupTimeout" toml:"startupTimeout"`

	// WarmupRequests sent before measurement begins
	WarmupRequests int `json:"warmupRequests" yaml:"warmupRequests" toml:"warmupRequests"`
}

// ComparisonTestConfig is the workload applied to every server in turn.
type ComparisonTestConfig struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Threads     int    `json:"threads" yaml:"threads" toml:"threads"`
	Connections int    `json:"connections" yaml:"connections" toml:"connections"`

	// Duration in seconds
	Duration int `json:"duration" yaml:"duration" toml:"duration"`

	// Timeout per request in seconds (optional)
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	Scenarios []Scenario `json:"scenarios" yaml:"scenarios" toml:"scenarios"`
}

// Scenario is a WeightedTest without an absolute base URL; the base is
// resolved per server at run time.
type Scenario struct {
	Name    string            `json:"name" yaml:"name" toml:"name"`
	Method  string            `json:"method" yaml:"method" toml:"method"`
	Path    string            `json:"path" yaml:"path" toml:"path"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Body    interface{}       `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
	Weight  float64           `json:"weight" yaml:"weight" toml:"weight"`
}

// GroupName returns the group's label, defaulting to its 1-based position.
func (g *TestGroup) GroupName(index int) string {
	if g.Name != "" {
		return g.Name
	}
	return "group-" + strconv.Itoa(index+1)
}

// Tests converts the scenarios into weighted tests.
func (c *ComparisonTestConfig) Tests() []WeightedTest {
	tests := make([]WeightedTest, 0, len(c.Scenarios))
	for _, s := range c.Scenarios {
		tests = append(tests, WeightedTest{
			Name: s.Name,
			Request: RequestSpec{
				Method:  s.Method,
				URL:     s.Path,
				Headers: s.Headers,
				Body:    s.Body,
			},
			Weight: s.Weight,
		})
	}
	return tests
}

// Group builds the single parallel TestGroup that runs this workload
// against baseURL.
func (c *ComparisonTestConfig) Group(name, baseURL string) TestGroup {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30
	}
	return TestGroup{
		Name:          name,
		HTTP:          HTTPSettings{BaseURL: baseURL},
		Threads:       c.Threads,
		Connections:   c.Connections,
		Duration:      c.Duration,
		Timeout:       timeout,
		Latency:       true,
		ExecutionMode: ModeParallel,
		Tests:         c.Tests(),
	}
}
