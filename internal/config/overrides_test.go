package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleBenchmark() *BenchmarkConfig {
	return &BenchmarkConfig{
		Name:        "Sample",
		Description: "sample plan",
		Groups: []TestGroup{
			{
				Name:          "first",
				HTTP:          HTTPSettings{BaseURL: "http://localhost:3000", Headers: map[string]string{"X-A": "1"}},
				Threads:       4,
				Connections:   100,
				Duration:      30,
				Timeout:       5,
				Latency:       true,
				ExecutionMode: ModeParallel,
				Tests: []WeightedTest{
					{Name: "health", Request: RequestSpec{Method: "GET", URL: "/health"}, Weight: 30},
					{Name: "users", Request: RequestSpec{Method: "GET", URL: "/api/users"}, Weight: 70},
				},
			},
			{
				Name:          "second",
				HTTP:          HTTPSettings{BaseURL: "http://localhost:3001"},
				Threads:       1,
				Connections:   1,
				Duration:      10,
				Timeout:       2,
				ExecutionMode: ModeSerial,
				Tests: []WeightedTest{
					{Name: "root", Request: RequestSpec{Method: "GET", URL: "/"}, Weight: 1},
				},
			},
		},
	}
}

func TestThreadsFor(t *testing.T) {
	tests := []struct {
		concurrency int
		expected    int
	}{
		{1, 1},
		{9, 1},
		{10, 1},
		{11, 2},
		{50, 5},
		{115, 12},
		{120, 12},
		{121, 12},
		{10000, 12},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ThreadsFor(tt.concurrency), "concurrency %d", tt.concurrency)
	}
}

func TestOverrides_Timeout(t *testing.T) {
	cfg := sampleBenchmark()
	expected := sampleBenchmark()

	Overrides{Timeout: intPtr(1500)}.Apply(cfg)

	for i := range cfg.Groups {
		assert.Equal(t, 1500, cfg.Groups[i].HTTP.Timeout)
		expected.Groups[i].HTTP.Timeout = 1500
	}
	// Nothing else changed
	assert.Equal(t, expected, cfg)
}

func TestOverrides_Concurrency(t *testing.T) {
	cfg := sampleBenchmark()
	expected := sampleBenchmark()

	Overrides{Concurrency: intPtr(50)}.Apply(cfg)

	for i := range cfg.Groups {
		assert.Equal(t, 50, cfg.Groups[i].Connections)
		assert.Equal(t, 5, cfg.Groups[i].Threads)
		expected.Groups[i].Connections = 50
		expected.Groups[i].Threads = 5
	}
	assert.Equal(t, expected, cfg)
}

func TestOverrides_ConcurrencyInvariants(t *testing.T) {
	for _, c := range []int{1, 2, 7, 10, 33, 99, 100, 119, 121, 500, 5000} {
		cfg := sampleBenchmark()
		Overrides{Concurrency: intPtr(c)}.Apply(cfg)

		for _, g := range cfg.Groups {
			assert.Equal(t, c, g.Connections)
			assert.LessOrEqual(t, g.Threads, MaxThreads)
			assert.GreaterOrEqual(t, g.Connections, g.Threads)
		}
	}
}

func TestOverrides_NoneLeavesConfigUnchanged(t *testing.T) {
	cfg := sampleBenchmark()
	Overrides{}.Apply(cfg)
	assert.Equal(t, sampleBenchmark(), cfg)
	assert.True(t, Overrides{}.IsZero())
}

func TestOverrides_Idempotent(t *testing.T) {
	o := Overrides{Timeout: intPtr(30000), Concurrency: intPtr(10)}

	once := sampleBenchmark()
	o.Apply(once)

	twice := sampleBenchmark()
	o.Apply(twice)
	o.Apply(twice)

	assert.Equal(t, once, twice)
	assert.False(t, o.IsZero())
}

func TestOverrides_DefaultValueIsStillAnOverride(t *testing.T) {
	cfg := sampleBenchmark()
	require.Equal(t, 100, cfg.Groups[0].Connections)

	// 10 is the documented default of --concurrent; supplying it explicitly
	// must still take effect.
	Overrides{Concurrency: intPtr(10)}.Apply(cfg)

	assert.Equal(t, 10, cfg.Groups[0].Connections)
	assert.Equal(t, 1, cfg.Groups[0].Threads)
}

func TestOverrides_SingleGroupScenario(t *testing.T) {
	cfg := sampleBenchmark()
	cfg.Groups = cfg.Groups[:1]
	require.Equal(t, 100, cfg.Groups[0].Connections)

	Overrides{Concurrency: intPtr(50)}.Apply(cfg)

	assert.Equal(t, 50, cfg.Groups[0].Connections)
	assert.Equal(t, 5, cfg.Groups[0].Threads)
}

func TestOverrides_NilConfig(t *testing.T) {
	assert.NotPanics(t, func() {
		Overrides{Timeout: intPtr(1)}.Apply(nil)
	})
}
