package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wesleyorama2/thunderbench/internal/metrics"
)

func newTestConsole() (*Console, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewConsole(&out, &errOut), &out, &errOut
}

func TestConsole_NoColorForNonTerminal(t *testing.T) {
	c, out, _ := newTestConsole()
	assert.True(t, c.NoColor())

	c.Step("Loading %s", "config.yaml")
	assert.Equal(t, "▶ Loading config.yaml\n", out.String())
	assert.NotContains(t, out.String(), "\033[")
}

func TestConsole_ForceColor(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, &out, WithForceColor())
	assert.False(t, c.NoColor())

	c.Step("hello")
	assert.Contains(t, out.String(), "\033[")
}

func TestConsole_Lines(t *testing.T) {
	c, out, errOut := newTestConsole()

	c.Banner("thunderbench")
	c.Success("Configuration is valid")
	c.Info("Reports in %s", "./reports")
	c.Warn("careful")
	c.Detail("Servers", 2)
	c.Fail("Engine failed: %s", "boom")

	text := out.String()
	assert.Contains(t, text, "thunderbench")
	assert.Contains(t, text, "✓ Configuration is valid")
	assert.Contains(t, text, "ℹ Reports in ./reports")
	assert.Contains(t, text, "⚠ careful")
	assert.Contains(t, text, "Servers:")
	assert.Contains(t, text, "2")
	assert.NotContains(t, text, "boom")

	assert.Equal(t, "✗ Engine failed: boom\n", errOut.String())
}

func TestProgress_NonInteractive(t *testing.T) {
	c, out, _ := newTestConsole()
	p := NewProgress(c, "basic")

	p.Update(&LiveStats{
		Progress:      0.5,
		Elapsed:       5 * time.Second,
		ActiveVUs:     10,
		TotalRequests: 1234,
		CurrentRPS:    246.8,
		Errors:        2,
		ErrorRate:     0.0016,
		LatencyP95:    12 * time.Millisecond,
	})
	p.Finish()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "basic 50%")
	assert.Contains(t, lines[0], "Reqs: 1234")
	assert.Contains(t, lines[0], "RPS: 246.8")
}

func TestStatsFromSnapshot(t *testing.T) {
	snapshot := &metrics.Snapshot{
		TotalRequests:  100,
		FailedRequests: 5,
		ErrorRate:      0.05,
		RPS:            50,
		Elapsed:        2 * time.Second,
		ActiveVUs:      4,
	}

	stats := StatsFromSnapshot(snapshot, 10*time.Second, 4)
	assert.InDelta(t, 0.2, stats.Progress, 0.0001)
	assert.Equal(t, 8*time.Second, stats.Remaining)
	assert.Equal(t, int64(5), stats.Errors)

	over := StatsFromSnapshot(&metrics.Snapshot{Elapsed: 12 * time.Second}, 10*time.Second, 1)
	assert.Equal(t, 1.0, over.Progress)
	assert.Equal(t, time.Duration(0), over.Remaining)
}

func TestConsole_Summary(t *testing.T) {
	c, out, _ := newTestConsole()

	snapshot := &metrics.Snapshot{
		TotalRequests:   2000,
		FailedRequests:  10,
		TransportErrors: 3,
		Timeouts:        1,
		ErrorRate:       0.005,
		RPS:             200,
		BytesPerSec:     2048,
		Elapsed:         10 * time.Second,
		StatusCodes:     map[int]int64{500: 7, 200: 1990},
		Latency:         metrics.LatencyStats{Mean: 3 * time.Millisecond, P99: 20 * time.Millisecond},
	}
	tests := []metrics.TestSnapshot{
		{Name: "health", Requests: 600},
		{Name: "users", Requests: 1400, Failed: 10},
	}

	c.Summary("Group basic", snapshot, tests, true)

	text := out.String()
	assert.Contains(t, text, "Group basic")
	assert.Contains(t, text, "Requests:      2,000")
	assert.Contains(t, text, "Requests/sec:  200.00")
	assert.Contains(t, text, "Transfer/sec:  2.00KB")
	assert.Contains(t, text, "Status Codes:  200: 1990, 500: 7")
	assert.Contains(t, text, "Socket Errors: 3 (timeouts: 1)")
	assert.Contains(t, text, "Latency Distribution:")
	assert.Contains(t, text, "health")
	assert.Contains(t, text, "users")
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "500ms", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 05s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 01m 01s", FormatDuration(time.Hour+time.Minute+time.Second))

	assert.Equal(t, "0ms", FormatLatency(0))
	assert.Equal(t, "250µs", FormatLatency(250*time.Microsecond))
	assert.Equal(t, "1.50ms", FormatLatency(1500*time.Microsecond))
	assert.Equal(t, "2.00s", FormatLatency(2*time.Second))

	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-1,000", FormatNumber(-1000))

	assert.Equal(t, "512B", FormatBytes(512))
	assert.Equal(t, "1.00MB", FormatBytes(1024*1024))

	assert.Equal(t, "plain", stripANSI("\033[32mplain\033[0m"))
}
