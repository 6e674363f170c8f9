package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/thunderbench/internal/metrics"
)

// ANSI escape codes for cursor control
const (
	cursorUp  = "\033[%dA"
	clearLine = "\033[2K"

	boxHorizontal  = "━"
	boxVertical    = "│"
	boxTopLeft     = "┌"
	boxTopRight    = "┐"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"

	progressFilled = "█"
	progressEmpty  = "░"
)

// LiveStats contains real-time statistics for display.
type LiveStats struct {
	Progress  float64
	Elapsed   time.Duration
	Remaining time.Duration

	ActiveVUs int
	TargetVUs int

	CurrentRPS    float64
	TotalRequests int64
	Errors        int64
	ErrorRate     float64

	LatencyP95 time.Duration
	LatencyAvg time.Duration
}

// StatsFromSnapshot creates LiveStats from a metrics snapshot.
func StatsFromSnapshot(snapshot *metrics.Snapshot, total time.Duration, targetVUs int) *LiveStats {
	progress := 0.0
	if total > 0 {
		progress = float64(snapshot.Elapsed) / float64(total)
		if progress > 1 {
			progress = 1
		}
	}

	remaining := total - snapshot.Elapsed
	if remaining < 0 {
		remaining = 0
	}

	return &LiveStats{
		Progress:      progress,
		Elapsed:       snapshot.Elapsed,
		Remaining:     remaining,
		ActiveVUs:     snapshot.ActiveVUs,
		TargetVUs:     targetVUs,
		CurrentRPS:    snapshot.RPS,
		TotalRequests: snapshot.TotalRequests,
		Errors:        snapshot.FailedRequests,
		ErrorRate:     snapshot.ErrorRate,
		LatencyP95:    snapshot.Latency.P95,
		LatencyAvg:    snapshot.Latency.Mean,
	}
}

// Progress manages the live display while a group runs. On a terminal it
// redraws a block in place; otherwise it prints one line per update.
type Progress struct {
	title  string
	writer io.Writer
	isTTY  bool
	scheme *ColorScheme

	mu          sync.Mutex
	linesOutput int
}

// NewProgress creates a live display for the console's output writer.
func NewProgress(console *Console, title string) *Progress {
	return &Progress{
		title:  title,
		writer: console.out,
		isTTY:  IsTerminal(console.out),
		scheme: console.scheme,
	}
}

// Update renders stats.
func (p *Progress) Update(stats *LiveStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isTTY {
		fmt.Fprintf(p.writer, "[%s] %s %.0f%% | VUs: %d | Reqs: %d | RPS: %.1f | Errors: %d (%.1f%%) | P95: %s\n",
			FormatDuration(stats.Elapsed),
			p.title,
			stats.Progress*100,
			stats.ActiveVUs,
			stats.TotalRequests,
			stats.CurrentRPS,
			stats.Errors,
			stats.ErrorRate*100,
			FormatLatency(stats.LatencyP95))
		return
	}

	p.clear()
	lines := p.render(stats)
	p.linesOutput = len(lines)
	for _, line := range lines {
		fmt.Fprintln(p.writer, line)
	}
}

// Finish removes the live block from a terminal.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isTTY {
		p.clear()
	}
}

func (p *Progress) clear() {
	if p.linesOutput == 0 {
		return
	}
	fmt.Fprintf(p.writer, cursorUp, p.linesOutput)
	for i := 0; i < p.linesOutput; i++ {
		fmt.Fprint(p.writer, clearLine+"\n")
	}
	fmt.Fprintf(p.writer, cursorUp, p.linesOutput)
	p.linesOutput = 0
}

func (p *Progress) render(stats *LiveStats) []string {
	var lines []string

	bar := renderProgressBar(stats.Progress, 40)
	timeInfo := fmt.Sprintf("%s / %s", FormatDuration(stats.Elapsed), FormatDuration(stats.Elapsed+stats.Remaining))
	lines = append(lines, fmt.Sprintf("%s %s %s | %s",
		p.scheme.Highlight.Sprint(p.title),
		p.scheme.Success.Sprint(bar),
		fmt.Sprintf("%.0f%%", stats.Progress*100),
		p.scheme.Dim.Sprint(timeInfo)))

	boxWidth := 55
	lines = append(lines, p.scheme.Dim.Sprint(boxTopLeft+strings.Repeat(boxHorizontal, boxWidth-2)+boxTopRight))

	vus := fmt.Sprintf("VUs:     %s / %d", p.scheme.Value.Sprintf("%d", stats.ActiveVUs), stats.TargetVUs)
	reqs := fmt.Sprintf("Requests:    %s", p.scheme.Value.Sprint(FormatNumber(stats.TotalRequests)))
	lines = append(lines, p.boxRow(vus, reqs, boxWidth))

	errColor := p.scheme.Success
	if stats.ErrorRate > 0.01 {
		errColor = p.scheme.Warning
	}
	if stats.ErrorRate > 0.05 {
		errColor = p.scheme.Error
	}
	rps := fmt.Sprintf("RPS:     %s", p.scheme.Success.Sprintf("%.1f", stats.CurrentRPS))
	errs := fmt.Sprintf("Errors:      %s", errColor.Sprintf("%d (%.1f%%)", stats.Errors, stats.ErrorRate*100))
	lines = append(lines, p.boxRow(rps, errs, boxWidth))

	p95 := fmt.Sprintf("P95:     %s", p.scheme.Value.Sprint(FormatLatency(stats.LatencyP95)))
	avg := fmt.Sprintf("Avg:         %s", p.scheme.Value.Sprint(FormatLatency(stats.LatencyAvg)))
	lines = append(lines, p.boxRow(p95, avg, boxWidth))

	lines = append(lines, p.scheme.Dim.Sprint(boxBottomLeft+strings.Repeat(boxHorizontal, boxWidth-2)+boxBottomRight))
	return lines
}

// boxRow formats a row inside the stats box with two columns.
func (p *Progress) boxRow(left, right string, boxWidth int) string {
	colWidth := (boxWidth - 4) / 2

	leftPadding := colWidth - len([]rune(stripANSI(left)))
	if leftPadding < 0 {
		leftPadding = 0
	}
	rightPadding := colWidth - len([]rune(stripANSI(right)))
	if rightPadding < 0 {
		rightPadding = 0
	}

	border := p.scheme.Dim.Sprint(boxVertical)
	return fmt.Sprintf("%s %s%s%s %s%s %s",
		border, left, strings.Repeat(" ", leftPadding),
		border, right, strings.Repeat(" ", rightPadding),
		border)
}

func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	return "[" + strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, width-filled) + "]"
}

// Summary prints the final statistics of a group.
func (c *Console) Summary(title string, snapshot *metrics.Snapshot, tests []metrics.TestSnapshot, latency bool) {
	s := c.scheme
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", s.Title.Sprint(title))
	fmt.Fprintf(&b, "  Duration:      %s\n", s.Value.Sprint(FormatDuration(snapshot.Elapsed)))
	fmt.Fprintf(&b, "  Requests:      %s\n", s.Value.Sprint(FormatNumber(snapshot.TotalRequests)))
	fmt.Fprintf(&b, "  Requests/sec:  %s\n", s.Value.Sprintf("%.2f", snapshot.RPS))
	fmt.Fprintf(&b, "  Transfer/sec:  %s\n", s.Value.Sprint(FormatBytes(snapshot.BytesPerSec)))

	successRate := 1.0 - snapshot.ErrorRate
	successColor := s.Success
	if successRate < 0.99 {
		successColor = s.Warning
	}
	if successRate < 0.95 {
		successColor = s.Error
	}
	fmt.Fprintf(&b, "  Success Rate:  %s\n", successColor.Sprintf("%.1f%%", successRate*100))
	if snapshot.TransportErrors > 0 {
		fmt.Fprintf(&b, "  Socket Errors: %s (timeouts: %d)\n", s.Error.Sprint(snapshot.TransportErrors), snapshot.Timeouts)
	}

	if len(snapshot.StatusCodes) > 0 {
		codes := make([]int, 0, len(snapshot.StatusCodes))
		for code := range snapshot.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			parts = append(parts, fmt.Sprintf("%d: %d", code, snapshot.StatusCodes[code]))
		}
		fmt.Fprintf(&b, "  Status Codes:  %s\n", strings.Join(parts, ", "))
	}

	if latency {
		l := snapshot.Latency
		fmt.Fprintf(&b, "  %s\n", s.Label.Sprint("Latency Distribution:"))
		fmt.Fprintf(&b, "    Avg %s  P50 %s  P90 %s  P99 %s  Max %s\n",
			FormatLatency(l.Mean), FormatLatency(l.P50), FormatLatency(l.P90), FormatLatency(l.P99), FormatLatency(l.Max))
	}

	if len(tests) > 1 {
		fmt.Fprintf(&b, "  %s\n", s.Label.Sprint("Tests:"))
		for _, t := range tests {
			fmt.Fprintf(&b, "    %-20s %8s reqs  %6d failed  P95 %s\n",
				t.Name, FormatNumber(t.Requests), t.Failed, FormatLatency(t.Latency.P95))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, b.String())
}
