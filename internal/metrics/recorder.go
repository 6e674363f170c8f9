// Package metrics aggregates request measurements for a load-generation
// group using HDR histograms.
package metrics

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram range: 1 microsecond to 1 hour, 3 significant figures
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Sample is one completed (or failed) request.
type Sample struct {
	Test       string
	Latency    time.Duration
	StatusCode int
	Bytes      int64

	// Err is a transport failure; no response was received.
	Err error
}

// Failed reports whether the sample counts against the error rate.
func (s Sample) Failed() bool {
	return s.Err != nil || s.StatusCode >= 400
}

// Recorder collects samples from many goroutines.
//
// Counters use atomic operations and histograms are guarded by mutexes
// because hdrhistogram.Histogram is not safe for concurrent use.
type Recorder struct {
	latencyHist   *hdrhistogram.Histogram
	latencyHistMu sync.Mutex

	tests   map[string]*testStats
	testsMu sync.Mutex

	statusCodes   map[int]int64
	statusCodesMu sync.Mutex

	totalRequests   atomic.Int64
	failedRequests  atomic.Int64
	transportErrors atomic.Int64
	timeouts        atomic.Int64
	totalBytes      atomic.Int64
	activeVUs       atomic.Int32

	startTime time.Time
	stopTime  atomic.Pointer[time.Time]
}

type testStats struct {
	hist     *hdrhistogram.Histogram
	requests int64
	failed   int64
}

// New creates a recorder whose clock starts now.
func New() *Recorder {
	return &Recorder{
		latencyHist: newHistogram(),
		tests:       make(map[string]*testStats),
		statusCodes: make(map[int]int64),
		startTime:   time.Now(),
	}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
}

// Record adds a sample.
func (r *Recorder) Record(s Sample) {
	latencyMicros := s.Latency.Microseconds()
	if latencyMicros < histogramMin {
		latencyMicros = histogramMin
	}
	if latencyMicros > histogramMax {
		latencyMicros = histogramMax
	}

	r.latencyHistMu.Lock()
	r.latencyHist.RecordValue(latencyMicros)
	r.latencyHistMu.Unlock()

	failed := s.Failed()

	r.testsMu.Lock()
	ts, ok := r.tests[s.Test]
	if !ok {
		ts = &testStats{hist: newHistogram()}
		r.tests[s.Test] = ts
	}
	ts.hist.RecordValue(latencyMicros)
	ts.requests++
	if failed {
		ts.failed++
	}
	r.testsMu.Unlock()

	r.totalRequests.Add(1)
	r.totalBytes.Add(s.Bytes)
	if failed {
		r.failedRequests.Add(1)
	}

	if s.Err != nil {
		r.transportErrors.Add(1)
		if isTimeout(s.Err) {
			r.timeouts.Add(1)
		}
		return
	}

	r.statusCodesMu.Lock()
	r.statusCodes[s.StatusCode]++
	r.statusCodesMu.Unlock()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SetActiveVUs updates the active VU count.
func (r *Recorder) SetActiveVUs(count int) {
	r.activeVUs.Store(int32(count))
}

// AddActiveVUs adjusts the active VU count by delta.
func (r *Recorder) AddActiveVUs(delta int) {
	r.activeVUs.Add(int32(delta))
}

// Stop freezes the elapsed time used for rate calculations.
func (r *Recorder) Stop() {
	now := time.Now()
	r.stopTime.CompareAndSwap(nil, &now)
}

// Elapsed returns the time since the recorder started, or until Stop.
func (r *Recorder) Elapsed() time.Duration {
	if stop := r.stopTime.Load(); stop != nil {
		return stop.Sub(r.startTime)
	}
	return time.Since(r.startTime)
}

// Snapshot returns a point-in-time view of all metrics.
func (r *Recorder) Snapshot() *Snapshot {
	r.latencyHistMu.Lock()
	latency := statsOf(r.latencyHist)
	r.latencyHistMu.Unlock()

	elapsed := r.Elapsed()
	total := r.totalRequests.Load()
	failed := r.failedRequests.Load()

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(total) / elapsed.Seconds()
	}

	errorRate := 0.0
	if total > 0 {
		errorRate = float64(failed) / float64(total)
	}

	bytesPerSec := 0.0
	if elapsed.Seconds() > 0 {
		bytesPerSec = float64(r.totalBytes.Load()) / elapsed.Seconds()
	}

	return &Snapshot{
		TotalRequests:   total,
		SuccessRequests: total - failed,
		FailedRequests:  failed,
		TransportErrors: r.transportErrors.Load(),
		Timeouts:        r.timeouts.Load(),
		TotalBytes:      r.totalBytes.Load(),
		BytesPerSec:     bytesPerSec,
		Latency:         latency,
		RPS:             rps,
		ErrorRate:       errorRate,
		StatusCodes:     r.StatusCodes(),
		ActiveVUs:       int(r.activeVUs.Load()),
		Elapsed:         elapsed,
		StartTime:       r.startTime,
	}
}

// StatusCodes returns a copy of the status-code distribution.
func (r *Recorder) StatusCodes() map[int]int64 {
	r.statusCodesMu.Lock()
	defer r.statusCodesMu.Unlock()

	out := make(map[int]int64, len(r.statusCodes))
	for code, n := range r.statusCodes {
		out[code] = n
	}
	return out
}

// TestStats returns per-test statistics sorted by test name.
func (r *Recorder) TestStats() []TestSnapshot {
	r.testsMu.Lock()
	defer r.testsMu.Unlock()

	out := make([]TestSnapshot, 0, len(r.tests))
	for name, ts := range r.tests {
		out = append(out, TestSnapshot{
			Name:     name,
			Requests: ts.requests,
			Failed:   ts.failed,
			Latency:  statsOf(ts.hist),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func statsOf(hist *hdrhistogram.Histogram) LatencyStats {
	if hist.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Min:    time.Duration(hist.Min()) * time.Microsecond,
		Max:    time.Duration(hist.Max()) * time.Microsecond,
		Mean:   time.Duration(hist.Mean()) * time.Microsecond,
		StdDev: time.Duration(hist.StdDev()) * time.Microsecond,
		P50:    time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P75:    time.Duration(hist.ValueAtQuantile(75)) * time.Microsecond,
		P90:    time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		Count:  hist.TotalCount(),
	}
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	TotalRequests   int64         `json:"totalRequests"`
	SuccessRequests int64         `json:"successRequests"`
	FailedRequests  int64         `json:"failedRequests"`
	TransportErrors int64         `json:"transportErrors"`
	Timeouts        int64         `json:"timeouts"`
	TotalBytes      int64         `json:"totalBytes"`
	BytesPerSec     float64       `json:"bytesPerSec"`
	Latency         LatencyStats  `json:"latency"`
	RPS             float64       `json:"rps"`
	ErrorRate       float64       `json:"errorRate"`
	StatusCodes     map[int]int64 `json:"statusCodes"`
	ActiveVUs       int           `json:"activeVUs"`
	Elapsed         time.Duration `json:"elapsed"`
	StartTime       time.Time     `json:"startTime"`
}

// TestSnapshot holds the statistics of one weighted test.
type TestSnapshot struct {
	Name     string       `json:"name"`
	Requests int64        `json:"requests"`
	Failed   int64        `json:"failed"`
	Latency  LatencyStats `json:"latency"`
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P75    time.Duration `json:"p75"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}
