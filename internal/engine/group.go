package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/thunderbench/internal/config"
	thttp "github.com/wesleyorama2/thunderbench/internal/http"
	"github.com/wesleyorama2/thunderbench/internal/metrics"
	"github.com/wesleyorama2/thunderbench/internal/output"
)

// transportErrorBackoff paces a virtual user whose requests fail before
// reaching the server, e.g. while the target refuses connections.
const transportErrorBackoff = 10 * time.Millisecond

// RequestTimeout returns the per-request timeout of a group: the override
// in milliseconds when set, otherwise the group timeout in seconds.
func RequestTimeout(group config.TestGroup) time.Duration {
	return requestTimeout(group, time.Second)
}

func requestTimeout(group config.TestGroup, unit time.Duration) time.Duration {
	if group.HTTP.Timeout > 0 {
		return time.Duration(group.HTTP.Timeout) * time.Millisecond
	}
	if group.Timeout > 0 {
		return time.Duration(group.Timeout) * unit
	}
	return 30 * time.Second
}

// RunGroup runs a single group to completion and returns its results.
func (e *Engine) RunGroup(ctx context.Context, name string, group config.TestGroup, opts Options) (*GroupResult, error) {
	if len(group.Tests) == 0 {
		return nil, errors.New("group has no tests")
	}
	if group.Connections < 1 {
		return nil, fmt.Errorf("connections must be positive, got %d", group.Connections)
	}

	threads := group.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > group.Connections {
		threads = group.Connections
	}

	duration := time.Duration(group.Duration) * e.durationUnit
	timeout := requestTimeout(group, e.durationUnit)

	client := thttp.NewClient(
		thttp.WithBaseURL(group.HTTP.BaseURL),
		thttp.WithHeaders(group.HTTP.Headers),
		thttp.WithTimeout(timeout),
		thttp.WithMaxConnections(group.Connections),
		thttp.WithDiscardBody(),
	)
	defer client.Close()

	prepared := make([]*thttp.Prepared, len(group.Tests))
	weights := make([]float64, len(group.Tests))
	positive := false
	for i, test := range group.Tests {
		p, err := client.Prepare(thttp.FromSpec(test.Request))
		if err != nil {
			return nil, fmt.Errorf("test %q: %w", test.Name, err)
		}
		prepared[i] = p
		weights[i] = test.Weight
		if test.Weight > 0 {
			positive = true
		}
	}
	if !positive {
		return nil, errors.New("group has no test with a positive weight")
	}

	e.logger.Info().
		Str("group", name).
		Str("baseUrl", group.HTTP.BaseURL).
		Int("threads", threads).
		Int("connections", group.Connections).
		Dur("duration", duration).
		Dur("timeout", timeout).
		Str("mode", group.ExecutionMode).
		Msg("starting group")

	e.console.Step("Running group %s: %d connections on %d threads for %s",
		name, group.Connections, threads, output.FormatDuration(duration))

	rec := metrics.New()

	var shared Picker
	if group.ExecutionMode == config.ModeSerial {
		shared = NewPicker(config.ModeSerial, weights, nil)
	}
	seed := time.Now().UnixNano()

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	stopProgress := e.startProgress(runCtx, name, rec, duration, group.Connections, opts)

	g, gctx := errgroup.WithContext(runCtx)
	vuIndex := 0
	for t := 0; t < threads; t++ {
		vus := group.Connections / threads
		if t < group.Connections%threads {
			vus++
		}
		first := vuIndex
		vuIndex += vus

		g.Go(func() error {
			var wg sync.WaitGroup
			for v := 0; v < vus; v++ {
				picker := shared
				if picker == nil {
					picker = NewPicker(config.ModeParallel, weights, rand.NewSource(seed+int64(first+v)))
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					e.runVU(gctx, client, prepared, group.Tests, picker, rec)
				}()
			}
			wg.Wait()
			return nil
		})
	}

	waitErr := g.Wait()
	rec.Stop()
	stopProgress()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}
	if waitErr != nil {
		return nil, waitErr
	}

	snapshot := rec.Snapshot()
	result := &GroupResult{
		Name:          name,
		BaseURL:       group.HTTP.BaseURL,
		ExecutionMode: group.ExecutionMode,
		Threads:       threads,
		Connections:   group.Connections,
		Duration:      duration,
		Timeout:       timeout,
		Latency:       group.Latency,
		Metrics:       snapshot,
		Tests:         testResults(group.Tests, rec.TestStats()),
	}

	e.logger.Info().
		Str("group", name).
		Int64("requests", snapshot.TotalRequests).
		Float64("rps", snapshot.RPS).
		Float64("errorRate", snapshot.ErrorRate).
		Msg("group finished")

	var tests []metrics.TestSnapshot
	if opts.Verbose {
		tests = rec.TestStats()
	}
	e.console.Summary(fmt.Sprintf("Group %s", name), snapshot, tests, group.Latency)

	return result, nil
}

// runVU issues requests until ctx is done. Requests cut short by the end
// of the group are not recorded.
func (e *Engine) runVU(ctx context.Context, client *thttp.Client, prepared []*thttp.Prepared, tests []config.WeightedTest, picker Picker, rec *metrics.Recorder) {
	rec.AddActiveVUs(1)
	defer rec.AddActiveVUs(-1)

	for ctx.Err() == nil {
		i := picker.Next()
		start := time.Now()
		resp, err := client.Do(ctx, prepared[i])
		if err != nil && ctx.Err() != nil {
			return
		}

		sample := metrics.Sample{Test: tests[i].Name, Latency: time.Since(start)}
		if err != nil {
			sample.Err = err
			rec.Record(sample)

			select {
			case <-ctx.Done():
				return
			case <-time.After(transportErrorBackoff):
			}
			continue
		}

		sample.StatusCode = resp.StatusCode
		sample.Bytes = resp.BytesRead
		sample.Latency = resp.Timing.TotalTime
		rec.Record(sample)
	}
}

// startProgress renders live statistics until the returned func is called.
func (e *Engine) startProgress(ctx context.Context, name string, rec *metrics.Recorder, duration time.Duration, vus int, opts Options) func() {
	if !opts.ShowProgress {
		return func() {}
	}

	progress := output.NewProgress(e.console, name)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				progress.Update(output.StatsFromSnapshot(rec.Snapshot(), duration, vus))
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		progress.Finish()
	}
}

// testResults joins per-test statistics with the configured tests. Tests
// that were never picked are reported with zero requests.
func testResults(tests []config.WeightedTest, stats []metrics.TestSnapshot) []TestResult {
	byName := make(map[string]metrics.TestSnapshot, len(stats))
	for _, s := range stats {
		byName[s.Name] = s
	}

	total := 0.0
	for _, t := range tests {
		if t.Weight > 0 {
			total += t.Weight
		}
	}

	results := make([]TestResult, 0, len(tests))
	for _, t := range tests {
		share := 0.0
		if total > 0 && t.Weight > 0 {
			share = t.Weight / total
		}
		s := byName[t.Name]
		results = append(results, TestResult{
			Name:     t.Name,
			Method:   t.Request.Method,
			URL:      t.Request.URL,
			Weight:   t.Weight,
			Share:    share,
			Requests: s.Requests,
			Failed:   s.Failed,
			Latency:  s.Latency,
		})
	}
	return results
}
