// Package comparison runs the same workload against several competing
// server processes, one at a time, and ranks them by throughput.
package comparison

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/engine"
	thttp "github.com/wesleyorama2/thunderbench/internal/http"
	"github.com/wesleyorama2/thunderbench/internal/metrics"
	"github.com/wesleyorama2/thunderbench/internal/output"
)

// Host is where competing servers are expected to listen.
const Host = "127.0.0.1"

// Options controls a comparison run.
type Options struct {
	ShowProgress bool
	Verbose      bool
}

// Result is the outcome of a comparison run.
type Result struct {
	RunID       string         `json:"runId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	Duration    time.Duration  `json:"duration"`
	Workload    Workload       `json:"workload"`
	Servers     []ServerResult `json:"servers"`
	Ranking     []RankEntry    `json:"ranking"`
}

// Workload echoes the shared test configuration.
type Workload struct {
	Threads     int               `json:"threads"`
	Connections int               `json:"connections"`
	DurationSec int               `json:"durationSec"`
	Scenarios   []config.Scenario `json:"scenarios"`
}

// ServerResult holds the measurements of one competitor.
type ServerResult struct {
	Name        string              `json:"name"`
	Command     string              `json:"command"`
	Port        int                 `json:"port"`
	StartupTime time.Duration       `json:"startupTime"`
	Warmup      int                 `json:"warmupRequests"`
	WarmupFails int                 `json:"warmupFailures"`
	Metrics     *metrics.Snapshot   `json:"metrics,omitempty"`
	Scenarios   []engine.TestResult `json:"scenarios,omitempty"`
	Resources   *ResourceUsage      `json:"resources,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Succeeded reports whether the server produced measurements.
func (s *ServerResult) Succeeded() bool {
	return s.Error == "" && s.Metrics != nil
}

// RankEntry places a server in the throughput ranking.
type RankEntry struct {
	Rank   int     `json:"rank"`
	Server string  `json:"server"`
	RPS    float64 `json:"rps"`

	// Relative is the RPS as a fraction of the leader's
	Relative float64 `json:"relative"`
}

// Winner returns the name of the fastest server, if any succeeded.
func (r *Result) Winner() string {
	if len(r.Ranking) == 0 {
		return ""
	}
	return r.Ranking[0].Server
}

// Runner executes comparisons.
type Runner struct {
	logger  zerolog.Logger
	console *output.Console
	engine  *engine.Engine

	healthInterval time.Duration
	sampleInterval time.Duration
	stopGrace      time.Duration
}

// NewRunner creates a runner that drives load through eng.
func NewRunner(logger zerolog.Logger, console *output.Console, eng *engine.Engine) *Runner {
	return &Runner{
		logger:         logger.With().Str("component", "comparison").Logger(),
		console:        console,
		engine:         eng,
		healthInterval: 250 * time.Millisecond,
		sampleInterval: time.Second,
		stopGrace:      5 * time.Second,
	}
}

// RunComparison benchmarks every server in order. A server that fails to
// start or run is recorded with its error and the comparison continues;
// the run fails only when no server produced results or ctx is cancelled.
func (r *Runner) RunComparison(ctx context.Context, servers []config.ServerConfig, testCfg config.ComparisonTestConfig, opts Options) (*Result, error) {
	if len(servers) == 0 {
		return nil, errors.New("no servers to compare")
	}

	result := &Result{
		RunID:       uuid.NewString(),
		Name:        testCfg.Name,
		Description: testCfg.Description,
		StartTime:   time.Now(),
		Workload: Workload{
			Threads:     testCfg.Threads,
			Connections: testCfg.Connections,
			DurationSec: testCfg.Duration,
			Scenarios:   testCfg.Scenarios,
		},
	}

	var errs []error
	for _, server := range servers {
		r.console.Banner(fmt.Sprintf("Server: %s", server.Name))

		sr := r.runServer(ctx, server, testCfg, opts)
		result.Servers = append(result.Servers, *sr)

		if ctx.Err() != nil {
			return nil, fmt.Errorf("comparison interrupted: %w", ctx.Err())
		}
		if !sr.Succeeded() {
			r.console.Fail("%s failed: %s", server.Name, sr.Error)
			errs = append(errs, fmt.Errorf("%s: %s", server.Name, sr.Error))
			continue
		}
		r.console.Success("%s: %.2f requests/sec", server.Name, sr.Metrics.RPS)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Ranking = rank(result.Servers)

	if len(result.Ranking) == 0 {
		return nil, fmt.Errorf("no server produced results: %w", errors.Join(errs...))
	}
	return result, nil
}

// runServer takes one competitor through start, health, warmup, load and
// stop. The returned result carries the error of the first failing stage.
func (r *Runner) runServer(ctx context.Context, server config.ServerConfig, testCfg config.ComparisonTestConfig, opts Options) *ServerResult {
	logger := r.logger.With().Str("server", server.Name).Logger()
	sr := &ServerResult{
		Name:    server.Name,
		Command: server.Command,
		Port:    server.Port,
		Warmup:  server.WarmupRequests,
	}
	baseURL := "http://" + Host + ":" + strconv.Itoa(server.Port)

	r.console.Step("Starting %s", server.Name)
	started := time.Now()
	proc, err := startServer(server)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	defer func() {
		proc.stop(r.stopGrace)
		logger.Debug().Msg("server stopped")
	}()
	logger.Debug().Int("pid", proc.Pid()).Msg("server started")

	startupTimeout := time.Duration(server.StartupTimeout) * time.Millisecond
	if err := waitHealthy(ctx, proc, baseURL+server.HealthCheckPath, startupTimeout, r.healthInterval); err != nil {
		sr.Error = fmt.Sprintf("health check failed: %v", err)
		return sr
	}
	sr.StartupTime = time.Since(started)
	r.console.Success("%s healthy after %s", server.Name, output.FormatDuration(sr.StartupTime))

	group := testCfg.Group(server.Name, baseURL)

	if server.WarmupRequests > 0 && len(group.Tests) > 0 {
		r.console.Step("Warming up %s with %d requests", server.Name, server.WarmupRequests)
		client := thttp.NewClient(
			thttp.WithBaseURL(baseURL),
			thttp.WithTimeout(engine.RequestTimeout(group)),
			thttp.WithDiscardBody(),
		)
		prepared, err := client.Prepare(thttp.FromSpec(group.Tests[0].Request))
		if err != nil {
			client.Close()
			sr.Error = fmt.Sprintf("warmup failed: %v", err)
			return sr
		}
		sr.WarmupFails = warmup(ctx, client, prepared, server.WarmupRequests)
		client.Close()
		if sr.WarmupFails > 0 {
			logger.Warn().Int("failed", sr.WarmupFails).Msg("warmup requests failed")
		}
	}

	sampleCtx, stopSampling := context.WithCancel(ctx)
	s := newSampler(logger, r.sampleInterval)
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		s.run(sampleCtx, proc.Pid())
	}()

	groupResult, err := r.engine.RunGroup(ctx, server.Name, group, engine.Options{
		ShowProgress: opts.ShowProgress,
		Verbose:      opts.Verbose,
	})
	stopSampling()
	<-sampled

	select {
	case <-proc.Exited():
		sr.Error = fmt.Sprintf("server exited during the run: %v", proc.exitError())
		return sr
	default:
	}
	if err != nil {
		sr.Error = err.Error()
		return sr
	}

	sr.Metrics = groupResult.Metrics
	sr.Scenarios = groupResult.Tests
	sr.Resources = s.usage()
	return sr
}

// rank orders successful servers by RPS, highest first.
func rank(servers []ServerResult) []RankEntry {
	var ranking []RankEntry
	for i := range servers {
		if servers[i].Succeeded() {
			ranking = append(ranking, RankEntry{Server: servers[i].Name, RPS: servers[i].Metrics.RPS})
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].RPS > ranking[j].RPS })

	for i := range ranking {
		ranking[i].Rank = i + 1
		if ranking[0].RPS > 0 {
			ranking[i].Relative = ranking[i].RPS / ranking[0].RPS
		}
	}
	return ranking
}
