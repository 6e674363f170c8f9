// Package engine generates HTTP load for benchmark configurations.
//
// Each group runs a closed model: a fixed number of virtual users (the
// group's connections) partitioned across worker threads, each issuing
// requests back to back until the group's duration elapses. Groups run one
// after another in declaration order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/metrics"
	"github.com/wesleyorama2/thunderbench/internal/output"
)

// DefaultOutputDir is used when Options.OutputDir is empty.
const DefaultOutputDir = "reports"

// Options controls a benchmark run.
type Options struct {
	// OutputDir receives reports and request plans
	OutputDir string

	// CleanupScripts removes the request plans after the run
	CleanupScripts bool

	// ShowProgress renders live statistics once per second
	ShowProgress bool

	// Verbose prints per-test breakdowns after each group
	Verbose bool

	// WriteReport writes JSON and markdown run reports
	WriteReport bool
}

func (o Options) outputDir() string {
	if o.OutputDir == "" {
		return DefaultOutputDir
	}
	return o.OutputDir
}

// Result contains the complete run results.
type Result struct {
	RunID       string         `json:"runId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	Duration    time.Duration  `json:"duration"`
	Groups      []*GroupResult `json:"groups"`

	// PlanFiles lists the request plans left on disk
	PlanFiles []string `json:"planFiles,omitempty"`

	// ReportFiles lists the written run reports
	ReportFiles []string `json:"-"`
}

// GroupResult contains the results of a single group.
type GroupResult struct {
	Name          string            `json:"name"`
	BaseURL       string            `json:"baseUrl"`
	ExecutionMode string            `json:"executionMode"`
	Threads       int               `json:"threads"`
	Connections   int               `json:"connections"`
	Duration      time.Duration     `json:"duration"`
	Timeout       time.Duration     `json:"timeout"`
	Latency       bool              `json:"latency"`
	Metrics       *metrics.Snapshot `json:"metrics"`
	Tests         []TestResult      `json:"tests"`
}

// TestResult contains the statistics of one weighted test.
type TestResult struct {
	Name     string               `json:"name"`
	Method   string               `json:"method"`
	URL      string               `json:"url"`
	Weight   float64              `json:"weight"`
	Share    float64              `json:"share"`
	Requests int64                `json:"requests"`
	Failed   int64                `json:"failed"`
	Latency  metrics.LatencyStats `json:"latency"`
}

// Engine runs benchmark configurations.
type Engine struct {
	logger  zerolog.Logger
	console *output.Console

	// durationUnit scales group durations and timeouts (seconds in production)
	durationUnit time.Duration

	// tick is the live progress interval
	tick time.Duration

	now func() time.Time
}

// New creates an engine logging to logger and printing progress and
// summaries to console.
func New(logger zerolog.Logger, console *output.Console) *Engine {
	return &Engine{
		logger:       logger.With().Str("component", "engine").Logger(),
		console:      console,
		durationUnit: time.Second,
		tick:         time.Second,
		now:          time.Now,
	}
}

// Run executes every group of cfg in order.
//
// Before each group a request plan is written to
// <OutputDir>/scripts/<run-id>-<group>.json. The plans are removed when
// the run ends if Options.CleanupScripts is set. A cancelled context stops
// the current group and fails the run.
func (e *Engine) Run(ctx context.Context, cfg *config.BenchmarkConfig, opts Options) (result *Result, err error) {
	if cfg == nil {
		return nil, errors.New("benchmark config is nil")
	}
	if len(cfg.Groups) == 0 {
		return nil, errors.New("benchmark config has no groups")
	}

	runID := uuid.NewString()
	logger := e.logger.With().Str("run", runID).Logger()

	result = &Result{
		RunID:       runID,
		Name:        cfg.Name,
		Description: cfg.Description,
		StartTime:   e.now(),
	}

	scriptsDir := filepath.Join(opts.outputDir(), "scripts")
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scripts directory: %w", err)
	}

	var plans []string
	defer func() {
		if !opts.CleanupScripts {
			return
		}
		for _, path := range plans {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Warn().Err(rmErr).Str("path", path).Msg("failed to remove request plan")
			}
		}
		// Only removes the directory when nothing else lives there
		_ = os.Remove(scriptsDir)
		if result != nil {
			result.PlanFiles = nil
		}
	}()

	for i := range cfg.Groups {
		group := cfg.Groups[i]
		name := group.GroupName(i)

		planPath, err := writePlan(scriptsDir, runID, name, &group)
		if err != nil {
			return nil, err
		}
		plans = append(plans, planPath)
		result.PlanFiles = append(result.PlanFiles, planPath)
		logger.Debug().Str("group", name).Str("plan", planPath).Msg("request plan written")

		groupResult, err := e.RunGroup(ctx, name, group, opts)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
		result.Groups = append(result.Groups, groupResult)
	}

	result.EndTime = e.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if opts.WriteReport {
		paths, err := writeRunReports(opts.outputDir(), result)
		if err != nil {
			return nil, err
		}
		result.ReportFiles = paths
		logger.Debug().Strs("files", paths).Msg("run reports written")
	}

	return result, nil
}
