// Package orchestrator drives the run, compare and validate lifecycles:
// it loads a configuration, applies overrides, gates it through validation
// and hands it to the execution engines and the report generator.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/thunderbench/internal/comparison"
	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/engine"
	"github.com/wesleyorama2/thunderbench/internal/output"
	"github.com/wesleyorama2/thunderbench/internal/report"
)

var (
	// ErrEngineExecution wraps failures of the benchmark or comparison engine.
	ErrEngineExecution = errors.New("engine execution failed")

	// ErrReportGeneration wraps failures of the report generator.
	ErrReportGeneration = errors.New("report generation failed")
)

// BenchmarkValidator accepts or rejects a single-target configuration.
type BenchmarkValidator interface {
	ValidateBenchmark(cfg *config.BenchmarkConfig) error
}

// ComparisonValidator accepts or rejects a comparison configuration.
type ComparisonValidator interface {
	ValidateComparison(cfg *config.ComparisonConfig) error
}

// DocumentValidator discriminates a document and validates it.
type DocumentValidator interface {
	Validate(doc *config.Document) error
}

// Validator is everything the orchestrator asks of the validation gate.
type Validator interface {
	BenchmarkValidator
	ComparisonValidator
	DocumentValidator
}

// Executor runs a benchmark configuration.
type Executor interface {
	Run(ctx context.Context, cfg *config.BenchmarkConfig, opts engine.Options) (*engine.Result, error)
}

// ComparisonRunner runs a comparison across servers.
type ComparisonRunner interface {
	RunComparison(ctx context.Context, servers []config.ServerConfig, testCfg config.ComparisonTestConfig, opts comparison.Options) (*comparison.Result, error)
}

// ReportGenerator writes comparison reports and returns their paths.
type ReportGenerator interface {
	Generate(result *comparison.Result, opts report.Options) ([]string, error)
}

// ReportGeneratorFunc adapts a function to ReportGenerator.
type ReportGeneratorFunc func(result *comparison.Result, opts report.Options) ([]string, error)

// Generate calls f.
func (f ReportGeneratorFunc) Generate(result *comparison.Result, opts report.Options) ([]string, error) {
	return f(result, opts)
}

// Orchestrator wires configuration handling to its collaborators.
type Orchestrator struct {
	logger    zerolog.Logger
	console   *output.Console
	validator Validator
	executor  Executor
	comparer  ComparisonRunner
	reports   ReportGenerator
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithValidator sets the validation gate.
func WithValidator(v Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithExecutor sets the benchmark engine.
func WithExecutor(e Executor) Option {
	return func(o *Orchestrator) { o.executor = e }
}

// WithComparisonRunner sets the comparison engine.
func WithComparisonRunner(r ComparisonRunner) Option {
	return func(o *Orchestrator) { o.comparer = r }
}

// WithReportGenerator sets the report generator.
func WithReportGenerator(g ReportGenerator) Option {
	return func(o *Orchestrator) { o.reports = g }
}

// New creates an orchestrator. Without options it uses the production
// gate, engines and report generator.
func New(logger zerolog.Logger, console *output.Console, options ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:  logger.With().Str("component", "orchestrator").Logger(),
		console: console,
	}
	for _, option := range options {
		option(o)
	}

	if o.validator == nil {
		o.validator = config.NewGate()
	}
	if o.executor == nil || o.comparer == nil {
		eng := engine.New(logger, console)
		if o.executor == nil {
			o.executor = eng
		}
		if o.comparer == nil {
			o.comparer = comparison.NewRunner(logger, console, eng)
		}
	}
	if o.reports == nil {
		o.reports = ReportGeneratorFunc(report.Generate)
	}
	return o
}

// load resolves, checks and loads a configuration source.
func (o *Orchestrator) load(path string) (*config.Document, error) {
	resolved, err := config.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfigLoad, err)
	}
	if err := config.CheckExists(resolved); err != nil {
		return nil, err
	}

	o.console.Step("Loading configuration from %s", resolved)
	doc, err := config.Load(resolved)
	if err != nil {
		return nil, err
	}
	o.logger.Debug().Str("path", resolved).Stringer("kind", doc.Kind).Msg("configuration loaded")
	return doc, nil
}

// expectKind fails with ErrUnrecognizedShape unless doc is of kind want.
func expectKind(doc *config.Document, want config.Kind, hint string) error {
	if doc.Kind == want {
		return nil
	}
	if doc.Kind == config.KindUnknown {
		return fmt.Errorf("%w: expected a %s configuration", config.ErrUnrecognizedShape, want)
	}
	return fmt.Errorf("%w: expected a %s configuration but %s is a %s configuration (%s)", config.ErrUnrecognizedShape, want, doc.Path, doc.Kind, hint)
}
