package orchestrator

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/engine"
)

// RunOptions controls a single-target run.
type RunOptions struct {
	ConfigPath     string
	OutputDir      string
	Verbose        bool
	NoReport       bool
	NoProgress     bool
	CleanupScripts bool
	DryRun         bool
	Overrides      config.Overrides
}

// Run loads a benchmark configuration, applies overrides, validates it and
// executes it. A dry run stops after validation and returns a nil result.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*engine.Result, error) {
	doc, err := o.load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := expectKind(doc, config.KindBenchmark, "use the compare command"); err != nil {
		return nil, err
	}
	cfg := doc.Benchmark

	if !opts.Overrides.IsZero() {
		opts.Overrides.Apply(cfg)
		event := o.logger.Debug()
		if opts.Overrides.Timeout != nil {
			event = event.Int("timeoutMs", *opts.Overrides.Timeout)
		}
		if opts.Overrides.Concurrency != nil {
			event = event.Int("concurrency", *opts.Overrides.Concurrency)
		}
		event.Msg("overrides applied")
	}

	o.console.Step("Validating configuration")
	if err := o.validator.ValidateBenchmark(cfg); err != nil {
		return nil, err
	}
	o.console.Success("Configuration is valid (%d groups)", len(cfg.Groups))

	if opts.DryRun {
		o.console.Info("Dry run: no requests were sent")
		return nil, nil
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = engine.DefaultOutputDir
	}

	o.console.Step("Running %s", cfg.Name)
	result, err := o.executor.Run(ctx, cfg, engine.Options{
		OutputDir:      outputDir,
		CleanupScripts: opts.CleanupScripts,
		ShowProgress:   !opts.NoProgress,
		Verbose:        opts.Verbose,
		WriteReport:    !opts.NoReport,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineExecution, err)
	}

	o.console.Success("Benchmark complete")
	if !opts.NoReport {
		o.console.Info("Reports saved to %s", outputDir)
		if result != nil {
			for _, path := range result.ReportFiles {
				o.console.Detail("Report", path)
			}
		}
	}
	return result, nil
}
