package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/wesleyorama2/thunderbench/internal/comparison"
	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/report"
)

// CompareOptions controls a comparison run.
type CompareOptions struct {
	ConfigPath string
	OutputDir  string
	Verbose    bool
	NoProgress bool

	// Formats is passed to the report generator unfiltered
	Formats []string
}

// ParseFormats splits a comma-separated format list, trimming whitespace
// and dropping empty entries. Unknown names are kept.
func ParseFormats(csv string) []string {
	var formats []string
	for _, f := range strings.Split(csv, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// Compare runs a comparison configuration, writes its reports and returns
// the report paths in the order the generator produced them.
func (o *Orchestrator) Compare(ctx context.Context, opts CompareOptions) ([]string, error) {
	doc, err := o.load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := expectKind(doc, config.KindComparison, "use the run command"); err != nil {
		return nil, err
	}
	cfg := doc.Comparison

	if err := o.validator.ValidateComparison(cfg); err != nil {
		return nil, err
	}

	o.console.Step("Comparing %d servers", len(cfg.Servers))
	result, err := o.comparer.RunComparison(ctx, cfg.Servers, cfg.TestConfig, comparison.Options{
		ShowProgress: !opts.NoProgress,
		Verbose:      opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineExecution, err)
	}

	if result != nil && len(result.Ranking) > 0 {
		o.console.Banner("Ranking")
		for _, entry := range result.Ranking {
			o.console.Detail(fmt.Sprintf("%d. %s", entry.Rank, entry.Server), fmt.Sprintf("%.2f req/s (%.0f%%)", entry.RPS, entry.Relative*100))
		}
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = report.DefaultOutputDir
	}

	o.console.Step("Generating reports")
	paths, err := o.reports.Generate(result, report.Options{OutputDir: outputDir, Formats: opts.Formats})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportGeneration, err)
	}

	o.console.Success("Reports generated")
	for _, path := range paths {
		o.console.Println("  " + path)
	}
	return paths, nil
}
