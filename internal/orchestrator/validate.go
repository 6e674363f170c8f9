package orchestrator

import (
	"github.com/wesleyorama2/thunderbench/internal/config"
)

// Validate loads a configuration of either shape and runs the gate on it.
func (o *Orchestrator) Validate(path string) (*config.Document, error) {
	doc, err := o.load(path)
	if err != nil {
		return nil, err
	}

	if err := o.validator.Validate(doc); err != nil {
		return nil, err
	}

	switch doc.Kind {
	case config.KindBenchmark:
		o.console.Success("Benchmark configuration is valid")
		o.console.Detail("Groups", len(doc.Benchmark.Groups))
	case config.KindComparison:
		o.console.Success("Comparison configuration is valid")
		o.console.Detail("Servers", len(doc.Comparison.Servers))
		o.console.Detail("Scenarios", len(doc.Comparison.TestConfig.Scenarios))
	}
	return doc, nil
}
