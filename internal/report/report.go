// Package report writes comparison results to disk in one or more formats.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wesleyorama2/thunderbench/internal/comparison"
	"github.com/wesleyorama2/thunderbench/internal/engine"
)

// DefaultOutputDir is used when Options.OutputDir is empty.
const DefaultOutputDir = "comparison-reports"

// DefaultFormats are written when Options.Formats is empty.
var DefaultFormats = []string{"markdown", "json"}

// ErrUnknownFormat is returned for a format with no renderer.
var ErrUnknownFormat = errors.New("unknown report format")

// Options controls report generation.
type Options struct {
	OutputDir string
	Formats   []string
}

type renderer struct {
	ext    string
	render func(*comparison.Result) ([]byte, error)
}

var renderers = map[string]renderer{
	"markdown": {ext: ".md", render: RenderMarkdown},
	"md":       {ext: ".md", render: RenderMarkdown},
	"json":     {ext: ".json", render: renderJSON},
	"html":     {ext: ".html", render: RenderHTML},
}

// Formats returns the supported format names.
func Formats() []string {
	return []string{"markdown", "json", "html"}
}

// Generate renders result in every requested format and writes the files
// to opts.OutputDir as comparison-<name>-<timestamp>.<ext>. Paths are
// returned in the order of opts.Formats. All formats are checked before
// anything is written.
func Generate(result *comparison.Result, opts Options) ([]string, error) {
	if result == nil {
		return nil, errors.New("comparison result is nil")
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}

	selected := make([]renderer, 0, len(formats))
	for _, format := range formats {
		r, ok := renderers[strings.ToLower(format)]
		if !ok {
			return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
		}
		selected = append(selected, r)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("comparison-%s-%s", engine.Slug(result.Name), result.StartTime.Format("20060102-150405")))

	paths := make([]string, 0, len(selected))
	for i, r := range selected {
		data, err := r.render(result)
		if err != nil {
			return nil, fmt.Errorf("%s report: %w", formats[i], err)
		}
		path := base + r.ext
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s report: %w", formats[i], err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renderJSON(result *comparison.Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}
