package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ScriptPrefix marks a configuration source that is produced by running a
// program instead of reading a file, e.g. "exec:./gen-config.sh prod".
// The program's stdout is parsed as YAML (which includes JSON).
const ScriptPrefix = "exec:"

// Kind discriminates the two configuration shapes.
type Kind int

const (
	KindUnknown Kind = iota
	KindBenchmark
	KindComparison
)

func (k Kind) String() string {
	switch k {
	case KindBenchmark:
		return "benchmark"
	case KindComparison:
		return "comparison"
	default:
		return "unknown"
	}
}

// Document is a loaded configuration with its shape decided once.
// Exactly one of Benchmark or Comparison is set, unless Kind is KindUnknown.
type Document struct {
	Kind       Kind
	Path       string
	Benchmark  *BenchmarkConfig
	Comparison *ComparisonConfig
}

// ResolvePath turns a user-supplied path into an absolute one. Script
// sources keep their prefix and have their program path resolved when it
// names a file rather than a command on PATH.
func ResolvePath(path string) (string, error) {
	if IsScript(path) {
		fields := strings.Fields(strings.TrimPrefix(path, ScriptPrefix))
		if len(fields) == 0 {
			return "", fmt.Errorf("%w: empty script source", ErrConfigLoad)
		}
		if strings.ContainsRune(fields[0], filepath.Separator) {
			abs, err := filepath.Abs(fields[0])
			if err != nil {
				return "", err
			}
			fields[0] = abs
		}
		return ScriptPrefix + strings.Join(fields, " "), nil
	}
	return filepath.Abs(path)
}

// IsScript reports whether path uses the script extension point.
func IsScript(path string) bool {
	return strings.HasPrefix(path, ScriptPrefix)
}

// CheckExists returns ErrMissingConfigFile when the source does not exist.
// For script sources with a file path, the program file is checked.
func CheckExists(path string) error {
	target := path
	if IsScript(path) {
		fields := strings.Fields(strings.TrimPrefix(path, ScriptPrefix))
		if len(fields) == 0 {
			return fmt.Errorf("%w: empty script source", ErrMissingConfigFile)
		}
		if !strings.ContainsRune(fields[0], filepath.Separator) {
			if _, err := exec.LookPath(fields[0]); err != nil {
				return fmt.Errorf("%w: %s", ErrMissingConfigFile, fields[0])
			}
			return nil
		}
		target = fields[0]
	}

	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingConfigFile, target)
		}
		return fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}
	return nil
}

// Load reads a configuration source and returns the discriminated document.
//
// The format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//   - .toml -> TOML
//
// Unknown extensions are parsed as YAML.
func Load(path string) (*Document, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}

	var data []byte
	var err error
	format := formatOf(path)

	if IsScript(path) {
		data, err = runScript(path)
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = "json"
		}
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	doc, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse parses configuration data in the given format ("yaml", "json" or
// "toml") into a Document.
func Parse(data []byte, format string) (*Document, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrConfigLoad)
	}

	if v := root.Get("version"); v.Exists() && v.Int() != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported config version %s (supported: %d)", ErrConfigLoad, v.Raw, SchemaVersion)
	}

	doc := &Document{Kind: discriminate(root)}

	switch doc.Kind {
	case KindBenchmark:
		var cfg BenchmarkConfig
		if err := decodeStrict(raw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: invalid benchmark config: %w", ErrConfigLoad, err)
		}
		doc.Benchmark = &cfg
	case KindComparison:
		var cfg ComparisonConfig
		if err := decodeStrict(raw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: invalid comparison config: %w", ErrConfigLoad, err)
		}
		doc.Comparison = &cfg
	}

	return doc, nil
}

// discriminate decides the shape of a normalized document. A document that
// carries both shapes is ambiguous and reported as unknown.
func discriminate(root gjson.Result) Kind {
	hasGroups := root.Get("groups").Exists()
	hasComparison := root.Get("servers").Exists() && root.Get("testConfig").Exists()

	switch {
	case hasGroups && !hasComparison:
		return KindBenchmark
	case hasComparison && !hasGroups:
		return KindComparison
	default:
		return KindUnknown
	}
}

// toJSON normalizes any supported format into JSON bytes.
func toJSON(data []byte, format string) ([]byte, error) {
	switch format {
	case "json":
		var probe interface{}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		return data, nil

	case "toml":
		var v map[string]interface{}
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
		return json.Marshal(v)

	default:
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
		if v == nil {
			return nil, fmt.Errorf("config is empty")
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize YAML config: %w", err)
		}
		return out, nil
	}
}

// decodeStrict decodes JSON rejecting unknown fields and type mismatches.
func decodeStrict(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// formatOf returns the parse format for a path.
func formatOf(path string) string {
	if IsScript(path) {
		return "yaml"
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// runScript executes a script source and returns its stdout.
func runScript(path string) ([]byte, error) {
	fields := strings.Fields(strings.TrimPrefix(path, ScriptPrefix))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty script source")
	}

	var stderr bytes.Buffer
	cmd := exec.Command(fields[0], fields[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("config script %s failed: %w: %s", fields[0], err, msg)
		}
		return nil, fmt.Errorf("config script %s failed: %w", fields[0], err)
	}
	return out, nil
}
