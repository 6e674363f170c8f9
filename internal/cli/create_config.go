package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/thunderbench/internal/config"
)

var createConfigCmd = &cobra.Command{
	Use:   "create-config",
	Short: "Write an example configuration file",
	Long: `Write an example configuration to the current directory:
  --type single      thunderbench.config.yaml
  --type comparison  comparison.config.yaml

Existing files are never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		dir, _ := cmd.Flags().GetString("dir")

		path, err := createConfig(kind, dir)
		if err != nil {
			return err
		}

		console := newConsole(cmd)
		console.Success("Created %s", path)
		console.Info("Edit it, then run: %s", nextStep(kind, path))
		return nil
	},
}

// createConfig writes the example configuration of the given type into
// dir and returns its path.
func createConfig(kind, dir string) (string, error) {
	var (
		name string
		doc  interface{}
	)
	switch kind {
	case "single":
		name, doc = "thunderbench.config.yaml", exampleBenchmark()
	case "comparison":
		name, doc = "comparison.config.yaml", exampleComparison()
	default:
		return "", fmt.Errorf("unknown config type %q (expected single or comparison)", kind)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Thunderbench %s configuration\n# Validate with: thunderbench validate --config %s\n\n", kind, name)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode example config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func nextStep(kind, path string) string {
	if kind == "comparison" {
		return "thunderbench compare --config " + path
	}
	return "thunderbench run --config " + path
}

func exampleBenchmark() *config.BenchmarkConfig {
	return &config.BenchmarkConfig{
		Version:     config.SchemaVersion,
		Name:        "API Load Test",
		Description: "Mixed read and write traffic against a local API",
		Groups: []config.TestGroup{
			{
				Name: "mixed",
				HTTP: config.HTTPSettings{
					BaseURL: "http://localhost:3000",
					Headers: map[string]string{"Accept": "application/json"},
				},
				Threads:       4,
				Connections:   100,
				Duration:      30,
				Timeout:       5,
				Latency:       true,
				ExecutionMode: config.ModeParallel,
				Tests: []config.WeightedTest{
					{Name: "health", Request: config.RequestSpec{Method: "GET", URL: "/health"}, Weight: 20},
					{Name: "list", Request: config.RequestSpec{Method: "GET", URL: "/api/test"}, Weight: 60},
					{
						Name: "create",
						Request: config.RequestSpec{
							Method:  "POST",
							URL:     "/api/test",
							Headers: map[string]string{"Content-Type": "application/json"},
							Body:    map[string]interface{}{"name": "thunderbench", "value": 42},
						},
						Weight: 20,
					},
				},
			},
			{
				Name:          "sequential",
				HTTP:          config.HTTPSettings{BaseURL: "http://localhost:3000"},
				Threads:       1,
				Connections:   10,
				Duration:      10,
				Timeout:       5,
				ExecutionMode: config.ModeSerial,
				Tests: []config.WeightedTest{
					{Name: "root", Request: config.RequestSpec{Method: "GET", URL: "/"}, Weight: 1},
				},
			},
		},
	}
}

func exampleComparison() *config.ComparisonConfig {
	server := func(name, script string, port int) config.ServerConfig {
		return config.ServerConfig{
			Name:            name,
			Command:         "node",
			Args:            []string{script},
			Env:             map[string]string{"NODE_ENV": "production"},
			Port:            port,
			HealthCheckPath: "/health",
			StartupTimeout:  10000,
			WarmupRequests:  100,
		}
	}

	return &config.ComparisonConfig{
		Version: config.SchemaVersion,
		Servers: []config.ServerConfig{
			server("express", "servers/express.js", 3001),
			server("fastify", "servers/fastify.js", 3002),
		},
		TestConfig: config.ComparisonTestConfig{
			Name:        "Framework Comparison",
			Description: "Hello world and JSON endpoints",
			Threads:     4,
			Connections: 100,
			Duration:    30,
			Timeout:     5,
			Scenarios: []config.Scenario{
				{Name: "hello", Method: "GET", Path: "/", Weight: 50},
				{Name: "json", Method: "GET", Path: "/api/test", Weight: 30},
				{Name: "create", Method: "POST", Path: "/api/test", Body: map[string]interface{}{"name": "thunderbench"}, Weight: 20},
			},
		},
	}
}

func init() {
	createConfigCmd.Flags().String("type", "single", "Configuration type: single or comparison")
	createConfigCmd.Flags().String("dir", ".", "Directory to write the file to")
}
