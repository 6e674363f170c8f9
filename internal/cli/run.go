package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/thunderbench/internal/config"
	"github.com/wesleyorama2/thunderbench/internal/orchestrator"
)

const (
	defaultConfigPath  = "./thunderbench.config.yaml"
	defaultTimeoutMs   = 30000
	defaultConcurrency = 10
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark configuration",
	Long: `Load a benchmark configuration, apply any overrides, validate it and run
every group against its target.

Examples:
  thunderbench run --config api.yaml
  thunderbench --concurrent 50 --timeout 2000
  thunderbench run --dry-run --config exec:./gen-config.sh`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")
		noReport, _ := cmd.Flags().GetBool("no-report")
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		outputDir, _ := cmd.Flags().GetString("output")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		cleanup, _ := cmd.Flags().GetBool("cleanup-wrk")

		overrides, err := overridesFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		console := newConsole(cmd)
		console.Banner("Thunderbench")
		orch := newOrchestrator(newLogger(cmd.ErrOrStderr(), verbose), console)

		_, err = orch.Run(ctx, orchestrator.RunOptions{
			ConfigPath:     configFile,
			OutputDir:      outputDir,
			Verbose:        verbose,
			NoReport:       noReport,
			NoProgress:     noProgress,
			CleanupScripts: cleanup,
			DryRun:         dryRun,
			Overrides:      overrides,
		})
		return err
	},
}

// overridesFromFlags returns the overrides the user actually supplied.
// A flag given with its default value is still an override.
func overridesFromFlags(cmd *cobra.Command) (config.Overrides, error) {
	var overrides config.Overrides

	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetInt("timeout")
		if timeout <= 0 {
			return overrides, fmt.Errorf("--timeout must be a positive number of milliseconds, got %d", timeout)
		}
		overrides.Timeout = &timeout
	}

	if cmd.Flags().Changed("concurrent") {
		concurrent, _ := cmd.Flags().GetInt("concurrent")
		if concurrent <= 0 {
			return overrides, fmt.Errorf("--concurrent must be a positive number, got %d", concurrent)
		}
		overrides.Concurrency = &concurrent
	}

	return overrides, nil
}

func init() {
	runCmd.Flags().StringP("config", "c", defaultConfigPath, "Configuration file, or exec:<program> to generate one")
	runCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	runCmd.Flags().Bool("no-report", false, "Do not write report files")
	runCmd.Flags().Bool("no-progress", false, "Disable live progress")
	runCmd.Flags().StringP("output", "o", "./reports", "Directory for reports and request plans")
	runCmd.Flags().IntP("timeout", "t", defaultTimeoutMs, "Request timeout in milliseconds for every group")
	runCmd.Flags().Int("concurrent", defaultConcurrency, "Connections for every group (threads follow)")
	runCmd.Flags().Bool("dry-run", false, "Validate the configuration without sending requests")
	runCmd.Flags().Bool("cleanup-wrk", false, "Remove generated request plans after the run")
}
