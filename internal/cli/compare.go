package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/thunderbench/internal/orchestrator"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare server implementations under the same workload",
	Long: `Start each server from a comparison configuration in turn, run the shared
workload against it and write a ranked report.

Example:
  thunderbench compare --config comparison.config.yaml --format markdown,json,html`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		outputDir, _ := cmd.Flags().GetString("output")
		verbose, _ := cmd.Flags().GetBool("verbose")
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		formats, _ := cmd.Flags().GetString("format")

		ctx, cancel := signalContext(cmd)
		defer cancel()

		console := newConsole(cmd)
		console.Banner("Thunderbench comparison")
		orch := newOrchestrator(newLogger(cmd.ErrOrStderr(), verbose), console)

		_, err := orch.Compare(ctx, orchestrator.CompareOptions{
			ConfigPath: configFile,
			OutputDir:  outputDir,
			Verbose:    verbose,
			NoProgress: noProgress,
			Formats:    orchestrator.ParseFormats(formats),
		})
		return err
	},
}

func init() {
	compareCmd.Flags().StringP("config", "c", "./comparison.config.yaml", "Comparison configuration file")
	compareCmd.Flags().StringP("output", "o", "./comparison-reports", "Directory for comparison reports")
	compareCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	compareCmd.Flags().Bool("no-progress", false, "Disable live progress")
	compareCmd.Flags().StringP("format", "f", "markdown,json", "Comma-separated report formats (markdown, json, html)")
}
