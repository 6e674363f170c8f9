package cli

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a benchmark or comparison configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")

		orch := newOrchestrator(newLogger(cmd.ErrOrStderr(), verbose), newConsole(cmd))
		_, err := orch.Validate(configFile)
		return err
	},
}

func init() {
	validateCmd.Flags().StringP("config", "c", defaultConfigPath, "Configuration file")
	validateCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
}
