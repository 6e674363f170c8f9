package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/thunderbench/internal/orchestrator"
	"github.com/wesleyorama2/thunderbench/internal/output"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "thunderbench",
	Short:   "HTTP load testing and server comparison",
	Version: version,
	Long: `Thunderbench runs weighted HTTP load tests described in a configuration
file and compares competing server implementations under the same workload.

Running thunderbench without a subcommand is the same as "thunderbench run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newOrchestrator builds the orchestrator used by the commands.
var newOrchestrator = func(logger zerolog.Logger, console *output.Console) *orchestrator.Orchestrator {
	return orchestrator.New(logger, console)
}

// Execute runs the root command with the process arguments. Any error is
// printed once to stderr and returned.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	RootCmd.SetArgs(withDefaultCommand(args))
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(RootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// withDefaultCommand routes arguments that name no subcommand to run, so
// "thunderbench --concurrent 50" behaves like "thunderbench run --concurrent 50".
func withDefaultCommand(args []string) []string {
	if len(args) == 0 {
		return []string{runCmd.Name()}
	}

	switch first := args[0]; {
	case first == "-h", first == "--help", first == "--version":
		return args
	case strings.HasPrefix(first, "-"):
		return append([]string{runCmd.Name()}, args...)
	default:
		return args
	}
}

// newLogger returns the diagnostic logger. It writes human-readable lines
// to w at info level, or debug level when verbose.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    !output.IsTerminal(w),
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// newConsole creates the operator console for a command.
func newConsole(cmd *cobra.Command) *output.Console {
	var options []output.ConsoleOption
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		options = append(options, output.WithNoColor())
	}
	return output.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr(), options...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	RootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(compareCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(createConfigCmd)
}
