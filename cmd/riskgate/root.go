package riskgate

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagJSON    bool
	flagVerbose bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the riskgate CLI.
var rootCmd = &cobra.Command{
	Use:           "riskgate",
	Short:         "Security scanning and risk-fusion gate for deployments",
	Long:          "riskgate scans a source tree with local rules and external engines, optionally applies a model-assisted policy review over redacted findings, and fuses everything into one deterministic deploy verdict.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the riskgate CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit the full JSON report to stdout")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.Version = version
}

// newLogger builds the CLI logger. Diagnostics go to stderr so stdout stays
// clean for the JSON report.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// discardLogger is used by tests exercising command helpers.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
