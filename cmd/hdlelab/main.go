package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hdlelab/internal/trace"
	"hdlelab/internal/version"
)

// newRootCmd assembles the command tree. Each call returns fresh flag state.
// The returned cleanup flushes the tracer and must run after Execute, which
// skips post-run hooks when a command fails.
func newRootCmd() (rootCmd *cobra.Command, cleanup func()) {
	var tracer trace.Tracer = trace.Nop
	rootCmd = &cobra.Command{
		Use:           "hdlelab",
		Short:         "HDL elaboration checker",
		Long:          `hdlelab resolves module parameter environments and declaration scopes of HDL design descriptions`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupColor(cmd); err != nil {
				return err
			}
			t, err := setupTracing(cmd)
			if err != nil {
				return err
			}
			tracer = t
			return nil
		},
	}

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newEnvsCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr, *.ndjson for JSON lines)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	cleanup = func() { closeTracing(rootCmd, tracer) }
	return rootCmd, cleanup
}

// main executes the root command and exits with status 1 on any error,
// including designs that failed to elaborate.
func main() {
	rootCmd, cleanup := newRootCmd()
	err := rootCmd.Execute()
	cleanup()
	if err != nil {
		if !errors.Is(err, errHasErrors) {
			rootCmd.PrintErrln("error:", err)
		}
		os.Exit(1)
	}
}

// setupColor resolves --color and applies it process-wide.
func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("unknown color mode %q (auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- fd fits in int
}
