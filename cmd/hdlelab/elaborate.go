package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hdlelab/internal/design"
	"hdlelab/internal/driver"
	"hdlelab/internal/session"
)

// errHasErrors signals that elaboration produced error diagnostics; they
// have already been printed.
var errHasErrors = errors.New("elaboration failed")

// addElaborateFlags registers the flags shared by check and envs.
func addElaborateFlags(cmd *cobra.Command) {
	cmd.Flags().Int("jobs", 0, "max parallel instance resolutions (0=auto)")
	cmd.Flags().Bool("verbose-names", false, "report every definition entered into a scope")
	cmd.Flags().String("stdin-format", "toml", "format of a description read from - (toml|yaml)")
}

// runElaborate collects the design descriptions under args and elaborates them.
func runElaborate(cmd *cobra.Command, args []string) (*driver.Result, error) {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	verboseNames, err := cmd.Flags().GetBool("verbose-names")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose-names flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	stdinFormat, err := cmd.Flags().GetString("stdin-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin-format flag: %w", err)
	}
	if stdinFormat != "toml" && stdinFormat != "yaml" {
		return nil, fmt.Errorf("unknown stdin format: %s", stdinFormat)
	}

	var paths []string
	for _, arg := range args {
		if arg == driver.StdinPath {
			paths = append(paths, arg)
			continue
		}
		found, errCollect := design.Collect(arg)
		if errCollect != nil {
			return nil, errCollect
		}
		paths = append(paths, found...)
	}

	opts := driver.Options{
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Timings:        timings,
		Stdin:          cmd.InOrStdin(),
		StdinFormat:    stdinFormat,
	}
	if verboseNames {
		opts.Verbosity |= session.VerbosityNames
	}
	if wd, errWd := os.Getwd(); errWd == nil {
		opts.BaseDir = wd
	}
	return driver.Elaborate(cmd.Context(), paths, opts)
}
