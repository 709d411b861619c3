package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hdlelab/internal/diag"
	"hdlelab/internal/diagfmt"
	"hdlelab/internal/source"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file|dir>...",
		Short: "Elaborate design descriptions and report diagnostics",
		Long: `Check loads design descriptions, populates the declaration scopes and
resolves the parameter environment of every instance. A path of - reads
one description from standard input.
Exits with status 1 when any error is reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}
	addElaborateFlags(cmd)
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if err = checkFormat(format); err != nil {
		return err
	}
	minSevStr, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, err := diag.ParseSeverity(minSevStr)
	if err != nil {
		return err
	}

	res, err := runElaborate(cmd, args)
	if err != nil {
		return err
	}
	failed := res.Bag.HasErrors()
	res.Bag.Filter(minSev)
	if err := printDiagnostics(cmd.OutOrStdout(), res.Bag, res.FileSet, format, withNotes); err != nil {
		return err
	}
	if failed {
		return errHasErrors
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "pretty", "short", "json":
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// printDiagnostics renders bag in the requested format.
func printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, format string, withNotes bool) error {
	bag.Sort()
	switch format {
	case "pretty":
		return diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			Context:   1,
			PathMode:  diagfmt.PathModeAuto,
			ShowNotes: withNotes,
		})
	case "short":
		return diagfmt.Short(w, bag, fs, withNotes)
	case "json":
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			IncludeNotes:     withNotes,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
