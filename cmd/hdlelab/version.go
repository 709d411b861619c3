package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"hdlelab/internal/version"
)

type versionJSON struct {
	Tag       string `json:"tag"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show hdlelab version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		fmt.Fprintln(out, version.Info())
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(versionJSON{Tag: version.Version, Commit: version.GitCommit, BuildDate: version.BuildDate})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
