package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hdlelab/internal/driver"
	"hdlelab/internal/paramenv"
)

func newEnvsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envs <file|dir>...",
		Short: "Print resolved parameter environments",
		Long: `Envs elaborates design descriptions and prints the parameter environment
of every instance followed by the interned environment table.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEnvs,
	}
	addElaborateFlags(cmd)
	cmd.Flags().String("emit", "", "write the environment table snapshot (msgpack) to file")
	return cmd
}

func runEnvs(cmd *cobra.Command, args []string) error {
	emit, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}

	res, err := runElaborate(cmd, args)
	if err != nil {
		return err
	}
	if res.Bag.Len() > 0 {
		if err := printDiagnostics(cmd.ErrOrStderr(), res.Bag, res.FileSet, "short", false); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	writeEnvs(out, res)

	if emit != "" {
		if err := res.WriteSnapshot(emit); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Fprintf(out, "snapshot written to %s\n", emit)
	}
	if res.Bag.HasErrors() {
		return errHasErrors
	}
	return nil
}

// writeEnvs prints instances, then the table in handle order.
func writeEnvs(w io.Writer, res *driver.Result) {
	fmt.Fprintln(w, "instances:")
	for _, inst := range res.Instances {
		if !inst.Env.IsValid() {
			fmt.Fprintf(w, "  %s: %s (unresolved)\n", inst.Name, inst.Module)
			continue
		}
		fmt.Fprintf(w, "  %s: %s %s [env %d]\n", inst.Name, inst.Module, res.DescribeEnv(inst.Env), inst.Env)
	}

	fmt.Fprintln(w, "envs:")
	for i := range res.Session.Envs().Snapshot() {
		env := paramenv.ParamEnv(i + 1) // #nosec G115 -- table length is bounded by uint32 handles
		fmt.Fprintf(w, "  %d: %s\n", env, res.DescribeEnv(env))
	}
}
