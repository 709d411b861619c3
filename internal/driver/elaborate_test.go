package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hdlelab/internal/diag"
	"hdlelab/internal/paramenv"
	"hdlelab/internal/scope"
	"hdlelab/internal/session"
)

func elaborate(t *testing.T, opts Options, files ...string) *Result {
	t.Helper()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join("testdata", f)
	}
	res, err := Elaborate(context.Background(), paths, opts)
	require.NoError(t, err)
	return res
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func instance(t *testing.T, res *Result, name string) InstanceResult {
	t.Helper()
	for _, inst := range res.Instances {
		if inst.Name == name {
			return inst
		}
	}
	t.Fatalf("instance %s not found", name)
	return InstanceResult{}
}

func TestElaborateSharesEnvironments(t *testing.T) {
	res := elaborate(t, Options{Jobs: 4}, "soc.toml")
	require.Empty(t, res.Bag.Items())

	a := instance(t, res, "u_fifo_a")
	b := instance(t, res, "u_fifo_b")
	c := instance(t, res, "u_fifo_c")
	require.NoError(t, a.Err)
	require.NotEqual(t, paramenv.NoParamEnv, a.Env)
	require.Equal(t, a.Env, b.Env, "positional and named spellings must share one environment")
	require.NotEqual(t, a.Env, c.Env)

	require.Equal(t, "#(type T = byte, DEPTH = 16)", res.DescribeEnv(a.Env))
	require.Equal(t, "#(BAUD = 115200)", res.DescribeEnv(instance(t, res, "u_uart").Env))
}

func TestElaboratePopulatesScopes(t *testing.T) {
	res := elaborate(t, Options{}, "soc.toml")
	strs := res.Session.Strings()
	tree := res.Scopes

	require.Len(t, res.Packages, 1)
	pkg := res.Packages[0].Scope
	require.Equal(t, res.Root, tree.Parent(pkg))

	rootDefs := tree.Defs(res.Root, strs.Intern("colors"))
	require.Len(t, rootDefs, 1)
	require.Equal(t, scope.DefPackage, rootDefs[0].Def.Kind)

	// RED is a variant of two enums and accumulates
	red := strs.Intern("RED")
	require.Len(t, tree.Defs(pkg, red), 2)

	require.Len(t, res.Units, 1)
	top := res.Units[0].Scope
	require.Equal(t, []scope.ScopeID{pkg}, tree.ImportedScopes(top))
	require.Len(t, tree.ImportedDefs(top, red), 2)
	require.Len(t, tree.Defs(top, strs.Intern("state_t")), 1)
	require.NoError(t, tree.Validate())
}

func TestElaborateReportsUserErrors(t *testing.T) {
	res := elaborate(t, Options{}, "errors.toml")

	require.Equal(t, []diag.Code{
		diag.ScopeDuplicateDef,
		diag.ScopeUnknownPackage,
		diag.ScopeUnknownMember,
		diag.ElabTooManyArgs,
		diag.ElabUnknownParam,
		diag.ElabUnknownModule,
	}, codes(res.Bag))

	for _, inst := range res.Instances {
		require.ErrorIs(t, inst.Err, paramenv.ErrUnresolved, inst.Name)
		require.Equal(t, paramenv.NoParamEnv, inst.Env)
	}
	items := res.Bag.Items()
	require.Equal(t, "module `pair` only has 2 parameter(s)", items[3].Message)
	require.Equal(t, "declared parameters are `A`, `B`", items[4].Notes[0].Msg)
}

func TestElaborateDeterministicAcrossJobs(t *testing.T) {
	serial := elaborate(t, Options{Jobs: 1}, "errors.toml", "soc.toml")
	parallel := elaborate(t, Options{Jobs: 16}, "errors.toml", "soc.toml")

	require.Equal(t, serial.Bag.Items(), parallel.Bag.Items())
	require.Len(t, parallel.Instances, len(serial.Instances))
	for i := range serial.Instances {
		require.Equal(t, serial.Instances[i].Name, parallel.Instances[i].Name)
		require.Equal(t, serial.Instances[i].Env, parallel.Instances[i].Env)
		require.Equal(t, serial.DescribeEnv(serial.Instances[i].Env), parallel.DescribeEnv(parallel.Instances[i].Env))
	}
	require.Equal(t, serial.Session.Envs().Snapshot(), parallel.Session.Envs().Snapshot())
}

// manyInstances writes a design with n instances of a one-parameter module,
// every third one repeating an earlier argument.
func manyInstances(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("[[module]]\nname = \"m\"\nparams = [{ name = \"N\" }]\n")
	for i := range n {
		arg := i
		if i%3 == 2 {
			arg = i - 2
		}
		fmt.Fprintf(&b, "\n[[instance]]\nname = \"u%d\"\nmodule = \"m\"\npos = [\"%d\"]\n", i, arg)
	}
	path := filepath.Join(t.TempDir(), "many.toml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestElaborateHandlesFollowInstanceOrder(t *testing.T) {
	path := manyInstances(t, 64)
	run := func(jobs int) *Result {
		res, err := Elaborate(context.Background(), []string{path}, Options{Jobs: jobs})
		require.NoError(t, err)
		require.Empty(t, res.Bag.Items())
		return res
	}
	serial := run(1)

	// handle 1 is the empty environment, then one per distinct argument
	next := paramenv.EmptyParamEnv
	for i, inst := range serial.Instances {
		if i%3 == 2 {
			require.Equal(t, serial.Instances[i-2].Env, inst.Env, inst.Name)
			continue
		}
		next++
		require.Equal(t, next, inst.Env, inst.Name)
	}

	for range 10 {
		parallel := run(8)
		for i := range serial.Instances {
			require.Equal(t, serial.Instances[i].Env, parallel.Instances[i].Env, serial.Instances[i].Name)
		}
		require.Equal(t, serial.Session.Envs().Snapshot(), parallel.Session.Envs().Snapshot())
		require.Equal(t, serial.Snapshot(), parallel.Snapshot())
	}
}

func TestElaborateFoldsVHDLNames(t *testing.T) {
	res := elaborate(t, Options{}, "vhdl.yaml")
	require.Empty(t, res.Bag.Items())
	u0 := instance(t, res, "u0")
	u1 := instance(t, res, "u1")
	require.NoError(t, u0.Err)
	require.Equal(t, u0.Env, u1.Env)
	require.Equal(t, "#(Width = 8)", res.DescribeEnv(u0.Env))
}

func TestElaborateDialectMismatch(t *testing.T) {
	res := elaborate(t, Options{}, "soc.toml", "vhdl.yaml")
	require.Equal(t, []diag.Code{diag.CfgBadKind}, codes(res.Bag))
	require.Len(t, res.Designs, 1)
}

func TestElaborateMissingFile(t *testing.T) {
	res := elaborate(t, Options{}, "nope.toml", "soc.toml")
	require.Equal(t, []diag.Code{diag.IOLoadFileError}, codes(res.Bag))
	require.Len(t, res.Instances, 4)
}

func TestElaborateRepeatedPaths(t *testing.T) {
	res := elaborate(t, Options{}, "soc.toml", "./soc.toml", "nope.toml", "nope.toml")
	require.Equal(t, []diag.Code{diag.CfgDuplicateEntity, diag.IOLoadFileError}, codes(res.Bag))
	require.Equal(t, diag.SevWarning, res.Bag.Items()[0].Severity)
	require.Len(t, res.Designs, 1)
	require.Len(t, res.Instances, 4)
}

func TestElaborateStdin(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "vhdl.yaml"))
	require.NoError(t, err)
	res, err := Elaborate(context.Background(), []string{StdinPath},
		Options{Stdin: strings.NewReader(string(data)), StdinFormat: "yaml"})
	require.NoError(t, err)
	require.Empty(t, res.Bag.Items())
	require.Equal(t, "#(Width = 8)", res.DescribeEnv(instance(t, res, "u0").Env))

	res, err = Elaborate(context.Background(), []string{StdinPath}, Options{})
	require.NoError(t, err)
	require.Equal(t, []diag.Code{diag.IOLoadFileError}, codes(res.Bag))
}

func TestElaborateVerboseNamesAndTimings(t *testing.T) {
	res := elaborate(t, Options{Verbosity: session.VerbosityNames, Timings: true}, "soc.toml")
	var defines, timings int
	for _, d := range res.Bag.Items() {
		switch d.Code {
		case diag.ScopeDefineTrace:
			defines++
		case diag.ObsTimings:
			timings++
		}
	}
	// colors, color_t, RED, GREEN, shade_t, RED, DARK, state_t
	require.Equal(t, 8, defines)
	require.Equal(t, 1, timings)
	require.False(t, res.Bag.HasErrors())
}

func TestElaborateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Elaborate(ctx, []string{filepath.Join("testdata", "soc.toml")}, Options{})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestElaborateNotifiesPhases(t *testing.T) {
	var events []string
	opts := Options{Jobs: 1, Observer: func(ev PhaseEvent) {
		events = append(events, ev.Name+":"+ev.Status.String())
	}}
	elaborate(t, opts, "soc.toml")
	require.Equal(t, []string{
		"load:start", "load:end",
		"declare:start", "declare:end",
		"scopes:start", "scopes:end",
		"params:start", "params:end",
	}, events)
}
