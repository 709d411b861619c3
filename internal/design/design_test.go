package design

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
)

func parseVirtual(t *testing.T, name, content string) (*Design, *diag.Bag, *source.FileSet, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(content))
	bag := diag.NewBag(50)
	d, err := Parse(fs, id, diag.BagReporter{Bag: bag})
	return d, bag, fs, err
}

// textAt returns the file text covered by sp.
func textAt(fs *source.FileSet, sp source.Span) string {
	return string(fs.Get(sp.File).Content[sp.Start:sp.End])
}

func TestLoadTOML(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(50)
	d, err := Load(fs, filepath.Join("testdata", "basic.toml"), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	require.Zero(t, bag.Len(), "unexpected diagnostics: %+v", bag.Items())

	require.Equal(t, DialectSV, d.Dialect)
	require.Len(t, d.Modules, 1)
	m := d.Modules[0]
	require.Equal(t, "fifo", m.Name.Name)
	require.Equal(t, "fifo", textAt(fs, m.Name.Span))
	require.Equal(t, []ParamKind{ParamType, ParamValue}, []ParamKind{m.Params[0].Kind, m.Params[1].Kind})
	require.Equal(t, "DEPTH", textAt(fs, m.Params[1].Name.Span))

	require.Len(t, d.Packages, 1)
	decl := d.Packages[0].Decls[0]
	require.Equal(t, DeclEnum, decl.Kind)
	require.Len(t, decl.Variants, 2)
	require.Equal(t, "GREEN", textAt(fs, decl.Variants[1].Span))

	require.Len(t, d.Units, 1)
	imps := d.Units[0].Imports
	require.Len(t, imps, 2)
	require.True(t, imps[0].Wildcard)
	require.Equal(t, "colors", textAt(fs, imps[0].Package.Span))
	require.False(t, imps[1].Wildcard)
	require.Equal(t, "color_t", textAt(fs, imps[1].Member.Span))

	require.Len(t, d.Instances, 1)
	inst := d.Instances[0]
	require.Equal(t, "fifo", inst.Module.Name)
	require.Equal(t, "fifo", textAt(fs, inst.Module.Span))
	require.Greater(t, inst.Module.Span.Start, m.Name.Span.Start, "instance module must point into the instance block")
	require.Equal(t, "byte", inst.Pos[0].Text)
	require.Len(t, inst.Named, 1)
	require.Equal(t, "16", inst.Named[0].Value.Text)
	require.Equal(t, "16", textAt(fs, inst.Named[0].Value.Span))
	require.True(t, inst.Named[0].Span.Contains(inst.Named[0].Param.Span))
}

func TestLoadYAML(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(50)
	d, err := Load(fs, filepath.Join("testdata", "basic.yaml"), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	require.Zero(t, bag.Len(), "unexpected diagnostics: %+v", bag.Items())

	require.Equal(t, DialectVHDL, d.Dialect)
	require.Equal(t, source.FoldCase, d.Dialect.Folding())
	require.Len(t, d.Modules, 1)
	require.Equal(t, "ram", textAt(fs, d.Modules[0].Name.Span))
	require.Equal(t, ParamType, d.Modules[0].Params[1].Kind)
	require.Equal(t, "Elem", textAt(fs, d.Modules[0].Params[1].Name.Span))

	inst := d.Instances[0]
	require.Equal(t, "RAM", inst.Module.Name)
	require.Equal(t, "bit", textAt(fs, inst.Pos[0].Span), "quoted scalars skip the quote")
	require.Equal(t, "8", inst.Named[0].Value.Text)
	require.Equal(t, "WIDTH", textAt(fs, inst.Named[0].Param.Span))
}

func TestParseReportsMalformedEntries(t *testing.T) {
	d, bag, _, err := parseVirtual(t, "bad.toml", `
[[module]]
params = [{ name = "A" }]

[[module]]
name = "m"
params = [{ name = "A", kind = "signal" }]

[[unit]]
name = "u"
imports = ["nocolons"]

[[instance]]
name = "i"
module = "ok"
`)
	require.NoError(t, err)
	require.Empty(t, d.Modules)
	require.Empty(t, d.Units)
	require.Len(t, d.Instances, 1)

	var codes []diag.Code
	for _, it := range bag.Items() {
		codes = append(codes, it.Code)
	}
	require.Equal(t, []diag.Code{diag.CfgMissingField, diag.CfgBadKind, diag.CfgParseError}, codes)
	require.Contains(t, bag.Items()[0].Message, "module #1 is missing `name`")
	require.Contains(t, bag.Items()[1].Message, "unknown parameter kind `signal`")
}

func TestParseSyntaxError(t *testing.T) {
	_, bag, fs, err := parseVirtual(t, "broken.toml", "[[module]]\nname = \n")
	require.ErrorIs(t, err, ErrInvalid)
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	require.Equal(t, diag.CfgParseError, d.Code)
	start, _ := fs.Resolve(d.Primary)
	require.GreaterOrEqual(t, start.Line, uint32(2))

	_, bag, _, err = parseVirtual(t, "broken.yaml", "modules:\n  - name: [unclosed\n")
	require.ErrorIs(t, err, ErrInvalid)
	require.Equal(t, diag.CfgParseError, bag.Items()[0].Code)
}

func TestParseUnknownYAMLField(t *testing.T) {
	_, bag, _, err := parseVirtual(t, "extra.yaml", "modules:\n  - name: m\n    ports: 3\n")
	require.ErrorIs(t, err, ErrInvalid)
	require.True(t, strings.Contains(bag.Items()[0].Message, "ports"))
}

func TestParseBadDialect(t *testing.T) {
	d, bag, _, err := parseVirtual(t, "d.toml", "dialect = \"verilog-ams\"\n[[module]]\nname = \"m\"\n")
	require.NoError(t, err)
	require.Len(t, d.Modules, 1)
	require.Equal(t, diag.CfgBadKind, bag.Items()[0].Code)
}

func TestParseUnsupported(t *testing.T) {
	_, _, _, err := parseVirtual(t, "design.json", "{}")
	require.True(t, errors.Is(err, ErrUnsupported))
}

func TestCollect(t *testing.T) {
	paths, err := Collect(filepath.Join("testdata", "dir"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join("testdata", "dir", "a.toml"),
		filepath.Join("testdata", "dir", "nested", "b.yml"),
	}, paths)

	single, err := Collect(filepath.Join("testdata", "basic.toml"))
	require.NoError(t, err)
	require.Len(t, single, 1)

	_, err = Collect(filepath.Join("testdata", "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
