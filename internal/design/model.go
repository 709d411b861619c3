// Package design loads design descriptions: the modules, packages, units
// and instantiations a run elaborates. Descriptions are TOML or YAML files;
// every identifier keeps the span it was written at so later passes can
// point diagnostics into the description.
package design

import (
	"strings"

	"hdlelab/internal/source"
)

// Dialect selects identifier rules for a description.
type Dialect uint8

const (
	// DialectSV is SystemVerilog: identifiers are case-sensitive.
	DialectSV Dialect = iota
	// DialectVHDL folds identifier case.
	DialectVHDL
)

func (d Dialect) String() string {
	if d == DialectVHDL {
		return "vhdl"
	}
	return "sv"
}

// Folding maps the dialect to the interner policy.
func (d Dialect) Folding() source.Folding {
	if d == DialectVHDL {
		return source.FoldCase
	}
	return source.FoldNone
}

func parseDialect(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sv", "systemverilog", "verilog":
		return DialectSV, true
	case "vhdl":
		return DialectVHDL, true
	default:
		return DialectSV, false
	}
}

// Ident is a name together with where it was written.
type Ident struct {
	Name string
	Span source.Span
}

// ParamKind says whether a module parameter takes a type or a value.
type ParamKind uint8

const (
	ParamType ParamKind = iota
	ParamValue
)

func (k ParamKind) String() string {
	if k == ParamType {
		return "type"
	}
	return "value"
}

type Param struct {
	Name Ident
	Kind ParamKind
}

// Module is a parameterized module declaration. Params are in declaration
// order, which is the order positional arguments bind in.
type Module struct {
	Name   Ident
	Params []Param
}

// DeclKind classifies package and unit declarations.
type DeclKind uint8

const (
	DeclType DeclKind = iota
	DeclEnum          // declares the type and one name per variant
)

func (k DeclKind) String() string {
	if k == DeclEnum {
		return "enum"
	}
	return "type"
}

type Decl struct {
	Name     Ident
	Kind     DeclKind
	Variants []Ident
}

type Package struct {
	Name  Ident
	Decls []Decl
}

// Import is `pkg::name`, or `pkg::*` when Wildcard is set.
type Import struct {
	Span     source.Span
	Package  Ident
	Member   Ident
	Wildcard bool
}

// Unit is a compilation unit: a scope with its own declarations and imports.
type Unit struct {
	Name    Ident
	Imports []Import
	Decls   []Decl
}

// Arg is one instantiation argument as written.
type Arg struct {
	Text string
	Span source.Span
}

type NamedArg struct {
	Span  source.Span
	Param Ident
	Value Arg
}

// Instance instantiates Module with positional and named arguments.
type Instance struct {
	Name   Ident
	Module Ident
	Pos    []Arg
	Named  []NamedArg
}

// Design is one loaded description file.
type Design struct {
	File      source.FileID
	Path      string
	Dialect   Dialect
	Modules   []Module
	Packages  []Package
	Units     []Unit
	Instances []Instance
}
