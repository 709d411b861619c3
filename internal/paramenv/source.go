package paramenv

import (
	"hdlelab/internal/hir"
	"hdlelab/internal/source"
)

// Source describes a location that implies a parameter environment.
// The set of implementations is closed.
type Source interface {
	isSource()
}

// PosArg is a positional argument `#(A, 4)`.
type PosArg struct {
	Span source.Span
	Arg  hir.NodeID
}

// NamedArg is a named argument `#(.WIDTH(8))`.
// NameSpan covers just `WIDTH`; when zero, diagnostics about the name fall
// back to Span.
type NamedArg struct {
	Span     source.Span
	NameSpan source.Span
	Name     source.StringID
	Arg      hir.NodeID
}

// ModuleInst is a module instantiation site.
type ModuleInst struct {
	Module hir.NodeID
	Pos    []PosArg
	Named  []NamedArg
}

func (ModuleInst) isSource() {}
