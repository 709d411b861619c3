// Package session provides the compilation context shared by the
// elaboration passes: node store, identifier interner, diagnostics sink,
// parameter-environment table, verbosity flags and tracer.
package session

import (
	"fmt"

	"hdlelab/internal/diag"
	"hdlelab/internal/hir"
	"hdlelab/internal/paramenv"
	"hdlelab/internal/source"
	"hdlelab/internal/trace"
)

// Verbosity is a set of opt-in informational outputs.
type Verbosity uint8

const (
	// VerbosityNames reports every definition entered into a scope.
	VerbosityNames Verbosity = 1 << iota
)

// Has reports whether all bits of flag are set.
func (v Verbosity) Has(flag Verbosity) bool { return v&flag == flag }

// Options configures a new Session.
type Options struct {
	Folding   source.Folding
	Verbosity Verbosity
	Reporter  diag.Reporter
	Tracer    trace.Tracer
}

// Session is a compilation context. The node store, interner and
// environment table are shared by every copy made with WithReporter.
type Session struct {
	store     *hir.Store
	strings   *source.Interner
	envs      *paramenv.Table
	verbosity Verbosity
	reporter  diag.Reporter
	tracer    trace.Tracer
}

// New creates a session with empty tables.
func New(opts Options) *Session {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	return &Session{
		store:     hir.NewStore(0),
		strings:   source.NewFoldingInterner(opts.Folding),
		envs:      paramenv.NewTable(),
		verbosity: opts.Verbosity,
		reporter:  opts.Reporter,
		tracer:    opts.Tracer,
	}
}

// WithReporter returns a copy sharing all tables but reporting to r.
// Goroutines resolving instances in parallel each take their own copy.
func (s *Session) WithReporter(r diag.Reporter) *Session {
	cp := *s
	cp.reporter = r
	return &cp
}

// Store returns the node store holding modules, parameters, declarations and
// argument nodes.
func (s *Session) Store() *hir.Store { return s.store }

// Strings returns the identifier interner; its folding follows the dialect.
func (s *Session) Strings() *source.Interner { return s.strings }

// Envs returns the parameter environment table.
func (s *Session) Envs() *paramenv.Table { return s.envs }

// Reporter returns where this copy of the session reports diagnostics.
func (s *Session) Reporter() diag.Reporter { return s.reporter }

// Tracer returns the tracer; never nil.
func (s *Session) Tracer() trace.Tracer { return s.tracer }

// Verbosity returns the enabled informational outputs.
func (s *Session) Verbosity() Verbosity { return s.verbosity }

// VerboseNames reports whether every scope definition gets an info note.
func (s *Session) VerboseNames() bool { return s.verbosity.Has(VerbosityNames) }

// HIROf returns the stored node for id.
func (s *Session) HIROf(id hir.NodeID) (hir.Node, error) {
	return s.store.Node(id)
}

// ASTOf returns the declaration behind id. Parameters are stored as
// declarations, so this reads the same store as HIROf.
func (s *Session) ASTOf(id hir.NodeID) (hir.Node, error) {
	n, err := s.store.Node(id)
	if err != nil {
		return hir.Node{}, fmt.Errorf("declaration lookup: %w", err)
	}
	return n, nil
}

// InternParamEnv interns d in the session's environment table.
func (s *Session) InternParamEnv(d paramenv.Data) paramenv.ParamEnv {
	return s.envs.Intern(d)
}

// Name returns the display spelling of id.
func (s *Session) Name(id source.StringID) string {
	if name, ok := s.strings.Lookup(id); ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
