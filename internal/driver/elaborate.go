package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"hdlelab/internal/design"
	"hdlelab/internal/diag"
	"hdlelab/internal/hir"
	"hdlelab/internal/observ"
	"hdlelab/internal/paramenv"
	"hdlelab/internal/scope"
	"hdlelab/internal/session"
	"hdlelab/internal/source"
	"hdlelab/internal/trace"
)

// Options configures Elaborate.
type Options struct {
	// Jobs bounds parallel instance resolution; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	Verbosity      session.Verbosity
	// Timings appends an OBS6001 diagnostic with per-phase durations.
	Timings bool
	BaseDir string
	// Observer, if set, is notified at every phase boundary.
	Observer PhaseObserver
	// Stdin is read for the path "-", decoded as StdinFormat (toml by default).
	Stdin       io.Reader
	StdinFormat string
}

// StdinPath names standard input in Elaborate's path list.
const StdinPath = "-"

// InstanceResult is the outcome of resolving one instantiation.
type InstanceResult struct {
	Name   string
	Module string
	Span   source.Span
	// Env is NoParamEnv when resolution failed.
	Env paramenv.ParamEnv
	Err error
}

// UnitScope ties a package or unit name to its scope.
type UnitScope struct {
	Name  string
	Span  source.Span
	Scope scope.ScopeID
}

// Result holds everything an elaboration run produced.
type Result struct {
	FileSet   *source.FileSet
	Bag       *diag.Bag
	Session   *session.Session
	Dialect   design.Dialect
	Designs   []*design.Design
	Scopes    *scope.Tree
	Root      scope.ScopeID
	Packages  []UnitScope
	Units     []UnitScope
	Instances []InstanceResult
	Timing    observ.Report
}

// Elaborate loads the given design descriptions, declares their contents,
// populates the scope tree and resolves the parameter environment of every
// instance. User errors end up in Result.Bag; the returned error is reserved
// for infrastructure failures and cancellation.
func Elaborate(ctx context.Context, paths []string, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	runSpan := trace.Begin(tracer, trace.ScopeDriver, "elaborate", 0)
	defer runSpan.End("")

	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 100
	}
	res := &Result{
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(maxDiags),
	}
	if opts.BaseDir != "" {
		res.FileSet.SetBaseDir(opts.BaseDir)
	}
	// Sequential phases share one reporter; a missing file named twice is
	// reported once.
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	timer := observ.NewTimer()
	measure := func(name string, fn func() error) error {
		opts.Observer.notify(PhaseEvent{Name: name, Status: PhaseStart})
		start := time.Now()
		err := timer.Measure(name, fn)
		opts.Observer.notify(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
		return err
	}

	_ = measure("load", func() error {
		phase := trace.Begin(tracer, trace.ScopePass, "load", runSpan.ID())
		defer phase.End(fmt.Sprintf("%d files", len(paths)))
		res.load(paths, opts, reporter)
		return nil
	})

	res.Session = session.New(session.Options{
		Folding:   res.Dialect.Folding(),
		Verbosity: opts.Verbosity,
		Reporter:  reporter,
		Tracer:    tracer,
	})

	var decls *declarations
	_ = measure("declare", func() error {
		phase := trace.Begin(tracer, trace.ScopePass, "declare", runSpan.ID())
		defer phase.End("")
		decls = declare(res.Session, res.Designs)
		return nil
	})

	err := measure("scopes", func() error {
		phase := trace.Begin(tracer, trace.ScopePass, "scopes", runSpan.ID())
		defer phase.End("")
		res.populateScopes(decls)
		return res.Scopes.Validate()
	})
	if err != nil {
		return nil, fmt.Errorf("scope tree inconsistent: %w", err)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	err = measure("params", func() error {
		phase := trace.Begin(tracer, trace.ScopePass, "params", runSpan.ID())
		defer phase.End(fmt.Sprintf("%d instances", len(decls.instances)))
		return res.resolveInstances(trace.WithParent(ctx, phase.ID()), decls, jobs)
	})
	if err != nil {
		return nil, err
	}

	res.Timing = timer.Report()
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: "elaborate", TotalMS: res.Timing.TotalMS, Phases: res.Timing.Phases})
	}
	return res, nil
}

// load reads every description. Unreadable or undecodable files are
// reported and skipped so the remaining ones still elaborate.
func (res *Result) load(paths []string, opts Options, r diag.Reporter) {
	var first *design.Design
	for _, path := range paths {
		name := path
		if path == StdinPath {
			format := opts.StdinFormat
			if format == "" {
				format = "toml"
			}
			name = "stdin." + format
		}
		if _, seen := res.FileSet.GetLatest(name); seen {
			diag.ReportWarning(r, diag.CfgDuplicateEntity, source.Span{},
				fmt.Sprintf("design description %s listed more than once", name)).Emit()
			continue
		}

		var (
			d   *design.Design
			err error
		)
		switch {
		case path != StdinPath:
			d, err = design.Load(res.FileSet, path, r)
		case opts.Stdin == nil:
			err = errors.New("no standard input to read the design from")
		default:
			d, err = design.LoadReader(res.FileSet, name, opts.Stdin, r)
		}
		if err != nil {
			if !errors.Is(err, design.ErrInvalid) {
				diag.ReportError(r, diag.IOLoadFileError, source.Span{}, err.Error()).Emit()
			}
			continue
		}

		if first == nil {
			first = d
			res.Dialect = d.Dialect
		} else if d.Dialect != first.Dialect {
			diag.ReportError(r, diag.CfgBadKind, source.Span{File: d.File},
				fmt.Sprintf("dialect `%s` differs from `%s` used by %s", d.Dialect, first.Dialect, first.Path)).
				Emit()
			continue
		}
		res.Designs = append(res.Designs, d)
	}
}

// declarations indexes the node store built from the loaded designs.
type declarations struct {
	modules   map[source.StringID]hir.NodeID
	packages  []declaredPackage
	units     []declaredUnit
	instances []*design.Instance
}

type declaredUnit struct {
	unit  *design.Unit
	decls []declaredDecl
}

type declaredPackage struct {
	pkg   *design.Package
	node  hir.NodeID
	decls []declaredDecl
}

type declaredDecl struct {
	decl     *design.Decl
	node     hir.NodeID
	variants []hir.NodeID
}
