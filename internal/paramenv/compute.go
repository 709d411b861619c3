package paramenv

import (
	"errors"
	"fmt"
	"strings"

	"hdlelab/internal/diag"
	"hdlelab/internal/hir"
	"hdlelab/internal/source"
)

// ErrUnresolved is returned when at least one argument could not be bound.
// The details were already reported through the context's reporter.
var ErrUnresolved = errors.New("parameter environment unresolved")

// Context is the slice of the compilation context Compute needs.
type Context interface {
	// HIROf returns the lowered form of a module reference.
	HIROf(id hir.NodeID) (hir.Node, error)
	// ASTOf returns the declaration behind a parameter reference.
	ASTOf(id hir.NodeID) (hir.Node, error)
	Strings() *source.Interner
	Reporter() diag.Reporter
	InternParamEnv(d Data) ParamEnv
}

// sited is a binding plus the argument span that produced it.
type sited struct {
	Binding
	span source.Span
}

// Compute binds the arguments of src to the parameters they name and returns
// the interned environment.
//
// Every bad argument is reported before Compute gives up, so one call surfaces
// all of an instantiation's mistakes. Errors from the context's lookups are
// returned as-is without a diagnostic.
func Compute(cx Context, src Source) (ParamEnv, error) {
	switch s := src.(type) {
	case ModuleInst:
		return computeModuleInst(cx, &s)
	case *ModuleInst:
		return computeModuleInst(cx, s)
	default:
		panic(fmt.Errorf("paramenv: unsupported source %T", src))
	}
}

func computeModuleInst(cx Context, inst *ModuleInst) (ParamEnv, error) {
	module, err := cx.HIROf(inst.Module)
	if err != nil {
		return NoParamEnv, err
	}
	if module.Kind != hir.KindModule {
		panic(fmt.Errorf("paramenv: instantiated node %d is a %s, not a module", inst.Module, module.Kind))
	}

	r := cx.Reporter()
	strs := cx.Strings()
	desc := describeModule(strs, module)
	failed := false
	bindings := make([]sited, 0, len(inst.Pos)+len(inst.Named))

	for i, arg := range inst.Pos {
		if i >= len(module.Children) {
			diag.ReportError(r, diag.ElabTooManyArgs, arg.Span,
				fmt.Sprintf("%s only has %d parameter(s)", desc, len(module.Children))).
				WithNote(module.Span, "module declared here").
				Emit()
			failed = true
			continue
		}
		bindings = append(bindings, sited{Binding{Param: module.Children[i], Arg: arg.Arg}, arg.Span})
	}

	if len(inst.Named) > 0 {
		declared, err := declaredParams(cx, module)
		if err != nil {
			return NoParamEnv, err
		}
		for _, arg := range inst.Named {
			param, ok := findParam(declared, arg.Name)
			if !ok {
				diag.ReportError(r, diag.ElabUnknownParam, arg.nameSpan(),
					fmt.Sprintf("no parameter `%s` in %s", lookupName(strs, arg.Name), desc)).
					WithNote(module.Span, declaredNote(strs, declared)).
					Emit()
				failed = true
				continue
			}
			bindings = append(bindings, sited{Binding{Param: param, Arg: arg.Arg}, arg.Span})
		}
	}

	if reportDuplicates(cx, bindings) {
		failed = true
	}
	if failed {
		return NoParamEnv, ErrUnresolved
	}

	var data Data
	for _, b := range bindings {
		param, err := cx.ASTOf(b.Param)
		if err != nil {
			return NoParamEnv, err
		}
		switch param.Kind {
		case hir.KindTypeParam:
			data.Types = append(data.Types, b.Binding)
		case hir.KindValueParam:
			data.Values = append(data.Values, b.Binding)
		default:
			panic(fmt.Errorf("paramenv: module parameter %d is a %s", b.Param, param.Kind))
		}
	}
	return cx.InternParamEnv(data), nil
}

func (a NamedArg) nameSpan() source.Span {
	if a.NameSpan == (source.Span{}) {
		return a.Span
	}
	return a.NameSpan
}

type namedParam struct {
	name source.StringID
	id   hir.NodeID
}

// declaredParams lists the module's parameters in declaration order.
func declaredParams(cx Context, module hir.Node) ([]namedParam, error) {
	out := make([]namedParam, 0, len(module.Children))
	for _, id := range module.Children {
		param, err := cx.ASTOf(id)
		if err != nil {
			return nil, err
		}
		out = append(out, namedParam{name: param.Name, id: id})
	}
	return out, nil
}

func findParam(declared []namedParam, name source.StringID) (hir.NodeID, bool) {
	for _, p := range declared {
		if p.name == name {
			return p.id, true
		}
	}
	return hir.NoNodeID, false
}

// reportDuplicates flags parameters bound by more than one argument. The
// later argument carries the error, the earlier one a note.
func reportDuplicates(cx Context, bindings []sited) bool {
	if len(bindings) < 2 {
		return false
	}
	first := make(map[hir.NodeID]source.Span, len(bindings))
	found := false
	for _, b := range bindings {
		prev, ok := first[b.Param]
		if !ok {
			first[b.Param] = b.span
			continue
		}
		name := "parameter"
		if param, err := cx.ASTOf(b.Param); err == nil {
			name = fmt.Sprintf("parameter `%s`", lookupName(cx.Strings(), param.Name))
		}
		diag.ReportError(cx.Reporter(), diag.ElabDuplicateBinding, b.span,
			name+" bound more than once").
			WithNote(prev, "first bound here").
			Emit()
		found = true
	}
	return found
}

func describeModule(strs *source.Interner, module hir.Node) string {
	return fmt.Sprintf("module `%s`", lookupName(strs, module.Name))
}

func declaredNote(strs *source.Interner, declared []namedParam) string {
	if len(declared) == 0 {
		return "the module declares no parameters"
	}
	names := make([]string, len(declared))
	for i, p := range declared {
		names[i] = "`" + lookupName(strs, p.name) + "`"
	}
	return "declared parameters are " + strings.Join(names, ", ")
}

func lookupName(strs *source.Interner, id source.StringID) string {
	if strs == nil {
		return "?"
	}
	if s, ok := strs.Lookup(id); ok {
		return s
	}
	return "?"
}
