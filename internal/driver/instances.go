package driver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hdlelab/internal/design"
	"hdlelab/internal/diag"
	"hdlelab/internal/paramenv"
	"hdlelab/internal/session"
	"hdlelab/internal/trace"
)

// pendingInstance is one instantiation between preparation and interning.
type pendingInstance struct {
	inst *design.Instance
	bag  *diag.Bag
	// src is nil when the module is unknown.
	src  *paramenv.ModuleInst
	data paramenv.Data
	err  error
}

// deferredIntern records environment content instead of interning it.
type deferredIntern struct {
	*session.Session
	data paramenv.Data
}

func (c *deferredIntern) InternParamEnv(d paramenv.Data) paramenv.ParamEnv {
	c.data = d.Clone()
	return paramenv.EmptyParamEnv
}

// resolveInstances computes every instance's environment. Argument nodes and
// environment handles are allocated in instance order, so only binding runs
// in parallel and neither handles nor diagnostics depend on scheduling.
func (res *Result) resolveInstances(ctx context.Context, d *declarations, jobs int) error {
	res.Instances = make([]InstanceResult, len(d.instances))
	if len(d.instances) == 0 {
		return nil
	}
	parent := trace.ParentFromContext(ctx)

	pending := make([]pendingInstance, len(d.instances))
	for i, inst := range d.instances {
		pending[i] = res.prepareInstance(d, inst)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(pending)))
	for i := range pending {
		p := &pending[i]
		if p.src == nil {
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res.bindInstance(p, parent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sess := res.Session
	for i := range pending {
		p := &pending[i]
		out := InstanceResult{Name: p.inst.Name.Name, Module: p.inst.Module.Name, Span: p.inst.Name.Span}
		if p.err != nil {
			out.Err = fmt.Errorf("instance %s: %w", p.inst.Name.Name, p.err)
		} else {
			out.Env = sess.InternParamEnv(p.data)
		}
		res.Instances[i] = out
		res.Bag.Merge(p.bag)
	}
	return nil
}

// prepareInstance looks up the module and allocates argument nodes.
func (res *Result) prepareInstance(d *declarations, inst *design.Instance) pendingInstance {
	p := pendingInstance{inst: inst, bag: diag.NewBag(int(res.Bag.Cap()))}
	strs := res.Session.Strings()
	module, ok := d.modules[strs.Intern(inst.Module.Name)]
	if !ok {
		diag.ReportError(diag.BagReporter{Bag: p.bag}, diag.ElabUnknownModule, inst.Module.Span,
			fmt.Sprintf("unknown module `%s`", inst.Module.Name)).Emit()
		p.err = paramenv.ErrUnresolved
		return p
	}

	store := res.Session.Store()
	src := &paramenv.ModuleInst{Module: module}
	for _, a := range inst.Pos {
		src.Pos = append(src.Pos, paramenv.PosArg{Span: a.Span, Arg: store.Arg(a.Text, a.Span)})
	}
	for _, a := range inst.Named {
		src.Named = append(src.Named, paramenv.NamedArg{
			Span:     a.Span,
			NameSpan: a.Param.Span,
			Name:     strs.Intern(a.Param.Name),
			Arg:      store.Arg(a.Value.Text, a.Value.Span),
		})
	}
	p.src = src
	return p
}

// bindInstance runs Compute for p with interning deferred to the caller.
func (res *Result) bindInstance(p *pendingInstance, parent uint64) {
	cx := &deferredIntern{Session: res.Session.WithReporter(diag.BagReporter{Bag: p.bag})}
	span := trace.Begin(cx.Tracer(), trace.ScopeInstance, "instance "+p.inst.Name.Name, parent)
	if _, err := paramenv.Compute(cx, p.src); err != nil {
		p.err = err
		span.End("failed")
		return
	}
	p.data = cx.data
	span.WithExtra("bindings", fmt.Sprint(p.data.Len())).End("")
}
