package scope

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hdlelab/internal/diag"
	"hdlelab/internal/hir"
	"hdlelab/internal/source"
	"hdlelab/internal/trace"
)

type testContext struct {
	strings *source.Interner
	bag     *diag.Bag
	verbose bool
	tracer  trace.Tracer
}

func newTestContext() *testContext {
	return &testContext{strings: source.NewInterner(), bag: diag.NewBag(100), tracer: trace.Nop}
}

func (c *testContext) Reporter() diag.Reporter   { return diag.BagReporter{Bag: c.bag} }
func (c *testContext) Strings() *source.Interner { return c.strings }
func (c *testContext) VerboseNames() bool        { return c.verbose }
func (c *testContext) Tracer() trace.Tracer      { return c.tracer }

func span(start uint32) source.Span { return source.Span{Start: start, End: start + 3} }

func TestTreeParentLinks(t *testing.T) {
	tree := NewTree()
	root := tree.NewRoot()
	a := tree.NewChild(root)
	b := tree.NewChild(a)

	if tree.Parent(root) != NoScopeID || tree.Parent(a) != root || tree.Parent(b) != a {
		t.Fatalf("unexpected parents: root=%d a=%d b=%d", tree.Parent(root), tree.Parent(a), tree.Parent(b))
	}
	if diff := cmp.Diff([]ScopeID{a}, tree.Children(root)); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if tree.Len() != 3 {
		t.Fatalf("Len = %d", tree.Len())
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestTreeInvalidHandlesPanic(t *testing.T) {
	tree := NewTree()
	for name, fn := range map[string]func(){
		"NewChild": func() { tree.NewChild(NoScopeID) },
		"Parent":   func() { tree.Parent(7) },
		"Import":   func() { tree.ImportScope(tree.NewRoot(), 9) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestDefineDuplicateUnique(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	root := tree.NewRoot()
	foo := cx.strings.Intern("foo")

	first := Definition{Kind: DefType, Node: 1}
	if err := tree.Define(cx, root, foo, span(10), first); err != nil {
		t.Fatalf("first Define: %v", err)
	}
	err := tree.Define(cx, root, foo, span(40), Definition{Kind: DefPackage, Node: 2})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	items := cx.bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", items)
	}
	d := items[0]
	if d.Code != diag.ScopeDuplicateDef || d.Message != "`foo` has already been declared" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Primary != span(40) || len(d.Notes) != 1 || d.Notes[0].Span != span(10) {
		t.Fatalf("diagnostic spans wrong: %+v", d)
	}

	want := []Entry{{Def: first, Span: span(10)}}
	if diff := cmp.Diff(want, tree.Defs(root, foo)); diff != "" {
		t.Fatalf("table changed (-want +got):\n%s", diff)
	}
}

func TestDefineOverloadAccumulates(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	root := tree.NewRoot()
	red := cx.strings.Intern("RED")

	v1 := Definition{Kind: DefEnumVariant, Node: 3}
	v2 := Definition{Kind: DefEnumVariant, Node: 7}
	for i, def := range []Definition{v1, v2} {
		if err := tree.Define(cx, root, red, span(uint32(10*i)), def); err != nil {
			t.Fatalf("Define #%d: %v", i, err)
		}
	}
	want := []Entry{{Def: v1, Span: span(0)}, {Def: v2, Span: span(10)}}
	if diff := cmp.Diff(want, tree.Defs(root, red)); diff != "" {
		t.Fatalf("overloads mismatch (-want +got):\n%s", diff)
	}
	if cx.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", cx.bag.Items())
	}

	// a unique definition cannot join an overload set
	if err := tree.Define(cx, root, red, span(50), Definition{Kind: DefType, Node: 9}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if d := cx.bag.Items()[0]; d.Notes[0].Span != span(10) {
		t.Fatalf("note should point at the latest overload, got %v", d.Notes[0].Span)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDefineSeparateScopes(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	root := tree.NewRoot()
	child := tree.NewChild(root)
	x := cx.strings.Intern("x")

	if err := tree.Define(cx, root, x, span(0), Definition{Kind: DefType, Node: 1}); err != nil {
		t.Fatalf("Define root: %v", err)
	}
	// shadowing an ancestor is not a conflict
	if err := tree.Define(cx, child, x, span(5), Definition{Kind: DefType, Node: 2}); err != nil {
		t.Fatalf("Define child: %v", err)
	}
}

func TestDefineVerboseNote(t *testing.T) {
	cx := newTestContext()
	cx.verbose = true
	tree := NewTree()
	root := tree.NewRoot()

	if err := tree.Define(cx, root, cx.strings.Intern("pkg"), span(0), Definition{Kind: DefPackage, Node: 4}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	items := cx.bag.Items()
	if len(items) != 1 || items[0].Severity != diag.SevInfo || items[0].Code != diag.ScopeDefineTrace {
		t.Fatalf("expected info diagnostic, got %+v", items)
	}
	if items[0].Message != "define `pkg` as package #4" {
		t.Fatalf("unexpected message %q", items[0].Message)
	}
}

func TestDefineTracesPoint(t *testing.T) {
	cx := newTestContext()
	var out strings.Builder
	cx.tracer = trace.NewStreamTracer(&out, trace.LevelDebug, trace.FormatNDJSON)
	tree := NewTree()
	root := tree.NewRoot()

	if err := tree.Define(cx, root, cx.strings.Intern("t"), span(0), Definition{Kind: DefType, Node: 1}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := cx.tracer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.Contains(out.String(), `"define"`) {
		t.Fatalf("trace output missing define event: %s", out.String())
	}
}

func TestImportDefNeverConflicts(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	root := tree.NewRoot()
	x := cx.strings.Intern("x")

	own := Definition{Kind: DefType, Node: 1}
	if err := tree.Define(cx, root, x, span(0), own); err != nil {
		t.Fatalf("Define: %v", err)
	}
	a := Definition{Kind: DefType, Node: 2}
	b := Definition{Kind: DefPackage, Node: 3}
	tree.ImportDef(root, x, span(10), a)
	tree.ImportDef(root, x, span(20), b)

	want := []Entry{{Def: a, Span: span(10)}, {Def: b, Span: span(20)}}
	if diff := cmp.Diff(want, tree.ImportedDefs(root, x)); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Entry{{Def: own, Span: span(0)}}, tree.Defs(root, x)); diff != "" {
		t.Fatalf("own table changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]source.StringID{x}, tree.ImportedNames(root)); diff != "" {
		t.Fatalf("imported names mismatch:\n%s", diff)
	}
	if cx.bag.Len() != 0 {
		t.Fatalf("imports must not report: %+v", cx.bag.Items())
	}
}

func TestImportScopeIdentity(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	root := tree.NewRoot()
	p1 := tree.NewRoot()
	p2 := tree.NewRoot()
	unit := tree.NewChild(root)

	// p1 and p2 hold identical contents
	name := cx.strings.Intern("T")
	for _, p := range []ScopeID{p1, p2} {
		if err := tree.Define(cx, p, name, span(0), Definition{Kind: DefType, Node: hir.NodeID(5)}); err != nil {
			t.Fatalf("Define: %v", err)
		}
	}

	tree.ImportScope(unit, p1)
	tree.ImportScope(unit, p1)
	if got := tree.ImportedScopes(unit); len(got) != 1 {
		t.Fatalf("re-import grew set: %v", got)
	}
	tree.ImportScope(unit, p2)
	if diff := cmp.Diff([]ScopeID{p1, p2}, tree.ImportedScopes(unit)); diff != "" {
		t.Fatalf("imported scopes mismatch (-want +got):\n%s", diff)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNamesFirstDefinitionOrder(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	root := tree.NewRoot()
	var want []source.StringID
	for i, n := range []string{"b", "a", "c"} {
		id := cx.strings.Intern(n)
		want = append(want, id)
		if err := tree.Define(cx, root, id, span(uint32(i)), Definition{Kind: DefEnumVariant, Node: 1}); err != nil {
			t.Fatalf("Define: %v", err)
		}
	}
	_ = tree.Define(cx, root, want[0], span(9), Definition{Kind: DefEnumVariant, Node: 2})
	if diff := cmp.Diff(want, tree.Names(root)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentImportsIntoShared(t *testing.T) {
	cx := newTestContext()
	tree := NewTree()
	shared := tree.NewRoot()
	name := cx.strings.Intern("x")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unit := tree.NewRoot()
			tree.ImportScope(unit, shared)
			tree.ImportDef(shared, name, span(uint32(i)), Definition{Kind: DefType, Node: hir.NodeID(i + 1)})
			_ = tree.Defs(shared, name)
		}()
	}
	wg.Wait()

	if got := len(tree.ImportedDefs(shared, name)); got != 8 {
		t.Fatalf("imported %d defs, want 8", got)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	tree := NewTree()
	root := tree.NewRoot()
	s := tree.Scope(root)
	s.defs[1] = []Entry{
		{Def: Definition{Kind: DefType, Node: 1}},
		{Def: Definition{Kind: DefPackage, Node: 2}},
	}
	s.scopes = append(s.scopes, 42)

	err := tree.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, frag := range []string{"unique definitions", "name order", "invalid scope 42"} {
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("missing %q in %v", frag, err)
		}
	}
}
