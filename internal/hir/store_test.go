package hir

import (
	"errors"
	"sync"
	"testing"

	"hdlelab/internal/source"
)

func TestStoreModuleParams(t *testing.T) {
	strings := source.NewInterner()
	s := NewStore(0)

	mod := s.AddModule(strings.Intern("fifo"), source.Span{Start: 0, End: 4})
	tp := s.AddParam(mod, KindTypeParam, strings.Intern("T"), source.Span{Start: 5, End: 6})
	vp := s.AddParam(mod, KindValueParam, strings.Intern("DEPTH"), source.Span{Start: 7, End: 12})

	n, err := s.Node(mod)
	if err != nil {
		t.Fatalf("Node(module): %v", err)
	}
	if n.Kind != KindModule || len(n.Children) != 2 || n.Children[0] != tp || n.Children[1] != vp {
		t.Fatalf("unexpected module node %+v", n)
	}
	p, err := s.Node(vp)
	if err != nil || p.Kind != KindValueParam || p.Owner != mod {
		t.Fatalf("unexpected param node %+v err=%v", p, err)
	}

	// the returned copy must not alias store memory
	n.Children[0] = NoNodeID
	again, _ := s.Node(mod)
	if again.Children[0] != tp {
		t.Fatalf("Node returned aliased children")
	}
}

func TestStoreUnknownNode(t *testing.T) {
	s := NewStore(0)
	if _, err := s.Node(NoNodeID); !errors.Is(err, ErrNoNode) {
		t.Fatalf("Node(NoNodeID) err = %v", err)
	}
	if _, err := s.Node(NodeID(42)); !errors.Is(err, ErrNoNode) {
		t.Fatalf("Node(42) err = %v", err)
	}
}

func TestStoreAddParamRejectsNonModule(t *testing.T) {
	s := NewStore(0)
	pkg := s.AddPackage(1, source.Span{})
	defer func() {
		if recover() == nil {
			t.Fatalf("AddParam on a package must panic")
		}
	}()
	s.AddParam(pkg, KindTypeParam, 2, source.Span{})
}

func TestStoreArgHashConsing(t *testing.T) {
	s := NewStore(0)
	a := s.Arg("16", source.Span{Start: 1, End: 3})
	b := s.Arg("16", source.Span{Start: 40, End: 42})
	c := s.Arg("32", source.Span{Start: 50, End: 52})
	if a != b {
		t.Fatalf("equal argument text must share a node: %d != %d", a, b)
	}
	if a == c {
		t.Fatalf("different argument text must not share a node")
	}
	n, _ := s.Node(a)
	if n.Span.Start != 1 {
		t.Fatalf("argument node must keep the first span, got %v", n.Span)
	}
}

func TestStoreConcurrentArg(t *testing.T) {
	s := NewStore(0)
	const workers = 16
	ids := make([]NodeID, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			ids[i] = s.Arg("logic [7:0]", source.Span{})
		}()
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent Arg produced distinct ids %v", ids)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}
