package hir

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"

	"hdlelab/internal/source"
)

// ErrNoNode is returned for IDs that do not name a stored node.
var ErrNoNode = errors.New("hir: no such node")

// Store owns every node of a compilation. Nodes are never removed, so IDs
// stay valid for the store's lifetime. Safe for concurrent readers and
// writers.
type Store struct {
	mu    sync.RWMutex
	nodes []Node // index 0 reserved for NoNodeID
	args  map[string]NodeID
}

// NewStore creates an empty store with an optional capacity hint.
func NewStore(capacity uint32) *Store {
	if capacity == 0 {
		capacity = 64
	}
	return &Store{
		nodes: make([]Node, 1, capacity+1),
		args:  make(map[string]NodeID),
	}
}

// must be called with s.mu held for writing
func (s *Store) alloc(n Node) NodeID {
	value, err := safecast.Conv[uint32](len(s.nodes))
	if err != nil {
		panic(fmt.Errorf("hir store overflow: %w", err))
	}
	n.ID = NodeID(value)
	s.nodes = append(s.nodes, n)
	return n.ID
}

// AddModule allocates a module with no parameters.
func (s *Store) AddModule(name source.StringID, span source.Span) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc(Node{Kind: KindModule, Name: name, Span: span})
}

// AddParam appends a type or value parameter to module's parameter list.
func (s *Store) AddParam(module NodeID, kind Kind, name source.StringID, span source.Span) NodeID {
	if !kind.IsParam() {
		panic(fmt.Errorf("hir: AddParam with %s", kind))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.get(module)
	if owner == nil || owner.Kind != KindModule {
		panic(fmt.Errorf("hir: node %d is not a module", module))
	}
	id := s.alloc(Node{Kind: kind, Name: name, Span: span, Owner: module})
	// alloc may have moved the slice
	s.nodes[module].Children = append(s.nodes[module].Children, id)
	return id
}

// AddPackage allocates an empty package.
func (s *Store) AddPackage(name source.StringID, span source.Span) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc(Node{Kind: KindPackage, Name: name, Span: span})
}

// AddDecl allocates a declaration of the given kind. When owner is valid the
// declaration is appended to its children.
func (s *Store) AddDecl(owner NodeID, kind Kind, name source.StringID, span source.Span) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.alloc(Node{Kind: kind, Name: name, Span: span, Owner: owner})
	if owner.IsValid() && int(owner) < len(s.nodes) {
		s.nodes[owner].Children = append(s.nodes[owner].Children, id)
	}
	return id
}

// Arg returns the argument node for text, allocating it on first use.
// Equal text always yields the same NodeID; span records the first site.
func (s *Store) Arg(text string, span source.Span) NodeID {
	s.mu.RLock()
	id, ok := s.args[text]
	s.mu.RUnlock()
	if ok {
		return id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.args[text]; ok {
		return id
	}
	id = s.alloc(Node{Kind: KindArg, Span: span, Text: text})
	s.args[text] = id
	return id
}

func (s *Store) get(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(s.nodes) {
		return nil
	}
	return &s.nodes[id]
}

// Node returns a copy of the node for id.
func (s *Store) Node(id NodeID) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.get(id)
	if n == nil {
		return Node{}, fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	out := *n
	out.Children = slices.Clone(n.Children)
	return out, nil
}

// Len reports the number of stored nodes excluding the sentinel.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes) - 1
}

// Module returns the node for id when it is a module.
func (s *Store) Module(id NodeID) (Node, bool) {
	n, err := s.Node(id)
	if err != nil || n.Kind != KindModule {
		return Node{}, false
	}
	return n, true
}

// Param returns the node for id when it is a type or value parameter.
func (s *Store) Param(id NodeID) (Node, bool) {
	n, err := s.Node(id)
	if err != nil || !n.Kind.IsParam() {
		return Node{}, false
	}
	return n, true
}
