package scope

import (
	"slices"
	"sync"

	"hdlelab/internal/source"
)

// Scope is one node of a Tree. Each table has its own lock: a scope may be
// imported by others while it is still being populated.
type Scope struct {
	ID     ScopeID
	Parent ScopeID

	childMu  sync.RWMutex
	children []ScopeID

	defsMu sync.RWMutex
	defs   map[source.StringID][]Entry
	names  []source.StringID // first definition order

	importsMu sync.RWMutex
	imported  map[source.StringID][]Entry

	scopesMu  sync.RWMutex
	scopes    []ScopeID
	scopeSeen map[ScopeID]struct{}
}

func newScope(id, parent ScopeID) *Scope {
	return &Scope{
		ID:        id,
		Parent:    parent,
		defs:      make(map[source.StringID][]Entry),
		imported:  make(map[source.StringID][]Entry),
		scopeSeen: make(map[ScopeID]struct{}),
	}
}

func (s *Scope) addChild(id ScopeID) {
	s.childMu.Lock()
	s.children = append(s.children, id)
	s.childMu.Unlock()
}

func (s *Scope) childList() []ScopeID {
	s.childMu.RLock()
	defer s.childMu.RUnlock()
	return slices.Clone(s.children)
}

func (s *Scope) ownDefs(name source.StringID) []Entry {
	s.defsMu.RLock()
	defer s.defsMu.RUnlock()
	return slices.Clone(s.defs[name])
}

func (s *Scope) importedDefs(name source.StringID) []Entry {
	s.importsMu.RLock()
	defer s.importsMu.RUnlock()
	return slices.Clone(s.imported[name])
}

func (s *Scope) importedScopes() []ScopeID {
	s.scopesMu.RLock()
	defer s.scopesMu.RUnlock()
	return slices.Clone(s.scopes)
}
