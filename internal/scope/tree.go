package scope

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
	"hdlelab/internal/trace"
)

// ErrDuplicate is returned by Define when a unique name is already taken.
// The conflict has been reported by then.
var ErrDuplicate = errors.New("duplicate definition")

// Context supplies the services Define needs.
type Context interface {
	Reporter() diag.Reporter
	Strings() *source.Interner
	// VerboseNames enables an info diagnostic for every definition.
	VerboseNames() bool
	Tracer() trace.Tracer
}

// Tree is the arena owning every scope of a compilation. Scopes are never
// freed individually.
type Tree struct {
	mu     sync.RWMutex
	scopes []*Scope // index 0 reserved for NoScopeID
}

// NewTree creates an empty arena.
func NewTree() *Tree {
	return &Tree{scopes: make([]*Scope, 1, 16)}
}

func (t *Tree) alloc(parent ScopeID) ScopeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, err := toScopeID(len(t.scopes))
	if err != nil {
		panic(err)
	}
	if parent.IsValid() && int(parent) >= len(t.scopes) {
		panic(fmt.Errorf("scope: parent %d does not exist", parent))
	}
	t.scopes = append(t.scopes, newScope(id, parent))
	if parent.IsValid() {
		t.scopes[parent].addChild(id)
	}
	return id
}

// NewRoot allocates a scope without a parent.
func (t *Tree) NewRoot() ScopeID { return t.alloc(NoScopeID) }

// NewChild allocates a scope under parent. The link is fixed for the
// scope's lifetime.
func (t *Tree) NewChild(parent ScopeID) ScopeID {
	if !parent.IsValid() {
		panic(fmt.Errorf("scope: NewChild with invalid parent"))
	}
	return t.alloc(parent)
}

func (t *Tree) get(id ScopeID) *Scope {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return t.scopes[id]
}

func (t *Tree) mustGet(id ScopeID) *Scope {
	s := t.get(id)
	if s == nil {
		panic(fmt.Errorf("scope: invalid scope id %d", id))
	}
	return s
}

// Len reports the number of scopes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.scopes) - 1
}

// Scope returns the scope for id, or nil.
func (t *Tree) Scope(id ScopeID) *Scope { return t.get(id) }

// Define records def under name in the scope's own table.
//
// Overloadable definitions accumulate in declaration order. A unique
// definition succeeds only when the name is still free; otherwise the
// conflict is reported at span with a note at the previous declaration, the
// table is left untouched and ErrDuplicate is returned.
func (t *Tree) Define(cx Context, id ScopeID, name source.StringID, span source.Span, def Definition) error {
	s := t.mustGet(id)
	text := nameOf(cx.Strings(), name)

	trace.Point(cx.Tracer(), trace.ScopeNode, "define", fmt.Sprintf("scope %d: %s as %s", id, text, def))
	if cx.VerboseNames() {
		diag.ReportInfo(cx.Reporter(), diag.ScopeDefineTrace, span,
			fmt.Sprintf("define `%s` as %s", text, def)).Emit()
	}

	s.defsMu.Lock()
	existing := s.defs[name]
	if !def.Kind.Overloadable() && len(existing) > 0 {
		prev := existing[len(existing)-1].Span
		s.defsMu.Unlock()
		diag.ReportError(cx.Reporter(), diag.ScopeDuplicateDef, span,
			fmt.Sprintf("`%s` has already been declared", text)).
			WithNote(prev, "previous declaration was here").
			Emit()
		return fmt.Errorf("%w: %s", ErrDuplicate, text)
	}
	if len(existing) == 0 {
		s.names = append(s.names, name)
	}
	s.defs[name] = append(existing, Entry{Def: def, Span: span})
	s.defsMu.Unlock()
	return nil
}

// ImportDef records def under name in the scope's imported table. Imports
// never conflict, with each other or with own definitions.
func (t *Tree) ImportDef(id ScopeID, name source.StringID, span source.Span, def Definition) {
	s := t.mustGet(id)
	s.importsMu.Lock()
	s.imported[name] = append(s.imported[name], Entry{Def: def, Span: span})
	s.importsMu.Unlock()
}

// ImportScope adds other to the scope's imported scopes. Importing the same
// scope again is a no-op.
func (t *Tree) ImportScope(id, other ScopeID) {
	s := t.mustGet(id)
	t.mustGet(other)
	s.scopesMu.Lock()
	defer s.scopesMu.Unlock()
	if _, ok := s.scopeSeen[other]; ok {
		return
	}
	s.scopeSeen[other] = struct{}{}
	s.scopes = append(s.scopes, other)
}

// Parent returns the parent of id, NoScopeID for roots.
func (t *Tree) Parent(id ScopeID) ScopeID { return t.mustGet(id).Parent }

// Children returns the scopes created under id in creation order.
func (t *Tree) Children(id ScopeID) []ScopeID { return t.mustGet(id).childList() }

// Defs returns a copy of the own definitions of name.
func (t *Tree) Defs(id ScopeID, name source.StringID) []Entry {
	return t.mustGet(id).ownDefs(name)
}

// ImportedDefs returns a copy of the definitions imported under name.
func (t *Tree) ImportedDefs(id ScopeID, name source.StringID) []Entry {
	return t.mustGet(id).importedDefs(name)
}

// ImportedScopes returns the imported scopes in first-import order.
func (t *Tree) ImportedScopes(id ScopeID) []ScopeID {
	return t.mustGet(id).importedScopes()
}

// Names returns the names defined in the scope's own table, in the order of
// their first definition.
func (t *Tree) Names(id ScopeID) []source.StringID {
	s := t.mustGet(id)
	s.defsMu.RLock()
	defer s.defsMu.RUnlock()
	return slices.Clone(s.names)
}

// ImportedNames returns the names in the imported table, sorted by id.
func (t *Tree) ImportedNames(id ScopeID) []source.StringID {
	s := t.mustGet(id)
	s.importsMu.RLock()
	out := make([]source.StringID, 0, len(s.imported))
	for name := range s.imported {
		out = append(out, name)
	}
	s.importsMu.RUnlock()
	slices.Sort(out)
	return out
}

func nameOf(strs *source.Interner, id source.StringID) string {
	if strs != nil {
		if s, ok := strs.Lookup(id); ok {
			return s
		}
	}
	return fmt.Sprintf("#%d", id)
}
