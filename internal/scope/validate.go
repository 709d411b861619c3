package scope

import (
	"errors"
	"fmt"
	"slices"
)

// Validate walks the arena checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Tree) Validate() error {
	t.mu.RLock()
	scopes := slices.Clone(t.scopes)
	t.mu.RUnlock()

	var errs []error
	for idx := 1; idx < len(scopes); idx++ {
		id, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s := scopes[idx]
		if s == nil || s.ID != id {
			errs = append(errs, fmt.Errorf("scope %d: arena slot corrupt", id))
			continue
		}

		// parents are always allocated before their children
		if s.Parent.IsValid() {
			if s.Parent >= id {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", id, s.Parent))
			} else if !slices.Contains(scopes[s.Parent].childList(), id) {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", id, s.Parent))
			}
		}
		for _, child := range s.childList() {
			if int(child) >= len(scopes) || child <= id || scopes[child].Parent != id {
				errs = append(errs, fmt.Errorf("scope %d has invalid child %d", id, child))
			}
		}

		s.defsMu.RLock()
		for name, entries := range s.defs {
			unique := 0
			for i, e := range entries {
				if e.Def.Kind == DefInvalid {
					errs = append(errs, fmt.Errorf("scope %d: name %d has invalid definition", id, name))
				}
				if !e.Def.Kind.Overloadable() {
					unique++
					if i != 0 {
						errs = append(errs, fmt.Errorf("scope %d: unique definition of name %d after overloads", id, name))
					}
				}
			}
			if unique > 1 {
				errs = append(errs, fmt.Errorf("scope %d: name %d has %d unique definitions", id, name, unique))
			}
		}
		if len(s.names) != len(s.defs) {
			errs = append(errs, fmt.Errorf("scope %d: name order lists %d names, table has %d", id, len(s.names), len(s.defs)))
		}
		s.defsMu.RUnlock()

		for _, other := range s.importedScopes() {
			if !other.IsValid() || int(other) >= len(scopes) {
				errs = append(errs, fmt.Errorf("scope %d imports invalid scope %d", id, other))
			}
		}
	}
	return errors.Join(errs...)
}
