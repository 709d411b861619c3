package scope

import (
	"fmt"

	"fortio.org/safecast"
)

// ScopeID identifies a scope inside a Tree. Two scopes are the same scope
// exactly when their IDs are equal, whatever their contents.
type ScopeID uint32

// NoScopeID marks the absence of a scope, e.g. the parent of a root.
const NoScopeID ScopeID = 0

// IsValid reports whether the id may refer to a scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

func toScopeID(n int) (ScopeID, error) {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope id overflow: %w", err)
	}
	return ScopeID(v), nil
}
