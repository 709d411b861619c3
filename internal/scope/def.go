package scope

import (
	"fmt"

	"hdlelab/internal/hir"
	"hdlelab/internal/source"
)

// DefKind enumerates what a name can denote.
type DefKind uint8

const (
	DefInvalid     DefKind = iota
	DefPackage             // package declaration
	DefType                // type declaration
	DefEnumVariant         // enumeration literal, resolved later against its type
)

func (k DefKind) String() string {
	switch k {
	case DefPackage:
		return "package"
	case DefType:
		return "type"
	case DefEnumVariant:
		return "enum variant"
	default:
		return "invalid"
	}
}

// Overloadable reports whether several definitions of this kind may share a
// name within one scope.
func (k DefKind) Overloadable() bool {
	return k == DefEnumVariant
}

// Definition names what a symbol denotes and the declaration behind it.
type Definition struct {
	Kind DefKind
	Node hir.NodeID
}

func (d Definition) String() string {
	return fmt.Sprintf("%s #%d", d.Kind, d.Node)
}

// Entry is a definition together with the span of the name that introduced it.
type Entry struct {
	Def  Definition
	Span source.Span
}
