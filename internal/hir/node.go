package hir

import "hdlelab/internal/source"

// Kind classifies a node.
type Kind uint8

const (
	KindInvalid     Kind = iota
	KindModule           // module declaration with ordered parameters
	KindTypeParam        // `parameter type T`
	KindValueParam       // `parameter int N`
	KindPackage          // package declaration
	KindTypeDecl         // typedef / type declaration
	KindEnumVariant      // enumeration literal
	KindArg              // instantiation argument expression
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindTypeParam:
		return "type parameter"
	case KindValueParam:
		return "value parameter"
	case KindPackage:
		return "package"
	case KindTypeDecl:
		return "type"
	case KindEnumVariant:
		return "enum variant"
	case KindArg:
		return "argument"
	default:
		return "invalid"
	}
}

// IsParam reports whether the kind is a module parameter.
func (k Kind) IsParam() bool {
	return k == KindTypeParam || k == KindValueParam
}

// Node is the stored record. Children is ordered: parameters for a module,
// variants for an enum type, declarations for a package.
type Node struct {
	ID       NodeID
	Kind     Kind
	Name     source.StringID
	Span     source.Span
	Owner    NodeID
	Children []NodeID
	Text     string // argument text, empty for declarations
}
