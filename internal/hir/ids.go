package hir

// NodeID identifies a node in the Store.
type NodeID uint32

const (
	// NoNodeID marks the absence of a node reference.
	NoNodeID NodeID = 0
)

// IsValid reports whether the ID may refer to an allocated node.
func (id NodeID) IsValid() bool { return id != NoNodeID }
