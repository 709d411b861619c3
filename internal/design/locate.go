package design

import (
	"hdlelab/internal/source"
)

// entity names a top-level collection of a description.
type entity uint8

const (
	entModule entity = iota
	entPackage
	entUnit
	entInstance
	entityCount
)

func (e entity) String() string {
	switch e {
	case entModule:
		return "module"
	case entPackage:
		return "package"
	case entUnit:
		return "unit"
	case entInstance:
		return "instance"
	default:
		return "entity"
	}
}

// locator maps decoded values back to spans in the description file.
type locator interface {
	// ident returns the span of id, written inside the index-th entity of kind.
	ident(kind entity, index int, id rawIdent) source.Span
	// entity returns a span for the index-th entity of kind as a whole.
	entity(kind entity, index int) source.Span
}

func spanAt(f *source.File, start, length int) source.Span {
	size := len(f.Content)
	start = max(0, min(start, size))
	end := max(start, min(start+length, size))
	// offsets fit: content length was checked when the file was added
	return source.Span{File: f.ID, Start: uint32(start), End: uint32(end)} // #nosec G115
}
