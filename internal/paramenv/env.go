package paramenv

import (
	"slices"
	"strconv"
	"strings"

	"hdlelab/internal/hir"
)

// ParamEnv is a handle into a Table. Comparable and totally ordered.
type ParamEnv uint32

const (
	// NoParamEnv marks the absence of an environment.
	NoParamEnv ParamEnv = 0
	// EmptyParamEnv is the environment with no bindings; every Table issues it first.
	EmptyParamEnv ParamEnv = 1
)

// IsValid reports whether env may refer to an interned environment.
func (env ParamEnv) IsValid() bool { return env != NoParamEnv }

// Binding pairs a declared parameter with the argument bound to it.
type Binding struct {
	Param hir.NodeID `msgpack:"p"`
	Arg   hir.NodeID `msgpack:"a"`
}

// Data is the canonical content of an environment. Within each slice,
// bindings keep the order in which their arguments were written: positional
// arguments first, then named ones.
type Data struct {
	Types  []Binding `msgpack:"types"`
	Values []Binding `msgpack:"values"`
}

// Len returns the total number of bindings.
func (d Data) Len() int { return len(d.Types) + len(d.Values) }

// Equal reports structural equality.
func (d Data) Equal(other Data) bool {
	return slices.Equal(d.Types, other.Types) && slices.Equal(d.Values, other.Values)
}

// Clone returns a deep copy.
func (d Data) Clone() Data {
	return Data{Types: slices.Clone(d.Types), Values: slices.Clone(d.Values)}
}

// Go maps cannot key on slices, so the intern table keys on this string.
func (d Data) key() string {
	var b strings.Builder
	writeBindings(&b, 't', d.Types)
	b.WriteByte('|')
	writeBindings(&b, 'v', d.Values)
	return b.String()
}

func writeBindings(b *strings.Builder, tag byte, bindings []Binding) {
	b.WriteByte(tag)
	for i, bind := range bindings {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(strconv.FormatUint(uint64(bind.Param), 10))
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(uint64(bind.Arg), 10))
	}
}
