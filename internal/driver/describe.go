package driver

import (
	"strings"

	"hdlelab/internal/hir"
	"hdlelab/internal/paramenv"
)

// nodeLabel renders a parameter by name and an argument by its text.
func (res *Result) nodeLabel(id hir.NodeID) string {
	n, err := res.Session.Store().Node(id)
	if err != nil {
		return "?"
	}
	if n.Kind == hir.KindArg {
		return n.Text
	}
	return res.Session.Name(n.Name)
}

// DescribeEnv renders env as `#(type T = byte, DEPTH = 16)`, type bindings
// first. Invalid handles render as `#(?)`.
func (res *Result) DescribeEnv(env paramenv.ParamEnv) string {
	d, ok := res.Session.Envs().Lookup(env)
	if !ok {
		return "#(?)"
	}
	return DescribeData(d, res.nodeLabel)
}

// DescribeData renders d with label naming each node.
func DescribeData(d paramenv.Data, label func(hir.NodeID) string) string {
	parts := make([]string, 0, d.Len())
	for _, b := range d.Types {
		parts = append(parts, "type "+label(b.Param)+" = "+label(b.Arg))
	}
	for _, b := range d.Values {
		parts = append(parts, label(b.Param)+" = "+label(b.Arg))
	}
	return "#(" + strings.Join(parts, ", ") + ")"
}
