package design

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawIdent is a scalar string plus the position it was decoded from, when
// the decoder knows it.
type rawIdent struct {
	Value  string
	Line   int
	Column int
	Quoted bool
}

// UnmarshalText serves the TOML decoder, which does not expose positions.
func (id *rawIdent) UnmarshalText(text []byte) error {
	id.Value = string(text)
	return nil
}

func (id *rawIdent) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar, found %s", node.Line, kindName(node.Kind))
	}
	id.Value = node.Value
	id.Line = node.Line
	id.Column = node.Column
	id.Quoted = node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
	return nil
}

type rawParam struct {
	Name rawIdent `toml:"name" yaml:"name"`
	Kind rawIdent `toml:"kind" yaml:"kind"`
}

type rawModule struct {
	Name   rawIdent   `toml:"name" yaml:"name"`
	Params []rawParam `toml:"params" yaml:"params"`
}

type rawDecl struct {
	Name     rawIdent   `toml:"name" yaml:"name"`
	Kind     rawIdent   `toml:"kind" yaml:"kind"`
	Variants []rawIdent `toml:"variants" yaml:"variants"`
}

type rawPackage struct {
	Name  rawIdent  `toml:"name" yaml:"name"`
	Decls []rawDecl `toml:"decl" yaml:"decls"`
}

type rawUnit struct {
	Name    rawIdent   `toml:"name" yaml:"name"`
	Imports []rawIdent `toml:"imports" yaml:"imports"`
	Decls   []rawDecl  `toml:"decl" yaml:"decls"`
}

type rawNamed struct {
	Param rawIdent `toml:"param" yaml:"param"`
	Value rawIdent `toml:"value" yaml:"value"`
}

type rawInstance struct {
	Name   rawIdent   `toml:"name" yaml:"name"`
	Module rawIdent   `toml:"module" yaml:"module"`
	Pos    []rawIdent `toml:"pos" yaml:"pos"`
	Named  []rawNamed `toml:"named" yaml:"named"`
}

type rawDesign struct {
	Dialect   rawIdent      `toml:"dialect" yaml:"dialect"`
	Modules   []rawModule   `toml:"module" yaml:"modules"`
	Packages  []rawPackage  `toml:"package" yaml:"packages"`
	Units     []rawUnit     `toml:"unit" yaml:"units"`
	Instances []rawInstance `toml:"instance" yaml:"instances"`
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "a document"
	}
}
