package design

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
)

var yamlLine = regexp.MustCompile(`line (\d+)`)

func decodeYAML(f *source.File, r diag.Reporter) (*rawDesign, locator, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(f.Content, &root); err != nil {
		return nil, nil, yamlError(f, err)
	}
	var raw rawDesign
	if len(root.Content) == 0 {
		diag.ReportWarning(r, diag.CfgMissingField, spanAt(f, 0, 0), "design description declares nothing").Emit()
		return &raw, &yamlLocator{file: f}, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(f.Content))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, yamlError(f, err)
	}
	return &raw, newYAMLLocator(f, &root), nil
}

func yamlError(f *source.File, err error) error {
	msg := err.Error()
	var terr *yaml.TypeError
	if errors.As(err, &terr) && len(terr.Errors) > 0 {
		msg = terr.Errors[0]
	}
	span := spanAt(f, 0, 0)
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		if line, convErr := strconv.ParseUint(m[1], 10, 32); convErr == nil {
			off := int(f.Offset(source.LineCol{Line: uint32(line), Col: 1}))
			span = spanAt(f, off, len(f.GetLine(uint32(line))))
		}
	}
	return &parseError{span: span, msg: msg}
}

// yamlLocator uses the positions recorded by the YAML decoder.
type yamlLocator struct {
	file     *source.File
	entities [entityCount][]source.Span
}

var yamlKeys = [entityCount]string{
	entModule:   "modules",
	entPackage:  "packages",
	entUnit:     "units",
	entInstance: "instances",
}

func newYAMLLocator(f *source.File, root *yaml.Node) *yamlLocator {
	l := &yamlLocator{file: f}
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return l
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		for kind, name := range yamlKeys {
			if key.Value != name || val.Kind != yaml.SequenceNode {
				continue
			}
			for _, item := range val.Content {
				l.entities[kind] = append(l.entities[kind], l.nodeSpan(item))
			}
		}
	}
	return l
}

func (l *yamlLocator) nodeSpan(n *yaml.Node) source.Span {
	off := int(l.file.Offset(source.LineCol{Line: uint32(n.Line), Col: uint32(n.Column)})) // #nosec G115
	return spanAt(l.file, off, 0)
}

func (l *yamlLocator) entity(kind entity, index int) source.Span {
	if index >= 0 && index < len(l.entities[kind]) {
		return l.entities[kind][index]
	}
	return spanAt(l.file, 0, 0)
}

func (l *yamlLocator) ident(kind entity, index int, id rawIdent) source.Span {
	if id.Line <= 0 {
		return l.entity(kind, index)
	}
	off := int(l.file.Offset(source.LineCol{Line: uint32(id.Line), Col: uint32(id.Column)})) // #nosec G115
	if id.Quoted {
		off++
	}
	return spanAt(l.file, off, len(id.Value))
}
