package design

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
)

var tomlHeader = regexp.MustCompile(`(?m)^[ \t]*\[\[[ \t]*(module|package|unit|instance)[ \t]*\]\]`)

func decodeTOML(f *source.File, r diag.Reporter) (*rawDesign, locator, error) {
	var raw rawDesign
	meta, err := toml.Decode(string(f.Content), &raw)
	if err != nil {
		return nil, nil, tomlError(f, err)
	}
	if !meta.IsDefined("module") && !meta.IsDefined("instance") &&
		!meta.IsDefined("package") && !meta.IsDefined("unit") {
		diag.ReportWarning(r, diag.CfgMissingField, spanAt(f, 0, 0), "design description declares nothing").Emit()
	}
	for _, key := range meta.Undecoded() {
		diag.ReportWarning(r, diag.CfgBadKind, spanAt(f, 0, 0),
			fmt.Sprintf("unknown key `%s` ignored", key.String())).Emit()
	}
	return &raw, newTOMLLocator(f), nil
}

// parseError carries the span of a decoding failure.
type parseError struct {
	span source.Span
	msg  string
}

func (e *parseError) Error() string { return e.msg }

func tomlError(f *source.File, err error) error {
	var perr toml.ParseError
	if errors.As(err, &perr) {
		return &parseError{span: spanAt(f, perr.Position.Start, perr.Position.Len), msg: perr.Message}
	}
	return &parseError{span: spanAt(f, 0, 0), msg: err.Error()}
}

type tomlRegion struct {
	header source.Span
	start  int
	end    int
	cursor int
}

// tomlLocator finds values by searching the text of the `[[kind]]` block
// they were decoded from. The decoder keeps no positions, so this is a
// best effort: a value that cannot be found falls back to the block header.
type tomlLocator struct {
	file    *source.File
	regions [entityCount][]tomlRegion
}

func newTOMLLocator(f *source.File) *tomlLocator {
	l := &tomlLocator{file: f}
	matches := tomlHeader.FindAllSubmatchIndex(f.Content, -1)
	for i, m := range matches {
		end := len(f.Content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		kind := entityByName(string(f.Content[m[2]:m[3]]))
		// header span excludes leading indentation
		hdr := bytes.IndexByte(f.Content[m[0]:m[1]], '[') + m[0]
		l.regions[kind] = append(l.regions[kind], tomlRegion{
			header: spanAt(f, hdr, m[1]-hdr),
			start:  m[1],
			end:    end,
			cursor: m[1],
		})
	}
	return l
}

func entityByName(name string) entity {
	switch name {
	case "module":
		return entModule
	case "package":
		return entPackage
	case "unit":
		return entUnit
	default:
		return entInstance
	}
}

func (l *tomlLocator) region(kind entity, index int) *tomlRegion {
	if index < 0 || index >= len(l.regions[kind]) {
		return nil
	}
	return &l.regions[kind][index]
}

func (l *tomlLocator) entity(kind entity, index int) source.Span {
	if reg := l.region(kind, index); reg != nil {
		return reg.header
	}
	return spanAt(l.file, 0, 0)
}

func (l *tomlLocator) ident(kind entity, index int, id rawIdent) source.Span {
	reg := l.region(kind, index)
	if reg == nil || id.Value == "" {
		return l.entity(kind, index)
	}
	if start, ok := l.find(reg, id.Value, reg.cursor); ok {
		reg.cursor = start + len(id.Value)
		return spanAt(l.file, start, len(id.Value))
	}
	if start, ok := l.find(reg, id.Value, reg.start); ok {
		return spanAt(l.file, start, len(id.Value))
	}
	return reg.header
}

// find returns the offset of value written as a string literal, or as a
// bare token when it is not quoted (numbers, booleans).
func (l *tomlLocator) find(reg *tomlRegion, value string, from int) (int, bool) {
	text := string(l.file.Content[from:reg.end])
	for _, q := range []string{`"`, `'`} {
		if i := strings.Index(text, q+value+q); i >= 0 {
			return from + i + 1, true
		}
	}
	for off := 0; ; {
		i := strings.Index(text[off:], value)
		if i < 0 {
			return 0, false
		}
		at := off + i
		if isBoundary(text, at-1) && isBoundary(text, at+len(value)) {
			return from + at, true
		}
		off = at + 1
	}
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	switch c := text[i]; {
	case c == '_' || c == '.' || c == '"' || c == '\'':
		return false
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	}
	return true
}
