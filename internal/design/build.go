package design

import (
	"fmt"
	"strings"

	"hdlelab/internal/diag"
	"hdlelab/internal/source"
)

// builder turns decoded values into a Design. Malformed entries are reported
// and skipped; the rest of the description still loads.
type builder struct {
	file *source.File
	loc  locator
	r    diag.Reporter
}

func (b *builder) build(raw *rawDesign) *Design {
	d := &Design{File: b.file.ID, Path: b.file.Path}

	dialect, ok := parseDialect(raw.Dialect.Value)
	if !ok {
		sp := b.fileIdent(raw.Dialect)
		diag.ReportError(b.r, diag.CfgBadKind, sp,
			fmt.Sprintf("unknown dialect `%s`", raw.Dialect.Value)).
			WithNote(sp, "expected `sv` or `vhdl`").
			Emit()
	}
	d.Dialect = dialect

	for i := range raw.Modules {
		if m, ok := b.module(i, &raw.Modules[i]); ok {
			d.Modules = append(d.Modules, m)
		}
	}
	for i := range raw.Packages {
		if p, ok := b.pkg(i, &raw.Packages[i]); ok {
			d.Packages = append(d.Packages, p)
		}
	}
	for i := range raw.Units {
		if u, ok := b.unit(i, &raw.Units[i]); ok {
			d.Units = append(d.Units, u)
		}
	}
	for i := range raw.Instances {
		if inst, ok := b.instance(i, &raw.Instances[i]); ok {
			d.Instances = append(d.Instances, inst)
		}
	}
	return d
}

func (b *builder) fileIdent(id rawIdent) source.Span {
	if id.Line > 0 {
		return b.loc.ident(entModule, -1, id)
	}
	return source.Span{File: b.file.ID}
}

// required resolves a mandatory identifier, reporting it when absent.
func (b *builder) required(kind entity, index int, field string, id rawIdent) (Ident, bool) {
	if strings.TrimSpace(id.Value) == "" {
		diag.ReportError(b.r, diag.CfgMissingField, b.loc.entity(kind, index),
			fmt.Sprintf("%s #%d is missing `%s`", kind, index+1, field)).Emit()
		return Ident{}, false
	}
	return Ident{Name: strings.TrimSpace(id.Value), Span: b.loc.ident(kind, index, id)}, true
}

func (b *builder) module(index int, raw *rawModule) (Module, bool) {
	name, ok := b.required(entModule, index, "name", raw.Name)
	if !ok {
		return Module{}, false
	}
	m := Module{Name: name}
	for _, rp := range raw.Params {
		pname, ok := b.required(entModule, index, "params.name", rp.Name)
		if !ok {
			return Module{}, false
		}
		var kind ParamKind
		switch strings.ToLower(strings.TrimSpace(rp.Kind.Value)) {
		case "type":
			kind = ParamType
		case "", "value":
			kind = ParamValue
		default:
			diag.ReportError(b.r, diag.CfgBadKind, b.loc.ident(entModule, index, rp.Kind),
				fmt.Sprintf("unknown parameter kind `%s`", rp.Kind.Value)).
				WithNote(pname.Span, "expected `type` or `value`").
				Emit()
			return Module{}, false
		}
		m.Params = append(m.Params, Param{Name: pname, Kind: kind})
	}
	return m, true
}

func (b *builder) decls(kind entity, index int, raws []rawDecl) ([]Decl, bool) {
	out := make([]Decl, 0, len(raws))
	for _, rd := range raws {
		name, ok := b.required(kind, index, "decl.name", rd.Name)
		if !ok {
			return nil, false
		}
		decl := Decl{Name: name}
		switch strings.ToLower(strings.TrimSpace(rd.Kind.Value)) {
		case "", "type":
			decl.Kind = DeclType
			if len(rd.Variants) > 0 {
				diag.ReportError(b.r, diag.CfgBadKind, name.Span,
					fmt.Sprintf("type `%s` lists variants but is not an enum", name.Name)).Emit()
				return nil, false
			}
		case "enum":
			decl.Kind = DeclEnum
		default:
			diag.ReportError(b.r, diag.CfgBadKind, b.loc.ident(kind, index, rd.Kind),
				fmt.Sprintf("unknown declaration kind `%s`", rd.Kind.Value)).
				WithNote(name.Span, "expected `type` or `enum`").
				Emit()
			return nil, false
		}
		for _, rv := range rd.Variants {
			v, ok := b.required(kind, index, "decl.variants", rv)
			if !ok {
				return nil, false
			}
			decl.Variants = append(decl.Variants, v)
		}
		out = append(out, decl)
	}
	return out, true
}

func (b *builder) pkg(index int, raw *rawPackage) (Package, bool) {
	name, ok := b.required(entPackage, index, "name", raw.Name)
	if !ok {
		return Package{}, false
	}
	decls, ok := b.decls(entPackage, index, raw.Decls)
	if !ok {
		return Package{}, false
	}
	return Package{Name: name, Decls: decls}, true
}

func (b *builder) unit(index int, raw *rawUnit) (Unit, bool) {
	name, ok := b.required(entUnit, index, "name", raw.Name)
	if !ok {
		return Unit{}, false
	}
	u := Unit{Name: name}
	for _, ri := range raw.Imports {
		imp, ok := b.importPath(index, ri)
		if !ok {
			return Unit{}, false
		}
		u.Imports = append(u.Imports, imp)
	}
	decls, ok := b.decls(entUnit, index, raw.Decls)
	if !ok {
		return Unit{}, false
	}
	u.Decls = decls
	return u, true
}

// importPath parses `pkg::name` or `pkg::*`.
func (b *builder) importPath(index int, ri rawIdent) (Import, bool) {
	span := b.loc.ident(entUnit, index, ri)
	text := ri.Value
	pkg, member, found := strings.Cut(text, "::")
	if !found || strings.TrimSpace(pkg) == "" || strings.TrimSpace(member) == "" || strings.Contains(member, "::") {
		diag.ReportError(b.r, diag.CfgParseError, span,
			fmt.Sprintf("malformed import `%s`", text)).
			WithNote(span, "expected `pkg::name` or `pkg::*`").
			Emit()
		return Import{}, false
	}
	memberAt := len(pkg) + len("::")
	imp := Import{
		Span:    span,
		Package: Ident{Name: strings.TrimSpace(pkg), Span: subSpan(span, text, 0, len(pkg))},
		Member:  Ident{Name: strings.TrimSpace(member), Span: subSpan(span, text, memberAt, len(member))},
	}
	imp.Wildcard = imp.Member.Name == "*"
	return imp, true
}

// subSpan narrows span to text[off:off+n] when span covers exactly text.
func subSpan(span source.Span, text string, off, n int) source.Span {
	if int(span.Len()) != len(text) {
		return span
	}
	start := span.Start + uint32(off) // #nosec G115 -- off is within text
	return source.Span{File: span.File, Start: start, End: start + uint32(n)} // #nosec G115
}

func (b *builder) instance(index int, raw *rawInstance) (Instance, bool) {
	name, ok := b.required(entInstance, index, "name", raw.Name)
	if !ok {
		return Instance{}, false
	}
	module, ok := b.required(entInstance, index, "module", raw.Module)
	if !ok {
		return Instance{}, false
	}
	inst := Instance{Name: name, Module: module}
	for _, rp := range raw.Pos {
		a, ok := b.required(entInstance, index, "pos", rp)
		if !ok {
			return Instance{}, false
		}
		inst.Pos = append(inst.Pos, Arg{Text: a.Name, Span: a.Span})
	}
	for _, rn := range raw.Named {
		param, ok := b.required(entInstance, index, "named.param", rn.Param)
		if !ok {
			return Instance{}, false
		}
		value, ok := b.required(entInstance, index, "named.value", rn.Value)
		if !ok {
			return Instance{}, false
		}
		inst.Named = append(inst.Named, NamedArg{
			Span:  param.Span.Cover(value.Span),
			Param: param,
			Value: Arg{Text: value.Name, Span: value.Span},
		})
	}
	return inst, true
}
