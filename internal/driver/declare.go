package driver

import (
	"fmt"

	"hdlelab/internal/design"
	"hdlelab/internal/diag"
	"hdlelab/internal/hir"
	"hdlelab/internal/scope"
	"hdlelab/internal/session"
	"hdlelab/internal/source"
)

// declare builds the node store from the loaded designs. Modules are keyed
// by interned name, so under VHDL `Fifo` and `FIFO` collide.
func declare(sess *session.Session, designs []*design.Design) *declarations {
	store := sess.Store()
	strs := sess.Strings()
	r := sess.Reporter()

	d := &declarations{modules: make(map[source.StringID]hir.NodeID)}
	firstSpan := make(map[source.StringID]source.Span)
	for _, des := range designs {
		for i := range des.Modules {
			m := &des.Modules[i]
			name := strs.Intern(m.Name.Name)
			if prev, ok := firstSpan[name]; ok {
				diag.ReportError(r, diag.CfgDuplicateEntity, m.Name.Span,
					fmt.Sprintf("module `%s` declared more than once", m.Name.Name)).
					WithNote(prev, "first declared here").
					Emit()
				continue
			}
			firstSpan[name] = m.Name.Span
			d.modules[name] = declareModule(sess, m)
		}
		for i := range des.Packages {
			p := &des.Packages[i]
			node := store.AddPackage(strs.Intern(p.Name.Name), p.Name.Span)
			d.packages = append(d.packages, declaredPackage{
				pkg:   p,
				node:  node,
				decls: declareDecls(sess, node, p.Decls),
			})
		}
		for i := range des.Units {
			u := &des.Units[i]
			d.units = append(d.units, declaredUnit{unit: u, decls: declareDecls(sess, hir.NoNodeID, u.Decls)})
		}
		for i := range des.Instances {
			d.instances = append(d.instances, &des.Instances[i])
		}
	}
	return d
}

func declareModule(sess *session.Session, m *design.Module) hir.NodeID {
	store := sess.Store()
	strs := sess.Strings()
	id := store.AddModule(strs.Intern(m.Name.Name), m.Name.Span)
	seen := make(map[source.StringID]source.Span, len(m.Params))
	for _, p := range m.Params {
		name := strs.Intern(p.Name.Name)
		if prev, ok := seen[name]; ok {
			diag.ReportError(sess.Reporter(), diag.CfgDuplicateEntity, p.Name.Span,
				fmt.Sprintf("parameter `%s` declared more than once in module `%s`", p.Name.Name, m.Name.Name)).
				WithNote(prev, "first declared here").
				Emit()
			continue
		}
		seen[name] = p.Name.Span
		kind := hir.KindValueParam
		if p.Kind == design.ParamType {
			kind = hir.KindTypeParam
		}
		store.AddParam(id, kind, name, p.Name.Span)
	}
	return id
}

func declareDecls(sess *session.Session, owner hir.NodeID, decls []design.Decl) []declaredDecl {
	store := sess.Store()
	strs := sess.Strings()
	out := make([]declaredDecl, 0, len(decls))
	for i := range decls {
		decl := &decls[i]
		node := store.AddDecl(owner, hir.KindTypeDecl, strs.Intern(decl.Name.Name), decl.Name.Span)
		dd := declaredDecl{decl: decl, node: node}
		for _, v := range decl.Variants {
			dd.variants = append(dd.variants, store.AddDecl(node, hir.KindEnumVariant, strs.Intern(v.Name), v.Span))
		}
		out = append(out, dd)
	}
	return out
}

// populateScopes enters packages and units into a fresh scope tree. Packages
// go first so unit imports can see all of them regardless of file order.
func (res *Result) populateScopes(d *declarations) {
	sess := res.Session
	strs := sess.Strings()
	tree := scope.NewTree()
	root := tree.NewRoot()
	res.Scopes, res.Root = tree, root

	pkgScopes := make(map[source.StringID]scope.ScopeID, len(d.packages))
	for _, p := range d.packages {
		name := strs.Intern(p.pkg.Name.Name)
		if err := tree.Define(sess, root, name, p.pkg.Name.Span, scope.Definition{Kind: scope.DefPackage, Node: p.node}); err != nil {
			continue
		}
		sc := tree.NewChild(root)
		pkgScopes[name] = sc
		res.Packages = append(res.Packages, UnitScope{Name: p.pkg.Name.Name, Span: p.pkg.Name.Span, Scope: sc})
		defineDecls(sess, tree, sc, p.decls)
	}

	for _, u := range d.units {
		sc := tree.NewChild(root)
		res.Units = append(res.Units, UnitScope{Name: u.unit.Name.Name, Span: u.unit.Name.Span, Scope: sc})
		for _, imp := range u.unit.Imports {
			importInto(sess, tree, sc, pkgScopes, imp)
		}
		defineDecls(sess, tree, sc, u.decls)
	}
}

// defineDecls enters each declaration and its enum variants. Conflicts are
// reported by Define and do not stop the walk.
func defineDecls(sess *session.Session, tree *scope.Tree, sc scope.ScopeID, decls []declaredDecl) {
	strs := sess.Strings()
	for _, dd := range decls {
		_ = tree.Define(sess, sc, strs.Intern(dd.decl.Name.Name), dd.decl.Name.Span,
			scope.Definition{Kind: scope.DefType, Node: dd.node})
		for i, v := range dd.decl.Variants {
			_ = tree.Define(sess, sc, strs.Intern(v.Name), v.Span,
				scope.Definition{Kind: scope.DefEnumVariant, Node: dd.variants[i]})
		}
	}
}

func importInto(sess *session.Session, tree *scope.Tree, sc scope.ScopeID, pkgScopes map[source.StringID]scope.ScopeID, imp design.Import) {
	strs := sess.Strings()
	pkg, ok := pkgScopes[strs.Intern(imp.Package.Name)]
	if !ok {
		diag.ReportError(sess.Reporter(), diag.ScopeUnknownPackage, imp.Package.Span,
			fmt.Sprintf("unknown package `%s`", imp.Package.Name)).Emit()
		return
	}
	if imp.Wildcard {
		tree.ImportScope(sc, pkg)
		return
	}
	member := strs.Intern(imp.Member.Name)
	entries := tree.Defs(pkg, member)
	if len(entries) == 0 {
		diag.ReportError(sess.Reporter(), diag.ScopeUnknownMember, imp.Member.Span,
			fmt.Sprintf("no member `%s` in package `%s`", imp.Member.Name, imp.Package.Name)).Emit()
		return
	}
	for _, e := range entries {
		tree.ImportDef(sc, member, imp.Span, e.Def)
	}
}
