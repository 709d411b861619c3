// Package scope holds the declaration scope tree used while elaborating a
// design.
//
// Scopes live in a Tree arena and are addressed by ScopeID. A scope records
// its own definitions, definitions imported by name (`import p::x`) and
// whole scopes imported by identity (`import p::*`). Passes that walk
// declarations populate the tree through Define, ImportDef and ImportScope;
// consumers read it back through the accessor methods.
//
// Name lookup across own, imported and ancestor scopes is not provided here.
package scope
