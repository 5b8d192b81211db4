// Package symtab holds the scopes and symbols encountered in an IDL
// specification. The compiler builds the table in a first pass and uses it
// to name and identify the types it creates in the second pass.
package symtab

import (
	"strings"

	"github.com/ifabos/go-idlmap/mapping"
)

// SymbolKind is the kind of declaration a symbol stands for
type SymbolKind int

// Symbol kinds
const (
	// Forward is a forward declaration without a definition yet
	Forward SymbolKind = iota
	// Definition is a full type definition
	Definition
	// Typedef is an alias introduced by typedef
	Typedef
	// Value is a constant or an enumerator
	Value
)

func (k SymbolKind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Definition:
		return "definition"
	case Typedef:
		return "typedef"
	case Value:
		return "value"
	}
	return "unknown"
}

// Symbol is a name declared in a scope
type Symbol struct {
	name  string
	kind  SymbolKind
	scope *Scope
}

// Name returns the unqualified IDL name
func (s *Symbol) Name() string {
	return s.name
}

// Kind returns the symbol kind
func (s *Symbol) Kind() SymbolKind {
	return s.kind
}

// DeclaredIn returns the scope the symbol is declared in
func (s *Symbol) DeclaredIn() *Scope {
	return s.scope
}

// IsForward reports whether only a forward declaration was seen so far
func (s *Symbol) IsForward() bool {
	return s.kind == Forward
}

// TypeScope returns the scope opened for the members of the type the
// symbol defines, if any
func (s *Symbol) TypeScope() (*Scope, bool) {
	return s.scope.ChildScope(s.name)
}

// RepositoryID returns the #pragma ID of the symbol or the derived id
func (s *Symbol) RepositoryID() string {
	return s.scope.RepositoryID(s)
}

// ConstructRepositoryID derives the repository id from the declaring scopes.
// A pragma ID set for the symbol is not considered, see Scope.RepositoryID.
func (s *Symbol) ConstructRepositoryID() string {
	return mapping.RepositoryIDFor(splitPath(s.scope.repositoryIDPart()), stripEscape(s.name))
}

// FullName returns the CLS full name of the type the symbol declares
func (s *Symbol) FullName() string {
	full, _ := s.scope.FullyQualifiedName(s.name)
	return full
}

// ScopedName returns the absolute scoped IDL name, e.g. ::a::b::Name
func (s *Symbol) ScopedName() string {
	var parts []string
	for sc := s.scope; sc != nil && sc.parent != nil; sc = sc.parent {
		if sc.pragma {
			continue
		}
		parts = append([]string{sc.name}, parts...)
	}
	return "::" + strings.Join(append(parts, s.name), "::")
}

func (s *Symbol) String() string {
	return s.kind.String() + " " + s.ScopedName()
}

func stripEscape(name string) string {
	return strings.TrimPrefix(name, "_")
}

func splitPath(part string) []string {
	if part == "" {
		return nil
	}
	return strings.Split(part, "/")
}
