package symtab

import (
	"sort"
	"strings"

	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/mapping"
)

// nestedSuffix is appended to the name of a type scope to form the namespace
// of types nested in it that cannot be nested in the CLS type itself
const nestedSuffix = "_package"

// Scope is a naming scope: the file scope, a module, a type or a
// #pragma prefix region.
type Scope struct {
	name     string
	parent   *Scope
	children map[string]*Scope
	order    []*Scope

	symbols     map[string]*Symbol
	symbolOrder []*Symbol

	pragmas   map[string]string
	inherited []*Scope

	typeScope bool
	pragma    bool
}

func newScope(name string, parent *Scope, typeScope, pragma bool) *Scope {
	s := &Scope{
		name:      name,
		parent:    parent,
		children:  make(map[string]*Scope),
		symbols:   make(map[string]*Symbol),
		pragmas:   make(map[string]string),
		typeScope: typeScope,
		pragma:    pragma,
	}
	if parent != nil {
		parent.children[name] = s
		parent.order = append(parent.order, s)
	}
	return s
}

// Name returns the unqualified scope name
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the enclosing scope, nil for the top scope
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsTypeScope reports whether the scope belongs to a type (interface,
// value type, struct, union or exception)
func (s *Scope) IsTypeScope() bool {
	return s.typeScope
}

// IsPragmaScope reports whether the scope was opened by #pragma prefix
func (s *Scope) IsPragmaScope() bool {
	return s.pragma
}

// Children returns the child scopes in declaration order
func (s *Scope) Children() []*Scope {
	return append([]*Scope(nil), s.order...)
}

// ChildScope returns the child scope with the given name. Pragma scopes are
// transparent: children of a pragma child scope are found as well.
func (s *Scope) ChildScope(name string) (*Scope, bool) {
	if child, ok := s.children[name]; ok {
		return child, true
	}
	for _, child := range s.order {
		if !child.pragma {
			continue
		}
		if found, ok := child.ChildScope(name); ok {
			return found, true
		}
	}
	return nil, false
}

// AddSymbol adds a full definition. A forward declaration of the same name is
// replaced; any other existing symbol is a redefinition.
func (s *Scope) AddSymbol(name string) (*Symbol, error) {
	if existing, ok := s.symbols[name]; ok && existing.kind != Forward {
		return nil, errors.InvalidInputf("symbol redefined: %s in scope %s", name, s.path())
	}
	return s.put(name, Definition), nil
}

// AddValueSymbol adds a constant or enumerator
func (s *Scope) AddValueSymbol(name string) (*Symbol, error) {
	if _, ok := s.symbols[name]; ok {
		return nil, errors.InvalidInputf("symbol redefined: %s in scope %s", name, s.path())
	}
	return s.put(name, Value), nil
}

// AddForward adds a forward declaration. More than one forward declaration
// is allowed, and a forward declaration after the definition is ignored.
func (s *Scope) AddForward(name string) *Symbol {
	if existing, ok := s.symbols[name]; ok {
		return existing
	}
	return s.put(name, Forward)
}

// AddTypedef adds an alias
func (s *Scope) AddTypedef(name string) (*Symbol, error) {
	if _, ok := s.symbols[name]; ok {
		return nil, errors.InvalidInputf("typedef %s not possible in scope %s, this type already exists", name, s.path())
	}
	return s.put(name, Typedef), nil
}

func (s *Scope) put(name string, kind SymbolKind) *Symbol {
	sym, ok := s.symbols[name]
	if ok {
		sym.kind = kind
		return sym
	}
	sym = &Symbol{name: name, kind: kind, scope: s}
	s.symbols[name] = sym
	s.symbolOrder = append(s.symbolOrder, sym)
	return sym
}

// Symbol returns the symbol declared in this scope
func (s *Scope) Symbol(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Symbols returns the symbols of this scope in declaration order
func (s *Scope) Symbols() []*Symbol {
	return append([]*Symbol(nil), s.symbolOrder...)
}

// AddInheritedScope records the scope of a base interface or value type,
// which is searched when resolving names inside this scope
func (s *Scope) AddInheritedScope(base *Scope) {
	for _, existing := range s.inherited {
		if existing == base {
			return
		}
	}
	s.inherited = append(s.inherited, base)
}

// InheritedScopes returns the scopes added with AddInheritedScope
func (s *Scope) InheritedScopes() []*Scope {
	return append([]*Scope(nil), s.inherited...)
}

// AddPragmaID assigns a repository id to a name of this scope. Assigning
// the same id again is allowed, a different id is an error.
func (s *Scope) AddPragmaID(name, id string) error {
	if existing, ok := s.pragmas[name]; ok && existing != id {
		return errors.InvalidInputf("pragma id error, id redefined: %s; last value: %s, redef: %s", name, existing, id)
	}
	s.pragmas[name] = id
	return nil
}

// RepositoryIDFor returns the id assigned with #pragma ID, if any
func (s *Scope) RepositoryIDFor(name string) (string, bool) {
	id, ok := s.pragmas[name]
	return id, ok
}

// RepositoryID returns the repository id of a symbol of this scope: the
// #pragma ID when present, the id derived from the scopes otherwise.
func (s *Scope) RepositoryID(sym *Symbol) string {
	if id, ok := s.pragmas[sym.name]; ok {
		return id
	}
	return sym.ConstructRepositoryID()
}

// repositoryIDPart returns the scope path used in repository ids. A pragma
// scope replaces everything above it with the prefix.
func (s *Scope) repositoryIDPart() string {
	if s.parent == nil {
		return ""
	}
	if s.pragma {
		return s.name
	}
	part := stripEscape(s.name)
	if parent := s.parent.repositoryIDPart(); parent != "" {
		return parent + "/" + part
	}
	return part
}

// namespaceName is the CLS name of this scope inside a namespace; type
// scopes contribute their nested name
func (s *Scope) namespaceName() string {
	if s.typeScope {
		return mapping.IdlToClsName(s.name + nestedSuffix)
	}
	return mapping.IdlToClsName(s.name)
}

// Namespace returns the fully qualified CLS namespace for types declared in this scope
func (s *Scope) Namespace() string {
	var parts []string
	for sc := s; sc.parent != nil; sc = sc.parent {
		parts = append([]string{sc.namespaceName()}, parts...)
	}
	return strings.Join(parts, ".")
}

// FullyQualifiedName returns the CLS full name of a symbol declared in this scope
func (s *Scope) FullyQualifiedName(name string) (string, error) {
	if _, ok := s.symbols[name]; !ok {
		return "", errors.Invariantf("error in scope %s, symbol with name: %s not found", s.path(), name)
	}
	clsName := mapping.IdlToClsName(name)
	if ns := s.Namespace(); ns != "" {
		return ns + "." + clsName, nil
	}
	return clsName, nil
}

// FullyQualifiedNameForNested returns the CLS full name of a type declared
// inside the type defined by name, e.g. mod.Name_package.Inner
func (s *Scope) FullyQualifiedNameForNested(name, nested string) (string, error) {
	full, err := s.FullyQualifiedName(name)
	if err != nil {
		return "", err
	}
	return full + nestedSuffix + "." + mapping.IdlToClsName(nested), nil
}

// CheckAllForwardsComplete fails if a symbol of this scope or of a nested
// scope was only forward declared
func (s *Scope) CheckAllForwardsComplete() error {
	if fwd := s.ForwardOnly(); len(fwd) > 0 {
		return errors.InvalidInputf("type only forward declared: %s", fwd[0].ScopedName())
	}
	return nil
}

// ForwardOnly returns the symbols of this scope and its nested scopes that
// have no definition, in declaration order
func (s *Scope) ForwardOnly() []*Symbol {
	var result []*Symbol
	for _, sym := range s.symbolOrder {
		if sym.kind == Forward {
			result = append(result, sym)
		}
	}
	for _, child := range s.order {
		result = append(result, child.ForwardOnly()...)
	}
	return result
}

// lookupLocal finds name among the symbols of this scope and its pragma children
func (s *Scope) lookupLocal(name string) (*Symbol, bool) {
	if sym, ok := s.symbols[name]; ok {
		return sym, true
	}
	for _, child := range s.order {
		if child.pragma {
			if sym, ok := child.lookupLocal(name); ok {
				return sym, true
			}
		}
	}
	return nil, false
}

// lookupInherited searches the inherited scopes depth first
func (s *Scope) lookupInherited(name string, seen map[*Scope]bool) (*Symbol, bool) {
	for _, base := range s.inherited {
		if seen[base] {
			continue
		}
		seen[base] = true
		if sym, ok := base.lookupLocal(name); ok {
			return sym, true
		}
		if sym, ok := base.lookupInherited(name, seen); ok {
			return sym, true
		}
	}
	return nil, false
}

// findScope resolves the first component of a scoped name to a scope,
// searching outwards from s
func (s *Scope) findScope(name string) (*Scope, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if child, ok := sc.ChildScope(name); ok {
			return child, true
		}
	}
	return nil, false
}

// Resolve looks up a possibly scoped IDL name (a::b, ::a::b) as seen from
// this scope. Unqualified names are searched in this scope, its inherited
// scopes and then the enclosing scopes.
func (s *Scope) Resolve(scopedName string) (*Symbol, bool) {
	start := s
	name := scopedName
	if strings.HasPrefix(name, "::") {
		start = s.top()
		name = name[2:]
	}
	parts := strings.Split(name, "::")
	if len(parts) == 1 {
		for sc := start; sc != nil; sc = sc.parent {
			if sym, ok := sc.lookupLocal(name); ok {
				return sym, true
			}
			if sym, ok := sc.lookupInherited(name, make(map[*Scope]bool)); ok {
				return sym, true
			}
			if start != s {
				break
			}
		}
		return nil, false
	}

	var sc *Scope
	var ok bool
	if start != s {
		sc, ok = start.ChildScope(parts[0])
	} else {
		sc, ok = s.findScope(parts[0])
	}
	if !ok {
		return nil, false
	}
	for _, part := range parts[1 : len(parts)-1] {
		if sc, ok = sc.ChildScope(part); !ok {
			return nil, false
		}
	}
	last := parts[len(parts)-1]
	if sym, ok := sc.lookupLocal(last); ok {
		return sym, true
	}
	return sc.lookupInherited(last, make(map[*Scope]bool))
}

func (s *Scope) top() *Scope {
	sc := s
	for sc.parent != nil {
		sc = sc.parent
	}
	return sc
}

func (s *Scope) path() string {
	if s.parent == nil {
		return "::"
	}
	var parts []string
	for sc := s; sc.parent != nil; sc = sc.parent {
		parts = append([]string{sc.name}, parts...)
	}
	return strings.Join(parts, "::")
}

func (s *Scope) String() string {
	var b strings.Builder
	s.dump(&b, 0)
	return b.String()
}

func (s *Scope) dump(b *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	b.WriteString(pad + "scope " + s.path() + "\n")
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(pad + "  " + s.symbols[name].kind.String() + " " + name + "\n")
	}
	for _, child := range s.order {
		child.dump(b, indent+1)
	}
}
