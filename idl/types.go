// Package idl provides the OMG IDL parse tree and the parser producing it.
// Definitions keep their declaration order, which the compiler relies on
// when it walks a specification.
package idl

import (
	"fmt"
	"strings"
)

// BasicType represents a primitive IDL type
type BasicType string

// IDL Basic Types
const (
	TypeShort      BasicType = "short"
	TypeLong       BasicType = "long"
	TypeLongLong   BasicType = "long long"
	TypeUShort     BasicType = "unsigned short"
	TypeULong      BasicType = "unsigned long"
	TypeULongLong  BasicType = "unsigned long long"
	TypeFloat      BasicType = "float"
	TypeDouble     BasicType = "double"
	TypeLongDouble BasicType = "long double"
	TypeBoolean    BasicType = "boolean"
	TypeChar       BasicType = "char"
	TypeWChar      BasicType = "wchar"
	TypeOctet      BasicType = "octet"
	TypeAny        BasicType = "any"
	TypeString     BasicType = "string"
	TypeWString    BasicType = "wstring"
	TypeVoid       BasicType = "void"
	TypeObject     BasicType = "Object"
	TypeValueBase  BasicType = "ValueBase"
)

// Type is a type reference used in a declaration
type Type interface {
	TypeName() string
}

// Direction represents the parameter direction in IDL operations
type Direction string

// Parameter direction constants
const (
	In    Direction = "in"
	Out   Direction = "out"
	InOut Direction = "inout"
)

// SimpleType represents a basic IDL type
type SimpleType struct {
	Name BasicType
	// Bound of a bounded string or wstring, 0 if unbounded
	Bound int
}

// TypeName returns the IDL type name
func (t *SimpleType) TypeName() string {
	if t.Bound > 0 {
		return fmt.Sprintf("%s<%d>", t.Name, t.Bound)
	}
	return string(t.Name)
}

// SequenceType represents an IDL sequence type
type SequenceType struct {
	ElementType Type
	MaxSize     int // -1 for unbounded
}

// TypeName returns the IDL type name
func (t *SequenceType) TypeName() string {
	if t.MaxSize < 0 {
		return fmt.Sprintf("sequence<%s>", t.ElementType.TypeName())
	}
	return fmt.Sprintf("sequence<%s, %d>", t.ElementType.TypeName(), t.MaxSize)
}

// ScopedType is a reference by name, e.g. A::B::C or ::A::B
type ScopedType struct {
	Name string
}

// TypeName returns the scoped name as written
func (t *ScopedType) TypeName() string {
	return t.Name
}

// FixedType represents fixed<digits, scale>
type FixedType struct {
	Digits int
	Scale  int
}

// TypeName returns the IDL type name
func (t *FixedType) TypeName() string {
	return fmt.Sprintf("fixed<%d, %d>", t.Digits, t.Scale)
}

// Definition is a named declaration in a module, interface or value type
type Definition interface {
	DefName() string
}

// container collects the definitions of a naming scope in declaration order
type container interface {
	addDefinition(Definition)
}

// StructType represents an IDL struct type
type StructType struct {
	Name   string
	Module string
	Fields []StructField
}

// StructField represents a field in an IDL struct or exception
type StructField struct {
	Name string
	Type Type
	// Dims of an array declarator, e.g. long a[2][3]
	Dims []int
}

// DefName returns the struct name
func (t *StructType) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *StructType) TypeName() string { return t.Name }

// ExceptionType represents an IDL exception
type ExceptionType struct {
	Name   string
	Module string
	Fields []StructField
}

// DefName returns the exception name
func (t *ExceptionType) DefName() string { return t.Name }

// EnumType represents an IDL enum type
type EnumType struct {
	Name     string
	Module   string
	Elements []string
}

// DefName returns the enum name
func (t *EnumType) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *EnumType) TypeName() string { return t.Name }

// TypeDef represents an IDL typedef
type TypeDef struct {
	Name     string
	Module   string
	OrigType Type
	// Dims of an array declarator, empty for a plain alias
	Dims []int
}

// DefName returns the alias name
func (t *TypeDef) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *TypeDef) TypeName() string { return t.Name }

// UnionType represents an IDL union type
type UnionType struct {
	Name         string
	Module       string
	Discriminant Type
	Cases        []UnionCase
}

// UnionCase represents a case in an IDL union
type UnionCase struct {
	Labels []string
	Name   string
	Type   Type
}

// DefName returns the union name
func (t *UnionType) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *UnionType) TypeName() string { return t.Name }

// ConstDecl is a constant declaration. The value expression is kept as text.
type ConstDecl struct {
	Name  string
	Type  Type
	Value string
}

// DefName returns the constant name
func (c *ConstDecl) DefName() string { return c.Name }

// InterfaceType represents an IDL interface, a forward declaration when Forward is set
type InterfaceType struct {
	Name       string
	Module     string
	Abstract   bool
	Local      bool
	Forward    bool
	Parents    []string
	Operations []Operation
	Attributes []Attribute
	// Definitions nested in the interface, in declaration order
	Definitions []Definition
	Types       map[string]Definition
}

// DefName returns the interface name
func (t *InterfaceType) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *InterfaceType) TypeName() string { return t.Name }

func (t *InterfaceType) addDefinition(d Definition) {
	t.Definitions = append(t.Definitions, d)
	if d.DefName() == "" {
		return
	}
	if t.Types == nil {
		t.Types = make(map[string]Definition)
	}
	t.Types[d.DefName()] = d
}

// ValueType represents an IDL valuetype, a forward declaration when Forward is set
type ValueType struct {
	Name        string
	Module      string
	Abstract    bool
	Custom      bool
	Forward     bool
	Truncatable bool
	Parents     []string
	Supports    []string
	Members     []StateMember
	Operations  []Operation
	Attributes  []Attribute
	Definitions []Definition
}

// StateMember is a public or private state member of a value type
type StateMember struct {
	Name   string
	Type   Type
	Public bool
	Dims   []int
}

// DefName returns the value type name
func (t *ValueType) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *ValueType) TypeName() string { return t.Name }

func (t *ValueType) addDefinition(d Definition) {
	t.Definitions = append(t.Definitions, d)
}

// ValueBoxType represents a boxed value type, valuetype Name Type;
type ValueBoxType struct {
	Name   string
	Module string
	Boxed  Type
}

// DefName returns the boxed value type name
func (t *ValueBoxType) DefName() string { return t.Name }

// TypeName returns the IDL type name
func (t *ValueBoxType) TypeName() string { return t.Name }

// Operation represents an operation in an IDL interface
type Operation struct {
	Name       string
	ReturnType Type
	Parameters []Parameter
	Raises     []string
	Context    []string
	Oneway     bool
}

// Parameter represents a parameter in an IDL operation
type Parameter struct {
	Name      string
	Type      Type
	Direction Direction
}

// Attribute represents an attribute in an IDL interface
type Attribute struct {
	Name     string
	Type     Type
	Readonly bool
}

// PragmaPrefix is a #pragma prefix directive. An empty prefix ends the prefix region.
type PragmaPrefix struct {
	Prefix string
}

// DefName returns the empty name; pragmas declare nothing
func (p *PragmaPrefix) DefName() string { return "" }

// PragmaID is a #pragma ID directive assigning a repository id to a name
type PragmaID struct {
	Target string
	ID     string
}

// DefName returns the empty name; pragmas declare nothing
func (p *PragmaID) DefName() string { return "" }

// Module represents an IDL module that contains types
type Module struct {
	Name        string
	Parent      *Module
	Definitions []Definition
	Types       map[string]Definition
	Submodules  map[string]*Module
}

// NewModule creates a new IDL module
func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		Types:      make(map[string]Definition),
		Submodules: make(map[string]*Module),
	}
}

// DefName returns the module name
func (m *Module) DefName() string { return m.Name }

func (m *Module) addDefinition(d Definition) {
	m.Definitions = append(m.Definitions, d)
	if d.DefName() == "" {
		return
	}
	if _, isModule := d.(*Module); isModule {
		return
	}
	// a forward declaration does not hide the definition
	if existing, ok := m.Types[d.DefName()]; ok && isForward(d) && !isForward(existing) {
		return
	}
	m.Types[d.DefName()] = d
}

func isForward(d Definition) bool {
	switch def := d.(type) {
	case *InterfaceType:
		return def.Forward
	case *ValueType:
		return def.Forward
	}
	return false
}

// AddSubmodule adds a submodule with the given name
func (m *Module) AddSubmodule(name string) *Module {
	submodule := NewModule(name)
	submodule.Parent = m
	m.Submodules[name] = submodule
	m.addDefinition(submodule)
	return submodule
}

// Reopen starts a new fragment of a module that was closed before. The
// fragment shares the name tables of the module but has its own
// Definitions, so that declaration order across modules is kept.
func (m *Module) Reopen() *Module {
	fragment := &Module{
		Name:       m.Name,
		Parent:     m.Parent,
		Types:      m.Types,
		Submodules: m.Submodules,
	}
	if m.Parent != nil {
		m.Parent.addDefinition(fragment)
	}
	return fragment
}

// GetSubmodule gets a submodule by name
func (m *Module) GetSubmodule(name string) (*Module, bool) {
	submodule, exists := m.Submodules[name]
	return submodule, exists
}

// AddType adds a definition to the module
func (m *Module) AddType(d Definition) {
	m.addDefinition(d)
}

// GetType gets a definition by name
func (m *Module) GetType(name string) (Definition, bool) {
	typ, exists := m.Types[name]
	return typ, exists
}

// FullName returns the fully qualified module name
func (m *Module) FullName() string {
	if m.Parent == nil || m.Parent.Name == "" {
		return m.Name
	}
	return m.Parent.FullName() + "::" + m.Name
}

// Path returns the module path as a slice of names
func (m *Module) Path() []string {
	if m.Name == "" {
		return []string{}
	}
	if m.Parent == nil || m.Parent.Name == "" {
		return []string{m.Name}
	}
	return append(m.Parent.Path(), m.Name)
}

// AllTypes returns all definitions in the module and its submodules keyed by scoped name
func (m *Module) AllTypes() map[string]Definition {
	result := make(map[string]Definition)
	for name, typ := range m.Types {
		result[name] = typ
	}
	for subName, submodule := range m.Submodules {
		for name, typ := range submodule.AllTypes() {
			result[subName+"::"+name] = typ
		}
	}
	return result
}

// Specification is the result of parsing one input unit
type Specification struct {
	// Name identifies the unit, usually the file name
	Name string
	Root *Module
}

// String lists the scoped names of all definitions
func (s *Specification) String() string {
	names := make([]string, 0)
	for name := range s.Root.AllTypes() {
		names = append(names, name)
	}
	return s.Name + ": " + strings.Join(names, ", ")
}
