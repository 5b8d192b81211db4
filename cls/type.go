// Package cls describes the managed (CLS) side of the mapping: types,
// their members and the custom attributes that steer the IDL mapping.
package cls

import (
	"strings"
)

// Category is the reflective category of a managed type
type Category int

// Type categories
const (
	Class Category = iota
	Struct
	Interface
	Enum
	Array
	ByRef
	Primitive
)

var categoryNames = map[Category]string{
	Class:     "class",
	Struct:    "struct",
	Interface: "interface",
	Enum:      "enum",
	Array:     "array",
	ByRef:     "byref",
	Primitive: "primitive",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory returns the category with the given name
func ParseCategory(name string) (Category, bool) {
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// Direction represents the parameter direction of a method parameter
type Direction string

// Parameter direction constants
const (
	In    Direction = "in"
	Out   Direction = "out"
	InOut Direction = "inout"
)

// Type describes a managed type. A *Type pointer is the identity of the type;
// derived types (arrays, by-ref) are interned by the Universe.
type Type struct {
	Name       string
	Namespace  string
	Category   Category
	Base       *Type
	Interfaces []*Type
	Methods    []*Method
	Properties []*Property
	Fields     []*Field

	// Elem is the element type of an array or the referenced type of a by-ref type.
	Elem *Type
	// Rank is the number of array dimensions; jagged arrays nest Elem.
	Rank int

	EnumValues     []string
	EnumUnderlying *Type

	Serializable bool
	Abstract     bool
	// IdlEntity marks types that carry their own IDL definition.
	IdlEntity bool

	Attributes AttributeSet
}

// Method is a declared method of a type
type Method struct {
	Name        string
	Return      *Type
	ReturnAttrs AttributeSet
	Params      []*Param
	Raises      []*Type
	Context     []string
	OneWay      bool
	Private     bool
	// Accessor marks property and event accessors, which are not mapped as operations.
	Accessor bool
}

// Param is a method parameter
type Param struct {
	Name      string
	Type      *Type
	Direction Direction
	Attrs     AttributeSet
}

// Field is a declared instance field
type Field struct {
	Name      string
	Type      *Type
	Attrs     AttributeSet
	Private   bool
	Transient bool
}

// Property is a declared property
type Property struct {
	Name     string
	Type     *Type
	Attrs    AttributeSet
	CanRead  bool
	CanWrite bool
}

// FullName returns the namespace qualified name of the type
func (t *Type) FullName() string {
	switch t.Category {
	case Array:
		return t.Elem.FullName() + arraySuffix(t.Rank)
	case ByRef:
		return t.Elem.FullName() + "&"
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *Type) String() string {
	return t.FullName()
}

func arraySuffix(rank int) string {
	if rank <= 1 {
		return "[]"
	}
	return "[" + strings.Repeat(",", rank-1) + "]"
}

// IsArray reports whether t is an array type
func (t *Type) IsArray() bool {
	return t.Category == Array
}

// IsByRef reports whether t is a by-ref type
func (t *Type) IsByRef() bool {
	return t.Category == ByRef
}

// IsInterface reports whether t is an interface type
func (t *Type) IsInterface() bool {
	return t.Category == Interface
}

// IsValueType reports whether t has value semantics in the managed runtime
func (t *Type) IsValueType() bool {
	return t.Category == Struct || t.Category == Enum || t.Category == Primitive
}

// IsClass reports whether t is a reference class
func (t *Type) IsClass() bool {
	return t.Category == Class
}

// DerivesFrom reports whether other is a strict ancestor of t in the base class chain
func (t *Type) DerivesFrom(other *Type) bool {
	for b := t.Base; b != nil; b = b.Base {
		if b == other {
			return true
		}
	}
	return false
}

// IsMarshalByRef reports whether instances of t are passed by reference
func (t *Type) IsMarshalByRef() bool {
	return t == MarshalByRefObject || t.DerivesFrom(MarshalByRefObject)
}

// Implements reports whether t implements iface directly or through its bases
// and inherited interfaces.
func (t *Type) Implements(iface *Type) bool {
	for cur := t; cur != nil; cur = cur.Base {
		for _, i := range cur.Interfaces {
			if i == iface || i.Implements(iface) {
				return true
			}
		}
	}
	return false
}

// RepositoryID returns the repository id of the type: the value of a
// RepositoryID attribute or one derived from the namespace.
func (t *Type) RepositoryID() string {
	if attr, ok := t.Attributes.Get(AttrRepositoryID); ok && attr.Value != "" {
		return attr.Value
	}
	var b strings.Builder
	b.WriteString("IDL:")
	if t.Namespace != "" {
		b.WriteString(strings.ReplaceAll(t.Namespace, ".", "/"))
		b.WriteString("/")
	}
	b.WriteString(t.Name)
	b.WriteString(":1.0")
	return b.String()
}

// FindMethod returns the declared method with the given name and parameter types
func (t *Type) FindMethod(name string, params []*Param) *Method {
	for _, m := range t.Methods {
		if m.Name == name && sameParamTypes(m.Params, params) {
			return m
		}
	}
	return nil
}

func sameParamTypes(a, b []*Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

// InstanceFields returns the fields that are part of the serialized state
func (t *Type) InstanceFields() []*Field {
	fields := make([]*Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if !f.Transient {
			fields = append(fields, f)
		}
	}
	return fields
}
