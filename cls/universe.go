package cls

import (
	"github.com/ifabos/go-idlmap/errors"
)

func builtin(ns, name string, cat Category, base *Type) *Type {
	return &Type{Name: name, Namespace: ns, Category: cat, Base: base}
}

// Builtin types shared by every universe. They must not be modified.
var (
	Object    = builtin("System", "Object", Class, nil)
	ValueType = builtin("System", "ValueType", Class, Object)
	EnumType  = builtin("System", "Enum", Class, ValueType)

	Void    = builtin("System", "Void", Primitive, ValueType)
	Boolean = builtin("System", "Boolean", Primitive, ValueType)
	Byte    = builtin("System", "Byte", Primitive, ValueType)
	SByte   = builtin("System", "SByte", Primitive, ValueType)
	Int16   = builtin("System", "Int16", Primitive, ValueType)
	Int32   = builtin("System", "Int32", Primitive, ValueType)
	Int64   = builtin("System", "Int64", Primitive, ValueType)
	UInt16  = builtin("System", "UInt16", Primitive, ValueType)
	UInt32  = builtin("System", "UInt32", Primitive, ValueType)
	UInt64  = builtin("System", "UInt64", Primitive, ValueType)
	Single  = builtin("System", "Single", Primitive, ValueType)
	Double  = builtin("System", "Double", Primitive, ValueType)
	Char    = builtin("System", "Char", Primitive, ValueType)

	String                  = builtin("System", "String", Class, Object)
	TypeType                = builtin("System", "Type", Class, Object)
	Exception               = builtin("System", "Exception", Class, Object)
	MarshalByRefObject      = builtin("System", "MarshalByRefObject", Class, Object)
	MarshalByValueComponent = builtin("System.ComponentModel", "MarshalByValueComponent", Class, Object)

	TypeCode             = builtin("omg.org.CORBA", "TypeCode", Interface, nil)
	BoxedValueBase       = builtin("omg.org.CORBA", "BoxedValueBase", Class, Object)
	StringValue          = builtin("omg.org.CORBA", "StringValue", Class, BoxedValueBase)
	WStringValue         = builtin("omg.org.CORBA", "WStringValue", Class, BoxedValueBase)
	GenericUserException = builtin("Ch.Elca.Iiop", "GenericUserException", Class, Exception)
)

func init() {
	Exception.Serializable = true
	BoxedValueBase.Abstract = true
	BoxedValueBase.Serializable = true
	StringValue.Serializable = true
	WStringValue.Serializable = true
	GenericUserException.Serializable = true
	StringValue.Fields = []*Field{{Name: "m_val", Type: String, Attrs: NewAttributeSet(Attribute{Kind: AttrStringValue}, WideCharAttr(false))}}
	WStringValue.Fields = []*Field{{Name: "m_val", Type: String, Attrs: NewAttributeSet(Attribute{Kind: AttrStringValue}, WideCharAttr(true))}}
	EnumType.Abstract = true
}

// Builtins returns all builtin types
func Builtins() []*Type {
	return []*Type{
		Object, ValueType, EnumType,
		Void, Boolean, Byte, SByte, Int16, Int32, Int64, UInt16, UInt32, UInt64, Single, Double, Char,
		String, TypeType, Exception, MarshalByRefObject, MarshalByValueComponent,
		TypeCode, BoxedValueBase, StringValue, WStringValue, GenericUserException,
	}
}

// aliases accepted in type references
var aliases = map[string]*Type{
	"void":   Void,
	"bool":   Boolean,
	"byte":   Byte,
	"sbyte":  SByte,
	"short":  Int16,
	"int":    Int32,
	"long":   Int64,
	"ushort": UInt16,
	"uint":   UInt32,
	"ulong":  UInt64,
	"float":  Single,
	"double": Double,
	"char":   Char,
	"string": String,
	"object": Object,
}

type arrayKey struct {
	elem *Type
	rank int
}

// Universe owns a set of managed types, keyed by full name. It interns
// derived array and by-ref types so that type identity is pointer identity.
type Universe struct {
	types  map[string]*Type
	order  []*Type
	arrays map[arrayKey]*Type
	byRefs map[*Type]*Type
}

// NewUniverse creates a universe that knows the builtin types
func NewUniverse() *Universe {
	u := &Universe{
		types:  make(map[string]*Type),
		arrays: make(map[arrayKey]*Type),
		byRefs: make(map[*Type]*Type),
	}
	for _, t := range Builtins() {
		u.types[t.FullName()] = t
	}
	return u
}

// Add registers a user type. Adding a second type with the same full name fails.
func (u *Universe) Add(t *Type) error {
	if t.Category == Array || t.Category == ByRef {
		return errors.InvalidInputf("derived type %s cannot be added, use ArrayOf or ByRefOf", t.FullName())
	}
	name := t.FullName()
	if _, exists := u.types[name]; exists {
		return errors.InvalidInputf("type %s already defined", name)
	}
	u.types[name] = t
	u.order = append(u.order, t)
	return nil
}

// Lookup finds a type by full name or alias
func (u *Universe) Lookup(name string) (*Type, bool) {
	if t, ok := aliases[name]; ok {
		return t, true
	}
	t, ok := u.types[name]
	return t, ok
}

// LookupByRepositoryID finds a user type by its repository id
func (u *Universe) LookupByRepositoryID(id string) (*Type, bool) {
	for _, t := range u.order {
		if t.RepositoryID() == id {
			return t, true
		}
	}
	for _, t := range Builtins() {
		if t.RepositoryID() == id {
			return t, true
		}
	}
	return nil, false
}

// Types returns the user types in insertion order
func (u *Universe) Types() []*Type {
	return append([]*Type(nil), u.order...)
}

// ArrayOf returns the interned array type with the given element type and rank
func (u *Universe) ArrayOf(elem *Type, rank int) *Type {
	if rank < 1 {
		rank = 1
	}
	key := arrayKey{elem: elem, rank: rank}
	if t, ok := u.arrays[key]; ok {
		return t
	}
	t := &Type{Name: elem.Name + arraySuffix(rank), Namespace: elem.Namespace, Category: Array, Base: Object, Elem: elem, Rank: rank}
	u.arrays[key] = t
	return t
}

// ByRefOf returns the interned by-ref type for elem
func (u *Universe) ByRefOf(elem *Type) *Type {
	if t, ok := u.byRefs[elem]; ok {
		return t
	}
	t := &Type{Name: elem.Name + "&", Namespace: elem.Namespace, Category: ByRef, Elem: elem}
	u.byRefs[elem] = t
	return t
}
