// Package mapping holds the collaborators of the CLS to IDL mapping: the
// kind classifier, the naming rules, the custom mapping plugin registry and
// the inheritance legality rules.
package mapping

// Kind is the IDL construct a managed type maps to
type Kind int

// Mapping kinds
const (
	KindStruct Kind = iota + 1
	KindUnion
	KindAbstractInterface
	KindConcreteInterface
	KindLocalInterface
	KindConcreteValue
	KindAbstractValue
	KindBoxedValue
	KindSequence
	KindArray
	KindException
	KindEnum
	KindFlags
	KindPrimitive
	KindAny
	KindAbstractBase
	KindValueBase
	KindStringValue
	KindWStringValue
	KindTypeCode
	KindTypeDesc
	KindUnmappable
)

var kindNames = map[Kind]string{
	KindStruct:            "struct",
	KindUnion:             "union",
	KindAbstractInterface: "abstract interface",
	KindConcreteInterface: "interface",
	KindLocalInterface:    "local interface",
	KindConcreteValue:     "valuetype",
	KindAbstractValue:     "abstract valuetype",
	KindBoxedValue:        "boxed valuetype",
	KindSequence:          "sequence",
	KindArray:             "array",
	KindException:         "exception",
	KindEnum:              "enum",
	KindFlags:             "flags",
	KindPrimitive:         "primitive",
	KindAny:               "any",
	KindAbstractBase:      "abstract base",
	KindValueBase:         "value base",
	KindStringValue:       "string value",
	KindWStringValue:      "wstring value",
	KindTypeCode:          "typecode",
	KindTypeDesc:          "type desc",
	KindUnmappable:        "unmappable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SupportsForwardDecl reports whether IDL allows a forward declaration for the kind
func (k Kind) SupportsForwardDecl() bool {
	switch k {
	case KindConcreteValue, KindAbstractValue,
		KindConcreteInterface, KindAbstractInterface, KindLocalInterface:
		return true
	}
	return false
}

// SupportsInheritance reports whether the kind has inheritance dependencies
func (k Kind) SupportsInheritance() bool {
	switch k {
	case KindConcreteValue, KindAbstractValue,
		KindConcreteInterface, KindAbstractInterface, KindLocalInterface:
		return true
	}
	return false
}

// IsInterface reports whether the kind is one of the interface kinds
func (k Kind) IsInterface() bool {
	return k == KindConcreteInterface || k == KindAbstractInterface || k == KindLocalInterface
}

// IsValue reports whether the kind is a concrete or abstract value type
func (k Kind) IsValue() bool {
	return k == KindConcreteValue || k == KindAbstractValue
}

// HasDefinition reports whether a type of the kind gets its own IDL artifact
func (k Kind) HasDefinition() bool {
	switch k {
	case KindStruct, KindUnion,
		KindAbstractInterface, KindConcreteInterface, KindLocalInterface,
		KindConcreteValue, KindAbstractValue, KindBoxedValue,
		KindSequence, KindArray, KindException, KindEnum:
		return true
	}
	return false
}
