package mapping

import (
	"strconv"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
)

// Result is the outcome of classifying a type in an attribute context
type Result struct {
	Kind Kind
	// Type is the type the kind applies to. It differs from the classified
	// type for by-ref unwrapping, custom mappings, boxed values and strings.
	Type *cls.Type
	// Attrs are the attributes left after the classification consumed its own.
	// For sequences and arrays they apply to the element type.
	Attrs cls.AttributeSet
	// Bound is the sequence bound, 0 for unbounded.
	Bound int
	// Dims are the fixed array dimensions.
	Dims []int
	// Wide is the wchar/wstring choice for chars and strings.
	Wide bool
	// Custom is set when a custom mapping replaced the type.
	Custom *CustomMapping
}

// Classifier determines the IDL kind of managed types
type Classifier struct {
	universe        *cls.Universe
	plugin          *Plugin
	wideCharDefault bool
}

// NewClassifier creates a classifier. Boxed array types are created in u.
func NewClassifier(u *cls.Universe, plugin *Plugin, wideCharDefault bool) *Classifier {
	return &Classifier{universe: u, plugin: plugin, wideCharDefault: wideCharDefault}
}

// Universe returns the universe the classifier resolves types in
func (c *Classifier) Universe() *cls.Universe {
	return c.universe
}

// Plugin returns the custom mapping registry
func (c *Classifier) Plugin() *Plugin {
	return c.plugin
}

// Classify determines the kind of t used with the attributes attrs
func (c *Classifier) Classify(t *cls.Type, attrs cls.AttributeSet) (Result, error) {
	if t.IsByRef() {
		t = t.Elem
	}

	res := Result{Type: t, Attrs: attrs}
	if m, ok := c.plugin.MappingForCls(t); ok {
		res.Custom = m
		res.Type = m.IdlType
		t = m.IdlType
	}

	rest, boxedAttr, boxed := attrs.Remove(cls.AttrBoxedValue)
	if boxed {
		boxedType, ok := c.universe.LookupByRepositoryID(boxedAttr.Value)
		if !ok {
			return res, errors.InvalidInputf("boxed value type %s for %s not found", boxedAttr.Value, t.FullName())
		}
		res.Kind, res.Type, res.Attrs = KindBoxedValue, boxedType, rest
		return res, nil
	}

	switch {
	case t.IsInterface() && t != cls.TypeCode:
		kind, err := interfaceKind(t)
		if err != nil {
			return res, err
		}
		res.Kind = kind
	case t.IsMarshalByRef():
		res.Kind = KindConcreteInterface
	case t == cls.String:
		return c.classifyString(res)
	case t.Category == cls.Primitive:
		return c.classifyPrimitive(res)
	case t.Category == cls.Enum:
		res.Kind = KindEnum
		if t.Attributes.Has(cls.AttrFlags) {
			res.Kind = KindFlags
		}
	case t.IsArray():
		return c.classifyArray(res)
	case t.DerivesFrom(cls.BoxedValueBase):
		res.Kind = KindBoxedValue
	case t == cls.Exception || t.DerivesFrom(cls.Exception):
		res.Kind = KindException
	case t.Attributes.Has(cls.AttrIdlStruct):
		res.Kind = KindStruct
	case t.Attributes.Has(cls.AttrIdlUnion):
		res.Kind = KindUnion
	case t == cls.Object:
		return classifyObject(res)
	case t == cls.TypeType || t.DerivesFrom(cls.TypeType):
		res.Kind = KindTypeDesc
	case t == cls.TypeCode:
		res.Kind = KindTypeCode
	case isConcreteValue(t):
		res.Kind = KindConcreteValue
	default:
		res.Kind = KindAbstractValue
	}
	return res, nil
}

func interfaceKind(t *cls.Type) (Kind, error) {
	attrs := t.Attributes.GetAll(cls.AttrInterfaceType)
	if len(attrs) > 1 {
		return 0, errors.InvalidInputf("interface %s has more than one InterfaceType attribute", t.FullName())
	}
	if len(attrs) == 0 {
		return KindAbstractInterface, nil
	}
	switch attrs[0].Value {
	case cls.InterfaceAbstract, "":
		return KindAbstractInterface, nil
	case cls.InterfaceConcrete:
		return KindConcreteInterface, nil
	case cls.InterfaceLocal:
		return KindLocalInterface, nil
	case cls.InterfaceAbstractValue:
		return KindAbstractValue, nil
	}
	return 0, errors.InvalidInputf("interface %s: unknown InterfaceType %q", t.FullName(), attrs[0].Value)
}

// isConcreteValue: serializable or a MarshalByValueComponent, and not abstract
// unless the type comes from IDL.
func isConcreteValue(t *cls.Type) bool {
	if !t.IdlEntity && t.Abstract {
		return false
	}
	return t.Serializable || t == cls.MarshalByValueComponent || t.DerivesFrom(cls.MarshalByValueComponent)
}

func (c *Classifier) useWide(res *Result) {
	res.Wide = c.wideCharDefault
	rest, attr, ok := res.Attrs.Remove(cls.AttrWideChar)
	if ok {
		res.Wide = attr.Wide
		res.Attrs = rest
	}
}

func (c *Classifier) classifyPrimitive(res Result) (Result, error) {
	if res.Type == cls.Char {
		c.useWide(&res)
	}
	if _, ok := PrimitiveName(res.Type, res.Wide); !ok {
		return res, errors.Invariantf("%s is not a mappable primitive type", res.Type.FullName())
	}
	res.Kind = KindPrimitive
	return res, nil
}

// strings map to the primitive only with a StringValue attribute; otherwise
// to the boxed WStringValue / StringValue types.
func (c *Classifier) classifyString(res Result) (Result, error) {
	c.useWide(&res)
	rest, _, asPrimitive := res.Attrs.Remove(cls.AttrStringValue)
	if asPrimitive {
		res.Attrs = rest
		res.Kind = KindPrimitive
		return res, nil
	}
	if res.Wide {
		res.Kind, res.Type = KindWStringValue, cls.WStringValue
	} else {
		res.Kind, res.Type = KindStringValue, cls.StringValue
	}
	return res, nil
}

func classifyObject(res Result) (Result, error) {
	rest, attr, ok := res.Attrs.Remove(cls.AttrObjectIdlType)
	res.Kind = KindAny
	if !ok {
		return res, nil
	}
	res.Attrs = rest
	switch attr.Value {
	case cls.ObjectAsAny, "":
		res.Kind = KindAny
	case cls.ObjectAsAbstractBase:
		res.Kind = KindAbstractBase
	case cls.ObjectAsValueBase:
		res.Kind = KindValueBase
	default:
		return res, errors.InvalidInputf("unknown ObjectIdlType %q", attr.Value)
	}
	return res, nil
}

// highestMappingAttr returns the kind of the highest order sequence or array attribute
func highestMappingAttr(attrs cls.AttributeSet) (cls.AttributeKind, bool) {
	seq, hasSeq := attrs.Get(cls.AttrIdlSequence)
	arr, hasArr := attrs.Get(cls.AttrIdlArray)
	switch {
	case hasSeq && hasArr:
		if arr.Order > seq.Order {
			return cls.AttrIdlArray, true
		}
		return cls.AttrIdlSequence, true
	case hasSeq:
		return cls.AttrIdlSequence, true
	case hasArr:
		return cls.AttrIdlArray, true
	}
	return 0, false
}

func (c *Classifier) classifyArray(res Result) (Result, error) {
	kind, ok := highestMappingAttr(res.Attrs)
	if !ok {
		boxed, err := c.BoxedArrayType(res.Type)
		if err != nil {
			return res, err
		}
		res.Kind, res.Type = KindBoxedValue, boxed
		return res, nil
	}

	rest, attr, _ := res.Attrs.Remove(kind)
	res.Attrs = rest
	if kind == cls.AttrIdlSequence {
		res.Kind, res.Bound = KindSequence, attr.Bound
		return res, nil
	}
	if len(attr.Dims) != res.Type.Rank {
		return res, errors.InvalidInputf("array %s: %d dimensions declared for rank %d", res.Type.FullName(), len(attr.Dims), res.Type.Rank)
	}
	res.Kind, res.Dims = KindArray, append([]int(nil), attr.Dims...)
	return res, nil
}

// BoxedArrayType returns the boxed value type wrapping a plain array, creating
// it on first use. Jagged arrays nest sequences; multi-dimensional arrays
// are rejected.
func (c *Classifier) BoxedArrayType(arr *cls.Type) (*cls.Type, error) {
	depth := 0
	elem := arr
	for elem.IsArray() {
		if elem.Rank > 1 {
			return nil, errors.Unsupportedf("multi-dimensional array %s needs an IdlArray attribute", arr.FullName())
		}
		depth++
		elem = elem.Elem
	}

	elemName := elem.Name
	ns := BoxedArrayNamespace
	if prim, ok := PrimitiveName(elem, true); ok {
		elemName = flattenReference(prim)
	} else if elem.Namespace != "" {
		ns += "." + elem.Namespace
	}
	name := "seq" + strconv.Itoa(depth) + "_" + elemName

	if t, ok := c.universe.Lookup(ns + "." + name); ok {
		return t, nil
	}

	seqAttrs := make([]cls.Attribute, depth)
	for i := range seqAttrs {
		seqAttrs[i] = cls.SequenceAttr(i, 0)
	}
	if elem == cls.String {
		seqAttrs = append(seqAttrs, cls.Attribute{Kind: cls.AttrStringValue})
	}
	boxed := &cls.Type{
		Name:         name,
		Namespace:    ns,
		Category:     cls.Class,
		Base:         cls.BoxedValueBase,
		Serializable: true,
		Fields: []*cls.Field{{
			Name:  "m_val",
			Type:  arr,
			Attrs: cls.NewAttributeSet(seqAttrs...),
		}},
	}
	if err := c.universe.Add(boxed); err != nil {
		return nil, err
	}
	return boxed, nil
}
