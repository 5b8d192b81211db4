package mapping

import (
	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
)

// IsUniversalRoot reports whether t is a root of the managed hierarchy that is
// never mapped as an IDL base type.
func IsUniversalRoot(t *cls.Type) bool {
	switch t {
	case cls.Object, cls.ValueType, cls.EnumType,
		cls.MarshalByValueComponent, cls.MarshalByRefObject, cls.Exception:
		return true
	}
	return false
}

// CanInheritInterface reports whether the relation "implementor implements
// iface" is expressible in IDL:
//   - an abstract interface only inherits abstract interfaces
//   - a concrete interface inherits abstract and concrete interfaces
//   - local interfaces and value types inherit abstract, concrete and local interfaces
func (c *Classifier) CanInheritInterface(iface, implementor *cls.Type) bool {
	if !iface.IsInterface() {
		return false
	}
	parent, err := c.Classify(iface, cls.EmptyAttributes)
	if err != nil {
		return false
	}
	child, err := c.Classify(implementor, cls.EmptyAttributes)
	if err != nil {
		return false
	}
	switch child.Kind {
	case KindAbstractInterface:
		return parent.Kind == KindAbstractInterface
	case KindConcreteInterface:
		return parent.Kind == KindAbstractInterface || parent.Kind == KindConcreteInterface
	case KindLocalInterface, KindAbstractValue, KindConcreteValue:
		return parent.Kind.IsInterface()
	}
	return false
}

// MappedInterfaces returns the interfaces of t that are expressible as IDL
// inheritance, in declaration order.
func (c *Classifier) MappedInterfaces(t *cls.Type) []*cls.Type {
	var out []*cls.Type
	for _, iface := range t.Interfaces {
		if c.CanInheritInterface(iface, t) {
			out = append(out, iface)
		}
	}
	return out
}

// MappedBase returns the base type of t that takes part in IDL inheritance, if any
func MappedBase(t *cls.Type) *cls.Type {
	if t.Base == nil || IsUniversalRoot(t.Base) {
		return nil
	}
	return t.Base
}

// ValidateBase rejects inheritance relations IDL cannot express
func (c *Classifier) ValidateBase(t *cls.Type, kind Kind) error {
	base := MappedBase(t)
	if base == nil {
		return nil
	}
	res, err := c.Classify(base, cls.EmptyAttributes)
	if err != nil {
		return err
	}
	switch kind {
	case KindAbstractValue:
		if res.Kind == KindConcreteValue {
			return errors.InvalidInputf("abstract value type %s can not inherit from concrete value type %s", t.FullName(), base.FullName())
		}
	case KindConcreteValue:
		if !res.Kind.IsValue() {
			return errors.InvalidInputf("value type %s has base %s which is a %s", t.FullName(), base.FullName(), res.Kind)
		}
	case KindConcreteInterface:
		if res.Kind != KindConcreteInterface {
			return errors.InvalidInputf("interface %s has base %s which is a %s", t.FullName(), base.FullName(), res.Kind)
		}
	}
	return nil
}
