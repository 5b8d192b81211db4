// Package generator maps CLS type graphs to OMG IDL. It decides for every
// type discovered while mapping whether it has to be fully defined before
// the type that uses it, whether a forward declaration suffices or whether
// an include of an already written artifact is enough, and drives the
// discovered types to a fixpoint.
package generator

import (
	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/mapping"
)

// TypeKey is the structural identity of a MapTypeInfo: the type identity
// combined with the canonical key of the attribute set.
type TypeKey struct {
	typ   *cls.Type
	attrs string
}

// MapTypeInfo is the unit of dependency tracking: a type together with the
// attributes it is used with.
type MapTypeInfo struct {
	Type       *cls.Type
	Attributes cls.AttributeSet
	// Kind is the IDL kind the type maps to with Attributes.
	Kind mapping.Kind

	forwardDeclPossible bool
}

// Key returns the structural key of the info. Kind and forward declaration
// legality are derived and not part of the identity.
func (i MapTypeInfo) Key() TypeKey {
	return TypeKey{typ: i.Type, attrs: i.Attributes.Key()}
}

// Equal reports structural equality
func (i MapTypeInfo) Equal(other MapTypeInfo) bool {
	return i.Key() == other.Key()
}

// IsForwardDeclPossible reports whether IDL allows a forward declaration for
// the type and the type is not already available before generation.
func (i MapTypeInfo) IsForwardDeclPossible() bool {
	return i.forwardDeclPossible
}

func (i MapTypeInfo) String() string {
	if i.Attributes.IsEmpty() {
		return i.Type.FullName()
	}
	return i.Type.FullName() + " " + i.Attributes.String()
}

// infoList is an ordered list of infos without structural duplicates
type infoList struct {
	items []MapTypeInfo
	seen  map[TypeKey]struct{}
}

func (l *infoList) add(info MapTypeInfo) bool {
	if l.seen == nil {
		l.seen = make(map[TypeKey]struct{})
	}
	key := info.Key()
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	l.items = append(l.items, info)
	return true
}

func (l *infoList) contains(info MapTypeInfo) bool {
	_, ok := l.seen[info.Key()]
	return ok
}

func (l *infoList) list() []MapTypeInfo {
	return append([]MapTypeInfo(nil), l.items...)
}
