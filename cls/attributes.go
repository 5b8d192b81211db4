package cls

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AttributeKind identifies a mapping relevant custom attribute
type AttributeKind int

// Attribute kinds
const (
	AttrIdlSequence AttributeKind = iota + 1
	AttrIdlArray
	AttrBoxedValue
	AttrWideChar
	AttrStringValue
	AttrObjectIdlType
	AttrInterfaceType
	AttrIdlStruct
	AttrIdlUnion
	AttrIdlEnum
	AttrRepositoryID
	AttrFlags
)

var attributeKindNames = map[AttributeKind]string{
	AttrIdlSequence:   "sequence",
	AttrIdlArray:      "array",
	AttrBoxedValue:    "boxedValue",
	AttrWideChar:      "wideChar",
	AttrStringValue:   "stringValue",
	AttrObjectIdlType: "objectIdlType",
	AttrInterfaceType: "interfaceType",
	AttrIdlStruct:     "struct",
	AttrIdlUnion:      "union",
	AttrIdlEnum:       "enum",
	AttrRepositoryID:  "repositoryId",
	AttrFlags:         "flags",
}

func (k AttributeKind) String() string {
	if name, ok := attributeKindNames[k]; ok {
		return name
	}
	return "attr(" + strconv.Itoa(int(k)) + ")"
}

// ParseAttributeKind returns the attribute kind with the given name
func ParseAttributeKind(name string) (AttributeKind, bool) {
	for k, n := range attributeKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Values of the InterfaceType attribute
const (
	InterfaceAbstract      = "abstract"
	InterfaceConcrete      = "concrete"
	InterfaceLocal         = "local"
	InterfaceAbstractValue = "abstractValue"
)

// Values of the ObjectIdlType attribute
const (
	ObjectAsAny          = "any"
	ObjectAsAbstractBase = "abstractBase"
	ObjectAsValueBase    = "valueBase"
)

// Attribute is a custom attribute on a type or member. Only the fields
// relevant to its kind are set.
type Attribute struct {
	Kind AttributeKind
	// Order distinguishes nested sequence attributes; the highest order is the outermost.
	Order int
	// Bound is the sequence bound, 0 for unbounded.
	Bound int
	// Dims are the fixed array dimensions.
	Dims []int
	// Value carries the repository id, interface kind or object mapping.
	Value string
	// Wide selects wchar/wstring for WideChar attributes.
	Wide bool
}

// SequenceAttr returns an IdlSequence attribute
func SequenceAttr(order, bound int) Attribute {
	return Attribute{Kind: AttrIdlSequence, Order: order, Bound: bound}
}

// ArrayAttr returns an IdlArray attribute
func ArrayAttr(order int, dims ...int) Attribute {
	return Attribute{Kind: AttrIdlArray, Order: order, Dims: append([]int(nil), dims...)}
}

// InterfaceTypeAttr returns an InterfaceType attribute
func InterfaceTypeAttr(value string) Attribute {
	return Attribute{Kind: AttrInterfaceType, Value: value}
}

// RepositoryIDAttr returns a RepositoryID attribute
func RepositoryIDAttr(id string) Attribute {
	return Attribute{Kind: AttrRepositoryID, Value: id}
}

// BoxedValueAttr returns a BoxedValue attribute referencing the boxed type's repository id
func BoxedValueAttr(repositoryID string) Attribute {
	return Attribute{Kind: AttrBoxedValue, Value: repositoryID}
}

// WideCharAttr returns a WideChar attribute
func WideCharAttr(wide bool) Attribute {
	return Attribute{Kind: AttrWideChar, Wide: wide}
}

func (a Attribute) String() string {
	var parts []string
	if a.Order != 0 {
		parts = append(parts, fmt.Sprintf("order=%d", a.Order))
	}
	if a.Bound != 0 {
		parts = append(parts, fmt.Sprintf("bound=%d", a.Bound))
	}
	if len(a.Dims) > 0 {
		dims := make([]string, len(a.Dims))
		for i, d := range a.Dims {
			dims[i] = strconv.Itoa(d)
		}
		parts = append(parts, "dims="+strings.Join(dims, "x"))
	}
	if a.Value != "" {
		parts = append(parts, "value="+a.Value)
	}
	if a.Kind == AttrWideChar {
		parts = append(parts, "wide="+strconv.FormatBool(a.Wide))
	}
	if len(parts) == 0 {
		return a.Kind.String()
	}
	return a.Kind.String() + "(" + strings.Join(parts, ",") + ")"
}

// AttributeSet is an immutable collection of attributes. Operations that
// change the set return a new set.
type AttributeSet struct {
	attrs []Attribute
}

// EmptyAttributes is the empty attribute set
var EmptyAttributes = AttributeSet{}

// NewAttributeSet returns a set holding copies of attrs
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	if len(attrs) == 0 {
		return EmptyAttributes
	}
	return AttributeSet{attrs: append([]Attribute(nil), attrs...)}
}

// Len returns the number of attributes in the set
func (s AttributeSet) Len() int {
	return len(s.attrs)
}

// IsEmpty reports whether the set holds no attributes
func (s AttributeSet) IsEmpty() bool {
	return len(s.attrs) == 0
}

// All returns a copy of the attributes
func (s AttributeSet) All() []Attribute {
	return append([]Attribute(nil), s.attrs...)
}

// Has reports whether an attribute of the kind is present
func (s AttributeSet) Has(kind AttributeKind) bool {
	_, ok := s.Get(kind)
	return ok
}

// Get returns the highest order attribute of the kind
func (s AttributeSet) Get(kind AttributeKind) (Attribute, bool) {
	idx := s.indexOf(kind)
	if idx < 0 {
		return Attribute{}, false
	}
	return s.attrs[idx], true
}

// GetAll returns all attributes of the kind in declaration order
func (s AttributeSet) GetAll(kind AttributeKind) []Attribute {
	var out []Attribute
	for _, a := range s.attrs {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func (s AttributeSet) indexOf(kind AttributeKind) int {
	idx := -1
	for i, a := range s.attrs {
		if a.Kind == kind && (idx < 0 || a.Order > s.attrs[idx].Order) {
			idx = i
		}
	}
	return idx
}

// Remove returns the set without the highest order attribute of the kind,
// together with the removed attribute.
func (s AttributeSet) Remove(kind AttributeKind) (AttributeSet, Attribute, bool) {
	idx := s.indexOf(kind)
	if idx < 0 {
		return s, Attribute{}, false
	}
	rest := make([]Attribute, 0, len(s.attrs)-1)
	rest = append(rest, s.attrs[:idx]...)
	rest = append(rest, s.attrs[idx+1:]...)
	return NewAttributeSet(rest...), s.attrs[idx], true
}

// With returns the set extended by a
func (s AttributeSet) With(a Attribute) AttributeSet {
	return NewAttributeSet(append(s.All(), a)...)
}

// Key returns a canonical, order independent representation of the set.
// Two sets with equal keys are structurally equal.
func (s AttributeSet) Key() string {
	if len(s.attrs) == 0 {
		return ""
	}
	parts := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		parts[i] = a.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Equal reports structural equality of two sets
func (s AttributeSet) Equal(other AttributeSet) bool {
	return s.Key() == other.Key()
}

func (s AttributeSet) String() string {
	return "[" + s.Key() + "]"
}
