package cls

import (
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ifabos/go-idlmap/errors"
)

// Manifest is the YAML description of a set of managed types. Type
// references use full names, `[]`/`[,]` array suffixes, a `ref ` prefix for
// by-ref types and the usual aliases (int, string, ...).
type Manifest struct {
	Types []TypeSpec `yaml:"types"`
}

// TypeSpec describes one type in a manifest
type TypeSpec struct {
	Name         string          `yaml:"name"`
	Kind         string          `yaml:"kind"`
	Base         string          `yaml:"base,omitempty"`
	Interfaces   []string        `yaml:"interfaces,omitempty"`
	Serializable bool            `yaml:"serializable,omitempty"`
	Abstract     bool            `yaml:"abstract,omitempty"`
	IdlEntity    bool            `yaml:"idlEntity,omitempty"`
	Attributes   []AttributeSpec `yaml:"attributes,omitempty"`
	Enum         []string        `yaml:"enum,omitempty"`
	Underlying   string          `yaml:"underlying,omitempty"`
	Fields       []FieldSpec     `yaml:"fields,omitempty"`
	Properties   []PropertySpec  `yaml:"properties,omitempty"`
	Methods      []MethodSpec    `yaml:"methods,omitempty"`
}

// AttributeSpec describes one custom attribute
type AttributeSpec struct {
	Kind  string `yaml:"kind"`
	Order int    `yaml:"order,omitempty"`
	Bound int    `yaml:"bound,omitempty"`
	Dims  []int  `yaml:"dims,omitempty,flow"`
	Value string `yaml:"value,omitempty"`
	Wide  bool   `yaml:"wide,omitempty"`
}

// FieldSpec describes a field
type FieldSpec struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Private    bool            `yaml:"private,omitempty"`
	Transient  bool            `yaml:"transient,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty"`
}

// PropertySpec describes a property
type PropertySpec struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	ReadOnly   bool            `yaml:"readonly,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty"`
}

// MethodSpec describes a method
type MethodSpec struct {
	Name             string          `yaml:"name"`
	Returns          string          `yaml:"returns,omitempty"`
	ReturnAttributes []AttributeSpec `yaml:"returnAttributes,omitempty"`
	Params           []ParamSpec     `yaml:"params,omitempty"`
	Raises           []string        `yaml:"raises,omitempty,flow"`
	Context          []string        `yaml:"context,omitempty,flow"`
	OneWay           bool            `yaml:"oneway,omitempty"`
	Private          bool            `yaml:"private,omitempty"`
	Accessor         bool            `yaml:"accessor,omitempty"`
}

// ParamSpec describes a method parameter
type ParamSpec struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Direction  string          `yaml:"direction,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty"`
}

// LoadManifestFile reads a manifest file into u
func LoadManifestFile(path string, u *Universe) ([]*Type, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	defer f.Close()

	types, err := LoadManifest(f, u)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return types, nil
}

// LoadManifest decodes a manifest and adds its types to u. All types are
// declared first and linked afterwards, so references may point forward.
func LoadManifest(r io.Reader, u *Universe) ([]*Type, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to decode manifest")
	}

	// Pass 1: declare
	types := make([]*Type, len(m.Types))
	for i, spec := range m.Types {
		cat, ok := ParseCategory(spec.Kind)
		if !ok || cat == Array || cat == ByRef || cat == Primitive {
			return nil, errors.InvalidInputf("type %s: unknown kind %q", spec.Name, spec.Kind)
		}
		ns, name := splitFullName(spec.Name)
		if name == "" {
			return nil, errors.InvalidInputf("type without name at index %d", i)
		}
		t := &Type{
			Name:         name,
			Namespace:    ns,
			Category:     cat,
			Serializable: spec.Serializable,
			Abstract:     spec.Abstract,
			IdlEntity:    spec.IdlEntity,
			EnumValues:   append([]string(nil), spec.Enum...),
		}
		if err := u.Add(t); err != nil {
			return nil, err
		}
		types[i] = t
	}

	// Pass 2: link
	for i, spec := range m.Types {
		if err := linkType(u, types[i], spec); err != nil {
			return nil, errors.Wrapf(err, "type %s", spec.Name)
		}
	}
	return types, nil
}

func linkType(u *Universe, t *Type, spec TypeSpec) error {
	var err error
	if t.Attributes, err = parseAttributes(spec.Attributes); err != nil {
		return err
	}

	switch {
	case spec.Base != "":
		if t.Base, err = u.Resolve(spec.Base); err != nil {
			return err
		}
	case t.Category == Class:
		t.Base = Object
	case t.Category == Struct:
		t.Base = ValueType
	case t.Category == Enum:
		t.Base = EnumType
	}

	if t.Category == Enum {
		t.EnumUnderlying = Int32
		if spec.Underlying != "" {
			if t.EnumUnderlying, err = u.Resolve(spec.Underlying); err != nil {
				return err
			}
		}
	}

	for _, name := range spec.Interfaces {
		iface, err := u.Resolve(name)
		if err != nil {
			return err
		}
		if !iface.IsInterface() {
			return errors.InvalidInputf("%s is not an interface", name)
		}
		t.Interfaces = append(t.Interfaces, iface)
	}

	for _, fs := range spec.Fields {
		f := &Field{Name: fs.Name, Private: fs.Private, Transient: fs.Transient}
		if f.Type, err = u.Resolve(fs.Type); err != nil {
			return errors.Wrapf(err, "field %s", fs.Name)
		}
		if f.Attrs, err = parseAttributes(fs.Attributes); err != nil {
			return errors.Wrapf(err, "field %s", fs.Name)
		}
		t.Fields = append(t.Fields, f)
	}

	for _, ps := range spec.Properties {
		p := &Property{Name: ps.Name, CanRead: true, CanWrite: !ps.ReadOnly}
		if p.Type, err = u.Resolve(ps.Type); err != nil {
			return errors.Wrapf(err, "property %s", ps.Name)
		}
		if p.Attrs, err = parseAttributes(ps.Attributes); err != nil {
			return errors.Wrapf(err, "property %s", ps.Name)
		}
		t.Properties = append(t.Properties, p)
	}

	for _, ms := range spec.Methods {
		m, err := linkMethod(u, ms)
		if err != nil {
			return errors.Wrapf(err, "method %s", ms.Name)
		}
		t.Methods = append(t.Methods, m)
	}
	return nil
}

func linkMethod(u *Universe, ms MethodSpec) (*Method, error) {
	m := &Method{
		Name:     ms.Name,
		Return:   Void,
		Context:  append([]string(nil), ms.Context...),
		OneWay:   ms.OneWay,
		Private:  ms.Private,
		Accessor: ms.Accessor,
	}
	var err error
	if ms.Returns != "" {
		if m.Return, err = u.Resolve(ms.Returns); err != nil {
			return nil, err
		}
	}
	if m.ReturnAttrs, err = parseAttributes(ms.ReturnAttributes); err != nil {
		return nil, err
	}
	for _, ps := range ms.Params {
		p := &Param{Name: ps.Name, Direction: In}
		if ps.Direction != "" {
			p.Direction = Direction(ps.Direction)
		}
		switch p.Direction {
		case In, Out, InOut:
		default:
			return nil, errors.InvalidInputf("parameter %s: unknown direction %q", ps.Name, ps.Direction)
		}
		if p.Type, err = u.Resolve(ps.Type); err != nil {
			return nil, err
		}
		if p.Attrs, err = parseAttributes(ps.Attributes); err != nil {
			return nil, err
		}
		m.Params = append(m.Params, p)
	}
	for _, name := range ms.Raises {
		ex, err := u.Resolve(name)
		if err != nil {
			return nil, err
		}
		m.Raises = append(m.Raises, ex)
	}
	return m, nil
}

func parseAttributes(specs []AttributeSpec) (AttributeSet, error) {
	if len(specs) == 0 {
		return EmptyAttributes, nil
	}
	attrs := make([]Attribute, 0, len(specs))
	for _, s := range specs {
		kind, ok := ParseAttributeKind(s.Kind)
		if !ok {
			return EmptyAttributes, errors.InvalidInputf("unknown attribute kind %q", s.Kind)
		}
		attrs = append(attrs, Attribute{
			Kind:  kind,
			Order: s.Order,
			Bound: s.Bound,
			Dims:  append([]int(nil), s.Dims...),
			Value: s.Value,
			Wide:  s.Wide,
		})
	}
	return NewAttributeSet(attrs...), nil
}

// Resolve parses a type reference
func (u *Universe) Resolve(ref string) (*Type, error) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, "ref "); ok {
		elem, err := u.Resolve(rest)
		if err != nil {
			return nil, err
		}
		return u.ByRefOf(elem), nil
	}

	idx := strings.IndexByte(ref, '[')
	if idx < 0 {
		t, ok := u.Lookup(ref)
		if !ok {
			return nil, errors.InvalidInputf("unknown type %q", ref)
		}
		return t, nil
	}

	t, err := u.Resolve(ref[:idx])
	if err != nil {
		return nil, err
	}
	suffix := ref[idx:]
	for suffix != "" {
		end := strings.IndexByte(suffix, ']')
		if suffix[0] != '[' || end < 0 {
			return nil, errors.InvalidInputf("malformed array type %q", ref)
		}
		inner := suffix[1:end]
		if strings.Trim(inner, ",") != "" {
			return nil, errors.InvalidInputf("malformed array type %q", ref)
		}
		t = u.ArrayOf(t, len(inner)+1)
		suffix = suffix[end+1:]
	}
	return t, nil
}

// RefName returns the manifest reference for t
func RefName(t *Type) string {
	switch t.Category {
	case ByRef:
		return "ref " + RefName(t.Elem)
	case Array:
		return RefName(t.Elem) + arraySuffix(t.Rank)
	}
	return t.FullName()
}

func splitFullName(full string) (ns, name string) {
	idx := strings.LastIndexByte(full, '.')
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}

// SaveManifest writes types in manifest format
func SaveManifest(w io.Writer, types []*Type) error {
	m := Manifest{Types: make([]TypeSpec, 0, len(types))}
	for _, t := range types {
		m.Types = append(m.Types, specFor(t))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&m); err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	return enc.Close()
}

func specFor(t *Type) TypeSpec {
	spec := TypeSpec{
		Name:         t.FullName(),
		Kind:         t.Category.String(),
		Serializable: t.Serializable,
		Abstract:     t.Abstract,
		IdlEntity:    t.IdlEntity,
		Attributes:   attributeSpecs(t.Attributes),
		Enum:         t.EnumValues,
	}
	if t.Base != nil && !isDefaultBase(t) {
		spec.Base = RefName(t.Base)
	}
	if t.Category == Enum && t.EnumUnderlying != nil && t.EnumUnderlying != Int32 {
		spec.Underlying = RefName(t.EnumUnderlying)
	}
	for _, i := range t.Interfaces {
		spec.Interfaces = append(spec.Interfaces, RefName(i))
	}
	for _, f := range t.Fields {
		spec.Fields = append(spec.Fields, FieldSpec{
			Name:       f.Name,
			Type:       RefName(f.Type),
			Private:    f.Private,
			Transient:  f.Transient,
			Attributes: attributeSpecs(f.Attrs),
		})
	}
	for _, p := range t.Properties {
		spec.Properties = append(spec.Properties, PropertySpec{
			Name:       p.Name,
			Type:       RefName(p.Type),
			ReadOnly:   !p.CanWrite,
			Attributes: attributeSpecs(p.Attrs),
		})
	}
	for _, m := range t.Methods {
		ms := MethodSpec{
			Name:             m.Name,
			ReturnAttributes: attributeSpecs(m.ReturnAttrs),
			Context:          m.Context,
			OneWay:           m.OneWay,
			Private:          m.Private,
			Accessor:         m.Accessor,
		}
		if m.Return != nil && m.Return != Void {
			ms.Returns = RefName(m.Return)
		}
		for _, p := range m.Params {
			ps := ParamSpec{Name: p.Name, Type: RefName(p.Type), Attributes: attributeSpecs(p.Attrs)}
			if p.Direction != In {
				ps.Direction = string(p.Direction)
			}
			ms.Params = append(ms.Params, ps)
		}
		for _, r := range m.Raises {
			ms.Raises = append(ms.Raises, RefName(r))
		}
		spec.Methods = append(spec.Methods, ms)
	}
	return spec
}

func isDefaultBase(t *Type) bool {
	switch t.Category {
	case Class:
		return t.Base == Object
	case Struct:
		return t.Base == ValueType
	case Enum:
		return t.Base == EnumType
	}
	return false
}

func attributeSpecs(s AttributeSet) []AttributeSpec {
	if s.IsEmpty() {
		return nil
	}
	var out []AttributeSpec
	for _, a := range s.All() {
		out = append(out, AttributeSpec{
			Kind:  a.Kind.String(),
			Order: a.Order,
			Bound: a.Bound,
			Dims:  a.Dims,
			Value: a.Value,
			Wide:  a.Wide,
		})
	}
	return out
}
