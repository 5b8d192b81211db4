package compiler

import (
	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
)

// TypeBuilder is the handle of a type under construction. The wrapped
// *cls.Type is created once and keeps its identity when a forward
// declared type is completed, so references taken from the stub stay valid.
type TypeBuilder struct {
	t        *cls.Type
	complete bool
}

func newTypeBuilder(namespace, name string, category cls.Category) *TypeBuilder {
	return &TypeBuilder{t: &cls.Type{
		Name:      name,
		Namespace: namespace,
		Category:  category,
		IdlEntity: true,
	}}
}

// Type returns the type being built
func (b *TypeBuilder) Type() *cls.Type {
	return b.t
}

// IsComplete reports whether Complete was called
func (b *TypeBuilder) IsComplete() bool {
	return b.complete
}

func (b *TypeBuilder) checkOpen(what string) error {
	if b.complete {
		return errors.Invariantf("%s on completed type %s", what, b.t.FullName())
	}
	return nil
}

// SetBase sets the base class
func (b *TypeBuilder) SetBase(base *cls.Type) error {
	if err := b.checkOpen("set base"); err != nil {
		return err
	}
	b.t.Base = base
	return nil
}

// AddInterface adds an implemented interface; adding one twice has no effect
func (b *TypeBuilder) AddInterface(iface *cls.Type) error {
	if err := b.checkOpen("add interface"); err != nil {
		return err
	}
	for _, existing := range b.t.Interfaces {
		if existing == iface {
			return nil
		}
	}
	b.t.Interfaces = append(b.t.Interfaces, iface)
	return nil
}

// AddAttribute attaches a custom attribute to the type
func (b *TypeBuilder) AddAttribute(attr cls.Attribute) error {
	if err := b.checkOpen("add attribute"); err != nil {
		return err
	}
	b.t.Attributes = b.t.Attributes.With(attr)
	return nil
}

// AddMethod adds a method
func (b *TypeBuilder) AddMethod(m *cls.Method) error {
	if err := b.checkOpen("add method"); err != nil {
		return err
	}
	b.t.Methods = append(b.t.Methods, m)
	return nil
}

// AddField adds an instance field
func (b *TypeBuilder) AddField(f *cls.Field) error {
	if err := b.checkOpen("add field"); err != nil {
		return err
	}
	b.t.Fields = append(b.t.Fields, f)
	return nil
}

// AddProperty adds a property
func (b *TypeBuilder) AddProperty(p *cls.Property) error {
	if err := b.checkOpen("add property"); err != nil {
		return err
	}
	b.t.Properties = append(b.t.Properties, p)
	return nil
}

// Complete finalizes the type; it is immutable afterwards
func (b *TypeBuilder) Complete() *cls.Type {
	b.complete = true
	return b.t
}
