package generator

import (
	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/mapping"
)

// DependencyInformation holds the dependencies of one type being mapped.
// It is computed once, before the type is written.
type DependencyInformation struct {
	ForType MapTypeInfo

	manager     *DependencyManager
	inheritance infoList
	content     infoList
}

// Inheritance returns the base type and the inherited interfaces, base first
func (d *DependencyInformation) Inheritance() []MapTypeInfo {
	return d.inheritance.list()
}

// Content returns the types used by members and elements of the type
func (d *DependencyInformation) Content() []MapTypeInfo {
	return d.content.list()
}

// TypesToMapBeforeType returns the dependencies that must be completely
// mapped before the type's definition: inheritance dependencies and content
// dependencies without forward declaration, in both cases only unmapped ones.
func (d *DependencyInformation) TypesToMapBeforeType() []MapTypeInfo {
	var result infoList
	for _, info := range d.inheritance.items {
		if !d.manager.CheckMapped(info) {
			result.add(info)
		}
	}
	for _, info := range d.content.items {
		if !info.IsForwardDeclPossible() && !d.manager.CheckMapped(info) {
			result.add(info)
		}
	}
	return result.list()
}

// TypesToIncludeBeforeType returns the dependencies whose artifacts must be
// included before the type's definition. A forward declarable dependency is
// included when its definition is already complete.
func (d *DependencyInformation) TypesToIncludeBeforeType() []MapTypeInfo {
	var result infoList
	for _, info := range d.inheritance.items {
		if d.needsInclude(info) {
			result.add(info)
		}
	}
	for _, info := range d.content.items {
		if info.IsForwardDeclPossible() && !d.completed(info) {
			continue
		}
		if d.needsInclude(info) {
			result.add(info)
		}
	}
	return result.list()
}

func (d *DependencyInformation) completed(info MapTypeInfo) bool {
	return d.manager.CheckMapped(info) && !d.manager.IsInProgress(info)
}

func (d *DependencyInformation) needsInclude(info MapTypeInfo) bool {
	if d.manager.IsDefaultMapped(info.Type) {
		return false
	}
	return info.Kind == 0 || info.Kind.HasDefinition()
}

// NeededForwardRefs returns the content dependencies that are declared
// forward before the type's definition: the unmapped ones and the ones whose
// definition is still being written.
func (d *DependencyInformation) NeededForwardRefs() []MapTypeInfo {
	var result infoList
	for _, info := range d.content.items {
		if info.IsForwardDeclPossible() && !d.completed(info) {
			result.add(info)
		}
	}
	return result.list()
}

// DependencyAnalyzer determines the inheritance and content dependencies of types
type DependencyAnalyzer struct {
	manager    *DependencyManager
	classifier *mapping.Classifier

	// anonymousSequences replaces a field's sequence by its element type,
	// since fields reference sequences inline.
	anonymousSequences bool
}

func newDependencyAnalyzer(manager *DependencyManager, anonymousSequences bool) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		manager:            manager,
		classifier:         manager.classifier,
		anonymousSequences: anonymousSequences,
	}
}

// SetAnonymousSequences switches the element substitution for inline sequences
func (a *DependencyAnalyzer) SetAnonymousSequences(enabled bool) {
	a.anonymousSequences = enabled
}

// Analyze computes the dependency information for info
func (a *DependencyAnalyzer) Analyze(info MapTypeInfo) (*DependencyInformation, error) {
	d := &DependencyInformation{ForType: info, manager: a.manager}
	if err := a.inheritanceDependencies(d); err != nil {
		return nil, errors.Wrapf(err, "inheritance dependencies of %s", info.Type.FullName())
	}
	if err := a.contentDependencies(d); err != nil {
		return nil, errors.Wrapf(err, "content dependencies of %s", info.Type.FullName())
	}
	return d, nil
}

func (a *DependencyAnalyzer) inheritanceDependencies(d *DependencyInformation) error {
	if !d.ForType.Kind.SupportsInheritance() {
		return nil
	}
	t := d.ForType.Type
	if base := mapping.MappedBase(t); base != nil {
		if err := a.add(&d.inheritance, d.ForType, base, cls.EmptyAttributes, false); err != nil {
			return err
		}
	}
	for _, iface := range a.classifier.MappedInterfaces(t) {
		if err := a.add(&d.inheritance, d.ForType, iface, cls.EmptyAttributes, false); err != nil {
			return err
		}
	}
	return nil
}

func (a *DependencyAnalyzer) contentDependencies(d *DependencyInformation) error {
	kind := d.ForType.Kind
	t := d.ForType.Type

	if kind.IsInterface() || kind.IsValue() {
		if err := a.methodDependencies(d, kind.IsInterface()); err != nil {
			return err
		}
		for _, p := range t.Properties {
			if err := a.add(&d.content, d.ForType, p.Type, p.Attrs, false); err != nil {
				return err
			}
		}
	}

	switch kind {
	case mapping.KindConcreteValue, mapping.KindStruct, mapping.KindBoxedValue, mapping.KindException:
		for _, f := range t.InstanceFields() {
			if err := a.add(&d.content, d.ForType, f.Type, f.Attrs, a.anonymousSequences); err != nil {
				return err
			}
		}
	case mapping.KindSequence, mapping.KindArray:
		res, err := a.classifier.Classify(t, d.ForType.Attributes)
		if err != nil {
			return err
		}
		return a.add(&d.content, d.ForType, res.Type.Elem, res.Attrs, false)
	}
	return nil
}

func (a *DependencyAnalyzer) methodDependencies(d *DependencyInformation, raises bool) error {
	for _, m := range d.ForType.Type.Methods {
		if m.Private || m.Accessor {
			continue
		}
		if m.Return != nil {
			if err := a.add(&d.content, d.ForType, m.Return, m.ReturnAttrs, false); err != nil {
				return err
			}
		}
		for _, p := range m.Params {
			if err := a.add(&d.content, d.ForType, p.Type, p.Attrs, false); err != nil {
				return err
			}
		}
		if !raises {
			continue
		}
		for _, ex := range m.Raises {
			if err := a.add(&d.content, d.ForType, ex, cls.EmptyAttributes, false); err != nil {
				return err
			}
		}
	}
	if raises {
		// every operation of an interface raises the generic user exception
		info, err := a.manager.Info(cls.GenericUserException, cls.EmptyAttributes)
		if err != nil {
			return err
		}
		d.content.add(info)
	}
	return nil
}

// add normalizes the member type t and appends it to list. With anon, a
// sequence is replaced by its element type, repeatedly for nested sequences.
func (a *DependencyAnalyzer) add(list *infoList, self MapTypeInfo, t *cls.Type, attrs cls.AttributeSet, anon bool) error {
	if t.IsByRef() {
		t = t.Elem
	}
	if a.manager.IsDefaultMapped(t) || t == self.Type {
		return nil
	}

	res, err := a.classifier.Classify(t, attrs)
	if err != nil {
		return err
	}
	for anon && res.Kind == mapping.KindSequence {
		t, attrs = res.Type.Elem, res.Attrs
		if res, err = a.classifier.Classify(t, attrs); err != nil {
			return err
		}
	}

	info := a.manager.infoFor(t, attrs, res)
	if info.Equal(self) || a.manager.IsDefaultMapped(info.Type) {
		return nil
	}
	list.add(info)
	return nil
}
