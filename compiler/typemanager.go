package compiler

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/logger"
)

// TypeRef is a resolved type together with the attributes a use of it
// needs, e.g. the sequence attribute of a typedef'd sequence
type TypeRef struct {
	Type  *cls.Type
	Attrs cls.AttributeSet
}

// TypeManager keeps track of the types of one compilation unit. A type is
// either in creation (forward declared or being defined) or fully defined;
// the move from in creation to fully defined is one way.
type TypeManager struct {
	module       *cls.Universe
	buildModules []*cls.Universe
	refs         *RefLibraries

	defined     map[string]*TypeBuilder
	inCreation  map[string]*TypeBuilder
	fwdDeclared map[string]bool
	typedefs    map[string]TypeRef
	// types visible to their own sequence members while being defined
	published map[string]*cls.Type

	order []*cls.Type
	log   *zap.SugaredLogger
}

// NewTypeManager creates the type manager of a unit adding its completed
// types to module. buildModules hold the types completed by earlier units.
func NewTypeManager(module *cls.Universe, buildModules []*cls.Universe, refs *RefLibraries) *TypeManager {
	return &TypeManager{
		module:       module,
		buildModules: buildModules,
		refs:         refs,
		defined:      make(map[string]*TypeBuilder),
		inCreation:   make(map[string]*TypeBuilder),
		fwdDeclared:  make(map[string]bool),
		typedefs:     make(map[string]TypeRef),
		published:    make(map[string]*cls.Type),
		log:          logger.Named("typemanager"),
	}
}

// Module returns the universe completed types are added to
func (m *TypeManager) Module() *cls.Universe {
	return m.module
}

func fullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// IsFwdDeclared reports whether the type is forward declared and its
// definition was not started yet
func (m *TypeManager) IsFwdDeclared(full string) bool {
	return m.fwdDeclared[full]
}

// IsTypeFullyDeclared reports whether the type is completed in this unit
func (m *TypeManager) IsTypeFullyDeclared(full string) bool {
	_, ok := m.defined[full]
	return ok
}

// RegisterTypeFwdDecl creates the builder of a forward declared type.
// Repeated forward declarations return the same builder.
func (m *TypeManager) RegisterTypeFwdDecl(namespace, name string, category cls.Category) (*TypeBuilder, error) {
	full := fullName(namespace, name)
	if m.IsTypeFullyDeclared(full) {
		return nil, errors.Invariantf("type %s already declared", full)
	}
	if b, ok := m.inCreation[full]; ok {
		if !m.fwdDeclared[full] {
			return nil, errors.Invariantf("forward declaration of %s while it is being defined", full)
		}
		if b.t.Category != category {
			return nil, errors.InvalidInputf("forward declarations of %s disagree on the kind of type", full)
		}
		return b, nil
	}
	b := newTypeBuilder(namespace, name, category)
	m.inCreation[full] = b
	m.fwdDeclared[full] = true
	m.log.Debugw("forward declared", logger.FieldType, full)
	return b, nil
}

// IncompleteForward returns the builder of a forward declared type
func (m *TypeManager) IncompleteForward(full string) (*TypeBuilder, bool) {
	if !m.fwdDeclared[full] {
		return nil, false
	}
	return m.inCreation[full], true
}

// ReplaceFwdDeclWithFullDecl starts the definition of a forward declared
// type. The returned builder is the one created for the forward declaration.
func (m *TypeManager) ReplaceFwdDeclWithFullDecl(full string, category cls.Category) (*TypeBuilder, error) {
	b, ok := m.IncompleteForward(full)
	if !ok {
		return nil, errors.Invariantf("type %s is not forward declared", full)
	}
	if b.t.Category != category {
		return nil, errors.InvalidInputf("definition of %s does not match its forward declaration", full)
	}
	delete(m.fwdDeclared, full)
	return b, nil
}

// StartTypeDefinition returns the builder for the definition of a type:
// the forward declared one if there is one, a new one otherwise. The type
// stays in creation until EndTypeDefinition.
func (m *TypeManager) StartTypeDefinition(namespace, name string, category cls.Category) (*TypeBuilder, error) {
	full := fullName(namespace, name)
	if m.IsTypeFullyDeclared(full) {
		return nil, errors.Invariantf("type %s already defined", full)
	}
	if m.IsFwdDeclared(full) {
		return m.ReplaceFwdDeclWithFullDecl(full, category)
	}
	if _, ok := m.inCreation[full]; ok {
		return nil, errors.Invariantf("type %s is already being defined", full)
	}
	b := newTypeBuilder(namespace, name, category)
	m.inCreation[full] = b
	return b, nil
}

// EndTypeDefinition completes a type started with StartTypeDefinition
func (m *TypeManager) EndTypeDefinition(full string) (*cls.Type, error) {
	b, ok := m.inCreation[full]
	if !ok || m.fwdDeclared[full] {
		return nil, errors.Invariantf("type %s is not being defined", full)
	}
	delete(m.inCreation, full)
	return m.finish(full, b)
}

// AddTypeDefinition registers a type built in one step. The type must be
// neither forward declared nor defined.
func (m *TypeManager) AddTypeDefinition(b *TypeBuilder) (*cls.Type, error) {
	full := b.t.FullName()
	if _, ok := m.inCreation[full]; ok {
		return nil, errors.Invariantf("type %s is forward declared or in creation", full)
	}
	if m.IsTypeFullyDeclared(full) {
		return nil, errors.Invariantf("type %s already defined", full)
	}
	return m.finish(full, b)
}

func (m *TypeManager) finish(full string, b *TypeBuilder) (*cls.Type, error) {
	t := b.Complete()
	if err := m.module.Add(t); err != nil {
		return nil, err
	}
	m.defined[full] = b
	m.order = append(m.order, t)
	m.log.Debugw("type defined", logger.FieldType, full)
	return t, nil
}

// RegisterTypedef registers an alias
func (m *TypeManager) RegisterTypedef(full string, ref TypeRef) error {
	if _, ok := m.typedefs[full]; ok {
		return errors.Invariantf("typedef %s already defined", full)
	}
	if m.IsTypeFullyDeclared(full) {
		return errors.Invariantf("typedef %s clashes with a type", full)
	}
	m.typedefs[full] = ref
	return nil
}

// PublishForSequenceRecursion makes a struct being built visible to the
// sequences among its own members
func (m *TypeManager) PublishForSequenceRecursion(full string, t *cls.Type) {
	m.published[full] = t
}

// UnpublishForSequenceRecursion ends a PublishForSequenceRecursion
func (m *TypeManager) UnpublishForSequenceRecursion(full string) {
	delete(m.published, full)
}

// IsPublishedForSequenceRecursion reports whether full is a struct being
// built that may only be referenced through a sequence
func (m *TypeManager) IsPublishedForSequenceRecursion(full string) bool {
	_, ok := m.published[full]
	return ok
}

// Resolve finds the type with the given full name. Definitions of this
// unit shadow the types of earlier units, which shadow referenced libraries.
func (m *TypeManager) Resolve(full, repositoryID string) (TypeRef, bool) {
	if b, ok := m.defined[full]; ok {
		return TypeRef{Type: b.t}, true
	}
	if ref, ok := m.typedefs[full]; ok {
		return ref, true
	}
	if b, ok := m.inCreation[full]; ok {
		return TypeRef{Type: b.t}, true
	}
	if t, ok := m.lookupBuildModules(full); ok {
		return TypeRef{Type: t}, true
	}
	if t, ok := m.refs.Lookup(full, repositoryID); ok {
		return TypeRef{Type: t}, true
	}
	if t, ok := m.published[full]; ok {
		return TypeRef{Type: t}, true
	}
	if t, ok := m.module.Lookup(full); ok && t.FullName() == full {
		return TypeRef{Type: t}, true
	}
	return TypeRef{}, false
}

func (m *TypeManager) lookupBuildModules(full string) (*cls.Type, bool) {
	for _, mod := range m.buildModules {
		if t, ok := mod.Lookup(full); ok && t.FullName() == full {
			return t, true
		}
	}
	return nil, false
}

// CheckSkip reports whether the type need not be defined by this unit
// because a referenced library or an earlier unit already did
func (m *TypeManager) CheckSkip(full, repositoryID string) bool {
	if _, ok := m.refs.Lookup(full, repositoryID); ok {
		return true
	}
	_, ok := m.lookupBuildModules(full)
	return ok
}

// AssertAllTypesDefined fails if a type is still in creation
func (m *TypeManager) AssertAllTypesDefined() error {
	if len(m.inCreation) == 0 {
		return nil
	}
	pending := make([]string, 0, len(m.inCreation))
	for full := range m.inCreation {
		pending = append(pending, full)
	}
	sort.Strings(pending)
	return errors.Invariantf("types only forward declared: %s", strings.Join(pending, ", "))
}

// Types returns the completed types in completion order
func (m *TypeManager) Types() []*cls.Type {
	return append([]*cls.Type(nil), m.order...)
}
