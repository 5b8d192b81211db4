package generator

import (
	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/mapping"
)

// defaultMapped types are always available in IDL and never get an artifact
var defaultMapped = map[*cls.Type]struct{}{
	cls.Int16: {}, cls.Int32: {}, cls.Int64: {},
	cls.UInt16: {}, cls.UInt32: {}, cls.UInt64: {},
	cls.SByte: {}, cls.Byte: {}, cls.Boolean: {}, cls.Void: {},
	cls.Single: {}, cls.Double: {}, cls.Char: {}, cls.String: {},
	cls.Object:               {},
	cls.TypeType:             {},
	cls.TypeCode:             {},
	cls.GenericUserException: {},
	cls.MarshalByRefObject:   {},
	cls.StringValue:          {},
	cls.WStringValue:         {},
}

// DependencyManager keeps track of mapped types and of the types discovered
// but not yet mapped. One manager serves one generation run.
type DependencyManager struct {
	classifier *mapping.Classifier
	analyzer   *DependencyAnalyzer

	files      map[TypeKey]string
	mapped     []MapTypeInfo
	inProgress map[TypeKey]struct{}

	queue  []MapTypeInfo
	queued map[TypeKey]struct{}
}

// NewDependencyManager creates a manager using classifier for kind decisions
func NewDependencyManager(classifier *mapping.Classifier) *DependencyManager {
	m := &DependencyManager{
		classifier: classifier,
		files:      make(map[TypeKey]string),
		inProgress: make(map[TypeKey]struct{}),
		queued:     make(map[TypeKey]struct{}),
	}
	m.analyzer = newDependencyAnalyzer(m, true)
	return m
}

// Analyzer returns the dependency analyzer bound to the manager
func (m *DependencyManager) Analyzer() *DependencyAnalyzer {
	return m.analyzer
}

// IsDefaultMapped reports whether t belongs to the builtin types that never
// need an artifact
func (m *DependencyManager) IsDefaultMapped(t *cls.Type) bool {
	_, ok := defaultMapped[t]
	return ok
}

// IsMappedBeforeGeneration reports whether t is available without being
// generated: default mapped, an IDL entity or part of a custom mapping.
func (m *DependencyManager) IsMappedBeforeGeneration(t *cls.Type) bool {
	if m.IsDefaultMapped(t) || t.IdlEntity {
		return true
	}
	plugin := m.classifier.Plugin()
	return plugin.IsCustomMappingTarget(t) || plugin.IsCustomMappingPresentForCls(t)
}

// Info classifies t used with attrs and returns the normalized tracking unit.
// Sequences and arrays keep their attributes, since they decide the element
// mapping; every other kind is tracked by its final type alone.
func (m *DependencyManager) Info(t *cls.Type, attrs cls.AttributeSet) (MapTypeInfo, error) {
	res, err := m.classifier.Classify(t, attrs)
	if err != nil {
		return MapTypeInfo{}, err
	}
	return m.infoFor(t, attrs, res), nil
}

func (m *DependencyManager) infoFor(t *cls.Type, attrs cls.AttributeSet, res mapping.Result) MapTypeInfo {
	var info MapTypeInfo
	switch res.Kind {
	case mapping.KindSequence, mapping.KindArray:
		if t.IsByRef() {
			t = t.Elem
		}
		info = MapTypeInfo{Type: t, Attributes: attrs, Kind: res.Kind}
	default:
		info = MapTypeInfo{Type: res.Type, Attributes: cls.EmptyAttributes, Kind: res.Kind}
	}
	info.forwardDeclPossible = res.Kind.SupportsForwardDecl() && !m.IsMappedBeforeGeneration(info.Type)
	return info
}

// CheckMapped reports whether info is registered or needs no generation.
// Kinds without an own definition, like flags or primitives selected by
// attributes, count as mapped.
func (m *DependencyManager) CheckMapped(info MapTypeInfo) bool {
	if _, ok := m.files[info.Key()]; ok {
		return true
	}
	if info.Kind != 0 && !info.Kind.HasDefinition() {
		return true
	}
	return m.IsMappedBeforeGeneration(info.Type)
}

// IsRegistered reports whether info was registered with RegisterMappedType
func (m *DependencyManager) IsRegistered(info MapTypeInfo) bool {
	_, ok := m.files[info.Key()]
	return ok
}

// RegisterMappedType records that info is defined in file. Registering a
// type twice, or a default mapped type, violates the engine's invariants.
// The definition counts as in progress until CompleteMappedType.
func (m *DependencyManager) RegisterMappedType(info MapTypeInfo, file string) error {
	if m.IsRegistered(info) || m.IsDefaultMapped(info.Type) {
		return errors.Invariantf("reregister of mapped type not possible, already mapped: %s", info)
	}
	m.files[info.Key()] = file
	m.mapped = append(m.mapped, info)
	m.inProgress[info.Key()] = struct{}{}
	return nil
}

// CompleteMappedType records that the artifact of info is fully written
func (m *DependencyManager) CompleteMappedType(info MapTypeInfo) {
	delete(m.inProgress, info.Key())
}

// IsInProgress reports whether info is registered and its artifact is still
// being written
func (m *DependencyManager) IsInProgress(info MapTypeInfo) bool {
	_, ok := m.inProgress[info.Key()]
	return ok
}

// IdlFileFor returns the artifact that defines info
func (m *DependencyManager) IdlFileFor(info MapTypeInfo) (string, error) {
	if file, ok := m.files[info.Key()]; ok {
		return file, nil
	}
	if custom, ok := m.classifier.Plugin().MappingForIdlTarget(info.Type); ok {
		return custom.IdlFile, nil
	}
	if info.Type.IdlEntity {
		return mapping.FileFor(mapping.Modules(info.Type), mapping.TypeName(info.Type)), nil
	}
	return "", errors.Invariantf("mapped type missing after mapped before: %s", info)
}

// MappedTypes returns the registered types in registration order
func (m *DependencyManager) MappedTypes() []MapTypeInfo {
	return append([]MapTypeInfo(nil), m.mapped...)
}

// GetDependencyInformation analyzes info with the manager's analyzer
func (m *DependencyManager) GetDependencyInformation(info MapTypeInfo) (*DependencyInformation, error) {
	return m.analyzer.Analyze(info)
}

// RegisterNotMapped queues the dependencies of depInfo that are neither
// mapped nor already queued
func (m *DependencyManager) RegisterNotMapped(depInfo *DependencyInformation) {
	m.storeToMapNext(depInfo.content.items)
	m.storeToMapNext(depInfo.inheritance.items)
}

func (m *DependencyManager) storeToMapNext(deps []MapTypeInfo) {
	for _, info := range deps {
		if m.CheckMapped(info) {
			continue
		}
		key := info.Key()
		if _, ok := m.queued[key]; ok {
			continue
		}
		m.queued[key] = struct{}{}
		m.queue = append(m.queue, info)
	}
}

// GetNextTypeToMap dequeues the next type that still needs mapping. Entries
// that were mapped while queued are discarded.
func (m *DependencyManager) GetNextTypeToMap() (MapTypeInfo, bool) {
	for len(m.queue) > 0 {
		candidate := m.queue[0]
		m.queue = m.queue[1:]
		delete(m.queued, candidate.Key())
		if !m.CheckMapped(candidate) {
			return candidate, true
		}
	}
	return MapTypeInfo{}, false
}

// Pending returns the number of queued entries
func (m *DependencyManager) Pending() int {
	return len(m.queue)
}
