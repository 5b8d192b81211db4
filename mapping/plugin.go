package mapping

import (
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
)

// CustomMapping replaces the mapping of a CLS type by an existing IDL type
// defined in IdlFile.
type CustomMapping struct {
	ClsType *cls.Type
	IdlType *cls.Type
	IdlFile string
}

type pluginFile struct {
	Mapping []struct {
		ClsType string `toml:"cls_type"`
		IdlType string `toml:"idl_type"`
		IdlFile string `toml:"idl_file"`
	} `toml:"mapping"`
}

// Plugin is the registry of custom mappings. A nil *Plugin has no mappings.
type Plugin struct {
	byCls map[*cls.Type]*CustomMapping
	byIdl map[*cls.Type]*CustomMapping
}

// NewPlugin creates an empty registry
func NewPlugin() *Plugin {
	return &Plugin{
		byCls: make(map[*cls.Type]*CustomMapping),
		byIdl: make(map[*cls.Type]*CustomMapping),
	}
}

// LoadPlugin reads custom mappings from a TOML file of the form
//
//	[[mapping]]
//	cls_type = "System.Collections.ArrayList"
//	idl_type = "java.util.ArrayList"
//	idl_file = "java/util/ArrayList.idl"
//
// IDL target types unknown to u are added as IDL entity placeholders.
func LoadPlugin(path string, u *cls.Universe) (*Plugin, error) {
	var file pluginFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to read mapping plugin file %s", path)
	}

	p := NewPlugin()
	for _, m := range file.Mapping {
		clsType, ok := u.Lookup(m.ClsType)
		if !ok {
			return nil, errors.InvalidInputf("custom mapping for unknown type %s", m.ClsType)
		}
		idlType, ok := u.Lookup(m.IdlType)
		if !ok {
			idlType = placeholder(m.IdlType)
			if err := u.Add(idlType); err != nil {
				return nil, err
			}
		}
		if err := p.Add(clsType, idlType, m.IdlFile); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func placeholder(fullName string) *cls.Type {
	t := &cls.Type{Name: fullName, Category: cls.Class, Base: cls.Object, Serializable: true, IdlEntity: true}
	if idx := strings.LastIndexByte(fullName, '.'); idx >= 0 {
		t.Namespace, t.Name = fullName[:idx], fullName[idx+1:]
	}
	return t
}

// Add registers a custom mapping
func (p *Plugin) Add(clsType, idlType *cls.Type, idlFile string) error {
	if idlFile == "" {
		return errors.InvalidInputf("custom mapping for %s has no IDL file", clsType.FullName())
	}
	if _, exists := p.byCls[clsType]; exists {
		return errors.InvalidInputf("duplicate custom mapping for %s", clsType.FullName())
	}
	m := &CustomMapping{ClsType: clsType, IdlType: idlType, IdlFile: idlFile}
	p.byCls[clsType] = m
	p.byIdl[idlType] = m
	return nil
}

// IsCustomMappingPresentForCls reports whether t has a custom mapping
func (p *Plugin) IsCustomMappingPresentForCls(t *cls.Type) bool {
	_, ok := p.MappingForCls(t)
	return ok
}

// IsCustomMappingTarget reports whether t is the IDL side of a custom mapping
func (p *Plugin) IsCustomMappingTarget(t *cls.Type) bool {
	_, ok := p.MappingForIdlTarget(t)
	return ok
}

// MappingForCls returns the custom mapping of t
func (p *Plugin) MappingForCls(t *cls.Type) (*CustomMapping, bool) {
	if p == nil {
		return nil, false
	}
	m, ok := p.byCls[t]
	return m, ok
}

// MappingForIdlTarget returns the custom mapping whose IDL side is t
func (p *Plugin) MappingForIdlTarget(t *cls.Type) (*CustomMapping, bool) {
	if p == nil {
		return nil, false
	}
	m, ok := p.byIdl[t]
	return m, ok
}

// Len returns the number of registered mappings
func (p *Plugin) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byCls)
}
