package generator

import (
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/mapping"
)

// forwardKeyword returns the declaration keyword used in a forward declaration
func forwardKeyword(kind mapping.Kind) (string, bool) {
	switch kind {
	case mapping.KindAbstractInterface:
		return "abstract interface", true
	case mapping.KindConcreteInterface:
		return "interface", true
	case mapping.KindLocalInterface:
		return "local interface", true
	case mapping.KindAbstractValue:
		return "abstract valuetype", true
	case mapping.KindConcreteValue:
		return "valuetype", true
	}
	return "", false
}

// writeForwardDecl writes a forward declaration of info, protected by the
// redefinition guard of its full definition
func writeForwardDecl(w *idlWriter, info MapTypeInfo) error {
	keyword, ok := forwardKeyword(info.Kind)
	if !ok || !info.IsForwardDeclPossible() {
		return errors.Invariantf("no forward declaration possible for %s (%s)", info, info.Kind)
	}
	modules := mapping.Modules(info.Type)
	name := mapping.TypeName(info.Type)

	w.line("#ifndef " + mapping.GuardName(modules, name))
	w.moduleOpenings(modules)
	w.line(keyword + " " + name + ";")
	w.closeScopes(len(modules))
	w.line("#endif")
	return nil
}

// writeInclude writes the include directive for the artifact defining info
func writeInclude(w *idlWriter, fileFor func(MapTypeInfo) (string, error), info MapTypeInfo) error {
	switch info.Kind {
	case mapping.KindStringValue, mapping.KindWStringValue:
		// defined in orb.idl, which every artifact includes
		return nil
	}
	file, err := fileFor(info)
	if err != nil {
		return err
	}
	w.line(`#include "` + file + `"`)
	return nil
}
