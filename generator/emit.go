package generator

import (
	"strconv"
	"strings"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/mapping"
)

// unit is the artifact of one type definition
type unit struct {
	info    MapTypeInfo
	res     mapping.Result
	modules []string
	name    string
	w       *idlWriter
}

func (g *Generator) writeBody(u *unit) error {
	switch u.info.Kind {
	case mapping.KindEnum:
		return g.writeEnum(u)
	case mapping.KindAbstractInterface:
		return g.writeInterface(u, "abstract interface ", false)
	case mapping.KindConcreteInterface:
		return g.writeInterface(u, "interface ", true)
	case mapping.KindLocalInterface:
		return g.writeInterface(u, "local interface ", true)
	case mapping.KindAbstractValue:
		return g.writeAbstractValue(u)
	case mapping.KindConcreteValue:
		return g.writeConcreteValue(u)
	case mapping.KindBoxedValue:
		return g.writeBoxedValue(u)
	case mapping.KindStruct:
		return g.writeStruct(u)
	case mapping.KindException:
		return g.writeException(u)
	case mapping.KindSequence:
		return g.writeSequence(u)
	case mapping.KindArray:
		return g.writeArray(u)
	}
	return errors.Invariantf("no definition for %s of kind %s", u.info, u.info.Kind)
}

func (g *Generator) writeRepositoryID(u *unit) {
	u.w.linef(`#pragma ID %s "%s"`, u.name, mapping.RepositoryID(u.info.Type))
	u.w.line("")
}

func (g *Generator) writeEnum(u *unit) error {
	w := u.w
	w.line("enum " + u.name + "{")
	for i, v := range u.info.Type.EnumValues {
		if i > 0 {
			w.write(", ")
		}
		w.write(u.name + "_" + v)
	}
	w.line("")
	w.closeScopes(1)
	return nil
}

func (g *Generator) writeInterface(u *unit, keyword string, withBase bool) error {
	w := u.w
	t := u.info.Type
	w.write(keyword + u.name)

	sep := ": "
	if withBase {
		if base := mapping.MappedBase(t); base != nil {
			ref, err := g.refNoAnon.ref(base, cls.EmptyAttributes)
			if err != nil {
				return err
			}
			w.write(": " + ref)
			sep = ", "
		}
	}
	if err := g.writeInterfaceList(u, sep); err != nil {
		return err
	}
	w.line(" {")
	if withBase {
		w.line("")
	}

	if err := g.writeMethods(u, true, true); err != nil {
		return err
	}
	if err := g.writeProperties(u); err != nil {
		return err
	}
	w.closeScopes(1)
	w.line("")
	g.writeRepositoryID(u)
	return nil
}

// writeInterfaceList writes the inheritable interfaces of the unit's type,
// prefixed with prefix when there is at least one.
func (g *Generator) writeInterfaceList(u *unit, prefix string) error {
	ifaces := g.classifier.MappedInterfaces(u.info.Type)
	if len(ifaces) == 0 {
		return nil
	}
	refs := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		ref, err := g.refNoAnon.ref(iface, cls.EmptyAttributes)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	u.w.write(prefix + strings.Join(refs, ", "))
	return nil
}

func (g *Generator) writeValueHeader(u *unit, keyword string) error {
	w := u.w
	w.write(keyword + u.name)
	if base := mapping.MappedBase(u.info.Type); base != nil {
		ref, err := g.refNoAnon.ref(base, cls.EmptyAttributes)
		if err != nil {
			return err
		}
		w.write(": " + ref)
	}
	if err := g.writeInterfaceList(u, " supports "); err != nil {
		return err
	}
	w.line(" {")
	return nil
}

func (g *Generator) writeAbstractValue(u *unit) error {
	if err := g.writeValueHeader(u, "abstract valuetype "); err != nil {
		return err
	}
	u.w.line("")
	if err := g.writeMethods(u, false, false); err != nil {
		return err
	}
	u.w.closeScopes(1)
	u.w.line("")
	g.writeRepositoryID(u)
	return nil
}

func (g *Generator) writeConcreteValue(u *unit) error {
	if err := g.writeValueHeader(u, "valuetype "); err != nil {
		return err
	}
	for _, f := range u.info.Type.InstanceFields() {
		ref, err := g.refAnon.ref(f.Type, f.Attrs)
		if err != nil {
			return errors.Wrapf(err, "field %s of %s", f.Name, u.info.Type.FullName())
		}
		visibility := "public "
		if f.Private {
			visibility = "private "
		}
		u.w.line(visibility + ref + " " + mapping.ClsToIdlName(f.Name) + ";")
	}
	if err := g.writeMethods(u, false, false); err != nil {
		return err
	}
	if err := g.writeProperties(u); err != nil {
		return err
	}
	u.w.closeScopes(1)
	u.w.line("")
	g.writeRepositoryID(u)
	return nil
}

func (g *Generator) writeBoxedValue(u *unit) error {
	fields := u.info.Type.InstanceFields()
	if len(fields) != 1 {
		return errors.InvalidInputf("invalid boxed value type: %s, only one field is allowed", u.info.Type.FullName())
	}
	ref, err := g.refAnon.ref(fields[0].Type, fields[0].Attrs)
	if err != nil {
		return err
	}
	u.w.line("valuetype " + u.name + " " + ref + ";")
	g.writeRepositoryID(u)
	return nil
}

func (g *Generator) writeFields(u *unit) error {
	for _, f := range u.info.Type.InstanceFields() {
		ref, err := g.refAnon.ref(f.Type, f.Attrs)
		if err != nil {
			return errors.Wrapf(err, "field %s of %s", f.Name, u.info.Type.FullName())
		}
		u.w.line(ref + " " + mapping.ClsToIdlName(f.Name) + ";")
	}
	return nil
}

func (g *Generator) writeStruct(u *unit) error {
	u.w.line("struct " + u.name + " {")
	if err := g.writeFields(u); err != nil {
		return err
	}
	u.w.closeScopes(1)
	u.w.line("")
	g.writeRepositoryID(u)
	return nil
}

func (g *Generator) writeException(u *unit) error {
	u.w.line("exception " + u.name + "{")
	if err := g.writeFields(u); err != nil {
		return err
	}
	u.w.closeScopes(1)
	u.w.line("")
	g.writeRepositoryID(u)
	return nil
}

func (g *Generator) writeSequence(u *unit) error {
	elem, err := g.refNoAnon.ref(u.res.Type.Elem, u.res.Attrs)
	if err != nil {
		return err
	}
	if u.res.Bound == 0 {
		u.w.linef("typedef sequence<%s> %s ;", elem, u.name)
	} else {
		u.w.linef("typedef sequence<%s, %d> %s ;", elem, u.res.Bound, u.name)
	}
	u.w.line("")
	return nil
}

func (g *Generator) writeArray(u *unit) error {
	elem, err := g.refNoAnon.ref(u.res.Type.Elem, u.res.Attrs)
	if err != nil {
		return err
	}
	var dims strings.Builder
	for _, d := range u.res.Dims {
		dims.WriteString("[" + strconv.Itoa(d) + "]")
	}
	u.w.linef("typedef %s %s%s;", elem, u.name, dims.String())
	u.w.line("")
	return nil
}

// writeMethods maps the declared operations of the unit's type. Private
// methods, accessors and methods declared by an inherited interface or a
// base type are skipped.
func (g *Generator) writeMethods(u *unit, raises, passContext bool) error {
	t := u.info.Type
	for _, m := range t.Methods {
		if m.Private || m.Accessor || declaredInInterfaceOrBase(t, m) {
			continue
		}
		if err := g.writeMethod(u, m, raises, passContext); err != nil {
			return errors.Wrapf(err, "method %s of %s", m.Name, t.FullName())
		}
	}
	return nil
}

func (g *Generator) writeMethod(u *unit, m *cls.Method, raises, passContext bool) error {
	w := u.w
	if m.OneWay && u.info.Kind.IsInterface() {
		if m.Return != nil && m.Return != cls.Void {
			return errors.InvalidInputf("invalid method: %s; OneWay only allowed, if return type is void", m.Name)
		}
		raises = false
		w.write("oneway ")
	}

	ret := "void"
	if m.Return != nil {
		var err error
		if ret, err = g.refNoAnon.ref(m.Return, m.ReturnAttrs); err != nil {
			return err
		}
	}

	params := make([]string, len(m.Params))
	paramRefs := make([]string, len(m.Params))
	for i, p := range m.Params {
		ref, err := g.refNoAnon.ref(p.Type, p.Attrs)
		if err != nil {
			return errors.Wrapf(err, "parameter %s", p.Name)
		}
		paramRefs[i] = ref
		params[i] = string(direction(p)) + " " + ref + " " + mapping.ClsToIdlName(p.Name)
	}

	name := mapping.MethodName(m.Name, isOverloaded(u.info.Type, m), paramRefs)
	w.write(ret + " " + name + "(" + strings.Join(params, ", ") + ")")

	if raises {
		w.write(" raises (" + mapping.TypeScopedName(cls.GenericUserException))
		for _, ex := range m.Raises {
			if ex == cls.GenericUserException {
				continue
			}
			ref, err := g.refNoAnon.ref(ex, cls.EmptyAttributes)
			if err != nil {
				return err
			}
			w.write(", " + ref)
		}
		w.write(")")
	}
	if passContext && len(m.Context) > 0 {
		quoted := make([]string, len(m.Context))
		for i, c := range m.Context {
			quoted[i] = strconv.Quote(c)
		}
		w.write(" context (" + strings.Join(quoted, " ,") + ")")
	}
	w.line(";")
	return nil
}

func direction(p *cls.Param) cls.Direction {
	if p.Direction == "" {
		if p.Type.IsByRef() {
			return cls.InOut
		}
		return cls.In
	}
	return p.Direction
}

func (g *Generator) writeProperties(u *unit) error {
	t := u.info.Type
	for _, p := range t.Properties {
		if p.CanWrite && !p.CanRead {
			continue
		}
		if propertyInInterfaceOrBase(t, p) {
			continue
		}
		ref, err := g.refNoAnon.ref(p.Type, p.Attrs)
		if err != nil {
			return errors.Wrapf(err, "property %s of %s", p.Name, t.FullName())
		}
		if !p.CanWrite {
			u.w.write("readonly ")
		}
		u.w.line("attribute " + ref + " " + mapping.ClsToIdlName(p.Name) + ";")
	}
	return nil
}

func isOverloaded(t *cls.Type, m *cls.Method) bool {
	for _, other := range t.Methods {
		if other != m && other.Name == m.Name && !other.Private && !other.Accessor {
			return true
		}
	}
	return false
}

// declaredInInterfaceOrBase reports whether m is already declared by an
// interface t inherits or by a base type of t
func declaredInInterfaceOrBase(t *cls.Type, m *cls.Method) bool {
	for b := t.Base; b != nil; b = b.Base {
		if b.FindMethod(m.Name, m.Params) != nil {
			return true
		}
	}
	return inInterfaces(t, func(iface *cls.Type) bool {
		return iface.FindMethod(m.Name, m.Params) != nil
	})
}

func propertyInInterfaceOrBase(t *cls.Type, p *cls.Property) bool {
	has := func(owner *cls.Type) bool {
		for _, other := range owner.Properties {
			if other.Name == p.Name {
				return true
			}
		}
		return false
	}
	for b := t.Base; b != nil; b = b.Base {
		if has(b) {
			return true
		}
	}
	return inInterfaces(t, has)
}

func inInterfaces(t *cls.Type, match func(*cls.Type) bool) bool {
	seen := make(map[*cls.Type]bool)
	var visit func(*cls.Type) bool
	visit = func(owner *cls.Type) bool {
		for _, iface := range owner.Interfaces {
			if seen[iface] {
				continue
			}
			seen[iface] = true
			if match(iface) || visit(iface) {
				return true
			}
		}
		return false
	}
	return visit(t)
}
