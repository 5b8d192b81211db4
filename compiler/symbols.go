package compiler

import (
	"strings"

	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/idl"
	"github.com/ifabos/go-idlmap/symtab"
)

// predefined names of orb.idl, which is never parsed
var predefined = []string{"TypeCode", "StringValue", "WStringValue"}

// declarations is the result of the symbol table pass: the table and, per
// definition, the scope its name is declared in and the scope of its members
type declarations struct {
	table    *symtab.SymbolTable
	declared map[idl.Definition]*symtab.Scope
	inner    map[idl.Definition]*symtab.Scope
	builtin  map[*symtab.Symbol]bool
}

// scopeOf returns the scope a definition's members are resolved in
func (d *declarations) scopeOf(def idl.Definition) *symtab.Scope {
	if sc, ok := d.inner[def]; ok {
		return sc
	}
	return d.declared[def]
}

// symbolOf returns the symbol a definition declares
func (d *declarations) symbolOf(def idl.Definition) (*symtab.Symbol, error) {
	sc, ok := d.declared[def]
	if !ok {
		return nil, errors.Invariantf("no scope recorded for %s", def.DefName())
	}
	sym, ok := sc.Symbol(def.DefName())
	if !ok {
		return nil, errors.Invariantf("symbol %s not found in its scope", def.DefName())
	}
	return sym, nil
}

// buildSymbolTable declares all names of a specification and checks that
// names are not redefined
func buildSymbolTable(spec *idl.Specification) (*declarations, error) {
	d := &declarations{
		table:    symtab.New(),
		declared: make(map[idl.Definition]*symtab.Scope),
		inner:    make(map[idl.Definition]*symtab.Scope),
		builtin:  make(map[*symtab.Symbol]bool),
	}
	if err := d.declarePredefined(); err != nil {
		return nil, err
	}
	if err := d.walk(d.table.Top(), spec.Root.Definitions); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *declarations) declarePredefined() error {
	d.table.OpenPragmaScope("omg.org")
	corba := d.table.OpenScope("CORBA", false)
	for _, name := range predefined {
		sym, err := corba.AddSymbol(name)
		if err != nil {
			return err
		}
		d.builtin[sym] = true
	}
	if err := d.table.CloseScope(); err != nil {
		return err
	}
	d.table.ClosePragmaScope()
	return nil
}

func (d *declarations) walk(owner *symtab.Scope, defs []idl.Definition) error {
	for _, def := range defs {
		if err := d.declare(def); err != nil {
			return err
		}
	}
	d.closePragmas(owner)
	return nil
}

// closePragmas closes the pragma scopes opened since owner was opened
func (d *declarations) closePragmas(owner *symtab.Scope) {
	for d.table.Current() != owner {
		if _, ok := d.table.OpenPragmaScopeInUse(); !ok {
			return
		}
		d.table.ClosePragmaScope()
	}
}

// define adds a type symbol. A definition of a predefined type, e.g. from a
// parsed orb.idl, is accepted once.
func (d *declarations) define(scope *symtab.Scope, name string) error {
	if existing, ok := scope.Symbol(name); ok && d.builtin[existing] {
		delete(d.builtin, existing)
		return nil
	}
	_, err := scope.AddSymbol(name)
	return err
}

func (d *declarations) declare(def idl.Definition) error {
	scope := d.table.Current()

	switch def := def.(type) {
	case *idl.Module:
		inner := d.table.OpenScope(def.Name, false)
		d.inner[def] = inner
		if err := d.walk(inner, def.Definitions); err != nil {
			return err
		}
		return d.table.CloseScope()

	case *idl.InterfaceType:
		d.declared[def] = scope
		if def.Forward {
			scope.AddForward(def.Name)
			return nil
		}
		return d.declareType(scope, def, def.Name, def.Parents, def.Definitions)

	case *idl.ValueType:
		d.declared[def] = scope
		if def.Forward {
			scope.AddForward(def.Name)
			return nil
		}
		bases := append(append([]string(nil), def.Parents...), def.Supports...)
		return d.declareType(scope, def, def.Name, bases, def.Definitions)

	case *idl.StructType, *idl.ExceptionType, *idl.UnionType, *idl.ValueBoxType:
		d.declared[def] = scope
		return d.define(scope, def.DefName())

	case *idl.EnumType:
		d.declared[def] = scope
		if err := d.define(scope, def.Name); err != nil {
			return err
		}
		for _, element := range def.Elements {
			if _, err := scope.AddValueSymbol(element); err != nil {
				return err
			}
		}
		return nil

	case *idl.TypeDef:
		d.declared[def] = scope
		_, err := scope.AddTypedef(def.Name)
		return err

	case *idl.ConstDecl:
		d.declared[def] = scope
		_, err := scope.AddValueSymbol(def.Name)
		return err

	case *idl.PragmaPrefix:
		if current := d.table.Current(); current.IsPragmaScope() {
			d.table.ClosePragmaScope()
		}
		d.table.OpenPragmaScope(def.Prefix)
		return nil

	case *idl.PragmaID:
		if sym, ok := scope.Resolve(def.Target); ok {
			return sym.DeclaredIn().AddPragmaID(sym.Name(), def.ID)
		}
		if strings.Contains(def.Target, "::") {
			return errors.InvalidInputf("#pragma ID for unknown type %s", def.Target)
		}
		return scope.AddPragmaID(def.Target, def.ID)
	}
	return errors.Invariantf("unknown definition %T", def)
}

// declareType declares an interface or value type and the names nested in it
func (d *declarations) declareType(scope *symtab.Scope, def idl.Definition, name string, bases []string, nested []idl.Definition) error {
	if err := d.define(scope, name); err != nil {
		return err
	}
	inner := d.table.OpenScope(name, true)
	d.inner[def] = inner
	for _, base := range bases {
		sym, ok := scope.Resolve(base)
		if !ok {
			return errors.InvalidInputf("base type %s of %s not found", base, name)
		}
		if baseScope, ok := sym.TypeScope(); ok {
			inner.AddInheritedScope(baseScope)
		}
	}
	if err := d.walk(inner, nested); err != nil {
		return err
	}
	return d.table.CloseScope()
}
