package compiler

import (
	"go.uber.org/zap"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/idl"
	"github.com/ifabos/go-idlmap/logger"
	"github.com/ifabos/go-idlmap/mapping"
	"github.com/ifabos/go-idlmap/symtab"
)

// boxedValueField is the name of the field holding the value of a boxed value type
const boxedValueField = "m_val"

// metadataGenerator builds the CLS types of the definitions of one unit
type metadataGenerator struct {
	decls   *declarations
	manager *TypeManager
	log     *zap.SugaredLogger
}

func (g *metadataGenerator) generate(defs []idl.Definition) error {
	for _, def := range defs {
		if err := g.define(def); err != nil {
			return err
		}
	}
	return nil
}

func (g *metadataGenerator) define(def idl.Definition) error {
	switch def := def.(type) {
	case *idl.Module:
		return g.generate(def.Definitions)
	case *idl.InterfaceType:
		return g.defineInterface(def)
	case *idl.ValueType:
		return g.defineValueType(def)
	case *idl.StructType:
		return g.defineStruct(def)
	case *idl.ExceptionType:
		return g.defineException(def)
	case *idl.EnumType:
		return g.defineEnum(def)
	case *idl.ValueBoxType:
		return g.defineBoxedValue(def)
	case *idl.TypeDef:
		return g.defineTypedef(def)
	case *idl.UnionType:
		return errors.Unsupportedf("union %s is not supported", def.Name)
	case *idl.ConstDecl:
		g.log.Debugw("constant not mapped", logger.FieldSymbol, def.Name)
		return nil
	case *idl.PragmaPrefix, *idl.PragmaID:
		return nil
	}
	return errors.Invariantf("unknown definition %T", def)
}

// typeSymbol is what the generator needs to know about the symbol of a
// type definition
type typeSymbol struct {
	sym          *symtab.Symbol
	namespace    string
	name         string
	full         string
	repositoryID string
}

// lookupSymbol returns the symbol of def and reports whether its type must
// be built by this unit
func (g *metadataGenerator) lookupSymbol(def idl.Definition) (typeSymbol, bool, error) {
	sym, err := g.decls.symbolOf(def)
	if err != nil {
		return typeSymbol{}, false, err
	}
	ts := typeSymbol{
		sym:          sym,
		namespace:    sym.DeclaredIn().Namespace(),
		name:         mapping.IdlToClsName(sym.Name()),
		full:         sym.FullName(),
		repositoryID: sym.RepositoryID(),
	}
	if g.manager.CheckSkip(ts.full, ts.repositoryID) {
		g.log.Debugw("type already defined by a referenced library or an earlier unit",
			logger.FieldType, ts.full, logger.FieldRepositoryID, ts.repositoryID)
		return ts, false, nil
	}
	if t, ok := g.manager.Module().Lookup(ts.full); ok && t.FullName() == ts.full && !t.IdlEntity {
		// predefined type, e.g. CORBA::TypeCode
		return ts, false, nil
	}
	return ts, true, nil
}

// interfaceAttr returns the InterfaceType attribute value of an interface
func interfaceAttr(abstract, local bool) string {
	switch {
	case abstract:
		return cls.InterfaceAbstract
	case local:
		return cls.InterfaceLocal
	}
	return cls.InterfaceConcrete
}

func (g *metadataGenerator) defineInterface(def *idl.InterfaceType) error {
	ts, build, err := g.lookupSymbol(def)
	if err != nil || !build {
		return err
	}
	if def.Forward {
		return g.forward(ts, cls.Interface)
	}

	b, err := g.manager.StartTypeDefinition(ts.namespace, ts.name, cls.Interface)
	if err != nil {
		return err
	}
	g.log.Debugw("begin type", logger.FieldType, ts.full, logger.FieldKind, "interface")
	if err := addTypeAttrs(b, ts, cls.InterfaceTypeAttr(interfaceAttr(def.Abstract, def.Local))); err != nil {
		return err
	}

	scope := g.decls.scopeOf(def)
	for _, parent := range def.Parents {
		base, err := g.resolveBase(scope, parent, ts.full)
		if err != nil {
			return err
		}
		if err := checkInterfaceBase(ts.full, def, base); err != nil {
			return err
		}
		if err := b.AddInterface(base); err != nil {
			return err
		}
	}

	if err := g.generate(def.Definitions); err != nil {
		return err
	}
	if err := g.addMembers(b, scope, def.Operations, def.Attributes); err != nil {
		return err
	}
	_, err = g.manager.EndTypeDefinition(ts.full)
	return err
}

func checkInterfaceBase(full string, def *idl.InterfaceType, base *cls.Type) error {
	if !base.IsInterface() {
		return errors.InvalidInputf("interface %s inherits from %s which is not an interface", full, base.FullName())
	}
	attr, _ := base.Attributes.Get(cls.AttrInterfaceType)
	switch {
	case attr.Value == cls.InterfaceAbstractValue:
		return errors.InvalidInputf("interface %s inherits from value type %s", full, base.FullName())
	case def.Abstract && attr.Value != cls.InterfaceAbstract:
		return errors.InvalidInputf("abstract interface %s can only inherit abstract interfaces, not %s", full, base.FullName())
	case !def.Local && attr.Value == cls.InterfaceLocal:
		return errors.InvalidInputf("unconstrained interface %s can not inherit local interface %s", full, base.FullName())
	}
	return nil
}

func isAbstractValue(t *cls.Type) bool {
	attr, ok := t.Attributes.Get(cls.AttrInterfaceType)
	return t.IsInterface() && ok && attr.Value == cls.InterfaceAbstractValue
}

func isConcreteValue(t *cls.Type) bool {
	return t.IsClass() && t.Serializable && !t.DerivesFrom(cls.BoxedValueBase) && !t.DerivesFrom(cls.Exception)
}

func (g *metadataGenerator) defineValueType(def *idl.ValueType) error {
	ts, build, err := g.lookupSymbol(def)
	if err != nil || !build {
		return err
	}
	category := cls.Class
	if def.Abstract {
		category = cls.Interface
	}
	if def.Forward {
		return g.forward(ts, category)
	}

	b, err := g.manager.StartTypeDefinition(ts.namespace, ts.name, category)
	if err != nil {
		return err
	}
	g.log.Debugw("begin type", logger.FieldType, ts.full, logger.FieldKind, "valuetype")
	if def.Abstract {
		err = addTypeAttrs(b, ts, cls.InterfaceTypeAttr(cls.InterfaceAbstractValue))
	} else {
		b.t.Serializable = true
		b.t.Abstract = len(def.Operations) > 0
		err = addTypeAttrs(b, ts)
		if err == nil {
			err = b.SetBase(cls.Object)
		}
	}
	if err != nil {
		return err
	}

	scope := g.decls.scopeOf(def)
	for i, parent := range def.Parents {
		base, err := g.resolveBase(scope, parent, ts.full)
		if err != nil {
			return err
		}
		switch {
		case isAbstractValue(base):
			err = b.AddInterface(base)
		case isConcreteValue(base) && def.Abstract:
			err = errors.InvalidInputf("abstract value type %s can not inherit from concrete value type %s", ts.full, base.FullName())
		case isConcreteValue(base) && i > 0:
			err = errors.InvalidInputf("value type %s: concrete base %s must be the first base", ts.full, base.FullName())
		case isConcreteValue(base):
			err = b.SetBase(base)
		default:
			err = errors.InvalidInputf("value type %s inherits from %s which is not a value type", ts.full, base.FullName())
		}
		if err != nil {
			return err
		}
	}
	for _, supported := range def.Supports {
		iface, err := g.resolveBase(scope, supported, ts.full)
		if err != nil {
			return err
		}
		if !iface.IsInterface() || isAbstractValue(iface) {
			return errors.InvalidInputf("value type %s supports %s which is not an interface", ts.full, iface.FullName())
		}
		if err := b.AddInterface(iface); err != nil {
			return err
		}
	}

	if err := g.generate(def.Definitions); err != nil {
		return err
	}
	for _, member := range def.Members {
		if len(member.Dims) > 0 {
			return errors.Unsupportedf("array member %s of %s is not supported", member.Name, ts.full)
		}
		ref, err := g.resolveType(scope, member.Type, false)
		if err != nil {
			return errors.Wrapf(err, "member %s of %s", member.Name, ts.full)
		}
		field := &cls.Field{Name: mapping.IdlToClsName(member.Name), Type: ref.Type, Attrs: ref.Attrs, Private: !member.Public}
		if err := b.AddField(field); err != nil {
			return err
		}
	}
	if err := g.addMembers(b, scope, def.Operations, def.Attributes); err != nil {
		return err
	}
	_, err = g.manager.EndTypeDefinition(ts.full)
	return err
}

// forward registers the stub of a forward declaration unless the type is
// defined already
func (g *metadataGenerator) forward(ts typeSymbol, category cls.Category) error {
	if g.manager.IsTypeFullyDeclared(ts.full) {
		return nil
	}
	_, err := g.manager.RegisterTypeFwdDecl(ts.namespace, ts.name, category)
	return err
}

func addTypeAttrs(b *TypeBuilder, ts typeSymbol, attrs ...cls.Attribute) error {
	attrs = append(attrs, cls.RepositoryIDAttr(ts.repositoryID))
	for _, attr := range attrs {
		if err := b.AddAttribute(attr); err != nil {
			return err
		}
	}
	return nil
}

// addFields builds the members of a struct or an exception
func (g *metadataGenerator) addFields(b *TypeBuilder, scope *symtab.Scope, full string, fields []idl.StructField) error {
	for _, f := range fields {
		if len(f.Dims) > 0 {
			return errors.Unsupportedf("array member %s of %s is not supported", f.Name, full)
		}
		ref, err := g.resolveType(scope, f.Type, false)
		if err != nil {
			return errors.Wrapf(err, "member %s of %s", f.Name, full)
		}
		if err := b.AddField(&cls.Field{Name: mapping.IdlToClsName(f.Name), Type: ref.Type, Attrs: ref.Attrs}); err != nil {
			return err
		}
	}
	return nil
}

func (g *metadataGenerator) defineStruct(def *idl.StructType) error {
	ts, build, err := g.lookupSymbol(def)
	if err != nil || !build {
		return err
	}
	b := newTypeBuilder(ts.namespace, ts.name, cls.Struct)
	b.t.Base = cls.ValueType
	b.t.Serializable = true
	if err := addTypeAttrs(b, ts, cls.Attribute{Kind: cls.AttrIdlStruct}); err != nil {
		return err
	}

	g.manager.PublishForSequenceRecursion(ts.full, b.t)
	err = g.addFields(b, g.decls.scopeOf(def), ts.full, def.Fields)
	g.manager.UnpublishForSequenceRecursion(ts.full)
	if err != nil {
		return err
	}
	_, err = g.manager.AddTypeDefinition(b)
	return err
}

func (g *metadataGenerator) defineException(def *idl.ExceptionType) error {
	ts, build, err := g.lookupSymbol(def)
	if err != nil || !build {
		return err
	}
	b := newTypeBuilder(ts.namespace, ts.name, cls.Class)
	b.t.Base = cls.Exception
	b.t.Serializable = true
	if err := addTypeAttrs(b, ts); err != nil {
		return err
	}
	if err := g.addFields(b, g.decls.scopeOf(def), ts.full, def.Fields); err != nil {
		return err
	}
	_, err = g.manager.AddTypeDefinition(b)
	return err
}

func (g *metadataGenerator) defineEnum(def *idl.EnumType) error {
	ts, build, err := g.lookupSymbol(def)
	if err != nil || !build {
		return err
	}
	b := newTypeBuilder(ts.namespace, ts.name, cls.Enum)
	b.t.Base = cls.EnumType
	b.t.EnumUnderlying = cls.Int32
	b.t.Serializable = true
	for _, element := range def.Elements {
		b.t.EnumValues = append(b.t.EnumValues, mapping.IdlToClsName(element))
	}
	if err := addTypeAttrs(b, ts, cls.Attribute{Kind: cls.AttrIdlEnum}); err != nil {
		return err
	}
	_, err = g.manager.AddTypeDefinition(b)
	return err
}

func (g *metadataGenerator) defineBoxedValue(def *idl.ValueBoxType) error {
	ts, build, err := g.lookupSymbol(def)
	if err != nil || !build {
		return err
	}
	ref, err := g.resolveType(g.decls.scopeOf(def), def.Boxed, false)
	if err != nil {
		return errors.Wrapf(err, "boxed value type %s", ts.full)
	}
	b := newTypeBuilder(ts.namespace, ts.name, cls.Class)
	b.t.Base = cls.BoxedValueBase
	b.t.Serializable = true
	if err := addTypeAttrs(b, ts); err != nil {
		return err
	}
	if err := b.AddField(&cls.Field{Name: boxedValueField, Type: ref.Type, Attrs: ref.Attrs, Private: true}); err != nil {
		return err
	}
	_, err = g.manager.AddTypeDefinition(b)
	return err
}

func (g *metadataGenerator) defineTypedef(def *idl.TypeDef) error {
	sym, err := g.decls.symbolOf(def)
	if err != nil {
		return err
	}
	full := sym.FullName()
	if len(def.Dims) > 0 {
		return errors.Unsupportedf("array typedef %s is not supported", full)
	}
	if g.manager.CheckSkip(full, sym.RepositoryID()) {
		return nil
	}
	ref, err := g.resolveType(g.decls.scopeOf(def), def.OrigType, false)
	if err != nil {
		return errors.Wrapf(err, "typedef %s", full)
	}
	g.log.Debugw("typedef", logger.FieldType, full, "aliased", ref.Type.FullName(), logger.FieldAttrs, ref.Attrs.String())
	return g.manager.RegisterTypedef(full, ref)
}

// addMembers builds the methods and properties of an interface or value type
func (g *metadataGenerator) addMembers(b *TypeBuilder, scope *symtab.Scope, ops []idl.Operation, attrs []idl.Attribute) error {
	for _, attr := range attrs {
		ref, err := g.resolveType(scope, attr.Type, false)
		if err != nil {
			return errors.Wrapf(err, "attribute %s of %s", attr.Name, b.t.FullName())
		}
		prop := &cls.Property{
			Name:     mapping.IdlToClsName(attr.Name),
			Type:     ref.Type,
			Attrs:    ref.Attrs,
			CanRead:  true,
			CanWrite: !attr.Readonly,
		}
		if err := b.AddProperty(prop); err != nil {
			return err
		}
	}
	for _, op := range ops {
		m, err := g.method(scope, op)
		if err != nil {
			return errors.Wrapf(err, "operation %s of %s", op.Name, b.t.FullName())
		}
		if err := b.AddMethod(m); err != nil {
			return err
		}
	}
	return nil
}

func (g *metadataGenerator) method(scope *symtab.Scope, op idl.Operation) (*cls.Method, error) {
	ret, err := g.resolveType(scope, op.ReturnType, false)
	if err != nil {
		return nil, err
	}
	m := &cls.Method{
		Name:        mapping.IdlToClsName(op.Name),
		Return:      ret.Type,
		ReturnAttrs: ret.Attrs,
		Context:     op.Context,
		OneWay:      op.Oneway,
	}
	for _, p := range op.Parameters {
		ref, err := g.resolveType(scope, p.Type, false)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", p.Name)
		}
		param := &cls.Param{Name: mapping.IdlToClsName(p.Name), Type: ref.Type, Attrs: ref.Attrs, Direction: cls.In}
		switch p.Direction {
		case idl.Out:
			param.Direction, param.Type = cls.Out, g.manager.Module().ByRefOf(ref.Type)
		case idl.InOut:
			param.Direction, param.Type = cls.InOut, g.manager.Module().ByRefOf(ref.Type)
		}
		m.Params = append(m.Params, param)
	}
	if op.Oneway && (ret.Type != cls.Void || len(op.Raises) > 0) {
		return nil, errors.InvalidInputf("oneway operation %s must return void and raise nothing", op.Name)
	}
	for _, raised := range op.Raises {
		ex, err := g.resolveType(scope, &idl.ScopedType{Name: raised}, false)
		if err != nil {
			return nil, err
		}
		if !ex.Type.DerivesFrom(cls.Exception) {
			return nil, errors.InvalidInputf("%s in raises clause is not an exception", raised)
		}
		m.Raises = append(m.Raises, ex.Type)
	}
	return m, nil
}

// resolveBase resolves the name of a base type, which must be completely defined
func (g *metadataGenerator) resolveBase(scope *symtab.Scope, name, of string) (*cls.Type, error) {
	ref, err := g.resolveType(scope.Parent(), &idl.ScopedType{Name: name}, false)
	if err != nil {
		return nil, errors.Wrapf(err, "base type of %s", of)
	}
	if full := ref.Type.FullName(); g.manager.IsFwdDeclared(full) {
		return nil, errors.InvalidInputf("%s inherits from %s which is only forward declared", of, full)
	}
	return ref.Type, nil
}

var primitives = map[idl.BasicType]TypeRef{
	idl.TypeShort:     {Type: cls.Int16},
	idl.TypeLong:      {Type: cls.Int32},
	idl.TypeLongLong:  {Type: cls.Int64},
	idl.TypeUShort:    {Type: cls.UInt16},
	idl.TypeULong:     {Type: cls.UInt32},
	idl.TypeULongLong: {Type: cls.UInt64},
	idl.TypeFloat:     {Type: cls.Single},
	idl.TypeDouble:    {Type: cls.Double},
	idl.TypeBoolean:   {Type: cls.Boolean},
	idl.TypeOctet:     {Type: cls.Byte},
	idl.TypeVoid:      {Type: cls.Void},
	idl.TypeChar:      {Type: cls.Char, Attrs: cls.NewAttributeSet(cls.WideCharAttr(false))},
	idl.TypeWChar:     {Type: cls.Char, Attrs: cls.NewAttributeSet(cls.WideCharAttr(true))},
	idl.TypeString:    {Type: cls.String, Attrs: cls.NewAttributeSet(cls.WideCharAttr(false))},
	idl.TypeWString:   {Type: cls.String, Attrs: cls.NewAttributeSet(cls.WideCharAttr(true))},
	idl.TypeAny:       {Type: cls.Object, Attrs: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrObjectIdlType, Value: cls.ObjectAsAny})},
	idl.TypeValueBase: {Type: cls.Object, Attrs: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrObjectIdlType, Value: cls.ObjectAsValueBase})},
	idl.TypeObject:    {Type: cls.MarshalByRefObject},
}

// resolveType maps an IDL type reference seen from scope. inSequence is
// set for the element types of sequences, where a struct may refer to itself.
func (g *metadataGenerator) resolveType(scope *symtab.Scope, t idl.Type, inSequence bool) (TypeRef, error) {
	switch t := t.(type) {
	case *idl.SimpleType:
		ref, ok := primitives[t.Name]
		if !ok {
			return TypeRef{}, errors.Unsupportedf("type %s is not supported", t.TypeName())
		}
		return ref, nil

	case *idl.SequenceType:
		elem, err := g.resolveType(scope, t.ElementType, true)
		if err != nil {
			return TypeRef{}, err
		}
		order := len(elem.Attrs.GetAll(cls.AttrIdlSequence)) + len(elem.Attrs.GetAll(cls.AttrIdlArray))
		bound := t.MaxSize
		if bound < 0 {
			bound = 0
		}
		return TypeRef{
			Type:  g.manager.Module().ArrayOf(elem.Type, 1),
			Attrs: elem.Attrs.With(cls.SequenceAttr(order, bound)),
		}, nil

	case *idl.FixedType:
		return TypeRef{}, errors.Unsupportedf("fixed point type %s is not supported", t.TypeName())

	case *idl.ScopedType:
		sym, ok := scope.Resolve(t.Name)
		if !ok {
			return TypeRef{}, errors.InvalidInputf("type %s not found", t.Name)
		}
		if sym.Kind() == symtab.Value {
			return TypeRef{}, errors.InvalidInputf("%s is not a type", t.Name)
		}
		full := sym.FullName()
		if !inSequence && g.manager.IsPublishedForSequenceRecursion(full) {
			return TypeRef{}, errors.InvalidInputf("struct %s can only contain itself through a sequence", full)
		}
		ref, ok := g.manager.Resolve(full, sym.RepositoryID())
		if !ok {
			return TypeRef{}, errors.Invariantf("type %s should be declared, but is not", full)
		}
		return ref, nil
	}
	return TypeRef{}, errors.Invariantf("unknown type reference %T", t)
}
