package generator_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/generator"
	"github.com/ifabos/go-idlmap/mapping"
)

func newUniverse(t *testing.T, types ...*cls.Type) *cls.Universe {
	t.Helper()
	u := cls.NewUniverse()
	for _, typ := range types {
		require.NoError(t, u.Add(typ))
	}
	return u
}

func newSession(t *testing.T, u *cls.Universe, opts ...generator.Option) (*generator.Generator, *generator.MemoryWriter) {
	t.Helper()
	out := generator.NewMemoryWriter()
	return generator.New(mapping.NewClassifier(u, nil, false), out, opts...), out
}

func iface(ns, name string, methods ...*cls.Method) *cls.Type {
	return &cls.Type{Name: name, Namespace: ns, Category: cls.Interface, Methods: methods}
}

func returning(name string, ret *cls.Type, params ...*cls.Param) *cls.Method {
	return &cls.Method{Name: name, Return: ret, Params: params}
}

func in(name string, typ *cls.Type) *cls.Param {
	return &cls.Param{Name: name, Type: typ, Direction: cls.In}
}

func file(t *testing.T, out *generator.MemoryWriter, path string) string {
	t.Helper()
	content, ok := out.File(path)
	require.True(t, ok, "artifact %s missing, have %v", path, out.Paths())
	return content
}

func TestMapSingleInterface(t *testing.T) {
	foo := iface("Demo", "Foo", returning("Echo", cls.Int32, in("arg", cls.Int32)))
	gen, out := newSession(t, newUniverse(t, foo))

	require.NoError(t, gen.MapType(foo, cls.EmptyAttributes))

	assert.Equal(t, []string{"Demo/Foo.idl"}, out.Paths())
	assert.Equal(t, 0, gen.Stats().ForwardDecls)
	assert.Equal(t, 0, gen.Manager().Pending())
	_, ok := gen.Manager().GetNextTypeToMap()
	assert.False(t, ok)

	expected := `// auto-generated IDL file by CLS to IDL mapper

// Demo/Foo.idl

#include "orb.idl"
#include "Predef.idl"

#ifndef __Demo_Foo__
#define __Demo_Foo__
module Demo {

abstract interface Foo {
long Echo(in long arg) raises (::Ch::Elca::Iiop::GenericUserException);
};

#pragma ID Foo "IDL:Demo/Foo:1.0"

};

#endif
`
	assert.Equal(t, expected, file(t, out, "Demo/Foo.idl"))
}

func TestMapTypeIsIdempotent(t *testing.T) {
	foo := iface("Demo", "Foo", returning("Echo", cls.Int32, in("arg", cls.Int32)))
	gen, out := newSession(t, newUniverse(t, foo))

	require.NoError(t, gen.MapType(foo, cls.EmptyAttributes))
	require.NoError(t, gen.MapType(foo, cls.EmptyAttributes))

	assert.Equal(t, 1, out.Len())
	assert.Equal(t, 1, gen.Stats().Artifacts)
}

func TestInterfaceCycleTerminates(t *testing.T) {
	a := iface("Demo", "A")
	b := iface("Demo", "B")
	a.Methods = []*cls.Method{returning("GetB", b)}
	b.Methods = []*cls.Method{returning("GetA", a)}
	gen, out := newSession(t, newUniverse(t, a, b))

	require.NoError(t, gen.MapType(a, cls.EmptyAttributes))

	assert.ElementsMatch(t, []string{"Demo/A.idl", "Demo/B.idl"}, out.Paths())

	aIdl := file(t, out, "Demo/A.idl")
	assert.Equal(t, 1, strings.Count(aIdl, "abstract interface B;"))
	assert.Contains(t, aIdl, "#ifndef __Demo_B__\nmodule Demo {\n\nabstract interface B;\n};\n#endif\n")
	assert.Contains(t, aIdl, "::Demo::B GetB() raises (::Ch::Elca::Iiop::GenericUserException);")
	assert.True(t, strings.HasSuffix(aIdl, "\n#include \"Demo/B.idl\"\n#endif\n"))

	// A is complete when B is mapped, so B includes it instead of declaring it forward
	bIdl := file(t, out, "Demo/B.idl")
	assert.Equal(t, 0, strings.Count(bIdl, "abstract interface A;"))
	assert.Equal(t, 1, strings.Count(bIdl, "abstract interface B {"))
	assert.Less(t, strings.Index(bIdl, `#include "Demo/A.idl"`), strings.Index(bIdl, "#define __Demo_B__"))
	assert.NotContains(t, bIdl[strings.Index(bIdl, "#pragma ID"):], "#include")

	assert.Equal(t, 1, gen.Stats().ForwardDecls)
	assert.Equal(t, 0, gen.Manager().Pending())
}

func TestLongForwardChainIsNotNested(t *testing.T) {
	n := generator.DefaultMaxDepth + 44
	chain := make([]*cls.Type, n)
	for i := range chain {
		chain[i] = iface("Demo", fmt.Sprintf("I%d", i))
	}
	for i := 0; i < n-1; i++ {
		chain[i].Methods = []*cls.Method{returning("Next", chain[i+1])}
	}
	gen, out := newSession(t, newUniverse(t, chain...))

	require.NoError(t, gen.MapType(chain[0], cls.EmptyAttributes))

	assert.Equal(t, n, out.Len())
	assert.Equal(t, n-1, gen.Stats().ForwardDecls)
	assert.Equal(t, 1, gen.Stats().MaxDepth)
	assert.Equal(t, 0, gen.Manager().Pending())

	first := file(t, out, "Demo/I0.idl")
	assert.Contains(t, first, "abstract interface I1;")
	assert.True(t, strings.HasSuffix(first, "\n#include \"Demo/I1.idl\"\n#endif\n"))
	last := file(t, out, fmt.Sprintf("Demo/I%d.idl", n-1))
	assert.NotContains(t, last, "#include \"Demo/")
}

func TestMapTypeWithinForwardChainKeepsLimit(t *testing.T) {
	// the chain is forward declared, the nested limit only applies to the struct
	inner := &cls.Type{Name: "Inner", Namespace: "Deep", Category: cls.Struct, Base: cls.ValueType,
		Attributes: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrIdlStruct})}
	outer := &cls.Type{Name: "Outer", Namespace: "Deep", Category: cls.Struct, Base: cls.ValueType,
		Attributes: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrIdlStruct}),
		Fields:     []*cls.Field{{Name: "inner", Type: inner}}}
	second := iface("Deep", "Second", returning("Get", outer))
	first := iface("Deep", "First", returning("Next", second))
	gen, _ := newSession(t, newUniverse(t, inner, outer, second, first), generator.WithMaxDepth(2))

	err := gen.MapType(first, cls.EmptyAttributes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDepthExceeded))
}

func TestSelfReferencingValueArray(t *testing.T) {
	u := cls.NewUniverse()
	node := &cls.Type{Name: "Node", Namespace: "Demo", Category: cls.Class, Base: cls.Object, Serializable: true}
	require.NoError(t, u.Add(node))
	node.Fields = []*cls.Field{{Name: "children", Type: u.ArrayOf(node, 1)}}
	gen, out := newSession(t, u)

	require.NoError(t, gen.MapType(node, cls.EmptyAttributes))

	assert.ElementsMatch(t, []string{"Demo/Node.idl", "org/omg/boxedRMI/Demo/seq1_Node.idl"}, out.Paths())

	nodeIdl := file(t, out, "Demo/Node.idl")
	assert.Equal(t, 1, strings.Count(nodeIdl, "valuetype Node {"))
	assert.Contains(t, nodeIdl, `#include "org/omg/boxedRMI/Demo/seq1_Node.idl"`)
	assert.Contains(t, nodeIdl, "public ::org::omg::boxedRMI::Demo::seq1_Node children;")
	assert.Less(t, strings.Index(nodeIdl, "seq1_Node.idl"), strings.Index(nodeIdl, "#ifndef __Demo_Node__"))

	boxed := file(t, out, "org/omg/boxedRMI/Demo/seq1_Node.idl")
	assert.Contains(t, boxed, "valuetype Node;")
	assert.Contains(t, boxed, "valuetype seq1_Node sequence<::Demo::Node>;")
	assert.Contains(t, boxed, `#include "Demo/Node.idl"`)
	assert.Equal(t, 0, gen.Manager().Pending())
}

func TestInheritanceMappedFirst(t *testing.T) {
	base := iface("Demo", "Base", returning("Ping", cls.Void))
	derived := iface("Demo", "Derived", returning("Pong", cls.Void))
	derived.Interfaces = []*cls.Type{base}
	gen, out := newSession(t, newUniverse(t, base, derived))

	require.NoError(t, gen.MapType(derived, cls.EmptyAttributes))

	require.Equal(t, []string{"Demo/Derived.idl", "Demo/Base.idl"}, out.Paths())
	derivedIdl := file(t, out, "Demo/Derived.idl")
	assert.Contains(t, derivedIdl, "abstract interface Derived: ::Demo::Base {")
	assert.Less(t, strings.Index(derivedIdl, `#include "Demo/Base.idl"`), strings.Index(derivedIdl, "#define __Demo_Derived__"))
	assert.NotContains(t, derivedIdl, "abstract interface Base;")
}

func TestInheritedMethodsNotRepeated(t *testing.T) {
	ping := returning("Ping", cls.Void)
	base := iface("Demo", "Base", ping)
	impl := &cls.Type{
		Name: "Impl", Namespace: "Demo", Category: cls.Class, Base: cls.MarshalByRefObject,
		Interfaces: []*cls.Type{base},
		Methods:    []*cls.Method{returning("Ping", cls.Void), returning("Extra", cls.Int16)},
	}
	gen, out := newSession(t, newUniverse(t, base, impl))

	require.NoError(t, gen.MapType(impl, cls.EmptyAttributes))

	implIdl := file(t, out, "Demo/Impl.idl")
	assert.Contains(t, implIdl, "interface Impl: ::Demo::Base {\n\n")
	assert.NotContains(t, implIdl, "Ping")
	assert.Contains(t, implIdl, "short Extra() raises (::Ch::Elca::Iiop::GenericUserException);")
}

func TestSequenceParameterUsesTypedef(t *testing.T) {
	u := cls.NewUniverse()
	ints := u.ArrayOf(cls.Int32, 1)
	svc := iface("Demo", "Sum", &cls.Method{
		Name:   "Add",
		Return: cls.Int32,
		Params: []*cls.Param{{Name: "values", Type: ints, Direction: cls.In, Attrs: cls.NewAttributeSet(cls.SequenceAttr(0, 0))}},
	})
	require.NoError(t, u.Add(svc))
	gen, out := newSession(t, u)

	require.NoError(t, gen.MapType(svc, cls.EmptyAttributes))

	seq := file(t, out, "org/omg/seqTypeDef/seqTd0_long.idl")
	assert.Contains(t, seq, "#ifndef __org_omg_seqTypeDef_seqTd0_long__")
	assert.Contains(t, seq, "typedef sequence<long> seqTd0_long ;\n\n};\n};\n};\n")
	assert.NotContains(t, seq, "#pragma ID")

	svcIdl := file(t, out, "Demo/Sum.idl")
	assert.Contains(t, svcIdl, `#include "org/omg/seqTypeDef/seqTd0_long.idl"`)
	assert.Contains(t, svcIdl, "long Add(in ::org::omg::seqTypeDef::seqTd0_long values)")
}

func TestStructFieldSequenceIsAnonymous(t *testing.T) {
	u := cls.NewUniverse()
	point := &cls.Type{Name: "Point", Namespace: "Geo", Category: cls.Struct, Base: cls.ValueType,
		Attributes: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrIdlStruct})}
	require.NoError(t, u.Add(point))
	shape := &cls.Type{Name: "Shape", Namespace: "Geo", Category: cls.Struct, Base: cls.ValueType,
		Attributes: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrIdlStruct}),
		Fields: []*cls.Field{
			{Name: "points", Type: u.ArrayOf(point, 1), Attrs: cls.NewAttributeSet(cls.SequenceAttr(0, 8))},
			{Name: "name", Type: cls.String, Attrs: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrStringValue})},
		}}
	require.NoError(t, u.Add(shape))
	gen, out := newSession(t, u)

	require.NoError(t, gen.MapType(shape, cls.EmptyAttributes))

	assert.ElementsMatch(t, []string{"Geo/Shape.idl", "Geo/Point.idl"}, out.Paths())
	shapeIdl := file(t, out, "Geo/Shape.idl")
	assert.Contains(t, shapeIdl, "struct Shape {\nsequence<::Geo::Point, 8> points;\nstring name;\n};\n")
	assert.Contains(t, shapeIdl, `#include "Geo/Point.idl"`)
	assert.Contains(t, shapeIdl, `#pragma ID Shape "IDL:Geo/Shape:1.0"`)
}

func TestFixedArrayTypedef(t *testing.T) {
	u := cls.NewUniverse()
	matrix := u.ArrayOf(cls.Double, 2)
	holder := iface("Demo", "Grid", &cls.Method{
		Name: "Get", Return: matrix, ReturnAttrs: cls.NewAttributeSet(cls.ArrayAttr(0, 3, 4)),
	})
	require.NoError(t, u.Add(holder))
	gen, out := newSession(t, u)

	require.NoError(t, gen.MapType(holder, cls.EmptyAttributes))

	arr := file(t, out, "org/omg/arrayTypeDef/arrayTd_3_4_double.idl")
	assert.Contains(t, arr, "typedef double arrayTd_3_4_double[3][4];")
	assert.Contains(t, file(t, out, "Demo/Grid.idl"), "::org::omg::arrayTypeDef::arrayTd_3_4_double Get()")
}

func TestEnumDefinition(t *testing.T) {
	color := &cls.Type{Name: "Color", Namespace: "Demo", Category: cls.Enum, Base: cls.EnumType,
		EnumValues: []string{"Red", "Green", "Blue"}}
	gen, out := newSession(t, newUniverse(t, color))

	require.NoError(t, gen.MapType(color, cls.EmptyAttributes))

	idl := file(t, out, "Demo/Color.idl")
	assert.Contains(t, idl, "enum Color{\nColor_Red, Color_Green, Color_Blue\n};\n};\n")
	assert.NotContains(t, idl, "#pragma ID")
}

func TestConcreteValueMembers(t *testing.T) {
	shape := iface("Demo", "Shape")
	account := &cls.Type{
		Name: "Account", Namespace: "Bank", Category: cls.Class, Base: cls.Object, Serializable: true,
		Interfaces: []*cls.Type{shape},
		Fields: []*cls.Field{
			{Name: "id", Type: cls.Int64},
			{Name: "balance", Type: cls.Double, Private: true},
			{Name: "cache", Type: cls.Int32, Transient: true},
		},
		Methods:    []*cls.Method{returning("Total", cls.Double), {Name: "Hidden", Return: cls.Void, Private: true}},
		Properties: []*cls.Property{{Name: "Owner", Type: cls.Int32, CanRead: true}, {Name: "Sink", Type: cls.Int32, CanWrite: true}},
	}
	gen, out := newSession(t, newUniverse(t, shape, account))

	require.NoError(t, gen.MapType(account, cls.EmptyAttributes))

	idl := file(t, out, "Bank/Account.idl")
	assert.Contains(t, idl, "valuetype Account supports ::Demo::Shape {\npublic long long id;\nprivate double balance;\ndouble Total();\nreadonly attribute long Owner;\n};\n")
	assert.NotContains(t, idl, "cache")
	assert.NotContains(t, idl, "Hidden")
	assert.NotContains(t, idl, "Sink")
}

func TestOverloadedMethodNames(t *testing.T) {
	svc := iface("Demo", "Calc",
		returning("Add", cls.Int32, in("a", cls.Int32), in("b", cls.Int32)),
		returning("Add", cls.Double, in("a", cls.Double)),
	)
	gen, out := newSession(t, newUniverse(t, svc))

	require.NoError(t, gen.MapType(svc, cls.EmptyAttributes))

	idl := file(t, out, "Demo/Calc.idl")
	assert.Contains(t, idl, "long Add__long__long(in long a, in long b)")
	assert.Contains(t, idl, "double Add__double(in double a)")
}

func TestRaisesAndContext(t *testing.T) {
	failure := &cls.Type{Name: "Failure", Namespace: "Demo", Category: cls.Class, Base: cls.Exception, Serializable: true,
		Fields: []*cls.Field{{Name: "code", Type: cls.Int32}}}
	svc := iface("Demo", "Svc", &cls.Method{
		Name: "Run", Return: cls.Void, Raises: []*cls.Type{failure, cls.GenericUserException}, Context: []string{"user", "locale"},
	}, &cls.Method{Name: "Fire", Return: cls.Void, OneWay: true})
	gen, out := newSession(t, newUniverse(t, failure, svc))

	require.NoError(t, gen.MapType(svc, cls.EmptyAttributes))

	idl := file(t, out, "Demo/Svc.idl")
	assert.Contains(t, idl, `void Run() raises (::Ch::Elca::Iiop::GenericUserException, ::Demo::Failure) context ("user" ,"locale");`)
	assert.Contains(t, idl, "oneway void Fire();")
	assert.Contains(t, idl, `#include "Demo/Failure.idl"`)

	ex := file(t, out, "Demo/Failure.idl")
	assert.Contains(t, ex, "exception Failure{\nlong code;\n};\n")
}

func TestOneWayMustReturnVoid(t *testing.T) {
	svc := iface("Demo", "Bad", &cls.Method{Name: "Fire", Return: cls.Int32, OneWay: true})
	gen, _ := newSession(t, newUniverse(t, svc))

	err := gen.MapType(svc, cls.EmptyAttributes)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestUnionUnsupported(t *testing.T) {
	union := &cls.Type{Name: "U", Namespace: "Demo", Category: cls.Struct, Base: cls.ValueType,
		Attributes: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrIdlUnion})}
	gen, out := newSession(t, newUniverse(t, union))

	err := gen.MapType(union, cls.EmptyAttributes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
	assert.Equal(t, 0, out.Len())
}

func TestMaxDepth(t *testing.T) {
	structType := func(name string, fields ...*cls.Field) *cls.Type {
		return &cls.Type{Name: name, Namespace: "Deep", Category: cls.Struct, Base: cls.ValueType,
			Attributes: cls.NewAttributeSet(cls.Attribute{Kind: cls.AttrIdlStruct}), Fields: fields}
	}
	s3 := structType("S3")
	s2 := structType("S2", &cls.Field{Name: "next", Type: s3})
	s1 := structType("S1", &cls.Field{Name: "next", Type: s2})
	u := newUniverse(t, s1, s2, s3)

	gen, _ := newSession(t, u, generator.WithMaxDepth(2))
	err := gen.MapType(s1, cls.EmptyAttributes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDepthExceeded))

	gen, out := newSession(t, u, generator.WithMaxDepth(3))
	require.NoError(t, gen.MapType(s1, cls.EmptyAttributes))
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, 3, gen.Stats().MaxDepth)
}

func TestCustomMappingIncludesPluginFile(t *testing.T) {
	list := &cls.Type{Name: "List", Namespace: "Demo", Category: cls.Class, Base: cls.Object, Serializable: true}
	target := &cls.Type{Name: "ArrayList", Namespace: "java.util", Category: cls.Class, Base: cls.Object, Serializable: true, IdlEntity: true}
	svc := iface("Demo", "Store", returning("All", list))
	u := newUniverse(t, list, target, svc)
	plugin := mapping.NewPlugin()
	require.NoError(t, plugin.Add(list, target, "java/util/ArrayList.idl"))
	out := generator.NewMemoryWriter()
	gen := generator.New(mapping.NewClassifier(u, plugin, false), out)

	require.NoError(t, gen.MapType(svc, cls.EmptyAttributes))

	assert.Equal(t, []string{"Demo/Store.idl"}, out.Paths())
	idl := file(t, out, "Demo/Store.idl")
	assert.Contains(t, idl, `#include "java/util/ArrayList.idl"`)
	assert.Contains(t, idl, "::java::util::ArrayList All()")
	assert.NotContains(t, idl, "valuetype ArrayList;")
}

func TestTransitiveDependenciesMapped(t *testing.T) {
	// Color is only reachable through B, which A declares forward
	color := &cls.Type{Name: "Color", Namespace: "Demo", Category: cls.Enum, Base: cls.EnumType, EnumValues: []string{"Red"}}
	b := iface("Demo", "B", returning("Paint", cls.Void, in("c", color)))
	a := iface("Demo", "A", returning("GetB", b))
	gen, out := newSession(t, newUniverse(t, color, b, a))

	require.NoError(t, gen.MapType(a, cls.EmptyAttributes))

	assert.ElementsMatch(t, []string{"Demo/A.idl", "Demo/B.idl", "Demo/Color.idl"}, out.Paths())
	assert.Equal(t, 0, gen.Manager().Pending())
}

func TestDirWriter(t *testing.T) {
	dir := t.TempDir()
	foo := iface("Demo", "Foo", returning("Echo", cls.Int32, in("arg", cls.Int32)))
	gen := generator.New(mapping.NewClassifier(newUniverse(t, foo), nil, false), generator.NewDirWriter(dir))

	require.NoError(t, gen.MapType(foo, cls.EmptyAttributes))

	content, err := os.ReadFile(filepath.Join(dir, "Demo", "Foo.idl"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "abstract interface Foo {")
}

func TestSessionsAreIndependent(t *testing.T) {
	foo := iface("Demo", "Foo")
	u := newUniverse(t, foo)
	first, firstOut := newSession(t, u)
	second, secondOut := newSession(t, u)

	require.NoError(t, first.MapType(foo, cls.EmptyAttributes))
	require.NoError(t, second.MapType(foo, cls.EmptyAttributes))

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 1, firstOut.Len())
	assert.Equal(t, 1, secondOut.Len())
}
