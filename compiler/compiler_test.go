package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/compiler"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/idl"
)

func spec(t *testing.T, name, content string) *idl.Specification {
	t.Helper()
	p := idl.NewParser()
	require.NoError(t, p.Parse(strings.NewReader(content)))
	return p.Specification(name)
}

func compile(t *testing.T, content string) map[string]*cls.Type {
	t.Helper()
	types, err := compiler.New().Compile(spec(t, "test.idl", content))
	require.NoError(t, err)
	return byName(types)
}

func compileErr(t *testing.T, content string) error {
	t.Helper()
	_, err := compiler.New().Compile(spec(t, "test.idl", content))
	require.Error(t, err)
	return err
}

func byName(types []*cls.Type) map[string]*cls.Type {
	result := make(map[string]*cls.Type, len(types))
	for _, t := range types {
		result[t.FullName()] = t
	}
	return result
}

func method(t *testing.T, typ *cls.Type, name string) *cls.Method {
	t.Helper()
	for _, m := range typ.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("method %s not found on %s", name, typ.FullName())
	return nil
}

func TestInterfaces(t *testing.T) {
	types := compile(t, `
module shop {
    interface Item {
        readonly attribute string name;
        attribute wstring label;
        long price(in short count, out boolean cached, inout double rate);
        oneway void touch();
    };
    abstract interface Visitor { void visit(in Item i); };
    local interface Cache {};
    interface SpecialItem : Item, Visitor {};
};`)

	item := types["shop.Item"]
	require.NotNil(t, item)
	assert.Equal(t, cls.Interface, item.Category)
	assert.True(t, item.IdlEntity)
	assert.Equal(t, "IDL:shop/Item:1.0", item.RepositoryID())
	attr, ok := item.Attributes.Get(cls.AttrInterfaceType)
	require.True(t, ok)
	assert.Equal(t, cls.InterfaceConcrete, attr.Value)

	require.Len(t, item.Properties, 2)
	assert.Equal(t, "name", item.Properties[0].Name)
	assert.False(t, item.Properties[0].CanWrite)
	assert.True(t, item.Properties[1].CanWrite)
	wide, ok := item.Properties[1].Attrs.Get(cls.AttrWideChar)
	require.True(t, ok)
	assert.True(t, wide.Wide)

	price := method(t, item, "price")
	assert.Same(t, cls.Int32, price.Return)
	require.Len(t, price.Params, 3)
	assert.Equal(t, cls.In, price.Params[0].Direction)
	assert.Same(t, cls.Int16, price.Params[0].Type)
	assert.Equal(t, cls.Out, price.Params[1].Direction)
	assert.True(t, price.Params[1].Type.IsByRef())
	assert.Same(t, cls.Boolean, price.Params[1].Type.Elem)
	assert.Equal(t, cls.InOut, price.Params[2].Direction)
	assert.True(t, method(t, item, "touch").OneWay)

	visitor := types["shop.Visitor"]
	attr, _ = visitor.Attributes.Get(cls.AttrInterfaceType)
	assert.Equal(t, cls.InterfaceAbstract, attr.Value)
	assert.Same(t, item, method(t, visitor, "visit").Params[0].Type)

	attr, _ = types["shop.Cache"].Attributes.Get(cls.AttrInterfaceType)
	assert.Equal(t, cls.InterfaceLocal, attr.Value)

	assert.Equal(t, []*cls.Type{item, visitor}, types["shop.SpecialItem"].Interfaces)
}

func TestForwardDeclaredInterfacesKeepIdentity(t *testing.T) {
	types := compile(t, `
module m {
    interface B;
    interface A { B peer(); };
    interface B { A peer(); };
};`)
	a, b := types["m.A"], types["m.B"]
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Same(t, b, method(t, a, "peer").Return)
	assert.Same(t, a, method(t, b, "peer").Return)
}

func TestValueTypes(t *testing.T) {
	types := compile(t, `
module v {
    interface Named { string name(); };
    abstract valuetype Printable { void print(); };
    valuetype Point { public long x; private long y; };
    valuetype Labeled : Point, Printable supports Named {
        public string label;
        void relabel(in string label);
    };
    valuetype Count long;
};`)

	printable := types["v.Printable"]
	assert.Equal(t, cls.Interface, printable.Category)
	attr, _ := printable.Attributes.Get(cls.AttrInterfaceType)
	assert.Equal(t, cls.InterfaceAbstractValue, attr.Value)

	point := types["v.Point"]
	assert.Equal(t, cls.Class, point.Category)
	assert.True(t, point.Serializable)
	assert.False(t, point.Abstract)
	assert.Same(t, cls.Object, point.Base)
	require.Len(t, point.Fields, 2)
	assert.False(t, point.Fields[0].Private)
	assert.True(t, point.Fields[1].Private)

	labeled := types["v.Labeled"]
	assert.Same(t, point, labeled.Base)
	assert.True(t, labeled.Abstract, "value types with operations are implemented by the user")
	assert.Equal(t, []*cls.Type{printable, types["v.Named"]}, labeled.Interfaces)

	count := types["v.Count"]
	assert.Same(t, cls.BoxedValueBase, count.Base)
	require.Len(t, count.Fields, 1)
	assert.Equal(t, "m_val", count.Fields[0].Name)
	assert.Same(t, cls.Int32, count.Fields[0].Type)
}

func TestValueTypeInheritanceErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"abstract from concrete", `valuetype C {}; abstract valuetype A : C {};`},
		{"concrete base not first", `abstract valuetype A {}; valuetype B {}; valuetype C : A, B {};`},
		{"value from interface", `interface I {}; valuetype V : I {};`},
		{"supports value", `abstract valuetype A {}; valuetype V supports A {};`},
		{"interface from value", `abstract valuetype A {}; interface I : A {};`},
		{"abstract from concrete interface", `interface I {}; abstract interface A : I {};`},
		{"unconstrained from local", `local interface L {}; interface I : L {};`},
		{"from forward declaration", `interface F; interface I : F {}; interface F {};`},
		{"unknown base", `interface I : Missing {};`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.content)
			assert.True(t, errors.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestStructsExceptionsAndEnums(t *testing.T) {
	types := compile(t, `
module data {
    enum Color { red, green, blue };
    struct Node {
        Color color;
        sequence<Node> children;
        sequence<sequence<long>, 4> grid;
        any payload;
    };
    exception Failed { string reason; };
    interface Tree {
        Node root() raises (Failed);
    };
};`)

	color := types["data.Color"]
	assert.Equal(t, cls.Enum, color.Category)
	assert.Same(t, cls.EnumType, color.Base)
	assert.Same(t, cls.Int32, color.EnumUnderlying)
	assert.Equal(t, []string{"red", "green", "blue"}, color.EnumValues)
	assert.True(t, color.Attributes.Has(cls.AttrIdlEnum))

	node := types["data.Node"]
	assert.Equal(t, cls.Struct, node.Category)
	assert.Same(t, cls.ValueType, node.Base)
	assert.True(t, node.Attributes.Has(cls.AttrIdlStruct))
	require.Len(t, node.Fields, 4)
	assert.Same(t, color, node.Fields[0].Type)

	children := node.Fields[1]
	assert.True(t, children.Type.IsArray())
	assert.Same(t, node, children.Type.Elem, "a struct may contain itself through a sequence")
	seq, ok := children.Attrs.Get(cls.AttrIdlSequence)
	require.True(t, ok)
	assert.Equal(t, 0, seq.Order)

	grid := node.Fields[2]
	assert.Same(t, cls.Int32, grid.Type.Elem.Elem)
	outer, ok := grid.Attrs.Get(cls.AttrIdlSequence)
	require.True(t, ok)
	assert.Equal(t, 1, outer.Order)
	assert.Equal(t, 4, outer.Bound)
	assert.Len(t, grid.Attrs.GetAll(cls.AttrIdlSequence), 2)

	objType, ok := node.Fields[3].Attrs.Get(cls.AttrObjectIdlType)
	require.True(t, ok)
	assert.Equal(t, cls.ObjectAsAny, objType.Value)
	assert.Same(t, cls.Object, node.Fields[3].Type)

	failed := types["data.Failed"]
	assert.True(t, failed.DerivesFrom(cls.Exception))
	assert.Equal(t, []*cls.Type{failed}, method(t, types["data.Tree"], "root").Raises)
}

func TestStructCannotContainItselfDirectly(t *testing.T) {
	err := compileErr(t, `struct S { long a; S next; };`)
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)
}

func TestTypedefs(t *testing.T) {
	types := compile(t, `
module td {
    typedef sequence<string, 8> Names;
    typedef Names Aliases;
    typedef long Id;
    struct Person { Id id; Aliases aliases; };
};`)
	person := types["td.Person"]
	require.NotNil(t, person)
	_, ok := types["td.Names"]
	assert.False(t, ok, "typedefs do not create types")

	assert.Same(t, cls.Int32, person.Fields[0].Type)
	aliases := person.Fields[1]
	assert.Same(t, cls.String, aliases.Type.Elem)
	seq, ok := aliases.Attrs.Get(cls.AttrIdlSequence)
	require.True(t, ok)
	assert.Equal(t, 8, seq.Bound)
	assert.True(t, aliases.Attrs.Has(cls.AttrWideChar))
}

func TestNestedTypesAndPragmas(t *testing.T) {
	types := compile(t, `
#pragma prefix "acme.com"
module outer {
    interface Holder {
        struct Entry { long key; };
        Entry first();
    };
    interface Renamed {};
#pragma ID Renamed "IDL:renamed/Thing:2.0"
};`)
	entry := types["acme.com.outer.Holder_package.Entry"]
	require.NotNil(t, entry, "types nested in interfaces live in the _package namespace")
	assert.Equal(t, "IDL:acme.com/outer/Holder/Entry:1.0", entry.RepositoryID())

	holder := types["acme.com.outer.Holder"]
	require.NotNil(t, holder)
	assert.Same(t, entry, method(t, holder, "first").Return)

	assert.Equal(t, "IDL:renamed/Thing:2.0", types["acme.com.outer.Renamed"].RepositoryID())
}

func TestPredefinedTypes(t *testing.T) {
	types := compile(t, `
module p {
    interface I {
        CORBA::TypeCode code();
        CORBA::WStringValue text();
        Object target();
        ValueBase any_value();
    };
};`)
	i := types["p.I"]
	require.NotNil(t, i)
	assert.Len(t, types, 1, "predefined types are not built")
	assert.Same(t, cls.TypeCode, method(t, i, "code").Return)
	assert.Same(t, cls.WStringValue, method(t, i, "text").Return)
	assert.Same(t, cls.MarshalByRefObject, method(t, i, "target").Return)
	objType, ok := method(t, i, "any_value").ReturnAttrs.Get(cls.AttrObjectIdlType)
	require.True(t, ok)
	assert.Equal(t, cls.ObjectAsValueBase, objType.Value)
}

func TestUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"union", `union U switch (long) { case 1: long a; };`},
		{"array member", `struct S { long a[3]; };`},
		{"array typedef", `typedef long Row[3];`},
		{"fixed", `struct S { fixed<5,2> amount; };`},
		{"long double", `struct S { long double d; };`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.content)
			assert.True(t, errors.Is(err, errors.ErrUnsupported), "got %v", err)
		})
	}
}

func TestOperationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"oneway with result", `interface I { oneway long f(); };`},
		{"raises non exception", `struct S { long a; }; interface I { void f() raises (S); };`},
		{"unknown type", `interface I { Missing f(); };`},
		{"constant as type", `const long N = 1; interface I { N f(); };`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.content)
			assert.True(t, errors.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestRedefinition(t *testing.T) {
	err := compileErr(t, `module m { struct S { long a; }; interface S {}; };`)
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)
}

func TestForwardOnlyType(t *testing.T) {
	err := compileErr(t, `module m { interface Later; interface User { Later get(); }; };`)
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)
	assert.Contains(t, err.Error(), "::m::Later")
}

func TestUnitsSeeEarlierUnits(t *testing.T) {
	c := compiler.New()
	first, err := c.Compile(spec(t, "first.idl", `module m { interface Base {}; interface Later; };`))
	require.Error(t, err, "the forward declaration is not completed anywhere")
	assert.Nil(t, first)

	first, err = c.Compile(spec(t, "first.idl", `module m { interface Base {}; };`))
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.Compile(spec(t, "second.idl", `
module m {
    interface Base;
    interface Derived : Base {};
};`))
	require.NoError(t, err)
	require.Len(t, second, 1, "types of earlier units are not built again")
	assert.Equal(t, []*cls.Type{first[0]}, second[0].Interfaces)

	assert.Len(t, c.Types(), 2)
	module, err := c.Module()
	require.NoError(t, err)
	derived, ok := module.Lookup("m.Derived")
	require.True(t, ok)
	assert.Same(t, second[0], derived)
	assert.NotEmpty(t, c.SessionID())
}

func TestRefLibrariesAreNotRebuilt(t *testing.T) {
	lib := cls.NewUniverse()
	external := &cls.Type{Name: "External", Namespace: "lib", Category: cls.Interface,
		Attributes: cls.NewAttributeSet(cls.RepositoryIDAttr("IDL:lib/External:1.0"))}
	require.NoError(t, lib.Add(external))

	c := compiler.New(compiler.WithRefLibraries(compiler.NewRefLibraries(lib)))
	types, err := c.Compile(spec(t, "user.idl", `
module lib { interface External { void f(); }; };
module app { interface User : lib::External {}; };`))
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, []*cls.Type{external}, types[0].Interfaces)
}
