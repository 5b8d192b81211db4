package idl_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/idl"
)

func TestPrimitiveTypes(t *testing.T) {
	root := parse(t, `
module TestMod {
    struct S {
        long long a;
        unsigned long long b;
        unsigned long c;
        unsigned short d;
        long double e;
        long f;
        wchar g;
        string<10> h;
        wstring i;
        Object j;
        ValueBase k;
    };
};`)
	st, ok := lookup(t, root, "TestMod", "S").(*idl.StructType)
	require.True(t, ok)

	var names []string
	for _, field := range st.Fields {
		names = append(names, field.Type.TypeName())
	}
	assert.Equal(t, []string{
		"long long", "unsigned long long", "unsigned long", "unsigned short",
		"long double", "long", "wchar", "string<10>", "wstring", "Object", "ValueBase",
	}, names)
}

func TestSequencesAndArrays(t *testing.T) {
	root := parse(t, `
module m {
    typedef sequence<sequence<long>> Matrix;
    typedef sequence<octet, 16> Bytes;
    typedef long Grid[2][3], Line[4];
    struct S {
        ::m::Bytes a, b;
        short c[5];
    };
};`)
	matrix, ok := lookup(t, root, "m", "Matrix").(*idl.TypeDef)
	require.True(t, ok)
	outer, ok := matrix.OrigType.(*idl.SequenceType)
	require.True(t, ok)
	assert.Equal(t, -1, outer.MaxSize)
	assert.Equal(t, "sequence<sequence<long>>", outer.TypeName())

	bytesDef := lookup(t, root, "m", "Bytes").(*idl.TypeDef)
	assert.Equal(t, 16, bytesDef.OrigType.(*idl.SequenceType).MaxSize)

	assert.Equal(t, []int{2, 3}, lookup(t, root, "m", "Grid").(*idl.TypeDef).Dims)
	assert.Equal(t, []int{4}, lookup(t, root, "m", "Line").(*idl.TypeDef).Dims)

	st := lookup(t, root, "m", "S").(*idl.StructType)
	require.Len(t, st.Fields, 3)
	assert.Equal(t, "::m::Bytes", st.Fields[0].Type.TypeName())
	assert.Equal(t, "b", st.Fields[1].Name)
	assert.Equal(t, []int{5}, st.Fields[2].Dims)
}

func TestInterfaces(t *testing.T) {
	root := parse(t, `
module m {
    interface Later;
    exception Failed { string reason; };
    abstract interface Named { readonly attribute string name; };
    local interface Local {};
    interface Later : Named, ::m::Local {
        attribute long a, b;
        oneway void ping();
        long add(in long x, inout long y, out long z) raises (Failed, m::Failed) context ("USER");
    };
};`)
	mod, _ := root.GetSubmodule("m")
	require.Len(t, mod.Definitions, 5, "forward declaration is kept in order")
	fwd, ok := mod.Definitions[0].(*idl.InterfaceType)
	require.True(t, ok)
	assert.True(t, fwd.Forward)

	later := lookup(t, root, "m", "Later").(*idl.InterfaceType)
	assert.False(t, later.Forward, "the definition replaces the forward declaration")
	assert.Equal(t, []string{"Named", "::m::Local"}, later.Parents)
	require.Len(t, later.Attributes, 2)
	assert.False(t, later.Attributes[1].Readonly)

	require.Len(t, later.Operations, 2)
	assert.True(t, later.Operations[0].Oneway)
	add := later.Operations[1]
	require.Len(t, add.Parameters, 3)
	assert.Equal(t, idl.InOut, add.Parameters[1].Direction)
	assert.Equal(t, idl.Out, add.Parameters[2].Direction)
	assert.Equal(t, []string{"Failed", "m::Failed"}, add.Raises)
	assert.Equal(t, []string{"USER"}, add.Context)

	assert.True(t, lookup(t, root, "m", "Named").(*idl.InterfaceType).Abstract)
	assert.True(t, lookup(t, root, "m", "Local").(*idl.InterfaceType).Local)
}

func TestValueTypes(t *testing.T) {
	root := parse(t, `
module m {
    valuetype Node;
    valuetype Label string;
    abstract valuetype Shape {};
    interface Printable {};
    valuetype Node : truncatable Shape supports Printable {
        public long value;
        private Node next;
        public Label tags[3];
        factory create(in long value);
        Node clone();
    };
    custom valuetype Blob { public sequence<octet> data; };
};`)
	label, ok := lookup(t, root, "m", "Label").(*idl.ValueBoxType)
	require.True(t, ok)
	assert.Equal(t, "string", label.Boxed.TypeName())

	assert.True(t, lookup(t, root, "m", "Shape").(*idl.ValueType).Abstract)
	assert.True(t, lookup(t, root, "m", "Blob").(*idl.ValueType).Custom)

	node := lookup(t, root, "m", "Node").(*idl.ValueType)
	assert.False(t, node.Forward)
	assert.True(t, node.Truncatable)
	assert.Equal(t, []string{"Shape"}, node.Parents)
	assert.Equal(t, []string{"Printable"}, node.Supports)
	require.Len(t, node.Members, 3)
	assert.True(t, node.Members[0].Public)
	assert.False(t, node.Members[1].Public)
	assert.Equal(t, []int{3}, node.Members[2].Dims)
	require.Len(t, node.Operations, 1, "factories are not operations")
	assert.Equal(t, "clone", node.Operations[0].Name)
}

func TestModuleReopening(t *testing.T) {
	root := parse(t, `
module a { struct First { long x; }; };
module b { struct Second { a::First f; }; };
module a { struct Third { b::Second s; }; };`)

	var order []string
	for _, def := range root.Definitions {
		mod := def.(*idl.Module)
		for _, inner := range mod.Definitions {
			order = append(order, mod.Name+"::"+inner.DefName())
		}
	}
	assert.Equal(t, []string{"a::First", "b::Second", "a::Third"}, order)

	a, _ := root.GetSubmodule("a")
	_, ok := a.GetType("Third")
	assert.True(t, ok, "reopened modules share their names")
	assert.Len(t, root.Submodules, 2)
}

func TestUnionAndConst(t *testing.T) {
	root := parse(t, `
module m {
    const long MAX = 10 * 2;
    const string NAME = "idl";
    union U switch (long) {
        case 1: case 2: long l;
        case -3: string s;
        default: octet o;
    };
};`)
	maxConst := lookup(t, root, "m", "MAX").(*idl.ConstDecl)
	assert.Equal(t, "10 * 2", maxConst.Value)
	assert.Equal(t, `"idl"`, lookup(t, root, "m", "NAME").(*idl.ConstDecl).Value)

	u := lookup(t, root, "m", "U").(*idl.UnionType)
	require.Len(t, u.Cases, 3)
	assert.Equal(t, []string{"1", "2"}, u.Cases[0].Labels)
	assert.Equal(t, []string{"-3"}, u.Cases[1].Labels)
	assert.Equal(t, []string{"default"}, u.Cases[2].Labels)
}

func TestPragmas(t *testing.T) {
	root := parse(t, `
#pragma prefix "omg.org"
module CORBA {
    interface TypeCode {};
    #pragma ID TypeCode "IDL:omg.org/CORBA/TypeCode:1.0"
};
#pragma prefix ""
#pragma version CORBA 2.3`)
	require.Len(t, root.Definitions, 3)
	prefix, ok := root.Definitions[0].(*idl.PragmaPrefix)
	require.True(t, ok)
	assert.Equal(t, "omg.org", prefix.Prefix)
	assert.Equal(t, "", root.Definitions[2].(*idl.PragmaPrefix).Prefix)

	corba, _ := root.GetSubmodule("CORBA")
	require.Len(t, corba.Definitions, 2)
	id, ok := corba.Definitions[1].(*idl.PragmaID)
	require.True(t, ok)
	assert.Equal(t, "TypeCode", id.Target)
	assert.Equal(t, "IDL:omg.org/CORBA/TypeCode:1.0", id.ID)
	assert.Len(t, corba.Types, 1, "pragmas declare no names")
}

func TestIncludes(t *testing.T) {
	files := map[string]string{
		"base.idl": `module m { struct Base { long id; }; };`,
	}
	var opened []string
	parser := idl.NewParser()
	parser.SetIncludeHandler(func(path string) (io.Reader, error) {
		opened = append(opened, path)
		content, ok := files[path]
		if !ok {
			return nil, nil
		}
		return strings.NewReader(content), nil
	})
	err := parser.Parse(bytes.NewBufferString(`
#include "orb.idl"
#include "base.idl"
#include <base.idl>
module m { struct Derived { Base b; }; };`))
	require.NoError(t, err)

	assert.Equal(t, []string{"orb.idl", "base.idl"}, opened, "each file is included once")
	lookup(t, parser.GetRootModule(), "m", "Base")
	lookup(t, parser.GetRootModule(), "m", "Derived")
}

func TestIncludeNotSupportedByDefault(t *testing.T) {
	err := idl.NewParser().Parse(bytes.NewBufferString(`#include "x.idl"`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestGeneratedArtifact(t *testing.T) {
	parser := idl.NewParser()
	parser.SetIncludeHandler(func(string) (io.Reader, error) { return nil, nil })
	err := parser.Parse(bytes.NewBufferString(`// generated file
#ifndef __m_Later__
module m {
    interface Later;
};
#endif
#include "orb.idl"
#include "Predef.idl"

#ifndef __m_Node__
#define __m_Node__
module m {
    valuetype Node {
        public Later next;
        public ::m::seqTd0_Node children;
    };
#pragma ID Node "RMI:m.Node:0000000000000000"
};
#endif
`))
	require.NoError(t, err)
	root := parser.GetRootModule()

	node, ok := lookup(t, root, "m", "Node").(*idl.ValueType)
	require.True(t, ok)
	assert.Equal(t, "::m::seqTd0_Node", node.Members[1].Type.TypeName())

	later, ok := lookup(t, root, "m", "Later").(*idl.InterfaceType)
	require.True(t, ok)
	assert.True(t, later.Forward)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "inc")
	require.NoError(t, os.Mkdir(inc, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inc, "common.idl"), []byte(`module c { typedef long Id; };`), 0o644))
	mainFile := filepath.Join(dir, "main.idl")
	require.NoError(t, os.WriteFile(mainFile, []byte(`
#include "orb.idl"
#include "common.idl"
module m { struct S { c::Id id; }; };`), 0o644))

	spec, err := idl.ParseFile(mainFile, inc)
	require.NoError(t, err)
	assert.Equal(t, "main.idl", spec.Name)
	lookup(t, spec.Root, "c", "Id")
	lookup(t, spec.Root, "m", "S")
}

func TestSyntaxErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		message string
	}{
		{"missing semicolon", "module m {\n struct S { long x; }\n};", "line 3"},
		{"unclosed module", "module m {\n", "not closed"},
		{"unterminated comment", "/* never ends", "unterminated comment"},
		{"bad unsigned", "struct S { unsigned char c; };", "after 'unsigned'"},
		{"custom interface", "custom interface I {};", "only allowed for value types"},
		{"abstract boxed value", "abstract valuetype V long;", "can not be abstract"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := idl.NewParser().Parse(bytes.NewBufferString(tc.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
