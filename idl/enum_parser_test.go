package idl_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifabos/go-idlmap/idl"
)

func parse(t *testing.T, content string) *idl.Module {
	t.Helper()
	parser := idl.NewParser()
	require.NoError(t, parser.Parse(bytes.NewBufferString(content)))
	return parser.GetRootModule()
}

func lookup(t *testing.T, root *idl.Module, path ...string) idl.Definition {
	t.Helper()
	mod := root
	for _, name := range path[:len(path)-1] {
		sub, exists := mod.GetSubmodule(name)
		require.True(t, exists, "module %s not found", name)
		mod = sub
	}
	def, exists := mod.GetType(path[len(path)-1])
	require.True(t, exists, "%s not found", path[len(path)-1])
	return def
}

func TestEnumParsing(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		path     []string
		elements []string
	}{
		{
			name: "trailing comma",
			content: `
module Test {
    enum Colors {
        RED,
        GREEN,
        BLUE,
    };
};`,
			path:     []string{"Test", "Colors"},
			elements: []string{"RED", "GREEN", "BLUE"},
		},
		{
			name: "brackets on the same line",
			content: `
module Test {
    enum SameLineBrackets { ONE, TWO, THREE };
};`,
			path:     []string{"Test", "SameLineBrackets"},
			elements: []string{"ONE", "TWO", "THREE"},
		},
		{
			name: "closing bracket on a new line",
			content: `
module Test {
    enum MixedBrackets {
        ALPHA,
        BETA,
        GAMMA
    };
};`,
			path:     []string{"Test", "MixedBrackets"},
			elements: []string{"ALPHA", "BETA", "GAMMA"},
		},
		{
			name: "nested modules",
			content: `
module Outer {
    module Inner {
        enum Status { PENDING, ACTIVE, DONE };
    };
};`,
			path:     []string{"Outer", "Inner", "Status"},
			elements: []string{"PENDING", "ACTIVE", "DONE"},
		},
		{
			name: "comments between elements",
			content: `
// leading comment
module Test {
    /* block
       comment */
    enum Commented {
        FIRST, // first
        SECOND /* second */
    };
};`,
			path:     []string{"Test", "Commented"},
			elements: []string{"FIRST", "SECOND"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := parse(t, tc.content)
			enum, ok := lookup(t, root, tc.path...).(*idl.EnumType)
			require.True(t, ok, "not an enum type")
			assert.Equal(t, tc.elements, enum.Elements)
		})
	}
}

func TestMultipleEnums(t *testing.T) {
	root := parse(t, `
module Test {
    enum Colors { RED, GREEN };
    enum Shapes { CIRCLE, SQUARE };
    enum Sizes { SMALL };
};`)
	mod, ok := root.GetSubmodule("Test")
	require.True(t, ok)

	var names []string
	for _, def := range mod.Definitions {
		names = append(names, def.DefName())
	}
	assert.Equal(t, []string{"Colors", "Shapes", "Sizes"}, names, "declaration order is kept")
}

func TestEnumInsideInterface(t *testing.T) {
	root := parse(t, `
module TestMod {
    interface MyInterface {
        enum Status {
            OK,
            ERROR,
            UNKNOWN
        };
        Status getStatus();
    };
};`)
	iface, ok := lookup(t, root, "TestMod", "MyInterface").(*idl.InterfaceType)
	require.True(t, ok)

	enum, ok := iface.Types["Status"].(*idl.EnumType)
	require.True(t, ok, "Status enum not found in MyInterface")
	assert.Equal(t, []string{"OK", "ERROR", "UNKNOWN"}, enum.Elements)

	require.Len(t, iface.Operations, 1)
	assert.Equal(t, "Status", iface.Operations[0].ReturnType.TypeName())
}

func TestEmptyEnum(t *testing.T) {
	parser := idl.NewParser()
	err := parser.Parse(bytes.NewBufferString(`enum Empty { };`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no elements")
}
