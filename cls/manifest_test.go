package cls

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoManifest = `
types:
  - name: Demo.Foo
    kind: interface
    attributes:
      - kind: interfaceType
        value: concrete
    methods:
      - name: Echo
        returns: int
        params:
          - name: x
            type: int
      - name: Swap
        params:
          - name: nodes
            type: ref Demo.Node[]
            direction: inout
        raises: [Demo.Failure]
  - name: Demo.Node
    kind: class
    serializable: true
    fields:
      - name: children
        type: Demo.Node[]
        attributes:
          - kind: sequence
      - name: cache
        type: object
        transient: true
    properties:
      - name: Size
        type: long
        readonly: true
  - name: Demo.Failure
    kind: class
    base: System.Exception
    serializable: true
  - name: Demo.Color
    kind: enum
    enum: [Red, Green]
`

func TestLoadManifest(t *testing.T) {
	u := NewUniverse()
	types, err := LoadManifest(strings.NewReader(demoManifest), u)
	require.NoError(t, err)
	require.Len(t, types, 4)

	foo, ok := u.Lookup("Demo.Foo")
	require.True(t, ok)
	assert.True(t, foo.IsInterface())
	require.Len(t, foo.Methods, 2)
	assert.Same(t, Int32, foo.Methods[0].Return)
	assert.Same(t, Void, foo.Methods[1].Return)

	node, _ := u.Lookup("Demo.Node")
	swap := foo.Methods[1].Params[0]
	assert.Equal(t, InOut, swap.Direction)
	require.True(t, swap.Type.IsByRef())
	assert.Same(t, u.ArrayOf(node, 1), swap.Type.Elem)

	failure, _ := u.Lookup("Demo.Failure")
	assert.Same(t, failure, foo.Methods[1].Raises[0])
	assert.True(t, failure.DerivesFrom(Exception))

	assert.Same(t, Object, node.Base)
	assert.True(t, node.Fields[0].Attrs.Has(AttrIdlSequence))
	assert.Len(t, node.InstanceFields(), 1)
	assert.False(t, node.Properties[0].CanWrite)

	color, _ := u.Lookup("Demo.Color")
	assert.Equal(t, []string{"Red", "Green"}, color.EnumValues)
	assert.Same(t, Int32, color.EnumUnderlying)
}

func TestLoadManifestUnknownReference(t *testing.T) {
	_, err := LoadManifest(strings.NewReader(`
types:
  - name: Demo.A
    kind: class
    fields:
      - name: b
        type: Demo.Missing
`), NewUniverse())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Demo.Missing")
}

func TestManifestRoundTrip(t *testing.T) {
	u := NewUniverse()
	types, err := LoadManifest(strings.NewReader(demoManifest), u)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SaveManifest(&buf, types))
	first := buf.String()

	u2 := NewUniverse()
	types2, err := LoadManifest(strings.NewReader(first), u2)
	require.NoError(t, err)
	require.Len(t, types2, len(types))

	var again bytes.Buffer
	require.NoError(t, SaveManifest(&again, types2))
	assert.Equal(t, first, again.String())
}

func TestResolve(t *testing.T) {
	u := NewUniverse()
	arr, err := u.Resolve("int[][,]")
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Rank)
	assert.Same(t, u.ArrayOf(Int32, 1), arr.Elem)
	assert.Equal(t, "System.Int32[][,]", RefName(arr))

	_, err = u.Resolve("int[x]")
	assert.Error(t, err)
}
