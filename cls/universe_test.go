package cls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifabos/go-idlmap/errors"
)

func TestUniverseInternsDerivedTypes(t *testing.T) {
	u := NewUniverse()
	node := &Type{Name: "Node", Namespace: "Demo", Category: Class, Base: Object}
	require.NoError(t, u.Add(node))

	assert.Same(t, u.ArrayOf(node, 1), u.ArrayOf(node, 1))
	assert.NotSame(t, u.ArrayOf(node, 1), u.ArrayOf(node, 2))
	assert.Same(t, u.ByRefOf(node), u.ByRefOf(node))

	assert.Equal(t, "Demo.Node[]", u.ArrayOf(node, 1).FullName())
	assert.Equal(t, "Demo.Node[,]", u.ArrayOf(node, 2).FullName())
	assert.Equal(t, "Demo.Node[][]", u.ArrayOf(u.ArrayOf(node, 1), 1).FullName())
	assert.Equal(t, "Demo.Node&", u.ByRefOf(node).FullName())
}

func TestUniverseAddDuplicate(t *testing.T) {
	u := NewUniverse()
	require.NoError(t, u.Add(&Type{Name: "Foo", Namespace: "Demo", Category: Interface}))
	err := u.Add(&Type{Name: "Foo", Namespace: "Demo", Category: Class})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	err = u.Add(&Type{Name: "Int32", Namespace: "System", Category: Primitive})
	assert.Error(t, err, "builtins are reserved")
}

func TestRepositoryID(t *testing.T) {
	foo := &Type{Name: "Foo", Namespace: "Demo.Sub", Category: Interface}
	assert.Equal(t, "IDL:Demo/Sub/Foo:1.0", foo.RepositoryID())

	foo.Attributes = NewAttributeSet(RepositoryIDAttr("IDL:acme.com/Foo:2.0"))
	assert.Equal(t, "IDL:acme.com/Foo:2.0", foo.RepositoryID())

	u := NewUniverse()
	require.NoError(t, u.Add(foo))
	found, ok := u.LookupByRepositoryID("IDL:acme.com/Foo:2.0")
	require.True(t, ok)
	assert.Same(t, foo, found)
}

func TestMarshalByRefAndImplements(t *testing.T) {
	i1 := &Type{Name: "I1", Category: Interface}
	i2 := &Type{Name: "I2", Category: Interface, Interfaces: []*Type{i1}}
	base := &Type{Name: "Base", Category: Class, Base: MarshalByRefObject, Interfaces: []*Type{i2}}
	impl := &Type{Name: "Impl", Category: Class, Base: base}

	assert.True(t, impl.IsMarshalByRef())
	assert.True(t, impl.Implements(i1))
	assert.False(t, i1.Implements(i2))
	assert.False(t, Exception.IsMarshalByRef())
	assert.True(t, GenericUserException.DerivesFrom(Exception))
}
