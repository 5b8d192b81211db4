package cls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeSetKeyIsOrderIndependent(t *testing.T) {
	a := NewAttributeSet(SequenceAttr(0, 0), WideCharAttr(true))
	b := NewAttributeSet(WideCharAttr(true), SequenceAttr(0, 0))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	c := NewAttributeSet(SequenceAttr(0, 5), WideCharAttr(true))
	assert.False(t, a.Equal(c))
	assert.True(t, EmptyAttributes.Equal(NewAttributeSet()))
}

func TestAttributeSetRemoveIsImmutable(t *testing.T) {
	set := NewAttributeSet(SequenceAttr(0, 0), SequenceAttr(1, 3), WideCharAttr(false))

	rest, removed, ok := set.Remove(AttrIdlSequence)
	require.True(t, ok)
	assert.Equal(t, 1, removed.Order, "outermost sequence attribute is removed first")
	assert.Equal(t, 3, removed.Bound)
	assert.Equal(t, 2, rest.Len())
	assert.Equal(t, 3, set.Len(), "original set unchanged")

	rest, removed, ok = rest.Remove(AttrIdlSequence)
	require.True(t, ok)
	assert.Equal(t, 0, removed.Order)
	assert.False(t, rest.Has(AttrIdlSequence))

	_, _, ok = rest.Remove(AttrIdlArray)
	assert.False(t, ok)
}

func TestAttributeSetGetAll(t *testing.T) {
	set := NewAttributeSet(SequenceAttr(0, 0), RepositoryIDAttr("IDL:x:1.0"), SequenceAttr(1, 0))
	assert.Len(t, set.GetAll(AttrIdlSequence), 2)
	attr, ok := set.Get(AttrRepositoryID)
	require.True(t, ok)
	assert.Equal(t, "IDL:x:1.0", attr.Value)
}

func TestAttributeString(t *testing.T) {
	assert.Equal(t, "sequence", SequenceAttr(0, 0).String())
	assert.Equal(t, "array(dims=2x3)", ArrayAttr(0, 2, 3).String())
	assert.Equal(t, "wideChar(wide=true)", WideCharAttr(true).String())
}
