package di_test

import (
	"testing"

	"github.com/gocrud/container/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAliasSelf(t *testing.T) {
	c := di.NewContainer()
	err := c.SetAlias("some", "some")
	assert.EqualError(t, err, "Alias and service names can not be equals")
	assert.ErrorIs(t, err, di.ErrContainer)
}

func TestAliasTable(t *testing.T) {
	c := di.NewContainer()
	assert.Empty(t, c.Aliases())

	require.NoError(t, c.SetAlias("alias1", "service1"))
	require.NoError(t, c.SetAlias("alias2", "service1"))

	assert.Equal(t, "service1", c.ServiceIDFromAlias("alias1", ""))
	assert.Equal(t, "service1", c.ServiceIDFromAlias("alias2", ""))
	assert.Equal(t, "", c.ServiceIDFromAlias("alias3", ""))
	assert.Equal(t, "fallback", c.ServiceIDFromAlias("alias3", "fallback"))
	assert.Equal(t, map[string]string{"alias1": "service1", "alias2": "service1"}, c.Aliases())

	assert.True(t, c.HasAlias("alias1"))
	assert.True(t, c.HasAlias("alias2"))
	assert.False(t, c.HasAlias("alias3"))

	// 悬空别名
	assert.False(t, c.Has("alias2"))
	require.NoError(t, c.Set("service1", "value1"))
	assert.True(t, c.Has("alias2"))
	assert.False(t, c.Has("alias3"))

	require.NoError(t, c.Set("service3", "value3"))
	require.NoError(t, c.SetAlias("alias3", "service3"))
	assert.True(t, c.Has("alias3"))

	// 通过别名移除会同时移除别名和目标服务
	c.Remove("alias3")
	assert.False(t, c.Has("alias3"))
	assert.False(t, c.HasAlias("alias3"))
	assert.False(t, c.Has("service3"))

	c.RemoveAlias("alias1")
	assert.Equal(t, map[string]string{"alias2": "service1"}, c.Aliases())
}

func TestAliasesSnapshotIsCopy(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.SetAlias("a", "b"))

	snapshot := c.Aliases()
	snapshot["x"] = "y"
	assert.False(t, c.HasAlias("x"))
}

func TestRemoveViaAliasKeepsOtherAliases(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.Set("svc", 1))
	require.NoError(t, c.SetAlias("one", "svc"))
	require.NoError(t, c.SetAlias("two", "svc"))

	c.Remove("one")
	assert.False(t, c.HasAlias("one"))
	assert.True(t, c.HasAlias("two"))
	assert.False(t, c.Has("two"))
}

func TestAliasIsSingleHop(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.Set("c", "value"))
	require.NoError(t, c.SetAlias("b", "c"))
	require.NoError(t, c.SetAlias("a", "b"))

	assert.True(t, c.Has("b"))
	assert.False(t, c.Has("a"))

	_, err := c.Get("a")
	assert.True(t, di.IsNotFound(err))
	assert.EqualError(t, err, `The service "b" is not found`)
}

func TestUseAlias(t *testing.T) {
	c := newContainer()
	require.NoError(t, c.RegisterDefinition("B", &di.Definition{
		Class: "B",
		Args:  di.Args{"a": di.Ref("A")},
	}))
	require.NoError(t, c.RegisterDefinition("A", &di.Definition{
		Class: "A",
		Args:  di.Positional("some value"),
		Calls: []di.Call{{Method: "SetContainer", Args: di.Positional(di.Ref(di.This))}},
	}))
	require.NoError(t, c.Register("C", func() any { return nil }))
	require.NoError(t, c.Set("a", "aaa"))
	require.NoError(t, c.SetAlias("a-alias", "a"))
	require.NoError(t, c.SetAlias("B-alias", "B"))
	require.NoError(t, c.SetAlias("c_alias", "C"))

	assert.True(t, c.HasAlias("a-alias"))
	assert.True(t, c.HasAlias("B-alias"))
	assert.True(t, c.HasAlias("c_alias"))

	a, _ := c.Get("a")
	aAlias, _ := c.Get("a-alias")
	assert.Equal(t, a, aAlias)

	bb, err := c.Get("B")
	require.NoError(t, err)
	bAlias, err := c.Get("B-alias")
	require.NoError(t, err)
	assert.Same(t, bb, bAlias)

	sharedA, err := c.Get("A")
	require.NoError(t, err)
	assert.NotSame(t, sharedA, bAlias)

	// 同名的服务覆盖别名
	require.NoError(t, c.Set("a-alias", "some value"))
	aAlias, _ = c.Get("a-alias")
	assert.NotEqual(t, a, aAlias)
	assert.False(t, c.HasAlias("a-alias"))

	require.NoError(t, c.RegisterDefinition("B-alias", &di.Definition{
		Class: "B",
		Args:  di.Args{"a": di.Ref("A")},
	}))
	assert.False(t, c.HasAlias("B-alias"))

	require.NoError(t, c.Register("c_alias", func() any { return nil }))
	assert.False(t, c.HasAlias("c_alias"))
}
