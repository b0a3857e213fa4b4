package di_test

import (
	"testing"

	"github.com/gocrud/container/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.Set("port", 8080))

	port, err := di.Resolve[int](c, "port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = di.Resolve[string](c, "port")
	require.Error(t, err)
	assert.ErrorIs(t, err, di.ErrContainer)
	assert.EqualError(t, err, `service "port" is int, not string`)

	_, err = di.Resolve[int](c, "missing")
	assert.True(t, di.IsNotFound(err))
}

func TestMustResolve(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.Set("name", "app"))

	assert.Equal(t, "app", di.MustResolve[string](c, "name"))
	assert.Panics(t, func() { di.MustResolve[string](c, "missing") })
}
