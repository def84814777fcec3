package ginject

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerTestHandler struct{ Name string }

func TestProvider_GetGroupReturnsInInsertionOrder(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(func() *providerTestHandler { return &providerTestHandler{Name: "first"} }).Group("handlers")
	b.Bind(func() *providerTestHandler { return &providerTestHandler{Name: "second"} }).Group("handlers")

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	handlers, err := GetGroup[*providerTestHandler](c, "handlers")
	require.NoError(t, err)
	require.Len(t, handlers, 2)
	assert.Equal(t, "first", handlers[0].Name)
	assert.Equal(t, "second", handlers[1].Name)
}

func TestProvider_MustGetInstancePanicsOnMissingBinding(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	// int has no binding and, unlike a struct pointer, no just-in-time
	// binding either.
	assert.Panics(t, func() {
		MustGetInstance[int](c)
	})
}

func TestProvider_GetProviderDefersConstructionUntilCalled(t *testing.T) {
	t.Parallel()

	calls := 0
	b := NewBinder()
	b.resolver.RegisterConstructor(func() *providerTestHandler {
		calls++
		return &providerTestHandler{Name: "lazy"}
	})
	key := Key{Type: reflect.TypeOf(&providerTestHandler{})}
	require.NoError(t, b.table.insert(&Binding{Key: key, Source: "provider-test"}))

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	assert.Equal(t, 0, calls)

	p := GetProvider[*providerTestHandler](c)
	assert.Equal(t, 0, calls)

	h, err := p()
	require.NoError(t, err)
	assert.Equal(t, "lazy", h.Name)
	assert.Equal(t, 1, calls)
}
