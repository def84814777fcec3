package ginject

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scopeTestSessionType = reflect.TypeOf(&scopeTestSession{})

// scopeTestSession has a field so that each allocation gets its own address;
// pointers to distinct zero-size values may compare equal in Go.
type scopeTestSession struct{ _ int }

func TestScope_NoScopeProducesDistinctInstances(t *testing.T) {
	t.Parallel()

	calls := 0
	raw := Factory(func(_ *ProvisioningContext) (any, error) {
		calls++
		return &scopeTestSession{}, nil
	})
	wrapped := NoScope.Apply(Key{Type: scopeTestSessionType}, raw)

	v1, err := wrapped(NewProvisioningContext())
	require.NoError(t, err)
	v2, err := wrapped(NewProvisioningContext())
	require.NoError(t, err)

	assert.NotSame(t, v1, v2)
	assert.Equal(t, 2, calls)
}

func TestScope_SingletonAppliesOncePerKey(t *testing.T) {
	t.Parallel()

	s := newSingletonScope()
	key := Key{Type: scopeTestSessionType}
	calls := 0
	raw := Factory(func(_ *ProvisioningContext) (any, error) {
		calls++
		return &scopeTestSession{}, nil
	})
	wrapped := s.Apply(key, raw)

	v1, err := wrapped(NewProvisioningContext())
	require.NoError(t, err)
	v2, err := wrapped(NewProvisioningContext())
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	assert.Equal(t, 1, calls)
	assert.Len(t, s.snapshot(), 1)
}

func TestScope_SingletonCachesConstructionError(t *testing.T) {
	t.Parallel()

	s := newSingletonScope()
	key := Key{Type: scopeTestSessionType}
	calls := 0
	wantErr := ErrNilInstance
	raw := Factory(func(_ *ProvisioningContext) (any, error) {
		calls++
		return nil, wantErr
	})
	wrapped := s.Apply(key, raw)

	_, err1 := wrapped(NewProvisioningContext())
	_, err2 := wrapped(NewProvisioningContext())

	assert.ErrorIs(t, err1, wantErr)
	assert.ErrorIs(t, err2, wantErr)
	assert.Equal(t, 1, calls)
}

func TestScope_NamedInstanceScopeIsolatesByScopeID(t *testing.T) {
	t.Parallel()

	reg := NewScopeRegistry()
	reg.Register("request", NewInstanceScope())
	namedScope, ok := reg.Lookup("request")
	require.True(t, ok)

	key := Key{Type: scopeTestSessionType}
	raw := Factory(func(_ *ProvisioningContext) (any, error) {
		return &scopeTestSession{}, nil
	})
	wrapped := namedScope.Apply(key, raw)

	ctxA := NewProvisioningContext()
	ctxA.ScopeID = "req-a"
	ctxB := NewProvisioningContext()
	ctxB.ScopeID = "req-b"

	a1, err := wrapped(ctxA)
	require.NoError(t, err)
	a2, err := wrapped(ctxA)
	require.NoError(t, err)
	b1, err := wrapped(ctxB)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b1)
}

func TestScope_UnregisteredNameLookupFails(t *testing.T) {
	t.Parallel()

	reg := NewScopeRegistry()
	_, ok := reg.Lookup("nope")
	assert.False(t, ok)
}
