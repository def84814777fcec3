package ginject

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- shared fixtures ---------------------------------------------------

type resolverSingletonThing struct{}

func newResolverSingletonThing() *resolverSingletonThing { return &resolverSingletonThing{} }

// resolverTransientThing and resolverB carry a field so that separate
// instances have separate addresses for assert.NotSame; pointers to distinct
// zero-size values may compare equal in Go.
type resolverTransientThing struct{ _ int }

func newResolverTransientThing() *resolverTransientThing { return &resolverTransientThing{} }

type resolverB struct{ _ int }

func newResolverB() *resolverB { return &resolverB{} }

type resolverFoo struct {
	MakeB Provider[*resolverB] `inject:"true"`
}

func newResolverFoo() *resolverFoo { return &resolverFoo{} }

type resolverIA interface{ Ping() string }
type resolverIB interface{ Pong() string }

type resolverA struct {
	IB resolverIB `inject:"true"`
}

func (a *resolverA) Ping() string { return "a" }

func newResolverA() *resolverA { return &resolverA{} }

type resolverBB struct {
	IA resolverIA `inject:"true"`
}

func (bb *resolverBB) Pong() string { return "b" }

func newResolverBB() *resolverBB { return &resolverBB{} }

type resolverAmbiguous struct{}

func newResolverAmbiguousOne() *resolverAmbiguous { return &resolverAmbiguous{} }
func newResolverAmbiguousTwo() *resolverAmbiguous { return &resolverAmbiguous{} }

type resolverNamedThing struct{}

func newResolverNamedThing() *resolverNamedThing { return &resolverNamedThing{} }

// resolverCtorIA/resolverCtorIB force a cycle through constructor
// parameters rather than field injection, so the cycle can only be broken
// by the deferred-reference proxy: unlike a field-injection cycle, the
// construction frame is not marked ready until after the constructor
// returns, so the re-entrant call arrives before an instance exists.
type resolverCtorIA interface{ Name() string }
type resolverCtorIB interface{ Name() string }

type resolverCtorA struct {
	ib resolverCtorIB
}

func newResolverCtorA(ib resolverCtorIB) *resolverCtorA { return &resolverCtorA{ib: ib} }
func (a *resolverCtorA) Name() string                   { return "ctorA" }

type resolverCtorB struct {
	ia resolverCtorIA
}

func newResolverCtorB(ia resolverCtorIA) *resolverCtorB { return &resolverCtorB{ia: ia} }
func (b *resolverCtorB) Name() string                   { return "ctorB" }

// --- basic singleton resolution -----------------------------------------

func TestResolver_BasicSingleton(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newResolverSingletonThing).Singleton()
	b.Bind(newResolverTransientThing)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	s1, err := GetInstance[*resolverSingletonThing](c)
	require.NoError(t, err)
	s2, err := GetInstance[*resolverSingletonThing](c)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	p1, err := GetInstance[*resolverTransientThing](c)
	require.NoError(t, err)
	p2, err := GetInstance[*resolverTransientThing](c)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
}

// --- provider injection ---------------------------------------------------

func TestResolver_ProviderInjection(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newResolverB)
	b.Bind(newResolverFoo)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	foo, err := GetInstance[*resolverFoo](c)
	require.NoError(t, err)
	require.NotNil(t, foo.MakeB)

	b1, err := foo.MakeB()
	require.NoError(t, err)
	b2, err := foo.MakeB()
	require.NoError(t, err)
	assert.NotSame(t, b1, b2)
}

// --- cyclic interface proxy -----------------------------------------------

func TestResolver_CyclicInterfaceProxy(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.BindInterface(new(resolverIA), reflect.TypeOf(&resolverA{}))
	b.BindInterface(new(resolverIB), reflect.TypeOf(&resolverBB{}))
	b.Bind(newResolverA)
	b.Bind(newResolverBB)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	a, err := GetInstance[*resolverA](c)
	require.NoError(t, err)
	require.NotNil(t, a.IB)
	assert.Equal(t, "b", a.IB.Pong())

	bb, err := GetInstance[*resolverBB](c)
	require.NoError(t, err)
	require.NotNil(t, bb.IA)
	assert.Equal(t, "a", bb.IA.Ping())
}

// --- implicit construction failure ------------------------------------

func TestResolver_AmbiguousConstructors(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.resolver.RegisterConstructor(newResolverAmbiguousOne)
	b.resolver.RegisterConstructor(newResolverAmbiguousTwo)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	_, err = c.GetInstance(reflect.TypeOf(&resolverAmbiguous{}))
	require.Error(t, err)

	var noCtor *NoConstructorError
	require.ErrorAs(t, err, &noCtor)
	assert.Len(t, noCtor.Candidates, 2)
}

// --- missing binding with suggestion -----------------------------------

func TestResolver_MissingBindingSuggestsSiblingQualifier(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newResolverNamedThing).Named("a")

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	_, err = GetNamed[*resolverNamedThing](c, "b")
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, resErr.Siblings, "a")
}

// TestResolver_ConstructorParamCycleUsesDeferredProxy exercises proxy.go
// directly: because the cycle runs through constructor parameters rather
// than fields, neither frame is marked ready when the re-entrant resolve
// happens, so handleCycle must hand back a synthesized placeholder instead
// of a finished instance.
func TestResolver_ConstructorParamCycleUsesDeferredProxy(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.BindInterface(new(resolverCtorIA), reflect.TypeOf(&resolverCtorA{}))
	b.BindInterface(new(resolverCtorIB), reflect.TypeOf(&resolverCtorB{}))
	b.Bind(newResolverCtorA)
	b.Bind(newResolverCtorB)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	a, err := GetInstance[*resolverCtorA](c)
	require.NoError(t, err)
	require.NotNil(t, a.ib)
	assert.Equal(t, "ctorB", a.ib.Name())

	bInst, err := GetInstance[*resolverCtorB](c)
	require.NoError(t, err)
	require.NotNil(t, bInst.ia)
	assert.Equal(t, "ctorA", bInst.ia.Name())
}

func TestResolver_MaxDepthExceeded(t *testing.T) {
	t.Parallel()
	ctx := NewProvisioningContext()
	for i := 0; i < maxResolutionDepth; i++ {
		require.NoError(t, ctx.enterDepth())
	}
	assert.ErrorIs(t, ctx.enterDepth(), ErrMaxDepthExceeded)
}
