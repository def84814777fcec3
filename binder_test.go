package ginject

import (
	"reflect"
	"testing"
	"time"

	"github.com/gookit/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type binderTestGreeter struct {
	Prefix string
}

func newBinderTestGreeter() *binderTestGreeter { return &binderTestGreeter{Prefix: "hi"} }

func decorateBinderTestGreeter(g *binderTestGreeter) *binderTestGreeter {
	g.Prefix = g.Prefix + "!"
	return g
}

type binderTestServices struct {
	Out

	Greeter *binderTestGreeter
	Backup  *binderTestGreeter `name:"backup"`
}

var binderTestServicesCalls int

func newBinderTestServices() binderTestServices {
	binderTestServicesCalls++
	return binderTestServices{Greeter: &binderTestGreeter{Prefix: "g"}, Backup: &binderTestGreeter{Prefix: "b"}}
}

type binderTestEagerThing struct{ built bool }

func newBinderTestEagerThing() *binderTestEagerThing { return &binderTestEagerThing{built: true} }

type binderTestStaticTarget struct {
	Greeter *binderTestGreeter `inject:"true"`
}

func TestBinder_DecorateWrapsFactoryOutput(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newBinderTestGreeter)
	b.Decorate(decorateBinderTestGreeter)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	g, err := GetInstance[*binderTestGreeter](c)
	require.NoError(t, err)
	assert.Equal(t, "hi!", g.Prefix)
}

func TestBinder_DuplicateNamedBindingIsCollected(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newBinderTestGreeter).Named("dup")
	b.Bind(newBinderTestGreeter).Named("dup")

	_, err := b.Build()
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Len(t, buildErr.Diagnostics, 1)

	var dupErr *DuplicateBindingError
	require.ErrorAs(t, err, &dupErr)
}

func TestBinder_OutStructConstructsOnceForAllFields(t *testing.T) {
	t.Parallel()

	binderTestServicesCalls = 0
	b := NewBinder()
	b.Bind(newBinderTestServices)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	g, err := GetInstance[*binderTestGreeter](c)
	require.NoError(t, err)
	assert.Equal(t, "g", g.Prefix)

	backup, err := GetNamed[*binderTestGreeter](c, "backup")
	require.NoError(t, err)
	assert.Equal(t, "b", backup.Prefix)

	assert.Equal(t, 1, binderTestServicesCalls)
}

func TestBinder_EagerSingletonIsConstructedDuringBuild(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newBinderTestEagerThing).EagerSingleton()

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	binding := c.FindBindingsByType(reflect.TypeOf(&binderTestEagerThing{}))
	require.Len(t, binding, 1)
	assert.Equal(t, Eager, binding[0].Load)
	assert.Len(t, c.singleton.snapshot(), 1)
}

func TestBinder_DefaultScopeAppliesToUnscopedBindings(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.WithConfig(&ContainerConfig{DefaultScope: "singleton"})
	b.Bind(newBinderTestGreeter)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	binding := c.FindBindingsByType(reflect.TypeOf(&binderTestGreeter{}))
	require.Len(t, binding, 1)
	assert.Equal(t, ScopeSingleton, binding[0].Scope)

	a, err := GetInstance[*binderTestGreeter](c)
	require.NoError(t, err)
	bInst, err := GetInstance[*binderTestGreeter](c)
	require.NoError(t, err)
	assert.Same(t, a, bInst)
}

func TestBinder_DefaultScopeDoesNotOverrideExplicitScope(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.WithConfig(&ContainerConfig{DefaultScope: "singleton"})
	b.RegisterScope("custom", NoScope)
	b.Bind(newBinderTestEagerThing).InScope("custom")

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	binding := c.FindBindingsByType(reflect.TypeOf(&binderTestEagerThing{}))
	require.Len(t, binding, 1)
	assert.Equal(t, ScopeNone, binding[0].Scope)
	assert.Equal(t, "custom", binding[0].NamedScope)
}

func TestBinder_LogLevelAppliesToAttachedLogger(t *testing.T) {
	t.Parallel()

	l := slog.New()
	b := NewBinder()
	b.WithLogger(l)
	b.WithConfig(&ContainerConfig{LogLevel: "warn"})
	b.Bind(newBinderTestGreeter)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	assert.Equal(t, slog.WarnLevel, b.logger.threshold)
	assert.True(t, b.logger.enabled(slog.ErrorLevel))
	assert.False(t, b.logger.enabled(slog.InfoLevel))
}

func TestBinder_BuildTimeoutFailsSlowEagerSingleton(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.WithConfig(&ContainerConfig{BuildTimeout: 10 * time.Millisecond})
	b.resolver.RegisterConstructor(func() *binderTestEagerThing {
		time.Sleep(50 * time.Millisecond)
		return &binderTestEagerThing{built: true}
	})
	addBinderTestEagerBinding(b)

	_, err := b.Build()
	require.Error(t, err)
}

func addBinderTestEagerBinding(b *Binder) {
	key := Key{Type: reflect.TypeOf(&binderTestEagerThing{})}
	binding := &Binding{Key: key, Source: "eager-timeout-test", Scope: ScopeSingleton, Load: Eager}
	_ = b.table.insert(binding)
	b.eager = append(b.eager, key)
}

func TestBinder_RequestStaticInjectionRunsAtBuild(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newBinderTestGreeter)
	target := &binderTestStaticTarget{}
	b.RequestStaticInjection(target)

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	require.NotNil(t, target.Greeter)
	assert.Equal(t, "hi", target.Greeter.Prefix)
}

func TestBinder_BuildCannotBeCalledTwice(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newBinderTestGreeter)

	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderUsed)
}

func TestBinder_FindBindingsByTypePreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	b := NewBinder()
	b.Bind(newBinderTestGreeter).Group("g")
	b.Bind(newBinderTestGreeter).Named("second")

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	bindings := c.FindBindingsByType(reflect.TypeOf(&binderTestGreeter{}))
	require.Len(t, bindings, 2)
	assert.Equal(t, "g", bindings[0].Key.Qualifier.Group)
	assert.Equal(t, "second", bindings[1].Key.Qualifier.Name)
}

func TestBinder_InstallRunsModuleConfigure(t *testing.T) {
	t.Parallel()

	installed := false
	b := NewBinder()
	b.Install(ModuleFunc(func(binder *Binder) {
		installed = true
		binder.Bind(newBinderTestGreeter)
	}))

	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	assert.True(t, installed)
	_, err = GetInstance[*binderTestGreeter](c)
	require.NoError(t, err)
}
