package ginject

import (
	"fmt"
	"reflect"
	"runtime"
	"time"

	"github.com/gookit/slog"
)

// Module is a unit of configuration, the Go analogue of a Guice Module: a
// reusable bundle of bindings that knows how to contribute itself to a
// Binder. Grouping related bindings into a Module and Install-ing it is the
// idiomatic way to organise a large application's wiring.
type Module interface {
	Configure(b *Binder)
}

// ModuleFunc adapts a plain function to the Module interface.
type ModuleFunc func(b *Binder)

func (f ModuleFunc) Configure(b *Binder) { f(b) }

// Binder is the configuration-time surface: the only way to register
// bindings before a container is built and sealed. A zero Binder is not
// usable; create one with NewBinder.
type Binder struct {
	table     *bindingTable
	collector *errorCollector
	scopes    *ScopeRegistry
	singleton *singletonScope
	resolver  *Resolver
	logger    *containerLogger

	eager      []Key
	static     []any
	decorators []decoratorEntry
	config     *ContainerConfig

	used bool
}

// WithConfig attaches ambient configuration (build timeout, default scope,
// log level) loaded via LoadConfig. Returns b for chaining.
func (b *Binder) WithConfig(cfg *ContainerConfig) *Binder {
	b.config = cfg
	return b
}

// applyDefaultScope fills in a binding's scope from the configured
// DefaultScope when the binding itself never called Singleton or InScope.
// A binding that explicitly chose ScopeNone via no call at all still falls
// back to whatever the operator configured as the container-wide default.
func (b *Binder) applyDefaultScope(binding *Binding) {
	if b.config == nil || b.config.DefaultScope == "" {
		return
	}
	if binding.Scope != ScopeNone || binding.NamedScope != "" {
		return
	}
	if b.config.DefaultScope == string(ScopeSingleton) {
		binding.Scope = ScopeSingleton
		return
	}
	binding.NamedScope = b.config.DefaultScope
}

// NewBinder creates an empty Binder, ready to accept bindings.
func NewBinder() *Binder {
	table := newBindingTable()
	collector := newErrorCollector()
	scopes := NewScopeRegistry()
	singleton := newSingletonScope()
	return &Binder{
		table:     table,
		collector: collector,
		scopes:    scopes,
		singleton: singleton,
		resolver:  newResolver(table, scopes, singleton, collector, nil),
	}
}

// WithLogger attaches a structured logger the container uses for its own
// lifecycle events (binding registration problems, eager-singleton
// construction, disposal) — never for user-constructor output. Passing nil
// restores the default discarding logger.
func (b *Binder) WithLogger(l *slog.Logger) *Binder {
	cl := newContainerLogger(l)
	b.logger = cl
	b.resolver.log = cl
	return b
}

// RegisterScope plugs a named Scope into the binder's registry, for bindings
// configured with InScope(name).
func (b *Binder) RegisterScope(name string, s Scope) *Binder {
	b.scopes.Register(name, s)
	return b
}

// RegisterEnum teaches the constant converter the name -> value table for an
// enum-like target type (see constant.go).
func (b *Binder) RegisterEnum(t reflect.Type, values map[string]any) *Binder {
	b.resolver.converter.RegisterEnum(t, values)
	return b
}

// Install runs each module's Configure against b, letting reusable bundles
// of bindings be composed together under one Binder.
func (b *Binder) Install(modules ...Module) *Binder {
	for _, m := range modules {
		if m == nil {
			continue
		}
		m.Configure(b)
	}
	return b
}

// RequestStaticInjection schedules field/method injection of already
// constructed values at Build time, the Go analogue of Guice's
// requestStaticInjection — useful for package-level state that must be
// wired without going through a constructor.
func (b *Binder) RequestStaticInjection(targets ...any) *Binder {
	b.static = append(b.static, targets...)
	return b
}

// BindingBuilder configures a single binding after Bind registers its
// constructor. Every method returns the same builder for chaining; none of
// them take effect until Build is called.
type BindingBuilder struct {
	binder  *Binder
	binding *Binding
	key     Key
	source  string
	built   bool
}

// Bind registers ctor, a function returning either a concrete/pointer type
// or an error-returning pair of those, as the constructor for its return
// type. If the return type embeds Out, Bind expands it into one binding per
// exported field instead of one binding for the struct itself (see
// bindOutResult).
func (b *Binder) Bind(ctor any) *BindingBuilder {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	v := reflect.ValueOf(ctor)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumOut() == 0 {
		b.collector.Report(&ValidationError{Source: source, Message: "Bind requires a function returning at least one value"})
		return &BindingBuilder{binder: b, built: true}
	}

	retType := t.Out(0)
	if hasEmbedded(retType, outType) {
		return b.bindOutResult(ctor, retType, source)
	}

	b.resolver.RegisterConstructor(ctor)
	bb := &BindingBuilder{binder: b, key: Key{Type: retType}, source: source}
	b.addBinding(bb)
	if bb.binding != nil {
		bb.binding.Ctor = v
	}
	return bb
}

// bindOutResult expands a constructor returning an Out struct into one
// binding per exported field. All fields share a single singleton-scoped
// invocation of ctor; each field's binding just resolves that shared value
// and extracts its own field, so the constructor runs exactly once no
// matter how many of its results are actually requested.
func (b *Binder) bindOutResult(ctor any, retType reflect.Type, source string) *BindingBuilder {
	fields := analyzeResultFields(retType)
	if len(fields) == 0 {
		b.collector.Report(&ValidationError{Source: source, Message: fmt.Sprintf("%s embeds ginject.Out but declares no result fields", formatType(retType))})
		return &BindingBuilder{binder: b, built: true}
	}

	b.resolver.RegisterConstructor(ctor)
	holderKey := Key{Type: retType, Qualifier: Qualifier{Name: "__out__" + source}}
	holderBB := &BindingBuilder{binder: b, key: holderKey, source: source}
	b.addBinding(holderBB)
	if holderBB.binding != nil {
		holderBB.binding.Ctor = reflect.ValueOf(ctor)
	}
	holderBB.Singleton()

	last := &BindingBuilder{binder: b, source: source, built: true}
	for _, f := range fields {
		field := f
		fieldKey := Key{Type: field.Type}
		if field.Group != "" {
			fieldKey.Qualifier = Qualifier{Group: field.Group}
		} else if field.Name != "" {
			fieldKey.Qualifier = Qualifier{Name: field.Name}
		}

		factory := Factory(func(ctx *ProvisioningContext) (any, error) {
			holder, err := b.resolver.Resolve(ctx, holderKey)
			if err != nil {
				return nil, err
			}
			rv := reflect.ValueOf(holder)
			for rv.Kind() == reflect.Pointer {
				rv = rv.Elem()
			}
			return rv.FieldByIndex(field.Index).Interface(), nil
		})

		binding := &Binding{Key: fieldKey, Source: source, Factory: factory, resolved: factory}
		if err := b.table.insert(binding); err != nil {
			b.collector.Report(err)
		}
		last = &BindingBuilder{binder: b, key: fieldKey, source: source, built: true}
	}
	return last
}

func (b *Binder) addBinding(bb *BindingBuilder) {
	binding := &Binding{Key: bb.key, Source: bb.source}
	if err := b.table.insert(binding); err != nil {
		b.collector.Report(err)
		return
	}
	bb.binding = binding
}

// Named sets the binding's qualifier to a name. Mutually exclusive with
// Group.
func (b *BindingBuilder) Named(name string) *BindingBuilder {
	if b.built || b.binding == nil {
		return b
	}
	b.rekey(Key{Type: b.key.Type, Qualifier: Qualifier{Name: name}})
	return b
}

// Group adds the binding to a named multi-value group. Mutually exclusive
// with Named.
func (b *BindingBuilder) Group(group string) *BindingBuilder {
	if b.built || b.binding == nil {
		return b
	}
	b.rekey(Key{Type: b.key.Type, Qualifier: Qualifier{Group: group}})
	return b
}

func (b *BindingBuilder) rekey(newKey Key) {
	// A group qualifier is shared by every member of the group, so only
	// non-group keys must be unique; the group's members are all kept in the
	// table's insertion-ordered index that GetGroup reads.
	if existing, ok := b.binder.table.byKey[newKey]; ok && existing != b.binding && newKey.Qualifier.Group == "" {
		b.binder.collector.Report(&DuplicateBindingError{Key: newKey, FirstSource: existing.Source, SecondSource: b.source})
		return
	}
	delete(b.binder.table.byKey, b.key)
	b.key = newKey
	b.binding.Key = newKey
	b.binder.table.byKey[newKey] = b.binding
}

// Singleton scopes the binding to once-per-container.
func (b *BindingBuilder) Singleton() *BindingBuilder {
	if b.binding != nil {
		b.binding.Scope = ScopeSingleton
	}
	return b
}

// EagerSingleton scopes the binding to once-per-container and forces its
// construction during Build, before the container is handed back to the
// caller.
func (b *BindingBuilder) EagerSingleton() *BindingBuilder {
	if b.binding != nil {
		b.binding.Scope = ScopeSingleton
		b.binding.Load = Eager
		b.binder.eager = append(b.binder.eager, b.binding.Key)
	}
	return b
}

// InScope wraps the binding in the named scope previously registered via
// Binder.RegisterScope.
func (b *BindingBuilder) InScope(name string) *BindingBuilder {
	if b.binding != nil {
		b.binding.NamedScope = name
	}
	return b
}

// AllowNil opts the binding into accepting a nil-valued provision instead of
// raising NilDependencyError. Nil provisions are rejected by default since
// an un-annotated nil dependency almost always indicates a missing binding
// rather than an intentional optional value.
func (b *BindingBuilder) AllowNil() *BindingBuilder {
	if b.binding != nil {
		b.binding.AllowNilFlag = true
	}
	return b
}

// As additionally exposes this binding's value under one or more interface
// types, the Go realisation of Guice's Key-to-interface binding shape:
// resolving the interface forwards to this binding's factory rather than
// constructing a separate instance.
func (b *BindingBuilder) As(ifacePtrs ...any) *BindingBuilder {
	if b.binding == nil {
		return b
	}
	for _, ip := range ifacePtrs {
		t := reflect.TypeOf(ip)
		if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
			b.binder.collector.Report(&ValidationError{Source: b.source, Message: "As requires a pointer to an interface"})
			continue
		}
		ifaceKey := Key{Type: t.Elem(), Qualifier: b.key.Qualifier}
		target := b.key
		factory := Factory(func(ctx *ProvisioningContext) (any, error) {
			return b.binder.resolver.resolveForward(ctx, ifaceKey, target)
		})
		if err := b.binder.table.insert(&Binding{Key: ifaceKey, Source: b.source, Factory: factory, resolved: factory}); err != nil {
			b.binder.collector.Report(err)
		}
	}
	return b
}

// BindConstant binds a string constant under an optional qualifier, the
// source the resolver's strategy 3 (constant conversion) reads from when a
// non-string type is requested under the same qualifier.
func (b *Binder) BindConstant(value string, name string) *Binder {
	key := Key{Type: stringType}
	if name != "" {
		key.Qualifier = Qualifier{Name: name}
	}
	factory := Factory(func(_ *ProvisioningContext) (any, error) { return value, nil })
	binding := &Binding{Key: key, Source: "constant", Factory: factory, resolved: factory}
	if err := b.table.insert(binding); err != nil {
		b.collector.Report(err)
	}
	return b
}

// BindInterface binds iface (a pointer to an interface, e.g. new(io.Reader))
// to forward resolution to whatever concrete binding already exists for
// concreteType, the explicit analogue of Guice's bind(Interface.class).to(Impl.class).
func (b *Binder) BindInterface(iface any, concreteType reflect.Type) *Binder {
	t := reflect.TypeOf(iface)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		b.collector.Report(&ValidationError{Source: "BindInterface", Message: "iface argument must be a pointer to an interface"})
		return b
	}
	ifaceKey := Key{Type: t.Elem()}
	target := Key{Type: concreteType}
	factory := Factory(func(ctx *ProvisioningContext) (any, error) {
		return b.resolver.resolveForward(ctx, ifaceKey, target)
	})
	if err := b.table.insert(&Binding{Key: ifaceKey, Source: "interface-binding", Factory: factory, resolved: factory}); err != nil {
		b.collector.Report(err)
	}
	return b
}

// Build seals the binder's binding table, applies scopes to every
// registered factory, eagerly constructs every EagerSingleton binding, runs
// any pending static injection, and returns the finished Container. Build
// consumes the Binder; calling it twice returns ErrBuilderUsed.
func (b *Binder) Build() (*Container, error) {
	if b.used {
		return nil, ErrBuilderUsed
	}
	b.used = true

	if b.config != nil {
		b.logger.applyLevel(b.config.LogLevel)
	}

	for _, binding := range b.table.all {
		if binding.resolved != nil {
			continue
		}
		b.applyDefaultScope(binding)
		raw := binding.Factory
		if raw == nil {
			plan, err := b.resolver.planFor(binding.Key.RawType())
			if err != nil {
				return nil, err
			}
			if binding.Ctor.IsValid() {
				raw = b.resolver.constructorFactoryForCtor(binding.Key, plan, binding.Ctor)
			} else {
				raw = b.resolver.constructorFactory(binding.Key, plan)
			}
		}
		raw = b.applyDecorators(binding.Key, raw)
		binding.resolved = b.resolver.applyScope(binding, raw)
	}

	b.table.seal()

	if err := b.collector.Seal(); err != nil {
		b.logger.Errorf("container build failed: %v", err)
		return nil, err
	}
	b.logger.Infof("container sealed with %d bindings", len(b.table.all))

	c := &Container{
		table:     b.table,
		resolver:  b.resolver,
		scopes:    b.scopes,
		singleton: b.singleton,
		lifecycle: newLifecycleManager(),
		logger:    b.logger,
	}
	b.singleton.lifecycle = c.lifecycle

	if err := b.buildEagerSingletons(c); err != nil {
		return nil, err
	}

	for _, target := range b.static {
		if err := c.InjectMembers(target); err != nil {
			return nil, fmt.Errorf("ginject: static injection failed: %w", err)
		}
	}

	return c, nil
}

// buildEagerSingletons constructs every EagerSingleton binding before
// Build returns, bounded by the configured build timeout if one was set via
// WithConfig — a plain timer, since Build has no caller-supplied context of
// its own to cancel against.
func (b *Binder) buildEagerSingletons(c *Container) error {
	if len(b.eager) == 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		rootCtx := NewProvisioningContext()
		for _, key := range b.eager {
			if _, err := c.resolver.Resolve(rootCtx, key); err != nil {
				done <- fmt.Errorf("ginject: eager singleton %s failed to build: %w", key, err)
				return
			}
			b.logger.Debugf("eager singleton %s constructed", key)
		}
		done <- nil
	}()

	timeout := b.config.buildTimeoutOr(0)
	if timeout <= 0 {
		return <-done
	}

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return &BuildError{Diagnostics: []error{fmt.Errorf("ginject: eager singleton construction exceeded build timeout of %s", timeout)}}
	}
}
