package ginject

import (
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
)

// Resolver is the container's resolution engine: given a Key and a
// ProvisioningContext, produce a constructed, fully-injected value. It
// tries, in order, four strategies: explicit binding, Provider-of-T
// unwrap, constant conversion, and implicit (just-in-time) binding.
type Resolver struct {
	table         *bindingTable
	planCache     *refCache[reflect.Type, *Plan]
	implicitCache *refCache[reflect.Type, *Binding]
	converter     *constantConverter
	collector     *errorCollector
	scopes        *ScopeRegistry
	singleton     *singletonScope
	log           *containerLogger

	// ctorCandidates holds every constructor passed to RegisterConstructor,
	// which Binder.Bind also calls for each constructor it binds. Only
	// just-in-time binding synthesis reads it: exactly one candidate for a
	// type is used as its constructor; more than one is an unresolvable
	// ambiguity, since nothing picks between them the way an explicit Bind
	// call would.
	ctorCandidates map[reflect.Type][]reflect.Value
}

func newResolver(table *bindingTable, scopes *ScopeRegistry, singleton *singletonScope, collector *errorCollector, log *containerLogger) *Resolver {
	return &Resolver{
		table:          table,
		planCache:      newRefCache[reflect.Type, *Plan](),
		implicitCache:  newRefCache[reflect.Type, *Binding](),
		converter:      newConstantConverter(),
		collector:      collector,
		scopes:         scopes,
		singleton:      singleton,
		log:            log,
		ctorCandidates: make(map[reflect.Type][]reflect.Value),
	}
}

// RegisterConstructor makes ctor discoverable for just-in-time binding
// synthesis of its return type, without creating an explicit Key binding.
func (r *Resolver) RegisterConstructor(ctor any) {
	v := reflect.ValueOf(ctor)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumOut() == 0 {
		return
	}
	ret := t.Out(0)
	r.ctorCandidates[derefType(ret)] = append(r.ctorCandidates[derefType(ret)], v)
}

// Resolve is the resolver's sole public entry point. Container facade
// methods, and Binder.Build for eager singletons, are the only callers that
// create a ProvisioningContext themselves; every nested resolution,
// including constructor parameters and injected members, threads the same
// ctx through.
func (r *Resolver) Resolve(ctx *ProvisioningContext, key Key) (any, error) {
	if key.Type == nil {
		return nil, ErrKeyTypeNil
	}
	if err := ctx.enterDepth(); err != nil {
		return nil, err
	}
	defer ctx.exitDepth()

	// Strategy 1: explicit binding.
	if b, ok := r.table.Get(key); ok {
		return r.invoke(ctx, b)
	}

	// Strategy 2: Provider-of-T unwrap.
	if desc := typeDescriptorFor(key.Type); desc.IsProviderOf() {
		return r.makeLazyProvider(ctx, key, desc)
	}

	// Strategy 3: constant conversion.
	if v, ok, err := r.tryConstantConversion(ctx, key); ok || err != nil {
		return v, err
	}

	// Strategy 4: implicit (just-in-time) binding, for unqualified keys only.
	if key.Qualifier.IsZero() && isJITEligible(key.Type) {
		b, err := r.jitBinding(key)
		if err != nil {
			return nil, err
		}
		return r.invoke(ctx, b)
	}

	return nil, &ResolutionError{
		Key:           key,
		InjectionPath: ctx.CurrentInjectionPoint(),
		Siblings:      findSimilarQualifiers(r.table, key.RawType(), key.Qualifier),
	}
}

// ResolveOptional behaves like Resolve but returns (nil, nil) instead of an
// error when the underlying cause is a plain missing binding, for use by
// optional field/parameter injection steps.
func (r *Resolver) ResolveOptional(ctx *ProvisioningContext, key Key) (any, error) {
	v, err := r.Resolve(ctx, key)
	if err != nil {
		if _, ok := err.(*ResolutionError); ok {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// invoke calls a Binding's scoped factory.
func (r *Resolver) invoke(ctx *ProvisioningContext, b *Binding) (any, error) {
	if b.resolved == nil {
		return nil, fmt.Errorf("ginject: binding for %s has no resolved factory (container not built)", b.Key)
	}
	v, err := b.resolved(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil && !b.AllowNilFlag {
		return nil, &NilDependencyError{Key: b.Key, Member: ctx.CurrentInjectionPoint()}
	}
	return v, nil
}

// isJITEligible reports whether t is concrete enough to synthesise an
// implicit binding for: a struct or pointer-to-struct type that isn't
// itself an interface, an In/Out parameter-object marker, a primitive, or
// an enum.
func isJITEligible(t reflect.Type) bool {
	base := derefType(t)
	if base.Kind() != reflect.Struct {
		return false
	}
	return base != inType && base != outType
}

// jitBinding synthesises an implicit binding for a concrete type, memoised
// at-most-once per type via implicitCache.
func (r *Resolver) jitBinding(key Key) (*Binding, error) {
	return r.implicitCache.GetOrCreate(key.RawType(), func() (*Binding, error) {
		plan, err := r.planFor(key.RawType())
		if err != nil {
			return nil, err
		}

		scopePolicy := ScopeNone
		if sa, ok := reflect.New(derefType(key.RawType())).Interface().(ScopeAnnotated); ok {
			scopePolicy = sa.InjectionScope()
		}

		raw := r.constructorFactory(key, plan)
		b := &Binding{Key: key, Source: "implicit:" + formatType(key.RawType()), Scope: scopePolicy}
		b.resolved = r.applyScope(b, raw)
		return b, nil
	})
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// ScopeAnnotated lets a concrete type declare its own implicit-binding
// scope, so a just-in-time binding still picks up a non-default scope
// (e.g. singleton) without the caller having bound it explicitly.
type ScopeAnnotated interface {
	InjectionScope() ScopePolicy
}

// applyScope wraps raw in the binding's configured scope, resolving a named
// scope through the registry if needed.
func (r *Resolver) applyScope(b *Binding, raw Factory) Factory {
	if b.Scope == ScopeSingleton {
		return r.singleton.Apply(b.Key, raw)
	}
	if b.NamedScope != "" {
		if s, ok := r.scopes.Lookup(b.NamedScope); ok {
			return s.Apply(b.Key, raw)
		}
	}
	return NoScope.Apply(b.Key, raw)
}

// planFor computes and memoises the injection plan for a concrete type.
func (r *Resolver) planFor(t reflect.Type) (*Plan, error) {
	base := derefType(t)
	return r.planCache.GetOrCreate(base, func() (*Plan, error) {
		p := &Plan{Type: base}
		p.Fields = buildFieldPlan(base)
		p.Methods = buildMethodPlan(base)
		return p, nil
	})
}

// constructorFactory returns the raw (unscoped) Factory for a concrete
// type's plan: invoke its constructor (if a unique one was registered via
// RegisterConstructor) or fall back to a zero-value allocation, push/pop a
// construction frame around it for cycle detection, then run field and
// method injection. This is the path used for just-in-time (implicit)
// bindings, where candidate selection by return type is the only
// information available.
func (r *Resolver) constructorFactory(key Key, plan *Plan) Factory {
	return r.constructorFactoryWith(key, plan, func(ctx *ProvisioningContext) (any, error) {
		return r.construct(ctx, key, plan)
	})
}

// constructorFactoryForCtor is the explicit-binding counterpart of
// constructorFactory: Binder.Bind already knows exactly which constructor
// function a binding uses, so it is invoked directly instead of going
// through the candidate-ambiguity check construct performs for JIT
// bindings. This is what lets two explicit bindings of the same Go type
// under different qualifiers (distinct Named or Group bindings) each keep
// their own constructor rather than colliding in the shared candidate map.
func (r *Resolver) constructorFactoryForCtor(key Key, plan *Plan, ctorFn reflect.Value) Factory {
	return r.constructorFactoryWith(key, plan, func(ctx *ProvisioningContext) (any, error) {
		return r.invokeCtor(ctx, plan.Type, ctorFn)
	})
}

func (r *Resolver) constructorFactoryWith(key Key, plan *Plan, produce func(ctx *ProvisioningContext) (any, error)) Factory {
	return func(ctx *ProvisioningContext) (any, error) {
		frame, existing := ctx.pushFrame(key)
		if existing != nil {
			return r.handleCycle(ctx, key, existing)
		}
		defer ctx.popFrame(key)

		instance, err := produce(ctx)
		if err != nil {
			return nil, err
		}

		frame.store(instance)

		if err := r.injectFields(ctx, instance, plan); err != nil {
			return nil, err
		}
		if err := r.injectMethods(ctx, instance, plan); err != nil {
			return nil, err
		}
		return instance, nil
	}
}

// handleCycle breaks a circular dependency: a re-entrant request for an
// interface Key gets a deferred-reference proxy; anything else is a hard
// failure, since a concrete type can't be handed out before its own
// constructor returns. key is the Key of the request that discovered the
// cycle (which may be an interface forwarding onto frame's concrete type,
// not frame's own key), since only that tells us whether a proxy is even
// assignable at the call site asking for it.
func (r *Resolver) handleCycle(ctx *ProvisioningContext, key Key, frame *constructionFrame) (any, error) {
	frame.mu.Lock()
	ready := frame.ready
	instance := frame.instance
	frame.mu.Unlock()
	if ready {
		// Re-entrant request during field/method injection of the same
		// instance: return the same partially-injected instance rather
		// than recursing into a new construction.
		return instance, nil
	}

	if key.Type == nil || key.Type.Kind() != reflect.Interface {
		return nil, &CircularDependencyError{Path: ctx.path(key)}
	}

	return newDeferredProxy(key.Type, frame)
}

// resolveForward is the shared core of BindInterface/As's forwarding
// factories: it resolves target on ifaceKey's behalf, breaking a cycle with
// a deferred proxy if target's construction is already in flight on ctx.
func (r *Resolver) resolveForward(ctx *ProvisioningContext, ifaceKey Key, target Key) (any, error) {
	if frame := ctx.frameFor(target); frame != nil {
		return r.handleCycle(ctx, ifaceKey, frame)
	}
	return r.Resolve(ctx, target)
}

// construct invokes the registered constructor for plan.Type, if any, or
// allocates a zero value as the zero-argument fallback the plan contract
// requires when no constructor was selected.
func (r *Resolver) construct(ctx *ProvisioningContext, key Key, plan *Plan) (instance any, err error) {
	candidates := r.ctorCandidates[plan.Type]
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = runtime.FuncForPC(c.Pointer()).Name()
		}
		return nil, &NoConstructorError{Type: plan.Type, Candidates: names}
	}
	if len(candidates) == 0 {
		return reflect.New(plan.Type).Interface(), nil
	}
	return r.invokeCtor(ctx, plan.Type, candidates[0])
}

// invokeCtor resolves ctorFn's parameters, calls it with panic recovery, and
// extracts its result — the shared core behind both JIT candidate selection
// (construct) and explicit-binding construction (constructorFactoryForCtor).
func (r *Resolver) invokeCtor(ctx *ProvisioningContext, target reflect.Type, ctorFn reflect.Value) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &ConstructorPanicError{Type: target, Recovered: rec, StackTrace: string(debug.Stack())}
		}
	}()

	args, err := r.resolveParams(ctx, target, ctorFn.Type())
	if err != nil {
		return nil, err
	}

	results := ctorFn.Call(args)
	v, err := r.extractConstructorResult(target, ctorFn.Type(), results)
	if invErr, ok := err.(*ConstructorInvocationError); ok {
		invErr.InjectionPath = ctx.CurrentInjectionPoint()
	}
	return v, err
}

func (r *Resolver) extractConstructorResult(target reflect.Type, ctorType reflect.Type, results []reflect.Value) (any, error) {
	n := len(results)
	if n == 0 {
		return nil, fmt.Errorf("ginject: constructor for %s returned no values", formatType(target))
	}
	if ctorType.Out(n-1).Implements(errorType) {
		if errVal := results[n-1]; !errVal.IsNil() {
			return nil, &ConstructorInvocationError{Type: target, Cause: errVal.Interface().(error)}
		}
		results = results[:n-1]
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("ginject: constructor for %s returned only an error result", formatType(target))
	}
	return results[0].Interface(), nil
}

// resolveParams resolves every parameter of ctorType in declaration order,
// expanding any In-marked parameter object into its individual fields.
func (r *Resolver) resolveParams(ctx *ProvisioningContext, owner reflect.Type, ctorType reflect.Type) ([]reflect.Value, error) {
	args := make([]reflect.Value, ctorType.NumIn())
	for i := 0; i < ctorType.NumIn(); i++ {
		pt := ctorType.In(i)
		if hasEmbedded(pt, inType) {
			v, err := r.buildParamObject(ctx, pt)
			if err != nil {
				return nil, err
			}
			args[i] = v
			continue
		}

		ctx.pushInjectionPoint(fmt.Sprintf("%s(param %d %s)", formatType(owner), i, formatType(pt)))
		v, err := r.Resolve(ctx, Key{Type: pt})
		ctx.popInjectionPoint()
		if err != nil {
			return nil, &MissingDependencyError{Target: owner, Member: fmt.Sprintf("param %d", i), Key: Key{Type: pt}, Cause: err}
		}
		args[i] = reflect.ValueOf(v)
	}
	return args, nil
}

func (r *Resolver) buildParamObject(ctx *ProvisioningContext, pt reflect.Type) (reflect.Value, error) {
	structType := pt
	ptr := false
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
		ptr = true
	}
	val := reflect.New(structType).Elem()
	for _, f := range analyzeParamFields(structType) {
		key := Key{Type: f.Type}
		if f.Group != "" {
			vs, err := r.resolveGroupSlice(ctx, Key{Type: f.Type.Elem(), Qualifier: Qualifier{Group: f.Group}}, f.Type)
			if err != nil {
				return reflect.Value{}, err
			}
			val.FieldByIndex(f.Index).Set(vs)
			continue
		}
		if f.Name != "" {
			key.Qualifier = Qualifier{Name: f.Name}
		}

		var v any
		var err error
		if f.Optional {
			v, err = r.ResolveOptional(ctx, key)
		} else {
			v, err = r.Resolve(ctx, key)
		}
		if err != nil {
			return reflect.Value{}, &MissingDependencyError{Target: structType, Member: f.Type.String(), Key: key, Cause: err}
		}
		if v != nil {
			val.FieldByIndex(f.Index).Set(reflect.ValueOf(v))
		}
	}
	if ptr {
		ptrVal := reflect.New(structType)
		ptrVal.Elem().Set(val)
		return ptrVal, nil
	}
	return val, nil
}

// resolveGroupSlice resolves every binding registered under (elemType,
// group) and returns them as a slice value of sliceType, in
// configuration-insertion order.
func (r *Resolver) resolveGroupSlice(ctx *ProvisioningContext, key Key, sliceType reflect.Type) (reflect.Value, error) {
	out := reflect.MakeSlice(sliceType, 0, 0)
	for _, b := range r.table.FindByRawType(key.Type) {
		if b.Key.Qualifier.Group != key.Qualifier.Group {
			continue
		}
		v, err := r.invoke(ctx, b)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out, nil
}

// injectFields applies every StepField of plan to instance, in plan order
// (parent-struct steps first, as buildFieldPlan arranges).
func (r *Resolver) injectFields(ctx *ProvisioningContext, instance any, plan *Plan) error {
	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	for _, step := range plan.Fields {
		ctx.pushInjectionPoint(step.Member)
		var v any
		var err error
		if step.Optional {
			v, err = r.ResolveOptional(ctx, step.Key)
		} else {
			v, err = r.Resolve(ctx, step.Key)
		}
		ctx.popInjectionPoint()
		if err != nil {
			if step.Optional {
				continue
			}
			return &MissingDependencyError{Target: plan.Type, Member: step.Member, Key: step.Key, Cause: err}
		}
		if v == nil {
			continue
		}
		field := rv.FieldByIndex(step.FieldIndex)
		if field.CanSet() {
			field.Set(reflect.ValueOf(v))
		}
	}
	return nil
}

// injectMethods applies every StepMethod of plan, invoking each injectable
// method exactly once with all of its parameters resolved together.
func (r *Resolver) injectMethods(ctx *ProvisioningContext, instance any, plan *Plan) error {
	byMethod := map[string][]PlanStep{}
	var order []string
	for _, step := range plan.Methods {
		if _, ok := byMethod[step.MethodName]; !ok {
			order = append(order, step.MethodName)
		}
		byMethod[step.MethodName] = append(byMethod[step.MethodName], step)
	}

	rv := reflect.ValueOf(instance)
	for _, name := range order {
		steps := byMethod[name]
		method := rv.MethodByName(name)
		if !method.IsValid() {
			continue
		}
		args := make([]reflect.Value, len(steps))
		for _, step := range steps {
			ctx.pushInjectionPoint(step.Member)
			v, err := r.Resolve(ctx, step.Key)
			ctx.popInjectionPoint()
			if err != nil {
				return &MissingDependencyError{Target: plan.Type, Member: step.Member, Key: step.Key, Cause: err}
			}
			args[step.MethodIndex] = reflect.ValueOf(v)
		}
		method.Call(args)
	}
	return nil
}

// tryConstantConversion implements strategy 3: a String-valued binding
// under the same qualifier, converted to the requested raw type on demand.
func (r *Resolver) tryConstantConversion(ctx *ProvisioningContext, key Key) (any, bool, error) {
	if key.RawType().Kind() == reflect.String || !r.converter.CanConvert(key.RawType()) {
		return nil, false, nil
	}
	stringKey := Key{Type: stringType, Qualifier: key.Qualifier}
	b, ok := r.table.Get(stringKey)
	if !ok {
		return nil, false, nil
	}
	raw, err := r.invoke(ctx, b)
	if err != nil {
		return nil, true, err
	}
	v, err := r.converter.Convert(raw.(string), key.RawType(), ctx.CurrentInjectionPoint())
	return v, true, err
}

var stringType = reflect.TypeOf("")

// makeLazyProvider implements strategy 2 / §4.8: returns a func value of
// key.Type (the Provider[T] shape) that defers into a fresh Resolve call
// for T on invocation, never eagerly.
func (r *Resolver) makeLazyProvider(ctx *ProvisioningContext, key Key, desc *TypeDescriptor) (any, error) {
	elemKey := Key{Type: desc.Elem().RawType(), Qualifier: key.Qualifier}
	fn := reflect.MakeFunc(key.Type, func(_ []reflect.Value) []reflect.Value {
		v, err := r.Resolve(ctx, elemKey)
		out := reflect.New(key.Type.Out(0)).Elem()
		if err == nil && v != nil {
			out.Set(reflect.ValueOf(v))
		}
		errOut := reflect.New(errorType).Elem()
		if err != nil {
			errOut.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{out, errOut}
	})
	return fn.Interface(), nil
}
