package ginject

import (
	"reflect"
	"sync/atomic"
)

// Container is the sealed, read-only facade produced by Binder.Build: the
// runtime surface application code actually resolves dependencies through.
// Every exported method is safe for concurrent use.
type Container struct {
	table     *bindingTable
	resolver  *Resolver
	scopes    *ScopeRegistry
	singleton *singletonScope
	lifecycle *lifecycleManager
	logger    *containerLogger

	closed int32
}

// GetInstance resolves a value of t from the root scope. Prefer the generic
// GetInstance[T] package function when the target type is known at the call
// site; this method exists for callers that only have a reflect.Type.
func (c *Container) GetInstance(t reflect.Type) (any, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, ErrContainerClosed
	}
	if t == nil {
		return nil, ErrKeyTypeNil
	}
	return c.resolver.Resolve(NewProvisioningContext(), Key{Type: t})
}

// GetNamed resolves a value of t bound under the given name qualifier.
func (c *Container) GetNamed(t reflect.Type, name string) (any, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, ErrContainerClosed
	}
	if t == nil {
		return nil, ErrKeyTypeNil
	}
	return c.resolver.Resolve(NewProvisioningContext(), Key{Type: t, Qualifier: Qualifier{Name: name}})
}

// GetGroup resolves every binding registered under (t, group), in
// configuration-insertion order.
func (c *Container) GetGroup(t reflect.Type, group string) ([]any, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, ErrContainerClosed
	}
	if t == nil {
		return nil, ErrKeyTypeNil
	}
	ctx := NewProvisioningContext()
	var out []any
	for _, b := range c.table.FindByRawType(t) {
		if b.Key.Qualifier.Group != group {
			continue
		}
		v, err := c.resolver.invoke(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// InjectMembers runs field and method injection against an already
// constructed value, without invoking any constructor. Useful for values
// the application constructs itself (e.g. received from a framework) but
// still wants wired with container dependencies.
func (c *Container) InjectMembers(target any) error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrContainerClosed
	}
	if target == nil {
		return ErrNilInstance
	}
	t := reflect.TypeOf(target)
	base := derefType(t)
	plan, err := c.resolver.planFor(base)
	if err != nil {
		return err
	}
	ctx := NewProvisioningContext()
	if err := c.resolver.injectFields(ctx, target, plan); err != nil {
		return err
	}
	return c.resolver.injectMethods(ctx, target, plan)
}

// FindBindingsByType returns every Binding registered for t, across all
// qualifiers, in configuration-insertion order — metadata only, no
// resolution is triggered.
func (c *Container) FindBindingsByType(t reflect.Type) []*Binding {
	return c.table.FindByRawType(t)
}

// NewScope creates a ProvisioningContext identified by scopeID, the context
// a named scope registered via Binder.RegisterScope / NewInstanceScope
// keys its instances by. The Container's own GetInstance, GetNamed, GetGroup
// and InjectMembers do not take a context: each starts a fresh one with an
// empty ScopeID, so they never resolve inside the scope NewScope names.
func (c *Container) NewScope(scopeID string) *ProvisioningContext {
	ctx := NewProvisioningContext()
	ctx.ScopeID = scopeID
	return ctx
}

// Close disposes every tracked Disposable singleton, in reverse
// construction order, and marks the container closed. Close is idempotent;
// calling it again returns nil.
func (c *Container) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	err := c.lifecycle.dispose()
	if err != nil {
		c.logger.Warnf("container close completed with errors: %v", err)
	} else {
		c.logger.Debugf("container closed")
	}
	return err
}
