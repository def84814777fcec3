package ginject

import (
	"reflect"
)

// decoratorEntry records one Decorate call pending application at Build.
type decoratorEntry struct {
	key  Key
	fn   reflect.Value
	typ  reflect.Type
}

// Decorate registers fn as a decorator for whatever binding currently
// resolves fn's first parameter type: when that Key is later requested, the
// binding's own instance is built first, then passed through fn (along with
// any further parameters fn declares, resolved the same way constructor
// parameters are), and fn's return value is what callers actually receive.
// Multiple Decorate calls for the same Key apply in registration order,
// first registered innermost, so the last-registered decorator is the
// outermost wrapper and sees the final return value.
func (b *Binder) Decorate(fn any) *Binder {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumIn() < 1 || t.NumOut() < 1 {
		b.collector.Report(&ValidationError{Source: "Decorate", Message: "decorator must be a function with at least one parameter and one result"})
		return b
	}
	key := Key{Type: t.In(0)}
	b.decorators = append(b.decorators, decoratorEntry{key: key, fn: v, typ: t})
	return b
}

// applyDecorators wraps base (the binding's undecorated factory) with every
// decorator registered for key, in registration order.
func (b *Binder) applyDecorators(key Key, base Factory) Factory {
	current := base
	for _, d := range b.decorators {
		if d.key != key {
			continue
		}
		d := d
		inner := current
		current = func(ctx *ProvisioningContext) (any, error) {
			instance, err := inner(ctx)
			if err != nil {
				return nil, err
			}
			return b.invokeDecorator(ctx, d, instance)
		}
	}
	return current
}

func (b *Binder) invokeDecorator(ctx *ProvisioningContext, d decoratorEntry, instance any) (any, error) {
	args := make([]reflect.Value, d.typ.NumIn())
	args[0] = reflect.ValueOf(instance)

	for i := 1; i < d.typ.NumIn(); i++ {
		paramType := d.typ.In(i)
		dep, err := b.resolver.Resolve(ctx, Key{Type: paramType})
		if err != nil {
			if paramType.Kind() == reflect.Pointer || paramType.Kind() == reflect.Interface {
				args[i] = reflect.Zero(paramType)
				continue
			}
			return nil, &MissingDependencyError{Target: d.typ, Member: "decorator parameter", Key: Key{Type: paramType}, Cause: err}
		}
		args[i] = reflect.ValueOf(dep)
	}

	results := d.fn.Call(args)

	if d.typ.NumOut() > 1 {
		last := results[len(results)-1]
		if d.typ.Out(d.typ.NumOut()-1).Implements(errorType) {
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
		}
	}
	return results[0].Interface(), nil
}
