package ginject

import (
	"fmt"
	"reflect"
)

// Provider[T] is a lazily-invoked producer of a single T, handed out
// instead of T itself so the caller controls exactly when (and how many
// times) construction happens. Requesting a Provider[T] dependency never
// triggers construction of T; only calling the returned function does.
type Provider[T any] func() (T, error)

// GetInstance resolves a T from c. This is the primary way application code
// pulls a value out of a built container.
func GetInstance[T any](c *Container) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	v, err := c.GetInstance(t)
	if err != nil {
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("ginject: resolved %s does not satisfy requested type %s", formatType(reflect.TypeOf(v)), formatType(t))
	}
	return result, nil
}

// MustGetInstance resolves a T from c, panicking if resolution fails. Useful
// during application wiring where a missing binding is a programming error.
func MustGetInstance[T any](c *Container) T {
	v, err := GetInstance[T](c)
	if err != nil {
		panic(fmt.Sprintf("ginject: %v", err))
	}
	return v
}

// GetNamed resolves a T bound under the given name qualifier.
func GetNamed[T any](c *Container, name string) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	v, err := c.GetNamed(t, name)
	if err != nil {
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("ginject: resolved %s does not satisfy requested type %s", formatType(reflect.TypeOf(v)), formatType(t))
	}
	return result, nil
}

// GetGroup resolves every T bound under the given group, in
// configuration-insertion order.
func GetGroup[T any](c *Container, group string) ([]T, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	values, err := c.GetGroup(t, group)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for i, v := range values {
		result, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("ginject: group %q item %d (%s) does not satisfy requested type %s", group, i, formatType(reflect.TypeOf(v)), formatType(t))
		}
		out = append(out, result)
	}
	return out, nil
}

// GetProvider returns a Provider[T] bound to c: calling it resolves T fresh
// (subject to T's own scope) each time, never at the moment GetProvider is
// called itself. Each call goes through GetInstance, with its own fresh
// ProvisioningContext; the resolver's Provider-of-T strategy
// (resolver.go's makeLazyProvider) serves constructor parameters and
// fields typed Provider[T] instead.
func GetProvider[T any](c *Container) Provider[T] {
	return func() (T, error) {
		return GetInstance[T](c)
	}
}
