package ginject

import "reflect"

// TypeDescriptor is the runtime representation of a type flowing through the
// container: a reflect.Type together with the handful of derived
// characteristics the resolver and injection planner need repeatedly.
// TypeDescriptors are cached process-wide (see typeDescriptorFor) since
// reflect.Type values for named types are stable for the life of the binary.
type TypeDescriptor struct {
	typ reflect.Type

	isProviderOf bool
	elem         *TypeDescriptor // set when isProviderOf

	isInterface bool
	isPointer   bool
	isPrimitive bool
}

var descriptorCache = newRefCache[reflect.Type, *TypeDescriptor]()

// typeDescriptorFor returns the memoised TypeDescriptor for t, building it
// on first request.
func typeDescriptorFor(t reflect.Type) *TypeDescriptor {
	d, _ := descriptorCache.GetOrCreate(t, func() (*TypeDescriptor, error) {
		return buildTypeDescriptor(t), nil
	})
	return d
}

func buildTypeDescriptor(t reflect.Type) *TypeDescriptor {
	d := &TypeDescriptor{typ: t}
	if t == nil {
		return d
	}
	d.isInterface = t.Kind() == reflect.Interface
	d.isPointer = t.Kind() == reflect.Pointer
	d.isPrimitive = isPrimitiveKind(t.Kind())
	if elem, ok := providerElemType(t); ok {
		d.isProviderOf = true
		d.elem = typeDescriptorFor(elem)
	}
	return d
}

// RawType strips any type arguments, returning the underlying reflect.Type.
// For an ordinary descriptor this is simply the wrapped type; for a
// Provider[T] descriptor it is the Provider[T] type itself, not T.
func (d *TypeDescriptor) RawType() reflect.Type {
	return d.typ
}

// IsAssignableFrom reports structural assignability: identical modulo a
// primitive/pointer interchange rule (T and *T match each other for the
// primitive-like kinds). The resolver does not consult it: binding lookup
// is exact by Key, so an explicit binding for T does not satisfy a request
// for *T, nor the reverse.
func (d *TypeDescriptor) IsAssignableFrom(other *TypeDescriptor) bool {
	if d.typ == other.typ {
		return true
	}
	if d.typ == nil || other.typ == nil {
		return false
	}
	if other.typ.AssignableTo(d.typ) {
		return true
	}
	return interchangeable(d.typ, other.typ)
}

// Substitute replaces the element type of a Provider[T] descriptor, yielding
// a descriptor for Provider[elem]. It is a no-op (returns d) for any
// descriptor that does not wrap Provider[T]; the core has no other
// runtime-parametric construct to substitute against.
func (d *TypeDescriptor) Substitute(elem *TypeDescriptor) *TypeDescriptor {
	if !d.isProviderOf {
		return d
	}
	return &TypeDescriptor{typ: d.typ, isProviderOf: true, elem: elem}
}

// Elem returns the T of a Provider[T] descriptor, or nil if d does not wrap
// one.
func (d *TypeDescriptor) Elem() *TypeDescriptor {
	return d.elem
}

// IsProviderOf reports whether d wraps the parametric Provider[T] construct.
func (d *TypeDescriptor) IsProviderOf() bool { return d.isProviderOf }

// IsInterface reports whether the wrapped type is an interface type.
func (d *TypeDescriptor) IsInterface() bool { return d.isInterface }

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// interchangeable reports that a binding for value type T also satisfies
// (and is satisfied by) a request for *T, for the primitive-like kinds,
// since callers binding a primitive rarely care which side of the pointer
// boundary they land on.
func interchangeable(a, b reflect.Type) bool {
	if a.Kind() == reflect.Pointer && isPrimitiveKind(a.Elem().Kind()) && a.Elem() == b {
		return true
	}
	if b.Kind() == reflect.Pointer && isPrimitiveKind(b.Elem().Kind()) && b.Elem() == a {
		return true
	}
	return false
}

var providerType = reflect.TypeOf((*rawProvider)(nil)).Elem()

// providerElemType reports whether t is a Provider[X] instantiation and, if
// so, returns X. Provider[T] is declared in provider.go as
// `type Provider[T any] func() (T, error)`; detection here is purely
// structural (func() (X, error) with exactly one non-error return) so it
// generalises to any type alias of the same shape.
func providerElemType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func {
		return nil, false
	}
	if t.NumIn() != 0 || t.NumOut() != 2 {
		return nil, false
	}
	if !t.Out(1).Implements(errorType) {
		return nil, false
	}
	return t.Out(0), true
}

type rawProvider = func() (any, error)
