package ginject

import "reflect"

// newDeferredProxy breaks a circular dependency that runs through an
// interface Key: when a construction frame for that Key is re-entered
// before it completes, the resolver hands the re-entrant caller a value of
// that interface type
// whose calls forward to the real instance once construction finishes,
// instead of failing outright the way a non-interface cycle must.
//
// Go cannot synthesize an arbitrary interface implementation at runtime the
// way a dynamic proxy class would in a reflective host; reflect.MakeFunc only
// produces a single func value, not a multi-method interface satisfaction.
// reflect.StructOf can, however, build a struct type with one anonymous
// field of the interface type itself — method promotion through embedding
// then makes *that struct* satisfy the interface, forwarding every call to
// whatever the embedded field holds. The field starts nil; frame.store fills
// it in once the real instance exists, and every method call issued before
// that point simply blocks on nothing and panics like any nil-interface
// call would in ordinary Go, which is correct: nobody should be invoking the
// deferred instance before its own constructor returns.
func newDeferredProxy(ifaceType reflect.Type, frame *constructionFrame) (any, error) {
	proxyType := reflect.StructOf([]reflect.StructField{
		{
			Name:      "Deferred" + ifaceType.Name(),
			Type:      ifaceType,
			Anonymous: true,
		},
	})

	holder := reflect.New(proxyType).Elem()

	frame.mu.Lock()
	if frame.ready {
		instance := frame.instance
		frame.mu.Unlock()
		holder.Field(0).Set(reflect.ValueOf(instance))
		return holder.Interface(), nil
	}
	frame.proxies = append(frame.proxies, proxyHandle{fill: func(instance any) {
		holder.Field(0).Set(reflect.ValueOf(instance))
	}})
	frame.mu.Unlock()

	return holder.Interface(), nil
}
