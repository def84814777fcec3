package ginject

import (
	"fmt"
	"reflect"
	"strconv"
)

// constantConverter converts a configured string constant into a target
// string, bool, numeric or registered-enum value (or a pointer to one) on
// demand; reflect.Type targets are not supported. It memoises the first
// successful conversion per (value, target raw type) pair so repeat
// resolutions of the same constant binding never re-parse.
type constantConverter struct {
	cache *refCache[constantKey, any]
	enums map[reflect.Type]map[string]any
}

type constantKey struct {
	value  string
	target reflect.Type
}

func newConstantConverter() *constantConverter {
	return &constantConverter{
		cache: newRefCache[constantKey, any](),
		enums: make(map[reflect.Type]map[string]any),
	}
}

// RegisterEnum teaches the converter the name -> value table for an
// enum-like target type. Go has no runtime enum reflection, so converting
// a string constant to an enum member requires this explicit registration
// at binder configuration time rather than a generic lookup-by-name.
func (c *constantConverter) RegisterEnum(t reflect.Type, values map[string]any) {
	c.enums[t] = values
}

// Convert converts value into target, memoising on first success. member is
// the diagnostic label (e.g. "Config.Port") attached to a ConversionError.
func (c *constantConverter) Convert(value string, target reflect.Type, member string) (any, error) {
	return c.cache.GetOrCreate(constantKey{value, target}, func() (any, error) {
		v, err := c.convertOnce(value, target)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Member: member, Cause: err}
		}
		return v, nil
	})
}

// CanConvert reports whether target is a supported conversion destination,
// without attempting the conversion — used by the resolver's strategy 3
// (constant conversion) to decide whether a String-valued binding with a
// matching qualifier is eligible before invoking Convert.
func (c *constantConverter) CanConvert(target reflect.Type) bool {
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	if _, ok := c.enums[target]; ok {
		return true
	}
	switch target.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (c *constantConverter) convertOnce(value string, target reflect.Type) (any, error) {
	deref := target
	pointerWanted := false
	if deref.Kind() == reflect.Pointer {
		deref = deref.Elem()
		pointerWanted = true
	}

	v, err := convertScalar(value, deref)
	if err != nil {
		if table, ok := c.enums[deref]; ok {
			if ev, ok := table[value]; ok {
				v = ev
			} else {
				return nil, fmt.Errorf("no enum member named %q", value)
			}
		} else {
			return nil, err
		}
	}

	if pointerWanted {
		rv := reflect.New(deref)
		rv.Elem().Set(reflect.ValueOf(v))
		return rv.Interface(), nil
	}
	return v, nil
}

func convertScalar(value string, t reflect.Type) (any, error) {
	switch t.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Bool:
		return strconv.ParseBool(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// No char special-case here: rune is just an alias for int32, so
		// reflect.Kind cannot tell an ordinary int32 field from a rune one,
		// and treating every single-digit string as a code point would
		// silently turn "5" bound to an int32 into 53 instead of 5.
		n, err := strconv.ParseInt(value, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported constant conversion target %s", formatType(t))
	}
}
