package ginject

import (
	"fmt"
	"hash/fnv"
	"reflect"
)

// Qualifier disambiguates multiple bindings that share a type. The core
// recognises two concrete spellings: a plain string name, and a named group
// (for multi-valued bindings). Either may be absent; a Key with no
// Qualifier is the default binding for its type.
type Qualifier struct {
	Name  string
	Group string
}

// IsZero reports whether the qualifier carries neither a name nor a group.
func (q Qualifier) IsZero() bool {
	return q.Name == "" && q.Group == ""
}

func (q Qualifier) String() string {
	switch {
	case q.Name != "" && q.Group != "":
		return fmt.Sprintf("name=%q,group=%q", q.Name, q.Group)
	case q.Name != "":
		return fmt.Sprintf("name=%q", q.Name)
	case q.Group != "":
		return fmt.Sprintf("group=%q", q.Group)
	default:
		return ""
	}
}

// Key is the sole currency of lookup in the binding table: a type together
// with an optional qualifier. Equality is structural and Key is comparable,
// so it can be used directly as a map key.
type Key struct {
	Type      reflect.Type
	Qualifier Qualifier
}

// NewKey builds a Key for t with no qualifier.
func NewKey(t reflect.Type) Key {
	return Key{Type: t}
}

// NewNamedKey builds a Key for t qualified by name.
func NewNamedKey(t reflect.Type, name string) Key {
	return Key{Type: t, Qualifier: Qualifier{Name: name}}
}

// NewGroupKey builds a Key for t qualified by group.
func NewGroupKey(t reflect.Type, group string) Key {
	return Key{Type: t, Qualifier: Qualifier{Group: group}}
}

// Equal reports structural equality. Two Keys with distinct qualifiers but
// an otherwise identical type are never equal, even if one qualifier is the
// zero value and the other is not.
func (k Key) Equal(other Key) bool {
	return k.Type == other.Type && k.Qualifier == other.Qualifier
}

// RawType projects the Key onto its underlying reflect.Type, stripping any
// qualifier. For a descriptor wrapping Provider[T], RawType returns the
// Provider[T] type itself; callers that need T must unwrap separately (see
// resolver.go's Provider-of-T handling).
func (k Key) RawType() reflect.Type {
	return k.Type
}

// WithType returns a copy of the Key substituting a new underlying type
// while preserving the qualifier. Used when the resolver rewrites a
// Provider[T] key down to its element type T.
func (k Key) WithType(t reflect.Type) Key {
	k.Type = t
	return k
}

// Hash returns a stable, process-local hash of the Key, suitable for sharding
// or logging; Key itself is already comparable and should be preferred as a
// map key over this hash.
func (k Key) Hash() uint64 {
	h := fnv.New64a()
	if k.Type != nil {
		_, _ = h.Write([]byte(k.Type.String()))
	}
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.Qualifier.Name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.Qualifier.Group))
	return h.Sum64()
}

func (k Key) String() string {
	if k.Qualifier.IsZero() {
		return formatType(k.Type)
	}
	return fmt.Sprintf("%s[%s]", formatType(k.Type), k.Qualifier)
}
