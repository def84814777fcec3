package ginject

import "reflect"

// ScopePolicy identifies which Scope wraps a Binding's raw Provider.
type ScopePolicy string

const (
	// ScopeNone leaves the raw Provider untouched: every Get invokes it.
	ScopeNone ScopePolicy = ""
	// ScopeSingleton materialises the value once per container.
	ScopeSingleton ScopePolicy = "singleton"
)

// LoadStrategy governs whether a singleton binding is materialised eagerly
// at seal time or lazily on first request.
type LoadStrategy int

const (
	// Lazy defers construction until the binding is first requested.
	Lazy LoadStrategy = iota
	// Eager forces construction during Build, before the container is
	// returned to the caller.
	Eager
)

// Binding is the sealed record produced by configuration: a Key, the raw
// factory that builds a value of that Key's type, the scope policy applied
// to that factory, and diagnostic provenance.
type Binding struct {
	Key          Key
	Source       string
	Factory      Factory
	Scope        ScopePolicy
	NamedScope   string // set when Scope is a named scope, not intrinsic
	Load         LoadStrategy
	AllowNilFlag bool

	// Ctor is the specific constructor function Binder.Bind registered
	// this binding against, if any. Kept per-binding (rather than looked
	// up from the resolver's shared candidate map) so that two explicit
	// bindings of the same Go type under different qualifiers never
	// collide with one another's constructor.
	Ctor reflect.Value

	// resolved is filled in by binder.Build once the scope has been
	// applied; the resolver calls this, never Factory directly.
	resolved Factory
}

// bindingTable is the sealed, read-only mapping from Key to Binding.
// Constructed once by binder.Build; never mutated afterward. A secondary
// index groups bindings by raw type in configuration-insertion order, for
// FindByRawType and the "did you mean" diagnostic.
type bindingTable struct {
	byKey  map[Key]*Binding
	byRaw  map[reflect.Type][]*Binding
	all    []*Binding
	sealed bool
}

func newBindingTable() *bindingTable {
	return &bindingTable{
		byKey: make(map[Key]*Binding),
		byRaw: make(map[reflect.Type][]*Binding),
	}
}

// insert adds a binding during the configuration phase. Returns a
// DuplicateBindingError instead of overwriting an existing entry for the
// same Key; the caller (binder.go) routes that into the error collector
// so every configuration mistake is reported together at Build, rather
// than failing on the first one encountered.
func (t *bindingTable) insert(b *Binding) error {
	if t.sealed {
		return ErrContainerSealed
	}
	if existing, ok := t.byKey[b.Key]; ok {
		return &DuplicateBindingError{Key: b.Key, FirstSource: existing.Source, SecondSource: b.Source}
	}
	t.byKey[b.Key] = b
	t.byRaw[b.Key.RawType()] = append(t.byRaw[b.Key.RawType()], b)
	t.all = append(t.all, b)
	return nil
}

// seal freezes the table. Subsequent inserts return ErrContainerSealed.
func (t *bindingTable) seal() {
	t.sealed = true
}

// Get looks up the binding for key, if any. Total: absence is (nil, false),
// never an error, so callers can treat "unbound" as ordinary control flow.
func (t *bindingTable) Get(key Key) (*Binding, bool) {
	b, ok := t.byKey[key]
	return b, ok
}

// FindByRawType returns every binding whose raw type equals t, in
// configuration-insertion order.
func (t *bindingTable) FindByRawType(rawType reflect.Type) []*Binding {
	return t.byRaw[rawType]
}

// IterateAll returns every binding, in configuration-insertion order.
func (t *bindingTable) IterateAll() []*Binding {
	return t.all
}
