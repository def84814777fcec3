package ginject

import (
	"sync"

	"github.com/google/uuid"
)

// Scope is a transformer: it wraps an unscoped Provider into a scoped one.
// The core ships three intrinsic scopes (noScope, singletonScope, and the
// eager-singleton load-strategy marker, which is behaviourally identical to
// singletonScope once sealing completes) plus a pluggable registry for
// named scopes such as request- or session-lifetime.
type Scope interface {
	// Apply wraps raw so that calling the returned Factory honours this
	// scope's identity policy for key.
	Apply(key Key, raw Factory) Factory
}

// ScopeFunc adapts a plain function to the Scope interface.
type ScopeFunc func(key Key, raw Factory) Factory

func (f ScopeFunc) Apply(key Key, raw Factory) Factory { return f(key, raw) }

// NoScope is the identity scope: every call invokes the raw provider.
var NoScope Scope = ScopeFunc(func(_ Key, raw Factory) Factory { return raw })

// singletonScope implements the container-lifetime scope: a cache keyed by
// Key, checked and filled under one coarse mutex per container so that
// singletons with circular construction dependencies cannot deadlock each
// other — the resolver's interface-proxy mechanism (resolver.go) is what
// lets such cycles actually complete while this mutex is held.
type singletonScope struct {
	mu        *sync.Mutex
	instances map[Key]any
	errs      map[Key]error

	// lifecycle is wired in by Binder.Build once the Container exists, so
	// every singleton, eager or materialised lazily long after Build
	// returns, is tracked for disposal the moment it is built.
	lifecycle *lifecycleManager
}

// newSingletonScope creates the one singleton scope a container owns; every
// singleton-scoped binding shares the same mutex, a single coarse monitor
// per container rather than one lock per binding.
func newSingletonScope() *singletonScope {
	return &singletonScope{
		mu:        &sync.Mutex{},
		instances: make(map[Key]any),
		errs:      make(map[Key]error),
	}
}

func (s *singletonScope) Apply(key Key, raw Factory) Factory {
	return func(ctx *ProvisioningContext) (any, error) {
		s.mu.Lock()
		if v, ok := s.instances[key]; ok {
			s.mu.Unlock()
			return v, nil
		}
		if err, ok := s.errs[key]; ok {
			s.mu.Unlock()
			return nil, err
		}

		v, err := raw(ctx)
		if err != nil {
			s.errs[key] = err
			s.mu.Unlock()
			return nil, err
		}
		s.instances[key] = v
		lifecycle := s.lifecycle
		s.mu.Unlock()
		if lifecycle != nil {
			lifecycle.track(v)
		}
		return v, nil
	}
}

// snapshot returns every singleton materialised so far. Disposal does not
// use it; it goes through the lifecycle manager's tracked list.
func (s *singletonScope) snapshot() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, 0, len(s.instances))
	for _, v := range s.instances {
		out = append(out, v)
	}
	return out
}

// ScopeRegistry maps a scope identifier to its Scope implementation, letting
// bindings reference a named scope (e.g. "request") without the binder
// package needing to know how that scope is implemented.
type ScopeRegistry struct {
	mu     sync.RWMutex
	scopes map[string]Scope
}

// NewScopeRegistry creates an empty named-scope registry.
func NewScopeRegistry() *ScopeRegistry {
	return &ScopeRegistry{scopes: make(map[string]Scope)}
}

// Register plugs a named Scope into the registry. Calling Register twice for
// the same name replaces the previous entry; the registry has no sealing
// concept of its own, since it is a configuration input consumed once at
// container Build.
func (r *ScopeRegistry) Register(name string, s Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes[name] = s
}

// Lookup returns the Scope registered under name, if any.
func (r *ScopeRegistry) Lookup(name string) (Scope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scopes[name]
	return s, ok
}

// requestScope is a ready-made named scope for the common "one instance per
// logical request/session" case: identity is scoped to whatever ID string
// the caller's ProvisioningContext carries, not to the container as a
// whole. It is registered under no name by default; callers opt in via
// ScopeRegistry.Register("request", NewInstanceScope()).
type requestScope struct {
	mu        sync.Mutex
	instances map[string]map[Key]any
}

// NewInstanceScope creates a named scope keyed by the ProvisioningContext's
// ScopeID (see context.go), suitable for per-request or per-session
// lifetimes plugged in through ScopeRegistry.
func NewInstanceScope() Scope {
	rs := &requestScope{instances: make(map[string]map[Key]any)}
	return ScopeFunc(func(key Key, raw Factory) Factory {
		return func(ctx *ProvisioningContext) (any, error) {
			id := ctx.ScopeID
			if id == "" {
				id = uuid.NewString()
			}
			rs.mu.Lock()
			bucket, ok := rs.instances[id]
			if !ok {
				bucket = make(map[Key]any)
				rs.instances[id] = bucket
			}
			if v, ok := bucket[key]; ok {
				rs.mu.Unlock()
				return v, nil
			}
			rs.mu.Unlock()

			v, err := raw(ctx)
			if err != nil {
				return nil, err
			}

			rs.mu.Lock()
			bucket[key] = v
			rs.mu.Unlock()
			return v, nil
		}
	})
}
