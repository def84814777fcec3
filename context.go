package ginject

import (
	"fmt"
	"sync"
)

// Factory is the container's internal producer abstraction: an opaque
// producer of one type's values, parameterised by the ProvisioningContext of
// the call that needs it. User-facing code never sees Factory directly; it
// sees either a concrete instance (Container.GetInstance) or the generic
// Provider[T] sugar of provider.go.
type Factory func(ctx *ProvisioningContext) (any, error)

// ProvisioningContext is the per-top-level-call state a resolution needs:
// which keys are currently under construction, for cycle detection, and how
// deep the current call chain is. It is never stored in goroutine-local
// storage; instead a *ProvisioningContext is created by the first public
// entry point on the call stack and threaded explicitly through every
// nested resolver call, including calls a user Provider makes back into the
// container.
type ProvisioningContext struct {
	// ScopeID identifies the logical request/session this context belongs
	// to, for named scopes (see NewInstanceScope). Empty for the root
	// container-level context.
	ScopeID string

	mu     sync.Mutex
	frames []*constructionFrame

	// injectionPoint names the member (field/parameter/constructor) on
	// whose behalf the current resolution happens, for diagnostics.
	injectionPoint []string

	// depth guards against runaway implicit-binding recursion that isn't
	// caught by frame-based cycle detection (e.g. a chain of distinct
	// concrete types that never repeats a frame).
	depth int
}

const maxResolutionDepth = 200

// constructionFrame tracks one in-flight construction, keyed by the
// constructor-injector identity (a Key). If a re-entrant request for the
// same frame arrives before the frame completes, the resolver either hands
// back a deferred-reference proxy (interface Keys) or fails with a
// CircularDependencyError (non-interface Keys).
type constructionFrame struct {
	key Key

	mu       sync.Mutex
	instance any
	ready    bool
	proxies  []proxyHandle
}

// proxyHandle is a single outstanding deferred-reference proxy waiting for
// this frame's instance to become available.
type proxyHandle struct {
	fill func(any)
}

// NewProvisioningContext creates a fresh context. Container facade methods
// call this automatically; user code only needs it when implementing a
// custom Scope that wants to inspect the frame stack.
func NewProvisioningContext() *ProvisioningContext {
	return &ProvisioningContext{}
}

// pushFrame starts tracking construction of key. It returns the frame and,
// if key is already under construction on this context, whether a cycle was
// detected (existing != nil).
func (c *ProvisioningContext) pushFrame(key Key) (frame *constructionFrame, existing *constructionFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range c.frames {
		if f.key == key {
			return nil, f
		}
	}
	f := &constructionFrame{key: key}
	c.frames = append(c.frames, f)
	return f, nil
}

// frameFor returns the in-flight construction frame for key on this
// context without creating one, or nil if key isn't currently under
// construction. Used by interface-forwarding factories (BindInterface, As)
// to detect a cycle running through an interface before recursing back into
// the same construction.
func (c *ProvisioningContext) frameFor(key Key) *constructionFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.frames {
		if f.key == key {
			return f
		}
	}
	return nil
}

// popFrame removes the most recently pushed frame for key.
func (c *ProvisioningContext) popFrame(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].key == key {
			c.frames = append(c.frames[:i], c.frames[i+1:]...)
			return
		}
	}
}

// path renders the current frame stack for a CircularDependencyError.
func (c *ProvisioningContext) path(closingKey Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.frames)+1)
	for _, f := range c.frames {
		keys = append(keys, f.key)
	}
	return append(keys, closingKey)
}

// enterDepth increments the resolution-depth counter, returning
// ErrMaxDepthExceeded if the configured ceiling is exceeded.
func (c *ProvisioningContext) enterDepth() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depth++
	if c.depth > maxResolutionDepth {
		return ErrMaxDepthExceeded
	}
	return nil
}

func (c *ProvisioningContext) exitDepth() {
	c.mu.Lock()
	c.depth--
	c.mu.Unlock()
}

// pushInjectionPoint records the member currently being satisfied, for
// diagnostics attached to any error raised beneath it.
func (c *ProvisioningContext) pushInjectionPoint(desc string) {
	c.mu.Lock()
	c.injectionPoint = append(c.injectionPoint, desc)
	c.mu.Unlock()
}

func (c *ProvisioningContext) popInjectionPoint() {
	c.mu.Lock()
	if n := len(c.injectionPoint); n > 0 {
		c.injectionPoint = c.injectionPoint[:n-1]
	}
	c.mu.Unlock()
}

// CurrentInjectionPoint renders the active injection-point stack, most
// recent last, for use in error messages.
func (c *ProvisioningContext) CurrentInjectionPoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.injectionPoint) == 0 {
		return "<root>"
	}
	out := c.injectionPoint[0]
	for _, p := range c.injectionPoint[1:] {
		out = fmt.Sprintf("%s -> %s", out, p)
	}
	return out
}

// store records the finished instance into frame, filling in any
// deferred-reference proxies handed out to re-entrant callers while
// construction was in progress.
func (f *constructionFrame) store(instance any) {
	f.mu.Lock()
	f.instance = instance
	f.ready = true
	proxies := f.proxies
	f.proxies = nil
	f.mu.Unlock()

	for _, p := range proxies {
		p.fill(instance)
	}
}
