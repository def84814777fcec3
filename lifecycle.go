package ginject

import (
	"context"
	"sync"
)

// Disposable is implemented by a constructed value that owns a resource
// needing an explicit release step (a connection pool, a file handle) when
// the container or scope that built it is closed.
type Disposable interface {
	Close() error
}

// DisposableWithContext is the context-aware counterpart to Disposable, for
// a resource whose shutdown should respect cancellation or a deadline
// rather than blocking indefinitely.
type DisposableWithContext interface {
	Close(ctx context.Context) error
}

// lifecycleManager manages the lifecycle of disposable instances
type lifecycleManager struct {
	disposables []Disposable
	mu          sync.Mutex
}

// newLifecycleManager creates a new lifecycle manager
func newLifecycleManager() *lifecycleManager {
	return &lifecycleManager{
		disposables: make([]Disposable, 0),
	}
}

// track adds a disposable instance to be managed. A value implementing only
// DisposableWithContext is adapted to Disposable via context.Background(),
// since the container-lifetime disposal path (Container.Close) has no
// caller-supplied context of its own.
func (m *lifecycleManager) track(instance any) {
	var d Disposable
	switch v := instance.(type) {
	case Disposable:
		d = v
	case DisposableWithContext:
		d = disposableAdapter{v}
	default:
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposables = append(m.disposables, d)
}

// disposableAdapter satisfies Disposable by calling through to a
// DisposableWithContext using a background context.
type disposableAdapter struct {
	inner DisposableWithContext
}

func (a disposableAdapter) Close() error {
	return a.inner.Close(context.Background())
}

// dispose disposes all tracked instances in reverse order, returning a
// *DisposalError aggregating every failure, or nil if every Close succeeded.
func (m *lifecycleManager) dispose() error {
	m.mu.Lock()
	disposables := m.disposables
	m.disposables = nil
	m.mu.Unlock()

	var errs []error

	// Dispose in reverse order (LIFO)
	for i := len(disposables) - 1; i >= 0; i-- {
		if err := disposables[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &DisposalError{Errors: errs}
	}

	return nil
}

// clear removes all tracked instances without disposing them
func (m *lifecycleManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposables = nil
}
