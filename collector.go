package ginject

import "sync"

// errorCollector accumulates diagnostics during
// configuration/sealing, then switches to "runtime mode" once the container
// seals. In configuration mode, Report appends to the ordered diagnostic
// list and Seal raises a single *BuildError if that list is non-empty. In
// runtime mode, Report raises synchronously on the calling goroutine by
// returning its argument unchanged from Report, which callers propagate
// immediately instead of continuing to accumulate.
type errorCollector struct {
	mu          sync.Mutex
	diagnostics []error
	sealed      bool
}

func newErrorCollector() *errorCollector {
	return &errorCollector{}
}

// Report records a diagnostic. Before sealing it is merely accumulated;
// after sealing the caller is expected to treat the returned error as fatal
// for the current resolution rather than call Report again.
func (c *errorCollector) Report(err error) error {
	if err == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sealed {
		c.diagnostics = append(c.diagnostics, err)
	}
	return err
}

// HasDiagnostics reports whether any configuration-time diagnostic has been
// recorded.
func (c *errorCollector) HasDiagnostics() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diagnostics) > 0
}

// Seal raises an aggregate *BuildError if any diagnostics were recorded
// during configuration, and flips the collector into runtime mode
// regardless of outcome — sealing is a one-way transition.
func (c *errorCollector) Seal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	if len(c.diagnostics) == 0 {
		return nil
	}
	return &BuildError{Diagnostics: c.diagnostics}
}
