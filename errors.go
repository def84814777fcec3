package ginject

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Sentinel errors for the handful of conditions that don't need provenance
// beyond the wrapping call site.
var (
	ErrKeyTypeNil       = errors.New("ginject: key type is nil")
	ErrContainerSealed  = errors.New("ginject: container is sealed and cannot accept new bindings")
	ErrContainerClosed  = errors.New("ginject: container has been closed")
	ErrNilInstance      = errors.New("ginject: nil instance passed to InjectMembers")
	ErrBuilderUsed      = errors.New("ginject: builder already consumed by Build")
	ErrMaxDepthExceeded = errors.New("ginject: maximum resolution depth exceeded")
)

// DuplicateBindingError reports two bindings configured for the same Key.
// Collected by the errorCollector at seal time; never raised at lookup.
type DuplicateBindingError struct {
	Key          Key
	FirstSource  string
	SecondSource string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("ginject: duplicate binding for %s: already bound at %s, also bound at %s",
		e.Key, e.FirstSource, e.SecondSource)
}

// ResolutionError reports that no binding, implicit or explicit, could
// satisfy a Key. Carries the names of sibling qualifiers bound to the same
// raw type, for a "did you mean" diagnostic when the caller likely mistyped
// a qualifier name.
type ResolutionError struct {
	Key           Key
	InjectionPath string
	Siblings      []string
	Cause         error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ginject: no binding found for %s", e.Key)
	if e.InjectionPath != "" {
		fmt.Fprintf(&b, " (needed at %s)", e.InjectionPath)
	}
	if len(e.Siblings) > 0 {
		sorted := append([]string(nil), e.Siblings...)
		sort.Strings(sorted)
		fmt.Fprintf(&b, "; other qualifiers bound for %s: %s", formatType(e.Key.Type), strings.Join(sorted, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// MissingDependencyError reports that an injection-plan step references a
// Key the resolver cannot bind. It is returned at resolution time, from the
// call that needed the dependency; Build does not check dependencies ahead
// of time, so it is never collected into a BuildError. An optional step
// that fails is silently skipped instead (the field/parameter keeps its
// zero value).
type MissingDependencyError struct {
	Target reflect.Type
	Member string
	Key    Key
	Cause  error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("ginject: %s.%s requires %s, which cannot be bound: %v",
		formatType(e.Target), e.Member, e.Key, e.Cause)
}

func (e *MissingDependencyError) Unwrap() error { return e.Cause }

// ConversionError reports a constant-conversion failure.
type ConversionError struct {
	Value  string
	Target reflect.Type
	Member string
	Cause  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("ginject: cannot convert %q to %s for %s: %v",
		e.Value, formatType(e.Target), e.Member, e.Cause)
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// NoConstructorError reports that injection-plan synthesis found neither a
// selected constructor nor a zero-argument fallback for a concrete type.
type NoConstructorError struct {
	Type       reflect.Type
	Candidates []string
}

func (e *NoConstructorError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("ginject: %s has no eligible constructor and no zero-argument constructor", formatType(e.Type))
	}
	return fmt.Sprintf("ginject: %s has %d eligible constructors (%s) and no unambiguous choice",
		formatType(e.Type), len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// CircularDependencyError reports a cycle that cannot be broken by the
// interface-typed deferred-reference proxy, because the Key at the cycle
// point is not an interface.
type CircularDependencyError struct {
	Path []Key
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, k := range e.Path {
		parts[i] = k.String()
	}
	return fmt.Sprintf("ginject: circular dependency detected: %s", strings.Join(parts, " -> "))
}

// ConstructorInvocationError wraps an error returned by a user constructor
// or Provider with the injection-point context active when it was called.
type ConstructorInvocationError struct {
	Type          reflect.Type
	InjectionPath string
	Cause         error
}

func (e *ConstructorInvocationError) Error() string {
	return fmt.Sprintf("ginject: constructor for %s failed (at %s): %v",
		formatType(e.Type), e.InjectionPath, e.Cause)
}

func (e *ConstructorInvocationError) Unwrap() error { return e.Cause }

// ConstructorPanicError captures a panic raised from inside a user
// constructor, along with the recovered value and a stack trace.
type ConstructorPanicError struct {
	Type       reflect.Type
	Recovered  any
	StackTrace string
}

func (e *ConstructorPanicError) Error() string {
	return fmt.Sprintf("ginject: constructor for %s panicked: %v\n%s",
		formatType(e.Type), e.Recovered, e.StackTrace)
}

// NilDependencyError reports a Provider returning nil where the injection
// point does not accept an absent value (not marked optional, and the
// binding did not opt in via AllowNil).
type NilDependencyError struct {
	Key    Key
	Member string
}

func (e *NilDependencyError) Error() string {
	return fmt.Sprintf("ginject: %s resolved to nil, which %s does not accept (not optional, not AllowNil)", e.Key, e.Member)
}

// ValidationError reports a configuration problem, collected and raised at
// sealing, that isn't a duplicate, a missing dependency, or a missing
// constructor — for example a Bind argument that is not a function
// returning a value, or an As argument that is not a pointer to an
// interface.
type ValidationError struct {
	Source  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ginject: %s: %s", e.Source, e.Message)
}

// BuildError aggregates every diagnostic collected during sealing into a
// single failure, preserving their original order.
type BuildError struct {
	Diagnostics []error
}

func (e *BuildError) Error() string {
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("ginject: container build failed: %v", e.Diagnostics[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ginject: container build failed with %d errors:", len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "\n  - %v", d)
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error { return e.Diagnostics }

// DisposalError aggregates errors returned while closing tracked
// disposables in LIFO order.
type DisposalError struct {
	Errors []error
}

func (e *DisposalError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("ginject: %d disposal error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *DisposalError) Unwrap() []error { return e.Errors }

// formatType renders a reflect.Type the way diagnostics want to see it:
// short, stable, and without the noise of a fully qualified package path
// repeated on every line of a build error.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + formatType(t.Elem())
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	case reflect.Map:
		return fmt.Sprintf("map[%s]%s", formatType(t.Key()), formatType(t.Elem()))
	case reflect.Interface, reflect.Struct:
		if t.Name() == "" {
			return t.String()
		}
		if t.PkgPath() == "" {
			return t.Name()
		}
		return lastPathSegment(t.PkgPath()) + "." + t.Name()
	case reflect.Func:
		return t.String()
	default:
		return t.String()
	}
}

func lastPathSegment(pkgPath string) string {
	if i := strings.LastIndexByte(pkgPath, '/'); i >= 0 {
		return pkgPath[i+1:]
	}
	return pkgPath
}

// findSimilarQualifiers returns the qualifier names of every other binding
// registered for rawType, used to build the "other qualifiers bound" hint
// on ResolutionError.
func findSimilarQualifiers(table *bindingTable, rawType reflect.Type, exclude Qualifier) []string {
	var out []string
	for _, b := range table.FindByRawType(rawType) {
		if b.Key.Qualifier == exclude {
			continue
		}
		if b.Key.Qualifier.Name != "" {
			out = append(out, b.Key.Qualifier.Name)
		} else if b.Key.Qualifier.Group != "" {
			out = append(out, "group:"+b.Key.Qualifier.Group)
		}
	}
	return out
}
