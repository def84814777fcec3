package ginject

import (
	"reflect"
	"strings"
)

// injectTag is the struct-tag vocabulary the injection-plan analyzer
// recognises on a field: whether it participates in injection at all, an
// optional qualifier name or group, and whether a missing dependency
// should be tolerated rather than failing resolution. Fields are
// discovered structurally by walking the type; constructors are supplied
// explicitly through the Binder.
type injectTag struct {
	present  bool
	optional bool
	name     string
	group    string
	ignore   bool
}

func parseInjectTag(tag reflect.StructTag) injectTag {
	raw, hasInject := tag.Lookup("inject")
	t := injectTag{present: hasInject}
	if raw == "-" {
		t.ignore = true
	}
	if v, ok := tag.Lookup("optional"); ok && v == "true" {
		t.optional = true
	}
	if v, ok := tag.Lookup("name"); ok {
		t.name = v
	}
	if v, ok := tag.Lookup("group"); ok {
		t.group = v
	}
	return t
}

// PlanStep is one entry of an injection plan: either the constructor step
// or a single field/method injection. Every step carries the Key of its
// dependency and whether a resolution failure is fatal.
type PlanStep struct {
	Kind        PlanStepKind
	Key         Key
	FieldIndex  []int  // for StepField: reflect field index path
	MethodName  string // for StepMethod
	MethodIndex int    // for StepMethod: which parameter of the method
	Optional    bool
	Member      string // human-readable name, for diagnostics
}

// PlanStepKind distinguishes constructor, field, and method steps.
type PlanStepKind int

const (
	StepConstructor PlanStepKind = iota
	StepField
	StepMethod
)

// Plan is the ordered sequence of injection steps for a concrete type,
// computed once and memoised by the resolver's implicit-binding /
// injection-plan cache (backed by refCache's at-most-once materialisation).
// Resolver.planFor fills in Type, Fields and Methods only; Constructor,
// CtorParams and NoCtorErr stay zero, because the constructor is chosen
// when a value is built (Resolver.construct and Resolver.invokeCtor).
type Plan struct {
	Type        reflect.Type
	Constructor reflect.Value  // zero Value if the type has no registered/zero-arg constructor
	CtorParams  []PlanStep     // StepConstructor entries, declaration order
	Fields      []PlanStep     // StepField entries, parent-struct steps first
	Methods     []PlanStep     // StepMethod entries, parent-struct steps first
	NoCtorErr   *NoConstructorError
}

// buildFieldPlan walks t (and, through Go's embedding mechanism, its
// embedded structs) collecting every exported field that carries an inject
// tag with any value other than "-" (conventionally inject:"true"). Embedded
// struct steps are appended before the embedding struct's own fields, so
// an embedded type's dependencies are wired before the embedding struct's,
// matching the declaration-order relationship Go embedding implies between
// the two.
func buildFieldPlan(t reflect.Type) []PlanStep {
	var steps []PlanStep
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	// Embedded (anonymous) struct fields first, depth-first, so their
	// steps precede this struct's own — mirrors superclass-first ordering.
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			embeddedType := f.Type
			for embeddedType.Kind() == reflect.Pointer {
				embeddedType = embeddedType.Elem()
			}
			if embeddedType.Kind() == reflect.Struct && embeddedType != inType && embeddedType != outType {
				for _, s := range buildFieldPlan(f.Type) {
					s.FieldIndex = append([]int{i}, s.FieldIndex...)
					steps = append(steps, s)
				}
			}
		}
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := parseInjectTag(f.Tag)
		if !tag.present || tag.ignore {
			continue
		}
		key := Key{Type: f.Type}
		if tag.group != "" {
			key = Key{Type: f.Type.Elem(), Qualifier: Qualifier{Group: tag.group}}
		} else if tag.name != "" {
			key.Qualifier = Qualifier{Name: tag.name}
		}
		steps = append(steps, PlanStep{
			Kind:       StepField,
			Key:        key,
			FieldIndex: []int{i},
			Optional:   tag.optional,
			Member:     t.Name() + "." + f.Name,
		})
	}
	return steps
}

// buildMethodPlan discovers injectable methods: any exported method whose
// name starts with "Inject" is treated as a method-injection step, with
// each parameter resolved as a dependency. Embedded struct methods are
// collected first, depth-first, the same way buildFieldPlan walks embedded
// fields, so a method promoted from an embedded type runs before the
// embedding struct's own injection methods rather than wherever Go's
// method-set ordering happens to place it.
func buildMethodPlan(t reflect.Type) []PlanStep {
	var steps []PlanStep
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		embeddedType := f.Type
		for embeddedType.Kind() == reflect.Pointer {
			embeddedType = embeddedType.Elem()
		}
		if embeddedType.Kind() == reflect.Struct && embeddedType != inType && embeddedType != outType {
			steps = append(steps, buildMethodPlan(f.Type)...)
		}
	}

	steps = append(steps, ownMethodPlan(t)...)
	return steps
}

// ownMethodPlan collects the Inject-prefixed methods declared with receiver
// type t itself (not promoted from an embedded field).
func ownMethodPlan(t reflect.Type) []PlanStep {
	var steps []PlanStep
	ptr := reflect.PointerTo(t)
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if !strings.HasPrefix(m.Name, "Inject") {
			continue
		}
		// Skip methods promoted from an embedded field: those are emitted
		// by the recursive call on that field's own type instead.
		if declaredOnEmbedded(t, m.Name) {
			continue
		}
		// m.Func has receiver as In(0); parameters start at In(1).
		for p := 1; p < m.Type.NumIn(); p++ {
			paramType := m.Type.In(p)
			steps = append(steps, PlanStep{
				Kind:        StepMethod,
				Key:         Key{Type: paramType},
				MethodName:  m.Name,
				MethodIndex: p - 1,
				Member:      t.Name() + "." + m.Name,
			})
		}
	}
	return steps
}

// declaredOnEmbedded reports whether method name is promoted to t from one
// of t's anonymous (embedded) fields rather than declared directly on t.
func declaredOnEmbedded(t reflect.Type, name string) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		embeddedType := f.Type
		for embeddedType.Kind() == reflect.Pointer {
			embeddedType = embeddedType.Elem()
		}
		if _, ok := reflect.PointerTo(embeddedType).MethodByName(name); ok {
			return true
		}
	}
	return false
}
