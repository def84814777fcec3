package ginject

import "reflect"

// In marks a constructor-parameter struct so its exported fields are
// resolved individually instead of the struct itself being treated as a
// single dependency. Embed it anonymously:
//
//	type ServiceParams struct {
//	    ginject.In
//
//	    Database *sql.DB
//	    Logger   Logger `optional:"true"`
//	    Cache    Cache  `name:"redis"`
//	}
//
//	func NewService(p ServiceParams) *Service { ... }
//
// Field tags follow the same vocabulary as struct field injection
// (injectionplan.go): `optional:"true"`, `name:"…"`, `group:"…"`.
type In struct{}

// Out marks a constructor-result struct so each exported field is
// registered as a separate binding instead of the struct type itself being
// bound. Embed it anonymously:
//
//	type ServiceResult struct {
//	    ginject.Out
//
//	    UserService  *UserService
//	    AdminService *AdminService `name:"admin"`
//	}
//
//	func NewServices(db *sql.DB) ServiceResult { ... }
type Out struct{}

var (
	inType  = reflect.TypeOf(In{})
	outType = reflect.TypeOf(Out{})
)

// hasEmbedded reports whether t embeds marker anonymously (directly, not
// through a further level of embedding) — the same shallow check the
// analyzer uses to decide whether a constructor parameter or result is a
// plain value or a parameter/result object.
func hasEmbedded(t reflect.Type, marker reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == marker {
			return true
		}
	}
	return false
}

// resultFields enumerates the exported, non-anonymous fields of an Out
// struct, each becoming its own binding when a constructor returning it is
// registered.
type resultField struct {
	Index []int
	Type  reflect.Type
	Name  string
	Group string
}

func analyzeResultFields(t reflect.Type) []resultField {
	var out []resultField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		out = append(out, resultField{
			Index: []int{i},
			Type:  f.Type,
			Name:  f.Tag.Get("name"),
			Group: f.Tag.Get("group"),
		})
	}
	return out
}

// paramField describes one field of an In struct to be resolved as an
// independent constructor parameter.
type paramField struct {
	Index    []int
	Type     reflect.Type
	Name     string
	Group    string
	Optional bool
}

func analyzeParamFields(t reflect.Type) []paramField {
	var out []paramField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := parseInjectTag(f.Tag)
		out = append(out, paramField{
			Index:    []int{i},
			Type:     f.Type,
			Name:     f.Tag.Get("name"),
			Group:    f.Tag.Get("group"),
			Optional: tag.optional,
		})
	}
	return out
}
