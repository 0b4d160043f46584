package model

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
)

type ParamLocation string

const (
	ParamInPath   ParamLocation = "path"
	ParamInQuery  ParamLocation = "query"
	ParamInHeader ParamLocation = "header"
)

// FieldKind is the input affordance chosen for a parameter or body property.
type FieldKind int

const (
	KindText FieldKind = iota
	KindBoolean
	KindInteger
	KindJSONBlob
)

func (k FieldKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindJSONBlob:
		return "json"
	default:
		return "text"
	}
}

func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FieldKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "boolean":
		*k = KindBoolean
	case "integer":
		*k = KindInteger
	case "json":
		*k = KindJSONBlob
	case "text":
		*k = KindText
	default:
		return fmt.Errorf("unknown field kind %q", b)
	}
	return nil
}

// Optional holds a value that may be absent. A schema default of JSON null
// is Present with a nil Value.
type Optional[T any] struct {
	Value   T
	Present bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// Fragment is the part of a JSON schema the console looks at for one field.
type Fragment struct {
	Types       []string
	AnyOf       []Fragment
	Title       string
	Description string
	Default     Optional[any]
	Enum        []string
}

// HasType reports whether the fragment itself declares t.
func (f Fragment) HasType(t string) bool {
	return slices.Contains(f.Types, t)
}

// AnyType reports whether the fragment or any of its anyOf branches declares t.
func (f Fragment) AnyType(t string) bool {
	if f.HasType(t) {
		return true
	}
	for _, alt := range f.AnyOf {
		if alt.AnyType(t) {
			return true
		}
	}
	return false
}

// Nullable reports whether null is an accepted value.
func (f Fragment) Nullable() bool {
	if f.HasType("null") {
		return true
	}
	for _, alt := range f.AnyOf {
		if alt.HasType("null") && len(alt.Types) == 1 {
			return true
		}
	}
	return false
}

// Alternatives returns the non-null branches of the fragment. A fragment
// without anyOf is its own single alternative.
func (f Fragment) Alternatives() []Fragment {
	if len(f.AnyOf) == 0 {
		return []Fragment{f}
	}
	var out []Fragment
	for _, alt := range f.AnyOf {
		if len(alt.Types) == 1 && alt.Types[0] == "null" {
			continue
		}
		out = append(out, alt)
	}
	return out
}

type Parameter struct {
	Name     string
	In       ParamLocation
	Required bool
	Schema   Fragment
}

type Property struct {
	Name   string
	Schema Fragment
}

// Schema is a named object schema from the catalog's component section.
type Schema struct {
	Name        string
	Title       string
	Description string
	Properties  []Property
	Required    map[string]bool
}

func (s Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (s Schema) IsRequired(name string) bool {
	return s.Required[name]
}

type BodyRef struct {
	Ref      string
	Required bool
}

type Operation struct {
	ID          string
	Summary     string
	Description string
	Method      string
	Path        string
	Parameters  []Parameter
	Body        *BodyRef
	Tags        []string
}

// Tag is the display group of the operation.
func (o Operation) Tag() string {
	if len(o.Tags) == 0 || o.Tags[0] == "" {
		return DefaultTag
	}
	return o.Tags[0]
}

// Label is what lists show for the operation.
func (o Operation) Label() string {
	if o.Summary != "" {
		return o.Summary
	}
	return o.ID
}

func (o Operation) ParamsIn(in ParamLocation) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

const DefaultTag = "General"

// FormState is the raw per-field input of one console. Values are never
// typed here; see form.Assemble.
type FormState map[string]string

// Request is an assembled call, ready for dispatch.
type Request struct {
	OperationID string
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        map[string]any
	HasBody     bool
}

// DispatchResult is the single shape every call outcome is reported in.
// Status 0 means the call never got a response.
type DispatchResult struct {
	Data   any    `json:"data"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (r DispatchResult) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

var statusLabels = map[int]string{
	0:                              "Network Error",
	http.StatusOK:                  "OK",
	http.StatusCreated:             "Created",
	http.StatusNoContent:           "No Content",
	http.StatusBadRequest:          "Bad Request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusUnprocessableEntity: "Validation Error",
	http.StatusInternalServerError: "Internal Server Error",
}

// StatusText labels the result's status for display.
func (r DispatchResult) StatusText() string {
	return StatusLabel(r.Status)
}

func StatusLabel(code int) string {
	if l, ok := statusLabels[code]; ok {
		return l
	}
	if t := http.StatusText(code); t != "" {
		return t
	}
	return "Unknown Status"
}
