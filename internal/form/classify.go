// Package form turns the raw strings an operator typed into a typed request.
package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"xconsole/internal/model"
)

// Classify picks the input affordance for a field. Structured values win over
// scalars so that a nullable object is still edited as JSON.
func Classify(f model.Fragment) model.FieldKind {
	switch {
	case f.AnyType("object"), f.AnyType("array"),
		strings.Contains(strings.ToLower(f.Description), "json-encoded"):
		return model.KindJSONBlob
	case f.AnyType("boolean"):
		return model.KindBoolean
	case f.AnyType("integer"):
		return model.KindInteger
	default:
		return model.KindText
	}
}

// Title is the display name of a field: the schema title when set, the raw
// name otherwise.
func Title(name string, f model.Fragment) string {
	if f.Title != "" {
		return f.Title
	}
	return name
}

func Placeholder(name string, f model.Fragment, required bool) string {
	title := Title(name, f)
	if required {
		title += " *"
	}
	if Classify(f) == model.KindJSONBlob {
		return "Enter JSON for " + title
	}
	return title
}

// DefaultText renders the schema default the way the form shows it. Booleans
// without a default show "false".
func DefaultText(f model.Fragment) string {
	def, ok := f.Default.Get()
	if !ok || def == nil {
		if Classify(f) == model.KindBoolean {
			return "false"
		}
		return ""
	}
	switch v := def.(type) {
	case string:
		return v
	case bool, float64, int, int64:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Display is the value shown for a field: what the operator entered, or the
// default when they have not touched it.
func Display(state model.FormState, name string, f model.Fragment) string {
	if v, ok := state[name]; ok {
		return v
	}
	return DefaultText(f)
}

// Toggle flips a boolean field starting from its displayed value.
func Toggle(state model.FormState, name string, f model.Fragment) {
	if Display(state, name, f) == "true" {
		state[name] = "false"
		return
	}
	state[name] = "true"
}
