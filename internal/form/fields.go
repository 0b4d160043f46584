package form

import (
	"xconsole/internal/model"
)

// BodyLocation marks fields that come from the request body schema.
const BodyLocation = "body"

// Field is one input of an operation's form.
type Field struct {
	Name     string          `json:"name"`
	In       string          `json:"in"`
	Required bool            `json:"required"`
	Kind     model.FieldKind `json:"kind"`
	Title    string          `json:"title"`
	Default  string          `json:"default,omitempty"`
	Schema   model.Fragment  `json:"-"`
}

func (f Field) Placeholder() string {
	return Placeholder(f.Name, f.Schema, f.Required)
}

// Fields lists the form inputs of op: body properties first, in declared
// order, then parameters.
func Fields(op model.Operation, schema *model.Schema) []Field {
	var out []Field
	if schema != nil {
		for _, p := range schema.Properties {
			out = append(out, newField(p.Name, BodyLocation, schema.IsRequired(p.Name), p.Schema))
		}
	}
	for _, p := range op.Parameters {
		out = append(out, newField(p.Name, string(p.In), p.Required, p.Schema))
	}
	return out
}

func newField(name, in string, required bool, f model.Fragment) Field {
	return Field{
		Name:     name,
		In:       in,
		Required: required,
		Kind:     Classify(f),
		Title:    Title(name, f),
		Default:  DefaultText(f),
		Schema:   f,
	}
}
