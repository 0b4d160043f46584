// Package catalog holds the operation catalog and schema registry the
// console is driven by. A Catalog is built once and never mutated, so it is
// safe to share between goroutines.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"xconsole/internal/model"
)

var ErrNotFound = errors.New("not found")

const (
	schemaRefPrefix  = "#/components/schemas/"
	maxFragmentDepth = 8
)

type Group struct {
	Tag        string            `json:"tag"`
	Operations []model.Operation `json:"operations"`
}

type Catalog struct {
	Title   string
	Version string
	Servers []string

	operations []model.Operation
	byID       map[string]int
	schemas    map[string]model.Schema
	groups     []Group
}

func build(doc *openapi3.T, order docOrder) (*Catalog, error) {
	c := &Catalog{
		byID:    map[string]int{},
		schemas: map[string]model.Schema{},
	}
	if doc == nil {
		return nil, errors.New("catalog: nil document")
	}
	if doc.Info != nil {
		c.Title = doc.Info.Title
		c.Version = doc.Info.Version
	}
	for _, s := range doc.Servers {
		if s != nil && strings.TrimSpace(s.URL) != "" {
			c.Servers = append(c.Servers, strings.TrimSpace(s.URL))
		}
	}

	if doc.Components != nil {
		for name, ref := range doc.Components.Schemas {
			if ref == nil || ref.Value == nil {
				continue
			}
			c.schemas[name] = convertSchema(name, ref.Value, order.properties[name])
		}
	}

	type ordered struct {
		op  model.Operation
		pos int
	}
	var ops []ordered
	if doc.Paths != nil {
		for path, item := range doc.Paths.Map() {
			if item == nil {
				continue
			}
			for method, op := range item.Operations() {
				if op == nil {
					continue
				}
				mop, err := c.convertOperation(method, path, item.Parameters, op, order.bodies[operationKey(method, path)])
				if err != nil {
					return nil, err
				}
				pos, ok := order.operations[operationKey(method, path)]
				if !ok {
					pos = len(order.operations) + len(ops)
				}
				ops = append(ops, ordered{op: mop, pos: pos})
			}
		}
	}
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].pos == ops[j].pos {
			return ops[i].op.ID < ops[j].op.ID
		}
		return ops[i].pos < ops[j].pos
	})

	for _, o := range ops {
		if _, dup := c.byID[o.op.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate operation id %q", o.op.ID)
		}
		c.byID[o.op.ID] = len(c.operations)
		c.operations = append(c.operations, o.op)
	}
	c.groups = groupByTag(c.operations)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every body reference resolves.
func (c *Catalog) Validate() error {
	var errs []error
	for _, op := range c.operations {
		if op.Body == nil {
			continue
		}
		if _, err := c.Schema(op.Body.Ref); err != nil {
			errs = append(errs, fmt.Errorf("operation %s: body schema %q: %w", op.ID, op.Body.Ref, err))
		}
	}
	return errors.Join(errs...)
}

// Operations returns the operations in document order.
func (c *Catalog) Operations() []model.Operation {
	return append([]model.Operation(nil), c.operations...)
}

func (c *Catalog) Lookup(id string) (model.Operation, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Operation{}, fmt.Errorf("operation %q: %w", id, ErrNotFound)
	}
	return c.operations[i], nil
}

// MustLookup is Lookup for ids that come from the catalog itself; a miss is a
// programming error.
func (c *Catalog) MustLookup(id string) model.Operation {
	op, err := c.Lookup(id)
	if err != nil {
		panic(err)
	}
	return op
}

// Groups returns operations grouped by their first tag, in first-seen tag
// order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = Group{Tag: g.Tag, Operations: append([]model.Operation(nil), g.Operations...)}
	}
	return out
}

// Schema resolves a schema by "#/components/schemas/Name" or bare name.
func (c *Catalog) Schema(ref string) (model.Schema, error) {
	name := strings.TrimPrefix(ref, schemaRefPrefix)
	s, ok := c.schemas[name]
	if !ok {
		return model.Schema{}, fmt.Errorf("schema %q: %w", name, ErrNotFound)
	}
	return s, nil
}

// BodySchema resolves the request body schema of op. ok is false when the
// operation takes no body.
func (c *Catalog) BodySchema(op model.Operation) (schema model.Schema, ok bool, err error) {
	if op.Body == nil {
		return model.Schema{}, false, nil
	}
	s, err := c.Schema(op.Body.Ref)
	if err != nil {
		return model.Schema{}, false, err
	}
	return s, true, nil
}

func groupByTag(ops []model.Operation) []Group {
	var groups []Group
	index := map[string]int{}
	for _, op := range ops {
		tag := op.Tag()
		i, ok := index[tag]
		if !ok {
			i = len(groups)
			index[tag] = i
			groups = append(groups, Group{Tag: tag})
		}
		groups[i].Operations = append(groups[i].Operations, op)
	}
	return groups
}

func (c *Catalog) convertOperation(method, path string, common openapi3.Parameters, op *openapi3.Operation, bodyOrder []string) (model.Operation, error) {
	id := strings.TrimSpace(op.OperationID)
	if id == "" {
		id = deriveID(method, path)
	}

	mop := model.Operation{
		ID:          id,
		Summary:     strings.TrimSpace(op.Summary),
		Description: strings.TrimSpace(op.Description),
		Method:      strings.ToLower(method),
		Path:        path,
		Tags:        append([]string(nil), op.Tags...),
	}

	params := append(openapi3.Parameters{}, common...)
	params = append(params, op.Parameters...)
	for _, p := range params {
		if p == nil || p.Value == nil {
			continue
		}
		var in model.ParamLocation
		switch p.Value.In {
		case openapi3.ParameterInPath:
			in = model.ParamInPath
		case openapi3.ParameterInQuery:
			in = model.ParamInQuery
		case openapi3.ParameterInHeader:
			in = model.ParamInHeader
		default:
			continue
		}
		frag := fragmentOf(p.Value.Schema, 0)
		if frag.Description == "" {
			frag.Description = strings.TrimSpace(p.Value.Description)
		}
		mop.Parameters = append(mop.Parameters, model.Parameter{
			Name:     p.Value.Name,
			In:       in,
			Required: p.Value.Required || in == model.ParamInPath,
			Schema:   frag,
		})
	}

	body, err := c.bodyRef(id, op, bodyOrder)
	if err != nil {
		return model.Operation{}, err
	}
	mop.Body = body
	return mop, nil
}

func (c *Catalog) bodyRef(id string, op *openapi3.Operation, order []string) (*model.BodyRef, error) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, nil
	}
	mt := op.RequestBody.Value.Content.Get("application/json")
	if mt == nil || mt.Schema == nil {
		return nil, nil
	}
	required := op.RequestBody.Value.Required

	if ref := mt.Schema.Ref; strings.HasPrefix(ref, schemaRefPrefix) {
		return &model.BodyRef{Ref: strings.TrimPrefix(ref, schemaRefPrefix), Required: required}, nil
	}
	if mt.Schema.Value == nil {
		return nil, fmt.Errorf("operation %s: unresolved body schema %q", id, mt.Schema.Ref)
	}

	// Inline bodies get a synthetic registry entry so they flow through the
	// same resolution path as referenced ones.
	name := id + "Body"
	c.schemas[name] = convertSchema(name, mt.Schema.Value, order)
	return &model.BodyRef{Ref: name, Required: required}, nil
}

func convertSchema(name string, s *openapi3.Schema, order []string) model.Schema {
	ms := model.Schema{
		Name:        name,
		Title:       s.Title,
		Description: s.Description,
		Required:    map[string]bool{},
	}
	for _, r := range s.Required {
		ms.Required[r] = true
	}

	seen := map[string]bool{}
	for _, prop := range order {
		ref, ok := s.Properties[prop]
		if !ok {
			continue
		}
		seen[prop] = true
		ms.Properties = append(ms.Properties, model.Property{Name: prop, Schema: fragmentOf(ref, 0)})
	}
	var rest []string
	for prop := range s.Properties {
		if !seen[prop] {
			rest = append(rest, prop)
		}
	}
	sort.Strings(rest)
	for _, prop := range rest {
		ms.Properties = append(ms.Properties, model.Property{Name: prop, Schema: fragmentOf(s.Properties[prop], 0)})
	}
	return ms
}

func fragmentOf(ref *openapi3.SchemaRef, depth int) model.Fragment {
	if ref == nil || ref.Value == nil {
		return model.Fragment{}
	}
	s := ref.Value
	f := model.Fragment{
		Types:       append([]string(nil), s.Type.Slice()...),
		Title:       s.Title,
		Description: strings.TrimSpace(s.Description),
	}
	if s.Nullable && !f.HasType("null") {
		f.Types = append(f.Types, "null")
	}
	if s.Default != nil {
		f.Default = model.Some[any](s.Default)
	}
	for _, e := range s.Enum {
		f.Enum = append(f.Enum, fmt.Sprint(e))
	}
	if depth < maxFragmentDepth {
		for _, alt := range s.AnyOf {
			f.AnyOf = append(f.AnyOf, fragmentOf(alt, depth+1))
		}
		for _, alt := range s.OneOf {
			f.AnyOf = append(f.AnyOf, fragmentOf(alt, depth+1))
		}
	}
	return f
}

var nonWord = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func deriveID(method, path string) string {
	words := strings.Trim(nonWord.ReplaceAllString(path, "_"), "_")
	if words == "" {
		return strings.ToLower(method) + "_root"
	}
	return strings.ToLower(method) + "_" + strings.ToLower(words)
}
