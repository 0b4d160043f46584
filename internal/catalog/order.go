package catalog

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// docOrder records the declaration order of paths, methods and schema
// properties. kin-openapi keeps all three in Go maps, so the order has to be
// read from the raw document.
type docOrder struct {
	operations map[string]int
	properties map[string][]string
	bodies     map[string][]string
}

func operationKey(method, path string) string {
	return strings.ToLower(method) + " " + path
}

func readOrder(data []byte) docOrder {
	order := docOrder{
		operations: map[string]int{},
		properties: map[string][]string{},
		bodies:     map[string][]string{},
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil || len(root.Content) == 0 {
		return order
	}
	doc := root.Content[0]

	if paths := mappingValue(doc, "paths"); paths != nil {
		n := 0
		eachPair(paths, func(path string, item *yaml.Node) {
			eachPair(item, func(method string, op *yaml.Node) {
				if !isMethod(method) {
					return
				}
				key := operationKey(method, path)
				order.operations[key] = n
				n++
				body := mappingValue(mappingValue(mappingValue(mappingValue(op, "requestBody"), "content"), "application/json"), "schema")
				if props := propertyNames(body); props != nil {
					order.bodies[key] = props
				}
			})
		})
	}

	schemas := mappingValue(mappingValue(doc, "components"), "schemas")
	eachPair(schemas, func(name string, schema *yaml.Node) {
		order.properties[name] = propertyNames(schema)
	})

	return order
}

func propertyNames(schema *yaml.Node) []string {
	var props []string
	eachPair(mappingValue(schema, "properties"), func(prop string, _ *yaml.Node) {
		props = append(props, prop)
	})
	return props
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func eachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, n.Content[i+1])
	}
}

func isMethod(s string) bool {
	switch strings.ToLower(s) {
	case "get", "put", "post", "delete", "options", "head", "patch", "trace":
		return true
	}
	return false
}
