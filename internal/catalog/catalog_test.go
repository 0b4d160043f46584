package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xconsole/internal/model"
)

func TestDefaultCatalogResolves(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "Docker API Server", c.Title)
	assert.Equal(t, []string{"http://localhost:8000/api/v1"}, c.Servers)

	for _, op := range c.Operations() {
		if op.Body == nil {
			continue
		}
		s, ok, err := c.BodySchema(op)
		require.NoError(t, err, op.ID)
		assert.True(t, ok, op.ID)
		assert.NotEmpty(t, s.Properties, op.ID)
	}
}

func TestGroupsFollowDocumentOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	var tags []string
	for _, g := range c.Groups() {
		tags = append(tags, g.Tag)
	}
	assert.Equal(t, []string{model.DefaultTag, "Containers", "Images", "Networks", "Volumes"}, tags)

	containers := c.Groups()[1]
	var ids []string
	for _, op := range containers.Operations {
		ids = append(ids, op.ID)
	}
	assert.Equal(t, []string{
		"list_containers", "create_container", "run_container", "get_container",
		"remove_container", "start_container", "stop_container", "fetch_container_logs",
	}, ids)
}

func TestLookup(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	op, err := c.Lookup("remove_container")
	require.NoError(t, err)
	assert.Equal(t, "delete", op.Method)
	assert.Equal(t, "/containers/{container_id}", op.Path)
	require.Len(t, op.Parameters, 2)

	id := op.Parameters[0]
	assert.Equal(t, "container_id", id.Name)
	assert.Equal(t, model.ParamInPath, id.In)
	assert.True(t, id.Required)

	force := op.Parameters[1]
	assert.Equal(t, model.ParamInQuery, force.In)
	assert.False(t, force.Required)
	assert.True(t, force.Schema.HasType("boolean"))
	def, ok := force.Schema.Default.Get()
	assert.True(t, ok)
	assert.Equal(t, false, def)

	_, err = c.Lookup("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Panics(t, func() { c.MustLookup("nope") })
}

func TestSchemaPropertyOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	s, err := c.Schema("#/components/schemas/CreateContainerInput")
	require.NoError(t, err)

	var names []string
	for _, p := range s.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"detach", "image", "name", "entrypoint", "command", "network",
		"environment", "ports", "volumes", "labels", "auto_remove",
	}, names)
	assert.True(t, s.IsRequired("image"))
	assert.False(t, s.IsRequired("name"))

	env, ok := s.Property("environment")
	require.True(t, ok)
	assert.True(t, env.Schema.AnyType("object"))
	assert.True(t, env.Schema.Nullable())

	_, err = c.Schema("Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

const inlineDoc = `
openapi: 3.0.3
info: {title: Inline, version: "1"}
paths:
  /things/{id}:
    parameters:
      - {name: id, in: path, schema: {type: string}}
    put:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [zeta]
              properties:
                zeta: {type: string}
                alpha: {type: integer}
      responses:
        "200": {description: ok}
  /:
    get:
      responses:
        "200": {description: ok}
`

func TestInlineBodyAndDerivedIDs(t *testing.T) {
	c, err := Parse(context.Background(), []byte(inlineDoc), nil)
	require.NoError(t, err)

	ops := c.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "put_things_id", ops[0].ID)
	assert.Equal(t, "get_root", ops[1].ID)

	put := ops[0]
	require.Len(t, put.Parameters, 1)
	assert.True(t, put.Parameters[0].Required, "path params are always required")

	s, ok, err := c.BodySchema(put)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "put_things_idBody", s.Name)
	assert.Equal(t, "zeta", s.Properties[0].Name)
	assert.Equal(t, "alpha", s.Properties[1].Name)
	assert.True(t, s.IsRequired("zeta"))

	assert.Len(t, c.Groups(), 1)
	assert.Equal(t, model.DefaultTag, c.Groups()[0].Tag)
}

const duplicateDoc = `
openapi: 3.0.3
info: {title: Dup, version: "1"}
paths:
  /a:
    get: {operationId: same, responses: {"200": {description: ok}}}
  /b:
    get: {operationId: same, responses: {"200": {description: ok}}}
`

func TestDuplicateOperationID(t *testing.T) {
	_, err := Parse(context.Background(), []byte(duplicateDoc), nil)
	assert.ErrorContains(t, err, "duplicate operation id")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(inlineDoc), 0o600))

	c, err := Open(context.Background(), "@"+path)
	require.NoError(t, err)
	assert.Equal(t, "Inline", c.Title)

	_, err = Open(context.Background(), "@"+filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
