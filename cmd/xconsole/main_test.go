package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xconsole/internal/catalog"
	"xconsole/internal/model"
)

func TestParseAssignments(t *testing.T) {
	state, err := parseAssignments([]string{"container_id=abc123", "force=true", "labels={\"a\":\"b=c\"}", "name="})
	require.NoError(t, err)
	assert.Equal(t, model.FormState{
		"container_id": "abc123",
		"force":        "true",
		"labels":       `{"a":"b=c"}`,
		"name":         "",
	}, state)

	_, err = parseAssignments([]string{"force"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestDescribeMarkdown(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	md, err := describeMarkdown(cat, cat.MustLookup("remove_container"))
	require.NoError(t, err)
	assert.Contains(t, md, "`DELETE /containers/{container_id}`")
	assert.Contains(t, md, "| container_id | path | text | yes |")
	assert.Contains(t, md, "| force | query | boolean |  | false |")
	assert.NotContains(t, md, "## Body")

	md, err = describeMarkdown(cat, cat.MustLookup("create_container"))
	require.NoError(t, err)
	assert.Contains(t, md, "## Body: CreateContainerInput")
	assert.Contains(t, md, "| image | body | text | yes |")

	md, err = describeMarkdown(cat, cat.MustLookup("read_root"))
	require.NoError(t, err)
	assert.Contains(t, md, "_No inputs._")
}

func TestCommandTree(t *testing.T) {
	app := initApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"ops", "describe", "call", "watch", "serve"}, names)
}

func TestIsTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	assert.False(t, isTerminal(w))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
