package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "", NormalizeBaseURL("  "))
	assert.Equal(t, "http://localhost:8000", NormalizeBaseURL("localhost:8000/"))
	assert.Equal(t, "https://api.example.com/v1", NormalizeBaseURL("https://api.example.com/v1"))
}

func TestResolveBaseURL(t *testing.T) {
	c := Defaults()
	assert.Equal(t, DefaultBaseURL, c.ResolveBaseURL(nil))
	assert.Equal(t, "http://docker:8000/api/v1", c.ResolveBaseURL([]string{"/relative", "http://{host}/x", "http://docker:8000/api/v1/"}))

	c.SpecURL = "http://docker:8000/api/v1/openapi.json"
	assert.Equal(t, "http://docker:8000/api/v1", c.ResolveBaseURL(nil))

	c.BaseURL = "10.0.0.5:8000"
	assert.Equal(t, "http://10.0.0.5:8000", c.ResolveBaseURL([]string{"http://other"}))
}

func TestSpec(t *testing.T) {
	c := Defaults()
	assert.Equal(t, "", c.Spec())

	c.SpecFile = "catalog.yaml"
	spec := c.Spec()
	assert.True(t, filepath.IsAbs(spec[1:]))
	assert.Equal(t, "@", spec[:1])

	c.SpecURL = "https://example.com/openapi.json"
	assert.Equal(t, "https://example.com/openapi.json", c.Spec())
}

func TestValidate(t *testing.T) {
	c := Defaults()
	require.NoError(t, c.Validate())

	c.Timeout = 0
	assert.Error(t, c.Validate())

	c = Defaults()
	c.PollInterval = -time.Second
	assert.Error(t, c.Validate())

	c = Defaults()
	c.SpecURL = "ftp://example.com/spec"
	assert.Error(t, c.Validate())
}

func TestDefaultsListenLocally(t *testing.T) {
	c := Defaults()
	assert.Equal(t, "127.0.0.1:8080", c.Listen)
	assert.Empty(t, c.OriginAllowed)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("XCONSOLE_TEST_ONLY=from-file\nXCONSOLE_TEST_KEEP=from-file\n"), 0o600))

	t.Setenv("XCONSOLE_TEST_KEEP", "from-env")
	t.Setenv("XCONSOLE_TEST_ONLY", "")
	require.NoError(t, os.Unsetenv("XCONSOLE_TEST_ONLY"))

	require.NoError(t, LoadDotEnv(file, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("XCONSOLE_TEST_ONLY"))
	assert.Equal(t, "from-env", os.Getenv("XCONSOLE_TEST_KEEP"), "environment wins over .env")
}

func TestEditor(t *testing.T) {
	t.Setenv(EnvEditor, "")
	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", Editor())

	t.Setenv(EnvEditor, "code --wait")
	assert.Equal(t, "code --wait", Editor())
}
