package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xconsole/internal/catalog"
	"xconsole/internal/httpclient"
)

// backend is a stand-in for the Docker API server.
type backend struct {
	mu         sync.Mutex
	containers string
	lastMethod string
	lastURI    string
}

func (b *backend) setContainers(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.containers = s
}

func (b *backend) last() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastMethod, b.lastURI
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.lastMethod, b.lastURI = r.Method, r.URL.RequestURI()
	containers := b.containers
	b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/containers":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, containers)
	case r.Method == http.MethodGet && r.URL.Path == "/":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":"Docker API Server"}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *backend) {
	t.Helper()
	return newTestServerWith(t, Options{})
}

func newTestServerWith(t *testing.T, opts Options) (*httptest.Server, *backend) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	b := &backend{containers: `[{"id":"c1","status":"running"}]`}
	api := httptest.NewServer(b)
	t.Cleanup(api.Close)

	opts.PollInterval = 20 * time.Millisecond
	s := New(cat, httpclient.New(api.URL, 2*time.Second), opts)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, b
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, v any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var got map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", &got))
	assert.Equal(t, "ok", got["status"])
}

func TestListOperations(t *testing.T) {
	srv, _ := newTestServer(t)
	var groups []groupView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/operations", &groups))
	require.NotEmpty(t, groups)
	assert.Equal(t, "General", groups[0].Tag)
	assert.Equal(t, "read_root", groups[0].Operations[0].ID)
	assert.Equal(t, "Containers", groups[1].Tag)
}

func TestDescribeOperation(t *testing.T) {
	srv, _ := newTestServer(t)

	var got struct {
		Operation operationView `json:"operation"`
		Schema    *schemaView   `json:"schema"`
		Fields    []struct {
			Name     string `json:"name"`
			In       string `json:"in"`
			Required bool   `json:"required"`
			Kind     string `json:"kind"`
		} `json:"fields"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/operations/remove_container", &got))
	assert.Equal(t, "delete", strings.ToLower(got.Operation.Method))
	assert.Nil(t, got.Schema)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "container_id", got.Fields[0].Name)
	assert.True(t, got.Fields[0].Required)
	assert.Equal(t, "force", got.Fields[1].Name)
	assert.Equal(t, "boolean", got.Fields[1].Kind)

	var withBody describeResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/operations/create_container", &withBody))
	require.NotNil(t, withBody.Schema)
	assert.Equal(t, "CreateContainerInput", withBody.Schema.Name)
	assert.Equal(t, "detach", withBody.Schema.Properties[0].Name)

	var notFound map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/operations/nope", &notFound))
	assert.Contains(t, notFound["error"], "nope")
}

func TestDispatchOperation(t *testing.T) {
	srv, b := newTestServer(t)

	var got struct {
		Result struct {
			Data   map[string]any `json:"data"`
			Status int            `json:"status"`
			Error  string         `json:"error"`
		} `json:"result"`
		HTML       string `json:"html"`
		StatusText string `json:"statusText"`
	}
	code := postJSON(t, srv.URL+"/api/operations/remove_container/dispatch", `{"container_id":"abc123","force":true}`, &got)
	require.Equal(t, http.StatusOK, code)

	method, uri := b.last()
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/containers/abc123?force=true", uri)
	assert.Equal(t, http.StatusNoContent, got.Result.Status)
	assert.Equal(t, "No Content", got.StatusText)
	assert.Contains(t, got.HTML, `<span class="json-key">"message":</span>`)
}

func TestDispatchFormError(t *testing.T) {
	srv, b := newTestServer(t)

	var got dispatchResponse
	code := postJSON(t, srv.URL+"/api/operations/remove_container/dispatch", `{"force":true}`, &got)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, http.StatusBadRequest, got.Result.Status)
	assert.Contains(t, got.Result.Error, "container_id")
	method, _ := b.last()
	assert.Empty(t, method)

	var bad map[string]string
	assert.Equal(t, http.StatusBadRequest, postJSON(t, srv.URL+"/api/operations/remove_container/dispatch", `[1]`, &bad))
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestWatchStreamsChanges(t *testing.T) {
	srv, b := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/api/watch/list_containers?all=true"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var first watchMessage
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, "snapshot", first.Type)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "running", first.Items[0]["status"])
	_, uri := b.last()
	assert.Equal(t, "/containers?all=true", uri)

	b.setContainers(`[{"id":"c1","status":"exited"},{"id":"c2","status":"running"}]`)

	var next watchMessage
	require.NoError(t, wsjson.Read(ctx, conn, &next))
	assert.Equal(t, "snapshot", next.Type)
	assert.Len(t, next.Items, 2)
	assert.Equal(t, []string{"c2"}, next.Added)
	assert.Equal(t, []string{"c1"}, next.Updated)
}

func TestWatchReportsNonList(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/api/watch/read_root"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var msg watchMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Error)
}

func TestWatchUnknownOperation(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/watch/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWatchEmptySnapshotHasItems(t *testing.T) {
	srv, b := newTestServer(t)
	b.setContainers(`[]`)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/api/watch/list_containers"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	_, raw, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"items":[]`)
}

func preflight(t *testing.T, srv *httptest.Server, origin string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/operations/remove_container/dispatch", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestForeignOriginRefused(t *testing.T) {
	srv, b := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp := preflight(t, srv, "https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	_, _, err := websocket.Dial(ctx, wsURL(srv, "/api/watch/list_containers"), &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": {"https://evil.example"}},
	})
	assert.Error(t, err)

	// A form-style post never reaches the backend.
	resp, err = http.Post(srv.URL+"/api/operations/remove_container/dispatch", "text/plain", strings.NewReader(`{"container_id":"abc123"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	method, _ := b.last()
	assert.Empty(t, method)
}

func TestAllowedOriginAccepted(t *testing.T) {
	const origin = "https://console.example"
	srv, _ := newTestServerWith(t, Options{OriginAllowed: origin})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp := preflight(t, srv, origin)
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight(t, srv, "https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/api/watch/list_containers"), &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": {origin}},
	})
	require.NoError(t, err)
	conn.CloseNow()
}
