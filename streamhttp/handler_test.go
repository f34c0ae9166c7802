package streamhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/modelctx/mcp-engine-go/mcp"
	"github.com/modelctx/mcp-engine-go/registry"
	"github.com/modelctx/mcp-engine-go/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	ID     any             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.RegisterTool(registry.Tool{
		Name: "greet",
		InputSchema: schema.Object(
			schema.Param{Name: "name", Type: schema.TypeString, Required: true},
		),
		Handler: func(ctx context.Context, req *registry.ToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("Hello, " + req.String("name") + "!"), nil
		},
	}))
	return reg
}

func testHandler(t *testing.T, reg *registry.Registry) *Handler {
	t.Helper()
	h, err := New("/mcp", reg,
		WithServerInfo(mcp.ImplementationInfo{Name: "test-server", Version: "0.0.1"}),
	)
	require.NoError(t, err)
	return h
}

func post(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, body string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env), "body: %s", body)
	return env
}

func TestNew_Validation(t *testing.T) {
	_, err := New("/mcp", nil)
	require.Error(t, err)

	_, err = New("mcp", testRegistry(t))
	require.Error(t, err)

	_, err = New("", testRegistry(t))
	require.Error(t, err)
}

func TestPost_ToolCallWithoutHandshake(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	rec := post(t, h, `{"id":1,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada"}}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec.Body.String())
	require.Nil(t, env.Error)
	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, "Hello, Ada!", result.Content[0].Text)
}

func TestPost_InitializeAnswered(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	rec := post(t, h, `{"id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec.Body.String())
	require.Nil(t, env.Error)
	var result mcp.InitializeResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, "test-server", result.ServerInfo.Name)
}

func TestPost_StatelessIsolation(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	// Initializing in one request leaves no trace for the next: a second
	// initialize is not rejected as a double handshake.
	first := post(t, h, `{"id":1,"method":"initialize"}`, nil)
	require.Nil(t, decodeEnvelope(t, first.Body.String()).Error)

	second := post(t, h, `{"id":1,"method":"initialize"}`, nil)
	require.Nil(t, decodeEnvelope(t, second.Body.String()).Error)
}

func TestPost_ConcurrentRequests(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := post(t, h, `{"id":1,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada"}}}`, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Nil(t, decodeEnvelope(t, rec.Body.String()).Error)
		}()
	}
	wg.Wait()
}

func TestPost_SSEFraming(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	rec := post(t, h, `{"id":1,"method":"tools/list"}`, map[string]string{
		"Accept": "text/event-stream",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.Contains(t, body, "id: ")
	require.Contains(t, body, "data: ")

	// The SSE data payload is the same envelope the JSON framing would carry.
	var data string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	require.NotEmpty(t, data)
	env := decodeEnvelope(t, data)
	require.Nil(t, env.Error)
	var result mcp.ListToolsResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	require.Len(t, result.Tools, 1)
}

func TestPost_JSONPreferredByDefault(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	rec := post(t, h, `{"id":1,"method":"tools/list"}`, map[string]string{
		"Accept": "application/json, text/event-stream",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestPost_UnsupportedContentType(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "text/xml")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestPost_UnacceptableAccept(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	rec := post(t, h, `{"id":1,"method":"tools/list"}`, map[string]string{
		"Accept": "application/xml",
	})
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestPost_MalformedBody(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	rec := post(t, h, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPost_BatchRejected(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	rec := post(t, h, `[{"id":1,"method":"tools/list"}]`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPost_EnvelopeErrorsGetErrorEnvelope(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	rec := post(t, h, `{"id":1,"params":{}}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec.Body.String())
	require.NotNil(t, env.Error)
	assert.Equal(t, -32600, env.Error.Code)
}

func TestPost_NotificationAccepted(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	rec := post(t, h, `{"method":"notifications/initialized"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestEndpoint_MethodNotAllowed(t *testing.T) {
	h := testHandler(t, testRegistry(t))

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/mcp", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"), method)
	}
}

func TestHealth(t *testing.T) {
	h := testHandler(t, testRegistry(t))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}
