package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

func testSchema() *schema.Schema {
	s := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{
						Name: "hello",
						Type: schema.NamedType("String"),
						Resolve: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
							return "world", nil
						},
					},
					{
						Name: "echo",
						Type: schema.NamedType("String"),
						Arguments: []*schema.InputValue{
							{Name: "v", Type: schema.NamedType("String")},
						},
						Resolve: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
							return args["v"], nil
						},
					},
				},
			},
		},
	}
	return s.WithBuiltins()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_Post(t *testing.T) {
	h, err := New(testSchema())
	require.NoError(t, err)

	w := post(t, h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
}

func TestHandler_Get(t *testing.T) {
	h, err := New(testSchema())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query={hello}", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
}

func TestHandler_Variables(t *testing.T) {
	h, err := New(testSchema())
	require.NoError(t, err)

	w := post(t, h, `{"query":"query($v: String) { echo(v: $v) }","variables":{"v":"hi"}}`)
	require.JSONEq(t, `{"data":{"echo":"hi"}}`, w.Body.String())
}

func TestHandler_CompileCache(t *testing.T) {
	h, err := New(testSchema())
	require.NoError(t, err)

	_, cached, errRes := h.compiled("{ hello }", "")
	require.Nil(t, errRes)
	require.False(t, cached)

	c2, cached, errRes := h.compiled("{ hello }", "")
	require.Nil(t, errRes)
	require.True(t, cached)
	require.NotNil(t, c2)

	// A different operation name is a different cache entry.
	_, cached, errRes = h.compiled("query A { hello }", "A")
	require.Nil(t, errRes)
	require.False(t, cached)
}

func TestHandler_ParseError(t *testing.T) {
	h, err := New(testSchema())
	require.NoError(t, err)

	w := post(t, h, `{"query":"{ hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	_, hasData := body["data"]
	require.False(t, hasData, "parse failures must not carry data")
	require.NotEmpty(t, body["errors"])
}

func TestHandler_BadRequests(t *testing.T) {
	h, err := New(testSchema(), WithMaxBodyBytes(16))
	require.NoError(t, err)

	w := post(t, h, `{"query":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, h, `{"query":"`+strings.Repeat("x", 64)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/graphql", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_Batch(t *testing.T) {
	h, err := New(testSchema())
	require.NoError(t, err)

	w := post(t, h, `[{"query":"{ hello }"},{"query":"{ hello }"}]`)
	require.Equal(t, http.StatusOK, w.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
}

func TestHandler_CORS(t *testing.T) {
	h, err := New(testSchema(), WithCORS("*"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
