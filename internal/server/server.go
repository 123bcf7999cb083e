package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"

	graphqljit "github.com/nabeelbukhari/graphql-jit"
	eventbus "github.com/nabeelbukhari/graphql-jit/internal/eventbus"
	events "github.com/nabeelbukhari/graphql-jit/internal/events"
	reqid "github.com/nabeelbukhari/graphql-jit/internal/reqid"
	schema "github.com/nabeelbukhari/graphql-jit/schema"
)

// Handler is an http.Handler that serves a GraphQL endpoint. It parses
// requests, compiles each (query, operationName) pair once through an LRU
// cache, runs the compiled plan, and formats responses per GraphQL spec.
type Handler struct {
	schema *schema.Schema
	cache  *lru.Cache
	log    *zap.Logger
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// CacheSize bounds the compiled-query LRU cache. Default 1024.
	CacheSize int

	// Logger receives per-request logs. Default is a no-op logger.
	Logger *zap.Logger

	// CompileOptions are forwarded to every Compile call.
	CompileOptions []graphqljit.Option
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCacheSize(n int) Option         { return func(o *Options) { o.CacheSize = n } }
func WithLogger(l *zap.Logger) Option    { return func(o *Options) { o.Logger = l } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithCompileOptions(opts ...graphqljit.Option) Option {
	return func(o *Options) { o.CompileOptions = opts }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a new GraphQL HTTP handler serving the given schema.
func New(s *schema.Schema, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, CacheSize: 1024}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	cache, err := lru.New(op.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: s, cache: cache, log: op.Logger, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		h.writeJSON(w, status, messageResult("method not allowed"))
		return
	}

	req, batch, perr := parseRequest(r, h.opt.MaxBodyBytes)
	if perr != "" {
		status = http.StatusBadRequest
		if perr == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeJSON(w, status, messageResult(perr))
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		out := make([]any, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, batch[i])
		}
		h.writeJSON(w, status, out)
		return
	}

	h.writeJSON(w, status, h.executeOne(ctx, req))
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) *graphqljit.ExecutionResult {
	compiled, cached, errRes := h.compiled(req.Query, req.OperationName)
	if errRes != nil {
		return errRes
	}

	opType := string(compiled.Operation().Operation)
	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
	})

	result := compiled.Run(ctx, nil, req.Variables)

	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		CacheHit:      cached,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	h.log.Info("graphql request",
		zap.String("operationName", req.OperationName),
		zap.String("operationType", opType),
		zap.Bool("cacheHit", cached),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(start)),
	)
	return result
}

// compiled parses and compiles the query, or returns it from the LRU cache.
func (h *Handler) compiled(query, operationName string) (*graphqljit.CompiledQuery, bool, *graphqljit.ExecutionResult) {
	key := cacheKey(query, operationName)
	if v, ok := h.cache.Get(key); ok {
		return v.(*graphqljit.CompiledQuery), true, nil
	}

	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, false, messageResult(err.Error())
	}
	compiled, errRes := graphqljit.Compile(h.schema, doc, operationName, h.opt.CompileOptions...)
	if errRes != nil {
		return nil, false, errRes
	}
	h.cache.Add(key, compiled)
	return compiled, false, nil
}

func cacheKey(query, operationName string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(query)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(operationName)
	return d.Sum64()
}

func messageResult(message string) *graphqljit.ExecutionResult {
	return graphqljit.NewErrorResult(&graphqljit.GraphQLError{Message: message})
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

const errBodyTooLargeMessage = "body too large"

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, string) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, "missing 'query'"
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, "invalid 'variables' JSON"
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, ""
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, "failed to read body"
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, errBodyTooLargeMessage
		}

		// Try array (batch)
		if len(body) > 0 && body[0] == '[' {
			var arr []GraphQLRequest
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, "invalid JSON"
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, "empty batch"
			}
			return GraphQLRequest{}, arr, ""
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, "invalid JSON"
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, "missing 'query'"
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, ""
	}

	return GraphQLRequest{}, nil, "unsupported Content-Type"
}

// ------------------ Response formatting ------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	var (
		b   []byte
		err error
	)
	if h.opt.Pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		h.log.Error("response encoding failed", zap.Error(err))
		return
	}
	_, _ = w.Write(b)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
