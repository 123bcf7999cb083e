package graphqljit

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

func mustParseQuery(t *testing.T, query string) *ast.QueryDocument {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	return doc
}

func mustCompile(t *testing.T, s *schema.Schema, query string, opts ...Option) *CompiledQuery {
	t.Helper()
	q, errRes := Compile(s, mustParseQuery(t, query), "", opts...)
	if errRes != nil {
		t.Fatalf("compile failed: %+v", errRes.Errors)
	}
	return q
}

func runJSON(t *testing.T, q *CompiledQuery, root any, vars map[string]any) string {
	t.Helper()
	res := q.Run(context.Background(), root, vars)
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(b)
}

func valueResolver(v any) schema.ResolveFn {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return v, nil
	}
}

func errorResolver(err error) schema.ResolveFn {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return nil, err
	}
}

func funcResolver(fn func(source any, args map[string]any) (any, error)) schema.ResolveFn {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return fn(source, args)
	}
}

// dataMap unwraps result data into plain nested maps for cmp comparisons.
func dataMap(t *testing.T, res *ExecutionResult) map[string]any {
	t.Helper()
	if res.Data == nil {
		return nil
	}
	rm, ok := res.Data.(*ResultMap)
	if !ok {
		t.Fatalf("unexpected data type %T", res.Data)
	}
	return rm.ToMap()
}

func errorPaths(res *ExecutionResult) [][]any {
	out := make([][]any, len(res.Errors))
	for i, e := range res.Errors {
		out[i] = e.Path
	}
	return out
}

func withBuiltins(s *schema.Schema) *schema.Schema { return s.WithBuiltins() }

var errBoom = errors.New("boom")
