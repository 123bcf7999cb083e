package graphqljit

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

// Pattern: Result comparison
func TestExecute_LeafSuccess(t *testing.T) {
	q := mustCompile(t, helloSchema(), "{ hello }")
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"hello":"world"}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestExecute_KeyOrderMirrorsSelection(t *testing.T) {
	s := withBuiltins(&schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "a", Type: schema.NamedType("String"), Resolve: valueResolver("A")},
					{Name: "b", Type: schema.NamedType("String"), Resolve: valueResolver("B")},
					{Name: "c", Type: schema.NamedType("String"), Resolve: valueResolver("C")},
				},
			},
		},
	})
	q := mustCompile(t, s, "{ c a b }")
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"c":"C","a":"A","b":"B"}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestExecute_AliasesAndTypename(t *testing.T) {
	q := mustCompile(t, helloSchema(), "{ greeting: hello __typename }")
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"greeting":"world","__typename":"Query"}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func nestedSchema() *schema.Schema {
	return withBuiltins(&schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "user", Type: schema.NamedType("User"), Resolve: valueResolver(map[string]any{
						"name": "ada",
						"address": map[string]any{
							"city": "london",
						},
					})},
				},
			},
			"User": {
				Name: "User",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "name", Type: schema.NamedType("String")},
					{Name: "address", Type: schema.NamedType("Address")},
					{Name: "upper", Type: schema.NamedType("String"), Resolve: funcResolver(func(source any, _ map[string]any) (any, error) {
						m := source.(map[string]any)
						return "UPPER:" + m["name"].(string), nil
					})},
				},
			},
			"Address": {
				Name: "Address",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "city", Type: schema.NamedType("String")},
				},
			},
		},
	})
}

// Resolverless fields compile inline and read straight off the parent value.
func TestExecute_InlineFieldsAndNestedResolvers(t *testing.T) {
	q := mustCompile(t, nestedSchema(), "{ user { name address { city } upper } }")
	res := q.Run(context.Background(), nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	want := map[string]any{
		"user": map[string]any{
			"name":    "ada",
			"address": map[string]any{"city": "london"},
			"upper":   "UPPER:ada",
		},
	}
	if diff := cmp.Diff(want, dataMap(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_FragmentSpreadAndInline(t *testing.T) {
	query := `
	query {
	  user {
	    ...Named
	    ... on User { address { city } }
	  }
	}
	fragment Named on User { name }`
	q := mustCompile(t, nestedSchema(), query)
	res := q.Run(context.Background(), nil, nil)
	want := map[string]any{
		"user": map[string]any{
			"name":    "ada",
			"address": map[string]any{"city": "london"},
		},
	}
	if diff := cmp.Diff(want, dataMap(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

// Same-response-key fields merge into one entry with combined sub-selections.
func TestExecute_FieldMerge(t *testing.T) {
	s := nestedSchema()
	q := mustCompile(t, s, "{ user { address { city } } user { name } }")
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"user":{"address":{"city":"london"},"name":"ada"}}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

type rootUser struct {
	Name string
}

func (u rootUser) Shout() string { return u.Name + "!" }

// Default resolution falls back to exported struct fields and niladic methods.
func TestExecute_DefaultResolverOnStructs(t *testing.T) {
	s := withBuiltins(&schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "name", Type: schema.NamedType("String")},
					{Name: "shout", Type: schema.NamedType("String")},
				},
			},
		},
	})
	q := mustCompile(t, s, "{ name shout }")
	got := runJSON(t, q, rootUser{Name: "ada"}, nil)
	want := `{"data":{"name":"ada","shout":"ada!"}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// The compiled plan is read-only; concurrent runs with disjoint inputs must
// match sequential runs.
func TestExecute_ConcurrentRunsOfSamePlan(t *testing.T) {
	s := withBuiltins(&schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{
						Name:      "echo",
						Type:      schema.NamedType("String"),
						Arguments: []*schema.InputValue{{Name: "v", Type: schema.NamedType("String")}},
						Resolve: funcResolver(func(_ any, args map[string]any) (any, error) {
							return Go(func() (any, error) { return args["v"], nil }), nil
						}),
					},
				},
			},
		},
	})
	q := mustCompile(t, s, `query($v: String) { echo(v: $v) }`)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := string(rune('a' + i))
			res := q.Run(context.Background(), nil, map[string]any{"v": v})
			m := res.Data.(*ResultMap)
			got, _ := m.Get("echo")
			results[i] = got.(string)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if want := string(rune('a' + i)); got != want {
			t.Fatalf("run %d: got %q, want %q", i, got, want)
		}
	}
}
