package graphqljit

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

func petSchema(petValue any, union *schema.Type) *schema.Schema {
	if union == nil {
		union = &schema.Type{
			Name:          "U",
			Kind:          schema.TypeKindUnion,
			PossibleTypes: []string{"Cat", "Dog"},
		}
	}
	return withBuiltins(&schema.Schema{
		QueryType: "Q",
		Types: map[string]*schema.Type{
			"Q": {
				Name: "Q",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "pet", Type: schema.NamedType("U"), Resolve: valueResolver(petValue)},
				},
			},
			"U": union,
			"Cat": {
				Name: "Cat",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "meow", Type: schema.NamedType("String")},
				},
			},
			"Dog": {
				Name: "Dog",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "bark", Type: schema.NamedType("String")},
				},
			},
		},
	})
}

const petQuery = "{ pet { ... on Cat { meow } ... on Dog { bark } } }"

// Pattern: Result comparison
func TestAbstract_DispatchViaTypename(t *testing.T) {
	s := petSchema(map[string]any{"__typename": "Dog", "bark": "woof", "meow": "ignored"}, nil)
	q := mustCompile(t, s, petQuery)
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"pet":{"bark":"woof"}}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestAbstract_DispatchViaResolveType(t *testing.T) {
	union := &schema.Type{
		Name:          "U",
		Kind:          schema.TypeKindUnion,
		PossibleTypes: []string{"Cat", "Dog"},
		ResolveType: func(ctx context.Context, value any, info *schema.ResolveInfo) (string, error) {
			if _, ok := value.(map[string]any)["meow"]; ok {
				return "Cat", nil
			}
			return "Dog", nil
		},
	}
	s := petSchema(map[string]any{"meow": "mrrp"}, union)
	q := mustCompile(t, s, petQuery)
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"pet":{"meow":"mrrp"}}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestAbstract_DispatchViaIsTypeOf(t *testing.T) {
	s := petSchema(map[string]any{"bark": "woof"}, nil)
	s.Types["Cat"].IsTypeOf = func(value any) bool {
		_, ok := value.(map[string]any)["meow"]
		return ok
	}
	s.Types["Dog"].IsTypeOf = func(value any) bool {
		_, ok := value.(map[string]any)["bark"]
		return ok
	}
	q := mustCompile(t, s, petQuery)
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"pet":{"bark":"woof"}}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestAbstract_NotPossibleType(t *testing.T) {
	s := petSchema(map[string]any{"__typename": "Fish"}, nil)
	q := mustCompile(t, s, petQuery)
	res := q.Run(context.Background(), nil, nil)

	want := map[string]any{"pet": nil}
	if diff := cmp.Diff(want, dataMap(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != `Runtime Object type "Fish" is not a possible type for "U".` {
		t.Fatalf("errors = %+v", res.Errors)
	}
}

func TestAbstract_UnresolvedType(t *testing.T) {
	s := petSchema(map[string]any{"bark": "woof"}, nil) // no __typename, no IsTypeOf
	q := mustCompile(t, s, petQuery)
	res := q.Run(context.Background(), nil, nil)

	want := map[string]any{"pet": nil}
	if diff := cmp.Diff(want, dataMap(t, res)); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, `Abstract type "U" must resolve to an Object type at runtime for field Q.pet`) {
		t.Fatalf("errors = %+v", res.Errors)
	}
}

func TestAbstract_TypenameInsideBranch(t *testing.T) {
	s := petSchema(map[string]any{"__typename": "Cat", "meow": "mrrp"}, nil)
	q := mustCompile(t, s, "{ pet { __typename ... on Cat { meow } } }")
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"pet":{"__typename":"Cat","meow":"mrrp"}}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// Interface fragments apply through the possible-types data.
func TestAbstract_InterfaceCondition(t *testing.T) {
	s := withBuiltins(&schema.Schema{
		QueryType: "Q",
		Types: map[string]*schema.Type{
			"Q": {
				Name: "Q",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "node", Type: schema.NamedType("Node"), Resolve: valueResolver(map[string]any{
						"__typename": "User", "id": "u1", "name": "ada",
					})},
				},
			},
			"Node": {
				Name:          "Node",
				Kind:          schema.TypeKindInterface,
				PossibleTypes: []string{"User"},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.NamedType("ID")},
				},
			},
			"User": {
				Name:       "User",
				Kind:       schema.TypeKindObject,
				Interfaces: []string{"Node"},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.NamedType("ID")},
					{Name: "name", Type: schema.NamedType("String")},
				},
			},
		},
	})
	q := mustCompile(t, s, "{ node { ... on Node { id } ... on User { name } } }")
	got := runJSON(t, q, nil, nil)
	want := `{"data":{"node":{"id":"u1","name":"ada"}}}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
