package schema

import "github.com/vektah/gqlparser/v2/ast"

// ResolveInfo describes the call site of a resolver invocation. The executor
// builds one for every call of a user-supplied resolver, before the call,
// whether or not the resolver reads it; construction is not deferred until
// first use. Fields resolved by the default property resolver get none.
type ResolveInfo struct {
	FieldName      string
	FieldNodes     []*ast.Field
	ReturnType     *TypeRef
	ParentType     *Type
	Path           []any
	Schema         *Schema
	Fragments      map[string]*ast.FragmentDefinition
	RootValue      any
	Operation      *ast.OperationDefinition
	VariableValues map[string]any
}
