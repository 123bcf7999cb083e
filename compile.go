package graphqljit

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

// CompiledQuery is the reusable product of one compilation. It holds no
// per-call state: the same compiled query may be run concurrently from
// independent invocations, each with its own root, context and variables.
type CompiledQuery struct {
	schema        *schema.Schema
	operation     *ast.OperationDefinition
	operationName string
	fragments     map[string]*ast.FragmentDefinition
	root          *objectPlan
	deps          map[string]any
	opts          compileOptions
	stringify     func(value any) ([]byte, error)
	resolverSites int
}

// OperationName returns the name of the compiled operation, if any.
func (q *CompiledQuery) OperationName() string { return q.operationName }

// Operation returns the compiled operation definition.
func (q *CompiledQuery) Operation() *ast.OperationDefinition { return q.operation }

// Schema returns the schema the query was compiled against.
func (q *CompiledQuery) Schema() *schema.Schema { return q.schema }

// Fragments returns the document's fragment definitions by name.
func (q *CompiledQuery) Fragments() map[string]*ast.FragmentDefinition { return q.fragments }

// Dependencies returns the opaque callables bound into the plan, keyed by
// stable names derived from type and field identity.
func (q *CompiledQuery) Dependencies() map[string]any { return q.deps }

// Stringify serializes a value with the serializer bound at compile time: the
// standard JSON encoder by default, or the product of the configured
// serializer builder.
func (q *CompiledQuery) Stringify(value any) ([]byte, error) { return q.stringify(value) }

func (q *CompiledQuery) coerceVariables(variables map[string]any) (map[string]any, []*GraphQLError) {
	if q.opts.variableCoercer != nil {
		return q.opts.variableCoercer(q.schema, q.operation, variables)
	}
	return coerceVariableValues(q.schema, q.operation, variables)
}

// SerializerBuilder constructs a schema-directed serializer from a compiled
// query's plan structure.
type SerializerBuilder func(q *CompiledQuery) func(value any) ([]byte, error)

type compileOptions struct {
	disableLeafSerialization bool
	serializerBuilder        SerializerBuilder
	variableCoercer          VariableCoercer
}

// Option configures compilation.
type Option func(*compileOptions)

// WithDisabledLeafSerialization makes built-in scalar and enum values
// pass-through; the caller guarantees they are already in wire form. Custom
// scalar serializers still run.
func WithDisabledLeafSerialization() Option {
	return func(o *compileOptions) { o.disableLeafSerialization = true }
}

// WithJSONSerializer binds Stringify to a serializer built from the compiled
// plan instead of the standard JSON encoder.
func WithJSONSerializer(b SerializerBuilder) Option {
	return func(o *compileOptions) { o.serializerBuilder = b }
}

// WithVariableCoercer replaces the default variable coercion.
func WithVariableCoercer(c VariableCoercer) Option {
	return func(o *compileOptions) { o.variableCoercer = c }
}

// Compile translates one operation of an already-parsed, already-validated
// document into a specialized plan. Compile-time failures (no, unknown or
// ambiguous operation, unconfigured root type) come back as an error-only
// result; a nil schema or document is a programming error and panics.
func Compile(s *schema.Schema, doc *ast.QueryDocument, operationName string, opts ...Option) (*CompiledQuery, *ExecutionResult) {
	if s == nil {
		panic("graphql-jit: Compile called with nil schema")
	}
	if doc == nil {
		panic("graphql-jit: Compile called with nil document")
	}

	var options compileOptions
	for _, o := range opts {
		o(&options)
	}

	op, gerr := selectOperation(doc, operationName)
	if gerr != nil {
		return nil, errorResult(gerr)
	}
	if op.Operation == ast.Subscription {
		return nil, errorResult(&GraphQLError{Message: "Subscription operations are not supported."})
	}

	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		fragments[f.Name] = f
	}

	var rootType *schema.Type
	switch op.Operation {
	case ast.Query:
		rootType = s.GetQueryType()
	case ast.Mutation:
		rootType = s.GetMutationType()
	}
	if rootType == nil || rootType.Kind != schema.TypeKindObject {
		return nil, errorResult(&GraphQLError{
			Message: fmt.Sprintf("Schema is not configured to execute %s operation.", op.Operation),
		})
	}

	cc := &compileContext{
		schema:    s,
		fragments: fragments,
		operation: op,
		opts:      &options,
		deps:      make(map[string]any),
	}
	root, err := cc.compileObject(rootType, op.SelectionSet, true, false, rootType.Name)
	if err != nil {
		return nil, errorResult(&GraphQLError{Message: err.Error()})
	}

	q := &CompiledQuery{
		schema:        s,
		operation:     op,
		operationName: op.Name,
		fragments:     fragments,
		root:          root,
		deps:          cc.deps,
		opts:          options,
		resolverSites: cc.nextID,
	}
	if options.serializerBuilder != nil {
		q.stringify = options.serializerBuilder(q)
	} else {
		q.stringify = defaultStringify
	}
	return q, nil
}

func selectOperation(doc *ast.QueryDocument, operationName string) (*ast.OperationDefinition, *GraphQLError) {
	if operationName == "" {
		switch len(doc.Operations) {
		case 0:
			return nil, &GraphQLError{Message: "Must provide an operation."}
		case 1:
			return doc.Operations[0], nil
		default:
			return nil, &GraphQLError{Message: "Must provide operation name if query contains multiple operations."}
		}
	}
	for _, op := range doc.Operations {
		if op.Name == operationName {
			return op, nil
		}
	}
	return nil, &GraphQLError{Message: fmt.Sprintf("Unknown operation named %q.", operationName)}
}
