package graphqljit

import (
	json "github.com/goccy/go-json"
	"github.com/vektah/gqlparser/v2/ast"
)

// Location is a line/column pair into the query source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is a located execution error. Path interleaves field names
// (strings) and list indices (ints).
type GraphQLError struct {
	Message   string     `json:"message"`
	Locations []Location `json:"locations,omitempty"`
	Path      []any      `json:"path,omitempty"`

	original error
}

func (e *GraphQLError) Error() string { return e.Message }

// Unwrap exposes the resolver error the message was built from, if any.
func (e *GraphQLError) Unwrap() error { return e.original }

// locatedError builds a GraphQLError from a message, the source positions of
// the field-node group, and the runtime response path.
func locatedError(message string, nodes []*ast.Field, path *ResponsePath) *GraphQLError {
	return &GraphQLError{
		Message:   message,
		Locations: fieldLocations(nodes),
		Path:      path.Slice(),
	}
}

// wrapError is locatedError keeping the original error for Unwrap.
func wrapError(err error, nodes []*ast.Field, path *ResponsePath) *GraphQLError {
	if ge, ok := err.(*GraphQLError); ok && ge.Path != nil {
		return ge
	}
	e := locatedError(err.Error(), nodes, path)
	e.original = err
	return e
}

func fieldLocations(nodes []*ast.Field) []Location {
	var locs []Location
	for _, n := range nodes {
		if n == nil || n.Position == nil {
			continue
		}
		locs = append(locs, Location{Line: n.Position.Line, Column: n.Position.Column})
	}
	return locs
}

// ExecutionResult is the outcome of running a compiled query. Data is absent
// from the serialized form only for error-only results: compile-time
// failures, variable coercion failures before execution, and results built
// with NewErrorResult. Otherwise it is present, possibly null.
type ExecutionResult struct {
	Data       any
	Errors     []*GraphQLError
	Extensions map[string]any

	noData bool
}

// HasData reports whether the result carries a data member (even a null one).
func (r *ExecutionResult) HasData() bool { return !r.noData }

func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	type withData struct {
		Data       any             `json:"data"`
		Errors     []*GraphQLError `json:"errors,omitempty"`
		Extensions map[string]any  `json:"extensions,omitempty"`
	}
	type withoutData struct {
		Errors     []*GraphQLError `json:"errors,omitempty"`
		Extensions map[string]any  `json:"extensions,omitempty"`
	}
	if r.noData {
		return json.Marshal(withoutData{Errors: r.Errors, Extensions: r.Extensions})
	}
	return json.Marshal(withData{Data: r.Data, Errors: r.Errors, Extensions: r.Extensions})
}

// errorResult builds a data-less result from compile or coercion errors.
func errorResult(errs ...*GraphQLError) *ExecutionResult {
	return &ExecutionResult{Errors: errs, noData: true}
}

// NewErrorResult builds a data-less result for failures outside execution,
// such as request parsing in a transport layer.
func NewErrorResult(errs ...*GraphQLError) *ExecutionResult {
	return errorResult(errs...)
}
