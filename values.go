package graphqljit

import (
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nabeelbukhari/graphql-jit/schema"
)

// VariableCoercer turns raw variable input into coerced values for one
// operation, or reports why it cannot. It runs before execution; failures
// produce a data-less result.
type VariableCoercer func(s *schema.Schema, operation *ast.OperationDefinition, variables map[string]any) (map[string]any, []*GraphQLError)

// coerceVariableValues is the default VariableCoercer.
func coerceVariableValues(s *schema.Schema, operation *ast.OperationDefinition, variables map[string]any) (map[string]any, []*GraphQLError) {
	if variables == nil {
		variables = map[string]any{}
	}
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	var errs []*GraphQLError
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variables[name]
		if !ok {
			if varDef.DefaultValue != nil {
				coerced[name] = astValueToGo(varDef.DefaultValue, nil)
			} else if t.NonNull {
				errs = append(errs, &GraphQLError{
					Message: fmt.Sprintf("Variable \"$%s\" of required type %q was not provided.", name, t.String()),
				})
			}
			continue
		}
		if val == nil && t.NonNull {
			errs = append(errs, &GraphQLError{
				Message: fmt.Sprintf("Variable \"$%s\" of non-null type %q must not be null.", name, t.String()),
			})
			continue
		}
		cv, err := coerceInputValue(val, typeRefFromAST(t))
		if err != nil {
			errs = append(errs, &GraphQLError{
				Message: fmt.Sprintf("Variable \"$%s\" got invalid value: %v", name, err),
			})
			continue
		}
		coerced[name] = cv
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return coerced, nil
}

// typeRefFromAST converts a query-side type reference into the schema view's
// representation.
func typeRefFromAST(t *ast.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// astValueToGo converts an AST value to a Go value. Variable references read
// from vars; with vars nil they become nil.
func astValueToGo(value *ast.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case ast.Variable:
		if vars == nil {
			return nil
		}
		return vars[value.Raw]
	case ast.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case ast.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case ast.StringValue, ast.BlockValue:
		return value.Raw
	case ast.BooleanValue:
		return value.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.EnumValue:
		return value.Raw
	case ast.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value, vars)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value, vars)
		}
		return m
	default:
		return nil
	}
}

// containsVariables reports whether the value references any query variable.
func containsVariables(value *ast.Value) bool {
	if value == nil {
		return false
	}
	if value.Kind == ast.Variable {
		return true
	}
	for _, c := range value.Children {
		if containsVariables(c.Value) {
			return true
		}
	}
	return false
}

// argumentPlan merges statically-known argument literals, precomputed at
// compile time, with per-invocation variable lookups.
type argumentPlan struct {
	static  map[string]any
	dynamic []dynamicArg
}

// dynamicArg is an argument whose value depends on query variables. When the
// whole value is a single variable reference, varName is set and the default
// applies if the variables map lacks the key; otherwise astValue is evaluated
// against the variables per run.
type dynamicArg struct {
	name     string
	varName  string
	astValue *ast.Value
	typ      *schema.TypeRef
	def      any
	hasDef   bool
}

// compileArguments splits a field's arguments into the static and dynamic
// parts. Literal values are coerced once, here.
func (cc *compileContext) compileArguments(fieldDef *schema.Field, args ast.ArgumentList) (*argumentPlan, error) {
	plan := &argumentPlan{static: map[string]any{}}
	for _, argDef := range fieldDef.Arguments {
		arg := args.ForName(argDef.Name)
		if arg == nil || arg.Value == nil {
			if argDef.DefaultValue != nil {
				plan.static[argDef.Name] = argDef.DefaultValue
			}
			continue
		}
		switch {
		case arg.Value.Kind == ast.Variable:
			plan.dynamic = append(plan.dynamic, dynamicArg{
				name:    argDef.Name,
				varName: arg.Value.Raw,
				typ:     argDef.Type,
				def:     argDef.DefaultValue,
				hasDef:  argDef.DefaultValue != nil,
			})
		case containsVariables(arg.Value):
			plan.dynamic = append(plan.dynamic, dynamicArg{
				name:     argDef.Name,
				astValue: arg.Value,
				typ:      argDef.Type,
				def:      argDef.DefaultValue,
				hasDef:   argDef.DefaultValue != nil,
			})
		default:
			v, err := coerceInputValue(astValueToGo(arg.Value, nil), argDef.Type)
			if err != nil {
				return nil, compileErrorf("Argument %q of %s has invalid value: %v", argDef.Name, fieldDef.Name, err)
			}
			plan.static[argDef.Name] = v
		}
	}
	return plan, nil
}

// bind materializes the argument map for one invocation. A variable-valued
// argument is included only when the variables map actually contains that
// variable; an absent variable falls back to the argument default, or leaves
// the argument absent.
func (p *argumentPlan) bind(vars map[string]any) (map[string]any, error) {
	// Resolvers receive their own map; the static part is shared plan state.
	args := make(map[string]any, len(p.static)+len(p.dynamic))
	for k, v := range p.static {
		args[k] = v
	}
	for _, d := range p.dynamic {
		if d.varName != "" {
			v, ok := vars[d.varName]
			if !ok {
				if d.hasDef {
					args[d.name] = d.def
				}
				continue
			}
			args[d.name] = v
			continue
		}
		v, err := coerceInputValue(astValueToGo(d.astValue, vars), d.typ)
		if err != nil {
			return nil, fmt.Errorf("argument %q has invalid value: %v", d.name, err)
		}
		args[d.name] = v
	}
	return args, nil
}

// coerceInputValue coerces an input value to the given GraphQL type.
func coerceInputValue(value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceInputValue(value, schema.Unwrap(targetType))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(targetType) {
		return coerceInputList(value, targetType)
	}

	switch schema.GetNamedType(targetType) {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	default:
		// Custom scalars, enums and input objects pass through.
		return value, nil
	}
}

func coerceInputList(value any, listType *schema.TypeRef) (any, error) {
	inner := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		out := make([]any, len(slice))
		for i, item := range slice {
			cv, err := coerceInputValue(item, inner)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}
	// Single value becomes a list of one.
	cv, err := coerceInputValue(value, inner)
	if err != nil {
		return nil, err
	}
	return []any{cv}, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return iv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return fmt.Sprintf("%v", value), nil
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
