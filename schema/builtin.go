package schema

import (
	"fmt"
	"math"
	"strconv"
)

var stringType = &Type{
	Name:        "String",
	Kind:        TypeKindScalar,
	Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
	Serialize:   SerializeString,
}

var intType = &Type{
	Name:        "Int",
	Kind:        TypeKindScalar,
	Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
	Serialize:   SerializeInt,
}

var floatType = &Type{
	Name:        "Float",
	Kind:        TypeKindScalar,
	Description: "The `Float` scalar type represents signed double-precision fractional values.",
	Serialize:   SerializeFloat,
}

var booleanType = &Type{
	Name:        "Boolean",
	Kind:        TypeKindScalar,
	Description: "The `Boolean` scalar type represents `true` or `false`.",
	Serialize:   SerializeBoolean,
}

var idType = &Type{
	Name:        "ID",
	Kind:        TypeKindScalar,
	Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
	Serialize:   SerializeID,
}

var builtinScalarNames = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true,
}

// IsBuiltinScalar reports whether name is one of the five built-in scalars.
func IsBuiltinScalar(name string) bool { return builtinScalarNames[name] }

// BuiltinScalars returns fresh copies of the five built-in scalar types.
func BuiltinScalars() []*Type {
	src := []*Type{stringType, intType, floatType, booleanType, idType}
	out := make([]*Type, len(src))
	for i, t := range src {
		c := *t
		out[i] = &c
	}
	return out
}

// WithBuiltins registers any built-in scalar types the schema does not already
// define and returns the schema.
func (s *Schema) WithBuiltins() *Schema {
	if s.Types == nil {
		s.Types = make(map[string]*Type)
	}
	for _, t := range BuiltinScalars() {
		if _, ok := s.Types[t.Name]; !ok {
			s.Types[t.Name] = t
		}
	}
	return s
}

// SerializeInt serializes a value as a GraphQL Int, enforcing the 32-bit range.
func SerializeInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", v)
		}
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return iv, nil
		}
	}
	return nil, fmt.Errorf("Int cannot represent value: %v (%T)", value, value)
}

// SerializeFloat serializes a value as a GraphQL Float.
func SerializeFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %v", v)
		}
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
	return nil, fmt.Errorf("Float cannot represent value: %v (%T)", value, value)
}

// SerializeString serializes a value as a GraphQL String.
func SerializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %v (%T)", value, value)
}

// SerializeBoolean serializes a value as a GraphQL Boolean.
func SerializeBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent value: %v (%T)", value, value)
}

// SerializeID serializes a value as a GraphQL ID string.
func SerializeID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: %v (%T)", value, value)
}

// SerializeEnum returns a serializer that accepts only the given enum's value
// names.
func SerializeEnum(t *Type) SerializeFn {
	return func(value any) (any, error) {
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("Enum %q cannot represent value: %v (%T)", t.Name, value, value)
		}
		for _, ev := range t.EnumValues {
			if ev.Name == name {
				return name, nil
			}
		}
		return nil, fmt.Errorf("Enum %q cannot represent value: %q", t.Name, name)
	}
}
