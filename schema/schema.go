package schema

import "context"

// Schema is the read-only type system a compiled query executes against.
// It is consumed, not owned: the compiler never mutates it, and a single
// Schema may back any number of compiled queries concurrently.
type Schema struct {
	QueryType    string
	MutationType string
	Types        map[string]*Type // All named types keyed by name
	Description  string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name          string
	Kind          TypeKind
	Description   string
	Fields        []*Field      // For OBJECT and INTERFACE
	Interfaces    []string      // For OBJECT (implemented interfaces)
	PossibleTypes []string      // For INTERFACE and UNION
	EnumValues    []*EnumValue  // For ENUM
	InputFields   []*InputValue // For INPUT_OBJECT

	// Serialize converts an internal scalar or enum value into its wire form.
	// Nil means identity for scalars and name validation for enums.
	Serialize SerializeFn
	// ResolveType maps a value of an abstract type to a concrete object type
	// name. It must be synchronous. Optional; __typename and IsTypeOf are the
	// fallbacks.
	ResolveType ResolveTypeFn
	// IsTypeOf reports whether a value belongs to this object type. Used only
	// for abstract dispatch when no ResolveType and no __typename is available.
	IsTypeOf IsTypeOfFn
}

// Field returns the field definition with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Implements reports whether the type declares the named interface.
func (t *Type) Implements(name string) bool {
	for _, i := range t.Interfaces {
		if i == name {
			return true
		}
	}
	return false
}

// HasPossibleType reports whether name is among the abstract type's possible
// object types.
func (t *Type) HasPossibleType(name string) bool {
	for _, p := range t.PossibleTypes {
		if p == name {
			return true
		}
	}
	return false
}

// ResolveFn resolves a field value from its parent value.
// Returning an error, returning a value that implements error, or panicking
// inside the resolver all surface as the same located field error.
type ResolveFn func(ctx context.Context, source any, args map[string]any, info *ResolveInfo) (any, error)

// SerializeFn converts a leaf value into its wire representation.
type SerializeFn func(value any) (any, error)

// ResolveTypeFn resolves the concrete object type name for an abstract value.
type ResolveTypeFn func(ctx context.Context, value any, info *ResolveInfo) (string, error)

// IsTypeOfFn reports whether value is an instance of the object type.
type IsTypeOfFn func(value any) bool

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Resolve           ResolveFn
	IsDeprecated      bool
	DeprecationReason string
}

// Argument returns the argument definition with the given name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// IsAbstract reports whether the kind requires runtime type resolution.
func (k TypeKind) IsAbstract() bool {
	return k == TypeKindInterface || k == TypeKindUnion
}

// IsLeaf reports whether the kind is terminal in a result tree.
func (k TypeKind) IsLeaf() bool {
	return k == TypeKindScalar || k == TypeKindEnum
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in GraphQL notation, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Named
	}
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
