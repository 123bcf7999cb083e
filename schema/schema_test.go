package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRef_Wrapping(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("Int"))))
	assert.True(t, IsNonNull(ref))
	assert.True(t, IsList(ref))
	assert.Equal(t, "Int", GetNamedType(ref))
	assert.Equal(t, "[Int!]!", ref.String())

	inner := Unwrap(ref)
	assert.True(t, IsList(inner))
	assert.False(t, IsNonNull(inner))
}

func TestSchema_WithBuiltins(t *testing.T) {
	s := (&Schema{QueryType: "Q", Types: map[string]*Type{
		"Q": {Name: "Q", Kind: TypeKindObject},
	}}).WithBuiltins()

	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		typ := s.Types[name]
		require.NotNil(t, typ, name)
		require.NotNil(t, typ.Serialize, name)
	}

	// An existing definition is not overwritten.
	custom := &Type{Name: "Int", Kind: TypeKindScalar}
	s2 := (&Schema{Types: map[string]*Type{"Int": custom}}).WithBuiltins()
	require.Same(t, custom, s2.Types["Int"])
}

func TestSerializeInt(t *testing.T) {
	v, err := SerializeInt(int64(7))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = SerializeInt(3.0)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = SerializeInt(3.5)
	assert.Error(t, err)

	_, err = SerializeInt(int64(1) << 40)
	assert.Error(t, err)
}

func TestSerializeFloat(t *testing.T) {
	v, err := SerializeFloat(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = SerializeFloat(struct{}{})
	assert.Error(t, err)
}

func TestSerializeString(t *testing.T) {
	v, err := SerializeString(12)
	require.NoError(t, err)
	assert.Equal(t, "12", v)

	_, err = SerializeString(map[string]any{})
	assert.Error(t, err)
}

func TestSerializeID(t *testing.T) {
	v, err := SerializeID(42)
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestSerializeEnum(t *testing.T) {
	episode := &Type{
		Name: "Episode",
		Kind: TypeKindEnum,
		EnumValues: []*EnumValue{
			{Name: "NEWHOPE"}, {Name: "EMPIRE"},
		},
	}
	serialize := SerializeEnum(episode)

	v, err := serialize("EMPIRE")
	require.NoError(t, err)
	assert.Equal(t, "EMPIRE", v)

	_, err = serialize("JARJAR")
	assert.Error(t, err)

	_, err = serialize(1)
	assert.Error(t, err)
}

func TestType_FieldLookup(t *testing.T) {
	typ := &Type{Name: "T", Kind: TypeKindObject, Fields: []*Field{
		{Name: "a"}, {Name: "b", Arguments: []*InputValue{{Name: "x"}}},
	}}
	require.NotNil(t, typ.Field("b"))
	require.Nil(t, typ.Field("c"))
	require.NotNil(t, typ.Field("b").Argument("x"))
	require.Nil(t, typ.Field("b").Argument("y"))
}
