package borsh

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(greetingSchema))
	require.NoError(t, r.Register(tokenOperation))

	s, err := r.Resolve("greeting")
	require.NoError(t, err)
	assert.Equal(t, greetingSchema, s)

	_, err = r.Resolve("missing")
	assert.True(t, errors.Is(err, ErrUnknownSchema))

	err = r.Register(NewStruct("greeting", NewField("other", U8())))
	assert.True(t, errors.Is(err, ErrDuplicateSchema))

	assert.Equal(t, []string{"greeting", "token_operation"}, r.Names())
}

func TestRegistry_SizeOf(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(greetingSchema, mintSchema, tokenOperation, profileSchema)

	size, err := r.SizeOf("greeting")
	require.NoError(t, err)
	assert.Equal(t, 4, size)

	size, err = r.SizeOf("mint")
	require.NoError(t, err)
	assert.Equal(t, 9, size)

	_, err = r.SizeOf("token_operation")
	assert.True(t, errors.Is(err, ErrNotStaticallySized))

	_, err = r.SizeOf("profile")
	assert.True(t, errors.Is(err, ErrNotStaticallySized))

	_, err = r.SizeOf("missing")
	assert.True(t, errors.Is(err, ErrUnknownSchema))
}

func TestSizeOf(t *testing.T) {
	for _, tc := range []struct {
		schema *Schema
		size   int
		static bool
	}{
		{NewStruct("empty"), 0, true},
		{NewStruct("key", NewField("key", PublicKey())), 32, true},
		{NewStruct("opt", NewField("o", Option(U8()))), 0, false},
		{NewStruct("seq", NewField("s", Sequence(U8()))), 0, false},
		{NewStruct("str", NewField("s", String())), 0, false},
		{NewStruct("nested", NewField("m", Composite(mintSchema)), NewField("b", Bool())), 10, true},
		{NewUnion("same",
			NewVariant(0, "a", NewField("x", U32())),
			NewVariant(1, "b", NewField("y", F32())),
		), 5, true},
		{NewUnion("unit", NewVariant(0, "a"), NewVariant(1, "b")), 1, true},
	} {
		size, ok := SizeOf(tc.schema)
		assert.Equal(t, tc.static, ok, tc.schema.Name)
		if tc.static {
			assert.Equal(t, tc.size, size, tc.schema.Name)
		}
	}
}

func TestRegistry_ValidationErrors(t *testing.T) {
	recursive := NewStruct("recursive")
	recursive.Fields = []Field{NewField("self", Composite(recursive))}

	for _, tc := range []struct {
		name     string
		schema   *Schema
		expected error
	}{
		{"nil", nil, ErrInvalidSchema},
		{"unnamed", NewStruct(""), ErrInvalidSchema},
		{"duplicate field", NewStruct("s", NewField("a", U8()), NewField("a", U16())), ErrInvalidSchema},
		{"empty fixed bytes", NewStruct("s", NewField("a", FixedBytes(0))), ErrInvalidSchema},
		{"nested option", NewStruct("s", NewField("a", Option(Option(U8())))), ErrInvalidSchema},
		{"invalid kind", NewStruct("s", NewField("a", Type{})), ErrInvalidSchema},
		{"zero sized sequence element", NewStruct("s", NewField("a", Sequence(Composite(NewStruct("empty"))))), ErrInvalidSchema},
		{"nil composite", NewStruct("s", NewField("a", Composite(nil))), ErrInvalidSchema},
		{"recursive", recursive, ErrInvalidSchema},
		{"implicit discriminant", &Schema{
			Name:     "u",
			Variants: []Variant{{Name: "a"}},
		}, ErrMissingDiscriminant},
		{"duplicate discriminant", NewUnion("u",
			NewVariant(3, "a"),
			NewVariant(3, "b"),
		), ErrDuplicateDiscriminant},
		{"discriminant too wide", NewUnion("u", NewVariant(256, "a")), ErrInvalidSchema},
		{"bad tag width", &Schema{
			Name:     "u",
			TagWidth: 3,
			Variants: []Variant{NewVariant(0, "a")},
		}, ErrInvalidSchema},
		{"invalid nested variant field", NewUnion("u",
			NewVariant(0, "a", NewField("x", Sequence(FixedBytes(-1)))),
		), ErrInvalidSchema},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tc.schema)
			assert.True(t, errors.Is(err, tc.expected), "unexpected error: %v", err)
			assert.Empty(t, r.Names())
		})
	}
}

func TestRegistry_WideDiscriminant(t *testing.T) {
	schema := &Schema{
		Name:     "wide",
		TagWidth: TagWidth16,
		Variants: []Variant{NewVariant(256, "a")},
	}

	r := NewRegistry()
	require.NoError(t, r.Register(schema))
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(greetingSchema)

	assert.Panics(t, func() {
		r.MustRegister(greetingSchema)
	})
}
