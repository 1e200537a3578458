// Package borsh implements the canonical binary layout consumed by on-chain
// programs: little-endian fixed-width scalars, u32 length-prefixed strings and
// sequences, 1-byte option flags, and tagged unions.
//
// Layouts are described with plain Schema values built in code. Field order is
// the wire contract.
//
// Values are passed as dynamically typed Go values and are checked strictly:
//
//	u8..u64, i8..i64   uint8..uint64, int8..int64
//	f32, f64           float32, float64 (NaN is rejected)
//	bool               bool
//	string             string
//	bytes, [u8; n]     []byte or ed25519.PublicKey
//	option<T>          nil when absent, otherwise the value of T
//	vec<T>             []any
//	struct             Record
//	union              Enum
package borsh

import (
	"fmt"
	"strings"
)

// Kind identifies the wire representation of a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindBool
	KindString
	KindBytes
	KindFixedBytes
	KindOption
	KindSequence
	KindComposite
)

// TagWidth is the number of bytes used to encode a union discriminant.
type TagWidth uint8

const (
	TagWidth8  TagWidth = 1
	TagWidth16 TagWidth = 2
	TagWidth32 TagWidth = 4
)

// Type describes a single value's layout.
type Type struct {
	Kind Kind

	// Size is the length of a KindFixedBytes array.
	Size int

	// Elem is the element type of a KindOption or KindSequence.
	Elem *Type

	// Schema is the nested layout of a KindComposite.
	Schema *Schema
}

// Field is a named, ordered member of a struct or union variant.
type Field struct {
	Name string
	Type Type
}

// Variant is one arm of a union. Variants must be created with NewVariant so
// the discriminant is always explicit.
type Variant struct {
	Discriminant uint32
	Name         string
	Fields       []Field

	declared bool
}

// NewVariant declares a union arm with an explicit discriminant.
func NewVariant(discriminant uint32, name string, fields ...Field) Variant {
	return Variant{
		Discriminant: discriminant,
		Name:         name,
		Fields:       fields,
		declared:     true,
	}
}

// Schema is either a struct (Fields) or a union (Variants). A schema with any
// variants is a union and its Fields are ignored.
type Schema struct {
	Name     string
	Fields   []Field
	Variants []Variant

	// TagWidth is the discriminant width for unions. Zero means TagWidth8.
	TagWidth TagWidth
}

// NewStruct returns a struct schema with the provided ordered fields.
func NewStruct(name string, fields ...Field) *Schema {
	return &Schema{
		Name:   name,
		Fields: fields,
	}
}

// NewUnion returns a union schema using a 1-byte discriminant.
func NewUnion(name string, variants ...Variant) *Schema {
	return &Schema{
		Name:     name,
		Variants: variants,
		TagWidth: TagWidth8,
	}
}

// IsUnion reports whether the schema is a tagged union.
func (s *Schema) IsUnion() bool {
	return len(s.Variants) > 0
}

func (s *Schema) tagWidth() TagWidth {
	if s.TagWidth == 0 {
		return TagWidth8
	}
	return s.TagWidth
}

// maxDiscriminant returns the largest discriminant the tag width can hold.
func (w TagWidth) maxDiscriminant() (uint32, bool) {
	switch w {
	case TagWidth8:
		return 1<<8 - 1, true
	case TagWidth16:
		return 1<<16 - 1, true
	case TagWidth32:
		return 1<<32 - 1, true
	}
	return 0, false
}

// Variant returns the union arm for the discriminant, if any.
func (s *Schema) Variant(discriminant uint32) (*Variant, bool) {
	for i := range s.Variants {
		if s.Variants[i].Discriminant == discriminant {
			return &s.Variants[i], true
		}
	}
	return nil, false
}

func U8() Type   { return Type{Kind: KindU8} }
func U16() Type  { return Type{Kind: KindU16} }
func U32() Type  { return Type{Kind: KindU32} }
func U64() Type  { return Type{Kind: KindU64} }
func I8() Type   { return Type{Kind: KindI8} }
func I16() Type  { return Type{Kind: KindI16} }
func I32() Type  { return Type{Kind: KindI32} }
func I64() Type  { return Type{Kind: KindI64} }
func F32() Type  { return Type{Kind: KindF32} }
func F64() Type  { return Type{Kind: KindF64} }
func Bool() Type { return Type{Kind: KindBool} }

// String is a u32 length-prefixed UTF-8 string.
func String() Type { return Type{Kind: KindString} }

// Bytes is a u32 length-prefixed byte array.
func Bytes() Type { return Type{Kind: KindBytes} }

// FixedBytes is a byte array of exactly n bytes with no prefix.
func FixedBytes(n int) Type { return Type{Kind: KindFixedBytes, Size: n} }

// PublicKey is a 32 byte address.
func PublicKey() Type { return FixedBytes(32) }

// Option is a 1-byte presence flag followed by elem when present.
func Option(elem Type) Type { return Type{Kind: KindOption, Elem: &elem} }

// Sequence is a u32 element count followed by each element.
func Sequence(elem Type) Type { return Type{Kind: KindSequence, Elem: &elem} }

// Composite embeds a nested struct or union.
func Composite(s *Schema) Type { return Type{Kind: KindComposite, Schema: s} }

// NewField is shorthand for Field{Name: name, Type: t}.
func NewField(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "fixed_bytes"
	case KindOption:
		return "option"
	case KindSequence:
		return "vec"
	case KindComposite:
		return "composite"
	}
	return "invalid"
}

func (t Type) String() string {
	switch t.Kind {
	case KindFixedBytes:
		return fmt.Sprintf("[u8; %d]", t.Size)
	case KindOption:
		if t.Elem == nil {
			return "option<?>"
		}
		return "option<" + t.Elem.String() + ">"
	case KindSequence:
		if t.Elem == nil {
			return "vec<?>"
		}
		return "vec<" + t.Elem.String() + ">"
	case KindComposite:
		if t.Schema == nil {
			return "composite<?>"
		}
		return t.Schema.Name
	}
	return t.Kind.String()
}

func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if s.IsUnion() {
		sb.WriteString(" {")
		for i, v := range s.Variants {
			if i > 0 {
				sb.WriteString(" |")
			}
			sb.WriteString(fmt.Sprintf(" %d:%s", v.Discriminant, v.Name))
		}
		sb.WriteString(" }")
		return sb.String()
	}

	sb.WriteString(" {")
	for i, f := range s.Fields {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf(" %s: %s", f.Name, f.Type.String()))
	}
	sb.WriteString(" }")
	return sb.String()
}
