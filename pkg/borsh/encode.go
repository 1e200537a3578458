package borsh

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Encode serializes v according to s.
//
// Struct schemas take a Record and union schemas take an Enum. See the package
// documentation for the Go type expected by each Kind.
func Encode(s *Schema, v any) ([]byte, error) {
	if s == nil {
		return nil, errors.Wrap(ErrInvalidSchema, "nil schema")
	}

	var buf bytes.Buffer
	if err := encodeSchema(&buf, s, v, s.Name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeSchema(buf *bytes.Buffer, s *Schema, v any, path string) error {
	if !s.IsUnion() {
		rec, ok := asRecord(v)
		if !ok {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: expected borsh.Record, got %T", path, v)
		}
		return encodeFields(buf, s.Fields, rec, path)
	}

	var e Enum
	switch t := v.(type) {
	case Enum:
		e = t
	case *Enum:
		if t == nil {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: nil enum", path)
		}
		e = *t
	default:
		return errors.Wrapf(ErrInvalidValueForSchema, "%s: expected borsh.Enum, got %T", path, v)
	}

	variant, ok := s.Variant(e.Discriminant)
	if !ok {
		return errors.Wrapf(ErrInvalidValueForSchema, "%s: no variant with discriminant %d", path, e.Discriminant)
	}

	max, ok := s.tagWidth().maxDiscriminant()
	if !ok {
		return errors.Wrapf(ErrInvalidSchema, "%s: unsupported tag width %d", path, s.TagWidth)
	}
	if e.Discriminant > max {
		return errors.Wrapf(ErrInvalidValueForSchema, "%s: discriminant %d exceeds %d byte tag", path, e.Discriminant, s.tagWidth())
	}

	putTag(buf, s.tagWidth(), e.Discriminant)
	return encodeFields(buf, variant.Fields, e.Fields, joinPath(path, variant.Name))
}

func encodeFields(buf *bytes.Buffer, fields []Field, rec Record, path string) error {
	for name := range rec {
		if !hasField(fields, name) {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: undeclared field %q", path, name)
		}
	}

	for _, f := range fields {
		fieldPath := joinPath(path, f.Name)

		v, ok := rec[f.Name]
		if !ok {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: missing field", fieldPath)
		}

		if err := encodeType(buf, f.Type, v, fieldPath); err != nil {
			return err
		}
	}

	return nil
}

func encodeType(buf *bytes.Buffer, t Type, v any, path string) error {
	var scratch [8]byte

	switch t.Kind {
	case KindU8:
		x, ok := v.(uint8)
		if !ok {
			return invalidValue(path, t, v)
		}
		buf.WriteByte(x)
	case KindU16:
		x, ok := v.(uint16)
		if !ok {
			return invalidValue(path, t, v)
		}
		binary.LittleEndian.PutUint16(scratch[:], x)
		buf.Write(scratch[:2])
	case KindU32:
		x, ok := v.(uint32)
		if !ok {
			return invalidValue(path, t, v)
		}
		binary.LittleEndian.PutUint32(scratch[:], x)
		buf.Write(scratch[:4])
	case KindU64:
		x, ok := v.(uint64)
		if !ok {
			return invalidValue(path, t, v)
		}
		binary.LittleEndian.PutUint64(scratch[:], x)
		buf.Write(scratch[:8])
	case KindI8:
		x, ok := v.(int8)
		if !ok {
			return invalidValue(path, t, v)
		}
		buf.WriteByte(byte(x))
	case KindI16:
		x, ok := v.(int16)
		if !ok {
			return invalidValue(path, t, v)
		}
		binary.LittleEndian.PutUint16(scratch[:], uint16(x))
		buf.Write(scratch[:2])
	case KindI32:
		x, ok := v.(int32)
		if !ok {
			return invalidValue(path, t, v)
		}
		binary.LittleEndian.PutUint32(scratch[:], uint32(x))
		buf.Write(scratch[:4])
	case KindI64:
		x, ok := v.(int64)
		if !ok {
			return invalidValue(path, t, v)
		}
		binary.LittleEndian.PutUint64(scratch[:], uint64(x))
		buf.Write(scratch[:8])
	case KindF32:
		x, ok := v.(float32)
		if !ok {
			return invalidValue(path, t, v)
		}
		if math.IsNaN(float64(x)) {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: NaN is not encodable", path)
		}
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(x))
		buf.Write(scratch[:4])
	case KindF64:
		x, ok := v.(float64)
		if !ok {
			return invalidValue(path, t, v)
		}
		if math.IsNaN(x) {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: NaN is not encodable", path)
		}
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(x))
		buf.Write(scratch[:8])
	case KindBool:
		x, ok := v.(bool)
		if !ok {
			return invalidValue(path, t, v)
		}
		if x {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindString:
		x, ok := v.(string)
		if !ok {
			return invalidValue(path, t, v)
		}
		if !utf8.ValidString(x) {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: string is not valid utf-8", path)
		}
		if err := putLen(buf, len(x), path); err != nil {
			return err
		}
		buf.WriteString(x)
	case KindBytes:
		x, ok := asBytes(v)
		if !ok {
			return invalidValue(path, t, v)
		}
		if err := putLen(buf, len(x), path); err != nil {
			return err
		}
		buf.Write(x)
	case KindFixedBytes:
		x, ok := asBytes(v)
		if !ok {
			return invalidValue(path, t, v)
		}
		if len(x) != t.Size {
			return errors.Wrapf(ErrInvalidValueForSchema, "%s: expected %d bytes, got %d", path, t.Size, len(x))
		}
		buf.Write(x)
	case KindOption:
		if t.Elem == nil {
			return errors.Wrapf(ErrInvalidSchema, "%s: option without element type", path)
		}
		if v == nil {
			buf.WriteByte(0)
			return nil
		}
		buf.WriteByte(1)
		return encodeType(buf, *t.Elem, v, path)
	case KindSequence:
		if t.Elem == nil {
			return errors.Wrapf(ErrInvalidSchema, "%s: sequence without element type", path)
		}
		if minSize(*t.Elem) == 0 {
			return errors.Wrapf(ErrInvalidSchema, "%s: sequence element encodes to zero bytes", path)
		}
		items, ok := v.([]any)
		if !ok {
			return invalidValue(path, t, v)
		}
		if err := putLen(buf, len(items), path); err != nil {
			return err
		}
		for i, item := range items {
			if err := encodeType(buf, *t.Elem, item, indexPath(path, i)); err != nil {
				return err
			}
		}
	case KindComposite:
		if t.Schema == nil {
			return errors.Wrapf(ErrInvalidSchema, "%s: composite without schema", path)
		}
		return encodeSchema(buf, t.Schema, v, path)
	default:
		return errors.Wrapf(ErrInvalidSchema, "%s: unsupported kind %d", path, t.Kind)
	}

	return nil
}

func putLen(buf *bytes.Buffer, n int, path string) error {
	if uint64(n) > math.MaxUint32 {
		return errors.Wrapf(ErrInvalidValueForSchema, "%s: length %d exceeds u32", path, n)
	}

	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	buf.Write(b[:])
	return nil
}

func putTag(buf *bytes.Buffer, width TagWidth, discriminant uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], discriminant)
	buf.Write(b[:width])
}

func asRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	}
	return nil, false
}

func asBytes(v any) ([]byte, bool) {
	switch t := v.(type) {
	case []byte:
		return t, true
	case ed25519.PublicKey:
		return t, true
	}
	return nil, false
}

func hasField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
