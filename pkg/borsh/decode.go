package borsh

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Decode parses data as a single value of s. The entire buffer must be
// consumed.
//
// A statically sized schema whose size differs from len(data) fails with
// ErrLengthMismatch before any parsing takes place. Running out of bytes
// mid-value fails with ErrTruncatedBuffer and leftover bytes after a complete
// value fail with ErrLengthMismatch.
func Decode(s *Schema, data []byte) (any, error) {
	if s == nil {
		return nil, errors.Wrap(ErrInvalidSchema, "nil schema")
	}

	if size, ok := SizeOf(s); ok && size != len(data) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%s: expected %d bytes, got %d", s.Name, size, len(data))
	}

	v, n, err := DecodePrefix(s, data)
	if err != nil {
		return nil, err
	}

	if n != len(data) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%s: %d trailing bytes", s.Name, len(data)-n)
	}
	return v, nil
}

// DecodePrefix parses a single value of s from the start of data, returning
// the value and the number of bytes consumed. Trailing bytes are ignored.
func DecodePrefix(s *Schema, data []byte) (any, int, error) {
	if s == nil {
		return nil, 0, errors.Wrap(ErrInvalidSchema, "nil schema")
	}

	r := &reader{data: data}
	v, err := r.schema(s, s.Name)
	if err != nil {
		return nil, 0, err
	}
	return v, r.offset, nil
}

type reader struct {
	data   []byte
	offset int
}

func (r *reader) take(n int, path string) ([]byte, error) {
	remaining := len(r.data) - r.offset
	if n < 0 || n > remaining {
		return nil, errors.Wrapf(ErrTruncatedBuffer, "%s: need %d bytes at offset %d, have %d", path, n, r.offset, remaining)
	}

	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *reader) uint32(path string) (uint32, error) {
	b, err := r.take(4, path)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) tag(width TagWidth, path string) (uint32, error) {
	b, err := r.take(int(width), path)
	if err != nil {
		return 0, err
	}

	var padded [4]byte
	copy(padded[:], b)
	return binary.LittleEndian.Uint32(padded[:]), nil
}

func (r *reader) schema(s *Schema, path string) (any, error) {
	if !s.IsUnion() {
		return r.fields(s.Fields, path)
	}

	discriminant, err := r.tag(s.tagWidth(), path)
	if err != nil {
		return nil, err
	}

	variant, ok := s.Variant(discriminant)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownVariant, "%s: discriminant %d", path, discriminant)
	}

	fields, err := r.fields(variant.Fields, joinPath(path, variant.Name))
	if err != nil {
		return nil, err
	}

	return Enum{
		Discriminant: discriminant,
		Fields:       fields,
	}, nil
}

func (r *reader) fields(fields []Field, path string) (Record, error) {
	rec := make(Record, len(fields))
	for _, f := range fields {
		v, err := r.value(f.Type, joinPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func (r *reader) value(t Type, path string) (any, error) {
	switch t.Kind {
	case KindU8, KindI8, KindBool:
		b, err := r.take(1, path)
		if err != nil {
			return nil, err
		}

		switch t.Kind {
		case KindU8:
			return b[0], nil
		case KindI8:
			return int8(b[0]), nil
		}

		switch b[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, errors.Wrapf(ErrInvalidBoolEncoding, "%s: byte 0x%02x", path, b[0])
	case KindU16, KindI16:
		b, err := r.take(2, path)
		if err != nil {
			return nil, err
		}
		x := binary.LittleEndian.Uint16(b)
		if t.Kind == KindI16 {
			return int16(x), nil
		}
		return x, nil
	case KindU32, KindI32, KindF32:
		b, err := r.take(4, path)
		if err != nil {
			return nil, err
		}
		x := binary.LittleEndian.Uint32(b)
		switch t.Kind {
		case KindI32:
			return int32(x), nil
		case KindF32:
			f := math.Float32frombits(x)
			if math.IsNaN(float64(f)) {
				return nil, errors.Wrapf(ErrInvalidFloatEncoding, "%s: NaN", path)
			}
			return f, nil
		}
		return x, nil
	case KindU64, KindI64, KindF64:
		b, err := r.take(8, path)
		if err != nil {
			return nil, err
		}
		x := binary.LittleEndian.Uint64(b)
		switch t.Kind {
		case KindI64:
			return int64(x), nil
		case KindF64:
			f := math.Float64frombits(x)
			if math.IsNaN(f) {
				return nil, errors.Wrapf(ErrInvalidFloatEncoding, "%s: NaN", path)
			}
			return f, nil
		}
		return x, nil
	case KindString:
		n, err := r.uint32(path)
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n), path)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, errors.Wrapf(ErrInvalidUTF8, "%s", path)
		}
		return string(b), nil
	case KindBytes:
		n, err := r.uint32(path)
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n), path)
		if err != nil {
			return nil, err
		}
		return cloneBytes(b), nil
	case KindFixedBytes:
		b, err := r.take(t.Size, path)
		if err != nil {
			return nil, err
		}
		return cloneBytes(b), nil
	case KindOption:
		if t.Elem == nil {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s: option without element type", path)
		}
		b, err := r.take(1, path)
		if err != nil {
			return nil, err
		}
		switch b[0] {
		case 0:
			return nil, nil
		case 1:
			return r.value(*t.Elem, path)
		}
		return nil, errors.Wrapf(ErrInvalidOptionEncoding, "%s: flag 0x%02x", path, b[0])
	case KindSequence:
		if t.Elem == nil {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s: sequence without element type", path)
		}
		n, err := r.uint32(path)
		if err != nil {
			return nil, err
		}

		elemSize := minSize(*t.Elem)
		if elemSize == 0 {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s: sequence element encodes to zero bytes", path)
		}
		if remaining := len(r.data) - r.offset; uint64(n)*uint64(elemSize) > uint64(remaining) {
			return nil, errors.Wrapf(ErrTruncatedBuffer, "%s: %d elements need at least %d bytes, have %d", path, n, uint64(n)*uint64(elemSize), remaining)
		}

		items := make([]any, 0, n)
		for i := 0; i < int(n); i++ {
			item, err := r.value(*t.Elem, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case KindComposite:
		if t.Schema == nil {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s: composite without schema", path)
		}
		return r.schema(t.Schema, path)
	}

	return nil, errors.Wrapf(ErrInvalidSchema, "%s: unsupported kind %d", path, t.Kind)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
