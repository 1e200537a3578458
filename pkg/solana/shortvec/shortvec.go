// Package shortvec implements the compact-u16 length encoding used for the
// array prefixes of a transaction message.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxEncodedLen is the largest number of bytes a compact-u16 value occupies.
const MaxEncodedLen = 3

// ErrNonCanonical is returned when a length is encoded with redundant bytes.
var ErrNonCanonical = errors.New("non-canonical compact-u16 encoding")

// EncodeLen writes length as a compact-u16 and returns the number of bytes
// written. Lengths above math.MaxUint16 are rejected.
func EncodeLen(w io.ByteWriter, length int) (int, error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Errorf("length %d outside of [0, %d]", length, math.MaxUint16)
	}

	var n int
	for {
		b := byte(length & 0x7f)
		length >>= 7
		if length != 0 {
			b |= 0x80
		}

		if err := w.WriteByte(b); err != nil {
			return n, err
		}
		n++

		if length == 0 {
			return n, nil
		}
	}
}

// DecodeLen reads a compact-u16 length.
func DecodeLen(r io.ByteReader) (int, error) {
	var length int
	for i := 0; i < MaxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		length |= int(b&0x7f) << (7 * i)
		if b&0x80 != 0 {
			continue
		}

		if i > 0 && b == 0 {
			return 0, ErrNonCanonical
		}
		if length > math.MaxUint16 {
			return 0, errors.Errorf("length %d exceeds %d", length, math.MaxUint16)
		}
		return length, nil
	}

	return 0, errors.Errorf("compact-u16 longer than %d bytes", MaxEncodedLen)
}
