package shortvec

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_AllLengths(t *testing.T) {
	buf := &bytes.Buffer{}
	for i := 0; i <= math.MaxUint16; i++ {
		buf.Reset()

		_, err := EncodeLen(buf, i)
		require.NoError(t, err)

		actual, err := DecodeLen(buf)
		require.NoError(t, err)
		require.Equal(t, i, actual)
		require.Zero(t, buf.Len())
	}
}

func TestEncodeLen_KnownValues(t *testing.T) {
	for _, tc := range []struct {
		val     int
		encoded []byte
	}{
		{0x0, []byte{0x00}},
		{0x5, []byte{0x05}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0x3fff, []byte{0xff, 0x7f}},
		{0x4000, []byte{0x80, 0x80, 0x01}},
		{0xffff, []byte{0xff, 0xff, 0x03}},
	} {
		buf := &bytes.Buffer{}
		n, err := EncodeLen(buf, tc.val)
		require.NoError(t, err)
		assert.Equal(t, len(tc.encoded), n)
		assert.Equal(t, tc.encoded, buf.Bytes())
	}
}

func TestEncodeLen_OutOfRange(t *testing.T) {
	for _, length := range []int{-1, math.MaxUint16 + 1} {
		buf := &bytes.Buffer{}
		_, err := EncodeLen(buf, length)
		assert.Error(t, err)
		assert.Zero(t, buf.Len())
	}
}

func TestDecodeLen_Invalid(t *testing.T) {
	for _, encoded := range [][]byte{
		{},
		{0x80},
		{0x80, 0x00},
		{0xff, 0xff, 0x04},
		{0x80, 0x80, 0x80, 0x01},
	} {
		_, err := DecodeLen(bytes.NewBuffer(encoded))
		assert.Error(t, err, "%x", encoded)
	}

	_, err := DecodeLen(bytes.NewBuffer([]byte{0x80, 0x00}))
	assert.ErrorIs(t, err, ErrNonCanonical)
}
