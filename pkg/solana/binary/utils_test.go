package binary

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_RoundTrip(t *testing.T) {
	key := ed25519.PublicKey(bytes.Repeat([]byte{7}, ed25519.PublicKeySize))
	native := uint64(42)

	buf := make([]byte, 32+(4+32)+(4+32)+8+4+1+1+(4+8))

	var offset int
	PutKey32(buf[offset:], key, &offset)
	PutOptionalKey32(buf[offset:], key, &offset, 4)
	PutOptionalKey32(buf[offset:], nil, &offset, 4)
	PutUint64(buf[offset:], 1<<40, &offset)
	PutUint32(buf[offset:], 1<<20, &offset)
	PutUint8(buf[offset:], 9, &offset)
	PutBool(buf[offset:], true, &offset)
	PutOptionalUint64(buf[offset:], &native, &offset, 4)
	assert.Equal(t, len(buf), offset)

	var (
		actualKey      ed25519.PublicKey
		actualOptional ed25519.PublicKey
		actualAbsent   ed25519.PublicKey
		actualU64      uint64
		actualU32      uint32
		actualU8       uint8
		actualBool     bool
		actualNative   *uint64
	)

	offset = 0
	GetKey32(buf[offset:], &actualKey, &offset)
	GetOptionalKey32(buf[offset:], &actualOptional, &offset, 4)
	GetOptionalKey32(buf[offset:], &actualAbsent, &offset, 4)
	GetUint64(buf[offset:], &actualU64, &offset)
	GetUint32(buf[offset:], &actualU32, &offset)
	GetUint8(buf[offset:], &actualU8, &offset)
	GetBool(buf[offset:], &actualBool, &offset)
	GetOptionalUint64(buf[offset:], &actualNative, &offset, 4)
	assert.Equal(t, len(buf), offset)

	assert.Equal(t, key, actualKey)
	assert.Equal(t, key, actualOptional)
	assert.Nil(t, actualAbsent)
	assert.EqualValues(t, 1<<40, actualU64)
	assert.EqualValues(t, 1<<20, actualU32)
	assert.EqualValues(t, 9, actualU8)
	assert.True(t, actualBool)
	assert.Equal(t, native, *actualNative)
}
