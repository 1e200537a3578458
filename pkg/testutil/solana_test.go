package testutil

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteKeypairFile(t *testing.T) {
	dir := t.TempDir()
	key := WriteKeypairFile(t, dir, "calculator-keypair.json")

	raw, err := os.ReadFile(filepath.Join(dir, "calculator-keypair.json"))
	require.NoError(t, err)

	var ints []int
	require.NoError(t, json.Unmarshal(raw, &ints))
	require.Len(t, ints, ed25519.PrivateKeySize)
	for i, v := range ints {
		assert.EqualValues(t, key[i], v)
	}
}

func TestGenerateSolanaKeys(t *testing.T) {
	keys := GenerateSolanaKeys(t, 3)
	require.Len(t, keys, 3)
	assert.NotEqual(t, keys[0], keys[1])
}
