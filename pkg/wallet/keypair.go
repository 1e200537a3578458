// Package wallet loads and creates the signing keys used by the client.
package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	ErrKeypairNotFound = errors.New("keypair file not found")
	ErrKeypairExists   = errors.New("keypair file already exists")
	ErrInvalidKeypair  = errors.New("invalid keypair file")
)

// ReadKeypairFile reads a keypair stored as the JSON byte array written by
// solana-keygen.
func ReadKeypairFile(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrKeypairNotFound, path)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, errors.Wrapf(ErrInvalidKeypair, "%s: %v", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypair, "%s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(ints))
	}

	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidKeypair, "%s: byte %d out of range", path, i)
		}
		key[i] = byte(v)
	}

	// The trailing half must be the public key of the seed.
	expected := ed25519.NewKeyFromSeed(key.Seed())
	if !expected.Equal(key) {
		return nil, errors.Wrapf(ErrInvalidKeypair, "%s: public key does not match seed", path)
	}

	return key, nil
}

// WriteKeypairFile writes key to path. Existing files are never overwritten.
func WriteKeypairFile(path string, key ed25519.PrivateKey) error {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}

	encoded, err := json.Marshal(ints)
	if err != nil {
		return errors.Wrap(err, "failed to encode keypair")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if os.IsExist(err) {
		return errors.Wrap(ErrKeypairExists, path)
	} else if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if _, err := f.Write(encoded); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Sync()
}
