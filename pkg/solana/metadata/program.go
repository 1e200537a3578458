// Package metadata derives the accounts owned by the token metadata program.
package metadata

import (
	"crypto/ed25519"

	"github.com/code-payments/program-client/pkg/solana"
)

// ProgramKey is the address of the token metadata program.
//
// Current key: metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bEQ8zLYt
var ProgramKey = ed25519.PublicKey{11, 112, 101, 177, 227, 209, 124, 69, 56, 157, 82, 127, 107, 4, 195, 205, 88, 184, 108, 115, 26, 160, 253, 181, 73, 182, 208, 110, 31, 227, 59, 221}

var (
	metadataPrefix = []byte("metadata")
	editionSuffix  = []byte("edition")
)

// GetMetadataAddress returns the metadata account of mint.
//
// Seeds: ["metadata", program, mint]
func GetMetadataAddress(mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		metadataPrefix,
		ProgramKey,
		mint,
	)
}

// GetMasterEditionAddress returns the master edition account of a
// non-fungible mint.
//
// Seeds: ["metadata", program, mint, "edition"]
func GetMasterEditionAddress(mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		metadataPrefix,
		ProgramKey,
		mint,
		editionSuffix,
	)
}
