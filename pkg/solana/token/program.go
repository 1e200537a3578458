package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/program-client/pkg/solana"
)

// ProgramKey is the address of the token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// OwnedByProgram reports whether the account is owned by the token program.
func OwnedByProgram(info solana.AccountInfo) bool {
	return bytes.Equal(info.Owner, ProgramKey)
}
