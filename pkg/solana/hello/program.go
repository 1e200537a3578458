// Package hello builds the ping instruction of the hello_solana program.
package hello

import (
	"crypto/ed25519"

	"github.com/code-payments/program-client/pkg/solana"
)

// Name is the program's deploy name.
const Name = "hello_solana"

// Ping returns an instruction with no payload. The program only logs the
// call, so account needs to be writable but does not sign.
func Ping(program, account ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		program,
		[]byte{},
		solana.NewAccountMeta(account, false),
	)
}
