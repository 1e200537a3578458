// Package transfersol builds instructions for the program that moves
// lamports between two wallets through a system program CPI.
package transfersol

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/system"
)

// Name is the program's deploy name.
const Name = "transfer_sol"

const TransferSchemaName = "transfer_sol.Transfer"

// TransferSchema is the instruction payload: the lamport amount as exactly 8
// little-endian bytes.
var TransferSchema = borsh.NewStruct(
	TransferSchemaName,
	borsh.NewField("amount", borsh.U64()),
)

// RegisterSchemas adds the transfer layout to r.
func RegisterSchemas(r *borsh.Registry) error {
	return r.Register(TransferSchema)
}

// Accounts returns the instruction's access list.
//
//	0. [WRITE, SIGNER] Payer
//	1. [WRITE] Payee
//	2. [] System program
func Accounts(payer, payee ed25519.PublicKey) []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(payee, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	}
}

// Transfer sends lamports from payer to payee.
func Transfer(program, payer, payee ed25519.PublicKey, lamports uint64) (solana.Instruction, error) {
	data, err := borsh.Encode(TransferSchema, borsh.Record{"amount": lamports})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to encode transfer")
	}

	return solana.NewInstruction(program, data, Accounts(payer, payee)...), nil
}

type DecompiledTransfer struct {
	Payer    ed25519.PublicKey
	Payee    ed25519.PublicKey
	Lamports uint64
}

// DecompileTransfer parses the transfer at index, which must target program.
func DecompileTransfer(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledTransfer, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !m.Accounts[i.ProgramIndex].Equal(program) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v, err := borsh.Decode(TransferSchema, i.Data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transfer data")
	}

	return &DecompiledTransfer{
		Payer:    m.Accounts[i.Accounts[0]],
		Payee:    m.Accounts[i.Accounts[1]],
		Lamports: v.(borsh.Record).Get("amount").(uint64),
	}, nil
}
