package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/system"
)

var (
	errInvalidInstructionData   = errors.New(string(solana.InstructionErrorInvalidInstructionData))
	errMissingRequiredSignature = errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	errInvalidAccountOwner      = errors.New(string(solana.InstructionErrorIncorrectProgramID))
)

// executeSystem runs the subset of the system program used by the client:
// CreateAccount, CreateAccountWithSeed and Transfer.
func executeSystem(ws *workingSet, m solana.Message, index int) error {
	ix := m.Instructions[index]

	if v, err := system.DecompileCreateAccount(m, index); err == nil {
		if !isSigner(m, int(ix.Accounts[0])) || !isSigner(m, int(ix.Accounts[1])) {
			return errMissingRequiredSignature
		}
		return createAccount(ws, v.Funder, v.Address, v.Owner, v.Lamports, v.Size)
	} else if err != solana.ErrIncorrectInstruction {
		return errInvalidInstructionData
	}

	if v, err := system.DecompileCreateAccountWithSeed(m, index); err == nil {
		if !isSigner(m, int(ix.Accounts[0])) {
			return errMissingRequiredSignature
		}
		if len(ix.Accounts) == 3 && !isSigner(m, int(ix.Accounts[2])) {
			return errMissingRequiredSignature
		}
		if len(ix.Accounts) == 2 && !bytes.Equal(v.Base, v.Funder) {
			return errMissingRequiredSignature
		}

		expected, err := solana.CreateWithSeed(v.Base, v.Seed, v.Owner)
		if err != nil {
			return system.ErrMaxSeedLengthExceeded
		}
		if !bytes.Equal(expected, v.Address) {
			return system.ErrAddressWithSeedMismatch
		}

		return createAccount(ws, v.Funder, v.Address, v.Owner, v.Lamports, v.Size)
	} else if err != solana.ErrIncorrectInstruction {
		return errInvalidInstructionData
	}

	if v, err := system.DecompileTransfer(m, index); err == nil {
		if !isSigner(m, int(ix.Accounts[0])) {
			return errMissingRequiredSignature
		}

		from := ws.get(v.From)
		if !bytes.Equal(from.Owner, system.ProgramKey[:]) || len(from.Data) > 0 {
			return errInvalidAccountOwner
		}
		if from.Lamports < v.Lamports {
			return system.ErrResultWithNegativeLamports
		}

		to := ws.get(v.To)
		from.Lamports -= v.Lamports
		to.Lamports += v.Lamports
		return nil
	} else if err != solana.ErrIncorrectInstruction {
		return errInvalidInstructionData
	}

	return errInvalidInstructionData
}

func createAccount(ws *workingSet, funder, address, owner ed25519.PublicKey, lamports, size uint64) error {
	to := ws.get(address)
	if inUse(to) {
		return system.ErrAccountAlreadyInUse
	}

	if size > system.MaxPermittedDataLength {
		return system.ErrInvalidAccountDataLength
	}

	from := ws.get(funder)
	if from.Lamports < lamports {
		return system.ErrResultWithNegativeLamports
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	to.Data = make([]byte, size)
	to.Owner = append(ed25519.PublicKey(nil), owner...)
	return nil
}

func inUse(record *ledger.AccountRecord) bool {
	return record.Lamports > 0 || len(record.Data) > 0 || !bytes.Equal(record.Owner, system.ProgramKey[:])
}
