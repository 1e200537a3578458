// Package ledger defines the remote account ledger the client toolkit reads
// accounts from and submits transactions to.
package ledger

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/system"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrNoSigners            = errors.New("at least one signer is required")
	ErrNotConfirmed         = errors.New("transaction not confirmed")
)

// AccountRecord is a point in time view of an account held by the ledger.
type AccountRecord struct {
	Address    ed25519.PublicKey
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Size is the number of data bytes allocated to the account.
func (r *AccountRecord) Size() uint64 {
	return uint64(len(r.Data))
}

func (r *AccountRecord) Clone() *AccountRecord {
	return &AccountRecord{
		Address:    append(ed25519.PublicKey(nil), r.Address...),
		Owner:      append(ed25519.PublicKey(nil), r.Owner...),
		Lamports:   r.Lamports,
		Data:       append([]byte(nil), r.Data...),
		Executable: r.Executable,
	}
}

func (r *AccountRecord) String() string {
	return fmt.Sprintf("%s (owner=%s, lamports=%d, size=%d)", base58.Encode(r.Address), base58.Encode(r.Owner), r.Lamports, len(r.Data))
}

// Submitter atomically submits a set of instructions and waits for the
// ledger to confirm the outcome. The first signer pays the fee.
type Submitter interface {
	SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Signature, error)
}

type Ledger interface {
	Submitter

	// GetAccount returns ErrAccountNotFound if no account exists at address
	GetAccount(ctx context.Context, address ed25519.PublicKey) (*AccountRecord, error)

	// GetBalance returns the lamport balance of address, which is zero for
	// accounts that don't exist
	GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error)

	// GetMinimumBalanceForRentExemption returns the lamports an account of size
	// bytes must hold to be exempt from rent
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// RequestAirdrop funds address and waits for the transfer to confirm
	RequestAirdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) (solana.Signature, error)
}

// SubmissionError is returned when the ledger rejects or fails a transaction.
type SubmissionError struct {
	Signature solana.Signature
	Err       *solana.TransactionError

	accountInUse bool
}

// NewSubmissionError classifies a transaction failure. A system program
// "account already in use" failure matches ErrAccountAlreadyExists.
func NewSubmissionError(txn solana.Transaction, txErr *solana.TransactionError) *SubmissionError {
	e := &SubmissionError{
		Err: txErr,
	}
	if len(txn.Signatures) > 0 {
		e.Signature = txn.Signatures[0]
	}

	code, index, ok := txErr.CustomError()
	if ok && code == system.ErrAccountAlreadyInUse && system.IsSystemInstruction(txn.Message, index) {
		e.accountInUse = true
	}

	return e
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature.String(), e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrAccountAlreadyExists && e.accountInUse
}

// NewTransaction compiles and signs instructions, with the first signer as
// the fee payer.
func NewTransaction(blockhash solana.Blockhash, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Transaction, error) {
	if len(signers) == 0 {
		return solana.Transaction{}, ErrNoSigners
	}

	txn := solana.NewTransaction(signers[0].Public().(ed25519.PublicKey), instructions...)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(signers...); err != nil {
		return solana.Transaction{}, errors.Wrap(err, "failed to sign transaction")
	}

	for i, sig := range txn.Signatures {
		if sig == (solana.Signature{}) {
			return solana.Transaction{}, errors.Errorf("missing signature for %s", base58.Encode(txn.Message.Accounts[i]))
		}
	}

	return txn, nil
}
