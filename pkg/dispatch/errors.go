package dispatch

import (
	"crypto/ed25519"
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrNoInstructions      = errors.New("no instructions to submit")
	ErrNoSigners           = errors.New("at least one signer is required")
	ErrMissingSigner       = errors.New("signer has no private key")
	ErrPayloadSizeMismatch = errors.New("encoded payload size does not match schema")
	ErrComputeUnitLimit    = errors.New("compute unit limit exceeds the transaction maximum")
	ErrSubmissionRejected  = errors.New("submission rejected")
)

// Error is returned when the ledger rejects or fails a submission. Cause holds
// the ledger's failure, which wraps the remote *solana.TransactionError when
// the transaction reached the ledger.
type Error struct {
	Program      ed25519.PublicKey
	SubmissionID uuid.UUID

	Err   error
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("submission %s to %s failed: %v", e.SubmissionID, base58.Encode(e.Program), e.Err)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
