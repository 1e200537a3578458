package provision

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidRequest                 = errors.New("invalid provisioning request")
	ErrLookupFailed                   = errors.New("account lookup failed")
	ErrCreationRejected               = errors.New("account creation rejected")
	ErrProvisioningVerificationFailed = errors.New("provisioned account is not visible")
)

// Step identifies where provisioning failed.
type Step string

const (
	StepDerive Step = "derive"
	StepLookup Step = "lookup"
	StepFund   Step = "fund"
	StepCreate Step = "create"
	StepVerify Step = "verify"
)

// Error describes a failed EnsureAccount call and the inputs involved. Err is
// one of the package's sentinel errors and Cause, when set, is the failure
// reported by the ledger.
type Error struct {
	Step    Step
	Address ed25519.PublicKey
	Seed    string
	Program ed25519.PublicKey

	Err   error
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf(
		"provision %s failed for seed %q (address=%s, program=%s): %v",
		e.Step,
		e.Seed,
		encodeKey(e.Address),
		encodeKey(e.Program),
		e.Err,
	)
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

func encodeKey(k ed25519.PublicKey) string {
	if len(k) == 0 {
		return "<none>"
	}
	return base58.Encode(k)
}
