// Package dispatch assembles program instructions and submits them to the
// ledger.
package dispatch

import (
	"context"
	"crypto/ed25519"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/computebudget"
	"github.com/code-payments/program-client/pkg/solana/memo"
)

// Build returns an instruction with the accounts in exactly the order given and
// payload as its data. Accounts are neither reordered nor deduplicated.
func Build(program ed25519.PublicKey, accounts []solana.AccountMeta, payload []byte) solana.Instruction {
	copied := make([]solana.AccountMeta, len(accounts))
	copy(copied, accounts)

	return solana.NewInstruction(program, payload, copied...)
}

// BuildEncoded encodes value with the named schema and builds the instruction.
// Statically sized schemas must encode to exactly their static size.
func BuildEncoded(registry *borsh.Registry, program ed25519.PublicKey, accounts []solana.AccountMeta, schemaName string, value any) (solana.Instruction, error) {
	schema, err := registry.Resolve(schemaName)
	if err != nil {
		return solana.Instruction{}, err
	}

	payload, err := borsh.Encode(schema, value)
	if err != nil {
		return solana.Instruction{}, errors.Wrapf(err, "failed to encode %s", schemaName)
	}

	if size, ok := borsh.SizeOf(schema); ok && size != len(payload) {
		return solana.Instruction{}, errors.Wrapf(ErrPayloadSizeMismatch, "%s: expected %d bytes, got %d", schemaName, size, len(payload))
	}

	return Build(program, accounts, payload), nil
}

type options struct {
	memo             string
	computeUnitPrice uint64
	computeUnitLimit uint32
}

// Option configures a single submission.
type Option func(*options)

// WithMemo appends a memo program instruction.
func WithMemo(memo string) Option {
	return func(o *options) {
		o.memo = memo
	}
}

// WithComputeUnitPrice prepends a compute budget instruction setting the
// priority fee, in micro-lamports per compute unit.
func WithComputeUnitPrice(microLamports uint64) Option {
	return func(o *options) {
		o.computeUnitPrice = microLamports
	}
}

// WithComputeUnitLimit prepends a compute budget instruction capping the
// transaction's compute units.
func WithComputeUnitLimit(units uint32) Option {
	return func(o *options) {
		o.computeUnitLimit = units
	}
}

// Result identifies a confirmed submission.
type Result struct {
	SubmissionID uuid.UUID
	Signature    solana.Signature
}

type Dispatcher struct {
	log       *logrus.Entry
	conf      *conf
	submitter ledger.Submitter
}

func New(submitter ledger.Submitter, configProvider ConfigProvider) *Dispatcher {
	return &Dispatcher{
		log:       logrus.StandardLogger().WithField("type", "dispatch/dispatcher"),
		conf:      configProvider(),
		submitter: submitter,
	}
}

// Submit submits the instructions as a single transaction paid for by the
// first signer. Every account flagged as a signer must have its private key
// in signers. Retries and confirmation are owned by the submitter.
func (d *Dispatcher) Submit(ctx context.Context, instructions []solana.Instruction, signers []ed25519.PrivateKey, opts ...Option) (*Result, error) {
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}
	if len(signers) == 0 {
		return nil, ErrNoSigners
	}

	o := &options{
		computeUnitPrice: d.conf.defaultComputeUnitPrice.Get(ctx),
	}
	for _, opt := range opts {
		opt(o)
	}

	program := instructions[0].Program
	submissionID := uuid.New()

	log := d.log.WithFields(logrus.Fields{
		"method":        "Submit",
		"program":       base58.Encode(program),
		"submission_id": submissionID.String(),
		"payer":         base58.Encode(signers[0].Public().(ed25519.PublicKey)),
	})

	if o.computeUnitLimit > computebudget.MaxComputeUnitLimit {
		return nil, errors.Wrapf(ErrComputeUnitLimit, "%d > %d", o.computeUnitLimit, computebudget.MaxComputeUnitLimit)
	}

	if err := checkSigners(instructions, signers); err != nil {
		log.WithError(err).Warn("invalid signers")
		return nil, err
	}

	if o.memo == "" && d.conf.attachSubmissionMemo.Get(ctx) {
		o.memo = "submission:" + submissionID.String()
	}
	if o.memo != "" {
		if err := memo.Validate(o.memo); err != nil {
			return nil, err
		}
	}

	var txnInstructions []solana.Instruction
	if o.computeUnitLimit > 0 {
		txnInstructions = append(txnInstructions, computebudget.SetComputeUnitLimit(o.computeUnitLimit))
	}
	if o.computeUnitPrice > 0 {
		txnInstructions = append(txnInstructions, computebudget.SetComputeUnitPrice(o.computeUnitPrice))
	}
	txnInstructions = append(txnInstructions, instructions...)
	if o.memo != "" {
		txnInstructions = append(txnInstructions, memo.Instruction(o.memo))
	}

	sig, err := d.submitter.SubmitAndConfirm(ctx, txnInstructions, signers...)
	if err != nil {
		log.WithError(err).Warn("submission failed")
		return nil, &Error{
			Program:      program,
			SubmissionID: submissionID,
			Err:          ErrSubmissionRejected,
			Cause:        err,
		}
	}

	log.WithField("signature", sig.String()).Debug("submission confirmed")

	return &Result{
		SubmissionID: submissionID,
		Signature:    sig,
	}, nil
}

func checkSigners(instructions []solana.Instruction, signers []ed25519.PrivateKey) error {
	available := make(map[string]struct{}, len(signers))
	for _, s := range signers {
		if len(s) != ed25519.PrivateKeySize {
			return errors.New("invalid signer key")
		}
		available[string(s.Public().(ed25519.PublicKey))] = struct{}{}
	}

	for i, ixn := range instructions {
		for _, signer := range ixn.Signers() {
			if _, ok := available[string(signer)]; !ok {
				return errors.Wrapf(ErrMissingSigner, "instruction %d: %s", i, base58.Encode(signer))
			}
		}
	}

	return nil
}
