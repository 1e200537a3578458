// Package provision idempotently creates the seeded accounts that program
// instructions operate on.
package provision

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/sync"
)

// Funding describes who pays for a new account and how much it is seeded
// with. A nil Payer means the base key pays. Zero Lamports means the
// configured default, or the rent exemption minimum if there is none.
type Funding struct {
	Payer    ed25519.PrivateKey
	Lamports uint64
}

// Request describes the account at CreateWithSeed(Base, Seed, Program).
type Request struct {
	Base    ed25519.PrivateKey
	Seed    string
	Program ed25519.PublicKey
	Size    uint64
	Funding Funding
}

// NewRequestForSchema sizes the request to the static size of the named
// schema.
func NewRequestForSchema(registry *borsh.Registry, schemaName string, base ed25519.PrivateKey, seed string, program ed25519.PublicKey) (*Request, error) {
	size, err := registry.SizeOf(schemaName)
	if err != nil {
		return nil, err
	}

	return &Request{
		Base:    base,
		Seed:    seed,
		Program: program,
		Size:    uint64(size),
	}, nil
}

func (r *Request) validate() error {
	if len(r.Base) != ed25519.PrivateKeySize {
		return errors.Wrap(ErrInvalidRequest, "base key is required")
	}
	if len(r.Program) != ed25519.PublicKeySize {
		return errors.Wrap(ErrInvalidRequest, "program id is required")
	}
	if len(r.Funding.Payer) != 0 && len(r.Funding.Payer) != ed25519.PrivateKeySize {
		return errors.Wrap(ErrInvalidRequest, "invalid payer key")
	}
	return nil
}

func (r *Request) basePublicKey() ed25519.PublicKey {
	return r.Base.Public().(ed25519.PublicKey)
}

func (r *Request) payer() ed25519.PrivateKey {
	if len(r.Funding.Payer) > 0 {
		return r.Funding.Payer
	}
	return r.Base
}

// Address returns the seeded address the request provisions.
func (r *Request) Address() (ed25519.PublicKey, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return solana.CreateWithSeed(r.basePublicKey(), r.Seed, r.Program)
}

type Provisioner struct {
	log    *logrus.Entry
	conf   *conf
	ledger ledger.Ledger

	// Concurrent requests for the same address within this process wait on
	// each other instead of racing on the ledger.
	addressLocks *sync.StripedLock
}

func New(l ledger.Ledger, configProvider ConfigProvider) *Provisioner {
	return &Provisioner{
		log:          logrus.StandardLogger().WithField("type", "provision/provisioner"),
		conf:         configProvider(),
		ledger:       l,
		addressLocks: sync.NewStripedLock(64),
	}
}

// EnsureAccount returns the account at the request's seeded address, creating
// it first if the ledger doesn't have it. An existing account is returned
// as-is, regardless of its size or owner.
//
// Losing a creation race to another client is not an error: the winner's
// account is returned.
func (p *Provisioner) EnsureAccount(ctx context.Context, req *Request) (*ledger.AccountRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	log := p.log.WithFields(logrus.Fields{
		"method":  "EnsureAccount",
		"base":    base58.Encode(req.basePublicKey()),
		"seed":    req.Seed,
		"program": base58.Encode(req.Program),
		"size":    req.Size,
	})

	newError := func(step Step, address ed25519.PublicKey, sentinel, cause error) error {
		return &Error{
			Step:    step,
			Address: address,
			Seed:    req.Seed,
			Program: req.Program,
			Err:     sentinel,
			Cause:   cause,
		}
	}

	address, err := solana.CreateWithSeed(req.basePublicKey(), req.Seed, req.Program)
	if err != nil {
		return nil, newError(StepDerive, nil, ErrInvalidRequest, err)
	}
	log = log.WithField("address", base58.Encode(address))

	unlock := p.addressLocks.Lock(address)
	defer unlock()

	record, err := p.ledger.GetAccount(ctx, address)
	switch {
	case err == nil:
		log.Debug("account already exists")
		return record, nil
	case !errors.Is(err, ledger.ErrAccountNotFound):
		log.WithError(err).Warn("failed to lookup account")
		return nil, newError(StepLookup, address, ErrLookupFailed, err)
	}

	lamports, err := p.fundingLamports(ctx, req)
	if err != nil {
		log.WithError(err).Warn("failed to determine funding")
		return nil, newError(StepFund, address, ErrLookupFailed, err)
	}

	payer := req.payer()
	signers := []ed25519.PrivateKey{payer}
	if !payer.Equal(req.Base) {
		signers = append(signers, req.Base)
	}

	create := system.CreateAccountWithSeed(
		payer.Public().(ed25519.PublicKey),
		address,
		req.basePublicKey(),
		req.Seed,
		lamports,
		req.Size,
		req.Program,
	)

	sig, err := p.ledger.SubmitAndConfirm(ctx, []solana.Instruction{create}, signers...)
	switch {
	case err == nil:
		log.WithField("signature", sig.String()).Info("account created")
	case errors.Is(err, ledger.ErrAccountAlreadyExists):
		log.Info("account was created concurrently")
	default:
		log.WithError(err).Warn("account creation rejected")
		return nil, newError(StepCreate, address, ErrCreationRejected, err)
	}

	record, err = p.ledger.GetAccount(ctx, address)
	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, ledger.ErrAccountNotFound):
		log.Warn("created account is not visible")
		return nil, newError(StepVerify, address, ErrProvisioningVerificationFailed, nil)
	default:
		log.WithError(err).Warn("failed to lookup created account")
		return nil, newError(StepVerify, address, ErrLookupFailed, err)
	}
}

func (p *Provisioner) fundingLamports(ctx context.Context, req *Request) (uint64, error) {
	if req.Funding.Lamports > 0 {
		return req.Funding.Lamports, nil
	}

	if lamports := p.conf.defaultFundingLamports.Get(ctx); lamports > 0 {
		return lamports, nil
	}

	return p.ledger.GetMinimumBalanceForRentExemption(ctx, req.Size)
}
