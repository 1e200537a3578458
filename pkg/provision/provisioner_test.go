package provision

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/ledger/memory"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/calculator"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/solana/tokens"
	"github.com/code-payments/program-client/pkg/testutil"
)

type testEnv struct {
	ctx         context.Context
	ledger      *memory.Ledger
	provisioner *Provisioner
	base        ed25519.PrivateKey
	program     ed25519.PublicKey
}

func setup(t *testing.T, overrides *testOverrides) *testEnv {
	env := &testEnv{
		ctx:     context.Background(),
		ledger:  memory.New(),
		base:    testutil.GenerateSolanaKeypair(t),
		program: testutil.GenerateSolanaKeys(t, 1)[0],
	}
	env.provisioner = New(env.ledger, withManualTestOverrides(overrides))

	_, err := env.ledger.RequestAirdrop(env.ctx, env.base.Public().(ed25519.PublicKey), solana.LamportsPerSol)
	require.NoError(t, err)

	return env
}

func (e *testEnv) request() *Request {
	return &Request{
		Base:    e.base,
		Seed:    "test1",
		Program: e.program,
		Size:    4,
	}
}

func TestEnsureAccount_Idempotent(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	address, err := req.Address()
	require.NoError(t, err)

	first, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, address, first.Address)
	assert.EqualValues(t, env.program, first.Owner)
	assert.EqualValues(t, 4, first.Size())
	assert.EqualValues(t, memory.RentExemptBalance(4), first.Lamports)
	require.Len(t, env.ledger.Submitted(), 1)

	second, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, env.ledger.Submitted(), 1)
}

func TestEnsureAccount_ConcurrentRequests(t *testing.T) {
	env := setup(t, &testOverrides{})

	address, err := env.request().Address()
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*ledger.AccountRecord, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.provisioner.EnsureAccount(env.ctx, env.request())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.EqualValues(t, address, results[i].Address)
	}
	assert.Len(t, env.ledger.Submitted(), 1)
}

func TestEnsureAccount_ExistingAccountNotValidated(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	address, err := req.Address()
	require.NoError(t, err)

	existing := &ledger.AccountRecord{
		Address:  address,
		Owner:    testutil.GenerateSolanaKeys(t, 1)[0],
		Lamports: 1,
		Data:     make([]byte, 1),
	}
	env.ledger.SetAccount(existing)

	record, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, existing, record)
	assert.Empty(t, env.ledger.Submitted())
}

func TestEnsureAccount_LostCreationRace(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	address, err := req.Address()
	require.NoError(t, err)

	winner := &ledger.AccountRecord{
		Address:  address,
		Owner:    env.program,
		Lamports: memory.RentExemptBalance(4),
		Data:     []byte{1, 2, 3, 4},
	}
	env.ledger.SetAccount(winner)
	env.ledger.HideAccount(address, 1)

	record, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, winner, record)

	// The losing creation was submitted and rejected
	assert.Len(t, env.ledger.Submitted(), 1)
}

func TestEnsureAccount_VerificationFailed(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	address, err := req.Address()
	require.NoError(t, err)

	env.ledger.HideAccount(address, 2)

	_, err = env.provisioner.EnsureAccount(env.ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvisioningVerificationFailed))

	var provisionErr *Error
	require.True(t, errors.As(err, &provisionErr))
	assert.Equal(t, StepVerify, provisionErr.Step)
	assert.EqualValues(t, address, provisionErr.Address)
	assert.Equal(t, "test1", provisionErr.Seed)
	assert.EqualValues(t, env.program, provisionErr.Program)

	// No retry was attempted
	assert.Len(t, env.ledger.Submitted(), 1)
}

func TestEnsureAccount_CreationRejected(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	req.Funding.Payer = testutil.GenerateSolanaKeypair(t)

	_, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreationRejected))

	var provisionErr *Error
	require.True(t, errors.As(err, &provisionErr))
	assert.Equal(t, StepCreate, provisionErr.Step)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, txErr.ErrorKey())
}

func TestEnsureAccount_OversizedAccount(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	req.Size = 1 << 62

	_, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreationRejected))

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	code, _, ok := txErr.CustomError()
	require.True(t, ok)
	assert.Equal(t, system.ErrInvalidAccountDataLength, code)
}

type failingLookupLedger struct {
	*memory.Ledger
}

func (l *failingLookupLedger) GetAccount(_ context.Context, _ ed25519.PublicKey) (*ledger.AccountRecord, error) {
	return nil, errors.New("node unavailable")
}

func TestEnsureAccount_LookupFailed(t *testing.T) {
	env := setup(t, &testOverrides{})
	provisioner := New(&failingLookupLedger{env.ledger}, withManualTestOverrides(&testOverrides{}))

	_, err := provisioner.EnsureAccount(env.ctx, env.request())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupFailed))
	assert.Contains(t, err.Error(), "node unavailable")
	assert.Empty(t, env.ledger.Submitted())
}

func TestEnsureAccount_Funding(t *testing.T) {
	env := setup(t, &testOverrides{defaultFundingLamports: 2_000_000})

	req := env.request()
	record, err := env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 2_000_000, record.Lamports)

	req = env.request()
	req.Seed = "test2"
	req.Funding.Lamports = 3_000_000
	record, err = env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 3_000_000, record.Lamports)

	payer := testutil.GenerateSolanaKeypair(t)
	_, err = env.ledger.RequestAirdrop(env.ctx, payer.Public().(ed25519.PublicKey), solana.LamportsPerSol)
	require.NoError(t, err)

	req = env.request()
	req.Seed = "test3"
	req.Funding.Payer = payer
	_, err = env.provisioner.EnsureAccount(env.ctx, req)
	require.NoError(t, err)

	balance, err := env.ledger.GetBalance(env.ctx, payer.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	assert.EqualValues(t, solana.LamportsPerSol-2_000_000-2*memory.LamportsPerSignature, balance)
}

func TestEnsureAccount_InvalidRequest(t *testing.T) {
	env := setup(t, &testOverrides{})

	req := env.request()
	req.Base = nil
	_, err := env.provisioner.EnsureAccount(env.ctx, req)
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	req = env.request()
	req.Seed = "this seed is much longer than thirty two bytes"
	_, err = env.provisioner.EnsureAccount(env.ctx, req)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.True(t, errors.Is(err, solana.ErrMaxSeedLengthExceeded))
}

func TestNewRequestForSchema(t *testing.T) {
	registry := borsh.NewRegistry()
	require.NoError(t, calculator.RegisterSchemas(registry))
	require.NoError(t, tokens.RegisterSchemas(registry))

	base := testutil.GenerateSolanaKeypair(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]

	req, err := NewRequestForSchema(registry, calculator.StateSchemaName, base, "test1", program)
	require.NoError(t, err)
	assert.EqualValues(t, 4, req.Size)
	assert.Equal(t, "test1", req.Seed)

	_, err = NewRequestForSchema(registry, tokens.TokenDataSchemaName, base, "test1", program)
	assert.True(t, errors.Is(err, borsh.ErrNotStaticallySized))

	_, err = NewRequestForSchema(registry, "unknown", base, "test1", program)
	assert.True(t, errors.Is(err, borsh.ErrUnknownSchema))
}
