package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/memo"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/testutil"
)

const airdropLamports = solana.LamportsPerSol

func RunTests(t *testing.T, l ledger.Ledger, teardown func()) {
	for _, tf := range []func(t *testing.T, l ledger.Ledger){
		testAccountNotFound,
		testAirdropAndTransfer,
		testCreateAccountWithSeed,
		testCreateAccountAlreadyInUse,
		testFailedTransactionIsAtomic,
	} {
		tf(t, l)
		teardown()
	}
}

func fundedKeypair(t *testing.T, l ledger.Ledger) ed25519.PrivateKey {
	key := testutil.GenerateSolanaKeypair(t)
	_, err := l.RequestAirdrop(context.Background(), key.Public().(ed25519.PublicKey), airdropLamports)
	require.NoError(t, err)
	return key
}

func testAccountNotFound(t *testing.T, l ledger.Ledger) {
	t.Run("testAccountNotFound", func(t *testing.T) {
		ctx := context.Background()
		address := testutil.GenerateSolanaKeys(t, 1)[0]

		_, err := l.GetAccount(ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		balance, err := l.GetBalance(ctx, address)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})
}

func testAirdropAndTransfer(t *testing.T, l ledger.Ledger) {
	t.Run("testAirdropAndTransfer", func(t *testing.T) {
		ctx := context.Background()
		payer := fundedKeypair(t, l)
		payerKey := payer.Public().(ed25519.PublicKey)
		payee := testutil.GenerateSolanaKeys(t, 1)[0]

		record, err := l.GetAccount(ctx, payerKey)
		require.NoError(t, err)
		assert.EqualValues(t, airdropLamports, record.Lamports)
		assert.EqualValues(t, system.ProgramKey[:], record.Owner)

		amount := uint64(solana.LamportsPerSol / 100)
		_, err = l.SubmitAndConfirm(ctx, []solana.Instruction{
			system.Transfer(payerKey, payee, amount),
			memo.Instruction("transfer"),
		}, payer)
		require.NoError(t, err)

		balance, err := l.GetBalance(ctx, payee)
		require.NoError(t, err)
		assert.EqualValues(t, amount, balance)

		balance, err = l.GetBalance(ctx, payerKey)
		require.NoError(t, err)
		assert.True(t, balance < airdropLamports-amount)
	})
}

func testCreateAccountWithSeed(t *testing.T, l ledger.Ledger) {
	t.Run("testCreateAccountWithSeed", func(t *testing.T) {
		ctx := context.Background()
		base := fundedKeypair(t, l)
		baseKey := base.Public().(ed25519.PublicKey)
		owner := testutil.GenerateSolanaKeys(t, 1)[0]

		address, err := solana.CreateWithSeed(baseKey, "test1", owner)
		require.NoError(t, err)

		rent, err := l.GetMinimumBalanceForRentExemption(ctx, 4)
		require.NoError(t, err)
		require.True(t, rent > 0)

		_, err = l.SubmitAndConfirm(ctx, []solana.Instruction{
			system.CreateAccountWithSeed(baseKey, address, baseKey, "test1", rent, 4, owner),
		}, base)
		require.NoError(t, err)

		record, err := l.GetAccount(ctx, address)
		require.NoError(t, err)
		assert.EqualValues(t, owner, record.Owner)
		assert.EqualValues(t, rent, record.Lamports)
		assert.EqualValues(t, 4, record.Size())
		assert.Equal(t, make([]byte, 4), record.Data)
	})
}

func testCreateAccountAlreadyInUse(t *testing.T, l ledger.Ledger) {
	t.Run("testCreateAccountAlreadyInUse", func(t *testing.T) {
		ctx := context.Background()
		base := fundedKeypair(t, l)
		baseKey := base.Public().(ed25519.PublicKey)
		owner := testutil.GenerateSolanaKeys(t, 1)[0]

		address, err := solana.CreateWithSeed(baseKey, "taken", owner)
		require.NoError(t, err)

		rent, err := l.GetMinimumBalanceForRentExemption(ctx, 8)
		require.NoError(t, err)

		create := system.CreateAccountWithSeed(baseKey, address, baseKey, "taken", rent, 8, owner)
		_, err = l.SubmitAndConfirm(ctx, []solana.Instruction{create}, base)
		require.NoError(t, err)

		_, err = l.SubmitAndConfirm(ctx, []solana.Instruction{memo.Instruction("again"), create}, base)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrAccountAlreadyExists))

		var txErr *solana.TransactionError
		require.True(t, errors.As(err, &txErr))
		code, index, ok := txErr.CustomError()
		require.True(t, ok)
		assert.Equal(t, system.ErrAccountAlreadyInUse, code)
		assert.Equal(t, 1, index)
	})
}

func testFailedTransactionIsAtomic(t *testing.T, l ledger.Ledger) {
	t.Run("testFailedTransactionIsAtomic", func(t *testing.T) {
		ctx := context.Background()
		payer := fundedKeypair(t, l)
		payerKey := payer.Public().(ed25519.PublicKey)
		payees := testutil.GenerateSolanaKeys(t, 2)

		amount := uint64(solana.LamportsPerSol / 100)
		_, err := l.SubmitAndConfirm(ctx, []solana.Instruction{
			system.Transfer(payerKey, payees[0], amount),
			system.Transfer(payerKey, payees[1], 2*airdropLamports),
		}, payer)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ledger.ErrAccountAlreadyExists))

		balance, err := l.GetBalance(ctx, payees[0])
		require.NoError(t, err)
		assert.Zero(t, balance)
	})
}
