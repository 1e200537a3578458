package workflow

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/ledger/memory"
	"github.com/code-payments/program-client/pkg/ledger/memory/simulated"
	"github.com/code-payments/program-client/pkg/programs"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/calculator"
	"github.com/code-payments/program-client/pkg/solana/hello"
	"github.com/code-payments/program-client/pkg/solana/token"
	"github.com/code-payments/program-client/pkg/solana/tokens"
	"github.com/code-payments/program-client/pkg/solana/transfersol"
	"github.com/code-payments/program-client/pkg/testutil"
	"github.com/code-payments/program-client/pkg/wallet"
)

type testEnv struct {
	ctx    context.Context
	ledger *memory.Ledger
	env    *Env
	ids    programs.StaticRegistry
	local  ed25519.PrivateKey
}

func setup(t *testing.T) *testEnv {
	ctx := context.Background()
	l := memory.New()

	ids := programs.StaticRegistry{}
	for _, name := range []string{hello.Name, calculator.Name, transfersol.Name, tokens.Name} {
		ids[name] = testutil.GenerateSolanaKeys(t, 1)[0]
	}
	simulated.Register(l, ids)

	keys := wallet.NewDirKeySource(t.TempDir())
	env, err := NewEnv(l, l, keys, ids)
	require.NoError(t, err)

	local, err := keys.Local(ctx)
	require.NoError(t, err)

	return &testEnv{
		ctx:    ctx,
		ledger: l,
		env:    env,
		ids:    ids,
		local:  local,
	}
}

func (e *testEnv) fundLocal(t *testing.T) {
	_, err := e.ledger.RequestAirdrop(e.ctx, e.local.Public().(ed25519.PublicKey), 2*solana.LamportsPerSol)
	require.NoError(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"calculator", "hello_solana", "tokens", "transfer_sol"}, Names())
}

func TestRun_UnknownWorkflow(t *testing.T) {
	env := setup(t)

	err := Run(env.ctx, "vanilla", env.env)
	assert.True(t, errors.Is(err, ErrUnknownWorkflow))
	assert.Contains(t, err.Error(), "calculator, hello_solana, tokens, transfer_sol")
}

func TestRun_MissingProgram(t *testing.T) {
	env := setup(t)
	delete(env.ids, calculator.Name)

	err := Run(env.ctx, calculator.Name, env.env)
	assert.True(t, errors.Is(err, programs.ErrProgramNotFound))
}

func TestHello(t *testing.T) {
	env := setup(t)

	result, err := RunHello(env.ctx, env.env)
	require.NoError(t, err)
	assert.EqualValues(t, env.local.Public(), result.Account)

	balance, err := env.ledger.GetBalance(env.ctx, result.Account)
	require.NoError(t, err)
	assert.EqualValues(t, wallet.DefaultAirdropLamports-memory.LamportsPerSignature, balance)

	submitted := env.ledger.Submitted()
	require.Len(t, submitted, 1)
	assert.EqualValues(t, result.Signature, submitted[0].Signatures[0])
}

func TestCalculator(t *testing.T) {
	env := setup(t)
	env.fundLocal(t)

	result, err := RunCalculator(env.ctx, env.env)
	require.NoError(t, err)
	assert.EqualValues(t, 0, result.Before)
	assert.EqualValues(t, -3, result.After)

	expected, err := solana.CreateWithSeed(env.local.Public().(ed25519.PublicKey), CalculatorSeed, env.ids[calculator.Name])
	require.NoError(t, err)
	assert.EqualValues(t, expected, result.Account)

	account, err := env.ledger.GetAccount(env.ctx, result.Account)
	require.NoError(t, err)
	assert.EqualValues(t, solana.LamportsPerSol, account.Lamports)
	assert.EqualValues(t, calculator.Size(), account.Size())
	assert.EqualValues(t, env.ids[calculator.Name], account.Owner)

	// A second run reuses the provisioned account.
	result, err = RunCalculator(env.ctx, env.env)
	require.NoError(t, err)
	assert.EqualValues(t, -3, result.Before)
	assert.EqualValues(t, -6, result.After)
}

func TestCalculator_Unfunded(t *testing.T) {
	env := setup(t)

	_, err := RunCalculator(env.ctx, env.env)
	assert.Error(t, err)
}

func TestTransferSol(t *testing.T) {
	env := setup(t)

	result, err := RunTransferSol(env.ctx, env.env)
	require.NoError(t, err)
	assert.Len(t, result.Signatures, len(Transfers))

	const fee = memory.LamportsPerSignature
	for name, expected := range map[string]struct {
		initial uint64
		final   uint64
	}{
		"don ramon":    {2 * solana.LamportsPerSol, 499_990_000},
		"dr. chatuba":  {0, 299_995_000},
		"gloria":       {2 * solana.LamportsPerSol, 2_400_000_000 - 2*fee},
		"don santiago": {0, 800_000_000},
	} {
		balance := result.Balances[name]
		require.NotNil(t, balance, name)
		assert.Equal(t, expected.initial, balance.Initial, name)
		assert.Equal(t, expected.final, balance.Final, name)
		assert.EqualValues(t, wallet.DeriveNamedKey(name).Public(), balance.Address, name)
	}

	assert.Equal(t, "-1.5000", solana.FormatSol(result.Balances["don ramon"].Diff()))
	assert.Equal(t, "0.8000", solana.FormatSol(result.Balances["don santiago"].Diff()))
}

func TestTransferSol_InsufficientFunds(t *testing.T) {
	env := setup(t)
	env.ledger.RegisterProgram(env.ids[transfersol.Name], func(accounts []*memory.Account, data []byte) error {
		return simulated.ErrInsufficientFunds
	})

	_, err := RunTransferSol(env.ctx, env.env)
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	code, index, ok := txErr.CustomError()
	require.True(t, ok)
	assert.Equal(t, simulated.ErrInsufficientFunds, code)
	assert.Equal(t, 0, index)
}

func TestTokens(t *testing.T) {
	env := setup(t)
	env.fundLocal(t)

	minted, err := RunTokens(env.ctx, env.env)
	require.NoError(t, err)
	require.Len(t, minted, len(TokensToMint))

	authority := env.local.Public().(ed25519.PublicKey)
	for i, m := range minted {
		kind := TokensToMint[i].Kind()
		assert.Equal(t, kind, m.Data.Kind())

		assert.EqualValues(t, authority, m.Mint.MintAuthority)
		assert.Equal(t, TokensToMint[i].Amount(), m.Mint.Supply)
		assert.Equal(t, TokensToMint[i].Decimals(), m.Mint.Decimals)

		assert.EqualValues(t, m.Addresses.Mint, m.Account.Mint)
		assert.EqualValues(t, authority, m.Account.Owner)
		assert.Equal(t, TokensToMint[i].Amount(), m.Account.Amount)
		assert.Equal(t, token.AccountStateFrozen, m.Account.State)

		metadataAccount, err := env.ledger.GetAccount(env.ctx, m.Addresses.Metadata)
		require.NoError(t, err)
		decoded, err := tokens.DecodeData(metadataAccount.Data)
		require.NoError(t, err)
		assert.Equal(t, TokensToMint[i], decoded)

		if kind == tokens.KindNonFungible {
			assert.NotEmpty(t, m.Addresses.MasterEdition)
			_, err := env.ledger.GetAccount(env.ctx, m.Addresses.MasterEdition)
			assert.NoError(t, err)
		} else {
			assert.Empty(t, m.Addresses.MasterEdition)
		}
	}
}

func TestRun(t *testing.T) {
	env := setup(t)
	env.fundLocal(t)

	for _, name := range Names() {
		assert.NoError(t, Run(env.ctx, name, env.env), name)
	}
}
