package token

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/solana"
)

type accountInfoClient struct {
	solana.Client

	accounts map[string]solana.AccountInfo
	err      error
}

func (c *accountInfoClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	if c.err != nil {
		return solana.AccountInfo{}, c.err
	}

	info, ok := c.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func TestClient_GetAccount(t *testing.T) {
	keys := generateKeys(t, 4)

	account := Account{
		Mint:   keys[1],
		Owner:  keys[2],
		Amount: 1000,
		State:  AccountStateFrozen,
	}

	sc := &accountInfoClient{
		accounts: map[string]solana.AccountInfo{
			string(keys[0]): {Owner: ProgramKey, Data: account.Marshal()},
			string(keys[3]): {Owner: keys[3], Data: account.Marshal()},
		},
	}
	client := NewClient(sc)

	actual, err := client.GetAccount(keys[0], solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, account.Mint, actual.Mint)
	assert.Equal(t, account.Owner, actual.Owner)
	assert.EqualValues(t, 1000, actual.Amount)
	assert.Equal(t, AccountStateFrozen, actual.State)

	_, err = client.GetAccount(keys[1], solana.CommitmentConfirmed)
	assert.Equal(t, ErrAccountNotFound, err)

	_, err = client.GetAccount(keys[3], solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	sc.err = errors.New("unavailable")
	_, err = client.GetAccount(keys[0], solana.CommitmentConfirmed)
	assert.Error(t, err)
	assert.NotEqual(t, ErrAccountNotFound, err)
}

func TestClient_GetMint(t *testing.T) {
	keys := generateKeys(t, 3)

	mint := Mint{
		MintAuthority: keys[1],
		Supply:        1,
		IsInitialized: true,
	}
	uninitialized := Mint{}

	client := NewClient(&accountInfoClient{
		accounts: map[string]solana.AccountInfo{
			string(keys[0]): {Owner: ProgramKey, Data: mint.Marshal()},
			string(keys[2]): {Owner: ProgramKey, Data: uninitialized.Marshal()},
		},
	})

	actual, err := client.GetMint(keys[0], solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, mint, *actual)

	_, err = client.GetMint(keys[1], solana.CommitmentConfirmed)
	assert.Equal(t, ErrAccountNotFound, err)

	_, err = client.GetMint(keys[2], solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidMint, err)
}
