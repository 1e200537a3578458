package token

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	// ErrInvalidMint indicates that a Solana account exists at the given
	// address, but it isn't a token mint.
	ErrInvalidMint = errors.New("invalid mint")
)

// AccountInfoGetter is the subset of solana.Client needed to read token state.
type AccountInfoGetter interface {
	GetAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.AccountInfo, error)
}

// Client reads token program state.
type Client struct {
	sc AccountInfoGetter
}

// NewClient creates a new Client.
func NewClient(sc AccountInfoGetter) *Client {
	return &Client{
		sc: sc,
	}
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or is not owned by the token program,
// then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(accountID ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	accountInfo, err := c.sc.GetAccountInfo(accountID, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !OwnedByProgram(accountInfo) {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if !account.Unmarshal(accountInfo.Data) || account.State == AccountStateUninitialized {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetMint returns the mint state at the provided address.
func (c *Client) GetMint(mint ed25519.PublicKey, commitment solana.Commitment) (*Mint, error) {
	accountInfo, err := c.sc.GetAccountInfo(mint, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !OwnedByProgram(accountInfo) {
		return nil, ErrInvalidMint
	}

	var m Mint
	if !m.Unmarshal(accountInfo.Data) || !m.IsInitialized {
		return nil, ErrInvalidMint
	}

	return &m, nil
}
