// Package tokens builds instructions for the program that creates a mint,
// its metadata and the authority's token account in a single instruction.
package tokens

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/metadata"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/solana/token"
)

// Name is the program's deploy name.
const Name = "tokens"

// MintAddresses are the accounts a mint instruction creates.
type MintAddresses struct {
	Mint         ed25519.PublicKey
	TokenAccount ed25519.PublicKey
	Metadata     ed25519.PublicKey

	// MasterEdition is only set for non-fungible tokens.
	MasterEdition ed25519.PublicKey
}

// DeriveMintAddresses computes the accounts created when authority mints d
// into mint.
func DeriveMintAddresses(mint, authority ed25519.PublicKey, d Data) (*MintAddresses, error) {
	tokenAccount, err := token.GetAssociatedAccount(authority, mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive token account")
	}

	metadataAddress, _, err := metadata.GetMetadataAddress(mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive metadata address")
	}

	addresses := &MintAddresses{
		Mint:         mint,
		TokenAccount: tokenAccount,
		Metadata:     metadataAddress,
	}

	if d.Kind() == KindNonFungible {
		addresses.MasterEdition, _, err = metadata.GetMasterEditionAddress(mint)
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive master edition address")
		}
	}

	return addresses, nil
}

// Accounts returns the mint instruction's access list.
//
//	0. [WRITE, SIGNER] Mint
//	1. [WRITE] Authority's associated token account
//	2. [SIGNER] Mint authority
//	3. [WRITE] Metadata account
//	4. [WRITE] Master edition account (non-fungible only)
//	.. [] Rent sysvar, system, token, associated token and metadata programs
func Accounts(addresses *MintAddresses, authority ed25519.PublicKey) []solana.AccountMeta {
	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(addresses.Mint, true),
		solana.NewAccountMeta(addresses.TokenAccount, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(addresses.Metadata, false),
	}
	if len(addresses.MasterEdition) > 0 {
		accounts = append(accounts, solana.NewAccountMeta(addresses.MasterEdition, false))
	}

	return append(
		accounts,
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(metadata.ProgramKey, false),
	)
}

// Mint creates mint, owned by authority, and mints d's amount into the
// authority's associated token account. Both mint and authority sign.
func Mint(program, mint, authority ed25519.PublicKey, d Data) (solana.Instruction, *MintAddresses, error) {
	data, err := EncodeData(d)
	if err != nil {
		return solana.Instruction{}, nil, errors.Wrap(err, "failed to encode token data")
	}

	addresses, err := DeriveMintAddresses(mint, authority, d)
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	return solana.NewInstruction(program, data, Accounts(addresses, authority)...), addresses, nil
}
