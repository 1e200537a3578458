// Package simulated provides memory.ProgramHandler implementations of the
// client's on-chain programs, so workflows can run against a memory ledger.
package simulated

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/ledger/memory"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/calculator"
	"github.com/code-payments/program-client/pkg/solana/hello"
	"github.com/code-payments/program-client/pkg/solana/metadata"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/solana/token"
	"github.com/code-payments/program-client/pkg/solana/tokens"
	"github.com/code-payments/program-client/pkg/solana/transfersol"
)

// Program errors, surfaced as custom error codes.
const (
	ErrNotEnoughAccounts   solana.CustomError = 100
	ErrAccountNotWritable  solana.CustomError = 101
	ErrMissingSignature    solana.CustomError = 102
	ErrIncorrectOwner      solana.CustomError = 103
	ErrInvalidInstruction  solana.CustomError = 104
	ErrInsufficientFunds   solana.CustomError = 105
	ErrAccountAlreadyInUse solana.CustomError = 106
	ErrUnexpectedAddress   solana.CustomError = 107
	ErrAccountDataTooSmall solana.CustomError = 108
)

// Handlers returns a handler per program deploy name for the given program
// ids. Names without an id are skipped.
func Handlers(ids map[string]ed25519.PublicKey) map[string]memory.ProgramHandler {
	handlers := make(map[string]memory.ProgramHandler)
	for name, id := range ids {
		switch name {
		case hello.Name:
			handlers[name] = Hello()
		case calculator.Name:
			handlers[name] = Calculator(id)
		case transfersol.Name:
			handlers[name] = TransferSol()
		case tokens.Name:
			handlers[name] = Tokens()
		}
	}
	return handlers
}

// Register installs the handlers for every known program in ids.
func Register(l *memory.Ledger, ids map[string]ed25519.PublicKey) {
	for name, handler := range Handlers(ids) {
		l.RegisterProgram(ids[name], handler)
	}
}

// Hello accepts a ping against any single writable account.
func Hello() memory.ProgramHandler {
	return func(accounts []*memory.Account, data []byte) error {
		if len(accounts) < 1 {
			return ErrNotEnoughAccounts
		}
		if !accounts[0].IsWritable {
			return ErrAccountNotWritable
		}
		return nil
	}
}

// Calculator applies one operation to the state of an account owned by program.
func Calculator(program ed25519.PublicKey) memory.ProgramHandler {
	return func(accounts []*memory.Account, data []byte) error {
		if len(accounts) < 1 {
			return ErrNotEnoughAccounts
		}

		account := accounts[0]
		if !account.IsWritable {
			return ErrAccountNotWritable
		}
		if !bytes.Equal(account.Owner, program) {
			return ErrIncorrectOwner
		}
		if account.Size() < calculator.Size() {
			return ErrAccountDataTooSmall
		}

		v, err := borsh.Decode(calculator.InstructionSchema, data)
		if err != nil {
			return ErrInvalidInstruction
		}
		record := v.(borsh.Record)
		ix := calculator.Instruction{
			Operation:      calculator.Operation(record.Get("operation").(borsh.Enum).Discriminant),
			OperatingValue: record.Get("operating_value").(float32),
		}

		state, err := calculator.DecodeState(account.Data)
		if err != nil {
			return errors.Wrap(err, "failed to decode state")
		}

		encoded, err := calculator.EncodeState(calculator.State{Value: ix.Evaluate(state.Value)})
		if err != nil {
			return errors.Wrap(err, "failed to encode state")
		}
		copy(account.Data, encoded)
		return nil
	}
}

// TransferSol moves the payload's lamports from the payer to the payee.
func TransferSol() memory.ProgramHandler {
	return func(accounts []*memory.Account, data []byte) error {
		if len(accounts) < 3 {
			return ErrNotEnoughAccounts
		}

		payer, payee := accounts[0], accounts[1]
		if !payer.IsSigner {
			return ErrMissingSignature
		}
		if !payer.IsWritable || !payee.IsWritable {
			return ErrAccountNotWritable
		}
		if !bytes.Equal(accounts[2].Address, system.ProgramKey[:]) {
			return ErrUnexpectedAddress
		}

		v, err := borsh.Decode(transfersol.TransferSchema, data)
		if err != nil {
			return ErrInvalidInstruction
		}
		amount := v.(borsh.Record).Get("amount").(uint64)

		if payer.Lamports < amount {
			return ErrInsufficientFunds
		}
		payer.Lamports -= amount
		payee.Lamports += amount
		return nil
	}
}

// Tokens creates the mint, the authority's token account and the metadata
// accounts, funded by the authority.
func Tokens() memory.ProgramHandler {
	return func(accounts []*memory.Account, data []byte) error {
		d, err := tokens.DecodeData(data)
		if err != nil {
			return ErrInvalidInstruction
		}

		required := 4 + 5
		if d.Kind() == tokens.KindNonFungible {
			required++
		}
		if len(accounts) < required {
			return ErrNotEnoughAccounts
		}

		mint, tokenAccount, authority, metadataAccount := accounts[0], accounts[1], accounts[2], accounts[3]
		if !mint.IsSigner || !authority.IsSigner {
			return ErrMissingSignature
		}
		if !authority.IsWritable {
			return ErrAccountNotWritable
		}

		expected, err := tokens.DeriveMintAddresses(mint.Address, authority.Address, d)
		if err != nil {
			return errors.Wrap(err, "failed to derive mint addresses")
		}
		if !bytes.Equal(tokenAccount.Address, expected.TokenAccount) || !bytes.Equal(metadataAccount.Address, expected.Metadata) {
			return ErrUnexpectedAddress
		}

		created := []*memory.Account{mint, tokenAccount, metadataAccount}
		if d.Kind() == tokens.KindNonFungible {
			edition := accounts[4]
			if !bytes.Equal(edition.Address, expected.MasterEdition) {
				return ErrUnexpectedAddress
			}
			created = append(created, edition)
		}

		for _, account := range created {
			if !account.IsWritable {
				return ErrAccountNotWritable
			}
			if account.Lamports > 0 || len(account.Data) > 0 {
				return ErrAccountAlreadyInUse
			}
		}

		state := token.AccountStateInitialized
		if d.FreezeAfterMint() {
			state = token.AccountStateFrozen
		}

		mintData := (&token.Mint{
			MintAuthority:   authority.Address,
			Supply:          d.Amount(),
			Decimals:        d.Decimals(),
			IsInitialized:   true,
			FreezeAuthority: authority.Address,
		}).Marshal()
		accountData := (&token.Account{
			Mint:   mint.Address,
			Owner:  authority.Address,
			Amount: d.Amount(),
			State:  state,
		}).Marshal()

		if err := initialize(authority, mint, token.ProgramKey, mintData); err != nil {
			return err
		}
		if err := initialize(authority, tokenAccount, token.ProgramKey, accountData); err != nil {
			return err
		}
		if err := initialize(authority, metadataAccount, metadata.ProgramKey, data); err != nil {
			return err
		}
		if d.Kind() == tokens.KindNonFungible {
			return initialize(authority, accounts[4], metadata.ProgramKey, nil)
		}
		return nil
	}
}

func initialize(funder, account *memory.Account, owner ed25519.PublicKey, data []byte) error {
	lamports := memory.RentExemptBalance(uint64(len(data)))
	if funder.Lamports < lamports {
		return ErrInsufficientFunds
	}

	funder.Lamports -= lamports
	account.Lamports = lamports
	account.Owner = append(ed25519.PublicKey(nil), owner...)
	account.Data = append([]byte(nil), data...)
	return nil
}
