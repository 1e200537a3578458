package workflow

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/transfersol"
	"github.com/code-payments/program-client/pkg/wallet"
)

// TransferWallet is a named wallet taking part in the transfer workflow.
type TransferWallet struct {
	Name    string
	Airdrop bool
}

// Transfer moves lamports between two TransferWallets.
type Transfer struct {
	From     string
	To       string
	Lamports uint64
}

var (
	TransferWallets = []TransferWallet{
		{Name: "don ramon", Airdrop: true},
		{Name: "dr. chatuba"},
		{Name: "gloria", Airdrop: true},
		{Name: "don santiago"},
	}

	Transfers = []Transfer{
		{From: "don ramon", To: "gloria", Lamports: solana.LamportsPerSol / 2},
		{From: "gloria", To: "don santiago", Lamports: 3 * solana.LamportsPerSol / 10},
		{From: "don ramon", To: "dr. chatuba", Lamports: solana.LamportsPerSol},
		{From: "dr. chatuba", To: "gloria", Lamports: 7 * solana.LamportsPerSol / 10},
		{From: "gloria", To: "don santiago", Lamports: solana.LamportsPerSol / 2},
	}
)

type WalletBalance struct {
	Address ed25519.PublicKey
	Initial uint64
	Final   uint64
}

// Diff is the change in balance over the workflow, in lamports.
func (b WalletBalance) Diff() int64 {
	return int64(b.Final) - int64(b.Initial)
}

type TransferSolResult struct {
	Balances   map[string]*WalletBalance
	Signatures []solana.Signature
}

// RunTransferSol moves lamports between the named TransferWallets through the
// transfer program and reports each wallet's balance change.
func RunTransferSol(ctx context.Context, env *Env) (*TransferSolResult, error) {
	log := logrus.StandardLogger().WithField("type", "workflow/transfer_sol")

	program, err := env.Programs.Lookup(transfersol.Name)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]ed25519.PrivateKey)
	result := &TransferSolResult{
		Balances: make(map[string]*WalletBalance),
	}

	for _, w := range TransferWallets {
		key, err := env.Keys.Named(ctx, w.Name)
		if err != nil {
			return nil, err
		}
		address := key.Public().(ed25519.PublicKey)

		if w.Airdrop {
			if err := wallet.Airdrop(ctx, env.Ledger, address, wallet.DefaultAirdropLamports); err != nil {
				return nil, err
			}
		}

		balance, err := env.Ledger.GetBalance(ctx, address)
		if err != nil {
			return nil, err
		}

		keys[w.Name] = key
		result.Balances[w.Name] = &WalletBalance{
			Address: address,
			Initial: balance,
		}

		log.WithFields(logrus.Fields{
			"wallet":  w.Name,
			"address": base58.Encode(address),
			"balance": solana.FormatSol(int64(balance)),
		}).Info("wallet initial state")
	}

	for i, t := range Transfers {
		from, to := keys[t.From], keys[t.To]

		instruction, err := transfersol.Transfer(program, from.Public().(ed25519.PublicKey), to.Public().(ed25519.PublicKey), t.Lamports)
		if err != nil {
			return nil, err
		}

		submitted, err := env.Dispatcher.Submit(ctx, []solana.Instruction{instruction}, []ed25519.PrivateKey{from})
		if err != nil {
			return nil, err
		}
		result.Signatures = append(result.Signatures, submitted.Signature)

		log.WithFields(logrus.Fields{
			"transfer":  i + 1,
			"from":      t.From,
			"to":        t.To,
			"amount":    solana.FormatSol(int64(t.Lamports)),
			"signature": submitted.Signature.String(),
		}).Info("transfer confirmed")
	}

	for _, w := range TransferWallets {
		balance := result.Balances[w.Name]

		final, err := env.Ledger.GetBalance(ctx, balance.Address)
		if err != nil {
			return nil, err
		}
		balance.Final = final

		log.WithFields(logrus.Fields{
			"wallet":  w.Name,
			"balance": solana.FormatSol(int64(final)),
			"diff":    solana.FormatSol(balance.Diff()),
		}).Info("wallet final state")
	}

	return result, nil
}
