package workflow

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/hello"
	"github.com/code-payments/program-client/pkg/wallet"
)

type HelloResult struct {
	Account   ed25519.PublicKey
	Signature solana.Signature
}

// RunHello funds the local account and pings the hello program with it.
func RunHello(ctx context.Context, env *Env) (*HelloResult, error) {
	local, err := env.Keys.Local(ctx)
	if err != nil {
		return nil, err
	}
	account := local.Public().(ed25519.PublicKey)

	program, err := env.Programs.Lookup(hello.Name)
	if err != nil {
		return nil, err
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":    "workflow/hello",
		"program": base58.Encode(program),
		"account": base58.Encode(account),
	})

	if err := wallet.Airdrop(ctx, env.Ledger, account, wallet.DefaultAirdropLamports); err != nil {
		return nil, err
	}

	result, err := env.Dispatcher.Submit(ctx, []solana.Instruction{hello.Ping(program, account)}, []ed25519.PrivateKey{local})
	if err != nil {
		return nil, err
	}

	log.WithField("signature", result.Signature.String()).Info("said hello")
	return &HelloResult{
		Account:   account,
		Signature: result.Signature,
	}, nil
}
