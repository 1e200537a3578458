package wallet

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
)

// DefaultAirdropLamports is what client workflows request for new wallets.
const DefaultAirdropLamports = 2 * solana.LamportsPerSol

// Airdrop funds address and waits for the airdrop to confirm.
func Airdrop(ctx context.Context, l ledger.Ledger, address ed25519.PublicKey, lamports uint64) error {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":     "wallet/funding",
		"method":   "Airdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	})

	sig, err := l.RequestAirdrop(ctx, address, lamports)
	if err != nil {
		log.WithError(err).Warn("airdrop failed")
		return errors.Wrapf(err, "failed to airdrop %d lamports to %s", lamports, base58.Encode(address))
	}

	log.WithField("signature", sig.String()).Info("airdrop confirmed")
	return nil
}
