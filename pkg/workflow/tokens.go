package workflow

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/token"
	"github.com/code-payments/program-client/pkg/solana/tokens"
)

// TokensToMint are minted, one new mint each, by the tokens workflow.
var TokensToMint = []tokens.Data{
	&tokens.FungibleToken{
		TokenDecimals:         9,
		InitialSupply:         1_000_000_000,
		ShouldFreezeAfterMint: true,
		Metadata: tokens.Metadata{
			Name:   "Jogo do Bicho Coin",
			Symbol: "JBC",
			URI:    "https://gateway.pinata.cloud/ipfs/bafkreiavttmvulnb2cagvpb4iwyeoeetohvq5bbqeqw4kvedbfb25wha5e",
		},
	},
	&tokens.FungibleAsset{
		TokenDecimals: 0,
		Quantity:      1000,
		Uses:          1000,
		Metadata: tokens.Metadata{
			Name:   "Food",
			Symbol: "Food",
			URI:    "https://gateway.pinata.cloud/ipfs/bafkreicrtnhb7ec6b2glosuclyqm3yvlhonqhvew763vl7mo5ktd3m7erq",
		},
	},
	&tokens.NonFungibleToken{
		SellerFeeBasisPoints: 500,
		Metadata: tokens.Metadata{
			Name:   "Ferris, the Memory Guardian",
			Symbol: "Dts#001",
			URI:    "https://gateway.pinata.cloud/ipfs/bafkreiewvggcg23sci5jq3qqruhlcwmyunwd557ev2yuc4d65eyrvlzfre",
		},
	},
}

type MintedToken struct {
	Data      tokens.Data
	Addresses *tokens.MintAddresses
	Mint      *token.Mint
	Account   *token.Account
	Signature solana.Signature
}

// RunTokens mints each of TokensToMint to the local account and reads back the
// resulting mint and token account.
func RunTokens(ctx context.Context, env *Env) ([]*MintedToken, error) {
	authority, err := env.Keys.Local(ctx)
	if err != nil {
		return nil, err
	}
	authorityAddress := authority.Public().(ed25519.PublicKey)

	program, err := env.Programs.Lookup(tokens.Name)
	if err != nil {
		return nil, err
	}

	var minted []*MintedToken
	for _, d := range TokensToMint {
		_, mintKey, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate mint key")
		}
		mintAddress := mintKey.Public().(ed25519.PublicKey)

		instruction, addresses, err := tokens.Mint(program, mintAddress, authorityAddress, d)
		if err != nil {
			return nil, err
		}

		log := logrus.StandardLogger().WithFields(logrus.Fields{
			"type":          "workflow/tokens",
			"kind":          d.Kind().String(),
			"mint":          base58.Encode(addresses.Mint),
			"token_account": base58.Encode(addresses.TokenAccount),
		})
		log.Info("minting token")

		result, err := env.Dispatcher.Submit(ctx, []solana.Instruction{instruction}, []ed25519.PrivateKey{authority, mintKey})
		if err != nil {
			return nil, err
		}

		mint, err := env.Tokens.GetMint(addresses.Mint, solana.CommitmentConfirmed)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read minted mint")
		}
		account, err := env.Tokens.GetAccount(addresses.TokenAccount, solana.CommitmentConfirmed)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read minted token account")
		}

		log.WithFields(logrus.Fields{
			"signature": result.Signature.String(),
			"supply":    mint.Supply,
			"balance":   account.Amount,
		}).Info("minted token")

		minted = append(minted, &MintedToken{
			Data:      d,
			Addresses: addresses,
			Mint:      mint,
			Account:   account,
			Signature: result.Signature,
		})
	}

	return minted, nil
}
