// Package workflow implements the client flows that exercise each on-chain
// program end to end.
package workflow

import (
	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/dispatch"
	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/programs"
	"github.com/code-payments/program-client/pkg/provision"
	"github.com/code-payments/program-client/pkg/solana/calculator"
	"github.com/code-payments/program-client/pkg/solana/token"
	"github.com/code-payments/program-client/pkg/solana/tokens"
	"github.com/code-payments/program-client/pkg/solana/transfersol"
	"github.com/code-payments/program-client/pkg/wallet"
)

// Env is everything a workflow needs to talk to the ledger.
type Env struct {
	Ledger      ledger.Ledger
	Tokens      *token.Client
	Keys        wallet.KeySource
	Programs    programs.Registry
	Schemas     *borsh.Registry
	Provisioner *provision.Provisioner
	Dispatcher  *dispatch.Dispatcher
}

// NewEnv wires the provisioner and dispatcher over l. Token state is read
// through accounts.
func NewEnv(l ledger.Ledger, accounts token.AccountInfoGetter, keys wallet.KeySource, registry programs.Registry) (*Env, error) {
	schemas, err := NewSchemaRegistry()
	if err != nil {
		return nil, err
	}

	return &Env{
		Ledger:      l,
		Tokens:      token.NewClient(accounts),
		Keys:        keys,
		Programs:    registry,
		Schemas:     schemas,
		Provisioner: provision.New(l, provision.WithEnvConfigs()),
		Dispatcher:  dispatch.New(l, dispatch.WithEnvConfigs()),
	}, nil
}

// NewSchemaRegistry returns a registry holding every program layout used by
// the workflows.
func NewSchemaRegistry() (*borsh.Registry, error) {
	r := borsh.NewRegistry()
	for _, register := range []func(*borsh.Registry) error{
		calculator.RegisterSchemas,
		transfersol.RegisterSchemas,
		tokens.RegisterSchemas,
	} {
		if err := register(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
