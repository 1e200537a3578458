package workflow

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/dispatch"
	"github.com/code-payments/program-client/pkg/provision"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/calculator"
)

const (
	// CalculatorSeed derives the local account's calculator account.
	CalculatorSeed = "test1"

	calculatorFundingLamports = solana.LamportsPerSol
)

// CalculatorOperation is the instruction the calculator workflow submits.
var CalculatorOperation = calculator.Instruction{
	Operation:      calculator.OperationSubtract,
	OperatingValue: 3,
}

type CalculatorResult struct {
	Account   ed25519.PublicKey
	Before    float32
	After     float32
	Signature solana.Signature
}

// RunCalculator provisions the local account's calculator account, submits
// CalculatorOperation against it and reads back the new state.
func RunCalculator(ctx context.Context, env *Env) (*CalculatorResult, error) {
	local, err := env.Keys.Local(ctx)
	if err != nil {
		return nil, err
	}

	program, err := env.Programs.Lookup(calculator.Name)
	if err != nil {
		return nil, err
	}

	req, err := provision.NewRequestForSchema(env.Schemas, calculator.StateSchemaName, local, CalculatorSeed, program)
	if err != nil {
		return nil, err
	}
	req.Funding.Lamports = calculatorFundingLamports

	record, err := env.Provisioner.EnsureAccount(ctx, req)
	if err != nil {
		return nil, err
	}

	before, err := calculator.DecodeState(record.Data)
	if err != nil {
		return nil, err
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":      "workflow/calculator",
		"program":   base58.Encode(program),
		"account":   base58.Encode(record.Address),
		"operation": CalculatorOperation.Operation.String(),
		"operand":   CalculatorOperation.OperatingValue,
	})

	instruction, err := dispatch.BuildEncoded(
		env.Schemas,
		program,
		calculator.Accounts(record.Address),
		calculator.InstructionSchemaName,
		CalculatorOperation.Record(),
	)
	if err != nil {
		return nil, err
	}

	log.WithField("payload", instruction.Data).Info("dispatching instruction")

	result, err := env.Dispatcher.Submit(ctx, []solana.Instruction{instruction}, []ed25519.PrivateKey{local})
	if err != nil {
		return nil, err
	}

	updated, err := env.Ledger.GetAccount(ctx, record.Address)
	if err != nil {
		return nil, err
	}

	after, err := calculator.DecodeState(updated.Data)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"before":    before.Value,
		"after":     after.Value,
		"signature": result.Signature.String(),
	}).Info("calculator updated")

	return &CalculatorResult{
		Account:   record.Address,
		Before:    before.Value,
		After:     after.Value,
		Signature: result.Signature,
	}, nil
}
