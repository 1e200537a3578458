// Package calculator builds instructions for the calculator program and
// decodes its account state.
//
// The program keeps a single f32 in a client-owned account and applies one
// arithmetic operation per instruction.
package calculator

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/solana"
)

// Name is the program's deploy name.
const Name = "calculator"

// Schema names registered by RegisterSchemas.
const (
	OperationSchemaName   = "calculator.Operation"
	InstructionSchemaName = "calculator.CalculatorInstruction"
	StateSchemaName       = "calculator.Calculator"
)

type Operation uint8

const (
	OperationAdd Operation = iota
	OperationSubtract
	OperationMultiply
	OperationDivide
	OperationReset
)

func (o Operation) String() string {
	switch o {
	case OperationAdd:
		return "add"
	case OperationSubtract:
		return "subtract"
	case OperationMultiply:
		return "multiply"
	case OperationDivide:
		return "divide"
	case OperationReset:
		return "reset"
	}
	return "unknown"
}

var (
	OperationSchema = borsh.NewUnion(
		OperationSchemaName,
		borsh.NewVariant(uint32(OperationAdd), "Add"),
		borsh.NewVariant(uint32(OperationSubtract), "Subtract"),
		borsh.NewVariant(uint32(OperationMultiply), "Multiply"),
		borsh.NewVariant(uint32(OperationDivide), "Divide"),
		borsh.NewVariant(uint32(OperationReset), "Reset"),
	)

	// InstructionSchema is the instruction payload: a 1 byte operation
	// followed by the f32 operand.
	InstructionSchema = borsh.NewStruct(
		InstructionSchemaName,
		borsh.NewField("operation", borsh.Composite(OperationSchema)),
		borsh.NewField("operating_value", borsh.F32()),
	)

	// StateSchema is the layout of the calculator account.
	StateSchema = borsh.NewStruct(
		StateSchemaName,
		borsh.NewField("value", borsh.F32()),
	)
)

// RegisterSchemas adds the calculator layouts to r.
func RegisterSchemas(r *borsh.Registry) error {
	for _, s := range []*borsh.Schema{OperationSchema, InstructionSchema, StateSchema} {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Instruction is a single calculator operation.
type Instruction struct {
	Operation      Operation
	OperatingValue float32
}

// Record returns the codec value for InstructionSchema.
func (i Instruction) Record() borsh.Record {
	return borsh.Record{
		"operation":       borsh.Enum{Discriminant: uint32(i.Operation)},
		"operating_value": i.OperatingValue,
	}
}

// Evaluate applies the operation to value the same way the program does.
// Reset, and any operation the program doesn't know, yields zero.
func (i Instruction) Evaluate(value float32) float32 {
	switch i.Operation {
	case OperationAdd:
		return value + i.OperatingValue
	case OperationSubtract:
		return value - i.OperatingValue
	case OperationMultiply:
		return value * i.OperatingValue
	case OperationDivide:
		return value / i.OperatingValue
	default:
		return value * 0
	}
}

// Accounts returns the instruction's access list.
//
//	0. [WRITE] Calculator account
func Accounts(account ed25519.PublicKey) []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(account, false),
	}
}

// NewInstruction encodes ix against the calculator account.
func NewInstruction(program, account ed25519.PublicKey, ix Instruction) (solana.Instruction, error) {
	data, err := borsh.Encode(InstructionSchema, ix.Record())
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to encode calculator instruction")
	}

	return solana.NewInstruction(program, data, Accounts(account)...), nil
}

// State is the calculator account's data.
type State struct {
	Value float32
}

// Size is the number of bytes allocated for a calculator account.
func Size() uint64 {
	size, ok := borsh.SizeOf(StateSchema)
	if !ok {
		panic("calculator state is not statically sized")
	}
	return uint64(size)
}

// DecodeState parses calculator account data. Accounts allocated larger than
// the state are accepted.
func DecodeState(data []byte) (*State, error) {
	v, _, err := borsh.DecodePrefix(StateSchema, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode calculator state")
	}

	value, ok := v.(borsh.Record).Get("value").(float32)
	if !ok {
		return nil, errors.New("unexpected calculator state value")
	}
	return &State{Value: value}, nil
}

// EncodeState returns the account data for s.
func EncodeState(s State) ([]byte, error) {
	return borsh.Encode(StateSchema, borsh.Record{"value": s.Value})
}
