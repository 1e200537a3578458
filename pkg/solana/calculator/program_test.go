package calculator

import (
	"crypto/ed25519"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/solana"
)

func TestNewInstruction(t *testing.T) {
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	ix, err := NewInstruction(program, account, Instruction{Operation: OperationSubtract, OperatingValue: 3})
	require.NoError(t, err)

	expected := []byte{byte(OperationSubtract)}
	expected = binary.LittleEndian.AppendUint32(expected, math.Float32bits(3))
	assert.Equal(t, expected, ix.Data)
	assert.Equal(t, program, ix.Program)

	require.Len(t, ix.Accounts, 1)
	assert.Equal(t, account, ix.Accounts[0].PublicKey)
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.False(t, ix.Accounts[0].IsSigner)
}

func TestInstruction_RoundTrip(t *testing.T) {
	for _, op := range []Operation{OperationAdd, OperationSubtract, OperationMultiply, OperationDivide, OperationReset} {
		data, err := borsh.Encode(InstructionSchema, Instruction{Operation: op, OperatingValue: 1.5}.Record())
		require.NoError(t, err)
		require.Len(t, data, 5)

		v, err := borsh.Decode(InstructionSchema, data)
		require.NoError(t, err)

		rec := v.(borsh.Record)
		assert.Equal(t, uint32(op), rec.Get("operation").(borsh.Enum).Discriminant)
		assert.Equal(t, float32(1.5), rec.Get("operating_value"))
	}

	_, err := borsh.Decode(InstructionSchema, []byte{5, 0, 0, 0, 0})
	assert.ErrorIs(t, err, borsh.ErrUnknownVariant)
}

func TestEvaluate(t *testing.T) {
	for _, tc := range []struct {
		ix       Instruction
		value    float32
		expected float32
	}{
		{Instruction{OperationAdd, 2}, 3, 5},
		{Instruction{OperationSubtract, 3}, 1, -2},
		{Instruction{OperationMultiply, 4}, 2.5, 10},
		{Instruction{OperationDivide, 4}, 10, 2.5},
		{Instruction{OperationReset, 4}, 10, 0},
	} {
		assert.Equal(t, tc.expected, tc.ix.Evaluate(tc.value), tc.ix.Operation.String())
	}

	assert.True(t, math.IsInf(float64(Instruction{OperationDivide, 0}.Evaluate(1)), 1))
}

func TestState(t *testing.T) {
	assert.EqualValues(t, 4, Size())

	data, err := EncodeState(State{Value: 42.25})
	require.NoError(t, err)
	assert.Len(t, data, 4)

	state, err := DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, float32(42.25), state.Value)

	// Accounts may be allocated with more space than the state needs.
	state, err = DecodeState(append(data, 0, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, float32(42.25), state.Value)

	_, err = DecodeState(data[:3])
	assert.ErrorIs(t, err, borsh.ErrTruncatedBuffer)
}

func TestRegisterSchemas(t *testing.T) {
	r := borsh.NewRegistry()
	require.NoError(t, RegisterSchemas(r))

	size, err := r.SizeOf(InstructionSchemaName)
	require.NoError(t, err)
	assert.Equal(t, 5, size)

	size, err = r.SizeOf(StateSchemaName)
	require.NoError(t, err)
	assert.Equal(t, 4, size)

	assert.ErrorIs(t, RegisterSchemas(r), borsh.ErrDuplicateSchema)
}

func TestAccounts(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	assert.Equal(t, []solana.AccountMeta{solana.NewAccountMeta(account, false)}, Accounts(account))
}
