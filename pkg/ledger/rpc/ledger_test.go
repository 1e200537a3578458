package rpc

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/memo"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/testutil"
)

type fakeClient struct {
	solana.Client

	mu        sync.Mutex
	accounts  map[string]solana.AccountInfo
	submitted []solana.Transaction

	submitErr    error
	status       *solana.SignatureStatus
	statusErr    error
	confirmAfter int
	polls        int
	block        chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		accounts: make(map[string]solana.AccountInfo),
		status: &solana.SignatureStatus{
			ConfirmationStatus: "confirmed",
		},
	}
}

func (c *fakeClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *fakeClient) GetBalance(account ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accounts[string(account)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return info.Lamports, nil
}

func (c *fakeClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return (128 + size) * 6960, nil
}

func (c *fakeClient) GetLatestBlockhash() (solana.Blockhash, error) {
	return solana.Blockhash{1, 2, 3}, nil
}

func (c *fakeClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitted = append(c.submitted, txn)
	return txn.Signatures[0], c.submitErr
}

func (c *fakeClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	if c.block != nil {
		<-c.block
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.polls++
	if c.statusErr != nil {
		return nil, c.statusErr
	}
	if c.confirmAfter > 0 && c.polls < c.confirmAfter {
		return make([]*solana.SignatureStatus, len(sigs)), nil
	}
	return []*solana.SignatureStatus{c.status}, nil
}

func (c *fakeClient) pollCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

func (c *fakeClient) RequestAirdrop(_ ed25519.PublicKey, _ uint64, _ solana.Commitment) (solana.Signature, error) {
	return solana.Signature{9}, nil
}

func newTestLedger(client solana.Client, timeout time.Duration) ledger.Ledger {
	return New(client, withManualTestOverrides(&testOverrides{
		commitment:     "confirmed",
		confirmTimeout: timeout,
	}))
}

func TestGetAccount(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client, time.Second)

	keys := testutil.GenerateSolanaKeys(t, 2)

	_, err := l.GetAccount(context.Background(), keys[0])
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	client.accounts[string(keys[0])] = solana.AccountInfo{
		Data:     []byte{1, 2, 3, 4},
		Owner:    keys[1],
		Lamports: 42,
	}

	record, err := l.GetAccount(context.Background(), keys[0])
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], record.Address)
	assert.EqualValues(t, keys[1], record.Owner)
	assert.EqualValues(t, 42, record.Lamports)
	assert.EqualValues(t, 4, record.Size())

	balance, err := l.GetBalance(context.Background(), keys[1])
	require.NoError(t, err)
	assert.Zero(t, balance)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.GetAccount(ctx, keys[0])
	assert.Equal(t, context.Canceled, err)
}

func TestSubmitAndConfirm(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client, time.Second)

	payer := testutil.GenerateSolanaKeypair(t)

	sig, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{memo.Instruction("hello")}, payer)
	require.NoError(t, err)

	require.Len(t, client.submitted, 1)
	txn := client.submitted[0]
	assert.Equal(t, txn.Signatures[0], sig)
	assert.Equal(t, solana.Blockhash{1, 2, 3}, txn.Message.RecentBlockhash)
	assert.True(t, ed25519.Verify(payer.Public().(ed25519.PublicKey), txn.Message.Marshal(), sig[:]))

	_, err = l.SubmitAndConfirm(context.Background(), []solana.Instruction{memo.Instruction("hello")})
	assert.Equal(t, ledger.ErrNoSigners, err)
}

func TestSubmitAndConfirm_AccountInUse(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client, time.Second)

	keys := testutil.GenerateSolanaKeys(t, 2)
	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)

	address, err := solana.CreateWithSeed(payerKey, "test1", keys[1])
	require.NoError(t, err)

	txErr, err := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 0,
		Err:   system.ErrAccountAlreadyInUse,
	})
	require.NoError(t, err)
	client.status = &solana.SignatureStatus{ErrorResult: txErr}

	_, err = l.SubmitAndConfirm(
		context.Background(),
		[]solana.Instruction{system.CreateAccountWithSeed(payerKey, address, payerKey, "test1", 1000, 4, keys[1])},
		payer,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrAccountAlreadyExists))

	var remote *solana.TransactionError
	require.True(t, errors.As(err, &remote))
	code, index, ok := remote.CustomError()
	require.True(t, ok)
	assert.Equal(t, system.ErrAccountAlreadyInUse, code)
	assert.Equal(t, 0, index)
}

func TestSubmitAndConfirm_PreflightRejected(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client, time.Second)

	client.submitErr = solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{memo.Instruction("hello")}, testutil.GenerateSolanaKeypair(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ledger.ErrAccountAlreadyExists))

	var submissionErr *ledger.SubmissionError
	require.True(t, errors.As(err, &submissionErr))
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, submissionErr.Err.ErrorKey())
}

func TestSubmitAndConfirm_Timeout(t *testing.T) {
	client := newFakeClient()
	client.block = make(chan struct{})
	defer close(client.block)

	l := newTestLedger(client, 50*time.Millisecond)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{memo.Instruction("hello")}, testutil.GenerateSolanaKeypair(t))
	assert.True(t, errors.Is(err, ledger.ErrNotConfirmed))
}

func TestSubmitAndConfirm_PollsUntilConfirmed(t *testing.T) {
	client := newFakeClient()
	client.confirmAfter = 3

	l := newTestLedger(client, 5*time.Second)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{memo.Instruction("hello")}, testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)
	assert.Equal(t, 3, client.pollCount())
}

func TestSubmitAndConfirm_StopsPollingAfterTimeout(t *testing.T) {
	client := newFakeClient()
	client.status = nil

	l := newTestLedger(client, 50*time.Millisecond)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{memo.Instruction("hello")}, testutil.GenerateSolanaKeypair(t))
	assert.True(t, errors.Is(err, ledger.ErrNotConfirmed))

	polls := client.pollCount()
	time.Sleep(3 * solana.PollRate)
	assert.Equal(t, polls, client.pollCount())
}

func TestSubmitAndConfirm_StopsPollingOnCancel(t *testing.T) {
	client := newFakeClient()
	client.status = nil

	l := newTestLedger(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := l.SubmitAndConfirm(ctx, []solana.Instruction{memo.Instruction("hello")}, testutil.GenerateSolanaKeypair(t))
	assert.Equal(t, context.Canceled, err)

	polls := client.pollCount()
	time.Sleep(3 * solana.PollRate)
	assert.Equal(t, polls, client.pollCount())
}

func TestRequestAirdrop(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client, time.Second)

	sig, err := l.RequestAirdrop(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0], solana.LamportsPerSol)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{9}, sig)

	client.statusErr = solana.ErrSignatureNotFound
	_, err = l.RequestAirdrop(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0], solana.LamportsPerSol)
	assert.True(t, errors.Is(err, ledger.ErrNotConfirmed))
}
