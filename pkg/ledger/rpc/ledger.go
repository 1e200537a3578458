// Package rpc implements ledger.Ledger on top of a Solana JSON-RPC node.
package rpc

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/retry"
	"github.com/code-payments/program-client/pkg/retry/backoff"
	"github.com/code-payments/program-client/pkg/solana"
)

type rpcLedger struct {
	log    *logrus.Entry
	conf   *conf
	client solana.Client
}

func New(client solana.Client, configProvider ConfigProvider) ledger.Ledger {
	return &rpcLedger{
		log:    logrus.StandardLogger().WithField("type", "ledger/rpc"),
		conf:   configProvider(),
		client: client,
	}
}

func (l *rpcLedger) commitment(ctx context.Context) (solana.Commitment, error) {
	return solana.CommitmentFromString(l.conf.commitment.Get(ctx))
}

// GetAccount implements ledger.Ledger.GetAccount
func (l *rpcLedger) GetAccount(ctx context.Context, address ed25519.PublicKey) (*ledger.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	commitment, err := l.commitment(ctx)
	if err != nil {
		return nil, err
	}

	info, err := l.client.GetAccountInfo(address, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, ledger.ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get account %s", base58.Encode(address))
	}

	return &ledger.AccountRecord{
		Address:    address,
		Owner:      info.Owner,
		Lamports:   info.Lamports,
		Data:       info.Data,
		Executable: info.Executable,
	}, nil
}

// GetBalance implements ledger.Ledger.GetBalance
func (l *rpcLedger) GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	balance, err := l.client.GetBalance(address)
	if errors.Is(err, solana.ErrNoBalance) {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "failed to get balance of %s", base58.Encode(address))
	}
	return balance, nil
}

// GetMinimumBalanceForRentExemption implements ledger.Ledger.GetMinimumBalanceForRentExemption
func (l *rpcLedger) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lamports, err := l.client.GetMinimumBalanceForRentExemption(size)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rent exemption minimum")
	}
	return lamports, nil
}

// RequestAirdrop implements ledger.Ledger.RequestAirdrop
func (l *rpcLedger) RequestAirdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	log := l.log.WithFields(logrus.Fields{
		"method":   "RequestAirdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	})

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	commitment, err := l.commitment(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := l.client.RequestAirdrop(address, lamports, commitment)
	if err != nil {
		log.WithError(err).Warn("airdrop request failed")
		return solana.Signature{}, errors.Wrap(err, "failed to request airdrop")
	}

	log = log.WithField("signature", sig.String())

	status, err := l.confirm(ctx, sig, commitment)
	if err != nil {
		log.WithError(err).Warn("airdrop not confirmed")
		return sig, err
	}
	if status.ErrorResult != nil {
		log.WithError(status.ErrorResult).Warn("airdrop failed")
		return sig, errors.Wrap(status.ErrorResult, "airdrop failed")
	}

	log.Debug("airdrop confirmed")
	return sig, nil
}

// SubmitAndConfirm implements ledger.Submitter.SubmitAndConfirm
func (l *rpcLedger) SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	log := l.log.WithFields(logrus.Fields{
		"method":       "SubmitAndConfirm",
		"instructions": len(instructions),
	})

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	commitment, err := l.commitment(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	var blockhash solana.Blockhash
	_, err = retry.Retry(
		func() error {
			blockhash, err = l.client.GetLatestBlockhash()
			return err
		},
		retry.Context(ctx),
		retry.Limit(uint(l.conf.blockhashAttempts.Get(ctx))),
		retry.Backoff(backoff.BinaryExponential(250*time.Millisecond), 2*time.Second),
	)
	if err != nil {
		log.WithError(err).Warn("failed to get recent blockhash")
		return solana.Signature{}, errors.Wrap(err, "failed to get recent blockhash")
	}

	txn, err := ledger.NewTransaction(blockhash, instructions, signers...)
	if err != nil {
		return solana.Signature{}, err
	}

	sig := txn.Signatures[0]
	log = log.WithField("signature", sig.String())

	_, err = l.client.SubmitTransaction(txn, commitment)
	if err != nil {
		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			log.WithError(txErr).Debug("transaction rejected")
			return sig, ledger.NewSubmissionError(txn, txErr)
		}

		log.WithError(err).Warn("failed to submit transaction")
		return sig, errors.Wrap(err, "failed to submit transaction")
	}

	status, err := l.confirm(ctx, sig, commitment)
	if err != nil {
		log.WithError(err).Warn("transaction not confirmed")
		return sig, err
	}
	if status.ErrorResult != nil {
		log.WithError(status.ErrorResult).Debug("transaction failed")
		return sig, ledger.NewSubmissionError(txn, status.ErrorResult)
	}

	log.Debug("transaction confirmed")
	return sig, nil
}

// confirm waits for sig to reach commitment, bounded by the context and the
// configured confirmation timeout. Polling stops once either expires.
func (l *rpcLedger) confirm(ctx context.Context, sig solana.Signature, commitment solana.Commitment) (*solana.SignatureStatus, error) {
	timeout := l.conf.confirmTimeout.Get(ctx)
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		status *solana.SignatureStatus
		err    error
	}
	resultCh := make(chan result, 1)
	go func() {
		status, err := l.pollStatus(pollCtx, sig, commitment)
		resultCh <- result{status, err}
	}()

	var res result
	select {
	case <-pollCtx.Done():
		res.err = pollCtx.Err()
	case res = <-resultCh:
	}

	if res.err == nil {
		return res.status, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errors.Is(res.err, context.DeadlineExceeded) {
		return nil, errors.Wrapf(ledger.ErrNotConfirmed, "timed out after %v", timeout)
	}
	return nil, errors.Wrap(ledger.ErrNotConfirmed, res.err.Error())
}

// pollStatus queries the signature status every solana.PollRate until it
// settles at commitment or ctx is done. The RPC client is not context aware,
// so at most one in-flight request outlives ctx.
func (l *rpcLedger) pollStatus(ctx context.Context, sig solana.Signature, commitment solana.Commitment) (*solana.SignatureStatus, error) {
	ticker := time.NewTicker(solana.PollRate)
	defer ticker.Stop()

	for {
		statuses, err := l.client.GetSignatureStatuses([]solana.Signature{sig})
		if err != nil {
			return nil, err
		}
		if len(statuses) > 0 && statuses[0] != nil && statuses[0].Reached(commitment) {
			return statuses[0], nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
