// Package memory provides an in-memory ledger.Ledger that executes the system
// program and registered program handlers locally.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/ledger"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/computebudget"
	"github.com/code-payments/program-client/pkg/solana/memo"
	"github.com/code-payments/program-client/pkg/solana/system"
)

const (
	// LamportsPerSignature is the fee charged to the payer for every signature.
	LamportsPerSignature = 5000

	// Rent exemption follows the default cluster parameters: two years of rent
	// at 3480 lamports per byte-year, with 128 bytes of account overhead.
	rentLamportsPerByteYear = 3480
	rentExemptionYears      = 2
	accountStorageOverhead  = 128
)

// Account is an instruction account as seen by a ProgramHandler. Changes to
// writable accounts are committed when the whole transaction succeeds.
type Account struct {
	*ledger.AccountRecord

	IsSigner   bool
	IsWritable bool
}

// ProgramHandler executes a single instruction addressed to a registered
// program. Accounts that don't exist yet are passed as empty records owned by
// the system program. A solana.CustomError is surfaced to the submitter as the
// program's custom error code.
type ProgramHandler func(accounts []*Account, data []byte) error

type Ledger struct {
	log *logrus.Entry

	mu         sync.Mutex
	accounts   map[string]*ledger.AccountRecord
	programs   map[string]ProgramHandler
	hidden     map[string]int
	submitted  []solana.Transaction
	inducedErr error
	counter    uint64
}

func New() *Ledger {
	return &Ledger{
		log:      logrus.StandardLogger().WithField("type", "ledger/memory"),
		accounts: make(map[string]*ledger.AccountRecord),
		programs: make(map[string]ProgramHandler),
		hidden:   make(map[string]int),
	}
}

// RegisterProgram routes instructions addressed to program to handler.
func (l *Ledger) RegisterProgram(program ed25519.PublicKey, handler ProgramHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.programs[string(program)] = handler
	l.accounts[string(program)] = &ledger.AccountRecord{
		Address:    program,
		Owner:      bpfLoaderKey,
		Lamports:   1,
		Executable: true,
	}
}

// SetAccount stores a copy of record, replacing any existing account.
func (l *Ledger) SetAccount(record *ledger.AccountRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(record.Address)] = record.Clone()
}

// HideAccount makes the next reads of address report the account as missing,
// simulating a node that lags behind the ledger.
func (l *Ledger) HideAccount(address ed25519.PublicKey, reads int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hidden[string(address)] = reads
}

// InduceSubmissionError makes the next submission fail with err without
// executing it.
func (l *Ledger) InduceSubmissionError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inducedErr = err
}

// Submitted returns every transaction that was executed, including failed ones.
func (l *Ledger) Submitted() []solana.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]solana.Transaction(nil), l.submitted...)
}

// Reset clears all accounts and transactions. Registered programs are kept.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range l.accounts {
		if _, ok := l.programs[k]; !ok || !v.Executable {
			delete(l.accounts, k)
		}
	}
	l.hidden = make(map[string]int)
	l.submitted = nil
	l.inducedErr = nil
}

// GetAccount implements ledger.Ledger.GetAccount
func (l *Ledger) GetAccount(ctx context.Context, address ed25519.PublicKey) (*ledger.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.read(address)
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return record.Clone(), nil
}

// GetAccountInfo serves account reads for solana.Client consumers, such as
// the token client.
func (l *Ledger) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.read(address)
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return solana.AccountInfo{
		Data:       append([]byte(nil), record.Data...),
		Owner:      append(ed25519.PublicKey(nil), record.Owner...),
		Lamports:   record.Lamports,
		Executable: record.Executable,
	}, nil
}

// GetBalance implements ledger.Ledger.GetBalance
func (l *Ledger) GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.read(address)
	if !ok {
		return 0, nil
	}
	return record.Lamports, nil
}

// GetMinimumBalanceForRentExemption implements ledger.Ledger.GetMinimumBalanceForRentExemption
func (l *Ledger) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return RentExemptBalance(size), nil
}

// RentExemptBalance is the rent exemption minimum for an account of size bytes.
// Sizes too large to price saturate at math.MaxUint64.
func RentExemptBalance(size uint64) uint64 {
	const perByte = rentLamportsPerByteYear * rentExemptionYears
	if size > math.MaxUint64/perByte-accountStorageOverhead {
		return math.MaxUint64
	}
	return (accountStorageOverhead + size) * perByte
}

// RequestAirdrop implements ledger.Ledger.RequestAirdrop
func (l *Ledger) RequestAirdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.accounts[string(address)]
	if !ok {
		record = newSystemAccount(address)
		l.accounts[string(address)] = record
	}
	record.Lamports += lamports

	var sig solana.Signature
	hash := l.nextHash()
	copy(sig[:], hash[:])
	return sig, nil
}

// SubmitAndConfirm implements ledger.Submitter.SubmitAndConfirm
func (l *Ledger) SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inducedErr != nil {
		err := l.inducedErr
		l.inducedErr = nil
		return solana.Signature{}, err
	}

	txn, err := ledger.NewTransaction(solana.Blockhash(l.nextHash()), instructions, signers...)
	if err != nil {
		return solana.Signature{}, err
	}

	log := l.log.WithFields(logrus.Fields{
		"method":    "SubmitAndConfirm",
		"signature": txn.Signatures[0].String(),
	})

	if txErr := l.execute(txn); txErr != nil {
		log.WithError(txErr).Debug("transaction failed")
		return txn.Signatures[0], ledger.NewSubmissionError(txn, txErr)
	}

	log.Debug("transaction executed")
	return txn.Signatures[0], nil
}

// read must be called with the lock held.
func (l *Ledger) read(address ed25519.PublicKey) (*ledger.AccountRecord, bool) {
	if remaining := l.hidden[string(address)]; remaining > 0 {
		l.hidden[string(address)] = remaining - 1
		return nil, false
	}

	record, ok := l.accounts[string(address)]
	return record, ok
}

func (l *Ledger) nextHash() [32]byte {
	l.counter++
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], l.counter)
	return sha256.Sum256(b[:])
}

// execute runs the transaction atomically. Fees are charged even when an
// instruction fails.
func (l *Ledger) execute(txn solana.Transaction) *solana.TransactionError {
	m := txn.Message
	l.submitted = append(l.submitted, txn)

	messageBytes := m.Marshal()
	for i, signer := range txn.Signers() {
		if !ed25519.Verify(signer, messageBytes, txn.Signatures[i][:]) {
			return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}

	fee := uint64(LamportsPerSignature) * uint64(len(txn.Signatures))
	payer, ok := l.accounts[string(m.Accounts[0])]
	if !ok || payer.Lamports < fee {
		return solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	payer.Lamports -= fee
	if payer.Lamports == 0 {
		delete(l.accounts, string(payer.Address))
	}

	ws := &workingSet{
		committed: l.accounts,
		changes:   make(map[string]*ledger.AccountRecord),
	}

	for index := range m.Instructions {
		program := m.Accounts[m.Instructions[index].ProgramIndex]

		var err error
		switch {
		case bytes.Equal(program, system.ProgramKey[:]):
			err = executeSystem(ws, m, index)
		case bytes.Equal(program, memo.ProgramKey), computebudget.IsComputeBudgetInstruction(m, index):
			// no state changes
		default:
			handler, ok := l.programs[string(program)]
			if !ok {
				return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
			}
			err = l.executeProgram(ws, handler, m, index)
		}

		if err != nil {
			txErr, parseErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
				Index: index,
				Err:   err,
			})
			if parseErr != nil {
				return solana.NewTransactionError(solana.TransactionErrorInstructionError)
			}
			return txErr
		}
	}

	ws.commit()
	return nil
}

func (l *Ledger) executeProgram(ws *workingSet, handler ProgramHandler, m solana.Message, index int) error {
	ix := m.Instructions[index]

	accounts := make([]*Account, len(ix.Accounts))
	for i, accountIndex := range ix.Accounts {
		writable := isWritable(m, int(accountIndex))

		record := ws.get(m.Accounts[accountIndex])
		if !writable {
			record = record.Clone()
		}

		accounts[i] = &Account{
			AccountRecord: record,
			IsSigner:      isSigner(m, int(accountIndex)),
			IsWritable:    writable,
		}
	}

	err := handler(accounts, ix.Data)
	if err == nil {
		return nil
	}

	var custom solana.CustomError
	if errors.As(err, &custom) {
		return custom
	}

	l.log.WithFields(logrus.Fields{
		"method":  "executeProgram",
		"program": base58.Encode(m.Accounts[ix.ProgramIndex]),
	}).WithError(err).Debug("program handler failed")
	return errors.New(string(solana.InstructionErrorGenericError))
}

// workingSet holds uncommitted account changes for a single transaction.
type workingSet struct {
	committed map[string]*ledger.AccountRecord
	changes   map[string]*ledger.AccountRecord
}

func (ws *workingSet) get(address ed25519.PublicKey) *ledger.AccountRecord {
	if record, ok := ws.changes[string(address)]; ok {
		return record
	}

	var record *ledger.AccountRecord
	if committed, ok := ws.committed[string(address)]; ok {
		record = committed.Clone()
	} else {
		record = newSystemAccount(address)
	}

	ws.changes[string(address)] = record
	return record
}

func (ws *workingSet) commit() {
	for k, record := range ws.changes {
		if record.Lamports == 0 && !record.Executable {
			delete(ws.committed, k)
			continue
		}
		ws.committed[k] = record
	}
}

func newSystemAccount(address ed25519.PublicKey) *ledger.AccountRecord {
	return &ledger.AccountRecord{
		Address: append(ed25519.PublicKey(nil), address...),
		Owner:   append(ed25519.PublicKey(nil), system.ProgramKey[:]...),
	}
}

func isSigner(m solana.Message, index int) bool {
	return index < int(m.Header.NumSignatures)
}

func isWritable(m solana.Message, index int) bool {
	if isSigner(m, index) {
		return index < int(m.Header.NumSignatures-m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

var bpfLoaderKey = mustDecode("BPFLoaderUpgradeab1e11111111111111111111111")

func mustDecode(s string) ed25519.PublicKey {
	b, err := base58.Decode(s)
	if err != nil {
		panic(err)
	}
	return b
}
