package vote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"poll-voter/lib/logger"
	"poll-voter/modules/common"
	"poll-voter/modules/ledger"
	"poll-voter/modules/poll"
	"poll-voter/modules/wallet"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Submitter drives one vote attempt at a time from validation to receipt.
type Submitter struct {
	contract ledger.PollContract
	policy   WaitPolicy
	logger   *slog.Logger

	mu           sync.Mutex
	record       TransactionRecord
	onTransition func(TransactionRecord)

	// held from a record change until its hook returns so observers see
	// changes in the order they were made
	emitMu sync.Mutex
}

// NewSubmitter falls back to DefaultWaitPolicy when policy is unset.
func NewSubmitter(contract ledger.PollContract, policy WaitPolicy, parentLogger *slog.Logger) *Submitter {
	if policy.PollInterval <= 0 || policy.Timeout <= 0 {
		policy = DefaultWaitPolicy
	}
	return &Submitter{
		contract: contract,
		policy:   policy,
		logger:   logger.OrDiscard(parentLogger).With("service", "vote-submitter"),
	}
}

// OnTransition registers fn to receive a copy of the record after every
// status change. It runs on the submitting goroutine and must not call
// Submit or Reset.
func (s *Submitter) OnTransition(fn func(TransactionRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTransition = fn
}

func (s *Submitter) Record() TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Reset returns a terminal record to Idle. In-flight attempts are left alone.
func (s *Submitter) Reset() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if !s.record.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	s.record = TransactionRecord{AttemptID: s.record.AttemptID, Status: StatusIdle}
	rec, hook := s.record, s.onTransition
	s.mu.Unlock()

	emit(hook, rec)
}

// Submit validates intent and, when valid, casts the vote and waits for its
// receipt. The returned error carries the sentinel matching the record's
// Reason.
func (s *Submitter) Submit(
	ctx context.Context,
	session *wallet.Session,
	metadata poll.Metadata,
	intent VoteIntent,
) (TransactionRecord, error) {
	s.emitMu.Lock()
	s.mu.Lock()
	if s.record.Status.InFlight() {
		rec := s.record
		s.mu.Unlock()
		s.emitMu.Unlock()
		return rec, fmt.Errorf("%w: attempt %s is %s", common.ErrAlreadyPending, rec.AttemptID, rec.Status)
	}
	idle := TransactionRecord{AttemptID: uuid.New(), Status: StatusIdle}
	validating := idle
	validating.Status = StatusValidating
	s.record = validating
	hook := s.onTransition
	s.mu.Unlock()

	emit(hook, idle)
	emit(hook, validating)
	s.emitMu.Unlock()

	log := s.logger.With("attempt", idle.AttemptID.String())

	value, err := Validate(intent, metadata.OptionCount())
	if err != nil {
		log.Debug("vote rejected", "err", err)
		return s.fail(err)
	}
	if !session.Connected() {
		return s.fail(fmt.Errorf("%w: session is not connected", common.ErrWalletUnavailable))
	}

	option := intent.Selection.Unwrap()
	hash, err := s.contract.StakeAndVote(ctx, session.Signer, uint64(option), value)
	if err != nil {
		log.Warn("broadcast failed", "err", err)
		return s.fail(err)
	}

	if _, err := s.advance(StatusPending, func(r *TransactionRecord) {
		r.TxHash = optional.Some(hash)
	}); err != nil {
		return s.Record(), err
	}
	log.Info("waiting for receipt", "tx", hash.Hex(), "option", option, "stake", FormatStake(value))

	res := waitReceipt(ctx, s.contract, hash, s.policy, log)
	if res.IsErr() {
		log.Warn("receipt wait abandoned", "tx", hash.Hex(), "err", res.UnwrapErr())
		return s.fail(res.UnwrapErr())
	}

	receipt := res.Unwrap()
	if receipt.Status != types.ReceiptStatusSuccessful {
		return s.fail(fmt.Errorf("%w: %s", common.ErrTransactionReverted, hash.Hex()))
	}

	rec, err := s.advance(StatusConfirmed, func(r *TransactionRecord) {
		if receipt.BlockNumber != nil {
			r.BlockNumber = optional.Some(receipt.BlockNumber.Uint64())
		}
		r.GasUsed = optional.Some(receipt.GasUsed)
	})
	if err != nil {
		return rec, err
	}
	log.Info("vote confirmed", "tx", hash.Hex(), "block", rec.BlockNumber.TakeOr(0))
	return rec, nil
}

func (s *Submitter) fail(cause error) (TransactionRecord, error) {
	if common.ReasonOf(cause).IsNone() {
		cause = fmt.Errorf("%w: %w", common.ErrContractUnreachable, cause)
	}
	reason := common.ReasonOf(cause).Unwrap()
	rec, err := s.advance(StatusFailed, func(r *TransactionRecord) {
		r.Reason = optional.Some(reason)
	})
	if err != nil {
		return rec, err
	}
	return rec, cause
}

func (s *Submitter) advance(to Status, mutate func(*TransactionRecord)) (TransactionRecord, error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if !s.record.Status.CanTransition(to) {
		rec := s.record
		s.mu.Unlock()
		return rec, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, to)
	}
	s.record.Status = to
	mutate(&s.record)
	rec, hook := s.record, s.onTransition
	s.mu.Unlock()

	emit(hook, rec)
	return rec, nil
}

func emit(hook func(TransactionRecord), rec TransactionRecord) {
	if hook != nil {
		hook(rec)
	}
}
