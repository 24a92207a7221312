package poll

import (
	"context"
	"fmt"
	"log/slog"

	"poll-voter/lib/logger"
	"poll-voter/lib/utils"
	"poll-voter/modules/common"
	"poll-voter/modules/ledger"
	"poll-voter/modules/wallet"
)

// Metadata is the immutable part of a poll.
type Metadata struct {
	Question string
	Options  []string
}

func (m Metadata) OptionCount() int {
	return len(m.Options)
}

type Reader struct {
	contract ledger.PollContract
	logger   *slog.Logger
}

func NewReader(contract ledger.PollContract, parentLogger *slog.Logger) *Reader {
	return &Reader{
		contract: contract,
		logger:   logger.OrDiscard(parentLogger).With("service", "poll-reader"),
	}
}

// FetchMetadata reads the question and the ordered option list. It performs
// no writes and can be retried freely.
func (r *Reader) FetchMetadata(ctx context.Context, session *wallet.Session) (Metadata, error) {
	if !session.Connected() {
		return Metadata{}, fmt.Errorf("%w: fetch requires a connected session", common.ErrWalletUnavailable)
	}

	question, err := r.contract.Question(ctx)
	if err != nil {
		r.logger.Warn("failed to read question", "err", err)
		return Metadata{}, fmt.Errorf("reading question: %w", err)
	}

	options, err := r.contract.Options(ctx)
	if err != nil {
		r.logger.Warn("failed to read options", "err", err)
		return Metadata{}, fmt.Errorf("reading options: %w", err)
	}

	r.logger.Debug("poll loaded", "question", question, "options", len(options))
	return Metadata{
		Question: question,
		Options:  utils.Clone(options),
	}, nil
}
