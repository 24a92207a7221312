package vote

import (
	"fmt"

	"poll-voter/modules/common"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/moznion/go-optional"
)

type Status int

const (
	StatusIdle Status = iota
	StatusValidating
	StatusPending
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusValidating:
		return "Validating"
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// InFlight reports whether an attempt in this status blocks new submissions.
func (s Status) InFlight() bool {
	return s == StatusValidating || s == StatusPending
}

func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

var transitions = map[Status][]Status{
	StatusIdle:       {StatusValidating},
	StatusValidating: {StatusPending, StatusFailed},
	StatusPending:    {StatusConfirmed, StatusFailed},
	StatusConfirmed:  {StatusIdle},
	StatusFailed:     {StatusIdle},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// VoteIntent is what the user has picked so far.
type VoteIntent struct {
	Selection   optional.Option[int]
	StakeAmount string
}

// TransactionRecord tracks a single vote attempt.
type TransactionRecord struct {
	AttemptID uuid.UUID
	Status    Status
	TxHash    optional.Option[ethCommon.Hash]
	Reason    optional.Option[common.ErrorReason]

	// set once Confirmed
	BlockNumber optional.Option[uint64]
	GasUsed     optional.Option[uint64]
}

// Validate checks intent against a poll with optionCount options and returns
// the stake in wei.
func Validate(intent VoteIntent, optionCount int) (*uint256.Int, error) {
	if intent.Selection.IsNone() {
		return nil, common.ErrMissingSelection
	}
	if idx := intent.Selection.Unwrap(); idx < 0 || idx >= optionCount {
		return nil, fmt.Errorf("%w: option %d of %d", common.ErrMissingSelection, idx, optionCount)
	}
	return ParseStake(intent.StakeAmount)
}
