package common

import (
	"errors"

	"github.com/moznion/go-optional"
)

var (
	ErrWalletUnavailable   = errors.New("wallet unavailable")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrContractUnreachable = errors.New("poll contract unreachable")
	ErrMalformedResponse   = errors.New("malformed contract response")
	ErrMissingSelection    = errors.New("no voting option selected")
	ErrInvalidAmount       = errors.New("invalid stake amount")
	ErrAlreadyPending      = errors.New("a vote is already pending")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrTimeout             = errors.New("timed out waiting for receipt")
)

// ErrorReason is the machine readable form of a failure carried on
// transaction records and snapshots.
type ErrorReason string

const (
	ReasonWalletUnavailable   ErrorReason = "WalletUnavailable"
	ReasonUserRejected        ErrorReason = "UserRejected"
	ReasonContractUnreachable ErrorReason = "ContractUnreachable"
	ReasonMalformedResponse   ErrorReason = "MalformedResponse"
	ReasonMissingSelection    ErrorReason = "MissingSelection"
	ReasonInvalidAmount       ErrorReason = "InvalidAmount"
	ReasonAlreadyPending      ErrorReason = "AlreadyPending"
	ReasonTransactionReverted ErrorReason = "TransactionReverted"
	ReasonTimeout             ErrorReason = "Timeout"
)

var reasons = []struct {
	err    error
	reason ErrorReason
}{
	// order matters: wrapped errors may carry more than one sentinel and the
	// most specific one wins
	{ErrUserRejected, ReasonUserRejected},
	{ErrAlreadyPending, ReasonAlreadyPending},
	{ErrMissingSelection, ReasonMissingSelection},
	{ErrInvalidAmount, ReasonInvalidAmount},
	{ErrTransactionReverted, ReasonTransactionReverted},
	{ErrTimeout, ReasonTimeout},
	{ErrMalformedResponse, ReasonMalformedResponse},
	{ErrContractUnreachable, ReasonContractUnreachable},
	{ErrWalletUnavailable, ReasonWalletUnavailable},
}

// ReasonOf classifies err against the sentinel errors above.
func ReasonOf(err error) optional.Option[ErrorReason] {
	if err == nil {
		return optional.None[ErrorReason]()
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return optional.Some(r.reason)
		}
	}
	return optional.None[ErrorReason]()
}

func (r ErrorReason) String() string {
	return string(r)
}
