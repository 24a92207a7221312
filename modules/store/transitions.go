package store

import (
	"poll-voter/modules/common"
	"poll-voter/modules/vote"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/moznion/go-optional"
)

const (
	MsgSelectOption = "Please select a voting option."
	MsgInvalidStake = "Invalid ETH amount."
	MsgWaiting      = "Waiting for transaction to confirm..."
	MsgSubmitted    = "Your vote has been submitted!"
	MsgFailed       = "Transaction failed."
	MsgLoadFailed   = "Failed to load contract or connect to wallet."
	MsgRejected     = "Request rejected in wallet."
	MsgPending      = "A vote is already pending."
	MsgTimeout      = "Timed out waiting for confirmation. The transaction may still be mined."
)

// Message maps a failure reason to the text shown to the user.
func Message(reason common.ErrorReason) string {
	switch reason {
	case common.ReasonMissingSelection:
		return MsgSelectOption
	case common.ReasonInvalidAmount:
		return MsgInvalidStake
	case common.ReasonUserRejected:
		return MsgRejected
	case common.ReasonAlreadyPending:
		return MsgPending
	case common.ReasonTimeout:
		return MsgTimeout
	case common.ReasonWalletUnavailable, common.ReasonContractUnreachable, common.ReasonMalformedResponse:
		return MsgLoadFailed
	default:
		return MsgFailed
	}
}

func Connected(account ethCommon.Address) Transition {
	return func(s Snapshot) Snapshot {
		s.Account = optional.Some(account)
		s.Connected = true
		s.Fatal = false
		s.Message = ""
		return s
	}
}

// ConnectFailed is fatal: nothing else can happen without a wallet.
func ConnectFailed(reason common.ErrorReason) Transition {
	return func(s Snapshot) Snapshot {
		s.Account = optional.None[ethCommon.Address]()
		s.Connected = false
		s.Fatal = true
		if reason == common.ReasonUserRejected {
			s.Message = MsgRejected
		} else {
			s.Message = MsgLoadFailed
		}
		return s
	}
}

func Disconnected() Transition {
	return func(s Snapshot) Snapshot {
		s.Connected = false
		return s
	}
}

func MetadataLoaded(question string, options []string) Transition {
	return func(s Snapshot) Snapshot {
		s = withOptions(s, options)
		s.Question = question
		if s.Message == MsgLoadFailed {
			s.Message = ""
		}
		return s
	}
}

// MetadataFailed leaves the poll empty but keeps the client usable so the
// fetch can be retried.
func MetadataFailed() Transition {
	return func(s Snapshot) Snapshot {
		s = withOptions(s, nil)
		s.Question = ""
		s.Selection = optional.None[int]()
		s.Message = MsgLoadFailed
		return s
	}
}

// OptionSelected ignores indexes outside the loaded options.
func OptionSelected(index int) Transition {
	return func(s Snapshot) Snapshot {
		if index < 0 || index >= len(s.Options) {
			s.Message = MsgSelectOption
			return s
		}
		s.Selection = optional.Some(index)
		return clearOutcome(s)
	}
}

func StakeChanged(amount string) Transition {
	return func(s Snapshot) Snapshot {
		s.StakeAmount = amount
		return clearOutcome(s)
	}
}

func TxUpdated(rec vote.TransactionRecord) Transition {
	return func(s Snapshot) Snapshot {
		s.Tx = rec
		switch rec.Status {
		case vote.StatusIdle, vote.StatusValidating:
			s.Message = ""
		case vote.StatusPending:
			s.Message = MsgWaiting
		case vote.StatusConfirmed:
			s.Message = MsgSubmitted
		case vote.StatusFailed:
			s.Message = Message(rec.Reason.TakeOr(common.ReasonTransactionReverted))
		}
		return s
	}
}

// Rejected reports a vote that was refused before an attempt started.
func Rejected(reason common.ErrorReason) Transition {
	return func(s Snapshot) Snapshot {
		s.Message = Message(reason)
		return s
	}
}

// clearOutcome drops the message of a finished attempt once the user edits
// the intent. The record itself is reset by the submitter.
func clearOutcome(s Snapshot) Snapshot {
	switch {
	case s.Tx.Status.InFlight():
	case s.Tx.Status.Terminal(), s.Message == MsgSelectOption, s.Message == MsgInvalidStake, s.Message == MsgPending:
		s.Message = ""
	}
	return s
}
