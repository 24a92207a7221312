package main

import (
	"strings"

	"poll-voter/modules/store"
	"poll-voter/modules/vote"

	"github.com/pterm/pterm"
)

func renderSnapshot(s store.Snapshot) string {
	var b strings.Builder

	account := "not connected"
	if s.Account.IsSome() {
		account = s.Account.Unwrap().Hex()
	}
	b.WriteString(pterm.Sprintfln("Account:  %s", account))

	question := s.Question
	if question == "" {
		question = "(poll not loaded)"
	}
	b.WriteString(pterm.Sprintfln("Question: %s", pterm.LightCyan(question)))

	for i, option := range s.Options {
		marker := "  "
		if s.Selection.IsSome() && s.Selection.Unwrap() == i {
			marker = pterm.LightGreen("> ")
		}
		b.WriteString(pterm.Sprintfln("%s%d. %s", marker, i, option))
	}

	b.WriteString(pterm.Sprintfln("Stake:    %s ETH", s.StakeAmount))
	b.WriteString(pterm.Sprintf("Status:   %s", s.Tx.Status))
	if s.Tx.TxHash.IsSome() {
		b.WriteString(pterm.Sprintf("\nTx:       %s", s.Tx.TxHash.Unwrap().Hex()))
	}
	if s.Tx.BlockNumber.IsSome() {
		b.WriteString(pterm.Sprintf("\nBlock:    %d (gas %d)", s.Tx.BlockNumber.Unwrap(), s.Tx.GasUsed.TakeOr(0)))
	}
	return b.String()
}

func printSnapshot(s store.Snapshot) {
	pterm.DefaultBox.WithTitle("poll-voter").WithHorizontalPadding(2).Println(renderSnapshot(s))
	printMessage(s)
}

func printMessage(s store.Snapshot) {
	if s.Message == "" {
		return
	}
	switch {
	case s.Fatal, s.Tx.Status == vote.StatusFailed, s.Message == store.MsgLoadFailed:
		pterm.Error.Println(s.Message)
	case s.Tx.Status == vote.StatusConfirmed:
		pterm.Success.Println(s.Message)
	default:
		pterm.Info.Println(s.Message)
	}
}
