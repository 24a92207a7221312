package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"poll-voter/lib/logger"
	"poll-voter/modules/aggregate"
	"poll-voter/modules/client"
	"poll-voter/modules/common"
	"poll-voter/modules/ledger"
	"poll-voter/modules/store"
	"poll-voter/modules/vote"
	"poll-voter/modules/wallet"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
)

func main() {
	args, err := ParseArgs()
	if err != nil {
		fmt.Println("error is", err)
		os.Exit(2)
	}
	os.Exit(run(args))
}

func run(args args) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// secrets usually live in .env, real environment variables win
	for _, f := range []string{filepath.Join(args.dataDir, ".env"), ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			pterm.Warning.Printfln("failed to load %s: %v", f, err)
		}
	}

	clientConf := client.NewClientConfig(args.dataDir)
	ledgerConf := ledger.NewLedgerConfig(args.dataDir)
	walletConf := wallet.NewWalletConfig(args.dataDir)
	if err := aggregate.New([]aggregate.Plugin{clientConf, ledgerConf, walletConf}).Init(); err != nil {
		pterm.Error.Println(err)
		return 1
	}

	if args.plain {
		pterm.DisableStyling()
	}
	log := newLogger(clientConf.Get().LogLevel, args.plain)

	provider, err := wallet.NewProvider(ctx, walletConf, approver(args.yes))
	if err != nil {
		log.Error("no wallet", "err", err)
		pterm.Error.Println(store.MsgLoadFailed)
		return 1
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		defer closer.Close()
	}

	conf := ledgerConf.Get()
	contract := ledger.New(ledgerConf, log)
	c := client.New(clientConf, provider, contract, vote.WaitPolicy{
		PollInterval: conf.ReceiptPollInterval,
		Timeout:      conf.ReceiptTimeout,
	}, log)

	a := aggregate.New([]aggregate.Plugin{contract, c})
	if err := a.Init(); err != nil {
		log.Error("init failed", "err", err)
		pterm.Error.Println(store.MsgLoadFailed)
		return 1
	}
	defer a.Stop()

	if args.watch {
		unsubscribe := c.Subscribe(printSnapshot)
		defer unsubscribe()
	}

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Connecting to wallet and loading poll...")
	err = awaitStart(ctx, a, c)
	spinner.Stop()
	if err != nil {
		printMessage(c.Snapshot())
		log.Debug("start failed", "err", err)
		return 1
	}

	snap := c.Snapshot()
	if !args.watch {
		printSnapshot(snap)
	}
	if snap.Question == "" && len(snap.Options) == 0 {
		return 1
	}

	option, stake := args.option, args.stake
	if args.interactive {
		option, stake, err = prompt(snap)
		if err != nil {
			pterm.Error.Println(err)
			return 1
		}
	}
	if option < 0 {
		return 0
	}

	if err := c.SelectOption(option); err != nil {
		printMessage(c.Snapshot())
		return 1
	}
	if stake != "" {
		// enforced when voting
		_ = c.SetStake(stake)
	}

	if !args.watch {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(store.MsgWaiting)
	}
	rec, err := awaitVote(ctx, a, c.Vote())
	if !args.watch {
		spinner.Stop()
		printSnapshot(c.Snapshot())
	}
	if err != nil {
		log.Debug("vote failed", "err", err, "reason", common.ReasonOf(err).TakeOr(""))
		return 1
	}
	log.Info("vote recorded", "tx", rec.TxHash.Unwrap().Hex())
	return 0
}

func newLogger(level string, plain bool) *slog.Logger {
	if plain {
		return logger.New(level, os.Stderr)
	}

	var ptermLevel pterm.LogLevel
	switch logger.ParseLevel(level) {
	case slog.LevelDebug:
		ptermLevel = pterm.LogLevelDebug
	case slog.LevelWarn:
		ptermLevel = pterm.LogLevelWarn
	case slog.LevelError:
		ptermLevel = pterm.LogLevelError
	default:
		ptermLevel = pterm.LogLevelInfo
	}
	return slog.New(pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(ptermLevel).WithWriter(os.Stderr)))
}

func approver(yes bool) wallet.Approver {
	if yes {
		return wallet.AlwaysApprove
	}
	return func(account ethCommon.Address) bool {
		ok, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText(fmt.Sprintf("Allow poll-voter to use account %s?", account.Hex())).
			Show()
		return err == nil && ok
	}
}

func prompt(snap store.Snapshot) (int, string, error) {
	selected, err := pterm.DefaultInteractiveSelect.
		WithDefaultText("Select your option").
		WithOptions(snap.Options).
		Show()
	if err != nil {
		return -1, "", err
	}
	stake, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Stake in ETH").
		WithDefaultValue(snap.StakeAmount).
		Show()
	if err != nil {
		return -1, "", err
	}
	return slices.Index(snap.Options, selected), stake, nil
}
