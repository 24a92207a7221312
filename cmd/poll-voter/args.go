package main

import (
	"flag"
	"fmt"
	"os"
)

type args struct {
	dataDir     string
	option      int
	stake       string
	yes         bool
	watch       bool
	interactive bool
	plain       bool
}

func ParseArgs() (args, error) {
	flag.Usage = func() {
		fmt.Printf("poll-voter - cast a stake-weighted vote on an on-chain poll.\n\n")
		fmt.Printf("Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	dataDir := flag.String("data-dir", "data", "Directory holding config/*.json and an optional .env")
	option := flag.Int("option", -1, "Index of the option to vote for, omit to only show the poll")
	stake := flag.String("stake", "", "Stake in ETH sent with the vote (defaults to the configured stake)")
	yes := flag.Bool("yes", false, "Grant account access without prompting")
	watch := flag.Bool("watch", false, "Print every state change instead of just the outcome")
	interactive := flag.Bool("i", false, "Pick the option and stake interactively")
	plain := flag.Bool("plain", false, "Disable colors and log as plain text")

	flag.Parse()

	if *option < -1 {
		return args{}, fmt.Errorf("invalid -option %d", *option)
	}
	if *interactive && *option >= 0 {
		return args{}, fmt.Errorf("-i and -option are mutually exclusive")
	}

	return args{
		*dataDir,
		*option,
		*stake,
		*yes,
		*watch,
		*interactive,
		*plain,
	}, nil
}
