package ledger

import (
	"time"

	"poll-voter/modules/config"
)

const DefaultContractAddress = "0x50db3e12E4CC885CE00aFE08a85f58BB2F08D31D"

type ledgerConfig struct {
	RpcUrl          string `validate:"required,url"`
	ContractAddress string `validate:"required,eth_addr"`
	// 0 means ask the node
	ChainId uint64

	ReceiptPollInterval time.Duration `validate:"gt=0"`
	ReceiptTimeout      time.Duration `validate:"gt=0,gtefield=ReceiptPollInterval"`
}

type ledgerConfigStruct struct {
	*config.Config[ledgerConfig]
}

type LedgerConfig = *ledgerConfigStruct

func NewLedgerConfig(dataDir ...string) LedgerConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return &ledgerConfigStruct{config.New(
		ledgerConfig{
			RpcUrl:              "http://127.0.0.1:8545",
			ContractAddress:     DefaultContractAddress,
			ReceiptPollInterval: 2 * time.Second,
			ReceiptTimeout:      3 * time.Minute,
		},
		dataDirPtr,
		config.WithEnv("POLL_VOTER_LEDGER"),
	)}
}
