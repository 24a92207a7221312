package client

import (
	"poll-voter/modules/config"
)

const DefaultStake = "0.01"

type clientConfig struct {
	DefaultStake string `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warn error"`
}

type clientConfigStruct struct {
	*config.Config[clientConfig]
}

type ClientConfig = *clientConfigStruct

func NewClientConfig(dataDir ...string) ClientConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return &clientConfigStruct{config.New(
		clientConfig{
			DefaultStake: DefaultStake,
			LogLevel:     "info",
		},
		dataDirPtr,
		config.WithEnv("POLL_VOTER_CLIENT"),
	)}
}
