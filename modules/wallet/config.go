package wallet

import (
	"context"
	"fmt"

	"poll-voter/modules/common"
	"poll-voter/modules/config"
)

const (
	ModeKey = "key"
	ModeRPC = "rpc"
)

type walletConfig struct {
	Mode         string `validate:"oneof=key rpc"`
	KeystorePath string
	SignerUrl    string `validate:"omitempty,url"`

	// secrets come from the environment only
	Passphrase string `json:"-"`
	PrivateKey string `json:"-"`
}

type walletConfigStruct struct {
	*config.Config[walletConfig]
}

type WalletConfig = *walletConfigStruct

func NewWalletConfig(dataDir ...string) WalletConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return &walletConfigStruct{config.New(
		walletConfig{
			Mode: ModeKey,
		},
		dataDirPtr,
		config.WithEnv("POLL_VOTER_WALLET"),
	)}
}

// NewProvider builds the wallet capability described by conf. A missing key
// or signer is reported as common.ErrWalletUnavailable.
func NewProvider(ctx context.Context, conf WalletConfig, approver Approver) (Provider, error) {
	c := conf.Get()
	switch c.Mode {
	case ModeRPC:
		if c.SignerUrl == "" {
			return nil, fmt.Errorf("%w: no signer url configured", common.ErrWalletUnavailable)
		}
		return DialRPCProvider(ctx, c.SignerUrl)
	default:
		switch {
		case c.PrivateKey != "":
			p, err := KeyProviderFromHex(c.PrivateKey, approver)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
			}
			return p, nil
		case c.KeystorePath != "":
			p, err := KeyProviderFromKeystore(c.KeystorePath, c.Passphrase, approver)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
			}
			return p, nil
		default:
			return nil, fmt.Errorf("%w: no key or keystore configured", common.ErrWalletUnavailable)
		}
	}
}
