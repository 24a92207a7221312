package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"poll-voter/modules/common"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provider is the wallet capability handed to the client at construction.
type Provider interface {
	// RequestAccounts asks the wallet for account access. It may prompt the
	// user; a declined prompt returns common.ErrUserRejected.
	RequestAccounts(ctx context.Context) ([]ethCommon.Address, error)
	// Signer returns the signing capability bound to account.
	Signer(account ethCommon.Address) (Signer, error)
}

type Signer interface {
	Account() ethCommon.Address
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Session is the live connection to the user's wallet. It is only created by
// Connect and stops being usable after Disconnect.
type Session struct {
	Provider Provider
	Signer   Signer
	Account  ethCommon.Address

	connected atomic.Bool
}

func (s *Session) Connected() bool {
	return s != nil && s.connected.Load()
}

func (s *Session) Disconnect() {
	if s != nil {
		s.connected.Store(false)
	}
}

// Connect requests account access and binds a signer to the first account.
func Connect(ctx context.Context, provider Provider) (*Session, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: no wallet provider configured", common.ErrWalletUnavailable)
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUserRejected) || errors.Is(err, common.ErrWalletUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet returned no accounts", common.ErrWalletUnavailable)
	}

	signer, err := provider.Signer(accounts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
	}

	s := &Session{
		Provider: provider,
		Signer:   signer,
		Account:  accounts[0],
	}
	s.connected.Store(true)
	return s, nil
}
