package test_utils

import (
	"context"
	"math/big"
	"sync"

	"poll-voter/modules/wallet"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var MockAccount = ethCommon.HexToAddress("0x00000000000000000000000000000000000000aa")

// MockWallet hands out MockAccount unless Err is set.
type MockWallet struct {
	mu       sync.Mutex
	Accounts []ethCommon.Address
	Err      error
	SignErr  error
	Requests int
}

var _ wallet.Provider = &MockWallet{}

func NewMockWallet() *MockWallet {
	return &MockWallet{Accounts: []ethCommon.Address{MockAccount}}
}

func (m *MockWallet) RequestAccounts(ctx context.Context) ([]ethCommon.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Accounts, nil
}

func (m *MockWallet) Signer(account ethCommon.Address) (wallet.Signer, error) {
	return &mockSigner{account: account, wallet: m}, nil
}

type mockSigner struct {
	account ethCommon.Address
	wallet  *MockWallet
}

func (s *mockSigner) Account() ethCommon.Address {
	return s.account
}

// SignTx returns tx untouched, MockContract never checks signatures.
func (s *mockSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.wallet.mu.Lock()
	defer s.wallet.mu.Unlock()
	if s.wallet.SignErr != nil {
		return nil, s.wallet.SignErr
	}
	return tx, nil
}
