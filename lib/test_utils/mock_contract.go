package test_utils

import (
	"context"
	"sync"

	"poll-voter/modules/ledger"
	"poll-voter/modules/wallet"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

type MockVote struct {
	From   ethCommon.Address
	Option uint64
	Value  *uint256.Int
}

// MockContract is an in-memory poll. Receipts stay unmined until
// SetReceipt is called for their hash.
type MockContract struct {
	mu sync.Mutex

	QuestionText string
	OptionList   []string
	ReadErr      error
	BroadcastErr error
	ReceiptErr   error

	// NextHash is returned by the next StakeAndVote. A zero value derives a
	// hash from the vote count.
	NextHash ethCommon.Hash

	Votes    []MockVote
	receipts map[ethCommon.Hash]*types.Receipt
	Reads    int
}

var _ ledger.PollContract = &MockContract{}

func NewMockContract(question string, options ...string) *MockContract {
	return &MockContract{
		QuestionText: question,
		OptionList:   options,
		receipts:     map[ethCommon.Hash]*types.Receipt{},
	}
}

func (m *MockContract) Question(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return m.QuestionText, nil
}

func (m *MockContract) Options(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.OptionList, nil
}

func (m *MockContract) StakeAndVote(ctx context.Context, signer wallet.Signer, optionIndex uint64, value *uint256.Int) (ethCommon.Hash, error) {
	if _, err := signer.SignTx(ctx, types.NewTx(&types.DynamicFeeTx{}), nil); err != nil {
		return ethCommon.Hash{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BroadcastErr != nil {
		return ethCommon.Hash{}, m.BroadcastErr
	}
	m.Votes = append(m.Votes, MockVote{
		From:   signer.Account(),
		Option: optionIndex,
		Value:  value.Clone(),
	})
	hash := m.NextHash
	if hash == (ethCommon.Hash{}) {
		hash = ethCommon.BigToHash(uint256.NewInt(uint64(len(m.Votes))).ToBig())
	}
	m.NextHash = ethCommon.Hash{}
	return hash, nil
}

func (m *MockContract) Receipt(ctx context.Context, hash ethCommon.Hash) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReceiptErr != nil {
		return nil, m.ReceiptErr
	}
	r, ok := m.receipts[hash]
	if !ok {
		return nil, ledger.ErrNotMined
	}
	return r, nil
}

// SetReceipt mines hash with the given status (types.ReceiptStatusSuccessful
// or types.ReceiptStatusFailed).
func (m *MockContract) SetReceipt(hash ethCommon.Hash, status uint64, blockNumber uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[hash] = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: uint256.NewInt(blockNumber).ToBig(),
		GasUsed:     51_000,
	}
}

func (m *MockContract) VoteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Votes)
}

func (m *MockContract) SetReadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadErr = err
}
