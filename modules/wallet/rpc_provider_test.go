package wallet_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"poll-voter/modules/common"
	"poll-voter/modules/wallet"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== mocks =====

type codedError struct {
	code int
	msg  string
}

func (e codedError) Error() string  { return e.msg }
func (e codedError) ErrorCode() int { return e.code }

type signArgs struct {
	From                 ethCommon.Address  `json:"from"`
	To                   *ethCommon.Address `json:"to"`
	Gas                  hexutil.Uint64     `json:"gas"`
	MaxFeePerGas         *hexutil.Big       `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big       `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big       `json:"value"`
	Nonce                hexutil.Uint64     `json:"nonce"`
	Data                 hexutil.Bytes      `json:"data"`
	ChainID              *hexutil.Big       `json:"chainId"`
}

type signResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

type ethService struct {
	key        *ecdsa.PrivateKey
	rejectSign bool
	rejectAll  bool
}

func (s *ethService) RequestAccounts() ([]ethCommon.Address, error) {
	if s.rejectAll {
		return nil, codedError{4001, "User rejected the request."}
	}
	return []ethCommon.Address{crypto.PubkeyToAddress(s.key.PublicKey)}, nil
}

func (s *ethService) SignTransaction(args signArgs) (*signResult, error) {
	if s.rejectSign {
		return nil, codedError{4001, "User denied transaction signature."}
	}
	chainID := args.ChainID.ToInt()
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     uint64(args.Nonce),
		GasTipCap: args.MaxPriorityFeePerGas.ToInt(),
		GasFeeCap: args.MaxFeePerGas.ToInt(),
		Gas:       uint64(args.Gas),
		To:        args.To,
		Value:     args.Value.ToInt(),
		Data:      args.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &signResult{Raw: raw}, nil
}

// only answers eth_accounts, like a plain node
type accountsOnlyService struct {
	account ethCommon.Address
}

func (s *accountsOnlyService) Accounts() []ethCommon.Address {
	return []ethCommon.Address{s.account}
}

func inProcProvider(t *testing.T, service any) *wallet.RPCProvider {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", service))
	t.Cleanup(server.Stop)

	provider := wallet.NewRPCProvider(rpc.DialInProc(server))
	t.Cleanup(provider.Close)
	return provider
}

// ===== tests =====

func TestRPCProviderConnectAndSign(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	provider := inProcProvider(t, &ethService{key: key})

	session, err := wallet.Connect(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), session.Account)

	chainID := big.NewInt(1337)
	to := ethCommon.HexToAddress("0x50db3e12E4CC885CE00aFE08a85f58BB2F08D31D")
	tx := types.NewTx(&types.DynamicFeeTx{
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(3),
		Gas:       90000,
		To:        &to,
		Value:     big.NewInt(5e16),
		Data:      []byte{0xde, 0xad},
	})

	signed, err := session.Signer.SignTx(context.Background(), tx, chainID)
	require.NoError(t, err)
	assert.Equal(t, tx.Value(), signed.Value())
	assert.Equal(t, tx.Data(), signed.Data())
	assert.Equal(t, &to, signed.To())
}

func TestRPCProviderRejections(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = wallet.Connect(context.Background(), inProcProvider(t, &ethService{key: key, rejectAll: true}))
	assert.ErrorIs(t, err, common.ErrUserRejected)

	session, err := wallet.Connect(context.Background(), inProcProvider(t, &ethService{key: key, rejectSign: true}))
	require.NoError(t, err)

	to := ethCommon.Address{1}
	tx := types.NewTx(&types.DynamicFeeTx{GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(1), To: &to, Value: big.NewInt(0)})
	_, err = session.Signer.SignTx(context.Background(), tx, big.NewInt(1))
	assert.ErrorIs(t, err, common.ErrUserRejected)
}

func TestRPCProviderFallsBackToAccounts(t *testing.T) {
	account := ethCommon.HexToAddress("0x00000000000000000000000000000000000000aa")
	provider := inProcProvider(t, &accountsOnlyService{account: account})

	accounts, err := provider.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ethCommon.Address{account}, accounts)
}
