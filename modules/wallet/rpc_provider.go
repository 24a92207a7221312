package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"poll-voter/modules/common"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// EIP-1193 "User Rejected Request"
	codeUserRejected = 4001
	// EIP-1193 "Unauthorized"
	codeUnauthorized   = 4100
	codeMethodNotFound = -32601
)

// RPCProvider talks to an external signer (clef, a node with unlocked
// accounts or a wallet bridge) over JSON-RPC.
type RPCProvider struct {
	client *rpc.Client
}

var _ Provider = &RPCProvider{}

func NewRPCProvider(client *rpc.Client) *RPCProvider {
	return &RPCProvider{client: client}
}

func DialRPCProvider(ctx context.Context, endpoint string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
	}
	return NewRPCProvider(client), nil
}

func (p *RPCProvider) Close() {
	p.client.Close()
}

// RequestAccounts implements Provider. Signers without eth_requestAccounts
// fall back to eth_accounts.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]ethCommon.Address, error) {
	var accounts []ethCommon.Address
	err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if rpcErrorCode(err) == codeMethodNotFound {
		err = p.client.CallContext(ctx, &accounts, "eth_accounts")
	}
	if err != nil {
		return nil, classifyRPCError(err)
	}
	return accounts, nil
}

// Signer implements Provider.
func (p *RPCProvider) Signer(account ethCommon.Address) (Signer, error) {
	return &rpcSigner{client: p.client, account: account}, nil
}

type rpcSigner struct {
	client  *rpc.Client
	account ethCommon.Address
}

type signTxArgs struct {
	From                 ethCommon.Address  `json:"from"`
	To                   *ethCommon.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64     `json:"gas"`
	GasPrice             *hexutil.Big       `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big       `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big       `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big       `json:"value"`
	Nonce                hexutil.Uint64     `json:"nonce"`
	Data                 hexutil.Bytes      `json:"data"`
	ChainID              *hexutil.Big       `json:"chainId"`
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (s *rpcSigner) Account() ethCommon.Address {
	return s.account
}

func (s *rpcSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	args := signTxArgs{
		From:    s.account,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}

	var res signTxResult
	if err := s.client.CallContext(ctx, &res, "eth_signTransaction", args); err != nil {
		if code := rpcErrorCode(err); code == codeUserRejected || code == codeUnauthorized {
			return nil, fmt.Errorf("%w: %s", common.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(res.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		return nil, fmt.Errorf("failed to recover signer: %w", err)
	}
	if sender != s.account {
		return nil, fmt.Errorf("signed by %s, expected %s", sender.Hex(), s.account.Hex())
	}
	return signed, nil
}

func rpcErrorCode(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}

func classifyRPCError(err error) error {
	switch rpcErrorCode(err) {
	case codeUserRejected, codeUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrUserRejected, err)
	default:
		return fmt.Errorf("%w: %w", common.ErrWalletUnavailable, err)
	}
}
