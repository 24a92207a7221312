package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"poll-voter/lib/logger"
	"poll-voter/modules/aggregate"
	"poll-voter/modules/common"
	"poll-voter/modules/wallet"

	"github.com/chebyrash/promise"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
)

//go:embed abi/PollWithPoS.json
var pollABIJSON string

var PollABI = mustParseABI(pollABIJSON)

// ErrNotMined is returned by Receipt while the transaction has no receipt yet.
var ErrNotMined = errors.New("transaction not yet mined")

// PollContract is the fixed interface of the on-chain poll.
type PollContract interface {
	Question(ctx context.Context) (string, error)
	Options(ctx context.Context) ([]string, error)
	StakeAndVote(ctx context.Context, signer wallet.Signer, optionIndex uint64, value *uint256.Int) (ethCommon.Hash, error)
	Receipt(ctx context.Context, hash ethCommon.Hash) (*types.Receipt, error)
}

// Backend is the slice of a node client the contract needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash ethCommon.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

type EthContract struct {
	conf   LedgerConfig
	logger *slog.Logger

	address ethCommon.Address
	backend Backend
	bound   *bind.BoundContract
	client  *ethclient.Client

	chainMtx sync.Mutex
	chainID  *big.Int
}

var _ PollContract = &EthContract{}
var _ aggregate.Plugin = &EthContract{}

// New returns a contract that dials conf.RpcUrl during Init.
func New(conf LedgerConfig, parentLogger *slog.Logger) *EthContract {
	return &EthContract{
		conf:   conf,
		logger: logger.OrDiscard(parentLogger).With("service", "ledger"),
	}
}

// NewWithBackend binds the poll at address on an already connected backend.
// A zero chainID is looked up from the backend on first use.
func NewWithBackend(backend Backend, address ethCommon.Address, chainID uint64, parentLogger *slog.Logger) *EthContract {
	c := &EthContract{
		logger: logger.OrDiscard(parentLogger).With("service", "ledger"),
	}
	c.bind(backend, address, chainID)
	return c
}

func (c *EthContract) bind(backend Backend, address ethCommon.Address, chainID uint64) {
	c.backend = backend
	c.address = address
	c.bound = bind.NewBoundContract(address, PollABI, backend, backend, backend)
	if chainID != 0 {
		c.chainID = new(big.Int).SetUint64(chainID)
	}
}

// Init implements aggregate.Plugin.
func (c *EthContract) Init() error {
	if c.backend != nil {
		return nil
	}
	conf := c.conf.Get()
	client, err := ethclient.DialContext(context.Background(), conf.RpcUrl)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", conf.RpcUrl, err)
	}
	c.client = client
	c.bind(client, ethCommon.HexToAddress(conf.ContractAddress), conf.ChainId)
	c.logger.Debug("bound poll contract", "address", c.address.Hex(), "rpc", conf.RpcUrl)
	return nil
}

// Start implements aggregate.Plugin.
func (c *EthContract) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin.
func (c *EthContract) Stop() error {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
	return nil
}

func (c *EthContract) Address() ethCommon.Address {
	return c.address
}

// Question implements PollContract.
func (c *EthContract) Question(ctx context.Context) (string, error) {
	return callOne[string](ctx, c, "question")
}

// Options implements PollContract.
func (c *EthContract) Options(ctx context.Context) ([]string, error) {
	return callOne[[]string](ctx, c, "getOptions")
}

// StakeAndVote implements PollContract. The stake travels as msg.value.
func (c *EthContract) StakeAndVote(
	ctx context.Context,
	signer wallet.Signer,
	optionIndex uint64,
	value *uint256.Int,
) (ethCommon.Hash, error) {
	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return ethCommon.Hash{}, err
	}

	wei := new(big.Int)
	if value != nil {
		wei = value.ToBig()
	}

	opts := &bind.TransactOpts{
		From:    signer.Account(),
		Value:   wei,
		Context: ctx,
		Signer: func(from ethCommon.Address, tx *types.Transaction) (*types.Transaction, error) {
			if from != signer.Account() {
				return nil, bind.ErrNotAuthorized
			}
			return signer.SignTx(ctx, tx, chainID)
		},
	}

	tx, err := c.bound.Transact(opts, "stakeAndVote", new(big.Int).SetUint64(optionIndex))
	if err != nil {
		return ethCommon.Hash{}, classifyTransactErr(err)
	}

	c.logger.Info("vote broadcast",
		"tx", tx.Hash().Hex(),
		"option", optionIndex,
		"wei", wei.String(),
		"from", signer.Account().Hex(),
	)
	return tx.Hash(), nil
}

// Receipt implements PollContract.
func (c *EthContract) Receipt(ctx context.Context, hash ethCommon.Hash) (*types.Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrNotMined
		}
		return nil, fmt.Errorf("%w: %w", common.ErrContractUnreachable, err)
	}
	return receipt, nil
}

func (c *EthContract) resolveChainID(ctx context.Context) (*big.Int, error) {
	c.chainMtx.Lock()
	defer c.chainMtx.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %w", common.ErrContractUnreachable, err)
	}
	c.chainID = id
	return id, nil
}

func callOne[T any](ctx context.Context, c *EthContract, method string) (T, error) {
	var zero T

	input, err := PollABI.Pack(method)
	if err != nil {
		return zero, err
	}

	data, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: input}, nil)
	if err != nil {
		return zero, fmt.Errorf("%w: %s(): %w", common.ErrContractUnreachable, method, err)
	}

	if len(data) == 0 {
		code, err := c.backend.CodeAt(ctx, c.address, nil)
		if err != nil {
			return zero, fmt.Errorf("%w: %s(): %w", common.ErrContractUnreachable, method, err)
		}
		if len(code) == 0 {
			return zero, fmt.Errorf("%w: no contract code at %s", common.ErrContractUnreachable, c.address.Hex())
		}
		return zero, fmt.Errorf("%w: %s() returned no data", common.ErrMalformedResponse, method)
	}

	values, err := PollABI.Unpack(method, data)
	if err != nil {
		return zero, fmt.Errorf("%w: %s(): %w", common.ErrMalformedResponse, method, err)
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("%w: %s() returned %d values", common.ErrMalformedResponse, method, len(values))
	}
	out, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s() returned %T", common.ErrMalformedResponse, method, values[0])
	}
	return out, nil
}

func classifyTransactErr(err error) error {
	switch {
	case errors.Is(err, common.ErrUserRejected):
		return err
	case strings.Contains(err.Error(), "execution reverted"):
		return fmt.Errorf("%w: %w", common.ErrTransactionReverted, err)
	default:
		return fmt.Errorf("%w: %w", common.ErrContractUnreachable, err)
	}
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Errorf("invalid poll abi: %w", err))
	}
	return parsed
}
