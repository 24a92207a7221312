package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"poll-voter/lib/logger"
	"poll-voter/lib/utils"
	"poll-voter/modules/aggregate"
	"poll-voter/modules/common"
	"poll-voter/modules/ledger"
	"poll-voter/modules/poll"
	start_status "poll-voter/modules/start-status"
	"poll-voter/modules/store"
	"poll-voter/modules/vote"
	"poll-voter/modules/wallet"

	"github.com/chebyrash/promise"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/moznion/go-optional"
)

// Client owns the wallet session, the poll metadata and the vote submitter,
// and is the only writer of the state store.
type Client struct {
	conf     ClientConfig
	provider wallet.Provider
	logger   *slog.Logger

	reader    *poll.Reader
	submitter *vote.Submitter
	store     *store.Store

	ctx    context.Context
	cancel context.CancelFunc

	startStatus start_status.StartStatus

	mu       sync.Mutex
	session  *wallet.Session
	metadata optional.Option[poll.Metadata]
	// held for the duration of a metadata fetch
	fetchMu sync.Mutex
}

var _ aggregate.Plugin = &Client{}
var _ start_status.Starter = &Client{}

func New(
	conf ClientConfig,
	provider wallet.Provider,
	contract ledger.PollContract,
	policy vote.WaitPolicy,
	parentLogger *slog.Logger,
) *Client {
	log := logger.OrDiscard(parentLogger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conf:        conf,
		provider:    provider,
		logger:      log.With("service", "client"),
		reader:      poll.NewReader(contract, log),
		submitter:   vote.NewSubmitter(contract, policy, log),
		ctx:         ctx,
		cancel:      cancel,
		startStatus: start_status.New(),
	}
}

// Init implements aggregate.Plugin.
func (c *Client) Init() error {
	stake := c.conf.Get().DefaultStake
	if _, err := vote.ParseStake(stake); err != nil {
		return fmt.Errorf("default stake: %w", err)
	}

	c.store = store.New(store.Snapshot{
		Options:     []string{},
		StakeAmount: stake,
	})
	c.submitter.OnTransition(func(rec vote.TransactionRecord) {
		c.store.Dispatch(store.TxUpdated(rec))
	})
	return nil
}

// Start implements aggregate.Plugin. It connects the wallet and then loads
// the poll. Only a wallet failure rejects, a poll that cannot be loaded
// leaves the client running so RetryMetadata can be used.
func (c *Client) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		session, err := wallet.Connect(c.ctx, c.provider)
		if err != nil {
			c.logger.Error("wallet connection failed", "err", err)
			c.store.Dispatch(store.ConnectFailed(common.ReasonOf(err).TakeOr(common.ReasonWalletUnavailable)))
			c.startStatus.TriggerStartFailure(err)
			reject(err)
			return
		}

		c.mu.Lock()
		c.session = session
		c.mu.Unlock()
		c.store.Dispatch(store.Connected(session.Account))
		c.logger.Info("wallet connected", "account", session.Account.Hex())

		if _, err := c.loadMetadata(); err != nil {
			c.logger.Warn("poll not loaded", "err", err)
		}

		c.startStatus.TriggerStart()
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin.
func (c *Client) Stop() error {
	c.cancel()

	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session != nil {
		session.Disconnect()
		c.store.Dispatch(store.Disconnected())
	}
	return nil
}

// Started implements start_status.Starter.
func (c *Client) Started() *promise.Promise[any] {
	return c.startStatus.Started()
}

func (c *Client) Snapshot() store.Snapshot {
	return c.store.Snapshot()
}

func (c *Client) Subscribe(fn store.Observer) (unsubscribe func()) {
	return c.store.Subscribe(fn)
}

func (c *Client) Account() optional.Option[ethCommon.Address] {
	return c.store.Snapshot().Account
}

// SelectOption records the user's choice. Indexes outside the loaded options
// are refused with common.ErrMissingSelection.
func (c *Client) SelectOption(index int) error {
	if n := len(c.store.Snapshot().Options); index < 0 || index >= n {
		c.store.Dispatch(store.OptionSelected(index))
		return fmt.Errorf("%w: option %d of %d", common.ErrMissingSelection, index, n)
	}
	c.submitter.Reset()
	c.store.Dispatch(store.OptionSelected(index))
	return nil
}

// SetStake stores amount as typed. It returns the parse error, if any, but
// the amount is only enforced when voting.
func (c *Client) SetStake(amount string) error {
	c.submitter.Reset()
	c.store.Dispatch(store.StakeChanged(amount))
	_, err := vote.ParseStake(amount)
	return err
}

// RetryMetadata fetches the poll again after a failed load. Once loaded the
// metadata is never fetched again.
func (c *Client) RetryMetadata() *promise.Promise[poll.Metadata] {
	return promise.New(func(resolve func(poll.Metadata), reject func(error)) {
		meta, err := c.loadMetadata()
		if err != nil {
			reject(err)
			return
		}
		resolve(meta)
	})
}

// Vote submits the current intent. A vote while another is in flight is
// refused with common.ErrAlreadyPending and leaves the record untouched.
func (c *Client) Vote() *promise.Promise[vote.TransactionRecord] {
	c.mu.Lock()
	session := c.session
	meta := c.metadata.TakeOr(poll.Metadata{})
	c.mu.Unlock()

	if session == nil {
		err := fmt.Errorf("%w: not connected", common.ErrWalletUnavailable)
		c.store.Dispatch(store.Rejected(common.ReasonWalletUnavailable))
		return utils.PromiseReject[vote.TransactionRecord](err)
	}

	intent := c.store.Snapshot().Intent()
	return promise.New(func(resolve func(vote.TransactionRecord), reject func(error)) {
		rec, err := c.submitter.Submit(c.ctx, session, meta, intent)
		if err != nil {
			if errors.Is(err, common.ErrAlreadyPending) {
				c.store.Dispatch(store.Rejected(common.ReasonAlreadyPending))
			}
			reject(err)
			return
		}
		resolve(rec)
	})
}

func (c *Client) loadMetadata() (poll.Metadata, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.mu.Lock()
	session, existing := c.session, c.metadata
	c.mu.Unlock()

	if existing.IsSome() {
		return existing.Unwrap(), nil
	}

	meta, err := c.reader.FetchMetadata(c.ctx, session)
	if err != nil {
		c.store.Dispatch(store.MetadataFailed())
		return poll.Metadata{}, err
	}

	c.mu.Lock()
	c.metadata = optional.Some(meta)
	c.mu.Unlock()
	c.store.Dispatch(store.MetadataLoaded(meta.Question, meta.Options))
	return meta, nil
}
