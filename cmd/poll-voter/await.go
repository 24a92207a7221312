package main

import (
	"context"

	"poll-voter/modules/aggregate"
	"poll-voter/modules/client"
	"poll-voter/modules/vote"

	"github.com/chebyrash/promise"
)

type stopper interface {
	Stop() error
}

// awaitStart starts every plugin and reports the client's own outcome first,
// so a wallet failure is not masked by the rest of the aggregate.
func awaitStart(ctx context.Context, a *aggregate.Aggregate, c *client.Client) error {
	all := a.Start()
	if _, err := c.Started().Await(ctx); err != nil {
		return err
	}
	_, err := all.Await(ctx)
	return err
}

// awaitVote waits for the vote to settle. When ctx ends first the plugins are
// stopped, which abandons the receipt wait, and the attempt is awaited until
// it settles as a Timeout.
func awaitVote(ctx context.Context, plugins stopper, p *promise.Promise[vote.TransactionRecord]) (*vote.TransactionRecord, error) {
	rec, err := p.Await(ctx)
	if err == nil || ctx.Err() == nil {
		return rec, err
	}
	if stopErr := plugins.Stop(); stopErr != nil {
		return nil, stopErr
	}
	return p.Await(context.Background())
}
