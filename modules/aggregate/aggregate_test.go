package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"poll-voter/lib/utils"
	"poll-voter/modules/aggregate"

	"github.com/chebyrash/promise"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name     string
	log      *[]string
	startErr error
}

func (r *recorder) Init() error {
	*r.log = append(*r.log, "init "+r.name)
	return nil
}

func (r *recorder) Start() *promise.Promise[any] {
	if r.startErr != nil {
		return utils.PromiseReject[any](r.startErr)
	}
	return utils.PromiseResolve[any](nil)
}

func (r *recorder) Stop() error {
	*r.log = append(*r.log, "stop "+r.name)
	return nil
}

func TestRunOrdersLifecycle(t *testing.T) {
	log := []string{}
	a := aggregate.New([]aggregate.Plugin{
		&recorder{name: "a", log: &log},
		&recorder{name: "b", log: &log},
	})

	assert.NoError(t, a.Run())
	assert.Equal(t, []string{"init a", "init b", "stop b", "stop a"}, log)
}

func TestStartFailureStillStops(t *testing.T) {
	log := []string{}
	boom := errors.New("boom")
	a := aggregate.New([]aggregate.Plugin{
		&recorder{name: "a", log: &log},
		&recorder{name: "b", log: &log, startErr: boom},
	})

	assert.NoError(t, a.Init())
	_, err := a.Start().Await(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, a.Stop())
	assert.Contains(t, log, "stop a")
}
