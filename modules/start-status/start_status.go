package start_status

import (
	"sync"
	"sync/atomic"

	"poll-voter/lib/utils"

	"github.com/chebyrash/promise"
)

type startStatus struct {
	started atomic.Bool
	err     atomic.Pointer[error]
	once    sync.Once

	startPromise *promise.Promise[any]

	resolvePromise func()
	rejectPromise  func(error)
}

type StartStatus = *startStatus

type Starter interface {
	Started() *promise.Promise[any]
}

var _ Starter = &startStatus{}

func New() StartStatus {
	s := &startStatus{}
	ready := make(chan struct{})
	s.startPromise = promise.New(func(resolve func(any), reject func(error)) {
		s.resolvePromise = func() { resolve(nil) }
		s.rejectPromise = reject
		close(ready)
	})
	// the executor runs on its own goroutine
	<-ready

	return s
}

// TriggerStart resolves Started. Only the first trigger of either kind counts.
func (s *startStatus) TriggerStart() {
	s.once.Do(func() {
		s.started.Store(true)
		s.resolvePromise()
	})
}

func (s *startStatus) TriggerStartFailure(err error) {
	s.once.Do(func() {
		s.err.Store(&err)
		s.rejectPromise(err)
	})
}

func (s *startStatus) Err() error {
	if e := s.err.Load(); e != nil {
		return *e
	}
	return nil
}

func (s *startStatus) Started() *promise.Promise[any] {
	if s.started.Load() {
		return utils.PromiseResolve[any](nil)
	}
	if err := s.Err(); err != nil {
		return utils.PromiseReject[any](err)
	}
	return s.startPromise
}
