package store

import (
	"sync"

	"poll-voter/lib/utils"
	"poll-voter/modules/vote"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/moznion/go-optional"
)

// Snapshot is one immutable view of the client. Observers must not modify
// the Options slice.
type Snapshot struct {
	Version uint64

	Account   optional.Option[ethCommon.Address]
	Connected bool

	Question string
	Options  []string

	Selection   optional.Option[int]
	StakeAmount string

	Tx      vote.TransactionRecord
	Message string
	// Fatal is set when the client cannot continue, e.g. no wallet.
	Fatal bool
}

func (s Snapshot) Intent() vote.VoteIntent {
	return vote.VoteIntent{
		Selection:   s.Selection,
		StakeAmount: s.StakeAmount,
	}
}

// Transition derives the next snapshot. It must not mutate its input.
type Transition func(Snapshot) Snapshot

type Observer func(Snapshot)

type Store struct {
	mu        sync.Mutex
	current   Snapshot
	observers map[uint64]Observer
	nextID    uint64

	// serialises notification so observers see versions in order
	notifyMu sync.Mutex
}

func New(initial Snapshot) *Store {
	return &Store{
		current:   initial,
		observers: map[uint64]Observer{},
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch applies t and notifies every observer with the result.
func (s *Store) Dispatch(t Transition) Snapshot {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := t(s.current)
	next.Version = s.current.Version + 1
	s.current = next
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(next)
	}
	return next
}

// Subscribe registers fn and returns a func that removes it again. fn runs
// on the dispatching goroutine and must not call Dispatch itself.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
		})
	}
}

func withOptions(s Snapshot, options []string) Snapshot {
	s.Options = utils.Clone(options)
	if s.Options == nil {
		s.Options = []string{}
	}
	return s
}
