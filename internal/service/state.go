package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/model"
)

// Snapshot is what observers of State see.
type Snapshot struct {
	Quote            *model.Quote `json:"quote"`
	Loading          bool         `json:"loading"`
	Error            string       `json:"error,omitempty"`
	ConfigIncomplete bool         `json:"config_incomplete"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// State holds the current quote for the UI-facing collaborators and
// serializes generations through a Guard. Observers get updates through
// channels from Subscribe; a slow observer only ever misses intermediate
// snapshots, never the latest one.
type State struct {
	svc    *QuoteService
	guard  *Guard
	logger *zap.Logger

	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
}

// NewState creates a state holder. Call Open to load the cached quote.
func NewState(svc *QuoteService, guard *Guard, logger *zap.Logger) *State {
	return &State{
		svc:    svc,
		guard:  guard,
		logger: logger,
		subs:   make(map[int]chan Snapshot),
	}
}

// Service returns the pipeline behind this state.
func (s *State) Service() *QuoteService {
	return s.svc
}

// Open loads the cached quote and generates a new one when none is cached
// or today's is still due. A generation already running elsewhere is not
// an error here.
func (s *State) Open(ctx context.Context) error {
	q, err := s.svc.LastQuote(ctx)
	if err != nil {
		return err
	}
	s.update(func(sn *Snapshot) { sn.Quote = q })

	due, err := s.svc.IsDue(ctx)
	if err != nil {
		return err
	}
	if q != nil && !due {
		return nil
	}

	_, err = s.Refresh(ctx, "")
	if errors.Is(err, ErrGenerationInFlight) {
		return nil
	}
	return err
}

// Refresh generates a new quote unless one is already being generated, in
// which case it returns ErrGenerationInFlight without any network call.
func (s *State) Refresh(ctx context.Context, language string) (*model.Quote, error) {
	release, err := s.guard.TryAcquire()
	if err != nil {
		return nil, err
	}
	defer release()

	s.update(func(sn *Snapshot) {
		sn.Loading = true
		sn.Error = ""
	})

	q, err := s.svc.Generate(ctx, language)

	s.update(func(sn *Snapshot) {
		sn.Loading = false
		if err != nil {
			// The previous quote stays on display.
			sn.Error = Describe(err)
			sn.ConfigIncomplete = errors.Is(err, model.ErrConfigIncomplete)
			return
		}
		sn.Quote = q
		sn.Error = ""
		sn.ConfigIncomplete = false
	})

	return q, err
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe returns a channel that receives the current snapshot right away
// and every later one. Call the returned func to stop receiving.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.snap)
	s.snap.UpdatedAt = time.Now()

	for _, ch := range s.subs {
		// Keep only the newest snapshot in each buffer.
		select {
		case <-ch:
		default:
		}
		ch <- s.snap
	}
}
