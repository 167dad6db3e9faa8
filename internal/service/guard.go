package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Guard admits at most one generation at a time. Inside a process a mutex
// decides; across processes (the CLI next to a running server) an optional
// lock file does. A busy guard refuses instead of queueing.
type Guard struct {
	mu   sync.Mutex
	file *flock.Flock // nil when no lock path is configured
}

// NewGuard creates a guard. An empty lockPath keeps the guard in-process only.
func NewGuard(lockPath string) (*Guard, error) {
	g := &Guard{}
	if lockPath == "" {
		return g, nil
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	g.file = flock.New(lockPath)
	return g, nil
}

// TryAcquire returns a release func when the guard was free, and
// ErrGenerationInFlight when it was not.
func (g *Guard) TryAcquire() (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrGenerationInFlight
	}
	if g.file == nil {
		return g.mu.Unlock, nil
	}

	locked, err := g.file.TryLock()
	if err != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("acquiring generation lock: %w", err)
	}
	if !locked {
		g.mu.Unlock()
		return nil, ErrGenerationInFlight
	}

	return func() {
		_ = g.file.Unlock()
		g.mu.Unlock()
	}, nil
}
