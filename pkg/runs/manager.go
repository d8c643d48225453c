// Package runs tracks in-flight pipeline executions.
package runs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrAlreadyRunning is returned when a run id is launched while a walk with
// the same id is still in flight.
var ErrAlreadyRunning = errors.New("run already in flight")

// Manager launches pipeline walks on background goroutines and keeps a
// cancel registry so shutdown can drain them.
type Manager struct {
	logger *slog.Logger

	// Run cancel registry: run_id -> cancel function
	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		logger: slog.With("component", "run_manager"),
		active: make(map[string]context.CancelFunc),
	}
}

// Launch runs fn on a goroutine registered under runID. The context handed
// to fn is detached from the caller's request and cancelled by Stop. A
// second launch for an id still in flight returns ErrAlreadyRunning.
func (m *Manager) Launch(runID string, fn func(ctx context.Context)) error {
	m.mu.Lock()
	if _, ok := m.active[runID]; ok {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.active[runID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.unregister(runID)
		fn(ctx)
	}()
	return nil
}

// InFlight reports whether a walk for runID is currently registered.
func (m *Manager) InFlight(runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[runID]
	return ok
}

// Active returns the number of runs in flight.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Stop cancels every in-flight run and waits for their goroutines to
// finish, bounded by ctx.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	count := len(m.active)
	for runID, cancel := range m.active {
		m.logger.Info("Cancelling run", "run_id", runID)
		cancel()
	}
	m.mu.Unlock()

	if count > 0 {
		m.logger.Info("Waiting for active runs to finish", "count", count)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) unregister(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.active[runID]; ok {
		cancel()
		delete(m.active, runID)
	}
}
