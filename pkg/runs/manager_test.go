package runs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchRejectsDuplicateRunID(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})

	err := m.Launch("run-1", func(ctx context.Context) {
		<-release
	})
	require.NoError(t, err)
	assert.True(t, m.InFlight("run-1"))

	err = m.Launch("run-1", func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// A different id is unaffected.
	err = m.Launch("run-2", func(ctx context.Context) {})
	require.NoError(t, err)

	close(release)
	require.NoError(t, m.Stop(context.Background()))
}

func TestLaunchUnregistersWhenDone(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Launch("run-1", func(ctx context.Context) {}))

	require.Eventually(t, func() bool {
		return !m.InFlight("run-1")
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, m.Active())

	// The id is reusable once the walk finished.
	require.NoError(t, m.Launch("run-1", func(ctx context.Context) {}))
	require.NoError(t, m.Stop(context.Background()))
}

func TestStopCancelsInFlightRuns(t *testing.T) {
	m := NewManager()
	cancelled := make(chan struct{})

	require.NoError(t, m.Launch("run-1", func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	}))

	require.NoError(t, m.Stop(context.Background()))

	select {
	case <-cancelled:
	default:
		t.Fatal("run context was not cancelled")
	}
	assert.Zero(t, m.Active())
}

func TestStopHonorsDeadline(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	defer close(release)

	// This walk ignores cancellation.
	require.NoError(t, m.Launch("run-1", func(ctx context.Context) {
		<-release
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStopWithNothingInFlight(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Stop(context.Background()))
}
