package scroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerExecuteOK(t *testing.T) {
	var r Runner[string]

	res := r.Execute(context.Background(), func(context.Context) (string, error) {
		return "done", nil
	})

	assert.True(t, res.OK())
	assert.Equal(t, "done", res.Value)
	assert.NoError(t, res.Err)
	assert.False(t, r.IsCancellable())
}

func TestRunnerExecuteFailure(t *testing.T) {
	var r Runner[int]
	boom := errors.New("boom")

	res := r.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	})

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, IsCancelled(res.Err))
}

func TestRunnerRecoversPanic(t *testing.T) {
	var r Runner[int]

	res := r.Execute(context.Background(), func(context.Context) (int, error) {
		panic("kaboom")
	})

	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "kaboom")
}

func TestRunnerNewCallSupersedesInFlight(t *testing.T) {
	var r Runner[int]
	started := make(chan struct{})

	first := make(chan Result[int], 1)
	go func() {
		first <- r.Execute(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 1, nil
		})
	}()
	<-started

	second := r.Execute(context.Background(), func(context.Context) (int, error) {
		return 2, nil
	})

	assert.True(t, second.OK())
	assert.Equal(t, 2, second.Value)

	got := <-first
	assert.True(t, got.Cancelled())
	assert.True(t, IsCancelled(got.Err))
	assert.Zero(t, got.Value)
}

func TestRunnerCancel(t *testing.T) {
	var r Runner[int]

	run := r.Begin(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.True(t, r.IsCancellable())

	r.Cancel()
	assert.False(t, r.IsCancellable())

	res := run()
	assert.Equal(t, StatusCancelled, res.Status)
	assert.ErrorIs(t, res.Err, ErrCancelled)

	r.Cancel() // no-op once idle
}

func TestRunnerBeginKeepsRegistrationOrder(t *testing.T) {
	var r Runner[int]

	older := r.Begin(context.Background(), func(context.Context) (int, error) { return 1, nil })
	newer := r.Begin(context.Background(), func(context.Context) (int, error) { return 2, nil })

	// The newer call finishes first; the older one must still lose.
	assert.True(t, newer().OK())
	assert.True(t, older().Cancelled())
}

func TestDelay(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var r Runner[struct{}]

	done := make(chan Result[struct{}], 1)
	go func() { done <- r.Execute(context.Background(), Delay(clock, time.Second)) }()

	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, clock.Waiters())

	clock.Advance(500 * time.Millisecond)
	select {
	case res := <-done:
		assert.True(t, res.OK())
	case <-time.After(time.Second):
		t.Fatal("delay did not complete")
	}
}

func TestDelayCancelled(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var r Runner[struct{}]

	run := r.Begin(context.Background(), Delay(clock, time.Hour))
	done := make(chan Result[struct{}], 1)
	go func() { done <- run() }()

	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)
	r.Cancel()

	select {
	case res := <-done:
		assert.True(t, res.Cancelled())
	case <-time.After(time.Second):
		t.Fatal("cancelled delay did not return")
	}
}

func TestManualClockImmediateAfter(t *testing.T) {
	start := time.Unix(100, 0)
	clock := NewManualClock(start)

	select {
	case at := <-clock.After(0):
		assert.Equal(t, start, at)
	default:
		t.Fatal("zero duration should fire immediately")
	}
	assert.Equal(t, 0, clock.Waiters())
}
