package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribersOfThatType(t *testing.T) {
	b := New(zerolog.Nop())
	defer b.Close()

	var wrapped, loaded atomic.Int32
	b.Subscribe(EventItemWrapped, func(e DomainEvent) {
		ev, ok := e.(ItemWrappedEvent)
		require.True(t, ok)
		assert.Equal(t, "7", ev.UID)
		wrapped.Add(1)
	})
	b.Subscribe(EventBatchLoaded, func(DomainEvent) { loaded.Add(1) })

	b.Publish(ItemWrappedEvent{UID: "7", FromKey: "a", ToKey: "b"})

	require.Eventually(t, func() bool { return wrapped.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return loaded.Load() != 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(zerolog.Nop())
	defer b.Close()

	var first, second atomic.Int32
	unsubscribe := b.Subscribe(EventPauseChanged, func(DomainEvent) { first.Add(1) })
	b.Subscribe(EventPauseChanged, func(DomainEvent) { second.Add(1) })

	unsubscribe()
	unsubscribe() // second call is harmless

	b.Publish(PauseChangedEvent{Paused: true})

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	b := New(zerolog.Nop())
	defer b.Close()

	var calls atomic.Int32
	b.Subscribe(EventBatchFailed, func(DomainEvent) { panic("boom") })
	b.Subscribe(EventBatchFailed, func(DomainEvent) { calls.Add(1) })

	b.Publish(BatchFailedEvent{Offset: 3})
	b.Publish(BatchFailedEvent{Offset: 4})

	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := New(zerolog.Nop())

	var calls atomic.Int32
	b.Subscribe(EventEngineDisposed, func(DomainEvent) { calls.Add(1) })

	b.Close()
	b.Close()
	b.Publish(EngineDisposedEvent{EngineID: "x"})

	assert.Never(t, func() bool { return calls.Load() != 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
