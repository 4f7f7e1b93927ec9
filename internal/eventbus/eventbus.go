package eventbus

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"loopscroll/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventWindowMaterialized    = domain.EventWindowMaterialized
	EventItemWrapped           = domain.EventItemWrapped
	EventWaitStarted           = domain.EventWaitStarted
	EventWaitFinished          = domain.EventWaitFinished
	EventBatchLoaded           = domain.EventBatchLoaded
	EventBatchFailed           = domain.EventBatchFailed
	EventCapabilityUnavailable = domain.EventCapabilityUnavailable
	EventPauseChanged          = domain.EventPauseChanged
	EventEngineDisposed        = domain.EventEngineDisposed
	EventConfigLoaded          = domain.EventConfigLoaded
	EventConfigSaved           = domain.EventConfigSaved
)

// Re-export domain event types
type WindowMaterializedEvent = domain.WindowMaterializedEvent
type ItemWrappedEvent = domain.ItemWrappedEvent
type WaitStartedEvent = domain.WaitStartedEvent
type WaitFinishedEvent = domain.WaitFinishedEvent
type BatchLoadedEvent = domain.BatchLoadedEvent
type BatchFailedEvent = domain.BatchFailedEvent
type CapabilityUnavailableEvent = domain.CapabilityUnavailableEvent
type PauseChangedEvent = domain.PauseChangedEvent
type EngineDisposedEvent = domain.EngineDisposedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

// New creates a new event bus
func New(logger zerolog.Logger) EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    logger.With().Str("component", "eventbus").Logger(),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	// Skip logging for high-frequency events
	switch event.Type() {
	case EventItemWrapped, EventWaitStarted, EventWaitFinished:
	default:
		b.logger.Debug().Str("event", string(event.Type())).Msg("publishing event")
	}

	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn().Str("event", string(event.Type())).Msg("event bus channel full, dropping event")
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher; pending events are discarded
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			// Copy to avoid holding the lock during handler execution
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			handlers := make([]EventHandler, len(subs))
			for i, s := range subs {
				handlers[i] = s.handler
			}
			b.mu.RUnlock()

			for _, handler := range handlers {
				go b.deliver(handler, event)
			}

		case <-b.quit:
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}

func (b *bus) deliver(h EventHandler, event DomainEvent) {
	var pc panics.Catcher
	pc.Try(func() { h(event) })
	if r := pc.Recovered(); r != nil {
		b.logger.Error().
			Str("event", string(event.Type())).
			Interface("panic", r.Value).
			Str("stack", string(r.Stack)).
			Msg("event handler panic")
	}
}
