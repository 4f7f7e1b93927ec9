package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventWindowMaterialized    EventType = "WindowMaterialized"
	EventItemWrapped           EventType = "ItemWrapped"
	EventWaitStarted           EventType = "WaitStarted"
	EventWaitFinished          EventType = "WaitFinished"
	EventBatchLoaded           EventType = "BatchLoaded"
	EventBatchFailed           EventType = "BatchFailed"
	EventCapabilityUnavailable EventType = "CapabilityUnavailable"
	EventPauseChanged          EventType = "PauseChanged"
	EventEngineDisposed        EventType = "EngineDisposed"
	EventConfigLoaded          EventType = "ConfigLoaded"
	EventConfigSaved           EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// WindowMaterializedEvent is emitted when the window is (re)built from the data source
type WindowMaterializedEvent struct {
	EngineID string
	Items    int
	Sources  int // length of the loaded data
}

func (e WindowMaterializedEvent) Type() EventType { return EventWindowMaterialized }

// ItemWrappedEvent is emitted when a slot leaves the viewport and is recycled to the tail
type ItemWrappedEvent struct {
	EngineID string
	UID      string
	FromKey  string
	ToKey    string
}

func (e ItemWrappedEvent) Type() EventType { return EventItemWrapped }

// WaitStartedEvent is emitted when the scroll stops for the wait time
type WaitStartedEvent struct {
	EngineID string
	Millis   int64
}

func (e WaitStartedEvent) Type() EventType { return EventWaitStarted }

// WaitFinishedEvent is emitted when a wait elapses without being superseded
type WaitFinishedEvent struct {
	EngineID string
}

func (e WaitFinishedEvent) Type() EventType { return EventWaitFinished }

// BatchLoadedEvent is emitted when a batch from the source has been appended
type BatchLoadedEvent struct {
	EngineID string
	Offset   int
	Count    int
	Done     bool // source reported no further entries
}

func (e BatchLoadedEvent) Type() EventType { return EventBatchLoaded }

// BatchFailedEvent is emitted when a batch fetch fails
type BatchFailedEvent struct {
	EngineID string
	Offset   int
	Err      error
}

func (e BatchFailedEvent) Type() EventType { return EventBatchFailed }

// CapabilityUnavailableEvent is emitted once when a host capability is missing
type CapabilityUnavailableEvent struct {
	EngineID   string
	Capability string
}

func (e CapabilityUnavailableEvent) Type() EventType { return EventCapabilityUnavailable }

// PauseChangedEvent is emitted when the effective paused state flips
type PauseChangedEvent struct {
	EngineID string
	Paused   bool
	Reason   string
}

func (e PauseChangedEvent) Type() EventType { return EventPauseChanged }

// EngineDisposedEvent is emitted once an engine has released its resources
type EngineDisposedEvent struct {
	EngineID string
}

func (e EngineDisposedEvent) Type() EventType { return EventEngineDisposed }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
