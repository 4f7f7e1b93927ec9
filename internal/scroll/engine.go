package scroll

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"loopscroll/internal/domain"
	"loopscroll/internal/eventbus"
)

// State is the lifecycle state of an engine
type State int

const (
	StateIdle     State = iota // no data, nothing materialized
	StateRunning               // window materialized, ticks advance it
	StateDisposed              // released; every call is a no-op
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "disposed"
	}
}

// Host is the rendering layer the engine measures
type Host[T any] interface {
	ViewportElement() Element
	ItemElement(item domain.ScrollItem[T]) Element
}

// Capabilities reports which optional host capabilities are in use
type Capabilities struct {
	ResizeObservation bool
}

// Stats are running counters, mostly for status lines and tests
type Stats struct {
	Frames        uint64
	Moves         uint64
	Wraps         uint64
	Waits         uint64
	Batches       uint64
	BatchFailures uint64
	Cancelled     uint64
	Loaded        int
	Exhausted     bool
}

const (
	defaultMaxWindow  = 512
	defaultFetchRetry = time.Second
)

type options struct {
	logger     zerolog.Logger
	clock      Clock
	observer   ResizeObserver
	bus        eventbus.EventBus
	maxWindow  int
	fetchRetry time.Duration
}

// Option configures an engine at construction
type Option func(*options)

// WithLogger sets the engine's logger
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used for waits and fetch retries
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithResizeObserver provides the host's resize observation capability
func WithResizeObserver(obs ResizeObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithEventBus makes the engine publish its domain events on bus
func WithEventBus(bus eventbus.EventBus) Option {
	return func(o *options) { o.bus = bus }
}

// WithMaxWindow caps how many slots coverage extension may materialize
func WithMaxWindow(n int) Option {
	return func(o *options) { o.maxWindow = n }
}

// WithFetchRetry sets the cooldown after a failed batch fetch
func WithFetchRetry(d time.Duration) Option {
	return func(o *options) { o.fetchRetry = d }
}

// Engine scrolls an endless loop of items through a viewport. All methods
// are safe for concurrent use; Host methods are called with the engine
// locked and must not call back into it.
type Engine[T any] struct {
	mu     sync.Mutex
	id     string
	host   Host[T]
	opts   options
	logger zerolog.Logger
	state  State
	props  Props[T]

	data      []T // DataSource followed by fetched batches
	seeded    int // len(DataSource)
	exhausted bool
	cursor    int // next data index handed to a slot
	window    []*slot[T]
	ids       IDGenerator
	pool      uidPool
	viewport  domain.Size

	watcher       *ResizeWatcher
	reported      bool
	resizePending atomic.Bool

	paused     bool
	hovered    bool
	waiting    bool
	waitSeq    uint64
	sinceWait  float64
	lastPaused bool

	waitRunner  Runner[struct{}]
	fetchRunner Runner[Batch[T]]
	fetching    bool
	fetchGen    uint64
	retryAt     time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
	stats  Stats
}

// New creates an idle engine bound to host
func New[T any](host Host[T], opts ...Option) *Engine[T] {
	o := options{
		logger:     zerolog.Nop(),
		clock:      SystemClock{},
		maxWindow:  defaultMaxWindow,
		fetchRetry: defaultFetchRetry,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxWindow < 1 {
		o.maxWindow = 1
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine[T]{
		id:      id,
		host:    host,
		opts:    o,
		logger:  o.logger.With().Str("engine", id).Logger(),
		props:   DefaultProps[T](),
		watcher: NewResizeWatcher(o.observer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ID returns the engine's instance identifier
func (e *Engine[T]) ID() string {
	return e.id
}

// Start (re)initializes the engine with props. An empty data source leaves
// the engine idle until data arrives.
func (e *Engine[T]) Start(props Props[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return
	}

	e.props = props.normalized()
	e.cancelWaitLocked()
	e.resetDataLocked()
	e.watchLocked()
	e.logger.Info().
		Int("items", len(e.data)).
		Str("direction", string(e.props.Direction)).
		Float64("speed", e.props.Speed).
		Int("load_count", e.props.LoadCount).
		Msg("engine started")

	e.materializeLocked(0)
	e.notePauseLocked("start")
}

// UpdateConfig applies a partial configuration change
func (e *Engine[T]) UpdateConfig(opts ...PropOption[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return
	}

	prev := e.props
	next := prev
	for _, opt := range opts {
		opt(&next)
	}
	next = next.normalized()
	e.props = next
	e.cancelWaitLocked()

	dataChanged := !sameSlice(prev.DataSource, next.DataSource) || !sameSource(prev.Source, next.Source)
	switch {
	case dataChanged:
		start := 0.0
		if len(e.window) > 0 && prev.Direction == next.Direction {
			start = e.window[0].start
		}
		e.resetDataLocked()
		e.materializeLocked(start)
	case prev.Direction != next.Direction:
		e.relayoutLocked(false)
		e.sinceWait = 0
	case prev.ItemKey != next.ItemKey:
		e.rekeyLocked()
	}
	if !dataChanged && next.LoadCount > prev.LoadCount && e.state == StateRunning {
		e.growToLoadCountLocked()
	}
	if !next.PausedOnHover {
		e.hovered = false
	}
	e.notePauseLocked("config")
}

// Pause stops movement until Resume. Cancels a pending wait.
func (e *Engine[T]) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return
	}
	e.paused = true
	e.cancelWaitLocked()
	e.notePauseLocked("pause")
}

// Resume continues movement at the configured speed
func (e *Engine[T]) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return
	}
	e.paused = false
	e.notePauseLocked("resume")
}

// PointerEnter pauses while the pointer is over the viewport. It only takes
// effect when PausedOnHover is set at the time of entering.
func (e *Engine[T]) PointerEnter() {
	e.setHover(true)
}

// PointerLeave records that the pointer left the viewport
func (e *Engine[T]) PointerLeave() {
	e.setHover(false)
}

func (e *Engine[T]) setHover(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return
	}
	e.hovered = on && e.props.PausedOnHover
	e.notePauseLocked("hover")
}

// Remeasure re-reads every element size now. Hosts without resize
// observation call it when they know layout changed.
func (e *Engine[T]) Remeasure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return
	}
	e.resizePending.Store(false)
	e.relayoutLocked(true)
}

// Tick advances one frame. It reports whether anything moved or was laid
// out again.
func (e *Engine[T]) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateIdle:
		e.maybeFetchLocked()
		return false
	case StateDisposed:
		return false
	}
	e.stats.Frames++

	changed := false
	if e.resizePending.Swap(false) {
		e.relayoutLocked(true)
		changed = true
	}
	// loading continues while the scroll stands still
	e.maybeFetchLocked()
	if e.pausedLocked() || e.props.Speed == 0 || len(e.window) == 0 {
		return changed
	}

	for _, s := range e.window {
		s.start -= e.props.Speed
	}
	e.stats.Moves++
	e.wrapLocked(true)
	e.ensureCoverageLocked()
	e.maybeFetchLocked()
	return true
}

// Dispose releases observation, cancels pending work and drops all state,
// then waits for in-flight tasks to return. Later calls on the engine do
// nothing.
func (e *Engine[T]) Dispose() {
	e.mu.Lock()
	if e.state == StateDisposed {
		e.mu.Unlock()
		return
	}
	e.state = StateDisposed
	e.waitRunner.Cancel()
	e.fetchRunner.Cancel()
	e.cancel()
	e.waiting = false
	e.fetching = false
	e.window = nil
	e.data = nil
	e.pool.reset()
	e.publishLocked(domain.EngineDisposedEvent{EngineID: e.id})
	e.logger.Info().Msg("engine disposed")
	e.mu.Unlock()

	e.watcher.Unwatch()
	e.wg.Wait()
}

// State returns the lifecycle state
func (e *Engine[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Paused reports whether ticks currently leave positions unchanged
func (e *Engine[T]) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pausedLocked()
}

// Waiting reports whether a post-wrap wait is pending
func (e *Engine[T]) Waiting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waiting
}

// Props returns the normalized configuration in effect
func (e *Engine[T]) Props() Props[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props
}

// Items returns the materialized window in scroll order
func (e *Engine[T]) Items() []domain.ScrollItem[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemsLocked()
}

// Positions returns the layout of every slot, parallel to Items
func (e *Engine[T]) Positions() []domain.ItemPosition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionsLocked()
}

// Snapshot returns Items and Positions read together
func (e *Engine[T]) Snapshot() ([]domain.ScrollItem[T], []domain.ItemPosition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemsLocked(), e.positionsLocked()
}

// Anchor resolves the item at the viewport's reference edge
func (e *Engine[T]) Anchor() domain.AnchorResult[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.anchorLocked()
}

// Viewport returns the last measured viewport size
func (e *Engine[T]) Viewport() domain.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Loaded returns a copy of the data loaded so far
func (e *Engine[T]) Loaded() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.data)
}

// Capabilities reports the host capabilities in use
func (e *Engine[T]) Capabilities() Capabilities {
	return Capabilities{ResizeObservation: e.watcher.Supported()}
}

// Stats returns a snapshot of the engine counters
func (e *Engine[T]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Loaded = len(e.data)
	s.Exhausted = e.exhausted
	return s
}

func (e *Engine[T]) itemsLocked() []domain.ScrollItem[T] {
	items := make([]domain.ScrollItem[T], len(e.window))
	for i, s := range e.window {
		items[i] = s.item
	}
	return items
}

func (e *Engine[T]) positionsLocked() []domain.ItemPosition {
	d := e.props.Direction
	l := e.viewport.Along(d)
	positions := make([]domain.ItemPosition, len(e.window))
	for i, s := range e.window {
		positions[i] = s.position(d, l)
	}
	return positions
}

func (e *Engine[T]) anchorLocked() domain.AnchorResult[T] {
	return ResolveAnchor(e.itemsLocked(), e.positionsLocked(), Viewport{Size: e.viewport}, e.props.Direction)
}

func (e *Engine[T]) pausedLocked() bool {
	return e.paused || e.waiting || (e.hovered && e.props.PausedOnHover)
}

func (e *Engine[T]) notePauseLocked(reason string) {
	now := e.pausedLocked()
	if now == e.lastPaused {
		return
	}
	e.lastPaused = now
	e.logger.Debug().Bool("paused", now).Str("reason", reason).Msg("pause state changed")
	e.publishLocked(domain.PauseChangedEvent{EngineID: e.id, Paused: now, Reason: reason})
}

func (e *Engine[T]) publishLocked(event domain.DomainEvent) {
	if e.opts.bus != nil {
		e.opts.bus.Publish(event)
	}
}

// watchLocked starts observing the viewport, or reports once that the host
// can't observe resizes.
func (e *Engine[T]) watchLocked() {
	if !e.watcher.Supported() {
		if !e.reported {
			e.reported = true
			e.logger.Warn().Msg("resize observation unavailable, measuring on explicit triggers only")
			e.publishLocked(domain.CapabilityUnavailableEvent{EngineID: e.id, Capability: "resize-observation"})
		}
		return
	}
	var target Element
	if e.host != nil {
		target = e.host.ViewportElement()
	}
	e.watcher.Watch(target, e.onResize)
}

// onResize only flags the change; the next tick measures the latest state.
// It never takes the engine lock, so observers may call it from Observe.
func (e *Engine[T]) onResize(entries []ResizeEntry) {
	if len(entries) > 0 {
		e.resizePending.Store(true)
	}
}

func (e *Engine[T]) resetDataLocked() {
	e.fetchRunner.Cancel()
	e.fetching = false
	e.fetchGen++
	e.retryAt = time.Time{}
	e.data = slices.Clip(e.props.DataSource)
	e.seeded = len(e.data)
	e.exhausted = e.props.Source == nil
	e.cursor = 0
}

// materializeLocked rebuilds the window from the head of the data, reusing
// the current slots' identifiers, and lays it out starting at start.
func (e *Engine[T]) materializeLocked(start float64) {
	if len(e.data) == 0 {
		e.idleLocked()
		e.maybeFetchLocked()
		return
	}

	n := min(e.props.LoadCount, len(e.data))
	old := e.window
	window := make([]*slot[T], 0, n)
	for i := 0; i < n; i++ {
		var s *slot[T]
		if i < len(old) {
			s = old[i]
		} else {
			s = &slot[T]{}
			s.item.UID = e.pool.take(&e.ids)
		}
		e.assignLocked(s, i)
		window = append(window, s)
	}
	for _, s := range old[min(n, len(old)):] {
		e.pool.put(s.item.UID)
	}
	e.window = window
	e.cursor = n
	e.state = StateRunning

	e.measureLocked()
	layoutFrom(e.window, e.props.Direction, start)
	e.wrapLocked(false)
	e.ensureCoverageLocked()
	e.maybeFetchLocked()

	e.logger.Debug().Int("window", len(e.window)).Int("loaded", len(e.data)).Msg("window materialized")
	e.publishLocked(domain.WindowMaterializedEvent{EngineID: e.id, Items: len(e.window), Sources: len(e.data)})
}

func (e *Engine[T]) idleLocked() {
	for _, s := range e.window {
		e.pool.put(s.item.UID)
	}
	e.window = nil
	e.viewport = domain.Size{}
	e.state = StateIdle
}

// growToLoadCountLocked appends slots after a load count increase
func (e *Engine[T]) growToLoadCountLocked() {
	want := min(e.props.LoadCount, len(e.data))
	if len(e.window) >= want {
		return
	}
	e.appendSlotsLocked(want - len(e.window))
}

func (e *Engine[T]) rekeyLocked() {
	for _, s := range e.window {
		s.item.Key = KeyFor(s.item.Value, e.props.ItemKey, s.index)
	}
}

func (e *Engine[T]) assignLocked(s *slot[T], index int) {
	s.index = index
	s.item.Value = e.data[index]
	s.item.Key = KeyFor(s.item.Value, e.props.ItemKey, index)
}

// nextIndexLocked returns the data index for the next slot assignment,
// looping back to the head once the loaded data is used up.
func (e *Engine[T]) nextIndexLocked() int {
	if e.cursor >= len(e.data) {
		if !e.exhausted {
			e.logger.Debug().Int("loaded", len(e.data)).Msg("source behind the scroll, looping loaded data")
		}
		e.cursor = 0
	}
	i := e.cursor
	e.cursor++
	return i
}

func (e *Engine[T]) measureLocked() {
	if e.host == nil {
		return
	}
	e.viewport = Measure(e.host.ViewportElement())
	for _, s := range e.window {
		s.size = Measure(e.host.ItemElement(s.item))
	}
}

// relayoutLocked measures every element and lays the window out again.
// With keepAnchor the anchor item keeps its place so the content doesn't
// jump; otherwise the head restarts at the leading edge.
func (e *Engine[T]) relayoutLocked(keepAnchor bool) {
	if len(e.window) == 0 {
		return
	}
	anchor := e.anchorLocked()
	e.measureLocked()
	switch {
	case !keepAnchor:
		layoutFrom(e.window, e.props.Direction, 0)
	case anchor.Found():
		layoutAround(e.window, e.props.Direction, anchor.Index)
	default:
		layoutFrom(e.window, e.props.Direction, e.window[0].start)
	}
	e.wrapLocked(false)
	e.ensureCoverageLocked()
}

// wrapLocked recycles every slot that fully left through the leading edge to
// the tail with the next data entry.
func (e *Engine[T]) wrapLocked(allowWait bool) {
	d := e.props.Direction
	var wrapped float64
	for i := 0; i < len(e.window); i++ {
		head := e.window[0]
		if head.end(d) > 0 {
			break
		}
		tail := e.window[len(e.window)-1]
		start := tail.end(d)
		extent := head.length(d)
		fromKey := head.item.Key

		e.assignLocked(head, e.nextIndexLocked())
		if e.host != nil {
			head.size = Measure(e.host.ItemElement(head.item))
		}
		head.start = start
		copy(e.window, e.window[1:])
		e.window[len(e.window)-1] = head

		wrapped += extent
		e.stats.Wraps++
		e.publishLocked(domain.ItemWrappedEvent{EngineID: e.id, UID: head.item.UID, FromKey: fromKey, ToKey: head.item.Key})
	}
	if wrapped == 0 || !allowWait || e.props.WaitTime <= 0 {
		return
	}

	if e.props.WaitMode == domain.WaitPerPage {
		e.sinceWait += wrapped
		if e.sinceWait < e.viewport.Along(d) {
			return
		}
		e.sinceWait = 0
	}
	e.startWaitLocked()
}

// ensureCoverageLocked appends slots until the content past the reference
// edge outlasts the head item, so a wrap never opens a gap.
func (e *Engine[T]) ensureCoverageLocked() {
	d := e.props.Direction
	l := e.viewport.Along(d)
	if l <= 0 || len(e.data) == 0 {
		return
	}
	for len(e.window) > 0 && len(e.window) < e.opts.maxWindow {
		for _, s := range e.window {
			if s.length(d) <= 0 {
				return // layout not settled, retry on the next pass
			}
		}
		head := e.window[0]
		tail := e.window[len(e.window)-1]
		if e.anchorLocked().Found() && tail.end(d)-l >= head.end(d) {
			return
		}
		n := min(e.props.LoadCount, e.opts.maxWindow-len(e.window))
		e.appendSlotsLocked(n)
	}
}

func (e *Engine[T]) appendSlotsLocked(n int) {
	d := e.props.Direction
	for i := 0; i < n; i++ {
		start := 0.0
		if len(e.window) > 0 {
			start = e.window[len(e.window)-1].end(d)
		}
		s := &slot[T]{start: start}
		s.item.UID = e.pool.take(&e.ids)
		e.assignLocked(s, e.nextIndexLocked())
		if e.host != nil {
			s.size = Measure(e.host.ItemElement(s.item))
		}
		e.window = append(e.window, s)
	}
}

func (e *Engine[T]) startWaitLocked() {
	e.waiting = true
	e.waitSeq++
	seq := e.waitSeq
	e.stats.Waits++
	run := e.waitRunner.Begin(e.ctx, Delay(e.opts.clock, e.props.WaitTime))
	e.publishLocked(domain.WaitStartedEvent{EngineID: e.id, Millis: e.props.WaitTime.Milliseconds()})
	e.notePauseLocked("wait")

	e.wg.Go(func() {
		e.finishWait(seq, run())
	})
}

func (e *Engine[T]) finishWait(seq uint64, res Result[struct{}]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res.Cancelled() {
		e.stats.Cancelled++
		return
	}
	if e.state == StateDisposed || seq != e.waitSeq {
		return
	}
	if !res.OK() {
		e.logger.Warn().Err(res.Err).Msg("wait failed")
	}
	e.waiting = false
	e.publishLocked(domain.WaitFinishedEvent{EngineID: e.id})
	e.notePauseLocked("wait")
}

func (e *Engine[T]) cancelWaitLocked() {
	if !e.waiting {
		return
	}
	e.waitRunner.Cancel()
	e.waitSeq++
	e.waiting = false
	e.sinceWait = 0
}

// maybeFetchLocked pulls the next batch from the source once the cursor gets
// within one batch of the end of the loaded data.
func (e *Engine[T]) maybeFetchLocked() {
	src := e.props.Source
	if src == nil || e.exhausted || e.fetching || e.state == StateDisposed {
		return
	}
	if len(e.data)-e.cursor > e.props.LoadCount {
		return
	}
	if !e.retryAt.IsZero() && e.opts.clock.Now().Before(e.retryAt) {
		return
	}

	e.fetching = true
	gen := e.fetchGen
	offset := len(e.data) - e.seeded
	limit := e.props.LoadCount
	run := e.fetchRunner.Begin(e.ctx, func(ctx context.Context) (Batch[T], error) {
		return src.Fetch(ctx, offset, limit)
	})
	e.logger.Debug().Int("offset", offset).Int("limit", limit).Msg("fetching batch")

	e.wg.Go(func() {
		e.finishFetch(gen, offset, run())
	})
}

func (e *Engine[T]) finishFetch(gen uint64, offset int, res Result[Batch[T]]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res.Cancelled() {
		e.stats.Cancelled++
		return
	}
	if e.state == StateDisposed || gen != e.fetchGen {
		return
	}
	e.fetching = false

	if !res.OK() {
		e.stats.BatchFailures++
		e.retryAt = e.opts.clock.Now().Add(e.opts.fetchRetry)
		e.logger.Warn().Err(res.Err).Int("offset", offset).Msg("batch fetch failed")
		e.publishLocked(domain.BatchFailedEvent{EngineID: e.id, Offset: offset, Err: res.Err})
		return
	}

	batch := res.Value
	e.retryAt = time.Time{}
	if len(batch.Items) == 0 && !batch.Done {
		e.retryAt = e.opts.clock.Now().Add(e.opts.fetchRetry)
	}
	e.data = append(e.data, batch.Items...)
	e.exhausted = batch.Done
	e.stats.Batches++
	e.logger.Debug().Int("offset", offset).Int("count", len(batch.Items)).Bool("done", batch.Done).Msg("batch loaded")
	e.publishLocked(domain.BatchLoadedEvent{EngineID: e.id, Offset: offset, Count: len(batch.Items), Done: batch.Done})

	if e.state == StateIdle {
		e.materializeLocked(0)
		return
	}
	if len(batch.Items) > 0 {
		e.growToLoadCountLocked()
		e.ensureCoverageLocked()
		e.maybeFetchLocked()
	}
}

// sameSlice reports whether a and b are the same slice header
func sameSlice[T any](a, b []T) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

// sameSource compares sources without tripping over uncomparable dynamic
// types such as SliceSource.
func sameSource[T any](a, b Source[T]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Type().Comparable() {
		return va.Interface() == vb.Interface()
	}
	return false
}
