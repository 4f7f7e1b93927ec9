package scroll

import (
	"math"
	"time"

	"loopscroll/internal/domain"
)

// Default configuration values
const (
	DefaultSpeed     = 1.0
	DefaultLoadCount = 10
)

// Props configures what the engine scrolls and how
type Props[T any] struct {
	DataSource    []T
	ItemKey       string
	Direction     domain.Direction
	Speed         float64 // pixels per frame
	WaitTime      time.Duration
	WaitMode      domain.WaitMode
	PausedOnHover bool
	LoadCount     int

	// Source, when set, grows the data past DataSource in LoadCount batches
	Source Source[T]
}

// DefaultProps returns props with every default applied
func DefaultProps[T any]() Props[T] {
	return Props[T]{
		ItemKey:       DefaultItemKey,
		Direction:     domain.DirectionUp,
		Speed:         DefaultSpeed,
		WaitMode:      domain.WaitPerItem,
		PausedOnHover: true,
		LoadCount:     DefaultLoadCount,
	}
}

// normalized clamps misconfigured values to safe ones instead of failing:
// a negative or NaN speed stops movement, a load count below one loads a
// single item per batch.
func (p Props[T]) normalized() Props[T] {
	if p.Speed < 0 || math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0) {
		p.Speed = 0
	}
	if p.LoadCount < 1 {
		p.LoadCount = 1
	}
	if p.WaitTime < 0 {
		p.WaitTime = 0
	}
	if _, err := domain.ParseDirection(string(p.Direction)); err != nil {
		p.Direction = domain.DirectionUp
	}
	if _, err := domain.ParseWaitMode(string(p.WaitMode)); err != nil {
		p.WaitMode = domain.WaitPerItem
	}
	return p
}

// PropOption changes one part of the configuration in UpdateConfig
type PropOption[T any] func(*Props[T])

func WithDataSource[T any](data []T) PropOption[T] {
	return func(p *Props[T]) { p.DataSource = data }
}

func WithSource[T any](src Source[T]) PropOption[T] {
	return func(p *Props[T]) { p.Source = src }
}

func WithItemKey[T any](field string) PropOption[T] {
	return func(p *Props[T]) { p.ItemKey = field }
}

func WithDirection[T any](d domain.Direction) PropOption[T] {
	return func(p *Props[T]) { p.Direction = d }
}

func WithSpeed[T any](speed float64) PropOption[T] {
	return func(p *Props[T]) { p.Speed = speed }
}

func WithWaitTime[T any](d time.Duration) PropOption[T] {
	return func(p *Props[T]) { p.WaitTime = d }
}

func WithWaitMode[T any](m domain.WaitMode) PropOption[T] {
	return func(p *Props[T]) { p.WaitMode = m }
}

func WithPausedOnHover[T any](on bool) PropOption[T] {
	return func(p *Props[T]) { p.PausedOnHover = on }
}

func WithLoadCount[T any](n int) PropOption[T] {
	return func(p *Props[T]) { p.LoadCount = n }
}
