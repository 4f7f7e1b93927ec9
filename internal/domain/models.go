package domain

import "fmt"

// Direction is the direction items travel inside the viewport
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Directions lists every direction in cycling order
var Directions = []Direction{DirectionUp, DirectionLeft, DirectionDown, DirectionRight}

// ParseDirection converts a string into a Direction
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return d, nil
	}
	return DirectionUp, fmt.Errorf("unknown direction %q", s)
}

// Vertical reports whether the direction scrolls along the vertical axis
func (d Direction) Vertical() bool {
	return d == DirectionUp || d == DirectionDown
}

// Reversed reports whether items enter from the physical start of the axis
// (top or left) and leave through the physical end.
func (d Direction) Reversed() bool {
	return d == DirectionDown || d == DirectionRight
}

// Next returns the direction after d in cycling order
func (d Direction) Next() Direction {
	for i, dir := range Directions {
		if dir == d {
			return Directions[(i+1)%len(Directions)]
		}
	}
	return DirectionUp
}

// WaitMode decides when the scroll stops for the configured wait time
type WaitMode string

const (
	WaitPerItem WaitMode = "item" // after every wrapped item
	WaitPerPage WaitMode = "page" // after a viewport worth of content wrapped
)

// ParseWaitMode converts a string into a WaitMode
func ParseWaitMode(s string) (WaitMode, error) {
	switch m := WaitMode(s); m {
	case WaitPerItem, WaitPerPage:
		return m, nil
	}
	return WaitPerItem, fmt.Errorf("unknown wait mode %q", s)
}

// Size is a width/height pair in pixels (cells for terminal hosts)
type Size struct {
	Width  float64
	Height float64
}

// Along returns the extent of the size on the scroll axis of d
func (s Size) Along(d Direction) float64 {
	if d.Vertical() {
		return s.Height
	}
	return s.Width
}

// Across returns the extent of the size on the axis perpendicular to d
func (s Size) Across(d Direction) float64 {
	if d.Vertical() {
		return s.Width
	}
	return s.Height
}

// ScrollItem is one materialized slot of the scrolling window
type ScrollItem[T any] struct {
	Value T
	Key   string // logical identity of Value
	UID   string // identity of the slot, stable across wraps
}

// ItemPosition is the laid out box of one slot
type ItemPosition struct {
	Key    string
	UID    string
	Width  float64
	Height float64
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// MarginInfo is the leftover space around the anchor item
type MarginInfo struct {
	MarginBefore float64
	MarginAfter  float64
}

// AnchorStatus tags an AnchorResult
type AnchorStatus string

const (
	AnchorFound    AnchorStatus = "found"
	AnchorNotFound AnchorStatus = "not-found"
)

// AnchorResult is the outcome of resolving the item at the viewport's reference edge.
// Item, Index and Margins are only meaningful when Status is AnchorFound.
type AnchorResult[T any] struct {
	Status  AnchorStatus
	Item    ScrollItem[T]
	Index   int
	Margins MarginInfo
}

// Found reports whether an anchor item was resolved
func (r AnchorResult[T]) Found() bool {
	return r.Status == AnchorFound
}
