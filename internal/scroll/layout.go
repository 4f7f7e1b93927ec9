package scroll

import "loopscroll/internal/domain"

// slot is one materialized item together with its layout on the scroll
// axis. start is the flow position of the item's leading boundary, counted
// from the edge items leave through.
type slot[T any] struct {
	item  domain.ScrollItem[T]
	index int // position of item.Value in the loaded data
	size  domain.Size
	start float64
}

func (s *slot[T]) length(d domain.Direction) float64 {
	return s.size.Along(d)
}

func (s *slot[T]) end(d domain.Direction) float64 {
	return s.start + s.length(d)
}

// position converts the slot's flow span into a physical box inside a
// viewport of extent l along d.
func (s *slot[T]) position(d domain.Direction, l float64) domain.ItemPosition {
	p := domain.ItemPosition{
		Key:    s.item.Key,
		UID:    s.item.UID,
		Width:  s.size.Width,
		Height: s.size.Height,
	}
	start, end := s.start, s.end(d)
	switch d {
	case domain.DirectionUp:
		p.Top, p.Bottom = start, end
		p.Right = s.size.Width
	case domain.DirectionDown:
		p.Top, p.Bottom = l-end, l-start
		p.Right = s.size.Width
	case domain.DirectionLeft:
		p.Left, p.Right = start, end
		p.Bottom = s.size.Height
	case domain.DirectionRight:
		p.Left, p.Right = l-end, l-start
		p.Bottom = s.size.Height
	}
	return p
}

// layoutFrom places the window contiguously, head first, starting at start
func layoutFrom[T any](window []*slot[T], d domain.Direction, start float64) {
	for _, s := range window {
		s.start = start
		start = s.end(d)
	}
}

// layoutAround keeps window[index] at its current start and packs the other
// slots against it on both sides.
func layoutAround[T any](window []*slot[T], d domain.Direction, index int) {
	if index < 0 || index >= len(window) {
		return
	}
	next := window[index].end(d)
	for _, s := range window[index+1:] {
		s.start = next
		next = s.end(d)
	}
	prev := window[index].start
	for i := index - 1; i >= 0; i-- {
		prev -= window[i].length(d)
		window[i].start = prev
	}
}
