package scroll

import "loopscroll/internal/domain"

// Viewport locates the visible window on the scroll axis. Offset is the
// coordinate of the viewport's top/left edge in the same space as the item
// positions.
type Viewport struct {
	Offset float64
	Size   domain.Size
}

// extent is the viewport's length along the scroll axis of d
func (v Viewport) extent(d domain.Direction) float64 {
	return v.Size.Along(d)
}

// flowSpan maps a physical position onto the scroll axis as [start, end),
// measured from the edge items leave through. Items travel towards smaller
// flow values; the reference edge sits at flow == extent.
func flowSpan(p domain.ItemPosition, vp Viewport, d domain.Direction) (start, end float64) {
	l := vp.extent(d)
	switch d {
	case domain.DirectionDown:
		return vp.Offset + l - p.Bottom, vp.Offset + l - p.Top
	case domain.DirectionLeft:
		return p.Left - vp.Offset, p.Right - vp.Offset
	case domain.DirectionRight:
		return vp.Offset + l - p.Right, vp.Offset + l - p.Left
	default:
		return p.Top - vp.Offset, p.Bottom - vp.Offset
	}
}

// ResolveAnchor finds the item covering the viewport's reference edge: the
// edge new items come in through (bottom for up, top for down, right for
// left, left for right). positions must be in scroll order, parallel to
// items. When two boundaries meet exactly on the edge the later item wins,
// so an item about to leave is never the anchor.
//
// NotFound means the layout can't anchor yet (no items, nothing measured,
// or a gap at the edge); callers retry after the next layout pass.
func ResolveAnchor[T any](items []domain.ScrollItem[T], positions []domain.ItemPosition, vp Viewport, d domain.Direction) domain.AnchorResult[T] {
	notFound := domain.AnchorResult[T]{Status: domain.AnchorNotFound}

	n := len(positions)
	if len(items) < n {
		n = len(items)
	}
	l := vp.extent(d)
	if n == 0 || l <= 0 {
		return notFound
	}

	anchor := -1
	first := -1
	var anchorStart, firstStart, total float64
	for i := 0; i < n; i++ {
		s, e := flowSpan(positions[i], vp, d)
		if e <= s {
			continue
		}
		total += e - s
		if first < 0 && e > 0 && s < l {
			first, firstStart = i, s
		}
		if s <= l && l < e {
			anchor, anchorStart = i, s
		}
	}
	if total == 0 || anchor < 0 {
		return notFound
	}

	margins := domain.MarginInfo{MarginBefore: l - anchorStart}
	if first >= 0 && firstStart > 0 {
		margins.MarginAfter = firstStart
	}
	return domain.AnchorResult[T]{
		Status:  domain.AnchorFound,
		Item:    items[anchor],
		Index:   anchor,
		Margins: margins,
	}
}
