package scroll

import "loopscroll/internal/domain"

// Edges holds per-side thickness, e.g. of a border
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Element is the host's handle on something laid out on screen
type Element interface {
	// Attached reports whether the element currently takes part in layout
	Attached() bool
	// Bounds is the border-box size of the element
	Bounds() domain.Size
	// Border is the border thickness of each side
	Border() Edges
}

// Measure returns the element's size with its border removed. Detached or
// missing elements measure as zero rather than failing.
func Measure(el Element) domain.Size {
	if el == nil || !el.Attached() {
		return domain.Size{}
	}
	bounds := el.Bounds()
	border := el.Border()
	return domain.Size{
		Width:  nonNegative(bounds.Width - border.Left - border.Right),
		Height: nonNegative(bounds.Height - border.Top - border.Bottom),
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
