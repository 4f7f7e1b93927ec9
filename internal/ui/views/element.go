package views

import (
	"github.com/charmbracelet/lipgloss"

	"loopscroll/internal/domain"
	"loopscroll/internal/scroll"
)

// Block is a rendered piece of text the scroll engine can measure
type Block struct {
	Rendered string
	Style    lipgloss.Style // style Rendered was produced with, for its border
}

func (b Block) Attached() bool { return b.Rendered != "" }

func (b Block) Bounds() domain.Size {
	return domain.Size{
		Width:  float64(lipgloss.Width(b.Rendered)),
		Height: float64(lipgloss.Height(b.Rendered)),
	}
}

func (b Block) Border() scroll.Edges {
	return bordersOf(b.Style)
}

// Frame is the bordered box the items scroll through
type Frame struct {
	Width  int // outer width, border included
	Height int // outer height, border included
	Style  lipgloss.Style
}

func (f Frame) Attached() bool { return f.Width > 0 && f.Height > 0 }

func (f Frame) Bounds() domain.Size {
	return domain.Size{Width: float64(f.Width), Height: float64(f.Height)}
}

func (f Frame) Border() scroll.Edges {
	return bordersOf(f.Style)
}

// Inner returns the size left inside the border
func (f Frame) Inner() (int, int) {
	size := scroll.Measure(f)
	return int(size.Width), int(size.Height)
}

// Contains reports whether the cell x, y relative to the frame's top left
// corner lies on the frame
func (f Frame) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

func bordersOf(s lipgloss.Style) scroll.Edges {
	return scroll.Edges{
		Top:    float64(s.GetBorderTopSize()),
		Right:  float64(s.GetBorderRightSize()),
		Bottom: float64(s.GetBorderBottomSize()),
		Left:   float64(s.GetBorderLeftSize()),
	}
}
