package views

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopscroll/internal/domain"
	"loopscroll/internal/feed"
	"loopscroll/internal/scroll"
)

func entry(key, text string) domain.ScrollItem[feed.Entry] {
	return domain.ScrollItem[feed.Entry]{Value: feed.Entry{ID: key, Text: text}, Key: key, UID: key}
}

func TestBlockAndFrameMeasure(t *testing.T) {
	b := Block{Rendered: "ab\ncde"}
	assert.Equal(t, domain.Size{Width: 3, Height: 2}, scroll.Measure(b))
	assert.False(t, Block{}.Attached())

	f := Frame{Width: 10, Height: 5, Style: NewStyles().Frame}
	w, h := f.Inner()
	assert.Equal(t, 8, w)
	assert.Equal(t, 3, h)
	assert.True(t, f.Contains(0, 0))
	assert.True(t, f.Contains(9, 4))
	assert.False(t, f.Contains(10, 0))
	assert.False(t, f.Contains(3, -1))
}

func TestMarqueeSetSize(t *testing.T) {
	m := NewMarquee(NewStyles())
	assert.False(t, m.ViewportElement().Attached(), "no size yet")

	assert.True(t, m.SetSize(20, 6))
	assert.False(t, m.SetSize(20, 6))
	assert.Equal(t, domain.Size{Width: 18, Height: 4}, scroll.Measure(m.ViewportElement()))
}

func TestMarqueeItemElement(t *testing.T) {
	m := NewMarquee(NewStyles())
	m.SetSize(12, 6)

	vertical := scroll.Measure(m.ItemElement(entry("a", "alpha")))
	assert.Equal(t, domain.Size{Width: 10, Height: 2}, vertical, "one text line plus the gap")

	m.SetDirection(domain.DirectionLeft)
	horizontal := scroll.Measure(m.ItemElement(entry("a", "alpha\nbeta")))
	assert.Equal(t, domain.Size{Width: 13, Height: 1}, horizontal, "padded text plus separator on one line")
}

func TestMarqueeRenderColumn(t *testing.T) {
	m := NewMarquee(NewStyles())
	m.SetSize(12, 6)
	items := []domain.ScrollItem[feed.Entry]{entry("a", "alpha"), entry("b", "beta")}

	out := m.Render(items, []domain.ItemPosition{
		{Top: 0, Bottom: 2, Height: 2},
		{Top: 2, Bottom: 4, Height: 2},
	})

	assert.Equal(t, 12, lipgloss.Width(out))
	assert.Equal(t, 6, lipgloss.Height(out))
	lines := strings.Split(ansi.Strip(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "alpha")
	assert.Contains(t, lines[3], "beta")

	out = m.Render(items, []domain.ItemPosition{
		{Top: -1, Bottom: 1, Height: 2},
		{Top: 1, Bottom: 3, Height: 2},
	})
	lines = strings.Split(ansi.Strip(out), "\n")
	assert.NotContains(t, ansi.Strip(out), "alpha", "only its gap is still visible")
	assert.Contains(t, lines[2], "beta")
}

func TestMarqueeRenderStrip(t *testing.T) {
	m := NewMarquee(NewStyles())
	m.SetDirection(domain.DirectionLeft)
	m.SetSize(20, 3)
	items := []domain.ScrollItem[feed.Entry]{entry("a", "one"), entry("b", "two")}

	out := m.Render(items, []domain.ItemPosition{
		{Left: -2, Right: 4, Width: 6},
		{Left: 4, Right: 10, Width: 6},
	})

	plain := ansi.Strip(out)
	assert.Contains(t, plain, "ne • two •")
	assert.Equal(t, 20, lipgloss.Width(out))

	// Moving right the head sits at the right edge
	m.SetDirection(domain.DirectionRight)
	out = m.Render(items, []domain.ItemPosition{
		{Left: 12, Right: 18, Width: 6},
		{Left: 6, Right: 12, Width: 6},
	})
	assert.Contains(t, ansi.Strip(out), "       two • one •")
}

func TestMarqueeRenderWithoutSize(t *testing.T) {
	m := NewMarquee(NewStyles())
	assert.Empty(t, m.Render(nil, nil))
}

func TestEntryColorIsStable(t *testing.T) {
	assert.Equal(t, EntryColor("line-7"), EntryColor("line-7"))
}
