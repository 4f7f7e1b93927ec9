package views

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	lru "github.com/hashicorp/golang-lru/v2"

	"loopscroll/internal/domain"
	"loopscroll/internal/feed"
	"loopscroll/internal/scroll"
)

const renderCacheSize = 1024

// Marquee renders scrolling entries inside a frame. It is the scroll engine's
// host: the engine measures the frame and the rendered entries through it.
// Safe for concurrent use; the engine may measure from its fetch goroutines.
type Marquee struct {
	styles *Styles
	cache  *lru.Cache[string, string]

	mu    sync.RWMutex
	frame Frame
	dir   domain.Direction
	hover bool
}

// NewMarquee creates an empty marquee scrolling up
func NewMarquee(styles *Styles) *Marquee {
	cache, err := lru.New[string, string](renderCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	return &Marquee{
		styles: styles,
		cache:  cache,
		frame:  Frame{Style: styles.Frame},
		dir:    domain.DirectionUp,
	}
}

// SetSize sets the outer size of the frame and reports whether it changed
func (m *Marquee) SetSize(width, height int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame.Width == width && m.frame.Height == height {
		return false
	}
	m.frame.Width, m.frame.Height = width, height
	return true
}

// SetDirection changes how entries are rendered
func (m *Marquee) SetDirection(d domain.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = d
}

// SetHover highlights the frame while the pointer is over it
func (m *Marquee) SetHover(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hover = on
}

// Frame returns the current frame
func (m *Marquee) Frame() Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame
}

// ViewportElement returns the frame for measurement
func (m *Marquee) ViewportElement() scroll.Element {
	return m.Frame()
}

// ItemElement renders item the way it will be drawn
func (m *Marquee) ItemElement(item domain.ScrollItem[feed.Entry]) scroll.Element {
	m.mu.RLock()
	dir := m.dir
	width, _ := m.frame.Inner()
	m.mu.RUnlock()
	return m.block(item, dir, width)
}

func (m *Marquee) block(item domain.ScrollItem[feed.Entry], dir domain.Direction, width int) Block {
	color := EntryColor(item.Key)
	if !dir.Vertical() {
		style := m.styles.InlineItem.Foreground(color)
		key := "h|" + item.Key + "|" + item.Value.Text
		if s, ok := m.cache.Get(key); ok {
			return Block{Rendered: s, Style: style}
		}
		s := style.Render(flatten(item.Value.Text)) + m.styles.Separator.Render("•")
		m.cache.Add(key, s)
		return Block{Rendered: s, Style: style}
	}

	if width <= 0 {
		return Block{}
	}
	style := m.styles.Item.Foreground(color).Width(width)
	key := "v|" + strconv.Itoa(width) + "|" + item.Key + "|" + item.Value.Text
	if s, ok := m.cache.Get(key); ok {
		return Block{Rendered: s, Style: style}
	}
	s := style.Render(item.Value.Text)
	m.cache.Add(key, s)
	return Block{Rendered: s, Style: style}
}

// Render draws the frame with items at positions. positions must be
// parallel to items, relative to the frame's inner top left corner.
func (m *Marquee) Render(items []domain.ScrollItem[feed.Entry], positions []domain.ItemPosition) string {
	m.mu.RLock()
	frame, dir, hover := m.frame, m.dir, m.hover
	m.mu.RUnlock()

	w, h := frame.Inner()
	if w <= 0 || h <= 0 {
		return ""
	}

	var rows []string
	if dir.Vertical() {
		rows = m.column(items, positions, dir, w, h)
	} else {
		rows = m.strip(items, positions, dir, w, h)
	}

	style := m.styles.Frame
	if hover {
		style = m.styles.FrameHover
	}
	return style.Width(w).Height(h).Render(strings.Join(rows, "\n"))
}

func (m *Marquee) column(items []domain.ScrollItem[feed.Entry], positions []domain.ItemPosition, dir domain.Direction, w, h int) []string {
	rows := make([]string, h)
	for i := range min(len(items), len(positions)) {
		p := positions[i]
		if p.Bottom <= 0 || p.Top >= float64(h) {
			continue
		}
		top := int(math.Floor(p.Top))
		for j, line := range strings.Split(m.block(items[i], dir, w).Rendered, "\n") {
			if r := top + j; r >= 0 && r < h {
				rows[r] = line
			}
		}
	}
	for r := range rows {
		rows[r] = fit(rows[r], w)
	}
	return rows
}

func (m *Marquee) strip(items []domain.ScrollItem[feed.Entry], positions []domain.ItemPosition, dir domain.Direction, w, h int) []string {
	rows := make([]string, h)
	for r := range rows {
		rows[r] = strings.Repeat(" ", w)
	}

	n := min(len(items), len(positions))
	if n == 0 {
		return rows
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case positions[a].Left < positions[b].Left:
			return -1
		case positions[a].Left > positions[b].Left:
			return 1
		}
		return 0
	})

	var b strings.Builder
	for _, i := range order {
		b.WriteString(m.block(items[i], dir, w).Rendered)
	}
	line := b.String()

	start := int(math.Floor(positions[order[0]].Left))
	switch {
	case start >= w:
		line = ""
	case start < 0:
		line = ansi.Cut(line, -start, -start+w)
	default:
		line = strings.Repeat(" ", start) + line
	}
	rows[(h-1)/2] = fit(line, w)
	return rows
}

// fit truncates or pads s to exactly w cells
func fit(s string, w int) string {
	s = ansi.Truncate(s, w, "")
	if pad := w - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
