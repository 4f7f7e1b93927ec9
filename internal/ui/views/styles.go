package views

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Status        lipgloss.Style
	Dim           lipgloss.Style
	Help          lipgloss.Style
	Frame         lipgloss.Style
	FrameHover    lipgloss.Style
	Item          lipgloss.Style // block item, scrolling up or down
	InlineItem    lipgloss.Style // strip item, scrolling left or right
	Separator     lipgloss.Style
	StatusPaused  lipgloss.Style
	StatusWaiting lipgloss.Style
	StatusRunning lipgloss.Style
	StatusError   lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Dim:    lipgloss.NewStyle().Faint(true),
		Help:   lipgloss.NewStyle().Faint(true),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")),
		FrameHover: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")),
		Item: lipgloss.NewStyle().
			PaddingLeft(1).
			MarginBottom(1),
		InlineItem:    lipgloss.NewStyle().Padding(0, 1),
		Separator:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		StatusPaused:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusWaiting: lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan
		StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
	}
}

// palette colours entries by key so an entry keeps its colour on every loop
var palette = []lipgloss.Color{"39", "78", "214", "99", "51", "212"}

// EntryColor returns the colour for the entry with the given key
func EntryColor(key string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(key))
	return palette[h.Sum32()%uint32(len(palette))]
}
