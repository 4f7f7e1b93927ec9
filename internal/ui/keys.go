package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the key bindings and feeds the help footer
type keyMap struct {
	Pause     key.Binding
	Direction key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Remeasure key.Binding
	Pager     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause/resume"),
		),
		Direction: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "direction"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "slower"),
		),
		Remeasure: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "remeasure"),
		),
		Pager: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "list loaded"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Direction, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Direction, k.Faster, k.Slower},
		{k.Remeasure, k.Pager, k.Help, k.Quit},
	}
}
