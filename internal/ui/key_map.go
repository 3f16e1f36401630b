package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	left       key.Binding
	right      key.Binding
	enter      key.Binding
	back       key.Binding
	tab        key.Binding
	skip       key.Binding
	add        key.Binding
	exclude    key.Binding
	detail     key.Binding
	filters    key.Binding
	collection key.Binding
	refresh    key.Binding
	reset      key.Binding
	open       key.Binding
	disconnect key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:        key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		skip:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "skip")),
		add:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "add")),
		exclude:    key.NewBinding(key.WithKeys("down", "x"), key.WithHelp("↓/x", "exclude")),
		detail:     key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "details")),
		filters:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		collection: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collection")),
		refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		reset:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset progress")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open poster")),
		disconnect: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "disconnect")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.skip, k.add, k.exclude},
		{k.detail, k.filters, k.collection},
		{k.refresh, k.reset, k.open},
		{k.back, k.disconnect, k.quit},
	}
}
