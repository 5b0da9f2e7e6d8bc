package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the search screen. Printable keys
// always go to the query input, so navigation uses arrows and control keys.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding // Open the highlighted movie's page in a browser.
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "ctrl+o"),
		key.WithHelp("enter", "open in browser"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}
