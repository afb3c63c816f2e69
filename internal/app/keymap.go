package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
)

// KeyMap holds the bindings handled by the root model.
type KeyMap struct {
	Toggle   key.Binding
	Settings key.Binding
	Retry    key.Binding
	Dismiss  key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "start/stop")),
		Settings: key.NewBinding(key.WithKeys("e", "E"), key.WithHelp("e", "edit")),
		Retry:    key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "retry access")),
		Dismiss:  key.NewBinding(key.WithKeys("enter", " ", "esc"), key.WithHelp("enter", "got it")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// transcriptKeyMap restricts the viewport to scroll keys so it does not
// shadow the root bindings.
func transcriptKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up", "k")),
		Down:         key.NewBinding(key.WithKeys("down", "j")),
	}
}
