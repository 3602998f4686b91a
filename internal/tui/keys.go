package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding

	// Timer
	Pause   key.Binding
	Resume  key.Binding
	Stop    key.Binding
	Refresh key.Binding

	// Matter list
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Notes prompt
	Submit key.Binding
	Cancel key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Resume:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
	Stop:    key.NewBinding(key.WithKeys("s", "x"), key.WithHelp("s", "stop")),
	Refresh: key.NewBinding(key.WithKeys("f", "ctrl+r"), key.WithHelp("f", "refresh")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "switch")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}
