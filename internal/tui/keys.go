package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search key.Binding
	Apply  key.Binding
	Cancel key.Binding
	Toggle key.Binding
	Prev   key.Binding
	Next   key.Binding
	Reset  key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
		Toggle: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "toggle type")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev page")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next page")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Reload: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Search, k.Toggle, k.Prev, k.Next, k.Reset, k.Reload, k.Quit}
}
