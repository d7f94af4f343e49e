package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the application key bindings.
type KeyMap struct {
	Execute   key.Binding
	Cancel    key.Binding
	NextFocus key.Binding
	PrevFocus key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding

	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	Open      key.Binding
	Browse    key.Binding
	SortNext  key.Binding

	SelectServer  key.Binding
	RefreshGraphs key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Execute:   key.NewBinding(key.WithKeys("ctrl+r", "f5"), key.WithHelp("ctrl+r", "run query")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/close")),
		NextFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		PrevFocus: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous pane")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

		NextPage:  key.NewBinding(key.WithKeys("]", "right", "pgdown", "l"), key.WithHelp("]/→", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("[", "left", "pgup", "h"), key.WithHelp("[/←", "previous page")),
		FirstPage: key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first page")),
		LastPage:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last page")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "show cell")),
		Browse:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "browse IRI")),
		SortNext:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),

		SelectServer:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
		RefreshGraphs: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload graphs")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Execute, k.NextFocus, k.PrevPage, k.NextPage, k.Open, k.Help, k.ForceQuit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Execute, k.Cancel, k.NextFocus, k.PrevFocus},
		{k.PrevPage, k.NextPage, k.FirstPage, k.LastPage},
		{k.Open, k.Browse, k.SortNext},
		{k.SelectServer, k.RefreshGraphs, k.Help, k.Quit, k.ForceQuit},
	}
}
