package listview

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one item. selected marks the cursor row.
type RenderFunc[T any] func(item T, selected bool) string

// KeyMap holds the list's navigation bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
}

// DefaultKeyMap returns arrow, page and vim-style bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	}
}

// Model is a cursor over a slice of items with a fixed-height window.
type Model[T any] struct {
	items      []T
	renderFunc RenderFunc[T]
	keys       KeyMap

	cursor int
	offset int
	height int
	width  int
}

// New creates a list showing height rows at a time.
func New[T any](items []T, height int, renderFunc RenderFunc[T]) *Model[T] {
	if height < 1 {
		height = 1
	}
	return &Model[T]{
		items:      items,
		renderFunc: renderFunc,
		keys:       DefaultKeyMap(),
		height:     height,
	}
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd { return nil }

// Update handles navigation keys and resizes.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m *Model[T]) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.Select(m.cursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.Select(m.cursor + 1)
	case key.Matches(msg, m.keys.PageUp):
		m.Select(m.cursor - m.height)
	case key.Matches(msg, m.keys.PageDown):
		m.Select(m.cursor + m.height)
	case key.Matches(msg, m.keys.Home):
		m.Select(0)
	case key.Matches(msg, m.keys.End):
		m.Select(len(m.items) - 1)
	}
}

// Select moves the cursor to index, clamped to the items.
func (m *Model[T]) Select(index int) {
	switch {
	case len(m.items) == 0:
		m.cursor = 0
	case index < 0:
		m.cursor = 0
	case index >= len(m.items):
		m.cursor = len(m.items) - 1
	default:
		m.cursor = index
	}
	m.scroll()
}

// scroll keeps the cursor inside the window, moving the window as little as possible.
func (m *Model[T]) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	if maxOffset := len(m.items) - m.height; m.offset > maxOffset {
		m.offset = max(maxOffset, 0)
	}
}

// SetItems replaces the items, keeping the cursor where possible.
func (m *Model[T]) SetItems(items []T) {
	m.items = items
	m.Select(m.cursor)
}

// SetHeight changes the number of visible rows.
func (m *Model[T]) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	m.height = h
	m.scroll()
}

// View renders the rows inside the window.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}
	end := min(m.offset+m.height, len(m.items))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderFunc(m.items[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

// Len returns the number of items.
func (m *Model[T]) Len() int { return len(m.items) }

// Cursor returns the selected index.
func (m *Model[T]) Cursor() int { return m.cursor }

// Offset returns the index of the first visible row.
func (m *Model[T]) Offset() int { return m.offset }

// Height returns the window height.
func (m *Model[T]) Height() int { return m.height }

// Keys returns the list's bindings, for help rendering.
func (m *Model[T]) Keys() KeyMap { return m.keys }

// SelectedItem returns the item under the cursor.
func (m *Model[T]) SelectedItem() (T, bool) {
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	return m.items[m.cursor], true
}
