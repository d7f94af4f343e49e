package tui

import (
	"strings"

	"github.com/rshade/sagequery/internal/sage"
	listview "github.com/rshade/sagequery/internal/tui/list"
)

// Server is a SaGe server offered by the picker.
type Server struct {
	Name         string
	URL          string
	DefaultGraph string
}

// PickerItem is one row of the picker: a server, or a graph under it.
type PickerItem struct {
	Server Server
	Graph  *sage.Graph
}

// IsGraph reports whether the item is a graph row.
func (i PickerItem) IsGraph() bool { return i.Graph != nil }

// Label returns the text shown for the item.
func (i PickerItem) Label() string {
	if i.Graph == nil {
		return i.Server.Name
	}
	if i.Graph.Title != "" {
		return i.Graph.Title
	}
	return lastSegment(i.Graph.URI)
}

// GraphURI returns the graph the item selects: the graph itself or the
// server's default graph.
func (i PickerItem) GraphURI() string {
	if i.Graph != nil {
		return i.Graph.URI
	}
	return i.Server.DefaultGraph
}

func lastSegment(uri string) string {
	trimmed := strings.TrimRight(uri, "/")
	if idx := strings.LastIndexAny(trimmed, "/#"); idx >= 0 && idx < len(trimmed)-1 {
		return trimmed[idx+1:]
	}
	return uri
}

// Picker lists servers and, once discovered, their graphs.
type Picker struct {
	servers []Server
	graphs  map[string][]sage.Graph
	errs    map[string]error

	list *listview.Model[PickerItem]

	activeServer string
	activeGraph  string
}

// NewPicker builds a picker over servers with active selected.
func NewPicker(servers []Server, active string, height int) *Picker {
	p := &Picker{
		servers: servers,
		graphs:  make(map[string][]sage.Graph),
		errs:    make(map[string]error),
	}
	p.list = listview.New(nil, height, p.render)
	for _, s := range servers {
		if s.Name == active || p.activeServer == "" {
			p.activeServer = s.Name
			p.activeGraph = s.DefaultGraph
		}
	}
	p.rebuild()
	return p
}

// Items returns the flattened rows.
func (p *Picker) Items() []PickerItem {
	items := make([]PickerItem, 0, len(p.servers))
	for _, s := range p.servers {
		items = append(items, PickerItem{Server: s})
		if s.Name != p.activeServer {
			continue
		}
		for i := range p.graphs[s.Name] {
			items = append(items, PickerItem{Server: s, Graph: &p.graphs[s.Name][i]})
		}
	}
	return items
}

func (p *Picker) rebuild() {
	p.list.SetItems(p.Items())
}

// List exposes the underlying list for key handling.
func (p *Picker) List() *listview.Model[PickerItem] { return p.list }

// Choose activates the item under the cursor. It returns the server whose
// graphs should be discovered, or "" when none are needed.
func (p *Picker) Choose() (Server, bool) {
	item, ok := p.list.SelectedItem()
	if !ok {
		return Server{}, false
	}
	p.activeServer = item.Server.Name
	p.activeGraph = item.GraphURI()
	_, known := p.graphs[item.Server.Name]
	p.rebuild()
	return item.Server, !item.IsGraph() && !known
}

// SetGraphs records discovered graphs for server.
func (p *Picker) SetGraphs(server string, graphs []sage.Graph, err error) {
	if err != nil {
		p.errs[server] = err
		delete(p.graphs, server)
	} else {
		delete(p.errs, server)
		p.graphs[server] = graphs
	}
	p.rebuild()
}

// Forget drops discovered graphs for server so they are fetched again.
func (p *Picker) Forget(server string) {
	delete(p.graphs, server)
	delete(p.errs, server)
	p.rebuild()
}

// Active returns the selected server and graph.
func (p *Picker) Active() (Server, string) {
	for _, s := range p.servers {
		if s.Name == p.activeServer {
			return s, p.activeGraph
		}
	}
	return Server{}, ""
}

// Err returns the discovery error for server, if any.
func (p *Picker) Err(server string) error { return p.errs[server] }

func (p *Picker) render(item PickerItem, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	label := item.Label()
	if item.IsGraph() {
		label = "  " + label
	}
	line := prefix + truncate(label, pickerWidth-len(prefix))

	active := item.Server.Name == p.activeServer && item.GraphURI() == p.activeGraph
	switch {
	case selected:
		return PickerSelectedStyle.Render(line)
	case active:
		return PickerActiveStyle.Render(line)
	default:
		return line
	}
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return ellipsis
	}
	return string(r[:width-1]) + ellipsis
}
