package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/internal/sage"
	"github.com/rshade/sagequery/internal/tui/detail"
)

// SampleQuery is shown in the editor when no query was given.
const SampleQuery = `SELECT * WHERE {
	?v0 <http://purl.org/goodrelations/includes> ?v1 .
	?v1 <http://schema.org/contentSize> ?v3 .
	?v0 <http://schema.org/eligibleRegion> <http://db.uwaterloo.ca/~galuc/wsdbm/Country9> .
}`

// ErrQueryCancelled is shown when the user cancels a running query.
var ErrQueryCancelled = errors.New("query cancelled")

// QueryFunc executes a query. It runs off the UI goroutine.
type QueryFunc func(ctx context.Context, req sage.Request, opts engine.Options) (*engine.Result, error)

// GraphsFunc lists the graphs hosted by the server at serverURL.
type GraphsFunc func(ctx context.Context, serverURL string) ([]sage.Graph, error)

// Options configures the application model.
type Options struct {
	Servers       []Server
	DefaultServer string
	Query         string
	Limit         int
	NoCache       bool
}

// queryDoneMsg delivers the outcome of a query started with the given id.
type queryDoneMsg struct {
	id  int
	res *engine.Result
	err error
}

// graphsLoadedMsg delivers VoID discovery for a server.
type graphsLoadedMsg struct {
	server string
	graphs []sage.Graph
	err    error
}

// AppModel is the Bubble Tea model for the interactive query screen.
type AppModel struct {
	ctx     context.Context
	session *engine.Session
	run     QueryFunc
	graphs  GraphsFunc
	opts    Options
	keys    KeyMap

	state ViewState
	focus Focus

	picker    *Picker
	editor    textarea.Model
	table     table.Model
	paginator paginator.Model
	help      help.Model
	loading   *LoadingState
	dialog    *detail.Model

	queryID    int
	cancel     context.CancelFunc
	startedAt  time.Time
	err        error
	column     int
	sortIndex  int
	sortLabel  string
	sourceRows []rdf.Binding

	width  int
	height int
}

// NewAppModel creates the application model. session holds the results and
// their pager; run and graphs perform network calls.
func NewAppModel(ctx context.Context, session *engine.Session, run QueryFunc, graphs GraphsFunc, opts Options) *AppModel {
	editor := textarea.New()
	editor.Placeholder = "SELECT * WHERE { ?s ?p ?o }"
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.SetHeight(editorHeight)
	query := opts.Query
	if query == "" {
		query = SampleQuery
	}
	editor.SetValue(query)
	editor.Focus()

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.PerPage = session.PageSize()

	m := &AppModel{
		ctx:       ctx,
		session:   session,
		run:       run,
		graphs:    graphs,
		opts:      opts,
		keys:      DefaultKeyMap(),
		state:     ViewStateBrowse,
		focus:     FocusEditor,
		picker:    NewPicker(opts.Servers, opts.DefaultServer, minHeight),
		editor:    editor,
		paginator: pg,
		help:      help.New(),
		loading:   NewLoadingState(),
		sortIndex: -1,
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.layout()
	return m
}

// Init implements tea.Model.
func (m *AppModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case queryDoneMsg:
		return m.handleQueryDone(msg)
	case graphsLoadedMsg:
		m.picker.SetGraphs(msg.server, msg.graphs, msg.err)
		if msg.err != nil {
			m.err = fmt.Errorf("listing graphs of %s: %w", msg.server, msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == ViewStateLoading {
		return m, m.loading.Update(msg)
	}
	if m.focus == FocusEditor {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	switch m.state {
	case ViewStateLoading:
		if key.Matches(msg, m.keys.Cancel) {
			m.cancelQuery()
		}
		return m, nil
	case ViewStateDetail:
		return m.handleDetailKey(msg)
	case ViewStateQuitting:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Execute):
		return m, m.execute()
	case key.Matches(msg, m.keys.NextFocus):
		m.setFocus((m.focus + 1) % numFocusAreas)
		return m, nil
	case key.Matches(msg, m.keys.PrevFocus):
		m.setFocus((m.focus + numFocusAreas - 1) % numFocusAreas)
		return m, nil
	case key.Matches(msg, m.keys.Cancel) && m.err != nil:
		m.err = nil
		return m, nil
	}

	switch m.focus {
	case FocusEditor:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	case FocusServers:
		return m.handlePickerKey(msg)
	case FocusResults:
		return m.handleResultsKey(msg)
	default:
		return m, nil
	}
}

func (m *AppModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.SelectServer):
		server, discover := m.picker.Choose()
		if discover {
			return m, m.discoverGraphs(server)
		}
		return m, nil
	case key.Matches(msg, m.keys.RefreshGraphs):
		item, ok := m.picker.List().SelectedItem()
		if !ok {
			return m, nil
		}
		m.picker.Forget(item.Server.Name)
		return m, m.discoverGraphs(item.Server)
	}
	m.picker.List().Update(msg)
	return m, nil
}

func (m *AppModel) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextPage):
		m.navigate(m.session.Next)
	case key.Matches(msg, m.keys.PrevPage):
		m.navigate(m.session.Prev)
	case key.Matches(msg, m.keys.FirstPage):
		m.navigate(m.session.First)
	case key.Matches(msg, m.keys.LastPage):
		m.navigate(m.session.Last)
	case key.Matches(msg, m.keys.SortNext):
		m.cycleSort()
	case key.Matches(msg, m.keys.Open):
		m.openDialog()
	case msg.String() == "<" || msg.String() == ",":
		m.moveColumn(-1)
	case msg.String() == ">" || msg.String() == ".":
		m.moveColumn(1)
	case msg.String() == "up" || msg.String() == "k":
		m.table.MoveUp(1)
	case msg.String() == "down" || msg.String() == "j":
		m.table.MoveDown(1)
	}
	return m, nil
}

func (m *AppModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Quit):
		m.dialog = nil
		m.state = ViewStateBrowse
		return m, nil
	case key.Matches(msg, m.keys.Browse):
		if m.dialog == nil {
			return m, nil
		}
		query, ok := m.dialog.BrowseQuery()
		if !ok {
			return m, nil
		}
		m.dialog = nil
		m.state = ViewStateBrowse
		m.editor.SetValue(query)
		return m, m.execute()
	}
	return m, nil
}

func (m *AppModel) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.state = ViewStateQuitting
	return m, tea.Quit
}

func (m *AppModel) setFocus(f Focus) {
	m.focus = f
	if f == FocusEditor {
		m.editor.Focus()
	} else {
		m.editor.Blur()
	}
	if f == FocusResults {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

// Request builds the query request from the editor and picker.
func (m *AppModel) Request() sage.Request {
	server, graph := m.picker.Active()
	return sage.Request{
		Query:        m.editor.Value(),
		Server:       server.URL,
		DefaultGraph: graph,
		Limit:        m.opts.Limit,
	}
}

// execute starts the query in the editor. The previous results stay in the
// session until the new ones arrive.
func (m *AppModel) execute() tea.Cmd {
	req := m.Request()
	if req.Query == "" {
		m.err = sage.ErrEmptyQuery
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.queryID++
	m.state = ViewStateLoading
	m.err = nil
	m.startedAt = time.Now()
	m.loading.SetMessage("Querying " + req.Server + "...")

	logging.FromContext(m.ctx).Debug().Ctx(m.ctx).
		Str("component", "tui").
		Str("server", req.Server).
		Str("graph", req.DefaultGraph).
		Int("query_id", m.queryID).
		Msg("query submitted")

	id := m.queryID
	run := m.run
	opts := engine.Options{NoCache: m.opts.NoCache}
	return tea.Batch(m.loading.Init(), func() tea.Msg {
		res, err := run(ctx, req, opts)
		return queryDoneMsg{id: id, res: res, err: err}
	})
}

func (m *AppModel) cancelQuery() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	// a result still in flight for this id is dropped
	m.queryID++
	m.state = ViewStateBrowse
	m.err = ErrQueryCancelled
}

func (m *AppModel) handleQueryDone(msg queryDoneMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.queryID {
		return m, nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.state = ViewStateBrowse

	if msg.err != nil {
		m.err = msg.err
		logging.FromContext(m.ctx).Warn().Ctx(m.ctx).
			Str("component", "tui").
			Err(msg.err).
			Msg("query failed")
		return m, nil
	}

	res := msg.res
	if res == nil || res.ResultSet == nil {
		res = &engine.Result{ResultSet: &rdf.ResultSet{}, Stats: &sage.Stats{}}
		if msg.res != nil {
			res.Request = msg.res.Request
		}
	}
	m.session.Load(res)
	m.sourceRows = res.ResultSet.Rows
	m.sortIndex = -1
	m.sortLabel = ""
	m.column = 0
	m.err = nil
	m.rebuildTable()
	m.setFocus(FocusResults)
	return m, nil
}

func (m *AppModel) discoverGraphs(server Server) tea.Cmd {
	if m.graphs == nil || server.URL == "" {
		return nil
	}
	ctx := m.ctx
	list := m.graphs
	return func() tea.Msg {
		graphs, err := list(ctx, server.URL)
		return graphsLoadedMsg{server: server.Name, graphs: graphs, err: err}
	}
}

func (m *AppModel) navigate(move func() bool) {
	if move() {
		m.rebuildTable()
	}
}

func (m *AppModel) moveColumn(delta int) {
	cols := m.session.Columns()
	if len(cols) == 0 {
		return
	}
	m.column = (m.column + delta + len(cols)) % len(cols)
	m.rebuildTable()
}

// cycleSort steps through ascending then descending order on each column and
// finally back to server order.
func (m *AppModel) cycleSort() {
	cols := m.session.Columns()
	if len(cols) == 0 || m.sourceRows == nil {
		return
	}
	m.sortIndex++
	if m.sortIndex >= 2*len(cols) {
		m.sortIndex = -1
		m.sortLabel = ""
		m.session.Reorder(m.sourceRows)
		m.rebuildTable()
		return
	}

	field := cols[m.sortIndex/2]
	order := pagination.SortOrderAsc
	if m.sortIndex%2 == 1 {
		order = pagination.SortOrderDesc
	}
	sorter := pagination.NewBindingSorter(cols)
	m.session.Reorder(sorter.Sort(m.sourceRows, field, order))
	m.sortLabel = "?" + field + " " + order
	m.rebuildTable()
}

func (m *AppModel) openDialog() {
	page := m.session.Visible()
	cursor := m.table.Cursor()
	cols := m.session.Columns()
	if cursor < 0 || cursor >= len(page.Rows) || m.column >= len(cols) {
		return
	}
	variable := cols[m.column]
	term, _ := page.Rows[cursor].Get(variable)
	d := detail.New(variable, term)
	m.dialog = &d
	m.state = ViewStateDetail
}

// layout sizes the panes for the current window.
func (m *AppModel) layout() {
	resultsWidth := m.width - pickerWidth - borderPadding
	if resultsWidth < minColumnWidth {
		resultsWidth = minColumnWidth
	}
	m.editor.SetWidth(resultsWidth)
	m.picker.List().SetHeight(max(editorHeight, minHeight))
	m.help.Width = m.width
	m.rebuildTable()
}

func (m *AppModel) tableHeight() int {
	return max(m.height-chromeHeight, minHeight)
}

// rebuildTable renders the session's current page into the table.
func (m *AppModel) rebuildTable() {
	cols := m.session.Columns()
	page := m.session.Visible()

	available := m.width - pickerWidth - borderPadding
	colWidth := maxColumnWidth
	if len(cols) > 0 {
		colWidth = min(max(available/len(cols)-2, minColumnWidth), maxColumnWidth)
	}

	columns := make([]table.Column, len(cols))
	for i, c := range cols {
		title := "?" + c
		if i == m.column {
			title = "▸" + title
		}
		columns[i] = table.Column{Title: title, Width: colWidth}
	}

	rows := make([]table.Row, len(page.Rows))
	for i, b := range page.Rows {
		row := make(table.Row, len(cols))
		for j, t := range b.Row(cols) {
			row[j] = truncate(cellText(t), colWidth)
		}
		rows[i] = row
	}

	cursor := m.table.Cursor()
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(m.focus == FocusResults),
		table.WithHeight(m.tableHeight()),
	)
	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	if cursor >= 0 && cursor < len(rows) {
		t.SetCursor(cursor)
	}
	m.table = t

	m.paginator.PerPage = max(page.PageSize, 1)
	m.paginator.SetTotalPages(page.TotalItems)
	if page.CurrentPage > 0 {
		m.paginator.Page = page.CurrentPage - 1
	}
}

func cellText(t rdf.Term) string {
	if t.IsZero() {
		return ""
	}
	return t.Display()
}

// State returns the current screen.
func (m *AppModel) State() ViewState { return m.state }

// FocusArea returns the focused pane.
func (m *AppModel) FocusArea() Focus { return m.focus }

// Err returns the error shown in the banner, if any.
func (m *AppModel) Err() error { return m.err }

// Dialog returns the open cell dialog, or nil.
func (m *AppModel) Dialog() *detail.Model { return m.dialog }
