package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/internal/sage"
	"github.com/rshade/sagequery/internal/tui/detail"
)

func rows(n int) *engine.Result {
	rs := &rdf.ResultSet{Vars: []string{"n", "s"}}
	for i := range n {
		rs.Rows = append(rs.Rows, rdf.BindingOf(
			"n", rdf.NewTypedLiteral(strconv.Itoa(i), "http://www.w3.org/2001/XMLSchema#integer"),
			"s", rdf.NewURI("http://example.org/item/"+strconv.Itoa(i)),
		))
	}
	return &engine.Result{ResultSet: rs, Stats: &sage.Stats{Pages: 1, Rows: n}}
}

type fakeRunner struct {
	results []*engine.Result
	errs    []error
	calls   []sage.Request
}

func (f *fakeRunner) run(_ context.Context, req sage.Request, _ engine.Options) (*engine.Result, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	var res *engine.Result
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func testServers() []Server {
	return []Server{
		{Name: "nantes", URL: "https://sage.example", DefaultGraph: "https://sage.example/sparql/watdiv"},
		{Name: "local", URL: "http://localhost:8000"},
	}
}

func newTestApp(t *testing.T, runner *fakeRunner, graphs GraphsFunc) *AppModel {
	t.Helper()
	session, err := engine.NewSession(nil, 2)
	require.NoError(t, err)
	m := NewAppModel(context.Background(), session, runner.run, graphs, Options{
		Servers:       testServers(),
		DefaultServer: "nantes",
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// collect runs cmd and any batched commands, returning the messages of the
// requested type.
func collect[T any](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, collect[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

// runQuery presses ctrl+r and feeds the completion back into the model.
func runQuery(t *testing.T, m *AppModel) {
	t.Helper()
	_, cmd := m.Update(keyPress("ctrl+r"))
	require.Equal(t, ViewStateLoading, m.State())
	done := collect[queryDoneMsg](cmd)
	require.Len(t, done, 1)
	m.Update(done[0])
}

func TestNewAppModel(t *testing.T) {
	m := newTestApp(t, &fakeRunner{}, nil)

	assert.Equal(t, ViewStateBrowse, m.State())
	assert.Equal(t, FocusEditor, m.FocusArea())
	assert.Equal(t, SampleQuery, m.editor.Value())
	assert.Contains(t, m.View(), "Run a query")

	req := m.Request()
	assert.Equal(t, "https://sage.example", req.Server)
	assert.Equal(t, "https://sage.example/sparql/watdiv", req.DefaultGraph)
}

func TestAppModel_ExecuteAndNavigate(t *testing.T) {
	runner := &fakeRunner{results: []*engine.Result{rows(5)}}
	m := newTestApp(t, runner, nil)

	runQuery(t, m)
	require.NoError(t, m.Err())
	assert.Equal(t, ViewStateBrowse, m.State())
	assert.Equal(t, FocusResults, m.FocusArea())
	require.Len(t, runner.calls, 1)
	assert.Equal(t, SampleQuery, runner.calls[0].Query)

	assert.Contains(t, m.renderFooter(), "Page 1/3, (5 results)")
	assert.Len(t, m.table.Rows(), 2)

	m.Update(keyPress("]"))
	assert.Contains(t, m.renderFooter(), "Page 2/3, (5 results)")

	m.Update(keyPress("]"))
	m.Update(keyPress("]"))
	assert.Contains(t, m.renderFooter(), "Page 3/3, (5 results)")
	assert.Len(t, m.table.Rows(), 1)

	m.Update(keyPress("["))
	assert.Equal(t, 2, m.session.Visible().CurrentPage)

	m.Update(keyPress("g"))
	assert.Equal(t, 1, m.session.Visible().CurrentPage)
	m.Update(keyPress("G"))
	assert.Equal(t, 3, m.session.Visible().CurrentPage)
}

func TestAppModel_FailedQueryKeepsResults(t *testing.T) {
	boom := errors.New("server unreachable")
	runner := &fakeRunner{
		results: []*engine.Result{rows(3), nil},
		errs:    []error{nil, boom},
	}
	m := newTestApp(t, runner, nil)

	runQuery(t, m)
	m.Update(keyPress("]"))
	require.Equal(t, 2, m.session.Visible().CurrentPage)

	runQuery(t, m)
	require.ErrorIs(t, m.Err(), boom)
	assert.True(t, m.session.HasResults())
	assert.Equal(t, 2, m.session.Visible().CurrentPage)
	assert.Contains(t, m.View(), "server unreachable")

	m.Update(keyPress("esc"))
	assert.NoError(t, m.Err())
}

func TestAppModel_CancelDropsLateResult(t *testing.T) {
	runner := &fakeRunner{results: []*engine.Result{rows(3)}}
	m := newTestApp(t, runner, nil)

	_, cmd := m.Update(keyPress("ctrl+r"))
	require.Equal(t, ViewStateLoading, m.State())

	m.Update(keyPress("esc"))
	assert.Equal(t, ViewStateBrowse, m.State())
	require.ErrorIs(t, m.Err(), ErrQueryCancelled)

	for _, msg := range collect[queryDoneMsg](cmd) {
		m.Update(msg)
	}
	assert.False(t, m.session.HasResults())
}

func TestAppModel_EmptyQuery(t *testing.T) {
	m := newTestApp(t, &fakeRunner{}, nil)
	m.editor.SetValue("")

	_, cmd := m.Update(keyPress("ctrl+r"))
	assert.Nil(t, cmd)
	assert.Equal(t, ViewStateBrowse, m.State())
	require.ErrorIs(t, m.Err(), sage.ErrEmptyQuery)
}

func TestAppModel_CellDialog(t *testing.T) {
	runner := &fakeRunner{results: []*engine.Result{rows(3), rows(1)}}
	m := newTestApp(t, runner, nil)
	runQuery(t, m)

	m.Update(keyPress("down"))
	m.Update(keyPress("enter"))
	require.Equal(t, ViewStateDetail, m.State())
	require.NotNil(t, m.Dialog())
	assert.Equal(t, detail.KindLiteral, m.Dialog().Kind())
	assert.Equal(t, "1", m.Dialog().Term.Value())
	assert.Contains(t, m.View(), "Literal")

	// b does nothing on a literal
	m.Update(keyPress("b"))
	assert.Equal(t, ViewStateDetail, m.State())

	m.Update(keyPress("esc"))
	assert.Equal(t, ViewStateBrowse, m.State())

	m.Update(keyPress(">"))
	m.Update(keyPress("enter"))
	require.Equal(t, detail.KindURI, m.Dialog().Kind())

	_, cmd := m.Update(keyPress("b"))
	assert.Equal(t, ViewStateLoading, m.State())
	assert.Contains(t, m.editor.Value(), "<http://example.org/item/1> ?p ?o")
	done := collect[queryDoneMsg](cmd)
	require.Len(t, done, 1)
	m.Update(done[0])
	assert.Equal(t, 1, m.session.Visible().TotalItems)
}

func TestAppModel_CycleSort(t *testing.T) {
	runner := &fakeRunner{results: []*engine.Result{rows(3)}}
	m := newTestApp(t, runner, nil)
	runQuery(t, m)

	first := func() string {
		v, _ := m.session.Visible().Rows[0].Get("n")
		return v.Value()
	}

	m.Update(keyPress("s"))
	assert.Equal(t, "0", first())
	assert.Contains(t, m.renderFooter(), "?n asc")

	m.Update(keyPress("s"))
	assert.Equal(t, "2", first())
	assert.Contains(t, m.renderFooter(), "?n desc")

	m.Update(keyPress("s"))
	m.Update(keyPress("s"))
	m.Update(keyPress("s"))
	assert.Empty(t, m.sortLabel)
	assert.Equal(t, "0", first())
}

func TestAppModel_FocusCycle(t *testing.T) {
	m := newTestApp(t, &fakeRunner{}, nil)

	m.Update(keyPress("tab"))
	assert.Equal(t, FocusResults, m.FocusArea())
	m.Update(keyPress("tab"))
	assert.Equal(t, FocusServers, m.FocusArea())
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, FocusResults, m.FocusArea())
}

func TestAppModel_EditorReceivesQ(t *testing.T) {
	m := newTestApp(t, &fakeRunner{}, nil)
	m.editor.SetValue("")

	_, cmd := m.Update(keyPress("q"))
	assert.Equal(t, ViewStateBrowse, m.State())
	assert.Equal(t, "q", m.editor.Value())
	_ = cmd
}

func TestAppModel_Quit(t *testing.T) {
	m := newTestApp(t, &fakeRunner{}, nil)

	_, cmd := m.Update(keyPress("ctrl+c"))
	assert.Equal(t, ViewStateQuitting, m.State())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestAppModel_PickerDiscoversGraphs(t *testing.T) {
	var asked []string
	graphs := func(_ context.Context, serverURL string) ([]sage.Graph, error) {
		asked = append(asked, serverURL)
		return []sage.Graph{{URI: "http://localhost:8000/sparql/dbpedia", Title: "DBpedia"}}, nil
	}
	m := newTestApp(t, &fakeRunner{}, graphs)

	m.Update(keyPress("tab"))
	m.Update(keyPress("tab"))
	require.Equal(t, FocusServers, m.FocusArea())

	m.Update(keyPress("j"))
	_, cmd := m.Update(keyPress("enter"))
	require.NotNil(t, cmd)
	loaded := collect[graphsLoadedMsg](cmd)
	require.Len(t, loaded, 1)
	m.Update(loaded[0])
	assert.Equal(t, []string{"http://localhost:8000"}, asked)

	items := m.picker.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "DBpedia", items[2].Label())

	m.Update(keyPress("j"))
	_, cmd = m.Update(keyPress("enter"))
	assert.Nil(t, cmd)

	req := m.Request()
	assert.Equal(t, "http://localhost:8000", req.Server)
	assert.Equal(t, "http://localhost:8000/sparql/dbpedia", req.DefaultGraph)
}

func TestAppModel_PickerDiscoveryError(t *testing.T) {
	graphs := func(context.Context, string) ([]sage.Graph, error) {
		return nil, errors.New("no void")
	}
	m := newTestApp(t, &fakeRunner{}, graphs)
	m.setFocus(FocusServers)

	_, cmd := m.Update(keyPress("r"))
	for _, msg := range collect[graphsLoadedMsg](cmd) {
		m.Update(msg)
	}
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "no void")
	assert.Error(t, m.picker.Err("nantes"))
}

func TestPicker_LabelAndTruncate(t *testing.T) {
	item := PickerItem{Graph: &sage.Graph{URI: "http://example.org/sparql/watdiv10m"}}
	assert.Equal(t, "watdiv10m", item.Label())
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "…", truncate("abc", 1))
}

func TestDetectOutputMode(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "xterm")
	assert.Equal(t, OutputModePlain, DetectOutputMode(f, f))
	assert.Equal(t, defaultWidth, TerminalWidth(f))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, OutputModePlain, DetectOutputMode(os.Stdin, os.Stdout))
	assert.Equal(t, "plain", OutputModePlain.String())
	assert.Equal(t, "interactive", OutputModeInteractive.String())
}

func TestViewStateAndFocusNames(t *testing.T) {
	assert.Equal(t, "loading", ViewStateLoading.String())
	assert.Equal(t, "detail", ViewStateDetail.String())
	assert.Equal(t, "servers", FocusServers.String())
	assert.Equal(t, "results", FocusResults.String())
}

func TestAppModel_NilResultLoadsEmptyPage(t *testing.T) {
	runner := &fakeRunner{results: []*engine.Result{nil, {Stats: &sage.Stats{}}}}
	m := newTestApp(t, runner, nil)

	runQuery(t, m)
	require.NoError(t, m.Err())
	assert.Equal(t, ViewStateBrowse, m.State())
	assert.True(t, m.session.HasResults())
	assert.Equal(t, 0, m.session.Visible().TotalItems)

	runQuery(t, m)
	require.NoError(t, m.Err())
	assert.Equal(t, 0, m.session.Visible().TotalPages)
}
