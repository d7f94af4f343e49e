package tui

// ViewState represents the current screen of the application.
type ViewState int

const (
	// ViewStateBrowse is the main screen: picker, editor and results.
	ViewStateBrowse ViewState = iota
	// ViewStateLoading indicates a query is running.
	ViewStateLoading
	// ViewStateDetail shows the dialog for one result cell.
	ViewStateDetail
	// ViewStateQuitting indicates the application is exiting.
	ViewStateQuitting
)

// String returns the state name.
func (s ViewState) String() string {
	switch s {
	case ViewStateBrowse:
		return "browse"
	case ViewStateLoading:
		return "loading"
	case ViewStateDetail:
		return "detail"
	case ViewStateQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}

// Focus is the pane receiving key input on the main screen.
type Focus int

const (
	// FocusServers is the server and graph picker.
	FocusServers Focus = iota
	// FocusEditor is the query editor.
	FocusEditor
	// FocusResults is the results table.
	FocusResults

	numFocusAreas = 3
)

// String returns the pane name.
func (f Focus) String() string {
	switch f {
	case FocusServers:
		return "servers"
	case FocusEditor:
		return "editor"
	case FocusResults:
		return "results"
	default:
		return "unknown"
	}
}
