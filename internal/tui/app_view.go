package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/export"
)

// maxDotsPages is the largest page count drawn as paginator dots.
const maxDotsPages = 20

// View implements tea.Model.
func (m *AppModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateDetail:
		if m.dialog != nil {
			return m.dialog.View(m.width - borderPadding)
		}
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.renderPicker(), m.renderEditor())
	sections := []string{top}
	if m.err != nil {
		sections = append(sections, m.renderErrorBanner())
	}
	sections = append(sections, m.renderResults(), m.renderStatusBar(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *AppModel) renderPicker() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Servers"))
	b.WriteString("\n")
	if m.picker.List().Len() == 0 {
		b.WriteString(SubtleStyle.Render("none configured"))
	} else {
		b.WriteString(m.picker.List().View())
	}
	return paneStyle(m.focus == FocusServers).
		Width(pickerWidth).
		Height(editorHeight + 1).
		Render(b.String())
}

func (m *AppModel) renderEditor() string {
	server, graph := m.picker.Active()
	title := HeaderStyle.Render("Query")
	if server.Name != "" {
		title += SubtleStyle.Render(footerSeparator + server.Name)
	}
	if graph != "" {
		title += SubtleStyle.Render(statusSeparator + lastSegment(graph))
	}
	return paneStyle(m.focus == FocusEditor).Render(title + "\n" + m.editor.View())
}

func (m *AppModel) renderErrorBanner() string {
	return ErrorBannerStyle.
		Width(max(m.width-borderPadding, minColumnWidth)).
		Render("Error: " + m.err.Error() + "  (esc to dismiss)")
}

func (m *AppModel) renderResults() string {
	var body string
	switch {
	case m.state == ViewStateLoading:
		elapsed := time.Since(m.startedAt).Truncate(time.Second)
		body = m.loading.View() + SubtleStyle.Render(" "+elapsed.String()+" (esc to cancel)")
	case !m.session.HasResults():
		body = SubtleStyle.Render("Run a query with ctrl+r to see results.")
	default:
		body = m.table.View() + "\n" + m.renderFooter()
	}
	return paneStyle(m.focus == FocusResults).
		Width(max(m.width-borderPadding, minColumnWidth)).
		Render(body)
}

// renderFooter returns "Page x/y, (n results)" with paginator dots for short
// result sets.
func (m *AppModel) renderFooter() string {
	meta := pagination.MetaFromPage(m.session.Visible())
	footer := export.Footer(meta)
	if m.sortLabel != "" {
		footer += SubtleStyle.Render(statusSeparator + "sorted by " + m.sortLabel)
	}
	if meta.TotalPages > 1 && meta.TotalPages <= maxDotsPages {
		footer += footerSeparator + m.paginator.View()
	}
	return footer
}

func (m *AppModel) renderStatusBar() string {
	parts := []string{"focus: " + m.focus.String()}
	if res := m.session.Result(); res != nil && res.Stats != nil {
		p := message.NewPrinter(language.English)
		s := p.Sprintf("%d %s in %s over %d pages", res.ResultSet.Len(), resultCountLabel,
			res.Stats.Duration.Truncate(time.Millisecond), res.Stats.Pages)
		if res.Cached {
			s += " (cached)"
		}
		if res.Stats.Truncated {
			s += " (limit reached)"
		}
		parts = append(parts, s)
	}
	return SubtleStyle.Render(strings.Join(parts, statusSeparator))
}
