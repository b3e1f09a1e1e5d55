package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vietddude/moviesync/internal/app"
)

var (
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#44475a"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))
)

// View implements tea.Model.
func (m Model) View() string {
	st := m.styles
	var b strings.Builder

	b.WriteString(m.input.View() + "\n\n")

	if m.view != nil {
		switch m.view.Source {
		case app.SourceStaged:
			b.WriteString(st.Heading.Render("Results from your last search") + "\n")
		case app.SourceMyList:
			b.WriteString(st.Heading.Render("My list") + "\n")
		case app.SourceSearch:
			b.WriteString(st.Heading.Render("Results") + "\n")
		}
		if m.view.Offline && m.view.Message != "" {
			b.WriteString(st.Warning.Render(m.view.Message) + "\n")
		}
		for i, movie := range m.view.Movies {
			line := app.ShortLine(movie, m.view.OnList[movie.ImdbID], st)
			if i == m.selected && m.focus == focusList {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}

	if m.details != nil {
		b.WriteString("\n")
		switch {
		case m.details.Details != nil:
			b.WriteString(app.DetailCard(*m.details.Details, st) + "\n")
		case m.details.Message != "":
			b.WriteString(st.Warning.Render(m.details.Message) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + st.Muted.Render(m.status) + "\n")
	}

	var help []string
	for _, k := range m.keys.help() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString("\n" + helpStyle.Render(strings.Join(help, " • ")))
	return b.String()
}
