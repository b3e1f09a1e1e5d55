package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vietddude/moviesync/internal/core/domain"
)

// Styles used by the text renderer.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Warning lipgloss.Style
	Card    lipgloss.Style
}

// DefaultStyles returns the terminal palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f8f8f2")),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5c518")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb86c")),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#44475a")).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that render no escape sequences.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain, Heading: plain, Muted: plain, Accent: plain, Warning: plain, Card: plain}
}

// Render writes view to w.
func Render(w io.Writer, view *View, st Styles) error {
	var b strings.Builder

	switch view.Source {
	case SourceStaged:
		b.WriteString(st.Heading.Render("Results from your last search") + "\n")
	case SourceMyList:
		b.WriteString(st.Heading.Render("My list") + "\n")
	case SourceSearch:
		b.WriteString(st.Heading.Render(fmt.Sprintf("Results for %q", view.Query)) + "\n")
	}

	if view.Offline && view.Message != "" {
		b.WriteString(st.Warning.Render(view.Message) + "\n")
	}

	if view.Source != SourceDetails {
		if len(view.Movies) == 0 && !view.Offline {
			b.WriteString(st.Muted.Render("No movies.") + "\n")
		}
		for _, m := range view.Movies {
			b.WriteString(ShortLine(m, view.OnList[m.ImdbID], st) + "\n")
		}
	}

	if view.Details != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(DetailCard(*view.Details, st) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ShortLine renders one movie of a list.
func ShortLine(m domain.Movie, onList bool, st Styles) string {
	marker := st.Muted.Render("[ ]")
	if onList {
		marker = st.Accent.Render("[x]")
	}
	return fmt.Sprintf("%s %s %s %s",
		marker,
		st.Muted.Render(m.ImdbID),
		st.Title.Render(m.Title),
		st.Muted.Render("("+m.Year+")"),
	)
}

// DetailCard renders the full record of a movie.
func DetailCard(m domain.Movie, st Styles) string {
	lines := []string{
		st.Title.Render(m.Title) + " " + st.Muted.Render("("+m.Year+")"),
	}
	field := func(label, value string) {
		if value != "" {
			lines = append(lines, st.Muted.Render(label+": ")+value)
		}
	}
	field("Genre", m.Genre)
	field("Director", m.Director)
	field("Actors", m.Actors)
	if m.Plot != "" {
		lines = append(lines, "", m.Plot)
	}
	return st.Card.Render(strings.Join(lines, "\n"))
}
