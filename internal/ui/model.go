// Package ui is the interactive movie browser: a search field with a
// debounced query, the result list, and a details pane.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vietddude/moviesync/internal/app"
)

const defaultDebounce = 500 * time.Millisecond

// Foreground is what the browser needs from the app.
type Foreground interface {
	Launch(ctx context.Context) (*app.View, error)
	Search(ctx context.Context, query string) (*app.View, error)
	Details(ctx context.Context, id string) (*app.View, error)
	Toggle(ctx context.Context, id string) (bool, error)
}

// Options configures the browser.
type Options struct {
	Context  context.Context
	App      Foreground
	Debounce time.Duration
}

type focus int

const (
	focusInput focus = iota
	focusList
)

type (
	viewMsg struct {
		view *app.View
		err  error
	}
	detailsMsg struct {
		view *app.View
		err  error
	}
	toggledMsg struct {
		id  string
		on  bool
		err error
	}
	debounceMsg struct {
		seq   int
		query string
	}
)

// Model is the browser state.
type Model struct {
	ctx      context.Context
	app      Foreground
	keys     keyMap
	debounce time.Duration
	styles   app.Styles

	input    textinput.Model
	focus    focus
	seq      int
	view     *app.View
	selected int
	details  *app.View
	status   string
	width    int
}

// New creates the browser model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	input := textinput.New()
	input.Placeholder = "Search movies"
	input.Prompt = "/ "
	input.CharLimit = 100
	input.Focus()

	return Model{
		ctx:      ctx,
		app:      opts.App,
		keys:     defaultKeyMap(),
		debounce: debounce,
		styles:   app.DefaultStyles(),
		input:    input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.launchCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.searchCmd(msg.query)

	case viewMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.view = msg.view
		m.selected = 0
		m.status = ""
		// Staged details from a background retry open the details pane.
		if msg.view.Details != nil {
			m.details = &app.View{Source: app.SourceDetails, Details: msg.view.Details}
		}
		return m, nil

	case detailsMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.details = msg.view
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if m.view != nil {
			if m.view.OnList == nil {
				m.view.OnList = make(map[string]bool)
			}
			m.view.OnList[msg.id] = msg.on
		}
		if msg.on {
			m.status = "Added to your list"
		} else {
			m.status = "Removed from your list"
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.focus = focusList
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Close):
		m.details = nil
		return m, nil
	}

	if m.focus == focusInput {
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() == before {
			return m, cmd
		}
		m.seq++
		return m, tea.Batch(cmd, debounceCmd(m.debounce, m.seq, m.input.Value()))
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.view != nil && m.selected < len(m.view.Movies)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Details):
		if id := m.selectedID(); id != "" {
			return m, m.detailsCmd(id)
		}
	case key.Matches(msg, m.keys.Toggle):
		if id := m.selectedID(); id != "" {
			return m, m.toggleCmd(id)
		}
	}
	return m, nil
}

func (m Model) selectedID() string {
	if m.view == nil || m.selected < 0 || m.selected >= len(m.view.Movies) {
		return ""
	}
	return m.view.Movies[m.selected].ImdbID
}

func debounceCmd(d time.Duration, seq int, query string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq, query: query}
	})
}

func (m Model) launchCmd() tea.Cmd {
	return func() tea.Msg {
		view, err := m.app.Launch(m.ctx)
		return viewMsg{view: view, err: err}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.app.Search(m.ctx, query)
		return viewMsg{view: view, err: err}
	}
}

func (m Model) detailsCmd(id string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.app.Details(m.ctx, id)
		return detailsMsg{view: view, err: err}
	}
}

func (m Model) toggleCmd(id string) tea.Cmd {
	return func() tea.Msg {
		on, err := m.app.Toggle(m.ctx, id)
		return toggledMsg{id: id, on: on, err: err}
	}
}

// Run starts the browser and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
