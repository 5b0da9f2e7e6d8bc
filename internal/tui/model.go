// Package tui is the interactive terminal front end for reelwatch. It
// forwards keystrokes to the search orchestrator and renders the state the
// orchestrator publishes.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/onllm-dev/reelwatch/internal/search"
)

// Typer receives every change to the query input.
type Typer interface {
	Type(term string)
}

// Opener opens a URL outside the terminal.
type Opener func(url string) error

// StateMsg carries a new orchestrator state into the program. Send it with
// tea.Program.Send from an orchestrator observer.
type StateMsg search.State

// openedMsg reports the result of opening a movie page.
type openedMsg struct {
	url string
	err error
}

// Model implements tea.Model for the search screen.
type Model struct {
	typer  Typer
	opener Opener
	keys   KeyMap
	theme  Theme

	input  textinput.Model
	state  search.State
	cursor int
	status string
	width  int
}

// NewModel creates the search screen. initial is shown until the first
// StateMsg arrives. A nil opener uses the system browser.
func NewModel(typer Typer, initial search.State, opener Opener) Model {
	if opener == nil {
		opener = browser.OpenURL
	}

	input := textinput.New()
	input.Placeholder = "Search through thousands of movies"
	input.Prompt = "🔎 "
	input.CharLimit = 200
	input.SetValue(initial.SearchTerm)
	input.Focus()

	return Model{
		typer:  typer,
		opener: opener,
		keys:   DefaultKeyMap,
		theme:  DefaultTheme,
		input:  input,
		state:  initial,
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.Up):
			if model.cursor > 0 {
				model.cursor--
			}
			return model, nil
		case key.Matches(message, model.keys.Down):
			if model.cursor < len(model.state.Movies)-1 {
				model.cursor++
			}
			return model, nil
		case key.Matches(message, model.keys.Open):
			return model, model.openSelected()
		}

		before := model.input.Value()
		var command tea.Cmd
		model.input, command = model.input.Update(message)
		if after := model.input.Value(); after != before {
			model.status = ""
			if model.typer != nil {
				model.typer.Type(after)
			}
		}
		return model, command

	case StateMsg:
		model.state = search.State(message)
		if model.cursor >= len(model.state.Movies) {
			model.cursor = max(len(model.state.Movies)-1, 0)
		}
		return model, nil

	case openedMsg:
		if message.err != nil {
			model.status = "Could not open browser: " + message.err.Error()
		} else {
			model.status = "Opened " + message.url
		}
		return model, nil

	case tea.WindowSizeMsg:
		model.width = message.Width
		return model, nil
	}

	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

// openSelected returns a command that opens the highlighted movie's page,
// or nil when the list is empty.
func (model Model) openSelected() tea.Cmd {
	if model.cursor < 0 || model.cursor >= len(model.state.Movies) {
		return nil
	}
	url := model.state.Movies[model.cursor].PageURL()
	opener := model.opener
	return func() tea.Msg {
		return openedMsg{url: url, err: opener(url)}
	}
}

// Cursor returns the index of the highlighted movie.
func (model Model) Cursor() int {
	return model.cursor
}

// View implements tea.Model.
func (model Model) View() string {
	theme := model.theme
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	selected := lipgloss.NewStyle().
		Background(theme.SelectedBackground).
		Foreground(theme.SelectedForeground)

	var b strings.Builder

	b.WriteString(header.Render("Find Movies You'll Enjoy Without the Hassle"))
	b.WriteString("\n\n")
	b.WriteString(model.input.View())
	b.WriteString("\n\n")

	b.WriteString(model.quotaLine("Catalog", model.state.CatalogLeft, model.state.CatalogLimit))
	b.WriteString("\n")
	b.WriteString(model.quotaLine("Analytics", model.state.AnalyticsLeft, model.state.AnalyticsLimit))
	b.WriteString("\n\n")

	if len(model.state.Trending) > 0 {
		b.WriteString(header.Render("Trending Searches"))
		b.WriteString("\n")
		for i, entry := range model.state.Trending {
			fmt.Fprintf(&b, "%s %s\n",
				faint.Render(fmt.Sprintf("%d.", i+1)),
				normal.Render(entry.SearchTerm),
			)
		}
		b.WriteString("\n")
	}

	b.WriteString(header.Render("All Movies"))
	b.WriteString("\n")

	switch {
	case model.state.Loading:
		b.WriteString(faint.Render("Loading..."))
		b.WriteString("\n")
	case model.state.ErrorMessage != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ErrorForeground).Render(model.state.ErrorMessage))
		b.WriteString("\n")
	}

	if len(model.state.Movies) == 0 && !model.state.Loading {
		b.WriteString(faint.Render("No movies found."))
		b.WriteString("\n")
	}
	for i, movie := range model.state.Movies {
		line := movie.Title
		if year := movie.Year(); year != "" {
			line += " (" + year + ")"
		}
		if i == model.cursor {
			b.WriteString(selected.Render("> " + line))
		} else {
			b.WriteString(normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if model.status != "" {
		b.WriteString("\n")
		b.WriteString(faint.Render(model.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.HelpText).Render(model.helpLine()))
	return b.String()
}

func (model Model) quotaLine(pool string, left, limit int) string {
	style := lipgloss.NewStyle().Foreground(model.theme.QuotaColor(left, limit))
	return fmt.Sprintf("%s calls left today: %s", pool, style.Render(fmt.Sprintf("%d / %d", left, limit)))
}

func (model Model) helpLine() string {
	bindings := []key.Binding{model.keys.Up, model.keys.Down, model.keys.Open, model.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " • ")
}
