package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/onllm-dev/reelwatch/internal/analytics"
	"github.com/onllm-dev/reelwatch/internal/api"
	"github.com/onllm-dev/reelwatch/internal/search"
)

type recordingTyper struct {
	terms []string
}

func (r *recordingTyper) Type(term string) {
	r.terms = append(r.terms, term)
}

func testState() search.State {
	return search.State{
		Movies: []api.Movie{
			{ID: 693134, Title: "Dune: Part Two", ReleaseDate: "2024-02-27"},
			{ID: 438631, Title: "Dune", ReleaseDate: "2021-09-15"},
			{ID: 841, Title: "Dune", ReleaseDate: ""},
		},
		Trending: []analytics.TrendingEntry{
			{SearchTerm: "dune", Count: 4},
			{SearchTerm: "matrix", Count: 2},
		},
		CatalogLeft:    198,
		CatalogLimit:   200,
		AnalyticsLeft:  199,
		AnalyticsLimit: 200,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_TypingForwardsToTyper(t *testing.T) {
	typer := &recordingTyper{}
	model := NewModel(typer, search.State{}, nil)

	var updated tea.Model = model
	for _, r := range "dun" {
		updated, _ = updated.Update(runes(string(r)))
	}

	want := []string{"d", "du", "dun"}
	if len(typer.terms) != len(want) {
		t.Fatalf("typed %v, want %v", typer.terms, want)
	}
	for i := range want {
		if typer.terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, typer.terms[i], want[i])
		}
	}

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if last := typer.terms[len(typer.terms)-1]; last != "du" {
		t.Errorf("after backspace typed %q, want %q", last, "du")
	}
}

func TestModel_CursorNavigation(t *testing.T) {
	model := NewModel(&recordingTyper{}, testState(), nil)

	var updated tea.Model = model
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	if c := updated.(Model).Cursor(); c != 1 {
		t.Errorf("cursor after down = %d, want 1", c)
	}

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	if c := updated.(Model).Cursor(); c != 2 {
		t.Errorf("cursor should stop at last movie, got %d", c)
	}

	for range 5 {
		updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	if c := updated.(Model).Cursor(); c != 0 {
		t.Errorf("cursor should stop at 0, got %d", c)
	}
}

func TestModel_StateMsgClampsCursor(t *testing.T) {
	model := NewModel(&recordingTyper{}, testState(), nil)

	var updated tea.Model = model
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})

	next := testState()
	next.Movies = next.Movies[:1]
	updated, _ = updated.Update(StateMsg(next))
	if c := updated.(Model).Cursor(); c != 0 {
		t.Errorf("cursor = %d, want 0 after list shrank", c)
	}

	next.Movies = nil
	updated, _ = updated.Update(StateMsg(next))
	if c := updated.(Model).Cursor(); c != 0 {
		t.Errorf("cursor = %d, want 0 for empty list", c)
	}
}

func TestModel_OpenSelectedMovie(t *testing.T) {
	var opened []string
	opener := func(url string) error {
		opened = append(opened, url)
		return nil
	}
	model := NewModel(&recordingTyper{}, testState(), opener)

	var updated tea.Model = model
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, command := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if command == nil {
		t.Fatal("enter should return a command")
	}

	message := command()
	if len(opened) != 1 || opened[0] != "https://www.themoviedb.org/movie/438631" {
		t.Fatalf("opened = %v, want the second movie's page", opened)
	}

	updated, _ = updated.Update(message)
	if view := updated.View(); !strings.Contains(view, "Opened https://www.themoviedb.org/movie/438631") {
		t.Errorf("view should report the opened page, got:\n%s", view)
	}
}

func TestModel_OpenFailureShowsStatus(t *testing.T) {
	opener := func(string) error { return errors.New("no display") }
	model := NewModel(&recordingTyper{}, testState(), opener)

	updated, command := model.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if command == nil {
		t.Fatal("ctrl+o should return a command")
	}
	updated, _ = updated.Update(command())
	if view := updated.View(); !strings.Contains(view, "Could not open browser: no display") {
		t.Errorf("view should show the open error, got:\n%s", view)
	}
}

func TestModel_OpenWithEmptyList(t *testing.T) {
	model := NewModel(&recordingTyper{}, search.State{}, func(string) error {
		t.Error("opener should not be called with no movies")
		return nil
	})

	_, command := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if command != nil {
		t.Error("enter with no movies should return nil command")
	}
}

func TestModel_Quit(t *testing.T) {
	model := NewModel(&recordingTyper{}, search.State{}, nil)

	for _, msg := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		_, command := model.Update(msg)
		if command == nil {
			t.Fatalf("%s should return a command", msg)
		}
		if _, isQuit := command().(tea.QuitMsg); !isQuit {
			t.Errorf("%s: expected QuitMsg", msg)
		}
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(&recordingTyper{}, testState(), nil)
	view := model.View()

	for _, want := range []string{
		"Catalog calls left today: 198 / 200",
		"Analytics calls left today: 199 / 200",
		"Trending Searches",
		"1. dune",
		"2. matrix",
		"> Dune: Part Two (2024)",
		"Dune (2021)",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Dune ()") {
		t.Error("movie without a release date should not show empty parentheses")
	}
}

func TestModel_ViewLoadingAndError(t *testing.T) {
	state := testState()
	state.Loading = true
	model := NewModel(&recordingTyper{}, state, nil)
	if view := model.View(); !strings.Contains(view, "Loading...") {
		t.Errorf("view should show loading indicator:\n%s", view)
	}

	state.Loading = false
	state.ErrorMessage = search.QuotaExceededMessage
	updated, _ := model.Update(StateMsg(state))
	view := updated.View()
	if !strings.Contains(view, search.QuotaExceededMessage) {
		t.Errorf("view should show error message:\n%s", view)
	}
	if !strings.Contains(view, "Dune: Part Two") {
		t.Error("prior results should stay visible alongside the error")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	model := NewModel(&recordingTyper{}, search.State{}, nil)
	view := model.View()
	if !strings.Contains(view, "No movies found.") {
		t.Errorf("empty view should say no movies found:\n%s", view)
	}
	if strings.Contains(view, "Trending Searches") {
		t.Error("trending section should be hidden when empty")
	}
}

func TestTheme_QuotaColor(t *testing.T) {
	theme := DefaultTheme
	if got := theme.QuotaColor(200, 200); got != theme.QuotaOK {
		t.Errorf("QuotaColor(200, 200) = %v, want QuotaOK", got)
	}
	if got := theme.QuotaColor(5, 200); got != theme.QuotaLow {
		t.Errorf("QuotaColor(5, 200) = %v, want QuotaLow", got)
	}
	if got := theme.QuotaColor(0, 0); got != theme.QuotaLow {
		t.Errorf("QuotaColor(0, 0) = %v, want QuotaLow", got)
	}
}
