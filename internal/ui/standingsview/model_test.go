package standingsview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/standings"
)

func newTestModel() Model {
	m := New(nil, keys.DefaultKeyMap(), "https://league.example.com", 100, 24)
	return m
}

func testRows() []model.StandingsRow {
	return []model.StandingsRow{
		{TeamName: "Georgia", Conference: "SEC", Year: 2023, Wins: 10, Losses: 2, Rank: 1},
		{TeamName: "Alabama", Conference: "SEC", Year: 2023, Wins: 9, Losses: 3, Rank: 2},
		{TeamName: "Michigan", Conference: "Big Ten", Year: 2023, Wins: 11, Losses: 1, Rank: 3},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRowsLoadedRendersTable(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})

	view := m.View()
	if !strings.Contains(view, "Georgia") {
		t.Errorf("expected 'Georgia' in standings view, got:\n%s", view)
	}
	if !strings.Contains(view, "Team") {
		t.Errorf("expected header row in standings view, got:\n%s", view)
	}
}

func TestLoadErrorRendersBanner(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Err: errFake("cache exploded")})

	view := m.View()
	if !strings.Contains(view, "standings unavailable") {
		t.Errorf("expected error banner, got:\n%s", view)
	}
	if strings.Contains(view, "Georgia") {
		t.Errorf("error state must not render rows, got:\n%s", view)
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }

func TestRefreshErrorKeepsRowsWithStaleBanner(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})
	m.SetRefreshError(errFake("server unreachable"))

	view := m.View()
	if !strings.Contains(view, "refresh failed") {
		t.Errorf("expected stale banner, got:\n%s", view)
	}
	if !strings.Contains(view, "Georgia") {
		t.Errorf("cached rows must stay visible, got:\n%s", view)
	}
}

func TestEmptyFilterResultShowsGuidance(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})
	m.SetFilter(standings.Filter{Search: "nonexistent"})

	view := m.View()
	if !strings.Contains(view, "No teams match") {
		t.Errorf("expected filtered empty state, got:\n%s", view)
	}
}

func TestEmptyDataShowsRefreshHint(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: nil})

	view := m.View()
	if !strings.Contains(view, "No standings yet") {
		t.Errorf("expected empty state, got:\n%s", view)
	}
}

func TestSearchKeyEntersSearchModeAndFilters(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})

	m, _ = m.Update(keyMsg("/"))
	if !m.Searching() {
		t.Fatal("'/' must enter search mode")
	}

	for _, r := range "michigan" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.Searching() {
		t.Fatal("enter must leave search mode")
	}
	if m.Filter().Search != "michigan" {
		t.Errorf("want search filter %q, got %q", "michigan", m.Filter().Search)
	}

	view := m.View()
	if !strings.Contains(view, "Michigan") || strings.Contains(view, "Georgia") {
		t.Errorf("search must narrow the rendered rows, got:\n%s", view)
	}
}

func TestSearchEscClearsFilter(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})

	m, _ = m.Update(keyMsg("/"))
	m, _ = m.Update(keyMsg("x"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.Searching() || m.Filter().Search != "" {
		t.Errorf("esc must clear the search, got %q", m.Filter().Search)
	}
}

func TestSortKeysToggleFilter(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})

	m, _ = m.Update(keyMsg("w"))
	f := m.Filter()
	if f.SortColumn != standings.ColWins || f.SortDir != standings.DirDesc {
		t.Fatalf("'w' must sort wins desc, got %q %v", f.SortColumn, f.SortDir)
	}

	m, _ = m.Update(keyMsg("w"))
	if m.Filter().SortDir != standings.DirAsc {
		t.Errorf("second 'w' must flip to asc, got %v", m.Filter().SortDir)
	}

	m, _ = m.Update(keyMsg("w"))
	if !m.Filter().IsZero() {
		t.Errorf("third 'w' must clear the sort, got %+v", m.Filter())
	}
}

func TestConferenceCycle(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(RowsLoadedMsg{Rows: testRows()})

	m, _ = m.Update(keyMsg("c"))
	if got := m.Filter().Conference; got != "Big Ten" {
		t.Fatalf("first cycle must pick the first conference alphabetically, got %q", got)
	}

	m, _ = m.Update(keyMsg("c"))
	if got := m.Filter().Conference; got != "SEC" {
		t.Fatalf("second cycle: want SEC, got %q", got)
	}

	m, _ = m.Update(keyMsg("c"))
	if got := m.Filter().Conference; got != "" {
		t.Errorf("cycle must wrap back to all conferences, got %q", got)
	}
}

func TestFilterSummary(t *testing.T) {
	m := newTestModel()
	m.SetFilter(standings.Filter{
		Year:       2023,
		Conference: "SEC",
		SortColumn: standings.ColWins,
		SortDir:    standings.DirDesc,
	})

	summary := m.FilterSummary()
	for _, want := range []string{"year 2023", "conf SEC", "sort wins desc"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q: %q", want, summary)
		}
	}
}
