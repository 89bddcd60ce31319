package scheduleview

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
)

func newTestModel() Model {
	return New(nil, keys.DefaultKeyMap(), 110, 24)
}

func testGames() []model.Game {
	kickoff := time.Date(2023, 9, 2, 19, 0, 0, 0, time.UTC)
	return []model.Game{
		{
			ID: 1, Year: 2023, Week: 1,
			HomeTeam: "Georgia", AwayTeam: "Clemson",
			HomeScore: 31, AwayScore: 10,
			Status: model.GameFinal, KickoffAt: kickoff,
		},
		{
			ID: 2, Year: 2023, Week: 1,
			HomeTeam: "Michigan", AwayTeam: "Ohio State",
			HomeScore: 14, AwayScore: 14,
			Status: model.GameLive, KickoffAt: kickoff.Add(3 * time.Hour),
		},
		{
			ID: 3, Year: 2023, Week: 2,
			HomeTeam: "Alabama", AwayTeam: "Auburn",
			Status: model.GameScheduled, KickoffAt: kickoff.AddDate(0, 0, 7),
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGamesLoadedRendersCurrentWeek(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Games: testGames()})

	view := m.View()
	if !strings.Contains(view, "Week 1 of 2") {
		t.Errorf("expected week header, got:\n%s", view)
	}
	if !strings.Contains(view, "Georgia") || !strings.Contains(view, "Clemson") {
		t.Errorf("expected week 1 matchups, got:\n%s", view)
	}
	if strings.Contains(view, "Alabama") {
		t.Errorf("week 2 games must not render on week 1, got:\n%s", view)
	}
}

func TestStatusLabelsAndScores(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Games: testGames()})

	view := m.View()
	if !strings.Contains(view, "FINAL") {
		t.Errorf("expected FINAL label, got:\n%s", view)
	}
	if !strings.Contains(view, "LIVE") {
		t.Errorf("expected LIVE label, got:\n%s", view)
	}
	if !strings.Contains(view, "10") || !strings.Contains(view, "31") {
		t.Errorf("expected final score, got:\n%s", view)
	}
}

func TestScheduledGameShowsKickoffInsteadOfScore(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Games: testGames()})
	m, _ = m.Update(keyMsg("j"))

	view := m.View()
	if !strings.Contains(view, "Week 2 of 2") {
		t.Fatalf("expected week 2 after j, got:\n%s", view)
	}
	if !strings.Contains(view, "Sat Sep 9") {
		t.Errorf("scheduled games show kickoff time, got:\n%s", view)
	}
	if strings.Contains(view, "0 - 0") {
		t.Errorf("scheduled games must not show a score, got:\n%s", view)
	}
}

func TestWeekCursorClampsAtBounds(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Games: testGames()})

	m, _ = m.Update(keyMsg("k"))
	if !strings.Contains(m.View(), "Week 1 of 2") {
		t.Error("k at the first week must stay on week 1")
	}

	m, _ = m.Update(keyMsg("j"))
	m, _ = m.Update(keyMsg("j"))
	if !strings.Contains(m.View(), "Week 2 of 2") {
		t.Error("j at the last week must stay on the last week")
	}
}

func TestSetSeasonPinsCurrentWeek(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Games: testGames()})
	m.SetSeason(2023, 2)

	if !strings.Contains(m.View(), "Week 2 of 2") {
		t.Errorf("SetSeason must pin the cursor to the current week, got:\n%s", m.View())
	}
}

func TestLoadErrorRendersBanner(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Err: errors.New("db locked")})

	if !strings.Contains(m.View(), "schedule unavailable") {
		t.Errorf("expected error banner, got:\n%s", m.View())
	}
}

func TestEmptyScheduleShowsPlaceholder(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(GamesLoadedMsg{Games: nil})

	if !strings.Contains(m.View(), "No games scheduled yet.") {
		t.Errorf("expected empty placeholder, got:\n%s", m.View())
	}
}
