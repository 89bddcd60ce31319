package scheduleview

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/store"
	"github.com/kmorse/huddle/internal/theme"
)

// GamesLoadedMsg is sent when the cached games have been loaded.
type GamesLoadedMsg struct {
	Games []model.Game
	Err   error
}

// Model is the season schedule view. Games are grouped by week; the
// cursor moves week by week so a whole slate stays visible together.
type Model struct {
	store      store.Store
	keys       *keys.KeyMap
	year       int
	weeks      []int
	byWeek     map[int][]model.Game
	weekCursor int
	loadErr    error
	refreshErr error
	width      int
	height     int
}

// New creates a schedule view backed by the local store.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:  s,
		keys:   k,
		byWeek: make(map[int][]model.Game),
		width:  width,
		height: height,
	}
}

// Init loads the cached schedule.
func (m Model) Init() tea.Cmd {
	return m.LoadGames()
}

// SetSeason pins the view to the current season and week.
func (m *Model) SetSeason(year, currentWeek int) {
	m.year = year
	for i, w := range m.weeks {
		if w == currentWeek {
			m.weekCursor = i
			break
		}
	}
}

// SetRefreshError records a failed background refresh while the cached
// schedule stays visible.
func (m *Model) SetRefreshError(err error) {
	m.refreshErr = err
}

// Update handles messages for the schedule view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case GamesLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.refreshErr = nil
			m.groupGames(msg.Games)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.weekCursor < len(m.weeks)-1 {
				m.weekCursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.weekCursor > 0 {
				m.weekCursor--
			}
		}
		return m, nil
	}

	return m, nil
}

// groupGames buckets games by week, ordered by kickoff within a week.
func (m *Model) groupGames(games []model.Game) {
	m.byWeek = make(map[int][]model.Game)
	for _, g := range games {
		m.byWeek[g.Week] = append(m.byWeek[g.Week], g)
	}

	m.weeks = m.weeks[:0]
	for w := range m.byWeek {
		m.weeks = append(m.weeks, w)
	}
	sort.Ints(m.weeks)

	for _, gs := range m.byWeek {
		sort.Slice(gs, func(i, j int) bool {
			return gs[i].KickoffAt.Before(gs[j].KickoffAt)
		})
	}

	if m.weekCursor >= len(m.weeks) {
		m.weekCursor = 0
	}
}

// LoadGames reads the cached schedule for the pinned season.
func (m Model) LoadGames() tea.Cmd {
	s := m.store
	year := m.year
	return func() tea.Msg {
		games, err := s.GetGames(context.Background(), year)
		return GamesLoadedMsg{Games: games, Err: err}
	}
}

// View renders the schedule grouped by week.
func (m Model) View() string {
	var sections []string

	if m.loadErr != nil {
		sections = append(sections,
			theme.ErrorBannerStyle.Render("schedule unavailable: "+m.loadErr.Error()))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.refreshErr != nil {
		sections = append(sections,
			theme.StaleBannerStyle.Render("⚠ refresh failed, showing cached schedule"))
	}

	if len(m.weeks) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height-2).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No games scheduled yet.")
		sections = append(sections, empty)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	week := m.weeks[m.weekCursor]
	header := theme.TableHeaderStyle.Render(
		fmt.Sprintf("Week %d of %d  (j/k to change week)", week, m.weeks[len(m.weeks)-1]))
	sections = append(sections, header)

	for _, g := range m.byWeek[week] {
		sections = append(sections, m.renderGame(g))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderGame(g model.Game) string {
	status := theme.GameStatusStyle(g.Status).Render(statusLabel(g.Status))

	var score string
	switch g.Status {
	case model.GameScheduled:
		score = theme.HelpStyle.Render(g.KickoffAt.Format("Mon Jan 2 15:04"))
	default:
		score = fmt.Sprintf("%3d - %-3d", g.AwayScore, g.HomeScore)
	}

	line := fmt.Sprintf("%s  %-24s @ %-24s %s",
		status,
		truncate(g.AwayTeam, 24),
		truncate(g.HomeTeam, 24),
		score)
	return theme.ListItemStyle.Render(line)
}

func statusLabel(status string) string {
	switch status {
	case model.GameLive:
		return "LIVE "
	case model.GameFinal:
		return "FINAL"
	default:
		return "     "
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
