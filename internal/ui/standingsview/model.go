package standingsview

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/standings"
	"github.com/kmorse/huddle/internal/store"
	"github.com/kmorse/huddle/internal/theme"
)

// RowsLoadedMsg is sent when standings rows have been loaded from the
// local store.
type RowsLoadedMsg struct {
	Rows []model.StandingsRow
	Err  error
}

// LinkCopiedMsg reports the outcome of copying the shareable link.
type LinkCopiedMsg struct {
	URL string
	Err error
}

// Model is the standings table view. It holds the server-ordered row
// set and applies the filter locally, so every keystroke re-renders
// without a network round trip.
type Model struct {
	store       store.Store
	keys        *keys.KeyMap
	filter      standings.Filter
	rows        []model.StandingsRow
	cursor      int
	confOrder   []string
	confCycle   int
	years       []int
	yearCycle   int
	searchMode  bool
	searchInput textinput.Model
	loadErr     error
	refreshErr  error
	notice      string
	shareBase   string
	width       int
	height      int
}

// New creates a standings view backed by the local store.
func New(s store.Store, k *keys.KeyMap, shareBase string, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search teams..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		store:       s,
		keys:        k,
		searchInput: si,
		shareBase:   shareBase,
		width:       width,
		height:      height,
	}
}

// Init loads the initial row set.
func (m Model) Init() tea.Cmd {
	return m.LoadRows()
}

// SetSeason sets the available season years, newest first, and pins the
// filter to the current season when no year filter is active yet.
func (m *Model) SetSeason(currentYear int) {
	if currentYear == 0 {
		return
	}
	m.years = []int{currentYear, currentYear - 1, currentYear - 2}
	if m.filter.Year == 0 {
		m.filter.Year = currentYear
	}
}

// SetFilter replaces the whole filter state, e.g. when restoring a
// shared link.
func (m *Model) SetFilter(f standings.Filter) {
	m.filter = f
	m.cursor = 0
}

// Filter returns the current filter state.
func (m Model) Filter() standings.Filter {
	return m.filter
}

// Searching reports whether the search input has keyboard focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetRefreshError records a failed background refresh; the view keeps
// rendering the cached rows with a stale banner.
func (m *Model) SetRefreshError(err error) {
	m.refreshErr = err
}

// Update handles messages for the standings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RowsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.rows = msg.Rows
			m.refreshErr = nil
			m.buildConferenceOrder()
			m.clampCursor()
		}
		return m, nil

	case LinkCopiedMsg:
		if msg.Err != nil {
			m.notice = "copy failed: " + msg.Err.Error()
		} else {
			m.notice = "link copied: " + msg.URL
		}
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Search = m.searchInput.Value()
		m.cursor = 0
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Search = ""
		m.cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input outside search mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visibleRows())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Search)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleConference):
		m.cycleConference()
		return m, nil

	case key.Matches(msg, m.keys.CycleYear):
		m.cycleYear()
		return m, m.LoadRows()

	case key.Matches(msg, m.keys.SortTeam):
		m.filter = m.filter.Toggle(standings.ColTeam)
		return m, nil

	case key.Matches(msg, m.keys.SortWins):
		m.filter = m.filter.Toggle(standings.ColWins)
		return m, nil

	case key.Matches(msg, m.keys.SortLosses):
		m.filter = m.filter.Toggle(standings.ColLosses)
		return m, nil

	case key.Matches(msg, m.keys.SortDiff):
		m.filter = m.filter.Toggle(standings.ColDiff)
		return m, nil

	case key.Matches(msg, m.keys.CopyLink):
		return m, m.copyShareLink()
	}

	return m, nil
}

// cycleConference advances the conference filter through the
// conferences present in the current row set.
func (m *Model) cycleConference() {
	if len(m.confOrder) == 0 {
		return
	}
	m.confCycle = (m.confCycle + 1) % len(m.confOrder)
	m.filter.Conference = m.confOrder[m.confCycle]
	m.cursor = 0
}

// cycleYear advances the year filter through the known seasons.
func (m *Model) cycleYear() {
	if len(m.years) == 0 {
		return
	}
	m.yearCycle = (m.yearCycle + 1) % len(m.years)
	m.filter.Year = m.years[m.yearCycle]
	m.cursor = 0
}

// buildConferenceOrder derives the conference cycle order from the
// loaded rows: "" (all) first, then each conference alphabetically.
func (m *Model) buildConferenceOrder() {
	seen := make(map[string]bool)
	for _, r := range m.rows {
		if r.Conference != "" {
			seen[r.Conference] = true
		}
	}
	confs := make([]string, 0, len(seen))
	for c := range seen {
		confs = append(confs, c)
	}
	sort.Strings(confs)
	m.confOrder = append([]string{""}, confs...)
	m.confCycle = 0
}

// visibleRows applies the current filter to the loaded rows.
func (m Model) visibleRows() []model.StandingsRow {
	return m.filter.Apply(m.rows)
}

func (m *Model) clampCursor() {
	if n := len(m.visibleRows()); m.cursor >= n {
		m.cursor = 0
	}
}

// LoadRows returns a tea.Cmd that reads the cached standings for the
// filtered season from the local store.
func (m Model) LoadRows() tea.Cmd {
	s := m.store
	year := m.filter.Year
	return func() tea.Msg {
		rows, err := s.GetStandings(context.Background(), year)
		return RowsLoadedMsg{Rows: rows, Err: err}
	}
}

// copyShareLink copies the current filter state as a dashboard URL.
func (m Model) copyShareLink() tea.Cmd {
	u := m.filter.ShareURL(m.shareBase)
	return func() tea.Msg {
		return LinkCopiedMsg{URL: u, Err: clipboard.WriteAll(u)}
	}
}

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.Year != 0 {
		parts = append(parts, fmt.Sprintf("year %d", m.filter.Year))
	}
	if m.filter.Conference != "" {
		parts = append(parts, "conf "+m.filter.Conference)
	}
	if m.filter.Search != "" {
		parts = append(parts, "search "+m.filter.Search)
	}
	if m.filter.SortColumn != "" && m.filter.SortDir != standings.DirNone {
		dir := "desc"
		if m.filter.SortDir == standings.DirAsc {
			dir = "asc"
		}
		parts = append(parts, "sort "+m.filter.SortColumn+" "+dir)
	}
	return strings.Join(parts, " | ")
}

// View renders the standings table.
func (m Model) View() string {
	var sections []string

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		sections = append(sections, searchBar)
	}

	if m.notice != "" {
		sections = append(sections, theme.StaleBannerStyle.Render(m.notice))
	}

	if m.loadErr != nil {
		sections = append(sections,
			theme.ErrorBannerStyle.Render("standings unavailable: "+m.loadErr.Error()))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.refreshErr != nil {
		sections = append(sections,
			theme.StaleBannerStyle.Render("⚠ refresh failed, showing cached standings"))
	}

	rows := m.visibleRows()
	if len(rows) == 0 {
		sections = append(sections, m.renderEmptyState())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.renderTable(rows))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderEmptyState shows guidance text when no rows match.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.filter.IsZero() {
		return style.Render("No teams match the current filters.\nTry adjusting or clearing them.")
	}
	return style.Render("No standings yet.\nPress r to refresh.")
}

// renderTable renders the header and row lines with the cursor.
func (m Model) renderTable(rows []model.StandingsRow) string {
	header := fmt.Sprintf("%-4s %-24s %-10s %6s %6s %6s %6s %6s",
		"#", "Team", "Conf", "W", "L", "CW-CL", "Diff", "CRank")
	lines := []string{theme.TableHeaderStyle.Render(header)}

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 1
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(rows) && i < start+maxRows; i++ {
		r := rows[i]
		record := theme.RecordStyle(r.Wins, r.Losses)
		line := fmt.Sprintf("%-4d %-24s %-10s %s %s %6s %6d %6d",
			r.Rank,
			truncate(r.TeamName, 24),
			truncate(r.Conference, 10),
			record.Render(fmt.Sprintf("%6d", r.Wins)),
			record.Render(fmt.Sprintf("%6d", r.Losses)),
			fmt.Sprintf("%d-%d", r.ConferenceWins, r.ConferenceLosses),
			r.PointDiff(),
			r.ConferenceRank,
		)

		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
	}

	return strings.Join(lines, "\n")
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
}
