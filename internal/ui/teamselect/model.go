package teamselect

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/session"
	"github.com/kmorse/huddle/internal/theme"
)

// TeamsLoadedMsg is sent when the team list has been fetched.
type TeamsLoadedMsg struct {
	Teams []model.Team
	Err   error
}

// SelectedMsg is dispatched once a team choice has been persisted.
type SelectedMsg struct {
	Team model.Team
	Err  error
}

// Model is the team picker shown after login.
type Model struct {
	client  *api.Client
	session *session.Store
	keys    *keys.KeyMap
	teams   []model.Team
	cursor  int
	loadErr error
	width   int
	height  int
}

// New creates a team picker.
func New(client *api.Client, sess *session.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		client:  client,
		session: sess,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init fetches the team list.
func (m Model) Init() tea.Cmd {
	return m.loadTeams()
}

// Update handles messages for the team picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TeamsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.teams = msg.Teams
			m.cursor = 0
			// Keep the cursor on the previously selected team when
			// re-entering the picker.
			if cur, ok := m.session.SelectedTeam(); ok {
				for i, t := range m.teams {
					if t.ID == cur.ID {
						m.cursor = i
						break
					}
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.teams)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Select):
			if m.cursor < len(m.teams) {
				return m, m.selectTeam(m.teams[m.cursor])
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.loadTeams()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) loadTeams() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		teams, err := c.Teams(context.Background())
		return TeamsLoadedMsg{Teams: teams, Err: err}
	}
}

func (m Model) selectTeam(team model.Team) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.SelectTeam(context.Background(), team)
		return SelectedMsg{Team: team, Err: err}
	}
}

// View renders the team list.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var sections []string
	sections = append(sections, titleStyle.Render("Choose your team"))

	if m.loadErr != nil {
		sections = append(sections,
			theme.ErrorBannerStyle.Render("teams unavailable: "+m.loadErr.Error()),
			theme.HelpStyle.Render("press r to retry"))
		return lipgloss.NewStyle().Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, sections...))
	}

	if len(m.teams) == 0 {
		sections = append(sections, theme.HelpStyle.Render("Loading teams..."))
		return lipgloss.NewStyle().Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, sections...))
	}

	for i, t := range m.teams {
		label := fmt.Sprintf("%-4s %-28s %s", t.Abbreviation, t.Name, t.Conference)
		if i == m.cursor {
			sections = append(sections, theme.SelectedItemStyle.Render(label))
		} else {
			sections = append(sections, theme.ListItemStyle.Render(label))
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
