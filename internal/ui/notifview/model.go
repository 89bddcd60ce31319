package notifview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmorse/huddle/internal/browser"
	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/notify"
	"github.com/kmorse/huddle/internal/theme"
)

// ListLoadedMsg is sent when the cached notifications have been loaded.
type ListLoadedMsg struct {
	Items []model.Notification
	Err   error
}

// ActionDoneMsg reports the outcome of a notification mutation. The
// root model watches it to refresh the unread badge.
type ActionDoneMsg struct {
	Info string
	Err  error
}

// Model is the notification center view.
type Model struct {
	service    *notify.Service
	keys       *keys.KeyMap
	items      []model.Notification
	cursor     int
	loadErr    error
	refreshErr error
	notice     string
	width      int
	height     int
}

// New creates the notification view.
func New(service *notify.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		service: service,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init loads the cached notifications.
func (m Model) Init() tea.Cmd {
	return m.LoadItems()
}

// SetRefreshError records a failed background refresh while the cached
// list stays visible.
func (m *Model) SetRefreshError(err error) {
	m.refreshErr = err
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.cursor], true
}

// Update handles messages for the notification view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ListLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.items = msg.Items
			m.refreshErr = nil
			if m.cursor >= len(m.items) {
				m.cursor = 0
			}
		}
		return m, nil

	case ActionDoneMsg:
		if msg.Err != nil {
			m.notice = msg.Err.Error()
			return m, nil
		}
		m.notice = msg.Info
		return m, m.LoadItems()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.Selected(); ok && !n.Read {
			return m, m.markRead(n.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead()

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.Selected(); ok {
			return m, m.delete(n.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Approve):
		if n, ok := m.Selected(); ok {
			return m, m.review(n, true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Reject):
		if n, ok := m.Selected(); ok {
			return m, m.review(n, false)
		}
		return m, nil

	case key.Matches(msg, m.keys.OpenLink):
		if n, ok := m.Selected(); ok {
			return m, openLink(n)
		}
		return m, nil
	}

	return m, nil
}

// LoadItems reads the cached notifications.
func (m Model) LoadItems() tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		items, err := svc.List(context.Background())
		return ListLoadedMsg{Items: items, Err: err}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		if err := svc.MarkAsRead(context.Background(), id); err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Info: "marked read"}
	}
}

func (m Model) markAllRead() tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		if err := svc.MarkAllAsRead(context.Background()); err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Info: "all marked read"}
	}
}

func (m Model) delete(id string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		if err := svc.Delete(context.Background(), id); err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Info: "notification deleted"}
	}
}

func (m Model) review(n model.Notification, approve bool) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		var err error
		var info string
		if approve {
			err = svc.Approve(context.Background(), n, "")
			info = "request approved"
		} else {
			err = svc.Reject(context.Background(), n, "")
			info = "request rejected"
		}
		if err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Info: info}
	}
}

// openLink opens a generic notification's link in the default browser.
func openLink(n model.Notification) tea.Cmd {
	link, ok := n.Data.(model.LinkPayload)
	if !ok || link.URL == "" {
		return func() tea.Msg {
			return ActionDoneMsg{Err: fmt.Errorf("notification %s has no link", n.ID)}
		}
	}
	return func() tea.Msg {
		if err := browser.Open(link.URL); err != nil {
			return ActionDoneMsg{Err: fmt.Errorf("opening link: %w", err)}
		}
		return ActionDoneMsg{Info: "opened in browser"}
	}
}

// View renders the notification list.
func (m Model) View() string {
	var sections []string

	if m.notice != "" {
		sections = append(sections, theme.StaleBannerStyle.Render(m.notice))
	}

	if m.loadErr != nil {
		sections = append(sections,
			theme.ErrorBannerStyle.Render("notifications unavailable: "+m.loadErr.Error()))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.refreshErr != nil {
		sections = append(sections,
			theme.StaleBannerStyle.Render("⚠ refresh failed, showing cached notifications"))
	}

	if len(m.items) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height-2).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
		sections = append(sections, empty)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.renderList())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderList() string {
	maxRows := m.height - 3
	if maxRows < 1 {
		maxRows = 1
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	var lines []string
	for i := start; i < len(m.items) && i < start+maxRows; i++ {
		lines = append(lines, m.renderItem(m.items[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderItem(n model.Notification, selected bool) string {
	badge := theme.NotificationTypeStyle(string(n.Type)).Render(typeBadge(n.Type))

	marker := "  "
	if !n.Read {
		marker = theme.UnreadStyle.Render("● ")
	}

	msg := truncate(n.Message, m.width-22)
	if n.Read {
		msg = theme.ReadStyle.Render(msg)
	} else {
		msg = theme.UnreadStyle.Render(msg)
	}

	when := theme.HelpStyle.Render(n.CreatedAt.Format("Jan 2 15:04"))
	line := fmt.Sprintf("%s%s %s %s", marker, badge, msg, when)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// typeBadge returns a fixed-width tag for each notification type.
func typeBadge(t model.NotificationType) string {
	switch t {
	case model.NotificationRequest:
		return "[REQ]"
	case model.NotificationCompleted:
		return "[ACH]"
	case model.NotificationApproved:
		return "[APR]"
	case model.NotificationRejected:
		return "[REJ]"
	default:
		return "[---]"
	}
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
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
