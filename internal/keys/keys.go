package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// View switching
	Standings     key.Binding
	Schedule      key.Binding
	Notifications key.Binding

	// Standings filters
	CycleConference key.Binding
	CycleYear       key.Binding
	CopyLink        key.Binding

	// Standings sort columns
	SortTeam   key.Binding
	SortWins   key.Binding
	SortLosses key.Binding
	SortDiff   key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding
	Delete      key.Binding
	Approve     key.Binding
	Reject      key.Binding
	OpenLink    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Standings: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "standings"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "schedule"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "notifications"),
		),
		CycleConference: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cycle conference"),
		),
		CycleYear: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "cycle year"),
		),
		CopyLink: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy link"),
		),
		SortTeam: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "sort by team"),
		),
		SortWins: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "sort by wins"),
		),
		SortLosses: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "sort by losses"),
		),
		SortDiff: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "sort by point diff"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve request"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject request"),
		),
		OpenLink: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open link"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Standings, k.Schedule, k.Notifications, k.Refresh, k.Help},
		{k.Search, k.CycleConference, k.CycleYear, k.CopyLink},
		{k.SortTeam, k.SortWins, k.SortLosses, k.SortDiff},
		{k.MarkRead, k.MarkAllRead, k.Delete, k.Approve, k.Reject, k.OpenLink},
	}
}
