package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/notify"
	"github.com/kmorse/huddle/internal/query"
	"github.com/kmorse/huddle/internal/session"
	"github.com/kmorse/huddle/internal/store"
	appsync "github.com/kmorse/huddle/internal/sync"
	"github.com/kmorse/huddle/internal/ui"
	helpview "github.com/kmorse/huddle/internal/ui/help"
	"github.com/kmorse/huddle/internal/ui/loginview"
	"github.com/kmorse/huddle/internal/ui/notifview"
	"github.com/kmorse/huddle/internal/ui/scheduleview"
	"github.com/kmorse/huddle/internal/ui/standingsview"
	"github.com/kmorse/huddle/internal/ui/teamselect"
)

// Cache keys for the server resources the poller keeps fresh.
const (
	keyCurrentWeek   = "current-week"
	keyStandings     = "standings"
	keyNotifications = "notifications"
	keyGames         = "games"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// loginResultMsg reports the outcome of a login attempt.
type loginResultMsg struct {
	err error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewTeamSelect
	ViewStandings
	ViewSchedule
	ViewNotifications
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the background sync machinery.
type Model struct {
	currentView   ViewState
	previousView  ViewState
	layout        ui.Layout
	cfg           *model.AppConfig
	client        *api.Client
	store         store.Store
	session       *session.Store
	notify        *notify.Service
	cache         *query.Cache
	poller        *appsync.Poller
	keys          *keys.KeyMap
	loginView     loginview.Model
	teamView      teamselect.Model
	standingsView standingsview.Model
	scheduleView  scheduleview.Model
	notifView     notifview.Model
	helpView      helpview.Model
	season        model.SeasonProgress
	unreadCount   int
	pollerStarted bool
	ready         bool
}

// New creates a new root application model.
func New(
	cfg *model.AppConfig,
	client *api.Client,
	st store.Store,
	sess *session.Store,
) Model {
	km := keys.DefaultKeyMap()
	cache := query.NewCache()
	notifySvc := notify.NewService(client, st, sess)

	m := Model{
		currentView:   ViewLogin,
		cfg:           cfg,
		client:        client,
		store:         st,
		session:       sess,
		notify:        notifySvc,
		cache:         cache,
		poller:        appsync.New(cache),
		keys:          km,
		loginView:     loginview.New(80, 24),
		teamView:      teamselect.New(client, sess, km, 80, 24),
		standingsView: standingsview.New(st, km, cfg.Server.BaseURL, 80, 24),
		scheduleView:  scheduleview.New(st, km, 80, 24),
		notifView:     notifview.New(notifySvc, km, 80, 24),
		helpView:      helpview.New(km, 80, 24),
	}
	m.registerResources()

	if sess.IsAuthenticated() {
		if _, ok := sess.SelectedTeam(); ok {
			m.currentView = ViewStandings
		} else {
			m.currentView = ViewTeamSelect
		}
	}
	return m
}

// registerResources wires the server-owned resources into the poller.
// Each fetcher stores its payload in sqlite so the views read a
// consistent local copy even when the server is unreachable.
func (m *Model) registerResources() {
	opts := query.Options{
		StaleTime: m.cfg.Cache.StaleTime(),
		CacheTime: m.cfg.Cache.CacheTime(),
		Retry:     m.cfg.Cache.Retry,
		RetryIf:   api.Retryable,
	}

	client := m.client
	st := m.store
	refresh := m.cfg.Refresh

	m.poller.Register(appsync.Resource{
		Key:      keyCurrentWeek,
		Interval: time.Duration(refresh.CurrentWeekSec) * time.Second,
		Options:  opts,
		Fetch: func(ctx context.Context) (any, error) {
			return client.CurrentWeek(ctx)
		},
	})

	m.poller.Register(appsync.Resource{
		Key:      keyStandings,
		Interval: time.Duration(refresh.StandingsSec) * time.Second,
		Options:  opts,
		Fetch: func(ctx context.Context) (any, error) {
			page, err := client.Standings(ctx, nil)
			if err != nil {
				return nil, err
			}
			if len(page.Content) > 0 {
				year := page.Content[0].Year
				if err := st.ReplaceStandings(ctx, year, page.Content); err != nil {
					return nil, err
				}
			}
			return page.Content, nil
		},
	})

	m.poller.Register(appsync.Resource{
		Key:      keyNotifications,
		Interval: time.Duration(refresh.NotificationsSec) * time.Second,
		Options:  opts,
		Fetch: func(ctx context.Context) (any, error) {
			ns, err := client.Notifications(ctx)
			if err != nil {
				return nil, err
			}
			if err := st.ReplaceNotifications(ctx, ns); err != nil {
				return nil, err
			}
			return ns, nil
		},
	})

	m.poller.Register(appsync.Resource{
		Key:      keyGames,
		Interval: time.Duration(refresh.StandingsSec) * time.Second,
		Options:  opts,
		Fetch: func(ctx context.Context) (any, error) {
			games, err := client.Games(ctx)
			if err != nil {
				return nil, err
			}
			if len(games) > 0 {
				year := games[0].Year
				if err := st.ReplaceGames(ctx, year, games); err != nil {
					return nil, err
				}
			}
			return games, nil
		},
	})
}

// Init starts the login form or, with a restored session, the poller.
func (m Model) Init() tea.Cmd {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.Start()
	case ViewTeamSelect:
		return m.teamView.Init()
	default:
		return m.startSync()
	}
}

// startSync launches the poller once and loads the cached views so
// something renders before the first refresh lands.
func (m *Model) startSync() tea.Cmd {
	if m.pollerStarted {
		return nil
	}
	m.pollerStarted = true
	return tea.Batch(
		m.poller.Start(),
		m.standingsView.LoadRows(),
		m.scheduleView.LoadGames(),
		m.notifView.LoadItems(),
		m.fetchUnreadCount(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.teamView.SetSize(contentWidth, contentHeight)
		m.standingsView.SetSize(contentWidth, contentHeight)
		m.scheduleView.SetSize(contentWidth, contentHeight)
		m.notifView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case appsync.ResultMsg:
		return m.handleSyncResult(msg)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case loginview.SubmitMsg:
		return m, m.doLogin(msg.Credentials)

	case loginResultMsg:
		if msg.err != nil {
			m.loginView.SetError(msg.err)
			return m, m.loginView.Start()
		}
		if _, ok := m.session.SelectedTeam(); ok {
			m.currentView = ViewStandings
			return m, m.startSync()
		}
		m.currentView = ViewTeamSelect
		return m, m.teamView.Init()

	case teamselect.SelectedMsg:
		if msg.Err != nil {
			return m.updateActiveView(msg)
		}
		m.currentView = ViewStandings
		return m, m.startSync()

	case notifview.ActionDoneMsg:
		// Let the view show the outcome, then refresh the badge.
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, tea.Batch(cmd, m.fetchUnreadCount())

	case tea.KeyMsg:
		if newM, cmd, handled := m.handleGlobalKeys(msg); handled {
			return newM, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleSyncResult routes a completed background refresh to the views.
func (m Model) handleSyncResult(msg appsync.ResultMsg) (tea.Model, tea.Cmd) {
	waitCmd := m.poller.WaitForNextResult()

	if msg.AuthExpired {
		m.pollerStarted = false
		m.poller.Stop()
		m.previousView = m.currentView
		m.currentView = ViewLogin
		m.loginView.SetError(&api.AuthenticationError{Message: "session expired"})
		return m, tea.Batch(waitCmd, m.loginView.Start())
	}

	refreshErr := msg.Snapshot.Err
	if refreshErr == nil {
		refreshErr = msg.Snapshot.RefreshErr
	}

	var cmds []tea.Cmd
	cmds = append(cmds, waitCmd)

	switch msg.Key {
	case keyCurrentWeek:
		if sp, ok := query.Data[*model.SeasonProgress](msg.Snapshot); ok && sp != nil {
			m.season = *sp
			m.standingsView.SetSeason(sp.Year)
			m.scheduleView.SetSeason(sp.Year, sp.CurrentWeek)
			cmds = append(cmds, m.standingsView.LoadRows(), m.scheduleView.LoadGames())
		}

	case keyStandings:
		if refreshErr != nil {
			m.standingsView.SetRefreshError(refreshErr)
		} else {
			cmds = append(cmds, m.standingsView.LoadRows())
		}

	case keyNotifications:
		if refreshErr != nil {
			m.notifView.SetRefreshError(refreshErr)
		} else {
			cmds = append(cmds, m.notifView.LoadItems(), m.fetchUnreadCount())
		}

	case keyGames:
		if refreshErr != nil {
			m.scheduleView.SetRefreshError(refreshErr)
		} else {
			cmds = append(cmds, m.scheduleView.LoadGames())
		}
	}

	return m, tea.Batch(cmds...)
}

// handleGlobalKeys processes keys that work regardless of the active
// view. Returns handled=false when the key should go to the view, e.g.
// while the standings search input has focus.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	// Text inputs own the keyboard while focused.
	if m.currentView == ViewLogin || m.currentView == ViewTeamSelect {
		if msg.String() == "ctrl+c" {
			m.poller.Stop()
			return m, tea.Quit, true
		}
		return m, nil, false
	}
	if m.currentView == ViewStandings && m.standingsView.Searching() {
		return m, nil, false
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.poller.Stop()
		return m, tea.Quit, true

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case "1":
		m.currentView = ViewStandings
		return m, m.standingsView.LoadRows(), true

	case "2":
		m.currentView = ViewSchedule
		return m, m.scheduleView.LoadGames(), true

	case "3":
		m.currentView = ViewNotifications
		return m, m.notifView.LoadItems(), true

	case "r":
		m.poller.RefreshAll()
		return m, nil, true
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewTeamSelect:
		m.teamView, cmd = m.teamView.Update(msg)
	case ViewStandings:
		m.standingsView, cmd = m.standingsView.Update(msg)
	case ViewSchedule:
		m.scheduleView, cmd = m.scheduleView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// doLogin performs the credential exchange off the UI goroutine.
func (m Model) doLogin(creds api.Credentials) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return loginResultMsg{err: sess.Login(ctx, creds)}
	}
}

// fetchUnreadCount recounts unread notifications for the header badge.
func (m Model) fetchUnreadCount() tea.Cmd {
	svc := m.notify
	return func() tea.Msg {
		count, err := svc.UnreadCount(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: count}
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Huddle"
	if team, ok := m.session.SelectedTeam(); ok {
		headerTitle = "Huddle · " + team.Name
	}
	if m.unreadCount > 0 {
		headerTitle += fmt.Sprintf(" [%d new]", m.unreadCount)
	}

	season := ui.SeasonLabel(m.season.Year, m.season.CurrentWeek, m.season.Progress)
	header := m.layout.RenderHeader(headerTitle, season, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewTeamSelect:
		return m.teamView.View()
	case ViewStandings:
		return m.standingsView.View()
	case ViewSchedule:
		return m.scheduleView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	if !m.pollerStarted {
		return ""
	}

	statuses := m.poller.GetStatuses()
	running := 0
	errCount := 0
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			errCount++
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if errCount > 0 {
		return fmt.Sprintf("⚠ %d stale", errCount)
	}
	return "live"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | tab next field | ctrl+c quit"
	case ViewTeamSelect:
		return "j/k move | enter select | r reload | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewSchedule:
		return "j/k change week | 1 standings | 3 notifications | r refresh | q quit"
	case ViewNotifications:
		return "m read | M all read | d delete | a approve | x reject | o open | q quit"
	default:
		summary := m.standingsView.FilterSummary()
		if summary != "" {
			return summary + " | Y copy link | ? help"
		}
		return "/ search | c conference | y year | t/w/l/p sort | Y copy link | ? help"
	}
}
