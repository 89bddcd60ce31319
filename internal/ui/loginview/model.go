package loginview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/theme"
)

// SubmitMsg is dispatched when the user submits the login form.
type SubmitMsg struct {
	Credentials api.Credentials
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	username string
	password string
}

// Model is the Bubble Tea model for the login form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	loginErr error
	busy     bool
	width    int
	height   int
}

// New creates a new login form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes a fresh login form. Any previous error stays
// visible so the user knows why they are back here.
func (m *Model) Start() tea.Cmd {
	m.busy = false
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError records a failed login attempt or an expired session.
func (m *Model) SetError(err error) {
	m.loginErr = err
	m.busy = false
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.loginErr = nil
		creds := api.Credentials{
			Username: m.fb.username,
			Password: m.fb.password,
		}
		return m, func() tea.Msg { return SubmitMsg{Credentials: creds} }
	}
	if m.form.State == huh.StateAborted {
		// Abort restarts the form; there is nowhere to go back to
		// without a session.
		return m, m.Start()
	}

	return m, cmd
}

// View renders the login form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var parts []string
	parts = append(parts, titleStyle.Render("Sign in to Huddle"))

	if m.loginErr != nil {
		parts = append(parts, theme.ErrorBannerStyle.Render(loginErrorText(m.loginErr)))
	}

	if m.busy {
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	} else {
		parts = append(parts, m.form.View())
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(strings.Join(parts, "\n"))
}

// loginErrorText maps API errors to user-facing text.
func loginErrorText(err error) string {
	if api.IsAuthentication(err) {
		return "Invalid username or password."
	}
	if api.Retryable(err) {
		return "Cannot reach the server. Check your connection and try again."
	}
	return fmt.Sprintf("Sign-in failed: %v", err)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Placeholder("coach@example.edu").
				Value(&m.fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
