package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
)

type loginResultMsg struct {
	sid uint64
	err error
}

type loginScreen struct {
	base
	form       *form
	next       string
	submitting bool
	err        string
}

func newLoginScreen(e *env, next string) *loginScreen {
	// Only in-console addresses are accepted as a return target.
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "/login") {
		next = ""
	}
	return &loginScreen{
		base: base{sid: e.nextSID(), env: e},
		form: newForm(textField("email", "Email", "", 120), secretField("password", "Password")),
		next: next,
	}
}

func (s *loginScreen) Title() string   { return "Sign in" }
func (s *loginScreen) Init() tea.Cmd   { return nil }
func (s *loginScreen) Capturing() bool { return true }
func (s *loginScreen) Busy() bool      { return s.submitting }

func (s *loginScreen) Hints() []hint {
	return []hint{{"tab", "Next field"}, {"enter", "Sign in"}, {"ctrl+c", "Quit"}}
}

func (s *loginScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.submitting = false
		if msg.err != nil {
			s.form.SetValue("password", "")
			if e, ok := backend.AsError(msg.err); ok && len(e.FieldErrors) > 0 {
				s.form.SetErrors(e.FieldErrors)
			}
			if backend.IsUnauthorized(msg.err) {
				s.err = "Email or password is wrong"
			} else {
				s.err = backend.Message(msg.err)
			}
			return nil
		}
		next := s.next
		return func() tea.Msg { return loggedInMsg{next: next} }
	case tea.KeyMsg:
		if s.submitting {
			return nil
		}
		submit, cmd := s.form.Update(msg)
		if !submit {
			return cmd
		}
		return s.submit()
	}
	return nil
}

func (s *loginScreen) submit() tea.Cmd {
	s.err = ""
	s.form.ClearErrors()
	email, password := s.form.Value("email"), s.form.Value("password")
	errs := map[string]string{}
	if email == "" {
		errs["email"] = "Email is required"
	}
	if password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		s.form.SetErrors(errs)
		return nil
	}
	s.submitting = true
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return func() tea.Msg {
		return loginResultMsg{sid: sid, err: client.Auth().Login(ctx, email, password)}
	}
}

func (s *loginScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	lines := []string{
		styles.Text.Bold(true).Render("shopdeck admin"),
		styles.MutedText.Render(s.env.client.BaseURL()),
		"",
	}
	lines = append(lines, s.form.View(styles, 10, min(width, 70))...)
	lines = append(lines, "")
	switch {
	case s.submitting:
		lines = append(lines, styles.WarningText.Render("Signing in…"))
	case s.err != "":
		lines = append(lines, styles.DangerText.Render(s.err))
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), min(width, 72), min(height, 14))
}
