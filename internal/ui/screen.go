package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/config"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/prefs"
)

// screen is one routed view. Screens are pointers mutated by Update; every message
// that is not a global key is forwarded to the active screen.
type screen interface {
	ID() uint64
	Title() string
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(th Theme, width, height int) string
	Hints() []hint
	// Capturing reports whether keystrokes belong to a text input.
	Capturing() bool
	// Busy reports a visible request in flight.
	Busy() bool
}

// addressable screens own the query string of their location and follow it when
// history moves without leaving the path.
type addressable interface {
	screen
	Reconcile(rawQuery string) tea.Cmd
	// Address is the query string the screen currently stands for.
	Address() string
}

type hint struct{ key, desc string }

// env is what screens need from the outside world.
type env struct {
	ctx    context.Context
	client *backend.Client
	bus    *events.Bus
	cfg    config.Config
	prefs  *prefs.Prefs
	log    *zap.Logger
	now    func() time.Time

	lastSID uint64
}

func (e *env) nextSID() uint64 {
	e.lastSID++
	return e.lastSID
}

func (e *env) pageSize(path string) int {
	if e.prefs == nil {
		return 0
	}
	return e.prefs.PageSize(path)
}

// base carries the identity every screen shares. Messages produced by a screen's
// commands carry its sid so a replaced screen's late answers are dropped.
type base struct {
	sid uint64
	env *env
}

func (b base) ID() uint64      { return b.sid }
func (b base) Capturing() bool { return false }
func (b base) Busy() bool      { return false }

// Messages shared between the root model and screens.

type navigateMsg struct {
	to      string
	replace bool
}

type historyMsg struct{ forward bool }

// addressMsg is a list's own query write; the root reconciles the screen and then
// replaces the current history entry with the screen's address.
type addressMsg struct {
	sid      uint64
	rawQuery string
}

type toastMsg struct {
	tone string
	text string
}

type toastClearMsg struct{ id int }

type pageSizeMsg struct {
	path string
	size int
}

type loggedInMsg struct{ next string }

type sessionExpiredMsg struct{}

type forbiddenMsg struct{ path string }

type tickMsg time.Time

func navigate(to string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

func redirect(to string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to, replace: true} }
}

func goBack() tea.Cmd {
	return func() tea.Msg { return historyMsg{} }
}

func toast(tone, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{tone: tone, text: text} }
}

// failure turns a request error into a toast. Session expiry is reported by the
// client callback, so it is not repeated here.
func failure(prefix string, err error) tea.Cmd {
	if err == nil || backend.IsUnauthorized(err) {
		return nil
	}
	msg := backend.Message(err)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return toast("danger", msg)
}

// waitFor turns one value from ch into a message. A closed channel yields nil.
func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}
