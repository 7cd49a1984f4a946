package ui

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/config"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/nav"
	"github.com/five82/shopdeck/internal/prefs"
	"github.com/five82/shopdeck/internal/state"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *backend.Client
	Store     *state.Store
	Bus       *events.Bus
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	// Location is the address to open; empty falls back to the saved one.
	Location string
	Logger   *zap.Logger
	// Now is the clock; tests pin it.
	Now func() time.Time
}

type toastState struct {
	id   int
	tone string
	text string
}

type visitMode int

const (
	visitPush visitMode = iota
	visitReplace
	visitHistory
)

// Model is the root application state for Bubble Tea.
type Model struct {
	env       *env
	router    *nav.Router
	history   *nav.History
	store     *state.Store
	prefsPath string
	keys      keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	screen     screen
	screenPath string

	snapshot state.Snapshot
	toast    toastState
	spinner  spinner.Model

	editingLocation bool
	locationBar     textinput.Model

	showHelp bool
	help     viewport.Model

	// startCmd initializes the first screen, built in New.
	startCmd tea.Cmd

	// Bus subscriptions, re-armed after every delivery.
	expiredCh   <-chan events.SessionExpired
	forbiddenCh <-chan events.Forbidden
	unsubscribe []func()
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	bus := opts.Bus
	if bus == nil {
		bus = &events.Bus{}
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	p := opts.Prefs

	e := &env{
		ctx:    ctx,
		client: opts.Client,
		bus:    bus,
		cfg:    opts.Config,
		prefs:  &p,
		log:    logger,
		now:    now,
	}

	start := opts.Location
	if start == "" {
		start = p.LastLocation
	}
	if start == "" {
		start = homePath
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	bar := textinput.New()
	bar.Prompt = ": "
	bar.CharLimit = 200

	m := Model{
		env:         e,
		router:      newRouter(),
		history:     nav.NewHistory(nav.Parse(start)),
		store:       store,
		prefsPath:   prefsPath,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(p.Theme),
		spinner:     sp,
		locationBar: bar,
		help:        viewport.New(helpWidth-6, 10),
	}

	var cancelExpired, cancelForbidden func()
	m.expiredCh, cancelExpired = bus.SessionExpired.Subscribe()
	m.forbiddenCh, cancelForbidden = bus.Forbidden.Subscribe()
	m.unsubscribe = []func(){cancelExpired, cancelForbidden}
	m.startCmd = m.visit(m.history.Current(), visitReplace)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.startCmd,
		m.spinner.Tick,
		badgeTickCmd(),
		m.waitExpired(),
		m.waitForbidden(),
	)
}

// Location returns the current address.
func (m Model) Location() nav.Location { return m.history.Current() }

func (m Model) waitExpired() tea.Cmd {
	return waitFor(m.expiredCh, func(events.SessionExpired) tea.Msg { return sessionExpiredMsg{} })
}

func (m Model) waitForbidden() tea.Cmd {
	return waitFor(m.forbiddenCh, func(f events.Forbidden) tea.Msg { return forbiddenMsg{path: f.Path} })
}

func badgeTickCmd() tea.Cmd {
	return tea.Tick(BadgeRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// guard applies the authentication rules to a requested location.
func (m Model) guard(loc nav.Location) nav.Location {
	if loc.Path == "/" {
		loc = nav.Parse(homePath)
	}
	authed := m.env.client.Session().Authenticated()
	switch {
	case !authed && loc.Path != loginPath:
		return loginLocation(loc)
	case authed && loc.Path == loginPath:
		next := loc.Query().Get("next")
		if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, loginPath) {
			return nav.Parse(next)
		}
		return nav.Parse(homePath)
	}
	return loc
}

// loginLocation is the login page returning to next after sign-in.
func loginLocation(next nav.Location) nav.Location {
	v := url.Values{}
	if next.Path != homePath || next.RawQuery != "" {
		v.Set("next", next.String())
	}
	return nav.Location{Path: loginPath, RawQuery: v.Encode()}
}

// visit moves to loc. A screen that owns its query follows a same-path move in
// place; everything else builds a fresh screen.
func (m *Model) visit(loc nav.Location, mode visitMode) tea.Cmd {
	target := m.guard(loc)
	switch mode {
	case visitPush:
		if !m.history.Push(target) && m.screen != nil && m.screenPath == target.Path {
			return nil
		}
	case visitReplace:
		m.history.Replace(target)
	case visitHistory:
		if target != loc {
			m.history.Replace(target)
		}
	}

	if a, ok := m.screen.(addressable); ok && m.screenPath == target.Path {
		return a.Reconcile(target.RawQuery)
	}
	m.env.log.Debug("open screen", zap.String("location", target.String()))
	m.screen = build(m.env, m.router, target)
	m.screenPath = target.Path
	m.showHelp = false
	return m.screen.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Height = max(m.height-8, 5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.snapshot = m.store.Snapshot()
		return m, badgeTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case navigateMsg:
		mode := visitPush
		if msg.replace {
			mode = visitReplace
		}
		return m, m.visit(nav.Parse(msg.to), mode)

	case historyMsg:
		var (
			loc nav.Location
			ok  bool
		)
		if msg.forward {
			loc, ok = m.history.Forward()
		} else {
			loc, ok = m.history.Back()
		}
		if !ok {
			return m, nil
		}
		return m, m.visit(loc, visitHistory)

	case addressMsg:
		if m.screen == nil || msg.sid != m.screen.ID() {
			return m, nil
		}
		a, ok := m.screen.(addressable)
		if !ok {
			m.history.Replace(m.history.Current().WithQuery(msg.rawQuery))
			return m, nil
		}
		cmd := a.Reconcile(msg.rawQuery)
		m.history.Replace(m.history.Current().WithQuery(a.Address()))
		return m, cmd

	case toastMsg:
		m.toast = toastState{id: m.toast.id + 1, tone: msg.tone, text: msg.text}
		id := m.toast.id
		return m, tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastClearMsg{id: id} })

	case toastClearMsg:
		if msg.id == m.toast.id {
			m.toast.text = ""
		}
		return m, nil

	case pageSizeMsg:
		*m.env.prefs = m.env.prefs.WithPageSize(msg.path, msg.size)
		m.savePrefs()
		return m, nil

	case loggedInMsg:
		m.store.Reset()
		m.snapshot = state.Snapshot{}
		next := msg.next
		if next == "" {
			next = homePath
		}
		return m, m.visit(nav.Parse(next), visitReplace)

	case sessionExpiredMsg:
		m.store.Reset()
		m.snapshot = state.Snapshot{}
		cmds := []tea.Cmd{m.waitExpired()}
		if m.screenPath != loginPath {
			cmds = append(cmds,
				m.visit(m.history.Current(), visitReplace),
				toast("warning", "Session expired, please sign in again"))
		}
		return m, tea.Batch(cmds...)

	case forbiddenMsg:
		cmds := []tea.Cmd{m.waitForbidden()}
		if m.screenPath != forbiddenPath && m.screenPath != loginPath {
			m.env.log.Info("forbidden", zap.String("path", msg.path))
			cmds = append(cmds, m.visit(nav.Parse(forbiddenPath), visitReplace))
		}
		return m, tea.Batch(cmds...)
	}

	if m.screen != nil {
		return m, m.screen.Update(msg)
	}
	return m, nil
}

// handleKey routes a key to the overlay, the location bar, the global bindings or
// the active screen, in that order.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Close, m.keys.Help):
			m.showHelp = false
		case key.Matches(msg, m.keys.Up):
			m.help.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.help.ScrollDown(1)
		case key.Matches(msg, m.keys.PageUp):
			m.help.PageUp()
		case key.Matches(msg, m.keys.PageDown):
			m.help.PageDown()
		}
		return m, nil
	}

	if m.editingLocation {
		switch {
		case key.Matches(msg, m.keys.Close):
			m.editingLocation = false
			m.locationBar.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Confirm):
			m.editingLocation = false
			m.locationBar.Blur()
			if raw := strings.TrimSpace(m.locationBar.Value()); raw != "" {
				return m, m.visit(nav.Parse(raw), visitPush)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.locationBar, cmd = m.locationBar.Update(msg)
		return m, cmd
	}

	if m.screen != nil && m.screen.Capturing() {
		return m, m.screen.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.openHelp()
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.env.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		return m, goBack()
	case key.Matches(msg, m.keys.Forward):
		return m, func() tea.Msg { return historyMsg{forward: true} }
	case key.Matches(msg, m.keys.Location):
		m.editingLocation = true
		m.locationBar.SetValue(m.history.Current().String())
		m.locationBar.CursorEnd()
		return m, m.locationBar.Focus()
	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.Sections):
		for _, s := range sections {
			if s.key == msg.String() {
				return m, m.visit(nav.Parse(s.path), visitPush)
			}
		}
	}

	if m.screen != nil {
		return m, m.screen.Update(msg)
	}
	return m, nil
}

func (m *Model) logout() tea.Cmd {
	if err := m.env.client.Auth().Logout(); err != nil {
		m.env.log.Warn("clear session", zap.Error(err))
	}
	m.store.Reset()
	m.snapshot = state.Snapshot{}
	return tea.Batch(
		m.visit(nav.Parse(loginPath), visitPush),
		toast("info", "Signed out"),
	)
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, *m.env.prefs); err != nil {
		m.env.log.Warn("save preferences", zap.Error(err))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	contentHeight := max(m.height-chromeLines, 3)
	content := ""
	if m.screen != nil {
		content = m.screen.View(m.theme, m.width, contentHeight)
	}
	content = lipgloss.NewStyle().Width(m.width).Height(contentHeight).MaxHeight(contentHeight).Render(content)

	return strings.Join([]string{
		m.renderHeader(),
		m.renderLocation(),
		content,
		m.renderCommandBar(),
		m.renderToast(),
	}, "\n")
}

// Run starts the Bubble Tea program and remembers where the operator left off.
func Run(opts Options) error {
	m := New(opts)
	defer func() {
		for _, cancel := range m.unsubscribe {
			cancel()
		}
	}()

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	final, err := tea.NewProgram(m, progOpts...).Run()
	if fm, ok := final.(Model); ok {
		if loc := fm.Location(); loc.Path != loginPath && loc.Path != forbiddenPath {
			fm.env.prefs.LastLocation = loc.String()
			fm.savePrefs()
		}
	}
	return err
}
