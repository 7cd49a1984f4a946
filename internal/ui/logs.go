package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zapcore"

	"github.com/five82/shopdeck/internal/logtail"
)

const logTailLines = 500

var logLevels = []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}

type logsLoadedMsg struct {
	sid     uint64
	entries []logtail.Entry
	err     error
}

// logsScreen shows the tail of the console's own log file. It follows the end of
// the file until the operator scrolls up.
type logsScreen struct {
	base
	path    string
	entries []logtail.Entry
	floor   zapcore.Level
	loading bool
	err     error
	view    viewport.Model
	follow  bool
}

func newLogsScreen(e *env) *logsScreen {
	return &logsScreen{
		base:   base{sid: e.nextSID(), env: e},
		path:   e.cfg.LogFile,
		floor:  zapcore.InfoLevel,
		view:   viewport.New(0, 0),
		follow: true,
	}
}

func (s *logsScreen) Title() string { return "Console log" }
func (s *logsScreen) Busy() bool    { return s.loading }
func (s *logsScreen) Init() tea.Cmd { return s.load() }

func (s *logsScreen) Hints() []hint {
	return []hint{{"j/k", "Scroll"}, {"G", "Follow"}, {"l", "Level"}, {"r", "Reload"}, {"esc", "Back"}}
}

func (s *logsScreen) load() tea.Cmd {
	if s.path == "" {
		return nil
	}
	s.loading = true
	sid, path := s.sid, s.path
	return func() tea.Msg {
		entries, err := logtail.Tail(path, logTailLines)
		return logsLoadedMsg{sid: sid, entries: entries, err: err}
	}
}

func (s *logsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case logsLoadedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.loading = false
		s.err = msg.err
		if msg.err != nil {
			return toast("danger", "Read log: "+msg.err.Error())
		}
		s.entries = msg.entries
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return goBack()
		case "r":
			return s.load()
		case "l":
			s.floor = nextLevel(s.floor)
			s.follow = true
		case "G", "end":
			s.follow = true
			s.view.GotoBottom()
		case "g", "home":
			s.follow = false
			s.view.GotoTop()
		case "j", "down":
			s.view.ScrollDown(1)
			s.follow = s.view.AtBottom()
		case "k", "up":
			s.view.ScrollUp(1)
			s.follow = false
		case "pgdown", "ctrl+d":
			s.view.PageDown()
			s.follow = s.view.AtBottom()
		case "pgup", "ctrl+u":
			s.view.PageUp()
			s.follow = false
		}
	}
	return nil
}

func nextLevel(current zapcore.Level) zapcore.Level {
	for i, lvl := range logLevels {
		if lvl == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return zapcore.InfoLevel
}

func levelTone(lvl zapcore.Level) string {
	switch {
	case lvl >= zapcore.ErrorLevel:
		return "danger"
	case lvl == zapcore.WarnLevel:
		return "warning"
	case lvl == zapcore.InfoLevel:
		return "info"
	}
	return "muted"
}

func renderEntry(styles Styles, e logtail.Entry) string {
	if e.Raw != "" {
		return styles.Text.Render(e.Raw)
	}
	parts := make([]string, 0, 4+len(e.Fields))
	if !e.Time.IsZero() {
		parts = append(parts, styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
	}
	parts = append(parts, styles.ToneStyle(levelTone(e.Level)).Bold(true).Render(fmt.Sprintf("%-5s", e.Level.CapitalString())))
	if e.Logger != "" {
		parts = append(parts, styles.AccentText.Render(e.Logger))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	for _, f := range e.Fields {
		parts = append(parts, styles.MutedText.Render(f.Key+"=")+styles.FaintText.Render(f.Value))
	}
	return strings.Join(parts, " ")
}

func (s *logsScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)

	var status string
	switch {
	case s.path == "":
		return renderBox(th, s.Title(), styles.MutedText.Render("Logging is disabled; set log_file in the config."), width, height)
	case s.err != nil:
		status = styles.DangerText.Render(s.err.Error())
	case s.loading && s.entries == nil:
		status = styles.MutedText.Render("Loading…")
	default:
		status = styles.MutedText.Render(fmt.Sprintf("%s   level ≥ %s", s.path, s.floor.String()))
		if !s.follow {
			status += "   " + styles.WarningText.Render("paused")
		}
	}

	shown := logtail.AtLeast(s.entries, s.floor)
	lines := make([]string, len(shown))
	for i, e := range shown {
		lines[i] = renderEntry(styles, e)
	}
	if len(lines) == 0 && !s.loading {
		lines = []string{styles.MutedText.Render("No entries at this level")}
	}

	s.view.Width = max(width-2, 1)
	s.view.Height = max(height-3, 1)
	s.view.SetContent(strings.Join(lines, "\n"))
	if s.follow {
		s.view.GotoBottom()
	}
	return renderBox(th, s.Title(), s.view.View()+"\n"+status, width, height)
}
