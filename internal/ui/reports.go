package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
)

var reportLabels = map[string]string{
	backend.ReportOrder:   "Orders",
	backend.ReportStock:   "Stock",
	backend.ReportDaily:   "Daily summary",
	backend.ReportMonthly: "Monthly summary",
}

type reportSavedMsg struct {
	sid  uint64
	path string
	err  error
}

// reportsScreen downloads a PDF report into the report directory.
type reportsScreen struct {
	base
	form    *form
	running bool
	last    string
}

func newReportsScreen(e *env) *reportsScreen {
	opts := make([]choiceOption, 0, len(backend.ReportTypes()))
	for _, t := range backend.ReportTypes() {
		opts = append(opts, choiceOption{value: t, label: reportLabels[t]})
	}
	today := e.now().Format(time.DateOnly)
	f := newForm(
		choiceField("type", "Report", opts, backend.ReportOrder),
		textField("startDate", "From", today, 10),
		textField("endDate", "To", today, 10),
	)
	f.field("startDate").hint = "YYYY-MM-DD"
	f.field("endDate").hint = "YYYY-MM-DD"
	return &reportsScreen{base: base{sid: e.nextSID(), env: e}, form: f}
}

func (s *reportsScreen) Title() string   { return "Reports" }
func (s *reportsScreen) Init() tea.Cmd   { return nil }
func (s *reportsScreen) Capturing() bool { return true }
func (s *reportsScreen) Busy() bool      { return s.running }

func (s *reportsScreen) Hints() []hint {
	return []hint{{"tab", "Next field"}, {"ctrl+s", "Download"}, {"esc", "Back"}}
}

// reportParams validates the form into download parameters.
func reportParams(f *form) (backend.ReportParams, map[string]string) {
	errs := map[string]string{}
	p := backend.ReportParams{Type: f.Value("type")}
	var err error
	if p.StartDate, err = time.Parse(time.DateOnly, f.Value("startDate")); err != nil {
		errs["startDate"] = "Use YYYY-MM-DD"
	}
	if p.EndDate, err = time.Parse(time.DateOnly, f.Value("endDate")); err != nil {
		errs["endDate"] = "Use YYYY-MM-DD"
	}
	if len(errs) == 0 {
		if err := p.Validate(); err != nil {
			errs["endDate"] = err.Error()
		}
	}
	if len(errs) > 0 {
		return backend.ReportParams{}, errs
	}
	return p, nil
}

func (s *reportsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case reportSavedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.running = false
		if msg.err != nil {
			return failure("Report failed", msg.err)
		}
		s.last = msg.path
		return toast("success", "Report saved to "+msg.path)
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return goBack()
		}
		if s.running {
			return nil
		}
		submit, cmd := s.form.Update(msg)
		if submit {
			return s.download()
		}
		return cmd
	}
	return nil
}

func (s *reportsScreen) download() tea.Cmd {
	s.form.ClearErrors()
	params, errs := reportParams(s.form)
	if errs != nil {
		s.form.SetErrors(errs)
		return nil
	}
	s.running = true
	ctx, client, sid, dir := s.env.ctx, s.env.client, s.sid, s.env.cfg.ReportDir
	return func() tea.Msg {
		data, err := client.Reports().PDF(ctx, params)
		if err != nil {
			return reportSavedMsg{sid: sid, err: err}
		}
		path, err := writeReport(dir, params.FileName(), data)
		return reportSavedMsg{sid: sid, path: path, err: err}
	}
}

func writeReport(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (s *reportsScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	lines := s.form.View(styles, 8, width-2)
	lines = append(lines, "", styles.MutedText.Render("Saved under "+s.env.cfg.ReportDir))
	switch {
	case s.running:
		lines = append(lines, styles.WarningText.Render("Downloading…"))
	case s.last != "":
		lines = append(lines, styles.SuccessText.Render("Last: "+s.last))
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
}
