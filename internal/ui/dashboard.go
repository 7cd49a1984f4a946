package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/format"
)

// dashboardLowStockThreshold is the stock level the dashboard card counts below.
const dashboardLowStockThreshold = 5

var chartRanges = []string{backend.RangeToday, backend.RangeWeek, backend.RangeMonth}

type dashboardMsg struct {
	sid      uint64
	summary  backend.DashboardSummary
	chart    backend.StatusChart
	lowStock int
	err      error
}

type dashboardScreen struct {
	base
	rangeIdx int
	summary  backend.DashboardSummary
	chart    backend.StatusChart
	lowStock int
	loaded   bool
	loading  bool
	err      error
	cursor   int
}

func newDashboardScreen(e *env) *dashboardScreen {
	return &dashboardScreen{base: base{sid: e.nextSID(), env: e}}
}

func (s *dashboardScreen) Title() string { return "Dashboard" }
func (s *dashboardScreen) Busy() bool    { return s.loading }
func (s *dashboardScreen) Init() tea.Cmd { return s.load() }

func (s *dashboardScreen) Hints() []hint {
	return []hint{{"j/k", "Recent order"}, {"enter", "Open"}, {"t", "Chart range"}, {"r", "Reload"}}
}

func (s *dashboardScreen) load() tea.Cmd {
	s.loading = true
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	rangeName := chartRanges[s.rangeIdx]
	return func() tea.Msg {
		msg := dashboardMsg{sid: sid}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			msg.summary, err = client.Dashboard().Summary(gctx)
			return err
		})
		g.Go(func() (err error) {
			msg.chart, err = client.Dashboard().StatusChart(gctx, rangeName)
			return err
		})
		g.Go(func() (err error) {
			msg.lowStock, err = client.Products().LowStockCount(gctx, dashboardLowStockThreshold)
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (s *dashboardScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = msg.err
			return failure("Dashboard", msg.err)
		}
		s.summary, s.chart, s.lowStock = msg.summary, msg.chart, msg.lowStock
		s.loaded, s.err = true, nil
		s.cursor = min(s.cursor, max(len(s.summary.RecentOrders)-1, 0))
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return s.load()
		case "t":
			s.rangeIdx = (s.rangeIdx + 1) % len(chartRanges)
			return s.load()
		case "up", "k":
			s.cursor = max(s.cursor-1, 0)
		case "down", "j":
			s.cursor = min(s.cursor+1, max(len(s.summary.RecentOrders)-1, 0))
		case "enter":
			if s.cursor < len(s.summary.RecentOrders) {
				return navigate(fmt.Sprintf("/orders/%d", s.summary.RecentOrders[s.cursor].ID))
			}
		case "w":
			return navigate("/products/low-stock")
		}
	}
	return nil
}

func (s *dashboardScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	inner := width - 2
	switch {
	case !s.loaded && s.err != nil:
		return renderBox(th, s.Title(), styles.DangerText.Render(backend.Message(s.err))+"\n"+styles.MutedText.Render("r to retry"), width, height)
	case !s.loaded:
		return renderBox(th, s.Title(), styles.MutedText.Render("Loading…"), width, height)
	}

	sum := s.summary
	card := func(label, value, tone string) string {
		return styles.MutedText.Render(label+" ") + styles.ToneStyle(tone).Bold(true).Render(value)
	}
	lines := []string{
		strings.Join([]string{
			card("Today", fmt.Sprint(sum.TodayOrderCount), "accent"),
			card("Pending", fmt.Sprint(sum.Pending), "warning"),
			card("Delivered", fmt.Sprint(sum.Delivered), "success"),
			card("Cancelled", fmt.Sprint(sum.Cancelled), "danger"),
			card("All", fmt.Sprint(sum.TotalOrders), "muted"),
		}, "   "),
		strings.Join([]string{
			card("Revenue today", format.Money(sum.Revenue.Today), "success"),
			card("7 days", format.Money(sum.Revenue.Last7Days), "success"),
			card("This month", format.Money(sum.Revenue.ThisMonth), "success"),
		}, "   "),
		card(fmt.Sprintf("Products at or below %d in stock", dashboardLowStockThreshold), fmt.Sprint(s.lowStock),
			ternary(s.lowStock > 0, "danger", "muted")),
		"",
		styles.AccentText.Render("Orders by status · " + s.chart.Range),
	}
	lines = append(lines, statusBars(styles, s.chart, inner)...)
	lines = append(lines, "", styles.AccentText.Render("Recent orders"))
	if len(sum.RecentOrders) == 0 {
		lines = append(lines, styles.MutedText.Render("No orders yet"))
	} else {
		rows := make([][]cell, len(sum.RecentOrders))
		for i, o := range sum.RecentOrders {
			rows[i] = []cell{
				{text: fmt.Sprintf("#%d", o.ID)},
				{text: orDash(o.CustomerName)},
				{text: format.Money(o.TotalAmount)},
				{text: o.Status.Label(), tone: o.Status.Tone()},
				{text: format.DateTime(o.CreatedAt.Time)},
			}
		}
		lines = append(lines, renderTable(th, []string{"Order", "Customer", "Total", "Status", "Created"},
			[]int{8, 0, 14, 10, 16}, rows, s.cursor, inner)...)
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
}

// statusBars renders one proportional bar per chart item.
func statusBars(styles Styles, chart backend.StatusChart, width int) []string {
	var peak int64
	for _, item := range chart.Items {
		peak = max(peak, item.Count)
	}
	const labelWidth, countWidth = 10, 6
	room := max(width-labelWidth-countWidth-2, 4)
	lines := make([]string, 0, len(chart.Items))
	for _, item := range chart.Items {
		n := 0
		if peak > 0 {
			n = int(item.Count * int64(room) / peak)
		}
		bar := styles.StatusStyle(item.Status).Render(strings.Repeat("█", n))
		lines = append(lines, styles.MutedText.Render(padRight(item.Status.Label(), labelWidth))+" "+
			padRight(fmt.Sprint(item.Count), countWidth)+" "+bar)
	}
	if len(lines) == 0 {
		lines = append(lines, styles.MutedText.Render("No orders in range"))
	}
	return lines
}
