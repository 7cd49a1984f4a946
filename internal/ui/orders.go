package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/format"
	"github.com/five82/shopdeck/internal/listsync"
	"github.com/five82/shopdeck/internal/orderstatus"
)

var ordersSchema = listsync.Schema{
	Sizes:       []int{10, 20, 50},
	DefaultSize: 10,
	SearchParam: "q",
	Filters: []listsync.FilterSpec{
		{Name: "status", Default: "ALL", Allowed: []string{"PENDING", "DELIVERED", "CANCELLED"}},
	},
	SortFields:     []string{"totalAmount"},
	DefaultSortDir: listsync.SortDesc,
}

type orderStatsMsg struct {
	sid   uint64
	stats backend.OrderStats
	err   error
}

// ordersScreen is the order list plus the per-status counters above it.
type ordersScreen struct {
	*listScreen[backend.Order]
	stats    backend.OrderStats
	hasStats bool
}

func newOrdersScreen(e *env, rawQuery string) *ordersScreen {
	s := &ordersScreen{}
	s.listScreen = newList(e, listSpec[backend.Order]{
		title:  "Orders",
		path:   "/orders",
		schema: ordersSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.Order], error) {
			return pageResult(e.client.Orders().List(ctx, backend.OrderListParams{
				Page:   q.Page,
				Size:   q.Size,
				Status: q.Filter("status"),
				Sort:   q.Sort(),
				ID:     q.Search,
			}))
		},
		columns:     orderColumns(),
		open:        func(o backend.Order) string { return fmt.Sprintf("/orders/%d", o.ID) },
		searchLabel: "order id, e.g. #1042",
		empty:       "No orders match",
		filters: []filterControl{{
			key:    "f",
			name:   "status",
			label:  "Status",
			values: []string{"ALL", "PENDING", "DELIVERED", "CANCELLED"},
			labels: map[string]string{"ALL": "All", "PENDING": "Pending", "DELIVERED": "Delivered", "CANCELLED": "Cancelled"},
		}},
		sorts: []sortChoice{
			{label: "none", field: ""},
			{label: "total ↑", field: "totalAmount", dir: listsync.SortAsc},
			{label: "total ↓", field: "totalAmount", dir: listsync.SortDesc},
		},
		loaded: s.loadStats,
		banner: s.banner,
	}, rawQuery)
	return s
}

func orderColumns() []column[backend.Order] {
	return []column[backend.Order]{
		{title: "Order", width: 8, cell: func(o backend.Order) string { return fmt.Sprintf("#%d", o.ID) }},
		{title: "Customer", cell: func(o backend.Order) string { return orDash(o.CustomerName) }},
		{title: "Total", width: 14, cell: func(o backend.Order) string { return format.Money(o.TotalAmount) }},
		{title: "Payment", width: 18, cell: func(o backend.Order) string { return o.PaymentLabel() }},
		{
			title: "Status", width: 10,
			cell: func(o backend.Order) string { return o.Status.Label() },
			tone: func(o backend.Order) string { return o.Status.Tone() },
		},
		{title: "Created", width: 16, cell: func(o backend.Order) string { return format.DateTime(o.CreatedAt.Time) }},
	}
}

func (s *ordersScreen) loadStats(listsync.Query) tea.Cmd {
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return func() tea.Msg {
		stats, err := client.Orders().Stats(ctx)
		return orderStatsMsg{sid: sid, stats: stats, err: err}
	}
}

func (s *ordersScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(orderStatsMsg); ok {
		if msg.sid == s.sid && msg.err == nil {
			s.stats, s.hasStats = msg.stats, true
		}
		return nil
	}
	return s.listScreen.Update(msg)
}

// banner shows one counter per status; the one matching the filter is highlighted.
func (s *ordersScreen) banner(th Theme, _ int) []string {
	if !s.hasStats {
		return nil
	}
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	active := orderstatus.Status(s.sync.Query().Filter("status"))
	entries := []struct {
		status orderstatus.Status
		label  string
	}{
		{"", "All"},
		{orderstatus.Pending, "Pending"},
		{orderstatus.Delivered, "Delivered"},
		{orderstatus.Cancelled, "Cancelled"},
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		text := fmt.Sprintf("%s %d", e.label, s.stats.Count(e.status))
		if e.status == active {
			parts = append(parts, styles.StatusStyle(e.status).Bold(true).Render(text))
			continue
		}
		parts = append(parts, styles.MutedText.Render(text))
	}
	return []string{strings.Join(parts, "  ")}
}
