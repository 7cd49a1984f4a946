package ui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/format"
	"github.com/five82/shopdeck/internal/orderstatus"
	"github.com/five82/shopdeck/internal/slip"
)

type orderLoadedMsg struct {
	sid         uint64
	order       backend.Order
	settings    backend.StoreSettings
	settingsErr error
	err         error
}

type orderSavedMsg struct {
	sid   uint64
	order backend.Order
	err   error
}

type slipSavedMsg struct {
	sid  uint64
	path string
	err  error
}

// orderDetailScreen shows one order and lets the operator move it along the status
// policy.
type orderDetailScreen struct {
	base
	id          int64
	order       backend.Order
	settings    backend.StoreSettings
	hasSettings bool
	loaded      bool
	loading     bool
	saving      bool
	err         error

	options []orderstatus.Status
	choice  int
	scroll  int
}

func newOrderDetailScreen(e *env, id int64) *orderDetailScreen {
	return &orderDetailScreen{base: base{sid: e.nextSID(), env: e}, id: id}
}

func (s *orderDetailScreen) Title() string { return fmt.Sprintf("Order #%d", s.id) }
func (s *orderDetailScreen) Busy() bool    { return s.loading || s.saving }

func (s *orderDetailScreen) Init() tea.Cmd { return s.load() }

func (s *orderDetailScreen) load() tea.Cmd {
	s.loading = true
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.id
	return func() tea.Msg {
		msg := orderLoadedMsg{sid: sid}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			order, err := client.Orders().Get(gctx, id)
			msg.order = order
			return err
		})
		g.Go(func() error {
			// Settings only feed the minimum order warning and the slip header.
			msg.settings, msg.settingsErr = client.Settings().Get(gctx)
			return nil
		})
		msg.err = g.Wait()
		return msg
	}
}

// setOrder resets the status select to the policy's options for the order.
func (s *orderDetailScreen) setOrder(o backend.Order) {
	s.order = o
	s.loaded = true
	s.options = orderstatus.AllowedNext(o.Status)
	s.choice = max(slices.Index(s.options, o.Status), 0)
}

func (s *orderDetailScreen) selected() orderstatus.Status {
	if len(s.options) == 0 {
		return s.order.Status
	}
	return s.options[s.choice]
}

func (s *orderDetailScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case orderLoadedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = msg.err
			return failure("Load order", msg.err)
		}
		s.err = nil
		s.setOrder(msg.order)
		if msg.settingsErr == nil {
			s.settings, s.hasSettings = msg.settings, true
		} else {
			s.env.log.Debug("settings unavailable for order detail", zap.Error(msg.settingsErr))
		}
		return nil
	case orderSavedMsg:
		if msg.sid != s.sid {
			return nil
		}
		s.saving = false
		if msg.err != nil {
			if backend.IsConflict(msg.err) {
				// The order moved on elsewhere; show what the backend has now.
				return tea.Batch(failure("Status not changed", msg.err), s.load())
			}
			return failure("Status not changed", msg.err)
		}
		s.setOrder(msg.order)
		if msg.order.Status == orderstatus.Cancelled {
			for _, item := range msg.order.Items {
				s.env.bus.LowStockChanged.Publish(events.LowStockChanged{ProductID: item.ProductID, Reason: "order-cancel"})
			}
		}
		return toast("success", fmt.Sprintf("Order #%d is now %s", msg.order.ID, msg.order.Status.Label()))
	case slipSavedMsg:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			return toast("danger", "Slip export failed: "+msg.err.Error())
		}
		return toast("success", "Slip saved to "+msg.path)
	case tea.KeyMsg:
		return s.key(msg)
	}
	return nil
}

func (s *orderDetailScreen) key(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return goBack()
	case "r":
		return s.load()
	case "up", "k":
		s.scroll = max(s.scroll-1, 0)
	case "down", "j":
		s.scroll++
	}
	if !s.loaded {
		return nil
	}
	switch msg.String() {
	case "left", "h":
		if len(s.options) > 0 {
			s.choice = (s.choice + len(s.options) - 1) % len(s.options)
		}
	case "right", "l":
		if len(s.options) > 0 {
			s.choice = (s.choice + 1) % len(s.options)
		}
	case "enter":
		return s.save()
	case "P":
		return s.exportSlip()
	case "c":
		if s.order.CustomerID > 0 {
			return navigate(fmt.Sprintf("/customers/%d", s.order.CustomerID))
		}
	}
	return nil
}

func (s *orderDetailScreen) save() tea.Cmd {
	next := s.selected()
	if s.saving || next == s.order.Status {
		return nil
	}
	if !orderstatus.CanTransition(s.order.Status, next) {
		return toast("warning", fmt.Sprintf("%s orders cannot become %s", s.order.Status.Label(), next.Label()))
	}
	s.saving = true
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.order.ID
	return func() tea.Msg {
		order, err := client.Orders().UpdateStatus(ctx, id, next)
		return orderSavedMsg{sid: sid, order: order, err: err}
	}
}

func (s *orderDetailScreen) exportSlip() tea.Cmd {
	order, settings, sid := s.order, s.settings, s.sid
	dir, now := s.env.cfg.ReportDir, s.env.now()
	return func() tea.Msg {
		path, err := slip.Save(dir, order, settings, now)
		return slipSavedMsg{sid: sid, path: path, err: err}
	}
}

// belowMinimum reports whether the order total is under the store's minimum.
func (s *orderDetailScreen) belowMinimum() bool {
	return s.hasSettings && s.settings.MinOrderAmount.IsPositive() &&
		s.order.TotalAmount.LessThan(s.settings.MinOrderAmount)
}

func (s *orderDetailScreen) Hints() []hint {
	return []hint{{"h/l", "Status"}, {"enter", "Save"}, {"P", "Slip PDF"}, {"c", "Customer"}, {"r", "Reload"}, {"esc", "Back"}}
}

func (s *orderDetailScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	inner := width - 2
	var lines []string

	switch {
	case !s.loaded && s.err != nil:
		lines = append(lines, styles.DangerText.Render(backend.Message(s.err)), styles.MutedText.Render("r to retry, esc to go back"))
		return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
	case !s.loaded:
		return renderBox(th, s.Title(), styles.MutedText.Render("Loading…"), width, height)
	}

	o := s.order
	const lw = 10
	lines = append(lines,
		styles.StatusStyle(o.Status).Render(o.Status.Label())+"  "+styles.MutedText.Render(format.DateTime(o.CreatedAt.Time)),
		"",
		keyValue(styles, "Customer", orDash(o.CustomerName), lw),
		keyValue(styles, "Address", orDash(o.DeliveryAddress), lw),
		keyValue(styles, "Payment", o.PaymentLabel(), lw),
	)
	if o.Note != "" {
		lines = append(lines, keyValue(styles, "Note", o.Note, lw))
	}
	lines = append(lines, "")

	rows := make([][]cell, len(o.Items))
	for i, item := range o.Items {
		rows[i] = []cell{
			{text: item.ProductName},
			{text: fmt.Sprintf("%d", item.Quantity)},
			{text: format.Money(item.UnitPrice)},
			{text: format.Money(item.LineTotal)},
		}
	}
	lines = append(lines, renderTable(th, []string{"Product", "Qty", "Unit", "Line"}, []int{0, 5, 14, 14}, rows, -1, inner)...)
	lines = append(lines, "", keyValue(styles, "Total", format.Money(o.TotalAmount), lw))
	if s.belowMinimum() {
		lines = append(lines, styles.WarningText.Render(
			"Below the minimum order amount of "+format.Money(s.settings.MinOrderAmount)))
	}
	lines = append(lines, "", s.statusSelect(styles))

	if s.scroll > 0 {
		lines = lines[min(s.scroll, len(lines)-1):]
	}
	return renderBox(th, s.Title(), strings.Join(lines, "\n"), width, height)
}

func (s *orderDetailScreen) statusSelect(styles Styles) string {
	if s.order.Status.IsTerminal() {
		return styles.MutedText.Render("Status is final")
	}
	parts := make([]string, len(s.options))
	for i, opt := range s.options {
		if i == s.choice {
			parts[i] = styles.StatusStyle(opt).Bold(true).Render(opt.Label())
		} else {
			parts[i] = styles.MutedText.Render(opt.Label())
		}
	}
	line := styles.MutedText.Render("Status") + "  ‹ " + strings.Join(parts, " ") + " ›"
	switch {
	case s.saving:
		line += "  " + styles.WarningText.Render("saving")
	case s.selected() != s.order.Status:
		line += "  " + styles.AccentText.Render("enter to save")
	}
	return line
}
