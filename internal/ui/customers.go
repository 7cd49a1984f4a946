package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/format"
	"github.com/five82/shopdeck/internal/listsync"
)

var customersSchema = listsync.Schema{
	Sizes:       []int{10, 20, 50},
	DefaultSize: 20,
	SearchParam: "q",
	Filters: []listsync.FilterSpec{
		{Name: "active", Allowed: []string{"true", "false"}},
	},
	Debounce: 400 * time.Millisecond,
}

var customerOrdersSchema = listsync.Schema{
	Sizes:            []int{10, 20},
	DefaultSize:      10,
	SortFields:       []string{"createdAt"},
	DefaultSortField: "createdAt",
	DefaultSortDir:   listsync.SortDesc,
}

type customerToggledMsg struct {
	sid      uint64
	customer backend.Customer
	err      error
}

func toggleCustomer(e *env, sid uint64, id int64) tea.Cmd {
	return func() tea.Msg {
		c, err := e.client.Customers().ToggleActive(e.ctx, id)
		return customerToggledMsg{sid: sid, customer: c, err: err}
	}
}

type customersScreen struct {
	*listScreen[backend.Customer]
}

func newCustomersScreen(e *env, rawQuery string) *customersScreen {
	s := &customersScreen{}
	s.listScreen = newList(e, listSpec[backend.Customer]{
		title:  "Customers",
		path:   "/customers",
		schema: customersSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.Customer], error) {
			return pageResult(e.client.Customers().List(ctx, backend.CustomerListParams{
				Page:   q.Page,
				Size:   q.Size,
				Q:      q.Search,
				Active: q.Filter("active"),
			}))
		},
		columns: []column[backend.Customer]{
			{title: "ID", width: 6, cell: func(c backend.Customer) string { return strconv.FormatInt(c.ID, 10) }},
			{title: "Name", width: 22, cell: func(c backend.Customer) string { return c.DisplayName() }},
			{title: "Email", cell: func(c backend.Customer) string { return c.Email }},
			{title: "Phone", width: 14, cell: func(c backend.Customer) string { return orDash(c.Phone) }},
			{title: "Joined", width: 10, cell: func(c backend.Customer) string { return format.Date(c.CreatedAt.Time) }},
			{
				title: "State", width: 8,
				cell: func(c backend.Customer) string { return format.Active(c.Active) },
				tone: func(c backend.Customer) string { return ternary(c.Active, "success", "muted") },
			},
		},
		open:        func(c backend.Customer) string { return fmt.Sprintf("/customers/%d", c.ID) },
		filters:     []filterControl{activeFilter},
		searchLabel: "name, email or phone",
		empty:       "No customers match",
		actions: []rowAction[backend.Customer]{{key: "t", desc: "Toggle", run: func(c backend.Customer) tea.Cmd {
			return toggleCustomer(e, s.sid, c.ID)
		}}},
	}, rawQuery)
	return s
}

func (s *customersScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(customerToggledMsg); ok {
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			return failure("Toggle failed", msg.err)
		}
		return tea.Batch(
			s.Refresh(true),
			toast("success", fmt.Sprintf("%s is now %s", msg.customer.DisplayName(), format.Active(msg.customer.Active))),
		)
	}
	return s.listScreen.Update(msg)
}

type customerLoadedMsg struct {
	sid      uint64
	customer backend.Customer
	err      error
}

// customerDetailScreen shows a customer's profile above their paged order history.
type customerDetailScreen struct {
	*listScreen[backend.Order]
	id       int64
	customer backend.Customer
	loaded   bool
	err      error
}

func newCustomerDetailScreen(e *env, id int64, rawQuery string) *customerDetailScreen {
	s := &customerDetailScreen{id: id}
	s.listScreen = newList(e, listSpec[backend.Order]{
		title:  fmt.Sprintf("Customer #%d", id),
		path:   fmt.Sprintf("/customers/%d", id),
		schema: customerOrdersSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.Order], error) {
			return pageResult(e.client.Customers().Orders(ctx, id, backend.CustomerOrdersParams{
				Page: q.Page,
				Size: q.Size,
				Sort: q.Sort(),
			}))
		},
		columns: orderColumns(),
		open:    func(o backend.Order) string { return fmt.Sprintf("/orders/%d", o.ID) },
		empty:   "No orders yet",
		banner:  s.profile,
	}, rawQuery)
	return s
}

func (s *customerDetailScreen) Title() string {
	if s.loaded {
		return s.customer.DisplayName()
	}
	return s.listScreen.Title()
}

func (s *customerDetailScreen) Init() tea.Cmd {
	return tea.Batch(s.listScreen.Init(), s.load())
}

func (s *customerDetailScreen) load() tea.Cmd {
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.id
	return func() tea.Msg {
		c, err := client.Customers().Get(ctx, id)
		return customerLoadedMsg{sid: sid, customer: c, err: err}
	}
}

func (s *customerDetailScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case customerLoadedMsg:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			s.err = msg.err
			return failure("Load customer", msg.err)
		}
		s.customer, s.loaded, s.err = msg.customer, true, nil
		s.spec.title = msg.customer.DisplayName()
		return nil
	case customerToggledMsg:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			return failure("Toggle failed", msg.err)
		}
		s.customer = msg.customer
		return toast("success", fmt.Sprintf("%s is now %s", msg.customer.DisplayName(), format.Active(msg.customer.Active)))
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return goBack()
		case "t":
			if s.loaded {
				return toggleCustomer(s.env, s.sid, s.id)
			}
			return nil
		case "r":
			return tea.Batch(s.load(), s.Refresh(true))
		}
	}
	return s.listScreen.Update(msg)
}

func (s *customerDetailScreen) Hints() []hint {
	return append(s.listScreen.Hints(), hint{"t", "Toggle"}, hint{"esc", "Back"})
}

func (s *customerDetailScreen) profile(th Theme, width int) []string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	switch {
	case s.err != nil && !s.loaded:
		return []string{styles.DangerText.Render(backend.Message(s.err)), ""}
	case !s.loaded:
		return []string{styles.MutedText.Render("Loading customer…"), ""}
	}
	c := s.customer
	const lw = 8
	state := styles.ToneStyle(ternary(c.Active, "success", "muted")).Render(format.Active(c.Active))
	return []string{
		keyValue(styles, "Email", truncate(c.Email, width-lw-2), lw),
		keyValue(styles, "Phone", orDash(c.Phone), lw),
		keyValue(styles, "Address", truncate(orDash(c.Address), width-lw-2), lw),
		keyValue(styles, "Joined", format.DateTime(c.CreatedAt.Time), lw),
		styles.MutedText.Render(padRight("State", lw)) + " " + state,
		"",
		styles.AccentText.Render("Orders"),
	}
}
