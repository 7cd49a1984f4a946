package ui

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/format"
	"github.com/five82/shopdeck/internal/listsync"
)

var productsSchema = listsync.Schema{
	Sizes:       []int{10, 20, 50, 100},
	DefaultSize: 20,
	SearchParam: "q",
	Filters: []listsync.FilterSpec{
		{Name: "active", Allowed: []string{"true", "false"}},
		{Name: "categoryId", Numeric: true},
	},
	SortFields:       []string{"id", "name", "price", "stock"},
	DefaultSortField: "id",
	DefaultSortDir:   listsync.SortDesc,
}

var lowStockSchema = listsync.Schema{
	Sizes:       []int{10, 20, 50},
	DefaultSize: 20,
	Filters: []listsync.FilterSpec{
		{Name: "threshold", Default: "10", Allowed: []string{"10", "20"}},
	},
	SortFields:       []string{"stock"},
	DefaultSortField: "stock",
	DefaultSortDir:   listsync.SortAsc,
}

var movementsSchema = listsync.Schema{
	Sizes:            []int{20},
	DefaultSize:      20,
	SortFields:       []string{"createdAt"},
	DefaultSortField: "createdAt",
	DefaultSortDir:   listsync.SortDesc,
}

var activeFilter = filterControl{
	key:    "a",
	name:   "active",
	label:  "Active",
	values: []string{"", "true", "false"},
	labels: map[string]string{"": "All", "true": "Active", "false": "Passive"},
}

// stockTone colors stock levels: 10 and below is critical, 20 and below is low.
func stockTone(stock int) string {
	switch {
	case stock <= 10:
		return "danger"
	case stock <= 20:
		return "warning"
	default:
		return ""
	}
}

type productToggledMsg struct {
	sid     uint64
	product backend.Product
	err     error
}

type categoryOptionsMsg struct {
	sid        uint64
	categories []backend.Category
	err        error
}

// productsScreen is the product catalog list.
type productsScreen struct {
	*listScreen[backend.Product]
	categories map[string]string
}

func newProductsScreen(e *env, rawQuery string) *productsScreen {
	s := &productsScreen{categories: map[string]string{}}
	s.listScreen = newList(e, listSpec[backend.Product]{
		title:  "Products",
		path:   "/products",
		schema: productsSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.Product], error) {
			categoryID, _ := strconv.ParseInt(q.Filter("categoryId"), 10, 64)
			return pageResult(e.client.Products().List(ctx, backend.ProductListParams{
				Page:       q.Page,
				Size:       q.Size,
				Q:          q.Search,
				Active:     q.Filter("active"),
				CategoryID: categoryID,
				Sort:       q.Sort(),
			}))
		},
		columns:     productColumns(),
		open:        func(p backend.Product) string { return fmt.Sprintf("/products/%d/edit", p.ID) },
		searchLabel: "name",
		empty:       "No products match",
		filters: []filterControl{
			activeFilter,
			{key: "c", name: "categoryId", label: "Category", values: []string{""}, labels: s.categories},
		},
		sorts: []sortChoice{
			{label: "newest", field: "id", dir: listsync.SortDesc},
			{label: "name", field: "name", dir: listsync.SortAsc},
			{label: "price ↑", field: "price", dir: listsync.SortAsc},
			{label: "price ↓", field: "price", dir: listsync.SortDesc},
			{label: "stock ↑", field: "stock", dir: listsync.SortAsc},
		},
		actions: []rowAction[backend.Product]{
			{key: "t", desc: "Toggle", run: s.toggle},
			{key: "h", desc: "Stock history", run: func(p backend.Product) tea.Cmd {
				return navigate(fmt.Sprintf("/products/%d/stock", p.ID))
			}},
		},
	}, rawQuery)
	s.categories[""] = "All"
	return s
}

func productColumns() []column[backend.Product] {
	return []column[backend.Product]{
		{title: "ID", width: 6, cell: func(p backend.Product) string { return strconv.FormatInt(p.ID, 10) }},
		{title: "Name", cell: func(p backend.Product) string { return p.Name }},
		{title: "Category", width: 16, cell: func(p backend.Product) string { return orDash(p.CategoryName) }},
		{title: "Price", width: 12, cell: func(p backend.Product) string { return format.Money(p.Price) }},
		{
			title: "Stock", width: 6,
			cell: func(p backend.Product) string { return strconv.Itoa(p.Stock) },
			tone: func(p backend.Product) string { return stockTone(p.Stock) },
		},
		{
			title: "State", width: 8,
			cell: func(p backend.Product) string { return format.Active(p.Active) },
			tone: func(p backend.Product) string { return ternary(p.Active, "success", "muted") },
		},
	}
}

func (s *productsScreen) Init() tea.Cmd {
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return tea.Batch(s.listScreen.Init(), func() tea.Msg {
		cats, err := client.Categories().Public(ctx)
		return categoryOptionsMsg{sid: sid, categories: cats, err: err}
	})
}

func (s *productsScreen) toggle(p backend.Product) tea.Cmd {
	ctx, client, sid := s.env.ctx, s.env.client, s.sid
	return func() tea.Msg {
		updated, err := client.Products().ToggleActive(ctx, p.ID)
		return productToggledMsg{sid: sid, product: updated, err: err}
	}
}

func (s *productsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case categoryOptionsMsg:
		if msg.sid != s.sid || msg.err != nil {
			return nil
		}
		values := []string{""}
		for _, c := range msg.categories {
			id := strconv.FormatInt(c.ID, 10)
			values = append(values, id)
			s.categories[id] = c.Name
		}
		s.spec.filters[1].values = values
		return nil
	case productToggledMsg:
		if msg.sid != s.sid {
			return nil
		}
		if msg.err != nil {
			return failure("Toggle failed", msg.err)
		}
		s.env.bus.LowStockChanged.Publish(events.LowStockChanged{ProductID: msg.product.ID, Reason: "toggle"})
		return tea.Batch(
			s.Refresh(true),
			toast("success", fmt.Sprintf("%s is now %s", msg.product.Name, format.Active(msg.product.Active))),
		)
	case tea.KeyMsg:
		if !s.searching {
			switch msg.String() {
			case "+":
				return navigate("/products/new")
			case "w":
				return navigate("/products/low-stock")
			}
		}
	}
	return s.listScreen.Update(msg)
}

func (s *productsScreen) Hints() []hint {
	return append(s.listScreen.Hints(), hint{"+", "New"}, hint{"w", "Low stock"})
}

func newLowStockScreen(e *env, rawQuery string) *listScreen[backend.Product] {
	return newList(e, listSpec[backend.Product]{
		title:  "Low stock",
		path:   "/products/low-stock",
		schema: lowStockSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.Product], error) {
			threshold, err := strconv.Atoi(q.Filter("threshold"))
			if err != nil {
				threshold = 10
			}
			return pageResult(e.client.Products().LowStock(ctx, backend.LowStockParams{
				Threshold: threshold,
				Page:      q.Page,
				Size:      q.Size,
				Sort:      q.Sort(),
			}))
		},
		columns: productColumns(),
		open:    func(p backend.Product) string { return fmt.Sprintf("/products/%d/edit", p.ID) },
		empty:   "No product is below the threshold",
		filters: []filterControl{{
			key: "f", name: "threshold", label: "Threshold", values: []string{"10", "20"},
			labels: map[string]string{"10": "≤ 10", "20": "≤ 20"},
		}},
		actions: []rowAction[backend.Product]{
			{key: "h", desc: "Stock history", run: func(p backend.Product) tea.Cmd {
				return navigate(fmt.Sprintf("/products/%d/stock", p.ID))
			}},
		},
	}, rawQuery)
}

type productNameMsg struct {
	sid     uint64
	product backend.Product
	err     error
}

// movementsScreen is the stock ledger of one product.
type movementsScreen struct {
	*listScreen[backend.StockMovement]
	productID int64
	name      string
}

func newMovementsScreen(e *env, productID int64, rawQuery string) *movementsScreen {
	s := &movementsScreen{productID: productID}
	s.listScreen = newList(e, listSpec[backend.StockMovement]{
		title:  fmt.Sprintf("Stock history #%d", productID),
		path:   fmt.Sprintf("/products/%d/stock", productID),
		schema: movementsSchema,
		fetch: func(ctx context.Context, q listsync.Query) (listsync.Result[backend.StockMovement], error) {
			return pageResult(e.client.Stock().Movements(ctx, backend.MovementParams{
				ProductID: productID,
				Page:      q.Page,
				Size:      q.Size,
				Sort:      q.Sort(),
			}))
		},
		columns: []column[backend.StockMovement]{
			{title: "When", width: 16, cell: func(m backend.StockMovement) string { return format.DateTime(m.CreatedAt.Time) }},
			{title: "Type", width: 18, cell: func(m backend.StockMovement) string { return m.TypeLabel() }},
			{
				title: "Change", width: 7,
				cell: func(m backend.StockMovement) string { return fmt.Sprintf("%+d", m.Delta) },
				tone: func(m backend.StockMovement) string { return ternary(m.Delta < 0, "danger", "success") },
			},
			{title: "Before", width: 7, cell: func(m backend.StockMovement) string { return strconv.Itoa(m.BeforeStock) }},
			{title: "After", width: 7, cell: func(m backend.StockMovement) string { return strconv.Itoa(m.AfterStock) }},
			{title: "Reference", cell: func(m backend.StockMovement) string {
				if m.ReferenceID == "" {
					return "-"
				}
				return m.ReferenceType + " " + m.ReferenceID
			}},
			{title: "By", width: 14, cell: func(m backend.StockMovement) string { return orDash(m.Actor) }},
		},
		empty: "No stock movements yet",
	}, rawQuery)
	return s
}

func (s *movementsScreen) Title() string {
	if s.name != "" {
		return "Stock history · " + s.name
	}
	return s.listScreen.Title()
}

func (s *movementsScreen) Init() tea.Cmd {
	ctx, client, sid, id := s.env.ctx, s.env.client, s.sid, s.productID
	return tea.Batch(s.listScreen.Init(), func() tea.Msg {
		p, err := client.Products().Get(ctx, id)
		return productNameMsg{sid: sid, product: p, err: err}
	})
}

func (s *movementsScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(productNameMsg); ok {
		if msg.sid == s.sid && msg.err == nil {
			s.name = msg.product.Name
			s.spec.title = "Stock history · " + msg.product.Name
		}
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return goBack()
	}
	return s.listScreen.Update(msg)
}
