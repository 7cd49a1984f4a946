package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shopdeck/internal/nav"
)

// Route names.
const (
	routeLogin          = "login"
	routeDashboard      = "dashboard"
	routeOrders         = "orders"
	routeOrder          = "order"
	routeProducts       = "products"
	routeProductNew     = "product-new"
	routeProductEdit    = "product-edit"
	routeLowStock       = "low-stock"
	routeStock          = "stock"
	routeCategories     = "categories"
	routeCategoryNew    = "category-new"
	routeCategoryEdit   = "category-edit"
	routeCustomers      = "customers"
	routeCustomer       = "customer"
	routeSettings       = "settings"
	routeSettingSection = "settings-section"
	routeReports        = "reports"
	routeLogs           = "logs"
	routeForbidden      = "forbidden"
)

const (
	homePath      = "/dashboard"
	loginPath     = "/login"
	forbiddenPath = "/403"
)

// sections are the top-level destinations bound to the number keys.
var sections = []struct {
	key, label, path string
}{
	{"1", "Dashboard", "/dashboard"},
	{"2", "Orders", "/orders"},
	{"3", "Products", "/products"},
	{"4", "Categories", "/categories"},
	{"5", "Customers", "/customers"},
	{"6", "Reports", "/reports"},
	{"7", "Settings", "/settings"},
	{"8", "Logs", "/logs"},
}

func newRouter() *nav.Router {
	r := &nav.Router{}
	r.Handle(routeLogin, "/login")
	r.Handle(routeDashboard, "/dashboard")
	r.Handle(routeOrders, "/orders")
	r.Handle(routeOrder, "/orders/{id}")
	r.Handle(routeProducts, "/products")
	r.Handle(routeProductNew, "/products/new")
	r.Handle(routeLowStock, "/products/low-stock")
	r.Handle(routeProductEdit, "/products/{id}/edit")
	r.Handle(routeStock, "/products/{id}/stock")
	r.Handle(routeCategories, "/categories")
	r.Handle(routeCategoryNew, "/categories/new")
	r.Handle(routeCategoryEdit, "/categories/{id}/edit")
	r.Handle(routeCustomers, "/customers")
	r.Handle(routeCustomer, "/customers/{id}")
	r.Handle(routeSettings, "/settings")
	r.Handle(routeSettingSection, "/settings/{section}")
	r.Handle(routeReports, "/reports")
	r.Handle(routeLogs, "/logs")
	r.Handle(routeForbidden, forbiddenPath)
	return r
}

// build creates the screen for loc. Unknown paths and malformed ids get the
// not-found screen.
func build(e *env, r *nav.Router, loc nav.Location) screen {
	name, params, ok := r.Match(loc.Path)
	if !ok {
		return newNotFoundScreen(e, loc)
	}
	id, hasID := params.Int("id")
	if _, wantsID := params["id"]; wantsID && !hasID {
		return newNotFoundScreen(e, loc)
	}

	switch name {
	case routeLogin:
		return newLoginScreen(e, loc.Query().Get("next"))
	case routeDashboard:
		return newDashboardScreen(e)
	case routeOrders:
		return newOrdersScreen(e, loc.RawQuery)
	case routeOrder:
		return newOrderDetailScreen(e, id)
	case routeProducts:
		return newProductsScreen(e, loc.RawQuery)
	case routeProductNew:
		return newProductFormScreen(e, 0)
	case routeProductEdit:
		return newProductFormScreen(e, id)
	case routeLowStock:
		return newLowStockScreen(e, loc.RawQuery)
	case routeStock:
		return newMovementsScreen(e, id, loc.RawQuery)
	case routeCategories:
		return newCategoriesScreen(e, loc.RawQuery)
	case routeCategoryNew:
		return newCategoryFormScreen(e, 0)
	case routeCategoryEdit:
		return newCategoryFormScreen(e, id)
	case routeCustomers:
		return newCustomersScreen(e, loc.RawQuery)
	case routeCustomer:
		return newCustomerDetailScreen(e, id, loc.RawQuery)
	case routeSettings:
		return newSettingsMenuScreen(e)
	case routeSettingSection:
		if sec, ok := findSection(params["section"]); ok {
			return newSettingsScreen(e, sec)
		}
	case routeReports:
		return newReportsScreen(e)
	case routeLogs:
		return newLogsScreen(e)
	case routeForbidden:
		return newMessageScreen(e, "Forbidden", "danger",
			"Your account is not allowed to open this page.",
			"Press esc to go back or 1 for the dashboard.")
	}
	return newNotFoundScreen(e, loc)
}

// messageScreen is a static page such as forbidden or not found.
type messageScreen struct {
	base
	title string
	tone  string
	lines []string
}

func newMessageScreen(e *env, title, tone string, lines ...string) *messageScreen {
	return &messageScreen{base: base{sid: e.nextSID(), env: e}, title: title, tone: tone, lines: lines}
}

func newNotFoundScreen(e *env, loc nav.Location) *messageScreen {
	return newMessageScreen(e, "Not found", "warning",
		"Nothing lives at "+loc.String()+".",
		"Press esc to go back or : to type another address.")
}

func (s *messageScreen) Title() string { return s.title }
func (s *messageScreen) Init() tea.Cmd { return nil }

func (s *messageScreen) Hints() []hint {
	return []hint{{"esc", "Back"}, {"enter", "Dashboard"}}
}

func (s *messageScreen) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return goBack()
		case "enter":
			return navigate(homePath)
		}
	}
	return nil
}

func (s *messageScreen) View(th Theme, width, height int) string {
	styles := th.Styles().WithBackground(th.SurfaceAlt)
	lines := []string{styles.ToneStyle(s.tone).Bold(true).Render(s.title), ""}
	for _, l := range s.lines {
		lines = append(lines, styles.Text.Render(l))
	}
	return renderBox(th, s.title, strings.Join(lines, "\n"), width, height)
}
