package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/shopdeck/internal/orderstatus"
)

// Page is one page of a paged backend listing.
type Page[T any] struct {
	Items         []T
	TotalElements int
	TotalPages    int
	Number        int
	Size          int
}

// UnmarshalJSON accepts both the framework page shape ({"content": [...]}) and the
// admin categories shape ({"items": [...]}).
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content       *[]T `json:"content"`
		Items         *[]T `json:"items"`
		TotalElements int  `json:"totalElements"`
		TotalPages    int  `json:"totalPages"`
		Number        *int `json:"number"`
		Page          *int `json:"page"`
		Size          int  `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Content != nil:
		p.Items = *raw.Content
	case raw.Items != nil:
		p.Items = *raw.Items
	default:
		return fmt.Errorf("page: neither content nor items present")
	}
	if raw.TotalElements < 0 || raw.TotalPages < 0 {
		return fmt.Errorf("page: negative totals")
	}
	p.TotalElements = raw.TotalElements
	p.TotalPages = raw.TotalPages
	p.Size = raw.Size
	switch {
	case raw.Number != nil:
		p.Number = *raw.Number
	case raw.Page != nil:
		p.Number = *raw.Page
	}
	if p.Number < 0 {
		return fmt.Errorf("page: negative page number")
	}
	for i, item := range p.Items {
		if err := validate(item); err != nil {
			return fmt.Errorf("page item %d: %w", i, err)
		}
	}
	return nil
}

// validator is implemented by records that check their shape after decoding.
type validator interface {
	validate() error
}

func validate(v any) error {
	if r, ok := v.(validator); ok {
		return r.validate()
	}
	return nil
}

func requireID(kind string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%s: missing id", kind)
	}
	return nil
}

// Timestamp decodes the backend's date-times, which may or may not carry a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Order is an order as returned by the admin endpoints.
type Order struct {
	ID              int64              `json:"id"`
	Status          orderstatus.Status `json:"status"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	DeliveryAddress string             `json:"deliveryAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	CustomerID      int64              `json:"customerId,omitempty"`
	CustomerName    string             `json:"customerName,omitempty"`
	Note            string             `json:"note,omitempty"`
	CreatedAt       Timestamp          `json:"createdAt"`
	Items           []OrderItem        `json:"items,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

func (o Order) validate() error {
	if err := requireID("order", o.ID); err != nil {
		return err
	}
	for i, it := range o.Items {
		if it.Quantity < 0 {
			return fmt.Errorf("order %d item %d: negative quantity", o.ID, i)
		}
	}
	return nil
}

// PaymentLabel renders the pay-on-delivery method.
func (o Order) PaymentLabel() string {
	return PaymentMethodLabel(o.PaymentMethod)
}

// PaymentMethodLabel renders a pay-on-delivery method code.
func PaymentMethodLabel(code string) string {
	switch strings.ToUpper(code) {
	case "CASH":
		return "Cash on delivery"
	case "CARD":
		return "Card on delivery"
	case "":
		return "-"
	default:
		return code
	}
}

// OrderStats are the per-status order counters.
type OrderStats struct {
	Pending   int64 `json:"pending"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

func (s OrderStats) validate() error {
	if s.Pending < 0 || s.Delivered < 0 || s.Cancelled < 0 || s.Total < 0 {
		return errors.New("order stats: negative counter")
	}
	return nil
}

// Count returns the counter for one status; unknown statuses return Total.
func (s OrderStats) Count(status orderstatus.Status) int64 {
	switch status {
	case orderstatus.Pending:
		return s.Pending
	case orderstatus.Delivered:
		return s.Delivered
	case orderstatus.Cancelled:
		return s.Cancelled
	default:
		return s.Total
	}
}

// Product is a catalog product.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ImageURL     string          `json:"imageUrl"`
	CategoryID   *int64          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Active       bool            `json:"active"`
	CreatedAt    Timestamp       `json:"createdAt"`
}

func (p Product) validate() error { return requireID("product", p.ID) }

// ProductInput is the create/update payload. Optional strings are sent as null
// when empty.
type ProductInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"imageUrl"`
	CategoryID  int64           `json:"categoryId"`
}

// Category is a product category.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   Timestamp `json:"createdAt"`
}

func (c Category) validate() error { return requireID("category", c.ID) }

// CategoryInput is the create/update payload.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Customer is a registered shop customer.
type Customer struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (c Customer) validate() error { return requireID("customer", c.ID) }

// DisplayName prefers the backend's full name, then first and last name, then email.
func (c Customer) DisplayName() string {
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
		return name
	}
	return c.Email
}

// Stock movement types.
const (
	MovementOrderCreate = "ORDER_CREATE"
	MovementOrderCancel = "ORDER_CANCEL"
	MovementAdminAdjust = "ADMIN_ADJUST"
)

// StockMovement is one stock ledger entry.
type StockMovement struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"productId"`
	Type          string    `json:"type"`
	Delta         int       `json:"delta"`
	BeforeStock   int       `json:"beforeStock"`
	AfterStock    int       `json:"afterStock"`
	ReferenceType string    `json:"referenceType"`
	ReferenceID   string    `json:"referenceId"`
	Actor         string    `json:"actor"`
	CreatedAt     Timestamp `json:"createdAt"`
}

func (m StockMovement) validate() error { return requireID("stock movement", m.ID) }

// TypeLabel renders the movement type.
func (m StockMovement) TypeLabel() string {
	switch m.Type {
	case MovementOrderCreate:
		return "Order placed"
	case MovementOrderCancel:
		return "Order cancelled"
	case MovementAdminAdjust:
		return "Manual adjustment"
	default:
		return m.Type
	}
}

// DashboardSummary feeds the dashboard cards.
type DashboardSummary struct {
	TodayOrderCount int64   `json:"todayOrderCount"`
	Pending         int64   `json:"pending"`
	Delivered       int64   `json:"delivered"`
	Cancelled       int64   `json:"cancelled"`
	TotalOrders     int64   `json:"totalOrders"`
	Revenue         Revenue `json:"revenue"`
	RecentOrders    []Order `json:"recentOrders"`
}

func (d DashboardSummary) validate() error {
	if d.TodayOrderCount < 0 || d.Pending < 0 || d.Delivered < 0 || d.Cancelled < 0 || d.TotalOrders < 0 {
		return errors.New("dashboard summary: negative counter")
	}
	for _, o := range d.RecentOrders {
		if err := o.validate(); err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
	}
	return nil
}

// Revenue totals over fixed windows.
type Revenue struct {
	Today     decimal.Decimal `json:"today"`
	Last7Days decimal.Decimal `json:"last7Days"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
}

// StatusChart is the order count per status over a range.
type StatusChart struct {
	Range string            `json:"range"`
	Items []StatusChartItem `json:"items"`
}

func (c StatusChart) validate() error {
	for _, it := range c.Items {
		if it.Count < 0 {
			return fmt.Errorf("status chart: negative count for %s", it.Status)
		}
	}
	return nil
}

// StatusChartItem is one bar of the status chart.
type StatusChartItem struct {
	Status orderstatus.Status `json:"status"`
	Count  int64              `json:"count"`
}
