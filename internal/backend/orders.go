package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/shopdeck/internal/orderstatus"
)

// Orders is the gateway for /admin/orders.
type Orders struct {
	c *Client
}

// OrderListParams configures GET /admin/orders. Status "" or "ALL" means no filter.
type OrderListParams struct {
	Page   int
	Size   int
	Status string
	Sort   string
	ID     string
}

func (p OrderListParams) values() url.Values {
	values := pageValues(p.Page, p.Size)
	if status := strings.ToUpper(strings.TrimSpace(p.Status)); status != "" && status != "ALL" {
		values.Set("status", status)
	}
	if sort := strings.TrimSpace(p.Sort); sort != "" {
		values.Set("sort", sort)
	}
	if id := strings.TrimPrefix(strings.TrimSpace(p.ID), "#"); id != "" {
		values.Set("id", id)
	}
	return values
}

// List fetches one page of orders.
func (o Orders) List(ctx context.Context, params OrderListParams) (Page[Order], error) {
	var page Page[Order]
	err := o.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/orders", query: params.values()}, &page)
	return page, err
}

// Stats fetches the per-status counters.
func (o Orders) Stats(ctx context.Context) (OrderStats, error) {
	var stats OrderStats
	err := o.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/orders/stats"}, &stats)
	return stats, err
}

// Get fetches one order with its items.
func (o Orders) Get(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := o.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/orders/" + idString(id)}, &order)
	return order, err
}

// UpdateStatus moves an order to status and returns the updated order.
func (o Orders) UpdateStatus(ctx context.Context, id int64, status orderstatus.Status) (Order, error) {
	var order Order
	err := o.c.doJSON(ctx, call{
		method: http.MethodPatch,
		path:   "/admin/orders/" + idString(id) + "/status",
		body:   map[string]string{"status": string(status)},
	}, &order)
	return order, err
}

// pageValues starts a query with the page and size that every paged endpoint expects.
func pageValues(page, size int) url.Values {
	values := url.Values{}
	if page < 0 {
		page = 0
	}
	values.Set("page", strconv.Itoa(page))
	if size > 0 {
		values.Set("size", strconv.Itoa(size))
	}
	return values
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
