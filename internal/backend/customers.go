package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Customers is the gateway for /admin/customers.
type Customers struct {
	c *Client
}

// CustomerListParams configures GET /admin/customers. Active is "", "true" or "false".
type CustomerListParams struct {
	Page   int
	Size   int
	Q      string
	Active string
}

func (p CustomerListParams) values() url.Values {
	values := pageValues(p.Page, p.Size)
	if q := strings.TrimSpace(p.Q); q != "" {
		values.Set("q", q)
	}
	if active := strings.TrimSpace(p.Active); active == "true" || active == "false" {
		values.Set("active", active)
	}
	return values
}

// CustomerOrdersParams configures GET /admin/customers/{id}/orders.
type CustomerOrdersParams struct {
	Page int
	Size int
	Sort string
}

// List fetches one page of customers.
func (g Customers) List(ctx context.Context, params CustomerListParams) (Page[Customer], error) {
	var page Page[Customer]
	err := g.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/customers", query: params.values()}, &page)
	return page, err
}

// Get fetches one customer.
func (g Customers) Get(ctx context.Context, id int64) (Customer, error) {
	var customer Customer
	err := g.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/customers/" + idString(id)}, &customer)
	return customer, err
}

// Orders fetches one page of a customer's orders.
func (g Customers) Orders(ctx context.Context, id int64, params CustomerOrdersParams) (Page[Order], error) {
	values := pageValues(params.Page, params.Size)
	if sort := strings.TrimSpace(params.Sort); sort != "" {
		values.Set("sort", sort)
	}
	var page Page[Order]
	err := g.c.doJSON(ctx, call{
		method: http.MethodGet,
		path:   "/admin/customers/" + idString(id) + "/orders",
		query:  values,
	}, &page)
	return page, err
}

// ToggleActive flips a customer's active flag.
func (g Customers) ToggleActive(ctx context.Context, id int64) (Customer, error) {
	var customer Customer
	err := g.c.doJSON(ctx, call{method: http.MethodPatch, path: "/admin/customers/" + idString(id) + "/toggle-active"}, &customer)
	return customer, err
}
