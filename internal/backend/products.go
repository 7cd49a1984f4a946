package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Products is the gateway for /admin/products.
type Products struct {
	c *Client
}

// ProductListParams configures GET /admin/products. Active is "", "true" or "false".
type ProductListParams struct {
	Page       int
	Size       int
	Q          string
	Active     string
	CategoryID int64
	Sort       string
}

func (p ProductListParams) values() url.Values {
	values := pageValues(p.Page, p.Size)
	if q := strings.TrimSpace(p.Q); q != "" {
		values.Set("q", q)
	}
	if active := strings.TrimSpace(p.Active); active == "true" || active == "false" {
		values.Set("active", active)
	}
	if p.CategoryID > 0 {
		values.Set("categoryId", idString(p.CategoryID))
	}
	if sort := strings.TrimSpace(p.Sort); sort != "" {
		values.Set("sort", sort)
	}
	return values
}

// LowStockParams configures GET /admin/products/low-stock.
type LowStockParams struct {
	Threshold int
	Page      int
	Size      int
	Sort      string
}

func (p LowStockParams) values() url.Values {
	values := pageValues(p.Page, p.Size)
	if p.Threshold > 0 {
		values.Set("threshold", strconv.Itoa(p.Threshold))
	}
	if sort := strings.TrimSpace(p.Sort); sort != "" {
		values.Set("sort", sort)
	}
	return values
}

// List fetches one page of products.
func (p Products) List(ctx context.Context, params ProductListParams) (Page[Product], error) {
	var page Page[Product]
	err := p.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/products", query: params.values()}, &page)
	return page, err
}

// LowStock fetches products whose stock is at or below the threshold.
func (p Products) LowStock(ctx context.Context, params LowStockParams) (Page[Product], error) {
	var page Page[Product]
	err := p.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/products/low-stock", query: params.values()}, &page)
	return page, err
}

// LowStockCount returns how many products are at or below threshold.
func (p Products) LowStockCount(ctx context.Context, threshold int) (int, error) {
	page, err := p.LowStock(ctx, LowStockParams{Threshold: threshold, Page: 0, Size: 1})
	if err != nil {
		return 0, err
	}
	return page.TotalElements, nil
}

// Get fetches one product.
func (p Products) Get(ctx context.Context, id int64) (Product, error) {
	var product Product
	err := p.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/products/" + idString(id)}, &product)
	return product, err
}

// Create adds a product.
func (p Products) Create(ctx context.Context, in ProductInput) (Product, error) {
	var product Product
	err := p.c.doJSON(ctx, call{method: http.MethodPost, path: "/admin/products", body: in.normalized()}, &product)
	return product, err
}

// Update replaces a product's editable fields.
func (p Products) Update(ctx context.Context, id int64, in ProductInput) (Product, error) {
	var product Product
	err := p.c.doJSON(ctx, call{method: http.MethodPut, path: "/admin/products/" + idString(id), body: in.normalized()}, &product)
	return product, err
}

// ToggleActive flips a product's active flag.
func (p Products) ToggleActive(ctx context.Context, id int64) (Product, error) {
	var product Product
	err := p.c.doJSON(ctx, call{method: http.MethodPatch, path: "/admin/products/" + idString(id) + "/toggle-active"}, &product)
	return product, err
}

func (in ProductInput) normalized() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		in.Description = optional(*in.Description)
	}
	if in.ImageURL != nil {
		in.ImageURL = optional(*in.ImageURL)
	}
	return in
}

// NewProductInput builds a payload from form strings; empty optionals become nil.
func NewProductInput(name, description, imageURL string) ProductInput {
	return ProductInput{
		Name:        strings.TrimSpace(name),
		Description: optional(description),
		ImageURL:    optional(imageURL),
	}
}
