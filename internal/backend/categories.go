package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Categories is the gateway for categories, public and admin.
type Categories struct {
	c *Client
}

// CategoryListParams configures GET /admin/categories. Unlike the other admin
// listings it takes sort field and direction as separate parameters.
type CategoryListParams struct {
	Page   int
	Size   int
	Q      string
	Active string
	Sort   string
	Dir    string
}

func (p CategoryListParams) values() url.Values {
	values := pageValues(p.Page, p.Size)
	if q := strings.TrimSpace(p.Q); q != "" {
		values.Set("q", q)
	}
	if active := strings.TrimSpace(p.Active); active == "true" || active == "false" {
		values.Set("active", active)
	}
	sort := strings.TrimSpace(p.Sort)
	if sort == "" {
		sort = "id"
	}
	dir := strings.ToLower(strings.TrimSpace(p.Dir))
	if dir != "asc" {
		dir = "desc"
	}
	values.Set("sort", sort)
	values.Set("dir", dir)
	return values
}

// Public returns the active categories used by product forms and filters.
func (g Categories) Public(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := g.c.doJSON(ctx, call{method: http.MethodGet, path: "/categories"}, &categories)
	return categories, err
}

// List fetches one page of categories for administration.
func (g Categories) List(ctx context.Context, params CategoryListParams) (Page[Category], error) {
	var page Page[Category]
	err := g.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/categories", query: params.values()}, &page)
	return page, err
}

// Get fetches one category.
func (g Categories) Get(ctx context.Context, id int64) (Category, error) {
	var category Category
	err := g.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/categories/" + idString(id)}, &category)
	return category, err
}

// Create adds a category.
func (g Categories) Create(ctx context.Context, in CategoryInput) (Category, error) {
	var category Category
	err := g.c.doJSON(ctx, call{method: http.MethodPost, path: "/admin/categories", body: in.normalized()}, &category)
	return category, err
}

// Update replaces a category's editable fields.
func (g Categories) Update(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	var category Category
	err := g.c.doJSON(ctx, call{method: http.MethodPut, path: "/admin/categories/" + idString(id), body: in.normalized()}, &category)
	return category, err
}

// ToggleActive flips a category's active flag.
func (g Categories) ToggleActive(ctx context.Context, id int64) (Category, error) {
	var category Category
	err := g.c.doJSON(ctx, call{method: http.MethodPatch, path: "/admin/categories/" + idString(id) + "/toggle-active"}, &category)
	return category, err
}

func (in CategoryInput) normalized() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		in.Description = optional(*in.Description)
	}
	return in
}

// NewCategoryInput builds a payload from form strings.
func NewCategoryInput(name, description string) CategoryInput {
	return CategoryInput{Name: strings.TrimSpace(name), Description: optional(description)}
}
