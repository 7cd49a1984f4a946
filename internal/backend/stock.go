package backend

import (
	"context"
	"net/http"
	"strings"
)

// Stock is the gateway for the stock movement ledger.
type Stock struct {
	c *Client
}

// MovementParams configures GET /admin/stock-movements.
type MovementParams struct {
	ProductID int64
	Page      int
	Size      int
	Sort      string
}

// Movements fetches one page of stock movements for a product.
func (s Stock) Movements(ctx context.Context, params MovementParams) (Page[StockMovement], error) {
	values := pageValues(params.Page, params.Size)
	if params.ProductID > 0 {
		values.Set("productId", idString(params.ProductID))
	}
	if sort := strings.TrimSpace(params.Sort); sort != "" {
		values.Set("sort", sort)
	}
	var page Page[StockMovement]
	err := s.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/stock-movements", query: values}, &page)
	return page, err
}
