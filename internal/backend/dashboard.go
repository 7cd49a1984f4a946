package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Status chart ranges.
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
)

// Dashboard is the gateway for /admin/dashboard.
type Dashboard struct {
	c *Client
}

// Summary fetches the dashboard cards.
func (d Dashboard) Summary(ctx context.Context) (DashboardSummary, error) {
	var summary DashboardSummary
	err := d.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/dashboard/summary"}, &summary)
	return summary, err
}

// StatusChart fetches order counts per status. Unknown ranges fall back to today.
func (d Dashboard) StatusChart(ctx context.Context, rangeName string) (StatusChart, error) {
	switch rangeName {
	case RangeToday, RangeWeek, RangeMonth:
	default:
		rangeName = RangeToday
	}
	values := url.Values{}
	values.Set("range", rangeName)
	var chart StatusChart
	err := d.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/dashboard/status-chart", query: values}, &chart)
	if chart.Range == "" {
		chart.Range = rangeName
	}
	return chart, err
}
