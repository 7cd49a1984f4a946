package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Report types.
const (
	ReportOrder   = "ORDER"
	ReportStock   = "STOCK"
	ReportDaily   = "DAILY"
	ReportMonthly = "MONTHLY"
)

// ReportTypes lists the report types in menu order.
func ReportTypes() []string {
	return []string{ReportOrder, ReportStock, ReportDaily, ReportMonthly}
}

// Reports is the gateway for /admin/reports.
type Reports struct {
	c *Client
}

// ReportParams configures a report download. Dates are calendar days.
type ReportParams struct {
	Type      string
	StartDate time.Time
	EndDate   time.Time
}

// Validate checks the type and that the range is not reversed.
func (p ReportParams) Validate() error {
	switch strings.ToUpper(p.Type) {
	case ReportOrder, ReportStock, ReportDaily, ReportMonthly:
	default:
		return fmt.Errorf("unknown report type %q", p.Type)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("start and end date are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end date must not be before start date")
	}
	return nil
}

// FileName is the name the downloaded PDF is saved under.
func (p ReportParams) FileName() string {
	return fmt.Sprintf("report-%s-%s_to_%s.pdf",
		strings.ToLower(p.Type),
		p.StartDate.Format(time.DateOnly),
		p.EndDate.Format(time.DateOnly),
	)
}

// PDF downloads a rendered report.
func (r Reports) PDF(ctx context.Context, params ReportParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	values := url.Values{}
	values.Set("type", strings.ToUpper(params.Type))
	values.Set("startDate", params.StartDate.Format(time.DateOnly))
	values.Set("endDate", params.EndDate.Format(time.DateOnly))
	data, contentType, err := r.c.send(ctx, call{
		method: http.MethodGet,
		path:   "/admin/reports",
		query:  values,
		accept: "application/pdf",
	})
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "application/pdf") && !strings.HasPrefix(string(data), "%PDF") {
		return nil, &Error{
			Status:  http.StatusOK,
			Code:    CodeDecode,
			Message: "The server did not return a PDF",
			Method:  http.MethodGet,
			Path:    "/admin/reports",
		}
	}
	return data, nil
}
