package mockapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/orderstatus"
)

// GET /api/admin/reports?type=&startDate=&endDate=
func (s *Server) report(c *gin.Context) {
	params, err := reportParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := s.renderReport(params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, params.FileName()))
	c.Data(http.StatusOK, "application/pdf", data)
}

func reportParams(c *gin.Context) (backend.ReportParams, error) {
	fields := map[string]string{}
	parse := func(key string) time.Time {
		t, err := time.ParseInLocation(time.DateOnly, c.Query(key), time.Local)
		if err != nil {
			fields[key] = "must be YYYY-MM-DD"
		}
		return t
	}
	params := backend.ReportParams{
		Type:      strings.ToUpper(c.Query("type")),
		StartDate: parse("startDate"),
		EndDate:   parse("endDate"),
	}
	if len(fields) > 0 {
		return params, invalid(fields)
	}
	if err := params.Validate(); err != nil {
		return params, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: err.Error()}
	}
	return params, nil
}

type reportRow []string

func (s *Server) renderReport(p backend.ReportParams) ([]byte, error) {
	from := p.StartDate
	to := p.EndDate.AddDate(0, 0, 1).Add(-time.Nanosecond)
	var header reportRow
	var rows []reportRow
	var widths []float64

	switch p.Type {
	case backend.ReportOrder:
		header = reportRow{"Order", "Date", "Customer", "Status", "Payment", "Total"}
		widths = []float64{20, 35, 45, 28, 22, 30}
		for _, o := range s.store.OrdersBetween(from, to) {
			rows = append(rows, reportRow{
				fmt.Sprintf("#%d", o.ID),
				o.CreatedAt.Format("2006-01-02 15:04"),
				o.CustomerName,
				string(o.Status),
				o.PaymentMethod,
				o.TotalAmount.StringFixed(2),
			})
		}
	case backend.ReportStock:
		header = reportRow{"Product", "Category", "Stock", "Moved in range"}
		widths = []float64{70, 50, 25, 35}
		for _, prod := range s.store.Products(ProductFilter{Sort: "name,asc"}) {
			moved := 0
			for _, m := range s.store.Movements(prod.ID, "") {
				if !m.CreatedAt.Before(from) && !m.CreatedAt.After(to) {
					moved += m.Delta
				}
			}
			rows = append(rows, reportRow{prod.Name, prod.CategoryName, fmt.Sprint(prod.Stock), fmt.Sprintf("%+d", moved)})
		}
	case backend.ReportDaily, backend.ReportMonthly:
		layout := time.DateOnly
		if p.Type == backend.ReportMonthly {
			layout = "2006-01"
		}
		header = reportRow{"Period", "Orders", "Delivered", "Cancelled", "Revenue"}
		widths = []float64{40, 30, 30, 30, 45}
		rows = periodRows(s.store.OrdersBetween(from, to), layout)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Report", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("%s report", p.Type))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("%s to %s", p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	if len(rows) == 0 {
		pdf.Cell(0, 7, "No data in this range.")
		pdf.Ln(-1)
	}
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func periodRows(orders []backend.Order, layout string) []reportRow {
	type bucket struct {
		orders, delivered, cancelled int
		revenue                      decimal.Decimal
	}
	var keys []string
	buckets := map[string]*bucket{}
	for _, o := range orders {
		key := o.CreatedAt.Format(layout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.orders++
		switch o.Status {
		case orderstatus.Delivered:
			b.delivered++
			b.revenue = b.revenue.Add(o.TotalAmount)
		case orderstatus.Cancelled:
			b.cancelled++
		}
	}
	rows := make([]reportRow, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		rows = append(rows, reportRow{key, fmt.Sprint(b.orders), fmt.Sprint(b.delivered), fmt.Sprint(b.cancelled), b.revenue.StringFixed(2)})
	}
	return rows
}
