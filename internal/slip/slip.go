// Package slip renders a printable order slip (packing/delivery note) locally, so an
// operator can hand a courier the paperwork without a backend round trip.
package slip

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/format"
)

// FileName is the slip's file name for order.
func FileName(order backend.Order) string {
	return fmt.Sprintf("order-%d-slip.pdf", order.ID)
}

// Render builds the slip PDF. The store header comes from settings; empty fields
// are skipped.
func Render(order backend.Order, store backend.StoreSettings, printedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Order #%d", order.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, tr(orDash(store.StoreName)))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{store.StoreAddress, store.StorePhone, store.InvoiceTitle} {
		if line != "" {
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("ORDER #%d", order.ID))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	details := [][2]string{
		{"Placed", format.DateTime(order.CreatedAt.Time)},
		{"Status", order.Status.Label()},
		{"Customer", orDash(order.CustomerName)},
		{"Address", orDash(order.DeliveryAddress)},
		{"Payment", order.PaymentLabel()},
	}
	if order.Note != "" {
		details = append(details, [2]string{"Note", order.Note})
	}
	for _, d := range details {
		pdf.CellFormat(30, 6, d[0], "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 6, tr(d[1]), "", "L", false)
	}
	pdf.Ln(4)

	widths := []float64{90, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Product", "Qty", "Unit price", "Line total"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(widths[0], 6, tr(item.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprint(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, format.MoneyASCII(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, format.MoneyASCII(item.LineTotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, format.MoneyASCII(order.TotalAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 5, "Printed "+format.DateTime(printedAt))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render slip: %w", err)
	}
	return buf.Bytes(), nil
}

// Save renders the slip into dir and returns the written path.
func Save(dir string, order backend.Order, store backend.StoreSettings, printedAt time.Time) (string, error) {
	data, err := Render(order, store, printedAt)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create slip dir: %w", err)
	}
	path := filepath.Join(dir, FileName(order))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write slip: %w", err)
	}
	return path, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
