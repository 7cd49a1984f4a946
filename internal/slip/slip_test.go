package slip

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/orderstatus"
)

func sampleOrder() backend.Order {
	return backend.Order{
		ID:              1004,
		Status:          orderstatus.Pending,
		TotalAmount:     decimal.RequireFromString("184.90"),
		DeliveryAddress: "Nispetiye Cd. 5, Besiktas",
		PaymentMethod:   backend.PayCash,
		CustomerName:    "Can Ozturk",
		Note:            "Ring twice",
		CreatedAt:       backend.Timestamp{Time: time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)},
		Items: []backend.OrderItem{
			{ProductName: "Bananas 1kg", Quantity: 1, UnitPrice: decimal.RequireFromString("64.90"), LineTotal: decimal.RequireFromString("64.90")},
			{ProductName: "Cherries 500g", Quantity: 1, UnitPrice: decimal.RequireFromString("120"), LineTotal: decimal.RequireFromString("120")},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	data, err := Render(sampleOrder(), backend.StoreSettings{StoreName: "Shopdeck Market"}, time.Now())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", data[:min(8, len(data))])
	}
}

func TestSaveWritesNamedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slips")
	path, err := Save(dir, sampleOrder(), backend.StoreSettings{}, time.Now())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "order-1004-slip.pdf" {
		t.Fatalf("path = %s", path)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("slip not written: %v", err)
	}
}
