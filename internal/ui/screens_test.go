package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/nav"
)

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func containsPlain(view, want string) bool {
	return strings.Contains(ansiSeq.ReplaceAllString(view, ""), want)
}

func testEnv(t *testing.T) *env {
	t.Helper()
	return &env{
		log: zap.NewNop(),
		now: func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
}

func TestBuildRoutes(t *testing.T) {
	e := testEnv(t)
	r := newRouter()
	tests := []struct {
		path string
		want string
	}{
		{"/dashboard", "*ui.dashboardScreen"},
		{"/orders", "*ui.ordersScreen"},
		{"/orders/1042", "*ui.orderDetailScreen"},
		{"/orders/abc", "*ui.messageScreen"},
		{"/products", "*ui.productsScreen"},
		{"/products/new", "*ui.productFormScreen"},
		{"/products/7/edit", "*ui.productFormScreen"},
		{"/products/7/stock", "*ui.movementsScreen"},
		{"/products/low-stock", "*ui.listScreen[github.com/five82/shopdeck/internal/backend.Product]"},
		{"/categories/new", "*ui.categoryFormScreen"},
		{"/customers/4", "*ui.customerDetailScreen"},
		{"/settings", "*ui.settingsMenuScreen"},
		{"/settings/shipping", "*ui.settingsScreen"},
		{"/settings/nope", "*ui.messageScreen"},
		{"/reports", "*ui.reportsScreen"},
		{"/logs", "*ui.logsScreen"},
		{"/nowhere", "*ui.messageScreen"},
	}
	for _, tt := range tests {
		s := build(e, r, nav.Parse(tt.path))
		if got := fmt.Sprintf("%T", s); got != tt.want {
			t.Fatalf("build(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}

	edit := build(e, r, nav.Parse("/products/7/edit")).(*productFormScreen)
	if edit.id != 7 {
		t.Fatalf("edit id = %d, want 7", edit.id)
	}
	if build(e, r, nav.Parse("/products/new")).(*productFormScreen).id != 0 {
		t.Fatalf("new product form must have id 0")
	}
}

func TestScreenIDsAreUnique(t *testing.T) {
	e := testEnv(t)
	a := newOrdersScreen(e, "")
	b := newOrdersScreen(e, "")
	if a.ID() == b.ID() {
		t.Fatalf("screens share id %d", a.ID())
	}
}

func TestValidateProduct(t *testing.T) {
	e := testEnv(t)
	f := newProductFormScreen(e, 0).form
	f.SetOptions("categoryId", []choiceOption{{value: "", label: "Choose"}, {value: "3", label: "Bakery"}})

	_, errs := validateProduct(f)
	for _, key := range []string{"name", "price", "stock", "categoryId"} {
		if errs[key] == "" {
			t.Fatalf("empty form: no error for %s (%v)", key, errs)
		}
	}

	f.SetValue("name", "Sourdough")
	f.SetValue("price", "-1")
	f.SetValue("stock", "2.5")
	f.SetValue("categoryId", "3")
	_, errs = validateProduct(f)
	if errs["price"] == "" || errs["stock"] == "" {
		t.Fatalf("expected price and stock errors, got %v", errs)
	}
	if _, ok := errs["name"]; ok {
		t.Fatalf("unexpected name error %q", errs["name"])
	}

	f.SetValue("price", "129,90")
	f.SetValue("stock", "12")
	in, errs := validateProduct(f)
	if errs != nil {
		t.Fatalf("valid form rejected: %v", errs)
	}
	if !in.Price.Equal(decimal.RequireFromString("129.90")) {
		t.Fatalf("price = %s", in.Price)
	}
	if in.Stock != 12 || in.CategoryID != 3 {
		t.Fatalf("input = %+v", in)
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name, description string
		wantKeys          []string
	}{
		{"Bakery", "", nil},
		{"", "", []string{"name"}},
		{"B", "", []string{"name"}},
		{strings.Repeat("ş", 60), "", nil},
		{strings.Repeat("a", 61), "", []string{"name"}},
		{"Bakery", strings.Repeat("x", 256), []string{"description"}},
	}
	for _, tt := range tests {
		errs := validateCategory(tt.name, tt.description)
		if len(errs) != len(tt.wantKeys) {
			t.Fatalf("validateCategory(%q, %d chars) = %v, want keys %v", tt.name, len(tt.description), errs, tt.wantKeys)
		}
		for _, k := range tt.wantKeys {
			if errs[k] == "" {
				t.Fatalf("validateCategory(%q) missing %s error", tt.name, k)
			}
		}
	}
}

func TestLeavesFilter(t *testing.T) {
	tests := []struct {
		filter string
		active bool
		want   bool
	}{
		{"", true, false},
		{"", false, false},
		{"true", true, false},
		{"true", false, true},
		{"false", true, true},
		{"false", false, false},
	}
	for _, tt := range tests {
		if got := leavesFilter(tt.filter, tt.active); got != tt.want {
			t.Fatalf("leavesFilter(%q, %v) = %v, want %v", tt.filter, tt.active, got, tt.want)
		}
	}
}

func TestReportParams(t *testing.T) {
	e := testEnv(t)
	f := newReportsScreen(e).form

	p, errs := reportParams(f)
	if errs != nil {
		t.Fatalf("defaults rejected: %v", errs)
	}
	if p.Type != backend.ReportOrder || !p.StartDate.Equal(p.EndDate) {
		t.Fatalf("defaults = %+v", p)
	}
	if p.StartDate.Format(time.DateOnly) != "2026-03-14" {
		t.Fatalf("start = %s, want today", p.StartDate)
	}

	f.SetValue("startDate", "14.03.2026")
	if _, errs = reportParams(f); errs["startDate"] == "" {
		t.Fatalf("bad date accepted: %v", errs)
	}

	f.SetValue("startDate", "2026-03-20")
	if _, errs = reportParams(f); errs["endDate"] == "" {
		t.Fatalf("end before start accepted: %v", errs)
	}
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := writeReport(dir, "report-order.pdf", []byte("%PDF-1.3"))
	if err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(data) != "%PDF-1.3" {
		t.Fatalf("report content = %q", data)
	}
}

func TestSettingsCollectMergesSection(t *testing.T) {
	e := testEnv(t)
	sec, ok := findSection("shipping")
	if !ok {
		t.Fatalf("shipping section missing")
	}
	s := newSettingsScreen(e, sec)
	current := backend.StoreSettings{
		StoreName:            "Shopdeck Market",
		DeliveryFeeFixed:     decimal.RequireFromString("15"),
		PayOnDeliveryEnabled: true,
		PayOnDeliveryMethods: []string{backend.PayCash},
	}
	s.fill(current)

	s.form.SetValue("deliveryFeeFixed", "abc")
	if _, errs := s.collect(); errs["deliveryFeeFixed"] == "" {
		t.Fatalf("bad amount accepted: %v", errs)
	}

	s.form.SetValue("deliveryFeeFixed", "19,90")
	s.form.SetValue("payCard", "true")
	apply, errs := s.collect()
	if errs != nil {
		t.Fatalf("collect: %v", errs)
	}
	apply(&current)
	if current.StoreName != "Shopdeck Market" {
		t.Fatalf("fields outside the section changed: %q", current.StoreName)
	}
	if !current.DeliveryFeeFixed.Equal(decimal.RequireFromString("19.90")) {
		t.Fatalf("delivery fee = %s", current.DeliveryFeeFixed)
	}
	if len(current.PayOnDeliveryMethods) != 2 {
		t.Fatalf("methods = %v, want cash and card", current.PayOnDeliveryMethods)
	}
}

func TestClockSettingRejectsBadTime(t *testing.T) {
	e := testEnv(t)
	sec, _ := findSection("operation")
	s := newSettingsScreen(e, sec)
	s.fill(backend.StoreSettings{WorkingHoursStart: "09:00", WorkingHoursEnd: "21:00"})

	s.form.SetValue("workingHoursEnd", "25:00")
	if _, errs := s.collect(); errs["workingHoursEnd"] == "" {
		t.Fatalf("25:00 accepted: %v", errs)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" Kadikoy, Moda,, Besiktas ,")
	want := []string{"Kadikoy", "Moda", "Besiktas"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("splitList = %q, want %q", got, want)
	}
	if splitList("  ") != nil {
		t.Fatalf("blank list should be nil")
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-20 * time.Second), "11:59:40 (now)"},
		{now.Add(-5 * time.Minute), "11:55:00 (5m ago)"},
		{now.Add(-3 * time.Hour), "09:00:00 (3h ago)"},
		{now.Add(-30 * time.Hour), "06:00:00"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.at, now); got != tt.want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestLoginLocation(t *testing.T) {
	if got := loginLocation(nav.Parse(homePath)).String(); got != loginPath {
		t.Fatalf("home login location = %q", got)
	}
	loc := loginLocation(nav.Parse("/customers/4"))
	if loc.Query().Get("next") != "/customers/4" {
		t.Fatalf("next = %q", loc.Query().Get("next"))
	}
}

func TestLogsScreenFiltersByLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopdeck.log")
	lines := []string{
		`{"level":"debug","timestamp":"2026-03-14T12:00:01.000Z","logger":"backend","msg":"request","status":200}`,
		`{"level":"info","timestamp":"2026-03-14T12:00:02.000Z","logger":"ui","msg":"open screen"}`,
		`{"level":"warn","timestamp":"2026-03-14T12:00:03.000Z","logger":"poller","msg":"badge poll failed"}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	e := testEnv(t)
	e.cfg.LogFile = path
	s := newLogsScreen(e)
	msg := s.Init()()
	if cmd := s.Update(msg); cmd != nil {
		t.Fatalf("unexpected command after load")
	}
	if len(s.entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(s.entries))
	}

	th := GetTheme("")
	view := s.View(th, 100, 12)
	if containsPlain(view, "request") || !containsPlain(view, "open screen") {
		t.Fatalf("info floor view:\n%s", view)
	}

	s.Update(runeKey("l"))
	view = s.View(th, 100, 12)
	if containsPlain(view, "open screen") || !containsPlain(view, "badge poll failed") {
		t.Fatalf("warn floor view:\n%s", view)
	}
}

func TestLogsScreenWithoutLogFile(t *testing.T) {
	s := newLogsScreen(testEnv(t))
	if s.Init() != nil {
		t.Fatalf("nothing to load without a log file")
	}
	if !containsPlain(s.View(GetTheme(""), 80, 10), "Logging is disabled") {
		t.Fatalf("missing disabled notice")
	}
}
