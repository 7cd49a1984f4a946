package ui

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/config"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/listsync"
	"github.com/five82/shopdeck/internal/mockapi"
	"github.com/five82/shopdeck/internal/orderstatus"
	"github.com/five82/shopdeck/internal/prefs"
	"github.com/five82/shopdeck/internal/session"
)

// blockWait bounds how long a command may run before it counts as a timer or a
// bus wait and is dropped.
const blockWait = 250 * time.Millisecond

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type harness struct {
	api       *mockapi.Server
	client    *backend.Client
	bus       *events.Bus
	prefsPath string
}

// newHarness starts the mock backend and a client signed in with role. An empty
// role leaves the client signed out.
func newHarness(t *testing.T, role string) harness {
	t.Helper()
	return newHarnessWithStore(t, role, nil)
}

// newHarnessWithStore is newHarness over the given fixtures; nil uses the default
// seed.
func newHarnessWithStore(t *testing.T, role string, store *mockapi.Store) harness {
	t.Helper()
	api, err := mockapi.New(mockapi.Options{Secret: "test-secret", Store: store})
	if err != nil {
		t.Fatalf("mockapi.New: %v", err)
	}
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	sess := session.New(filepath.Join(dir, "session.toml"))
	if role != "" {
		token, err := api.IssueToken("admin@shopdeck.test", role, time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if err := sess.SetToken(token); err != nil {
			t.Fatalf("SetToken: %v", err)
		}
	}

	bus := &events.Bus{}
	client, err := backend.NewClient(backend.Options{
		BaseURL:        srv.URL + "/api",
		Session:        sess,
		OnUnauthorized: func() { bus.SessionExpired.Publish(events.SessionExpired{}) },
		OnForbidden:    func(path string) { bus.Forbidden.Publish(events.Forbidden{Path: path}) },
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return harness{api: api, client: client, bus: bus, prefsPath: filepath.Join(dir, "prefs.toml")}
}

func (h harness) model(t *testing.T, location string) Model {
	t.Helper()
	m := New(Options{
		Client:    h.client,
		Bus:       h.bus,
		Config:    config.Config{ReportDir: t.TempDir()},
		PrefsPath: h.prefsPath,
		Location:  location,
		Now:       func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() {
		for _, cancel := range m.unsubscribe {
			cancel()
		}
	})
	m = feed(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return settle(t, m, m.startCmd)
}

// feed delivers msg and then every message its commands produce.
func feed(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	return drain(t, m, []tea.Msg{msg})
}

// settle runs cmd and delivers what it produces.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	return drain(t, m, run(cmd))
}

func drain(t *testing.T, m Model, queue []tea.Msg) Model {
	t.Helper()
	for n := 0; len(queue) > 0; n++ {
		if n > 200 {
			t.Fatalf("messages did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		next, cmd := m.Update(msg)
		m = next.(Model)
		queue = append(queue, run(cmd)...)
	}
	return m
}

// run executes cmd, expanding batches. Timers, spinner frames and commands that
// block past blockWait produce nothing.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(blockWait):
		return nil
	}

	switch msg := msg.(type) {
	case nil, spinner.TickMsg, tickMsg, toastClearMsg, debounceMsg:
		return nil
	case tea.BatchMsg:
		results := make([][]tea.Msg, len(msg))
		var wg sync.WaitGroup
		for i, c := range msg {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = run(c)
			}()
		}
		wg.Wait()
		var out []tea.Msg
		for _, r := range results {
			out = append(out, r...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ordersOf(t *testing.T, m Model) *ordersScreen {
	t.Helper()
	s, ok := m.screen.(*ordersScreen)
	if !ok {
		t.Fatalf("screen = %T, want *ordersScreen", m.screen)
	}
	return s
}

func TestSignedOutStartRedirectsToLogin(t *testing.T) {
	h := newHarness(t, "")
	m := h.model(t, "/orders?status=PENDING")

	loc := m.Location()
	if loc.Path != loginPath {
		t.Fatalf("path = %q, want %q", loc.Path, loginPath)
	}
	if got := loc.Query().Get("next"); got != "/orders?status=PENDING" {
		t.Fatalf("next = %q", got)
	}
	if _, ok := m.screen.(*loginScreen); !ok {
		t.Fatalf("screen = %T, want *loginScreen", m.screen)
	}
	if m.history.Len() != 1 {
		t.Fatalf("history len = %d, want 1", m.history.Len())
	}
}

func TestSignedInLoginAddressFollowsNext(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/login?next=%2Fproducts")

	if got := m.Location().Path; got != "/products" {
		t.Fatalf("path = %q, want /products", got)
	}
	if _, ok := m.screen.(*productsScreen); !ok {
		t.Fatalf("screen = %T, want *productsScreen", m.screen)
	}

	m = feed(t, m, navigateMsg{to: "/login"})
	if got := m.Location().Path; got != homePath {
		t.Fatalf("path = %q, want %q", got, homePath)
	}
}

func TestFilterKeyReplacesAddress(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders")

	s := ordersOf(t, m)
	if !s.sync.HasResult() || s.sync.Result().TotalElements != 6 {
		t.Fatalf("initial result = %+v", s.sync.Result())
	}
	if !s.hasStats {
		t.Fatalf("order counters not loaded")
	}

	m = feed(t, m, runeKey("f"))
	if got := m.Location().String(); got != "/orders?status=PENDING" {
		t.Fatalf("location = %q", got)
	}
	if m.history.Len() != 1 {
		t.Fatalf("own writes must replace the entry, history len = %d", m.history.Len())
	}
	if m.screen != s {
		t.Fatalf("list was rebuilt instead of reconciled")
	}
	res := s.sync.Result()
	if res.TotalElements != 3 {
		t.Fatalf("pending total = %d, want 3", res.TotalElements)
	}
	for _, o := range res.Items {
		if o.Status != orderstatus.Pending {
			t.Fatalf("order %d has status %s", o.ID, o.Status)
		}
	}
}

func TestBackAndForwardAcrossScreens(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders?status=PENDING")

	m = feed(t, m, navigateMsg{to: "/orders/1004"})
	detail, ok := m.screen.(*orderDetailScreen)
	if !ok {
		t.Fatalf("screen = %T, want *orderDetailScreen", m.screen)
	}
	if !detail.loaded || detail.order.Status != orderstatus.Pending {
		t.Fatalf("order not loaded: %+v", detail.order)
	}
	if !slices.Equal(detail.options, orderstatus.AllowedNext(orderstatus.Pending)) {
		t.Fatalf("options = %v, want %v", detail.options, orderstatus.AllowedNext(orderstatus.Pending))
	}
	if detail.selected() != orderstatus.Pending {
		t.Fatalf("selected = %s, want current status", detail.selected())
	}

	m = feed(t, m, historyMsg{})
	if got := m.Location().String(); got != "/orders?status=PENDING" {
		t.Fatalf("back location = %q", got)
	}
	s := ordersOf(t, m)
	if got := s.sync.Query().Filter("status"); got != "PENDING" {
		t.Fatalf("restored filter = %q", got)
	}

	m = feed(t, m, historyMsg{forward: true})
	if got := m.Location().Path; got != "/orders/1004" {
		t.Fatalf("forward path = %q", got)
	}
}

func TestSamePathHistoryReconcilesInPlace(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders?status=PENDING")
	s := ordersOf(t, m)

	m = feed(t, m, navigateMsg{to: "/orders?status=DELIVERED"})
	if m.history.Len() != 2 {
		t.Fatalf("history len = %d, want 2", m.history.Len())
	}
	if m.screen != s {
		t.Fatalf("same path push rebuilt the list")
	}
	if got := s.sync.Query().Filter("status"); got != "DELIVERED" {
		t.Fatalf("filter = %q", got)
	}

	m = feed(t, m, historyMsg{})
	if m.screen != s {
		t.Fatalf("back on the same path rebuilt the list")
	}
	if got := s.sync.Query().Filter("status"); got != "PENDING" {
		t.Fatalf("filter after back = %q", got)
	}
	if got := s.sync.Result().TotalElements; got != 3 {
		t.Fatalf("pending total after back = %d", got)
	}
}

func TestStaleAnswersAreDropped(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders")
	s := ordersOf(t, m)
	before := s.sync.Result()

	empty := listsync.Result[backend.Order]{}
	m = feed(t, m, listFetchedMsg[backend.Order]{sid: s.ID() + 1, seq: 1, result: empty})
	m = feed(t, m, listFetchedMsg[backend.Order]{sid: s.ID(), seq: 999, result: empty})
	if got := s.sync.Result().TotalElements; got != before.TotalElements {
		t.Fatalf("stale answer replaced rows: total %d, want %d", got, before.TotalElements)
	}

	// A replaced screen's address write must not touch the new location.
	oldSID := s.ID()
	m = feed(t, m, navigateMsg{to: "/products"})
	m = feed(t, m, addressMsg{sid: oldSID, rawQuery: "page=2"})
	if got := m.Location().String(); got != "/products" {
		t.Fatalf("location = %q, want /products", got)
	}
}

func TestPageSizeIsRemembered(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders")

	m = feed(t, m, runeKey("z"))
	if got := m.Location().String(); got != "/orders?size=20" {
		t.Fatalf("location = %q", got)
	}
	saved, err := prefs.Load(h.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if got := saved.PageSize("/orders"); got != 20 {
		t.Fatalf("saved page size = %d, want 20", got)
	}

	// A fresh list picks the remembered size as its default.
	m = feed(t, m, navigateMsg{to: "/products"})
	m = feed(t, m, navigateMsg{to: "/orders"})
	if got := ordersOf(t, m).sync.Query().Size; got != 20 {
		t.Fatalf("size = %d, want 20", got)
	}
}

func TestSessionExpiryRedirectsToLogin(t *testing.T) {
	h := newHarness(t, "")
	other, err := mockapi.New(mockapi.Options{Secret: "another-secret"})
	if err != nil {
		t.Fatalf("mockapi.New: %v", err)
	}
	forged, err := other.IssueToken("admin@shopdeck.test", "ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if err := h.client.Session().SetToken(forged); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	m := h.model(t, "/orders?status=PENDING")
	if h.client.Session().Authenticated() {
		t.Fatalf("401 did not clear the session")
	}

	m = settle(t, m, m.waitExpired())
	loc := m.Location()
	if loc.Path != loginPath {
		t.Fatalf("path = %q, want %q", loc.Path, loginPath)
	}
	if got := loc.Query().Get("next"); got != "/orders?status=PENDING" {
		t.Fatalf("next = %q", got)
	}
	if m.toast.tone != "warning" {
		t.Fatalf("toast = %+v", m.toast)
	}
}

func TestForbiddenReadOpensForbiddenPage(t *testing.T) {
	h := newHarness(t, "COURIER")
	m := h.model(t, "/orders")

	m = settle(t, m, m.waitForbidden())
	if got := m.Location().Path; got != forbiddenPath {
		t.Fatalf("path = %q, want %q", got, forbiddenPath)
	}
	page, ok := m.screen.(*messageScreen)
	if !ok || page.Title() != "Forbidden" {
		t.Fatalf("screen = %T %v", m.screen, m.screen)
	}
	if m.history.Len() != 1 {
		t.Fatalf("forbidden page must replace the entry, history len = %d", m.history.Len())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders")

	m = feed(t, m, runeKey("L"))
	if h.client.Session().Authenticated() {
		t.Fatalf("session still authenticated")
	}
	if _, ok := m.screen.(*loginScreen); !ok {
		t.Fatalf("screen = %T, want *loginScreen", m.screen)
	}
	if m.snapshot.HasBadges {
		t.Fatalf("badges survived sign out")
	}
}

func TestLocationBarOpensAddress(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/dashboard")

	m = feed(t, m, runeKey(":"))
	if !m.editingLocation {
		t.Fatalf("location bar not open")
	}
	m.locationBar.SetValue("/customers?active=false")
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.editingLocation {
		t.Fatalf("location bar still open")
	}
	if got := m.Location().String(); got != "/customers?active=false" {
		t.Fatalf("location = %q", got)
	}
	if _, ok := m.screen.(*customersScreen); !ok {
		t.Fatalf("screen = %T, want *customersScreen", m.screen)
	}
}

func TestViewRendersChrome(t *testing.T) {
	h := newHarness(t, "ADMIN")
	m := h.model(t, "/orders")

	view := m.View()
	for _, want := range []string{"shopdeck", "/orders", "Orders"} {
		if !containsPlain(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

// manyOrders builds fixtures with n pending orders, enough for several pages.
func manyOrders(t *testing.T, n int) *mockapi.Store {
	t.Helper()
	var b strings.Builder
	b.WriteString("categories:\n  - {id: 1, name: Bakery, active: true}\n")
	b.WriteString("products:\n  - {id: 1, name: Simit, price: \"15.00\", stock: 500, category_id: 1, active: true}\n")
	b.WriteString("customers:\n  - {id: 1, first_name: Ayse, last_name: Yilmaz, email: ayse@example.com, active: true, age_hours: 100}\n")
	b.WriteString("orders:\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "  - {id: %d, customer_id: 1, status: PENDING, payment_method: CASH, age_hours: %d, items: [{product_id: 1, quantity: 1}]}\n", 2000+i, i)
	}
	store, err := mockapi.NewStore([]byte(b.String()), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestQuickPagingKeepsLatestPage(t *testing.T) {
	tests := []struct {
		name     string
		reversed bool
	}{
		{name: "echoes in order"},
		{name: "echoes reversed", reversed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarnessWithStore(t, "ADMIN", manyOrders(t, 35))
			m := h.model(t, "/orders")
			if got := ordersOf(t, m).sync.Result().TotalPages; got != 4 {
				t.Fatalf("total pages = %d, want 4", got)
			}

			// Two page turns before either address write comes back.
			next, cmd := m.Update(runeKey("n"))
			m = next.(Model)
			first := run(cmd)
			next, cmd = m.Update(runeKey("n"))
			m = next.(Model)
			second := run(cmd)

			if tt.reversed {
				first, second = second, first
			}
			m = drain(t, m, slices.Concat(first, second))

			s := ordersOf(t, m)
			if got := s.sync.Query().Page; got != 2 {
				t.Fatalf("query page = %d, want 2", got)
			}
			if got := s.sync.Result().Page; got != 2 {
				t.Fatalf("shown page = %d, want 2", got)
			}
			if s.sync.Loading() {
				t.Fatalf("an echo started another fetch")
			}
			if got := m.Location().Query().Get("page"); got != "3" {
				t.Fatalf("address page = %q, want 3", got)
			}
			if m.history.Len() != 1 {
				t.Fatalf("history len = %d, want 1", m.history.Len())
			}
		})
	}
}
