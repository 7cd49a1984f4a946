package mockapi

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/orderstatus"
)

// apiError is rendered as the backend's {code,message,errors} envelope.
type apiError struct {
	status  int
	code    string
	message string
	fields  map[string]string
}

func (e *apiError) Error() string { return e.message }

func notFound(what string, id int64) *apiError {
	return &apiError{status: http.StatusNotFound, code: "NOT_FOUND", message: fmt.Sprintf("%s %d not found", what, id)}
}

func invalid(fields map[string]string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "VALIDATION_ERROR", message: "Invalid input", fields: fields}
}

type user struct {
	email string
	hash  []byte
	role  string
}

// Store is the in-memory state behind the mock backend.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users      []user
	categories []backend.Category
	products   []backend.Product
	customers  []backend.Customer
	orders     []backend.Order
	movements  []backend.StockMovement
	settings   map[string]any

	nextCategory int64
	nextProduct  int64
	nextMovement int64
	cacheClears  int
}

// CacheClears reports how many times the cache clear endpoint was hit.
func (s *Store) CacheClears() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheClears
}

// sortSpec is a parsed "field,dir" parameter.
type sortSpec struct {
	field string
	desc  bool
}

func parseSort(raw, defField string, defDesc bool) sortSpec {
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return sortSpec{field: defField, desc: defDesc}
	}
	return sortSpec{field: field, desc: strings.EqualFold(strings.TrimSpace(dir), "desc")}
}

func sortBy[T any](items []T, spec sortSpec, keys map[string]func(a, b T) int, fallback string) {
	compare, ok := keys[spec.field]
	if !ok {
		compare = keys[fallback]
	}
	slices.SortStableFunc(items, func(a, b T) int {
		if spec.desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// activeFilter parses "true"/"false"; anything else means no filter.
func activeFilter(raw string) (bool, bool) {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return v, true
}

// Orders

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status     string
	ID         string
	CustomerID int64
	Sort       string
}

var orderKeys = map[string]func(a, b backend.Order) int{
	"id":          func(a, b backend.Order) int { return cmp.Compare(a.ID, b.ID) },
	"totalAmount": func(a, b backend.Order) int { return a.TotalAmount.Cmp(b.TotalAmount) },
	"createdAt":   func(a, b backend.Order) int { return a.CreatedAt.Compare(b.CreatedAt.Time) },
}

// Orders returns the orders matching f, sorted.
func (s *Store) Orders(f OrderFilter) []backend.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	id := strings.TrimPrefix(strings.TrimSpace(f.ID), "#")
	out := make([]backend.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != "" && status != "ALL" && string(o.Status) != status {
			continue
		}
		if id != "" && !strings.Contains(strconv.FormatInt(o.ID, 10), id) {
			continue
		}
		if f.CustomerID > 0 && o.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, summary(o))
	}
	sortBy(out, parseSort(f.Sort, "createdAt", true), orderKeys, "createdAt")
	return out
}

// summary drops line items from list rows.
func summary(o backend.Order) backend.Order {
	o.Items = nil
	return o
}

// OrderStats counts orders per status.
func (s *Store) OrderStats() backend.OrderStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats backend.OrderStats
	for _, o := range s.orders {
		switch o.Status {
		case orderstatus.Pending:
			stats.Pending++
		case orderstatus.Delivered:
			stats.Delivered++
		case orderstatus.Cancelled:
			stats.Cancelled++
		}
		stats.Total++
	}
	return stats
}

// Order returns one order with items.
func (s *Store) Order(id int64) (backend.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.orderIndex(id)
	if i < 0 {
		return backend.Order{}, notFound("order", id)
	}
	return cloneOrder(s.orders[i]), nil
}

func cloneOrder(o backend.Order) backend.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (s *Store) orderIndex(id int64) int {
	return slices.IndexFunc(s.orders, func(o backend.Order) bool { return o.ID == id })
}

// UpdateOrderStatus applies the status policy. Cancelling a pending order puts its
// items back in stock and records the movements.
func (s *Store) UpdateOrderStatus(id int64, raw, actor string) (backend.Order, error) {
	next := orderstatus.Parse(raw)
	if !next.Known() {
		return backend.Order{}, invalid(map[string]string{"status": "unknown status"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(id)
	if i < 0 {
		return backend.Order{}, notFound("order", id)
	}
	order := &s.orders[i]
	if !orderstatus.CanTransition(order.Status, next) {
		return backend.Order{}, &apiError{
			status:  http.StatusConflict,
			code:    "INVALID_STATUS_TRANSITION",
			message: fmt.Sprintf("cannot move order from %s to %s", order.Status, next),
		}
	}
	if order.Status == next {
		return cloneOrder(*order), nil
	}
	if next == orderstatus.Cancelled {
		for _, item := range order.Items {
			s.adjustStock(item.ProductID, item.Quantity, backend.MovementOrderCancel, "ORDER", strconv.FormatInt(order.ID, 10), actor)
		}
	}
	order.Status = next
	return cloneOrder(*order), nil
}

// adjustStock must be called with the write lock held.
func (s *Store) adjustStock(productID int64, delta int, kind, refType, refID, actor string) {
	i := s.productIndex(productID)
	if i < 0 || delta == 0 {
		return
	}
	p := &s.products[i]
	before := p.Stock
	p.Stock += delta
	s.nextMovement++
	s.movements = append(s.movements, backend.StockMovement{
		ID:            s.nextMovement,
		ProductID:     productID,
		Type:          kind,
		Delta:         delta,
		BeforeStock:   before,
		AfterStock:    p.Stock,
		ReferenceType: refType,
		ReferenceID:   refID,
		Actor:         actor,
		CreatedAt:     backend.Timestamp{Time: s.now()},
	})
}

// Products

// ProductFilter narrows the admin product listing.
type ProductFilter struct {
	Q          string
	Active     string
	CategoryID int64
	Sort       string
}

var productKeys = map[string]func(a, b backend.Product) int{
	"id":    func(a, b backend.Product) int { return cmp.Compare(a.ID, b.ID) },
	"name":  func(a, b backend.Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"price": func(a, b backend.Product) int { return a.Price.Cmp(b.Price) },
	"stock": func(a, b backend.Product) int { return cmp.Compare(a.Stock, b.Stock) },
}

// Products returns the products matching f, sorted.
func (s *Store) Products(f ProductFilter) []backend.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active, filterActive := activeFilter(f.Active)
	q := strings.TrimSpace(f.Q)
	out := make([]backend.Product, 0, len(s.products))
	for _, p := range s.products {
		if filterActive && p.Active != active {
			continue
		}
		if f.CategoryID > 0 && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if q != "" && !contains(p.Name, q) && !contains(p.Description, q) {
			continue
		}
		out = append(out, s.withCategory(p))
	}
	sortBy(out, parseSort(f.Sort, "id", true), productKeys, "id")
	return out
}

// LowStock returns active products at or below threshold.
func (s *Store) LowStock(threshold int, sort string) []backend.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.Product, 0)
	for _, p := range s.products {
		if p.Active && p.Stock <= threshold {
			out = append(out, s.withCategory(p))
		}
	}
	sortBy(out, parseSort(sort, "stock", false), productKeys, "stock")
	return out
}

func (s *Store) withCategory(p backend.Product) backend.Product {
	if p.CategoryID != nil {
		if i := s.categoryIndex(*p.CategoryID); i >= 0 {
			p.CategoryName = s.categories[i].Name
		}
	}
	return p
}

func (s *Store) productIndex(id int64) int {
	return slices.IndexFunc(s.products, func(p backend.Product) bool { return p.ID == id })
}

// Product returns one product.
func (s *Store) Product(id int64) (backend.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.productIndex(id)
	if i < 0 {
		return backend.Product{}, notFound("product", id)
	}
	return s.withCategory(s.products[i]), nil
}

func (s *Store) validateProduct(in backend.ProductInput) *apiError {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "must not be blank"
	}
	if in.CategoryID <= 0 || s.categoryIndex(in.CategoryID) < 0 {
		fields["categoryId"] = "unknown category"
	}
	if in.Price.IsNegative() {
		fields["price"] = "must be zero or greater"
	}
	if in.Stock < 0 {
		fields["stock"] = "must be zero or greater"
	}
	if len(fields) > 0 {
		return invalid(fields)
	}
	return nil
}

// CreateProduct adds an active product.
func (s *Store) CreateProduct(in backend.ProductInput) (backend.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateProduct(in); err != nil {
		return backend.Product{}, err
	}
	s.nextProduct++
	categoryID := in.CategoryID
	p := backend.Product{
		ID:         s.nextProduct,
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		Stock:      in.Stock,
		CategoryID: &categoryID,
		Active:     true,
		CreatedAt:  backend.Timestamp{Time: s.now()},
	}
	p.Description = deref(in.Description)
	p.ImageURL = deref(in.ImageURL)
	s.products = append(s.products, p)
	return s.withCategory(p), nil
}

// UpdateProduct replaces editable fields. A stock change is recorded as a manual
// adjustment.
func (s *Store) UpdateProduct(id int64, in backend.ProductInput, actor string) (backend.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		return backend.Product{}, notFound("product", id)
	}
	if err := s.validateProduct(in); err != nil {
		return backend.Product{}, err
	}
	if delta := in.Stock - s.products[i].Stock; delta != 0 {
		s.adjustStock(id, delta, backend.MovementAdminAdjust, "PRODUCT", strconv.FormatInt(id, 10), actor)
	}
	p := &s.products[i]
	categoryID := in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = deref(in.Description)
	p.ImageURL = deref(in.ImageURL)
	p.Price = in.Price
	p.CategoryID = &categoryID
	return s.withCategory(*p), nil
}

// ToggleProduct flips the active flag.
func (s *Store) ToggleProduct(id int64) (backend.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		return backend.Product{}, notFound("product", id)
	}
	s.products[i].Active = !s.products[i].Active
	return s.withCategory(s.products[i]), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Movements returns the stock ledger of one product, or all when productID is 0.
func (s *Store) Movements(productID int64, sort string) []backend.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.StockMovement, 0)
	for _, m := range s.movements {
		if productID == 0 || m.ProductID == productID {
			out = append(out, m)
		}
	}
	keys := map[string]func(a, b backend.StockMovement) int{
		"id":        func(a, b backend.StockMovement) int { return cmp.Compare(a.ID, b.ID) },
		"createdAt": func(a, b backend.StockMovement) int { return cmp.Or(a.CreatedAt.Compare(b.CreatedAt.Time), cmp.Compare(a.ID, b.ID)) },
	}
	sortBy(out, parseSort(sort, "createdAt", true), keys, "createdAt")
	return out
}

// Categories

// CategoryFilter narrows the admin category listing.
type CategoryFilter struct {
	Q      string
	Active string
	Sort   string
	Dir    string
}

var categoryKeys = map[string]func(a, b backend.Category) int{
	"id":   func(a, b backend.Category) int { return cmp.Compare(a.ID, b.ID) },
	"name": func(a, b backend.Category) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
}

// Categories returns the categories matching f.
func (s *Store) Categories(f CategoryFilter) []backend.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active, filterActive := activeFilter(f.Active)
	q := strings.TrimSpace(f.Q)
	out := make([]backend.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if filterActive && c.Active != active {
			continue
		}
		if q != "" && !contains(c.Name, q) && !contains(c.Slug, q) {
			continue
		}
		out = append(out, c)
	}
	spec := sortSpec{field: f.Sort, desc: !strings.EqualFold(f.Dir, "asc")}
	if spec.field == "" {
		spec.field = "id"
	}
	sortBy(out, spec, categoryKeys, "id")
	return out
}

func (s *Store) categoryIndex(id int64) int {
	return slices.IndexFunc(s.categories, func(c backend.Category) bool { return c.ID == id })
}

// Category returns one category.
func (s *Store) Category(id int64) (backend.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return backend.Category{}, notFound("category", id)
	}
	return s.categories[i], nil
}

func (s *Store) validateCategory(id int64, in backend.CategoryInput) *apiError {
	fields := map[string]string{}
	name := strings.TrimSpace(in.Name)
	if n := len([]rune(name)); n < 2 || n > 60 {
		fields["name"] = "must be between 2 and 60 characters"
	}
	if len([]rune(deref(in.Description))) > 255 {
		fields["description"] = "must be at most 255 characters"
	}
	if len(fields) > 0 {
		return invalid(fields)
	}
	for _, c := range s.categories {
		if c.ID != id && strings.EqualFold(c.Name, name) {
			return &apiError{status: http.StatusConflict, code: "DUPLICATE_CATEGORY", message: "A category with this name already exists"}
		}
	}
	return nil
}

// CreateCategory adds an active category.
func (s *Store) CreateCategory(in backend.CategoryInput) (backend.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateCategory(0, in); err != nil {
		return backend.Category{}, err
	}
	s.nextCategory++
	name := strings.TrimSpace(in.Name)
	c := backend.Category{
		ID:          s.nextCategory,
		Name:        name,
		Slug:        slugify(name),
		Description: deref(in.Description),
		Active:      true,
		CreatedAt:   backend.Timestamp{Time: s.now()},
	}
	s.categories = append(s.categories, c)
	return c, nil
}

// UpdateCategory renames a category and refreshes its slug.
func (s *Store) UpdateCategory(id int64, in backend.CategoryInput) (backend.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return backend.Category{}, notFound("category", id)
	}
	if err := s.validateCategory(id, in); err != nil {
		return backend.Category{}, err
	}
	c := &s.categories[i]
	c.Name = strings.TrimSpace(in.Name)
	c.Slug = slugify(c.Name)
	c.Description = deref(in.Description)
	return *c, nil
}

// ToggleCategory flips the active flag.
func (s *Store) ToggleCategory(id int64) (backend.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return backend.Category{}, notFound("category", id)
	}
	s.categories[i].Active = !s.categories[i].Active
	return s.categories[i], nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Customers

// Customers returns the customers matching q and active.
func (s *Store) Customers(q, active string) []backend.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want, filterActive := activeFilter(active)
	q = strings.TrimSpace(q)
	out := make([]backend.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if filterActive && c.Active != want {
			continue
		}
		if q != "" && !contains(c.FullName, q) && !contains(c.Email, q) && !contains(c.Phone, q) {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b backend.Customer) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

func (s *Store) customerIndex(id int64) int {
	return slices.IndexFunc(s.customers, func(c backend.Customer) bool { return c.ID == id })
}

// Customer returns one customer.
func (s *Store) Customer(id int64) (backend.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.customerIndex(id)
	if i < 0 {
		return backend.Customer{}, notFound("customer", id)
	}
	return s.customers[i], nil
}

// ToggleCustomer flips the active flag.
func (s *Store) ToggleCustomer(id int64) (backend.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.customerIndex(id)
	if i < 0 {
		return backend.Customer{}, notFound("customer", id)
	}
	s.customers[i].Active = !s.customers[i].Active
	return s.customers[i], nil
}

// Settings

// Settings returns a copy of the settings object.
func (s *Store) Settings() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out
}

var nonNegativeSettings = []string{"deliveryFeeFixed", "deliveryFreeThreshold", "minOrderAmount", "estimatedDeliveryMinutes"}

// PatchSettings merges patch into the stored settings.
func (s *Store) PatchSettings(patch map[string]any) (map[string]any, error) {
	fields := map[string]string{}
	for _, key := range nonNegativeSettings {
		v, ok := patch[key]
		if !ok || v == nil {
			continue
		}
		d, err := decimal.NewFromString(fmt.Sprint(v))
		if err != nil {
			fields[key] = "must be a number"
			continue
		}
		if d.IsNegative() {
			fields[key] = "must be zero or greater"
		}
	}
	for _, key := range []string{"workingHoursStart", "workingHoursEnd"} {
		if v, ok := patch[key].(string); ok && v != "" {
			if _, err := time.Parse("15:04", v); err != nil {
				fields[key] = "must be HH:MM"
			}
		}
	}
	if len(fields) > 0 {
		return nil, invalid(fields)
	}
	s.mu.Lock()
	for k, v := range patch {
		s.settings[k] = v
	}
	s.mu.Unlock()
	return s.Settings(), nil
}

// ClearCache counts the call; the mock has no caches.
func (s *Store) ClearCache() {
	s.mu.Lock()
	s.cacheClears++
	s.mu.Unlock()
}

// Dashboard

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func rangeStart(now time.Time, name string) time.Time {
	today := startOfDay(now)
	switch name {
	case backend.RangeWeek:
		return today.AddDate(0, 0, -6)
	case backend.RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return today
	}
}

// Summary computes the dashboard cards. Revenue counts delivered orders only.
func (s *Store) Summary() backend.DashboardSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	today := rangeStart(now, backend.RangeToday)
	week := rangeStart(now, backend.RangeWeek)
	month := rangeStart(now, backend.RangeMonth)

	var sum backend.DashboardSummary
	for _, o := range s.orders {
		sum.TotalOrders++
		created := o.CreatedAt.Time
		if !created.Before(today) {
			sum.TodayOrderCount++
		}
		switch o.Status {
		case orderstatus.Pending:
			sum.Pending++
		case orderstatus.Cancelled:
			sum.Cancelled++
		case orderstatus.Delivered:
			sum.Delivered++
			if !created.Before(today) {
				sum.Revenue.Today = sum.Revenue.Today.Add(o.TotalAmount)
			}
			if !created.Before(week) {
				sum.Revenue.Last7Days = sum.Revenue.Last7Days.Add(o.TotalAmount)
			}
			if !created.Before(month) {
				sum.Revenue.ThisMonth = sum.Revenue.ThisMonth.Add(o.TotalAmount)
			}
		}
	}
	recent := make([]backend.Order, 0, len(s.orders))
	for _, o := range s.orders {
		recent = append(recent, summary(o))
	}
	sortBy(recent, sortSpec{field: "createdAt", desc: true}, orderKeys, "createdAt")
	if len(recent) > 5 {
		recent = recent[:5]
	}
	sum.RecentOrders = recent
	return sum
}

// StatusChart counts orders per status created within the range.
func (s *Store) StatusChart(rangeName string) backend.StatusChart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch rangeName {
	case backend.RangeToday, backend.RangeWeek, backend.RangeMonth:
	default:
		rangeName = backend.RangeToday
	}
	from := rangeStart(s.now(), rangeName)
	counts := map[orderstatus.Status]int64{}
	for _, o := range s.orders {
		if !o.CreatedAt.Before(from) {
			counts[o.Status]++
		}
	}
	chart := backend.StatusChart{Range: rangeName}
	for _, st := range orderstatus.All() {
		chart.Items = append(chart.Items, backend.StatusChartItem{Status: st, Count: counts[st]})
	}
	return chart
}

// OrdersBetween returns full orders created within [from, to], oldest first.
func (s *Store) OrdersBetween(from, to time.Time) []backend.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.Order, 0)
	for _, o := range s.orders {
		if !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, cloneOrder(o))
		}
	}
	sortBy(out, sortSpec{field: "createdAt"}, orderKeys, "createdAt")
	return out
}
