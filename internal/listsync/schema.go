package listsync

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Address parameter names shared by every list.
const (
	ParamPage = "page"
	ParamSize = "size"
	ParamSort = "sort"
)

// DefaultDebounce is the quiet period used when a schema does not set one.
const DefaultDebounce = 300 * time.Millisecond

// FilterSpec describes one address-backed filter.
type FilterSpec struct {
	Name    string
	Default string   // value meaning "not filtered", never written to the address
	Allowed []string // empty accepts any non-blank value
	Numeric bool     // value must be a positive integer id
}

func (f FilterSpec) accepts(value string) bool {
	if value == "" || value == f.Default {
		return false
	}
	if f.Numeric {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return false
		}
	}
	if len(f.Allowed) > 0 && !slices.Contains(f.Allowed, value) {
		return false
	}
	return true
}

// Schema is the parameter layout of one list view.
type Schema struct {
	Sizes            []int
	DefaultSize      int
	SearchParam      string // empty disables search
	Filters          []FilterSpec
	SortFields       []string
	DefaultSortField string // empty means unsorted by default
	DefaultSortDir   SortDir
	Debounce         time.Duration
}

// WithDefaultSize returns a copy of s whose default page size is n, when n is one of
// the allowed sizes.
func (s Schema) WithDefaultSize(n int) Schema {
	if slices.Contains(s.Sizes, n) {
		s.DefaultSize = n
	}
	return s
}

// QuietPeriod returns the debounce interval for search input.
func (s Schema) QuietPeriod() time.Duration {
	if s.Debounce > 0 {
		return s.Debounce
	}
	return DefaultDebounce
}

// Defaults returns the query an empty address parses to.
func (s Schema) Defaults() Query {
	return Query{
		Page:      0,
		Size:      s.defaultSize(),
		SortField: s.DefaultSortField,
		SortDir:   s.defaultDir(),
	}
}

// Filter looks up a filter spec by name.
func (s Schema) Filter(name string) (FilterSpec, bool) {
	for _, f := range s.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return FilterSpec{}, false
}

// ValidSize reports whether n is an allowed page size.
func (s Schema) ValidSize(n int) bool {
	if len(s.Sizes) == 0 {
		return n == s.defaultSize()
	}
	return slices.Contains(s.Sizes, n)
}

// ValidSort reports whether field/dir is a selectable sort order.
func (s Schema) ValidSort(field string, dir SortDir) bool {
	if field == "" {
		return s.DefaultSortField == ""
	}
	if !dir.Valid() {
		return false
	}
	return field == s.DefaultSortField || slices.Contains(s.SortFields, field)
}

// Parse derives a query from address values. It never fails: anything invalid falls
// back to its default.
func (s Schema) Parse(values url.Values) Query {
	q := s.Defaults()

	if raw := strings.TrimSpace(values.Get(ParamPage)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			q.Page = n - 1
		}
	}
	if raw := strings.TrimSpace(values.Get(ParamSize)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && s.ValidSize(n) {
			q.Size = n
		}
	}
	if s.SearchParam != "" {
		q.Search = strings.TrimSpace(values.Get(s.SearchParam))
	}
	for _, f := range s.Filters {
		value := strings.TrimSpace(values.Get(f.Name))
		if f.accepts(value) {
			if q.Filters == nil {
				q.Filters = make(map[string]string, len(s.Filters))
			}
			q.Filters[f.Name] = value
		}
	}
	if raw := strings.TrimSpace(values.Get(ParamSort)); raw != "" {
		field, dir, _ := strings.Cut(raw, ",")
		field = strings.TrimSpace(field)
		d := SortDir(strings.ToLower(strings.TrimSpace(dir)))
		if !d.Valid() {
			d = s.defaultDir()
		}
		if field != "" && s.ValidSort(field, d) {
			q.SortField = field
			q.SortDir = d
		}
	}
	return q
}

// ParseRaw parses an encoded query string. Malformed pairs are skipped.
func (s Schema) ParseRaw(raw string) Query {
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return s.Parse(values)
}

// Encode writes the non-default parts of q as address values.
func (s Schema) Encode(q Query) url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set(ParamPage, strconv.Itoa(q.Page+1))
	}
	if q.Size != s.defaultSize() && s.ValidSize(q.Size) {
		values.Set(ParamSize, strconv.Itoa(q.Size))
	}
	if search := strings.TrimSpace(q.Search); s.SearchParam != "" && search != "" {
		values.Set(s.SearchParam, search)
	}
	for _, f := range s.Filters {
		if value := q.Filters[f.Name]; f.accepts(value) {
			values.Set(f.Name, value)
		}
	}
	if q.SortField != "" && (q.SortField != s.DefaultSortField || q.SortDir != s.defaultDir()) {
		values.Set(ParamSort, q.Sort())
	}
	return values
}

// EncodeRaw renders the canonical query string for q.
func (s Schema) EncodeRaw(q Query) string {
	return s.Encode(q).Encode()
}

func (s Schema) defaultSize() int {
	if s.DefaultSize > 0 {
		return s.DefaultSize
	}
	if len(s.Sizes) > 0 {
		return s.Sizes[0]
	}
	return 10
}

func (s Schema) defaultDir() SortDir {
	if s.DefaultSortDir.Valid() {
		return s.DefaultSortDir
	}
	return SortDesc
}

// canonical normalizes a raw query string so equivalent addresses compare equal.
func canonical(raw string) string {
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return values.Encode()
}
