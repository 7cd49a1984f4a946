package listsync

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderSchema() Schema {
	return Schema{
		Sizes:       []int{10, 20, 50},
		DefaultSize: 10,
		SearchParam: "q",
		Filters: []FilterSpec{
			{Name: "status", Default: "ALL", Allowed: []string{"PENDING", "DELIVERED", "CANCELLED"}},
			{Name: "categoryId", Numeric: true},
		},
		SortFields:     []string{"totalAmount"},
		DefaultSortDir: SortDesc,
	}
}

func TestSchemaParseDefaults(t *testing.T) {
	s := orderSchema()
	q := s.ParseRaw("")
	assert.Equal(t, 0, q.Page)
	assert.Equal(t, 10, q.Size)
	assert.Empty(t, q.Search)
	assert.Empty(t, q.Filters)
	assert.Empty(t, q.SortField)
}

func TestSchemaParseInvalidFallsBack(t *testing.T) {
	s := orderSchema()
	cases := []struct {
		name string
		raw  string
		want Query
	}{
		{"page_zero", "page=0", s.Defaults()},
		{"page_negative", "page=-3", s.Defaults()},
		{"page_garbage", "page=abc", s.Defaults()},
		{"size_not_allowed", "size=33", s.Defaults()},
		{"status_unknown", "status=SHIPPED", s.Defaults()},
		{"status_default", "status=ALL", s.Defaults()},
		{"category_not_numeric", "categoryId=x", s.Defaults()},
		{"category_zero", "categoryId=0", s.Defaults()},
		{"sort_unknown_field", "sort=name,asc", s.Defaults()},
		{"malformed_pair", "%zz&size=20", func() Query { q := s.Defaults(); q.Size = 20; return q }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.ParseRaw(tc.raw)
			assert.True(t, tc.want.Equal(got), "ParseRaw(%q) = %+v, want %+v", tc.raw, got, tc.want)
		})
	}
}

func TestSchemaAddressPagesAreOneBased(t *testing.T) {
	s := orderSchema()
	q := s.ParseRaw("page=3")
	assert.Equal(t, 2, q.Page)

	q.Page = 0
	assert.Empty(t, s.Encode(q).Get(ParamPage))
	q.Page = 4
	assert.Equal(t, "5", s.Encode(q).Get(ParamPage))
}

func TestSchemaEncodeOmitsDefaults(t *testing.T) {
	s := orderSchema()
	assert.Equal(t, "", s.EncodeRaw(s.Defaults()))

	q := s.Defaults()
	q.Filters = map[string]string{"status": "PENDING"}
	q.Size = 20
	assert.Equal(t, "size=20&status=PENDING", s.EncodeRaw(q))
}

func TestSchemaRoundTrip(t *testing.T) {
	s := orderSchema()
	pages := []int{0, 1, 7}
	sizes := []int{10, 20, 50}
	statuses := []string{"", "PENDING", "DELIVERED", "CANCELLED"}
	sorts := []struct {
		field string
		dir   SortDir
	}{{"", SortDesc}, {"totalAmount", SortAsc}, {"totalAmount", SortDesc}}
	searches := []string{"", "1024", "çiçek & bal"}

	for _, page := range pages {
		for _, size := range sizes {
			for _, status := range statuses {
				for _, sort := range sorts {
					for _, search := range searches {
						q := Query{Page: page, Size: size, Search: search, SortField: sort.field, SortDir: sort.dir}
						if status != "" {
							q.Filters = map[string]string{"status": status}
						}
						encoded := s.EncodeRaw(q)
						got := s.ParseRaw(encoded)
						require.True(t, q.Equal(got), "round trip %q: got %+v want %+v", encoded, got, q)
						// Parsing is idempotent.
						require.Equal(t, encoded, s.EncodeRaw(s.ParseRaw(encoded)))
					}
				}
			}
		}
	}
}

func TestSchemaSortDefaultField(t *testing.T) {
	s := Schema{
		Sizes:            []int{10, 20, 50},
		DefaultSize:      10,
		SortFields:       []string{"id", "name"},
		DefaultSortField: "id",
		DefaultSortDir:   SortDesc,
	}
	q := s.ParseRaw("")
	assert.Equal(t, "id,desc", q.Sort())

	q = s.ParseRaw(url.Values{"sort": {"name,asc"}}.Encode())
	assert.Equal(t, "name", q.SortField)
	assert.Equal(t, SortAsc, q.SortDir)
	assert.Equal(t, "sort=name%2Casc", s.EncodeRaw(q))

	// Default sort is never written.
	assert.Equal(t, "", s.EncodeRaw(s.ParseRaw("sort=id,desc")))
}

func TestWithDefaultSize(t *testing.T) {
	s := orderSchema().WithDefaultSize(20)
	assert.Equal(t, 20, s.Defaults().Size)
	assert.Equal(t, 10, orderSchema().WithDefaultSize(33).Defaults().Size)
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"empty", 0, 0, nil},
		{"short", 1, 3, []int{0, 1, 2}},
		{"seven", 6, 7, []int{0, 1, 2, 3, 4, 5, 6}},
		{"start", 0, 10, []int{0, 1, Gap, 9}},
		{"middle", 5, 10, []int{0, Gap, 4, 5, 6, Gap, 9}},
		{"end", 9, 10, []int{0, Gap, 8, 9}},
		{"clamped", 40, 10, []int{0, Gap, 8, 9}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PageWindow(tc.current, tc.total))
		})
	}
}
