package listsync

import "maps"

// SortDir is a sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Valid reports whether d is asc or desc.
func (d SortDir) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Flip returns the opposite direction.
func (d SortDir) Flip() SortDir {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// Query is the effective list state. Page is 0-based. Filters only holds values that
// differ from their schema default.
type Query struct {
	Page      int
	Size      int
	Search    string
	Filters   map[string]string
	SortField string
	SortDir   SortDir
}

// Filter returns the value of the named filter, or "" when it is at its default.
func (q Query) Filter(name string) string {
	return q.Filters[name]
}

// Sort renders the Spring-style "field,dir" sort parameter, or "" when unsorted.
func (q Query) Sort() string {
	if q.SortField == "" {
		return ""
	}
	return q.SortField + "," + string(q.SortDir)
}

// Equal compares two queries, treating nil and empty filter maps alike.
func (q Query) Equal(o Query) bool {
	if q.Page != o.Page || q.Size != o.Size || q.Search != o.Search {
		return false
	}
	if q.SortField != o.SortField || q.SortDir != o.SortDir {
		return false
	}
	if len(q.Filters) != len(o.Filters) {
		return false
	}
	return maps.Equal(q.Filters, o.Filters)
}

func (q Query) clone() Query {
	dup := q
	if len(q.Filters) > 0 {
		dup.Filters = maps.Clone(q.Filters)
	} else {
		dup.Filters = nil
	}
	return dup
}
