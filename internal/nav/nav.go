// Package nav models the console's navigable address: a path plus query string,
// a back/forward history with push and replace semantics, and route matching.
package nav

import (
	"net/url"
	"strings"
)

const defaultHistoryLimit = 100

// Location is a parsed address such as "/orders?status=PENDING&page=2".
type Location struct {
	Path     string
	RawQuery string
}

// Parse splits a raw address into path and query. A missing leading slash is added
// and trailing slashes are dropped.
func Parse(raw string) Location {
	raw = strings.TrimSpace(raw)
	path, query, _ := strings.Cut(raw, "?")
	path = "/" + strings.Trim(path, "/")
	values, _ := url.ParseQuery(query)
	return Location{Path: path, RawQuery: values.Encode()}
}

// String renders the location as an address.
func (l Location) String() string {
	if l.RawQuery == "" {
		return l.Path
	}
	return l.Path + "?" + l.RawQuery
}

// Query returns the decoded query values.
func (l Location) Query() url.Values {
	values, _ := url.ParseQuery(l.RawQuery)
	return values
}

// WithQuery returns a copy of l with its query replaced.
func (l Location) WithQuery(rawQuery string) Location {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	l.RawQuery = values.Encode()
	return l
}

// History is a browser-style back/forward stack. The zero value is not usable; use
// NewHistory.
type History struct {
	entries []Location
	index   int
	limit   int
}

// NewHistory starts a history at the given location.
func NewHistory(start Location) *History {
	return &History{entries: []Location{start}, limit: defaultHistoryLimit}
}

// Current returns the active location.
func (h *History) Current() Location {
	return h.entries[h.index]
}

// Push navigates to loc, discarding forward entries. Pushing the current location is
// a no-op and reports false.
func (h *History) Push(loc Location) bool {
	if loc == h.Current() {
		return false
	}
	h.entries = append(h.entries[:h.index+1], loc)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
	h.index = len(h.entries) - 1
	return true
}

// Replace swaps the current entry without adding history. Replacing with an
// identical location reports false.
func (h *History) Replace(loc Location) bool {
	if loc == h.Current() {
		return false
	}
	h.entries[h.index] = loc
	return true
}

// Back moves one entry back.
func (h *History) Back() (Location, bool) {
	if h.index == 0 {
		return h.Current(), false
	}
	h.index--
	return h.Current(), true
}

// Forward moves one entry forward.
func (h *History) Forward() (Location, bool) {
	if h.index >= len(h.entries)-1 {
		return h.Current(), false
	}
	h.index++
	return h.Current(), true
}

// Index returns the position of the current entry.
func (h *History) Index() int {
	return h.index
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
