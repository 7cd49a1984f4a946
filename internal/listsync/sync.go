package listsync

import (
	"slices"
	"strings"
	"time"
)

// maxPending bounds the own writes remembered while their echoes are outstanding.
const maxPending = 32

// Phase is the fetch state of a Synchronizer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseCorrecting
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseCorrecting:
		return "correcting"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Request is a fetch the caller must perform and answer with Receive or Fail.
type Request struct {
	Seq    uint64
	Query  Query
	Silent bool
}

// Result is one page of a list as reported by the backend.
type Result[T any] struct {
	Items         []T
	TotalElements int
	TotalPages    int
	Page          int
}

// Effects tells the caller what to do after a state change.
type Effects struct {
	Fetch        *Request
	WriteAddress bool
	Address      string // encoded query string, valid when WriteAddress is set
}

// Empty reports whether there is nothing to do.
func (e Effects) Empty() bool {
	return e.Fetch == nil && !e.WriteAddress
}

// Synchronizer binds one list view's query to its address and its fetches.
// It is not safe for concurrent use; drive it from a single event loop.
type Synchronizer[T any] struct {
	schema Schema

	query   Query
	input   string
	address string

	// pending holds our own address writes whose echo has not come back yet,
	// oldest first. The same address may appear more than once.
	pending []string

	debounce uint64
	seq      uint64
	silent   bool
	phase    Phase

	result    Result[T]
	hasResult bool
	err       error
}

// New builds a synchronizer from the current address query string.
func New[T any](schema Schema, rawQuery string) *Synchronizer[T] {
	q := schema.ParseRaw(rawQuery)
	return &Synchronizer[T]{
		schema:  schema,
		query:   q,
		input:   q.Search,
		address: canonical(rawQuery),
	}
}

// Schema returns the parameter layout.
func (s *Synchronizer[T]) Schema() Schema { return s.schema }

// Query returns a copy of the effective query.
func (s *Synchronizer[T]) Query() Query { return s.query.clone() }

// Input returns the immediate, not yet committed, search text.
func (s *Synchronizer[T]) Input() string { return s.input }

// Address returns the query string the list currently stands for: our latest write
// or the latest external change.
func (s *Synchronizer[T]) Address() string { return s.address }

// Phase returns the fetch state.
func (s *Synchronizer[T]) Phase() Phase { return s.phase }

// Err returns the error of the last failed fetch, cleared by the next success.
func (s *Synchronizer[T]) Err() error { return s.err }

// Result returns the last accepted page.
func (s *Synchronizer[T]) Result() Result[T] { return s.result }

// HasResult reports whether any page has been accepted yet.
func (s *Synchronizer[T]) HasResult() bool { return s.hasResult }

// Loading reports whether a visible (non-silent) fetch is in flight.
func (s *Synchronizer[T]) Loading() bool {
	return s.inFlight() && !s.silent
}

// Refreshing reports whether a silent fetch is in flight.
func (s *Synchronizer[T]) Refreshing() bool {
	return s.inFlight() && s.silent
}

// QuietPeriod is the debounce interval callers should wait before CommitInput.
func (s *Synchronizer[T]) QuietPeriod() time.Duration {
	return s.schema.QuietPeriod()
}

// Start issues the initial fetch.
func (s *Synchronizer[T]) Start() Effects {
	return Effects{Fetch: s.issue(false, PhaseFetching)}
}

// Reconcile applies an address change. The echo of each of our own writes is
// skipped once, in whatever order the echoes arrive; external changes overwrite the
// query without resetting the page.
func (s *Synchronizer[T]) Reconcile(rawQuery string) Effects {
	addr := canonical(rawQuery)
	if i := slices.Index(s.pending, addr); i >= 0 {
		s.pending = slices.Delete(s.pending, i, i+1)
		return Effects{}
	}
	s.address = addr
	next := s.schema.ParseRaw(rawQuery)
	if next.Equal(s.query) {
		return Effects{}
	}
	s.query = next
	s.input = next.Search
	s.debounce++
	return Effects{Fetch: s.issue(false, PhaseFetching)}
}

// SetInput records a keystroke and returns the debounce token to commit with.
func (s *Synchronizer[T]) SetInput(text string) uint64 {
	s.input = text
	s.debounce++
	return s.debounce
}

// CommitInput commits the immediate text when token is still the newest one.
func (s *Synchronizer[T]) CommitInput(token uint64) Effects {
	if token != s.debounce {
		return Effects{}
	}
	next := s.query.clone()
	next.Search = strings.TrimSpace(s.input)
	if next.Search == s.query.Search {
		return Effects{}
	}
	return s.apply(next, true)
}

// SetFilter changes one filter. Blank or default values clear it; values the schema
// rejects are ignored.
func (s *Synchronizer[T]) SetFilter(name, value string) Effects {
	spec, ok := s.schema.Filter(name)
	if !ok {
		return Effects{}
	}
	value = strings.TrimSpace(value)
	next := s.query.clone()
	switch {
	case value == "" || value == spec.Default:
		delete(next.Filters, name)
	case spec.accepts(value):
		if next.Filters == nil {
			next.Filters = make(map[string]string, 1)
		}
		next.Filters[name] = value
	default:
		return Effects{}
	}
	return s.apply(next, true)
}

// SetSize changes the page size.
func (s *Synchronizer[T]) SetSize(size int) Effects {
	if !s.schema.ValidSize(size) {
		return Effects{}
	}
	next := s.query.clone()
	next.Size = size
	return s.apply(next, true)
}

// SetSort changes the sort order. An empty field selects "unsorted" when the schema
// allows it.
func (s *Synchronizer[T]) SetSort(field string, dir SortDir) Effects {
	if field == "" {
		dir = s.schema.defaultDir()
	}
	if !s.schema.ValidSort(field, dir) {
		return Effects{}
	}
	next := s.query.clone()
	next.SortField = field
	next.SortDir = dir
	return s.apply(next, true)
}

// ClearFilters resets search, filters, sort and size to their defaults.
func (s *Synchronizer[T]) ClearFilters() Effects {
	s.input = ""
	s.debounce++
	return s.apply(s.schema.Defaults(), true)
}

// SetPage moves to page (0-based), clamped to the known page count.
func (s *Synchronizer[T]) SetPage(page int) Effects {
	if page < 0 {
		page = 0
	}
	if s.hasResult && s.result.TotalPages > 0 && page >= s.result.TotalPages {
		page = s.result.TotalPages - 1
	}
	next := s.query.clone()
	next.Page = page
	return s.apply(next, false)
}

// NextPage moves forward one page.
func (s *Synchronizer[T]) NextPage() Effects { return s.SetPage(s.query.Page + 1) }

// PrevPage moves back one page.
func (s *Synchronizer[T]) PrevPage() Effects { return s.SetPage(s.query.Page - 1) }

// FirstPage moves to the first page.
func (s *Synchronizer[T]) FirstPage() Effects { return s.SetPage(0) }

// LastPage moves to the last known page.
func (s *Synchronizer[T]) LastPage() Effects {
	if !s.hasResult || s.result.TotalPages == 0 {
		return Effects{}
	}
	return s.SetPage(s.result.TotalPages - 1)
}

// Refresh refetches the current query. A silent refresh keeps the current rows on
// screen and does not report Loading.
func (s *Synchronizer[T]) Refresh(silent bool) Effects {
	return Effects{Fetch: s.issue(silent, PhaseFetching)}
}

// Receive accepts the result of request seq. Results of superseded requests are
// dropped and reported as not accepted. A page past the end is corrected once.
func (s *Synchronizer[T]) Receive(seq uint64, res Result[T]) (Effects, bool) {
	if seq != s.seq || !s.inFlight() {
		return Effects{}, false
	}
	s.err = nil
	if res.TotalPages > 0 && s.query.Page >= res.TotalPages {
		s.query.Page = res.TotalPages - 1
		eff := Effects{Fetch: s.issue(s.silent, PhaseCorrecting)}
		s.writeAddress(&eff)
		return eff, true
	}
	s.result = res
	s.hasResult = true
	s.phase = PhaseIdle
	return Effects{}, true
}

// Fail records the failure of request seq. The query and the last good result are
// kept. Failures of superseded requests are ignored.
func (s *Synchronizer[T]) Fail(seq uint64, err error) bool {
	if seq != s.seq || !s.inFlight() {
		return false
	}
	s.err = err
	s.phase = PhaseError
	return true
}

func (s *Synchronizer[T]) inFlight() bool {
	return s.phase == PhaseFetching || s.phase == PhaseCorrecting
}

func (s *Synchronizer[T]) apply(next Query, resetPage bool) Effects {
	if resetPage {
		next.Page = 0
	}
	if next.Equal(s.query) {
		return Effects{}
	}
	s.query = next
	eff := Effects{Fetch: s.issue(false, PhaseFetching)}
	s.writeAddress(&eff)
	return eff
}

func (s *Synchronizer[T]) issue(silent bool, phase Phase) *Request {
	s.seq++
	s.silent = silent
	s.phase = phase
	return &Request{Seq: s.seq, Query: s.query.clone(), Silent: silent}
}

func (s *Synchronizer[T]) writeAddress(eff *Effects) {
	addr := s.schema.EncodeRaw(s.query)
	if addr == s.address {
		return
	}
	s.address = addr
	if len(s.pending) == maxPending {
		s.pending = slices.Delete(s.pending, 0, 1)
	}
	s.pending = append(s.pending, addr)
	eff.WriteAddress = true
	eff.Address = addr
}
