// Package listsync keeps a paginated list view consistent with its navigable address.
//
// # Overview
//
// Every list screen in shopdeck (orders, products, categories, customers, low stock,
// stock history, customer orders) shares the same rules: page, page size, search text,
// filters and sort order live in the address query string, typing is debounced, and a
// page past the end of the result set is pulled back to the last page. This package
// implements those rules once.
//
// # Components
//
//   - query.go: Query, the in-memory projection of the address
//   - schema.go: Schema, the per-list parameter layout (Parse/Encode)
//   - sync.go: Synchronizer, the state machine driving fetches and address writes
//   - pages.go: PageWindow for compact pagination rendering
//
// # State Machine
//
//	Idle ──mutation──> Fetching ──Receive──> Idle
//	                      │  └───Receive (page >= totalPages)──> Correcting ──Receive──> Idle
//	                      └───Fail──> Error ──mutation──> Fetching
//
// The Synchronizer never performs I/O. Every method returns Effects describing the
// fetch to start and the address to write; the caller executes them and reports back
// with Receive or Fail, quoting the request sequence number. Responses carrying an
// old sequence number are discarded, so a slow response for a superseded query can
// never overwrite newer rows.
//
// # Address Writes
//
// Address writes use replace semantics and are skipped when the encoded address is
// unchanged. Each write is remembered until its echo comes back, so the location
// change it causes is not reconciled into the state it came from. Echoes may arrive
// late and out of order; any echo matching a remembered write is dropped.
//
// # Debounce
//
// SetInput records the immediate text and returns a token. The caller schedules a timer
// carrying that token; CommitInput only commits when the token is still the newest, so
// a burst of keystrokes produces one committed value and one fetch.
package listsync
