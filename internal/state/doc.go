// Package state provides thread-safe state shared between the badge poller and
// the console UI.
//
// # Overview
//
// The console header shows two counters that are not tied to the current
// screen: products at or below the low-stock threshold and pending orders. A
// background poller keeps them fresh; the UI reads them on every tick. Store is
// the coordination point.
//
// # Architecture
//
//	Producer (poller):                 Consumer (UI):
//	┌──────────────────────┐          ┌──────────────────┐
//	│ LowStockCount()      │          │                  │
//	│ Orders().Stats()     │          │                  │
//	│      ↓               │          │                  │
//	│ store.Update()       │─────────→│ store.Snapshot() │
//	│      ↑               │ (mutex)  │      ↓           │
//	│ LowStockChanged evt  │          │ render header    │
//	└──────────────────────┘          └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace badges, clear error, reset failure count
//	store.Update(state.Badges{LowStockCount: 3, PendingOrders: 7}, nil)
//
//	// Error: keep the last good badges, record error, count the failure
//	store.Update(state.Badges{}, err)
//
// UpdateLowStock applies the same rules to the low-stock counter alone; the
// poller uses it when a product change is published.
//
// Snapshot returns a copy; the error is re-wrapped so callers never share the
// stored instance. IsOffline reports two or more consecutive failures, which the
// header renders as an offline marker instead of stale counters.
package state
