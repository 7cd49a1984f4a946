// Package ui provides the terminal console for the shopdeck admin backend.
//
// # Architecture Overview
//
// The console is a Bubble Tea program. Model is the root: it owns the address
// history, the active screen, the header badges, toasts and the help overlay.
// Every message that is not a global concern is forwarded to the active screen.
//
// # Addresses and Screens
//
// Each screen lives at an address such as "/orders?status=PENDING&page=2". The
// router maps the path to a screen; list screens own the query string and keep it
// in step with their state through a listsync.Synchronizer:
//
//   - a list's own state change is written back with addressMsg, which replaces
//     the current history entry instead of pushing a new one
//   - back and forward on the same path reconcile the existing list in place
//   - every fetch carries the screen id and a sequence number, so answers for a
//     replaced screen or an older request are dropped
//
// # Session and Access
//
// Unauthenticated addresses redirect to /login?next=<address>. The HTTP client
// publishes SessionExpired and Forbidden on the event bus; the model subscribes
// and redirects to the login page or /403.
//
// # Key Bindings
//
//   - 1-8: Dashboard, Orders, Products, Categories, Customers, Reports, Settings, Logs
//   - ":" opens the location bar, "[" and "]" move through history
//   - "?" help, "T" theme, "L" sign out, "q" or Ctrl+C quit
//   - While a text field has focus only Ctrl+C is global
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context:  ctx,
//		Client:   client,
//		Store:    store,
//		Bus:      bus,
//		Config:   cfg,
//		Prefs:    p,
//		Location: "/orders?status=PENDING",
//	})
package ui
