// Package app is the composition root of the shopdeck console.
//
// # Architecture
//
// Run wires the pieces together in this order:
//
//  1. Load the console config from ~/.config/shopdeck/config.toml
//  2. Open the zap log file and the user preferences
//  3. Restore the stored session, dropping it when the token has expired
//  4. Build the backend client; its 401 and 403 callbacks publish on the event bus
//  5. Start the badge poller and the Bubble Tea UI under one errgroup
//
// Closing the UI cancels the group, which stops the poller.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read console config
//	       ├─────> session.Load()       Bearer token from disk
//	       ├─────> backend.NewClient()  Admin API gateways
//	       ├─────> Poller.Run()         Header badges (background)
//	       └─────> ui.Run()             Console (blocks)
//
//	Poller loop:
//	┌─────────────────────────────────────────┐
//	│ Poller.Run()                            │
//	│  ├─> Products.LowStockCount()           │
//	│  ├─> Orders.Stats()                     │
//	│  └─> store.Update()                     │
//	│      └─> UI reads store.Snapshot()      │
//	│ LowStockChanged event                   │
//	│  └─> store.UpdateLowStock()             │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller only talks to the backend while a session token is present. Failed
// polls double the interval up to five minutes; the header shows the last error
// and switches to OFFLINE after two failures in a row.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Config file present but invalid
//   - Log file cannot be opened
//   - Backend URL cannot be parsed
//
// Everything else is logged and surfaced in the UI: unreadable preferences fall
// back to defaults, an unreadable session means signing in again.
package app
