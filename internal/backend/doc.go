// Package backend is the HTTP client for the shop backend's admin API.
//
// # Overview
//
// Client wraps every outbound request: it attaches the session's bearer token,
// stamps a request id, logs the exchange and turns non-2xx responses into a single
// normalized *Error. One gateway type per backend resource (Orders, Products,
// Categories, Customers, Settings, Stock, Reports, Dashboard, Auth) translates typed
// calls into exactly one request each.
//
// # Architecture
//
//   - client.go: Client, request plumbing, 401/403 handling
//   - errors.go: Error and its classification helpers
//   - types.go: records mirroring the backend JSON schema, Page decoding
//   - orders.go, products.go, categories.go, customers.go, settings.go, stock.go,
//     reports.go, dashboard.go, auth.go: resource gateways
//
// # Client Usage
//
//	client, err := backend.NewClient(backend.Options{
//		BaseURL:        "http://127.0.0.1:8080/api",
//		Session:        sess,
//		OnUnauthorized: func() { program.Send(sessionExpiredMsg{}) },
//	})
//	page, err := client.Orders().List(ctx, backend.OrderListParams{Page: 0, Size: 10})
//
// # Query Parameters
//
// Gateways only send parameters that are set. Zero values, blank strings and nil
// pointers are omitted so the backend sees exactly the filters the operator chose.
// Page and size are always sent for paged endpoints.
//
// # Authentication
//
// The bearer token is added to every request whose path does not contain "/auth/".
// A 401 clears the session and calls OnUnauthorized once per expiry episode, no
// matter how many requests fail concurrently; a successful Auth.Login re-arms it.
// A 403 on a GET calls OnForbidden with the request path; a 403 on a write is only
// returned as an error.
//
// # Error Handling
//
// Every failure is an *Error carrying the HTTP status (0 for transport failures),
// a code, a human-readable message and, for validation failures, a field-to-message
// map. Use IsUnauthorized, IsForbidden, IsNotFound, IsValidation and IsNetwork to
// classify, and Message for display text.
package backend
