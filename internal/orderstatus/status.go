// Package orderstatus holds the client-side order status transition policy.
package orderstatus

import "strings"

// Status is an order lifecycle state as reported by the backend.
type Status string

const (
	Pending   Status = "PENDING"
	Delivered Status = "DELIVERED"
	Cancelled Status = "CANCELLED"
)

var all = []Status{Pending, Delivered, Cancelled}

// transitions lists the statuses selectable from each known status, in display order.
// The current status is always included so a status select can show it.
var transitions = map[Status][]Status{
	Pending:   {Pending, Delivered, Cancelled},
	Delivered: {Delivered},
	Cancelled: {Cancelled},
}

// All returns every known status in display order.
func All() []Status {
	return append([]Status(nil), all...)
}

// AllowedNext returns the statuses an operator may pick for an order currently in
// status current. Unknown statuses get the full set so statuses introduced by the
// backend later remain editable.
func AllowedNext(current Status) []Status {
	next, ok := transitions[current]
	if !ok {
		next = all
	}
	return append([]Status(nil), next...)
}

// CanTransition reports whether moving from -> to is offered by AllowedNext.
func CanTransition(from, to Status) bool {
	for _, s := range AllowedNext(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Parse normalizes a raw status string. Unknown values are returned upper-cased
// rather than rejected.
func Parse(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

// Known reports whether s is one of the statuses this client understands.
func (s Status) Known() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is offered from s.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 1 && next[0] == s
}

// Label returns the operator-facing label.
func (s Status) Label() string {
	switch s {
	case Pending:
		return "Pending"
	case Delivered:
		return "Delivered"
	case Cancelled:
		return "Cancelled"
	case "":
		return "-"
	default:
		return string(s)
	}
}

// Tone maps a status to a badge tone understood by the theme.
func (s Status) Tone() string {
	switch s {
	case Pending:
		return "warning"
	case Delivered:
		return "success"
	case Cancelled:
		return "danger"
	default:
		return "muted"
	}
}
