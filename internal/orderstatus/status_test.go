package orderstatus

import (
	"reflect"
	"testing"
)

func TestAllowedNext(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		want    []Status
	}{
		{"pending", Pending, []Status{Pending, Delivered, Cancelled}},
		{"delivered_terminal", Delivered, []Status{Delivered}},
		{"cancelled_terminal", Cancelled, []Status{Cancelled}},
		{"unknown_permissive", Status("SHIPPED"), []Status{Pending, Delivered, Cancelled}},
		{"empty_permissive", Status(""), []Status{Pending, Delivered, Cancelled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowedNext(tc.current)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("AllowedNext(%q) = %v, want %v", tc.current, got, tc.want)
			}
			again := AllowedNext(tc.current)
			if !reflect.DeepEqual(got, again) {
				t.Fatalf("AllowedNext(%q) not stable: %v then %v", tc.current, got, again)
			}
		})
	}
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	got := AllowedNext(Pending)
	got[0] = Cancelled
	if AllowedNext(Pending)[0] != Pending {
		t.Fatalf("mutating the result leaked into the policy table")
	}
}

func TestTerminalStatuses(t *testing.T) {
	if Pending.IsTerminal() {
		t.Fatalf("pending should not be terminal")
	}
	if !Delivered.IsTerminal() || !Cancelled.IsTerminal() {
		t.Fatalf("delivered and cancelled should be terminal")
	}
	if Status("SHIPPED").IsTerminal() {
		t.Fatalf("unknown status should not be terminal")
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(Pending, Delivered) {
		t.Fatalf("pending -> delivered should be allowed")
	}
	if CanTransition(Delivered, Pending) {
		t.Fatalf("delivered -> pending should be rejected")
	}
	if CanTransition(Cancelled, Delivered) {
		t.Fatalf("cancelled -> delivered should be rejected")
	}
}

func TestParseAndLabel(t *testing.T) {
	if got := Parse("  delivered "); got != Delivered {
		t.Fatalf("Parse = %q, want DELIVERED", got)
	}
	if got := Parse("pending").Label(); got != "Pending" {
		t.Fatalf("Label = %q, want Pending", got)
	}
	if got := Status("ON_HOLD").Label(); got != "ON_HOLD" {
		t.Fatalf("unknown label = %q, want raw value", got)
	}
	if got := Cancelled.Tone(); got != "danger" {
		t.Fatalf("Tone = %q, want danger", got)
	}
}
