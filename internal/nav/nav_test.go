package nav

import "testing"

func TestParseNormalizes(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"orders/", "/orders"},
		{"/orders?status=PENDING&page=2", "/orders?page=2&status=PENDING"},
		{" /products/low-stock?threshold=10 ", "/products/low-stock?threshold=10"},
		{"/orders?", "/orders"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			if got := Parse(tc.raw).String(); got != tc.want {
				t.Fatalf("Parse(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestHistoryPushReplaceBackForward(t *testing.T) {
	h := NewHistory(Parse("/dashboard"))
	if !h.Push(Parse("/orders")) {
		t.Fatalf("push should report a change")
	}
	if h.Push(Parse("/orders")) {
		t.Fatalf("pushing the current location should be a no-op")
	}
	if !h.Replace(Parse("/orders?status=PENDING")) {
		t.Fatalf("replace should report a change")
	}
	if h.Replace(Parse("/orders?status=PENDING")) {
		t.Fatalf("identical replace should be a no-op")
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (replace must not add entries)", h.Len())
	}

	loc, ok := h.Back()
	if !ok || loc.Path != "/dashboard" {
		t.Fatalf("Back = %v %v, want /dashboard", loc, ok)
	}
	if _, ok := h.Back(); ok {
		t.Fatalf("Back at the start should fail")
	}
	loc, ok = h.Forward()
	if !ok || loc.String() != "/orders?status=PENDING" {
		t.Fatalf("Forward = %v %v, want replaced orders entry", loc, ok)
	}

	h.Back()
	h.Push(Parse("/products"))
	if _, ok := h.Forward(); ok {
		t.Fatalf("push should discard forward entries")
	}
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(Parse("/p/0"))
	h.limit = 3
	for _, p := range []string{"/p/1", "/p/2", "/p/3", "/p/4"} {
		h.Push(Parse(p))
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	if h.Current().Path != "/p/4" {
		t.Fatalf("Current = %v, want /p/4", h.Current())
	}
}

func TestRouterPrefersLiteralSegments(t *testing.T) {
	var r Router
	r.Handle("product-edit", "/products/{id}")
	r.Handle("low-stock", "/products/low-stock")
	r.Handle("stock-history", "/products/{id}/stock-history")
	r.Handle("orders", "/orders")

	cases := []struct {
		path   string
		name   string
		param  string
		wantOK bool
	}{
		{"/products/low-stock", "low-stock", "", true},
		{"/products/12", "product-edit", "12", true},
		{"/products/12/stock-history", "stock-history", "12", true},
		{"/orders", "orders", "", true},
		{"/orders/1/extra", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			name, params, ok := r.Match(tc.path)
			if ok != tc.wantOK || name != tc.name {
				t.Fatalf("Match(%q) = %q %v, want %q %v", tc.path, name, ok, tc.name, tc.wantOK)
			}
			if tc.param != "" && params["id"] != tc.param {
				t.Fatalf("id = %q, want %q", params["id"], tc.param)
			}
		})
	}
}

func TestParamsInt(t *testing.T) {
	p := Params{"id": "42", "bad": "x", "zero": "0"}
	if n, ok := p.Int("id"); !ok || n != 42 {
		t.Fatalf("Int(id) = %d %v", n, ok)
	}
	if _, ok := p.Int("bad"); ok {
		t.Fatalf("Int(bad) should fail")
	}
	if _, ok := p.Int("zero"); ok {
		t.Fatalf("Int(zero) should fail")
	}
}
