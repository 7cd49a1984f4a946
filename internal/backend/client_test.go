package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shopdeck/internal/orderstatus"
	"github.com/five82/shopdeck/internal/session"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.BaseURL = srv.URL + "/api"
	if opts.Session == nil {
		opts.Session = session.New(filepath.Join(t.TempDir(), "session.toml"))
	}
	client, err := NewClient(opts)
	require.NoError(t, err)
	return client
}

func TestParseBaseURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "http://127.0.0.1:8080/api"},
		{"localhost:9000/api/", "http://localhost:9000/api"},
		{"https://shop.example.com/api?x=1", "https://shop.example.com/api"},
		{"http://10.0.0.2:8080", "http://10.0.0.2:8080"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			u, err := parseBaseURL(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, u.String())
		})
	}

	_, err := parseBaseURL("http://")
	assert.Error(t, err)
}

func TestOrdersListSendsExactlyTheRequestedParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"content":[{"id":7,"status":"PENDING","totalAmount":125.5}],"totalElements":1,"totalPages":1}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	page, err := client.Orders().List(context.Background(), OrderListParams{Page: 0, Size: 10, Status: "PENDING"})
	require.NoError(t, err)

	assert.Equal(t, "/api/admin/orders", gotPath)
	assert.Equal(t, map[string][]string{
		"page":   {"0"},
		"size":   {"10"},
		"status": {"PENDING"},
	}, gotQuery)
	require.Len(t, page.Items, 1)
	assert.Equal(t, orderstatus.Pending, page.Items[0].Status)
	assert.Equal(t, "125.5", page.Items[0].TotalAmount.String())
}

func TestOrdersListOmitsAllAndStripsHash(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"content":[],"totalElements":0,"totalPages":0}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	_, err := client.Orders().List(context.Background(), OrderListParams{
		Page: 1, Size: 20, Status: "ALL", ID: "#42", Sort: "totalAmount,desc",
	})
	require.NoError(t, err)
	assert.Equal(t, "id=42&page=1&size=20&sort=totalAmount%2Cdesc", gotQuery)
}

func TestBearerHeaderSkippedForAuthPaths(t *testing.T) {
	var mu sync.Mutex
	headers := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers[r.URL.Path] = r.Header.Get("Authorization")
		mu.Unlock()
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		if r.URL.Path == "/api/auth/login" {
			_, _ = w.Write([]byte(`{"accessToken":"fresh"}`))
			return
		}
		_, _ = w.Write([]byte(`{"pending":1,"delivered":2,"cancelled":3,"total":6}`))
	}))
	defer srv.Close()

	sess := session.New(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, sess.SetToken("old"))
	client := newTestClient(t, srv, Options{Session: sess})

	require.NoError(t, client.Auth().Login(context.Background(), "admin@shop.test", "secret"))
	stats, err := client.Orders().Stats(context.Background())
	require.NoError(t, err)

	assert.Empty(t, headers["/api/auth/login"])
	assert.Equal(t, "Bearer fresh", headers["/api/admin/orders/stats"])
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(3), stats.Count(orderstatus.Cancelled))
}

func TestConcurrentUnauthorizedRedirectsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	sess := session.New(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, sess.SetToken("stale"))

	var redirects atomic.Int32
	client := newTestClient(t, srv, Options{
		Session:        sess,
		OnUnauthorized: func() { redirects.Add(1) },
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Orders().Stats(context.Background())
			assert.True(t, IsUnauthorized(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), redirects.Load())
	assert.Empty(t, sess.Token())

	client.rearm()
	_, _ = client.Orders().Stats(context.Background())
	assert.Equal(t, int32(2), redirects.Load())
}

func TestLateUnauthorizedKeepsNewLogin(t *testing.T) {
	sent := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"fresh"}`))
		default:
			close(sent)
			<-release
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	sess := session.New(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, sess.SetToken("old"))

	var redirects atomic.Int32
	client := newTestClient(t, srv, Options{
		Session:        sess,
		OnUnauthorized: func() { redirects.Add(1) },
	})

	done := make(chan error, 1)
	go func() {
		_, err := client.Orders().Stats(context.Background())
		done <- err
	}()
	<-sent

	require.NoError(t, client.Auth().Login(context.Background(), "admin@shop.test", "secret"))
	require.Equal(t, "fresh", sess.Token())

	close(release)
	assert.True(t, IsUnauthorized(<-done))
	assert.Equal(t, "fresh", sess.Token())
	assert.Equal(t, int32(0), redirects.Load())
}

func TestLoginFailureDoesNotTriggerSessionExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	called := false
	client := newTestClient(t, srv, Options{OnUnauthorized: func() { called = true }})
	err := client.Auth().Login(context.Background(), "admin@shop.test", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", Message(err))
	assert.False(t, called)
}

func TestForbiddenOnlyRedirectsForReads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var forbidden []string
	client := newTestClient(t, srv, Options{OnForbidden: func(path string) { forbidden = append(forbidden, path) }})

	_, err := client.Products().Get(context.Background(), 3)
	assert.True(t, IsForbidden(err))
	_, err = client.Products().ToggleActive(context.Background(), 3)
	assert.True(t, IsForbidden(err))
	assert.Equal(t, "You are not allowed to do this", Message(err))

	assert.Equal(t, []string{"/admin/products/3"}, forbidden)
}

func TestValidationErrorsAreNormalized(t *testing.T) {
	cases := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "map",
			body: `{"code":"VALIDATION_ERROR","message":"Invalid input","errors":{"name":"must not be blank"}}`,
			want: map[string]string{"name": "must not be blank"},
		},
		{
			name: "list",
			body: `{"message":"Invalid input","fieldErrors":[{"field":"price","message":"must be >= 0"}]}`,
			want: map[string]string{"price": "must be >= 0"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := newTestClient(t, srv, Options{})
			_, err := client.Products().Create(context.Background(), NewProductInput(" Tea ", "", ""))
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			be, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, be.FieldErrors)
			assert.Equal(t, "Invalid input", be.Message)
		})
	}
}

func TestNetworkFailureIsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestClient(t, srv, Options{})
	srv.Close()

	_, err := client.Dashboard().Summary(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestWritePayloadTrimsAndNullsOptionals(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, http.MethodPut, r.Method)
		_, _ = w.Write([]byte(`{"id":5,"name":"Coffee"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	in := NewProductInput("  Coffee ", "   ", "")
	in.CategoryID = 2
	_, err := client.Products().Update(context.Background(), 5, in)
	require.NoError(t, err)

	assert.Equal(t, "Coffee", body["name"])
	assert.Nil(t, body["description"])
	assert.Nil(t, body["imageUrl"])
	assert.Contains(t, body, "description")
}

func TestDecodeErrorOnUnexpectedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	_, err := client.Customers().List(context.Background(), CustomerListParams{Size: 10})
	require.Error(t, err)
	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDecode, be.Code)
}

func TestDecodeRejectsRecordsWithoutID(t *testing.T) {
	bodies := map[string]string{
		"/api/admin/orders":       `{"content":[{"id":7,"status":"PENDING"},{"status":"PENDING"}],"totalElements":2,"totalPages":1}`,
		"/api/admin/orders/7":     `{"status":"PENDING","totalAmount":10}`,
		"/api/admin/orders/stats": `{"pending":-1,"total":0}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, Options{})
	ctx := context.Background()

	_, err := client.Orders().List(ctx, OrderListParams{Size: 10})
	be, ok := AsError(err)
	require.True(t, ok, "list error = %v", err)
	assert.Equal(t, CodeDecode, be.Code)

	_, err = client.Orders().Get(ctx, 7)
	be, ok = AsError(err)
	require.True(t, ok, "get error = %v", err)
	assert.Equal(t, CodeDecode, be.Code)

	_, err = client.Orders().Stats(ctx)
	be, ok = AsError(err)
	require.True(t, ok, "stats error = %v", err)
	assert.Equal(t, CodeDecode, be.Code)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7,"status":"DELIVERED","courier":{"name":"Ali"}}`))
	}))
	defer srv.Close()

	order, err := newTestClient(t, srv, Options{}).Orders().Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
}
