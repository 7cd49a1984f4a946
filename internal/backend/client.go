package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/five82/shopdeck/internal/logging"
	"github.com/five82/shopdeck/internal/session"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8080/api"
	defaultUserAgent = "shopdeck/0.1"
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 10 << 20
	requestIDHeader  = "X-Request-Id"
)

// Options configure a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Session   *session.Session
	Logger    *zap.Logger
	Transport http.RoundTripper // nil uses http.DefaultTransport

	// OnUnauthorized runs once per session expiry, after the token was cleared.
	OnUnauthorized func()
	// OnForbidden runs for every 403 answering a GET.
	OnForbidden func(path string)
}

// Client talks to the shop backend admin API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	session   *session.Session
	log       *zap.Logger

	onUnauthorized func()
	onForbidden    func(path string)

	// expired is set by the first 401 and cleared by a successful login.
	expired atomic.Bool
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New("")
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		userAgent:      userAgent,
		session:        sess,
		log:            logger.Named("backend"),
		onUnauthorized: opts.OnUnauthorized,
		onForbidden:    opts.OnForbidden,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

// Resource gateways.

func (c *Client) Orders() Orders         { return Orders{c: c} }
func (c *Client) Products() Products     { return Products{c: c} }
func (c *Client) Categories() Categories { return Categories{c: c} }
func (c *Client) Customers() Customers   { return Customers{c: c} }
func (c *Client) Settings() Settings     { return Settings{c: c} }
func (c *Client) Stock() Stock           { return Stock{c: c} }
func (c *Client) Reports() Reports       { return Reports{c: c} }
func (c *Client) Dashboard() Dashboard   { return Dashboard{c: c} }
func (c *Client) Auth() Auth             { return Auth{c: c} }

// call describes one backend request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	accept string
}

// doJSON sends the call and decodes a JSON response into dest (nil discards it).
func (c *Client) doJSON(ctx context.Context, cl call, dest any) error {
	if cl.accept == "" {
		cl.accept = "application/json"
	}
	data, _, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	err = json.Unmarshal(data, dest)
	if err == nil {
		err = validate(dest)
	}
	if err != nil {
		return &Error{
			Status:  http.StatusOK,
			Code:    CodeDecode,
			Message: "Unexpected response from the server",
			Method:  cl.method,
			Path:    cl.path,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// send performs the call and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, cl call) ([]byte, string, error) {
	if c == nil {
		return nil, "", fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.JoinPath(cl.path)
	if len(cl.query) > 0 {
		reqURL.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	var rawBody []byte
	if cl.body != nil {
		encoded, err := json.Marshal(cl.body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request: %w", err)
		}
		rawBody = encoded
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", cl.accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if rawBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	var token string
	if !isAuthPath(cl.path) {
		token = c.session.Token()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.With(
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.String("request_id", requestID),
	)
	if rawBody != nil && log.Core().Enabled(zap.DebugLevel) {
		log.Debug("request body", zap.Any("body", redactedBody(rawBody)))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return nil, "", networkError(cl.method, cl.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn("read response failed", zap.Error(err))
		return nil, "", networkError(cl.method, cl.path, fmt.Errorf("read response: %w", err))
	}
	log.Debug("response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(data)),
	)

	if resp.StatusCode >= 400 {
		apiErr := normalizeError(cl.method, cl.path, resp.StatusCode, data)
		log.Warn("backend error",
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		c.handleStatus(cl, resp.StatusCode, token)
		return nil, "", apiErr
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// handleStatus reacts to auth failures. token is the one the request carried; a 401
// for a token that has since been replaced by a new login is ignored.
func (c *Client) handleStatus(cl call, status int, token string) {
	if isAuthPath(cl.path) {
		return
	}
	switch status {
	case http.StatusUnauthorized:
		current, err := c.session.ClearIf(token)
		if err != nil {
			c.log.Error("clear session", zap.Error(err))
		}
		if !current {
			c.log.Debug("ignoring 401 for a replaced token", zap.String("path", cl.path))
			return
		}
		if c.expired.CompareAndSwap(false, true) {
			c.log.Warn("session expired", zap.String("path", cl.path))
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
	case http.StatusForbidden:
		if cl.method == http.MethodGet && c.onForbidden != nil {
			c.onForbidden(cl.path)
		}
	}
}

// rearm allows the next 401 to notify again.
func (c *Client) rearm() {
	c.expired.Store(false)
}

func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}

func redactedBody(raw []byte) any {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Sprintf("<%d bytes>", len(raw))
	}
	return logging.Redact(obj)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
