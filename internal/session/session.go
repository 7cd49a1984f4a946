// Package session holds the operator's bearer token for the lifetime of the process.
// The token is persisted to a small TOML file so the console survives restarts.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	toml "github.com/pelletier/go-toml/v2"
)

// Claims is the subset of token claims the console displays.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// Session is safe for concurrent use; the HTTP client reads it from request
// goroutines while the UI writes it on login and logout.
type Session struct {
	mu    sync.RWMutex
	path  string
	token string
}

type fileFormat struct {
	Token   string    `toml:"token"`
	SavedAt time.Time `toml:"saved_at"`
}

// New returns an empty session persisted at path. An empty path keeps the token in
// memory only.
func New(path string) *Session {
	return &Session{path: path}
}

// Load reads a persisted token. A missing file yields an empty session.
func Load(path string) (*Session, error) {
	s := New(path)
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read session: %w", err)
	}
	var raw fileFormat
	if err := toml.Unmarshal(data, &raw); err != nil {
		return s, fmt.Errorf("parse session: %w", err)
	}
	s.token = strings.TrimSpace(raw.Token)
	return s, nil
}

// Token returns the current bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken stores and persists a new token.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token

	path := s.path
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := toml.Marshal(fileFormat{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear drops the token and removes the persisted file. It reports whether a token
// was present.
func (s *Session) Clear() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	return had, s.clearLocked()
}

// ClearIf clears the session only while it still holds token. It reports whether
// token was current; a token replaced by a newer login is left alone.
func (s *Session) ClearIf(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != strings.TrimSpace(token) {
		return false, nil
	}
	return true, s.clearLocked()
}

func (s *Session) clearLocked() error {
	s.token = ""
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Claims decodes the token payload. The signature is not verified; the backend does
// that on every request.
func (s *Session) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, errors.New("no session")
	}
	return ParseClaims(token)
}

// Expired reports whether the token carries an expiry before now. Tokens without an
// exp claim never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	claims, err := s.Claims()
	if err != nil {
		return true
	}
	return !claims.ExpiresAt.IsZero() && !now.Before(claims.ExpiresAt)
}

// ParseClaims reads display claims from an unverified JWT.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	var c Claims
	c.Subject, _ = mc.GetSubject()
	c.Email = stringClaim(mc, "email")
	if c.Email == "" {
		c.Email = c.Subject
	}
	c.Role = stringClaim(mc, "role")
	if c.Role == "" {
		if roles, ok := mc["roles"].([]any); ok && len(roles) > 0 {
			c.Role, _ = roles[0].(string)
		}
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return strings.TrimSpace(v)
}
