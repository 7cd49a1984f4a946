package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestSessionPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.toml")
	s := New(path)
	require.False(t, s.Authenticated())

	require.NoError(t, s.SetToken("  abc.def.ghi  "))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", reloaded.Token())

	had, err := reloaded.Clear()
	require.NoError(t, err)
	assert.True(t, had)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	had, err = reloaded.Clear()
	require.NoError(t, err)
	assert.False(t, had)
}

func TestClearIfLeavesNewerToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	s := New(path)
	require.NoError(t, s.SetToken("old"))
	require.NoError(t, s.SetToken("fresh"))

	current, err := s.ClearIf("old")
	require.NoError(t, err)
	assert.False(t, current)
	assert.Equal(t, "fresh", s.Token())
	_, err = os.Stat(path)
	require.NoError(t, err)

	current, err = s.ClearIf("fresh")
	require.NoError(t, err)
	assert.True(t, current)
	assert.Empty(t, s.Token())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, s.Token())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("token = ["), 0o600))
	s, err := Load(path)
	require.Error(t, err)
	assert.Empty(t, s.Token())
}

func TestSetTokenRejectsBlank(t *testing.T) {
	assert.Error(t, New("").SetToken("   "))
}

func TestClaimsAndExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := New("")
	require.NoError(t, s.SetToken(signed(t, jwt.MapClaims{
		"sub":   "7",
		"email": "admin@example.com",
		"role":  "ADMIN",
		"exp":   exp.Unix(),
	})))

	claims, err := s.Claims()
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.True(t, claims.ExpiresAt.Equal(exp))

	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(exp.Add(time.Second)))
}

func TestClaimsFallbacks(t *testing.T) {
	claims, err := ParseClaims(signed(t, jwt.MapClaims{
		"sub":   "ops@example.com",
		"roles": []any{"ADMIN", "STAFF"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.True(t, claims.ExpiresAt.IsZero())

	s := New("")
	require.NoError(t, s.SetToken("not-a-jwt"))
	assert.True(t, s.Expired(time.Now()), "undecodable tokens count as expired")
}
