package auth

import (
	"errors"
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
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestGetNotLoggedIn(t *testing.T) {
	t.Setenv("TADA_TOKEN", "")
	s := Store{Dir: t.TempDir()}
	ti, err := s.Get()
	require.NoError(t, err)
	assert.Nil(t, ti)
}

func TestSetGetDelete(t *testing.T) {
	t.Setenv("TADA_TOKEN", "")
	s := Store{Dir: filepath.Join(t.TempDir(), ".tada")}

	require.NoError(t, s.Set("  Bearer opaque-123 ", nil))

	fi, err := os.Stat(filepath.Join(s.Dir, "credentials.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	ti, err := s.Get()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "opaque-123", ti.Token)
	assert.Equal(t, SourceFile, ti.Source)
	assert.Nil(t, ti.ExpiresAt)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
	ti, err = s.Get()
	require.NoError(t, err)
	assert.Nil(t, ti)
}

func TestSetRejectsEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	assert.Error(t, s.Set("Bearer   ", nil))
}

func TestEnvOverridesFile(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	t.Setenv("TADA_TOKEN", "")
	require.NoError(t, s.Set("from-file", nil))

	t.Setenv("TADA_TOKEN", "bearer from-env")
	ti, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-env", ti.Token)
	assert.Equal(t, SourceEnv, ti.Source)
}

func TestSetRecordsJWTExpiry(t *testing.T) {
	t.Setenv("TADA_TOKEN", "")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()})

	s := Store{Dir: t.TempDir()}
	require.NoError(t, s.Set(tok, nil))

	ti, err := s.Get()
	require.NoError(t, err)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, ti.ExpiresAt.Equal(exp))
	assert.False(t, ti.Expired(time.Now()))
	assert.True(t, ti.Expired(exp.Add(time.Second)))
}

func TestIntrospect(t *testing.T) {
	exp := time.Unix(2000000000, 0)
	tok := signed(t, jwt.MapClaims{"sub": "user-1", "iss": "todo-api", "exp": exp.Unix(), "role": "admin"})

	id, err := Introspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "todo-api", id.Issuer)
	require.NotNil(t, id.ExpiresAt)
	assert.True(t, id.ExpiresAt.Equal(exp))
	assert.Equal(t, "admin", id.Claims["role"])

	_, err = Introspect("opaque-123")
	assert.True(t, errors.Is(err, ErrOpaqueToken))
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("BEARER   abc"))
	assert.Equal(t, "abc", StripBearer("abc"))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TADA_TOKEN", "  ")
	assert.Nil(t, FromEnv())

	exp := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	t.Setenv("TADA_TOKEN", "Bearer "+signed(t, jwt.MapClaims{"exp": exp.Unix()}))
	ti := FromEnv()
	require.NotNil(t, ti)
	assert.Equal(t, SourceEnv, ti.Source)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, ti.ExpiresAt.Equal(exp))
}

func TestZeroStoreIgnoresWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(`{"token":"stray"}`), 0o600))

	var s Store
	t.Setenv("TADA_TOKEN", "")
	ti, err := s.Get()
	require.NoError(t, err)
	assert.Nil(t, ti)

	assert.ErrorIs(t, s.Set("tok", nil), ErrNoStore)
	assert.ErrorIs(t, s.Delete(), ErrNoStore)
	_, err = os.Stat(filepath.Join(dir, "credentials.json"))
	assert.NoError(t, err)

	t.Setenv("TADA_TOKEN", "from-env")
	ti, err = s.Get()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "from-env", ti.Token)
}
