// Package auth finds the bearer token sent to the backend: the TADA_TOKEN
// environment variable wins over the credentials file in ~/.tada.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Makepad-fr/tada-client/internal/config"
	"github.com/Makepad-fr/tada-client/internal/store/jsonstore"
)

const (
	credFileName = "credentials.json"
	envToken     = "TADA_TOKEN"
)

// Token sources.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional (JWT exp or user-provided)
}

// Expired reports whether the token has a known expiry in the past.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti != nil && ti.ExpiresAt != nil && !ti.ExpiresAt.After(now)
}

// ErrNoStore is returned by file operations on a Store without a Dir.
var ErrNoStore = errors.New("no credentials directory")

// Store keeps the credentials file under Dir. A zero Store only sees
// TADA_TOKEN and never touches the working directory.
type Store struct {
	Dir string
}

// DefaultStore uses ~/.tada.
func DefaultStore() (Store, error) {
	dir, err := config.UserDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) path() string { return filepath.Join(s.Dir, credFileName) }

// FromEnv returns the token set in TADA_TOKEN, or nil.
func FromEnv() *TokenInfo {
	env := strings.TrimSpace(os.Getenv(envToken))
	if env == "" {
		return nil
	}
	ti := &TokenInfo{Token: StripBearer(env), Source: SourceEnv}
	if id, err := Introspect(ti.Token); err == nil {
		ti.ExpiresAt = id.ExpiresAt
	}
	return ti
}

// Get returns the active token, or nil when not logged in.
func (s Store) Get() (*TokenInfo, error) {
	// 1) env override
	if ti := FromEnv(); ti != nil {
		return ti, nil
	}

	// 2) file
	if s.Dir == "" {
		return nil, nil
	}
	var ti TokenInfo
	found, err := jsonstore.Load(s.path(), &ti)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if !found {
		return nil, nil
	}
	ti.Token = StripBearer(ti.Token)
	ti.Source = SourceFile
	return &ti, nil
}

// Set saves token to the credentials file (0600). When expires is nil and
// the token is a JWT with an exp claim, that expiry is recorded.
func (s Store) Set(token string, expires *time.Time) error {
	if s.Dir == "" {
		return ErrNoStore
	}
	token = StripBearer(strings.TrimSpace(token))
	if token == "" {
		return errors.New("empty token")
	}
	if expires == nil {
		if id, err := Introspect(token); err == nil {
			expires = id.ExpiresAt
		}
	}
	ti := TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	if err := jsonstore.Save(s.path(), ti, 0o600); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Delete removes the credentials file.
func (s Store) Delete() error {
	if s.Dir == "" {
		return ErrNoStore
	}
	return jsonstore.Remove(s.path())
}

// StripBearer drops a leading "Bearer " (any case).
func StripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
