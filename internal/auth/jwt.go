package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by Introspect for tokens that are not JWTs.
var ErrOpaqueToken = errors.New("opaque token")

// Identity is what can be read from a JWT without verifying it.
type Identity struct {
	Subject   string
	Issuer    string
	ExpiresAt *time.Time
	Claims    jwt.MapClaims
}

// Introspect decodes a JWT locally. The signature is NOT verified; the
// backend does that. Non-JWT tokens return ErrOpaqueToken.
func Introspect(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrOpaqueToken
		}
		return nil, fmt.Errorf("parse jwt: %w", err)
	}

	id := &Identity{Claims: claims}
	id.Subject, _ = claims.GetSubject()
	id.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		id.ExpiresAt = &t
	}
	return id, nil
}
