package argo

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is a diagnostic peek at the provider's access token, which is a
// JWT. The claims are read WITHOUT verification — this package holds no
// provider keys — and must never gate anything: the only authoritative
// expiry signal remains ErrSessionExpired from a downstream call.
type TokenInfo struct {
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// InspectToken decodes the access token's claims for logging and client
// hints. Opaque or malformed tokens return an error; callers should treat
// that as "no information", not as an invalid session.
func InspectToken(accessToken string) (*TokenInfo, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("argo: inspecting access token: %w", err)
	}

	info := &TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
