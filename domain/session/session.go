// Package session carries the operator's credentials from the inbound request
// to every upstream call.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"duoadmin/domain/shared"
)

// Session is the authenticated operator behind one request. The token is only
// forwarded; the upstream API is the authority on its validity.
type Session struct {
	Token     string
	Subject   string
	Roles     []string
	ExpiresAt time.Time
}

// FromAuthorization builds a Session from an Authorization header value. The
// token's claims are read without verifying the signature.
func FromAuthorization(header string) (Session, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return Session{}, shared.NewUnauthorizedError("missing bearer token")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return Session{}, shared.NewUnauthorizedError("missing bearer token")
	}
	return FromToken(token), nil
}

// FromToken reads what claims it can from token. Opaque tokens yield a
// Session with only Token set.
func FromToken(token string) Session {
	s := Session{Token: token}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s
	}
	if sub, err := claims.GetSubject(); err == nil {
		s.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	s.Roles = rolesClaim(claims)
	return s
}

func rolesClaim(claims jwt.MapClaims) []string {
	for _, key := range []string{"roles", "role", "authorities"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, r := range v {
				if s, ok := r.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// Key identifies the session for page bookkeeping without holding the token.
func (s Session) Key() string {
	sum := sha256.Sum256([]byte(s.Token))
	return hex.EncodeToString(sum[:16])
}

// Actor names the operator in audit records.
func (s Session) Actor() string {
	if s.Subject != "" {
		return s.Subject
	}
	return "session:" + s.Key()[:8]
}

// Expired reports whether the token carries an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
