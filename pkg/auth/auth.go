// Package auth guards the admin endpoints with HMAC-signed bearer tokens.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apphttp "github.com/yieldrail/bridge-orchestrator/pkg/app/http"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
)

// Guard validates admin bearer tokens
type Guard struct {
	secret []byte
}

// NewGuard creates a guard over the configured admin secret
func NewGuard(cfg config.AuthConfig) *Guard {
	return &Guard{secret: []byte(cfg.AdminSecret)}
}

// IssueToken mints a short-lived admin token. Used by operator tooling, not
// by the request path.
func (g *Guard) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(g.secret)
}

// Verify parses and validates a bearer token string
func (g *Guard) Verify(tokenString string) error {
	_, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err
}

// Middleware rejects requests without a valid admin bearer token
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apphttp.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		if err := g.Verify(strings.TrimPrefix(header, "Bearer ")); err != nil {
			apphttp.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
