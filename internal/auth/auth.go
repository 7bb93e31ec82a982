// Package auth provides the bearer-token middleware that yields a tenant
// scope for every request. Identity management itself lives elsewhere; the
// search core and the API only ever see already-authenticated,
// tenant-scoped requests.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

type contextKey int

const (
	tenantIDKey contextKey = iota
	subjectKey
)

// Claims are the token claims the middleware requires.
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// GetTenantID returns the authenticated tenant scope from the request
// context.
func GetTenantID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tenantIDKey).(string)
	return v, ok
}

// GetSubject returns the authenticated principal from the request context.
func GetSubject(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey).(string)
	return v, ok
}

// WithIdentity returns a context carrying a tenant scope and subject.
// Exported for handler tests.
func WithIdentity(ctx context.Context, tenantID, subject string) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	return context.WithValue(ctx, subjectKey, subject)
}

// Middleware verifies the Authorization bearer token and stores the tenant
// scope and subject in the request context. Requests without a valid token
// never reach the wrapped handler.
func Middleware(next http.Handler, secret string, logger hclog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Debug("rejected bearer token", "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := uuid.Parse(claims.TenantID); err != nil {
			logger.Warn("token missing valid tenant_id claim", "subject", claims.Subject)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := WithIdentity(r.Context(), claims.TenantID, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
