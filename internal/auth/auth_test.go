package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedHandler(t *testing.T) (http.Handler, *string, *string) {
	t.Helper()

	var gotTenant, gotSubject string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant, _ = GetTenantID(r.Context())
		gotSubject, _ = GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}), testSecret, hclog.NewNullLogger())
	return h, &gotTenant, &gotSubject
}

func TestMiddleware_ValidToken(t *testing.T) {
	tenantID := uuid.NewString()
	token := signToken(t, testSecret, Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	h, gotTenant, gotSubject := protectedHandler(t)
	req := httptest.NewRequest("GET", "/api/v1/contracts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tenantID, *gotTenant)
	assert.Equal(t, "user@example.com", *gotSubject)
}

func TestMiddleware_Rejections(t *testing.T) {
	validClaims := func(tenantID string) Claims {
		return Claims{
			TenantID: tenantID,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "missing header",
			header: "",
		},
		{
			name:   "not a bearer token",
			header: "Basic dXNlcjpwYXNz",
		},
		{
			name:   "garbage token",
			header: "Bearer not.a.token",
		},
		{
			name:   "wrong secret",
			header: "Bearer " + signToken(t, "other-secret", validClaims(uuid.NewString())),
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, testSecret, Claims{
				TenantID: uuid.NewString(),
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}),
		},
		{
			name:   "missing tenant claim",
			header: "Bearer " + signToken(t, testSecret, validClaims("")),
		},
		{
			name:   "tenant claim not a uuid",
			header: "Bearer " + signToken(t, testSecret, validClaims("acme-corp")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := protectedHandler(t)
			req := httptest.NewRequest("GET", "/api/v1/contracts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestMiddleware_RejectsNonHMACAlgorithm(t *testing.T) {
	// alg=none style tokens must not pass even with a valid payload shape.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{TenantID: uuid.NewString()})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	h, _, _ := protectedHandler(t)
	req := httptest.NewRequest("GET", "/api/v1/search", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
