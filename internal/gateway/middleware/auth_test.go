package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hasibdev/bazario/internal/shared/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func freshClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func generateToken(secret, userID, role string, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: claims,
	})
	return token.SignedString([]byte(secret))
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	token, err := generateToken(testSecret, "42", "seller", freshClaims())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		ident, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, identity.RoleSeller, ident.Role())
		assert.Equal(t, "42", ident.ID())
		assert.Equal(t, "42", ident.Room())
	})

	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_QueryToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	token, err := generateToken(testSecret, "7", "customer", freshClaims())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	rec := httptest.NewRecorder()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		ident, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, identity.RoleCustomer, ident.Role())
	})

	m.RequireAuth(next).ServeHTTP(rec, req)
	assert.True(t, nextCalled)
}

func TestRequireAuth_AdminRole(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	// The admin slot has no account id; the role alone identifies it.
	token, err := generateToken(testSecret, "", "admin", freshClaims())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.True(t, ident.IsAdmin())
		assert.Equal(t, identity.AdminID, ident.ID())
	})

	m.RequireAuth(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })

	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	expired, err := generateToken(testSecret, "42", "seller", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	require.NoError(t, err)

	wrongSecret, err := generateToken("other-secret", "42", "seller", freshClaims())
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"garbage":      "not.a.token",
	} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("%s token must not pass", name)
		})).ServeHTTP(rec, req)

		assert.Equalf(t, http.StatusUnauthorized, rec.Code, "token: %s", name)
	}
}

func TestRequireAuth_RejectsReservedID(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	// A seller claiming the reserved admin id must not resolve.
	token, err := generateToken(testSecret, identity.AdminID, "seller", freshClaims())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("reserved id must not pass")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	_, ok := IdentityFromContext(req.Context())
	assert.False(t, ok)
}
