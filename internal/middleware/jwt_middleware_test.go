package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, mw []echo.MiddlewareFunc, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	return rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := GenerateToken("user-1", "a@b.com", "user", 1)
	require.NoError(t, err)

	rec := doRequest(t, []echo.MiddlewareFunc{JWTMiddleware()}, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_MissingOrGarbageToken(t *testing.T) {
	rec := doRequest(t, []echo.MiddlewareFunc{JWTMiddleware()}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, []echo.MiddlewareFunc{JWTMiddleware()}, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateToken_RoundTripsClaims(t *testing.T) {
	token, err := GenerateToken("user-7", "x@y.com", "moderator", 1)
	require.NoError(t, err)

	claims := parseToken(token)
	require.NotNil(t, claims)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Equal(t, "x@y.com", claims.Email)
	assert.Equal(t, "moderator", claims.Role)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    int
	}{
		{"admin", []string{"admin"}, http.StatusOK},
		{"moderator", []string{"admin"}, http.StatusForbidden},
		{"moderator", []string{"admin", "moderator"}, http.StatusOK},
		{"user", []string{"admin", "moderator"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		token, err := GenerateToken("user-1", "a@b.com", tc.role, 1)
		require.NoError(t, err)
		rec := doRequest(t, []echo.MiddlewareFunc{JWTMiddleware(), RequireRole(tc.allowed...)}, token)
		assert.Equal(t, tc.want, rec.Code, "role %s against %v", tc.role, tc.allowed)
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	// RequireRole without JWTMiddleware in front sees no claims
	rec := doRequest(t, []echo.MiddlewareFunc{RequireRole("admin")}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTryGetClaimsFromAuthHeader(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Nil(t, TryGetClaimsFromAuthHeader(c))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Nil(t, TryGetClaimsFromAuthHeader(c))

	token, err := GenerateToken("user-1", "a@b.com", "admin", 1)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c = e.NewContext(req, httptest.NewRecorder())
	claims := TryGetClaimsFromAuthHeader(c)
	require.NotNil(t, claims)
	assert.Equal(t, "admin", claims.Role)
}
