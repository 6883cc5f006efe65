package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-univ/library-api/internal/utils"
)

const testSecret = "unit-test-secret"

func doRequest(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	var captured echo.Context
	h := func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	if captured == nil {
		captured = c
	}
	return rec, captured
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, "Student@Example.com", "student", 5)
	require.NoError(t, err)

	rec, c := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), UserID(c))
	assert.Equal(t, "student@example.com", Email(c))
	assert.Equal(t, "student", Role(c))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 7, "a@b.c", "student", 5)
	require.NoError(t, err)

	rec, _ := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllows(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 1, "staff@example.com", "staff", 5)
	require.NoError(t, err)

	rec, _ := doRequest(t,
		[]echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole("staff")},
		"Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejects(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 1, "student@example.com", "student", 5)
	require.NoError(t, err)

	rec, _ := doRequest(t,
		[]echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole("staff")},
		"Bearer "+at.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIdentityZeroValues(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "", Email(c))
	assert.Equal(t, "", Role(c))
	assert.Equal(t, uint64(0), UserID(c))
}
