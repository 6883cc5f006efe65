package middleware

// identity.go provides typed accessors for the principal JWTAuth stored in
// the Echo context.  Handlers use these instead of raw c.Get calls so a
// missing or mistyped value reads as the zero value rather than panicking.

import "github.com/labstack/echo/v4"

// Email returns the authenticated principal's email, or "" when the request
// is unauthenticated.
func Email(c echo.Context) string {
	if v, ok := c.Get(CtxEmail).(string); ok {
		return v
	}
	return ""
}

// Role returns the authenticated principal's role, or "" when absent.
func Role(c echo.Context) string {
	if v, ok := c.Get(CtxRole).(string); ok {
		return v
	}
	return ""
}

// UserID returns the authenticated principal's numeric ID, or 0.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}
