package middleware

// identity.go holds the accessors for the caller identity that JWTAuth
// stores in the Echo context.  Numeric JSON claims decode as float64, so
// the subject is accepted as a number or a numeric string.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
)

// UserID returns the authenticated user's ID.
func UserID(c echo.Context) (uint64, bool) {
    switch v := c.Get(CtxUserID).(type) {
    case float64:
        if v > 0 {
            return uint64(v), true
        }
    case string:
        if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
            return id, true
        }
    case uint64:
        return v, v > 0
    }
    return 0, false
}

// Role returns the authenticated user's role or "".
func Role(c echo.Context) string {
    role, _ := c.Get(CtxRole).(string)
    return role
}

// userKey is the rate limit identity: the user ID or "guest".
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
