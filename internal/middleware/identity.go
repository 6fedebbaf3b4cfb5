package middleware

// identity.go defines helpers shared across the middleware files.  The rate
// limiter keys buckets per caller; currentUserID turns whatever JWTAuth left
// in the context into a stable string, falling back to "anon" for guests.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts an account identifier from the request context.  It
// returns "anon" when no user is authenticated.  JWT numeric claims decode
// as float64, so the value is normalized through Sprint rather than asserted
// to a single type.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case nil:
        return "anon"
    case string:
        if v != "" {
            return v
        }
        return "anon"
    default:
        return fmt.Sprint(v)
    }
}
