package middleware

// identity.go holds the accessors for the authenticated user stored on the
// echo context by RequireUser.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// UserID returns the id RequireUser resolved for this request.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(userIDKey).(uint64)
    return id, ok && id != 0
}

// currentUserID is the rate-limit key form of UserID; "anon" when the
// request is not authenticated.
func currentUserID(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
