package middleware

// identity.go holds the helpers that store and read the resolved caller on
// the echo context.  Protect and Identify write it; gates, handlers, the
// rate limiter and the request logger read it.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/prompt-library/internal/model"
)

const userKey = "user"

// SetUser attaches the resolved user to the request context.
func SetUser(c echo.Context, u model.User) {
    c.Set(userKey, u)
}

// CurrentUser returns the user resolved for this request, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(userKey).(model.User)
    return u, ok
}

// CurrentRole returns the caller's role, RoleAnonymous when unresolved.
func CurrentRole(c echo.Context) model.Role {
    if u, ok := CurrentUser(c); ok {
        return u.Role
    }
    return model.RoleAnonymous
}

// userID returns the caller's id, or "guest" when no user was resolved.
func userID(c echo.Context) string {
    if u, ok := CurrentUser(c); ok && u.ID != "" {
        return u.ID
    }
    return "guest"
}
