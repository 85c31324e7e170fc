package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/prompt-library/internal/model"
)

// RequireRole returns a middleware that admits callers whose role is at
// least min in the role order.  It must run after Protect; a request with
// no resolved user is rejected like any other insufficient role.
func RequireRole(min model.Role) echo.MiddlewareFunc {
    msg := "forbidden"
    switch min {
    case model.RoleAdmin:
        msg = "not authorized as an admin"
    case model.RolePremium:
        msg = "premium access required"
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !CurrentRole(c).AtLeast(min) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
            }
            return next(c)
        }
    }
}
