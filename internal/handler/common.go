package handler // handler defines http handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// dbTimeout bounds the database work of a single handler.
const dbTimeout = 5 * time.Second

// CacheInvalidator drops cached public catalog responses after a write.
type CacheInvalidator interface {
    Invalidate(ctx context.Context)
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// jsonError writes {"error": msg} with the given status.
func jsonError(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"error": msg})
}

// serverError logs err with the route and answers with a generic 500.
// Details never reach the client.
func serverError(c echo.Context, log *zap.Logger, op string, err error) error {
    log.Error(op,
        zap.Error(err),
        zap.String("method", c.Request().Method),
        zap.String("path", c.Request().URL.Path),
        zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
    )
    return jsonError(c, http.StatusInternalServerError, "server error")
}

// parseID returns the canonical form of a UUID identifier.
func parseID(raw string) (string, bool) {
    id, err := uuid.Parse(raw)
    if err != nil {
        return "", false
    }
    return id.String(), true
}
