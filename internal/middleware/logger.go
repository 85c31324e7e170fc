package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger writes one structured line per request.  It runs after
// echo's RequestID middleware so the id is available on the response.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            res := c.Response()
            log.Info("request",
                zap.String("id", res.Header().Get(echo.HeaderXRequestID)),
                zap.String("method", c.Request().Method),
                zap.String("path", c.Request().URL.Path),
                zap.String("route", c.Path()),
                zap.Int("status", res.Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("user", userID(c)),
                zap.String("ip", c.RealIP()),
            )
            return nil
        }
    }
}
