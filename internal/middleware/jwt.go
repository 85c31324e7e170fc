package middleware // middleware contains reusable echo middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/model"
	"github.com/iliyamo/prompt-library/internal/repository"
)

const bearerPrefix = "Bearer "

// TokenVerifier resolves a raw bearer token to a user id.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// UserLoader loads a user by id without the password hash.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Messages returned by Protect.  All three are 401s; only the text differs.
const (
	MsgNoToken      = "not authorized, no token"
	MsgTokenFailed  = "not authorized, token failed"
	MsgUserNotFound = "not authorized, user not found"
)

var (
	errNoToken     = errors.New(MsgNoToken)
	errTokenFailed = errors.New(MsgTokenFailed)
)

// bearerToken extracts the token after the literal "Bearer " prefix.
func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	return raw, raw != ""
}

// resolve verifies the request's bearer token and loads its user.
func resolve(c echo.Context, tokens TokenVerifier, users UserLoader) (model.User, error) {
	raw, ok := bearerToken(c)
	if !ok {
		return model.User{}, errNoToken
	}
	id, err := tokens.Verify(raw)
	if err != nil {
		return model.User{}, errTokenFailed
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return users.GetByID(ctx, id)
}

// Protect requires a valid bearer token whose subject still exists.  The
// resolved user is stored on the context for downstream handlers.
func Protect(tokens TokenVerifier, users UserLoader, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := resolve(c, tokens, users)
			switch {
			case err == nil:
				SetUser(c, u)
				return next(c)
			case errors.Is(err, errNoToken), errors.Is(err, errTokenFailed):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			case errors.Is(err, repository.ErrUserNotFound):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": MsgUserNotFound})
			default:
				log.Error("resolve request identity", zap.Error(err), zap.String("path", c.Path()))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
			}
		}
	}
}

// Identify is the optional form of Protect: it resolves the caller when it
// can and otherwise leaves the request anonymous.  It never rejects.
func Identify(tokens TokenVerifier, users UserLoader, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := resolve(c, tokens, users)
			if err == nil {
				SetUser(c, u)
			} else if !errors.Is(err, errNoToken) {
				log.Debug("request continues anonymous", zap.Error(err))
			}
			return next(c)
		}
	}
}
