package router // package router defines how HTTP routes are registered for the API

import (
	"regexp"
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/handler"
	"github.com/iliyamo/prompt-library/internal/middleware"
	"github.com/iliyamo/prompt-library/internal/model"
)

// Deps carries everything the route table needs.  Cache and RateLimit may
// be pass-through middleware when Redis is unavailable.
type Deps struct {
	Auth       *handler.AuthHandler
	Categories *handler.CategoryHandler
	Prompts    *handler.PromptHandler

	Tokens middleware.TokenVerifier
	Users  middleware.UserLoader

	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc

	AllowedOrigins        []string
	AllowedOriginPatterns []*regexp.Regexp
	Log                   *zap.Logger
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(corsConfig(d.AllowedOrigins, d.AllowedOriginPatterns)))

	Register(e, d)
	return e
}

func corsConfig(origins []string, patterns []*regexp.Regexp) echomw.CORSConfig {
	cfg := echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}
	if len(patterns) == 0 {
		return cfg
	}
	// echo ignores AllowOrigins once AllowOriginFunc is set.
	cfg.AllowOriginFunc = func(origin string) (bool, error) {
		if slices.Contains(origins, origin) {
			return true, nil
		}
		for _, re := range patterns {
			if re.MatchString(origin) {
				return true, nil
			}
		}
		return false, nil
	}
	return cfg
}

// Register maps every endpoint onto e.
func Register(e *echo.Echo, d Deps) {
	cache := passThrough(d.Cache)
	limit := passThrough(d.RateLimit)
	protect := middleware.Protect(d.Tokens, d.Users, d.Log)
	identify := middleware.Identify(d.Tokens, d.Users, d.Log)

	e.GET("/healthz", handler.Health)

	e.GET("/categories", d.Categories.List, cache)

	p := e.Group("/prompts")
	// Static segments are matched before /:id by echo's router.
	p.GET("/category/:categoryId", d.Prompts.ListByCategory, cache)
	p.GET("/all", d.Prompts.ListAll, protect, middleware.RequireRole(model.RoleAdmin))
	p.GET("/premium", d.Prompts.ListPremium, protect, middleware.RequireRole(model.RolePremium))
	p.GET("/:id", d.Prompts.Get, identify)
	p.POST("", d.Prompts.Create, protect, middleware.RequireRole(model.RoleAdmin))

	u := e.Group("/users")
	u.POST("/register", d.Auth.Register, limit)
	u.POST("/login", d.Auth.Login, limit)
	u.GET("/me", d.Auth.Me, protect)
}

func passThrough(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw != nil {
		return mw
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
