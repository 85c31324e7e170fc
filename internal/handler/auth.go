package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/middleware"
	"github.com/iliyamo/prompt-library/internal/model"
	"github.com/iliyamo/prompt-library/internal/queue"
	"github.com/iliyamo/prompt-library/internal/repository"
	"github.com/iliyamo/prompt-library/internal/service"
	"github.com/iliyamo/prompt-library/internal/utils"
)

// UserStore is the slice of the credential store the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, role model.Role, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (utils.AccessToken, error)
}

// AuthHandler bundles dependencies for the /users endpoints.
type AuthHandler struct {
	Users      UserStore
	Tokens     TokenIssuer
	Events     service.EventPublisher
	BcryptCost int
	Log        *zap.Logger
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, events service.EventPublisher, bcryptCost int, log *zap.Logger) *AuthHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &AuthHandler{Users: users, Tokens: tokens, Events: events, BcryptCost: bcryptCost, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResp is the public form of a user.  Token fields are set only by
// register and login.
type userResp struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func newUserResp(u model.User, tok *utils.AccessToken) userResp {
	r := userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	if tok != nil {
		r.Token = tok.Token
		r.ExpiresAt = &tok.Exp
	}
	return r
}

const msgPasswordTooLong = "password must be at most 72 bytes"

// Register creates a user with role "user" and returns it with a token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "name, email and password are required")
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return jsonError(c, http.StatusBadRequest, msgPasswordTooLong)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RoleUser, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return jsonError(c, http.StatusConflict, "user already exists")
		}
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return jsonError(c, http.StatusBadRequest, msgPasswordTooLong)
		}
		return serverError(c, h.Log, "create user", err)
	}

	tok, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return serverError(c, h.Log, "issue token", err)
	}

	ev := queue.UserRegisteredEvent{
		UserID:       u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}
	service.PublishAsync(func(ctx context.Context) error { return h.Events.PublishUserRegistered(ctx, ev) })

	return c.JSON(http.StatusCreated, newUserResp(u, &tok))
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid email or password")
		}
		return serverError(c, h.Log, "load user by email", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return jsonError(c, http.StatusUnauthorized, "invalid email or password")
	}

	tok, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return serverError(c, h.Log, "issue token", err)
	}
	return c.JSON(http.StatusOK, newUserResp(u, &tok))
}

// Me returns the resolved caller.  It runs behind Protect.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, middleware.MsgNoToken)
	}
	return c.JSON(http.StatusOK, newUserResp(u, nil))
}
