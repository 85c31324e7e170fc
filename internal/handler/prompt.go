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
	"github.com/iliyamo/prompt-library/internal/policy"
	"github.com/iliyamo/prompt-library/internal/queue"
	"github.com/iliyamo/prompt-library/internal/repository"
	"github.com/iliyamo/prompt-library/internal/service"
)

// PremiumUpsellMessage is the 403 body for premium prompts read below the
// premium role.
const PremiumUpsellMessage = "You need a premium plan to access this prompt."

// PromptStore is the catalog store as seen by the prompt endpoints.
type PromptStore interface {
	GetByID(ctx context.Context, id string) (model.Prompt, error)
	ListByCategory(ctx context.Context, categoryID string) ([]model.PromptSummary, error)
	ListAll(ctx context.Context) ([]model.Prompt, error)
	ListPremium(ctx context.Context) ([]model.Prompt, error)
	Create(ctx context.Context, p *model.Prompt) error
}

// PromptHandler serves the /prompts endpoints.
type PromptHandler struct {
	Prompts PromptStore
	Policy  policy.ContentPolicy
	Events  service.EventPublisher
	Cache   CacheInvalidator
	Log     *zap.Logger
}

func NewPromptHandler(prompts PromptStore, pol policy.ContentPolicy, events service.EventPublisher, cache CacheInvalidator, log *zap.Logger) *PromptHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &PromptHandler{Prompts: prompts, Policy: pol, Events: events, Cache: cache, Log: log}
}

// Get returns one prompt's full content if the content policy allows the
// caller to see it.  Malformed and unknown ids both answer 404.
func (h *PromptHandler) Get(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return jsonError(c, http.StatusNotFound, "prompt not found")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Prompts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPromptNotFound) {
			return jsonError(c, http.StatusNotFound, "prompt not found")
		}
		return serverError(c, h.Log, "get prompt", err)
	}

	switch h.Policy.Decide(middleware.CurrentRole(c), p.IsPremium) {
	case policy.DenyUnauthenticated:
		return jsonError(c, http.StatusUnauthorized, "not authorized, login required")
	case policy.DenyInsufficientRole:
		return jsonError(c, http.StatusForbidden, PremiumUpsellMessage)
	}
	return c.JSON(http.StatusOK, p)
}

// ListByCategory returns the public projection of a category's prompts.
func (h *PromptHandler) ListByCategory(c echo.Context) error {
	categoryID, ok := parseID(c.Param("categoryId"))
	if !ok {
		return jsonError(c, http.StatusNotFound, "category not found")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Prompts.ListByCategory(ctx, categoryID)
	if err != nil {
		return serverError(c, h.Log, "list prompts by category", err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListAll returns every prompt for the admin dashboard, newest first.
func (h *PromptHandler) ListAll(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Prompts.ListAll(ctx)
	if err != nil {
		return serverError(c, h.Log, "list all prompts", err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListPremium returns the full premium library for premium members.
func (h *PromptHandler) ListPremium(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Prompts.ListPremium(ctx)
	if err != nil {
		return serverError(c, h.Log, "list premium prompts", err)
	}
	return c.JSON(http.StatusOK, items)
}

type createPromptReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PromptText  string   `json:"promptText"`
	Category    string   `json:"category"`
	IsPremium   bool     `json:"isPremium"`
	KeySentence string   `json:"keySentence"`
	WhatItDoes  []string `json:"whatItDoes"`
	Tips        []string `json:"tips"`
	HowToUse    []string `json:"howToUse"`
}

// missing lists the names of required fields left blank.
func (r createPromptReq) missing() []string {
	var out []string
	for _, f := range []struct{ name, val string }{
		{"title", r.Title},
		{"description", r.Description},
		{"promptText", r.PromptText},
		{"category", r.Category},
	} {
		if strings.TrimSpace(f.val) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

// Create adds a catalog entry authored by the calling admin.
func (h *PromptHandler) Create(c echo.Context) error {
	author, ok := middleware.CurrentUser(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, middleware.MsgNoToken)
	}
	var req createPromptReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if missing := req.missing(); len(missing) > 0 {
		return jsonError(c, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
	}
	categoryID, ok := parseID(strings.TrimSpace(req.Category))
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid category")
	}

	p := &model.Prompt{
		UserID:      author.ID,
		Category:    model.CategoryRef{ID: categoryID},
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		PromptText:  req.PromptText,
		IsPremium:   req.IsPremium,
		KeySentence: strings.TrimSpace(req.KeySentence),
		WhatItDoes:  req.WhatItDoes,
		Tips:        req.Tips,
		HowToUse:    req.HowToUse,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Prompts.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return jsonError(c, http.StatusBadRequest, "category not found")
		}
		return serverError(c, h.Log, "create prompt", err)
	}

	if h.Cache != nil {
		h.Cache.Invalidate(ctx)
	}
	ev := queue.PromptCreatedEvent{
		PromptID:   p.ID,
		AuthorID:   p.UserID,
		CategoryID: p.Category.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		IsPremium:  p.IsPremium,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
	}
	service.PublishAsync(func(ctx context.Context) error { return h.Events.PublishPromptCreated(ctx, ev) })

	return c.JSON(http.StatusCreated, p)
}
