package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/model"
)

// CategoryStore lists catalog categories.
type CategoryStore interface {
	ListAll(ctx context.Context) ([]model.Category, error)
}

// CategoryHandler serves the public category list.
type CategoryHandler struct {
	Categories CategoryStore
	Log        *zap.Logger
}

func NewCategoryHandler(categories CategoryStore, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{Categories: categories, Log: log}
}

// List returns every category as a bare JSON array.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	cats, err := h.Categories.ListAll(ctx)
	if err != nil {
		return serverError(c, h.Log, "list categories", err)
	}
	return c.JSON(http.StatusOK, cats)
}
