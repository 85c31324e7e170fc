package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/handler/handlertest"
	"github.com/iliyamo/prompt-library/internal/middleware"
	"github.com/iliyamo/prompt-library/internal/model"
	"github.com/iliyamo/prompt-library/internal/policy"
)

type promptFixture struct {
	h       *PromptHandler
	store   *handlertest.Store
	pub     *handlertest.Publisher
	cache   *handlertest.Invalidator
	sales   model.Category
	free    model.Prompt
	premium model.Prompt
	admin   model.User
}

func newPromptFixture(t *testing.T, pol policy.ContentPolicy) *promptFixture {
	t.Helper()
	ctx := context.Background()
	f := &promptFixture{
		store: handlertest.NewStore(),
		pub:   handlertest.NewPublisher(),
		cache: &handlertest.Invalidator{},
		admin: model.User{ID: "admin-1", Role: model.RoleAdmin},
	}
	f.h = NewPromptHandler(f.store.Prompts(), pol, f.pub, f.cache, zap.NewNop())

	f.sales = model.Category{Title: "Sales", Icon: "SalesIcon"}
	require.NoError(t, f.store.Categories().Create(ctx, &f.sales))

	f.free = model.Prompt{UserID: f.admin.ID, Category: model.CategoryRef{ID: f.sales.ID},
		Title: "Free one", Description: "d", PromptText: "free text"}
	f.premium = model.Prompt{UserID: f.admin.ID, Category: model.CategoryRef{ID: f.sales.ID},
		Title: "Paid one", Description: "d", PromptText: "premium text", IsPremium: true}
	require.NoError(t, f.store.Prompts().Create(ctx, &f.free))
	require.NoError(t, f.store.Prompts().Create(ctx, &f.premium))
	return f
}

func as(role model.Role) func(echo.Context) {
	if role == model.RoleAnonymous {
		return nil
	}
	return func(c echo.Context) { middleware.SetUser(c, model.User{ID: "u-" + string(role), Role: role}) }
}

func (f *promptFixture) get(t *testing.T, id string, role model.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/prompts/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if setup := as(role); setup != nil {
		setup(c)
	}
	require.NoError(t, f.h.Get(c))
	return rec
}

func TestGetPrompt_FreeReadableByEveryone(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})
	for _, role := range []model.Role{model.RoleAnonymous, model.RoleUser, model.RolePremium, model.RoleAdmin} {
		rec := f.get(t, f.free.ID, role)
		require.Equal(t, http.StatusOK, rec.Code, role.String())
		assert.Equal(t, "free text", decode[model.Prompt](t, rec).PromptText)
	}
}

func TestGetPrompt_PremiumGate(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})
	tests := []struct {
		role   model.Role
		status int
		msg    string
	}{
		{model.RoleAnonymous, http.StatusUnauthorized, "not authorized, login required"},
		{model.RoleUser, http.StatusForbidden, PremiumUpsellMessage},
		{model.RolePremium, http.StatusOK, ""},
		{model.RoleAdmin, http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.role.String(), func(t *testing.T) {
			rec := f.get(t, f.premium.ID, tc.role)
			assert.Equal(t, tc.status, rec.Code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, errorBody(t, rec))
				assert.NotContains(t, rec.Body.String(), "premium text")
			} else {
				assert.Equal(t, "premium text", decode[model.Prompt](t, rec).PromptText)
			}
		})
	}
}

func TestGetPrompt_StrictPolicyRequiresLoginForFree(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{FreeRequiresAuth: true})

	rec := f.get(t, f.free.ID, model.RoleAnonymous)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.get(t, f.free.ID, model.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPrompt_NotFound(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})

	rec := f.get(t, "not-a-uuid", model.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "prompt not found", errorBody(t, rec))

	rec = f.get(t, "9b2d4e4a-7c1f-4f8e-9a55-0d1d2c3b4a59", model.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPrompt_StoreFailure(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})
	f.store.Err = errors.New("db down")

	rec := f.get(t, f.free.ID, model.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", errorBody(t, rec))
}

func TestListByCategory(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})

	run := func(id string) *httptest.ResponseRecorder {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/prompts/category/"+id, nil), rec)
		c.SetParamNames("categoryId")
		c.SetParamValues(id)
		require.NoError(t, f.h.ListByCategory(c))
		return rec
	}

	rec := run(f.sales.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]map[string]any](t, rec)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.ElementsMatch(t, []string{"id", "title", "description", "isPremium"}, keys(it))
	}
	assert.NotContains(t, rec.Body.String(), "premium text")

	rec = run("9b2d4e4a-7c1f-4f8e-9a55-0d1d2c3b4a59")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = run("bogus")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "category not found", errorBody(t, rec))
}

func TestListAllAndPremium(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})

	rec := call(t, f.h.ListAll, http.MethodGet, "/prompts/all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]model.Prompt](t, rec)
	require.Len(t, all, 2)
	assert.Equal(t, f.premium.ID, all[0].ID, "newest first")
	assert.Equal(t, "Sales", all[0].Category.Title)

	rec = call(t, f.h.ListPremium, http.MethodGet, "/prompts/premium", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prem := decode[[]model.Prompt](t, rec)
	require.Len(t, prem, 1)
	assert.Equal(t, "premium text", prem[0].PromptText)
}

func TestCreatePrompt(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})
	body := `{"title":"Cold Email Opener","description":"d","promptText":"write it","category":"` + f.sales.ID + `","isPremium":true,"tips":["short"]}`

	rec := call(t, f.h.Create, http.MethodPost, "/prompts", body, as(model.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Prompt](t, rec)
	assert.Equal(t, "Cold Email Opener", created.Title)
	assert.Equal(t, "cold-email-opener", created.Slug)
	assert.Equal(t, "u-admin", created.UserID)
	assert.True(t, created.IsPremium)
	assert.Equal(t, []string{}, created.WhatItDoes)
	assert.Equal(t, []string{"short"}, created.Tips)
	assert.Equal(t, 1, f.cache.Calls())

	rec = f.get(t, created.ID, model.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	back := decode[model.Prompt](t, rec)
	assert.Equal(t, created.Title, back.Title)
	assert.Equal(t, created.PromptText, back.PromptText)
	assert.Equal(t, created.IsPremium, back.IsPremium)

	select {
	case ev := <-f.pub.Prompts:
		assert.Equal(t, created.ID, ev.PromptID)
		assert.Equal(t, f.sales.ID, ev.CategoryID)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt.created event not published")
	}
}

func TestCreatePrompt_Validation(t *testing.T) {
	f := newPromptFixture(t, policy.ContentPolicy{})
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing fields", `{"title":"t","category":"` + f.sales.ID + `"}`, http.StatusBadRequest,
			"missing required fields: description, promptText"},
		{"all missing", `{}`, http.StatusBadRequest,
			"missing required fields: title, description, promptText, category"},
		{"malformed category", `{"title":"t","description":"d","promptText":"p","category":"sales"}`, http.StatusBadRequest,
			"invalid category"},
		{"unknown category", `{"title":"t","description":"d","promptText":"p","category":"9b2d4e4a-7c1f-4f8e-9a55-0d1d2c3b4a59"}`,
			http.StatusBadRequest, "category not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, f.h.Create, http.MethodPost, "/prompts", tc.body, as(model.RoleAdmin))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, errorBody(t, rec))
		})
	}
	assert.Zero(t, f.cache.Calls())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
