package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/prompt-library/internal/handler/handlertest"
	"github.com/iliyamo/prompt-library/internal/middleware"
	"github.com/iliyamo/prompt-library/internal/model"
	"github.com/iliyamo/prompt-library/internal/utils"
)

// call runs h against a fresh echo context.  setup may attach a user.
func call(t *testing.T, h echo.HandlerFunc, method, target, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	require.NoError(t, h(c))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func newAuth(t *testing.T) (*AuthHandler, *handlertest.Store, *utils.TokenService, *handlertest.Publisher) {
	t.Helper()
	store := handlertest.NewStore()
	tokens := utils.NewTokenService("test-secret")
	pub := handlertest.NewPublisher()
	return NewAuthHandler(store.Users(), tokens, pub, bcrypt.MinCost, zap.NewNop()), store, tokens, pub
}

func TestRegister(t *testing.T) {
	h, store, tokens, pub := newAuth(t)

	rec := call(t, h.Register, http.MethodPost, "/users/register",
		`{"name":"A","email":"A@X.com","password":"secret123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[userResp](t, rec)
	assert.Equal(t, "A", resp.Name)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, model.RoleUser, resp.Role)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(utils.TokenTTL), *resp.ExpiresAt, time.Minute)

	id, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, id)

	stored, err := store.Users().GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "secret123"))
	assert.NotContains(t, rec.Body.String(), stored.PasswordHash)

	select {
	case ev := <-pub.Users:
		assert.Equal(t, resp.ID, ev.UserID)
		assert.Equal(t, "user", ev.Role)
	case <-time.After(2 * time.Second):
		t.Fatal("user.registered event not published")
	}
}

func TestRegister_Validation(t *testing.T) {
	h, _, _, _ := newAuth(t)
	for _, body := range []string{
		`{"email":"a@x.com","password":"p"}`,
		`{"name":"A","password":"p"}`,
		`{"name":"A","email":"a@x.com"}`,
		`{"name":"  ","email":"a@x.com","password":"p"}`,
	} {
		rec := call(t, h.Register, http.MethodPost, "/users/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "name, email and password are required", errorBody(t, rec))
	}

	rec := call(t, h.Register, http.MethodPost, "/users/register", `{"name":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("x", 80)
	rec = call(t, h.Register, http.MethodPost, "/users/register",
		`{"name":"A","email":"long@x.com","password":"`+long+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at most 72 bytes", errorBody(t, rec))

	edge := strings.Repeat("y", 72)
	rec = call(t, h.Register, http.MethodPost, "/users/register",
		`{"name":"A","email":"edge@x.com","password":"`+edge+`"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	h, _, _, _ := newAuth(t)
	body := `{"name":"A","email":"a@x.com","password":"secret123"}`
	require.Equal(t, http.StatusCreated, call(t, h.Register, http.MethodPost, "/", body, nil).Code)

	rec := call(t, h.Register, http.MethodPost, "/", `{"name":"B","email":" A@x.COM","password":"other"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "user already exists", errorBody(t, rec))
}

func TestRegister_StoreFailure(t *testing.T) {
	h, store, _, _ := newAuth(t)
	store.Err = errors.New("db down")

	rec := call(t, h.Register, http.MethodPost, "/", `{"name":"A","email":"a@x.com","password":"p"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", errorBody(t, rec))
}

func TestLogin(t *testing.T) {
	h, _, tokens, _ := newAuth(t)
	reg := decode[userResp](t, call(t, h.Register, http.MethodPost, "/",
		`{"name":"A","email":"a@x.com","password":"secret123"}`, nil))

	rec := call(t, h.Login, http.MethodPost, "/users/login", `{"email":"A@x.com","password":"secret123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[userResp](t, rec)
	id, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, id)
}

func TestLogin_Failures(t *testing.T) {
	h, _, _, _ := newAuth(t)
	call(t, h.Register, http.MethodPost, "/", `{"name":"A","email":"a@x.com","password":"secret123"}`, nil)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"wrong password", `{"email":"a@x.com","password":"wrong"}`, http.StatusUnauthorized, "invalid email or password"},
		{"unknown email", `{"email":"b@x.com","password":"secret123"}`, http.StatusUnauthorized, "invalid email or password"},
		{"missing password", `{"email":"a@x.com"}`, http.StatusBadRequest, "email and password are required"},
		{"missing email", `{"password":"secret123"}`, http.StatusBadRequest, "email and password are required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, h.Login, http.MethodPost, "/users/login", tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, errorBody(t, rec))
			assert.NotContains(t, rec.Body.String(), "token")
		})
	}
}

func TestMe(t *testing.T) {
	h, _, _, _ := newAuth(t)
	u := model.User{ID: "u1", Name: "Ann", Email: "ann@x.com", Role: model.RolePremium}

	rec := call(t, h.Me, http.MethodGet, "/users/me", "", func(c echo.Context) { middleware.SetUser(c, u) })
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u1","name":"Ann","email":"ann@x.com","role":"premium"}`, rec.Body.String())

	rec = call(t, h.Me, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
