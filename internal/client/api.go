// Package client is a Go client for the prompt library HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/prompt-library/internal/client/session"
	"github.com/iliyamo/prompt-library/internal/model"
)

// APIError is a non-2xx response.  Message is the server's "error" field
// when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client calls the API on behalf of one session.  Use WithSession to get a
// client for a different identity.
type Client struct {
	baseURL string
	http    *http.Client
	sess    session.Session
}

func New(baseURL string, sess session.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		sess:    sess,
	}
}

// WithSession returns a copy of c that authenticates as s.
func (c *Client) WithSession(s session.Session) *Client {
	cp := *c
	cp.sess = s
	return &cp
}

// AuthResult is the body of register and login.
type AuthResult struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Session converts the result into the session to persist.
func (r AuthResult) Session() session.Session {
	return session.Session{UserID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role, Token: r.Token}
}

// Profile is the body of /users/me.
type Profile struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// NewPrompt is the body of an admin create.
type NewPrompt struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PromptText  string   `json:"promptText"`
	Category    string   `json:"category"`
	IsPremium   bool     `json:"isPremium"`
	KeySentence string   `json:"keySentence,omitempty"`
	WhatItDoes  []string `json:"whatItDoes,omitempty"`
	Tips        []string `json:"tips,omitempty"`
	HowToUse    []string `json:"howToUse,omitempty"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/users/register", body, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/users/login", body, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.do(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

func (c *Client) PromptsByCategory(ctx context.Context, categoryID string) ([]model.PromptSummary, error) {
	var out []model.PromptSummary
	err := c.do(ctx, http.MethodGet, "/prompts/category/"+url.PathEscape(categoryID), nil, &out)
	return out, err
}

func (c *Client) Prompt(ctx context.Context, id string) (model.Prompt, error) {
	var out model.Prompt
	err := c.do(ctx, http.MethodGet, "/prompts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) AllPrompts(ctx context.Context) ([]model.Prompt, error) {
	var out []model.Prompt
	err := c.do(ctx, http.MethodGet, "/prompts/all", nil, &out)
	return out, err
}

func (c *Client) PremiumPrompts(ctx context.Context) ([]model.Prompt, error) {
	var out []model.Prompt
	err := c.do(ctx, http.MethodGet, "/prompts/premium", nil, &out)
	return out, err
}

func (c *Client) CreatePrompt(ctx context.Context, p NewPrompt) (model.Prompt, error) {
	var out model.Prompt
	err := c.do(ctx, http.MethodPost, "/prompts", p, &out)
	return out, err
}

// do sends in as JSON (when non-nil), attaches the session token and
// decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h := c.sess.AuthHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
