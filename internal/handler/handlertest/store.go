// Package handlertest provides in-memory stores and recorders that satisfy
// the handler and middleware interfaces, for use in tests.
package handlertest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/iliyamo/prompt-library/internal/model"
	q "github.com/iliyamo/prompt-library/internal/queue"
	"github.com/iliyamo/prompt-library/internal/repository"
	"github.com/iliyamo/prompt-library/internal/utils"
)

// Store keeps users, categories and prompts in memory with the same
// sentinel errors as the MySQL repositories.
type Store struct {
	mu         sync.Mutex
	users      map[string]model.User
	categories []model.Category
	prompts    []model.Prompt
	clock      time.Time

	// Err, when set, is returned by every call.
	Err error
}

func NewStore() *Store {
	return &Store{
		users: map[string]model.User{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is stable.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// Users returns the user store view.
func (s *Store) Users() *Users { return &Users{s} }

// Categories returns the category store view.
func (s *Store) Categories() *Categories { return &Categories{s} }

// Prompts returns the prompt store view.
func (s *Store) Prompts() *Prompts { return &Prompts{s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, name, email, password string, role model.Role, cost int) (model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	email = repository.NormalizeEmail(email)
	for _, existing := range s.users {
		if existing.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	if !role.Valid() {
		role = model.RoleUser
	}
	now := s.tick()
	usr := model.User{
		ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: email,
		PasswordHash: hash, Role: role, CreatedAt: now, UpdatedAt: now,
	}
	s.users[usr.ID] = usr
	return usr, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	email = repository.NormalizeEmail(email)
	for _, usr := range s.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

// GetByID omits the password hash like the MySQL lookup does.
func (u *Users) GetByID(_ context.Context, id string) (model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	usr, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	usr.PasswordHash = ""
	return usr, nil
}

// SetRole changes a user's role in place, standing in for an operator
// editing the row.
func (u *Users) SetRole(id string, role model.Role) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if usr, ok := u.s.users[id]; ok {
		usr.Role = role
		u.s.users[id] = usr
	}
}

// Delete removes a user.
func (u *Users) Delete(id string) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	delete(u.s.users, id)
}

func (u *Users) DeleteAll(context.Context) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.users = map[string]model.User{}
	return nil
}

type Categories struct{ s *Store }

func (c *Categories) Create(_ context.Context, cat *model.Category) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	now := s.tick()
	cat.CreatedAt, cat.UpdatedAt = now, now
	s.categories = append(s.categories, *cat)
	return nil
}

func (c *Categories) ListAll(context.Context) ([]model.Category, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append(make([]model.Category, 0, len(s.categories)), s.categories...), nil
}

func (c *Categories) DeleteAll(context.Context) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.categories = nil
	return nil
}

type Prompts struct{ s *Store }

func (p *Prompts) Create(_ context.Context, pr *model.Prompt) error {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	title := ""
	for _, c := range s.categories {
		if c.ID == pr.Category.ID {
			title = c.Title
		}
	}
	if title == "" {
		return repository.ErrCategoryNotFound
	}
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	pr.Slug = slug.Make(pr.Title)
	pr.Category.Title = title
	pr.WhatItDoes = nonNil(pr.WhatItDoes)
	pr.Tips = nonNil(pr.Tips)
	pr.HowToUse = nonNil(pr.HowToUse)
	now := s.tick()
	pr.CreatedAt, pr.UpdatedAt = now, now
	s.prompts = append(s.prompts, *pr)
	return nil
}

func (p *Prompts) GetByID(_ context.Context, id string) (model.Prompt, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Prompt{}, s.Err
	}
	for _, pr := range s.prompts {
		if pr.ID == id {
			return pr, nil
		}
	}
	return model.Prompt{}, repository.ErrPromptNotFound
}

func (p *Prompts) ListByCategory(_ context.Context, categoryID string) ([]model.PromptSummary, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.PromptSummary, 0)
	for _, pr := range s.prompts {
		if pr.Category.ID == categoryID {
			out = append(out, model.PromptSummary{ID: pr.ID, Title: pr.Title, Description: pr.Description, IsPremium: pr.IsPremium})
		}
	}
	return out, nil
}

func (p *Prompts) ListAll(context.Context) ([]model.Prompt, error) {
	return p.newestFirst(func(model.Prompt) bool { return true })
}

func (p *Prompts) ListPremium(context.Context) ([]model.Prompt, error) {
	return p.newestFirst(func(pr model.Prompt) bool { return pr.IsPremium })
}

func (p *Prompts) newestFirst(keep func(model.Prompt) bool) ([]model.Prompt, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.Prompt, 0)
	for _, pr := range s.prompts {
		if keep(pr) {
			out = append(out, pr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p *Prompts) DeleteAll(context.Context) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.prompts = nil
	return nil
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

// Publisher records published events on buffered channels.
type Publisher struct {
	Users   chan q.UserRegisteredEvent
	Prompts chan q.PromptCreatedEvent
}

func NewPublisher() *Publisher {
	return &Publisher{
		Users:   make(chan q.UserRegisteredEvent, 16),
		Prompts: make(chan q.PromptCreatedEvent, 16),
	}
}

func (p *Publisher) PublishUserRegistered(_ context.Context, ev q.UserRegisteredEvent) error {
	p.Users <- ev
	return nil
}

func (p *Publisher) PublishPromptCreated(_ context.Context, ev q.PromptCreatedEvent) error {
	p.Prompts <- ev
	return nil
}

// Invalidator counts cache invalidations.
type Invalidator struct {
	mu    sync.Mutex
	calls int
}

func (i *Invalidator) Invalidate(context.Context) {
	i.mu.Lock()
	i.calls++
	i.mu.Unlock()
}

func (i *Invalidator) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}
