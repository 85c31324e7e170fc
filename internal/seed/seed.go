// Package seed resets the catalog and loads the sample data set used in
// development and demos.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/model"
)

// Users is the credential store as seen by the seed routine.
type Users interface {
	Create(ctx context.Context, name, email, password string, role model.Role, cost int) (model.User, error)
	DeleteAll(ctx context.Context) error
}

// Categories is the category store as seen by the seed routine.
type Categories interface {
	Create(ctx context.Context, c *model.Category) error
	DeleteAll(ctx context.Context) error
}

// Prompts is the prompt store as seen by the seed routine.
type Prompts interface {
	Create(ctx context.Context, p *model.Prompt) error
	DeleteAll(ctx context.Context) error
}

// Seeder wipes every table and inserts the sample data set.
type Seeder struct {
	Users      Users
	Categories Categories
	Prompts    Prompts

	AdminEmail    string
	AdminPassword string
	BcryptCost    int
	Log           *zap.Logger
}

// Result reports what Run inserted.
type Result struct {
	Admin      model.User
	Categories []model.Category
	Prompts    []model.Prompt
}

// Run deletes prompts, categories and users (children first so foreign
// keys hold) and then inserts the admin, the categories and the sample
// prompts.  Prompts 0..2 go to Sales and 3..5 to Education.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	if err := s.Prompts.DeleteAll(ctx); err != nil {
		return res, fmt.Errorf("reset prompts: %w", err)
	}
	if err := s.Categories.DeleteAll(ctx); err != nil {
		return res, fmt.Errorf("reset categories: %w", err)
	}
	if err := s.Users.DeleteAll(ctx); err != nil {
		return res, fmt.Errorf("reset users: %w", err)
	}

	email := s.AdminEmail
	if email == "" {
		email = DefaultAdminEmail
	}
	password := s.AdminPassword
	if password == "" {
		password = DefaultAdminPassword
	}
	admin, err := s.Users.Create(ctx, "Admin User", email, password, model.RoleAdmin, s.BcryptCost)
	if err != nil {
		return res, fmt.Errorf("create admin: %w", err)
	}
	res.Admin = admin

	byTitle := make(map[string]string, len(SampleCategories))
	for _, sample := range SampleCategories {
		c := sample
		if err := s.Categories.Create(ctx, &c); err != nil {
			return res, fmt.Errorf("create category %q: %w", c.Title, err)
		}
		byTitle[c.Title] = c.ID
		res.Categories = append(res.Categories, c)
	}

	for i, sample := range SamplePrompts {
		target := "Sales"
		if i >= 3 {
			target = "Education"
		}
		catID, ok := byTitle[target]
		if !ok {
			continue
		}
		p := sample
		p.UserID = admin.ID
		p.Category = model.CategoryRef{ID: catID}
		if err := s.Prompts.Create(ctx, &p); err != nil {
			return res, fmt.Errorf("create prompt %q: %w", p.Title, err)
		}
		res.Prompts = append(res.Prompts, p)
	}

	if s.Log != nil {
		s.Log.Info("seed complete",
			zap.String("admin", admin.Email),
			zap.Int("categories", len(res.Categories)),
			zap.Int("prompts", len(res.Prompts)),
		)
	}
	return res, nil
}
