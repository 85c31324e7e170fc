package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/iliyamo/prompt-library/internal/model"
)

// PromptRepo encapsulates all database queries related to prompts.
type PromptRepo struct {
	db *sql.DB
}

func NewPromptRepo(db *sql.DB) *PromptRepo {
	return &PromptRepo{db: db}
}

const promptColumns = `p.id, p.user_id, p.category_id, COALESCE(c.title, ''), p.title, p.slug,
	p.description, p.prompt_text, p.is_premium, p.key_sentence,
	p.what_it_does, p.tips, p.how_to_use, p.created_at, p.updated_at`

const promptFrom = ` FROM prompts p LEFT JOIN categories c ON c.id = p.category_id`

// Create inserts a prompt authored by p.UserID.  The slug is derived from
// the title and nil lists are stored as empty arrays.  A category
// reference that does not resolve yields ErrCategoryNotFound.
func (r *PromptRepo) Create(ctx context.Context, p *model.Prompt) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Slug = slug.Make(p.Title)
	p.WhatItDoes = nonNil(p.WhatItDoes)
	p.Tips = nonNil(p.Tips)
	p.HowToUse = nonNil(p.HowToUse)

	whatItDoes, tips, howToUse, err := encodeLists(p.WhatItDoes, p.Tips, p.HowToUse)
	if err != nil {
		return err
	}
	var keySentence sql.NullString
	if p.KeySentence != "" {
		keySentence = sql.NullString{String: p.KeySentence, Valid: true}
	}

	const qInsert = `INSERT INTO prompts
		(id, user_id, category_id, title, slug, description, prompt_text, is_premium, key_sentence, what_it_does, tips, how_to_use)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, qInsert,
		p.ID, p.UserID, p.Category.ID, p.Title, p.Slug, p.Description, p.PromptText,
		p.IsPremium, keySentence, whatItDoes, tips, howToUse)
	if err != nil {
		if mysqlCode(err) == mysqlNoReferencedRow {
			return ErrCategoryNotFound
		}
		return err
	}

	stored, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = stored
	return nil
}

// GetByID returns the full prompt with its category title populated.
func (r *PromptRepo) GetByID(ctx context.Context, id string) (model.Prompt, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+promptColumns+promptFrom+" WHERE p.id = ?", id)
	p, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Prompt{}, ErrPromptNotFound
		}
		return model.Prompt{}, err
	}
	return p, nil
}

// ListByCategory returns the public projection of a category's prompts.
// An unknown category simply yields an empty list.
func (r *PromptRepo) ListByCategory(ctx context.Context, categoryID string) ([]model.PromptSummary, error) {
	const q = `SELECT id, title, description, is_premium FROM prompts
	           WHERE category_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PromptSummary, 0)
	for rows.Next() {
		var s model.PromptSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.IsPremium); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAll returns every prompt, newest first, with category titles.
func (r *PromptRepo) ListAll(ctx context.Context) ([]model.Prompt, error) {
	return r.list(ctx, "SELECT "+promptColumns+promptFrom+" ORDER BY p.created_at DESC")
}

// ListPremium returns the full premium prompts, newest first.
func (r *PromptRepo) ListPremium(ctx context.Context) ([]model.Prompt, error) {
	return r.list(ctx, "SELECT "+promptColumns+promptFrom+" WHERE p.is_premium = TRUE ORDER BY p.created_at DESC")
}

// DeleteAll removes every prompt.  Used by the seed routine only.
func (r *PromptRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM prompts")
	return err
}

func (r *PromptRepo) list(ctx context.Context, q string, args ...any) ([]model.Prompt, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Prompt, 0)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(s rowScanner) (model.Prompt, error) {
	var (
		p                          model.Prompt
		keySentence                sql.NullString
		whatItDoes, tips, howToUse []byte
	)
	err := s.Scan(&p.ID, &p.UserID, &p.Category.ID, &p.Category.Title, &p.Title, &p.Slug,
		&p.Description, &p.PromptText, &p.IsPremium, &keySentence,
		&whatItDoes, &tips, &howToUse, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Prompt{}, err
	}
	p.KeySentence = keySentence.String
	if p.WhatItDoes, err = decodeList(whatItDoes); err != nil {
		return model.Prompt{}, fmt.Errorf("decode what_it_does: %w", err)
	}
	if p.Tips, err = decodeList(tips); err != nil {
		return model.Prompt{}, fmt.Errorf("decode tips: %w", err)
	}
	if p.HowToUse, err = decodeList(howToUse); err != nil {
		return model.Prompt{}, fmt.Errorf("decode how_to_use: %w", err)
	}
	return p, nil
}

func encodeLists(lists ...[]string) (a, b, c []byte, err error) {
	out := make([][]byte, len(lists))
	for i, l := range lists {
		if out[i], err = json.Marshal(nonNil(l)); err != nil {
			return nil, nil, nil, err
		}
	}
	return out[0], out[1], out[2], nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
