package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/prompt-library/internal/model"
)

// CategoryRepo encapsulates all database queries related to categories.
// Categories are written by the seed routine only; the public API reads.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a category and re-reads the default timestamp columns so
// callers receive a fully populated record.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const qInsert = "INSERT INTO categories (id, title, icon, count, is_new) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, qInsert, c.ID, c.Title, c.Icon, c.Count, c.IsNew); err != nil {
		return err
	}
	const qSelect = "SELECT created_at, updated_at FROM categories WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// ListAll returns every category in creation order.  There is no
// pagination; the catalog is small.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, title, icon, count, is_new, created_at, updated_at
	           FROM categories ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Icon, &c.Count, &c.IsNew, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAll removes every category.  Used by the seed routine only.
func (r *CategoryRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM categories")
	return err
}
