package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/prompt-library/internal/model"
	"github.com/iliyamo/prompt-library/internal/utils"
)

// UserRepo is the credential store backed by the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes the password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (model.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	if !role.Valid() {
		role = model.RoleUser
	}
	u := model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := u.Validate(); err != nil {
		return model.User{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role) VALUES (?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role))
	if err != nil {
		if mysqlCode(err) == mysqlDuplicateEntry {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user, including the password hash, by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,google_id,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		NormalizeEmail(email))
	var (
		u              model.User
		hash, googleID sql.NullString
		role           string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &hash, &googleID, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.PasswordHash = hash.String
	u.GoogleID = googleID.String
	u.Role, _ = model.ParseRole(role)
	return u, nil
}

// GetByID fetches a user by id without the password hash column.  It is
// the lookup used to resolve request identity.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,google_id,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id)
	var (
		u        model.User
		googleID sql.NullString
		role     string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &googleID, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.GoogleID = googleID.String
	u.Role, _ = model.ParseRole(role)
	return u, nil
}

// DeleteAll removes every user.  Used by the seed routine only.
func (r *UserRepo) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users")
	return err
}
