// Package session holds the CLI's signed-in state.  A Session is a value;
// callers replace it rather than mutate it, and pass it explicitly to the
// API client.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iliyamo/prompt-library/internal/model"
)

// Session is the cached identity of the signed-in user.  The zero value is
// the anonymous session.
type Session struct {
	UserID string     `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	Token  string     `json:"token"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// AuthHeader is the Authorization header value, empty when anonymous.
func (s Session) AuthHeader() string {
	if !s.Authenticated() {
		return ""
	}
	return "Bearer " + s.Token
}

// Can reports whether the cached role meets min.  It only decides which
// commands the CLI offers; the server makes the real decision.
func (s Session) Can(min model.Role) bool {
	if !s.Authenticated() {
		return min == model.RoleAnonymous
	}
	return s.Role.AtLeast(min)
}

// Store persists a Session as a JSON file readable only by its owner.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

// DefaultPath is $XDG_CONFIG_HOME/prompt-library/session.json or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt-library", "session.json"), nil
}

func (st *Store) Path() string { return st.path }

// Load rehydrates the saved session.  A missing file is the anonymous
// session.  A file that cannot be parsed is removed and the anonymous
// session returned.
func (st *Store) Load() (Session, error) {
	b, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		if rmErr := os.Remove(st.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return Session{}, fmt.Errorf("clear corrupt session: %w", rmErr)
		}
		return Session{}, nil
	}
	if !s.Authenticated() {
		return Session{}, nil
	}
	if role, ok := model.ParseRole(string(s.Role)); ok {
		s.Role = role
	} else {
		s.Role = model.RoleUser
	}
	return s, nil
}

// Save writes s, replacing any previous session.
func (st *Store) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(st.path, b, 0o600)
}

// Clear removes the saved session.  Clearing twice is not an error.
func (st *Store) Clear() error {
	if err := os.Remove(st.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
