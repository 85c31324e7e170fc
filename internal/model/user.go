package model

import (
    "errors"
    "time"
)

// ErrNoAuthFactor is returned by User.Validate when a user has neither a
// password hash nor an external identity id.
var ErrNoAuthFactor = errors.New("user requires a password or an external identity")

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – UUID primary key.
//  Name         – display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash; empty for external-identity accounts and
//                 whenever the record was loaded for request identity.
//  GoogleID     – external identity id; empty when unset.
//  Role         – user, premium or admin.
type User struct {
    ID           string
    Name         string
    Email        string
    PasswordHash string
    GoogleID     string
    Role         Role
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// Validate enforces the authentication factor invariant: a password hash
// is required unless an external identity id is set.
func (u User) Validate() error {
    if u.PasswordHash == "" && u.GoogleID == "" {
        return ErrNoAuthFactor
    }
    return nil
}
