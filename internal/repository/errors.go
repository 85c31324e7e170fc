// Package repository contains data access logic separated from HTTP
// handlers.  Sentinel values in this file let handlers distinguish failure
// scenarios with errors.Is without inspecting driver errors themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when registering an email that is taken.
	ErrEmailExists = errors.New("email already exists")
	// ErrCategoryNotFound is returned for a missing category, including a
	// prompt insert whose category reference does not resolve.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrPromptNotFound is returned when no prompt matches the id.
	ErrPromptNotFound = errors.New("prompt not found")
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// mysqlCode extracts the server error number, or 0 for other errors.
func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
