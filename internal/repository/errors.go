// Package repository defines the MySQL-backed stores and the error values
// they share.  Lookups never leak sql.ErrNoRows: each store maps it to its
// own not-found sentinel.  Unique-constraint violations surface as
// *DuplicateKeyError so services can report which field collided.
package repository

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error number for a unique-key violation.
const mysqlDuplicateEntry = 1062

var (
	// ErrAccountNotFound is returned when an account lookup fails.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRoleNotFound is returned when a role lookup fails.
	ErrRoleNotFound = errors.New("role not found")
	// ErrMemberNotFound is returned when a member lookup fails.
	ErrMemberNotFound = errors.New("member not found")
)

// DuplicateKeyError reports a unique-constraint violation.  Field is the
// entity field behind the violated key (email, username, name), or the raw
// key name when it cannot be mapped.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string { return "duplicate value for " + e.Field }
func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// "Duplicate entry 'a@b.c' for key 'accounts.uq_accounts_email'"
var duplicateKeyRe = regexp.MustCompile(`for key '([^']+)'`)

// translateDuplicate converts a MySQL 1062 error into *DuplicateKeyError and
// returns every other error unchanged.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return err
	}
	key := ""
	if m := duplicateKeyRe.FindStringSubmatch(myErr.Message); m != nil {
		key = m[1]
	}
	return &DuplicateKeyError{Field: fieldForKey(key), Err: err}
}

// fieldForKey maps an index name to the entity field it protects.
func fieldForKey(key string) string {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "email"):
		return "email"
	case strings.Contains(k, "username"):
		return "username"
	case strings.Contains(k, "name"):
		return "name"
	case strings.Contains(k, "primary"):
		return "id"
	}
	return key
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}
