package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/iliyamo/gym-management/internal/repository"
)

var (
	// ErrNotFound is the root of every "entity does not exist" error.
	ErrNotFound = errors.New("not found")
	// ErrAccountNotFound reports a missing account.
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	// ErrMemberNotFound reports a missing member.
	ErrMemberNotFound = fmt.Errorf("member %w", ErrNotFound)

	// ErrInvalidCredentials is the one error login returns for an unknown
	// identifier and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized reports a missing or unusable bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRole reports a role name outside the allowed vocabulary.
	ErrInvalidRole = errors.New("invalid role")
)

// ValidationError lists the offending input fields and why each failed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fromValidation converts an ozzo-validation result into *ValidationError.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		out := &ValidationError{Fields: make(map[string]string, len(errs))}
		for field, fe := range errs {
			out.Fields[field] = fe.Error()
		}
		return out
	}
	return &ValidationError{Fields: map[string]string{"input": err.Error()}}
}

// DuplicateValueError reports that Field already holds the proposed value on
// another record.
type DuplicateValueError struct {
	Field string
}

func (e *DuplicateValueError) Error() string { return e.Field + " already in use" }

func invalidRole(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidRole, name)
}

// storeErr maps repository errors onto service errors.  notFound replaces
// the store's own not-found sentinel; anything unrecognised is wrapped and
// ends up as an internal error.
func storeErr(err, notFound error) error {
	if err == nil {
		return nil
	}
	var dup *repository.DuplicateKeyError
	switch {
	case errors.As(err, &dup):
		return &DuplicateValueError{Field: dup.Field}
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrRoleNotFound):
		if notFound != nil {
			return notFound
		}
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("store: %w", err)
}
