package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
)

// RoleService manages role rows and the account-role relation.
//
// Two mutation modes exist.  Assign replaces an account's whole role set
// (bulk editor); Grant and Revoke add or remove a single link and leave the
// rest alone (permission toggle).
type RoleService struct {
	roles       RoleStore
	accounts    AccountStore
	defaultRole string
	events      emitter
}

// NewRoleService wires a RoleService.  defaultRole is used when an account
// is created (or its roles reset) without naming any role; an empty value
// falls back to receptionist.
func NewRoleService(roles RoleStore, accounts AccountStore, defaultRole string, pub EventPublisher, log *zap.Logger) *RoleService {
	if defaultRole == "" {
		defaultRole = model.RoleReceptionist
	}
	return &RoleService{
		roles:       roles,
		accounts:    accounts,
		defaultRole: defaultRole,
		events:      emitter{pub: pub, log: nopLogger(log)},
	}
}

// FindOrCreate returns the role called name, creating it on first use.
// A concurrent creator winning the insert is not an error: the duplicate
// key is taken as "already exists" and the row is read once more.
func (s *RoleService) FindOrCreate(ctx context.Context, name string) (*model.Role, error) {
	if !model.IsAllowedRole(name) {
		return nil, invalidRole(name)
	}
	r, err := s.roles.GetByName(ctx, name)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, storeErr(err, nil)
	}

	r, err = s.roles.Create(ctx, name)
	if err == nil {
		return r, nil
	}
	if !repository.IsDuplicate(err) {
		return nil, storeErr(err, nil)
	}
	r, err = s.roles.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("role %q: re-read after duplicate insert: %w", name, err)
	}
	return r, nil
}

// checkNames validates every name up front so that no role row or link is
// touched when any of them is unknown.  Duplicates are dropped.
func checkNames(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !model.IsAllowedRole(n) {
			return nil, invalidRole(n)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// resolve validates names, substitutes the default role for an empty list
// and find-or-creates each role.
func (s *RoleService) resolve(ctx context.Context, names []string) ([]model.Role, error) {
	names, err := checkNames(names)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = []string{s.defaultRole}
	}
	roles := make([]model.Role, 0, len(names))
	for _, n := range names {
		r, err := s.FindOrCreate(ctx, n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *r)
	}
	return roles, nil
}

func roleIDs(roles []model.Role) []uint64 {
	ids := make([]uint64, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}

// Assign replaces the account's role set with names.  Roles not listed are
// unlinked.  An empty list is rejected; use Revoke to drop a single role.
func (s *RoleService) Assign(ctx context.Context, accountID uint64, names []string) ([]model.Role, error) {
	if len(names) == 0 {
		return nil, invalidField("roles", "at least one role is required")
	}
	roles, err := s.resolve(ctx, names)
	if err != nil {
		return nil, err
	}
	if err := s.replace(ctx, accountID, roles); err != nil {
		return nil, err
	}
	return s.RolesOf(ctx, accountID)
}

func (s *RoleService) replace(ctx context.Context, accountID uint64, roles []model.Role) error {
	if err := s.accounts.ReplaceRoles(ctx, accountID, roleIDs(roles)); err != nil {
		return storeErr(err, ErrAccountNotFound)
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	s.events.emit(ctx, queue.RolesAssigned, "account", accountID,
		map[string]string{"roles": strings.Join(names, ",")})
	return nil
}

// Grant links one role to the account.  Granting a role the account already
// holds changes nothing.
func (s *RoleService) Grant(ctx context.Context, accountID uint64, name string) error {
	if !model.IsAllowedRole(name) {
		return invalidRole(name)
	}
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return storeErr(err, ErrAccountNotFound)
	}
	r, err := s.FindOrCreate(ctx, name)
	if err != nil {
		return err
	}
	if err := s.accounts.AddRole(ctx, accountID, r.ID); err != nil {
		return storeErr(err, ErrAccountNotFound)
	}
	s.events.emit(ctx, queue.RoleGranted, "account", accountID, map[string]string{"role": name})
	return nil
}

// Revoke unlinks one role from the account.  Revoking a role the account
// does not hold, or one never created, changes nothing.
func (s *RoleService) Revoke(ctx context.Context, accountID uint64, name string) error {
	if !model.IsAllowedRole(name) {
		return invalidRole(name)
	}
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return storeErr(err, ErrAccountNotFound)
	}
	r, err := s.roles.GetByName(ctx, name)
	if errors.Is(err, repository.ErrRoleNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err, nil)
	}
	if err := s.accounts.RemoveRole(ctx, accountID, r.ID); err != nil {
		return storeErr(err, nil)
	}
	s.events.emit(ctx, queue.RoleRevoked, "account", accountID, map[string]string{"role": name})
	return nil
}

// UserHasRole reports whether the account holds the named role.  An unknown
// or never-created role yields false, not an error.
func (s *RoleService) UserHasRole(ctx context.Context, accountID uint64, name string) (bool, error) {
	if !model.IsAllowedRole(name) {
		return false, nil
	}
	r, err := s.roles.GetByName(ctx, name)
	if errors.Is(err, repository.ErrRoleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, nil)
	}
	ok, err := s.accounts.HasRole(ctx, accountID, r.ID)
	if err != nil {
		return false, storeErr(err, nil)
	}
	return ok, nil
}

// RolesOf lists the roles linked to the account.
func (s *RoleService) RolesOf(ctx context.Context, accountID uint64) ([]model.Role, error) {
	roles, err := s.accounts.ListRoles(ctx, accountID)
	if err != nil {
		return nil, storeErr(err, ErrAccountNotFound)
	}
	return roles, nil
}

// List returns every role row.
func (s *RoleService) List(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	return roles, nil
}
