package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
)

// CreateAccountInput is the payload for a new staff account.  Roles may be
// empty, in which case the default role is linked.
type CreateAccountInput struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
}

func (in *CreateAccountInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
}

// Validate checks required fields and formats.
func (in CreateAccountInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&in.Password, validation.Required, validation.Length(6, 72)),
	)
}

// UpdateAccountInput is a sparse account update.  A nil or blank field is
// left untouched.  Roles == nil leaves the role set alone; a non-nil list
// replaces it, and an empty one resets it to the default role.
type UpdateAccountInput struct {
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Email     *string  `json:"email"`
	Username  *string  `json:"username"`
	Password  *string  `json:"password"`
	Roles     []string `json:"roles"`
}

func (in *UpdateAccountInput) normalize() {
	in.FirstName = trimmed(in.FirstName)
	in.LastName = trimmed(in.LastName)
	in.Email = trimmed(in.Email)
	in.Username = trimmed(in.Username)
	in.Password = blankToNil(in.Password)
}

// Validate checks the format of the fields that are present.
func (in UpdateAccountInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Length(3, 255), is.Email),
		validation.Field(&in.Username, validation.Length(3, 50)),
		validation.Field(&in.Password, validation.Length(6, 72)),
	)
}

// AccountService orchestrates account creation, partial updates and
// deletion.  Role changes go through the RoleService.
type AccountService struct {
	accounts AccountStore
	roles    *RoleService
	hasher   PasswordHasher
	events   emitter
}

// NewAccountService wires an AccountService.
func NewAccountService(accounts AccountStore, roles *RoleService, hasher PasswordHasher, pub EventPublisher, log *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		roles:    roles,
		hasher:   hasher,
		events:   emitter{pub: pub, log: nopLogger(log)},
	}
}

// Create validates in, checks email and username uniqueness, hashes the
// password and stores the account together with its role links.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (model.AccountView, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return model.AccountView{}, fromValidation(err)
	}
	if _, err := checkNames(in.Roles); err != nil {
		return model.AccountView{}, err
	}

	if err := s.ensureUnique(ctx, 0, &in.Email, &in.Username); err != nil {
		return model.AccountView{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.AccountView{}, err
	}
	roles, err := s.roles.resolve(ctx, in.Roles)
	if err != nil {
		return model.AccountView{}, err
	}

	a := &model.Account{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Roles:        roles,
	}
	// The unique indexes have the last word when two creations race past
	// ensureUnique.
	if err := s.accounts.Create(ctx, a, roleIDs(roles)); err != nil {
		return model.AccountView{}, storeErr(err, nil)
	}

	s.events.emit(ctx, queue.AccountCreated, "account", a.ID, map[string]string{
		"username": a.Username,
		"roles":    strings.Join(a.RoleNames(), ","),
	})
	return a.View(), nil
}

// ensureUnique fails with *DuplicateValueError when email or username is
// already used by an account other than selfID.  Nil values are skipped.
func (s *AccountService) ensureUnique(ctx context.Context, selfID uint64, email, username *string) error {
	if email != nil {
		other, err := s.accounts.GetByEmail(ctx, *email)
		switch {
		case err == nil && other.ID != selfID:
			return &DuplicateValueError{Field: "email"}
		case err != nil && !errors.Is(err, repository.ErrAccountNotFound):
			return storeErr(err, nil)
		}
	}
	if username != nil {
		other, err := s.accounts.GetByUsername(ctx, *username)
		switch {
		case err == nil && other.ID != selfID:
			return &DuplicateValueError{Field: "username"}
		case err != nil && !errors.Is(err, repository.ErrAccountNotFound):
			return storeErr(err, nil)
		}
	}
	return nil
}

// Get returns the account with its roles.
func (s *AccountService) Get(ctx context.Context, id uint64) (model.AccountView, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return model.AccountView{}, err
	}
	return a.View(), nil
}

func (s *AccountService) load(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrAccountNotFound)
	}
	if a.Roles, err = s.roles.RolesOf(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns every account with its roles.
func (s *AccountService) List(ctx context.Context) ([]model.AccountView, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	out := make([]model.AccountView, 0, len(accounts))
	for _, a := range accounts {
		if a.Roles, err = s.roles.RolesOf(ctx, a.ID); err != nil {
			return nil, err
		}
		out = append(out, a.View())
	}
	return out, nil
}

// Update applies the present fields of in.  Everything is validated, and
// email/username uniqueness re-checked, before anything is written.  An
// update with nothing to apply returns the unchanged account.
func (s *AccountService) Update(ctx context.Context, id uint64, in UpdateAccountInput) (model.AccountView, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return model.AccountView{}, fromValidation(err)
	}
	if _, err := checkNames(in.Roles); err != nil {
		return model.AccountView{}, err
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return model.AccountView{}, err
	}
	if err := s.ensureUnique(ctx, id, in.Email, in.Username); err != nil {
		return model.AccountView{}, err
	}

	ch := &repository.Changes{}
	ch.SetString("first_name", in.FirstName)
	ch.SetString("last_name", in.LastName)
	ch.SetString("email", in.Email)
	ch.SetString("username", in.Username)
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return model.AccountView{}, err
		}
		ch.Set("password_hash", hash)
	}

	var roles []model.Role
	if in.Roles != nil {
		if roles, err = s.roles.resolve(ctx, in.Roles); err != nil {
			return model.AccountView{}, err
		}
	}

	if ch.Empty() && in.Roles == nil {
		return current.View(), nil
	}
	if err := s.accounts.Update(ctx, id, ch); err != nil {
		return model.AccountView{}, storeErr(err, ErrAccountNotFound)
	}
	if in.Roles != nil {
		if err := s.roles.replace(ctx, id, roles); err != nil {
			return model.AccountView{}, err
		}
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return model.AccountView{}, err
	}
	cols := ch.Columns()
	for i, c := range cols {
		if c == "password_hash" {
			cols[i] = "password"
		}
	}
	s.events.emit(ctx, queue.AccountUpdated, "account", id, map[string]string{"fields": strings.Join(cols, ",")})
	return updated.View(), nil
}

// Delete removes the account and its role links.
func (s *AccountService) Delete(ctx context.Context, id uint64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return storeErr(err, ErrAccountNotFound)
	}
	s.events.emit(ctx, queue.AccountDeleted, "account", id, nil)
	return nil
}

// EnsureAdmin seeds the first administrator.  When an account with the same
// username or email already exists it is granted the admin role instead and
// created is false; the stored password is left as is.
func (s *AccountService) EnsureAdmin(ctx context.Context, in CreateAccountInput) (view model.AccountView, created bool, err error) {
	in.normalize()
	existing, err := s.accounts.GetByUsername(ctx, in.Username)
	if errors.Is(err, repository.ErrAccountNotFound) {
		existing, err = s.accounts.GetByEmail(ctx, in.Email)
	}
	switch {
	case err == nil:
		if err := s.roles.Grant(ctx, existing.ID, model.RoleAdmin); err != nil {
			return model.AccountView{}, false, err
		}
		view, err = s.Get(ctx, existing.ID)
		return view, false, err
	case !errors.Is(err, repository.ErrAccountNotFound):
		return model.AccountView{}, false, storeErr(err, nil)
	}

	in.Roles = []string{model.RoleAdmin}
	view, err = s.Create(ctx, in)
	return view, err == nil, err
}
