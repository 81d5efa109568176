package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/utils"
)

type fixture struct {
	roles    *fakeRoles
	accounts *fakeAccounts
	members  *fakeMembers
	events   *recorder
	hasher   *utils.Hasher
	tokens   *utils.TokenManager

	roleSvc    *RoleService
	accountSvc *AccountService
	authSvc    *AuthService
	memberSvc  *MemberService
}

func newFixture() *fixture {
	f := &fixture{
		roles:   &fakeRoles{},
		members: newFakeMembers(),
		events:  &recorder{},
		hasher:  utils.NewHasher(4),
		tokens:  utils.NewTokenManager("0123456789abcdef0123", time.Hour),
	}
	f.accounts = newFakeAccounts(f.roles)
	log := zap.NewNop()
	f.roleSvc = NewRoleService(f.roles, f.accounts, model.RoleReceptionist, f.events, log)
	f.accountSvc = NewAccountService(f.accounts, f.roleSvc, f.hasher, f.events, log)
	f.authSvc = NewAuthService(f.accounts, f.hasher, f.tokens, f.events, log)
	f.memberSvc = NewMemberService(f.members, f.events, log)
	return f
}

func validAccount() CreateAccountInput {
	return CreateAccountInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@gym.test",
		Username:  "ada",
		Password:  "s3cret-pass",
	}
}

func strPtr(s string) *string { return &s }

func TestAccountCreate_DefaultRoleAndNoPassword(t *testing.T) {
	f := newFixture()

	view, err := f.accountSvc.Create(context.Background(), validAccount())
	require.NoError(t, err)

	assert.NotZero(t, view.ID)
	assert.Equal(t, []string{model.RoleReceptionist}, view.Roles)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	stored, err := f.accounts.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), stored.PasswordHash)
	assert.NotContains(t, string(raw), "s3cret-pass")
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, f.hasher.Verify("s3cret-pass", stored.PasswordHash))

	assert.Equal(t, []string{queue.AccountCreated}, f.events.types())
}

func TestAccountCreate_ExplicitRoles(t *testing.T) {
	f := newFixture()
	in := validAccount()
	in.Roles = []string{model.RoleAdmin, model.RoleReceptionist, model.RoleAdmin}

	view, err := f.accountSvc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.RoleAdmin, model.RoleReceptionist}, view.Roles)
	assert.Equal(t, 2, f.accounts.linkCount(view.ID))
}

func TestAccountCreate_MissingFields(t *testing.T) {
	f := newFixture()

	_, err := f.accountSvc.Create(context.Background(), CreateAccountInput{FirstName: "  ", Email: "not-an-email"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"firstName", "lastName", "email", "username", "password"} {
		assert.Contains(t, verr.Fields, field)
	}
	assert.Empty(t, f.accounts.rows)
}

func TestAccountCreate_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	second := validAccount()
	second.Username = "ada2"
	_, err = f.accountSvc.Create(ctx, second)
	var dup *DuplicateValueError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestAccountCreate_DuplicateUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	second := validAccount()
	second.Email = "other@gym.test"
	_, err = f.accountSvc.Create(ctx, second)
	var dup *DuplicateValueError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)
}

func TestAccountCreate_EmailCaseSensitive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	second := validAccount()
	second.Email = "ADA@gym.test"
	second.Username = "ada2"
	_, err = f.accountSvc.Create(ctx, second)
	assert.NoError(t, err)
}

func TestAccountCreate_InvalidRoleTouchesNothing(t *testing.T) {
	f := newFixture()
	in := validAccount()
	in.Roles = []string{model.RoleAdmin, "Admin"}

	_, err := f.accountSvc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Empty(t, f.accounts.rows)
	assert.Zero(t, f.roles.count(model.RoleAdmin))
}

func TestStoreErr_DuplicateFromStore(t *testing.T) {
	err := storeErr(&repository.DuplicateKeyError{Field: "username"}, nil)
	var dup *DuplicateValueError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)

	assert.ErrorIs(t, storeErr(repository.ErrAccountNotFound, ErrAccountNotFound), ErrNotFound)

	internal := storeErr(errors.New("connection refused"), nil)
	assert.NotErrorIs(t, internal, ErrNotFound)
	assert.Contains(t, internal.Error(), "store:")
}

func TestAccountUpdate_EmptyIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)
	before, err := f.accounts.GetByID(ctx, created.ID)
	require.NoError(t, err)

	got, err := f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{FirstName: strPtr("   ")})
	require.NoError(t, err)

	after, err := f.accounts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, created, got)
	assert.Zero(t, f.accounts.updates)
}

func TestAccountUpdate_PartialFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	got, err := f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{LastName: strPtr(" Byron ")})
	require.NoError(t, err)
	assert.Equal(t, "Byron", got.LastName)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "ada@gym.test", got.Email)
	assert.Equal(t, []string{model.RoleReceptionist}, got.Roles)
}

func TestAccountUpdate_PasswordIsHashed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	_, err = f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{Password: strPtr("brand-new-pass")})
	require.NoError(t, err)

	stored, err := f.accounts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "brand-new-pass", stored.PasswordHash)
	assert.True(t, f.hasher.Verify("brand-new-pass", stored.PasswordHash))
	assert.False(t, f.hasher.Verify("s3cret-pass", stored.PasswordHash))
}

func TestAccountUpdate_DuplicateEmailWritesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)
	second := validAccount()
	second.Email, second.Username = "bob@gym.test", "bob"
	other, err := f.accountSvc.Create(ctx, second)
	require.NoError(t, err)

	_, err = f.accountSvc.Update(ctx, other.ID, UpdateAccountInput{
		FirstName: strPtr("Robert"),
		Email:     strPtr(first.Email),
	})
	var dup *DuplicateValueError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)

	stored, err := f.accounts.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.FirstName)
	assert.Equal(t, "bob@gym.test", stored.Email)
}

func TestAccountUpdate_OwnEmailIsNotDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	_, err = f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{Email: strPtr(created.Email), Username: strPtr(created.Username)})
	assert.NoError(t, err)
}

func TestAccountUpdate_Roles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := validAccount()
	in.Roles = []string{model.RoleAdmin}
	created, err := f.accountSvc.Create(ctx, in)
	require.NoError(t, err)

	got, err := f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{FirstName: strPtr("Augusta")})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleAdmin}, got.Roles, "absent roles leave the set alone")

	got, err = f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{Roles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleReceptionist}, got.Roles, "empty list resets to the default role")

	got, err = f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{Roles: []string{model.RoleAdmin, model.RoleReceptionist}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.RoleAdmin, model.RoleReceptionist}, got.Roles)

	_, err = f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{FirstName: strPtr("X"), Roles: []string{"owner"}})
	assert.ErrorIs(t, err, ErrInvalidRole)
	stored, err := f.accounts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", stored.FirstName)
}

func TestAccountUpdate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	_, err = f.accountSvc.Update(ctx, created.ID, UpdateAccountInput{Email: strPtr("nope")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestAccountUpdateDelete_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accountSvc.Update(ctx, 99, UpdateAccountInput{FirstName: strPtr("x")})
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, f.accountSvc.Delete(ctx, 99), ErrNotFound)
	_, err = f.accountSvc.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	require.NoError(t, f.accountSvc.Delete(ctx, created.ID))
	assert.Zero(t, f.accounts.linkCount(created.ID))
	list, err := f.accountSvc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAccountCreate_PublisherFailureIgnored(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("broker down")

	_, err := f.accountSvc.Create(context.Background(), validAccount())
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := validAccount()
	view, created, err := f.accountSvc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{model.RoleAdmin}, view.Roles)

	// Second run is a no-op apart from re-granting the role.
	again, created, err := f.accountSvc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, view.ID, again.ID)
	assert.Equal(t, []string{model.RoleAdmin}, again.Roles)
}

func TestEnsureAdmin_PromotesExistingByEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	staff, err := f.accountSvc.Create(ctx, validAccount())
	require.NoError(t, err)

	in := validAccount()
	in.Username = "root-admin"
	view, created, err := f.accountSvc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, staff.ID, view.ID)
	assert.ElementsMatch(t, []string{model.RoleReceptionist, model.RoleAdmin}, view.Roles)

	ok, err := f.roleSvc.UserHasRole(ctx, staff.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureAdmin_InvalidInput(t *testing.T) {
	f := newFixture()
	in := validAccount()
	in.Password = "x"
	_, created, err := f.accountSvc.EnsureAdmin(context.Background(), in)
	assert.False(t, created)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
