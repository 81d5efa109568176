// Package service holds the identity and member-lifecycle business rules.
// Services depend on the store interfaces below rather than on concrete
// repositories, and return the typed errors from errors.go so the HTTP layer
// can map them to status codes in one place.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/utils"
)

// AccountStore persists accounts and their role links.
// *repository.AccountRepo implements it.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account, roleIDs []uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	Update(ctx context.Context, id uint64, ch *repository.Changes) error
	Delete(ctx context.Context, id uint64) error

	AddRole(ctx context.Context, accountID, roleID uint64) error
	RemoveRole(ctx context.Context, accountID, roleID uint64) error
	ListRoles(ctx context.Context, accountID uint64) ([]model.Role, error)
	HasRole(ctx context.Context, accountID, roleID uint64) (bool, error)
	ReplaceRoles(ctx context.Context, accountID uint64, roleIDs []uint64) error
}

// RoleStore persists role rows.  *repository.RoleRepo implements it.
type RoleStore interface {
	Create(ctx context.Context, name string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	GetByID(ctx context.Context, id uint64) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
}

// MemberStore persists gym members.  *repository.MemberRepo implements it.
type MemberStore interface {
	Create(ctx context.Context, m *model.Member) error
	GetByID(ctx context.Context, id uint64) (*model.Member, error)
	GetByEmail(ctx context.Context, email string) (*model.Member, error)
	List(ctx context.Context) ([]*model.Member, error)
	Update(ctx context.Context, id uint64, ch *repository.Changes) error
	Delete(ctx context.Context, id uint64) error
}

// PasswordHasher hashes and verifies passwords.  *utils.Hasher implements it.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer signs access tokens.  *utils.TokenManager implements it.
type TokenIssuer interface {
	Issue(accountID uint64, username, role string) (utils.AccessToken, error)
}

// EventPublisher accepts audit events.  *queue.Publisher and queue.Nop
// implement it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// emitter publishes audit events; a failure is logged and never reaches the
// caller of the business operation.
type emitter struct {
	pub EventPublisher
	log *zap.Logger
}

func (e emitter) emit(ctx context.Context, typ, entity string, id uint64, data map[string]string) {
	if e.pub == nil {
		return
	}
	ev := queue.NewEvent(ctx, typ, entity, id, data)
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("audit event not published",
			zap.String("type", typ), zap.Uint64("entity_id", id), zap.Error(err))
	}
}

func nopLogger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// trimmed returns nil for a nil or blank pointer and a trimmed copy
// otherwise, so validation and the change set agree on what is "absent".
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// blankToNil keeps the value as typed but drops a blank one.
func blankToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
