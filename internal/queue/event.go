// Package queue defines the audit events exchanged over RabbitMQ together
// with the publisher used by services and the consumer that writes them to
// the audit log.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	AccountCreated    = "account.created"
	AccountUpdated    = "account.updated"
	AccountDeleted    = "account.deleted"
	RolesAssigned     = "account.roles_assigned"
	RoleGranted       = "account.role_granted"
	RoleRevoked       = "account.role_revoked"
	LoginSucceeded    = "auth.login_succeeded"
	MemberCreated     = "member.created"
	MemberUpdated     = "member.updated"
	MemberRenewed     = "member.renewed"
	MemberDeactivated = "member.deactivated"
	MemberDeleted     = "member.deleted"
)

// Event is a single audit record.  It carries enough context for the
// consumer to log it without querying the database; it never contains
// passwords or password hashes.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Entity     string            `json:"entity"`
	EntityID   uint64            `json:"entity_id"`
	ActorID    uint64            `json:"actor_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt string            `json:"occurred_at"`
}

// NewEvent builds an Event stamped with a fresh id, the current UTC time
// and the actor stored in ctx, if any.
func NewEvent(ctx context.Context, typ, entity string, entityID uint64, data map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Entity:     entity,
		EntityID:   entityID,
		ActorID:    ActorFrom(ctx),
		Data:       data,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

type actorKey struct{}

// WithActor returns a context carrying the id of the authenticated account.
func WithActor(ctx context.Context, accountID uint64) context.Context {
	return context.WithValue(ctx, actorKey{}, accountID)
}

// ActorFrom returns the actor stored by WithActor, or 0.
func ActorFrom(ctx context.Context) uint64 {
	id, _ := ctx.Value(actorKey{}).(uint64)
	return id
}
