package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
)

// LoginInput carries the credentials of a login attempt.  Identifier is a
// username or an email address.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate requires both fields.
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Identifier, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Account   model.AccountView `json:"account"`
	Token     string            `json:"accessToken"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// AuthService verifies credentials and issues access tokens.
type AuthService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   emitter
	log      *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires an AuthService.
func NewAuthService(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, pub EventPublisher, log *zap.Logger) *AuthService {
	log = nopLogger(log)
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		events:   emitter{pub: pub, log: log},
		log:      log,
	}
}

// Authenticate looks the identifier up as a username first and as an email
// second, then checks the password.  Both an unknown identifier and a wrong
// password produce ErrInvalidCredentials; a hash comparison runs in either
// case so response times do not tell them apart.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := in.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	a, err := s.lookup(ctx, in.Identifier)
	if err != nil {
		return nil, err
	}
	if a == nil {
		s.hasher.Verify(in.Password, s.dummy())
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(in.Password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	roles, err := s.accounts.ListRoles(ctx, a.ID)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	a.Roles = roles

	tok, err := s.tokens.Issue(a.ID, a.Username, roleHint(roles))
	if err != nil {
		return nil, err
	}

	s.events.emit(queue.WithActor(ctx, a.ID), queue.LoginSucceeded, "account", a.ID, nil)
	return &AuthResult{Account: a.View(), Token: tok.Token, ExpiresAt: tok.Exp}, nil
}

// lookup returns nil, nil when neither a username nor an email matches.
func (s *AuthService) lookup(ctx context.Context, identifier string) (*model.Account, error) {
	a, err := s.accounts.GetByUsername(ctx, identifier)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, storeErr(err, nil)
	}
	a, err = s.accounts.GetByEmail(ctx, identifier)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, storeErr(err, nil)
	}
	return nil, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.log.Warn("auth: dummy hash unavailable", zap.Error(err))
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// roleHint picks the role embedded in the token: admin when held, otherwise
// the first linked role.
func roleHint(roles []model.Role) string {
	for _, r := range roles {
		if r.Name == model.RoleAdmin {
			return r.Name
		}
	}
	if len(roles) > 0 {
		return roles[0].Name
	}
	return ""
}
