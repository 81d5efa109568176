package handler

import (
	"errors"
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // routing and request context
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/middleware" // identity stored by JWTAuth
	"github.com/iliyamo/gym-management/internal/service"    // business rules
)

// AuthHandler bundles dependencies for the login and profile endpoints.
type AuthHandler struct {
	Auth     *service.AuthService
	Accounts *service.AccountService
	Log      *zap.Logger
}

// NewAuthHandler wires an AuthHandler.
func NewAuthHandler(auth *service.AuthService, accounts *service.AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Accounts: accounts, Log: log}
}

// Login exchanges an identifier (username or email) and password for an
// access token.  Bad credentials always produce the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Auth.Authenticate(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"account":     res.Account,
		"accessToken": res.Token,
		"tokenType":   "Bearer",
		"expiresAt":   res.ExpiresAt,
	})
}

// Me returns the authenticated account with its current roles.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return writeError(c, h.Log, service.ErrUnauthorized)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.Accounts.Get(ctx, id)
	if err != nil {
		// A valid token for a deleted account is no longer a valid identity.
		if errors.Is(err, service.ErrAccountNotFound) {
			return writeError(c, h.Log, service.ErrUnauthorized)
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, view)
}
