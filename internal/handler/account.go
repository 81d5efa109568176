package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/service"
)

// AccountHandler serves staff account administration and role management.
// Routes using it are restricted to admins by the router.
type AccountHandler struct {
	Accounts *service.AccountService
	Roles    *service.RoleService
	Log      *zap.Logger
}

// NewAccountHandler wires an AccountHandler.
func NewAccountHandler(accounts *service.AccountService, roles *service.RoleService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Roles: roles, Log: log}
}

type rolesReq struct {
	Roles []string `json:"roles"`
}

type roleReq struct {
	Role string `json:"role"`
}

// ----- accounts -----

// Create registers a new staff account.
func (h *AccountHandler) Create(c echo.Context) error {
	var req service.CreateAccountInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.Accounts.Create(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// List returns all accounts.
func (h *AccountHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	views, err := h.Accounts.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, views)
}

// Get returns one account.
func (h *AccountHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.Accounts.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update applies a partial update; PUT and PATCH share it because absent
// fields are never cleared.
func (h *AccountHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.UpdateAccountInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.Accounts.Update(ctx, id, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Delete removes an account.
func (h *AccountHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Accounts.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- roles of an account -----

// AssignRoles replaces the account's role set.
func (h *AccountHandler) AssignRoles(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req rolesReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	roles, err := h.Roles.Assign(ctx, id, req.Roles)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accountId": id, "roles": roles})
}

// GrantRole adds one role to the account.
func (h *AccountHandler) GrantRole(c echo.Context) error {
	return h.toggleRole(c, h.Roles.Grant)
}

// RevokeRole removes one role from the account.
func (h *AccountHandler) RevokeRole(c echo.Context) error {
	return h.toggleRole(c, h.Roles.Revoke)
}

func (h *AccountHandler) toggleRole(c echo.Context, op func(context.Context, uint64, string) error) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Role == "" {
		return writeError(c, h.Log, &service.ValidationError{Fields: map[string]string{"role": "cannot be blank"}})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := op(ctx, id, req.Role); err != nil {
		return writeError(c, h.Log, err)
	}
	roles, err := h.Roles.RolesOf(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accountId": id, "roles": roles})
}

// HasRole reports whether the account holds the named role.
func (h *AccountHandler) HasRole(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	name := c.Param("name")
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Accounts.Get(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	has, err := h.Roles.UserHasRole(ctx, id, name)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accountId": id, "role": name, "hasRole": has})
}
