package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/service"
)

// MemberHandler serves the member lifecycle endpoints (front desk and
// admins).
type MemberHandler struct {
	Members *service.MemberService
	Log     *zap.Logger
}

// NewMemberHandler wires a MemberHandler.
func NewMemberHandler(members *service.MemberService, log *zap.Logger) *MemberHandler {
	return &MemberHandler{Members: members, Log: log}
}

type renewReq struct {
	Months int `json:"months"`
}

// Create registers a member; missing tier, status and dates get defaults.
func (h *MemberHandler) Create(c echo.Context) error {
	var req service.CreateMemberInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Members.Create(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// List returns all members.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ms, err := h.Members.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ms)
}

// Get returns one member.
func (h *MemberHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Members.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update applies a partial update (PUT and PATCH).
func (h *MemberHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.UpdateMemberInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Members.Update(ctx, id, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Renew extends a membership by the requested number of months.
func (h *MemberHandler) Renew(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req renewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Members.Renew(ctx, id, req.Months)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Deactivate marks a membership INACTIVE.
func (h *MemberHandler) Deactivate(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Members.Deactivate(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes a member.
func (h *MemberHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Members.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
