package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// RoleHandler lists the role vocabulary and the role rows created so far.
type RoleHandler struct {
	Roles *service.RoleService
	Log   *zap.Logger
}

// NewRoleHandler wires a RoleHandler.
func NewRoleHandler(roles *service.RoleService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{Roles: roles, Log: log}
}

// List returns the stored roles plus the names that may be assigned.
func (h *RoleHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": roles, "allowed": model.AllowedRoles})
}
