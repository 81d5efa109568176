package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/handler"
	"github.com/iliyamo/gym-management/internal/model"
)

// RegisterAccounts registers staff account administration under
// /v1/accounts.  Every route requires a valid JWT and the admin role.
func RegisterAccounts(e *echo.Echo, a *handler.AccountHandler, g Guard) {
	grp := g.cached(g.group(e, "/accounts", model.RoleAdmin))

	// ---- Accounts ----
	grp.GET("", a.List)
	grp.POST("", a.Create)
	grp.GET("/:id", a.Get)
	grp.PUT("/:id", a.Update)
	grp.PATCH("/:id", a.Update) // same partial semantics as PUT
	grp.DELETE("/:id", a.Delete)

	// ---- Roles of an account ----
	grp.PUT("/:id/roles", a.AssignRoles)        // replace the whole set
	grp.POST("/:id/roles/grant", a.GrantRole)   // add one role
	grp.POST("/:id/roles/revoke", a.RevokeRole) // remove one role
	grp.GET("/:id/roles/:name", a.HasRole)
}
