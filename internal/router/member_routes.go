package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/handler"
)

// RegisterMembers registers the member lifecycle endpoints under
// /v1/members.  Admins and receptionists may use all of them.
func RegisterMembers(e *echo.Echo, m *handler.MemberHandler, g Guard) {
	grp := g.cached(g.group(e, "/members", staffRoles...))

	grp.GET("", m.List)
	grp.POST("", m.Create)
	grp.GET("/:id", m.Get)
	grp.PUT("/:id", m.Update)
	grp.PATCH("/:id", m.Update)
	grp.DELETE("/:id", m.Delete)

	// Business operations with fixed outcomes.
	grp.POST("/:id/renew", m.Renew)
	grp.POST("/:id/deactivate", m.Deactivate)
}
