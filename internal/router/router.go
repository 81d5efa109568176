package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/handler"    // handlers backed by the services
	"github.com/iliyamo/gym-management/internal/middleware" // JWT authentication and role policy
	"github.com/iliyamo/gym-management/internal/model"      // role names
)

// Guard bundles what every protected group needs: the token verifier for
// JWTAuth, the role checker for RequireRole and the response cache.
type Guard struct {
	Tokens middleware.TokenVerifier
	Roles  middleware.RoleChecker
	Cache  echo.MiddlewareFunc
	Log    *zap.Logger
}

// group creates a /v1 group that requires a valid token and, when roles are
// given, one of those roles.
func (g Guard) group(e *echo.Echo, prefix string, roles ...string) *echo.Group {
	mws := []echo.MiddlewareFunc{middleware.JWTAuth(g.Tokens)}
	if len(roles) > 0 {
		mws = append(mws, middleware.RequireRole(g.Roles, g.Log, roles...))
	}
	return e.Group("/v1"+prefix, mws...)
}

// cached appends the response cache to a group's middleware.  Reads are
// served from redis; successful writes invalidate every cached read.
func (g Guard) cached(grp *echo.Group) *echo.Group {
	if g.Cache != nil {
		grp.Use(g.Cache)
	}
	return grp
}

// RegisterRoutes registers routes that do not require authentication:
// liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Load balancers poll /healthz; /readyz also checks MySQL and redis.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterAuth registers login (public) and the caller's own profile
// (any authenticated account).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guard) {
	// Login does not require an existing session.
	e.POST("/v1/auth/login", a.Login)

	// /v1/me only needs a valid token; no role policy applies and the
	// response is per caller, so it is never cached.
	me := g.group(e, "")
	me.GET("/me", a.Me)
}

// RegisterRoles exposes the role list to any authenticated account.
func RegisterRoles(e *echo.Echo, r *handler.RoleHandler, g Guard) {
	grp := g.cached(g.group(e, "/roles"))
	grp.GET("", r.List)
}

// staffRoles may work the front desk.
var staffRoles = []string{model.RoleAdmin, model.RoleReceptionist}
