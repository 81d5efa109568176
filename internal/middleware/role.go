package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http" // standard HTTP status codes

	"github.com/labstack/echo/v4" // middleware chaining and context
	"go.uber.org/zap"
)

// RoleChecker answers whether an account holds a named role.
// *service.RoleService implements it.
type RoleChecker interface {
	UserHasRole(ctx context.Context, accountID uint64, name string) (bool, error)
}

// RequireRole returns a middleware that lets the request through only when
// the authenticated account holds at least one of roles.  Membership is
// read from the store on every request rather than from the token's role
// hint, so a revoked role stops working immediately.  It must run after
// JWTAuth.
func RequireRole(checker RoleChecker, log *zap.Logger, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// JWTAuth stores the account id; without it the caller is not
			// authenticated at all.
			id, ok := UserID(c)
			if !ok {
				return unauthorized(c)
			}
			ctx := c.Request().Context()
			for _, role := range roles {
				has, err := checker.UserHasRole(ctx, id, role)
				if err != nil {
					log.Error("role check failed", zap.Uint64("account_id", id), zap.String("role", role), zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
				if has {
					return next(c)
				}
			}
			// None of the accepted roles is linked to the account.
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}
