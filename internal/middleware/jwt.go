package middleware // reusable HTTP middleware for the echo router

import (
	"net/http" // status codes
	"strings"  // bearer prefix handling

	"github.com/labstack/echo/v4" // echo middleware signature and context

	"github.com/iliyamo/gym-management/internal/queue" // actor id for audit events
	"github.com/iliyamo/gym-management/internal/utils" // token claims
)

// Context keys set by JWTAuth.
const (
	ClaimsKey   = "claims"
	UserIDKey   = "user_id"
	UsernameKey = "username"
	RoleKey     = "role"
)

// TokenVerifier validates a raw access token.  *utils.TokenManager
// implements it.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// unauthorized is the one body every authentication failure gets; callers
// never learn whether the token was missing, expired or tampered with.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// JWTAuth returns an echo middleware that requires a valid Bearer access
// token.  On success the verified claims are stored under ClaimsKey, and the
// account id, username and role hint under UserIDKey, UsernameKey and
// RoleKey.  The account id is also attached to the request context so audit
// events name their actor.  Role policy is not enforced here; see
// RequireRole.
func JWTAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Expect "Authorization: Bearer <token>".  The scheme is matched
			// case-insensitively as RFC 6750 allows.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				return unauthorized(c)
			}
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return unauthorized(c)
			}

			// Signature, algorithm and expiry are all checked by the verifier.
			claims, err := verifier.Verify(raw)
			if err != nil {
				return unauthorized(c)
			}
			id, err := claims.AccountID()
			if err != nil {
				return unauthorized(c)
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, id)
			c.Set(UsernameKey, claims.Username)
			c.Set(RoleKey, claims.Role)

			req := c.Request()
			c.SetRequest(req.WithContext(queue.WithActor(req.Context(), id)))
			return next(c)
		}
	}
}
