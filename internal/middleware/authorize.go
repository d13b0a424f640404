package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/authz"
)

// Authorize rejects callers whose role may not perform act on res. It must
// run after JWTAuth. Ownership of individual records is checked by the
// handlers, which know the owner.
func Authorize(p authz.Policy, res authz.Resource, act authz.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := CurrentSubject(c)
			if !ok {
				return unauthorized(c, "unauthorized")
			}
			if !p.Allows(s.Role, res, act) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "code": "FORBIDDEN"})
			}
			return next(c)
		}
	}
}
