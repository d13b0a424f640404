package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/utils"
)

// JWTAuth validates the Bearer access token and stores the caller as an
// authz.Subject in the echo context. Handlers read it back with
// CurrentSubject.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c, "invalid or expired token")
			}
			id, err := claims.UserID()
			if err != nil || id == 0 {
				return unauthorized(c, "invalid token subject")
			}
			role := model.Role(claims.Role)
			if !role.Valid() {
				return unauthorized(c, "invalid token role")
			}

			c.Set(subjectKey, authz.Subject{ID: id, Email: claims.Email, Role: role})
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": "UNAUTHORIZED"})
}
