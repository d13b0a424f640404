package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/authz"
)

const subjectKey = "subject"

// CurrentSubject returns the caller stored by JWTAuth.
func CurrentSubject(c echo.Context) (authz.Subject, bool) {
	s, ok := c.Get(subjectKey).(authz.Subject)
	return s, ok
}

// userID returns the caller id as a string, or "guest" on public routes.
func userID(c echo.Context) string {
	if s, ok := CurrentSubject(c); ok {
		return strconv.FormatUint(s.ID, 10)
	}
	return "guest"
}
