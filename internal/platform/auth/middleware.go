package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Session resolves the session cookie on every request. A valid token puts
// "session_user" and "session_role" into the echo context; requests without a
// usable session pass through anonymous and are stopped by the role guards.
func Session(m *SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err == nil && cookie.Value != "" {
				if claims, err := m.Parse(cookie.Value); err == nil {
					c.Set("session_user", claims.Username)
					c.Set("session_role", claims.Role)
				}
			}
			return next(c)
		}
	}
}

// RequireRole guards JSON endpoints: the session role must be one of the
// given roles or the request fails with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("session_role").(string)
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequirePageRole guards HTML pages: anonymous or wrong-role visitors are
// redirected to the login page instead of receiving a JSON error.
func RequirePageRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("session_role").(string)
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return c.Redirect(http.StatusFound, "/")
		}
	}
}
