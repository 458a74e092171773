package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireUserType returns middleware that only lets through authenticated
// callers of one of the given account types. Everyone else gets 401.
func RequireUserType(types ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			for _, t := range types {
				if p.UserType == t {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
	}
}
