package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SessionMiddleware authenticates requests from the session cookie and puts
// the Principal on the request context. Requests matched by skipper pass
// through untouched, except that a valid cookie still populates the
// principal.
func SessionMiddleware(m *SessionManager, store RevocationStore, skipper func(echo.Context) bool, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			skip := skipper != nil && skipper(c)

			p, err := authenticate(c, m, store)
			if err != nil {
				logger.Error().Err(err).Msg("session revocation lookup failed")
				if !skip {
					return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}
			if p == nil {
				if skip {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

// authenticate returns nil without error when the request carries no usable
// session.
func authenticate(c echo.Context, m *SessionManager, store RevocationStore) (*Principal, error) {
	cookie, err := c.Cookie(m.CookieName())
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	p, err := m.Parse(cookie.Value)
	if err != nil {
		return nil, nil
	}
	if store != nil {
		revoked, err := store.IsRevoked(c.Request().Context(), p.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, nil
		}
	}
	return p, nil
}
