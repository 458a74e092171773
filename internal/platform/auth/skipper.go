package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass the session middleware.
var publicPaths = map[string]bool{
	"/health":                 true,
	"/health/db":              true,
	"/api/auth/login":         true,
	"/api/auth/logout":        true,
	"/api/severity/questions": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is served without a session.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
