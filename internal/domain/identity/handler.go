package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/platform/auth"
)

type Handler struct {
	svc         *Service
	sessions    *auth.SessionManager
	revocations auth.RevocationStore
	logger      zerolog.Logger
}

func NewHandler(svc *Service, sessions *auth.SessionManager, revocations auth.RevocationStore, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		sessions:    sessions,
		revocations: revocations,
		logger:      logger.With().Str("component", "identity").Logger(),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me, auth.RequireUserType(auth.UserTypePatient, auth.UserTypeDoctor))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, authResponse{Message: "Username and password are required"})
	}

	ctx := c.Request().Context()
	u, err := h.svc.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, authResponse{Message: "Invalid username or password"})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, authResponse{Message: "An error occurred during login"})
	}

	token, p, err := h.sessions.Issue(u.ID, u.Username, u.UserType)
	if err != nil {
		h.logger.Error().Err(err).Msg("issue session")
		return c.JSON(http.StatusInternalServerError, authResponse{Message: "An error occurred during login"})
	}
	c.SetCookie(h.sessions.Cookie(token))
	h.logger.Info().Str("user_id", u.ID.String()).Str("session_id", p.TokenID).Msg("login")

	return c.JSON(http.StatusOK, authResponse{Success: true, User: u, Message: "Login successful"})
}

// Logout revokes the current session, if any, and clears the cookie. It
// succeeds even without a session.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if p := auth.PrincipalFromContext(ctx); p != nil && h.revocations != nil {
		if err := h.revocations.Revoke(ctx, p.TokenID, p.UserID.String(), p.ExpiresAt); err != nil {
			h.logger.Warn().Err(err).Str("session_id", p.TokenID).Msg("session revocation failed")
		}
	}
	c.SetCookie(h.sessions.ClearCookie())
	return c.JSON(http.StatusOK, authResponse{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) Me(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	u, err := h.svc.GetUser(c.Request().Context(), p.UserID)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": u})
}
