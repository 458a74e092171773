package patient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "patient").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patient", auth.RequireUserType(auth.UserTypePatient))
	g.GET("/profile", h.GetProfile)
	g.POST("/profile", h.SaveProfile)
}

// flexNumber accepts a JSON number or a numeric string. Null and blank
// strings leave it unset.
type flexNumber struct {
	value *float64
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		n.value = nil
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" {
		n.value = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	n.value = &f
	return nil
}

func (n flexNumber) intPtr() *int {
	if n.value == nil {
		return nil
	}
	v := int(*n.value)
	return &v
}

type profileRequest struct {
	FullName           *string    `json:"full_name"`
	Age                flexNumber `json:"age"`
	Weight             flexNumber `json:"weight"`
	Height             flexNumber `json:"height"`
	BloodGroup         *string    `json:"blood_group"`
	Allergies          *string    `json:"allergies"`
	CurrentMedications *string    `json:"current_medications"`
}

func (r profileRequest) input() ProfileInput {
	return ProfileInput{
		FullName:           r.FullName,
		Age:                r.Age.intPtr(),
		Weight:             r.Weight.value,
		Height:             r.Height.value,
		BloodGroup:         r.BloodGroup,
		Allergies:          r.Allergies,
		CurrentMedications: r.CurrentMedications,
	}
}

func (h *Handler) GetProfile(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	profile, err := h.svc.GetProfile(c.Request().Context(), p.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", p.UserID.String()).Msg("fetch profile")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch profile")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"profile": profile})
}

func (h *Handler) SaveProfile(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile data")
	}
	profile, err := h.svc.SaveProfile(c.Request().Context(), p.UserID, req.input())
	var verr *ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", p.UserID.String()).Msg("save profile")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save profile")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "profile": profile})
}
