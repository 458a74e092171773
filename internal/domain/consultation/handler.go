package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/domain/severity"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "consultation").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/consultations", auth.RequireUserType(auth.UserTypePatient, auth.UserTypeDoctor))
	g.GET("", h.List)
	g.POST("", h.Create, auth.RequireUserType(auth.UserTypePatient))
	g.POST("/replies", h.CreateReply)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.GET("/:id/replies", h.ListReplies)
	g.POST("/:id/replies", h.CreateReplyForConsultation)
}

type listResponse struct {
	Consultations []*Consultation `json:"consultations"`
	pagination.Meta
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{Limit: pg.Limit, Offset: pg.Offset}

	if s := c.QueryParam("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be one of pending, accepted, completed, cancelled")
		}
		filter.Status = &st
	}
	if s := c.QueryParam("patient_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = &id
	}

	items, total, err := h.svc.List(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context()), filter)
	if err != nil {
		return h.toHTTPError(err, "Failed to fetch consultations")
	}
	return c.JSON(http.StatusOK, listResponse{Consultations: items, Meta: pg.Meta(total)})
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return bindError(err, "invalid consultation request")
	}
	created, err := h.svc.Create(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context()), in)
	if err != nil {
		return h.respondError(c, err, "Failed to create consultation")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "consultation": created})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.Get(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context()), id)
	if err != nil {
		return h.toHTTPError(err, "Failed to fetch consultation")
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return bindError(err, "invalid consultation update")
	}
	updated, err := h.svc.Update(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context()), id, patch)
	if err != nil {
		return h.respondError(c, err, "Failed to update consultation")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "consultation": updated})
}

func (h *Handler) ListReplies(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	replies, err := h.svc.ListReplies(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context()), id)
	if err != nil {
		return h.toHTTPError(err, "Failed to fetch replies")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"replies": replies})
}

type replyRequest struct {
	ConsultationID string `json:"consultation_id"`
	Message        string `json:"message"`
}

// CreateReply accepts the consultation id in the body.
func (h *Handler) CreateReply(c echo.Context) error {
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err, "Consultation ID and message are required")
	}
	if req.ConsultationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Consultation ID and message are required")
	}
	id, err := uuid.Parse(req.ConsultationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation_id")
	}
	return h.addReply(c, id, req.Message)
}

// CreateReplyForConsultation takes the consultation id from the path.
func (h *Handler) CreateReplyForConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err, "Consultation ID and message are required")
	}
	return h.addReply(c, id, req.Message)
}

func (h *Handler) addReply(c echo.Context, id uuid.UUID, message string) error {
	reply, err := h.svc.AddReply(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context()), id, message)
	if err != nil {
		return h.toHTTPError(err, "Failed to create reply")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "reply": reply})
}

// respondError writes incomplete severity submissions with the list of
// missing questions and maps everything else through toHTTPError.
func (h *Handler) respondError(c echo.Context, err error, fallback string) error {
	var incomplete *severity.IncompleteError
	if errors.As(err, &incomplete) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   incomplete.Error(),
			"missing": incomplete.Missing,
		})
	}
	return h.toHTTPError(err, fallback)
}

func (h *Handler) toHTTPError(err error, fallback string) error {
	var (
		verr    *ValidationError
		invalid *severity.InvalidAnswerError
		incompl *severity.IncompleteError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Consultation not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrUnknownReference):
		return echo.NewHTTPError(http.StatusBadRequest, "referenced user or consultation does not exist")
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	case errors.As(err, &invalid), errors.As(err, &incompl):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.logger.Error().Err(err).Msg(fallback)
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}

// bindError keeps the decoder's 400 so the client learns which field or
// offset was wrong.
func bindError(err error, fallback string) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusBadRequest {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, fallback).SetInternal(err)
}
