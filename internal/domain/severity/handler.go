package severity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/telemed/telemed/internal/platform/auth"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/severity/questions", h.ListQuestions)
	api.POST("/severity/classify", h.Classify, auth.RequireUserType(auth.UserTypePatient, auth.UserTypeDoctor))
}

type classifyRequest struct {
	Responses map[string]int `json:"responses"`
}

func (h *Handler) ListQuestions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"questions": Questions(),
		"max_score": MaxScore,
	})
}

// Classify previews the assessment of a response set without storing it.
// With ?strict=true the set must be complete.
func (h *Handler) Classify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusBadRequest {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "responses must map question ids to integer weights").SetInternal(err)
	}

	strict, _ := strconv.ParseBool(c.QueryParam("strict"))
	if strict {
		if err := Validate(req.Responses); err != nil {
			var incomplete *IncompleteError
			if errors.As(err, &incomplete) {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"error":   err.Error(),
					"missing": incomplete.Missing,
				})
			}
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	return c.JSON(http.StatusOK, Assess(req.Responses))
}
