package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/platform/auth"
)

// AuditEntry records who touched which clinical record and how.
type AuditEntry struct {
	UserID         string
	UserType       string
	Resource       string
	ConsultationID string
	Action         string // read, create, update, delete
	IPAddress      string
	Path           string
	Method         string
	Timestamp      time.Time
	RequestID      string
	StatusCode     int
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every access to consultation and patient profile routes. It
// must run after the session middleware so the caller is known.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			resource := auditResource(path)
			if resource == "" {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Resource:   resource,
				Path:       path,
				Method:     req.Method,
				Action:     httpMethodToAction(req.Method),
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			if p := auth.PrincipalFromContext(req.Context()); p != nil {
				entry.UserID = p.UserID.String()
				entry.UserType = p.UserType
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if resource == "consultations" {
				entry.ConsultationID = consultationIDFromPath(path)
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "phi_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("user_type", entry.UserType).
				Str("resource", entry.Resource).
				Str("consultation_id", entry.ConsultationID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("phi_access")

			return err
		}
	}
}

// auditResource returns "consultations" or "patient" for audited paths and
// "" for everything else.
func auditResource(path string) string {
	switch {
	case path == "/api/consultations" || strings.HasPrefix(path, "/api/consultations/"):
		return "consultations"
	case strings.HasPrefix(path, "/api/patient/"):
		return "patient"
	}
	return ""
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// consultationIDFromPath extracts the id from /api/consultations/<uuid>[/...].
func consultationIDFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/consultations/")
	if rest == path {
		return ""
	}
	seg := strings.SplitN(rest, "/", 2)[0]
	if _, err := uuid.Parse(seg); err != nil {
		return ""
	}
	return seg
}
