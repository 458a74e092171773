package consultation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/domain/severity"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/db"
	"github.com/telemed/telemed/internal/platform/events"
)

// ValidationError is a client input problem reported verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Service struct {
	repo      Repository
	txdb      db.TxBeginner
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewService builds the consultation service. txdb may be nil, in which
// case updates run without a surrounding transaction; publisher may be nil
// to disable events.
func NewService(repo Repository, txdb db.TxBeginner, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		txdb:      txdb,
		publisher: publisher,
		logger:    logger.With().Str("component", "consultation").Logger(),
	}
}

// Create files a new consultation for the calling patient. The severity
// level is always computed from the submitted responses.
func (s *Service) Create(ctx context.Context, p *auth.Principal, in CreateInput) (*Consultation, error) {
	if !p.IsPatient() {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, &ValidationError{Message: "Title and description are required"}
	}

	c := &Consultation{
		PatientID:   p.UserID,
		Title:       title,
		Description: description,
		Status:      StatusPending,
	}
	if in.FormResponses != nil {
		if err := severity.Validate(in.FormResponses); err != nil {
			return nil, err
		}
		c.setResponses(in.FormResponses)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.Patient = &PatientSummary{ID: p.UserID, Username: p.Username, UserType: p.UserType}

	data := map[string]interface{}{"status": c.Status}
	if c.SeverityLevel != nil {
		data["severity_level"] = *c.SeverityLevel
	}
	s.publish(ctx, events.New(events.TypeConsultationCreated, c.ID, p.UserID, data))
	return c, nil
}

// List returns the consultations visible to the caller, newest first.
// Patients may only list their own.
func (s *Service) List(ctx context.Context, p *auth.Principal, filter ListFilter) ([]*Consultation, int, error) {
	switch {
	case p.IsPatient():
		if filter.PatientID != nil && *filter.PatientID != p.UserID {
			return nil, 0, ErrForbidden
		}
		if filter.Status != nil {
			filter.PatientID = &p.UserID
			return s.repo.List(ctx, filter)
		}
		return s.repo.ListByPatient(ctx, p.UserID, filter.Limit, filter.Offset)
	case p.IsDoctor():
		return s.repo.List(ctx, filter)
	}
	return nil, 0, ErrForbidden
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Detail, error) {
	c, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Consultation: c, Severity: c.Assessment()}, nil
}

// Update applies a patch inside a transaction. Doctors may change status,
// assignment and prescription; either party may replace the responses. A
// doctor who accepts an unassigned consultation becomes its doctor.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, patch Patch) (*Consultation, error) {
	if !p.IsPatient() && !p.IsDoctor() {
		return nil, ErrForbidden
	}

	var (
		updated *Consultation
		changed []string
	)
	err := s.inTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !c.VisibleTo(p.UserID, p.IsDoctor()) {
			return ErrForbidden
		}

		changed, err = applyPatch(c, p, patch)
		if err != nil {
			return err
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.TypeConsultationUpdated, updated.ID, p.UserID, map[string]interface{}{
		"changes": changed,
		"status":  updated.Status,
	}))
	return updated, nil
}

func applyPatch(c *Consultation, p *auth.Principal, patch Patch) ([]string, error) {
	changed := []string{}
	if p.IsDoctor() {
		if patch.Status.Value != nil && *patch.Status.Value != "" {
			st, err := ParseStatus(*patch.Status.Value)
			if err != nil {
				return nil, &ValidationError{Message: "status must be one of pending, accepted, completed, cancelled"}
			}
			c.Status = st
			changed = append(changed, "status")
			if st == StatusAccepted && c.DoctorID == nil && !patch.DoctorID.Set {
				doctorID := p.UserID
				c.DoctorID = &doctorID
				changed = append(changed, "doctor_id")
			}
		}
		if patch.DoctorID.Set {
			c.DoctorID = patch.DoctorID.Value
			changed = append(changed, "doctor_id")
		}
		if patch.Prescription.Set {
			c.Prescription = patch.Prescription.Value
			changed = append(changed, "prescription")
		}
	}
	if patch.FormResponses.Set {
		var responses map[string]int
		if patch.FormResponses.Value != nil {
			responses = *patch.FormResponses.Value
			if err := severity.Validate(responses); err != nil {
				return nil, err
			}
		}
		c.setResponses(responses)
		changed = append(changed, "form_responses", "severity_level")
	}
	return changed, nil
}

// AddReply posts a message to a consultation the caller can see.
func (s *Service) AddReply(ctx context.Context, p *auth.Principal, consultationID uuid.UUID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if consultationID == uuid.Nil || message == "" {
		return nil, &ValidationError{Message: "Consultation ID and message are required"}
	}
	if _, err := s.visible(ctx, p, consultationID); err != nil {
		return nil, err
	}

	reply := &Reply{ConsultationID: consultationID, UserID: p.UserID, Message: message}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.TypeConsultationReplyCreated, consultationID, p.UserID, map[string]interface{}{
		"reply_id":    reply.ID,
		"author_type": p.UserType,
	}))
	return reply, nil
}

// ListReplies returns the thread of a consultation in posting order.
func (s *Service) ListReplies(ctx context.Context, p *auth.Principal, consultationID uuid.UUID) ([]*Reply, error) {
	if _, err := s.visible(ctx, p, consultationID); err != nil {
		return nil, err
	}
	return s.repo.ListReplies(ctx, consultationID)
}

func (s *Service) visible(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Consultation, error) {
	if !p.IsPatient() && !p.IsDoctor() {
		return nil, ErrForbidden
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(p.UserID, p.IsDoctor()) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txdb == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.txdb, fn)
}

// publish sends e after the change is stored. Failures are logged and do
// not fail the request.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).
			Str("event_type", e.Type).
			Str("consultation_id", e.ConsultationID.String()).
			Msg("event publish failed")
	}
}
