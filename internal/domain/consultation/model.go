package consultation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/severity"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// PatientSummary is the public part of the requesting patient's account.
type PatientSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	UserType string    `json:"user_type"`
}

// Consultation maps to the consultation_requests table.
type Consultation struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID      *uuid.UUID      `db:"doctor_id" json:"doctor_id"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	FormResponses map[string]int  `db:"form_responses" json:"form_responses"`
	SeverityLevel *severity.Level `db:"severity_level" json:"severity_level"`
	Prescription  *string         `db:"prescription" json:"prescription"`
	Status        Status          `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	Patient       *PatientSummary `json:"patient,omitempty"`
}

// VisibleTo reports whether a caller of the given type may read the
// consultation. Doctors see every consultation; patients only their own.
func (c *Consultation) VisibleTo(userID uuid.UUID, isDoctor bool) bool {
	return isDoctor || c.PatientID == userID
}

// setResponses stores a response set and its recomputed level. A nil set
// clears both.
func (c *Consultation) setResponses(responses map[string]int) {
	c.FormResponses = responses
	if responses == nil {
		c.SeverityLevel = nil
		return
	}
	level := severity.Classify(responses).Level
	c.SeverityLevel = &level
}

// Assessment re-classifies the stored responses for review. It returns nil
// when the consultation has none.
func (c *Consultation) Assessment() *severity.Assessment {
	if c.FormResponses == nil {
		return nil
	}
	a := severity.Assess(c.FormResponses)
	return &a
}

// Reply maps to the consultation_replies table.
type Reply struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Message        string    `db:"message" json:"message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type CreateInput struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	FormResponses map[string]int `json:"form_responses"`
}

// Optional is a patch field that tells an absent key apart from an
// explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Patch is a partial update. Status, doctor and prescription are applied
// for doctors only; form responses for either party.
type Patch struct {
	Status        Optional[string]         `json:"status"`
	DoctorID      Optional[uuid.UUID]      `json:"doctor_id"`
	Prescription  Optional[string]         `json:"prescription"`
	FormResponses Optional[map[string]int] `json:"form_responses"`
}

type ListFilter struct {
	PatientID *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}

// Detail is a consultation with its re-computed severity review.
type Detail struct {
	Consultation *Consultation        `json:"consultation"`
	Severity     *severity.Assessment `json:"severity"`
}
