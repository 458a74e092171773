package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("consultation not found")
	ErrForbidden        = errors.New("consultation belongs to another patient")
	ErrUnknownReference = errors.New("referenced user does not exist")
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	// GetForUpdate loads a consultation and locks it for the surrounding
	// transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	List(ctx context.Context, filter ListFilter) ([]*Consultation, int, error)

	CreateReply(ctx context.Context, r *Reply) error
	ListReplies(ctx context.Context, consultationID uuid.UUID) ([]*Reply, error)
}
