package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/telemed/telemed/internal/platform/db"
	"github.com/telemed/telemed/internal/platform/httpx"
)

type Service struct {
	profiles  ProfileRepository
	txdb      db.TxBeginner
	validator echo.Validator
}

// NewService builds the profile service. When txdb is nil, saves run
// without a surrounding transaction.
func NewService(profiles ProfileRepository, txdb db.TxBeginner) *Service {
	return &Service{profiles: profiles, txdb: txdb, validator: httpx.NewValidator()}
}

// GetProfile returns the user's profile, or nil when none has been saved.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SaveProfile creates the user's profile or replaces the existing one.
func (s *Service) SaveProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*Profile, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	var saved *Profile
	err := s.inTx(ctx, func(ctx context.Context) error {
		existing, err := s.profiles.GetByUserID(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
			p := &Profile{UserID: userID}
			in.apply(p)
			if err := s.profiles.Create(ctx, p); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
			saved = p
		case err != nil:
			return fmt.Errorf("load profile: %w", err)
		default:
			in.apply(existing)
			if err := s.profiles.Update(ctx, existing); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
			saved = existing
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txdb == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.txdb, fn)
}

// ValidationError reports a profile field outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// validateInput checks the validate tags on ProfileInput.
func (s *Service) validateInput(in ProfileInput) error {
	err := s.validator.Validate(&in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	field := fieldErrs[0].Field()
	return &ValidationError{Field: field, Message: strings.TrimPrefix(err.Error(), field+" ")}
}
