package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/platform/auth"
)

type Service struct {
	users      UserRepository
	bcryptCost int
}

// NewService builds the account service. A zero bcryptCost selects the
// bcrypt default.
func NewService(users UserRepository, bcryptCost int) *Service {
	return &Service{users: users, bcryptCost: bcryptCost}
}

func (s *Service) CreateUser(ctx context.Context, username, password, userType string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if !auth.ValidUserType(userType) {
		return nil, fmt.Errorf("user_type must be patient or doctor")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &User{Username: username, PasswordHash: hash, UserType: userType}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}
