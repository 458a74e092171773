package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

const (
	UserTypePatient = "patient"
	UserTypeDoctor  = "doctor"
)

// ValidUserType reports whether t is one of the supported account types.
func ValidUserType(t string) bool {
	return t == UserTypePatient || t == UserTypeDoctor
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	UserType  string    `json:"user_type"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

func (p *Principal) IsPatient() bool { return p != nil && p.UserType == UserTypePatient }
func (p *Principal) IsDoctor() bool  { return p != nil && p.UserType == UserTypeDoctor }

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
