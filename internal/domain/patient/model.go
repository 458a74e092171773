package patient

import (
	"time"

	"github.com/google/uuid"
)

// Profile maps to the patient_profiles table. A patient has at most one.
type Profile struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
	FullName           *string   `db:"full_name" json:"full_name,omitempty"`
	Age                *int      `db:"age" json:"age,omitempty"`
	Weight             *float64  `db:"weight" json:"weight,omitempty"`
	Height             *float64  `db:"height" json:"height,omitempty"`
	BloodGroup         *string   `db:"blood_group" json:"blood_group,omitempty"`
	Allergies          *string   `db:"allergies" json:"allergies,omitempty"`
	CurrentMedications *string   `db:"current_medications" json:"current_medications,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileInput is the replaceable part of a profile. Nil fields are stored
// as NULL.
type ProfileInput struct {
	FullName           *string  `json:"full_name" validate:"omitempty,max=255"`
	Age                *int     `json:"age" validate:"omitempty,gte=0,lte=150"`
	Weight             *float64 `json:"weight" validate:"omitempty,gt=0"`
	Height             *float64 `json:"height" validate:"omitempty,gt=0"`
	BloodGroup         *string  `json:"blood_group" validate:"omitempty,max=8"`
	Allergies          *string  `json:"allergies"`
	CurrentMedications *string  `json:"current_medications"`
}

func (in ProfileInput) apply(p *Profile) {
	p.FullName = in.FullName
	p.Age = in.Age
	p.Weight = in.Weight
	p.Height = in.Height
	p.BloodGroup = in.BloodGroup
	p.Allergies = in.Allergies
	p.CurrentMedications = in.CurrentMedications
}
