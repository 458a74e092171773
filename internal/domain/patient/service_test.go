package patient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Profile Repository --

type mockProfileRepo struct {
	profiles map[uuid.UUID]*Profile
	creates  int
	updates  int
	err      error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) Create(_ context.Context, p *Profile) error {
	if _, ok := m.profiles[p.UserID]; ok {
		return fmt.Errorf("duplicate user_id")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.profiles[p.UserID] = &cp
	m.creates++
	return nil
}

func (m *mockProfileRepo) Update(_ context.Context, p *Profile) error {
	if _, ok := m.profiles[p.UserID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.profiles[p.UserID] = &cp
	m.updates++
	return nil
}

func newTestService() (*Service, *mockProfileRepo) {
	repo := newMockProfileRepo()
	return NewService(repo, nil), repo
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestService_GetProfile_None(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.GetProfile(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil profile, got %+v", p)
	}
}

func TestService_GetProfile_StorageError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("connection refused")
	if _, err := svc.GetProfile(context.Background(), uuid.New()); err == nil {
		t.Error("expected storage error")
	}
}

func TestService_SaveProfile_CreatesThenUpdates(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	first, err := svc.SaveProfile(context.Background(), userID, ProfileInput{FullName: strPtr("Jane Doe"), Age: intPtr(34)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == uuid.Nil || first.UserID != userID {
		t.Errorf("unexpected profile %+v", first)
	}

	second, err := svc.SaveProfile(context.Background(), userID, ProfileInput{FullName: strPtr("Jane Smith"), Weight: floatPtr(61.5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same profile id, got %s and %s", first.ID, second.ID)
	}
	if *second.FullName != "Jane Smith" || second.Age != nil || *second.Weight != 61.5 {
		t.Errorf("expected fields replaced, got %+v", second)
	}
	if repo.creates != 1 || repo.updates != 1 {
		t.Errorf("expected 1 create and 1 update, got %d and %d", repo.creates, repo.updates)
	}
	if len(repo.profiles) != 1 {
		t.Errorf("expected one profile per user, got %d", len(repo.profiles))
	}
}

func TestService_SaveProfile_Validation(t *testing.T) {
	svc, repo := newTestService()
	tests := []struct {
		name  string
		in    ProfileInput
		field string
	}{
		{"negative age", ProfileInput{Age: intPtr(-1)}, "age"},
		{"age too high", ProfileInput{Age: intPtr(151)}, "age"},
		{"zero weight", ProfileInput{Weight: floatPtr(0)}, "weight"},
		{"negative height", ProfileInput{Height: floatPtr(-170)}, "height"},
		{"blood group too long", ProfileInput{BloodGroup: strPtr("ABCDEFGHIJ")}, "blood_group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveProfile(context.Background(), uuid.New(), tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
	if len(repo.profiles) != 0 {
		t.Error("expected nothing stored")
	}
}

func TestService_SaveProfile_Bounds(t *testing.T) {
	svc, _ := newTestService()
	for _, age := range []int{0, 150} {
		if _, err := svc.SaveProfile(context.Background(), uuid.New(), ProfileInput{Age: intPtr(age)}); err != nil {
			t.Errorf("age %d: unexpected error %v", age, err)
		}
	}
}
