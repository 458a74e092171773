package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telemed/telemed/internal/platform/db"
)

type profileRepoPG struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const profileCols = `id, user_id, full_name, age, weight, height, blood_group, allergies, current_medications, created_at, updated_at`

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM patient_profiles WHERE user_id = $1`, userID))
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_profiles (id, user_id, full_name, age, weight, height, blood_group, allergies, current_medications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.FullName, p.Age, p.Weight, p.Height, p.BloodGroup, p.Allergies, p.CurrentMedications,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_profiles SET
			full_name = $2, age = $3, weight = $4, height = $5,
			blood_group = $6, allergies = $7, current_medications = $8,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING id, created_at, updated_at`,
		p.UserID, p.FullName, p.Age, p.Weight, p.Height, p.BloodGroup, p.Allergies, p.CurrentMedications,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Age, &p.Weight, &p.Height,
		&p.BloodGroup, &p.Allergies, &p.CurrentMedications,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
