package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telemed/telemed/internal/domain/severity"
	"github.com/telemed/telemed/internal/platform/db"
)

const foreignKeyViolation = "23503"

type consultationRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consultationCols = `c.id, c.patient_id, c.doctor_id, c.title, c.description, c.form_responses,
	c.severity_level, c.prescription, c.status, c.created_at, c.updated_at,
	p.id, p.username, p.user_type`

const consultationFrom = ` FROM consultation_requests c JOIN users p ON p.id = c.patient_id`

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = StatusPending
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation_requests (
			id, patient_id, doctor_id, title, description, form_responses, severity_level, prescription, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.DoctorID, c.Title, c.Description,
		responsesArg(c.FormResponses), levelArg(c.SeverityLevel), c.Prescription, string(c.Status),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapWriteErr("consultation create", err)
}

func (r *consultationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx, `SELECT `+consultationCols+consultationFrom+` WHERE c.id = $1`, id))
}

func (r *consultationRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+consultationFrom+` WHERE c.id = $1 FOR UPDATE OF c`, id))
}

func (r *consultationRepoPG) Update(ctx context.Context, c *Consultation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE consultation_requests SET
			doctor_id = $2, title = $3, description = $4, form_responses = $5,
			severity_level = $6, prescription = $7, status = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.DoctorID, c.Title, c.Description,
		responsesArg(c.FormResponses), levelArg(c.SeverityLevel), c.Prescription, string(c.Status),
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return mapWriteErr("consultation update", err)
}

func (r *consultationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return r.List(ctx, ListFilter{PatientID: &patientID, Limit: limit, Offset: offset})
}

func (r *consultationRepoPG) List(ctx context.Context, filter ListFilter) ([]*Consultation, int, error) {
	var where []string
	var args []interface{}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		where = append(where, fmt.Sprintf("c.patient_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation_requests c`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + consultationCols + consultationFrom + whereClause +
		fmt.Sprintf(` ORDER BY c.created_at DESC, c.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *consultationRepoPG) CreateReply(ctx context.Context, reply *Reply) error {
	reply.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation_replies (id, consultation_id, user_id, message)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		reply.ID, reply.ConsultationID, reply.UserID, reply.Message,
	).Scan(&reply.CreatedAt)
	return mapWriteErr("reply create", err)
}

func (r *consultationRepoPG) ListReplies(ctx context.Context, consultationID uuid.UUID) ([]*Reply, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, consultation_id, user_id, message, created_at
		FROM consultation_replies
		WHERE consultation_id = $1
		ORDER BY created_at ASC, id`, consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []*Reply{}
	for rows.Next() {
		var reply Reply
		if err := rows.Scan(&reply.ID, &reply.ConsultationID, &reply.UserID, &reply.Message, &reply.CreatedAt); err != nil {
			return nil, err
		}
		replies = append(replies, &reply)
	}
	return replies, rows.Err()
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var (
		c      Consultation
		p      PatientSummary
		level  *string
		status string
	)
	err := row.Scan(
		&c.ID, &c.PatientID, &c.DoctorID, &c.Title, &c.Description, &c.FormResponses,
		&level, &c.Prescription, &status, &c.CreatedAt, &c.UpdatedAt,
		&p.ID, &p.Username, &p.UserType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if level != nil {
		l := severity.Level(*level)
		c.SeverityLevel = &l
	}
	c.Status = Status(status)
	c.Patient = &p
	return &c, nil
}

// responsesArg keeps a nil response set as SQL NULL rather than JSON null.
func responsesArg(responses map[string]int) interface{} {
	if responses == nil {
		return nil
	}
	return responses
}

func levelArg(level *severity.Level) *string {
	if level == nil {
		return nil
	}
	s := string(*level)
	return &s
}

func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrUnknownReference
	}
	return fmt.Errorf("%s: %w", op, err)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
