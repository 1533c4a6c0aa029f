package consultation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zambuko/telehealth/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const consultationCols = `id, patient_id, doctor_id, symptoms, triage_level, status,
	payment_status, notes, created_at, accepted_at, started_at, ended_at,
	duration_seconds, updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Symptoms, &c.TriageLevel,
		&c.Status, &c.PaymentStatus, &c.Notes, &c.CreatedAt, &c.AcceptedAt,
		&c.StartedAt, &c.EndedAt, &c.DurationSeconds, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (id, patient_id, doctor_id, symptoms, triage_level,
			status, payment_status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.PatientID, c.DoctorID, c.Symptoms, c.TriageLevel,
		c.Status, c.PaymentStatus, c.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultation WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET status=$2, payment_status=$3, notes=$4,
			accepted_at=$5, started_at=$6, ended_at=$7, duration_seconds=$8,
			updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Status, c.PaymentStatus, c.Notes,
		c.AcceptedAt, c.StartedAt, c.EndedAt, c.DurationSeconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx,
		`SELECT `+consultationCols+` FROM consultation
		 WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx,
		`SELECT `+consultationCols+` FROM consultation
		 WHERE doctor_id = $1 ORDER BY created_at DESC`, doctorID)
}

func (r *repoPG) ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx,
		`SELECT `+consultationCols+` FROM consultation
		 WHERE doctor_id = $1 AND status = $2 ORDER BY created_at`,
		doctorID, StatusPending)
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	var out []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
