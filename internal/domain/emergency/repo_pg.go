package emergency

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zambuko/telehealth/internal/platform/db"
	"github.com/zambuko/telehealth/pkg/geo"
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

const emergencyCols = `id, patient_id, patient_name, phone, emergency_type, type_label,
	description, lat, lng, status, priority, assigned_unit, unit_name,
	response_minutes, created_at, updated_at, completed_at`

func scanEmergency(row pgx.Row) (*Emergency, error) {
	var e Emergency
	var lat, lng *float64
	err := row.Scan(&e.ID, &e.PatientID, &e.PatientName, &e.Phone, &e.EmergencyType,
		&e.TypeLabel, &e.Description, &lat, &lng, &e.Status, &e.Priority,
		&e.AssignedUnit, &e.UnitName, &e.ResponseMinutes,
		&e.CreatedAt, &e.UpdatedAt, &e.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lat != nil && lng != nil {
		e.Location = &geo.Point{Lat: *lat, Lng: *lng}
	}
	return &e, nil
}

func locationCols(e *Emergency) (lat, lng *float64) {
	if e.Location != nil {
		lat, lng = &e.Location.Lat, &e.Location.Lng
	}
	return lat, lng
}

func (r *repoPG) Create(ctx context.Context, e *Emergency) error {
	e.ID = uuid.New()
	lat, lng := locationCols(e)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO emergency (id, patient_id, patient_name, phone, emergency_type,
			type_label, description, lat, lng, status, priority, assigned_unit,
			unit_name, response_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.ID, e.PatientID, e.PatientName, e.Phone, e.EmergencyType,
		e.TypeLabel, e.Description, lat, lng, e.Status, e.Priority,
		e.AssignedUnit, e.UnitName, e.ResponseMinutes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Emergency, error) {
	return scanEmergency(r.conn(ctx).QueryRow(ctx,
		`SELECT `+emergencyCols+` FROM emergency WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, e *Emergency) error {
	lat, lng := locationCols(e)
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE emergency SET status=$2, priority=$3, assigned_unit=$4, unit_name=$5,
			response_minutes=$6, lat=$7, lng=$8, completed_at=$9, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Status, e.Priority, e.AssignedUnit, e.UnitName,
		e.ResponseMinutes, lat, lng, e.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Emergency, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+emergencyCols+` FROM emergency ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list emergencies: %w", err)
	}
	defer rows.Close()

	var out []*Emergency
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
