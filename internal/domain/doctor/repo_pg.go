package doctor

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

const profileCols = `id, account_id, name, specialty, rating, status, emergency_capable,
	queue, total_consults, lat, lng, last_heartbeat, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var lat, lng *float64
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Specialty, &p.Rating, &p.Status,
		&p.EmergencyCapable, &p.Queue, &p.TotalConsults, &lat, &lng, &p.LastHeartbeat,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lat != nil && lng != nil {
		p.Location = &geo.Point{Lat: *lat, Lng: *lng}
	}
	return &p, nil
}

func locationCols(p *Profile) (lat, lng *float64) {
	if p.Location != nil {
		lat, lng = &p.Location.Lat, &p.Location.Lng
	}
	return lat, lng
}

func (r *repoPG) Create(ctx context.Context, p *Profile) error {
	p.ID = uuid.New()
	lat, lng := locationCols(p)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profile (id, account_id, name, specialty, rating, status,
			emergency_capable, queue, total_consults, lat, lng, last_heartbeat)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.AccountID, p.Name, p.Specialty, p.Rating, p.Status,
		p.EmergencyCapable, p.Queue, p.TotalConsults, lat, lng, p.LastHeartbeat)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM doctor_profile WHERE id = $1`, id))
}

func (r *repoPG) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM doctor_profile WHERE account_id = $1`, accountID))
}

func (r *repoPG) Update(ctx context.Context, p *Profile) error {
	lat, lng := locationCols(p)
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_profile SET name=$2, specialty=$3, rating=$4, status=$5,
			emergency_capable=$6, queue=$7, total_consults=$8, lat=$9, lng=$10,
			last_heartbeat=$11, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Specialty, p.Rating, p.Status,
		p.EmergencyCapable, p.Queue, p.TotalConsults, lat, lng, p.LastHeartbeat)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Profile, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+profileCols+` FROM doctor_profile ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list doctor profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
