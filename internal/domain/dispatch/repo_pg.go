package dispatch

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

const unitCols = `id, account_id, name, unit_type, status, lat, lng, created_at, updated_at`

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	var lat, lng *float64
	err := row.Scan(&u.ID, &u.AccountID, &u.Name, &u.Type, &u.Status, &lat, &lng,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lat != nil && lng != nil {
		u.Location = &geo.Point{Lat: *lat, Lng: *lng}
	}
	return &u, nil
}

func locationCols(u *Unit) (lat, lng *float64) {
	if u.Location != nil {
		lat, lng = &u.Location.Lat, &u.Location.Lng
	}
	return lat, lng
}

func (r *repoPG) Create(ctx context.Context, u *Unit) error {
	u.ID = uuid.New()
	lat, lng := locationCols(u)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dispatch_unit (id, account_id, name, unit_type, status, lat, lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.AccountID, u.Name, u.Type, u.Status, lat, lng)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return scanUnit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+unitCols+` FROM dispatch_unit WHERE id = $1`, id))
}

func (r *repoPG) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Unit, error) {
	return scanUnit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+unitCols+` FROM dispatch_unit WHERE account_id = $1`, accountID))
}

func (r *repoPG) Update(ctx context.Context, u *Unit) error {
	lat, lng := locationCols(u)
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE dispatch_unit SET name=$2, unit_type=$3, status=$4, lat=$5, lng=$6,
			updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Name, u.Type, u.Status, lat, lng)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Unit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+unitCols+` FROM dispatch_unit ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list dispatch units: %w", err)
	}
	defer rows.Close()

	var units []*Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
