package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence port for dispatch units.
type Repository interface {
	Create(ctx context.Context, u *Unit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Unit, error)
	Update(ctx context.Context, u *Unit) error
	List(ctx context.Context) ([]*Unit, error)
}
