package emergency

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence port for emergencies.
type Repository interface {
	Create(ctx context.Context, e *Emergency) error
	GetByID(ctx context.Context, id uuid.UUID) (*Emergency, error)
	Update(ctx context.Context, e *Emergency) error
	List(ctx context.Context) ([]*Emergency, error)
}
