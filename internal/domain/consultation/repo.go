package consultation

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence port for consultations.
type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error)
	ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error)
}
