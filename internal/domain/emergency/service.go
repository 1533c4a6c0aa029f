package emergency

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/domain/dispatch"
	"github.com/zambuko/telehealth/internal/platform/notify"
	"github.com/zambuko/telehealth/pkg/geo"
)

var (
	ErrNotFound          = errors.New("emergency not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid emergency transition")
)

// Units is the slice of the dispatch service the emergency lifecycle needs:
// finding and flipping the response units it assigns.
type Units interface {
	FindClosest(ctx context.Context, loc geo.Point) (*dispatch.Unit, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dispatch.Unit, error)
	SetStatus(ctx context.Context, id uuid.UUID, status dispatch.Status) error
}

type Service struct {
	repo  Repository
	units Units
	bus   notify.Publisher
	now   func() time.Time
}

func NewService(repo Repository, units Units, bus notify.Publisher) *Service {
	return &Service{repo: repo, units: units, bus: bus, now: time.Now}
}

// CreateInput carries a new emergency report. PatientID nil means an
// anonymous report.
type CreateInput struct {
	PatientID     *uuid.UUID
	PatientName   string
	Phone         string
	EmergencyType string
	Description   string
	Location      *geo.Point
	AutoAssign    bool
}

// Create registers a PENDING emergency with its catalog-derived priority.
// With AutoAssign set and a usable location, the closest unit is recorded on
// the case; the case still waits for that unit to explicitly respond.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Emergency, error) {
	if in.EmergencyType == "" {
		return nil, fmt.Errorf("%w: emergency_type is required", ErrInvalidInput)
	}
	if in.Location != nil && !in.Location.Valid() {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrInvalidInput)
	}

	entry := Lookup(in.EmergencyType)
	name := in.PatientName
	if name == "" {
		name = "Anonymous"
	}
	description := in.Description
	if description == "" {
		description = entry.Label
	}

	e := &Emergency{
		PatientID:     in.PatientID,
		PatientName:   name,
		Phone:         in.Phone,
		EmergencyType: entry.Key,
		TypeLabel:     entry.Label,
		Description:   description,
		Location:      in.Location,
		Status:        StatusPending,
		Priority:      entry.Priority,
	}

	if in.AutoAssign && in.Location != nil {
		unit, err := s.units.FindClosest(ctx, *in.Location)
		if err != nil {
			return nil, err
		}
		if unit != nil {
			e.AssignedUnit = &unit.ID
			e.UnitName = unit.Name
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.publish(e)
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Emergency, error) {
	return s.repo.GetByID(ctx, id)
}

// Assign records a unit against the case without transitioning it; the unit
// still has to respond. Reassignment overwrites the previous unit, no
// history is kept.
func (s *Service) Assign(ctx context.Context, id, unitID uuid.UUID) (*Emergency, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusResolved || e.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, e.Status)
	}
	unit, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	e.AssignedUnit = &unit.ID
	e.UnitName = unit.Name
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Respond is a dispatch unit taking the case: assignment, RESPONDING, and a
// response time in whole minutes since the report. A missing emergency is a
// silent no-op rather than an error; the responding client may race a
// deletion and that is ignorable.
func (s *Service) Respond(ctx context.Context, id, unitID uuid.UUID) (*Emergency, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if e.Status == StatusResolved || e.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, e.Status)
	}

	unit, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	minutes := int(math.Round(s.now().Sub(e.CreatedAt).Minutes()))
	e.AssignedUnit = &unit.ID
	e.UnitName = unit.Name
	e.Status = StatusResponding
	e.ResponseMinutes = &minutes
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	if err := s.units.SetStatus(ctx, unit.ID, dispatch.StatusResponding); err != nil {
		return nil, err
	}
	s.publish(e)
	return e, nil
}

// Complete closes out the response; the assigned unit becomes AVAILABLE
// again. The case stays visible in active listings until resolved.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Emergency, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusResolved || e.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, e.Status)
	}

	now := s.now()
	e.Status = StatusCompleted
	e.CompletedAt = &now
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	if e.AssignedUnit != nil {
		if err := s.units.SetStatus(ctx, *e.AssignedUnit, dispatch.StatusAvailable); err != nil {
			return nil, err
		}
	}
	s.publish(e)
	return e, nil
}

// Resolve archives the case off the active board.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*Emergency, error) {
	return s.close(ctx, id, StatusResolved)
}

// Cancel withdraws a report. A RESPONDING unit, if any, is released.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Emergency, error) {
	e, err := s.close(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if e.AssignedUnit != nil {
		if err := s.units.SetStatus(ctx, *e.AssignedUnit, dispatch.StatusAvailable); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (s *Service) close(ctx context.Context, id uuid.UUID, to Status) (*Emergency, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusResolved || e.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, e.Status)
	}
	e.Status = to
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.publish(e)
	return e, nil
}

// ListActive returns everything not yet resolved or cancelled, most urgent
// first, oldest first within a priority.
func (s *Service) ListActive(ctx context.Context) ([]*Emergency, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var active []*Emergency
	for _, e := range all {
		if e.Status == StatusResolved || e.Status == StatusCancelled {
			continue
		}
		active = append(active, e)
	}
	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := active[i].Priority.Rank(), active[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

func (s *Service) publish(e *Emergency) {
	if s.bus != nil {
		s.bus.Publish(notify.KindEmergency, e.ID.String(), string(e.Status))
	}
}
