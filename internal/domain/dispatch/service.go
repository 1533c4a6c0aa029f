package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/platform/notify"
	"github.com/zambuko/telehealth/pkg/geo"
)

var (
	ErrNotFound     = errors.New("dispatch unit not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo    Repository
	bus     notify.Publisher
	hotline string
}

func NewService(repo Repository, bus notify.Publisher, hotline string) *Service {
	return &Service{repo: repo, bus: bus, hotline: hotline}
}

// Register creates a unit for a dispatch operator account. New units come up
// AVAILABLE; the operator takes them offline explicitly.
func (s *Service) Register(ctx context.Context, accountID uuid.UUID, name string, unitType UnitType) (*Unit, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account_id is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if unitType == "" {
		unitType = TypeAmbulance
	}
	if !unitType.Valid() {
		return nil, fmt.Errorf("%w: unknown unit type %q", ErrInvalidInput, unitType)
	}

	u := &Unit{
		AccountID: accountID,
		Name:      name,
		Type:      unitType,
		Status:    StatusAvailable,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Unit, error) {
	return s.repo.GetByAccountID(ctx, accountID)
}

func (s *Service) List(ctx context.Context) ([]*Unit, error) {
	return s.repo.List(ctx)
}

// UpdateStatus sets availability for the unit owned by accountID.
func (s *Service) UpdateStatus(ctx context.Context, accountID uuid.UUID, status Status) (*Unit, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	u, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	u.Status = status
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.publish(u)
	return u, nil
}

// SetStatus sets availability by unit ID. Used by the emergency lifecycle,
// which holds unit references rather than account references.
func (s *Service) SetStatus(ctx context.Context, unitID uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	u, err := s.repo.GetByID(ctx, unitID)
	if err != nil {
		return err
	}
	u.Status = status
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	s.publish(u)
	return nil
}

// UpdateLocation sets the unit's current coordinates.
func (s *Service) UpdateLocation(ctx context.Context, accountID uuid.UUID, loc geo.Point) (*Unit, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrInvalidInput)
	}
	u, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	u.Location = &loc
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// FindClosest returns the nearest AVAILABLE unit with a known location. When
// none is available it falls back to any located unit regardless of status,
// preferring a non-ideal answer over none. Returns nil when no unit has a
// location at all.
func (s *Service) FindClosest(ctx context.Context, loc geo.Point) (*Unit, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrInvalidInput)
	}
	units, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var eligible []*Unit
	for _, u := range units {
		if u.Status == StatusAvailable && u.Location != nil {
			eligible = append(eligible, u)
		}
	}
	if len(eligible) == 0 {
		for _, u := range units {
			if u.Location != nil {
				return u, nil
			}
		}
		return nil, nil
	}

	var closest *Unit
	minDistance := math.Inf(1)
	for _, u := range eligible {
		d := geo.DistanceKm(loc, *u.Location)
		if d < minDistance {
			minDistance = d
			closest = u
		}
	}
	return closest, nil
}

// DispatchEmergency picks the fastest AVAILABLE unit, marks it RESPONDING,
// and reports its ETA. Zero available units is a structured failure carrying
// the national hotline, not an error.
func (s *Service) DispatchEmergency(ctx context.Context, loc geo.Point) (*Result, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrInvalidInput)
	}
	units, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, u := range units {
		if u.Status != StatusAvailable || u.Location == nil {
			continue
		}
		d := geo.DistanceKm(loc, *u.Location)
		candidates = append(candidates, Candidate{
			Unit:       *u,
			DistanceKm: d,
			EtaMinutes: int(math.Round(d * 3)),
		})
	}
	if len(candidates) == 0 {
		return &Result{
			Success: false,
			Message: "No responders available. Escalating to national hotline.",
			Hotline: s.hotline,
		}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EtaMinutes < candidates[j].EtaMinutes
	})

	assigned := candidates[0]
	if err := s.SetStatus(ctx, assigned.ID, StatusResponding); err != nil {
		return nil, err
	}
	assigned.Status = StatusResponding

	return &Result{
		Success:   true,
		Responder: &assigned,
		Message:   fmt.Sprintf("%s dispatched. ETA: %d minutes", assigned.Name, assigned.EtaMinutes),
	}, nil
}

func (s *Service) publish(u *Unit) {
	if s.bus != nil {
		s.bus.Publish(notify.KindDispatchUnit, u.ID.String(), string(u.Status))
	}
}
