package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/platform/notify"
	"github.com/zambuko/telehealth/pkg/geo"
)

var (
	ErrNotFound     = errors.New("doctor profile not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo             Repository
	bus              notify.Publisher
	heartbeatTimeout time.Duration
	now              func() time.Time
}

func NewService(repo Repository, bus notify.Publisher, heartbeatTimeout time.Duration) *Service {
	return &Service{
		repo:             repo,
		bus:              bus,
		heartbeatTimeout: heartbeatTimeout,
		now:              time.Now,
	}
}

// Register creates a profile for a newly signed-up doctor account.
func (s *Service) Register(ctx context.Context, accountID uuid.UUID, name, specialty string) (*Profile, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account_id is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if specialty == "" {
		specialty = "General Practice"
	}

	p := &Profile{
		AccountID: accountID,
		Name:      name,
		Specialty: specialty,
		Rating:    5.0,
		Status:    StatusOffline,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	return s.repo.GetByAccountID(ctx, accountID)
}

// Heartbeat records a liveness signal for the doctor owning accountID. It
// does not change availability status; status is owned by explicit doctor
// actions and by the lazy staleness check in ListWithLiveness.
func (s *Service) Heartbeat(ctx context.Context, accountID uuid.UUID) error {
	p, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	now := s.now()
	p.LastHeartbeat = &now
	return s.repo.Update(ctx, p)
}

// UpdateStatus sets the doctor's availability and refreshes the heartbeat.
func (s *Service) UpdateStatus(ctx context.Context, accountID uuid.UUID, status Status) (*Profile, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	p, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	p.Status = status
	p.LastHeartbeat = &now
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(p)
	return p, nil
}

// UpdateLocation sets the doctor's current coordinates.
func (s *Service) UpdateLocation(ctx context.Context, accountID uuid.UUID, loc geo.Point) (*Profile, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrInvalidInput)
	}
	p, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	p.Location = &loc
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListWithLiveness returns all profiles, demoting to OFFLINE any doctor whose
// last heartbeat is older than the configured timeout. The check runs lazily
// at read time; demotions are persisted so other readers observe them.
func (s *Service) ListWithLiveness(ctx context.Context) ([]*Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, p := range profiles {
		if p.Status == StatusOffline || p.LastHeartbeat == nil {
			continue
		}
		if now.Sub(*p.LastHeartbeat) > s.heartbeatTimeout {
			p.Status = StatusOffline
			if err := s.repo.Update(ctx, p); err != nil {
				return nil, err
			}
			s.publish(p)
		}
	}
	return profiles, nil
}

// BeginSession moves a doctor into an active consultation: status IN_SESSION
// and one more request in the queue.
func (s *Service) BeginSession(ctx context.Context, profileID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	p.Status = StatusInSession
	p.Queue++
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.publish(p)
	return nil
}

// EndSession returns a doctor to AVAILABLE after a consultation, draining the
// queue and counting the completed consult.
func (s *Service) EndSession(ctx context.Context, profileID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	p.Status = StatusAvailable
	if p.Queue > 0 {
		p.Queue--
	}
	p.TotalConsults++
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.publish(p)
	return nil
}

func (s *Service) publish(p *Profile) {
	if s.bus != nil {
		s.bus.Publish(notify.KindDoctor, p.ID.String(), string(p.Status))
	}
}
