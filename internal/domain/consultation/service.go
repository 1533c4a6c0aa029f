package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/domain/triage"
	"github.com/zambuko/telehealth/internal/platform/notify"
)

var (
	ErrNotFound          = errors.New("consultation not found")
	ErrUnauthorized      = errors.New("not authorized for this consultation")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid consultation transition")
)

// DoctorRoster is the slice of the doctor service the consultation lifecycle
// needs: moving the doctor in and out of a session when a consultation is
// accepted or ended. Keyed by doctor profile ID.
type DoctorRoster interface {
	BeginSession(ctx context.Context, doctorID uuid.UUID) error
	EndSession(ctx context.Context, doctorID uuid.UUID) error
}

type Service struct {
	repo   Repository
	roster DoctorRoster
	bus    notify.Publisher
	now    func() time.Time
}

func NewService(repo Repository, roster DoctorRoster, bus notify.Publisher) *Service {
	return &Service{repo: repo, roster: roster, bus: bus, now: time.Now}
}

// Create opens a PENDING, UNPAID consultation request against a doctor.
func (s *Service) Create(ctx context.Context, patientID, doctorID uuid.UUID, symptoms []string, level triage.Level) (*Consultation, error) {
	if patientID == uuid.Nil || doctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id and doctor_id are required", ErrInvalidInput)
	}

	c := &Consultation{
		PatientID:     patientID,
		DoctorID:      doctorID,
		Symptoms:      symptoms,
		TriageLevel:   level,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publish(c)
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// Accept moves a PENDING consultation into session. Only the doctor the
// request was addressed to may accept it; the doctor's roster entry goes
// IN_SESSION as part of the same operation.
func (s *Service) Accept(ctx context.Context, id, doctorID uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != doctorID {
		return nil, ErrUnauthorized
	}
	if c.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot accept from %s", ErrInvalidTransition, c.Status)
	}

	now := s.now()
	c.Status = StatusInSession
	c.AcceptedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.roster.BeginSession(ctx, c.DoctorID); err != nil {
		return nil, err
	}
	s.publish(c)
	return c, nil
}

// Start stamps the moment the parties actually connected. It is a timestamp
// marker, not a state transition: re-entry keeps the first stamp and no
// status precondition applies.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.StartedAt != nil {
		return c, nil
	}
	now := s.now()
	c.StartedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// End completes a consultation, computing its duration from the start stamp.
// Ending a consultation that never started is an error rather than a NaN
// duration. The doctor returns to AVAILABLE.
func (s *Service) End(ctx context.Context, id uuid.UUID, notes string) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, c.Status)
	}
	if c.StartedAt == nil {
		return nil, fmt.Errorf("%w: consultation was never started", ErrInvalidTransition)
	}

	now := s.now()
	duration := int(now.Sub(*c.StartedAt).Seconds())
	c.Status = StatusCompleted
	c.EndedAt = &now
	c.DurationSeconds = &duration
	c.Notes = notes
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.roster.EndSession(ctx, c.DoctorID); err != nil {
		return nil, err
	}
	s.publish(c)
	return c, nil
}

// Cancel is the patient-side exit from a PENDING request.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.closePending(ctx, id, StatusCancelled)
}

// Decline is the doctor-side exit from a PENDING request.
func (s *Service) Decline(ctx context.Context, id, doctorID uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != doctorID {
		return nil, ErrUnauthorized
	}
	return s.closePending(ctx, id, StatusDeclined)
}

func (s *Service) closePending(ctx context.Context, id uuid.UUID, to Status) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot move %s to %s", ErrInvalidTransition, c.Status, to)
	}
	c.Status = to
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.publish(c)
	return c, nil
}

// MarkPaid flips the payment marker. Payment collection itself is external.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.PaymentStatus = PaymentPaid
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	return s.repo.ListPendingByDoctor(ctx, doctorID)
}

func (s *Service) publish(c *Consultation) {
	if s.bus != nil {
		s.bus.Publish(notify.KindConsultation, c.ID.String(), string(c.Status))
	}
}
