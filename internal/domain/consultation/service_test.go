package consultation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/domain/triage"
	"github.com/zambuko/telehealth/internal/platform/notify"
)

type mockRepo struct {
	consultations []*Consultation
}

func (m *mockRepo) Create(_ context.Context, c *Consultation) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.consultations = append(m.consultations, c)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	for _, c := range m.consultations {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, c *Consultation) error {
	for i, existing := range m.consultations {
		if existing.ID == c.ID {
			m.consultations[i] = c
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Consultation, error) {
	var out []*Consultation
	for _, c := range m.consultations {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	var out []*Consultation
	for _, c := range m.consultations {
		if c.DoctorID == doctorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepo) ListPendingByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	var out []*Consultation
	for _, c := range m.consultations {
		if c.DoctorID == doctorID && c.Status == StatusPending {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockRoster struct {
	began []uuid.UUID
	ended []uuid.UUID
}

func (m *mockRoster) BeginSession(_ context.Context, doctorID uuid.UUID) error {
	m.began = append(m.began, doctorID)
	return nil
}

func (m *mockRoster) EndSession(_ context.Context, doctorID uuid.UUID) error {
	m.ended = append(m.ended, doctorID)
	return nil
}

type recorder struct {
	events []notify.Event
}

func (r *recorder) Publish(kind, id, status string) notify.Event {
	evt := notify.Event{EntityKind: kind, EntityID: id, NewStatus: status, Timestamp: time.Now()}
	r.events = append(r.events, evt)
	return evt
}

func newTestService() (*Service, *mockRepo, *mockRoster, *recorder) {
	repo := &mockRepo{}
	roster := &mockRoster{}
	rec := &recorder{}
	return NewService(repo, roster, rec), repo, roster, rec
}

func TestCreate_OpensPendingUnpaid(t *testing.T) {
	svc, _, _, rec := newTestService()
	patientID, doctorID := uuid.New(), uuid.New()

	c, err := svc.Create(context.Background(), patientID, doctorID,
		[]string{"headache", "body aches"}, triage.LevelModerate)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if c.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", c.Status)
	}
	if c.PaymentStatus != PaymentUnpaid {
		t.Errorf("payment = %s, want UNPAID", c.PaymentStatus)
	}
	if len(rec.events) != 1 || rec.events[0].EntityKind != notify.KindConsultation {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestCreate_RequiresParties(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), uuid.Nil, uuid.New(), nil, triage.LevelLow); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestAccept_WrongDoctorLeavesPending(t *testing.T) {
	svc, repo, roster, _ := newTestService()
	c, _ := svc.Create(context.Background(), uuid.New(), uuid.New(), nil, triage.LevelLow)

	_, err := svc.Accept(context.Background(), c.ID, uuid.New())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	got, _ := repo.GetByID(context.Background(), c.ID)
	if got.Status != StatusPending {
		t.Errorf("status = %s, want PENDING unchanged", got.Status)
	}
	if len(roster.began) != 0 {
		t.Error("roster must not be touched on an unauthorized accept")
	}
}

func TestAccept_MovesToInSession(t *testing.T) {
	svc, _, roster, _ := newTestService()
	doctorID := uuid.New()
	c, _ := svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelHigh)

	got, err := svc.Accept(context.Background(), c.ID, doctorID)
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if got.Status != StatusInSession {
		t.Errorf("status = %s, want IN_SESSION", got.Status)
	}
	if got.AcceptedAt == nil {
		t.Error("AcceptedAt not stamped")
	}
	if len(roster.began) != 1 || roster.began[0] != doctorID {
		t.Errorf("roster.began = %v, want [%s]", roster.began, doctorID)
	}

	// A second accept is a transition conflict, not an authorization issue.
	if _, err := svc.Accept(context.Background(), c.ID, doctorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second accept err = %v, want ErrInvalidTransition", err)
	}
}

func TestAccept_MissingConsultation(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Accept(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStart_IdempotentMarker(t *testing.T) {
	svc, _, _, _ := newTestService()
	c, _ := svc.Create(context.Background(), uuid.New(), uuid.New(), nil, triage.LevelLow)

	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	got, err := svc.Start(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(first) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, first)
	}
	// Starting works without accept; it is a marker, not a transition.
	if got.Status != StatusPending {
		t.Errorf("status = %s, Start must not change it", got.Status)
	}

	svc.now = func() time.Time { return first.Add(5 * time.Minute) }
	got, err = svc.Start(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.StartedAt.Equal(first) {
		t.Errorf("re-entry moved StartedAt to %v, want first stamp kept", got.StartedAt)
	}
}

func TestEnd_ComputesDurationAndFreesDoctor(t *testing.T) {
	svc, _, roster, _ := newTestService()
	doctorID := uuid.New()
	c, _ := svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelLow)

	started := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return started }
	svc.Accept(context.Background(), c.ID, doctorID)
	svc.Start(context.Background(), c.ID)

	svc.now = func() time.Time { return started.Add(23 * time.Minute) }
	got, err := svc.End(context.Background(), c.ID, "prescribed rest and fluids")
	if err != nil {
		t.Fatalf("End() error: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 23*60 {
		t.Errorf("duration = %v, want %d", got.DurationSeconds, 23*60)
	}
	if got.Notes != "prescribed rest and fluids" {
		t.Errorf("notes = %q", got.Notes)
	}
	if len(roster.ended) != 1 || roster.ended[0] != doctorID {
		t.Errorf("roster.ended = %v", roster.ended)
	}

	// COMPLETED is terminal.
	if _, err := svc.End(context.Background(), c.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("end after end err = %v, want ErrInvalidTransition", err)
	}
}

func TestEnd_WithoutStartFails(t *testing.T) {
	svc, repo, _, _ := newTestService()
	doctorID := uuid.New()
	c, _ := svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelLow)
	svc.Accept(context.Background(), c.ID, doctorID)

	_, err := svc.End(context.Background(), c.ID, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	got, _ := repo.GetByID(context.Background(), c.ID)
	if got.Status != StatusInSession {
		t.Errorf("status = %s, want IN_SESSION unchanged", got.Status)
	}
}

func TestCancelAndDecline_PendingOnly(t *testing.T) {
	svc, _, _, _ := newTestService()
	doctorID := uuid.New()

	c, _ := svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelLow)
	got, err := svc.Cancel(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	// Terminal now: decline must conflict.
	if _, err := svc.Decline(context.Background(), c.ID, doctorID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("decline after cancel err = %v, want ErrInvalidTransition", err)
	}

	c2, _ := svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelLow)
	if _, err := svc.Decline(context.Background(), c2.ID, uuid.New()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("decline by stranger err = %v, want ErrUnauthorized", err)
	}
	got, err = svc.Decline(context.Background(), c2.ID, doctorID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusDeclined {
		t.Errorf("status = %s, want DECLINED", got.Status)
	}
}

func TestMarkPaid(t *testing.T) {
	svc, _, _, _ := newTestService()
	c, _ := svc.Create(context.Background(), uuid.New(), uuid.New(), nil, triage.LevelLow)

	got, err := svc.MarkPaid(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != PaymentPaid {
		t.Errorf("payment = %s, want PAID", got.PaymentStatus)
	}
}

func TestListPendingByDoctor_FiltersStatus(t *testing.T) {
	svc, _, _, _ := newTestService()
	doctorID := uuid.New()
	svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelLow)
	accepted, _ := svc.Create(context.Background(), uuid.New(), doctorID, nil, triage.LevelLow)
	svc.Accept(context.Background(), accepted.ID, doctorID)

	pending, err := svc.ListPendingByDoctor(context.Background(), doctorID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Status != StatusPending {
		t.Errorf("got %d pending, want 1", len(pending))
	}
}
