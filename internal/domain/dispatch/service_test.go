package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/platform/notify"
	"github.com/zambuko/telehealth/pkg/geo"
)

type mockRepo struct {
	units []*Unit
}

func (m *mockRepo) Create(_ context.Context, u *Unit) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.units = append(m.units, u)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Unit, error) {
	for _, u := range m.units {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByAccountID(_ context.Context, accountID uuid.UUID) (*Unit, error) {
	for _, u := range m.units {
		if u.AccountID == accountID {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, u *Unit) error {
	for i, existing := range m.units {
		if existing.ID == u.ID {
			m.units[i] = u
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) List(_ context.Context) ([]*Unit, error) {
	out := make([]*Unit, len(m.units))
	copy(out, m.units)
	return out, nil
}

type recorder struct {
	events []notify.Event
}

func (r *recorder) Publish(kind, id, status string) notify.Event {
	evt := notify.Event{EntityKind: kind, EntityID: id, NewStatus: status, Timestamp: time.Now()}
	r.events = append(r.events, evt)
	return evt
}

func newTestService(repo *mockRepo) (*Service, *recorder) {
	rec := &recorder{}
	return NewService(repo, rec, "994"), rec
}

var harare = geo.Point{Lat: -17.8292, Lng: 31.0522}

func unit(name string, status Status, loc *geo.Point) *Unit {
	return &Unit{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Name:      name,
		Type:      TypeAmbulance,
		Status:    status,
		Location:  loc,
	}
}

func TestRegister_Defaults(t *testing.T) {
	svc, _ := newTestService(&mockRepo{})
	u, err := svc.Register(context.Background(), uuid.New(), "Parirenyatwa Ambulance 1", "")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if u.Status != StatusAvailable {
		t.Errorf("status = %s, want AVAILABLE", u.Status)
	}
	if u.Type != TypeAmbulance {
		t.Errorf("type = %s, want ambulance default", u.Type)
	}
	if u.ID == u.AccountID {
		t.Error("unit ID must differ from account ID")
	}
}

func TestRegister_RejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(&mockRepo{})
	if _, err := svc.Register(context.Background(), uuid.New(), "Unit", UnitType("helicopter")); err == nil {
		t.Error("expected error for unknown unit type")
	}
}

func TestFindClosest_PicksNearestAvailable(t *testing.T) {
	near := geo.Point{Lat: -17.8300, Lng: 31.0530}
	far := geo.Point{Lat: -17.9000, Lng: 31.2000}
	repo := &mockRepo{units: []*Unit{
		unit("Far", StatusAvailable, &far),
		unit("Near", StatusAvailable, &near),
	}}
	svc, _ := newTestService(repo)

	got, err := svc.FindClosest(context.Background(), harare)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Near" {
		t.Errorf("got %+v, want the nearer unit", got)
	}
}

func TestFindClosest_FallsBackToUnavailableUnit(t *testing.T) {
	loc := harare
	repo := &mockRepo{units: []*Unit{
		unit("NoLocation", StatusAvailable, nil),
		unit("OfflineButLocated", StatusOffline, &loc),
	}}
	svc, _ := newTestService(repo)

	got, err := svc.FindClosest(context.Background(), harare)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "OfflineButLocated" {
		t.Errorf("got %+v, want fallback to the located offline unit", got)
	}
}

func TestFindClosest_NilWhenNoUnitLocated(t *testing.T) {
	repo := &mockRepo{units: []*Unit{
		unit("NoLocation", StatusAvailable, nil),
	}}
	svc, _ := newTestService(repo)

	got, err := svc.FindClosest(context.Background(), harare)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil when nothing has a location", got)
	}
}

func TestFindClosest_FirstSeenWinsOnTie(t *testing.T) {
	loc := harare
	repo := &mockRepo{units: []*Unit{
		unit("First", StatusAvailable, &loc),
		unit("Second", StatusAvailable, &loc),
	}}
	svc, _ := newTestService(repo)

	got, err := svc.FindClosest(context.Background(), harare)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "First" {
		t.Errorf("got %s, want the first-seen unit on a tie", got.Name)
	}
}

func TestDispatchEmergency_AssignsFastestAndMarksResponding(t *testing.T) {
	near := geo.Point{Lat: -17.8300, Lng: 31.0530}
	far := geo.Point{Lat: -17.9000, Lng: 31.2000}
	repo := &mockRepo{units: []*Unit{
		unit("Far", StatusAvailable, &far),
		unit("Near", StatusAvailable, &near),
	}}
	svc, rec := newTestService(repo)

	res, err := svc.DispatchEmergency(context.Background(), harare)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("dispatch failed: %s", res.Message)
	}
	if res.Responder.Name != "Near" {
		t.Errorf("responder = %s, want Near", res.Responder.Name)
	}
	if res.Responder.Status != StatusResponding {
		t.Errorf("responder status = %s, want RESPONDING", res.Responder.Status)
	}
	if !strings.Contains(res.Message, "Near dispatched. ETA:") {
		t.Errorf("message = %q", res.Message)
	}

	// Persisted, not just reported.
	persisted, _ := repo.GetByID(context.Background(), res.Responder.ID)
	if persisted.Status != StatusResponding {
		t.Errorf("persisted status = %s, want RESPONDING", persisted.Status)
	}
	if len(rec.events) != 1 || rec.events[0].NewStatus != "RESPONDING" {
		t.Errorf("events = %+v, want one RESPONDING event", rec.events)
	}
}

func TestDispatchEmergency_ColocatedUnitETAZero(t *testing.T) {
	loc := harare
	repo := &mockRepo{units: []*Unit{unit("OnSite", StatusAvailable, &loc)}}
	svc, _ := newTestService(repo)

	res, err := svc.DispatchEmergency(context.Background(), harare)
	if err != nil {
		t.Fatal(err)
	}
	if res.Responder.EtaMinutes != 0 {
		t.Errorf("ETA = %d, want 0 for a colocated unit", res.Responder.EtaMinutes)
	}
}

func TestDispatchEmergency_NoneAvailableEscalatesToHotline(t *testing.T) {
	loc := harare
	repo := &mockRepo{units: []*Unit{
		unit("Offline", StatusOffline, &loc),
		unit("Responding", StatusResponding, &loc),
	}}
	svc, _ := newTestService(repo)

	res, err := svc.DispatchEmergency(context.Background(), harare)
	if err != nil {
		t.Fatalf("zero available units must not be an error: %v", err)
	}
	if res.Success {
		t.Error("expected structured failure")
	}
	if res.Hotline != "994" {
		t.Errorf("hotline = %q, want 994", res.Hotline)
	}
	if res.Message != "No responders available. Escalating to national hotline." {
		t.Errorf("message = %q", res.Message)
	}
	if res.Responder != nil {
		t.Errorf("responder = %+v, want nil", res.Responder)
	}
}

func TestSetStatus_ByUnitID(t *testing.T) {
	repo := &mockRepo{}
	svc, rec := newTestService(repo)
	u, _ := svc.Register(context.Background(), uuid.New(), "Unit", TypeHospital)

	if err := svc.SetStatus(context.Background(), u.ID, StatusResponding); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByID(context.Background(), u.ID)
	if got.Status != StatusResponding {
		t.Errorf("status = %s, want RESPONDING", got.Status)
	}
	if len(rec.events) != 1 || rec.events[0].EntityKind != notify.KindDispatchUnit {
		t.Errorf("events = %+v", rec.events)
	}

	if err := svc.SetStatus(context.Background(), uuid.New(), StatusAvailable); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateLocation_Validates(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(repo)
	accountID := uuid.New()
	svc.Register(context.Background(), accountID, "Unit", "")

	if _, err := svc.UpdateLocation(context.Background(), accountID, geo.Point{Lat: 0, Lng: 300}); err == nil {
		t.Error("expected error for out-of-range longitude")
	}
	u, err := svc.UpdateLocation(context.Background(), accountID, harare)
	if err != nil {
		t.Fatal(err)
	}
	if u.Location == nil || u.Location.Lng != harare.Lng {
		t.Errorf("location = %+v", u.Location)
	}
}
