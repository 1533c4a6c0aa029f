// Package dispatch manages emergency response units and the closest-unit
// selection used when an emergency comes in.
package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/pkg/geo"
)

// UnitType classifies a response unit.
type UnitType string

const (
	TypeAmbulance UnitType = "ambulance"
	TypeHospital  UnitType = "hospital"
	TypeOther     UnitType = "other"
)

func (t UnitType) Valid() bool {
	switch t {
	case TypeAmbulance, TypeHospital, TypeOther:
		return true
	}
	return false
}

// Status is a unit's availability state.
type Status string

const (
	StatusOffline    Status = "OFFLINE"
	StatusAvailable  Status = "AVAILABLE"
	StatusResponding Status = "RESPONDING"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOffline, StatusAvailable, StatusResponding:
		return true
	}
	return false
}

// Unit is a dispatch unit's working record. As with doctors, the unit ID is
// distinct from the operator's account ID and is resolved through the
// account_id index.
type Unit struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	AccountID uuid.UUID  `db:"account_id" json:"account_id"`
	Name      string     `db:"name" json:"name"`
	Type      UnitType   `db:"unit_type" json:"type"`
	Status    Status     `db:"status" json:"status"`
	Location  *geo.Point `json:"location,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Candidate is a unit enriched with distance and ETA for one dispatch call.
type Candidate struct {
	Unit
	DistanceKm float64 `json:"distance_km"`
	EtaMinutes int     `json:"eta_minutes"`
}

// Result reports the outcome of an emergency dispatch attempt. A failed
// attempt is a normal business state carrying the national hotline number,
// not an error.
type Result struct {
	Success   bool       `json:"success"`
	Responder *Candidate `json:"responder,omitempty"`
	Message   string     `json:"message"`
	Hotline   string     `json:"hotline,omitempty"`
}
