// Package doctor manages doctor profiles, their liveness, and the
// patient-to-doctor matching algorithm.
package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/pkg/geo"
)

// Status is a doctor's availability state.
type Status string

const (
	StatusOffline    Status = "OFFLINE"
	StatusAvailable  Status = "AVAILABLE"
	StatusInSession  Status = "IN_SESSION"
	StatusResponding Status = "RESPONDING"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOffline, StatusAvailable, StatusInSession, StatusResponding:
		return true
	}
	return false
}

// Profile is a doctor's working record. The profile ID is distinct from the
// owning account ID; messaging and auth address doctors by account ID and
// resolve the profile through the account_id index.
type Profile struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	AccountID        uuid.UUID  `db:"account_id" json:"account_id"`
	Name             string     `db:"name" json:"name"`
	Specialty        string     `db:"specialty" json:"specialty"`
	Rating           float64    `db:"rating" json:"rating"`
	Status           Status     `db:"status" json:"status"`
	EmergencyCapable bool       `db:"emergency_capable" json:"emergency_capable"`
	Queue            int        `db:"queue" json:"queue"`
	TotalConsults    int        `db:"total_consults" json:"total_consults"`
	Location         *geo.Point `json:"location,omitempty"`
	LastHeartbeat    *time.Time `db:"last_heartbeat" json:"last_heartbeat,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Candidate is a profile enriched with matching results. It exists only for
// the duration of a matching call and is never persisted.
type Candidate struct {
	Profile
	DistanceKm float64 `json:"distance_km"`
	MatchScore int     `json:"match_score"`
}
