// Package consultation implements the patient-doctor consultation lifecycle.
package consultation

import (
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/internal/domain/triage"
)

// Status is a consultation's lifecycle state. PENDING moves to IN_SESSION
// when the doctor accepts; COMPLETED, CANCELLED and DECLINED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusInSession Status = "IN_SESSION"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusDeclined  Status = "DECLINED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusDeclined:
		return true
	}
	return false
}

// PaymentStatus is a bookkeeping marker; payment processing itself happens
// outside this service.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

type Consultation struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	PatientID       uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Symptoms        []string      `db:"symptoms" json:"symptoms"`
	TriageLevel     triage.Level  `db:"triage_level" json:"triage_level"`
	Status          Status        `db:"status" json:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
	Notes           string        `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	AcceptedAt      *time.Time    `db:"accepted_at" json:"accepted_at,omitempty"`
	StartedAt       *time.Time    `db:"started_at" json:"started_at,omitempty"`
	EndedAt         *time.Time    `db:"ended_at" json:"ended_at,omitempty"`
	DurationSeconds *int          `db:"duration_seconds" json:"duration_seconds,omitempty"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}
