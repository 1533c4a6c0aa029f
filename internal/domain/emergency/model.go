// Package emergency implements the emergency reporting lifecycle and the
// fixed catalog of emergency categories.
package emergency

import (
	"time"

	"github.com/google/uuid"

	"github.com/zambuko/telehealth/pkg/geo"
)

// Status is an emergency's lifecycle state. COMPLETED cases remain visible
// in active listings until explicitly resolved.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusResponding Status = "RESPONDING"
	StatusCompleted  Status = "COMPLETED"
	StatusResolved   Status = "RESOLVED"
	StatusCancelled  Status = "CANCELLED"
)

// Priority orders emergencies for dispatch attention.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank maps priorities to sort order, most urgent first. Unknown priorities
// sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// CatalogEntry is one predefined emergency category.
type CatalogEntry struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Priority Priority `json:"priority"`
}

// Catalog is the fixed list of reportable emergency categories, in the order
// they are presented to callers.
var Catalog = []CatalogEntry{
	{Key: "chest_pain", Label: "Chest Pain / Heart Attack", Priority: PriorityCritical},
	{Key: "breathing", Label: "Difficulty Breathing", Priority: PriorityCritical},
	{Key: "unconscious", Label: "Person Unconscious", Priority: PriorityCritical},
	{Key: "severe_bleeding", Label: "Severe Bleeding", Priority: PriorityCritical},
	{Key: "stroke", Label: "Stroke Symptoms", Priority: PriorityCritical},
	{Key: "accident", Label: "Accident / Injury", Priority: PriorityHigh},
	{Key: "seizure", Label: "Seizure / Convulsions", Priority: PriorityHigh},
	{Key: "allergic", Label: "Severe Allergic Reaction", Priority: PriorityHigh},
	{Key: "poisoning", Label: "Poisoning / Overdose", Priority: PriorityHigh},
	{Key: "burn", Label: "Severe Burns", Priority: PriorityHigh},
	{Key: "childbirth", Label: "Childbirth / Labor", Priority: PriorityHigh},
	{Key: "other", Label: "Other Emergency", Priority: PriorityMedium},
}

// Lookup resolves a catalog entry by key. Unknown keys fall back to the raw
// key as the label with HIGH priority.
func Lookup(key string) CatalogEntry {
	for _, e := range Catalog {
		if e.Key == key {
			return e
		}
	}
	return CatalogEntry{Key: key, Label: key, Priority: PriorityHigh}
}

// Emergency is one reported incident. PatientID is nil for anonymous
// reports. AssignedUnit references at most one dispatch unit; reassignment
// overwrites it.
type Emergency struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	PatientName     string     `db:"patient_name" json:"patient_name"`
	Phone           string     `db:"phone" json:"phone,omitempty"`
	EmergencyType   string     `db:"emergency_type" json:"emergency_type"`
	TypeLabel       string     `db:"type_label" json:"type"`
	Description     string     `db:"description" json:"description"`
	Location        *geo.Point `json:"location,omitempty"`
	Status          Status     `db:"status" json:"status"`
	Priority        Priority   `db:"priority" json:"priority"`
	AssignedUnit    *uuid.UUID `db:"assigned_unit" json:"assigned_unit,omitempty"`
	UnitName        string     `db:"unit_name" json:"unit_name,omitempty"`
	ResponseMinutes *int       `db:"response_minutes" json:"response_minutes,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
