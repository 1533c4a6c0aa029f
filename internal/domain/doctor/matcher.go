package doctor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zambuko/telehealth/internal/domain/triage"
	"github.com/zambuko/telehealth/pkg/geo"
)

// Composite score weights. The queue penalty carries an extra damping factor;
// live rankings depend on it, so changing the formula reorders results for
// existing patients.
const (
	weightProximity     = 0.3
	weightRating        = 0.4
	weightQueue         = 0.3
	queuePenaltyDamping = 0.3
)

// Match filters and ranks doctors for a patient. Specialty, when given, must
// match case-insensitively. Eligibility depends on urgency: emergencies admit
// any non-OFFLINE doctor who is AVAILABLE or emergency-capable; everything
// else requires AVAILABLE. Doctors without a known location cannot be scored
// and are skipped. An empty result is a normal outcome, not an error.
func (s *Service) Match(ctx context.Context, patientLoc geo.Point, specialty string, urgency triage.Level) ([]Candidate, error) {
	if !patientLoc.Valid() {
		return nil, fmt.Errorf("%w: invalid patient coordinates", ErrInvalidInput)
	}

	profiles, err := s.ListWithLiveness(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, p := range profiles {
		if specialty != "" && !strings.EqualFold(p.Specialty, specialty) {
			continue
		}
		if urgency == triage.LevelEmergency {
			if p.Status == StatusOffline {
				continue
			}
			if p.Status != StatusAvailable && !p.EmergencyCapable {
				continue
			}
		} else if p.Status != StatusAvailable {
			continue
		}
		if p.Location == nil {
			continue
		}

		distance := geo.DistanceKm(patientLoc, *p.Location)
		proximityScore := math.Max(0, 100-distance*10)
		ratingScore := p.Rating * 20
		queueScore := math.Max(0, 100-float64(p.Queue)*15)

		total := weightProximity*proximityScore +
			weightRating*ratingScore -
			weightQueue*(100-queueScore)*queuePenaltyDamping

		candidates = append(candidates, Candidate{
			Profile:    *p,
			DistanceKm: distance,
			MatchScore: int(math.Round(total)),
		})
	}

	// Stable sort: ties keep store order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})

	return candidates, nil
}
