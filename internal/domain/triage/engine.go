// Package triage scores reported symptoms into an urgency classification.
package triage

import (
	"math"
	"strings"
)

// Level is the coarse urgency classification derived from symptom scoring.
type Level string

const (
	LevelLow       Level = "LOW"
	LevelModerate  Level = "MODERATE"
	LevelHigh      Level = "HIGH"
	LevelEmergency Level = "EMERGENCY"
)

// symptomWeights maps normalized symptom labels to severity weights.
var symptomWeights = map[string]int{
	"chest pain":           50,
	"difficulty breathing": 45,
	"severe bleeding":      50,
	"unconscious":          60,
	"stroke symptoms":      55,
	"high fever":           25,
	"persistent cough":     15,
	"headache":             10,
	"body aches":           10,
	"nausea":               12,
	"vomiting":             15,
	"diarrhea":             15,
	"fatigue":              8,
	"sore throat":          10,
	"runny nose":           5,
	"skin rash":            12,
	"joint pain":           10,
	"dizziness":            20,
	"abdominal pain":       18,
	"back pain":            12,
}

const defaultSymptomWeight = 5

// emergencySymptoms short-circuit scoring entirely.
var emergencySymptoms = map[string]bool{
	"chest pain":      true,
	"unconscious":     true,
	"stroke symptoms": true,
	"severe bleeding": true,
}

// Classification thresholds on the final risk score.
const (
	thresholdEmergency = 45
	thresholdHigh      = 30
	thresholdModerate  = 15
)

// emergencyScore is the saturated score reported on short-circuit.
const emergencyScore = 100

// spo2Critical is the oxygen-saturation floor below which triage escalates
// unconditionally.
const spo2Critical = 90

const (
	recEmergencySymptom = "Seek immediate emergency care. Dispatching responder."
	recLowOxygen        = "Low oxygen saturation detected. Seek emergency care immediately."
	recEmergency        = "Your symptoms indicate a serious condition. Emergency dispatch recommended."
	recHigh             = "Priority consultation recommended. Please consult a doctor soon."
	recModerate         = "Schedule a consultation at your convenience."
	recLow              = "Self-care may be sufficient. Consult if symptoms persist."
)

// Vitals are optional measurements that can escalate triage on their own.
type Vitals struct {
	SpO2 *float64 `json:"spo2,omitempty"`
}

// Input is a single triage request.
type Input struct {
	Symptoms      []string `json:"symptoms"`
	Age           int      `json:"age"`
	Vitals        *Vitals  `json:"vitals,omitempty"`
	Comorbidities []string `json:"comorbidities,omitempty"`
}

// Result is the derived classification. It is recomputed per request and
// never persisted.
type Result struct {
	Level          Level  `json:"level"`
	Score          int    `json:"score"`
	Recommendation string `json:"recommendation"`
}

// Assess classifies the input. Symptoms in the emergency set and critically
// low oxygen saturation bypass scoring and report the saturated maximum.
func Assess(in Input) Result {
	for _, s := range in.Symptoms {
		if emergencySymptoms[strings.ToLower(s)] {
			return Result{Level: LevelEmergency, Score: emergencyScore, Recommendation: recEmergencySymptom}
		}
	}

	if in.Vitals != nil && in.Vitals.SpO2 != nil && *in.Vitals.SpO2 < spo2Critical {
		return Result{Level: LevelEmergency, Score: emergencyScore, Recommendation: recLowOxygen}
	}

	riskScore := 0.0
	for _, s := range in.Symptoms {
		w, ok := symptomWeights[strings.ToLower(s)]
		if !ok {
			w = defaultSymptomWeight
		}
		riskScore += float64(w)
	}

	switch {
	case in.Age > 65:
		riskScore *= 1.3
	case in.Age < 5:
		riskScore *= 1.2
	}

	riskScore *= 1 + float64(len(in.Comorbidities))*0.15

	var level Level
	var recommendation string
	switch {
	case riskScore >= thresholdEmergency:
		level = LevelEmergency
		recommendation = recEmergency
	case riskScore >= thresholdHigh:
		level = LevelHigh
		recommendation = recHigh
	case riskScore >= thresholdModerate:
		level = LevelModerate
		recommendation = recModerate
	default:
		level = LevelLow
		recommendation = recLow
	}

	return Result{Level: level, Score: int(math.Round(riskScore)), Recommendation: recommendation}
}

// ParseLevel normalizes a level string, defaulting to LOW for unknown input.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(s)) {
	case LevelEmergency:
		return LevelEmergency
	case LevelHigh:
		return LevelHigh
	case LevelModerate:
		return LevelModerate
	default:
		return LevelLow
	}
}
