package domain

import (
	"fmt"
	"time"
)

// AlertKind names the rule that fired, or a free-form kind for manual alerts.
type AlertKind string

const (
	AlertLowHeartRate      AlertKind = "LOW_HEART_RATE"
	AlertHighHeartRate     AlertKind = "HIGH_HEART_RATE"
	AlertDrowsinessNodding AlertKind = "DROWSINESS_NODDING"
	AlertFatigueYawning    AlertKind = "FATIGUE_YAWNING"
	AlertCriticalDanger    AlertKind = "CRITICAL_DANGER"
)

// Severity is ordered LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns 1..4 for known severities and 0 otherwise.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// ParseSeverity accepts the four known names.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if sev.Rank() == 0 {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// AlertDescriptor is what the rule engine emits before persistence.
type AlertDescriptor struct {
	Kind     AlertKind `json:"kind"`
	Severity Severity  `json:"severity"`
}

// Alert is a persisted alert. Severity is empty for manual alerts raised
// without one.
type Alert struct {
	AlertID     string    `json:"alert_id"`
	TripID      string    `json:"trip_id"`
	TriggeredAt time.Time `json:"triggered_at"`
	Kind        AlertKind `json:"kind"`
	Severity    Severity  `json:"severity,omitempty"`
}
