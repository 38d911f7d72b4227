// Package evaluator turns a single sensor reading into alert descriptors
// using fixed threshold rules.
package evaluator

import (
	"fmt"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
)

// rule emits at most one descriptor for a reading.
type rule struct {
	name  string
	check func(r domain.SensorReading, t domain.Thresholds) (domain.AlertDescriptor, bool)
}

// rules run in this order; the output order follows it.
var rules = []rule{
	{name: "heart_rate_low", check: heartRateLow},
	{name: "heart_rate_high", check: heartRateHigh},
	{name: "nodding", check: nodding},
	{name: "yawning", check: yawning},
	{name: "combined", check: combined},
}

// Evaluate applies every rule to reading and returns the descriptors that
// fired. It has no side effects and does not modify reading.
func Evaluate(reading domain.SensorReading, thresholds domain.Thresholds) ([]domain.AlertDescriptor, error) {
	if err := ValidateReading(reading); err != nil {
		return nil, err
	}

	out := make([]domain.AlertDescriptor, 0, 2)
	for _, r := range rules {
		if d, ok := r.check(reading, thresholds); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// ValidateReading rejects negative counts and a negative heart rate.
func ValidateReading(r domain.SensorReading) error {
	if r.NodCount < 0 {
		return fmt.Errorf("%w: nod_count %d is negative", domain.ErrInvalidReading, r.NodCount)
	}
	if r.YawnCount < 0 {
		return fmt.Errorf("%w: yawn_count %d is negative", domain.ErrInvalidReading, r.YawnCount)
	}
	if r.HeartRate != nil && *r.HeartRate < 0 {
		return fmt.Errorf("%w: heart_rate %d is negative", domain.ErrInvalidReading, *r.HeartRate)
	}
	return nil
}

func heartRateLow(r domain.SensorReading, t domain.Thresholds) (domain.AlertDescriptor, bool) {
	if r.HeartRate == nil || *r.HeartRate >= t.HeartRateMin {
		return domain.AlertDescriptor{}, false
	}
	return domain.AlertDescriptor{Kind: domain.AlertLowHeartRate, Severity: domain.SeverityMedium}, true
}

func heartRateHigh(r domain.SensorReading, t domain.Thresholds) (domain.AlertDescriptor, bool) {
	if r.HeartRate == nil || *r.HeartRate <= t.HeartRateMax {
		return domain.AlertDescriptor{}, false
	}
	return domain.AlertDescriptor{Kind: domain.AlertHighHeartRate, Severity: domain.SeverityLow}, true
}

func nodding(r domain.SensorReading, t domain.Thresholds) (domain.AlertDescriptor, bool) {
	sev, ok := tiered(r.NodCount, t.NodThreshold)
	if !ok {
		return domain.AlertDescriptor{}, false
	}
	return domain.AlertDescriptor{Kind: domain.AlertDrowsinessNodding, Severity: sev}, true
}

func yawning(r domain.SensorReading, t domain.Thresholds) (domain.AlertDescriptor, bool) {
	sev, ok := tiered(r.YawnCount, t.YawnThreshold)
	if !ok {
		return domain.AlertDescriptor{}, false
	}
	return domain.AlertDescriptor{Kind: domain.AlertFatigueYawning, Severity: sev}, true
}

func combined(r domain.SensorReading, t domain.Thresholds) (domain.AlertDescriptor, bool) {
	if r.NodCount < t.NodThreshold || r.YawnCount < t.YawnThreshold {
		return domain.AlertDescriptor{}, false
	}
	return domain.AlertDescriptor{Kind: domain.AlertCriticalDanger, Severity: domain.SeverityCritical}, true
}

// tiered is MEDIUM from threshold and HIGH from twice the threshold.
func tiered(count, threshold int) (domain.Severity, bool) {
	switch {
	case count >= 2*threshold:
		return domain.SeverityHigh, true
	case count >= threshold:
		return domain.SeverityMedium, true
	default:
		return "", false
	}
}
