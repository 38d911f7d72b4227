// Package stats summarises a trip's readings.
package stats

import "github.com/Adrieliyo/risk-advisor-backend/internal/domain"

// Summarize aggregates readings for trip. alertCount is taken as given.
// AvgHeartRate is nil when no reading has a heart rate; DurationMinutes is
// nil while the trip is active.
func Summarize(trip domain.Trip, readings []domain.SensorReading, alertCount int) domain.TripSummary {
	s := domain.TripSummary{
		TripID:        trip.TripID,
		TotalReadings: len(readings),
		TotalAlerts:   alertCount,
	}

	hrSum, hrN := 0, 0
	for _, r := range readings {
		s.TotalNods += r.NodCount
		s.TotalYawns += r.YawnCount
		if r.HeartRate != nil {
			hrSum += *r.HeartRate
			hrN++
		}
	}
	if hrN > 0 {
		avg := float64(hrSum) / float64(hrN)
		s.AvgHeartRate = &avg
	}

	if trip.EndedAt != nil {
		d := trip.EndedAt.Sub(trip.StartedAt).Minutes()
		s.DurationMinutes = &d
	}
	return s
}
