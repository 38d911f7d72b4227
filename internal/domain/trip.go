package domain

import "time"

// Trip is one continuous driving session. EndedAt is nil while the trip is
// active.
type Trip struct {
	TripID    string     `json:"trip_id"`
	DriverID  string     `json:"driver_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// IsActive reports whether the trip still accepts readings.
func (t Trip) IsActive() bool {
	return t.EndedAt == nil
}

// TripSummary is the aggregate over one trip's readings and alerts.
type TripSummary struct {
	TripID          string   `json:"trip_id"`
	TotalReadings   int      `json:"total_readings"`
	TotalAlerts     int      `json:"total_alerts"`
	AvgHeartRate    *float64 `json:"avg_heart_rate"`
	TotalNods       int      `json:"total_nods"`
	TotalYawns      int      `json:"total_yawns"`
	DurationMinutes *float64 `json:"duration_minutes"`
}

// TripDetail bundles a trip with its driver, readings and alerts.
type TripDetail struct {
	Trip
	Driver   *Driver         `json:"driver,omitempty"`
	Readings []SensorReading `json:"readings"`
	Alerts   []Alert         `json:"alerts"`
}
