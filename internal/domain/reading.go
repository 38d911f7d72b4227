package domain

import "time"

// SensorReading is one sample of driver state within a trip. Counts are
// per reading, not cumulative.
type SensorReading struct {
	ReadingID     string    `json:"reading_id"`
	TripID        string    `json:"trip_id"`
	RecordedAt    time.Time `json:"recorded_at"`
	HeartRate     *int      `json:"heart_rate,omitempty"` // bpm
	NodCount      int       `json:"nod_count"`
	YawnCount     int       `json:"yawn_count"`
	EyelidClosure *float64  `json:"eyelid_closure,omitempty"` // PERCLOS ratio, stored only
}
