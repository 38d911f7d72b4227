package domain

import "time"

// Driver is a person who makes trips.
type Driver struct {
	DriverID         string    `json:"driver_id"`
	Name             string    `json:"name"`
	MedicalCondition *string   `json:"medical_condition,omitempty"`
	RiskWindow       *string   `json:"risk_window,omitempty"` // free text, e.g. "22:00-06:00"
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// MaxNameLength applies to driver names and alert kinds.
const MaxNameLength = 255
