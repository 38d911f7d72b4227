package domain

import "fmt"

// Thresholds configure the rule engine. Values are loaded once at startup
// and passed by value.
type Thresholds struct {
	HeartRateMin  int `json:"heart_rate_min"`
	HeartRateMax  int `json:"heart_rate_max"`
	NodThreshold  int `json:"nod_threshold"`
	YawnThreshold int `json:"yawn_threshold"`
}

// DefaultThresholds returns 50/120 bpm, 3 nods, 5 yawns.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeartRateMin:  50,
		HeartRateMax:  120,
		NodThreshold:  3,
		YawnThreshold: 5,
	}
}

// Validate rejects ranges where min exceeds max and non-positive counts.
func (t Thresholds) Validate() error {
	if t.HeartRateMin <= 0 || t.HeartRateMax <= 0 {
		return fmt.Errorf("heart rate thresholds must be positive (min=%d max=%d)", t.HeartRateMin, t.HeartRateMax)
	}
	if t.HeartRateMin > t.HeartRateMax {
		return fmt.Errorf("heart rate min %d exceeds max %d", t.HeartRateMin, t.HeartRateMax)
	}
	if t.NodThreshold <= 0 {
		return fmt.Errorf("nod threshold must be positive, got %d", t.NodThreshold)
	}
	if t.YawnThreshold <= 0 {
		return fmt.Errorf("yawn threshold must be positive, got %d", t.YawnThreshold)
	}
	return nil
}
