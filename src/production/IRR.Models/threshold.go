package irrmodels

import "time"

// Default thresholds applied when the singleton config row does not exist yet.
const (
	DefaultMinHumidity = 20
	DefaultMaxHumidity = 40
)

// ThresholdConfig is the singleton hysteresis band. MinHumidity is strictly
// less than MaxHumidity; the store validates that at write time.
type ThresholdConfig struct {
	MinHumidity int       `json:"min_humidity" db:"min_humidity"`
	MaxHumidity int       `json:"max_humidity" db:"max_humidity"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultThresholdConfig returns the config used before any update was stored.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		MinHumidity: DefaultMinHumidity,
		MaxHumidity: DefaultMaxHumidity,
	}
}
