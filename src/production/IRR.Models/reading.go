package irrmodels

import "time"

// HumidityReading is an append-only telemetry sample in [1,100].
type HumidityReading struct {
	DeviceID  string    `json:"device_id" db:"device_id"`
	Humidity  int       `json:"humidity" db:"humidity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
