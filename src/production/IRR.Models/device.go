package irrmodels

import "time"

// Device represents the sensor/actuator unit that posts telemetry and
// receives pump commands. The credential is immutable once issued.
type Device struct {
	DeviceID  string    `json:"device_id" db:"device_id"`
	Name      string    `json:"name" db:"name"`
	Token     string    `json:"-" db:"token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DefaultDeviceName is used when a device row is auto-provisioned on the
// first successful authenticated telemetry post.
const DefaultDeviceName = "ESP32 Device"
