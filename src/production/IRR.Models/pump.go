package irrmodels

import "time"

// PumpState is the one-to-one actuator state for a device. It is mutated
// only by the control evaluator's caller.
type PumpState struct {
	DeviceID  string    `json:"device_id" db:"device_id"`
	IsOn      bool      `json:"is_on" db:"is_on"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
