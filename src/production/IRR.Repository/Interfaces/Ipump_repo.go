package interfaces

import (
	"context"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type PumpStateRepository interface {
	// GetPumpState returns the pump state for a device, creating the default
	// OFF record when none exists yet
	GetPumpState(ctx context.Context, deviceID string) (*irrmodels.PumpState, error)

	// SetPumpState persists the evaluator's decision
	SetPumpState(ctx context.Context, deviceID string, isOn bool) error
}
