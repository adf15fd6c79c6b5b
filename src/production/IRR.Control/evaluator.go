package control

import (
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// Evaluate decides the next pump state from the latest humidity reading using
// two-sided hysteresis. Below the band the pump turns ON, above it OFF, and
// inside the closed band [min,max] the current state is held so noisy
// readings near a single threshold cannot toggle the pump rapidly.
//
// The function is pure; persisting the new state and broadcasting the
// command when changed is the caller's responsibility.
func Evaluate(humidity int, cfg irrmodels.ThresholdConfig, currentOn bool) (nextOn, changed bool) {
	desired := currentOn

	switch {
	case humidity < cfg.MinHumidity:
		desired = true
	case humidity > cfg.MaxHumidity:
		desired = false
	}

	return desired, desired != currentOn
}
