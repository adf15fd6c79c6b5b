package interfaces

import (
	"context"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type ThresholdRepository interface {
	// GetThresholds returns the singleton config, creating the default band
	// when none exists yet
	GetThresholds(ctx context.Context) (*irrmodels.ThresholdConfig, error)

	// UpdateThresholds persists a full, already-validated band
	UpdateThresholds(ctx context.Context, cfg irrmodels.ThresholdConfig) error
}
