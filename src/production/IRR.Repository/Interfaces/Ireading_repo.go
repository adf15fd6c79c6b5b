package interfaces

import (
	"context"
	"time"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type ReadingRepository interface {
	// Append one reading; readings are never mutated afterwards
	InsertReading(ctx context.Context, r irrmodels.HumidityReading) error

	// Read readings
	GetReadingsSince(ctx context.Context, since time.Time) ([]irrmodels.HumidityReading, error)
	GetLatestReading(ctx context.Context, deviceID string) (*irrmodels.HumidityReading, error)
}
