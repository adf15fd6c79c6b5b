package interfaces

import (
	"context"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type DeviceRepository interface {
	// Provision device (idempotent upsert keyed by token)
	ProvisionDevice(ctx context.Context, device irrmodels.Device) (*irrmodels.Device, error)

	// Read devices
	GetDeviceByToken(ctx context.Context, token string) (*irrmodels.Device, error)
	FirstDevice(ctx context.Context) (*irrmodels.Device, error)
}
