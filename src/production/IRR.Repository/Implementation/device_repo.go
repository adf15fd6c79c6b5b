package implementation

import (
	"context"
	"database/sql"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

// ProvisionDevice inserts the device row keyed by its credential. A second
// provision with the same token is a no-op that returns the existing row.
func (r *PostgresDeviceRepository) ProvisionDevice(ctx context.Context, device irrmodels.Device) (*irrmodels.Device, error) {
	query := `
		INSERT INTO devices (device_id, name, token, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, device.DeviceID, device.Name, device.Token, device.CreatedAt)
	if err != nil {
		return nil, err
	}

	return r.GetDeviceByToken(ctx, device.Token)
}

func (r *PostgresDeviceRepository) GetDeviceByToken(ctx context.Context, token string) (*irrmodels.Device, error) {
	query := `SELECT device_id, name, token, created_at FROM devices WHERE token = $1`

	var device irrmodels.Device
	err := r.db.QueryRowContext(ctx, query, token).Scan(&device.DeviceID, &device.Name, &device.Token, &device.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &device, nil
}

func (r *PostgresDeviceRepository) FirstDevice(ctx context.Context) (*irrmodels.Device, error) {
	query := `SELECT device_id, name, token, created_at FROM devices ORDER BY created_at ASC LIMIT 1`

	var device irrmodels.Device
	err := r.db.QueryRowContext(ctx, query).Scan(&device.DeviceID, &device.Name, &device.Token, &device.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &device, nil
}
