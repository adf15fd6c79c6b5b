package implementation

import (
	"context"
	"database/sql"
	"time"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type PostgresPumpStateRepository struct {
	db *sql.DB
}

func NewPostgresPumpStateRepository(db *sql.DB) *PostgresPumpStateRepository {
	return &PostgresPumpStateRepository{db: db}
}

// GetPumpState returns the pump state for a device, creating the default OFF
// record when none exists yet.
func (r *PostgresPumpStateRepository) GetPumpState(ctx context.Context, deviceID string) (*irrmodels.PumpState, error) {
	insert := `
		INSERT INTO pump_states (device_id, is_on, updated_at)
		VALUES ($1, false, $2)
		ON CONFLICT (device_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, insert, deviceID, time.Now().UTC()); err != nil {
		return nil, err
	}

	query := `SELECT device_id, is_on, updated_at FROM pump_states WHERE device_id = $1`

	var state irrmodels.PumpState
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&state.DeviceID, &state.IsOn, &state.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, irrmodels.ErrNotFound
		}
		return nil, err
	}

	return &state, nil
}

func (r *PostgresPumpStateRepository) SetPumpState(ctx context.Context, deviceID string, isOn bool) error {
	query := `
		INSERT INTO pump_states (device_id, is_on, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id)
		DO UPDATE SET is_on = EXCLUDED.is_on, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, deviceID, isOn, time.Now().UTC())
	return err
}
