package implementation

import (
	"context"
	"database/sql"
	"time"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// The band is a singleton row; id is fixed to 1.
const thresholdRowID = 1

type PostgresThresholdRepository struct {
	db *sql.DB
}

func NewPostgresThresholdRepository(db *sql.DB) *PostgresThresholdRepository {
	return &PostgresThresholdRepository{db: db}
}

// GetThresholds returns the singleton config, creating the default band when
// none exists yet.
func (r *PostgresThresholdRepository) GetThresholds(ctx context.Context) (*irrmodels.ThresholdConfig, error) {
	insert := `
		INSERT INTO threshold_config (id, min_humidity, max_humidity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, insert, thresholdRowID,
		irrmodels.DefaultMinHumidity, irrmodels.DefaultMaxHumidity, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	query := `SELECT min_humidity, max_humidity, updated_at FROM threshold_config WHERE id = $1`

	var cfg irrmodels.ThresholdConfig
	err = r.db.QueryRowContext(ctx, query, thresholdRowID).Scan(&cfg.MinHumidity, &cfg.MaxHumidity, &cfg.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, irrmodels.ErrNotFound
		}
		return nil, err
	}

	return &cfg, nil
}

func (r *PostgresThresholdRepository) UpdateThresholds(ctx context.Context, cfg irrmodels.ThresholdConfig) error {
	query := `
		INSERT INTO threshold_config (id, min_humidity, max_humidity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET min_humidity = EXCLUDED.min_humidity, max_humidity = EXCLUDED.max_humidity, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, thresholdRowID, cfg.MinHumidity, cfg.MaxHumidity, time.Now().UTC())
	return err
}
