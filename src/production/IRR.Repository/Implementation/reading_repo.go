package implementation

import (
	"context"
	"database/sql"
	"time"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

func (r *PostgresReadingRepository) InsertReading(ctx context.Context, reading irrmodels.HumidityReading) error {
	query := `
		INSERT INTO humidity_readings (device_id, humidity, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, reading.DeviceID, reading.Humidity, reading.CreatedAt)
	return err
}

// GetReadingsSince returns readings newer than the cutoff, oldest first.
func (r *PostgresReadingRepository) GetReadingsSince(ctx context.Context, since time.Time) ([]irrmodels.HumidityReading, error) {
	query := `
		SELECT device_id, humidity, created_at
		FROM humidity_readings
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) GetLatestReading(ctx context.Context, deviceID string) (*irrmodels.HumidityReading, error) {
	query := `
		SELECT device_id, humidity, created_at
		FROM humidity_readings
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var reading irrmodels.HumidityReading
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&reading.DeviceID, &reading.Humidity, &reading.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &reading, nil
}

func (r *PostgresReadingRepository) scanReadings(rows *sql.Rows) ([]irrmodels.HumidityReading, error) {
	var readings []irrmodels.HumidityReading

	for rows.Next() {
		var reading irrmodels.HumidityReading
		if err := rows.Scan(&reading.DeviceID, &reading.Humidity, &reading.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}
