package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	config "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Config"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db *sql.DB
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// PingPostgres checks if the PostgreSQL connection is healthy
func (h *HealthChecker) PingPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// CheckDatabaseHealth performs a comprehensive database health check
func (h *HealthChecker) CheckDatabaseHealth(ctx context.Context) error {
	if err := h.PingPostgres(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Check if we can execute a simple query
	var result int
	err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// GetHealthStatus returns the current health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    make(map[string]interface{}),
	}

	// Check database
	dbStatus := "ok"
	if err := h.CheckDatabaseHealth(ctx); err != nil {
		dbStatus = "error"
		status["checks"].(map[string]interface{})["postgres"] = map[string]interface{}{
			"status": dbStatus,
			"error":  err.Error(),
		}
	} else {
		status["checks"].(map[string]interface{})["postgres"] = map[string]interface{}{
			"status": dbStatus,
		}
	}

	// Overall status
	overallStatus := "ok"
	if dbStatus != "ok" {
		overallStatus = "degraded"
	}
	status["status"] = overallStatus

	return status
}

// DatabaseManager handles database operations
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection, retrying the
// initial ping with exponential backoff until the timeout elapses.
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	ping := func() error {
		return db.PingContext(ctx)
	}
	if err := backoff.Retry(ping, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// CreateTables creates the required tables if they don't exist
func (m *DatabaseManager) CreateTables(ctx context.Context) error {
	createDevicesTable := `
		CREATE TABLE IF NOT EXISTS devices (
			device_id   TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			token       TEXT NOT NULL UNIQUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	createReadingsTable := `
		CREATE TABLE IF NOT EXISTS humidity_readings (
			id          BIGSERIAL PRIMARY KEY,
			device_id   TEXT NOT NULL,
			humidity    INTEGER NOT NULL CHECK (humidity BETWEEN 1 AND 100),
			created_at  TIMESTAMPTZ NOT NULL,
			FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
		);
	`

	createPumpStatesTable := `
		CREATE TABLE IF NOT EXISTS pump_states (
			device_id   TEXT PRIMARY KEY,
			is_on       BOOLEAN NOT NULL DEFAULT false,
			updated_at  TIMESTAMPTZ NOT NULL,
			FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
		);
	`

	createThresholdTable := `
		CREATE TABLE IF NOT EXISTS threshold_config (
			id            INTEGER PRIMARY KEY,
			min_humidity  INTEGER NOT NULL,
			max_humidity  INTEGER NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL,
			CHECK (min_humidity < max_humidity)
		);
	`

	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_humidity_readings_created_at_desc ON humidity_readings (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_humidity_readings_device_created ON humidity_readings (device_id, created_at DESC);
	`

	queries := []string{
		createDevicesTable,
		createReadingsTable,
		createPumpStatesTable,
		createThresholdTable,
		createIndexes,
	}

	for _, query := range queries {
		if _, err := m.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}
