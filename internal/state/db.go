// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS simulation_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			capital_efficiency_cap DECIMAL(10, 4) NOT NULL,
			protocol_fee_share DECIMAL(10, 8) NOT NULL,
			apy_ceiling DECIMAL(20, 8) NOT NULL,
			health_il_penalty_per_percent DECIMAL(10, 4) NOT NULL,
			health_high_il_threshold DECIMAL(10, 4) NOT NULL,
			health_excellent_threshold DECIMAL(10, 4) NOT NULL,
			health_good_threshold DECIMAL(10, 4) NOT NULL,
			health_fair_threshold DECIMAL(10, 4) NOT NULL,
			health_poor_threshold DECIMAL(10, 4) NOT NULL,
			gas_transactions_per_rebalance INTEGER NOT NULL,
			break_even_recommend_days DECIMAL(10, 4) NOT NULL,
			break_even_reject_days DECIMAL(10, 4) NOT NULL,
			min_fee_delta_usd DECIMAL(20, 12) NOT NULL,
			CONSTRAINT uq_simulation_parameters_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_simulation_parameters_config_active_timestamp ON simulation_parameters(config_name, is_active, activated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_simulation_parameters_config_timestamp ON simulation_parameters(config_name, activated_at DESC);

		CREATE TABLE IF NOT EXISTS simulation_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			pool_id VARCHAR(255) NOT NULL,
			params_id INTEGER REFERENCES simulation_parameters(params_id),

			-- The Request
			request JSONB NOT NULL,

			-- The Derived Position
			position JSONB,
			amounts JSONB,
			position_value_usd DECIMAL(20, 8) NOT NULL,

			-- The Results
			il_curve JSONB,
			yield_estimate JSONB,
			health_report JSONB,
			rebalance_scenario JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_simulation_snapshots_timestamp ON simulation_snapshots(snapshot_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_simulation_snapshots_pool_id ON simulation_snapshots(pool_id);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
