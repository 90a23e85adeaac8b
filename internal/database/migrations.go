package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered, embedded migration set. Versions are
// append-only; never edit an applied migration.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_trips",
		SQL: `
			CREATE TABLE IF NOT EXISTS trips (
				id TEXT PRIMARY KEY,
				driver_id TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'recording',
				started_at INTEGER NOT NULL,
				ended_at INTEGER NOT NULL DEFAULT 0,
				start_lat REAL NOT NULL DEFAULT 0,
				start_lng REAL NOT NULL DEFAULT 0,
				end_lat REAL NOT NULL DEFAULT 0,
				end_lng REAL NOT NULL DEFAULT 0,
				start_place TEXT NOT NULL DEFAULT '',
				end_place TEXT NOT NULL DEFAULT '',
				distance_meters INTEGER NOT NULL DEFAULT 0,
				duration_seconds INTEGER NOT NULL DEFAULT 0,
				composite_score INTEGER NOT NULL DEFAULT 0,
				speed_score INTEGER NOT NULL DEFAULT 0,
				braking_score INTEGER NOT NULL DEFAULT 0,
				accel_score INTEGER NOT NULL DEFAULT 0,
				cornering_score INTEGER NOT NULL DEFAULT 0,
				phone_score INTEGER NOT NULL DEFAULT 0,
				harsh_braking INTEGER NOT NULL DEFAULT 0,
				rapid_accel INTEGER NOT NULL DEFAULT 0,
				speeding_seconds INTEGER NOT NULL DEFAULT 0,
				sharp_turns INTEGER NOT NULL DEFAULT 0,
				phone_pickups INTEGER NOT NULL DEFAULT 0,
				gps_jump INTEGER NOT NULL DEFAULT 0,
				impossible_speed INTEGER NOT NULL DEFAULT 0,
				duplicate_trip INTEGER NOT NULL DEFAULT 0,
				flagged_for_review INTEGER NOT NULL DEFAULT 0,
				insight TEXT NOT NULL DEFAULT '',
				suggested_adjustment INTEGER NOT NULL DEFAULT 0,
				finalized_at INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_trips_driver_status ON trips(driver_id, status);
			CREATE INDEX IF NOT EXISTS idx_trips_driver_started ON trips(driver_id, started_at);
		`,
	},
	{
		Version: 2,
		Name:    "create_telemetry_samples",
		SQL: `
			CREATE TABLE IF NOT EXISTS telemetry_samples (
				trip_id TEXT NOT NULL,
				offset_ms INTEGER NOT NULL,
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				speed_centi_mps INTEGER NOT NULL DEFAULT 0,
				heading_deg REAL NOT NULL DEFAULT 0,
				accuracy_m REAL NOT NULL DEFAULT 0,
				speed_limit_centi_mps INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (trip_id, offset_ms),
				FOREIGN KEY (trip_id) REFERENCES trips(id)
			);
		`,
	},
	{
		Version: 3,
		Name:    "create_driver_profiles",
		SQL: `
			CREATE TABLE IF NOT EXISTS driver_profiles (
				driver_id TEXT PRIMARY KEY,
				score REAL NOT NULL DEFAULT 0,
				speed_score REAL NOT NULL DEFAULT 0,
				braking_score REAL NOT NULL DEFAULT 0,
				accel_score REAL NOT NULL DEFAULT 0,
				cornering_score REAL NOT NULL DEFAULT 0,
				phone_score REAL NOT NULL DEFAULT 0,
				trip_count INTEGER NOT NULL DEFAULT 0,
				total_miles REAL NOT NULL DEFAULT 0,
				total_minutes INTEGER NOT NULL DEFAULT 0,
				last_trip_at INTEGER NOT NULL DEFAULT 0,
				safe_day_streak INTEGER NOT NULL DEFAULT 0,
				last_safe_day TEXT NOT NULL DEFAULT '',
				risk_tier TEXT NOT NULL DEFAULT 'high',
				recent_trips_json TEXT NOT NULL DEFAULT '[]',
				pool_contribution_cents INTEGER NOT NULL DEFAULT 0,
				pool_share_pct REAL NOT NULL DEFAULT 0,
				updated_at INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_profiles_last_trip ON driver_profiles(last_trip_at);
		`,
	},
	{
		Version: 4,
		Name:    "create_pool_periods_and_shares",
		SQL: `
			CREATE TABLE IF NOT EXISTS pool_periods (
				period TEXT PRIMARY KEY,
				total_pool_cents INTEGER NOT NULL DEFAULT 0,
				total_contributions INTEGER NOT NULL DEFAULT 0,
				total_payout_cents INTEGER NOT NULL DEFAULT 0,
				reserve_cents INTEGER NOT NULL DEFAULT 0,
				active_participants INTEGER NOT NULL DEFAULT 0,
				ever_participants INTEGER NOT NULL DEFAULT 0,
				avg_score REAL NOT NULL DEFAULT 0,
				safety_factor REAL NOT NULL DEFAULT 1,
				claims_count INTEGER NOT NULL DEFAULT 0,
				claims_ratio REAL NOT NULL DEFAULT 0,
				refund_rate REAL NOT NULL DEFAULT 0,
				period_start INTEGER NOT NULL DEFAULT 0,
				period_end INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'open',
				version INTEGER NOT NULL DEFAULT 1
			);

			CREATE TABLE IF NOT EXISTS pool_shares (
				driver_id TEXT NOT NULL,
				period TEXT NOT NULL,
				contribution_cents INTEGER NOT NULL DEFAULT 0,
				contribution_count INTEGER NOT NULL DEFAULT 0,
				share_pct REAL NOT NULL DEFAULT 0,
				weighted_score REAL NOT NULL DEFAULT 0,
				avg_score REAL NOT NULL DEFAULT 0,
				trip_count INTEGER NOT NULL DEFAULT 0,
				miles REAL NOT NULL DEFAULT 0,
				base_refund_cents INTEGER NOT NULL DEFAULT 0,
				projected_refund_cents INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'active',
				eligible INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (driver_id, period)
			);
			CREATE INDEX IF NOT EXISTS idx_pool_shares_period ON pool_shares(period);
		`,
	},
	{
		Version: 5,
		Name:    "create_leaderboard_snapshots",
		SQL: `
			CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
				period_type TEXT NOT NULL,
				period TEXT NOT NULL,
				entries_json TEXT NOT NULL DEFAULT '[]',
				participants INTEGER NOT NULL DEFAULT 0,
				average_score REAL NOT NULL DEFAULT 0,
				median_score REAL NOT NULL DEFAULT 0,
				computed_at INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (period_type, period)
			);
		`,
	},
}

// Migrate applies all pending migrations in version order.
func Migrate(d *sql.DB) error {
	if err := initMigrationsTable(d); err != nil {
		return err
	}

	applied, err := appliedMigrations(d)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		err := Transaction(d, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
			}
			if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Printf("[Migrations] Applied %d_%s", m.Version, m.Name)
	}

	return nil
}

func initMigrationsTable(d *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := d.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func appliedMigrations(d *sql.DB) (map[int]bool, error) {
	rows, err := d.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, nil
}
