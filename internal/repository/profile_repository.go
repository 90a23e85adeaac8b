package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// ProfileRepository handles database operations for driver profiles
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `driver_id, score, speed_score, braking_score, accel_score,
	cornering_score, phone_score, trip_count, total_miles, total_minutes,
	last_trip_at, safe_day_streak, last_safe_day, risk_tier, recent_trips_json,
	pool_contribution_cents, pool_share_pct, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.DriverProfile, error) {
	var p models.DriverProfile
	var recentJSON string
	err := row.Scan(
		&p.DriverID, &p.Score, &p.SpeedScore, &p.BrakingScore, &p.AccelerationScore,
		&p.CorneringScore, &p.PhoneScore, &p.TripCount, &p.TotalMiles, &p.TotalMinutes,
		&p.LastTripAt, &p.SafeDayStreak, &p.LastSafeDay, &p.RiskTier, &recentJSON,
		&p.PoolContributionCents, &p.PoolSharePct, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if recentJSON != "" {
		if err := json.Unmarshal([]byte(recentJSON), &p.RecentTrips); err != nil {
			return nil, fmt.Errorf("failed to decode recent trips: %w", err)
		}
	}
	return &p, nil
}

// Get retrieves a driver profile. Returns nil when the driver has no profile yet.
func (r *ProfileRepository) Get(driverID string) (*models.DriverProfile, error) {
	query := "SELECT " + profileColumns + " FROM driver_profiles WHERE driver_id = ?"

	p, err := scanProfile(r.db.QueryRow(query, driverID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetTx retrieves a driver profile inside an open transaction.
func (r *ProfileRepository) GetTx(tx *sql.Tx, driverID string) (*models.DriverProfile, error) {
	query := "SELECT " + profileColumns + " FROM driver_profiles WHERE driver_id = ?"

	p, err := scanProfile(tx.QueryRow(query, driverID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertTx writes the full profile row inside an open transaction.
func (r *ProfileRepository) UpsertTx(tx *sql.Tx, p *models.DriverProfile) error {
	recentJSON, err := json.Marshal(p.RecentTrips)
	if err != nil {
		return fmt.Errorf("failed to encode recent trips: %w", err)
	}

	query := `INSERT INTO driver_profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(driver_id) DO UPDATE SET
			score = excluded.score,
			speed_score = excluded.speed_score,
			braking_score = excluded.braking_score,
			accel_score = excluded.accel_score,
			cornering_score = excluded.cornering_score,
			phone_score = excluded.phone_score,
			trip_count = excluded.trip_count,
			total_miles = excluded.total_miles,
			total_minutes = excluded.total_minutes,
			last_trip_at = excluded.last_trip_at,
			safe_day_streak = excluded.safe_day_streak,
			last_safe_day = excluded.last_safe_day,
			risk_tier = excluded.risk_tier,
			recent_trips_json = excluded.recent_trips_json,
			updated_at = excluded.updated_at`

	_, err = tx.Exec(query,
		p.DriverID, p.Score, p.SpeedScore, p.BrakingScore, p.AccelerationScore,
		p.CorneringScore, p.PhoneScore, p.TripCount, p.TotalMiles, p.TotalMinutes,
		p.LastTripAt, p.SafeDayStreak, p.LastSafeDay, p.RiskTier, string(recentJSON),
		p.PoolContributionCents, p.PoolSharePct, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// SyncPoolMirrorTx updates the denormalized pool summary on the profile.
// Called inside the same transaction that mutates the pool share so the
// mirror can never diverge from the source of truth.
func (r *ProfileRepository) SyncPoolMirrorTx(tx *sql.Tx, driverID string, contributionCents int64, sharePct float64) error {
	query := `INSERT INTO driver_profiles (driver_id, pool_contribution_cents, pool_share_pct)
		VALUES (?, ?, ?)
		ON CONFLICT(driver_id) DO UPDATE SET
			pool_contribution_cents = excluded.pool_contribution_cents,
			pool_share_pct = excluded.pool_share_pct`

	_, err := tx.Exec(query, driverID, contributionCents, sharePct)
	if err != nil {
		return fmt.Errorf("failed to sync pool mirror: %w", err)
	}
	return nil
}

// ListEligible returns profiles with at least minTrips trips whose last trip
// falls inside [windowStart, windowEnd). A zero windowEnd disables the
// window filter (all-time board). Rankings compare scores at one-decimal
// display precision, so the sort rounds too: scores that tie after rounding
// fall through to the miles tie-break.
func (r *ProfileRepository) ListEligible(minTrips int64, windowStart, windowEnd int64) ([]models.DriverProfile, error) {
	query := "SELECT " + profileColumns + " FROM driver_profiles WHERE trip_count >= ?"
	args := []interface{}{minTrips}

	if windowEnd > 0 {
		query += " AND last_trip_at >= ? AND last_trip_at < ?"
		args = append(args, windowStart, windowEnd)
	}
	query += " ORDER BY ROUND(score, 1) DESC, total_miles DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.DriverProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}

	return profiles, nil
}
