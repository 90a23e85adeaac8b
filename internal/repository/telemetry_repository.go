package repository

import (
	"database/sql"
	"fmt"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// TelemetryRepository handles database operations for telemetry samples
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository creates a new telemetry repository
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// AppendBatch inserts a batch of samples for a trip in one transaction.
// Samples are immutable once recorded; a replayed offset is ignored.
func (r *TelemetryRepository) AppendBatch(tripID string, samples []models.TelemetrySample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT OR IGNORE INTO telemetry_samples
		(trip_id, offset_ms, lat, lng, speed_centi_mps, heading_deg, accuracy_m, speed_limit_centi_mps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.Exec(tripID, s.OffsetMs, s.Latitude, s.Longitude,
			s.SpeedCentiMps, s.HeadingDeg, s.AccuracyM, s.SpeedLimitCentiMps)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByTrip returns all samples of a trip ordered by offset.
func (r *TelemetryRepository) GetByTrip(tripID string) ([]models.TelemetrySample, error) {
	query := `SELECT trip_id, offset_ms, lat, lng, speed_centi_mps, heading_deg, accuracy_m, speed_limit_centi_mps
		FROM telemetry_samples WHERE trip_id = ? ORDER BY offset_ms`

	rows, err := r.db.Query(query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []models.TelemetrySample
	for rows.Next() {
		var s models.TelemetrySample
		err := rows.Scan(&s.TripID, &s.OffsetMs, &s.Latitude, &s.Longitude,
			&s.SpeedCentiMps, &s.HeadingDeg, &s.AccuracyM, &s.SpeedLimitCentiMps)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, nil
}

// CountByTrip returns the number of samples recorded for a trip.
func (r *TelemetryRepository) CountByTrip(tripID string) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM telemetry_samples WHERE trip_id = ?", tripID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}
