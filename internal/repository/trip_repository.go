package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// TripRepository handles database operations for trips
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, driver_id, status, started_at, ended_at,
	start_lat, start_lng, end_lat, end_lng, start_place, end_place,
	distance_meters, duration_seconds,
	composite_score, speed_score, braking_score, accel_score, cornering_score, phone_score,
	harsh_braking, rapid_accel, speeding_seconds, sharp_turns, phone_pickups,
	gps_jump, impossible_speed, duplicate_trip, flagged_for_review,
	insight, suggested_adjustment, finalized_at, created_at, updated_at`

func scanTrip(row interface{ Scan(...interface{}) error }) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID, &t.DriverID, &t.Status, &t.StartedAt, &t.EndedAt,
		&t.StartLat, &t.StartLng, &t.EndLat, &t.EndLng, &t.StartPlace, &t.EndPlace,
		&t.DistanceMeters, &t.DurationSeconds,
		&t.CompositeScore, &t.Categories.Speed, &t.Categories.Braking,
		&t.Categories.Acceleration, &t.Categories.Cornering, &t.Categories.Phone,
		&t.Events.HarshBraking, &t.Events.RapidAccel, &t.Events.SpeedingSeconds,
		&t.Events.SharpTurns, &t.Events.PhonePickups,
		&t.Anomalies.GPSJump, &t.Anomalies.ImpossibleSpeed,
		&t.Anomalies.DuplicateTrip, &t.Anomalies.FlaggedForReview,
		&t.Insight, &t.SuggestedAdjustment, &t.FinalizedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new trip in recording state
func (r *TripRepository) Create(t *models.Trip) error {
	query := `INSERT INTO trips (id, driver_id, status, started_at, start_lat, start_lng, start_place)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, t.ID, t.DriverID, t.Status, t.StartedAt, t.StartLat, t.StartLng, t.StartPlace)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByID retrieves a single trip by ID. Returns nil when not found.
func (r *TripRepository) GetByID(id string) (*models.Trip, error) {
	query := "SELECT " + tripColumns + " FROM trips WHERE id = ?"

	t, err := scanTrip(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return t, nil
}

// GetByIDTx retrieves a trip inside an open transaction.
func (r *TripRepository) GetByIDTx(tx *sql.Tx, id string) (*models.Trip, error) {
	query := "SELECT " + tripColumns + " FROM trips WHERE id = ?"

	t, err := scanTrip(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return t, nil
}

// List retrieves trips with filtering and pagination
func (r *TripRepository) List(filter models.TripFilter) ([]models.Trip, int64, error) {
	query := "SELECT " + tripColumns + " FROM trips"

	var conditions []string
	var args []interface{}

	if filter.DriverID != "" {
		conditions = append(conditions, "driver_id = ?")
		args = append(args, filter.DriverID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, filter.EndTime)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM trips"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > 500 {
		filter.PageSize = 500
	}

	offset := (filter.Page - 1) * filter.PageSize
	query += " ORDER BY started_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}

	return trips, total, nil
}

// MarkScoredTx writes the scored fields of a finalized trip. The status
// guard in the WHERE clause makes finalization idempotent: a trip that
// already left recording state is not touched. Returns true when the row
// transitioned.
func (r *TripRepository) MarkScoredTx(tx *sql.Tx, t *models.Trip) (bool, error) {
	query := `UPDATE trips SET
		status = ?, ended_at = ?, end_lat = ?, end_lng = ?, end_place = ?,
		distance_meters = ?, duration_seconds = ?,
		composite_score = ?, speed_score = ?, braking_score = ?, accel_score = ?,
		cornering_score = ?, phone_score = ?,
		harsh_braking = ?, rapid_accel = ?, speeding_seconds = ?, sharp_turns = ?, phone_pickups = ?,
		gps_jump = ?, impossible_speed = ?, duplicate_trip = ?, flagged_for_review = ?,
		finalized_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`

	res, err := tx.Exec(query,
		models.TripStatusScored, t.EndedAt, t.EndLat, t.EndLng, t.EndPlace,
		t.DistanceMeters, t.DurationSeconds,
		t.CompositeScore, t.Categories.Speed, t.Categories.Braking, t.Categories.Acceleration,
		t.Categories.Cornering, t.Categories.Phone,
		t.Events.HarshBraking, t.Events.RapidAccel, t.Events.SpeedingSeconds,
		t.Events.SharpTurns, t.Events.PhonePickups,
		t.Anomalies.GPSJump, t.Anomalies.ImpossibleSpeed,
		t.Anomalies.DuplicateTrip, t.Anomalies.FlaggedForReview,
		time.Now().Unix(),
		t.ID, models.TripStatusRecording,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark trip scored: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// MarkRejectedTx terminates a short trip without scoring it.
func (r *TripRepository) MarkRejectedTx(tx *sql.Tx, id string, endedAt int64, durationSeconds int64) (bool, error) {
	query := `UPDATE trips SET status = ?, ended_at = ?, duration_seconds = ?,
		finalized_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`

	res, err := tx.Exec(query, models.TripStatusRejected, endedAt, durationSeconds,
		time.Now().Unix(), id, models.TripStatusRecording)
	if err != nil {
		return false, fmt.Errorf("failed to mark trip rejected: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// HasDuplicateTx reports whether another scored trip of the same driver
// matches this trip's start/end locations and time window. Locations are
// compared with a coarse coordinate box; the time windows must overlap
// within two minutes.
func (r *TripRepository) HasDuplicateTx(tx *sql.Tx, t *models.Trip) (bool, error) {
	const boxDeg = 0.002 // roughly 200m at mid latitudes
	const windowS = 120

	query := `SELECT COUNT(*) FROM trips
		WHERE driver_id = ? AND id != ? AND status = ?
		AND ABS(started_at - ?) <= ?
		AND ABS(start_lat - ?) <= ? AND ABS(start_lng - ?) <= ?
		AND ABS(end_lat - ?) <= ? AND ABS(end_lng - ?) <= ?`

	var count int64
	err := tx.QueryRow(query,
		t.DriverID, t.ID, models.TripStatusScored,
		t.StartedAt, windowS,
		t.StartLat, boxDeg, t.StartLng, boxDeg,
		t.EndLat, boxDeg, t.EndLng, boxDeg,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate trip: %w", err)
	}
	return count > 0, nil
}

// SetInsight stores the advisory narrative from the insight provider.
// Score fields are deliberately untouched.
func (r *TripRepository) SetInsight(id, narrative string, suggestedAdjustment int) error {
	query := `UPDATE trips SET insight = ?, suggested_adjustment = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.Exec(query, narrative, suggestedAdjustment, id)
	if err != nil {
		return fmt.Errorf("failed to set trip insight: %w", err)
	}
	return nil
}
