package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// LeaderboardRepository handles database operations for leaderboard snapshots
type LeaderboardRepository struct {
	db *sql.DB
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db *sql.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Get retrieves a snapshot. Returns nil when none was computed yet.
func (r *LeaderboardRepository) Get(periodType, period string) (*models.LeaderboardSnapshot, error) {
	query := `SELECT period_type, period, entries_json, participants, average_score, median_score, computed_at
		FROM leaderboard_snapshots WHERE period_type = ? AND period = ?`

	var s models.LeaderboardSnapshot
	var entriesJSON string
	err := r.db.QueryRow(query, periodType, period).Scan(
		&s.PeriodType, &s.Period, &entriesJSON, &s.Participants,
		&s.AverageScore, &s.MedianScore, &s.ComputedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(entriesJSON), &s.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard entries: %w", err)
	}
	return &s, nil
}

// Upsert overwrites the snapshot for a (periodType, period) pair. Recompute
// is a full replacement, never an incremental mutation.
func (r *LeaderboardRepository) Upsert(s *models.LeaderboardSnapshot) error {
	entriesJSON, err := json.Marshal(s.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard entries: %w", err)
	}

	query := `INSERT INTO leaderboard_snapshots
		(period_type, period, entries_json, participants, average_score, median_score, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(period_type, period) DO UPDATE SET
			entries_json = excluded.entries_json,
			participants = excluded.participants,
			average_score = excluded.average_score,
			median_score = excluded.median_score,
			computed_at = excluded.computed_at`

	_, err = r.db.Exec(query, s.PeriodType, s.Period, string(entriesJSON),
		s.Participants, s.AverageScore, s.MedianScore, s.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard snapshot: %w", err)
	}
	return nil
}
