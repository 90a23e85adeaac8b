package models

// Leaderboard period types
const (
	PeriodTypeWeekly  = "weekly"
	PeriodTypeMonthly = "monthly"
	PeriodTypeAllTime = "all_time"
)

// LeaderboardEntry is one ranked driver in a snapshot. Ranks are dense:
// tied scores share a rank and the next distinct score resumes at
// previousRank+1.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	DriverID string  `json:"driverId"`
	Score    float64 `json:"score"`
	Miles    float64 `json:"miles"`
	Trips    int64   `json:"trips"`
	// Change is previousRank - currentRank when the driver appeared in the
	// prior snapshot, else 0.
	Change int `json:"change"`
}

// LeaderboardSnapshot is the fully recomputed ranking for one
// (period, periodType). It is overwritten on every scheduling tick, never
// incrementally mutated.
type LeaderboardSnapshot struct {
	PeriodType   string             `json:"periodType" db:"period_type"`
	Period       string             `json:"period" db:"period"`
	Entries      []LeaderboardEntry `json:"entries"`
	Participants int                `json:"participants" db:"participants"`
	AverageScore float64            `json:"averageScore" db:"average_score"`
	MedianScore  float64            `json:"medianScore" db:"median_score"`
	ComputedAt   int64              `json:"computedAt" db:"computed_at"` // Unix timestamp
}
