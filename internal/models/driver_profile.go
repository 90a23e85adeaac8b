package models

// Risk tier constants derived from the running composite score.
const (
	RiskTierLow    = "low"
	RiskTierMedium = "medium"
	RiskTierHigh   = "high"
)

// RecentTripsCap bounds the most-recent-first trip summary list kept on the
// profile for fast dashboard reads.
const RecentTripsCap = 3

// RecentTrip is a compact summary of a recently scored trip.
type RecentTrip struct {
	TripID        string  `json:"tripId"`
	Score         int     `json:"score"`
	DistanceMiles float64 `json:"distanceMiles"`
	FinalizedAt   int64   `json:"finalizedAt"`
}

// DriverProfile is the per-driver running aggregate. It is mutated only by
// the profile aggregator, once per finalized trip, via incremental weighted
// averages. It is never recomputed from full trip history.
type DriverProfile struct {
	DriverID string `json:"driverId" db:"driver_id"`

	// Running weighted averages. Stored as floats so the incremental update
	// does not lose precision across many trips; rounded at the API edge.
	Score             float64 `json:"score" db:"score"`
	SpeedScore        float64 `json:"speedScore" db:"speed_score"`
	BrakingScore      float64 `json:"brakingScore" db:"braking_score"`
	AccelerationScore float64 `json:"accelerationScore" db:"accel_score"`
	CorneringScore    float64 `json:"corneringScore" db:"cornering_score"`
	PhoneScore        float64 `json:"phoneScore" db:"phone_score"`

	TripCount    int64   `json:"tripCount" db:"trip_count"`
	TotalMiles   float64 `json:"totalMiles" db:"total_miles"`
	TotalMinutes int64   `json:"totalMinutes" db:"total_minutes"`
	LastTripAt   int64   `json:"lastTripAt" db:"last_trip_at"` // Unix timestamp

	SafeDayStreak int    `json:"safeDayStreak" db:"safe_day_streak"`
	LastSafeDay   string `json:"lastSafeDay,omitempty" db:"last_safe_day"` // YYYY-MM-DD

	RiskTier string `json:"riskTier" db:"risk_tier"`

	RecentTrips []RecentTrip `json:"recentTrips"`

	// Denormalized pool summary, synced inside the same transaction that
	// mutates the pool share (projection sync, never a background job).
	PoolContributionCents int64   `json:"poolContributionCents" db:"pool_contribution_cents"`
	PoolSharePct          float64 `json:"poolSharePct" db:"pool_share_pct"`

	UpdatedAt int64 `json:"updatedAt" db:"updated_at"`
}

// RiskTierForScore maps a running score to a risk tier.
func RiskTierForScore(score float64) string {
	switch {
	case score >= 80:
		return RiskTierLow
	case score >= 60:
		return RiskTierMedium
	default:
		return RiskTierHigh
	}
}
