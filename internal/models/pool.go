package models

// Pool period and share status constants. Share transitions are
// one-directional: active -> finalized -> paid_out.
const (
	PoolPeriodStatusOpen      = "open"
	PoolPeriodStatusFinalized = "finalized"

	PoolShareStatusActive    = "active"
	PoolShareStatusFinalized = "finalized"
	PoolShareStatusPaidOut   = "paid_out"
)

// PoolPeriod is the shared pool state for one settlement period (calendar
// month, keyed "YYYY-MM"). It is the only cross-driver contended record;
// the Version counter detects lost updates from concurrent contributions.
type PoolPeriod struct {
	Period string `json:"period" db:"period"`

	TotalPoolCents     int64 `json:"totalPoolCents" db:"total_pool_cents"`
	TotalContributions int64 `json:"totalContributions" db:"total_contributions"`
	TotalPayoutCents   int64 `json:"totalPayoutCents" db:"total_payout_cents"`
	ReserveCents       int64 `json:"reserveCents" db:"reserve_cents"`

	ActiveParticipants int64 `json:"activeParticipants" db:"active_participants"`
	EverParticipants   int64 `json:"everParticipants" db:"ever_participants"`

	AverageScore float64 `json:"averageScore" db:"avg_score"`
	SafetyFactor float64 `json:"safetyFactor" db:"safety_factor"`
	ClaimsCount  int64   `json:"claimsCount" db:"claims_count"`
	ClaimsRatio  float64 `json:"claimsRatio" db:"claims_ratio"`
	RefundRate   float64 `json:"refundRate" db:"refund_rate"`

	PeriodStart int64 `json:"periodStart" db:"period_start"` // Unix timestamp
	PeriodEnd   int64 `json:"periodEnd" db:"period_end"`

	Status  string `json:"status" db:"status"`
	Version int64  `json:"version" db:"version"`
}

// PoolShare is one driver's stake in a pool period, created lazily on first
// contribution.
type PoolShare struct {
	DriverID string `json:"driverId" db:"driver_id"`
	Period   string `json:"period" db:"period"`

	ContributionCents int64 `json:"contributionCents" db:"contribution_cents"`
	ContributionCount int64 `json:"contributionCount" db:"contribution_count"`

	// SharePct is the driver's proportion of the pool, 4-decimal precision.
	// Before allocation it tracks raw contribution share; allocation
	// recomputes it score-weighted.
	SharePct      float64 `json:"sharePct" db:"share_pct"`
	WeightedScore float64 `json:"weightedScore" db:"weighted_score"`

	// AverageScore is the driver's average trip score for this period,
	// maintained incrementally as trips finalize.
	AverageScore float64 `json:"averageScore" db:"avg_score"`
	TripCount    int64   `json:"tripCount" db:"trip_count"`
	Miles        float64 `json:"miles" db:"miles"`

	BaseRefundCents      int64 `json:"baseRefundCents" db:"base_refund_cents"`
	ProjectedRefundCents int64 `json:"projectedRefundCents" db:"projected_refund_cents"`

	Status            string `json:"status" db:"status"`
	EligibleForRefund bool   `json:"eligibleForRefund" db:"eligible"`
}

// ContributionRequest is the payload for adding a premium contribution.
type ContributionRequest struct {
	AmountCents int64 `json:"amountCents"`
}

// AllocationResult is the outcome of a pool allocation or preview pass.
type AllocationResult struct {
	Period                  string      `json:"period"`
	TotalPoolCents          int64       `json:"totalPoolCents"`
	AvailableForRefundCents int64       `json:"availableForRefundCents"`
	ClaimsRatio             float64     `json:"claimsRatio"`
	ReserveRatio            float64     `json:"reserveRatio"`
	Shares                  []PoolShare `json:"shares"`
	Finalized               bool        `json:"finalized"`
}
