package repository

import (
	"database/sql"
	"fmt"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// PoolRepository handles database operations for pool periods and shares
type PoolRepository struct {
	db *sql.DB
}

// NewPoolRepository creates a new pool repository
func NewPoolRepository(db *sql.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

const periodColumns = `period, total_pool_cents, total_contributions, total_payout_cents,
	reserve_cents, active_participants, ever_participants, avg_score, safety_factor,
	claims_count, claims_ratio, refund_rate, period_start, period_end, status, version`

func scanPeriod(row interface{ Scan(...interface{}) error }) (*models.PoolPeriod, error) {
	var p models.PoolPeriod
	err := row.Scan(
		&p.Period, &p.TotalPoolCents, &p.TotalContributions, &p.TotalPayoutCents,
		&p.ReserveCents, &p.ActiveParticipants, &p.EverParticipants, &p.AverageScore,
		&p.SafetyFactor, &p.ClaimsCount, &p.ClaimsRatio, &p.RefundRate,
		&p.PeriodStart, &p.PeriodEnd, &p.Status, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPeriod retrieves a pool period. Returns nil when it does not exist.
func (r *PoolRepository) GetPeriod(period string) (*models.PoolPeriod, error) {
	query := "SELECT " + periodColumns + " FROM pool_periods WHERE period = ?"

	p, err := scanPeriod(r.db.QueryRow(query, period))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool period: %w", err)
	}
	return p, nil
}

// GetPeriodTx retrieves a pool period inside an open transaction.
func (r *PoolRepository) GetPeriodTx(tx *sql.Tx, period string) (*models.PoolPeriod, error) {
	query := "SELECT " + periodColumns + " FROM pool_periods WHERE period = ?"

	p, err := scanPeriod(tx.QueryRow(query, period))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool period: %w", err)
	}
	return p, nil
}

// CreatePeriodTx inserts a fresh pool period row.
func (r *PoolRepository) CreatePeriodTx(tx *sql.Tx, p *models.PoolPeriod) error {
	query := `INSERT INTO pool_periods (period, period_start, period_end, status, version)
		VALUES (?, ?, ?, ?, 1)`

	_, err := tx.Exec(query, p.Period, p.PeriodStart, p.PeriodEnd, p.Status)
	if err != nil {
		return fmt.Errorf("failed to create pool period: %w", err)
	}
	return nil
}

// UpdatePeriodTotalsTx applies new pool totals guarded by the optimistic
// version counter. Returns false when a concurrent writer got there first;
// the caller must retry the whole read-modify-write unit from a fresh read.
func (r *PoolRepository) UpdatePeriodTotalsTx(tx *sql.Tx, p *models.PoolPeriod) (bool, error) {
	query := `UPDATE pool_periods SET
		total_pool_cents = ?, total_contributions = ?,
		active_participants = ?, ever_participants = ?,
		version = version + 1
		WHERE period = ? AND version = ?`

	res, err := tx.Exec(query,
		p.TotalPoolCents, p.TotalContributions,
		p.ActiveParticipants, p.EverParticipants,
		p.Period, p.Version,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update pool period totals: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// FinalizePeriodTx flips an open period to finalized, version-guarded.
func (r *PoolRepository) FinalizePeriodTx(tx *sql.Tx, period string, avgScore, refundRate float64, version int64) (bool, error) {
	query := `UPDATE pool_periods SET
		status = ?, avg_score = ?, refund_rate = ?, version = version + 1
		WHERE period = ? AND status = ? AND version = ?`

	res, err := tx.Exec(query, models.PoolPeriodStatusFinalized, avgScore, refundRate,
		period, models.PoolPeriodStatusOpen, version)
	if err != nil {
		return false, fmt.Errorf("failed to finalize pool period: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

const shareColumns = `driver_id, period, contribution_cents, contribution_count,
	share_pct, weighted_score, avg_score, trip_count, miles,
	base_refund_cents, projected_refund_cents, status, eligible`

func scanShare(row interface{ Scan(...interface{}) error }) (*models.PoolShare, error) {
	var s models.PoolShare
	err := row.Scan(
		&s.DriverID, &s.Period, &s.ContributionCents, &s.ContributionCount,
		&s.SharePct, &s.WeightedScore, &s.AverageScore, &s.TripCount, &s.Miles,
		&s.BaseRefundCents, &s.ProjectedRefundCents, &s.Status, &s.EligibleForRefund,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetShare retrieves one driver's share for a period. Returns nil when the
// driver has not contributed in that period.
func (r *PoolRepository) GetShare(driverID, period string) (*models.PoolShare, error) {
	query := "SELECT " + shareColumns + " FROM pool_shares WHERE driver_id = ? AND period = ?"

	s, err := scanShare(r.db.QueryRow(query, driverID, period))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool share: %w", err)
	}
	return s, nil
}

// GetShareTx retrieves a share inside an open transaction.
func (r *PoolRepository) GetShareTx(tx *sql.Tx, driverID, period string) (*models.PoolShare, error) {
	query := "SELECT " + shareColumns + " FROM pool_shares WHERE driver_id = ? AND period = ?"

	s, err := scanShare(tx.QueryRow(query, driverID, period))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool share: %w", err)
	}
	return s, nil
}

// UpsertShareTx writes the full share row inside an open transaction.
func (r *PoolRepository) UpsertShareTx(tx *sql.Tx, s *models.PoolShare) error {
	query := `INSERT INTO pool_shares (` + shareColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(driver_id, period) DO UPDATE SET
			contribution_cents = excluded.contribution_cents,
			contribution_count = excluded.contribution_count,
			share_pct = excluded.share_pct,
			weighted_score = excluded.weighted_score,
			avg_score = excluded.avg_score,
			trip_count = excluded.trip_count,
			miles = excluded.miles,
			base_refund_cents = excluded.base_refund_cents,
			projected_refund_cents = excluded.projected_refund_cents,
			status = excluded.status,
			eligible = excluded.eligible`

	_, err := tx.Exec(query,
		s.DriverID, s.Period, s.ContributionCents, s.ContributionCount,
		s.SharePct, s.WeightedScore, s.AverageScore, s.TripCount, s.Miles,
		s.BaseRefundCents, s.ProjectedRefundCents, s.Status, s.EligibleForRefund,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pool share: %w", err)
	}
	return nil
}

// ListSharesTx returns all shares of a period inside an open transaction,
// ordered by driver for deterministic allocation passes.
func (r *PoolRepository) ListSharesTx(tx *sql.Tx, period string) ([]models.PoolShare, error) {
	query := "SELECT " + shareColumns + " FROM pool_shares WHERE period = ? ORDER BY driver_id"

	rows, err := tx.Query(query, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool shares: %w", err)
	}
	defer rows.Close()

	var shares []models.PoolShare
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool share: %w", err)
		}
		shares = append(shares, *s)
	}

	return shares, nil
}
