package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/database"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
	"github.com/drivepool/drivepool-backend-go/internal/stats"
)

// PoolService owns the contribution ledger and the period-end share
// allocation.
type PoolService struct {
	db       *sql.DB
	pool     *repository.PoolRepository
	profiles *repository.ProfileRepository
	cfg      config.Pool
}

// NewPoolService creates a new pool service
func NewPoolService(db *sql.DB, pool *repository.PoolRepository, profiles *repository.ProfileRepository, cfg config.Pool) *PoolService {
	return &PoolService{db: db, pool: pool, profiles: profiles, cfg: cfg}
}

// GetPeriod returns the pool state for a period.
func (s *PoolService) GetPeriod(period string) (*models.PoolPeriod, error) {
	if _, err := parsePeriod(period); err != nil {
		return nil, err
	}

	p, err := s.pool.GetPeriod(period)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: pool period %s", ErrNotFound, period)
	}
	return p, nil
}

// GetShare returns one driver's share for a period.
func (s *PoolService) GetShare(driverID, period string) (*models.PoolShare, error) {
	if _, err := parsePeriod(period); err != nil {
		return nil, err
	}

	share, err := s.pool.GetShare(driverID, period)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, fmt.Errorf("%w: no share for driver %s in %s", ErrNotFound, driverID, period)
	}
	return share, nil
}

// AddContribution records a premium contribution into the shared pool.
//
// Pool totals, the share upsert, the share percentage and the profile
// mirror all commit as one transaction. Pool totals are incremented
// before the share percentage is computed so the percentage always reflects
// the pool state immediately after this contribution. Lost updates from
// concurrent contributions are detected by the period's version counter and
// retried from a fresh read.
func (s *PoolService) AddContribution(driverID, period string, amountCents int64) (*models.PoolShare, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: contribution must be positive", ErrValidation)
	}
	if amountCents > s.cfg.MaxContributionCents {
		return nil, fmt.Errorf("%w: contribution exceeds ceiling of %d cents", ErrValidation, s.cfg.MaxContributionCents)
	}
	start, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}

	var share *models.PoolShare
	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		share = nil
		err = database.Transaction(s.db, func(tx *sql.Tx) error {
			pp, err := s.pool.GetPeriodTx(tx, period)
			if err != nil {
				return err
			}
			if pp == nil {
				pp = &models.PoolPeriod{
					Period:      period,
					PeriodStart: start.Unix(),
					PeriodEnd:   start.AddDate(0, 1, 0).Unix(),
					Status:      models.PoolPeriodStatusOpen,
					Version:     1,
				}
				if err := s.pool.CreatePeriodTx(tx, pp); err != nil {
					return err
				}
			}
			if pp.Status != models.PoolPeriodStatusOpen {
				return fmt.Errorf("%w: pool period %s is %s", ErrPrecondition, period, pp.Status)
			}

			existing, err := s.pool.GetShareTx(tx, driverID, period)
			if err != nil {
				return err
			}

			pp.TotalPoolCents += amountCents
			pp.TotalContributions++
			if existing == nil {
				pp.ActiveParticipants++
				pp.EverParticipants++
			}

			applied, err := s.pool.UpdatePeriodTotalsTx(tx, pp)
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("%w: pool period %s version %d", ErrConflict, period, pp.Version)
			}

			if existing == nil {
				existing = &models.PoolShare{
					DriverID: driverID,
					Period:   period,
					Status:   models.PoolShareStatusActive,
				}
				// Seed the period average from the driver's running score; it
				// converges as this period's trips finalize.
				if profile, err := s.profiles.GetTx(tx, driverID); err != nil {
					return err
				} else if profile != nil {
					existing.AverageScore = profile.Score
				}
			}
			if existing.Status != models.PoolShareStatusActive {
				return fmt.Errorf("%w: share for %s in %s is %s", ErrPrecondition, driverID, period, existing.Status)
			}

			existing.ContributionCents += amountCents
			existing.ContributionCount++
			existing.SharePct = round4(float64(existing.ContributionCents) / float64(pp.TotalPoolCents) * 100)

			if err := s.pool.UpsertShareTx(tx, existing); err != nil {
				return err
			}

			if err := s.profiles.SyncPoolMirrorTx(tx, driverID, existing.ContributionCents, existing.SharePct); err != nil {
				return err
			}

			share = existing
			return nil
		})

		if err == nil {
			return share, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		log.Printf("[PoolLedger] Contribution conflict for %s in %s, retrying (%d/%d)",
			driverID, period, attempt+1, s.cfg.ConflictRetries)
	}

	return nil, err
}

// Preview computes projected, score-weighted shares and refunds for an open
// period without finalizing anything. Re-runnable at any time.
func (s *PoolService) Preview(period string) (*models.AllocationResult, error) {
	return s.allocate(period, false)
}

// Allocate performs the period-close settlement: score-weighted share
// percentages, refunds from the claims and reserve ratios, eligibility, and
// the one-way active -> finalized transition. Allocating an already
// finalized period is rejected, not recomputed.
func (s *PoolService) Allocate(period string) (*models.AllocationResult, error) {
	return s.allocate(period, true)
}

func (s *PoolService) allocate(period string, finalize bool) (*models.AllocationResult, error) {
	if _, err := parsePeriod(period); err != nil {
		return nil, err
	}

	var result *models.AllocationResult
	err := database.Transaction(s.db, func(tx *sql.Tx) error {
		pp, err := s.pool.GetPeriodTx(tx, period)
		if err != nil {
			return err
		}
		if pp == nil {
			return fmt.Errorf("%w: pool period %s", ErrNotFound, period)
		}
		if pp.Status != models.PoolPeriodStatusOpen {
			return fmt.Errorf("%w: pool period %s already %s", ErrPrecondition, period, pp.Status)
		}

		shares, err := s.pool.ListSharesTx(tx, period)
		if err != nil {
			return err
		}

		available := availableForRefund(pp.TotalPoolCents, pp.ClaimsRatio, s.cfg.ReserveRatio)

		var weightSum float64
		var scoreSum float64
		for i := range shares {
			shares[i].WeightedScore = float64(shares[i].ContributionCents) * shares[i].AverageScore / 100
			weightSum += shares[i].WeightedScore
			scoreSum += shares[i].AverageScore
		}

		for i := range shares {
			sh := &shares[i]
			if sh.Status != models.PoolShareStatusActive {
				// Already settled in an earlier pass; never recomputed.
				continue
			}

			if weightSum > 0 {
				sh.SharePct = round4(sh.WeightedScore / weightSum * 100)
			} else {
				sh.SharePct = 0
			}

			refund := int64(math.Floor(sh.SharePct / 100 * float64(available)))
			if refund < 0 {
				refund = 0
			}
			sh.BaseRefundCents = refund
			sh.ProjectedRefundCents = refund
			sh.EligibleForRefund = sh.AverageScore >= s.cfg.MinScoreForRefund

			if finalize {
				sh.Status = models.PoolShareStatusFinalized
			}

			if err := s.pool.UpsertShareTx(tx, sh); err != nil {
				return err
			}
		}

		avgScore := 0.0
		if len(shares) > 0 {
			avgScore = stats.RoundTo(scoreSum/float64(len(shares)), 1)
		}

		if finalize {
			refundRate := 0.0
			if pp.TotalPoolCents > 0 {
				refundRate = round4(float64(available) / float64(pp.TotalPoolCents))
			}
			applied, err := s.pool.FinalizePeriodTx(tx, period, avgScore, refundRate, pp.Version)
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("%w: pool period %s version %d", ErrConflict, period, pp.Version)
			}
		}

		result = &models.AllocationResult{
			Period:                  period,
			TotalPoolCents:          pp.TotalPoolCents,
			AvailableForRefundCents: available,
			ClaimsRatio:             pp.ClaimsRatio,
			ReserveRatio:            s.cfg.ReserveRatio,
			Shares:                  shares,
			Finalized:               finalize,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finalize {
		log.Printf("[PoolAllocator] Finalized period %s: pool=%d available=%d shares=%d",
			period, result.TotalPoolCents, result.AvailableForRefundCents, len(result.Shares))
	}
	return result, nil
}

// availableForRefund applies the claims and reserve haircuts to the pool.
// A claims ratio at or above 1 leaves nothing to refund.
func availableForRefund(totalPoolCents int64, claimsRatio, reserveRatio float64) int64 {
	if claimsRatio >= 1 {
		return 0
	}
	available := float64(totalPoolCents) * (1 - claimsRatio) * (1 - reserveRatio)
	if available < 0 {
		return 0
	}
	return int64(math.Floor(available))
}

func round4(v float64) float64 {
	return stats.RoundTo(v, 4)
}

// parsePeriod validates a "YYYY-MM" settlement period key and returns the
// period's first instant in UTC.
func parsePeriod(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid period %q, want YYYY-MM", ErrValidation, period)
	}
	return t.UTC(), nil
}
