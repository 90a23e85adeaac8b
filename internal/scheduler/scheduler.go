package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/service"
)

// Scheduler drives the periodic batch jobs: leaderboard recomputes on a
// fixed interval and pool allocation on month boundaries. Both jobs are
// idempotent upserts, so a pass that fails mid-way is simply re-run on the
// next tick.
type Scheduler struct {
	leaderboard *service.LeaderboardService
	pool        *service.PoolService
	cfg         config.Leaderboard
}

// New creates a new scheduler
func New(leaderboard *service.LeaderboardService, pool *service.PoolService, cfg config.Leaderboard) *Scheduler {
	return &Scheduler{leaderboard: leaderboard, pool: pool, cfg: cfg}
}

// Run blocks until ctx is cancelled, ticking the batch jobs.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RecomputeInterval)
	defer ticker.Stop()

	log.Printf("[Scheduler] Started, recompute interval %v", s.cfg.RecomputeInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Scheduler] Stopped")
			return
		case <-ticker.C:
			s.tick(time.Now().UTC())
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.recomputeLeaderboards(now)
	s.closePreviousPeriod(now)
}

func (s *Scheduler) recomputeLeaderboards(now time.Time) {
	for _, periodType := range []string{models.PeriodTypeWeekly, models.PeriodTypeMonthly, models.PeriodTypeAllTime} {
		period := service.PeriodKey(periodType, now)
		if _, err := s.leaderboard.Recompute(periodType, period); err != nil {
			log.Printf("[Scheduler] Leaderboard recompute %s/%s failed: %v", periodType, period, err)
		}
	}
}

// closePreviousPeriod settles last month's pool once the month has rolled
// over. The allocator rejects an already-finalized period, which makes this
// safe to attempt on every tick.
func (s *Scheduler) closePreviousPeriod(now time.Time) {
	previous := now.AddDate(0, -1, 0).Format("2006-01")

	_, err := s.pool.Allocate(previous)
	if err == nil {
		log.Printf("[Scheduler] Settled pool period %s", previous)
		return
	}
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrPrecondition) {
		// No pool that month, or already settled.
		return
	}
	log.Printf("[Scheduler] Pool settlement for %s failed: %v", previous, err)
}
