package service

import (
	"fmt"
	"log"
	"time"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
	"github.com/drivepool/drivepool-backend-go/internal/stats"
)

// LeaderboardService produces dense, tie-broken rankings over eligible
// drivers and persists them as fully recomputed snapshots.
type LeaderboardService struct {
	profiles  *repository.ProfileRepository
	snapshots *repository.LeaderboardRepository
	cfg       config.Leaderboard
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(profiles *repository.ProfileRepository, snapshots *repository.LeaderboardRepository, cfg config.Leaderboard) *LeaderboardService {
	return &LeaderboardService{profiles: profiles, snapshots: snapshots, cfg: cfg}
}

// Get returns the stored snapshot for a period, computing it on first read.
func (s *LeaderboardService) Get(periodType, period string) (*models.LeaderboardSnapshot, error) {
	if err := validatePeriodType(periodType); err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodKey(periodType, time.Now().UTC())
	}

	snapshot, err := s.snapshots.Get(periodType, period)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		return snapshot, nil
	}
	return s.Recompute(periodType, period)
}

// Recompute rebuilds and overwrites the snapshot for one (periodType,
// period). Batch reads are a consistent-enough pass over many profiles;
// no long-lived lock is held, and the write is a replacement upsert that
// is safe to re-run.
func (s *LeaderboardService) Recompute(periodType, period string) (*models.LeaderboardSnapshot, error) {
	if err := validatePeriodType(periodType); err != nil {
		return nil, err
	}

	windowStart, windowEnd, err := periodWindow(periodType, period)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.ListEligible(s.cfg.MinTrips, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	if len(profiles) > s.cfg.MaxSize {
		profiles = profiles[:s.cfg.MaxSize]
	}

	previous, err := s.previousRanks(periodType, period)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(profiles))
	scores := make([]float64, 0, len(profiles))

	// Dense ranking: the rank advances only when the score differs from the
	// previous entry's, so tied drivers share a rank and the next distinct
	// score resumes without gaps.
	rank := 0
	prevScore := -1.0
	for _, p := range profiles {
		score := stats.RoundTo(p.Score, 1)
		if score != prevScore {
			rank++
			prevScore = score
		}

		change := 0
		if prevRank, ok := previous[p.DriverID]; ok {
			change = prevRank - rank
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:     rank,
			DriverID: p.DriverID,
			Score:    score,
			Miles:    stats.RoundTo(p.TotalMiles, 1),
			Trips:    p.TripCount,
			Change:   change,
		})
		scores = append(scores, score)
	}

	snapshot := &models.LeaderboardSnapshot{
		PeriodType:   periodType,
		Period:       period,
		Entries:      entries,
		Participants: len(entries),
		AverageScore: stats.RoundTo(stats.Mean(scores), 1),
		MedianScore:  stats.RoundTo(stats.Median(scores), 1),
		ComputedAt:   time.Now().Unix(),
	}

	if err := s.snapshots.Upsert(snapshot); err != nil {
		return nil, err
	}

	log.Printf("[Leaderboard] Recomputed %s/%s: %d drivers, avg=%.1f median=%.1f",
		periodType, period, snapshot.Participants, snapshot.AverageScore, snapshot.MedianScore)
	return snapshot, nil
}

// previousRanks maps driver id to rank in the prior snapshot. Drivers absent
// from it get no entry and therefore a change of 0.
func (s *LeaderboardService) previousRanks(periodType, period string) (map[string]int, error) {
	prevPeriod, err := previousPeriodKey(periodType, period)
	if err != nil {
		return nil, err
	}

	prev, err := s.snapshots.Get(periodType, prevPeriod)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int)
	if prev != nil {
		for _, e := range prev.Entries {
			ranks[e.DriverID] = e.Rank
		}
	}
	return ranks, nil
}

// PeriodKey returns the period key containing t for a period type:
// "YYYY-Www" for weekly (ISO week), "YYYY-MM" for monthly, "all" otherwise.
func PeriodKey(periodType string, t time.Time) string {
	switch periodType {
	case models.PeriodTypeWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case models.PeriodTypeMonthly:
		return t.Format("2006-01")
	default:
		return "all"
	}
}

// periodWindow returns the [start, end) Unix bounds of a period key.
// A zero end disables window filtering (all-time board).
func periodWindow(periodType, period string) (int64, int64, error) {
	switch periodType {
	case models.PeriodTypeWeekly:
		start, err := isoWeekStart(period)
		if err != nil {
			return 0, 0, err
		}
		return start.Unix(), start.AddDate(0, 0, 7).Unix(), nil
	case models.PeriodTypeMonthly:
		start, err := time.Parse("2006-01", period)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid period %q, want YYYY-MM", ErrValidation, period)
		}
		return start.Unix(), start.AddDate(0, 1, 0).Unix(), nil
	default:
		return 0, 0, nil
	}
}

// previousPeriodKey returns the key of the snapshot to diff ranks against.
// The all-time board diffs against its own previous computation.
func previousPeriodKey(periodType, period string) (string, error) {
	switch periodType {
	case models.PeriodTypeWeekly:
		start, err := isoWeekStart(period)
		if err != nil {
			return "", err
		}
		return PeriodKey(models.PeriodTypeWeekly, start.AddDate(0, 0, -7)), nil
	case models.PeriodTypeMonthly:
		start, err := time.Parse("2006-01", period)
		if err != nil {
			return "", fmt.Errorf("%w: invalid period %q, want YYYY-MM", ErrValidation, period)
		}
		return start.AddDate(0, -1, 0).Format("2006-01"), nil
	default:
		return period, nil
	}
}

// isoWeekStart parses "YYYY-Www" and returns that ISO week's Monday in UTC.
func isoWeekStart(period string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(period, "%d-W%d", &year, &week); err != nil || week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("%w: invalid period %q, want YYYY-Www", ErrValidation, period)
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

func validatePeriodType(periodType string) error {
	switch periodType {
	case models.PeriodTypeWeekly, models.PeriodTypeMonthly, models.PeriodTypeAllTime:
		return nil
	default:
		return fmt.Errorf("%w: unknown period type %q", ErrValidation, periodType)
	}
}
