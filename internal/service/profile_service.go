package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
	"github.com/drivepool/drivepool-backend-go/internal/stats"
)

// Achievement milestones emitted by the aggregator. Badge definitions and
// their presentation live outside this service; only the unlock events do.
const (
	AchievementFirstTrip  = "first_trip"
	AchievementTenTrips   = "ten_trips"
	AchievementFiftyTrips = "fifty_trips"
	AchievementWeekStreak = "week_streak"
)

// ProfileService folds finalized trips into per-driver running aggregates.
type ProfileService struct {
	profiles *repository.ProfileRepository
	pool     *repository.PoolRepository
	cfg      config.Scoring
}

// NewProfileService creates a new profile service
func NewProfileService(profiles *repository.ProfileRepository, pool *repository.PoolRepository, cfg config.Scoring) *ProfileService {
	return &ProfileService{profiles: profiles, pool: pool, cfg: cfg}
}

// Get returns a driver's profile with scores rounded for presentation.
func (s *ProfileService) Get(driverID string) (*models.DriverProfile, error) {
	p, err := s.profiles.Get(driverID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, driverID)
	}

	p.Score = stats.RoundTo(p.Score, 1)
	p.SpeedScore = stats.RoundTo(p.SpeedScore, 1)
	p.BrakingScore = stats.RoundTo(p.BrakingScore, 1)
	p.AccelerationScore = stats.RoundTo(p.AccelerationScore, 1)
	p.CorneringScore = stats.RoundTo(p.CorneringScore, 1)
	p.PhoneScore = stats.RoundTo(p.PhoneScore, 1)
	return p, nil
}

// ApplyTripTx folds one newly scored trip into the driver's profile inside
// the same transaction that writes the trip's scored status, so the profile
// is never updated for a trip whose status write did not commit, and never
// twice for the same trip.
//
// Returns the achievement milestones the update unlocked.
func (s *ProfileService) ApplyTripTx(tx *sql.Tx, trip *models.Trip) ([]string, error) {
	p, err := s.profiles.GetTx(tx, trip.DriverID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &models.DriverProfile{DriverID: trip.DriverID}
	}

	// The pre-update trip count is the weight of the running average. The
	// same shared count weights every category; per-category counts are a
	// product decision we have not taken.
	w := float64(p.TripCount)
	p.Score = weightedAverage(p.Score, float64(trip.CompositeScore), w)
	p.SpeedScore = weightedAverage(p.SpeedScore, float64(trip.Categories.Speed), w)
	p.BrakingScore = weightedAverage(p.BrakingScore, float64(trip.Categories.Braking), w)
	p.AccelerationScore = weightedAverage(p.AccelerationScore, float64(trip.Categories.Acceleration), w)
	p.CorneringScore = weightedAverage(p.CorneringScore, float64(trip.Categories.Cornering), w)
	p.PhoneScore = weightedAverage(p.PhoneScore, float64(trip.Categories.Phone), w)

	p.TripCount++
	p.TotalMiles += trip.DistanceMiles()
	p.TotalMinutes += trip.DurationMinutes()
	p.LastTripAt = trip.EndedAt
	p.RiskTier = models.RiskTierForScore(p.Score)

	s.updateStreak(p, trip)
	s.updateRecentTrips(p, trip)
	p.UpdatedAt = time.Now().Unix()

	if err := s.profiles.UpsertTx(tx, p); err != nil {
		return nil, err
	}

	if err := s.syncPeriodShareTx(tx, trip); err != nil {
		return nil, err
	}

	return s.unlocked(p), nil
}

// weightedAverage folds a new sample into a running average with the given
// pre-update weight.
func weightedAverage(old, sample, oldWeight float64) float64 {
	return (old*oldWeight + sample) / (oldWeight + 1)
}

// updateStreak maintains the consecutive-safe-day streak. A safe trip on the
// day after the last safe day extends the streak; a safe trip after a gap
// restarts it at 1; an unsafe trip resets it to 0.
func (s *ProfileService) updateStreak(p *models.DriverProfile, trip *models.Trip) {
	if trip.CompositeScore < s.cfg.SafeTripScore {
		p.SafeDayStreak = 0
		return
	}

	day := time.Unix(trip.EndedAt, 0).UTC()
	dayKey := day.Format("2006-01-02")
	prevKey := day.AddDate(0, 0, -1).Format("2006-01-02")

	switch p.LastSafeDay {
	case dayKey:
		// Another safe trip the same day, streak unchanged.
	case prevKey:
		p.SafeDayStreak++
	default:
		p.SafeDayStreak = 1
	}
	p.LastSafeDay = dayKey
}

func (s *ProfileService) updateRecentTrips(p *models.DriverProfile, trip *models.Trip) {
	entry := models.RecentTrip{
		TripID:        trip.ID,
		Score:         trip.CompositeScore,
		DistanceMiles: stats.RoundTo(trip.DistanceMiles(), 2),
		FinalizedAt:   trip.FinalizedAt,
	}

	p.RecentTrips = append([]models.RecentTrip{entry}, p.RecentTrips...)
	if len(p.RecentTrips) > models.RecentTripsCap {
		p.RecentTrips = p.RecentTrips[:models.RecentTripsCap]
	}
}

// syncPeriodShareTx keeps the driver's pool-share period statistics current
// as trips finalize. Drivers who have not contributed this period have no
// share row yet; their stats seed from the profile when they first
// contribute.
func (s *ProfileService) syncPeriodShareTx(tx *sql.Tx, trip *models.Trip) error {
	period := time.Unix(trip.EndedAt, 0).UTC().Format("2006-01")

	share, err := s.pool.GetShareTx(tx, trip.DriverID, period)
	if err != nil {
		return err
	}
	if share == nil || share.Status != models.PoolShareStatusActive {
		return nil
	}

	share.AverageScore = weightedAverage(share.AverageScore, float64(trip.CompositeScore), float64(share.TripCount))
	share.TripCount++
	share.Miles += trip.DistanceMiles()

	return s.pool.UpsertShareTx(tx, share)
}

func (s *ProfileService) unlocked(p *models.DriverProfile) []string {
	var achievements []string
	switch p.TripCount {
	case 1:
		achievements = append(achievements, AchievementFirstTrip)
	case 10:
		achievements = append(achievements, AchievementTenTrips)
	case 50:
		achievements = append(achievements, AchievementFiftyTrips)
	}
	if p.SafeDayStreak == 7 {
		achievements = append(achievements, AchievementWeekStreak)
	}
	return achievements
}
