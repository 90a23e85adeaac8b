package service

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/database"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
)

func newProfileService(t *testing.T, db *sql.DB) *ProfileService {
	t.Helper()

	return NewProfileService(
		repository.NewProfileRepository(db),
		repository.NewPoolRepository(db),
		config.Load().Scoring,
	)
}

func applyTrip(t *testing.T, db *sql.DB, svc *ProfileService, trip *models.Trip) []string {
	t.Helper()

	var achievements []string
	err := database.Transaction(db, func(tx *sql.Tx) error {
		var err error
		achievements, err = svc.ApplyTripTx(tx, trip)
		return err
	})
	require.NoError(t, err)
	return achievements
}

// scoredTrip builds a finalized trip with every category at the composite
// score, ten miles long and ten minutes of driving.
func scoredTrip(id string, score int, endedAt int64) *models.Trip {
	return &models.Trip{
		ID:              id,
		DriverID:        "driver-1",
		Status:          models.TripStatusScored,
		EndedAt:         endedAt,
		FinalizedAt:     endedAt,
		DistanceMeters:  16093, // ~10 miles
		DurationSeconds: 600,
		CompositeScore:  score,
		Categories: models.CategoryScores{
			Speed:        score,
			Braking:      score,
			Acceleration: score,
			Cornering:    score,
			Phone:        score,
		},
	}
}

func dayTs(day int) int64 {
	return time.Date(2026, 3, day, 15, 0, 0, 0, time.UTC).Unix()
}

func TestApplyTripFoldsWithPreUpdateWeight(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(t, db)

	achievements := applyTrip(t, db, svc, scoredTrip("t1", 100, dayTs(1)))
	assert.Contains(t, achievements, AchievementFirstTrip)

	applyTrip(t, db, svc, scoredTrip("t2", 70, dayTs(2)))

	// (100*1 + 70) / 2, not (100*2 + 70) / 3 and not the raw sample.
	profile, err := svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 85.0, profile.Score)

	applyTrip(t, db, svc, scoredTrip("t3", 91, dayTs(3)))

	profile, err = svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.TripCount)
	assert.Equal(t, 87.0, profile.Score) // (85*2 + 91) / 3

	// Every category folds with the same shared trip-count weight.
	assert.Equal(t, 87.0, profile.SpeedScore)
	assert.Equal(t, 87.0, profile.BrakingScore)
	assert.Equal(t, 87.0, profile.AccelerationScore)
	assert.Equal(t, 87.0, profile.CorneringScore)
	assert.Equal(t, 87.0, profile.PhoneScore)

	assert.InDelta(t, 30, profile.TotalMiles, 0.1)
	assert.Equal(t, int64(30), profile.TotalMinutes)
	assert.Equal(t, models.RiskTierLow, profile.RiskTier)
	assert.Equal(t, dayTs(3), profile.LastTripAt)

	require.Len(t, profile.RecentTrips, 3)
	assert.Equal(t, "t3", profile.RecentTrips[0].TripID)
	assert.Equal(t, "t1", profile.RecentTrips[2].TripID)
}

func TestRecentTripsCapped(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(t, db)

	for i := 1; i <= 5; i++ {
		applyTrip(t, db, svc, scoredTrip(fmt.Sprintf("t%d", i), 90, dayTs(i)))
	}

	profile, err := svc.Get("driver-1")
	require.NoError(t, err)
	require.Len(t, profile.RecentTrips, models.RecentTripsCap)
	assert.Equal(t, "t5", profile.RecentTrips[0].TripID)
	assert.Equal(t, "t3", profile.RecentTrips[2].TripID)
}

func TestSafeDayStreakTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(t, db)

	applyTrip(t, db, svc, scoredTrip("t1", 95, dayTs(1)))
	applyTrip(t, db, svc, scoredTrip("t2", 90, dayTs(1))) // same day, unchanged

	profile, err := svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SafeDayStreak)

	// An unsafe trip resets the streak outright.
	applyTrip(t, db, svc, scoredTrip("t3", 70, dayTs(2)))

	profile, err = svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.SafeDayStreak)

	// A safe trip after the reset restarts at 1: the last safe day is day 1,
	// not the day before this trip.
	applyTrip(t, db, svc, scoredTrip("t4", 91, dayTs(3)))

	profile, err = svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SafeDayStreak)
}

func TestSafeDayStreakWeekUnlocksAchievement(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(t, db)

	var achievements []string
	for day := 1; day <= 7; day++ {
		achievements = applyTrip(t, db, svc, scoredTrip(fmt.Sprintf("t%d", day), 92, dayTs(day)))
	}

	profile, err := svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 7, profile.SafeDayStreak)
	assert.Contains(t, achievements, AchievementWeekStreak)

	// A gap restarts the streak instead of extending it.
	applyTrip(t, db, svc, scoredTrip("t9", 92, dayTs(9)))

	profile, err = svc.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SafeDayStreak)
}
