package service

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
)

func newLeaderboardService(t *testing.T, db *sql.DB, cfg config.Leaderboard) *LeaderboardService {
	t.Helper()

	return NewLeaderboardService(
		repository.NewProfileRepository(db),
		repository.NewLeaderboardRepository(db),
		cfg,
	)
}

// seedRankedProfiles creates three eligible drivers plus one below the trip
// floor. Two of the eligible drivers are tied on score.
func seedRankedProfiles(t *testing.T, db *sql.DB, lastTripAt int64) {
	t.Helper()

	seedProfile(t, db, &models.DriverProfile{
		DriverID: "alice", Score: 92, TripCount: 10, TotalMiles: 120, LastTripAt: lastTripAt,
	})
	seedProfile(t, db, &models.DriverProfile{
		DriverID: "bob", Score: 92, TripCount: 8, TotalMiles: 150, LastTripAt: lastTripAt,
	})
	seedProfile(t, db, &models.DriverProfile{
		DriverID: "carol", Score: 88, TripCount: 5, TotalMiles: 90, LastTripAt: lastTripAt,
	})
	seedProfile(t, db, &models.DriverProfile{
		DriverID: "dave", Score: 99, TripCount: 2, TotalMiles: 40, LastTripAt: lastTripAt,
	})
}

func TestRecomputeDenseRanking(t *testing.T) {
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, config.Load().Leaderboard)

	now := time.Now().UTC()
	seedRankedProfiles(t, db, now.Unix())

	period := PeriodKey(models.PeriodTypeMonthly, now)
	snapshot, err := svc.Recompute(models.PeriodTypeMonthly, period)
	require.NoError(t, err)

	// dave has only 2 trips and is not ranked.
	require.Len(t, snapshot.Entries, 3)
	assert.Equal(t, 3, snapshot.Participants)

	// Tied at 92, bob leads on miles; carol resumes at rank 2 with no gap.
	assert.Equal(t, "bob", snapshot.Entries[0].DriverID)
	assert.Equal(t, 1, snapshot.Entries[0].Rank)
	assert.Equal(t, "alice", snapshot.Entries[1].DriverID)
	assert.Equal(t, 1, snapshot.Entries[1].Rank)
	assert.Equal(t, "carol", snapshot.Entries[2].DriverID)
	assert.Equal(t, 2, snapshot.Entries[2].Rank)

	assert.Equal(t, 90.7, snapshot.AverageScore)
	assert.Equal(t, 92.0, snapshot.MedianScore)
}

func TestRecomputeRankChange(t *testing.T) {
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, config.Load().Leaderboard)

	now := time.Now().UTC()
	seedRankedProfiles(t, db, now.Unix())

	period := PeriodKey(models.PeriodTypeMonthly, now)
	prevPeriod, err := previousPeriodKey(models.PeriodTypeMonthly, period)
	require.NoError(t, err)

	snapshots := repository.NewLeaderboardRepository(db)
	require.NoError(t, snapshots.Upsert(&models.LeaderboardSnapshot{
		PeriodType: models.PeriodTypeMonthly,
		Period:     prevPeriod,
		Entries: []models.LeaderboardEntry{
			{Rank: 1, DriverID: "carol", Score: 94},
			{Rank: 3, DriverID: "alice", Score: 81},
		},
		Participants: 2,
	}))

	snapshot, err := svc.Recompute(models.PeriodTypeMonthly, period)
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 3)

	byDriver := make(map[string]models.LeaderboardEntry)
	for _, e := range snapshot.Entries {
		byDriver[e.DriverID] = e
	}

	assert.Equal(t, 2, byDriver["alice"].Change)  // rank 3 -> 1
	assert.Equal(t, -1, byDriver["carol"].Change) // rank 1 -> 2
	assert.Equal(t, 0, byDriver["bob"].Change)    // absent from prior snapshot
}

func TestRecomputeTieBreakOnRoundedScore(t *testing.T) {
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, config.Load().Leaderboard)

	now := time.Now().UTC()
	// Raw scores differ only past the display precision: both read 92.0, so
	// the miles tie-break decides the order, not the raw float.
	seedProfile(t, db, &models.DriverProfile{
		DriverID: "erin", Score: 92.04, TripCount: 6, TotalMiles: 50, LastTripAt: now.Unix(),
	})
	seedProfile(t, db, &models.DriverProfile{
		DriverID: "frank", Score: 91.97, TripCount: 6, TotalMiles: 200, LastTripAt: now.Unix(),
	})

	snapshot, err := svc.Recompute(models.PeriodTypeMonthly, PeriodKey(models.PeriodTypeMonthly, now))
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 2)

	assert.Equal(t, "frank", snapshot.Entries[0].DriverID)
	assert.Equal(t, 1, snapshot.Entries[0].Rank)
	assert.Equal(t, "erin", snapshot.Entries[1].DriverID)
	assert.Equal(t, 1, snapshot.Entries[1].Rank)
	assert.Equal(t, 92.0, snapshot.Entries[0].Score)
	assert.Equal(t, 92.0, snapshot.Entries[1].Score)
}

func TestRecomputeCapsEntries(t *testing.T) {
	db := newTestDB(t)
	cfg := config.Load().Leaderboard
	cfg.MaxSize = 2
	svc := newLeaderboardService(t, db, cfg)

	now := time.Now().UTC()
	seedRankedProfiles(t, db, now.Unix())

	snapshot, err := svc.Recompute(models.PeriodTypeMonthly, PeriodKey(models.PeriodTypeMonthly, now))
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, "bob", snapshot.Entries[0].DriverID)
	assert.Equal(t, "alice", snapshot.Entries[1].DriverID)
}

func TestMonthlyBoardExcludesIdleDrivers(t *testing.T) {
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, config.Load().Leaderboard)

	now := time.Now().UTC()
	// Last trip three months ago: outside the current month's window.
	seedRankedProfiles(t, db, now.AddDate(0, -3, 0).Unix())

	snapshot, err := svc.Recompute(models.PeriodTypeMonthly, PeriodKey(models.PeriodTypeMonthly, now))
	require.NoError(t, err)
	assert.Empty(t, snapshot.Entries)
	assert.Equal(t, 0.0, snapshot.AverageScore)

	// The all-time board has no window and still ranks them.
	allTime, err := svc.Recompute(models.PeriodTypeAllTime, "all")
	require.NoError(t, err)
	assert.Len(t, allTime.Entries, 3)
}

func TestGetComputesOnFirstRead(t *testing.T) {
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, config.Load().Leaderboard)

	now := time.Now().UTC()
	seedRankedProfiles(t, db, now.Unix())

	snapshot, err := svc.Get(models.PeriodTypeMonthly, "")
	require.NoError(t, err)
	assert.Equal(t, PeriodKey(models.PeriodTypeMonthly, now), snapshot.Period)
	assert.Len(t, snapshot.Entries, 3)

	stored, err := repository.NewLeaderboardRepository(db).Get(models.PeriodTypeMonthly, snapshot.Period)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, snapshot.Participants, stored.Participants)
}

func TestGetRejectsUnknownPeriodType(t *testing.T) {
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, config.Load().Leaderboard)

	_, err := svc.Get("daily", "")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = svc.Recompute(models.PeriodTypeWeekly, "2026-08")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestPeriodKeys(t *testing.T) {
	jan1 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-W01", PeriodKey(models.PeriodTypeWeekly, jan1))
	assert.Equal(t, "2026-01", PeriodKey(models.PeriodTypeMonthly, jan1))
	assert.Equal(t, "all", PeriodKey(models.PeriodTypeAllTime, jan1))

	// ISO week 1 of 2026 starts on Monday, December 29th 2025.
	start, err := isoWeekStart("2026-W01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), start)

	prev, err := previousPeriodKey(models.PeriodTypeWeekly, "2026-W01")
	require.NoError(t, err)
	assert.Equal(t, "2025-W52", prev)

	prev, err = previousPeriodKey(models.PeriodTypeMonthly, "2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-12", prev)

	_, err = isoWeekStart("nonsense")
	assert.True(t, errors.Is(err, ErrValidation))
}
