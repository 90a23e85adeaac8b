package service

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
)

func newTripService(t *testing.T, db *sql.DB) (*TripService, *ProfileService) {
	t.Helper()

	cfg := config.Load()
	profiles := NewProfileService(
		repository.NewProfileRepository(db),
		repository.NewPoolRepository(db),
		cfg.Scoring,
	)
	trips := NewTripService(db,
		repository.NewTripRepository(db),
		repository.NewTelemetryRepository(db),
		profiles, nil, nil, cfg.Scoring,
	)
	return trips, profiles
}

// cleanSamples builds a steady 20 m/s northbound drive, one fix per second.
func cleanSamples(n int) []models.TelemetrySample {
	samples := make([]models.TelemetrySample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, models.TelemetrySample{
			OffsetMs:      int64(i) * 1000,
			Latitude:      52.52 + float64(i)*0.00018,
			Longitude:     13.405,
			SpeedCentiMps: 2000,
		})
	}
	return samples
}

func startTrip(t *testing.T, svc *TripService, driverID string) *models.Trip {
	t.Helper()

	trip, err := svc.Start(driverID, models.StartTripRequest{
		StartLat:   52.52,
		StartLng:   13.405,
		StartPlace: "home",
	})
	require.NoError(t, err)
	require.Equal(t, models.TripStatusRecording, trip.Status)
	return trip
}

func TestFinalizeCleanTrip(t *testing.T) {
	db := newTestDB(t)
	svc, profiles := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")
	samples := cleanSamples(91)
	require.NoError(t, svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: samples}))

	scored, err := svc.Finalize("driver-1", trip.ID, models.FinalizeTripRequest{
		EndLat:   samples[len(samples)-1].Latitude,
		EndLng:   13.405,
		EndPlace: "work",
	})
	require.NoError(t, err)

	assert.Equal(t, models.TripStatusScored, scored.Status)
	assert.Equal(t, 100, scored.CompositeScore)
	assert.Equal(t, 100, scored.Categories.Speed)
	assert.Equal(t, 100, scored.Categories.Braking)
	assert.Equal(t, int64(90), scored.DurationSeconds)
	assert.InDelta(t, 1800, float64(scored.DistanceMeters), 20)
	assert.Equal(t, models.EventCounts{}, scored.Events)
	assert.False(t, scored.Anomalies.FlaggedForReview)

	profile, err := profiles.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TripCount)
	assert.Equal(t, 100.0, profile.Score)
	assert.Equal(t, models.RiskTierLow, profile.RiskTier)
	assert.Equal(t, 1, profile.SafeDayStreak)
	require.Len(t, profile.RecentTrips, 1)
	assert.Equal(t, trip.ID, profile.RecentTrips[0].TripID)
}

func TestFinalizeCountsEvents(t *testing.T) {
	db := newTestDB(t)
	svc, profiles := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")

	// One harsh brake (20 -> 10 m/s) immediately undone by one rapid
	// acceleration (10 -> 20 m/s).
	samples := cleanSamples(91)
	samples[10].SpeedCentiMps = 1000

	require.NoError(t, svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: samples}))

	scored, err := svc.Finalize("driver-1", trip.ID, models.FinalizeTripRequest{
		EndLat:       samples[len(samples)-1].Latitude,
		EndLng:       13.405,
		PhonePickups: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, scored.Events.HarshBraking)
	assert.Equal(t, 1, scored.Events.RapidAccel)
	assert.Equal(t, 1, scored.Events.PhonePickups)
	assert.Equal(t, 95, scored.Categories.Braking)
	assert.Equal(t, 95, scored.Categories.Acceleration)
	assert.Equal(t, 90, scored.Categories.Phone)
	// 0.25*100 + 0.25*95 + 0.20*95 + 0.20*100 + 0.10*90 = 96.75
	assert.Equal(t, 97, scored.CompositeScore)

	profile, err := profiles.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 97.0, profile.Score)
}

func TestFinalizeRejectsShortTrip(t *testing.T) {
	db := newTestDB(t)
	svc, profiles := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")
	samples := cleanSamples(46) // 45 seconds, under the 60s floor
	require.NoError(t, svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: samples}))

	rejected, err := svc.Finalize("driver-1", trip.ID, models.FinalizeTripRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusRejected, rejected.Status)
	assert.Equal(t, 0, rejected.CompositeScore)

	// Rejected trips never touch the profile.
	_, err = profiles.Get("driver-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFinalizeIsOneShot(t *testing.T) {
	db := newTestDB(t)
	svc, profiles := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")
	require.NoError(t, svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: cleanSamples(91)}))

	_, err := svc.Finalize("driver-1", trip.ID, models.FinalizeTripRequest{})
	require.NoError(t, err)

	_, err = svc.Finalize("driver-1", trip.ID, models.FinalizeTripRequest{})
	assert.True(t, errors.Is(err, ErrPrecondition))

	profile, err := profiles.Get("driver-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TripCount)
}

func TestAppendTelemetryAfterFinalizeRejected(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")
	require.NoError(t, svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: cleanSamples(91)}))

	_, err := svc.Finalize("driver-1", trip.ID, models.FinalizeTripRequest{})
	require.NoError(t, err)

	err = svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: cleanSamples(3)})
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestAppendTelemetryRejectsUnorderedBatch(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")
	samples := cleanSamples(3)
	samples[1].OffsetMs = samples[2].OffsetMs

	err := svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{Samples: samples})
	assert.True(t, errors.Is(err, ErrValidation))

	err = svc.AppendTelemetry("driver-1", trip.ID, models.TelemetryBatch{})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestTripsAreOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTripService(t, db)

	trip := startTrip(t, svc, "driver-1")

	_, err := svc.GetByID("driver-2", trip.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = svc.AppendTelemetry("driver-2", trip.ID, models.TelemetryBatch{Samples: cleanSamples(3)})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.Finalize("driver-2", trip.ID, models.FinalizeTripRequest{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStartRejectsBadCoordinates(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTripService(t, db)

	_, err := svc.Start("driver-1", models.StartTripRequest{StartLat: 91, StartLng: 0})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = svc.Start("", models.StartTripRequest{})
	assert.True(t, errors.Is(err, ErrValidation))
}
