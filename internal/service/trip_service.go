package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/database"
	"github.com/drivepool/drivepool-backend-go/internal/insight"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/notifier"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
	"github.com/drivepool/drivepool-backend-go/internal/scoring"
	"github.com/drivepool/drivepool-backend-go/internal/spatial"
	"github.com/drivepool/drivepool-backend-go/internal/stats"
)

// TripService owns the trip lifecycle: recording, telemetry ingest and the
// one-shot finalization that scores the trip and updates the driver profile.
type TripService struct {
	db        *sql.DB
	trips     *repository.TripRepository
	telemetry *repository.TelemetryRepository
	profiles  *ProfileService
	insights  *insight.Client
	events    *notifier.Publisher
	cfg       config.Scoring
}

// NewTripService creates a new trip service
func NewTripService(
	db *sql.DB,
	trips *repository.TripRepository,
	telemetry *repository.TelemetryRepository,
	profiles *ProfileService,
	insights *insight.Client,
	events *notifier.Publisher,
	cfg config.Scoring,
) *TripService {
	return &TripService{
		db:        db,
		trips:     trips,
		telemetry: telemetry,
		profiles:  profiles,
		insights:  insights,
		events:    events,
		cfg:       cfg,
	}
}

// Start opens a new trip in recording state.
func (s *TripService) Start(driverID string, req models.StartTripRequest) (*models.Trip, error) {
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver id is required", ErrValidation)
	}
	if err := validateCoords(req.StartLat, req.StartLng); err != nil {
		return nil, err
	}

	trip := &models.Trip{
		ID:         uuid.NewString(),
		DriverID:   driverID,
		Status:     models.TripStatusRecording,
		StartedAt:  time.Now().Unix(),
		StartLat:   req.StartLat,
		StartLng:   req.StartLng,
		StartPlace: req.StartPlace,
	}

	if err := s.trips.Create(trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// AppendTelemetry records a batch of samples for a recording trip. Batches
// must be ordered by offset; appends after the trip left recording state are
// rejected.
func (s *TripService) AppendTelemetry(driverID, tripID string, batch models.TelemetryBatch) error {
	if len(batch.Samples) == 0 {
		return fmt.Errorf("%w: empty telemetry batch", ErrValidation)
	}

	trip, err := s.trips.GetByID(tripID)
	if err != nil {
		return err
	}
	if trip == nil || trip.DriverID != driverID {
		return fmt.Errorf("%w: trip %s", ErrNotFound, tripID)
	}
	if trip.Status != models.TripStatusRecording {
		return fmt.Errorf("%w: trip %s is %s", ErrPrecondition, tripID, trip.Status)
	}

	prev := int64(-1)
	for _, sample := range batch.Samples {
		if sample.OffsetMs < 0 || sample.OffsetMs <= prev {
			return fmt.Errorf("%w: samples must be ordered by offsetMs", ErrValidation)
		}
		prev = sample.OffsetMs
		if err := validateCoords(sample.Latitude, sample.Longitude); err != nil {
			return err
		}
	}

	return s.telemetry.AppendBatch(tripID, batch.Samples)
}

// GetByID returns a trip by id, scoped to its owner.
func (s *TripService) GetByID(driverID, tripID string) (*models.Trip, error) {
	trip, err := s.trips.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil || trip.DriverID != driverID {
		return nil, fmt.Errorf("%w: trip %s", ErrNotFound, tripID)
	}
	return trip, nil
}

// List returns the driver's trips with pagination.
func (s *TripService) List(filter models.TripFilter) ([]models.Trip, int64, error) {
	return s.trips.List(filter)
}

// Finalize closes a trip's sample set and scores it, exactly once.
//
// recording -> rejected when the trip is shorter than the configured
// threshold; recording -> scored otherwise. Both transitions are terminal.
// The trip-status write and the profile update commit as one transaction:
// a failed finalize leaves the trip in recording state for a later retry.
func (s *TripService) Finalize(driverID, tripID string, req models.FinalizeTripRequest) (*models.Trip, error) {
	trip, err := s.trips.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil || trip.DriverID != driverID {
		return nil, fmt.Errorf("%w: trip %s", ErrNotFound, tripID)
	}
	if trip.Status != models.TripStatusRecording {
		return nil, fmt.Errorf("%w: trip %s already %s", ErrPrecondition, tripID, trip.Status)
	}

	samples, err := s.telemetry.GetByTrip(tripID)
	if err != nil {
		return nil, err
	}

	duration := spatial.DurationSeconds(samples)
	trip.DurationSeconds = duration
	trip.EndedAt = trip.StartedAt + duration

	// Short-trip guard: a defined terminal outcome, not an error.
	if duration < s.cfg.MinTripSeconds {
		err := database.Transaction(s.db, func(tx *sql.Tx) error {
			applied, err := s.trips.MarkRejectedTx(tx, tripID, trip.EndedAt, duration)
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("%w: trip %s left recording state", ErrPrecondition, tripID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		trip.Status = models.TripStatusRejected
		log.Printf("[TripFinalizer] Rejected short trip %s (%ds)", tripID, duration)
		return trip, nil
	}

	trip.EndLat = req.EndLat
	trip.EndLng = req.EndLng
	trip.EndPlace = req.EndPlace
	trip.DistanceMeters = int64(spatial.PathDistance(samples))

	thresholds := scoring.ThresholdsFromConfig(s.cfg)
	trip.Events = scoring.DetectEvents(samples, thresholds)
	trip.Events.PhonePickups = req.PhonePickups
	trip.Anomalies = scoring.DetectAnomalies(samples, thresholds)

	trip.Categories = scoring.CategoryScores(trip.Events, scoring.PenaltiesFromConfig(s.cfg))
	trip.CompositeScore = scoring.Composite(trip.Categories)
	trip.FinalizedAt = time.Now().Unix()

	var achievements []string
	err = database.Transaction(s.db, func(tx *sql.Tx) error {
		dup, err := s.trips.HasDuplicateTx(tx, trip)
		if err != nil {
			return err
		}
		trip.Anomalies.DuplicateTrip = dup
		trip.Anomalies.FlaggedForReview = trip.Anomalies.FlaggedForReview || dup

		applied, err := s.trips.MarkScoredTx(tx, trip)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("%w: trip %s left recording state", ErrPrecondition, tripID)
		}

		achievements, err = s.profiles.ApplyTripTx(tx, trip)
		return err
	})
	if err != nil {
		return nil, err
	}
	trip.Status = models.TripStatusScored

	log.Printf("[TripFinalizer] Scored trip %s: composite=%d distance=%dm duration=%ds",
		tripID, trip.CompositeScore, trip.DistanceMeters, trip.DurationSeconds)

	s.events.TripScored(trip.ID, trip.DriverID, trip.CompositeScore)
	for _, a := range achievements {
		s.events.AchievementUnlocked(trip.DriverID, a)
	}

	// Advisory enrichment runs after commit; its absence or failure never
	// blocks or alters the authoritative score.
	go s.enrich(trip, samples)

	return trip, nil
}

func (s *TripService) enrich(trip *models.Trip, samples []models.TelemetrySample) {
	if s.insights == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary := s.buildSummary(trip, samples)
	result, err := s.insights.Enrich(ctx, summary)
	if err != nil {
		log.Printf("[TripFinalizer] Insight enrichment failed for trip %s: %v", trip.ID, err)
		return
	}
	if result == nil || result.Narrative == "" {
		return
	}

	if err := s.trips.SetInsight(trip.ID, result.Narrative, result.SuggestedAdjustment); err != nil {
		log.Printf("[TripFinalizer] Failed to store insight for trip %s: %v", trip.ID, err)
	}
}

func (s *TripService) buildSummary(trip *models.Trip, samples []models.TelemetrySample) insight.TripSummary {
	speeds := make([]float64, 0, len(samples))
	var accels []float64
	for i, sample := range samples {
		speeds = append(speeds, sample.SpeedMps())
		if i == 0 {
			continue
		}
		dt := float64(sample.OffsetMs-samples[i-1].OffsetMs) / 1000.0
		if dt > 0 && dt < s.cfg.MaxSampleGapS {
			accels = append(accels, (sample.SpeedMps()-samples[i-1].SpeedMps())/dt)
		}
	}

	summary := insight.TripSummary{
		TripID:          trip.ID,
		DistanceMeters:  trip.DistanceMeters,
		DurationSeconds: trip.DurationSeconds,
		SpeedP50Mps:     stats.Percentile(speeds, 50),
		SpeedP95Mps:     stats.Percentile(speeds, 95),
		AccelP95:        stats.Percentile(accels, 95),
		HarshBraking:    trip.Events.HarshBraking,
		RapidAccel:      trip.Events.RapidAccel,
		SpeedingSeconds: trip.Events.SpeedingSeconds,
		SharpTurns:      trip.Events.SharpTurns,
		PhonePickups:    trip.Events.PhonePickups,
		CompositeScore:  trip.CompositeScore,
		SpeedScore:      trip.Categories.Speed,
		BrakingScore:    trip.Categories.Braking,
		AccelScore:      trip.Categories.Acceleration,
		CorneringScore:  trip.Categories.Cornering,
		PhoneScore:      trip.Categories.Phone,
	}

	if profile, err := s.profiles.Get(trip.DriverID); err == nil {
		summary.DriverTripCount = profile.TripCount
		summary.DriverAvgScore = profile.Score
	}

	return summary
}

func validateCoords(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	return nil
}
