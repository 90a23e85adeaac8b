package models

import "time"

// Trip lifecycle status constants
const (
	TripStatusRecording = "recording"
	TripStatusScored    = "scored"
	TripStatusRejected  = "rejected"
)

// CategoryScores holds the per-category score breakdown of a trip.
// Each value is clamped to [0,100].
type CategoryScores struct {
	Speed        int `json:"speed" db:"speed_score"`
	Braking      int `json:"braking" db:"braking_score"`
	Acceleration int `json:"acceleration" db:"accel_score"`
	Cornering    int `json:"cornering" db:"cornering_score"`
	Phone        int `json:"phone" db:"phone_score"`
}

// EventCounts holds the driving-event counters detected for a trip.
type EventCounts struct {
	HarshBraking    int `json:"harshBraking" db:"harsh_braking"`
	RapidAccel      int `json:"rapidAccel" db:"rapid_accel"`
	SpeedingSeconds int `json:"speedingSeconds" db:"speeding_seconds"`
	SharpTurns      int `json:"sharpTurns" db:"sharp_turns"`
	PhonePickups    int `json:"phonePickups" db:"phone_pickups"`
}

// AnomalyFlags are advisory data-integrity indicators. They never block or
// alter scoring; downstream review consumes them.
type AnomalyFlags struct {
	GPSJump          bool `json:"gpsJump" db:"gps_jump"`
	ImpossibleSpeed  bool `json:"impossibleSpeed" db:"impossible_speed"`
	DuplicateTrip    bool `json:"duplicateTrip" db:"duplicate_trip"`
	FlaggedForReview bool `json:"flaggedForReview" db:"flagged_for_review"`
}

// Trip represents one completed drive. Score fields are written exactly once,
// at finalization, and never mutated afterward.
type Trip struct {
	ID       string `json:"id" db:"id"`
	DriverID string `json:"driverId" db:"driver_id"`
	Status   string `json:"status" db:"status"`

	StartedAt int64 `json:"startedAt" db:"started_at"` // Unix timestamp in seconds
	EndedAt   int64 `json:"endedAt,omitempty" db:"ended_at"`

	StartLat   float64 `json:"startLat,omitempty" db:"start_lat"`
	StartLng   float64 `json:"startLng,omitempty" db:"start_lng"`
	EndLat     float64 `json:"endLat,omitempty" db:"end_lat"`
	EndLng     float64 `json:"endLng,omitempty" db:"end_lng"`
	StartPlace string  `json:"startPlace,omitempty" db:"start_place"` // home, work, other
	EndPlace   string  `json:"endPlace,omitempty" db:"end_place"`

	DistanceMeters  int64 `json:"distanceMeters" db:"distance_meters"`
	DurationSeconds int64 `json:"durationSeconds" db:"duration_seconds"`

	CompositeScore int            `json:"compositeScore" db:"composite_score"`
	Categories     CategoryScores `json:"categories"`
	Events         EventCounts    `json:"events"`
	Anomalies      AnomalyFlags   `json:"anomalies"`

	// Advisory enrichment from the external insight provider. Absence never
	// affects the authoritative composite score.
	Insight             string `json:"insight,omitempty" db:"insight"`
	SuggestedAdjustment int    `json:"suggestedAdjustment,omitempty" db:"suggested_adjustment"`

	FinalizedAt int64     `json:"finalizedAt,omitempty" db:"finalized_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// DistanceMiles returns the trip distance in miles.
func (t *Trip) DistanceMiles() float64 {
	return float64(t.DistanceMeters) / 1609.344
}

// DurationMinutes returns the trip duration in whole minutes.
func (t *Trip) DurationMinutes() int64 {
	return t.DurationSeconds / 60
}

// StartTripRequest is the payload for opening a new trip in recording state.
type StartTripRequest struct {
	StartLat   float64 `json:"startLat"`
	StartLng   float64 `json:"startLng"`
	StartPlace string  `json:"startPlace"`
}

// FinalizeTripRequest closes a trip's sample set and triggers scoring.
// PhonePickups comes from the device's screen-event counter; the GPS stream
// carries no phone data.
type FinalizeTripRequest struct {
	EndLat       float64 `json:"endLat"`
	EndLng       float64 `json:"endLng"`
	EndPlace     string  `json:"endPlace"`
	PhonePickups int     `json:"phonePickups"`
}

// TripFilter represents filter parameters for querying trips
type TripFilter struct {
	DriverID  string `form:"driverId"`
	Status    string `form:"status"`
	StartTime int64  `form:"startTime"` // Unix timestamp
	EndTime   int64  `form:"endTime"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
