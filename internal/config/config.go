package config

import (
	"os"
	"strconv"
	"time"
)

// Scoring holds the policy constants of the scoring pipeline. Thresholds and
// penalties are product policy, not algorithmic necessities, so they all load
// from the environment.
type Scoring struct {
	MinTripSeconds int64 // Trips shorter than this are rejected, not scored

	HarshBrakeMps2 float64 // Deceleration magnitude threshold, m/s^2
	RapidAccelMps2 float64 // Acceleration threshold, m/s^2
	MaxSampleGapS  float64 // Gaps >= this are sensor discontinuities, skipped
	SharpTurnDeg   float64 // Heading-delta spike threshold, degrees
	SharpTurnWinS  float64 // Window a heading spike must fall within, seconds

	DefaultSpeedLimitMps float64 // Fallback when a sample carries no limit
	GPSJumpMps           float64 // Implied speed above this flags a GPS jump
	MaxSensorSpeedMps    float64 // Reported speed above this is impossible

	PenaltyPerBrake         int // Points per harsh-braking event
	PenaltyPerAccel         int // Points per rapid-acceleration event
	PenaltyPerTurn          int // Points per sharp-turn event
	SpeedingSecondsPerPoint int // Seconds over limit per penalty point
	PenaltyPerPickup        int // Points per phone pickup

	SafeTripScore int // Minimum composite score that extends the safe-day streak
}

// Pool holds settlement policy constants.
type Pool struct {
	MaxContributionCents int64   // Per-call contribution ceiling
	ReserveRatio         float64 // Fraction of the pool held back as reserve
	MinScoreForRefund    float64 // Eligibility threshold for payout
	ConflictRetries      int     // Optimistic-concurrency retry budget
}

// Leaderboard holds ranking policy constants.
type Leaderboard struct {
	MinTrips          int64         // Eligibility floor for ranked drivers
	MaxSize           int           // Ranked output cap
	RecomputeInterval time.Duration // Snapshot refresh tick
}

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	InsightURL     string // AI insight provider base URL; empty disables enrichment
	InsightTimeout time.Duration
	AMQPURL        string // Push-event broker; empty disables publishing

	Scoring     Scoring
	Pool        Pool
	Leaderboard Leaderboard
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:      envStr("PORT", ":8080"),
		DBPath:    envStr("DB_PATH", "./data/drivepool.db"),
		JWTSecret: envStr("JWT_SECRET", "your-secret-key-change-in-production"),

		InsightURL:     envStr("INSIGHT_URL", ""),
		InsightTimeout: time.Duration(envInt("INSIGHT_TIMEOUT_MS", 3000)) * time.Millisecond,
		AMQPURL:        envStr("AMQP_URL", ""),

		Scoring: Scoring{
			MinTripSeconds: envInt("MIN_TRIP_SECONDS", 60),

			HarshBrakeMps2: envFloat("HARSH_BRAKE_MPS2", 3.0),
			RapidAccelMps2: envFloat("RAPID_ACCEL_MPS2", 3.0),
			MaxSampleGapS:  envFloat("MAX_SAMPLE_GAP_S", 10),
			SharpTurnDeg:   envFloat("SHARP_TURN_DEG", 45),
			SharpTurnWinS:  envFloat("SHARP_TURN_WINDOW_S", 3),

			DefaultSpeedLimitMps: envFloat("DEFAULT_SPEED_LIMIT_MPS", 27.78), // 100 km/h
			GPSJumpMps:           envFloat("GPS_JUMP_MPS", 80),
			MaxSensorSpeedMps:    envFloat("MAX_SENSOR_SPEED_MPS", 90),

			PenaltyPerBrake:         int(envInt("PENALTY_PER_BRAKE", 5)),
			PenaltyPerAccel:         int(envInt("PENALTY_PER_ACCEL", 5)),
			PenaltyPerTurn:          int(envInt("PENALTY_PER_TURN", 3)),
			SpeedingSecondsPerPoint: int(envInt("SPEEDING_SECONDS_PER_POINT", 10)),
			PenaltyPerPickup:        int(envInt("PENALTY_PER_PICKUP", 10)),

			SafeTripScore: int(envInt("SAFE_TRIP_SCORE", 80)),
		},

		Pool: Pool{
			MaxContributionCents: envInt("MAX_CONTRIBUTION_CENTS", 100000), // $1000
			ReserveRatio:         envFloat("POOL_RESERVE_RATIO", 0.10),
			MinScoreForRefund:    envFloat("MIN_SCORE_FOR_REFUND", 70),
			ConflictRetries:      int(envInt("POOL_CONFLICT_RETRIES", 3)),
		},

		Leaderboard: Leaderboard{
			MinTrips:          envInt("LEADERBOARD_MIN_TRIPS", 3),
			MaxSize:           int(envInt("LEADERBOARD_MAX_SIZE", 100)),
			RecomputeInterval: time.Duration(envInt("LEADERBOARD_INTERVAL_S", 600)) * time.Second,
		},
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
