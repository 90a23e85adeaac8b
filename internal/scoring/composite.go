package scoring

import (
	"math"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// Category weights. They sum to 1.0 exactly.
const (
	WeightSpeed        = 0.25
	WeightBraking      = 0.25
	WeightAcceleration = 0.20
	WeightCornering    = 0.20
	WeightPhone        = 0.10
)

// Penalties holds the per-category linear penalty constants.
type Penalties struct {
	PerBrake                int
	PerAccel                int
	PerTurn                 int
	SpeedingSecondsPerPoint int
	PerPickup               int
}

// PenaltiesFromConfig builds penalty constants from the loaded config.
func PenaltiesFromConfig(cfg config.Scoring) Penalties {
	return Penalties{
		PerBrake:                cfg.PenaltyPerBrake,
		PerAccel:                cfg.PenaltyPerAccel,
		PerTurn:                 cfg.PenaltyPerTurn,
		SpeedingSecondsPerPoint: cfg.SpeedingSecondsPerPoint,
		PerPickup:               cfg.PenaltyPerPickup,
	}
}

// CategoryScores applies the linear penalty model to the detected event
// counts: max(0, 100 - eventCount*penaltyPerEvent). Phone scores 100 when
// no pickup data was reported.
func CategoryScores(events models.EventCounts, p Penalties) models.CategoryScores {
	speedPenalty := 0
	if p.SpeedingSecondsPerPoint > 0 {
		speedPenalty = events.SpeedingSeconds / p.SpeedingSecondsPerPoint
	}

	return models.CategoryScores{
		Speed:        penalize(speedPenalty, 1),
		Braking:      penalize(events.HarshBraking, p.PerBrake),
		Acceleration: penalize(events.RapidAccel, p.PerAccel),
		Cornering:    penalize(events.SharpTurns, p.PerTurn),
		Phone:        penalize(events.PhonePickups, p.PerPickup),
	}
}

// Composite combines the five category scores into one weighted 0-100 score.
// The clamp after rounding guards against floating rounding drift.
func Composite(c models.CategoryScores) int {
	weighted := float64(c.Speed)*WeightSpeed +
		float64(c.Braking)*WeightBraking +
		float64(c.Acceleration)*WeightAcceleration +
		float64(c.Cornering)*WeightCornering +
		float64(c.Phone)*WeightPhone

	return clamp(int(math.Round(weighted)))
}

func penalize(count, perEvent int) int {
	return clamp(100 - count*perEvent)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
