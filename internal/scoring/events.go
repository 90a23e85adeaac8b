package scoring

import (
	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/spatial"
)

// Thresholds holds the event-detection constants for one detector pass.
type Thresholds struct {
	HarshBrakeMps2       float64
	RapidAccelMps2       float64
	MaxSampleGapS        float64
	SharpTurnDeg         float64
	SharpTurnWinS        float64
	DefaultSpeedLimitMps float64
	GPSJumpMps           float64
	MaxSensorSpeedMps    float64
}

// ThresholdsFromConfig builds detector thresholds from the loaded config.
func ThresholdsFromConfig(cfg config.Scoring) Thresholds {
	return Thresholds{
		HarshBrakeMps2:       cfg.HarshBrakeMps2,
		RapidAccelMps2:       cfg.RapidAccelMps2,
		MaxSampleGapS:        cfg.MaxSampleGapS,
		SharpTurnDeg:         cfg.SharpTurnDeg,
		SharpTurnWinS:        cfg.SharpTurnWinS,
		DefaultSpeedLimitMps: cfg.DefaultSpeedLimitMps,
		GPSJumpMps:           cfg.GPSJumpMps,
		MaxSensorSpeedMps:    cfg.MaxSensorSpeedMps,
	}
}

// DetectEvents scans an ordered sample sequence for harsh-braking,
// rapid-acceleration, speeding and sharp-turn events.
//
// Instantaneous acceleration is (v[i]-v[i-1])/dt for 0 < dt < MaxSampleGapS.
// Gaps at or above MaxSampleGapS are sensor discontinuities; the pair is
// skipped rather than averaged across.
func DetectEvents(samples []models.TelemetrySample, th Thresholds) models.EventCounts {
	var counts models.EventCounts

	if len(samples) < 2 {
		return counts
	}

	var speedingS float64
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1]
		curr := samples[i]

		dt := float64(curr.OffsetMs-prev.OffsetMs) / 1000.0
		if dt <= 0 || dt >= th.MaxSampleGapS {
			continue
		}

		accel := (curr.SpeedMps() - prev.SpeedMps()) / dt
		if accel <= -th.HarshBrakeMps2 {
			counts.HarshBraking++
		} else if accel >= th.RapidAccelMps2 {
			counts.RapidAccel++
		}

		limit := curr.SpeedLimitMps()
		if limit <= 0 {
			limit = th.DefaultSpeedLimitMps
		}
		if curr.SpeedMps() > limit {
			speedingS += dt
		}

		if dt <= th.SharpTurnWinS {
			delta := spatial.HeadingDelta(prev.HeadingDeg, curr.HeadingDeg)
			if delta >= th.SharpTurnDeg {
				counts.SharpTurns++
			}
		}
	}
	counts.SpeedingSeconds = int(speedingS)

	return counts
}
