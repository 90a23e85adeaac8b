package scoring

import (
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/spatial"
)

// DetectAnomalies flags suspicious telemetry in an ordered sample sequence.
// The flags are advisory only: they mark a trip for downstream review and
// never block or alter scoring.
//
// The duplicate-trip flag needs repository context and is set by the caller;
// FlaggedForReview is recomputed there once all flags are known.
func DetectAnomalies(samples []models.TelemetrySample, th Thresholds) models.AnomalyFlags {
	var flags models.AnomalyFlags

	for i, s := range samples {
		if s.SpeedMps() > th.MaxSensorSpeedMps {
			flags.ImpossibleSpeed = true
		}

		if i == 0 {
			continue
		}
		prev := samples[i-1]
		dt := float64(s.OffsetMs-prev.OffsetMs) / 1000.0
		if dt <= 0 {
			continue
		}

		// Implied ground speed between consecutive fixes. Above the ceiling
		// the position jumped, the vehicle did not.
		dist := spatial.HaversineDistance(prev.Latitude, prev.Longitude, s.Latitude, s.Longitude)
		if dist/dt > th.GPSJumpMps {
			flags.GPSJump = true
		}
	}

	flags.FlaggedForReview = flags.GPSJump || flags.ImpossibleSpeed
	return flags
}
