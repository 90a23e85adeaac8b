package spatial

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
)

// HaversineDistance calculates the great-circle distance between two points
// in meters using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PathDistance returns the cumulative distance in meters along an ordered
// sample sequence. Returns 0 for fewer than 2 samples.
func PathDistance(samples []models.TelemetrySample) float64 {
	if len(samples) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(samples); i++ {
		total += HaversineDistance(
			samples[i-1].Latitude, samples[i-1].Longitude,
			samples[i].Latitude, samples[i].Longitude,
		)
	}
	return total
}

// DurationSeconds returns the elapsed whole seconds between the first and
// last sample. Returns 0 for fewer than 2 samples, and a minimum of 1 second
// otherwise, guarding against zero or negative intervals from duplicate
// timestamps.
func DurationSeconds(samples []models.TelemetrySample) int64 {
	if len(samples) < 2 {
		return 0
	}

	elapsed := (samples[len(samples)-1].OffsetMs - samples[0].OffsetMs) / 1000
	if elapsed < 1 {
		return 1
	}
	return elapsed
}

// Bearing calculates the initial bearing (forward azimuth) from point 1 to point 2
// Returns bearing in degrees (0-360), where 0 is North, 90 is East, etc.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lonDiff := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)
	bearing := math.Atan2(y, x)

	bearingDeg := bearing * 180 / math.Pi
	return math.Mod(bearingDeg+360, 360)
}

// HeadingDelta returns the magnitude of the shortest angular difference
// between two headings in degrees, always in [0,180].
func HeadingDelta(h1, h2 float64) float64 {
	d := math.Mod(math.Abs(h2-h1), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
