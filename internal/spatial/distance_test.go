package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drivepool/drivepool-backend-go/internal/models"
)

func TestHaversineDistanceSymmetric(t *testing.T) {
	lat1, lon1 := 40.7128, -74.0060 // New York
	lat2, lon2 := 34.0522, -118.2437 // Los Angeles

	d1 := HaversineDistance(lat1, lon1, lat2, lon2)
	d2 := HaversineDistance(lat2, lon2, lat1, lon1)

	assert.InDelta(t, d1, d2, 1e-6)
	assert.Greater(t, d1, 3_900_000.0)
	assert.Less(t, d1, 4_000_000.0)
}

func TestHaversineDistanceZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(51.5074, -0.1278, 51.5074, -0.1278))
}

func TestHaversineDistanceOneDegreeLongitudeAtEquator(t *testing.T) {
	// One degree of arc on a 6371km sphere is about 111.19 km.
	d := HaversineDistance(0, 0, 0, 1)
	assert.InDelta(t, 111195, d, 50)
}

func TestPathDistance(t *testing.T) {
	samples := []models.TelemetrySample{
		{OffsetMs: 0, Latitude: 0, Longitude: 0},
		{OffsetMs: 1000, Latitude: 0, Longitude: 0.001},
		{OffsetMs: 2000, Latitude: 0, Longitude: 0.002},
	}

	total := PathDistance(samples)
	leg := HaversineDistance(0, 0, 0, 0.001)
	assert.InDelta(t, 2*leg, total, 0.01)
}

func TestPathDistanceTooFewPoints(t *testing.T) {
	assert.Equal(t, 0.0, PathDistance(nil))
	assert.Equal(t, 0.0, PathDistance([]models.TelemetrySample{{Latitude: 1, Longitude: 1}}))
}

func TestDurationSeconds(t *testing.T) {
	samples := []models.TelemetrySample{
		{OffsetMs: 0},
		{OffsetMs: 90_500},
	}
	assert.Equal(t, int64(90), DurationSeconds(samples))
}

func TestDurationSecondsMinimumOneSecond(t *testing.T) {
	// Duplicate timestamps must not produce a zero duration.
	samples := []models.TelemetrySample{
		{OffsetMs: 1000},
		{OffsetMs: 1000},
	}
	assert.Equal(t, int64(1), DurationSeconds(samples))
}

func TestDurationSecondsTooFewPoints(t *testing.T) {
	assert.Equal(t, int64(0), DurationSeconds(nil))
	assert.Equal(t, int64(0), DurationSeconds([]models.TelemetrySample{{OffsetMs: 5000}}))
}

func TestHeadingDelta(t *testing.T) {
	assert.Equal(t, 0.0, HeadingDelta(90, 90))
	assert.Equal(t, 90.0, HeadingDelta(0, 90))
	// Wraparound across north
	assert.Equal(t, 20.0, HeadingDelta(350, 10))
	assert.Equal(t, 180.0, HeadingDelta(0, 180))
}
