package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 80.0, Mean([]float64{70, 80, 90}))
}

func TestMedianOddCount(t *testing.T) {
	assert.Equal(t, 80.0, Median([]float64{70, 75, 80, 85, 90}))
}

func TestMedianEvenCount(t *testing.T) {
	assert.Equal(t, 85.0, Median([]float64{70, 80, 90, 100}))
}

func TestMedianUnsortedInput(t *testing.T) {
	assert.Equal(t, 80.0, Median([]float64{90, 70, 80, 85, 75}))
}

func TestMedianEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 83.3, RoundTo(83.333, 1))
	assert.Equal(t, 61.2903, RoundTo(61.29032258, 4))
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 30.0, Percentile(values, 50))
	assert.Equal(t, 10.0, Percentile(values, 0))
	assert.Equal(t, 50.0, Percentile(values, 100))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}
