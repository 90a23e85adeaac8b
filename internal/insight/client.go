package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TripSummary is the compact payload sent to the insight provider. It is a
// digest, not raw telemetry.
type TripSummary struct {
	TripID          string  `json:"tripId"`
	DistanceMeters  int64   `json:"distanceMeters"`
	DurationSeconds int64   `json:"durationSeconds"`

	SpeedP50Mps float64 `json:"speedP50Mps"`
	SpeedP95Mps float64 `json:"speedP95Mps"`
	AccelP95    float64 `json:"accelP95"`

	HarshBraking    int `json:"harshBraking"`
	RapidAccel      int `json:"rapidAccel"`
	SpeedingSeconds int `json:"speedingSeconds"`
	SharpTurns      int `json:"sharpTurns"`
	PhonePickups    int `json:"phonePickups"`

	CompositeScore int `json:"compositeScore"`
	SpeedScore     int `json:"speedScore"`
	BrakingScore   int `json:"brakingScore"`
	AccelScore     int `json:"accelScore"`
	CorneringScore int `json:"corneringScore"`
	PhoneScore     int `json:"phoneScore"`

	DriverTripCount int64   `json:"driverTripCount"`
	DriverAvgScore  float64 `json:"driverAvgScore"`
}

// Insight is the provider's advisory response. The suggested adjustment is
// never applied to the authoritative composite score.
type Insight struct {
	Narrative           string `json:"narrative"`
	SuggestedAdjustment int    `json:"suggestedAdjustment"`
}

// Client talks to the external AI insight provider. A nil client (no URL
// configured) disables enrichment entirely.
type Client struct {
	http *resty.Client
}

// NewClient creates an insight client, or nil when baseURL is empty.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(1)

	return &Client{http: c}
}

// Enrich requests a narrative for a scored trip.
func (c *Client) Enrich(ctx context.Context, summary TripSummary) (*Insight, error) {
	if c == nil {
		return nil, nil
	}

	var result Insight
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(summary).
		SetResult(&result).
		Post("/v1/trip-insights")
	if err != nil {
		return nil, fmt.Errorf("insight request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("insight provider returned %d", resp.StatusCode())
	}

	return &result, nil
}
