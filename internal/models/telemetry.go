package models

// TelemetrySample is one GPS fix inside a trip. Offsets are milliseconds
// since trip start; speeds are stored in centi-m/s to keep the row integral.
// Samples are immutable once recorded.
type TelemetrySample struct {
	TripID             string  `json:"tripId,omitempty" db:"trip_id"`
	OffsetMs           int64   `json:"offsetMs" db:"offset_ms"`
	Latitude           float64 `json:"lat" db:"lat"`
	Longitude          float64 `json:"lng" db:"lng"`
	SpeedCentiMps      int64   `json:"speedCentiMps" db:"speed_centi_mps"`
	HeadingDeg         float64 `json:"headingDeg" db:"heading_deg"`
	AccuracyM          float64 `json:"accuracyM" db:"accuracy_m"`
	SpeedLimitCentiMps int64   `json:"speedLimitCentiMps,omitempty" db:"speed_limit_centi_mps"`
}

// SpeedMps returns the sample speed in meters per second.
func (s *TelemetrySample) SpeedMps() float64 {
	return float64(s.SpeedCentiMps) / 100.0
}

// SpeedLimitMps returns the posted speed limit in meters per second,
// or 0 when the sample carries none.
func (s *TelemetrySample) SpeedLimitMps() float64 {
	return float64(s.SpeedLimitCentiMps) / 100.0
}

// TelemetryBatch is the ingest payload for one batch of ordered samples.
type TelemetryBatch struct {
	Samples []TelemetrySample `json:"samples"`
}
