package models

// Confidence qualifies how trustworthy an estimate is, derived from sample
// count and variance.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceVeryLow Confidence = "very_low"
)

// MinReliableSamples is the sample count below which a historical estimate is
// returned but not considered actionable. Shared with any UI deciding whether
// to surface an estimate at all.
const MinReliableSamples = 3

// AggregateStat is a robust aggregate over the historical records matching one
// (task type, normalized params) pair.
type AggregateStat struct {
	Estimate    float64 `json:"estimate"`
	Variance    float64 `json:"variance"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	SampleCount int     `json:"sample_count"`
}

// EstimateResult is the resolved duration estimate for a single task. It is
// derived per request and never persisted.
type EstimateResult struct {
	// Estimate is the expected duration in seconds.
	Estimate float64 `json:"estimate"`

	// SampleCount is the number of historical observations behind the
	// estimate. Exactly 1 for parameter-based results.
	SampleCount int `json:"sample_count"`

	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`

	// IsParameterBased is true when the duration was computed directly from
	// declared parameters rather than from history.
	IsParameterBased bool `json:"is_parameter_based,omitempty"`

	Confidence Confidence `json:"confidence"`
}

// Reliable reports whether the estimate is backed by enough evidence to act
// on: parameter-based results always are, historical ones need at least
// MinReliableSamples observations.
func (r *EstimateResult) Reliable() bool {
	return r.IsParameterBased || r.SampleCount >= MinReliableSamples
}
