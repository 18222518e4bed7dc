package estimate

import "github.com/autoservice/svctimer/internal/models"

// Classify converts sample count and variance into a discrete confidence
// level. Rules are evaluated in order; first match wins.
func Classify(sampleCount int, variance, estimate float64) models.Confidence {
	switch {
	case sampleCount >= 10 && variance < estimate*0.1:
		return models.ConfidenceHigh
	case sampleCount >= 5 && variance < estimate*0.25:
		return models.ConfidenceMedium
	case sampleCount >= 3:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}
