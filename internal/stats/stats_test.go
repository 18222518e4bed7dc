package stats

import (
	"math"
	"testing"

	"github.com/autoservice/svctimer/internal/models"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func record(taskType string, params map[string]any, duration float64) models.HistoricalRecord {
	return models.HistoricalRecord{TaskType: taskType, Params: params, DurationSeconds: duration}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"pair", []float64{2, 4}, 3},
		{"odd", []float64{9, 1, 5}, 5},
		{"even", []float64{1, 2, 3, 4}, 2.5},
		{"unsorted", []float64{10, 2, 8, 4}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.input); !approxEqual(got, tt.expect) {
				t.Errorf("Median(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 0},
		{"uniform", []float64{3, 3, 3}, 0},
		{"simple", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Variance(tt.input); !approxEqual(got, tt.expect) {
				t.Errorf("Variance(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestComputeNoMatch(t *testing.T) {
	records := []models.HistoricalRecord{
		record("kvrt_scan", map[string]any{}, 300),
	}
	if got := Compute(records, "sfc_scan", map[string]any{}); got != nil {
		t.Errorf("Compute() = %+v, want nil for unmatched type", got)
	}
	if got := Compute(records, "kvrt_scan", map[string]any{"deep": true}); got != nil {
		t.Errorf("Compute() = %+v, want nil for unmatched params", got)
	}
}

func TestComputeSmallSample(t *testing.T) {
	records := []models.HistoricalRecord{
		record("kvrt_scan", map[string]any{}, 310),
		record("kvrt_scan", map[string]any{}, 290),
	}
	got := Compute(records, "kvrt_scan", map[string]any{})
	if got == nil {
		t.Fatal("Compute() = nil, want stat")
	}
	if !approxEqual(got.Estimate, 300) {
		t.Errorf("Estimate = %f, want 300", got.Estimate)
	}
	if got.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", got.SampleCount)
	}
	if !approxEqual(got.Min, 290) || !approxEqual(got.Max, 310) {
		t.Errorf("bounds = [%f, %f], want [290, 310]", got.Min, got.Max)
	}
}

func TestComputeMatchesIgnoringKeyOrderAndLayout(t *testing.T) {
	records := []models.HistoricalRecord{
		record("iperf_test", map[string]any{"duration_seconds": 120.0}, 125),
	}
	// Integer-typed params from a Go caller must match float-typed stored ones.
	got := Compute(records, "iperf_test", map[string]any{"duration_seconds": 120})
	if got == nil {
		t.Fatal("Compute() = nil, want match across numeric types")
	}
	if got.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", got.SampleCount)
	}
}

func TestComputeFiltersOutliers(t *testing.T) {
	// Nine tight observations and one wild outlier: the estimate and the
	// dispersion metadata must not be dragged by the outlier.
	params := map[string]any{}
	var records []models.HistoricalRecord
	for _, d := range []float64{100, 101, 99, 102, 98, 100, 103, 97, 101} {
		records = append(records, record("adwcleaner_clean", params, d))
	}
	records = append(records, record("adwcleaner_clean", params, 4000))

	got := Compute(records, "adwcleaner_clean", params)
	if got == nil {
		t.Fatal("Compute() = nil, want stat")
	}
	if got.SampleCount != 9 {
		t.Errorf("SampleCount = %d, want 9 (outlier filtered)", got.SampleCount)
	}
	if got.Max > 200 {
		t.Errorf("Max = %f, outlier should have been filtered", got.Max)
	}
	if got.Estimate < 97 || got.Estimate > 103 {
		t.Errorf("Estimate = %f, want within observed band", got.Estimate)
	}
}

func TestComputeWideSpreadKeepsAll(t *testing.T) {
	// Two far-apart clusters inflate the IQR so no point counts as an
	// outlier; everything stays in the sample and the median splits them.
	params := map[string]any{}
	var records []models.HistoricalRecord
	for _, d := range []float64{10, 10, 10, 1000, 1000, 1000} {
		records = append(records, record("chkdsk_scan", params, d))
	}

	got := Compute(records, "chkdsk_scan", params)
	if got == nil {
		t.Fatal("Compute() = nil, want stat")
	}
	if got.SampleCount != 6 {
		t.Errorf("SampleCount = %d, want all 6 retained", got.SampleCount)
	}
	if !approxEqual(got.Estimate, 505) {
		t.Errorf("Estimate = %f, want median 505", got.Estimate)
	}
}
