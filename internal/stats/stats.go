// Package stats computes robust aggregate statistics over historical
// execution records: an outlier-resistant median point estimate with
// dispersion and sample-count metadata for one (task type, params) group.
package stats

import (
	"context"
	"sort"

	"github.com/autoservice/svctimer/internal/history"
	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/normalize"
)

// Aggregator answers aggregate-statistic queries for an exact
// (task type, normalized params) pair. Returns (nil, nil) when no records
// match.
type Aggregator interface {
	AggregateStatistic(ctx context.Context, taskType string, params map[string]any) (*models.AggregateStat, error)
}

// RecordAggregator is the in-process Aggregator over the cached record
// snapshot.
type RecordAggregator struct {
	accessor *history.Accessor
}

// NewRecordAggregator creates an aggregator reading through accessor.
func NewRecordAggregator(accessor *history.Accessor) *RecordAggregator {
	return &RecordAggregator{accessor: accessor}
}

// AggregateStatistic computes the robust aggregate for the records matching
// taskType and params exactly.
func (ra *RecordAggregator) AggregateStatistic(ctx context.Context, taskType string, params map[string]any) (*models.AggregateStat, error) {
	return Compute(ra.accessor.Records(ctx, false), taskType, params), nil
}

// Compute aggregates the durations of the records matching (taskType, params)
// into a median estimate with variance and bounds, or nil when none match.
//
// Outlier handling: samples of three or fewer are used as-is. Larger samples
// are filtered to [Q1-1.5·IQR, Q3+1.5·IQR]; when that would discard more than
// half the sample the unfiltered data is kept, since the median is already
// robust.
func Compute(records []models.HistoricalRecord, taskType string, params map[string]any) *models.AggregateStat {
	want := normalize.CanonicalParams(params)

	var durations []float64
	for _, record := range records {
		if record.TaskType != taskType {
			continue
		}
		if normalize.CanonicalParams(record.Params) != want {
			continue
		}
		durations = append(durations, record.DurationSeconds)
	}
	if len(durations) == 0 {
		return nil
	}

	sort.Float64s(durations)

	sample := durations
	if len(durations) > 3 {
		q1 := durations[len(durations)/4]
		q3 := durations[(3*len(durations))/4]
		iqr := q3 - q1
		lower, upper := q1-1.5*iqr, q3+1.5*iqr

		var filtered []float64
		for _, d := range durations {
			if d >= lower && d <= upper {
				filtered = append(filtered, d)
			}
		}
		if len(filtered) >= len(durations)/2 {
			sample = filtered
		}
	}

	return &models.AggregateStat{
		Estimate:    Median(sample),
		Variance:    Variance(sample),
		Min:         sample[0],
		Max:         sample[len(sample)-1],
		SampleCount: len(sample),
	}
}

// Median returns the middle value of values, averaging the central pair for
// even lengths. Returns 0 for empty input. values need not be sorted.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Mean computes the arithmetic mean. Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance computes the population variance. Returns 0 for fewer than two
// values.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}
