package estimate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoservice/svctimer/internal/models"
)

func TestEstimateQueueEmpty(t *testing.T) {
	estimator := newTestEstimator(&fakeAggregator{}, nil)

	batch := estimator.EstimateQueue(context.Background(), nil)

	assert.Equal(t, 0.0, batch.TotalSeconds)
	assert.Equal(t, 0, batch.TotalCount)
	assert.Equal(t, 0, batch.EstimatedCount)
	assert.False(t, batch.HasPartial)
}

func TestEstimateQueuePartial(t *testing.T) {
	// A: parameter-based. B: no history anywhere. C: statistical.
	agg := &fakeAggregator{stats: map[string]*models.AggregateStat{
		"kvrt_scan": {Estimate: 350, Variance: 12, Min: 330, Max: 380, SampleCount: 7},
	}}
	tasks := []models.TaskDefinition{
		{Type: "heavyload_stress_test", Params: map[string]any{"minutes": 5.0}},
		{Type: "sfc_scan"},
		{Type: "kvrt_scan"},
	}
	estimator := newTestEstimator(agg, nil)

	batch := estimator.EstimateQueue(context.Background(), tasks)

	assert.Equal(t, 3, batch.TotalCount)
	assert.Equal(t, 2, batch.EstimatedCount)
	assert.True(t, batch.HasPartial)
	assert.InDelta(t, 300+350, batch.TotalSeconds, 1e-9)
}

func TestEstimateQueueCompleteIsNotPartial(t *testing.T) {
	tasks := []models.TaskDefinition{
		{Type: "heavyload_stress_test", Params: map[string]any{"minutes": 1.0}},
		{Type: "system_restore_point"},
	}
	estimator := newTestEstimator(&fakeAggregator{}, nil)

	batch := estimator.EstimateQueue(context.Background(), tasks)

	assert.Equal(t, 2, batch.EstimatedCount)
	assert.False(t, batch.HasPartial)
	assert.InDelta(t, 60+45, batch.TotalSeconds, 1e-9)
}

func TestEstimateQueueExcludesTasksWithoutIdentity(t *testing.T) {
	tasks := []models.TaskDefinition{
		{Params: map[string]any{"minutes": 5.0}},
		{Type: "system_restore_point"},
	}
	estimator := newTestEstimator(&fakeAggregator{}, nil)

	batch := estimator.EstimateQueue(context.Background(), tasks)

	assert.Equal(t, 1, batch.TotalCount, "task without type or handler id is excluded from all counts")
	assert.Equal(t, 1, batch.EstimatedCount)
	assert.False(t, batch.HasPartial)
	assert.InDelta(t, 45, batch.TotalSeconds, 1e-9)
}

func TestEstimateQueueCountsLowConfidence(t *testing.T) {
	agg := &fakeAggregator{stats: map[string]*models.AggregateStat{
		"kvrt_scan":        {Estimate: 350, Variance: 12, Min: 330, Max: 380, SampleCount: 12},
		"adwcleaner_clean": {Estimate: 200, Variance: 5, Min: 190, Max: 220, SampleCount: 1},
	}}
	tasks := []models.TaskDefinition{
		{Type: "kvrt_scan"},
		{Type: "adwcleaner_clean"},
	}
	estimator := newTestEstimator(agg, nil)

	batch := estimator.EstimateQueue(context.Background(), tasks)

	assert.Equal(t, 2, batch.EstimatedCount, "a single-sample statistical estimate still counts")
	assert.Equal(t, 1, batch.LowConfidenceCount)
	assert.False(t, batch.HasPartial)
}

func TestEstimateQueueIsolatesFailures(t *testing.T) {
	agg := &fakeAggregator{
		errs: map[string]error{"sfc_scan": errors.New("aggregator offline")},
		stats: map[string]*models.AggregateStat{
			"kvrt_scan": {Estimate: 350, Variance: 12, Min: 330, Max: 380, SampleCount: 7},
		},
	}
	tasks := []models.TaskDefinition{
		{Type: "sfc_scan"},
		{Type: "kvrt_scan"},
	}
	estimator := newTestEstimator(agg, nil)

	batch := estimator.EstimateQueue(context.Background(), tasks)

	require.Equal(t, 1, batch.EstimatedCount, "one failing lookup must not abort the batch")
	assert.InDelta(t, 350, batch.TotalSeconds, 1e-9)
	assert.True(t, batch.HasPartial)
}

func TestEstimateAllIndexAligned(t *testing.T) {
	agg := &fakeAggregator{stats: map[string]*models.AggregateStat{
		"kvrt_scan": {Estimate: 350, Variance: 12, Min: 330, Max: 380, SampleCount: 7},
	}}
	tasks := []models.TaskDefinition{
		{Type: "sfc_scan"},
		{Type: "kvrt_scan"},
		{Type: "system_restore_point"},
	}
	estimator := newTestEstimator(agg, nil, WithWorkers(2))

	results := estimator.EstimateAll(context.Background(), tasks)

	require.Len(t, results, 3)
	assert.Nil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, 350.0, results[1].Estimate)
	require.NotNil(t, results[2])
	assert.True(t, results[2].IsParameterBased)
}

func TestSummarizeShortResults(t *testing.T) {
	tasks := []models.TaskDefinition{
		{Type: "kvrt_scan"},
		{Type: "sfc_scan"},
		{Type: "adwcleaner_clean"},
	}
	results := []*models.EstimateResult{
		{Estimate: 350, SampleCount: 7, Confidence: models.ConfidenceMedium},
	}

	batch := Summarize(tasks, results)

	assert.Equal(t, 3, batch.TotalCount)
	assert.Equal(t, 1, batch.EstimatedCount, "tasks past the end of results count as unestimated")
	assert.True(t, batch.HasPartial)
	assert.InDelta(t, 350, batch.TotalSeconds, 1e-9)
}
