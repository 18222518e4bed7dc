package estimate

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/autoservice/svctimer/internal/models"
)

// BatchResult aggregates the estimates for an ordered task queue.
type BatchResult struct {
	// TotalSeconds sums every resolved estimate. When HasPartial is true it
	// is a lower bound, not a complete total.
	TotalSeconds float64 `json:"total_seconds"`

	// HasPartial is true when some, but not all, tasks got an estimate.
	HasPartial bool `json:"has_partial"`

	// EstimatedCount counts tasks that resolved to any estimate, however
	// few samples backed it.
	EstimatedCount int `json:"estimated_count"`

	// TotalCount counts the tasks eligible for estimation (those carrying a
	// type or handler id).
	TotalCount int `json:"total_count"`

	// LowConfidenceCount counts resolved estimates classified low or
	// very_low.
	LowConfidenceCount int `json:"low_confidence_count"`
}

// EstimateAll resolves an estimate per task concurrently. The returned slice
// is index-aligned with tasks; a nil entry means no estimate was available.
// Per-task failures are logged and treated as "no estimate" — one task never
// aborts the batch.
func (e *Estimator) EstimateAll(ctx context.Context, tasks []models.TaskDefinition) []*models.EstimateResult {
	results := make([]*models.EstimateResult, len(tasks))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, task := range tasks {
		g.Go(func() error {
			if task.EffectiveType() == "" {
				return nil
			}
			result, err := e.EstimateTask(ctx, task)
			if err != nil {
				slog.Warn("task estimate failed", "task_type", task.EffectiveType(), "error", err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	// Workers never return errors; Wait only fences completion.
	_ = g.Wait()

	return results
}

// EstimateQueue resolves every task in the queue and aggregates totals.
func (e *Estimator) EstimateQueue(ctx context.Context, tasks []models.TaskDefinition) *BatchResult {
	if len(tasks) == 0 {
		return &BatchResult{}
	}
	return Summarize(tasks, e.EstimateAll(ctx, tasks))
}

// Summarize aggregates per-task results (index-aligned with tasks, as
// returned by EstimateAll) into queue totals. Tasks beyond the end of results
// count as unestimated.
func Summarize(tasks []models.TaskDefinition, results []*models.EstimateResult) *BatchResult {
	batch := &BatchResult{}
	for i, task := range tasks {
		if task.EffectiveType() == "" {
			continue
		}
		batch.TotalCount++
		if i >= len(results) {
			continue
		}
		result := results[i]
		if result == nil {
			continue
		}
		batch.EstimatedCount++
		batch.TotalSeconds += result.Estimate
		if result.Confidence == models.ConfidenceLow || result.Confidence == models.ConfidenceVeryLow {
			batch.LowConfidenceCount++
		}
	}
	batch.HasPartial = batch.EstimatedCount > 0 && batch.EstimatedCount < batch.TotalCount
	return batch
}
