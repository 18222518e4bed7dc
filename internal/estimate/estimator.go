// Package estimate resolves confidence-qualified duration estimates for
// service tasks: exact parameter-based durations where the runtime is
// deterministic, robust historical statistics everywhere else, and batch
// aggregation across a task queue.
package estimate

import (
	"context"
	"log/slog"

	"github.com/autoservice/svctimer/internal/deterministic"
	"github.com/autoservice/svctimer/internal/history"
	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/normalize"
	"github.com/autoservice/svctimer/internal/stats"
)

// CountFamilyType is the task family whose duration scales linearly with a
// repetition count, enabling interpolation across historical records with
// different counts.
const CountFamilyType = "ping_test"

// defaultPingCount matches the service's default packet count when a task
// omits it.
const defaultPingCount = 4

// DefaultAliases maps UI-facing handler ids onto the runtime type they build.
// The three HeavyLoad presets differ only in which subsystem they load; all
// of them execute as one generic stress task.
var DefaultAliases = map[string]string{
	"heavyload_cpu_stress":    "heavyload_stress_test",
	"heavyload_memory_stress": "heavyload_stress_test",
	"heavyload_disk_stress":   "heavyload_stress_test",
}

// FlagFunc reports whether estimation is enabled. The engine consults the
// flag before doing any work but does not own it.
type FlagFunc func(ctx context.Context) (bool, error)

// Estimator resolves duration estimates from the deterministic calculator and
// the historical record aggregator.
type Estimator struct {
	aggregator stats.Aggregator
	accessor   *history.Accessor
	enabled    FlagFunc
	aliases    map[string]string
	workers    int
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithEnabledFlag injects the estimation feature flag. Without it the
// estimator is always enabled.
func WithEnabledFlag(flag FlagFunc) Option {
	return func(e *Estimator) {
		e.enabled = flag
	}
}

// WithAliases overrides the handler-id → runtime-type alias table.
func WithAliases(aliases map[string]string) Option {
	return func(e *Estimator) {
		e.aliases = aliases
	}
}

// WithWorkers bounds batch concurrency.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEstimator creates an estimator over the given aggregator and record
// accessor.
func NewEstimator(aggregator stats.Aggregator, accessor *history.Accessor, opts ...Option) *Estimator {
	e := &Estimator{
		aggregator: aggregator,
		accessor:   accessor,
		aliases:    DefaultAliases,
		workers:    4,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Estimate resolves a duration estimate for one task given its UI-facing
// identifier, its parameters, and optionally the type that was actually
// executed (which takes precedence, being the more accurate key). A nil
// result with nil error means no estimate is available — estimation disabled,
// or insufficient data — which is not an error condition.
func (e *Estimator) Estimate(ctx context.Context, declaredID string, params map[string]any, actualType string) (*models.EstimateResult, error) {
	return e.EstimateTask(ctx, models.TaskDefinition{
		Type:      actualType,
		HandlerID: declaredID,
		Extra:     params,
	})
}

// EstimateTask resolves a duration estimate for one task definition.
func (e *Estimator) EstimateTask(ctx context.Context, task models.TaskDefinition) (*models.EstimateResult, error) {
	if e.enabled != nil {
		enabled, err := e.enabled(ctx)
		if err != nil {
			slog.Warn("estimation flag check failed", "error", err)
			return nil, nil
		}
		if !enabled {
			return nil, nil
		}
	}

	effective := task.EffectiveType()
	if effective == "" {
		return nil, nil
	}

	// Deterministic types never consult history: their duration is fully
	// declared, and an unparsable declaration means no estimate at all.
	if deterministic.IsDeterministic(effective) {
		seconds, ok := deterministic.Calculate(task)
		if !ok {
			return nil, nil
		}
		return &models.EstimateResult{
			Estimate:         seconds,
			SampleCount:      1,
			Variance:         0,
			Min:              seconds,
			Max:              seconds,
			IsParameterBased: true,
			Confidence:       models.ConfidenceHigh,
		}, nil
	}

	normParams := normalize.Relevant(task)
	candidates := e.candidateTypes(task.HandlerID, task.Type)

	best := e.bestAggregate(ctx, candidates, normParams)
	if best == nil && isCountFamily(candidates) {
		best = e.projectFromCountFamily(ctx, candidates, normParams)
	}
	if best == nil {
		return nil, nil
	}

	return &models.EstimateResult{
		Estimate:    best.Estimate,
		SampleCount: best.SampleCount,
		Variance:    best.Variance,
		Min:         best.Min,
		Max:         best.Max,
		Confidence:  Classify(best.SampleCount, best.Variance, best.Estimate),
	}, nil
}

// candidateTypes builds the ordered, deduplicated list of plausible type keys
// to query: what actually ran, what the UI declared, and any known alias.
func (e *Estimator) candidateTypes(declaredID, actualType string) []string {
	var candidates []string
	seen := map[string]bool{}
	for _, key := range []string{actualType, declaredID, e.aliases[declaredID]} {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, key)
	}
	return candidates
}

// bestAggregate queries each candidate key and retains the result with the
// highest sample count, first found winning ties. Per-candidate failures are
// logged and skipped.
func (e *Estimator) bestAggregate(ctx context.Context, candidates []string, params map[string]any) *models.AggregateStat {
	var best *models.AggregateStat
	for _, key := range candidates {
		stat, err := e.aggregator.AggregateStatistic(ctx, key, params)
		if err != nil {
			slog.Warn("aggregate lookup failed", "task_type", key, "error", err)
			continue
		}
		if stat == nil {
			continue
		}
		if best == nil || stat.SampleCount > best.SampleCount {
			best = stat
		}
	}
	return best
}

// projectFromCountFamily estimates a count-scaled task lacking an exact
// parameter match by deriving a per-unit rate and fixed overhead across all
// records of the family, regardless of count: per-unit is the median of
// duration/count, overhead the median non-negative residual, and the
// projection perUnit·count + overhead with -10%/+50% bands.
func (e *Estimator) projectFromCountFamily(ctx context.Context, candidates []string, params map[string]any) *models.AggregateStat {
	requested := float64(defaultPingCount)
	if n, ok := normalize.Numeric(params["count"]); ok && n > 0 {
		requested = n
	}

	inFamily := map[string]bool{}
	for _, key := range candidates {
		inFamily[key] = true
	}

	var perUnits, counts, durations []float64
	for _, record := range e.accessor.Records(ctx, false) {
		if !inFamily[record.TaskType] || record.DurationSeconds <= 0 {
			continue
		}
		count, ok := normalize.Numeric(record.Params["count"])
		if !ok || count <= 0 {
			continue
		}
		perUnits = append(perUnits, record.DurationSeconds/count)
		counts = append(counts, count)
		durations = append(durations, record.DurationSeconds)
	}
	if len(perUnits) == 0 {
		return nil
	}

	perUnit := stats.Median(perUnits)
	residuals := make([]float64, len(counts))
	for i := range counts {
		if residual := durations[i] - perUnit*counts[i]; residual > 0 {
			residuals[i] = residual
		}
	}
	overhead := stats.Median(residuals)

	estimate := perUnit*requested + overhead
	return &models.AggregateStat{
		Estimate:    estimate,
		Variance:    stats.Variance(perUnits) * requested,
		Min:         estimate * 0.9,
		Max:         estimate * 1.5,
		SampleCount: len(perUnits),
	}
}

func isCountFamily(candidates []string) bool {
	for _, key := range candidates {
		if key == CountFamilyType {
			return true
		}
	}
	return false
}
