// Package deterministic computes exact durations for the task types whose
// runtime is a pure function of their declared parameters, bypassing
// historical statistics entirely.
package deterministic

import (
	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/normalize"
)

// SystemRestoreSeconds is the fixed duration of a restore-point checkpoint.
// Creating one takes close to this long regardless of configuration.
const SystemRestoreSeconds = 45

// calculator derives a duration in seconds from the task's normalized
// parameters, returning false when the required parameters are missing or
// non-positive.
type calculator func(params map[string]any) (float64, bool)

// Allow-list of parameter-based task types. The extraction mirrors the
// normalizer's per-type rules, so a task and its historical records agree on
// which fields matter.
var calculators = map[string]calculator{
	// iperf runs at a fixed rate for the configured window; the normalizer
	// has already converged minutes onto duration_seconds.
	"iperf_test": secondsParam,

	// FurMark runs for --max-time seconds.
	"furmark_stress_test": secondsParam,

	// HeavyLoad auto-exits after the configured minutes.
	"heavyload_stress_test": func(params map[string]any) (float64, bool) {
		if n, ok := normalize.Numeric(params["duration_minutes"]); ok && n > 0 {
			return n * 60, true
		}
		if n, ok := normalize.Numeric(params["minutes"]); ok && n > 0 {
			return n * 60, true
		}
		return 0, false
	},

	"system_restore_point": func(map[string]any) (float64, bool) {
		return SystemRestoreSeconds, true
	},
}

func secondsParam(params map[string]any) (float64, bool) {
	if n, ok := normalize.Numeric(params["duration_seconds"]); ok && n > 0 {
		return n, true
	}
	return 0, false
}

// IsDeterministic reports whether taskType has a parameter-based duration.
func IsDeterministic(taskType string) bool {
	_, ok := calculators[taskType]
	return ok
}

// Calculate returns the exact duration for task in seconds. ok is false when
// the type is not parameter-based or its required parameters are absent or
// non-positive, signaling the caller to fall back to statistics.
func Calculate(task models.TaskDefinition) (float64, bool) {
	calc, ok := calculators[task.EffectiveType()]
	if !ok {
		return 0, false
	}
	return calc(normalize.Relevant(task))
}
