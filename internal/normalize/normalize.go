// Package normalize extracts the subset of a task's parameters that actually
// influence its execution duration and serializes them into a canonical,
// order-independent key. Two tasks with the same type and equivalent relevant
// parameters produce byte-identical keys regardless of whether the parameters
// were nested under "params" or flattened onto the task object.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/autoservice/svctimer/internal/models"
)

// Top-level fields that identify or describe a task without affecting how
// long it runs. These never participate in the normalized key.
var metaFields = map[string]bool{
	"type":         true,
	"handler_id":   true,
	"label":        true,
	"display_name": true,
	"path":         true,
	"executable":   true,
	"args":         true,
	"extra_args":   true,
	"command":      true,
}

// Fields retained for every task type when present and numeric.
var genericDurationFields = []string{"minutes", "seconds", "duration_seconds"}

// extractor adds the type-specific duration-relevant fields to out. merged is
// the flattened view of the task's parameters (nested params win over
// flattened ones); task gives access to the raw object for rules that read
// fields off the task itself.
type extractor func(task models.TaskDefinition, merged, out map[string]any)

// Per-type extraction rules, applied on top of the generic duration fields.
// Keyed by runtime task type; add an entry here to teach the engine about a
// new service's duration parameters.
var extractors = map[string]extractor{
	// Repetition-count scaled: the count may arrive as a number or a
	// numeric string depending on which form built the task.
	"ping_test": func(_ models.TaskDefinition, merged, out map[string]any) {
		if n, ok := Numeric(merged["count"]); ok && n > 0 {
			out["count"] = float64(int(n))
		}
	},

	// Minutes-denominated stress run.
	"heavyload_stress_test": func(_ models.TaskDefinition, merged, out map[string]any) {
		if n, ok := Numeric(merged["duration_minutes"]); ok {
			out["duration_minutes"] = n
		} else if n, ok := Numeric(merged["minutes"]); ok {
			out["duration_minutes"] = n
		}
	},

	// The built task always carries duration_seconds, but the editor form
	// may only carry minutes. Converge both shapes onto duration_seconds so
	// they group under one key.
	"iperf_test": func(_ models.TaskDefinition, merged, out map[string]any) {
		convergeToSeconds(merged, out)
	},
	"furmark_stress_test": func(_ models.TaskDefinition, merged, out map[string]any) {
		convergeToSeconds(merged, out)
	},

	// Composite stress run: the per-phase durations live on the task object
	// itself, never under params.
	"combined_stress_test": func(task models.TaskDefinition, _, out map[string]any) {
		for _, key := range []string{"cpu_minutes", "gpu_minutes"} {
			if n, ok := Numeric(task.Extra[key]); ok {
				out[key] = n
			}
		}
	},
}

func convergeToSeconds(merged, out map[string]any) {
	if n, ok := Numeric(merged["duration_seconds"]); ok {
		out["duration_seconds"] = n
	} else if n, ok := Numeric(merged["seconds"]); ok {
		out["duration_seconds"] = n
	} else if n, ok := Numeric(merged["duration_minutes"]); ok {
		out["duration_seconds"] = n * 60
	} else if n, ok := Numeric(merged["minutes"]); ok {
		out["duration_seconds"] = n * 60
	}
	// The generic fields would otherwise split the key between the two forms.
	delete(out, "minutes")
	delete(out, "seconds")
}

// Relevant returns the duration-relevant parameters of task as a flat map
// with numeric values converted to float64. Pure; the result is freshly
// allocated on every call.
func Relevant(task models.TaskDefinition) map[string]any {
	merged := map[string]any{}
	for key, value := range task.Extra {
		if metaFields[key] || !isScalar(value) {
			continue
		}
		merged[key] = value
	}
	// Nested params take precedence on collision.
	for key, value := range task.Params {
		if isScalar(value) {
			merged[key] = value
		}
	}

	out := map[string]any{}
	for _, key := range genericDurationFields {
		if n, ok := Numeric(merged[key]); ok {
			out[key] = n
		}
	}
	if extract, ok := extractors[task.EffectiveType()]; ok {
		extract(task, merged, out)
	}
	return out
}

// Key returns the canonical serialization of task's relevant parameters:
// keys sorted lexicographically, null/absent values omitted.
func Key(task models.TaskDefinition) string {
	return CanonicalParams(Relevant(task))
}

// CanonicalParams serializes a parameter map deterministically: nil values
// dropped, keys sorted, JSON-encoded. Used for grouping and equality checks
// on historical records as well as for task keys.
func CanonicalParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		name, _ := json.Marshal(key)
		sb.Write(name)
		sb.WriteByte(':')
		value, err := json.Marshal(canonicalValue(params[key]))
		if err != nil {
			value = []byte("null")
		}
		sb.Write(value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// canonicalValue collapses the numeric types that reach us from JSON decoding
// and Go callers onto float64 so 4, 4.0 and int64(4) serialize identically.
func canonicalValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

// Numeric converts a scalar to float64 when it carries a numeric value,
// accepting numbers and numeric strings.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}
