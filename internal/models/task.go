package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// TaskDefinition describes one unit of work queued for execution.
//
// Task JSON arrives in two layouts, depending on which UI surface built it:
// parameters nested under "params", or flattened onto the task object itself.
// Both decode into the same struct; flattened parameters land in Extra and are
// merged (with Params taking precedence) by the normalizer before any other
// component looks at them.
type TaskDefinition struct {
	// Type is the runtime identifier naming which service handler executes
	// this task.
	Type string `json:"type"`

	// HandlerID is the UI-facing identifier, which may differ from the
	// runtime type it builds (e.g. the three heavyload presets all build
	// heavyload_stress_test tasks).
	HandlerID string `json:"handler_id,omitempty"`

	// Params holds task-specific configuration when the builder nested it.
	Params map[string]any `json:"params,omitempty"`

	// Extra holds every remaining top-level field from the source object.
	Extra map[string]any `json:"-"`
}

// EffectiveType returns the runtime type, falling back to the handler id.
// An empty result means the task cannot be estimated at all.
func (t TaskDefinition) EffectiveType() string {
	if t.Type != "" {
		return t.Type
	}
	return t.HandlerID
}

// DecodeTask builds a TaskDefinition from a generic map, capturing unknown
// top-level fields into Extra so flattened parameters survive decoding.
func DecodeTask(raw map[string]any) (TaskDefinition, error) {
	var task TaskDefinition
	var md mapstructure.Metadata

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &md,
		Result:   &task,
		TagName:  "json",
	})
	if err != nil {
		return TaskDefinition{}, fmt.Errorf("building task decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return TaskDefinition{}, fmt.Errorf("decoding task: %w", err)
	}

	for _, key := range md.Unused {
		if task.Extra == nil {
			task.Extra = map[string]any{}
		}
		task.Extra[key] = raw[key]
	}
	return task, nil
}

// UnmarshalJSON decodes a task object preserving unknown top-level fields.
func (t *TaskDefinition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	task, err := DecodeTask(raw)
	if err != nil {
		return err
	}
	*t = task
	return nil
}
