package models

// HistoricalRecord is one observed execution: which task ran, with which
// parameters, and how long it took. Records are written by the service runner
// after each successful task and are immutable afterwards; the estimation
// engine only ever reads them.
type HistoricalRecord struct {
	TaskType        string         `json:"task_type"`
	Params          map[string]any `json:"params"`
	DurationSeconds float64        `json:"duration_seconds"`
	Timestamp       int64          `json:"timestamp"`
}
