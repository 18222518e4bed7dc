package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/normalize"
)

const (
	// Records older than this are pruned on append, keeping estimates
	// relevant to current system performance.
	maxRecordAge = 12 * 30 * 24 * time.Hour

	// Per (task type, params) group cap, newest kept.
	maxRecordsPerGroup = 100
)

// FileStore persists historical records as a JSON array on disk. It is the
// collaborator side of the record interface: the service runner appends a
// record after each successful task, the estimation engine only reads.
type FileStore struct {
	path string
	now  func() time.Time
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileClock injects the time source used for pruning, for tests.
func WithFileClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates a store backed by the JSON file at path. The file may
// not exist yet; it is created on first append.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{path: path, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FetchRecords loads every stored record. A missing file is an empty history,
// not an error.
func (s *FileStore) FetchRecords(_ context.Context) ([]models.HistoricalRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading task history: %w", err)
	}
	var records []models.HistoricalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing task history: %w", err)
	}
	return records, nil
}

// Append adds records to the store, pruning entries older than a year and
// capping each (type, params) group at its newest hundred records so the
// file never grows without bound.
func (s *FileStore) Append(ctx context.Context, records ...models.HistoricalRecord) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := s.FetchRecords(ctx)
	if err != nil {
		// A corrupt history file should not block new observations.
		existing = nil
	}
	all := append(existing, records...)

	cutoff := s.now().Add(-maxRecordAge).Unix()
	grouped := map[string][]models.HistoricalRecord{}
	for _, record := range all {
		if record.Timestamp < cutoff {
			continue
		}
		key := record.TaskType + "|" + normalize.CanonicalParams(record.Params)
		grouped[key] = append(grouped[key], record)
	}

	kept := make([]models.HistoricalRecord, 0, len(all))
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Timestamp > group[j].Timestamp
		})
		if len(group) > maxRecordsPerGroup {
			group = group[:maxRecordsPerGroup]
		}
		kept = append(kept, group...)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling task history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing task history: %w", err)
	}
	return nil
}

// Clear deletes the stored history. A missing file is already clear.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing task history: %w", err)
	}
	return nil
}
