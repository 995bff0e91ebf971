package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Latency buckets
const (
	BucketFast    = "fast"
	BucketMedium  = "medium"
	BucketSlow    = "slow"
	BucketUnknown = "unknown"
)

// FeatureRow is the flat, model-ready view of one log entry
type FeatureRow struct {
	Method        string    `json:"method"`
	URL           string    `json:"url"`
	StatusCode    *int      `json:"status_code"`
	LatencyMs     *float64  `json:"latency_ms"`
	IsError       bool      `json:"is_error"`
	LatencyBucket string    `json:"latency_bucket"`
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id"`
}

// Extractor maps log entries to feature rows. All rows of one extraction
// share a timestamp and run ID.
type Extractor struct {
	Clock func() time.Time
	NewID func() string
}

// NewExtractor returns an extractor using the wall clock and random run IDs
func NewExtractor() *Extractor {
	return &Extractor{
		Clock: time.Now,
		NewID: uuid.NewString,
	}
}

// Extract produces exactly one row per entry, in input order
func (e *Extractor) Extract(entries []LogEntry) []FeatureRow {
	now := e.Clock().UTC()
	runID := e.NewID()

	rows := make([]FeatureRow, len(entries))
	for i, entry := range entries {
		rows[i] = FeatureRow{
			Method:        entry.Method,
			URL:           entry.URL,
			StatusCode:    entry.StatusCode,
			LatencyMs:     entry.LatencyMs,
			IsError:       entry.StatusCode != nil && *entry.StatusCode >= 400,
			LatencyBucket: BucketLatency(entry.LatencyMs),
			Timestamp:     now,
			RunID:         runID,
		}
	}
	return rows
}

// BucketLatency classifies a latency in milliseconds
func BucketLatency(ms *float64) string {
	switch {
	case ms == nil:
		return BucketUnknown
	case *ms < 500:
		return BucketFast
	case *ms < 2000:
		return BucketMedium
	default:
		return BucketSlow
	}
}

// SaveRows writes one run's feature rows as an indented JSON array
func SaveRows(path string, rows []FeatureRow) error {
	if rows == nil {
		rows = []FeatureRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feature rows: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write feature rows: %w", err)
	}
	return nil
}
