package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// parquetRow is the on-disk layout of a feature row
type parquetRow struct {
	Method        string    `parquet:"method,snappy"`
	URL           string    `parquet:"url,snappy"`
	StatusCode    *int64    `parquet:"status_code,optional,snappy"`
	LatencyMs     *float64  `parquet:"latency_ms,optional,snappy"`
	IsError       bool      `parquet:"is_error,snappy"`
	LatencyBucket string    `parquet:"latency_bucket,snappy"`
	Timestamp     time.Time `parquet:"timestamp,snappy"`
	RunID         string    `parquet:"run_id,snappy"`
}

// ParquetStore keeps the history in a single Parquet file. Appends rewrite
// the file through a temporary sibling and an atomic rename.
type ParquetStore struct {
	path string
}

func NewParquetStore(path string) *ParquetStore {
	return &ParquetStore{path: path}
}

// Load returns every stored row; a missing file is an empty history
func (s *ParquetStore) Load(ctx context.Context) ([]FeatureRow, error) {
	stored, err := parquet.ReadFile[parquetRow](s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read feature history %s: %w", s.path, err)
	}

	rows := make([]FeatureRow, len(stored))
	for i, r := range stored {
		rows[i] = fromParquet(r)
	}
	return rows, nil
}

func (s *ParquetStore) Append(ctx context.Context, rows []FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	existing, err := parquet.ReadFile[parquetRow](s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read feature history %s: %w", s.path, err)
	}
	for _, r := range rows {
		existing = append(existing, toParquet(r))
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	writer := parquet.NewGenericWriter[parquetRow](tmp)
	if _, err := writer.Write(existing); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write feature history: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to finalize feature history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary history file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace feature history: %w", err)
	}
	return nil
}

func (s *ParquetStore) Close() error { return nil }

func toParquet(r FeatureRow) parquetRow {
	row := parquetRow{
		Method:        r.Method,
		URL:           r.URL,
		LatencyMs:     r.LatencyMs,
		IsError:       r.IsError,
		LatencyBucket: r.LatencyBucket,
		Timestamp:     r.Timestamp.UTC(),
		RunID:         r.RunID,
	}
	if r.StatusCode != nil {
		code := int64(*r.StatusCode)
		row.StatusCode = &code
	}
	return row
}

func fromParquet(r parquetRow) FeatureRow {
	row := FeatureRow{
		Method:        r.Method,
		URL:           r.URL,
		LatencyMs:     r.LatencyMs,
		IsError:       r.IsError,
		LatencyBucket: r.LatencyBucket,
		Timestamp:     r.Timestamp.UTC(),
		RunID:         r.RunID,
	}
	if r.StatusCode != nil {
		code := int(*r.StatusCode)
		row.StatusCode = &code
	}
	return row
}
