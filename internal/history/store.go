package history

import (
	"context"
	"fmt"
	"sync"
)

// Backend names a feature history storage backend
type Backend string

const (
	BackendParquet  Backend = "parquet"
	BackendSQLite   Backend = "sqlite"
	BackendMySQL    Backend = "mysql"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Store persists the cumulative feature history. Rows are only ever
// appended; prior rows are never rewritten in meaning.
type Store interface {
	Load(ctx context.Context) ([]FeatureRow, error)
	Append(ctx context.Context, rows []FeatureRow) error
	Close() error
}

// Open creates the store for backend. dsn is a file path for parquet and
// sqlite and a connection string for mysql and postgres.
func Open(ctx context.Context, backend Backend, dsn string) (Store, error) {
	switch backend {
	case BackendParquet:
		return NewParquetStore(dsn), nil
	case BackendSQLite, BackendMySQL, BackendPostgres:
		return NewSQLStore(ctx, backend, dsn)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}
}

// MemoryStore keeps history in process; used when persistence is disabled
type MemoryStore struct {
	mu   sync.Mutex
	rows []FeatureRow
}

func NewMemoryStore(rows ...FeatureRow) *MemoryStore {
	return &MemoryStore{rows: append([]FeatureRow(nil), rows...)}
}

func (m *MemoryStore) Load(ctx context.Context) ([]FeatureRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FeatureRow(nil), m.rows...), nil
}

func (m *MemoryStore) Append(ctx context.Context, rows []FeatureRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
