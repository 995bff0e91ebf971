package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

const historyTable = "riskgen_feature_history"

// SQLStore keeps the history in a relational table
type SQLStore struct {
	db      *sql.DB
	backend Backend
}

// NewSQLStore opens the database, verifies the connection and creates the
// history table if needed
func NewSQLStore(ctx context.Context, backend Backend, dsn string) (*SQLStore, error) {
	var driverName string
	switch backend {
	case BackendSQLite:
		driverName = "sqlite"
	case BackendMySQL:
		driverName = "mysql"
	case BackendPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported SQL backend: %s", backend)
	}

	if backend == BackendSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == BackendSQLite {
		// A single connection avoids "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}

	if _, err := db.ExecContext(ctx, createTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", historyTable, err)
	}

	return &SQLStore{db: db, backend: backend}, nil
}

func createTableQuery(backend Backend) string {
	switch backend {
	case BackendMySQL:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				method VARCHAR(16) NOT NULL,
				url VARCHAR(2048) NOT NULL,
				status_code INT,
				latency_ms DOUBLE,
				is_error SMALLINT NOT NULL,
				latency_bucket VARCHAR(16) NOT NULL,
				recorded_at VARCHAR(64) NOT NULL,
				run_id VARCHAR(64) NOT NULL
			);
		`, historyTable)

	case BackendPostgres:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				method TEXT NOT NULL,
				url TEXT NOT NULL,
				status_code INT,
				latency_ms DOUBLE PRECISION,
				is_error SMALLINT NOT NULL,
				latency_bucket TEXT NOT NULL,
				recorded_at TEXT NOT NULL,
				run_id TEXT NOT NULL
			);
		`, historyTable)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				method TEXT NOT NULL,
				url TEXT NOT NULL,
				status_code INTEGER,
				latency_ms REAL,
				is_error INTEGER NOT NULL,
				latency_bucket TEXT NOT NULL,
				recorded_at TEXT NOT NULL,
				run_id TEXT NOT NULL
			);
		`, historyTable)
	}
}

// Load returns every stored row in insertion order
func (s *SQLStore) Load(ctx context.Context) ([]FeatureRow, error) {
	query := fmt.Sprintf(`
		SELECT method, url, status_code, latency_ms, is_error, latency_bucket, recorded_at, run_id
		FROM %s ORDER BY id`, historyTable)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []FeatureRow
	for rows.Next() {
		var (
			row        FeatureRow
			statusCode sql.NullInt64
			latency    sql.NullFloat64
			isError    int64
			recordedAt string
		)
		if err := rows.Scan(&row.Method, &row.URL, &statusCode, &latency, &isError, &row.LatencyBucket, &recordedAt, &row.RunID); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		if statusCode.Valid {
			code := int(statusCode.Int64)
			row.StatusCode = &code
		}
		if latency.Valid {
			ms := latency.Float64
			row.LatencyMs = &ms
		}
		row.IsError = isError != 0
		row.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at %q: %w", recordedAt, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feature history: %w", err)
	}
	return result, nil
}

// Append inserts rows inside a single transaction
func (s *SQLStore) Append(ctx context.Context, rows []FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (method, url, status_code, latency_ms, is_error, latency_bucket, recorded_at, run_id)
		VALUES (%s)`, historyTable, placeholders(s.backend, 8))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		var statusCode sql.NullInt64
		if row.StatusCode != nil {
			statusCode = sql.NullInt64{Int64: int64(*row.StatusCode), Valid: true}
		}
		var latency sql.NullFloat64
		if row.LatencyMs != nil {
			latency = sql.NullFloat64{Float64: *row.LatencyMs, Valid: true}
		}
		isError := 0
		if row.IsError {
			isError = 1
		}

		if _, err := stmt.ExecContext(ctx,
			row.Method, row.URL, statusCode, latency, isError,
			row.LatencyBucket, row.Timestamp.UTC().Format(time.RFC3339Nano), row.RunID,
		); err != nil {
			return fmt.Errorf("failed to insert feature row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feature history: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// placeholders returns n bind parameters in the backend's dialect
func placeholders(backend Backend, n int) string {
	params := make([]string, n)
	for i := range params {
		if backend == BackendPostgres {
			params[i] = fmt.Sprintf("$%d", i+1)
		} else {
			params[i] = "?"
		}
	}
	return strings.Join(params, ", ")
}
