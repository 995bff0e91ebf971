package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func fixedClock() time.Time       { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
func fixedID() string             { return "run-1" }
func testExtractor() *Extractor   { return &Extractor{Clock: fixedClock, NewID: fixedID} }

func TestExtract_ErrorAndLatency(t *testing.T) {
	entries := []LogEntry{
		{Method: "GET", URL: "/a", StatusCode: intPtr(200), LatencyMs: floatPtr(100)},
		{Method: "GET", URL: "/a", StatusCode: intPtr(500), LatencyMs: floatPtr(3000)},
	}

	rows := testExtractor().Extract(entries)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	wantErr := []bool{false, true}
	wantBucket := []string{"fast", "slow"}
	for i, row := range rows {
		if row.IsError != wantErr[i] {
			t.Errorf("rows[%d].IsError = %v, want %v", i, row.IsError, wantErr[i])
		}
		if row.LatencyBucket != wantBucket[i] {
			t.Errorf("rows[%d].LatencyBucket = %s, want %s", i, row.LatencyBucket, wantBucket[i])
		}
		if !row.Timestamp.Equal(fixedClock()) || row.RunID != "run-1" {
			t.Errorf("rows[%d] stamped %v/%s", i, row.Timestamp, row.RunID)
		}
	}
}

func TestExtract_NeverDrops(t *testing.T) {
	entries := []LogEntry{
		{Method: "POST", URL: "/b"},
		{Method: "DELETE", URL: "/c", Error: "connection refused"},
		{Method: "PUT", URL: "/d", StatusCode: intPtr(404)},
	}

	rows := testExtractor().Extract(entries)
	if len(rows) != len(entries) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(entries))
	}
	if rows[0].IsError || rows[1].IsError {
		t.Error("entries without a status code must not be errors")
	}
	if !rows[2].IsError {
		t.Error("404 should be an error")
	}
	for i, row := range rows {
		if row.LatencyBucket != BucketUnknown {
			t.Errorf("rows[%d].LatencyBucket = %s, want unknown", i, row.LatencyBucket)
		}
	}
}

func TestBucketLatency(t *testing.T) {
	tests := []struct {
		ms   *float64
		want string
	}{
		{nil, BucketUnknown},
		{floatPtr(0), BucketFast},
		{floatPtr(499.9), BucketFast},
		{floatPtr(500), BucketMedium},
		{floatPtr(1999), BucketMedium},
		{floatPtr(2000), BucketSlow},
	}
	for _, tt := range tests {
		if got := BucketLatency(tt.ms); got != tt.want {
			t.Errorf("BucketLatency(%v) = %s, want %s", tt.ms, got, tt.want)
		}
	}
}

func TestParseLog(t *testing.T) {
	data := []byte(`[
		{"method": "GET", "url": "http://localhost/a", "status_code": 200, "latency_ms": 12.5},
		{"method": "POST", "url": "http://localhost/b", "error": "timeout"}
	]`)

	entries, err := ParseLog(data)
	if err != nil {
		t.Fatalf("ParseLog() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].StatusCode == nil || *entries[0].StatusCode != 200 {
		t.Errorf("entries[0].StatusCode = %v, want 200", entries[0].StatusCode)
	}
	if entries[1].StatusCode != nil || entries[1].LatencyMs != nil {
		t.Error("absent fields should decode as nil")
	}

	if _, err := ParseLog([]byte(`{"not": "an array"}`)); err == nil {
		t.Error("ParseLog() should reject a non-array document")
	}
}

func TestSaveRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "processed.json")
	rows := testExtractor().Extract([]LogEntry{{Method: "GET", URL: "/a", StatusCode: intPtr(404)}})

	if err := SaveRows(path, rows); err != nil {
		t.Fatalf("SaveRows() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["is_error"] != true || decoded[0]["latency_bucket"] != "unknown" {
		t.Errorf("decoded = %v", decoded)
	}
}
