// Package history turns execution logs into feature rows and keeps the
// cumulative, append-only feature history the risk scorer trains on.
package history

import (
	"encoding/json"
	"fmt"
	"os"
)

// LogEntry is one request recorded by an external test executor
type LogEntry struct {
	Method     string   `json:"method"`
	URL        string   `json:"url"`
	Payload    any      `json:"payload,omitempty"`
	StatusCode *int     `json:"status_code,omitempty"`
	LatencyMs  *float64 `json:"latency_ms,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// LoadLog reads a JSON array of log entries
func LoadLog(path string) ([]LogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read execution log: %w", err)
	}
	return ParseLog(data)
}

// ParseLog decodes a JSON array of log entries
func ParseLog(data []byte) ([]LogEntry, error) {
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse execution log: %w", err)
	}
	return entries, nil
}
