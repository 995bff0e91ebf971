package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type recordKey struct {
	method string
	url    string
}

// Dedupe keeps one record per (method, url): the first record with the
// highest score. The result is sorted by descending score, ties in
// first-seen order. Applying it to its own output changes nothing.
func Dedupe(records []Record) []Record {
	if len(records) <= 1 {
		return records
	}

	index := make(map[recordKey]int, len(records))
	unique := make([]Record, 0, len(records))
	for _, r := range records {
		k := recordKey{r.Method, r.URL}
		i, ok := index[k]
		if !ok {
			index[k] = len(unique)
			unique = append(unique, r)
			continue
		}
		if r.RiskScore > unique[i].RiskScore {
			unique[i] = r
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].RiskScore > unique[j].RiskScore
	})
	return unique
}

// KeyCount is a (method, url) key and how often it occurred
type KeyCount struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Count  int    `json:"count"`
}

// DedupeStats describes a deduplication pass
type DedupeStats struct {
	Original      int            `json:"original"`
	Deduplicated  int            `json:"deduplicated"`
	Removed       int            `json:"removed"`
	DuplicateKeys int            `json:"duplicate_keys"`
	TopDuplicated []KeyCount     `json:"top_duplicated"`
	Highest       float64        `json:"highest"`
	Lowest        float64        `json:"lowest"`
	Average       float64        `json:"average"`
	Methods       map[string]int `json:"methods"`
}

// Reduction is the share of records removed, in percent
func (s DedupeStats) Reduction() float64 {
	if s.Original == 0 {
		return 0
	}
	return float64(s.Removed) / float64(s.Original) * 100
}

const topDuplicated = 5

// Summarize compares the input and output of Dedupe
func Summarize(before, after []Record) DedupeStats {
	stats := DedupeStats{
		Original:     len(before),
		Deduplicated: len(after),
		Removed:      len(before) - len(after),
		Methods:      make(map[string]int),
	}

	counts := make(map[recordKey]int)
	var order []recordKey
	for _, r := range before {
		k := recordKey{r.Method, r.URL}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		if c := counts[k]; c > 1 {
			stats.DuplicateKeys++
			stats.TopDuplicated = append(stats.TopDuplicated, KeyCount{Method: k.method, URL: k.url, Count: c})
		}
	}
	sort.SliceStable(stats.TopDuplicated, func(i, j int) bool {
		return stats.TopDuplicated[i].Count > stats.TopDuplicated[j].Count
	})
	if len(stats.TopDuplicated) > topDuplicated {
		stats.TopDuplicated = stats.TopDuplicated[:topDuplicated]
	}

	if len(after) == 0 {
		return stats
	}
	stats.Highest, stats.Lowest = after[0].RiskScore, after[0].RiskScore
	var sum float64
	for _, r := range after {
		stats.Highest = max(stats.Highest, r.RiskScore)
		stats.Lowest = min(stats.Lowest, r.RiskScore)
		sum += r.RiskScore
		stats.Methods[r.Method]++
	}
	stats.Average = sum / float64(len(after))
	return stats
}

// LoadRecords reads a JSON array of risk records
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read risk records: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse risk records %s: %w", path, err)
	}
	return records, nil
}

// SaveRecords writes records as an indented JSON array. With backup set,
// an existing file at path is first copied to path + ".backup".
func SaveRecords(path string, records []Record, backup bool) error {
	if backup {
		existing, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := os.WriteFile(path+".backup", existing, 0o644); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to read %s for backup: %w", path, err)
		}
	}

	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode risk records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write risk records: %w", err)
	}
	return nil
}

// AllowList is an exact-match filter over (METHOD, resolved URL) pairs. A
// nil or empty list allows everything.
type AllowList struct {
	keys map[recordKey]bool
}

// NewAllowList builds an allow-list from prioritized records
func NewAllowList(records []Record) *AllowList {
	a := &AllowList{keys: make(map[recordKey]bool, len(records))}
	for _, r := range records {
		a.keys[recordKey{strings.ToUpper(r.Method), r.URL}] = true
	}
	return a
}

// Len returns the number of distinct keys
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Allows reports whether the pair passes the filter
func (a *AllowList) Allows(method, url string) bool {
	if a.Len() == 0 {
		return true
	}
	return a.keys[recordKey{strings.ToUpper(method), url}]
}
