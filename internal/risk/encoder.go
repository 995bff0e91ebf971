// Package risk scores endpoints by their likelihood of failing and turns
// the scores into a deduplicated priority list.
package risk

import (
	"sort"

	"github.com/QTest-hq/riskgen/internal/history"
)

// Encoder one-hot encodes the categorical features method, url and
// latency_bucket. Column order is sorted by feature name so the same rows
// always produce the same layout.
type Encoder struct {
	columns []string
	index   map[string]int
}

// FitEncoder learns the categories present in rows
func FitEncoder(rows []history.FeatureRow) *Encoder {
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, name := range featureNames(row) {
			seen[name] = true
		}
	}

	e := &Encoder{index: make(map[string]int, len(seen))}
	for name := range seen {
		e.columns = append(e.columns, name)
	}
	sort.Strings(e.columns)
	for i, name := range e.columns {
		e.index[name] = i
	}
	return e
}

// Width is the number of one-hot columns
func (e *Encoder) Width() int {
	return len(e.columns)
}

// Columns returns the column names in order
func (e *Encoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Encode returns the active column indices for row. Categories not seen
// while fitting are ignored.
func (e *Encoder) Encode(row history.FeatureRow) []int {
	active := make([]int, 0, 3)
	for _, name := range featureNames(row) {
		if i, ok := e.index[name]; ok {
			active = append(active, i)
		}
	}
	return active
}

func featureNames(row history.FeatureRow) []string {
	return []string{
		"method_" + row.Method,
		"url_" + row.URL,
		"latency_bucket_" + row.LatencyBucket,
	}
}
