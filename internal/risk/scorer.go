package risk

import (
	"github.com/QTest-hq/riskgen/internal/history"
)

// Record is the risk of one (method, url) pair
type Record struct {
	Method    string  `json:"method"`
	URL       string  `json:"url"`
	RiskScore float64 `json:"risk_score"`
}

// Score returns one record per usable row, in row order. Records are not
// deduplicated; see Dedupe.
func (m *Model) Score(rows []history.FeatureRow) []Record {
	usable := Usable(rows)
	records := make([]Record, len(usable))
	for i, row := range usable {
		records[i] = Record{
			Method:    row.Method,
			URL:       row.URL,
			RiskScore: m.predict(m.encoder.Encode(row)),
		}
	}
	return records
}
