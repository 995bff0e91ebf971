package similarity

import (
	"sort"
	"strings"

	"github.com/QTest-hq/riskgen/internal/history"
)

// CorpusFromLog returns the distinct "METHOD url" descriptions seen in an
// execution log, sorted
func CorpusFromLog(entries []history.LogEntry) []string {
	seen := make(map[string]bool, len(entries))
	corpus := make([]string, 0, len(entries))
	for _, e := range entries {
		desc := strings.ToUpper(e.Method) + " " + e.URL
		if seen[desc] {
			continue
		}
		seen[desc] = true
		corpus = append(corpus, desc)
	}
	sort.Strings(corpus)
	return corpus
}
