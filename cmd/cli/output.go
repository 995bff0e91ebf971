package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/QTest-hq/riskgen/internal/history"
	"github.com/QTest-hq/riskgen/internal/pipeline"
	"github.com/QTest-hq/riskgen/internal/risk"
)

// Risk levels shown next to scores
const (
	levelHigh   = "HIGH"
	levelMedium = "MEDIUM"
	levelLow    = "LOW"
)

func riskLevel(score float64) string {
	switch {
	case score >= 0.7:
		return levelHigh
	case score >= 0.4:
		return levelMedium
	default:
		return levelLow
	}
}

// colorLevel paints a level; color.NoColor turns it into plain text
func colorLevel(level string) string {
	switch level {
	case levelHigh:
		return color.New(color.FgRed, color.Bold).Sprint(level)
	case levelMedium:
		return color.New(color.FgYellow).Sprint(level)
	default:
		return color.New(color.FgGreen).Sprint(level)
	}
}

func writePriorities(w io.Writer, records []risk.Record, top int) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No prioritized endpoints")
		return err
	}

	shown := records
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Rank", "Method", "URL", "Risk", "Level"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(shown))
	for i, r := range shown {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			r.Method,
			r.URL,
			strconv.FormatFloat(r.RiskScore, 'f', 4, 64),
			colorLevel(riskLevel(r.RiskScore)),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d of %d endpoints\n", len(shown), len(records))
	return err
}

func writeDedupeStats(w io.Writer, stats risk.DedupeStats) error {
	if _, err := fmt.Fprintf(w, "Original: %d, deduplicated: %d, removed: %d (%.1f%%), duplicate endpoints: %d\n",
		stats.Original, stats.Deduplicated, stats.Removed, stats.Reduction(), stats.DuplicateKeys); err != nil {
		return err
	}
	if stats.Deduplicated > 0 {
		if _, err := fmt.Fprintf(w, "Risk scores: highest %.4f, lowest %.4f, average %.4f\n",
			stats.Highest, stats.Lowest, stats.Average); err != nil {
			return err
		}
	}
	if len(stats.TopDuplicated) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Method", "URL", "Occurrences"})
	data := make([][]string, 0, len(stats.TopDuplicated))
	for _, k := range stats.TopDuplicated {
		data = append(data, []string{k.Method, k.URL, strconv.Itoa(k.Count)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeReport(w io.Writer, report risk.Report) error {
	_, err := fmt.Fprintf(w, "Model: trained on %d rows, holdout %d, accuracy %.3f, precision %.3f, recall %.3f\n",
		report.TrainSize, report.Support, report.Accuracy, report.Precision, report.Recall)
	return err
}

func writeFeatureSummary(w io.Writer, rows []history.FeatureRow, total int) error {
	buckets := make(map[string]int)
	errorsSeen := 0
	for _, r := range rows {
		buckets[r.LatencyBucket]++
		if r.IsError {
			errorsSeen++
		}
	}

	names := make([]string, 0, len(buckets))
	for b := range buckets {
		names = append(names, b)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Latency", "Rows"})
	data := make([][]string, 0, len(names))
	for _, b := range names {
		data = append(data, []string{b, strconv.Itoa(buckets[b])})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Extracted %d rows (%d errors); history now holds %d rows\n", len(rows), errorsSeen, total)
	return err
}

func writeSynthesisSummary(w io.Writer, s *pipeline.Summary) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Operations", "Filtered", "Skipped", "History matches", "Test cases"})
	row := []string{
		strconv.Itoa(s.Operations),
		strconv.Itoa(s.Filtered),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.HistoryMatched),
		strconv.Itoa(s.TestCases),
	}
	if err := table.Bulk([][]string{row}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Test cases written to: %s\n", s.Output)
	return err
}
