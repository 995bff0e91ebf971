// Package pipeline runs the synthesis and prioritization flows end to end:
// one read of each input at stage entry, one write of each output at exit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/riskgen/internal/contract"
	"github.com/QTest-hq/riskgen/internal/generator"
	"github.com/QTest-hq/riskgen/internal/history"
	"github.com/QTest-hq/riskgen/internal/metrics"
	"github.com/QTest-hq/riskgen/internal/risk"
	"github.com/QTest-hq/riskgen/internal/similarity"
)

// Runner executes pipeline runs
type Runner struct {
	metrics   *metrics.Metrics
	publisher ArtifactPublisher
	clock     func() time.Time
	newID     func() string
}

// NewRunner creates a runner. publisher may be nil to skip publishing.
func NewRunner(m *metrics.Metrics, publisher ArtifactPublisher) *Runner {
	if m == nil {
		m = metrics.New()
	}
	return &Runner{
		metrics:   m,
		publisher: publisher,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// Metrics returns the collectors updated by this runner
func (r *Runner) Metrics() *metrics.Metrics {
	return r.metrics
}

// Synthesize assembles test cases for every contract operation and writes
// them to req.OutputPath
func (r *Runner) Synthesize(ctx context.Context, req SynthesisRequest) (*Summary, error) {
	defer r.metrics.Time("synthesize")()
	runID := r.newID()

	doc, err := contract.Load(req.ContractPath)
	if err != nil {
		return nil, err
	}

	index, err := loadIndex(req.ExecutionLogPath)
	if err != nil {
		return nil, err
	}

	allow, err := loadAllowList(req.PrioritiesPath)
	if err != nil {
		return nil, err
	}

	assembler := generator.NewAssembler(req.Assembly, index)
	result, err := assembler.Generate(ctx, doc, generator.Options{
		IncludeEdgeCases: req.IncludeEdgeCases,
		AllowList:        allow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate test cases: %w", err)
	}

	if err := generator.SaveTestCases(req.OutputPath, result.TestCases); err != nil {
		return nil, err
	}

	byScenario := make(map[string]int)
	for _, tc := range result.TestCases {
		byScenario[tc.ScenarioType]++
	}
	assembled := result.Operations - result.Filtered - result.Skipped
	r.metrics.RecordAssembly(assembled, result.Filtered, result.Skipped, byScenario)

	if r.publisher != nil {
		if err := r.publisher.PublishTestCases(ctx, runID, result.TestCases); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("failed to publish test cases")
		}
	}

	log.Info().
		Str("run_id", runID).
		Str("output", req.OutputPath).
		Int("test_cases", len(result.TestCases)).
		Msg("synthesis complete")

	return &Summary{
		RunID:          runID,
		TestCases:      len(result.TestCases),
		Operations:     result.Operations,
		Filtered:       result.Filtered,
		Skipped:        result.Skipped,
		HistoryMatched: result.HistoryMatched,
		Output:         req.OutputPath,
	}, nil
}

// Prioritize extracts features from the execution log, appends them to the
// cumulative history, scores the whole history and writes the deduplicated
// priority list. An empty usable history yields an empty list.
func (r *Runner) Prioritize(ctx context.Context, req PrioritizationRequest) (*Summary, error) {
	defer r.metrics.Time("prioritize")()
	runID := r.newID()

	entries, err := history.LoadLog(req.ExecutionLogPath)
	if err != nil {
		return nil, err
	}

	acc, err := history.NewAccumulator(ctx, req.Store)
	if err != nil {
		return nil, err
	}

	extractor := &history.Extractor{Clock: r.clock, NewID: func() string { return runID }}
	rows := extractor.Extract(entries)
	acc.Add(rows...)
	if err := acc.Flush(ctx); err != nil {
		return nil, err
	}
	r.metrics.RecordFeatures(len(rows))

	summary := &Summary{
		RunID:       runID,
		FeatureRows: len(rows),
		Output:      req.OutputPath,
	}

	all := acc.Rows()
	summary.HistoryRows = len(all)

	model, err := risk.Train(all, req.Risk)
	switch {
	case errors.Is(err, risk.ErrEmptyHistory):
		log.Warn().Str("run_id", runID).Msg("no usable history, writing an empty priority list")
	case err != nil:
		return nil, fmt.Errorf("failed to train risk model: %w", err)
	default:
		report := model.Report()
		summary.Report = &report

		scored := model.Score(all)
		summary.Scored = len(scored)
		summary.Records = risk.Dedupe(scored)
		stats := risk.Summarize(scored, summary.Records)
		summary.Dedupe = &stats
	}

	if err := risk.SaveRecords(req.OutputPath, summary.Records, req.Backup); err != nil {
		return nil, err
	}
	r.metrics.RecordRisk(summary.Scored, len(summary.Records))

	if r.publisher != nil {
		if err := r.publisher.PublishPriorities(ctx, runID, summary.Records); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("failed to publish priorities")
		}
	}

	log.Info().
		Str("run_id", runID).
		Str("output", req.OutputPath).
		Int("history_rows", summary.HistoryRows).
		Int("prioritized", len(summary.Records)).
		Msg("prioritization complete")

	return summary, nil
}

// loadIndex builds the similarity index from an execution log. A missing
// log means no history yet.
func loadIndex(path string) (*similarity.Index, error) {
	if path == "" {
		return nil, nil
	}
	entries, err := history.LoadLog(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("execution log not found, generating without history")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return similarity.Build(similarity.CorpusFromLog(entries)), nil
}

func loadAllowList(path string) (*risk.AllowList, error) {
	if path == "" {
		return nil, nil
	}
	records, err := risk.LoadRecords(path)
	if err != nil {
		return nil, err
	}
	allow := risk.NewAllowList(records)
	log.Debug().Int("endpoints", allow.Len()).Msg("loaded prioritized allow-list")
	return allow, nil
}
