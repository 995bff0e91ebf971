package pipeline

import (
	"context"

	"github.com/QTest-hq/riskgen/internal/generator"
	"github.com/QTest-hq/riskgen/internal/history"
	"github.com/QTest-hq/riskgen/internal/risk"
)

// ArtifactPublisher receives the outputs of a run. The NATS publisher
// implements it.
type ArtifactPublisher interface {
	PublishTestCases(ctx context.Context, runID string, cases []generator.TestCase) error
	PublishPriorities(ctx context.Context, runID string, records []risk.Record) error
}

// SynthesisRequest configures one test-case synthesis run
type SynthesisRequest struct {
	ContractPath     string
	ExecutionLogPath string // optional; feeds the similarity index
	PrioritiesPath   string // optional; becomes the allow-list
	OutputPath       string
	IncludeEdgeCases bool
	Assembly         generator.Config
}

// PrioritizationRequest configures one risk prioritization run
type PrioritizationRequest struct {
	ExecutionLogPath string
	Store            history.Store
	OutputPath       string
	Backup           bool
	Risk             risk.Options
}

// Summary reports what a run produced
type Summary struct {
	RunID string `json:"run_id"`

	// synthesis
	TestCases      int `json:"test_cases,omitempty"`
	Operations     int `json:"operations,omitempty"`
	Filtered       int `json:"filtered,omitempty"`
	Skipped        int `json:"skipped,omitempty"`
	HistoryMatched int `json:"history_matched,omitempty"`

	// prioritization
	FeatureRows int               `json:"feature_rows,omitempty"`
	HistoryRows int               `json:"history_rows,omitempty"`
	Scored      int               `json:"scored,omitempty"`
	Records     []risk.Record     `json:"-"`
	Report      *risk.Report      `json:"report,omitempty"`
	Dedupe      *risk.DedupeStats `json:"dedupe,omitempty"`

	Output string `json:"output"`
}
