package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/riskgen/internal/generator"
	"github.com/QTest-hq/riskgen/internal/risk"
)

// Stream names
const (
	StreamArtifacts = "RISKGEN_ARTIFACTS"
)

// Subjects
const (
	SubjectArtifactsAll = "riskgen.>"
	SubjectTestCases    = "riskgen.testcases"
	SubjectPriorities   = "riskgen.priorities"
)

// HeaderRunID carries the run that produced an artifact
const HeaderRunID = "Riskgen-Run-Id"

// DefaultStreamConfig returns the artifact stream configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:        StreamArtifacts,
		Subjects:    []string{SubjectArtifactsAll},
		MaxMsgs:     10000,
		MaxBytes:    1024 * 1024 * 500, // 500MB
		MaxAge:      30 * 24 * time.Hour,
		Replicas:    1,
		Description: "riskgen generated test cases and priority lists",
	}
}

// Publisher sends generated artifacts to the artifact stream
type Publisher struct {
	client *Client
}

// NewPublisher ensures the artifact stream exists
func NewPublisher(ctx context.Context, client *Client) (*Publisher, error) {
	if _, err := client.CreateStream(ctx, DefaultStreamConfig()); err != nil {
		return nil, err
	}
	return &Publisher{client: client}, nil
}

// PublishTestCases publishes one run's test cases as a JSON array
func (p *Publisher) PublishTestCases(ctx context.Context, runID string, cases []generator.TestCase) error {
	return p.publish(ctx, SubjectTestCases, runID, cases)
}

// PublishPriorities publishes one run's deduplicated priority list
func (p *Publisher) PublishPriorities(ctx context.Context, runID string, records []risk.Record) error {
	return p.publish(ctx, SubjectPriorities, runID, records)
}

func (p *Publisher) publish(ctx context.Context, subject, runID string, v any) error {
	msg, err := artifactMsg(subject, runID, v)
	if err != nil {
		return err
	}

	ack, err := p.client.PublishMsg(ctx, msg)
	if err != nil {
		return err
	}

	log.Info().
		Str("subject", subject).
		Str("run_id", runID).
		Uint64("seq", ack.Sequence).
		Int("bytes", len(msg.Data)).
		Msg("artifact published")
	return nil
}

func artifactMsg(subject, runID string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact for %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderRunID, runID)
	msg.Header.Set(nats.MsgIdHdr, subject+"-"+runID)
	return msg, nil
}
