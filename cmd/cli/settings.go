package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/QTest-hq/riskgen/internal/config"
	"github.com/QTest-hq/riskgen/internal/datagen"
	"github.com/QTest-hq/riskgen/internal/generator"
	"github.com/QTest-hq/riskgen/internal/history"
	"github.com/QTest-hq/riskgen/internal/metrics"
	rgnats "github.com/QTest-hq/riskgen/internal/nats"
	"github.com/QTest-hq/riskgen/internal/pipeline"
	"github.com/QTest-hq/riskgen/internal/risk"
)

// settings is the resolved configuration of one command: environment,
// project file and flags, in increasing precedence
type settings struct {
	env     *config.Config
	project *config.ProjectConfig
}

func loadSettings(cmd *cobra.Command, v *viper.Viper) (*settings, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	env, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level := v.GetString("log-level"); level != "" {
		env.LogLevel = level
	}
	if backend := v.GetString("history-backend"); backend != "" {
		env.History.Backend = backend
		env.History.DSN = ""
	}
	if dsn := v.GetString("history-dsn"); dsn != "" {
		env.History.DSN = dsn
	}
	if env.History.DSN == "" {
		env.History.DSN = config.DefaultDSN(env.History.Backend)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if err := setLogLevel(env.LogLevel); err != nil {
		return nil, err
	}
	if v.GetBool("no-color") {
		color.NoColor = true
	}

	project, err := config.LoadProjectConfig(v.GetString("project-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	project.Merge(overridesFrom(v))
	if v.IsSet("edge-cases") {
		project.Generation.EdgeCases = v.GetBool("edge-cases")
	}
	if v.IsSet("backup") {
		project.Outputs.Backup = v.GetBool("backup")
	}

	return &settings{env: env, project: project}, nil
}

// overridesFrom collects flag and RISKGEN_* values into a config that
// Merge applies over the project file
func overridesFrom(v *viper.Viper) *config.ProjectConfig {
	o := &config.ProjectConfig{
		Contract: v.GetString("contract"),
		BaseURL:  v.GetString("base-url"),
	}
	o.Generation.Seed = v.GetUint64("seed")
	o.Generation.Workers = v.GetInt("workers")
	o.Generation.PathValues = v.GetStringMapString("path-values")
	o.Risk.Seed = v.GetUint64("risk-seed")
	o.Outputs.TestCases = v.GetString("test-cases")
	o.Outputs.ExecutionLog = v.GetString("execution-log")
	o.Outputs.Features = v.GetString("features")
	o.Outputs.Priorities = v.GetString("priorities")
	return o
}

func (s *settings) assemblyConfig() generator.Config {
	gen := s.project.Generation
	workers := gen.Workers
	if workers <= 0 {
		workers = s.env.Workers
	}
	return generator.Config{
		BaseURL:      s.project.BaseURL,
		PathValues:   gen.PathValues,
		BodyDefaults: gen.BodyDefaults,
		Seed:         gen.Seed,
		Workers:      workers,
		Synthesis: datagen.Options{
			InclusionProbability: gen.InclusionProbability,
			MaxDepth:             gen.MaxDepth,
		},
	}
}

func (s *settings) riskOptions() risk.Options {
	r := s.project.Risk
	return risk.Options{
		Seed:         r.Seed,
		TestFraction: r.TestFraction,
		Epochs:       r.Epochs,
		LearningRate: r.LearningRate,
		L2:           r.L2,
	}
}

func (s *settings) openStore(ctx context.Context) (history.Store, error) {
	return history.Open(ctx, history.Backend(s.env.History.Backend), s.env.History.DSN)
}

// newRunner wires metrics and, when NATS_URL is set, the artifact
// publisher. The returned func releases the connection and exports metrics.
func (s *settings) newRunner(ctx context.Context) (*pipeline.Runner, func()) {
	m := metrics.New()
	var publisher pipeline.ArtifactPublisher
	var client *rgnats.Client

	if s.env.NATSURL != "" {
		c, err := rgnats.NewClient(s.env.NATSURL)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, artifacts will not be published")
		} else if pub, err := rgnats.NewPublisher(ctx, c); err != nil {
			log.Warn().Err(err).Msg("failed to prepare artifact stream")
			c.Close()
		} else {
			client = c
			publisher = pub
		}
	}

	runner := pipeline.NewRunner(m, publisher)
	return runner, func() {
		if client != nil {
			client.Close()
		}
		s.writeMetrics(m)
	}
}

func (s *settings) writeMetrics(m *metrics.Metrics) {
	if s.env.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(s.env.MetricsFile); err != nil {
		log.Warn().Err(err).Msg("failed to export metrics")
	}
}
