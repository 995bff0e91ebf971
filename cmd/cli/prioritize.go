package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/QTest-hq/riskgen/internal/history"
	"github.com/QTest-hq/riskgen/internal/pipeline"
	"github.com/QTest-hq/riskgen/internal/risk"
)

func featuresCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Extract features from an execution log into the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			entries, err := history.LoadLog(s.project.Outputs.ExecutionLog)
			if err != nil {
				return err
			}

			store, err := s.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			acc, err := history.NewAccumulator(ctx, store)
			if err != nil {
				return err
			}
			rows := history.NewExtractor().Extract(entries)
			acc.Add(rows...)
			if err := acc.Flush(ctx); err != nil {
				return err
			}

			if err := history.SaveRows(s.project.Outputs.Features, rows); err != nil {
				return err
			}

			return writeFeatureSummary(os.Stdout, rows, len(acc.Rows()))
		},
	}

	cmd.Flags().String("execution-log", "", "Execution log to analyze")
	cmd.Flags().String("features", "", "Output file for this run's feature rows")

	return cmd
}

func scoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Train the risk model on the history and score every occurrence",
		Long: `Score trains on the cumulative feature history and writes one risk record per
historical occurrence. Run dedupe afterwards to collapse them per endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := s.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.Load(ctx)
			if err != nil {
				return err
			}

			var records []risk.Record
			model, err := risk.Train(rows, s.riskOptions())
			switch {
			case errors.Is(err, risk.ErrEmptyHistory):
				log.Warn().Msg("no usable history, writing an empty risk list")
			case err != nil:
				return fmt.Errorf("failed to train risk model: %w", err)
			default:
				records = model.Score(rows)
				if err := writeReport(os.Stdout, model.Report()); err != nil {
					return err
				}
			}

			if err := risk.SaveRecords(s.project.Outputs.Priorities, records, s.project.Outputs.Backup); err != nil {
				return err
			}
			fmt.Printf("Scored %d occurrences -> %s\n", len(records), s.project.Outputs.Priorities)
			return nil
		},
	}

	cmd.Flags().Uint64("risk-seed", 0, "Seed for the train/holdout split")
	cmd.Flags().String("priorities", "", "Output file for risk records")
	cmd.Flags().Bool("backup", true, "Keep a .backup of an overwritten file")

	return cmd
}

func dedupeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse risk records to one per endpoint, highest score first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v)
			if err != nil {
				return err
			}

			path := s.project.Outputs.Priorities
			records, err := risk.LoadRecords(path)
			if err != nil {
				return err
			}

			deduped := risk.Dedupe(records)
			if err := risk.SaveRecords(path, deduped, s.project.Outputs.Backup); err != nil {
				return err
			}

			if err := writeDedupeStats(os.Stdout, risk.Summarize(records, deduped)); err != nil {
				return err
			}
			return writePriorities(os.Stdout, deduped, v.GetInt("top"))
		},
	}

	cmd.Flags().String("priorities", "", "Risk record file, rewritten in place")
	cmd.Flags().Bool("backup", true, "Keep a .backup of the original file")
	cmd.Flags().Int("top", 10, "Rows to show (0 for all)")

	return cmd
}

func runCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prioritize from the execution log, then regenerate tests for risky endpoints",
		Long: `Run extracts features from the execution log, appends them to the history,
scores and deduplicates the whole history into the priority list, and, when a
contract is configured, regenerates test cases filtered by that list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := s.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, done := s.newRunner(ctx)
			defer done()

			summary, err := runner.Prioritize(ctx, pipeline.PrioritizationRequest{
				ExecutionLogPath: s.project.Outputs.ExecutionLog,
				Store:            store,
				OutputPath:       s.project.Outputs.Priorities,
				Backup:           s.project.Outputs.Backup,
				Risk:             s.riskOptions(),
			})
			if err != nil {
				return err
			}
			if summary.Report != nil {
				if err := writeReport(os.Stdout, *summary.Report); err != nil {
					return err
				}
			}
			if err := writePriorities(os.Stdout, summary.Records, v.GetInt("top")); err != nil {
				return err
			}

			if s.project.Contract == "" {
				return nil
			}
			synth, err := runner.Synthesize(ctx, synthesisRequest(s, len(summary.Records) > 0))
			if err != nil {
				return err
			}
			return writeSynthesisSummary(os.Stdout, synth)
		},
	}

	addGenerationFlags(cmd)
	cmd.Flags().Uint64("risk-seed", 0, "Seed for the train/holdout split")
	cmd.Flags().String("priorities", "", "Output file for the priority list")
	cmd.Flags().Bool("backup", true, "Keep a .backup of an overwritten priority list")
	cmd.Flags().Int("top", 10, "Rows to show (0 for all)")

	return cmd
}
