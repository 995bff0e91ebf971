package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/QTest-hq/riskgen/internal/pipeline"
)

func generateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate API test cases from a contract",
		Long: `Generate walks every operation of the contract and writes a happy-path test
case per operation, plus edge cases for request bodies when enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v)
			if err != nil {
				return err
			}
			if s.project.Contract == "" {
				return fmt.Errorf("no contract given: use --contract or set contract in .riskgen.yaml")
			}

			ctx := cmd.Context()
			runner, done := s.newRunner(ctx)
			defer done()

			req := synthesisRequest(s, v.GetBool("prioritized"))
			summary, err := runner.Synthesize(ctx, req)
			if err != nil {
				return err
			}

			return writeSynthesisSummary(os.Stdout, summary)
		},
	}

	addGenerationFlags(cmd)
	cmd.Flags().Bool("prioritized", false, "Only generate for endpoints in the prioritized list")
	cmd.Flags().String("priorities", "", "Prioritized risk list used as the allow-list")

	return cmd
}

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("contract", "c", "", "OpenAPI/Swagger contract (JSON or YAML)")
	cmd.Flags().String("base-url", "", "Base URL prefixed to every path")
	cmd.Flags().Uint64("seed", 0, "Random seed for payload synthesis")
	cmd.Flags().Int("workers", 0, "Operations assembled in parallel")
	cmd.Flags().Bool("edge-cases", true, "Also emit edge case tests for request bodies")
	cmd.Flags().StringToString("path-values", nil, "Known parameter values, e.g. userId=42")
	cmd.Flags().StringP("test-cases", "o", "", "Output file for generated test cases")
	cmd.Flags().String("execution-log", "", "Historical execution log used for similarity matching")
}

func synthesisRequest(s *settings, prioritized bool) pipeline.SynthesisRequest {
	req := pipeline.SynthesisRequest{
		ContractPath:     s.project.Contract,
		ExecutionLogPath: s.project.Outputs.ExecutionLog,
		OutputPath:       s.project.Outputs.TestCases,
		IncludeEdgeCases: s.project.Generation.EdgeCases,
		Assembly:         s.assemblyConfig(),
	}
	if prioritized {
		req.PrioritiesPath = s.project.Outputs.Priorities
	}
	return req
}
