package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents a .riskgen.yaml file next to a contract
type ProjectConfig struct {
	Version string `yaml:"version"`

	// Contract document (OpenAPI 3 or Swagger 2, JSON or YAML)
	Contract string `yaml:"contract,omitempty"`

	// Prefixed to every resolved path
	BaseURL string `yaml:"base_url,omitempty"`

	Generation GenerationConfig `yaml:"generation"`
	Risk       RiskConfig       `yaml:"risk"`
	Outputs    OutputsConfig    `yaml:"outputs"`
}

// GenerationConfig holds test synthesis preferences
type GenerationConfig struct {
	Seed uint64 `yaml:"seed,omitempty"`

	// Chance an optional property is emitted (0-1)
	InclusionProbability float64 `yaml:"inclusion_probability,omitempty"`

	MaxDepth int `yaml:"max_depth,omitempty"`
	Workers  int `yaml:"workers,omitempty"`

	// Whether to generate edge case tests
	EdgeCases bool `yaml:"edge_cases,omitempty"`

	// Known values for path and query parameters
	PathValues map[string]string `yaml:"path_values,omitempty"`

	// Dotted body paths set when the synthesized payload lacks them
	BodyDefaults map[string]any `yaml:"body_defaults,omitempty"`
}

// RiskConfig holds risk model training settings
type RiskConfig struct {
	Seed         uint64  `yaml:"seed,omitempty"`
	TestFraction float64 `yaml:"test_fraction,omitempty"`
	Epochs       int     `yaml:"epochs,omitempty"`
	LearningRate float64 `yaml:"learning_rate,omitempty"`
	L2           float64 `yaml:"l2,omitempty"`
}

// OutputsConfig holds artifact locations
type OutputsConfig struct {
	TestCases    string `yaml:"test_cases,omitempty"`
	ExecutionLog string `yaml:"execution_log,omitempty"`
	Features     string `yaml:"features,omitempty"`
	Priorities   string `yaml:"priorities,omitempty"`

	// Keep a .backup of an overwritten priority list
	Backup bool `yaml:"backup,omitempty"`
}

// DefaultProjectConfig returns sensible defaults
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Version: "1.0",
		BaseURL: "http://localhost:8502",
		Generation: GenerationConfig{
			Seed:                 42,
			InclusionProbability: 0.7,
			MaxDepth:             32,
			Workers:              4,
			EdgeCases:            true,
		},
		Risk: RiskConfig{
			Seed:         42,
			TestFraction: 0.2,
			Epochs:       500,
			LearningRate: 0.5,
			L2:           0.001,
		},
		Outputs: OutputsConfig{
			TestCases:    "data/generated_tests.json",
			ExecutionLog: "data/test_execution_log.json",
			Features:     "data/processed_logs.json",
			Priorities:   "data/prioritized_tests.json",
			Backup:       true,
		},
	}
}

// LoadProjectConfig loads a .riskgen.yaml from the given directory
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ".riskgen.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join(dir, ".riskgen.yml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return DefaultProjectConfig(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultProjectConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveProjectConfig saves the config to .riskgen.yaml
func SaveProjectConfig(dir string, cfg *ProjectConfig) error {
	configPath := filepath.Join(dir, ".riskgen.yaml")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Merge applies overrides from another config (e.g., CLI flags)
func (c *ProjectConfig) Merge(other *ProjectConfig) {
	if other == nil {
		return
	}

	if other.Contract != "" {
		c.Contract = other.Contract
	}

	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}

	if other.Generation.Seed != 0 {
		c.Generation.Seed = other.Generation.Seed
	}

	if other.Generation.InclusionProbability != 0 {
		c.Generation.InclusionProbability = other.Generation.InclusionProbability
	}

	if other.Generation.MaxDepth != 0 {
		c.Generation.MaxDepth = other.Generation.MaxDepth
	}

	if other.Generation.Workers != 0 {
		c.Generation.Workers = other.Generation.Workers
	}

	for k, v := range other.Generation.PathValues {
		if c.Generation.PathValues == nil {
			c.Generation.PathValues = make(map[string]string)
		}
		c.Generation.PathValues[k] = v
	}

	for k, v := range other.Generation.BodyDefaults {
		if c.Generation.BodyDefaults == nil {
			c.Generation.BodyDefaults = make(map[string]any)
		}
		c.Generation.BodyDefaults[k] = v
	}

	if other.Risk.Seed != 0 {
		c.Risk.Seed = other.Risk.Seed
	}

	if other.Risk.TestFraction != 0 {
		c.Risk.TestFraction = other.Risk.TestFraction
	}

	if other.Risk.Epochs != 0 {
		c.Risk.Epochs = other.Risk.Epochs
	}

	if other.Outputs.TestCases != "" {
		c.Outputs.TestCases = other.Outputs.TestCases
	}

	if other.Outputs.ExecutionLog != "" {
		c.Outputs.ExecutionLog = other.Outputs.ExecutionLog
	}

	if other.Outputs.Features != "" {
		c.Outputs.Features = other.Outputs.Features
	}

	if other.Outputs.Priorities != "" {
		c.Outputs.Priorities = other.Outputs.Priorities
	}
}
