// Package generator assembles API test cases from a contract document.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"maps"
	"math/rand/v2"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/QTest-hq/riskgen/internal/contract"
	"github.com/QTest-hq/riskgen/internal/datagen"
	"github.com/QTest-hq/riskgen/internal/risk"
	"github.com/QTest-hq/riskgen/internal/similarity"
)

// Scenario types
const (
	ScenarioHappyPath = "happy_path"
	ScenarioEdgeCase  = "edge_case"
)

// DefaultBaseURL is prefixed to every resolved path
const DefaultBaseURL = "http://localhost:8502"

// TestCase is one request an external executor should send
type TestCase struct {
	Method         string `json:"method"`
	Endpoint       string `json:"endpoint"`
	URL            string `json:"url"`
	Payload        any    `json:"payload"`
	Description    string `json:"description"`
	ExpectedStatus int    `json:"expected_status"`
	ScenarioType   string `json:"scenario_type"`
}

// Config holds per-run assembly settings
type Config struct {
	BaseURL      string
	PathValues   map[string]string // known values for path and query parameters
	BodyDefaults map[string]any    // dotted path -> value, set when absent
	Seed         uint64
	Workers      int
	Synthesis    datagen.Options
}

// Options selects what one Generate call emits
type Options struct {
	IncludeEdgeCases bool
	AllowList        *risk.AllowList
}

// Result is the outcome of one Generate call
type Result struct {
	TestCases      []TestCase `json:"test_cases"`
	Operations     int        `json:"operations"`
	Filtered       int        `json:"filtered"`
	Skipped        int        `json:"skipped"`
	HistoryMatched int        `json:"history_matched"`
}

// Assembler turns contract operations into test cases
type Assembler struct {
	cfg   Config
	index *similarity.Index
}

// NewAssembler creates an assembler. index may be nil when there is no
// execution history.
func NewAssembler(cfg Config, index *similarity.Index) *Assembler {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Assembler{cfg: cfg, index: index}
}

type operationResult struct {
	cases    []TestCase
	filtered bool
	skipped  bool
	matched  bool
}

// Generate assembles every operation of doc. Operations run concurrently
// but results keep document order, and each operation draws from its own
// seeded source so the output does not depend on scheduling. An operation
// whose schema cannot be resolved is skipped and counted.
func (a *Assembler) Generate(ctx context.Context, doc *contract.Document, opts Options) (*Result, error) {
	ops := doc.Operations()
	resolver := doc.Resolver()
	results := make([]operationResult, len(ops))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, op := range ops {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.assemble(resolver, op, opts)
			if err != nil {
				if !errors.Is(err, contract.ErrSchemaResolution) {
					return fmt.Errorf("failed to assemble %s: %w", op.Key(), err)
				}
				log.Warn().Err(err).Str("operation", op.Key()).Msg("skipping operation")
				res = operationResult{skipped: true}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Operations: len(ops), TestCases: []TestCase{}}
	for _, res := range results {
		switch {
		case res.skipped:
			result.Skipped++
		case res.filtered:
			result.Filtered++
		}
		if res.matched {
			result.HistoryMatched++
		}
		result.TestCases = append(result.TestCases, res.cases...)
	}

	log.Info().
		Int("operations", result.Operations).
		Int("test_cases", len(result.TestCases)).
		Int("filtered", result.Filtered).
		Int("skipped", result.Skipped).
		Msg("test cases assembled")

	return result, nil
}

func (a *Assembler) assemble(resolver *contract.Resolver, op contract.Operation, opts Options) (operationResult, error) {
	params, err := resolver.Parameters(op)
	if err != nil {
		return operationResult{}, err
	}

	fullURL := a.cfg.BaseURL + a.resolveURL(op.Path, params)
	if !opts.AllowList.Allows(op.Method, fullURL) {
		return operationResult{filtered: true}, nil
	}

	var res operationResult
	if matches := a.index.Query(op.Method, op.Path); len(matches) > 0 {
		// Matches are informational only; payloads are not biased by them
		res.matched = true
		log.Debug().Str("operation", op.Key()).Str("closest", matches[0].Description).Msg("history match")
	}

	body, err := resolver.RequestBody(op)
	if err != nil {
		return operationResult{}, err
	}

	happy := TestCase{
		Method:         op.Method,
		Endpoint:       op.Path,
		URL:            fullURL,
		Description:    op.Title(),
		ExpectedStatus: op.ExpectedStatus(),
		ScenarioType:   ScenarioHappyPath,
	}

	if body != nil {
		synth := datagen.NewSynthesizer(datagen.NewDataGenerator(a.rngFor(op)), resolver, a.cfg.Synthesis)
		payload, err := synth.Synthesize(body, "")
		if err != nil {
			return operationResult{}, err
		}
		selfCheck(resolver, op, body, payload)
		if m, ok := payload.(map[string]any); ok {
			applyDefaults(m, a.cfg.BodyDefaults)
		}
		happy.Payload = payload
	}
	res.cases = append(res.cases, happy)

	if opts.IncludeEdgeCases && body != nil {
		target, err := resolver.Deref(body)
		if err != nil {
			return operationResult{}, err
		}
		for _, value := range datagen.EdgeCases(target.Kind) {
			edge := happy
			edge.Payload = value
			edge.Description = "Edge case: " + happy.Description
			edge.ExpectedStatus = 400
			edge.ScenarioType = ScenarioEdgeCase
			res.cases = append(res.cases, edge)
		}
	}
	return res, nil
}

// selfCheck validates a synthesized payload against its schema and logs
// the outcome; it never fails the operation
func selfCheck(resolver *contract.Resolver, op contract.Operation, body *contract.Schema, payload any) {
	violations, err := contract.Validate(resolver, body, payload)
	switch {
	case err != nil:
		log.Debug().Err(err).Str("operation", op.Key()).Msg("payload self-check could not run")
	case len(violations) > 0:
		log.Warn().Str("operation", op.Key()).Int("violations", len(violations)).Msg("synthesized payload does not match schema")
	}
}

// rngFor derives an operation's random source from the run seed and the
// operation key
func (a *Assembler) rngFor(op contract.Operation) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(op.Key()))
	return rand.New(rand.NewPCG(a.cfg.Seed, h.Sum64()))
}

var pathParam = regexp.MustCompile(`\{([^{}]+)\}`)

// resolveURL substitutes path template parameters and appends required
// query parameters in sorted order
func (a *Assembler) resolveURL(path string, params []contract.Parameter) string {
	resolved := pathParam.ReplaceAllStringFunc(path, func(m string) string {
		return a.paramValue(m[1 : len(m)-1])
	})

	query := url.Values{}
	for _, p := range params {
		if p.In == "query" && p.Required {
			query.Set(p.Name, a.paramValue(p.Name))
		}
	}
	if len(query) > 0 {
		resolved += "?" + query.Encode()
	}
	return resolved
}

func (a *Assembler) paramValue(name string) string {
	if v, ok := a.cfg.PathValues[name]; ok {
		return v
	}
	return "real-" + name
}

// applyDefaults sets each dotted path in defaults that payload lacks,
// creating intermediate objects. A path blocked by a non-object value is
// left alone.
func applyDefaults(payload map[string]any, defaults map[string]any) {
	for _, path := range slices.Sorted(maps.Keys(defaults)) {
		value := defaults[path]
		parts := strings.Split(path, ".")
		node := payload
		for _, part := range parts[:len(parts)-1] {
			next, exists := node[part]
			if !exists {
				child := make(map[string]any)
				node[part] = child
				node = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				node = nil
				break
			}
			node = child
		}
		if node == nil {
			continue
		}
		last := parts[len(parts)-1]
		if _, exists := node[last]; !exists {
			node[last] = value
		}
	}
}

// SaveTestCases writes test cases as an indented JSON array
func SaveTestCases(path string, cases []TestCase) error {
	if cases == nil {
		cases = []TestCase{}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode test cases: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write test cases: %w", err)
	}
	return nil
}
