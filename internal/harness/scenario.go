package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/xfersynth/internal/config"
	"github.com/roach88/xfersynth/internal/ir"
)

// Scenario defines a synthesis scenario: a seed program searched against
// a reference under a run configuration, with assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the seed candidate. Relative paths resolve against the
	// scenario file.
	Program string `yaml:"program"`

	// Reference is the program the oracle compares against.
	Reference string `yaml:"reference"`

	// Run holds the run configuration. opset_file resolves against the
	// scenario file like the program paths.
	Run config.RunConfig `yaml:"run"`

	// Assertions validate the outcome.
	// Supported types: min_score, contains_op, op_count, max_ops, min_candidates
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id.
	// If empty, defaults to "test-run-default" for deterministic golden file comparison.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates the best candidate or the recorded telemetry.
type Assertion struct {
	// Type specifies the assertion type:
	// - "min_score": best score is at least Score
	// - "contains_op": best candidate uses Op
	// - "op_count": best candidate uses Op exactly Count times
	// - "max_ops": best candidate has at most Count body operations
	// - "min_candidates": at least Count improving candidates were recorded
	Type string `yaml:"type"`

	// Op is the operator name (used by contains_op, op_count).
	Op string `yaml:"op,omitempty"`

	// Score is the score threshold (used by min_score).
	Score *float64 `yaml:"score,omitempty"`

	// Count is the expected count (used by op_count, max_ops, min_candidates).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMinScore      = "min_score"
	AssertContainsOp    = "contains_op"
	AssertOpCount       = "op_count"
	AssertMaxOps        = "max_ops"
	AssertMinCandidates = "min_candidates"
)

// LoadScenario reads and parses a scenario YAML file, resolving program,
// reference and operator-set paths relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		scenario.Program = resolve(basePath, scenario.Program)
		scenario.Reference = resolve(basePath, scenario.Reference)
		scenario.Run.SetBaseDir(basePath)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Program == "" {
		return fmt.Errorf("program is required")
	}

	if s.Reference == "" {
		return fmt.Errorf("reference is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range []string{s.Program, s.Reference} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", p)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMinScore:
		if a.Score == nil {
			return fmt.Errorf("assertions[%d]: score is required for min_score", index)
		}
	case AssertContainsOp, AssertOpCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for %s", index, a.Type)
		}
		if _, ok := ir.ParseOpKind(a.Op); !ok {
			return fmt.Errorf("assertions[%d]: unknown operator %q", index, a.Op)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertMaxOps, AssertMinCandidates:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
