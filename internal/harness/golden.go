package harness

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/xfersynth/internal/ir"
)

// Snapshot captures the outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	Scenario  string
	RunID     string
	BestScore float64
	BestChain int
	Chains    int
	Program   string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. Canonical JSON rejects floats, so the score is rendered in
// its shortest decimal form and the program as a list of lines.
func (s *Snapshot) toCanonicalMap() map[string]any {
	lines := strings.Split(strings.TrimSuffix(s.Program, "\n"), "\n")
	return map[string]any{
		"scenario":   s.Scenario,
		"run_id":     s.RunID,
		"best_score": strconv.FormatFloat(s.BestScore, 'g', -1, 64),
		"best_chain": s.BestChain,
		"chains":     s.Chains,
		"program":    lines,
	}
}

func newSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{
		Scenario:  name,
		RunID:     result.RunID,
		BestScore: result.BestScore,
		BestChain: result.BestChain,
		Chains:    len(result.Chains),
	}
	if result.Best != nil {
		s.Program = ir.Format(result.Best)
	}
	return s
}

// MarshalSnapshot renders the golden form of a result: canonical JSON of
// the run id, best score, best chain, chain count and printed best program.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := newSnapshot(scenarioName, result)
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
