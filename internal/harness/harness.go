package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/search"
	"github.com/roach88/xfersynth/internal/store"
	"github.com/roach88/xfersynth/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario records into a fresh in-memory database for isolation,
// under a fixed run id.
//
// Execution flow:
// 1. Load and verify the seed and reference programs
// 2. Build the sample oracle from the reference
// 3. Run the configured chains
// 4. Evaluate assertions against the best candidate and telemetry
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := scenario.Run.Search()
	if err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	opts, err := scenario.Run.RunOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}

	seed, err := loadProgram(scenario.Program)
	if err != nil {
		return nil, err
	}
	reference, err := loadProgram(scenario.Reference)
	if err != nil {
		return nil, err
	}
	rc := &scenario.Run
	oracle, err := search.NewSampleOracle(reference, rc.Width(), rc.Samples(), random.New(rc.OracleSeed()))
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	opts.Store = st
	opts.IDs = testutil.NewFixedRunID(scenario.RunID)
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	run, err := search.RunChains(ctx, seed, oracle, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to run search: %w", err)
	}

	candidates, err := st.ReadCandidates(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	result := NewResult()
	result.RunID = run.RunID
	result.Best = run.Best
	result.BestScore = run.BestScore
	result.BestChain = run.BestChain
	result.Chains = run.Chains
	result.Frequency = run.Frequency
	result.Candidates = len(candidates)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadProgram(path string) (*ir.Function, error) {
	f, err := ir.LoadFunction(path)
	if err != nil {
		return nil, err
	}
	if err := f.Verify(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
