package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/store"
	"github.com/roach88/xfersynth/internal/testutil"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunChains_PicksBestChain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = 80
	res, err := RunChains(context.Background(), testutil.KnownBitsTop(), kbOracle(t), cfg, RunOptions{
		Chains: 3,
		Seed:   100,
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	require.Len(t, res.Chains, 3)
	assert.Empty(t, res.RunID)

	for i, c := range res.Chains {
		assert.Equal(t, i, c.Chain)
		assert.LessOrEqual(t, c.BestScore, res.BestScore)
		if c.BestScore == res.BestScore {
			assert.GreaterOrEqual(t, i, res.BestChain)
		}
	}
	assert.Same(t, res.Chains[res.BestChain].Best, res.Best)
	assert.Positive(t, res.Frequency.Total())
}

func TestRunChains_IndependentOfParallelism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = 60
	run := func(parallelism int) RunResult {
		res, err := RunChains(context.Background(), testutil.KnownBitsTop(), kbOracle(t), cfg, RunOptions{
			Chains:      4,
			Seed:        7,
			Logger:      quietLogger(),
			Parallelism: parallelism,
		})
		require.NoError(t, err)
		return res
	}
	serial, parallel := run(1), run(4)
	assert.Equal(t, serial.BestChain, parallel.BestChain)
	assert.Equal(t, ir.MustProgramHash(serial.Best), ir.MustProgramHash(parallel.Best))
	for i := range serial.Chains {
		assert.Equal(t, serial.Chains[i].Stats, parallel.Chains[i].Stats)
	}
}

func TestRunChains_SeedUntouched(t *testing.T) {
	seed := testutil.KnownBitsTop()
	before := ir.Format(seed)
	cfg := DefaultConfig()
	cfg.Steps = 40
	_, err := RunChains(context.Background(), seed, kbOracle(t), cfg, RunOptions{Chains: 2, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, before, ir.Format(seed))
}

func TestRunChains_RecordsTelemetry(t *testing.T) {
	s := openStore(t)
	cfg := DefaultConfig()
	cfg.Steps = 20
	cfg.Weighting = WeightingBandit
	cfg.BanditInterval = 5

	ctx := context.Background()
	res, err := RunChains(ctx, testutil.KnownBitsTop(), kbOracle(t), cfg, RunOptions{
		Chains: 2,
		Seed:   42,
		Logger: quietLogger(),
		Store:  s,
		IDs:    testutil.NewFixedRunID("run-telemetry"),
	})
	require.NoError(t, err)
	assert.Equal(t, "run-telemetry", res.RunID)

	run, err := s.ReadRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunFinished, run.Status)
	assert.Equal(t, uint64(42), run.Seed)
	assert.Equal(t, 2, run.Chains)
	assert.Equal(t, ir.MustProgramHash(testutil.KnownBitsTop()), run.ProgramHash)
	assert.Equal(t, ir.MustProgramHash(res.Best), run.BestHash)
	assert.Equal(t, res.BestScore, run.BestScore)
	assert.Equal(t, "bandit", run.Params["weighting"])

	decisions, err := s.ReadBanditDecisions(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, decisions, 8)
	for i := 1; i < len(decisions); i++ {
		assert.Less(t, decisions[i-1].Seq, decisions[i].Seq)
	}

	candidates, err := s.ReadCandidates(ctx, res.RunID)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		f, err := c.Function()
		require.NoError(t, err)
		assert.Equal(t, c.Hash, ir.MustProgramHash(f))
	}

	freq, err := s.ReadFrequency(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Frequency.Total(), freq.Total())
}

func TestRunChains_CancelledRunIsMarkedFailed(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inner := kbOracle(t)
	calls := 0
	oracle := OracleFunc(func(ctx context.Context, f *ir.Function) (float64, error) {
		calls++
		if calls == 5 {
			cancel()
		}
		return inner.Score(context.Background(), f)
	})

	_, err := RunChains(ctx, testutil.KnownBitsTop(), oracle, DefaultConfig(), RunOptions{
		Logger: quietLogger(),
		Store:  s,
		IDs:    testutil.NewFixedRunID("run-cancelled"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	run, err := s.ReadRun(context.Background(), "run-cancelled")
	require.NoError(t, err)
	assert.Equal(t, store.RunFailed, run.Status)
}

func TestRunChains_InvalidOptions(t *testing.T) {
	_, err := RunChains(context.Background(), testutil.KnownBitsTop(), kbOracle(t), DefaultConfig(), RunOptions{Chains: -1})
	assert.True(t, IsConfigError(err))

	_, err = RunChains(context.Background(), testutil.KnownBitsTop(), kbOracle(t), DefaultConfig(), RunOptions{CmpFlags: []int{12}})
	assert.True(t, IsConfigError(err))
}
