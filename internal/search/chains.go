package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/mutation"
	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/store"
	"github.com/roach88/xfersynth/internal/synth"
)

// RunOptions configures a multi-chain run.
type RunOptions struct {
	// Chains is the number of independent chains. Defaults to 1.
	Chains int
	// Seed is the run seed. Chain i draws from Seed+i.
	Seed uint64
	// OpSet is the operator set of every chain's catalog. The zero value
	// selects catalog.DefaultOpSet().
	OpSet catalog.OpSet
	// Heuristics overrides the synthesizer defaults when non-nil.
	Heuristics *synth.Heuristics
	// CmpFlags restricts comparison predicates when non-empty.
	CmpFlags []int
	// Frequency seeds the frequency arm of every chain.
	Frequency catalog.Frequency

	Logger *slog.Logger
	Store  *store.Store
	// IDs generates the run id when Store is set. Defaults to
	// UUIDv7Generator.
	IDs RunIDGenerator
	// Parallelism bounds concurrently running chains. Defaults to
	// GOMAXPROCS.
	Parallelism int
}

// RunResult is the outcome of RunChains.
type RunResult struct {
	RunID     string
	Best      *ir.Function
	BestScore float64
	BestChain int
	Chains    []Result
	// Frequency counts the operators of every chain's best candidate.
	Frequency catalog.Frequency
}

// RunChains runs opts.Chains independent chains from copies of seed and
// returns the best candidate across them. Ties go to the lowest chain
// index, so the result does not depend on scheduling.
func RunChains(ctx context.Context, seed *ir.Function, oracle Oracle, cfg Config, opts RunOptions) (RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return RunResult{}, err
	}
	if opts.Chains == 0 {
		opts.Chains = 1
	}
	if opts.Chains < 0 {
		return RunResult{}, configError("chains must be positive, got %d", opts.Chains)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	set := opts.OpSet
	if len(set.Int) == 0 && len(set.Bool) == 0 {
		set = catalog.DefaultOpSet()
	}

	// Build every chain up front so configuration errors surface before
	// anything is recorded.
	engines := make([]*Engine, opts.Chains)
	clock := NewClock()
	res := RunResult{Chains: make([]Result, opts.Chains), BestChain: -1}
	if opts.Store != nil {
		res.RunID = opts.IDs.Generate()
	}
	logger := opts.Logger
	if res.RunID != "" {
		logger = logger.With("run", res.RunID)
	}

	for i := range engines {
		src := random.New(opts.Seed + uint64(i))
		sc := synth.NewContext(src, catalog.New(set, src))
		if opts.Heuristics != nil {
			sc.Heuristics = *opts.Heuristics
		}
		if len(opts.CmpFlags) > 0 {
			if err := sc.SetCmpFlags(opts.CmpFlags); err != nil {
				return RunResult{}, configError("%v", err)
			}
		}
		prog, err := mutation.New(seed.Copy())
		if err != nil {
			return RunResult{}, err
		}
		eopts := []EngineOption{WithLogger(logger), WithChain(i), WithClock(clock)}
		if opts.Frequency != nil {
			eopts = append(eopts, WithFrequency(opts.Frequency))
		}
		if opts.Store != nil {
			eopts = append(eopts, WithStore(opts.Store, res.RunID))
		}
		e, err := New(prog, sc, oracle, cfg, eopts...)
		if err != nil {
			return RunResult{}, err
		}
		engines[i] = e
	}

	if opts.Store != nil {
		params := cfg.Params()
		params["parallelism"] = strconv.Itoa(opts.Parallelism)
		err := opts.Store.WriteRun(ctx, store.Run{
			ID:          res.RunID,
			Seed:        opts.Seed,
			Chains:      opts.Chains,
			Steps:       cfg.Steps,
			ProgramHash: ir.MustProgramHash(seed),
			Params:      params,
		})
		if err != nil {
			return RunResult{}, &RuntimeError{Code: ErrCodeStoreFailed, Message: "record run", Chain: -1, Err: err}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, e := range engines {
		g.Go(func() error {
			r, err := e.Run(gctx)
			res.Chains[i] = r
			return err
		})
	}
	runErr := g.Wait()

	res.Frequency = catalog.NewFrequency()
	for i, r := range res.Chains {
		if r.Best == nil {
			continue
		}
		res.Frequency.Merge(catalog.CountFrequency(r.Best))
		if res.BestChain < 0 || r.BestScore > res.BestScore {
			res.Best, res.BestScore, res.BestChain = r.Best, r.BestScore, i
		}
	}

	if opts.Store != nil {
		if err := finish(ctx, opts.Store, &res, runErr); err != nil {
			return res, errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return res, runErr
	}
	logger.Info("run finished", "chains", opts.Chains, "best_chain", res.BestChain, "best", res.BestScore)
	return res, nil
}

// finish records the operator frequencies and final status. It uses a
// context detached from cancellation so an interrupted run is still
// closed out.
func finish(ctx context.Context, s *store.Store, res *RunResult, runErr error) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.WriteFrequency(ctx, res.RunID, res.Frequency); err != nil {
		return fmt.Errorf("record frequency: %w", err)
	}
	status := store.RunFinished
	if runErr != nil {
		status = store.RunFailed
	}
	hash := ""
	if res.Best != nil {
		hash = ir.MustProgramHash(res.Best)
	}
	if err := s.FinishRun(ctx, res.RunID, status, res.BestScore, hash); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
