package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/xfersynth/internal/bandit"
	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/dce"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/mutation"
	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/store"
	"github.com/roach88/xfersynth/internal/synth"
)

// Outcome is the result of one step.
type Outcome uint8

const (
	// OutcomeAccepted means the proposal was committed.
	OutcomeAccepted Outcome = iota
	// OutcomeRejected means the proposal was reverted.
	OutcomeRejected
	// OutcomeNoProposal means no admissible mutation was found.
	OutcomeNoProposal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	}
	return "no_proposal"
}

// Stats counts step outcomes.
type Stats struct {
	Accepted   int
	Rejected   int
	NoProposal int
}

// Result is the outcome of one chain.
type Result struct {
	Chain     int
	Best      *ir.Function
	BestScore float64
	Final     float64
	Stats     Stats
	// Accepted counts the operators introduced by accepted mutations.
	Accepted catalog.Frequency
	// Arms is the sequence of weighting arms the bandit chose.
	Arms []string
}

// Engine runs one search chain. It exclusively owns its program, its
// synthesizer context and the catalog inside it; it is not safe for
// concurrent use.
type Engine struct {
	prog   *mutation.Program
	sc     *synth.Context
	src    *random.Source
	oracle Oracle
	cfg    Config

	logger *slog.Logger
	store  *store.Store
	runID  string
	chain  int
	clock  *Clock

	prior    catalog.Prior
	observed catalog.Frequency
	accepted catalog.Frequency

	sampler *bandit.Sampler
	arm     int
	arms    []string
	mark    float64

	step      int
	current   float64
	scored    bool
	best      *ir.Function
	bestScore float64
	stats     Stats
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithStore records accepted improvements and bandit decisions under
// runID.
func WithStore(s *store.Store, runID string) EngineOption {
	return func(e *Engine) {
		e.store = s
		e.runID = runID
	}
}

// WithChain sets the chain index used in logs and telemetry.
func WithChain(i int) EngineOption {
	return func(e *Engine) { e.chain = i }
}

// WithClock shares a logical clock between chains.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithFrequency seeds the frequency arm with counts observed elsewhere,
// typically the aggregate of earlier runs.
func WithFrequency(f catalog.Frequency) EngineOption {
	return func(e *Engine) { e.observed.Merge(f) }
}

var armNames = []string{string(WeightingUniform), string(WeightingPrior), string(WeightingFrequency)}

// New creates an engine over prog. The program must be idle and contain
// at least one body operation.
func New(prog *mutation.Program, sc *synth.Context, oracle Oracle, cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		prog:     prog,
		sc:       sc,
		src:      sc.Source(),
		oracle:   oracle,
		cfg:      cfg,
		logger:   slog.Default(),
		observed: catalog.NewFrequency(),
		accepted: catalog.NewFrequency(),
		clock:    NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(prog.LiveOperations(false)) == 0 {
		return nil, &RuntimeError{Code: ErrCodeNothingToMutate, Message: "candidate has no body operations", Chain: e.chain}
	}
	e.prior, _ = catalog.PriorByName(cfg.Prior)

	switch cfg.Weighting {
	case WeightingBandit:
		s, err := bandit.New(len(armNames), cfg.BanditLambda, cfg.BanditV, e.src)
		if err != nil {
			return nil, configError("%v", err)
		}
		e.sampler = s
		if err := e.chooseArm(); err != nil {
			return nil, err
		}
	default:
		for i, name := range armNames {
			if name == string(cfg.Weighting) {
				e.arm = i
			}
		}
		if err := e.applyArm(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Program returns the candidate under search.
func (e *Engine) Program() *mutation.Program { return e.prog }

// Current returns the score of the current candidate.
func (e *Engine) Current() float64 { return e.current }

// Arm returns the weighting currently in effect.
func (e *Engine) Arm() string { return armNames[e.arm] }

func (e *Engine) applyArm() error {
	cat := e.sc.Catalog()
	switch armNames[e.arm] {
	case string(WeightingUniform):
		cat.SetWeighted(false)
	case string(WeightingPrior):
		cat.ApplyPrior(e.prior)
		cat.SetWeighted(true)
	case string(WeightingFrequency):
		freq := e.observed.Restrict(cat)
		if err := cat.ObserveFrequencies(freq); err != nil {
			return fmt.Errorf("install frequency weights: %w", err)
		}
		cat.SetWeighted(true)
	}
	return nil
}

func armContexts() [][]float64 {
	out := make([][]float64, len(armNames))
	for i := range out {
		out[i] = bandit.OneHot(len(armNames), i)
	}
	return out
}

func (e *Engine) chooseArm() error {
	arm, err := e.sampler.Choose(armContexts())
	if err != nil {
		return err
	}
	e.arm = arm
	e.arms = append(e.arms, armNames[arm])
	return e.applyArm()
}

// rotate rewards the current arm with the score gain since the last
// rotation and lets the sampler pick the next one.
func (e *Engine) rotate(ctx context.Context) error {
	reward := e.current - e.mark
	if err := e.sampler.Update(bandit.OneHot(len(armNames), e.arm), reward); err != nil {
		return err
	}
	prev := armNames[e.arm]
	if err := e.chooseArm(); err != nil {
		return err
	}
	e.mark = e.current
	e.logger.Debug("bandit rotation", "chain", e.chain, "step", e.step, "previous", prev, "reward", reward, "next", e.Arm())

	if e.store != nil {
		err := e.store.WriteBanditDecision(ctx, store.BanditDecision{
			RunID:  e.runID,
			Chain:  e.chain,
			Step:   e.step,
			Arm:    e.Arm(),
			Reward: reward,
			Seq:    e.clock.Next(),
		})
		if err != nil {
			return &RuntimeError{Code: ErrCodeStoreFailed, Message: "record bandit decision", Chain: e.chain, Err: err}
		}
	}
	return nil
}

func (e *Engine) score(ctx context.Context) (float64, error) {
	s, err := e.oracle.Score(ctx, e.prog.Function())
	if err != nil {
		return 0, &RuntimeError{Code: ErrCodeOracleFailed, Message: "score candidate", Chain: e.chain, Err: err}
	}
	return s, nil
}

func (e *Engine) init(ctx context.Context) error {
	if e.scored {
		return nil
	}
	s, err := e.score(ctx)
	if err != nil {
		return err
	}
	e.current, e.mark, e.scored = s, s, true
	return e.improve(ctx, s)
}

// improve records the current candidate if it beats the best so far.
func (e *Engine) improve(ctx context.Context, s float64) error {
	if e.best != nil && s <= e.bestScore {
		return nil
	}
	f := e.prog.Function()
	e.best = f.Copy()
	e.bestScore = s
	if e.store == nil {
		return nil
	}
	if _, err := e.store.WriteCandidate(ctx, e.runID, e.chain, e.step, s, e.clock.Next(), f); err != nil {
		return &RuntimeError{Code: ErrCodeStoreFailed, Message: "record candidate", Chain: e.chain, Err: err}
	}
	return nil
}

// propose builds a replacement for target, or returns nil if no
// admissible one was found within MaxAttempts.
func (e *Engine) propose(target mutation.Indexed) *ir.Operation {
	f := e.prog.Function()
	kind := f.Kind(target.Op.Result())
	pools := e.prog.Pools(target.Index)

	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		if e.src.Float64() < e.cfg.ReplaceRatio {
			if op := e.sc.RandomOperation(f, kind, pools); op != nil {
				return op
			}
			continue
		}
		clone := f.Clone(target.Op)
		slot := e.src.Intn(clone.NumOperands())
		before := clone.Operand(slot)
		vals := pools.Of(f.Kind(before))
		if e.sc.RetargetOperand(f, clone, slot, vals) && clone.Operand(slot) != before {
			return clone
		}
		f.Erase(clone)
	}
	return nil
}

func (e *Engine) accept(next float64) bool {
	if next >= e.current {
		return true
	}
	if e.cfg.Temperature == 0 {
		return false
	}
	return e.src.Float64() < math.Exp((next-e.current)/e.cfg.Temperature)
}

// Step performs one mutation step.
func (e *Engine) Step(ctx context.Context) (Outcome, error) {
	if err := e.init(ctx); err != nil {
		return OutcomeNoProposal, err
	}
	e.step++
	outcome, err := e.mutate(ctx)
	if err != nil {
		return outcome, err
	}
	switch outcome {
	case OutcomeAccepted:
		e.stats.Accepted++
	case OutcomeRejected:
		e.stats.Rejected++
	default:
		e.stats.NoProposal++
	}

	if e.sampler != nil && e.step%e.cfg.BanditInterval == 0 {
		if err := e.rotate(ctx); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

func (e *Engine) mutate(ctx context.Context) (Outcome, error) {
	onlyLive := e.src.Float64() >= e.cfg.DeadRatio
	targets := e.prog.LiveOperations(onlyLive)
	if len(targets) == 0 {
		targets = e.prog.LiveOperations(false)
	}
	target, ok := random.Choice(e.src, targets)
	if !ok {
		return OutcomeNoProposal, nil
	}
	repl := e.propose(target)
	if repl == nil {
		return OutcomeNoProposal, nil
	}

	e.prog.Substitute(target.Op, repl, true)
	next, err := e.score(ctx)
	if err != nil {
		e.prog.Revert()
		return OutcomeNoProposal, err
	}
	if !e.accept(next) {
		e.prog.Revert()
		e.logger.Debug("step", "chain", e.chain, "step", e.step, "outcome", OutcomeRejected, "score", next)
		return OutcomeRejected, nil
	}

	e.prog.Commit()
	e.current = next
	bucket := e.prog.Function().Kind(repl.Result())
	e.accepted.Add(bucket, repl.Kind, 1)
	e.observed.Add(bucket, repl.Kind, 1)
	e.logger.Debug("step", "chain", e.chain, "step", e.step, "outcome", OutcomeAccepted, "op", repl.Kind, "score", next)
	if err := e.improve(ctx, next); err != nil {
		return OutcomeAccepted, err
	}
	return OutcomeAccepted, nil
}

// Run performs the configured number of steps and returns the best
// candidate seen. On cancellation it stops between steps and returns the
// result so far together with the context's error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.logger.Info("chain started", "chain", e.chain, "seed", e.src.Seed(), "steps", e.cfg.Steps, "weighting", e.cfg.Weighting)
	if err := e.init(ctx); err != nil {
		return e.result(), err
	}
	for e.step < e.cfg.Steps {
		if err := ctx.Err(); err != nil {
			return e.result(), err
		}
		if _, err := e.Step(ctx); err != nil {
			return e.result(), err
		}
	}

	if e.cfg.DCEOnFinish {
		removed := dce.Eliminate(e.best)
		e.logger.Debug("dead code removed", "chain", e.chain, "ops", removed)
	}
	e.logger.Info("chain finished", "chain", e.chain, "best", e.bestScore, "final", e.current,
		"accepted", e.stats.Accepted, "rejected", e.stats.Rejected, "no_proposal", e.stats.NoProposal)
	return e.result(), nil
}

func (e *Engine) result() Result {
	return Result{
		Chain:     e.chain,
		Best:      e.best,
		BestScore: e.bestScore,
		Final:     e.current,
		Stats:     e.stats,
		Accepted:  e.accepted,
		Arms:      append([]string(nil), e.arms...),
	}
}
