package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/xfersynth/internal/config"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/search"
	"github.com/roach88/xfersynth/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config    string
	Program   string
	Reference string
	Database  string
	Seed      uint64
	Steps     int
	Chains    int
	// SeedFrequency seeds the frequency weighting with every run already
	// recorded in the database.
	SeedFrequency bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search for a transfer function",
		Long: `Mutate a seed candidate towards a reference transfer function.

Each chain starts from a copy of --program and is scored by the fraction of
random concrete inputs on which it agrees with --reference. With --db, the
run, its improving candidates, bandit decisions and operator frequencies are
recorded in a SQLite database (created if it doesn't exist).

Example:
  xfersynth run --program seed.yaml --reference kb_and.yaml
  xfersynth run --config run.yaml --program seed.yaml --reference kb_and.yaml --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to run configuration (YAML)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "seed candidate program (required)")
	cmd.Flags().StringVar(&opts.Reference, "reference", "", "reference program the oracle compares against (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite telemetry database")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "run seed (overrides config)")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "steps per chain (overrides config)")
	cmd.Flags().IntVar(&opts.Chains, "chains", 0, "number of chains (overrides config)")
	cmd.Flags().BoolVar(&opts.SeedFrequency, "seed-frequency", false, "seed frequency weighting from runs recorded in --db")
	_ = cmd.MarkFlagRequired("program")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

// RunSummary is the output of the run command.
type RunSummary struct {
	RunID     string          `json:"run_id,omitempty"`
	BestScore float64         `json:"best_score"`
	BestChain int             `json:"best_chain"`
	Chains    []ChainSummary  `json:"chains"`
	Program   ir.FunctionSpec `json:"program"`

	text string
}

// ChainSummary reports one chain of a run.
type ChainSummary struct {
	Chain      int      `json:"chain"`
	BestScore  float64  `json:"best_score"`
	FinalScore float64  `json:"final_score"`
	Accepted   int      `json:"accepted"`
	Rejected   int      `json:"rejected"`
	NoProposal int      `json:"no_proposal"`
	Arms       []string `json:"arms,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	if s.RunID != "" {
		fmt.Fprintf(&b, "run %s\n", s.RunID)
	}
	fmt.Fprintf(&b, "best score %g (chain %d of %d)\n", s.BestScore, s.BestChain, len(s.Chains))
	for _, c := range s.Chains {
		fmt.Fprintf(&b, "  chain %d: best=%g final=%g accepted=%d rejected=%d no_proposal=%d\n",
			c.Chain, c.BestScore, c.FinalScore, c.Accepted, c.Rejected, c.NoProposal)
	}
	b.WriteString(s.text)
	return b.String()
}

func runSearch(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	rc := &config.RunConfig{}
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeRunConfig, err)
		}
		rc = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		rc.Seed = opts.Seed
	}
	if flags.Changed("steps") {
		rc.Steps = &opts.Steps
	}
	if flags.Changed("chains") {
		rc.Chains = opts.Chains
	}

	cfg, err := rc.Search()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRunConfig, err)
	}
	ropts, err := rc.RunOptions()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeOpSet, err)
	}
	ropts.Logger = logger

	seed, err := loadProgram(opts.Program)
	if err != nil {
		return formatter.Fail(ExitCommandError, programErrCode(err), err)
	}
	reference, err := loadProgram(opts.Reference)
	if err != nil {
		return formatter.Fail(ExitCommandError, programErrCode(err), err)
	}
	oracle, err := search.NewSampleOracle(reference, rc.Width(), rc.Samples(), random.New(rc.OracleSeed()))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeProgram, err)
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	if opts.Database != "" {
		logger.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		ropts.Store = st
		if opts.SeedFrequency {
			freq, err := st.AggregateFrequency(ctx)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err)
			}
			ropts.Frequency = freq
		}
	}

	logger.Info("search starting", "seed", rc.Seed, "chains", max(ropts.Chains, 1), "steps", cfg.Steps,
		"weighting", cfg.Weighting, "opset", ropts.OpSet.Name)
	res, err := search.RunChains(ctx, seed, oracle, cfg, ropts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return formatter.Fail(ExitFailure, ErrCodeInterrupted, err)
		}
		if search.IsConfigError(err) {
			return formatter.Fail(ExitCommandError, ErrCodeRunConfig, err)
		}
		return formatter.Fail(ExitFailure, ErrCodeSearch, err)
	}

	return formatter.SuccessRun(res.RunID, summarize(res))
}

func summarize(res search.RunResult) RunSummary {
	s := RunSummary{
		RunID:     res.RunID,
		BestScore: res.BestScore,
		BestChain: res.BestChain,
		Program:   ir.Spec(res.Best),
		text:      ir.Format(res.Best),
	}
	for _, c := range res.Chains {
		s.Chains = append(s.Chains, ChainSummary{
			Chain:      c.Chain,
			BestScore:  c.BestScore,
			FinalScore: c.Final,
			Accepted:   c.Stats.Accepted,
			Rejected:   c.Stats.Rejected,
			NoProposal: c.Stats.NoProposal,
			Arms:       c.Arms,
		})
	}
	return s
}

// signalContext cancels on SIGINT or SIGTERM so chains stop between steps
// and the run is still closed out in the database.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
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

func programErrCode(err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return ErrCodeNotFound
	}
	return ErrCodeProgram
}
