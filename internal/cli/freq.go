package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/store"
)

// FreqOptions holds flags for the freq command.
type FreqOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// FreqEntry is one operator count.
type FreqEntry struct {
	Bucket string `json:"bucket"`
	Op     string `json:"op"`
	Count  int    `json:"count"`
}

// FreqResult is the output of the freq command.
type FreqResult struct {
	Source  string      `json:"source"`
	Total   int         `json:"total"`
	Entries []FreqEntry `json:"entries"`
}

func (r FreqResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d operator(s)\n", r.Source, r.Total)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  %-5s %-16s %d\n", e.Bucket, e.Op, e.Count)
	}
	return b.String()
}

// NewFreqCommand creates the freq command.
func NewFreqCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FreqOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "freq [program...]",
		Short: "Count operator frequencies",
		Long: `Count the body operators of candidate programs per result-kind bucket.

With --db and no programs, report the frequencies recorded for --run, or the
aggregate over every recorded run when --run is omitted. These are the counts
the frequency weighting starts from.

Example:
  xfersynth freq best1.yaml best2.yaml
  xfersynth freq --db runs.db --run 0192f0c4-...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreq(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite telemetry database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to report (requires --db)")

	return cmd
}

func runFreq(opts *FreqOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch {
	case len(paths) > 0 && opts.Database != "":
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("give either programs or --db, not both"))
	case len(paths) == 0 && opts.Database == "":
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("no programs given and no --db"))
	case opts.RunID != "" && opts.Database == "":
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("--run requires --db"))
	}

	if len(paths) > 0 {
		funcs := make([]*ir.Function, len(paths))
		for i, p := range paths {
			f, err := loadProgram(p)
			if err != nil {
				return formatter.Fail(ExitCommandError, programErrCode(err), err)
			}
			funcs[i] = f
		}
		source := fmt.Sprintf("%d program(s)", len(paths))
		return formatter.Success(freqResult(source, catalog.CountFrequency(funcs...)))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var freq catalog.Frequency
	source := "all runs"
	if opts.RunID != "" {
		source = "run " + opts.RunID
		if _, err := st.ReadRun(ctx, opts.RunID); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err)
		}
		freq, err = st.ReadFrequency(ctx, opts.RunID)
	} else {
		freq, err = st.AggregateFrequency(ctx)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, err)
	}
	return formatter.SuccessRun(opts.RunID, freqResult(source, freq))
}

func freqResult(source string, freq catalog.Frequency) FreqResult {
	res := FreqResult{Source: source, Total: freq.Total(), Entries: []FreqEntry{}}
	for _, e := range freq.Entries() {
		res.Entries = append(res.Entries, FreqEntry{Bucket: e.Bucket.String(), Op: e.Op.String(), Count: e.Count})
	}
	return res
}
