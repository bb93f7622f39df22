package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xfersynth/internal/dce"
	"github.com/roach88/xfersynth/internal/ir"
)

// DCEOptions holds flags for the dce command.
type DCEOptions struct {
	*RootOptions
	Emit string // "text" | "yaml"
}

// DCEResult is the output of the dce command.
type DCEResult struct {
	Removed int             `json:"removed"`
	Program ir.FunctionSpec `json:"program"`

	text string
}

func (r DCEResult) String() string { return r.text }

// NewDCECommand creates the dce command.
func NewDCECommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DCEOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dce <program>",
		Short: "Remove dead code from a candidate program",
		Long: `Remove body operations whose results are never used, transitively,
and print the normalized program.

Leaves (constants, field accessors), make and return are never removed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDCE(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Emit, "emit", "text", "text output form (text|yaml)")

	return cmd
}

func runDCE(opts *DCEOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Emit != "text" && opts.Emit != "yaml" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("invalid emit form %q: must be text or yaml", opts.Emit))
	}

	f, err := loadProgram(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, programErrCode(err), err)
	}
	removed := dce.Eliminate(f)
	formatter.VerboseLog("removed %d dead operation(s) from %s", removed, path)

	res := DCEResult{Removed: removed, Program: ir.Spec(f), text: ir.Format(f)}
	if opts.Emit == "yaml" {
		out, err := ir.EncodeYAML(f)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		res.text = string(out)
	}
	return formatter.Success(res)
}
