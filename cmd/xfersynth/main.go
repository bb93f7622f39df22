// Command xfersynth searches for bit-vector transfer functions by
// stochastic mutation of candidate programs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/xfersynth/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Usage errors from cobra itself were not printed by a formatter.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
