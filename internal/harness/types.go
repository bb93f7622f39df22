package harness

import (
	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/search"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool

	RunID     string
	Best      *ir.Function
	BestScore float64
	BestChain int
	Chains    []search.Result

	// Frequency counts the operators of every chain's best candidate.
	Frequency catalog.Frequency

	// Candidates is the number of improving candidates recorded.
	Candidates int

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
