package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/xfersynth/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the best candidate to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Program  string // Formatted best candidate, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Program != "" {
		fmt.Fprintf(&buf, "\nBest candidate:\n%s", e.Program)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertMinScore:
		return assertMinScore(result, a)
	case AssertContainsOp:
		return assertContainsOp(result, a)
	case AssertOpCount:
		return assertOpCount(result, a)
	case AssertMaxOps:
		return assertMaxOps(result, a)
	case AssertMinCandidates:
		return assertMinCandidates(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func failure(result *Result, typ, expected, actual string) *AssertionError {
	e := &AssertionError{Type: typ, Expected: expected, Actual: actual}
	if result.Best != nil {
		e.Program = ir.Format(result.Best)
	}
	return e
}

func assertMinScore(result *Result, a Assertion) error {
	if a.Score == nil || result.BestScore >= *a.Score {
		return nil
	}
	return failure(result, AssertMinScore,
		fmt.Sprintf("best score >= %g", *a.Score),
		fmt.Sprintf("best score %g", result.BestScore))
}

func assertContainsOp(result *Result, a Assertion) error {
	if n := countOps(result.Best, a.Op); n > 0 {
		return nil
	}
	return failure(result, AssertContainsOp,
		fmt.Sprintf("operator %s in best candidate", a.Op),
		"not found")
}

func assertOpCount(result *Result, a Assertion) error {
	n := countOps(result.Best, a.Op)
	if n == a.Count {
		return nil
	}
	return failure(result, AssertOpCount,
		fmt.Sprintf("%d occurrence(s) of %s", a.Count, a.Op),
		fmt.Sprintf("%d occurrence(s)", n))
}

func assertMaxOps(result *Result, a Assertion) error {
	n := bodyOps(result.Best)
	if n <= a.Count {
		return nil
	}
	return failure(result, AssertMaxOps,
		fmt.Sprintf("at most %d body operation(s)", a.Count),
		fmt.Sprintf("%d body operation(s)", n))
}

func assertMinCandidates(result *Result, a Assertion) error {
	if result.Candidates >= a.Count {
		return nil
	}
	return failure(result, AssertMinCandidates,
		fmt.Sprintf("at least %d recorded candidate(s)", a.Count),
		fmt.Sprintf("%d recorded candidate(s)", result.Candidates))
}

// countOps counts the operations of f whose kind is named op. Both short
// and dialect-qualified names are accepted.
func countOps(f *ir.Function, op string) int {
	kind, ok := ir.ParseOpKind(op)
	if f == nil || !ok {
		return 0
	}
	n := 0
	for o := f.First(); o != nil; o = o.Next() {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

func bodyOps(f *ir.Function) int {
	if f == nil {
		return 0
	}
	n := 0
	for o := f.First(); o != nil; o = o.Next() {
		if o.Kind.InMainBody() {
			n++
		}
	}
	return n
}
