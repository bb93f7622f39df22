package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
)

// Validation codes. E1xx make a set unusable, W2xx flag sets that load but
// limit what the synthesizer can build.
const (
	ErrBucketEmpty     = "E101" // bucket has no operators
	ErrDuplicateOp     = "E102" // operator listed twice
	ErrWrongBucket     = "E103" // operator result kind does not match bucket
	ErrNotSampleable   = "E104" // leaf, make or return listed
	WarnSelectNoCond   = "W201" // select allowed but nothing produces a condition from ints
	WarnBoolNoProducer = "W202" // boolean connectives without cmp
	WarnNoBinaryInt    = "W203" // integer bucket holds only unary operators
)

// ValidationError represents one finding about an operator set.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsWarning reports whether the finding leaves the set usable.
func (e ValidationError) IsWarning() bool { return len(e.Code) > 0 && e.Code[0] == 'W' }

// Validate checks an operator set and returns every finding (it does not
// stop at the first).
func Validate(set catalog.OpSet) []ValidationError {
	var errs []ValidationError

	for _, b := range []struct {
		name string
		kind ir.ValueKind
		ops  []ir.OpKind
	}{{"int", ir.KindInt, set.Int}, {"bool", ir.KindBool, set.Bool}} {
		if len(b.ops) == 0 {
			errs = append(errs, ValidationError{
				Field:   b.name,
				Message: "bucket must list at least one operator",
				Code:    ErrBucketEmpty,
			})
			continue
		}
		seen := make(map[ir.OpKind]bool, len(b.ops))
		for i, k := range b.ops {
			field := fmt.Sprintf("%s[%d]", b.name, i)
			switch {
			case !k.InMainBody():
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("operator %q cannot be sampled", k),
					Code:    ErrNotSampleable,
				})
			case k.ResultKind() != b.kind:
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("operator %q produces %s, not %s", k, k.ResultKind(), b.kind),
					Code:    ErrWrongBucket,
				})
			}
			if seen[k] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("duplicate operator %q", k),
					Code:    ErrDuplicateOp,
				})
			}
			seen[k] = true
		}
	}

	hasCmp := slices.Contains(set.Bool, ir.OpCmp)
	if slices.Contains(set.Int, ir.OpSelect) && !hasCmp {
		errs = append(errs, ValidationError{
			Field:   "int",
			Message: "select conditions can only come from boolean arguments and constants without cmp",
			Code:    WarnSelectNoCond,
		})
	}
	if len(set.Bool) > 0 && !hasCmp {
		errs = append(errs, ValidationError{
			Field:   "bool",
			Message: "no operator derives a boolean from integers",
			Code:    WarnBoolNoProducer,
		})
	}
	if len(set.Int) > 0 && !slices.ContainsFunc(set.Int, func(k ir.OpKind) bool { return k.Arity() >= 2 }) {
		errs = append(errs, ValidationError{
			Field:   "int",
			Message: "only unary operators: candidates cannot combine arguments",
			Code:    WarnNoBinaryInt,
		})
	}

	return errs
}

// HasErrors reports whether any finding is not a warning.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if !e.IsWarning() {
			return true
		}
	}
	return false
}
