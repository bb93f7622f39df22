package synth

import (
	"github.com/roach88/xfersynth/internal/ir"
)

// Predicate reports whether v would make an operand slot trivial.
type Predicate func(f *ir.Function, v ir.ValueID) bool

func isConstantIn(values ...int64) Predicate {
	return func(f *ir.Function, v ir.ValueID) bool {
		op := f.Owner(v)
		if op.Kind != ir.OpConstant {
			return false
		}
		for _, c := range values {
			if op.Attr == c {
				return true
			}
		}
		return false
	}
}

var (
	isZero      = isConstantIn(0)
	isOne       = isConstantIn(1)
	isZeroOrOne = isConstantIn(0, 1)
)

func isAllOnes(f *ir.Function, v ir.ValueID) bool {
	return f.Owner(v).Kind == ir.OpAllOnes
}

func isConstantBool(f *ir.Function, v ir.ValueID) bool {
	return f.Owner(v).Kind == ir.OpBoolConstant
}

func isZeroOrAllOnes(f *ir.Function, v ir.ValueID) bool {
	return isAllOnes(f, v) || isZero(f, v)
}

func isOneOrAllOnes(f *ir.Function, v ir.ValueID) bool {
	return isAllOnes(f, v) || isOne(f, v)
}

func isZeroOrOneOrAllOnes(f *ir.Function, v ir.ValueID) bool {
	return isAllOnes(f, v) || isZeroOrOne(f, v)
}

func noConstraint(*ir.Function, ir.ValueID) bool { return false }

// trivialOperand flags values that make any operand of the operator a
// tautology.
var trivialOperand = map[ir.OpKind]Predicate{
	ir.OpNeg:          isZeroOrAllOnes,
	ir.OpAdd:          isZero,
	ir.OpSub:          isZero,
	ir.OpMul:          isZeroOrOne,
	ir.OpAnd:          isZeroOrAllOnes,
	ir.OpOr:           isZeroOrAllOnes,
	ir.OpXor:          isZeroOrAllOnes,
	ir.OpCountLZero:   isZeroOrOneOrAllOnes,
	ir.OpCountRZero:   isZeroOrOneOrAllOnes,
	ir.OpCountLOne:    isZeroOrOneOrAllOnes,
	ir.OpCountROne:    isZeroOrOneOrAllOnes,
	ir.OpShl:          isZeroOrAllOnes,
	ir.OpLShr:         isZeroOrAllOnes,
	ir.OpUMax:         isZeroOrAllOnes,
	ir.OpUMin:         isZeroOrAllOnes,
	ir.OpClearSignBit: isZero,
	ir.OpSetSignBit:   isOneOrAllOnes,
	ir.OpAndI:         isConstantBool,
	ir.OpOrI:          isConstantBool,
	ir.OpXorI:         isConstantBool,
}

// trivialBySlot holds per-slot predicates. An entry here takes precedence
// over trivialOperand.
var trivialBySlot = map[ir.OpKind][]Predicate{
	ir.OpSelect:        {isConstantBool, noConstraint, noConstraint},
	ir.OpSetLowBits:    {isOneOrAllOnes, isZeroOrAllOnes},
	ir.OpSetHighBits:   {isAllOnes, isZeroOrAllOnes},
	ir.OpClearLowBits:  {isZero, isZeroOrAllOnes},
	ir.OpClearHighBits: {isZero, isZeroOrAllOnes},
}

// idempotent lists operators that degenerate when two operand slots read
// the same value. For select the pair is the two branches.
var idempotent = map[ir.OpKind]bool{
	ir.OpSub:    true,
	ir.OpAnd:    true,
	ir.OpOr:     true,
	ir.OpXor:    true,
	ir.OpCmp:    true,
	ir.OpUMax:   true,
	ir.OpUMin:   true,
	ir.OpSMin:   true,
	ir.OpSMax:   true,
	ir.OpSelect: true,
	ir.OpAndI:   true,
	ir.OpOrI:    true,
	ir.OpXorI:   true,
}

// Heuristics toggles the operand filters. The two switches are
// independent.
type Heuristics struct {
	// SkipTrivial rejects operand values flagged by the triviality tables.
	SkipTrivial bool
	// Idempotent keeps idempotence-sensitive operators from reading the
	// same value in both paired slots.
	Idempotent bool
}

// DefaultHeuristics enables both filters.
func DefaultHeuristics() Heuristics {
	return Heuristics{SkipTrivial: true, Idempotent: true}
}

// Constraint returns the triviality predicate for operand slot of k.
func (h Heuristics) Constraint(k ir.OpKind, slot int) Predicate {
	if !h.SkipTrivial {
		return noConstraint
	}
	if preds, ok := trivialBySlot[k]; ok {
		if slot < len(preds) {
			return preds[slot]
		}
		return noConstraint
	}
	if p, ok := trivialOperand[k]; ok {
		return p
	}
	return noConstraint
}

// IsIdempotent reports whether k is idempotence-sensitive under h.
func (h Heuristics) IsIdempotent(k ir.OpKind) bool {
	return h.Idempotent && idempotent[k]
}

// Companion returns the slot that slot of k must differ from. The
// condition of select has no companion; its branches pair with each other.
func (h Heuristics) Companion(k ir.OpKind, slot int) (int, bool) {
	if !h.IsIdempotent(k) {
		return 0, false
	}
	if k == ir.OpSelect {
		switch slot {
		case 1, 2:
			return 3 - slot, true
		}
		return 0, false
	}
	if k.Arity() != 2 || slot > 1 {
		return 0, false
	}
	return 1 - slot, true
}

// IsTrivialOperand reports whether v in slot of k is rejected by h.
func (h Heuristics) IsTrivialOperand(f *ir.Function, k ir.OpKind, slot int, v ir.ValueID) bool {
	return h.Constraint(k, slot)(f, v)
}

// Admissible reports whether op, as built, passes both filters of h.
func (h Heuristics) Admissible(f *ir.Function, op *ir.Operation) bool {
	for i, v := range op.Operands() {
		if h.IsTrivialOperand(f, op.Kind, i, v) {
			return false
		}
		if j, ok := h.Companion(op.Kind, i); ok && op.Operand(j) == v {
			return false
		}
	}
	return true
}
