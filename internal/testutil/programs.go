package testutil

import (
	"github.com/roach88/xfersynth/internal/ir"
)

// PairArgs is the argument layout of a two-field abstract domain
// (known-zero and known-one masks) for a binary transfer function.
func PairArgs() []ir.Arg {
	return []ir.Arg{
		{Name: "lhs", Fields: []ir.ValueKind{ir.KindInt, ir.KindInt}},
		{Name: "rhs", Fields: []ir.ValueKind{ir.KindInt, ir.KindInt}},
	}
}

// KnownBitsAnd returns the exact known-bits transfer function for and:
// zeros = lhs.0 | rhs.0, ones = lhs.1 & rhs.1.
func KnownBitsAnd() *ir.Function {
	f := ir.NewFunction("kb_and", PairArgs()...)
	l0 := f.Append(f.NewGet(0, 0)).Result()
	l1 := f.Append(f.NewGet(0, 1)).Result()
	r0 := f.Append(f.NewGet(1, 0)).Result()
	r1 := f.Append(f.NewGet(1, 1)).Result()
	zeros := f.Append(f.NewOp(ir.OpOr, l0, r0)).Result()
	ones := f.Append(f.NewOp(ir.OpAnd, l1, r1)).Result()
	m := f.Append(f.NewOp(ir.OpMake, zeros, ones)).Result()
	f.Append(f.NewOp(ir.OpReturn, m))
	return f
}

// KnownBitsTop returns the least precise known-bits result: nothing known.
// Its body is a pair of and operations over leaves so there is something
// to mutate.
func KnownBitsTop() *ir.Function {
	f := ir.NewFunction("kb_top", PairArgs()...)
	l0 := f.Append(f.NewGet(0, 0)).Result()
	l1 := f.Append(f.NewGet(0, 1)).Result()
	r0 := f.Append(f.NewGet(1, 0)).Result()
	r1 := f.Append(f.NewGet(1, 1)).Result()
	zero := f.Append(f.NewConstant(0)).Result()
	f.Append(f.NewOp(ir.OpAllOnes))
	a := f.Append(f.NewOp(ir.OpAnd, l0, r0)).Result()
	b := f.Append(f.NewOp(ir.OpAnd, l1, r1)).Result()
	za := f.Append(f.NewOp(ir.OpAnd, a, zero)).Result()
	zb := f.Append(f.NewOp(ir.OpAnd, b, zero)).Result()
	m := f.Append(f.NewOp(ir.OpMake, za, zb)).Result()
	f.Append(f.NewOp(ir.OpReturn, m))
	return f
}

// AddZero is the candidate `a = const 0; b = add(x, a); return b` together
// with handles to its operations.
type AddZero struct {
	F   *ir.Function
	X   *ir.Operation
	A   *ir.Operation
	B   *ir.Operation
	Ret *ir.Operation
}

// NewAddZero builds an AddZero candidate over a single integer argument.
func NewAddZero() AddZero {
	f := ir.NewFunction("add_zero", ir.Arg{Name: "x", Fields: []ir.ValueKind{ir.KindInt}})
	c := AddZero{F: f}
	c.X = f.Append(f.NewGet(0, 0))
	c.A = f.Append(f.NewConstant(0))
	c.B = f.Append(f.NewOp(ir.OpAdd, c.X.Result(), c.A.Result()))
	c.Ret = f.Append(f.NewOp(ir.OpReturn, c.B.Result()))
	return c
}

// Condition returns a boolean-kind candidate: a single condition value
// before return.
//
//	c = cmp ult (lhs.0 & rhs.0), lhs.1
func Condition() *ir.Function {
	f := ir.NewFunction("cond", PairArgs()...)
	l0 := f.Append(f.NewGet(0, 0)).Result()
	l1 := f.Append(f.NewGet(0, 1)).Result()
	r0 := f.Append(f.NewGet(1, 0)).Result()
	a := f.Append(f.NewOp(ir.OpAnd, l0, r0)).Result()
	c := f.Append(f.NewCmp(ir.CmpULT, a, l1)).Result()
	f.Append(f.NewOp(ir.OpReturn, c))
	return f
}

// WithDeadCode returns KnownBitsAnd with an unused chain of body
// operations (xor, sub on it, a cmp over the sub) and an unused constant.
func WithDeadCode() *ir.Function {
	f := ir.NewFunction("kb_and_dead", PairArgs()...)
	l0 := f.Append(f.NewGet(0, 0)).Result()
	l1 := f.Append(f.NewGet(0, 1)).Result()
	r0 := f.Append(f.NewGet(1, 0)).Result()
	r1 := f.Append(f.NewGet(1, 1)).Result()
	f.Append(f.NewConstant(5))
	x := f.Append(f.NewOp(ir.OpXor, l0, r1)).Result()
	zeros := f.Append(f.NewOp(ir.OpOr, l0, r0)).Result()
	s := f.Append(f.NewOp(ir.OpSub, x, l1)).Result()
	f.Append(f.NewCmp(ir.CmpEQ, s, zeros))
	ones := f.Append(f.NewOp(ir.OpAnd, l1, r1)).Result()
	m := f.Append(f.NewOp(ir.OpMake, zeros, ones)).Result()
	f.Append(f.NewOp(ir.OpReturn, m))
	return f
}

// MustVerify panics if f fails verification.
func MustVerify(f *ir.Function) *ir.Function {
	if err := f.Verify(); err != nil {
		panic(err)
	}
	return f
}
