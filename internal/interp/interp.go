// Package interp evaluates candidate programs on concrete bit-vectors.
//
// Integers are width-bit unsigned patterns held in a uint64 and masked
// after every operation; signed operators reinterpret them in two's
// complement. Booleans are 0 or 1.
//
// Operators are total. Division by zero yields all ones for udiv, the
// dividend for urem and srem, and -1 or 1 (by the dividend's sign) for
// sdiv. Shift amounts of width or more produce 0, or the sign fill for
// ashr. Bit-range operators clamp their count to the width.
package interp

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/roach88/xfersynth/internal/ir"
)

// MaxWidth is the widest supported bit-vector.
const MaxWidth = 64

// ErrNoReturn is returned for a program without a return operation.
var ErrNoReturn = errors.New("interp: program has no return")

// Value is the result of a program: a single integer or boolean in Bits,
// or the fields of a make aggregate.
type Value struct {
	Kind   ir.ValueKind
	Bits   uint64
	Fields []uint64
}

// Equal reports whether two results are identical.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Bits != o.Bits || len(v.Fields) != len(o.Fields) {
		return false
	}
	for i := range v.Fields {
		if v.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if v.Kind == ir.KindAbstract {
		return fmt.Sprintf("%v", v.Fields)
	}
	return fmt.Sprintf("%s(%d)", v.Kind, v.Bits)
}

// Mask returns the all-ones pattern of width bits.
func Mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// CheckArgs verifies that args matches the argument layout of f.
func CheckArgs(f *ir.Function, width uint, args [][]uint64) error {
	if width == 0 || width > MaxWidth {
		return fmt.Errorf("interp: width must be in 1..%d, got %d", MaxWidth, width)
	}
	if len(args) != len(f.Args) {
		return fmt.Errorf("interp: %s takes %d arguments, got %d", f.Name, len(f.Args), len(args))
	}
	for i, a := range f.Args {
		if len(args[i]) != len(a.Fields) {
			return fmt.Errorf("interp: argument %d has %d fields, got %d", i, len(a.Fields), len(args[i]))
		}
	}
	return nil
}

// Eval runs f on args at the given width. args[i][j] is field j of
// argument i; boolean fields must be 0 or 1.
func Eval(f *ir.Function, width uint, args [][]uint64) (Value, error) {
	if err := CheckArgs(f, width, args); err != nil {
		return Value{}, err
	}
	m := machine{width: width, mask: Mask(width)}
	env := make(map[ir.ValueID]uint64, f.Len())
	fields := make(map[ir.ValueID][]uint64)

	for op := f.First(); op != nil; op = op.Next() {
		switch op.Kind {
		case ir.OpReturn:
			v := op.Operand(0)
			if fs, ok := fields[v]; ok {
				return Value{Kind: ir.KindAbstract, Fields: fs}, nil
			}
			return Value{Kind: f.Kind(v), Bits: env[v]}, nil
		case ir.OpMake:
			fs := make([]uint64, op.NumOperands())
			for i, v := range op.Operands() {
				fs[i] = env[v]
			}
			fields[op.Result()] = fs
		case ir.OpGet:
			if f.Kind(op.Result()) == ir.KindBool {
				env[op.Result()] = args[op.Arg][op.Attr] & 1
			} else {
				env[op.Result()] = args[op.Arg][op.Attr] & m.mask
			}
		default:
			operands := make([]uint64, op.NumOperands())
			for i, v := range op.Operands() {
				operands[i] = env[v]
			}
			r, err := m.apply(op, operands)
			if err != nil {
				return Value{}, err
			}
			env[op.Result()] = r
		}
	}
	return Value{}, ErrNoReturn
}

type machine struct {
	width uint
	mask  uint64
}

func (m machine) signBit() uint64 { return uint64(1) << (m.width - 1) }

// signed sign-extends x to int64.
func (m machine) signed(x uint64) int64 {
	shift := 64 - m.width
	return int64(x<<shift) >> shift
}

func (m machine) clamp(n uint64) uint {
	if n > uint64(m.width) {
		return m.width
	}
	return uint(n)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (m machine) apply(op *ir.Operation, x []uint64) (uint64, error) {
	var r uint64
	switch op.Kind {
	case ir.OpConstant:
		r = uint64(op.Attr)
	case ir.OpBoolConstant:
		return uint64(op.Attr) & 1, nil
	case ir.OpAllOnes:
		r = m.mask
	case ir.OpBitWidth:
		r = uint64(m.width)

	case ir.OpNeg:
		r = ^x[0]
	case ir.OpAnd:
		r = x[0] & x[1]
	case ir.OpOr:
		r = x[0] | x[1]
	case ir.OpXor:
		r = x[0] ^ x[1]
	case ir.OpAdd:
		r = x[0] + x[1]
	case ir.OpSub:
		r = x[0] - x[1]
	case ir.OpMul:
		r = x[0] * x[1]
	case ir.OpSelect:
		r = x[2]
		if x[0] != 0 {
			r = x[1]
		}

	case ir.OpShl:
		if x[1] < uint64(m.width) {
			r = x[0] << x[1]
		}
	case ir.OpLShr:
		if x[1] < uint64(m.width) {
			r = x[0] >> x[1]
		}
	case ir.OpAShr:
		s := x[1]
		if s >= uint64(m.width) {
			s = uint64(m.width) - 1
		}
		r = uint64(m.signed(x[0]) >> s)

	case ir.OpUMin:
		r = min(x[0], x[1])
	case ir.OpUMax:
		r = max(x[0], x[1])
	case ir.OpSMin:
		r = uint64(min(m.signed(x[0]), m.signed(x[1])))
	case ir.OpSMax:
		r = uint64(max(m.signed(x[0]), m.signed(x[1])))

	case ir.OpUDiv:
		r = m.mask
		if x[1] != 0 {
			r = x[0] / x[1]
		}
	case ir.OpURem:
		r = x[0]
		if x[1] != 0 {
			r = x[0] % x[1]
		}
	case ir.OpSDiv:
		a, b := m.signed(x[0]), m.signed(x[1])
		switch {
		case b == 0 && a < 0:
			r = 1
		case b == 0:
			r = m.mask
		case b == -1:
			r = uint64(-a)
		default:
			r = uint64(a / b)
		}
	case ir.OpSRem:
		a, b := m.signed(x[0]), m.signed(x[1])
		switch {
		case b == 0:
			r = x[0]
		case b == -1:
			r = 0
		default:
			r = uint64(a % b)
		}

	case ir.OpSetHighBits:
		n := m.clamp(x[1])
		r = x[0] | (m.mask &^ Mask(m.width-n))
	case ir.OpSetLowBits:
		r = x[0] | Mask(m.clamp(x[1]))
	case ir.OpClearHighBits:
		r = x[0] & Mask(m.width-m.clamp(x[1]))
	case ir.OpClearLowBits:
		r = x[0] &^ Mask(m.clamp(x[1]))
	case ir.OpSetSignBit:
		r = x[0] | m.signBit()
	case ir.OpClearSignBit:
		r = x[0] &^ m.signBit()

	case ir.OpCountLZero:
		r = uint64(bits.LeadingZeros64(x[0]) - (64 - int(m.width)))
	case ir.OpCountLOne:
		r = uint64(bits.LeadingZeros64(^(x[0] << (64 - m.width))))
	case ir.OpCountRZero:
		r = uint64(min(bits.TrailingZeros64(x[0]), int(m.width)))
	case ir.OpCountROne:
		r = uint64(min(bits.TrailingZeros64(^x[0]), int(m.width)))
	case ir.OpPopCount:
		r = uint64(bits.OnesCount64(x[0]))

	case ir.OpAndI:
		return x[0] & x[1] & 1, nil
	case ir.OpOrI:
		return (x[0] | x[1]) & 1, nil
	case ir.OpXorI:
		return (x[0] ^ x[1]) & 1, nil
	case ir.OpCmp:
		return b2u(m.compare(op.Predicate(), x[0], x[1])), nil

	default:
		return 0, fmt.Errorf("interp: cannot evaluate %s", op.Kind)
	}
	return r & m.mask, nil
}

func (m machine) compare(p ir.CmpPredicate, a, b uint64) bool {
	sa, sb := m.signed(a), m.signed(b)
	switch p {
	case ir.CmpEQ:
		return a == b
	case ir.CmpNE:
		return a != b
	case ir.CmpSLT:
		return sa < sb
	case ir.CmpSLE:
		return sa <= sb
	case ir.CmpSGT:
		return sa > sb
	case ir.CmpSGE:
		return sa >= sb
	case ir.CmpULT:
		return a < b
	case ir.CmpULE:
		return a <= b
	case ir.CmpUGT:
		return a > b
	case ir.CmpUGE:
		return a >= b
	}
	return false
}
