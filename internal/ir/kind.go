package ir

import (
	"fmt"
	"strings"
)

// ValueKind is the type of an SSA value as far as sampling is concerned.
type ValueKind uint8

const (
	// KindNone marks operations that produce no value (return).
	KindNone ValueKind = iota
	// KindInt is a bit-vector of the candidate's width.
	KindInt
	// KindBool is a single-bit condition.
	KindBool
	// KindAbstract is a packed abstract value produced by make.
	KindAbstract
)

var valueKindNames = [...]string{
	KindNone:     "none",
	KindInt:      "int",
	KindBool:     "bool",
	KindAbstract: "abs",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", k)
}

// ParseValueKind accepts "int", "bool" and "abs". The historical "i1"
// spelling is accepted for bool.
func ParseValueKind(s string) (ValueKind, bool) {
	switch strings.TrimSpace(s) {
	case "int":
		return KindInt, true
	case "bool", "i1":
		return KindBool, true
	case "abs":
		return KindAbstract, true
	}
	return KindNone, false
}

// Class partitions operator kinds by their structural role in a candidate.
type Class uint8

const (
	// ClassBody operations are sampled, mutated and eliminated.
	ClassBody Class = iota
	// ClassLeaf operations are structurally fixed inputs.
	ClassLeaf
	// ClassAggregate is the make operation packing the returned fields.
	ClassAggregate
	// ClassTerminator is the return operation.
	ClassTerminator
)

// OpKind identifies an operator in the closed catalog.
type OpKind uint8

const (
	OpInvalid OpKind = iota

	// Leaves.
	OpConstant
	OpBoolConstant
	OpAllOnes
	OpBitWidth
	OpGet

	// Aggregate and terminator.
	OpMake
	OpReturn

	// Integer-valued body operators.
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpAdd
	OpSub
	OpSelect
	OpLShr
	OpAShr
	OpShl
	OpUMin
	OpUMax
	OpSMin
	OpSMax
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpMul
	OpSetHighBits
	OpSetLowBits
	OpClearHighBits
	OpClearLowBits
	OpSetSignBit
	OpClearSignBit
	OpCountLOne
	OpCountLZero
	OpCountROne
	OpCountRZero
	OpPopCount

	// Boolean-valued body operators.
	OpAndI
	OpOrI
	OpXorI
	OpCmp

	numOpKinds
)

// Descriptor is the static description of an operator kind.
type Descriptor struct {
	Name     string
	Dialect  string
	Class    Class
	Operands []ValueKind
	Variadic bool
	Result   ValueKind
}

var (
	unaryInt  = []ValueKind{KindInt}
	binaryInt = []ValueKind{KindInt, KindInt}
	binaryI1  = []ValueKind{KindBool, KindBool}
)

func transferBinary(name string) Descriptor {
	return Descriptor{Name: name, Dialect: "transfer", Operands: binaryInt, Result: KindInt}
}

func transferUnary(name string) Descriptor {
	return Descriptor{Name: name, Dialect: "transfer", Operands: unaryInt, Result: KindInt}
}

var descriptors = [numOpKinds]Descriptor{
	OpInvalid: {Name: "invalid"},

	OpConstant:     {Name: "constant", Dialect: "transfer", Class: ClassLeaf, Result: KindInt},
	OpBoolConstant: {Name: "bool_constant", Dialect: "arith", Class: ClassLeaf, Result: KindBool},
	OpAllOnes:      {Name: "get_all_ones", Dialect: "transfer", Class: ClassLeaf, Result: KindInt},
	OpBitWidth:     {Name: "get_bit_width", Dialect: "transfer", Class: ClassLeaf, Result: KindInt},
	OpGet:          {Name: "get", Dialect: "transfer", Class: ClassLeaf, Result: KindInt},

	OpMake:   {Name: "make", Dialect: "transfer", Class: ClassAggregate, Variadic: true, Result: KindAbstract},
	OpReturn: {Name: "return", Dialect: "func", Class: ClassTerminator, Variadic: true, Result: KindNone},

	OpNeg:           transferUnary("neg"),
	OpAnd:           transferBinary("and"),
	OpOr:            transferBinary("or"),
	OpXor:           transferBinary("xor"),
	OpAdd:           transferBinary("add"),
	OpSub:           transferBinary("sub"),
	OpSelect:        {Name: "select", Dialect: "transfer", Operands: []ValueKind{KindBool, KindInt, KindInt}, Result: KindInt},
	OpLShr:          transferBinary("lshr"),
	OpAShr:          transferBinary("ashr"),
	OpShl:           transferBinary("shl"),
	OpUMin:          transferBinary("umin"),
	OpUMax:          transferBinary("umax"),
	OpSMin:          transferBinary("smin"),
	OpSMax:          transferBinary("smax"),
	OpUDiv:          transferBinary("udiv"),
	OpSDiv:          transferBinary("sdiv"),
	OpURem:          transferBinary("urem"),
	OpSRem:          transferBinary("srem"),
	OpMul:           transferBinary("mul"),
	OpSetHighBits:   transferBinary("set_high_bits"),
	OpSetLowBits:    transferBinary("set_low_bits"),
	OpClearHighBits: transferBinary("clear_high_bits"),
	OpClearLowBits:  transferBinary("clear_low_bits"),
	OpSetSignBit:    transferUnary("set_sign_bit"),
	OpClearSignBit:  transferUnary("clear_sign_bit"),
	OpCountLOne:     transferUnary("count_l_one"),
	OpCountLZero:    transferUnary("count_l_zero"),
	OpCountROne:     transferUnary("count_r_one"),
	OpCountRZero:    transferUnary("count_r_zero"),
	OpPopCount:      transferUnary("popcount"),

	OpAndI: {Name: "andi", Dialect: "arith", Operands: binaryI1, Result: KindBool},
	OpOrI:  {Name: "ori", Dialect: "arith", Operands: binaryI1, Result: KindBool},
	OpXorI: {Name: "xori", Dialect: "arith", Operands: binaryI1, Result: KindBool},
	OpCmp:  {Name: "cmp", Dialect: "transfer", Operands: binaryInt, Result: KindBool},
}

var opKindsByName = func() map[string]OpKind {
	m := make(map[string]OpKind, 2*int(numOpKinds))
	for k := OpKind(1); k < numOpKinds; k++ {
		d := descriptors[k]
		m[d.Name] = k
		m[d.Dialect+"."+d.Name] = k
	}
	return m
}()

// Descriptor returns the static descriptor for k.
func (k OpKind) Descriptor() Descriptor {
	if k >= numOpKinds {
		return descriptors[OpInvalid]
	}
	return descriptors[k]
}

// String returns the short operator name, e.g. "add".
func (k OpKind) String() string {
	if k >= numOpKinds {
		return fmt.Sprintf("OpKind(%d)", k)
	}
	return descriptors[k].Name
}

// QualifiedName returns the dialect-qualified name, e.g. "transfer.add".
func (k OpKind) QualifiedName() string {
	d := k.Descriptor()
	return d.Dialect + "." + d.Name
}

// Valid reports whether k names a catalog entry.
func (k OpKind) Valid() bool { return k > OpInvalid && k < numOpKinds }

// Arity is the fixed operand count. Variadic kinds report 0.
func (k OpKind) Arity() int { return len(k.Descriptor().Operands) }

// OperandKinds returns the required kind of each operand slot.
func (k OpKind) OperandKinds() []ValueKind { return k.Descriptor().Operands }

// ResultKind returns the default result kind of k. Field accessors may
// produce bool values depending on the argument layout.
func (k OpKind) ResultKind() ValueKind { return k.Descriptor().Result }

// IsUnary reports whether k is a single-operand body operator.
func (k OpKind) IsUnary() bool {
	d := k.Descriptor()
	return d.Class == ClassBody && len(d.Operands) == 1
}

// InMainBody reports whether operations of kind k take part in sampling,
// mutation and dead-code elimination.
func (k OpKind) InMainBody() bool {
	return k.Valid() && k.Descriptor().Class == ClassBody
}

// ParseOpKind resolves an operator identifier. Both the short form ("add")
// and the dialect-qualified form ("transfer.add") are accepted.
func ParseOpKind(s string) (OpKind, bool) {
	k, ok := opKindsByName[strings.TrimSpace(s)]
	return k, ok
}

// BodyKinds returns every body operator whose result is of kind vk, in
// catalog order.
func BodyKinds(vk ValueKind) []OpKind {
	var out []OpKind
	for k := OpKind(1); k < numOpKinds; k++ {
		d := descriptors[k]
		if d.Class == ClassBody && d.Result == vk {
			out = append(out, k)
		}
	}
	return out
}

// CmpPredicate is the relational predicate of a cmp operation.
type CmpPredicate uint8

const (
	CmpEQ CmpPredicate = iota
	CmpNE
	CmpSLT
	CmpSLE
	CmpSGT
	CmpSGE
	CmpULT
	CmpULE
	CmpUGT
	CmpUGE

	// NumCmpPredicates is the size of the predicate set.
	NumCmpPredicates = 10
)

var cmpNames = [NumCmpPredicates]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}

func (p CmpPredicate) String() string {
	if int(p) < NumCmpPredicates {
		return cmpNames[p]
	}
	return fmt.Sprintf("CmpPredicate(%d)", p)
}

// ParseCmpPredicate accepts a predicate name.
func ParseCmpPredicate(s string) (CmpPredicate, bool) {
	for i, n := range cmpNames {
		if n == s {
			return CmpPredicate(i), true
		}
	}
	return 0, false
}

// AllCmpPredicates returns the ten predicates in flag order.
func AllCmpPredicates() []CmpPredicate {
	out := make([]CmpPredicate, NumCmpPredicates)
	for i := range out {
		out[i] = CmpPredicate(i)
	}
	return out
}
