package ir

import "fmt"

// ValueID indexes an SSA value in its Function's arena.
type ValueID int32

// NoValue is the result of operations that produce nothing.
const NoValue ValueID = -1

// Use records that operand slot Slot of Op reads a value.
type Use struct {
	Op   *Operation
	Slot int
}

type opState uint8

const (
	opDetached opState = iota
	opAttached
	opErased
)

// Operation is a node of a candidate program. Operand slots and the
// result are owned by the Function; change operands only through
// Function.SetOperand so use lists stay consistent.
type Operation struct {
	Kind OpKind

	// Attr holds the literal of constant/bool_constant, the predicate of
	// cmp and the field index of get.
	Attr int64

	// Arg is the argument index of get.
	Arg int

	operands []ValueID
	result   ValueID
	fn       *Function
	prev     *Operation
	next     *Operation
	state    opState
}

// Operands returns the operand slots. The slice must not be modified.
func (op *Operation) Operands() []ValueID { return op.operands }

// Operand returns operand slot i.
func (op *Operation) Operand(i int) ValueID { return op.operands[i] }

// NumOperands returns the operand count.
func (op *Operation) NumOperands() int { return len(op.operands) }

// Result returns the produced value, or NoValue.
func (op *Operation) Result() ValueID { return op.result }

// Predicate returns the relational predicate of a cmp operation.
func (op *Operation) Predicate() CmpPredicate { return CmpPredicate(op.Attr) }

// Attached reports whether op is part of the program order.
func (op *Operation) Attached() bool { return op.state == opAttached }

// Erased reports whether op has been permanently erased.
func (op *Operation) Erased() bool { return op.state == opErased }

// Next returns the following operation in program order.
func (op *Operation) Next() *Operation { return op.next }

// Prev returns the preceding operation in program order.
func (op *Operation) Prev() *Operation { return op.prev }

// Function returns the owning function.
func (op *Operation) Function() *Function { return op.fn }

// Arg describes one composite argument of a candidate: the kinds of the
// fields a get operation may extract.
type Arg struct {
	Name   string
	Fields []ValueKind
}

type valueSlot struct {
	kind  ValueKind
	owner *Operation
	uses  []Use
	live  bool
}

// Function is a straight-line SSA program. It exclusively owns its
// operations and the value arena they reference.
type Function struct {
	Name string
	Args []Arg

	first  *Operation
	last   *Operation
	length int

	values []valueSlot
	free   []ValueID
}

// NewFunction creates an empty function. The argument list is copied.
func NewFunction(name string, args ...Arg) *Function {
	own := make([]Arg, len(args))
	for i, a := range args {
		own[i] = Arg{Name: a.Name, Fields: append([]ValueKind(nil), a.Fields...)}
	}
	return &Function{Name: name, Args: own}
}

// InvariantError reports a violated structural precondition of the IR.
// It is raised by panic: it always indicates a programming error.
type InvariantError struct {
	Op      string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ir: %s: %s", e.Op, e.Message)
}

func invariantf(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Message: fmt.Sprintf(format, args...)})
}

func (f *Function) allocValue(kind ValueKind, owner *Operation) ValueID {
	if n := len(f.free); n > 0 {
		id := f.free[n-1]
		f.free = f.free[:n-1]
		f.values[id] = valueSlot{kind: kind, owner: owner, live: true}
		return id
	}
	f.values = append(f.values, valueSlot{kind: kind, owner: owner, live: true})
	return ValueID(len(f.values) - 1)
}

func (f *Function) slot(op string, v ValueID) *valueSlot {
	if v < 0 || int(v) >= len(f.values) || !f.values[v].live {
		invariantf(op, "value %d does not exist", v)
	}
	return &f.values[v]
}

// Valid reports whether v names a live value of f.
func (f *Function) Valid(v ValueID) bool {
	return v >= 0 && int(v) < len(f.values) && f.values[v].live
}

// Kind returns the kind of value v.
func (f *Function) Kind(v ValueID) ValueKind { return f.slot("Kind", v).kind }

// Owner returns the operation producing v.
func (f *Function) Owner(v ValueID) *Operation { return f.slot("Owner", v).owner }

// NumUses returns the number of operand slots reading v, attached or not.
func (f *Function) NumUses(v ValueID) int { return len(f.slot("NumUses", v).uses) }

// Uses returns a copy of the use list of v.
func (f *Function) Uses(v ValueID) []Use {
	s := f.slot("Uses", v)
	out := make([]Use, len(s.uses))
	copy(out, s.uses)
	return out
}

func (f *Function) addUse(v ValueID, op *Operation, slot int) {
	s := f.slot("addUse", v)
	s.uses = append(s.uses, Use{Op: op, Slot: slot})
}

func (f *Function) removeUse(v ValueID, op *Operation, slot int) {
	s := f.slot("removeUse", v)
	for i, u := range s.uses {
		if u.Op == op && u.Slot == slot {
			last := len(s.uses) - 1
			s.uses[i] = s.uses[last]
			s.uses[last] = Use{}
			s.uses = s.uses[:last]
			return
		}
	}
	invariantf("removeUse", "value %d has no use at %s slot %d", v, op.Kind, slot)
}

func (f *Function) newOp(kind OpKind, result ValueKind, operands []ValueID) *Operation {
	if !kind.Valid() {
		invariantf("NewOp", "invalid operator kind %d", kind)
	}
	d := kind.Descriptor()
	if d.Variadic {
		if kind == OpReturn && len(operands) != 1 {
			invariantf("NewOp", "return takes exactly one operand, got %d", len(operands))
		}
	} else if len(operands) != len(d.Operands) {
		invariantf("NewOp", "%s takes %d operands, got %d", kind, len(d.Operands), len(operands))
	}
	for i, v := range operands {
		got := f.slot("NewOp", v).kind
		if !d.Variadic && got != d.Operands[i] {
			invariantf("NewOp", "%s operand %d must be %s, got %s", kind, i, d.Operands[i], got)
		}
	}

	op := &Operation{Kind: kind, fn: f, result: NoValue}
	op.operands = make([]ValueID, len(operands))
	copy(op.operands, operands)
	for i, v := range op.operands {
		f.addUse(v, op, i)
	}
	if result != KindNone {
		op.result = f.allocValue(result, op)
	}
	return op
}

// NewOp creates a detached operation of the given kind. Operand kinds are
// checked against the descriptor table.
func (f *Function) NewOp(kind OpKind, operands ...ValueID) *Operation {
	if kind == OpGet || kind == OpCmp {
		invariantf("NewOp", "use NewGet or NewCmp for %s", kind)
	}
	return f.newOp(kind, kind.ResultKind(), operands)
}

// NewConstant creates a detached integer literal.
func (f *Function) NewConstant(value int64) *Operation {
	op := f.newOp(OpConstant, KindInt, nil)
	op.Attr = value
	return op
}

// NewBoolConstant creates a detached boolean literal.
func (f *Function) NewBoolConstant(value bool) *Operation {
	op := f.newOp(OpBoolConstant, KindBool, nil)
	if value {
		op.Attr = 1
	}
	return op
}

// NewGet creates a detached accessor for field of argument arg.
func (f *Function) NewGet(arg, field int) *Operation {
	if arg < 0 || arg >= len(f.Args) {
		invariantf("NewGet", "argument %d out of range", arg)
	}
	fields := f.Args[arg].Fields
	if field < 0 || field >= len(fields) {
		invariantf("NewGet", "field %d of argument %d out of range", field, arg)
	}
	op := f.newOp(OpGet, fields[field], nil)
	op.Arg = arg
	op.Attr = int64(field)
	return op
}

// NewCmp creates a detached comparison.
func (f *Function) NewCmp(pred CmpPredicate, lhs, rhs ValueID) *Operation {
	if int(pred) >= NumCmpPredicates {
		invariantf("NewCmp", "predicate %d out of range", pred)
	}
	op := f.newOp(OpCmp, KindBool, []ValueID{lhs, rhs})
	op.Attr = int64(pred)
	return op
}

// Clone creates a detached copy of op reading the same operands and
// producing a fresh result value.
func (f *Function) Clone(op *Operation) *Operation {
	resultKind := KindNone
	if op.result != NoValue {
		resultKind = f.Kind(op.result)
	}
	c := f.newOp(op.Kind, resultKind, op.operands)
	c.Attr = op.Attr
	c.Arg = op.Arg
	return c
}

// Append attaches op at the end of the program and returns it.
func (f *Function) Append(op *Operation) *Operation {
	f.checkDetached("Append", op)
	op.prev = f.last
	op.next = nil
	if f.last != nil {
		f.last.next = op
	} else {
		f.first = op
	}
	f.last = op
	op.state = opAttached
	f.length++
	return op
}

// InsertBefore attaches op immediately before the attached operation at.
func (f *Function) InsertBefore(op, at *Operation) {
	f.checkDetached("InsertBefore", op)
	if at.fn != f || at.state != opAttached {
		invariantf("InsertBefore", "anchor %s is not attached to %s", at.Kind, f.Name)
	}
	op.next = at
	op.prev = at.prev
	if at.prev != nil {
		at.prev.next = op
	} else {
		f.first = op
	}
	at.prev = op
	op.state = opAttached
	f.length++
}

func (f *Function) checkDetached(where string, op *Operation) {
	if op.fn != f {
		invariantf(where, "operation %s belongs to another function", op.Kind)
	}
	if op.state != opDetached {
		invariantf(where, "operation %s is not detached", op.Kind)
	}
}

// Detach removes op from program order. Its operand uses and result stay
// allocated, so it can be attached again.
func (f *Function) Detach(op *Operation) {
	if op.fn != f || op.state != opAttached {
		invariantf("Detach", "operation %s is not attached", op.Kind)
	}
	if op.prev != nil {
		op.prev.next = op.next
	} else {
		f.first = op.next
	}
	if op.next != nil {
		op.next.prev = op.prev
	} else {
		f.last = op.prev
	}
	op.prev, op.next = nil, nil
	op.state = opDetached
	f.length--
}

// Erase permanently removes op, releasing its operand uses and its result.
// The result must have no remaining uses.
func (f *Function) Erase(op *Operation) {
	if op.fn != f || op.state == opErased {
		invariantf("Erase", "operation %s cannot be erased twice", op.Kind)
	}
	if op.result != NoValue && f.NumUses(op.result) > 0 {
		invariantf("Erase", "%s result still has %d uses", op.Kind, f.NumUses(op.result))
	}
	if op.state == opAttached {
		f.Detach(op)
	}
	for i, v := range op.operands {
		f.removeUse(v, op, i)
	}
	if op.result != NoValue {
		f.values[op.result] = valueSlot{}
		f.free = append(f.free, op.result)
	}
	op.state = opErased
}

// ReplaceAllUses rewires every use of old to read repl instead.
func (f *Function) ReplaceAllUses(old, repl ValueID) {
	if old == repl {
		return
	}
	from := f.slot("ReplaceAllUses", old)
	to := f.slot("ReplaceAllUses", repl)
	if from.kind != to.kind {
		invariantf("ReplaceAllUses", "kind mismatch %s vs %s", from.kind, to.kind)
	}
	for _, u := range from.uses {
		u.Op.operands[u.Slot] = repl
		to.uses = append(to.uses, u)
	}
	from.uses = nil
}

// SetOperand points operand slot i of op at v.
func (f *Function) SetOperand(op *Operation, i int, v ValueID) {
	if op.fn != f || op.state == opErased {
		invariantf("SetOperand", "operation %s is not owned by %s", op.Kind, f.Name)
	}
	if i < 0 || i >= len(op.operands) {
		invariantf("SetOperand", "%s has no operand %d", op.Kind, i)
	}
	want := f.Kind(op.operands[i])
	if got := f.Kind(v); got != want {
		invariantf("SetOperand", "%s operand %d must be %s, got %s", op.Kind, i, want, got)
	}
	f.removeUse(op.operands[i], op, i)
	op.operands[i] = v
	f.addUse(v, op, i)
}

// Len returns the number of attached operations.
func (f *Function) Len() int { return f.length }

// First returns the first operation in program order.
func (f *Function) First() *Operation { return f.first }

// Last returns the last operation in program order.
func (f *Function) Last() *Operation { return f.last }

// Ops returns the attached operations in program order.
func (f *Function) Ops() []*Operation {
	out := make([]*Operation, 0, f.length)
	for op := f.first; op != nil; op = op.next {
		out = append(out, op)
	}
	return out
}

// Index returns the program-order position of op, or -1 if it is not
// attached.
func (f *Function) Index(op *Operation) int {
	i := 0
	for cur := f.first; cur != nil; cur = cur.next {
		if cur == op {
			return i
		}
		i++
	}
	return -1
}

// Copy returns an independent deep copy of the attached program. Detached
// operations are not copied.
func (f *Function) Copy() *Function {
	out := NewFunction(f.Name, f.Args...)
	remap := make(map[ValueID]ValueID, f.length)
	for op := f.first; op != nil; op = op.next {
		operands := make([]ValueID, len(op.operands))
		for i, v := range op.operands {
			operands[i] = remap[v]
		}
		resultKind := KindNone
		if op.result != NoValue {
			resultKind = f.Kind(op.result)
		}
		c := out.newOp(op.Kind, resultKind, operands)
		c.Attr = op.Attr
		c.Arg = op.Arg
		out.Append(c)
		if op.result != NoValue {
			remap[op.result] = c.result
		}
	}
	return out
}

// Verify checks def-before-use order and use-list consistency of the
// attached program.
func (f *Function) Verify() error {
	defined := make(map[ValueID]bool, f.length)
	for op := f.first; op != nil; op = op.next {
		for i, v := range op.operands {
			if !f.Valid(v) {
				return fmt.Errorf("%s operand %d reads a dead value", op.Kind, i)
			}
			if !defined[v] {
				return fmt.Errorf("%s operand %d reads %%%d before its definition", op.Kind, i, v)
			}
			found := false
			for _, u := range f.values[v].uses {
				if u.Op == op && u.Slot == i {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%s operand %d is missing from the use list of %%%d", op.Kind, i, v)
			}
		}
		if op.result != NoValue {
			if f.values[op.result].owner != op {
				return fmt.Errorf("%s result %%%d has a different owner", op.Kind, op.result)
			}
			defined[op.result] = true
		}
	}
	for v := range f.values {
		s := &f.values[v]
		if !s.live {
			continue
		}
		for _, u := range s.uses {
			if u.Op.operands[u.Slot] != ValueID(v) {
				return fmt.Errorf("stale use of %%%d at %s slot %d", v, u.Op.Kind, u.Slot)
			}
		}
	}
	return nil
}
