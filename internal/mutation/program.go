package mutation

import (
	"github.com/roach88/xfersynth/internal/ir"
)

// State is the mutation state of a Program.
type State uint8

const (
	// Idle means no mutation is pending.
	Idle State = iota
	// Pending means a recorded substitution awaits Revert or Commit.
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Indexed pairs an operation with its program-order position.
type Indexed struct {
	Op    *ir.Operation
	Index int
}

// Program is a candidate under search. It exclusively owns its function;
// callers must not restructure the function behind its back while a
// mutation is pending.
type Program struct {
	fn    *ir.Function
	state State
	oldOp *ir.Operation
	newOp *ir.Operation
}

// New wraps f after checking its tail: the last operation must be the
// return, and the one before it either the make aggregate or a body
// operation whose result is returned directly (condition candidates).
func New(f *ir.Function) (*Program, error) {
	if err := checkTail(f); err != nil {
		return nil, err
	}
	return &Program{fn: f}, nil
}

// MustNew is like New but panics on a malformed tail.
// Use only in tests or for programs built in code.
func MustNew(f *ir.Function) *Program {
	p, err := New(f)
	if err != nil {
		panic(err)
	}
	return p
}

func checkTail(f *ir.Function) *ProtocolError {
	ret := f.Last()
	if ret == nil || ret.Kind != ir.OpReturn {
		return &ProtocolError{Code: ErrCodeMalformedTail, Message: "last operation must be return"}
	}
	prev := ret.Prev()
	if prev == nil {
		return &ProtocolError{Code: ErrCodeMalformedTail, Message: "return has no producer before it"}
	}
	if prev.Kind == ir.OpMake {
		return nil
	}
	if !prev.Kind.InMainBody() {
		return &ProtocolError{Code: ErrCodeMalformedTail, Message: "operation before return must be make or a body operation, got " + prev.Kind.String()}
	}
	if ret.Operand(0) != prev.Result() {
		return &ProtocolError{Code: ErrCodeMalformedTail, Message: "return must read the result of " + prev.Kind.String()}
	}
	return nil
}

// Function returns the underlying function.
func (p *Program) Function() *ir.Function { return p.fn }

// State returns the current mutation state.
func (p *Program) State() State { return p.state }

// Pending returns the pending (old, new) pair.
func (p *Program) Pending() (old, repl *ir.Operation, ok bool) {
	if p.state != Pending {
		return nil, nil, false
	}
	return p.oldOp, p.newOp, true
}

// LiveOperations returns the body operations of the candidate, most recent
// first, each with its program-order index. With onlyLive set, only the
// operations reachable from the terminator through operand edges are
// returned.
func (p *Program) LiveOperations(onlyLive bool) []Indexed {
	if err := checkTail(p.fn); err != nil {
		panic(err)
	}
	ops := p.fn.Ops()
	tail := ops[len(ops)-2]

	live := make(map[*ir.Operation]bool)
	if tail.Kind == ir.OpMake {
		for _, v := range tail.Operands() {
			live[p.fn.Owner(v)] = true
		}
	} else {
		live[tail] = true
	}

	var out []Indexed
	for i := len(ops) - 2; i >= 0; i-- {
		op := ops[i]
		if !op.Kind.InMainBody() {
			continue
		}
		if !onlyLive {
			out = append(out, Indexed{Op: op, Index: i})
			continue
		}
		if !live[op] {
			continue
		}
		out = append(out, Indexed{Op: op, Index: i})
		for _, v := range op.Operands() {
			live[p.fn.Owner(v)] = true
		}
	}
	return out
}

// OperandsOfKind returns, in program order, the results of kind k of every
// operation strictly before index before.
func (p *Program) OperandsOfKind(before int, k ir.ValueKind) []ir.ValueID {
	var out []ir.ValueID
	i := 0
	for op := p.fn.First(); op != nil && i < before; op = op.Next() {
		if r := op.Result(); r != ir.NoValue && p.fn.Kind(r) == k {
			out = append(out, r)
		}
		i++
	}
	return out
}

// Pools groups the int and bool operands available before index before.
func (p *Program) Pools(before int) ir.Pools {
	return ir.Pools{
		ir.KindInt:  p.OperandsOfKind(before, ir.KindInt),
		ir.KindBool: p.OperandsOfKind(before, ir.KindBool),
	}
}

// Substitute puts repl in place of old: repl is attached immediately
// before old, every use of old's result is rewired to repl's result and old
// is detached. old stays allocated. With record set the pair becomes the
// pending mutation, which requires the program to be idle. A splice that
// panics leaves the program idle.
func (p *Program) Substitute(old, repl *ir.Operation, record bool) {
	if record {
		if p.state == Pending {
			violation(ErrCodeMutationPending, "cannot substitute %s: a mutation of %s is pending", old.Kind, p.oldOp.Kind)
		}
	}
	p.fn.InsertBefore(repl, old)
	if old.Result() != ir.NoValue && repl.Result() != ir.NoValue {
		p.fn.ReplaceAllUses(old.Result(), repl.Result())
	}
	p.fn.Detach(old)
	if record {
		p.oldOp, p.newOp, p.state = old, repl, Pending
	}
}

// Revert restores the old operation of the pending mutation and erases
// the new one.
func (p *Program) Revert() {
	if p.state != Pending {
		violation(ErrCodeNoPendingMutation, "revert without a pending mutation")
	}
	old, repl := p.oldOp, p.newOp
	p.Substitute(repl, old, false)
	p.fn.Erase(repl)
	p.clear()
}

// Commit keeps the new operation of the pending mutation and erases the
// old one.
func (p *Program) Commit() {
	if p.state != Pending {
		violation(ErrCodeNoPendingMutation, "commit without a pending mutation")
	}
	p.fn.Erase(p.oldOp)
	p.clear()
}

func (p *Program) clear() {
	p.oldOp, p.newOp, p.state = nil, nil, Idle
}
