package synth

import (
	"fmt"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/collection"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
)

// Context samples operations from a catalog under the selection
// heuristics. It is owned by one search chain.
type Context struct {
	Heuristics Heuristics

	src      *random.Source
	catalog  *catalog.Catalog
	cmpFlags []ir.CmpPredicate
}

// NewContext returns a context over cat with both heuristics enabled and
// every comparison predicate allowed.
func NewContext(src *random.Source, cat *catalog.Catalog) *Context {
	return &Context{
		Heuristics: DefaultHeuristics(),
		src:        src,
		catalog:    cat,
		cmpFlags:   ir.AllCmpPredicates(),
	}
}

// Catalog returns the operator catalog.
func (c *Context) Catalog() *catalog.Catalog { return c.catalog }

// Source returns the random source.
func (c *Context) Source() *random.Source { return c.src }

// UseBasicIntOps restricts the integer bucket to the basic preset.
func (c *Context) UseBasicIntOps() { c.catalog.SetOps(ir.KindInt, catalog.BasicIntOps) }

// UseBasicBoolOps restricts the boolean bucket to comparisons.
func (c *Context) UseBasicBoolOps() { c.catalog.SetOps(ir.KindBool, catalog.BasicBoolOps) }

// SetCmpFlags sets the predicates cmp operations are drawn from. The list
// must be non-empty and every flag in 0..9.
func (c *Context) SetCmpFlags(flags []int) error {
	if len(flags) == 0 {
		return fmt.Errorf("cmp flags must not be empty")
	}
	preds := make([]ir.CmpPredicate, len(flags))
	for i, fl := range flags {
		if fl < 0 || fl >= ir.NumCmpPredicates {
			return fmt.Errorf("cmp flag %d out of range 0..%d", fl, ir.NumCmpPredicates-1)
		}
		preds[i] = ir.CmpPredicate(fl)
	}
	c.cmpFlags = preds
	return nil
}

// CmpFlags returns the allowed comparison predicates.
func (c *Context) CmpFlags() []ir.CmpPredicate {
	out := make([]ir.CmpPredicate, len(c.cmpFlags))
	copy(out, c.cmpFlags)
	return out
}

// SampleOperator draws an operator kind producing kind.
func (c *Context) SampleOperator(kind ir.ValueKind) (ir.OpKind, bool) {
	return c.catalog.Sample(kind)
}

// ObserveFrequencies folds observed operator counts into the catalog
// weights.
func (c *Context) ObserveFrequencies(freq catalog.Frequency) error {
	return c.catalog.ObserveFrequencies(freq)
}

// selectOperand picks a value from vals that is not flagged by constraint
// and differs from exclude.
func (c *Context) selectOperand(f *ir.Function, vals []ir.ValueID, constraint Predicate, exclude ir.ValueID) (ir.ValueID, bool) {
	return collection.PickIf(c.src, vals, func(v ir.ValueID) bool {
		return v != exclude && !constraint(f, v)
	})
}

// BuildOperation creates a detached operation of kind k whose operands are
// drawn from pools. It returns nil if some slot has no admissible value.
func (c *Context) BuildOperation(f *ir.Function, k ir.OpKind, pools ir.Pools) *ir.Operation {
	kinds := k.OperandKinds()
	operands := make([]ir.ValueID, len(kinds))
	for i, vk := range kinds {
		exclude := ir.NoValue
		if j, ok := c.Heuristics.Companion(k, i); ok && j < i {
			exclude = operands[j]
		}
		v, ok := c.selectOperand(f, pools.Of(vk), c.Heuristics.Constraint(k, i), exclude)
		if !ok {
			return nil
		}
		operands[i] = v
	}

	if k == ir.OpCmp {
		pred, _ := random.Choice(c.src, c.cmpFlags)
		return f.NewCmp(pred, operands[0], operands[1])
	}
	return f.NewOp(k, operands...)
}

// RandomOperation samples an operator producing kind and builds it over
// pools. It returns nil when the bucket is empty or the build fails.
func (c *Context) RandomOperation(f *ir.Function, kind ir.ValueKind, pools ir.Pools) *ir.Operation {
	k, ok := c.SampleOperator(kind)
	if !ok {
		return nil
	}
	return c.BuildOperation(f, k, pools)
}

// RetargetOperand re-samples operand slot of op from vals under the same
// constraints BuildOperation applies. A value is rejected if it is trivial
// for the slot or equal to the companion slot's operand. The operand is
// changed only on success.
func (c *Context) RetargetOperand(f *ir.Function, op *ir.Operation, slot int, vals []ir.ValueID) bool {
	if slot < 0 || slot >= op.NumOperands() {
		return false
	}
	want := f.Kind(op.Operand(slot))
	constraint := c.Heuristics.Constraint(op.Kind, slot)
	companion := ir.NoValue
	if j, ok := c.Heuristics.Companion(op.Kind, slot); ok {
		companion = op.Operand(j)
	}

	v, ok := collection.PickIf(c.src, vals, func(v ir.ValueID) bool {
		return f.Kind(v) == want && v != companion && !constraint(f, v)
	})
	if !ok {
		return false
	}
	f.SetOperand(op, slot, v)
	return true
}
