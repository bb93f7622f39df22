package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/testutil"
)

func newContext(seed uint64, set catalog.OpSet) *Context {
	src := random.New(seed)
	return NewContext(src, catalog.New(set, src))
}

func intSet(ops ...ir.OpKind) catalog.OpSet {
	return catalog.OpSet{Int: ops, Bool: catalog.BasicBoolOps}
}

// leafPool builds a function holding one of each integer leaf plus two
// argument fields and a comparison, and returns it with its pools.
func leafPool(t *testing.T) (*ir.Function, map[string]ir.ValueID, ir.Pools) {
	t.Helper()
	f := ir.NewFunction("pool", testutil.PairArgs()...)
	v := map[string]ir.ValueID{
		"x":    f.Append(f.NewGet(0, 0)).Result(),
		"y":    f.Append(f.NewGet(1, 0)).Result(),
		"zero": f.Append(f.NewConstant(0)).Result(),
		"one":  f.Append(f.NewConstant(1)).Result(),
		"ones": f.Append(f.NewOp(ir.OpAllOnes)).Result(),
		"true": f.Append(f.NewBoolConstant(true)).Result(),
	}
	v["c"] = f.Append(f.NewCmp(ir.CmpULT, v["x"], v["y"])).Result()
	pools := ir.Pools{
		ir.KindInt:  {v["x"], v["y"], v["zero"], v["one"], v["ones"]},
		ir.KindBool: {v["true"], v["c"]},
	}
	return f, v, pools
}

func TestBuildOperation_AddZeroScenario(t *testing.T) {
	c := testutil.NewAddZero()
	x, a := c.X.Result(), c.A.Result()
	pools := ir.Pools{ir.KindInt: {x, a}}

	sc := newContext(1, intSet(ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpMul, ir.OpUMin))
	built := 0
	for i := 0; i < 300; i++ {
		op := sc.RandomOperation(c.F, ir.KindInt, pools)
		if op == nil {
			continue
		}
		built++
		if op.Kind == ir.OpAdd {
			assert.NotContains(t, op.Operands(), a, "zero is trivial for add")
		}
		assert.True(t, sc.Heuristics.Admissible(c.F, op), ir.FormatOp(c.F, op))
		c.F.Erase(op)
	}
	assert.Positive(t, built)
}

func TestBuildOperation_FailsWhenNothingAdmissible(t *testing.T) {
	c := testutil.NewAddZero()
	pools := ir.Pools{ir.KindInt: {c.X.Result(), c.A.Result()}}

	// sub needs two distinct non-zero values; the pool holds one.
	sc := newContext(1, intSet(ir.OpSub))
	for i := 0; i < 50; i++ {
		assert.Nil(t, sc.RandomOperation(c.F, ir.KindInt, pools))
	}
	assert.Equal(t, 1, c.F.NumUses(c.X.Result()), "failed builds leave no uses behind")
}

func TestBuildOperation_TrivialFilterOff(t *testing.T) {
	c := testutil.NewAddZero()
	pools := ir.Pools{ir.KindInt: {c.A.Result()}}

	sc := newContext(1, intSet(ir.OpAdd))
	assert.Nil(t, sc.BuildOperation(c.F, ir.OpAdd, pools))

	sc.Heuristics.SkipTrivial = false
	op := sc.BuildOperation(c.F, ir.OpAdd, pools)
	require.NotNil(t, op)
	assert.Equal(t, []ir.ValueID{c.A.Result(), c.A.Result()}, op.Operands())
}

func TestBuildOperation_Idempotence(t *testing.T) {
	f, v, _ := leafPool(t)
	pools := ir.Pools{ir.KindInt: {v["x"]}}

	sc := newContext(1, intSet(ir.OpXor))
	assert.Nil(t, sc.BuildOperation(f, ir.OpXor, pools))

	sc.Heuristics.Idempotent = false
	op := sc.BuildOperation(f, ir.OpXor, pools)
	require.NotNil(t, op)
	assert.Equal(t, op.Operand(0), op.Operand(1))

	// add is not idempotence-sensitive.
	sc.Heuristics.Idempotent = true
	op = sc.BuildOperation(f, ir.OpAdd, pools)
	require.NotNil(t, op)
	assert.Equal(t, v["x"], op.Operand(1))
}

func TestBuildOperation_Select(t *testing.T) {
	f, v, pools := leafPool(t)
	sc := newContext(3, intSet(ir.OpSelect))

	for i := 0; i < 200; i++ {
		op := sc.BuildOperation(f, ir.OpSelect, pools)
		require.NotNil(t, op)
		assert.Equal(t, v["c"], op.Operand(0), "constant conditions are trivial")
		assert.NotEqual(t, op.Operand(1), op.Operand(2), "branches must differ")
		f.Erase(op)
	}

	// Branch slots carry no triviality predicate of their own.
	seenZero := false
	for i := 0; i < 200 && !seenZero; i++ {
		op := sc.BuildOperation(f, ir.OpSelect, pools)
		seenZero = op.Operand(1) == v["zero"] || op.Operand(2) == v["zero"]
		f.Erase(op)
	}
	assert.True(t, seenZero)

	// Only a constant condition available.
	onlyConst := ir.Pools{ir.KindInt: pools[ir.KindInt], ir.KindBool: {v["true"]}}
	assert.Nil(t, sc.BuildOperation(f, ir.OpSelect, onlyConst))
}

func TestBuildOperation_SlotTableOverridesGeneric(t *testing.T) {
	f, v, _ := leafPool(t)
	sc := newContext(5, intSet(ir.OpSetHighBits))

	// Slot 0 rejects only all-ones; slot 1 rejects zero and all-ones.
	pools := ir.Pools{ir.KindInt: {v["zero"], v["ones"], v["one"]}}
	for i := 0; i < 100; i++ {
		op := sc.BuildOperation(f, ir.OpSetHighBits, pools)
		require.NotNil(t, op)
		assert.NotEqual(t, v["ones"], op.Operand(0))
		assert.Equal(t, v["one"], op.Operand(1))
		f.Erase(op)
	}

	assert.True(t, sc.Heuristics.IsTrivialOperand(f, ir.OpSetLowBits, 0, v["one"]))
	assert.False(t, sc.Heuristics.IsTrivialOperand(f, ir.OpSetLowBits, 0, v["zero"]))
	assert.True(t, sc.Heuristics.IsTrivialOperand(f, ir.OpClearHighBits, 0, v["zero"]))
	assert.False(t, sc.Heuristics.IsTrivialOperand(f, ir.OpClearHighBits, 0, v["ones"]))
}

func TestBuildOperation_Cmp(t *testing.T) {
	f, _, pools := leafPool(t)
	sc := newContext(2, catalog.OpSet{Int: catalog.BasicIntOps, Bool: catalog.BasicBoolOps})
	require.NoError(t, sc.SetCmpFlags([]int{int(ir.CmpSLT), int(ir.CmpUGE)}))

	for i := 0; i < 100; i++ {
		op := sc.RandomOperation(f, ir.KindBool, pools)
		require.NotNil(t, op)
		assert.Equal(t, ir.OpCmp, op.Kind)
		assert.Contains(t, []ir.CmpPredicate{ir.CmpSLT, ir.CmpUGE}, op.Predicate())
		assert.NotEqual(t, op.Operand(0), op.Operand(1))
		f.Erase(op)
	}
}

func TestBuildOperation_BoolConnectivesRejectConstants(t *testing.T) {
	f, v, pools := leafPool(t)
	sc := newContext(2, catalog.OpSet{Int: catalog.BasicIntOps, Bool: []ir.OpKind{ir.OpAndI}})

	// One non-constant boolean: andi would need it twice.
	assert.Nil(t, sc.RandomOperation(f, ir.KindBool, pools))

	d := f.Append(f.NewCmp(ir.CmpEQ, v["x"], v["y"])).Result()
	pools[ir.KindBool] = append(pools[ir.KindBool], d)
	op := sc.RandomOperation(f, ir.KindBool, pools)
	require.NotNil(t, op)
	assert.ElementsMatch(t, []ir.ValueID{v["c"], d}, op.Operands())
}

func TestBuildOperation_NeverInadmissible(t *testing.T) {
	f, _, pools := leafPool(t)
	sc := newContext(99, catalog.DefaultOpSet())

	for i := 0; i < 2000; i++ {
		kind := ir.KindInt
		if i%3 == 0 {
			kind = ir.KindBool
		}
		op := sc.RandomOperation(f, kind, pools)
		if op == nil {
			continue
		}
		require.True(t, sc.Heuristics.Admissible(f, op), ir.FormatOp(f, op))
		f.Erase(op)
	}
}

func TestRetargetOperand(t *testing.T) {
	f, v, pools := leafPool(t)
	sc := newContext(4, catalog.DefaultOpSet())
	ints := pools[ir.KindInt]

	t.Run("rejects companion and trivial values", func(t *testing.T) {
		op := f.NewOp(ir.OpAnd, v["x"], v["y"])
		for i := 0; i < 50; i++ {
			require.True(t, sc.RetargetOperand(f, op, 1, ints))
			assert.NotContains(t, []ir.ValueID{v["x"], v["zero"], v["ones"]}, op.Operand(1))
		}
		f.Erase(op)
	})

	t.Run("failure leaves the operand untouched", func(t *testing.T) {
		op := f.NewOp(ir.OpAnd, v["x"], v["y"])
		assert.False(t, sc.RetargetOperand(f, op, 1, []ir.ValueID{v["x"], v["zero"]}))
		assert.Equal(t, v["y"], op.Operand(1))
		f.Erase(op)
	})

	t.Run("select branches pair with each other", func(t *testing.T) {
		op := f.NewOp(ir.OpSelect, v["c"], v["x"], v["y"])
		for i := 0; i < 50; i++ {
			require.True(t, sc.RetargetOperand(f, op, 2, ints))
			assert.NotEqual(t, v["x"], op.Operand(2))
		}
		// The condition only filters constants.
		assert.False(t, sc.RetargetOperand(f, op, 0, []ir.ValueID{v["true"]}))
		require.True(t, sc.RetargetOperand(f, op, 0, pools[ir.KindBool]))
		assert.Equal(t, v["c"], op.Operand(0))
		f.Erase(op)
	})

	t.Run("kind mismatched values are skipped", func(t *testing.T) {
		op := f.NewOp(ir.OpAdd, v["x"], v["y"])
		assert.False(t, sc.RetargetOperand(f, op, 0, []ir.ValueID{v["c"]}))
		assert.False(t, sc.RetargetOperand(f, op, 5, ints))
		f.Erase(op)
	})

	t.Run("filters off", func(t *testing.T) {
		off := newContext(4, catalog.DefaultOpSet())
		off.Heuristics = Heuristics{}
		op := f.NewOp(ir.OpAnd, v["x"], v["y"])
		require.True(t, off.RetargetOperand(f, op, 1, []ir.ValueID{v["x"]}))
		assert.Equal(t, v["x"], op.Operand(1))
		f.Erase(op)
	})
}

func TestSetCmpFlags(t *testing.T) {
	sc := newContext(1, catalog.DefaultOpSet())
	assert.Len(t, sc.CmpFlags(), ir.NumCmpPredicates)

	require.Error(t, sc.SetCmpFlags(nil))
	require.Error(t, sc.SetCmpFlags([]int{0, 10}))
	require.Error(t, sc.SetCmpFlags([]int{-1}))
	require.NoError(t, sc.SetCmpFlags([]int{9}))
	assert.Equal(t, []ir.CmpPredicate{ir.CmpUGE}, sc.CmpFlags())
}

func TestUseBasicOps(t *testing.T) {
	sc := newContext(1, catalog.DefaultOpSet())
	sc.UseBasicIntOps()
	sc.UseBasicBoolOps()
	assert.Equal(t, catalog.BasicIntOps, sc.Catalog().Ops(ir.KindInt))
	assert.Equal(t, []ir.OpKind{ir.OpCmp}, sc.Catalog().Ops(ir.KindBool))
}

func TestObserveFrequencies(t *testing.T) {
	sc := newContext(1, catalog.DefaultOpSet())
	require.NoError(t, sc.ObserveFrequencies(catalog.CountFrequency(testutil.KnownBitsAnd())))
	assert.Equal(t, 2.0, sc.Catalog().Weights(ir.KindInt)[ir.OpOr])
}
