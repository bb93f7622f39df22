package dce

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/testutil"
)

func TestEliminate_Golden(t *testing.T) {
	f := testutil.WithDeadCode()

	n := Eliminate(f)
	assert.Equal(t, 3, n, "cmp, sub and xor are dead")
	require.NoError(t, f.Verify())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "kb_and_dead", []byte(ir.Format(f)))
}

func TestEliminate_Idempotent(t *testing.T) {
	fixtures := map[string]func() *ir.Function{
		"kb_and":    testutil.KnownBitsAnd,
		"kb_top":    testutil.KnownBitsTop,
		"cond":      testutil.Condition,
		"dead_code": testutil.WithDeadCode,
	}
	for name, build := range fixtures {
		t.Run(name, func(t *testing.T) {
			f := build()
			Eliminate(f)
			once := ir.Format(f)

			assert.Zero(t, Eliminate(f))
			assert.Equal(t, once, ir.Format(f))
		})
	}
}

func TestEliminate_KeepsLeavesAndTerminator(t *testing.T) {
	f := testutil.KnownBitsTop()
	assert.Zero(t, Eliminate(f), "every body op of kb_top is live")

	f = ir.NewFunction("only_leaves", testutil.PairArgs()...)
	x := f.Append(f.NewGet(0, 0)).Result()
	f.Append(f.NewConstant(3))
	f.Append(f.NewOp(ir.OpAllOnes))
	f.Append(f.NewOp(ir.OpBitWidth))
	f.Append(f.NewBoolConstant(false))
	dead := f.Append(f.NewOp(ir.OpNeg, x))
	m := f.Append(f.NewOp(ir.OpMake, x, x)).Result()
	f.Append(f.NewOp(ir.OpReturn, m))

	assert.Equal(t, 1, Eliminate(f))
	assert.True(t, dead.Erased())
	kept := []ir.OpKind{}
	for _, op := range f.Ops() {
		kept = append(kept, op.Kind)
	}
	assert.Equal(t, []ir.OpKind{ir.OpGet, ir.OpConstant, ir.OpAllOnes, ir.OpBitWidth, ir.OpBoolConstant, ir.OpMake, ir.OpReturn}, kept)
}

func TestEliminate_ChainInOneSweep(t *testing.T) {
	f := ir.NewFunction("chain", testutil.PairArgs()...)
	x := f.Append(f.NewGet(0, 0)).Result()
	y := f.Append(f.NewGet(1, 0)).Result()
	a := f.Append(f.NewOp(ir.OpAdd, x, y)).Result()
	b := f.Append(f.NewOp(ir.OpMul, a, y)).Result()
	c := f.Append(f.NewCmp(ir.CmpNE, b, a)).Result()
	f.Append(f.NewOp(ir.OpSelect, c, a, b))
	live := f.Append(f.NewOp(ir.OpOr, x, y)).Result()
	f.Append(f.NewOp(ir.OpReturn, live))

	assert.Equal(t, 4, Eliminate(f))
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 1, f.NumUses(x))
}
