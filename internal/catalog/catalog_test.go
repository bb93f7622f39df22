package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/testutil"
)

func TestPresets(t *testing.T) {
	assert.Len(t, FullIntOps, 30)
	assert.Len(t, FullBoolOps, 4)

	set, ok := Preset("basic")
	require.True(t, ok)
	assert.Equal(t, BasicIntOps, set.Int)
	assert.Equal(t, []ir.OpKind{ir.OpCmp}, set.Bool)
	require.NoError(t, set.Validate("preset"))

	set, ok = Preset("custom_bit")
	require.True(t, ok)
	assert.Equal(t, FullBoolOps, set.Bool)
	require.NoError(t, set.Validate("preset"))

	_, ok = Preset("nope")
	assert.False(t, ok)

	require.NoError(t, DefaultOpSet().Validate("default"))
	assert.Equal(t, []string{"basic", "custom1", "custom_bit", "custom_mul", "full"}, PresetNames(ir.KindInt))
}

func TestPresetOpsReturnsCopy(t *testing.T) {
	ops, ok := PresetOps(ir.KindInt, "basic")
	require.True(t, ok)
	ops[0] = ir.OpMul
	assert.Equal(t, ir.OpNeg, BasicIntOps[0])
}

func TestPriorByName(t *testing.T) {
	p, ok := PriorByName("bias")
	require.True(t, ok)
	assert.Equal(t, 10.0, p.For(ir.KindInt)[ir.OpSub])
	assert.Equal(t, 0.0, p.For(ir.KindInt)[ir.OpSelect])
	_, listed := p.Int[ir.OpPopCount]
	assert.False(t, listed)
	assert.Equal(t, 1.0, p.For(ir.KindBool)[ir.OpCmp])

	p, ok = PriorByName("uniform_stronger")
	require.True(t, ok)
	assert.Equal(t, 10.0, p.Int[ir.OpPopCount])

	_, ok = PriorByName("missing")
	assert.False(t, ok)
}

func TestCatalog_SampleUniformStaysInBucket(t *testing.T) {
	set, _ := Preset("basic")
	c := New(set, random.New(1))

	for i := 0; i < 200; i++ {
		k, ok := c.Sample(ir.KindInt)
		require.True(t, ok)
		assert.Contains(t, BasicIntOps, k)

		b, ok := c.Sample(ir.KindBool)
		require.True(t, ok)
		assert.Equal(t, ir.OpCmp, b)
	}
}

func TestCatalog_SampleWeighted(t *testing.T) {
	c := New(OpSet{Int: []ir.OpKind{ir.OpAdd, ir.OpSub}, Bool: BasicBoolOps}, random.New(4))
	require.NoError(t, c.SetWeights(ir.KindInt, Weights{ir.OpAdd: 0}))
	c.SetWeighted(true)

	for i := 0; i < 100; i++ {
		k, _ := c.Sample(ir.KindInt)
		assert.Equal(t, ir.OpSub, k)
	}

	// Unweighted sampling ignores the zero weight.
	c.SetWeighted(false)
	seen := map[ir.OpKind]bool{}
	for i := 0; i < 100; i++ {
		k, _ := c.Sample(ir.KindInt)
		seen[k] = true
	}
	assert.True(t, seen[ir.OpAdd])
}

func TestCatalog_SetWeightsRejectsForeignOps(t *testing.T) {
	set, _ := Preset("basic")
	c := New(set, random.New(1))
	v := c.Version()

	err := c.SetWeights(ir.KindInt, Weights{ir.OpMul: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mul")
	assert.Equal(t, v, c.Version())

	require.Error(t, c.SetWeights(ir.KindInt, Weights{ir.OpAdd: -1}))
}

func TestCatalog_ObserveFrequencies(t *testing.T) {
	set, _ := Preset("basic")
	c := New(set, random.New(1))
	before := c.Version()

	freq := CountFrequency(testutil.KnownBitsAnd(), testutil.KnownBitsAnd())
	require.NoError(t, c.ObserveFrequencies(freq))

	w := c.Weights(ir.KindInt)
	assert.Equal(t, 3.0, w[ir.OpOr])
	assert.Equal(t, 3.0, w[ir.OpAnd])
	assert.Equal(t, 1.0, w[ir.OpXor])
	assert.Equal(t, before+1, c.Version())

	// A second observation starts again from the baseline.
	require.NoError(t, c.ObserveFrequencies(CountFrequency(testutil.KnownBitsAnd())))
	assert.Equal(t, 2.0, c.Weights(ir.KindInt)[ir.OpOr])
}

func TestCatalog_ObserveFrequenciesOutsideBucket(t *testing.T) {
	set, _ := Preset("basic")
	c := New(set, random.New(1))

	freq := CountFrequency(testutil.WithDeadCode())
	require.Error(t, c.ObserveFrequencies(freq), "sub is not a basic operator")
	require.NoError(t, c.ObserveFrequencies(freq.Restrict(c)))
	assert.Equal(t, 2.0, c.Weights(ir.KindInt)[ir.OpXor])
}

func TestCatalog_ApplyPrior(t *testing.T) {
	c := New(DefaultOpSet(), random.New(1))
	p, _ := PriorByName("bias")
	c.ApplyPrior(p)

	w := c.Weights(ir.KindInt)
	assert.Equal(t, 10.0, w[ir.OpNeg])
	assert.Equal(t, 0.0, w[ir.OpMul])
	assert.Equal(t, 1.0, w[ir.OpUDiv])
}

func TestCatalog_SetOpsResetsWeights(t *testing.T) {
	c := New(DefaultOpSet(), random.New(1))
	require.NoError(t, c.SetWeights(ir.KindInt, Weights{ir.OpAdd: 7}))

	c.SetOps(ir.KindInt, BasicIntOps)
	assert.Equal(t, BasicIntOps, c.Ops(ir.KindInt))
	assert.Equal(t, 1.0, c.Weights(ir.KindInt)[ir.OpAdd])
	assert.False(t, c.Contains(ir.KindInt, ir.OpMul))
}

func TestCountFrequency(t *testing.T) {
	freq := CountFrequency(testutil.WithDeadCode(), testutil.Condition())

	assert.Equal(t, 1, freq.Get(ir.KindInt, ir.OpXor))
	assert.Equal(t, 2, freq.Get(ir.KindInt, ir.OpAnd))
	assert.Equal(t, 2, freq.Get(ir.KindBool, ir.OpCmp))
	assert.Zero(t, freq.Get(ir.KindInt, ir.OpGet))
	assert.Equal(t, 7, freq.Total())

	entries := freq.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, ir.KindInt, entries[0].Bucket)
	assert.Equal(t, 2, entries[0].Count)
}
