package catalog

import (
	"slices"
	"sort"

	"github.com/roach88/xfersynth/internal/ir"
)

// Integer operator presets.
var (
	BasicIntOps = []ir.OpKind{ir.OpNeg, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpAdd}

	Custom1IntOps = []ir.OpKind{
		ir.OpNeg, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpAdd,
		ir.OpSub, ir.OpSelect, ir.OpUMin, ir.OpUMax, ir.OpMul,
	}

	CustomMulIntOps = []ir.OpKind{
		ir.OpNeg, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpAdd,
		ir.OpSub, ir.OpSelect, ir.OpLShr, ir.OpShl,
		ir.OpUMin, ir.OpUMax, ir.OpSMin, ir.OpSMax,
		ir.OpUDiv, ir.OpSDiv, ir.OpURem, ir.OpSRem, ir.OpMul,
	}

	CustomBitIntOps = []ir.OpKind{
		ir.OpNeg, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpAdd,
		ir.OpSub, ir.OpSelect, ir.OpLShr, ir.OpShl,
		ir.OpUMin, ir.OpUMax, ir.OpSMin, ir.OpSMax,
		ir.OpSetHighBits, ir.OpSetLowBits, ir.OpClearHighBits, ir.OpClearLowBits,
		ir.OpSetSignBit, ir.OpClearSignBit,
	}

	FullIntOps = ir.BodyKinds(ir.KindInt)
)

// Boolean operator presets.
var (
	BasicBoolOps = []ir.OpKind{ir.OpCmp}
	FullBoolOps  = ir.BodyKinds(ir.KindBool)
)

var intPresets = map[string][]ir.OpKind{
	"basic":      BasicIntOps,
	"custom1":    Custom1IntOps,
	"custom_mul": CustomMulIntOps,
	"custom_bit": CustomBitIntOps,
	"full":       FullIntOps,
}

var boolPresets = map[string][]ir.OpKind{
	"basic": BasicBoolOps,
	"full":  FullBoolOps,
}

// PresetOps returns a copy of the named preset bucket for kind.
func PresetOps(kind ir.ValueKind, name string) ([]ir.OpKind, bool) {
	var ops []ir.OpKind
	var ok bool
	switch kind {
	case ir.KindInt:
		ops, ok = intPresets[name]
	case ir.KindBool:
		ops, ok = boolPresets[name]
	}
	if !ok {
		return nil, false
	}
	return slices.Clone(ops), true
}

// PresetNames lists the preset names available for kind.
func PresetNames(kind ir.ValueKind) []string {
	m := intPresets
	if kind == ir.KindBool {
		m = boolPresets
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultOpSet allows every body operator.
func DefaultOpSet() OpSet {
	return OpSet{Name: "full", Int: slices.Clone(FullIntOps), Bool: slices.Clone(FullBoolOps)}
}

// Preset returns the operator set named after an integer preset. The
// "basic" set pairs basic integer ops with comparisons only; every other
// preset allows the full boolean bucket.
func Preset(name string) (OpSet, bool) {
	ints, ok := PresetOps(ir.KindInt, name)
	if !ok {
		return OpSet{}, false
	}
	boolName := "full"
	if name == "basic" {
		boolName = "basic"
	}
	bools, _ := PresetOps(ir.KindBool, boolName)
	return OpSet{Name: name, Int: ints, Bool: bools}, true
}

// Weights maps operator kinds to sampling weights. Kinds missing from the
// map weigh 1.
type Weights map[ir.OpKind]float64

// Clone returns a copy of w.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// UniformWeights assigns weight 1 to every kind in ops.
func UniformWeights(ops []ir.OpKind) Weights {
	w := make(Weights, len(ops))
	for _, k := range ops {
		w[k] = 1
	}
	return w
}

// Prior is a named initial weighting for both buckets.
type Prior struct {
	Name string
	Int  Weights
	Bool Weights
}

// For returns the prior weights of the bucket for kind.
func (p Prior) For(kind ir.ValueKind) Weights {
	if kind == ir.KindBool {
		return p.Bool
	}
	return p.Int
}

func constantWeights(ops []ir.OpKind, v float64) Weights {
	w := make(Weights, len(ops))
	for _, k := range ops {
		w[k] = v
	}
	return w
}

// Bias favors the bitwise and additive basics. Operators it does not list
// keep the default weight of 1.
var biasInt = Weights{
	ir.OpNeg: 10, ir.OpAnd: 10, ir.OpOr: 10, ir.OpXor: 10, ir.OpAdd: 10, ir.OpSub: 10,
	ir.OpSelect: 0, ir.OpLShr: 0, ir.OpShl: 0,
	ir.OpUMin: 0, ir.OpUMax: 0, ir.OpSMin: 0, ir.OpSMax: 0, ir.OpMul: 0,
	ir.OpSetHighBits: 0, ir.OpSetLowBits: 0, ir.OpClearHighBits: 0, ir.OpClearLowBits: 0,
	ir.OpSetSignBit: 0, ir.OpClearSignBit: 0,
}

// PriorByName returns one of "uniform", "uniform_stronger" or "bias".
func PriorByName(name string) (Prior, bool) {
	switch name {
	case "uniform":
		return Prior{Name: name, Int: constantWeights(FullIntOps, 1), Bool: constantWeights(FullBoolOps, 1)}, true
	case "uniform_stronger":
		return Prior{Name: name, Int: constantWeights(FullIntOps, 10), Bool: constantWeights(FullBoolOps, 1)}, true
	case "bias":
		return Prior{Name: name, Int: biasInt.Clone(), Bool: constantWeights(FullBoolOps, 1)}, true
	}
	return Prior{}, false
}
