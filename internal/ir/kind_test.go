package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOpKind(t *testing.T) {
	tests := []struct {
		in   string
		want OpKind
		ok   bool
	}{
		{"add", OpAdd, true},
		{"transfer.add", OpAdd, true},
		{" neg ", OpNeg, true},
		{"arith.andi", OpAndI, true},
		{"cmp", OpCmp, true},
		{"popcount", OpPopCount, true},
		{"AddOp", OpInvalid, false},
		{"", OpInvalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOpKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpKind_Descriptors(t *testing.T) {
	assert.True(t, OpNeg.IsUnary())
	assert.True(t, OpPopCount.IsUnary())
	assert.False(t, OpAdd.IsUnary())
	assert.False(t, OpConstant.IsUnary())

	assert.Equal(t, []ValueKind{KindBool, KindInt, KindInt}, OpSelect.OperandKinds())
	assert.Equal(t, []ValueKind{KindBool, KindBool}, OpXorI.OperandKinds())
	assert.Equal(t, KindBool, OpCmp.ResultKind())
	assert.Equal(t, KindInt, OpSetLowBits.ResultKind())

	for _, k := range []OpKind{OpConstant, OpBoolConstant, OpAllOnes, OpBitWidth, OpGet, OpMake, OpReturn} {
		assert.False(t, k.InMainBody(), k.String())
	}
	assert.True(t, OpSelect.InMainBody())
	assert.False(t, OpInvalid.Valid())
}

func TestBodyKinds(t *testing.T) {
	assert.Len(t, BodyKinds(KindInt), 30)
	assert.Equal(t, []OpKind{OpAndI, OpOrI, OpXorI, OpCmp}, BodyKinds(KindBool))
}

func TestCmpPredicates(t *testing.T) {
	all := AllCmpPredicates()
	assert.Len(t, all, NumCmpPredicates)
	for _, p := range all {
		back, ok := ParseCmpPredicate(p.String())
		assert.True(t, ok)
		assert.Equal(t, p, back)
	}
	_, ok := ParseCmpPredicate("lt")
	assert.False(t, ok)
}
