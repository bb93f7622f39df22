package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidatePresetsClean(t *testing.T) {
	for _, name := range catalog.PresetNames(ir.KindInt) {
		set, _ := catalog.Preset(name)
		assert.Empty(t, Validate(set), name)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	set := catalog.OpSet{
		Int:  []ir.OpKind{ir.OpAdd, ir.OpCmp, ir.OpAdd, ir.OpConstant},
		Bool: nil,
	}
	errs := Validate(set)
	assert.Equal(t, []string{ErrWrongBucket, ErrDuplicateOp, ErrNotSampleable, ErrBucketEmpty}, codes(errs))
	assert.True(t, HasErrors(errs))
	assert.Equal(t, "int[1]", errs[0].Field)
}

func TestValidateWarnings(t *testing.T) {
	set := catalog.OpSet{
		Int:  []ir.OpKind{ir.OpNeg, ir.OpSelect},
		Bool: []ir.OpKind{ir.OpAndI},
	}
	errs := Validate(set)
	assert.Equal(t, []string{WarnSelectNoCond, WarnBoolNoProducer}, codes(errs))
	assert.False(t, HasErrors(errs))

	errs = Validate(catalog.OpSet{Int: []ir.OpKind{ir.OpNeg, ir.OpPopCount}, Bool: []ir.OpKind{ir.OpCmp}})
	assert.Equal(t, []string{WarnNoBinaryInt}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "int[2]", Message: "duplicate operator \"add\"", Code: ErrDuplicateOp}
	assert.Equal(t, `[E102] int[2]: duplicate operator "add"`, e.Error())
	assert.False(t, e.IsWarning())
}
