package ir

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint_Golden(t *testing.T) {
	f, _ := buildKnownBitsOr(t)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, f))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "kb_or", buf.Bytes())
}

func TestFormatOp(t *testing.T) {
	f, ops := buildKnownBitsOr(t)

	assert.Equal(t, "%5 = cmp ult %4, %3 : bool", FormatOp(f, ops["cmp"]))
	assert.Equal(t, "return %7", FormatOp(f, ops["ret"]))

	// Detached results have no program-order number.
	pending := f.NewBoolConstant(true)
	assert.Regexp(t, `^%\?\d+ = bool_constant true : bool$`, FormatOp(f, pending))
}

func TestFormat_UnnamedArgs(t *testing.T) {
	f := NewFunction("anon", Arg{Fields: []ValueKind{KindInt}})
	g := f.Append(f.NewGet(0, 0))
	f.Append(f.NewOp(OpReturn, f.Append(f.NewOp(OpNeg, g.Result())).Result()))

	want := "func @anon(%arg0: (int)) {\n" +
		"  %0 = get %arg0[0] : int\n" +
		"  %1 = neg %0 : int\n" +
		"  return %1\n" +
		"}\n"
	assert.Equal(t, want, Format(f))
}
