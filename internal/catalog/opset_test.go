package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/ir"
)

func TestParseOpSet_MixedEncodings(t *testing.T) {
	set, err := ParseOpSet([]byte(`
name: bitwise
int: [neg, and, transfer.or, {op_name: xor}, {op_name: "transfer.add"}]
bool: basic
`), "bitwise.yaml")
	require.NoError(t, err)

	assert.Equal(t, "bitwise", set.Name)
	assert.Equal(t, []ir.OpKind{ir.OpNeg, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpAdd}, set.Int)
	assert.Equal(t, []ir.OpKind{ir.OpCmp}, set.Bool)
}

func TestParseOpSet_JSON(t *testing.T) {
	set, err := ParseOpSet([]byte(`{"name": "j", "int": "custom1", "bool": [{"op_name": "arith.andi"}, "cmp"]}`), "set.json")
	require.NoError(t, err)
	assert.Equal(t, Custom1IntOps, set.Int)
	assert.Equal(t, []ir.OpKind{ir.OpAndI, ir.OpCmp}, set.Bool)
}

func TestParseOpSet_MissingBucketIsFull(t *testing.T) {
	set, err := ParseOpSet([]byte("int: basic\n"), "x.yaml")
	require.NoError(t, err)
	assert.Equal(t, FullBoolOps, set.Bool)
}

func TestParseOpSet_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		entry string
		msg   string
	}{
		{"unknown operator", "int: [add, frob]\n", "int[1]", `unknown operator "frob"`},
		{"wrong bucket", "int: [add, cmp]\n", "int[1]", "produces bool"},
		{"leaf", "int: [constant]\n", "int[0]", "cannot be sampled"},
		{"duplicate", "int: [add, transfer.add]\n", "int[1]", "duplicate"},
		{"unknown preset", "bool: fancy\n", "bool", `unknown preset "fancy"`},
		{"bad wrapper key", "int: [{name: add}]\n", "int[0]", "op_name"},
		{"wrapper not string", "int: [{op_name: [add]}]\n", "int[0]", "must be a string"},
		{"empty bucket", "int: []\n", "int", "empty"},
		{"unknown field", "ints: [add]\n", "document", "ints"},
		{"mapping bucket", "int: {a: b}\n", "int", "expected a preset name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOpSet([]byte(tt.input), "ops.yaml")
			require.Error(t, err)
			require.True(t, IsConfigError(err))
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "ops.yaml", ce.Source)
			assert.Equal(t, tt.entry, ce.Entry)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestConfigError_Format(t *testing.T) {
	err := &ConfigError{Source: "a.yaml", Entry: "int[2]", Line: 4, Message: "unknown operator \"x\""}
	assert.Equal(t, `a.yaml:4: int[2]: unknown operator "x"`, err.Error())

	err.Line = 0
	assert.Equal(t, `a.yaml: int[2]: unknown operator "x"`, err.Error())
}

func TestLoadOpSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.yml")
	require.NoError(t, os.WriteFile(path, []byte("int: full\nbool: full\n"), 0o644))

	set, err := LoadOpSet(path)
	require.NoError(t, err)
	assert.Len(t, set.Int, 30)

	_, err = LoadOpSet(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.False(t, IsConfigError(err))
}

func TestLookup(t *testing.T) {
	k, err := Lookup(ir.KindBool, "arith.xori")
	require.NoError(t, err)
	assert.Equal(t, ir.OpXorI, k)

	_, err = Lookup(ir.KindInt, "xori")
	require.Error(t, err)
}
