package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/ir"
)

func TestFixturesVerify(t *testing.T) {
	for name, f := range map[string]*ir.Function{
		"kb_and":    KnownBitsAnd(),
		"kb_top":    KnownBitsTop(),
		"add_zero":  NewAddZero().F,
		"cond":      Condition(),
		"dead_code": WithDeadCode(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, f.Verify())
			assert.Equal(t, ir.OpReturn, f.Last().Kind)
		})
	}
}

func TestFixedRunID(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunID("").Generate())
	g := NewFixedRunID("run-1")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-1", g.Generate())
}
