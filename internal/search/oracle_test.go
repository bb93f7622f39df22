package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/random"
	"github.com/roach88/xfersynth/internal/testutil"
)

func TestSampleOracle_Score(t *testing.T) {
	o, err := NewSampleOracle(testutil.KnownBitsAnd(), 8, 64, random.New(1))
	require.NoError(t, err)
	assert.Equal(t, 64, o.Len())

	ctx := context.Background()
	s, err := o.Score(ctx, testutil.KnownBitsAnd())
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)

	s, err = o.Score(ctx, testutil.KnownBitsTop())
	require.NoError(t, err)
	assert.Less(t, s, 1.0)
	assert.GreaterOrEqual(t, s, 0.0)
}

func TestSampleOracle_Deterministic(t *testing.T) {
	a, err := NewSampleOracle(testutil.KnownBitsAnd(), 8, 32, random.New(9))
	require.NoError(t, err)
	b, err := NewSampleOracle(testutil.KnownBitsAnd(), 8, 32, random.New(9))
	require.NoError(t, err)

	sa, err := a.Score(context.Background(), testutil.WithDeadCode())
	require.NoError(t, err)
	sb, err := b.Score(context.Background(), testutil.WithDeadCode())
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestSampleOracle_Errors(t *testing.T) {
	_, err := NewSampleOracle(testutil.KnownBitsAnd(), 8, 0, random.New(1))
	assert.Error(t, err)

	o, err := NewSampleOracle(testutil.KnownBitsAnd(), 8, 4, random.New(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Score(ctx, testutil.KnownBitsAnd())
	assert.ErrorIs(t, err, context.Canceled)

	// Layout mismatch: add_zero takes one single-field argument.
	_, err = o.Score(context.Background(), testutil.NewAddZero().F)
	assert.Error(t, err)
}
