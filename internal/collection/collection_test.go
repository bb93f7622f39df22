package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xfersynth/internal/random"
)

func TestCollection_RemoveSwapsLast(t *testing.T) {
	c := New([]string{"A", "B", "C"}, random.New(1))

	c.Remove("B")
	assert.Equal(t, []string{"A", "C"}, c.Items())
	idx, ok := c.IndexOf("C")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.False(t, c.Contains("B"))
}

func TestCollection_RemoveLastAndAbsent(t *testing.T) {
	c := New([]int{1, 2, 3}, random.New(1))

	c.Remove(3)
	assert.Equal(t, []int{1, 2}, c.Items())
	c.Remove(42)
	assert.Equal(t, 2, c.Len())

	c.Remove(1)
	c.Remove(2)
	assert.Zero(t, c.Len())
	_, ok := c.PickUniform()
	assert.False(t, ok)
}

func TestCollection_InsertIndexesNewElement(t *testing.T) {
	c := New([]int{10, 20}, random.New(1))

	require.NoError(t, c.Insert(30))
	assert.ErrorIs(t, c.Insert(20), ErrDuplicate)

	// The appended element must be removable through its recorded slot.
	c.Remove(30)
	assert.Equal(t, []int{10, 20}, c.Items())
	c.Remove(10)
	assert.Equal(t, []int{20}, c.Items())
}

func TestCollection_NewDropsDuplicates(t *testing.T) {
	c := New([]int{1, 1, 2}, random.New(1))
	assert.Equal(t, []int{1, 2}, c.Items())
}

func TestCollection_PickUniformOnlyPresent(t *testing.T) {
	src := random.New(5)
	c := New([]int{0, 1, 2, 3, 4, 5}, src)
	c.Remove(2)
	c.Remove(4)
	require.NoError(t, c.Insert(9))

	counts := map[int]int{}
	for i := 0; i < 5000; i++ {
		v, ok := c.PickUniform()
		require.True(t, ok)
		require.True(t, c.Contains(v))
		counts[v]++
	}
	assert.Len(t, counts, 5)
	for _, n := range counts {
		assert.InDelta(t, 1000, n, 150)
	}
}

func TestCollection_PickWeighted(t *testing.T) {
	c := New([]string{"a", "b", "c"}, random.New(11))

	counts := map[string]int{}
	for i := 0; i < 6000; i++ {
		v, ok := c.PickWeighted(map[string]float64{"a": 4, "b": 0})
		require.True(t, ok)
		counts[v]++
	}
	// c defaults to weight 1.
	assert.Zero(t, counts["b"])
	assert.InDelta(t, 0.8, float64(counts["a"])/6000, 0.03)
	assert.InDelta(t, 0.2, float64(counts["c"])/6000, 0.03)
}

func TestCollection_PickIf(t *testing.T) {
	c := New([]int{1, 2, 3, 4, 5, 6}, random.New(2))

	for i := 0; i < 100; i++ {
		v, ok := c.PickIf(func(x int) bool { return x%2 == 0 })
		require.True(t, ok)
		assert.Zero(t, v%2)
	}

	_, ok := c.PickIf(func(x int) bool { return x > 100 })
	assert.False(t, ok)
}

func TestPickIf_VisitsEachOnce(t *testing.T) {
	visits := 0
	_, ok := PickIf(random.New(3), []int{1, 2, 3, 4}, func(int) bool {
		visits++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 4, visits)

	_, ok = PickIf(random.New(3), []int(nil), func(int) bool { return true })
	assert.False(t, ok)
}

func TestPickIf_NoStartBias(t *testing.T) {
	src := random.New(8)
	items := []int{1, 2, 3, 4}
	counts := map[int]int{}
	for i := 0; i < 4000; i++ {
		v, _ := PickIf(src, items, func(int) bool { return true })
		counts[v]++
	}
	for _, n := range counts {
		assert.InDelta(t, 1000, n, 150)
	}
}
