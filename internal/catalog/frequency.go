package catalog

import (
	"sort"

	"github.com/roach88/xfersynth/internal/ir"
)

// Frequency counts operator occurrences per result-kind bucket.
type Frequency map[ir.ValueKind]map[ir.OpKind]int

// NewFrequency returns an empty table with both buckets present.
func NewFrequency() Frequency {
	return Frequency{ir.KindInt: {}, ir.KindBool: {}}
}

// CountFrequency counts the body operators of funcs. Leaves, make and
// return are not counted.
func CountFrequency(funcs ...*ir.Function) Frequency {
	freq := NewFrequency()
	for _, f := range funcs {
		for op := f.First(); op != nil; op = op.Next() {
			if !op.Kind.InMainBody() {
				continue
			}
			freq.Add(op.Kind.ResultKind(), op.Kind, 1)
		}
	}
	return freq
}

// Add adds n occurrences of k to the bucket for kind.
func (f Frequency) Add(kind ir.ValueKind, k ir.OpKind, n int) {
	m, ok := f[kind]
	if !ok {
		m = make(map[ir.OpKind]int)
		f[kind] = m
	}
	m[k] += n
}

// Merge adds every count of other into f.
func (f Frequency) Merge(other Frequency) {
	for kind, counts := range other {
		for k, n := range counts {
			f.Add(kind, k, n)
		}
	}
}

// Get returns the count of k in the bucket for kind.
func (f Frequency) Get(kind ir.ValueKind, k ir.OpKind) int { return f[kind][k] }

// Total returns the number of counted operations.
func (f Frequency) Total() int {
	n := 0
	for _, counts := range f {
		for _, c := range counts {
			n += c
		}
	}
	return n
}

// Restrict returns the counts of operators the catalog allows.
func (f Frequency) Restrict(c *Catalog) Frequency {
	out := NewFrequency()
	for kind, counts := range f {
		for k, n := range counts {
			if c.Contains(kind, k) {
				out.Add(kind, k, n)
			}
		}
	}
	return out
}

// FrequencyEntry is one row of a flattened frequency table.
type FrequencyEntry struct {
	Bucket ir.ValueKind
	Op     ir.OpKind
	Count  int
}

// Entries flattens f ordered by bucket, then descending count, then
// operator name.
func (f Frequency) Entries() []FrequencyEntry {
	var out []FrequencyEntry
	for kind, counts := range f {
		for k, n := range counts {
			out = append(out, FrequencyEntry{Bucket: kind, Op: k, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Bucket != b.Bucket {
			return a.Bucket < b.Bucket
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Op.String() < b.Op.String()
	})
	return out
}
