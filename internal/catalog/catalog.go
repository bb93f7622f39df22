package catalog

import (
	"fmt"

	"github.com/roach88/xfersynth/internal/collection"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
)

// Catalog is the per-run operator catalog. It is owned by a single
// synthesizer and is not safe for concurrent use.
type Catalog struct {
	src      *random.Source
	buckets  map[ir.ValueKind]*collection.Collection[ir.OpKind]
	weights  map[ir.ValueKind]Weights
	weighted bool
	version  uint64
}

// New builds a catalog over set with uniform weights. The set should have
// been validated.
func New(set OpSet, src *random.Source) *Catalog {
	c := &Catalog{
		src:     src,
		buckets: make(map[ir.ValueKind]*collection.Collection[ir.OpKind], 2),
		weights: make(map[ir.ValueKind]Weights, 2),
	}
	c.setOps(ir.KindInt, set.Int)
	c.setOps(ir.KindBool, set.Bool)
	return c
}

func (c *Catalog) setOps(kind ir.ValueKind, ops []ir.OpKind) {
	c.buckets[kind] = collection.New(ops, c.src)
	c.weights[kind] = UniformWeights(ops)
}

// SetOps replaces the bucket for kind and resets its weights to uniform.
func (c *Catalog) SetOps(kind ir.ValueKind, ops []ir.OpKind) {
	c.setOps(kind, ops)
	c.version++
}

// Ops returns the bucket for kind in slot order.
func (c *Catalog) Ops(kind ir.ValueKind) []ir.OpKind {
	b, ok := c.buckets[kind]
	if !ok {
		return nil
	}
	return b.Items()
}

// Contains reports whether k is allowed in the bucket for kind.
func (c *Catalog) Contains(kind ir.ValueKind, k ir.OpKind) bool {
	b, ok := c.buckets[kind]
	return ok && b.Contains(k)
}

// SetWeighted switches between weighted and uniform sampling.
func (c *Catalog) SetWeighted(weighted bool) { c.weighted = weighted }

// Weighted reports whether sampling uses the weight map.
func (c *Catalog) Weighted() bool { return c.weighted }

// Version counts weight and bucket updates.
func (c *Catalog) Version() uint64 { return c.version }

// Sample draws an operator kind from the bucket for kind. It returns false
// if the bucket is empty.
func (c *Catalog) Sample(kind ir.ValueKind) (ir.OpKind, bool) {
	b, ok := c.buckets[kind]
	if !ok {
		return ir.OpInvalid, false
	}
	if c.weighted {
		return b.PickWeighted(c.weights[kind])
	}
	return b.PickUniform()
}

// Weights returns a copy of the weights of the bucket for kind.
func (c *Catalog) Weights(kind ir.ValueKind) Weights {
	return c.weights[kind].Clone()
}

// SetWeights installs w for the bucket of kind. Every key of w must be in
// the bucket; bucket members missing from w weigh 1.
func (c *Catalog) SetWeights(kind ir.ValueKind, w Weights) error {
	b, ok := c.buckets[kind]
	if !ok {
		return fmt.Errorf("catalog has no %s bucket", kind)
	}
	next := UniformWeights(b.Items())
	for k, v := range w {
		if !b.Contains(k) {
			return fmt.Errorf("operator %s is not in the %s bucket", k, kind)
		}
		if v < 0 {
			return fmt.Errorf("operator %s has negative weight %v", k, v)
		}
		next[k] = v
	}
	c.weights[kind] = next
	c.version++
	return nil
}

// ApplyPrior installs the prior's weights restricted to each bucket.
func (c *Catalog) ApplyPrior(p Prior) {
	for kind, b := range c.buckets {
		src := p.For(kind)
		next := UniformWeights(b.Items())
		for _, k := range b.Items() {
			if v, ok := src[k]; ok {
				next[k] = v
			}
		}
		c.weights[kind] = next
	}
	c.version++
}

// ObserveFrequencies resets each observed bucket to a baseline of 1 and
// adds the observed count of every operator. Counts for operators outside
// the bucket are an error; use Frequency.Restrict to drop them first.
func (c *Catalog) ObserveFrequencies(freq Frequency) error {
	next := make(map[ir.ValueKind]Weights, len(freq))
	for kind, counts := range freq {
		b, ok := c.buckets[kind]
		if !ok {
			return fmt.Errorf("catalog has no %s bucket", kind)
		}
		w := UniformWeights(b.Items())
		for k, n := range counts {
			if !b.Contains(k) {
				return fmt.Errorf("operator %s is not in the %s bucket", k, kind)
			}
			w[k] += float64(n)
		}
		next[kind] = w
	}
	for kind, w := range next {
		c.weights[kind] = w
	}
	c.version++
	return nil
}
