package search

import (
	"context"
	"fmt"

	"github.com/roach88/xfersynth/internal/interp"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/random"
)

// Oracle scores a candidate. Higher is better. Oracles shared by
// concurrent chains must be safe for concurrent use.
type Oracle interface {
	Score(ctx context.Context, f *ir.Function) (float64, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, f *ir.Function) (float64, error)

// Score calls fn.
func (fn OracleFunc) Score(ctx context.Context, f *ir.Function) (float64, error) {
	return fn(ctx, f)
}

// SampleOracle scores a candidate by the fraction of fixed random argument
// tuples on which it computes the same result as a reference program.
//
// Samples and reference results are computed once, so Score only reads
// shared state and is safe for concurrent use.
type SampleOracle struct {
	width   uint
	samples [][][]uint64
	want    []interp.Value
}

// NewSampleOracle draws n argument tuples for the argument layout of
// reference at the given width and evaluates reference on each.
func NewSampleOracle(reference *ir.Function, width uint, n int, src *random.Source) (*SampleOracle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample oracle: sample count must be positive, got %d", n)
	}
	o := &SampleOracle{width: width}
	mask := interp.Mask(width)
	for i := 0; i < n; i++ {
		args := make([][]uint64, len(reference.Args))
		for a, arg := range reference.Args {
			args[a] = make([]uint64, len(arg.Fields))
			for j, k := range arg.Fields {
				if k == ir.KindBool {
					args[a][j] = src.Uint64() & 1
				} else {
					args[a][j] = src.Uint64() & mask
				}
			}
		}
		want, err := interp.Eval(reference, width, args)
		if err != nil {
			return nil, fmt.Errorf("sample oracle: reference: %w", err)
		}
		o.samples = append(o.samples, args)
		o.want = append(o.want, want)
	}
	return o, nil
}

// Len returns the number of samples.
func (o *SampleOracle) Len() int { return len(o.samples) }

// Score returns the fraction of samples on which f agrees with the
// reference.
func (o *SampleOracle) Score(ctx context.Context, f *ir.Function) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	agree := 0
	for i, args := range o.samples {
		got, err := interp.Eval(f, o.width, args)
		if err != nil {
			return 0, fmt.Errorf("sample oracle: %w", err)
		}
		if got.Equal(o.want[i]) {
			agree++
		}
	}
	return float64(agree) / float64(len(o.samples)), nil
}
