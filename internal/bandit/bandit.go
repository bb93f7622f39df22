// Package bandit implements linear Thompson sampling over context vectors.
//
// The posterior over the reward weights is Gaussian with mean B⁻¹f and
// covariance v²B⁻¹, where B starts at λI and accumulates the outer product
// of every observed context, and f accumulates reward-scaled contexts.
// There is no forgetting: every Update adds information.
package bandit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/xfersynth/internal/random"
)

// ErrDimension is returned when a context does not have the sampler's
// feature dimension.
var ErrDimension = errors.New("bandit: context dimension mismatch")

// Sampler is a linear Thompson sampler. It is not safe for concurrent use.
type Sampler struct {
	d   int
	v   float64
	src *random.Source

	precision *mat.SymDense // B
	reward    *mat.VecDense // f
	mean      *mat.VecDense // θ = B⁻¹f
	cov       *mat.SymDense // B⁻¹
	scale     *mat.TriDense // lower Cholesky factor of B⁻¹
}

// New creates a sampler over d features with prior precision λI and
// exploration scale v.
func New(d int, lambda, v float64, src *random.Source) (*Sampler, error) {
	if d <= 0 {
		return nil, fmt.Errorf("bandit: feature dimension must be positive, got %d", d)
	}
	if lambda <= 0 {
		return nil, fmt.Errorf("bandit: lambda must be positive, got %g", lambda)
	}
	if v < 0 {
		return nil, fmt.Errorf("bandit: v must be non-negative, got %g", v)
	}
	s := &Sampler{
		d:         d,
		v:         v,
		src:       src,
		precision: mat.NewSymDense(d, nil),
		reward:    mat.NewVecDense(d, nil),
		mean:      mat.NewVecDense(d, nil),
	}
	for i := 0; i < d; i++ {
		s.precision.SetSym(i, i, lambda)
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dim returns the feature dimension.
func (s *Sampler) Dim() int { return s.d }

// refresh recomputes the covariance, its Cholesky factor and the mean from
// the precision and reward accumulators.
func (s *Sampler) refresh() error {
	var chol mat.Cholesky
	if ok := chol.Factorize(s.precision); !ok {
		return errors.New("bandit: precision matrix is not positive definite")
	}
	cov := mat.NewSymDense(s.d, nil)
	if err := chol.InverseTo(cov); err != nil {
		return fmt.Errorf("bandit: failed to invert precision: %w", err)
	}

	var covChol mat.Cholesky
	if ok := covChol.Factorize(cov); !ok {
		return errors.New("bandit: covariance is not positive definite")
	}
	scale := mat.NewTriDense(s.d, mat.Lower, nil)
	covChol.LTo(scale)

	s.cov = cov
	s.scale = scale
	s.mean.MulVec(cov, s.reward)
	return nil
}

func (s *Sampler) check(x []float64) error {
	if len(x) != s.d {
		return fmt.Errorf("%w: got %d features, want %d", ErrDimension, len(x), s.d)
	}
	return nil
}

// Choose draws a weight vector from the posterior, scores every context
// row by its dot product with the draw and returns the index of the best
// row. Ties go to the lowest index. It returns -1 for no rows.
func (s *Sampler) Choose(contexts [][]float64) (int, error) {
	if len(contexts) == 0 {
		return -1, nil
	}
	for _, x := range contexts {
		if err := s.check(x); err != nil {
			return -1, err
		}
	}

	z := mat.NewVecDense(s.d, nil)
	for i := 0; i < s.d; i++ {
		z.SetVec(i, s.src.NormFloat64())
	}
	noise := mat.NewVecDense(s.d, nil)
	noise.MulVec(s.scale, z)
	theta := mat.NewVecDense(s.d, nil)
	theta.AddScaledVec(s.mean, s.v, noise)

	best, bestScore := 0, 0.0
	for i, x := range contexts {
		score := mat.Dot(theta, mat.NewVecDense(s.d, append([]float64(nil), x...)))
		if i == 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, nil
}

// Update folds the reward observed for context x into the posterior.
func (s *Sampler) Update(x []float64, reward float64) error {
	if err := s.check(x); err != nil {
		return err
	}
	xv := mat.NewVecDense(s.d, append([]float64(nil), x...))
	s.precision.SymRankOne(s.precision, 1, xv)
	s.reward.AddScaledVec(s.reward, reward, xv)
	return s.refresh()
}

// Mean returns a copy of the posterior mean.
func (s *Sampler) Mean() []float64 {
	out := make([]float64, s.d)
	for i := range out {
		out[i] = s.mean.AtVec(i)
	}
	return out
}

// Precision returns a copy of the precision matrix B.
func (s *Sampler) Precision() *mat.SymDense {
	m := mat.NewSymDense(s.d, nil)
	m.CopySym(s.precision)
	return m
}

// Covariance returns a copy of B⁻¹.
func (s *Sampler) Covariance() *mat.SymDense {
	m := mat.NewSymDense(s.d, nil)
	m.CopySym(s.cov)
	return m
}

// OneHot returns the standard basis vector i of dimension d, the context
// of arm i when arms carry no features.
func OneHot(d, i int) []float64 {
	x := make([]float64, d)
	x[i] = 1
	return x
}
