package search

import (
	"strconv"

	"github.com/roach88/xfersynth/internal/catalog"
)

// Weighting selects how operators are weighted when sampled.
type Weighting string

const (
	// WeightingUniform samples every operator of a bucket equally.
	WeightingUniform Weighting = "uniform"
	// WeightingPrior samples by a named prior.
	WeightingPrior Weighting = "prior"
	// WeightingFrequency samples by the operators of accepted mutations.
	WeightingFrequency Weighting = "frequency"
	// WeightingBandit lets a Thompson sampler switch between the other
	// three every BanditInterval steps.
	WeightingBandit Weighting = "bandit"
)

// ParseWeighting accepts the four weighting names.
func ParseWeighting(s string) (Weighting, bool) {
	switch w := Weighting(s); w {
	case WeightingUniform, WeightingPrior, WeightingFrequency, WeightingBandit:
		return w, true
	}
	return "", false
}

// Config holds the per-chain search parameters.
type Config struct {
	// Steps is the number of mutation steps per chain.
	Steps int
	// Temperature scales the acceptance of worse candidates. 0 accepts
	// only candidates scoring at least as well.
	Temperature float64
	// ReplaceRatio is the probability of proposing a fresh operation
	// rather than retargeting one operand.
	ReplaceRatio float64
	// DeadRatio is the probability of drawing the target from every body
	// operation instead of the live ones.
	DeadRatio float64
	// MaxAttempts bounds the proposals tried per step.
	MaxAttempts int

	Weighting Weighting
	// Prior names the catalog prior used by the prior arm.
	Prior string

	BanditInterval int
	BanditLambda   float64
	BanditV        float64

	// DCEOnFinish removes dead code from the best candidate.
	DCEOnFinish bool
}

// DefaultConfig returns the parameters used when a run configuration
// leaves them unset.
func DefaultConfig() Config {
	return Config{
		Steps:          1000,
		Temperature:    0.05,
		ReplaceRatio:   0.7,
		DeadRatio:      0.1,
		MaxAttempts:    16,
		Weighting:      WeightingUniform,
		Prior:          "bias",
		BanditInterval: 50,
		BanditLambda:   1,
		BanditV:        0.5,
		DCEOnFinish:    true,
	}
}

// Validate checks every parameter.
func (c Config) Validate() error {
	switch {
	case c.Steps < 0:
		return configError("steps must be non-negative, got %d", c.Steps)
	case c.Temperature < 0:
		return configError("temperature must be non-negative, got %g", c.Temperature)
	case c.ReplaceRatio < 0 || c.ReplaceRatio > 1:
		return configError("replace ratio must be in [0, 1], got %g", c.ReplaceRatio)
	case c.DeadRatio < 0 || c.DeadRatio > 1:
		return configError("dead ratio must be in [0, 1], got %g", c.DeadRatio)
	case c.MaxAttempts <= 0:
		return configError("max attempts must be positive, got %d", c.MaxAttempts)
	}
	if _, ok := ParseWeighting(string(c.Weighting)); !ok {
		return configError("unknown weighting %q", c.Weighting)
	}
	if c.Weighting == WeightingPrior || c.Weighting == WeightingBandit {
		if _, ok := catalog.PriorByName(c.Prior); !ok {
			return configError("unknown prior %q", c.Prior)
		}
	}
	if c.Weighting == WeightingBandit {
		switch {
		case c.BanditInterval <= 0:
			return configError("bandit interval must be positive, got %d", c.BanditInterval)
		case c.BanditLambda <= 0:
			return configError("bandit lambda must be positive, got %g", c.BanditLambda)
		case c.BanditV < 0:
			return configError("bandit v must be non-negative, got %g", c.BanditV)
		}
	}
	return nil
}

// Params flattens c for the run record.
func (c Config) Params() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"steps":           strconv.Itoa(c.Steps),
		"temperature":     f(c.Temperature),
		"replace_ratio":   f(c.ReplaceRatio),
		"dead_ratio":      f(c.DeadRatio),
		"max_attempts":    strconv.Itoa(c.MaxAttempts),
		"weighting":       string(c.Weighting),
		"prior":           c.Prior,
		"bandit_interval": strconv.Itoa(c.BanditInterval),
		"bandit_lambda":   f(c.BanditLambda),
		"bandit_v":        f(c.BanditV),
		"dce_on_finish":   strconv.FormatBool(c.DCEOnFinish),
	}
}
