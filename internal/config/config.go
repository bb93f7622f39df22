// Package config loads run configurations and operator-set files.
//
// A run configuration is a YAML document; unknown fields are rejected so
// typos fail the load instead of silently falling back to defaults.
//
//	seed: 42
//	steps: 2000
//	chains: 4
//	opset: custom1          # preset name, or
//	opset_file: ops.cue     # a .yaml/.yml/.json/.cue file, relative to this file
//	weighting: bandit
//	bandit: {lambda: 1, v: 0.5, interval: 50}
//	oracle: {samples: 256, width: 8}
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/compiler"
	"github.com/roach88/xfersynth/internal/ir"
	"github.com/roach88/xfersynth/internal/search"
	"github.com/roach88/xfersynth/internal/synth"
)

// RunConfig is the YAML form of a run. Pointer fields distinguish "unset"
// from an explicit zero; unset fields take search.DefaultConfig values.
type RunConfig struct {
	Seed        uint64 `yaml:"seed"`
	Steps       *int   `yaml:"steps,omitempty"`
	Chains      int    `yaml:"chains,omitempty"`
	Parallelism int    `yaml:"parallelism,omitempty"`

	// OpSet names a preset; OpSetFile points at an operator-set file.
	// When both are set, OpSet selects the set inside a multi-set CUE file.
	OpSet     string `yaml:"opset,omitempty"`
	OpSetFile string `yaml:"opset_file,omitempty"`

	Weighting string `yaml:"weighting,omitempty"`
	Prior     string `yaml:"prior,omitempty"`

	SkipTrivial *bool `yaml:"skip_trivial,omitempty"`
	Idempotent  *bool `yaml:"idempotent,omitempty"`
	CmpFlags    []int `yaml:"cmp_flags,omitempty"`

	ReplaceRatio *float64 `yaml:"replace_ratio,omitempty"`
	DeadRatio    *float64 `yaml:"dead_ratio,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	MaxAttempts  int      `yaml:"max_attempts,omitempty"`

	Bandit BanditConfig `yaml:"bandit,omitempty"`
	Oracle OracleConfig `yaml:"oracle,omitempty"`

	DCE *bool `yaml:"dce,omitempty"`

	// dir resolves OpSetFile for configurations loaded from disk.
	dir string
}

// BanditConfig holds the adaptive weighting parameters.
type BanditConfig struct {
	Lambda   float64  `yaml:"lambda,omitempty"`
	V        *float64 `yaml:"v,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
}

// OracleConfig holds the sample oracle parameters.
type OracleConfig struct {
	Samples int  `yaml:"samples,omitempty"`
	Width   uint `yaml:"width,omitempty"`
	// Seed draws the samples. Defaults to the run seed.
	Seed *uint64 `yaml:"seed,omitempty"`
}

const (
	// DefaultSamples is the oracle sample count when unset.
	DefaultSamples = 256
	// DefaultWidth is the oracle bit width when unset.
	DefaultWidth = 8
)

// Load reads and parses a run configuration file.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a run configuration. Relative operator-set paths resolve
// against the working directory.
func Parse(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.Chains < 0 {
		return nil, fmt.Errorf("chains must be positive, got %d", cfg.Chains)
	}
	if cfg.Oracle.Width > 64 {
		return nil, fmt.Errorf("oracle width must be in 1..64, got %d", cfg.Oracle.Width)
	}
	if cfg.Oracle.Samples < 0 {
		return nil, fmt.Errorf("oracle samples must be positive, got %d", cfg.Oracle.Samples)
	}
	return &cfg, nil
}

// SetBaseDir sets the directory a relative OpSetFile resolves against.
// Load sets it to the configuration file's directory.
func (c *RunConfig) SetBaseDir(dir string) { c.dir = dir }

// Search returns the per-chain search parameters, validated.
func (c *RunConfig) Search() (search.Config, error) {
	out := search.DefaultConfig()
	if c.Steps != nil {
		out.Steps = *c.Steps
	}
	if c.Weighting != "" {
		out.Weighting = search.Weighting(c.Weighting)
	}
	if c.Prior != "" {
		out.Prior = c.Prior
	}
	setFloat(&out.ReplaceRatio, c.ReplaceRatio)
	setFloat(&out.DeadRatio, c.DeadRatio)
	setFloat(&out.Temperature, c.Temperature)
	if c.MaxAttempts != 0 {
		out.MaxAttempts = c.MaxAttempts
	}
	if c.Bandit.Lambda != 0 {
		out.BanditLambda = c.Bandit.Lambda
	}
	setFloat(&out.BanditV, c.Bandit.V)
	if c.Bandit.Interval != 0 {
		out.BanditInterval = c.Bandit.Interval
	}
	if c.DCE != nil {
		out.DCEOnFinish = *c.DCE
	}
	if err := out.Validate(); err != nil {
		return search.Config{}, err
	}
	return out, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Heuristics returns the selection heuristics, both enabled unless
// switched off.
func (c *RunConfig) Heuristics() synth.Heuristics {
	h := synth.DefaultHeuristics()
	if c.SkipTrivial != nil {
		h.SkipTrivial = *c.SkipTrivial
	}
	if c.Idempotent != nil {
		h.Idempotent = *c.Idempotent
	}
	return h
}

// ResolveOpSet returns the operator set the run samples from: the file if
// one is named, else the named preset, else every body operator.
func (c *RunConfig) ResolveOpSet() (catalog.OpSet, error) {
	if c.OpSetFile != "" {
		path := c.OpSetFile
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		return LoadOpSet(path, c.OpSet)
	}
	if c.OpSet == "" {
		return catalog.DefaultOpSet(), nil
	}
	set, ok := catalog.Preset(c.OpSet)
	if !ok {
		return catalog.OpSet{}, fmt.Errorf("unknown operator set %q (known: %s)",
			c.OpSet, strings.Join(catalog.PresetNames(ir.KindInt), ", "))
	}
	return set, nil
}

// Samples returns the oracle sample count.
func (c *RunConfig) Samples() int {
	if c.Oracle.Samples == 0 {
		return DefaultSamples
	}
	return c.Oracle.Samples
}

// Width returns the oracle bit width.
func (c *RunConfig) Width() uint {
	if c.Oracle.Width == 0 {
		return DefaultWidth
	}
	return c.Oracle.Width
}

// OracleSeed returns the seed the oracle draws its samples from.
func (c *RunConfig) OracleSeed() uint64 {
	if c.Oracle.Seed != nil {
		return *c.Oracle.Seed
	}
	return c.Seed
}

// RunOptions returns the options for search.RunChains. Logger, store and
// frequency seeding are left to the caller.
func (c *RunConfig) RunOptions() (search.RunOptions, error) {
	set, err := c.ResolveOpSet()
	if err != nil {
		return search.RunOptions{}, err
	}
	h := c.Heuristics()
	return search.RunOptions{
		Chains:      c.Chains,
		Seed:        c.Seed,
		OpSet:       set,
		Heuristics:  &h,
		CmpFlags:    c.CmpFlags,
		Parallelism: c.Parallelism,
	}, nil
}

// LoadOpSet loads an operator-set file by extension: .yaml, .yml and .json
// through the YAML decoder, .cue through the CUE compiler. A CUE file
// declaring several sets needs name to pick one.
func LoadOpSet(path, name string) (catalog.OpSet, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		set, err := catalog.LoadOpSet(path)
		if err != nil {
			return catalog.OpSet{}, err
		}
		if name != "" && set.Name != "" && set.Name != name {
			return catalog.OpSet{}, fmt.Errorf("%s declares operator set %q, not %q", path, set.Name, name)
		}
		return set, nil
	case ".cue":
		sets, err := compiler.CompileFile(path)
		if err != nil {
			return catalog.OpSet{}, err
		}
		return pick(path, sets, name)
	default:
		return catalog.OpSet{}, fmt.Errorf("unsupported operator set extension %q", ext)
	}
}

func pick(path string, sets []catalog.OpSet, name string) (catalog.OpSet, error) {
	if name == "" {
		if len(sets) == 1 {
			return sets[0], nil
		}
		names := make([]string, len(sets))
		for i, s := range sets {
			names[i] = s.Name
		}
		return catalog.OpSet{}, fmt.Errorf("%s declares %d operator sets (%s); name one", path, len(sets), strings.Join(names, ", "))
	}
	for _, s := range sets {
		if s.Name == name {
			return s, nil
		}
	}
	return catalog.OpSet{}, fmt.Errorf("%s declares no operator set %q", path, name)
}
