package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/xfersynth/internal/ir"
)

// OpSet names the allowed operator kinds of both buckets.
type OpSet struct {
	Name string
	Int  []ir.OpKind
	Bool []ir.OpKind
}

// Ops returns the bucket for kind.
func (s OpSet) Ops(kind ir.ValueKind) []ir.OpKind {
	if kind == ir.KindBool {
		return s.Bool
	}
	return s.Int
}

// Validate checks that both buckets are non-empty, duplicate-free and hold
// only body operators of the bucket's result kind.
func (s OpSet) Validate(source string) error {
	for _, b := range []struct {
		name string
		kind ir.ValueKind
		ops  []ir.OpKind
	}{{"int", ir.KindInt, s.Int}, {"bool", ir.KindBool, s.Bool}} {
		if len(b.ops) == 0 {
			return &ConfigError{Source: source, Entry: b.name, Message: "bucket is empty"}
		}
		seen := make(map[ir.OpKind]bool, len(b.ops))
		for i, k := range b.ops {
			entry := fmt.Sprintf("%s[%d]", b.name, i)
			if err := checkBucketKind(b.kind, k); err != nil {
				return &ConfigError{Source: source, Entry: entry, Message: err.Error()}
			}
			if seen[k] {
				return &ConfigError{Source: source, Entry: entry, Message: fmt.Sprintf("duplicate operator %q", k)}
			}
			seen[k] = true
		}
	}
	return nil
}

func checkBucketKind(kind ir.ValueKind, k ir.OpKind) error {
	if !k.InMainBody() {
		return fmt.Errorf("operator %q cannot be sampled", k)
	}
	if k.ResultKind() != kind {
		return fmt.Errorf("operator %q produces %s, not %s", k, k.ResultKind(), kind)
	}
	return nil
}

// Lookup resolves an operator identifier for the bucket of kind. Unknown
// identifiers and operators of the wrong result kind are errors.
func Lookup(kind ir.ValueKind, name string) (ir.OpKind, error) {
	k, ok := ir.ParseOpKind(name)
	if !ok {
		return ir.OpInvalid, fmt.Errorf("unknown operator %q", name)
	}
	if err := checkBucketKind(kind, k); err != nil {
		return ir.OpInvalid, err
	}
	return k, nil
}

// ConfigError reports a malformed operator-set entry.
type ConfigError struct {
	Source  string
	Entry   string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.Source, e.Line, e.Entry, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Entry, e.Message)
}

// IsConfigError checks if an error is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

type opSetDoc struct {
	Name string    `yaml:"name"`
	Int  yaml.Node `yaml:"int"`
	Bool yaml.Node `yaml:"bool"`
}

// LoadOpSet reads an operator-set file in YAML or JSON form.
func LoadOpSet(path string) (OpSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OpSet{}, fmt.Errorf("failed to read operator set: %w", err)
	}
	return ParseOpSet(data, path)
}

// ParseOpSet decodes an operator set. Each bucket is either a preset name
// or a list of entries; an absent bucket takes the full preset.
//
//	name: bitwise
//	int: [neg, and, transfer.or, {op_name: xor}]
//	bool: basic
func ParseOpSet(data []byte, source string) (OpSet, error) {
	var doc opSetDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return OpSet{}, &ConfigError{Source: source, Entry: "document", Message: err.Error()}
	}

	set := OpSet{Name: doc.Name}
	var err error
	if set.Int, err = parseBucket(&doc.Int, "int", ir.KindInt, source); err != nil {
		return OpSet{}, err
	}
	if set.Bool, err = parseBucket(&doc.Bool, "bool", ir.KindBool, source); err != nil {
		return OpSet{}, err
	}
	if err := set.Validate(source); err != nil {
		return OpSet{}, err
	}
	return set, nil
}

func parseBucket(n *yaml.Node, bucket string, kind ir.ValueKind, source string) ([]ir.OpKind, error) {
	fail := func(entry string, line int, format string, a ...any) error {
		return &ConfigError{Source: source, Entry: entry, Line: line, Message: fmt.Sprintf(format, a...)}
	}

	switch n.Kind {
	case 0:
		ops, _ := PresetOps(kind, "full")
		return ops, nil
	case yaml.ScalarNode:
		ops, ok := PresetOps(kind, n.Value)
		if !ok {
			return nil, fail(bucket, n.Line, "unknown preset %q (want one of %v)", n.Value, PresetNames(kind))
		}
		return ops, nil
	case yaml.SequenceNode:
	default:
		return nil, fail(bucket, n.Line, "expected a preset name or a list of operators")
	}

	ops := make([]ir.OpKind, 0, len(n.Content))
	for i, item := range n.Content {
		entry := fmt.Sprintf("%s[%d]", bucket, i)
		name, err := entryName(item)
		if err != nil {
			return nil, fail(entry, item.Line, "%v", err)
		}
		k, err := Lookup(kind, name)
		if err != nil {
			return nil, fail(entry, item.Line, "%v", err)
		}
		if slices.Contains(ops, k) {
			return nil, fail(entry, item.Line, "duplicate operator %q", k)
		}
		ops = append(ops, k)
	}
	return ops, nil
}

// entryName accepts a bare scalar or the {op_name: <name>} wrapper.
func entryName(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 || n.Content[0].Value != "op_name" {
			return "", fmt.Errorf("operator entry must have exactly the key op_name")
		}
		if v := n.Content[1]; v.Kind == yaml.ScalarNode {
			return v.Value, nil
		}
		return "", fmt.Errorf("op_name must be a string")
	}
	return "", fmt.Errorf("operator entry must be a name or {op_name: name}")
}
