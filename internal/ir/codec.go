package ir

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FunctionSpec is the serialized form of a candidate program. It is read
// from YAML or JSON (JSON is valid YAML).
//
//	name: kb_and
//	args:
//	  - {name: lhs, fields: [int, int]}
//	  - {name: rhs, fields: [int, int]}
//	ops:
//	  - {id: l0, op: get, arg: 0, field: 0}
//	  - {id: r0, op: get, arg: 1, field: 0}
//	  - {id: z, op: or, operands: [l0, r0]}
//	  - {id: m, op: make, operands: [z, z]}
//	  - {op: return, operands: [m]}
type FunctionSpec struct {
	Name string    `yaml:"name" json:"name"`
	Args []ArgSpec `yaml:"args" json:"args"`
	Ops  []OpSpec  `yaml:"ops" json:"ops"`
}

// ArgSpec is one composite argument.
type ArgSpec struct {
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`
	Fields []string `yaml:"fields" json:"fields"`
}

// OpSpec is one operation. Value is the literal of constant and
// bool_constant (0 or 1), Pred the predicate name of cmp, Arg/Field the
// coordinates of get.
type OpSpec struct {
	ID       string   `yaml:"id,omitempty" json:"id,omitempty"`
	Op       string   `yaml:"op" json:"op"`
	Operands []string `yaml:"operands,omitempty" json:"operands,omitempty"`
	Value    *int64   `yaml:"value,omitempty" json:"value,omitempty"`
	Pred     string   `yaml:"pred,omitempty" json:"pred,omitempty"`
	Arg      int      `yaml:"arg,omitempty" json:"arg,omitempty"`
	Field    int      `yaml:"field,omitempty" json:"field,omitempty"`
}

// DecodeError reports a malformed program description.
type DecodeError struct {
	Source  string
	Index   int // operation index, -1 for whole-document errors
	Message string
}

func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: ops[%d]: %s", e.Source, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// LoadFunction reads and decodes a program file.
func LoadFunction(path string) (*Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	return DecodeFunction(data, path)
}

// DecodeFunction parses a YAML or JSON program description. Unknown fields
// are rejected.
func DecodeFunction(data []byte, source string) (*Function, error) {
	var spec FunctionSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, &DecodeError{Source: source, Index: -1, Message: err.Error()}
	}
	return spec.Build(source)
}

// Build materializes the spec as a Function. source names the origin in
// error messages.
func (s *FunctionSpec) Build(source string) (*Function, error) {
	args := make([]Arg, len(s.Args))
	for i, a := range s.Args {
		if len(a.Fields) == 0 {
			return nil, &DecodeError{Source: source, Index: -1, Message: fmt.Sprintf("args[%d] has no fields", i)}
		}
		args[i] = Arg{Name: a.Name, Fields: make([]ValueKind, len(a.Fields))}
		for j, name := range a.Fields {
			k, ok := ParseValueKind(name)
			if !ok || (k != KindInt && k != KindBool) {
				return nil, &DecodeError{Source: source, Index: -1, Message: fmt.Sprintf("args[%d] field %d has unknown kind %q", i, j, name)}
			}
			args[i].Fields[j] = k
		}
	}

	f := NewFunction(s.Name, args...)
	ids := make(map[string]ValueID, len(s.Ops))
	for i, o := range s.Ops {
		fail := func(format string, a ...any) error {
			return &DecodeError{Source: source, Index: i, Message: fmt.Sprintf(format, a...)}
		}

		kind, ok := ParseOpKind(o.Op)
		if !ok {
			return nil, fail("unknown operator %q", o.Op)
		}
		operands := make([]ValueID, len(o.Operands))
		for j, ref := range o.Operands {
			v, ok := ids[ref]
			if !ok {
				return nil, fail("operand %q is not defined before use", ref)
			}
			operands[j] = v
		}
		if err := checkOperands(f, kind, operands); err != nil {
			return nil, fail("%v", err)
		}

		var op *Operation
		switch kind {
		case OpConstant:
			op = f.NewConstant(valueOr(o.Value, 0))
		case OpBoolConstant:
			v := valueOr(o.Value, 0)
			if v != 0 && v != 1 {
				return nil, fail("bool_constant value must be 0 or 1, got %d", v)
			}
			op = f.NewBoolConstant(v == 1)
		case OpGet:
			if o.Arg < 0 || o.Arg >= len(args) || o.Field < 0 || o.Field >= len(args[o.Arg].Fields) {
				return nil, fail("get %d[%d] is out of range", o.Arg, o.Field)
			}
			op = f.NewGet(o.Arg, o.Field)
		case OpCmp:
			pred, ok := ParseCmpPredicate(o.Pred)
			if !ok {
				return nil, fail("unknown cmp predicate %q", o.Pred)
			}
			op = f.NewCmp(pred, operands[0], operands[1])
		default:
			op = f.NewOp(kind, operands...)
		}
		f.Append(op)

		if o.ID != "" {
			if op.Result() == NoValue {
				return nil, fail("%s produces no value to name %q", kind, o.ID)
			}
			if _, dup := ids[o.ID]; dup {
				return nil, fail("duplicate value id %q", o.ID)
			}
			ids[o.ID] = op.Result()
		}
	}
	return f, nil
}

func valueOr(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

// checkOperands mirrors the descriptor checks of NewOp without panicking.
func checkOperands(f *Function, kind OpKind, operands []ValueID) error {
	d := kind.Descriptor()
	if d.Variadic {
		if kind == OpReturn && len(operands) != 1 {
			return fmt.Errorf("return takes exactly one operand, got %d", len(operands))
		}
		if kind == OpMake && len(operands) == 0 {
			return fmt.Errorf("make needs at least one operand")
		}
		return nil
	}
	if len(operands) != len(d.Operands) {
		return fmt.Errorf("%s takes %d operands, got %d", kind, len(d.Operands), len(operands))
	}
	for i, v := range operands {
		if got := f.Kind(v); got != d.Operands[i] {
			return fmt.Errorf("%s operand %d must be %s, got %s", kind, i, d.Operands[i], got)
		}
	}
	return nil
}

// Spec converts the attached program back to its serialized form. Values
// are named v0, v1, ... in program order.
func Spec(f *Function) FunctionSpec {
	out := FunctionSpec{Name: f.Name, Args: make([]ArgSpec, len(f.Args))}
	for i, a := range f.Args {
		fields := make([]string, len(a.Fields))
		for j, k := range a.Fields {
			fields[j] = k.String()
		}
		out.Args[i] = ArgSpec{Name: a.Name, Fields: fields}
	}

	numbering := number(f)
	name := func(v ValueID) string { return fmt.Sprintf("v%d", numbering[v]) }
	for op := f.First(); op != nil; op = op.Next() {
		o := OpSpec{Op: op.Kind.String()}
		if op.result != NoValue {
			o.ID = name(op.result)
		}
		for _, v := range op.operands {
			o.Operands = append(o.Operands, name(v))
		}
		switch op.Kind {
		case OpConstant, OpBoolConstant:
			v := op.Attr
			o.Value = &v
		case OpCmp:
			o.Pred = op.Predicate().String()
		case OpGet:
			o.Arg = op.Arg
			o.Field = int(op.Attr)
		}
		out.Ops = append(out.Ops, o)
	}
	return out
}

// EncodeYAML serializes the attached program.
func EncodeYAML(f *Function) ([]byte, error) {
	spec := Spec(f)
	return yaml.Marshal(&spec)
}
