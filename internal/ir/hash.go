package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainProgram is the domain prefix for program identity.
// The version suffix enables future algorithm migration.
const DomainProgram = "xfersynth/program/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed identity of the attached
// program. Names are excluded: two candidates hash equal exactly when they
// have the same argument layout and the same operation sequence with the
// same operand wiring.
func ProgramHash(f *Function) (string, error) {
	canonical, err := MarshalCanonical(canonicalForm(f))
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when the program is known to be well formed.
func MustProgramHash(f *Function) string {
	h, err := ProgramHash(f)
	if err != nil {
		panic(err)
	}
	return h
}

func canonicalForm(f *Function) map[string]any {
	args := make([]any, len(f.Args))
	for i, a := range f.Args {
		fields := make([]string, len(a.Fields))
		for j, k := range a.Fields {
			fields[j] = k.String()
		}
		args[i] = fields
	}

	numbering := number(f)
	ops := make([]any, 0, f.Len())
	for op := f.First(); op != nil; op = op.Next() {
		operands := make([]int, len(op.operands))
		for i, v := range op.operands {
			operands[i] = numbering[v]
		}
		entry := map[string]any{
			"op":       op.Kind.QualifiedName(),
			"operands": operands,
			"attr":     op.Attr,
			"arg":      op.Arg,
		}
		if op.result != NoValue {
			entry["result"] = f.Kind(op.result).String()
		}
		ops = append(ops, entry)
	}

	return map[string]any{
		"ir_version": IRVersion,
		"args":       args,
		"ops":        ops,
	}
}

// number assigns sequential indices to results in program order.
func number(f *Function) map[ValueID]int {
	m := make(map[ValueID]int, f.Len())
	for op := f.First(); op != nil; op = op.Next() {
		if op.result != NoValue {
			m[op.result] = len(m)
		}
	}
	return m
}
